package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zhwir/offline-tx-validator/pkg/chainquery"
	"github.com/zhwir/offline-tx-validator/pkg/chains"
	"github.com/zhwir/offline-tx-validator/pkg/config"
	"github.com/zhwir/offline-tx-validator/pkg/report"
	"go.uber.org/zap"
)

const addTokenPairFragment = `{"name": "addTokenPair", "type": "function", "inputs": [
	{"name": "id", "type": "uint256"},
	{"name": "aInfo", "type": "tuple", "components": [
		{"name": "account", "type": "bytes"},
		{"name": "name", "type": "string"},
		{"name": "symbol", "type": "string"},
		{"name": "decimals", "type": "uint8"},
		{"name": "chainID", "type": "uint256"}
	]},
	{"name": "fromChainID", "type": "uint256"},
	{"name": "fromAccount", "type": "bytes"},
	{"name": "toChainID", "type": "uint256"},
	{"name": "toAccount", "type": "bytes"}
]}`

const pair7Params = `["7", ["0x0000000000000000000000000000000000000000", "Ethereum", "ETH", "18", "60000000"],
	"60000000", "0x0000000000000000000000000000000000000000", 60000002, "0x4444444444444444444444444444444444444444"]`

const (
	ethAdmin = "0x1111111111111111111111111111111111111111"
	wanAdmin = "0x2222222222222222222222222222222222222222"
	trxAdmin = "TR7NHqjeKQxGTCi8q8ZY4pL8otSzgjLj6t"
	ethProxy = "0xeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeee"
	wanProxy = "0xdddddddddddddddddddddddddddddddddddddddd"
	bscProxy = "0xcccccccccccccccccccccccccccccccccccccccc"
	bscWeth  = "0x4444444444444444444444444444444444444444"
)

var fixedNow = time.UnixMilli(1700000000000)

type mockQuerier struct {
	mu         sync.Mutex
	nonces     map[string]uint64
	nonceErr   error
	nonceCalls int
	contracts  map[string]map[string][]interface{}
}

func newMockQuerier() *mockQuerier {
	return &mockQuerier{
		nonces: map[string]uint64{},
		contracts: map[string]map[string][]interface{}{
			bscWeth: {
				"name":        {"Wrapped Ether"},
				"symbol":      {"wETH"},
				"balanceOf":   {big.NewInt(0)},
				"decimals":    {uint8(18)},
				"totalSupply": {big.NewInt(1)},
				"allowance":   {big.NewInt(0)},
				"owner":       {common.HexToAddress(bscProxy)},
			},
		},
	}
}

func (m *mockQuerier) Nonce(ctx context.Context, chain string, address string) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nonceCalls++
	if m.nonceErr != nil {
		return 0, m.nonceErr
	}
	return m.nonces[chain+":"+strings.ToLower(address)], nil
}

func (m *mockQuerier) CallContract(ctx context.Context, chain string, contract string, contractAbi *abi.ABI, method string, args ...interface{}) ([]interface{}, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if out, exists := m.contracts[strings.ToLower(contract)][method]; exists {
		return out, nil
	}
	return nil, chainquery.ErrNotSupported
}

func (m *mockQuerier) RegisteredOriginTokens(ctx context.Context, chain string) ([]string, error) {
	return nil, nil
}

func newTestSession(t *testing.T, q chainquery.Querier, policy config.Policy) (*Session, *report.Sink, *bytes.Buffer) {
	registry, err := chains.NewRegistry(chains.UnitTestChains())
	require.NoError(t, err)
	out := &bytes.Buffer{}
	sink := report.NewSink(zap.NewNop(), report.NewPrinter(out, false))
	s := NewSession(zap.NewNop(), registry, q, policy, sink)
	s.now = func() time.Time { return fixedNow }
	return s, sink, out
}

func rawParams(t *testing.T, params string) []json.RawMessage {
	var raw []json.RawMessage
	require.NoError(t, json.Unmarshal([]byte(params), &raw))
	return raw
}

func unsupportedTx(chain, chainID, from, nonce string) Transaction {
	return Transaction{
		Chain:    chain,
		ChainID:  Quantity(chainID),
		From:     from,
		To:       "0x9999999999999999999999999999999999999999",
		Nonce:    Quantity(nonce),
		GasPrice: "1000000000",
		GasLimit: "300000",
		Abi:      json.RawMessage(`{"name": "transfer", "type": "function", "inputs": []}`),
		Topic:    "transfer",
	}
}

func pairTx(t *testing.T, chain, chainID, from, to string) Transaction {
	return Transaction{
		Chain:    chain,
		ChainID:  Quantity(chainID),
		From:     from,
		To:       to,
		Nonce:    "0",
		GasPrice: "1000000000",
		GasLimit: "300000",
		Abi:      json.RawMessage(addTokenPairFragment),
		Params:   rawParams(t, pair7Params),
		Topic:    "add token pair 7",
	}
}

func trxTx(number, timestamp string) Transaction {
	return Transaction{
		Chain:    "TRX",
		From:     trxAdmin,
		FeeLimit: "1000000000",
		RefBlock: &RefBlock{Number: Quantity(number), Hash: "0xabcdef", Timestamp: Quantity(timestamp)},
		Abi:      json.RawMessage(`{"name": "transfer", "inputs": []}`),
		Topic:    "trx transfer",
	}
}

func messages(findings []report.Finding, index int, severity report.Severity) []string {
	var out []string
	for _, f := range findings {
		if f.Index == index && f.Severity == severity {
			out = append(out, f.Message)
		}
	}
	return out
}

func TestNonceAdvancesToObservedPlusOne(t *testing.T) {
	q := newMockQuerier()
	q.nonces["WAN:"+wanAdmin] = 5
	s, sink, _ := newTestSession(t, q, config.DefaultPolicy())

	txs := []Transaction{
		unsupportedTx("WAN", "888", wanAdmin, "5"),
		unsupportedTx("WAN", "888", wanAdmin, "9"),
		unsupportedTx("WAN", "888", wanAdmin, "3"),
		unsupportedTx("WAN", "888", wanAdmin, "4"),
	}
	summary := s.Run(context.Background(), txs, "batch.json")

	findings := sink.Findings()
	assert.Empty(t, messages(findings, 0, report.SeverityDetail))
	assert.Equal(t, []string{"invalid chain WAN " + wanAdmin + " nonce: 9, expected 6"}, messages(findings, 1, report.SeverityDetail))
	assert.Equal(t, []string{"invalid chain WAN " + wanAdmin + " nonce: 3, expected 10"}, messages(findings, 2, report.SeverityDetail))
	assert.Empty(t, messages(findings, 3, report.SeverityDetail))
	assert.Equal(t, 1, q.nonceCalls)

	for i := range txs {
		assert.Equal(t, []string{"need manually validate transfer tx"}, messages(findings, i, report.SeverityWarn))
	}
	assert.Equal(t, 0, summary.Aborted)
	assert.Equal(t, report.VerdictGo, summary.Verdict, "reserved nonces do not block the batch")
}

func TestNonceUnavailable(t *testing.T) {
	q := newMockQuerier()
	q.nonceErr = chainquery.ErrUnavailable
	s, sink, _ := newTestSession(t, q, config.DefaultPolicy())

	s.Run(context.Background(), []Transaction{
		unsupportedTx("WAN", "888", wanAdmin, "5"),
		unsupportedTx("WAN", "888", wanAdmin, "6"),
	}, "batch.json")

	findings := sink.Findings()
	assert.Equal(t, []string{"chain WAN " + wanAdmin + " nonce unknown, chain query unavailable"}, messages(findings, 0, report.SeverityDetail))
	assert.Empty(t, messages(findings, 1, report.SeverityDetail))
	assert.Equal(t, 1, q.nonceCalls)
}

func TestUnavailableQueryKeepsVerdict(t *testing.T) {
	q := newMockQuerier()
	q.nonceErr = chainquery.ErrUnavailable
	s, sink, out := newTestSession(t, q, config.DefaultPolicy())

	wan := pairTx(t, "WAN", "888", wanAdmin, wanProxy)
	eth := pairTx(t, "ETH", "1", ethAdmin, ethProxy)
	eth.Nonce = "3"
	summary := s.Run(context.Background(), []Transaction{wan, eth}, "batch.json")

	findings := sink.Findings()
	assert.Equal(t, []string{"chain WAN " + wanAdmin + " nonce unknown, chain query unavailable"}, messages(findings, 0, report.SeverityDetail))
	assert.Equal(t, []string{"chain ETH " + ethAdmin + " nonce unknown, chain query unavailable"}, messages(findings, 1, report.SeverityDetail))
	for _, f := range findings {
		assert.False(t, f.Blocking(), f.Message)
	}

	assert.Equal(t, 0, summary.Aborted)
	assert.Equal(t, 2, summary.NotClean)
	assert.Equal(t, 2, summary.Unknown)
	assert.Equal(t, report.VerdictGo, summary.Verdict)
	assert.Equal(t, 2, strings.Count(out.String(), "Not clean\n"))
}

func TestIdentityChecks(t *testing.T) {
	tests := map[string]struct {
		tx      Transaction
		aborted bool
		message string
	}{
		"unknown chain": {
			tx:      unsupportedTx("FOO", "1", ethAdmin, "0"),
			aborted: true,
			message: "invalid chain: FOO",
		},
		"wallet id mismatch": {
			tx:      unsupportedTx("ETH", "2", ethAdmin, "0"),
			aborted: true,
			message: "invalid chainId: 2, expected 1",
		},
		"hex wallet id": {
			tx:      unsupportedTx("ETH", "0x1", ethAdmin, "0"),
			message: "need manually validate transfer tx",
		},
		"wrong sender": {
			tx:      unsupportedTx("ETH", "1", wanAdmin, "0"),
			aborted: true,
			message: "invalid from: " + wanAdmin + ", expected " + ethAdmin,
		},
		"sender case differs": {
			tx:      unsupportedTx("ETH", "1", strings.ToUpper(ethAdmin), "0"),
			message: "need manually validate transfer tx",
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			s, sink, _ := newTestSession(t, newMockQuerier(), config.DefaultPolicy())
			summary := s.Run(context.Background(), []Transaction{tc.tx}, "batch.json")

			findings := sink.Findings()
			require.NotEmpty(t, findings)
			last := findings[len(findings)-1]
			assert.Equal(t, tc.message, last.Message)
			assert.Equal(t, tc.aborted, summary.Results[0].Aborted)
			if tc.aborted {
				assert.Equal(t, report.SeverityError, last.Severity)
				assert.Equal(t, report.ClassStructural, last.Class)
			}
		})
	}
}

func TestGasPolicy(t *testing.T) {
	tests := map[string]struct {
		gasPrice string
		gasLimit string
		strict   bool
		aborted  bool
		warnings []string
	}{
		"at floor": {
			gasPrice: "1000000000",
			gasLimit: "300000",
		},
		"hex quantities": {
			gasPrice: "0x3b9aca00",
			gasLimit: "0x493e0",
		},
		"price below floor": {
			gasPrice: "999999999",
			gasLimit: "300000",
			warnings: []string{"invalid gasPrice: 999999999, at least 1000000000"},
		},
		"price below floor with strict fees": {
			gasPrice: "999999999",
			gasLimit: "300000",
			strict:   true,
			aborted:  true,
		},
		"limit below floor": {
			gasPrice: "1000000000",
			gasLimit: "21000",
			warnings: []string{"invalid gasLimit: 21000, at least 300000"},
		},
		"price above ceiling": {
			gasPrice: "10000000001",
			gasLimit: "300000",
			warnings: []string{"gasPrice 10000000001 is more than 10 times the minimum 1000000000"},
		},
		"unparsable price": {
			gasPrice: "fast",
			gasLimit: "300000",
			aborted:  true,
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			policy := config.DefaultPolicy()
			policy.StrictFees = tc.strict
			s, sink, _ := newTestSession(t, newMockQuerier(), policy)

			tx := unsupportedTx("ETH", "1", ethAdmin, "0")
			tx.GasPrice = Quantity(tc.gasPrice)
			tx.GasLimit = Quantity(tc.gasLimit)
			summary := s.Run(context.Background(), []Transaction{tx}, "batch.json")

			assert.Equal(t, tc.aborted, summary.Results[0].Aborted)
			if tc.aborted {
				return
			}
			want := append(tc.warnings, "need manually validate transfer tx")
			assert.Equal(t, want, messages(sink.Findings(), 0, report.SeverityWarn))
		})
	}
}

func TestFeeLimit(t *testing.T) {
	s, sink, _ := newTestSession(t, newMockQuerier(), config.DefaultPolicy())
	tx := trxTx("100", fmt.Sprint(fixedNow.UnixMilli()-1000))
	tx.FeeLimit = "1000"
	summary := s.Run(context.Background(), []Transaction{tx}, "batch.json")

	assert.True(t, summary.Results[0].Aborted)
	assert.Equal(t, []string{"invalid feeLimit: 1000, at least 1000000000"}, messages(sink.Findings(), 0, report.SeverityError))
}

func TestRefBlock(t *testing.T) {
	fresh := fmt.Sprint(fixedNow.UnixMilli() - int64(time.Minute/time.Millisecond))
	stale := fmt.Sprint(fixedNow.Add(-9 * time.Hour).UnixMilli())
	future := fmt.Sprint(fixedNow.Add(time.Minute).UnixMilli())

	tests := map[string]struct {
		txs     []Transaction
		aborted []bool
		errors  []string
		warns   []string
	}{
		"identical reference block replayed": {
			txs:     []Transaction{trxTx("100", fresh), trxTx("100", fresh)},
			aborted: []bool{false, true},
			errors:  []string{"refBlock not match"},
		},
		"new reference block": {
			txs:     []Transaction{trxTx("100", fresh), trxTx("101", fresh)},
			aborted: []bool{false, false},
		},
		"stale reference block": {
			txs:     []Transaction{trxTx("100", stale)},
			aborted: []bool{false},
			warns:   []string{"need update refBlock"},
		},
		"reference block from the future": {
			txs:     []Transaction{trxTx("100", future)},
			aborted: []bool{false},
			warns:   []string{"need update refBlock"},
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			s, sink, _ := newTestSession(t, newMockQuerier(), config.DefaultPolicy())
			summary := s.Run(context.Background(), tc.txs, "batch.json")

			var errs, warns []string
			for i, res := range summary.Results {
				assert.Equal(t, tc.aborted[i], res.Aborted, "tx %d", i)
				errs = append(errs, messages(sink.Findings(), i, report.SeverityError)...)
				for _, w := range messages(sink.Findings(), i, report.SeverityWarn) {
					if w != "need manually validate transfer tx" {
						warns = append(warns, w)
					}
				}
			}
			assert.Equal(t, tc.errors, errs)
			assert.Equal(t, tc.warns, warns)
		})
	}
}

func TestTokenPairWrongTarget(t *testing.T) {
	s, sink, _ := newTestSession(t, newMockQuerier(), config.DefaultPolicy())
	summary := s.Run(context.Background(), []Transaction{
		pairTx(t, "ETH", "1", ethAdmin, wanProxy),
	}, "batch.json")

	assert.True(t, summary.Results[0].Aborted)
	assert.Equal(t, []string{"invalid to: " + wanProxy + ", expected " + ethProxy}, messages(sink.Findings(), 0, report.SeverityError))
	_, exists := s.Tracker().Record("7")
	assert.False(t, exists)
}

func TestTokenPairInvalidParams(t *testing.T) {
	s, sink, _ := newTestSession(t, newMockQuerier(), config.DefaultPolicy())
	tx := pairTx(t, "WAN", "888", wanAdmin, wanProxy)
	tx.Params = rawParams(t, `["seven", ["0x", "Ethereum", "ETH", "18", "60000000"], "60000000", "0x", "60000002", "0x"]`)
	summary := s.Run(context.Background(), []Transaction{tx}, "batch.json")

	assert.True(t, summary.Results[0].Aborted)
	assert.Equal(t, []string{"invalid params, encodeABI error"}, messages(sink.Findings(), 0, report.SeverityError))
}

func TestTokenPairDefinedOnHubThenConfirmed(t *testing.T) {
	s, sink, out := newTestSession(t, newMockQuerier(), config.DefaultPolicy())
	summary := s.Run(context.Background(), []Transaction{
		pairTx(t, "WAN", "888", wanAdmin, wanProxy),
		pairTx(t, "ETH", "1", ethAdmin, ethProxy),
	}, "batch.json")

	require.Len(t, summary.Results, 2)
	assert.True(t, summary.Results[0].Clean)
	assert.True(t, summary.Results[1].Clean)
	assert.Equal(t, 2, strings.Count(out.String(), "Pass\n"))

	record, exists := s.Tracker().Record("7")
	require.True(t, exists)
	assert.Equal(t, []string{"BSC"}, record.Pending())

	assert.Equal(t, []string{"tokenPair 7 still needs to be configured on chain BSC"}, messages(sink.Findings(), report.RunLevel, report.SeverityWarn))
	assert.Equal(t, 1, summary.RunFindings)
	assert.Equal(t, report.VerdictGo, summary.Verdict)
	assert.Contains(t, out.String(), "total 2 txs from file batch.json\n(0) WAN tx: add token pair 7\nPass\n(1) ETH tx: add token pair 7\nPass\n")
}

func TestTokenPairDivergentRedefinition(t *testing.T) {
	s, sink, _ := newTestSession(t, newMockQuerier(), config.DefaultPolicy())
	second := pairTx(t, "ETH", "1", ethAdmin, ethProxy)
	second.Params = rawParams(t, strings.Replace(pair7Params, "Ethereum", "Ether", 1))

	summary := s.Run(context.Background(), []Transaction{
		pairTx(t, "WAN", "888", wanAdmin, wanProxy),
		second,
	}, "batch.json")

	assert.False(t, summary.Results[0].Aborted)
	assert.True(t, summary.Results[1].Aborted)
	assert.Equal(t, []string{"tokenPair 7 info not match"}, messages(sink.Findings(), 1, report.SeverityError))
	assert.Len(t, messages(sink.Findings(), 1, report.SeverityDetail), 2)

	record, _ := s.Tracker().Record("7")
	assert.Equal(t, []string{"BSC", "ETH"}, record.Pending())
}

func TestParseBatch(t *testing.T) {
	data := []byte(`[{
		"chain": "TRX", "chainId": 888, "from": "TR7NHqjeKQxGTCi8q8ZY4pL8otSzgjLj6t", "to": "TYP2SHp9886nu17bBNa8pbj7bFXpJhSvUT",
		"nonce": "0x05", "feeLimit": 1000000000,
		"refBlock": {"number": 123, "hash": "0xabc", "timestamp": 1700000000000},
		"abi": {"name": "transfer"}, "params": ["0x01", 2],
		"topic": "t"
	}]`)

	txs, err := ParseBatch(data)
	require.NoError(t, err)
	require.Len(t, txs, 1)

	tx := txs[0]
	assert.Equal(t, Quantity("888"), tx.ChainID)
	nonce, err := tx.Nonce.Uint64()
	require.NoError(t, err)
	assert.Equal(t, uint64(5), nonce)
	assert.Equal(t, Quantity("1000000000"), tx.FeeLimit)
	assert.True(t, tx.GasPrice.IsZero())
	require.NotNil(t, tx.RefBlock)
	assert.Equal(t, Quantity("1700000000000"), tx.RefBlock.Timestamp)
	assert.Len(t, tx.Params, 2)

	_, err = ParseBatch([]byte(`{"chain": "ETH"}`))
	assert.ErrorIs(t, err, ErrInvalidBatch)
}

func TestLoadBatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "batch.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"chain": "ETH"}, {"chain": "WAN"}]`), 0600))

	txs, err := LoadBatch(path)
	require.NoError(t, err)
	require.Len(t, txs, 2)
	assert.Equal(t, "WAN", txs[1].Chain)

	_, err = LoadBatch(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestQuantity(t *testing.T) {
	tests := map[string]struct {
		q     Quantity
		other string
		equal bool
	}{
		"decimal and hex":   {q: "16", other: "0x10", equal: true},
		"different numbers": {q: "16", other: "17"},
		"text fallback":     {q: "abc", other: "abc", equal: true},
		"empty":             {q: "", other: "0"},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.equal, tc.q.Equal(tc.other))
		})
	}

	_, err := Quantity("-1").Uint256()
	assert.ErrorIs(t, err, ErrInvalidQuantity)
	_, err = Quantity("0x1" + strings.Repeat("0", 64)).Uint256()
	assert.ErrorIs(t, err, ErrInvalidQuantity)
	_, err = Quantity("18446744073709551616").Uint64()
	assert.ErrorIs(t, err, ErrInvalidQuantity)
}
