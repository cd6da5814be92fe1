package tokenpair

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zhwir/offline-tx-validator/pkg/chainquery"
	"github.com/zhwir/offline-tx-validator/pkg/chains"
	"github.com/zhwir/offline-tx-validator/pkg/operation"
	"github.com/zhwir/offline-tx-validator/pkg/report"
	"github.com/zhwir/offline-tx-validator/pkg/tokeninfo"
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

const (
	zeroAddr    = "0x0000000000000000000000000000000000000000"
	bscWethAddr = "0x4444444444444444444444444444444444444444"
	bscProxy    = "0xcccccccccccccccccccccccccccccccccccccccc"
)

type mockQuerier struct {
	mu        sync.Mutex
	contracts map[string]map[string][]interface{}
}

func (m *mockQuerier) Nonce(ctx context.Context, chain string, address string) (uint64, error) {
	return 0, chainquery.ErrUnavailable
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

func erc20(symbol string, decimals uint8, owner string) map[string][]interface{} {
	return map[string][]interface{}{
		"name":        {symbol + " token"},
		"symbol":      {symbol},
		"balanceOf":   {big.NewInt(0)},
		"decimals":    {decimals},
		"totalSupply": {big.NewInt(1)},
		"allowance":   {big.NewInt(0)},
		"owner":       {common.HexToAddress(owner)},
	}
}

type recorder struct {
	findings []report.Finding
}

func (r *recorder) Report(severity report.Severity, class report.Class, format string, args ...interface{}) {
	r.findings = append(r.findings, report.Finding{Severity: severity, Class: class, Message: fmt.Sprintf(format, args...)})
}

func (r *recorder) messages() []string {
	var out []string
	for _, f := range r.findings {
		out = append(out, f.Message)
	}
	return out
}

func setup(t *testing.T, descriptors []chains.Descriptor) (*Tracker, *chains.Registry, *mockQuerier, *recorder) {
	registry, err := chains.NewRegistry(descriptors)
	require.NoError(t, err)
	q := &mockQuerier{contracts: map[string]map[string][]interface{}{
		bscWethAddr: erc20("ETH", 18, bscProxy),
	}}
	resolver := tokeninfo.NewResolver(zap.NewNop(), registry, q)
	return NewTracker(zap.NewNop(), registry, resolver, "WAN"), registry, q, &recorder{}
}

func pair(t *testing.T, params string) *operation.TokenPair {
	var raw []json.RawMessage
	require.NoError(t, json.Unmarshal([]byte(params), &raw))
	call, err := operation.Decode(json.RawMessage(addTokenPairFragment), raw)
	require.NoError(t, err)
	p, err := call.(*operation.AddTokenPair).TokenPair()
	require.NoError(t, err)
	return p
}

func ethToBsc(id string, toAccount string) string {
	return fmt.Sprintf(`[%q, [%q, "Ethereum", "ETH", "18", "60000000"], "60000000", %q, "60000002", %q]`,
		id, zeroAddr, zeroAddr, toAccount)
}

func descriptor(t *testing.T, r *chains.Registry, name string) *chains.Descriptor {
	d, err := r.ByName(name)
	require.NoError(t, err)
	return d
}

func TestRegisterOnHubThenEndpoint(t *testing.T) {
	tracker, registry, _, rec := setup(t, chains.UnitTestChains())

	outcome, abort := tracker.Register(context.Background(), rec, descriptor(t, registry, "WAN"), 0, pair(t, ethToBsc("7", bscWethAddr)))
	require.Nil(t, abort)
	assert.Equal(t, OutcomeDefined, outcome)
	assert.Empty(t, rec.findings)

	record, exists := tracker.Record("7")
	require.True(t, exists)
	assert.Equal(t, []string{"BSC", "ETH"}, record.Pending())
	assert.Equal(t, "WAN", record.DefinedOn)

	outcome, abort = tracker.Register(context.Background(), rec, descriptor(t, registry, "ETH"), 1, pair(t, ethToBsc("7", bscWethAddr)))
	require.Nil(t, abort)
	assert.Equal(t, OutcomeConfirmed, outcome)
	assert.Equal(t, []string{"BSC"}, record.Pending())
	assert.Empty(t, rec.findings)
}

func TestRegisterDivergentDefinition(t *testing.T) {
	tracker, registry, _, rec := setup(t, chains.UnitTestChains())
	first := pair(t, ethToBsc("7", bscWethAddr))
	second := pair(t, ethToBsc("7", "0x5555555555555555555555555555555555555555"))

	_, abort := tracker.Register(context.Background(), rec, descriptor(t, registry, "WAN"), 0, first)
	require.Nil(t, abort)

	_, abort = tracker.Register(context.Background(), rec, descriptor(t, registry, "ETH"), 1, second)
	require.NotNil(t, abort)
	assert.Equal(t, report.ClassConsistency, abort.Class)
	assert.Equal(t, "tokenPair 7 info not match", abort.Message)
	assert.Equal(t, []string{"-" + first.Snapshot(), "+" + second.Snapshot()}, rec.messages())

	record, _ := tracker.Record("7")
	assert.Same(t, first, record.Pair, "canonical record must be left untouched")
	assert.Equal(t, []string{"BSC", "ETH"}, record.Pending())
}

func TestRegisterInvalidChainIDs(t *testing.T) {
	tests := map[string]struct {
		chain  string
		params string
	}{
		"same chain on both ends": {
			chain:  "WAN",
			params: `["8", ["0x", "Ethereum", "ETH", "18", "60000000"], "60000000", "0x", "60000000", "0x"]`,
		},
		"receiving chain is not an endpoint": {
			chain:  "BSC",
			params: `["8", ["0x", "Ethereum", "ETH", "18", "60000000"], "60000000", "0x", "60000003", "0x"]`,
		},
		"unparsable chain id": {
			chain:  "WAN",
			params: `["8", ["0x", "Ethereum", "ETH", "18", "60000000"], "ETH", "0x", "60000002", "0x"]`,
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			tracker, registry, _, rec := setup(t, chains.UnitTestChains())
			_, abort := tracker.Register(context.Background(), rec, descriptor(t, registry, tc.chain), 0, pair(t, tc.params))
			require.NotNil(t, abort)
			assert.Equal(t, report.ClassStructural, abort.Class)
			assert.True(t, strings.HasPrefix(abort.Message, "invalid fromChainId("), abort.Message)

			_, exists := tracker.Record("8")
			assert.False(t, exists)
		})
	}
}

func TestExpectedChains(t *testing.T) {
	tests := map[string]struct {
		chain  string
		params string
		want   []string
	}{
		"defined on endpoint adds hub": {
			chain:  "ETH",
			params: ethToBsc("9", bscWethAddr),
			want:   []string{"BSC", "WAN"},
		},
		"hub endpoint": {
			chain:  "ETH",
			params: `["9", ["0x", "Wanchain", "WAN", "18", "60000001"], "60000001", "0x", "60000000", "0x"]`,
			want:   []string{"WAN"},
		},
		"chain without token manager": {
			chain:  "WAN",
			params: `["9", ["0x", "XRP", "XRP", "6", "60000004"], "60000004", "0x", "60000001", "0x"]`,
			want:   []string{"XRP"},
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			tracker, registry, _, rec := setup(t, chains.UnitTestChains())
			_, abort := tracker.Register(context.Background(), rec, descriptor(t, registry, tc.chain), 0, pair(t, tc.params))
			require.Nil(t, abort)
			record, _ := tracker.Record("9")
			assert.Equal(t, tc.want, record.Pending())
		})
	}
}

func TestResolveTokensCrossChecks(t *testing.T) {
	tracker, registry, q, rec := setup(t, chains.UnitTestChains())
	ethUsdc := "0x6666666666666666666666666666666666666666"
	bscUsdc := "0x7777777777777777777777777777777777777777"
	q.contracts[ethUsdc] = erc20("USDC", 6, "")
	q.contracts[bscUsdc] = erc20("USDC", 18, bscProxy)

	params := fmt.Sprintf(`["10", [%q, "USD Coin", "USDC", "6", "60000000"], "60000000", %q, "60000002", %q]`, ethUsdc, ethUsdc, bscUsdc)
	_, abort := tracker.Register(context.Background(), rec, descriptor(t, registry, "WAN"), 0, pair(t, params))
	require.Nil(t, abort)

	require.Len(t, rec.findings, 1)
	assert.Equal(t, report.SeverityWarn, rec.findings[0].Severity)
	assert.Equal(t, "tokenPair 10 token decimals not match: 18, expected 6", rec.findings[0].Message)
}

func TestResolveTokensKindMismatch(t *testing.T) {
	tracker, registry, q, rec := setup(t, chains.UnitTestChains())
	ethNft := "0x6666666666666666666666666666666666666666"
	bscToken := "0x7777777777777777777777777777777777777777"
	q.contracts[ethNft] = map[string][]interface{}{
		"name":              {"Punks"},
		"symbol":            {"PUNK"},
		"balanceOf":         {big.NewInt(0)},
		"isApprovedForAll":  {false},
		"supportsInterface": {false},
	}
	q.contracts[bscToken] = erc20("PUNK", 0, bscProxy)

	params := fmt.Sprintf(`["11", [%q, "Punks", "PUNK", "0", "60000000"], "60000000", %q, "60000002", %q]`, ethNft, ethNft, bscToken)
	_, abort := tracker.Register(context.Background(), rec, descriptor(t, registry, "WAN"), 0, pair(t, params))
	require.Nil(t, abort)

	assert.Equal(t, []string{"tokenPair 11 token type not match: Erc20, expected Erc721"}, rec.messages())
}

func TestReportUnresolved(t *testing.T) {
	descriptors := append(chains.UnitTestChains(), chains.Descriptor{
		Name: "AVAX", ChainID: 60000006, WalletID: "43114", Admin: chains.Disabled,
		TokenManagerProxy: "0x9999999999999999999999999999999999999999",
	})
	tracker, registry, _, rec := setup(t, descriptors)

	params := `["12", ["0x", "Avalanche", "AVAX", "18", "60000006"], "60000006", "0x", "60000002", "0x"]`
	_, abort := tracker.Register(context.Background(), rec, descriptor(t, registry, "WAN"), 0, pair(t, params))
	require.Nil(t, abort)
	rec.findings = nil

	n := tracker.ReportUnresolved(rec)
	assert.Equal(t, 2, n)
	require.Len(t, rec.findings, 2)

	assert.Equal(t, report.SeverityDetail, rec.findings[0].Severity)
	assert.Equal(t, "tokenPair 12 cannot be configured on chain AVAX: no admin", rec.findings[0].Message)
	assert.Equal(t, report.SeverityWarn, rec.findings[1].Severity)
	assert.Equal(t, "tokenPair 12 still needs to be configured on chain BSC", rec.findings[1].Message)

	unresolved := tracker.Unresolved()
	require.Len(t, unresolved, 2)
	assert.Equal(t, "12", unresolved[0].PairID)
}

func TestReportUnresolvedChainWithoutTokenManager(t *testing.T) {
	tracker, registry, _, rec := setup(t, chains.UnitTestChains())

	params := `["13", ["0x", "XRP", "XRP", "6", "60000004"], "60000004", "0x", "60000001", "0x"]`
	_, abort := tracker.Register(context.Background(), rec, descriptor(t, registry, "WAN"), 0, pair(t, params))
	require.Nil(t, abort)
	rec.findings = nil

	assert.Equal(t, 1, tracker.ReportUnresolved(rec))
	require.Len(t, rec.findings, 1)
	assert.Equal(t, report.SeverityDetail, rec.findings[0].Severity)
	assert.True(t, rec.findings[0].Blocking())
	assert.Equal(t, "tokenPair 13 cannot be configured on chain XRP: no admin", rec.findings[0].Message)
}
