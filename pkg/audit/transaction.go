package audit

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"os"
	"strings"

	"github.com/holiman/uint256"
	"github.com/zhwir/offline-tx-validator/pkg/common"
)

var (
	ErrInvalidBatch    = errors.New("invalid transaction batch")
	ErrInvalidQuantity = errors.New("invalid quantity")
)

// Quantity is a numeric transaction field as it appears in the batch: a JSON number, a decimal string
// or a 0x-prefixed hex string. The original text is kept for reporting.
type Quantity string

func (q *Quantity) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*q = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*q = Quantity(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidQuantity, data)
	}
	*q = Quantity(n.String())
	return nil
}

func (q Quantity) String() string {
	return string(q)
}

func (q Quantity) IsZero() bool {
	return q == ""
}

// Uint256 parses the quantity as an unsigned 256-bit integer.
func (q Quantity) Uint256() (*uint256.Int, error) {
	s := strings.TrimSpace(string(q))
	if s == "" {
		return nil, fmt.Errorf("%w: empty", ErrInvalidQuantity)
	}
	base := 10
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		s, base = s[2:], 16
	}
	b, ok := new(big.Int).SetString(s, base)
	if !ok || b.Sign() < 0 {
		return nil, fmt.Errorf("%w: %s", ErrInvalidQuantity, q)
	}
	v, overflow := uint256.FromBig(b)
	if overflow {
		return nil, fmt.Errorf("%w: %s overflows 256 bits", ErrInvalidQuantity, q)
	}
	return v, nil
}

func (q Quantity) Uint64() (uint64, error) {
	v, err := q.Uint256()
	if err != nil {
		return 0, err
	}
	if !v.IsUint64() {
		return 0, fmt.Errorf("%w: %s overflows 64 bits", ErrInvalidQuantity, q)
	}
	return v.Uint64(), nil
}

// Equal compares the quantity with a decimal or hex string, numerically when both sides parse.
func (q Quantity) Equal(other string) bool {
	a, errA := q.Uint256()
	b, errB := Quantity(other).Uint256()
	if errA == nil && errB == nil {
		return a.Eq(b)
	}
	return strings.TrimSpace(string(q)) == strings.TrimSpace(other)
}

// RefBlock is the reference block an account-model transaction is bound to. Timestamp is in milliseconds.
type RefBlock struct {
	Number    Quantity `json:"number"`
	Hash      string   `json:"hash"`
	Timestamp Quantity `json:"timestamp"`
}

func (r *RefBlock) Same(other *RefBlock) bool {
	if r == nil || other == nil {
		return false
	}
	return r.Number.Equal(other.Number.String()) &&
		strings.EqualFold(r.Hash, other.Hash) &&
		r.Timestamp.Equal(other.Timestamp.String())
}

// Transaction is one unsigned admin transaction of a batch.
type Transaction struct {
	Chain    string    `json:"chain"`
	ChainID  Quantity  `json:"chainId"`
	From     string    `json:"from"`
	To       string    `json:"to"`
	Nonce    Quantity  `json:"nonce"`
	GasPrice Quantity  `json:"gasPrice"`
	GasLimit Quantity  `json:"gasLimit"`
	FeeLimit Quantity  `json:"feeLimit"`
	RefBlock *RefBlock `json:"refBlock,omitempty"`
	// Abi is the JSON abi fragment of the called method.
	Abi    json.RawMessage   `json:"abi"`
	Params []json.RawMessage `json:"params"`
	Topic  string            `json:"topic"`
}

// LoadBatch reads a JSON array of transactions.
func LoadBatch(path string) ([]Transaction, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open batch: %w", err)
	}
	defer f.Close()

	data, err := common.SafeRead(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read batch %s: %w", path, err)
	}
	return ParseBatch(data)
}

func ParseBatch(data []byte) ([]Transaction, error) {
	var txs []Transaction
	if err := json.Unmarshal(data, &txs); err != nil {
		return nil, errors.Join(ErrInvalidBatch, err)
	}
	return txs, nil
}
