package chains

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/zhwir/offline-tx-validator/pkg/common"
)

// Disabled marks a descriptor field as not applicable to the chain.
const Disabled = "no"

var (
	ErrUnknownChain     = errors.New("unknown chain")
	ErrUnknownChainID   = errors.New("unknown chain id")
	ErrInvalidChainID   = errors.New("invalid chain id")
	ErrDuplicateChain   = errors.New("duplicate chain descriptor")
	ErrInvalidChainName = errors.New("invalid chain name")
)

// FeeModel describes how a chain charges for an admin transaction.
type FeeModel string

const (
	FeeNone     FeeModel = "none"
	FeeGas      FeeModel = "gas"
	FeeFeeLimit FeeModel = "feeLimit"
)

// NativeCoin identifies the asset a zero token address stands for on a chain.
type NativeCoin struct {
	ChainID uint64 `mapstructure:"chainId" json:"chainId"`
	Symbol  string `mapstructure:"symbol" json:"symbol"`
}

// Descriptor holds the static facts the auditor knows about one chain.
type Descriptor struct {
	Name string `mapstructure:"name" json:"name"`
	// ChainID is the numeric (bip44 based) id token pairs use to reference the chain.
	ChainID uint64 `mapstructure:"chainId" json:"chainId"`
	// WalletID is the chain id a transaction must declare, or Disabled.
	WalletID string `mapstructure:"walletId" json:"walletId"`
	// Admin is the only account allowed to send admin transactions, or Disabled.
	Admin string `mapstructure:"admin" json:"admin"`
	// Nonce is Disabled when the chain has no account nonce.
	Nonce    string `mapstructure:"nonce" json:"nonce,omitempty"`
	GasPrice uint64 `mapstructure:"gasPrice" json:"gasPrice,omitempty"`
	GasLimit uint64 `mapstructure:"gasLimit" json:"gasLimit,omitempty"`
	FeeLimit uint64 `mapstructure:"feeLimit" json:"feeLimit,omitempty"`
	// RefBlock is set for account-model chains that embed a reference block in every transaction.
	RefBlock bool `mapstructure:"refBlock" json:"refBlock,omitempty"`
	// TokenManagerProxy is the bridge token manager, or Disabled for chains without contracts.
	TokenManagerProxy string `mapstructure:"tokenManagerProxy" json:"tokenManagerProxy"`
	// TokenManagerProxyEvm overrides TokenManagerProxy where the chain renders contract owners in EVM form.
	TokenManagerProxyEvm string     `mapstructure:"tokenManagerProxyEvm" json:"tokenManagerProxyEvm,omitempty"`
	Native               NativeCoin `mapstructure:"native" json:"native"`
}

func (d *Descriptor) ChecksWalletID() bool {
	return d.WalletID != "" && d.WalletID != Disabled
}

func (d *Descriptor) HasAdmin() bool {
	return d.Admin != "" && d.Admin != Disabled
}

func (d *Descriptor) TracksNonce() bool {
	return d.HasAdmin() && d.Nonce != Disabled
}

// HasContracts reports whether token identities on this chain can be probed through contract calls.
func (d *Descriptor) HasContracts() bool {
	return d.TokenManagerProxy != "" && d.TokenManagerProxy != Disabled
}

func (d *Descriptor) FeeModel() FeeModel {
	if d.GasPrice > 0 || d.GasLimit > 0 {
		return FeeGas
	}
	if d.FeeLimit > 0 {
		return FeeFeeLimit
	}
	return FeeNone
}

// ExpectedTokenOwner is the account that must own wrapped tokens on this chain.
func (d *Descriptor) ExpectedTokenOwner() string {
	if d.TokenManagerProxyEvm != "" {
		return d.TokenManagerProxyEvm
	}
	return d.TokenManagerProxy
}

// IsNative reports whether an asset with the given ancestor chain id and symbol is this chain's coin.
func (d *Descriptor) IsNative(ancestorChainID uint64, symbol string) bool {
	return d.Native.Symbol != "" && d.Native.ChainID == ancestorChainID && d.Native.Symbol == symbol
}

func (d *Descriptor) String() string {
	return fmt.Sprintf("%s(%d)", d.Name, d.ChainID)
}

// Registry is the immutable chain table of one audit run.
type Registry struct {
	chains []Descriptor
	byName map[string]int
}

func NewRegistry(descriptors []Descriptor) (*Registry, error) {
	r := &Registry{
		chains: make([]Descriptor, 0, len(descriptors)),
		byName: make(map[string]int, len(descriptors)),
	}
	ids := make(map[uint64]string, len(descriptors))
	for _, d := range descriptors {
		d.Name = strings.ToUpper(strings.TrimSpace(d.Name))
		if d.Name == "" {
			return nil, fmt.Errorf("%w: empty name for chain id %d", ErrInvalidChainName, d.ChainID)
		}
		if _, exists := r.byName[d.Name]; exists {
			return nil, fmt.Errorf("%w: name %s", ErrDuplicateChain, d.Name)
		}
		if other, exists := ids[d.ChainID]; exists {
			return nil, fmt.Errorf("%w: chain id %d used by %s and %s", ErrDuplicateChain, d.ChainID, other, d.Name)
		}
		ids[d.ChainID] = d.Name
		r.byName[d.Name] = len(r.chains)
		r.chains = append(r.chains, d)
	}
	return r, nil
}

// ForEnvironment returns the built-in chain table for env.
func ForEnvironment(env common.Environment) (*Registry, error) {
	switch env {
	case common.MainNet:
		return NewRegistry(MainnetChains())
	case common.TestNet:
		return NewRegistry(TestnetChains())
	case common.GoTest:
		return NewRegistry(UnitTestChains())
	}
	return nil, fmt.Errorf("no chain table for environment %s", env)
}

func (r *Registry) ByName(name string) (*Descriptor, error) {
	idx, exists := r.byName[strings.ToUpper(strings.TrimSpace(name))]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrUnknownChain, name)
	}
	return &r.chains[idx], nil
}

func (r *Registry) ByChainID(id uint64) (*Descriptor, error) {
	for i := range r.chains {
		if r.chains[i].ChainID == id {
			return &r.chains[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %d", ErrUnknownChainID, id)
}

// ByChainIDString resolves a chain id as it appears in token pair parameters.
func (r *Registry) ByChainIDString(id string) (*Descriptor, error) {
	parsed, err := ParseChainID(id)
	if err != nil {
		return nil, err
	}
	return r.ByChainID(parsed)
}

// All returns a copy of the table in declaration order.
func (r *Registry) All() []Descriptor {
	out := make([]Descriptor, len(r.chains))
	copy(out, r.chains)
	return out
}

// ParseChainID accepts decimal or 0x-prefixed hex chain ids.
func ParseChainID(id string) (uint64, error) {
	s := strings.TrimSpace(id)
	base := 10
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		s = s[2:]
		base = 16
	}
	parsed, err := strconv.ParseUint(s, base, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidChainID, id)
	}
	return parsed, nil
}

// queryNames maps registry names to the names the chain query transport uses.
var queryNames = map[string]string{
	"BSC": "BNB",
}

// QueryName returns the chain name to use when talking to the chain query transport.
func QueryName(name string) string {
	if mapped, ok := queryNames[name]; ok {
		return mapped
	}
	return name
}
