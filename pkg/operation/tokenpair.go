package operation

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
)

// Positions of the token pair parameters: id, ancestor, fromChainId, fromAccount, toChainId, toAccount.
const (
	paramID = iota
	paramAncestor
	paramFromChainID
	paramFromAccount
	paramToChainID
	paramToAccount
	tokenPairParamCount
)

// ancestorOrder is the positional layout of the ancestor tuple when component names are unavailable.
var ancestorOrder = []string{"account", "symbol", "name", "decimals", "chainid"}

// Ancestor describes the canonical asset a token pair bridges.
type Ancestor struct {
	Account  string
	Symbol   string
	Name     string
	Decimals string
	ChainID  string
}

// TokenPair is the parameter set of an addTokenPair or updateTokenPair call.
type TokenPair struct {
	ID          string
	Ancestor    Ancestor
	FromChainID string
	FromAccount string
	ToChainID   string
	ToAccount   string

	snapshot string
}

// Snapshot is the flattened, comma separated rendering of all parameters. Two definitions of the same
// pair are consistent exactly when their snapshots are equal.
func (p *TokenPair) Snapshot() string {
	return p.snapshot
}

// TokenPair extracts the pair definition from the call parameters.
func (c *TokenPairCall) TokenPair() (*TokenPair, error) {
	if len(c.params) != tokenPairParamCount {
		return nil, fmt.Errorf("%w: token pair needs %d params, got %d", ErrParamCount, tokenPairParamCount, len(c.params))
	}

	values := make([]gjson.Result, len(c.params))
	for i, raw := range c.params {
		values[i] = gjson.ParseBytes(raw)
	}

	id, err := ParseInteger(values[paramID])
	if err != nil {
		return nil, fmt.Errorf("%w: token pair id: %v", ErrInvalidParameter, err)
	}

	ancestor, err := c.ancestor(values[paramAncestor])
	if err != nil {
		return nil, err
	}

	return &TokenPair{
		ID:          id.String(),
		Ancestor:    ancestor,
		FromChainID: values[paramFromChainID].String(),
		FromAccount: values[paramFromAccount].String(),
		ToChainID:   values[paramToChainID].String(),
		ToAccount:   values[paramToAccount].String(),
		snapshot:    snapshot(c.params),
	}, nil
}

func (c *TokenPairCall) ancestor(raw gjson.Result) (Ancestor, error) {
	fields := make(map[string]string, len(ancestorOrder))
	switch {
	case raw.IsObject():
		raw.ForEach(func(key, value gjson.Result) bool {
			fields[strings.ToLower(key.String())] = value.String()
			return true
		})
	case raw.IsArray():
		elems := raw.Array()
		if len(elems) != len(ancestorOrder) {
			return Ancestor{}, fmt.Errorf("%w: ancestor needs %d components, got %d", ErrInvalidParameter, len(ancestorOrder), len(elems))
		}
		names := c.ancestorComponentNames()
		for i, e := range elems {
			fields[names[i]] = e.String()
		}
	default:
		return Ancestor{}, fmt.Errorf("%w: ancestor must be a tuple, got %s", ErrInvalidParameter, raw.Raw)
	}

	a := Ancestor{
		Account:  fields["account"],
		Symbol:   fields["symbol"],
		Name:     fields["name"],
		Decimals: fields["decimals"],
		ChainID:  fields["chainid"],
	}
	if a.ChainID == "" {
		return Ancestor{}, fmt.Errorf("%w: ancestor has no chain id", ErrInvalidParameter)
	}
	return a, nil
}

// ancestorComponentNames returns the lower-cased component names of the ancestor tuple as declared in the
// fragment, falling back to the positional layout when the fragment does not name all of them.
func (c *TokenPairCall) ancestorComponentNames() []string {
	_, method, err := parseFragment(c.fragment)
	if err != nil || len(method.Inputs) <= paramAncestor {
		return ancestorOrder
	}
	names := method.Inputs[paramAncestor].Type.TupleRawNames
	if len(names) != len(ancestorOrder) {
		return ancestorOrder
	}

	known := make(map[string]bool, len(ancestorOrder))
	for _, n := range ancestorOrder {
		known[n] = true
	}
	out := make([]string, len(names))
	for i, n := range names {
		n = strings.ToLower(n)
		if !known[n] {
			return ancestorOrder
		}
		out[i] = n
	}
	return out
}

func snapshot(params []json.RawMessage) string {
	parts := make([]string, len(params))
	for i, raw := range params {
		parts[i] = flatten(gjson.ParseBytes(raw))
	}
	return strings.Join(parts, ",")
}

func flatten(v gjson.Result) string {
	switch {
	case v.Type == gjson.Null:
		return ""
	case v.IsArray() || v.IsObject():
		var parts []string
		v.ForEach(func(_, value gjson.Result) bool {
			parts = append(parts, flatten(value))
			return true
		})
		return strings.Join(parts, ",")
	}
	return v.String()
}
