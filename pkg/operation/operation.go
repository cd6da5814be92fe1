// Package operation decodes the contract call a transaction carries into a closed set of known admin operations.
package operation

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/tidwall/gjson"
)

const (
	MethodAddTokenPair    = "addTokenPair"
	MethodUpdateTokenPair = "updateTokenPair"
)

var (
	ErrMissingMethod    = errors.New("operation has no method name")
	ErrInvalidFragment  = errors.New("invalid abi fragment")
	ErrParamCount       = errors.New("parameter count does not match abi inputs")
	ErrInvalidParameter = errors.New("invalid parameter")
)

// Call is the decoded operation of a transaction. The set of implementations is closed:
// *AddTokenPair, *UpdateTokenPair and *Unsupported.
type Call interface {
	Name() string
	isCall()
}

// Unsupported is any operation the auditor does not inspect automatically.
type Unsupported struct {
	Method string
}

func (u *Unsupported) Name() string { return u.Method }
func (*Unsupported) isCall()        {}

// TokenPairCall holds the shared shape of the token pair admin operations.
type TokenPairCall struct {
	method   string
	fragment json.RawMessage
	params   []json.RawMessage
}

func (c *TokenPairCall) Name() string { return c.method }

type AddTokenPair struct {
	TokenPairCall
}

func (*AddTokenPair) isCall() {}

type UpdateTokenPair struct {
	TokenPairCall
}

func (*UpdateTokenPair) isCall() {}

// Decode selects the operation variant from the abi fragment's method name. Parameters are kept raw
// until Encode or TokenPair is called, so that routing checks can run before parameter validation.
func Decode(fragment json.RawMessage, params []json.RawMessage) (Call, error) {
	name := strings.TrimSpace(gjson.GetBytes(fragment, "name").String())
	if name == "" {
		return nil, ErrMissingMethod
	}

	base := TokenPairCall{method: name, fragment: fragment, params: params}
	switch name {
	case MethodAddTokenPair:
		return &AddTokenPair{TokenPairCall: base}, nil
	case MethodUpdateTokenPair:
		return &UpdateTokenPair{TokenPairCall: base}, nil
	}
	return &Unsupported{Method: name}, nil
}

// parseFragment builds a single-method ABI from a JSON fragment. A missing "type" defaults to function.
func parseFragment(fragment json.RawMessage) (*abi.ABI, *abi.Method, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(fragment, &fields); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrInvalidFragment, err)
	}
	if _, exists := fields["type"]; !exists {
		fields["type"] = json.RawMessage(`"function"`)
	}
	normalized, err := json.Marshal(fields)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrInvalidFragment, err)
	}

	parsed, err := abi.JSON(strings.NewReader("[" + string(normalized) + "]"))
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrInvalidFragment, err)
	}
	name := gjson.GetBytes(fragment, "name").String()
	method, exists := parsed.Methods[name]
	if !exists {
		return nil, nil, fmt.Errorf("%w: %s is not a function", ErrInvalidFragment, name)
	}
	return &parsed, &method, nil
}

// Encode packs the parameters against the fragment, which is the ABI encodability check of the operation.
func (c *TokenPairCall) Encode() ([]byte, error) {
	parsed, method, err := parseFragment(c.fragment)
	if err != nil {
		return nil, err
	}
	if len(c.params) != len(method.Inputs) {
		return nil, fmt.Errorf("%w: %d params for %d inputs", ErrParamCount, len(c.params), len(method.Inputs))
	}

	args := make([]interface{}, 0, len(c.params))
	for i, input := range method.Inputs {
		v, err := toGoValue(input.Type, gjson.ParseBytes(c.params[i]))
		if err != nil {
			return nil, fmt.Errorf("%w %d (%s): %v", ErrInvalidParameter, i, input.Name, err)
		}
		args = append(args, v.Interface())
	}
	return parsed.Pack(method.Name, args...)
}
