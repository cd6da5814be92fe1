package operation

import (
	"fmt"
	"math/big"
	"reflect"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/tidwall/gjson"
)

// toGoValue converts a JSON parameter into the Go value abi.Pack expects for t.
func toGoValue(t abi.Type, raw gjson.Result) (reflect.Value, error) {
	switch t.T {
	case abi.IntTy, abi.UintTy:
		return toInteger(t, raw)

	case abi.BoolTy:
		switch {
		case raw.Type == gjson.True, raw.Type == gjson.String && raw.Str == "true":
			return reflect.ValueOf(true), nil
		case raw.Type == gjson.False, raw.Type == gjson.String && raw.Str == "false":
			return reflect.ValueOf(false), nil
		}
		return reflect.Value{}, fmt.Errorf("expected bool, got %s", raw.Raw)

	case abi.StringTy:
		if raw.Type != gjson.String && raw.Type != gjson.Number {
			return reflect.Value{}, fmt.Errorf("expected string, got %s", raw.Raw)
		}
		return reflect.ValueOf(raw.String()), nil

	case abi.AddressTy:
		if raw.Type != gjson.String || !common.IsHexAddress(raw.Str) {
			return reflect.Value{}, fmt.Errorf("expected hex address, got %s", raw.Raw)
		}
		return reflect.ValueOf(common.HexToAddress(raw.Str)), nil

	case abi.BytesTy:
		b, err := toBytes(raw)
		if err != nil {
			return reflect.Value{}, err
		}
		return reflect.ValueOf(b), nil

	case abi.FixedBytesTy, abi.HashTy:
		b, err := toBytes(raw)
		if err != nil {
			return reflect.Value{}, err
		}
		if len(b) > t.Size {
			return reflect.Value{}, fmt.Errorf("expected at most %d bytes, got %d", t.Size, len(b))
		}
		v := reflect.New(t.GetType()).Elem()
		reflect.Copy(v, reflect.ValueOf(b))
		return v, nil

	case abi.SliceTy:
		if !raw.IsArray() {
			return reflect.Value{}, fmt.Errorf("expected array, got %s", raw.Raw)
		}
		elems := raw.Array()
		v := reflect.MakeSlice(t.GetType(), len(elems), len(elems))
		for i, e := range elems {
			ev, err := toGoValue(*t.Elem, e)
			if err != nil {
				return reflect.Value{}, fmt.Errorf("element %d: %w", i, err)
			}
			v.Index(i).Set(ev)
		}
		return v, nil

	case abi.ArrayTy:
		if !raw.IsArray() {
			return reflect.Value{}, fmt.Errorf("expected array, got %s", raw.Raw)
		}
		elems := raw.Array()
		if len(elems) != t.Size {
			return reflect.Value{}, fmt.Errorf("expected %d elements, got %d", t.Size, len(elems))
		}
		v := reflect.New(t.GetType()).Elem()
		for i, e := range elems {
			ev, err := toGoValue(*t.Elem, e)
			if err != nil {
				return reflect.Value{}, fmt.Errorf("element %d: %w", i, err)
			}
			v.Index(i).Set(ev)
		}
		return v, nil

	case abi.TupleTy:
		return toTuple(t, raw)
	}
	return reflect.Value{}, fmt.Errorf("unsupported abi type %s", t.String())
}

// toTuple accepts a tuple either positionally (JSON array) or by component name (JSON object).
func toTuple(t abi.Type, raw gjson.Result) (reflect.Value, error) {
	var elems []gjson.Result
	switch {
	case raw.IsArray():
		elems = raw.Array()
		if len(elems) != len(t.TupleElems) {
			return reflect.Value{}, fmt.Errorf("expected %d tuple components, got %d", len(t.TupleElems), len(elems))
		}
	case raw.IsObject():
		elems = make([]gjson.Result, len(t.TupleElems))
		for i, name := range t.TupleRawNames {
			elems[i] = raw.Get(name)
			if !elems[i].Exists() {
				return reflect.Value{}, fmt.Errorf("missing tuple component %s", name)
			}
		}
	default:
		return reflect.Value{}, fmt.Errorf("expected tuple, got %s", raw.Raw)
	}

	v := reflect.New(t.TupleType).Elem()
	for i, elemType := range t.TupleElems {
		ev, err := toGoValue(*elemType, elems[i])
		if err != nil {
			return reflect.Value{}, fmt.Errorf("component %s: %w", t.TupleRawNames[i], err)
		}
		v.Field(i).Set(ev)
	}
	return v, nil
}

func toInteger(t abi.Type, raw gjson.Result) (reflect.Value, error) {
	n, err := ParseInteger(raw)
	if err != nil {
		return reflect.Value{}, err
	}
	if t.T == abi.UintTy && n.Sign() < 0 {
		return reflect.Value{}, fmt.Errorf("negative value %s for %s", n, t.String())
	}
	bits := n.BitLen()
	if t.T == abi.IntTy {
		bits++
	}
	if bits > t.Size {
		return reflect.Value{}, fmt.Errorf("value %s overflows %s", n, t.String())
	}

	goType := t.GetType()
	switch goType.Kind() {
	case reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		v := reflect.New(goType).Elem()
		v.SetUint(n.Uint64())
		return v, nil
	case reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		v := reflect.New(goType).Elem()
		v.SetInt(n.Int64())
		return v, nil
	}
	return reflect.ValueOf(n), nil
}

// ParseInteger reads a JSON number, a decimal string or a 0x-prefixed hex string.
func ParseInteger(raw gjson.Result) (*big.Int, error) {
	var s string
	switch raw.Type {
	case gjson.Number:
		s = raw.Raw
	case gjson.String:
		s = strings.TrimSpace(raw.Str)
	default:
		return nil, fmt.Errorf("expected integer, got %s", raw.Raw)
	}

	n := new(big.Int)
	var ok bool
	switch {
	case strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X"):
		_, ok = n.SetString(s[2:], 16)
	case strings.HasPrefix(s, "-0x") || strings.HasPrefix(s, "-0X"):
		_, ok = n.SetString(s[3:], 16)
		n.Neg(n)
	default:
		_, ok = n.SetString(s, 10)
	}
	if !ok {
		return nil, fmt.Errorf("invalid integer %q", s)
	}
	return n, nil
}

func toBytes(raw gjson.Result) ([]byte, error) {
	if raw.Type != gjson.String {
		return nil, fmt.Errorf("expected hex string, got %s", raw.Raw)
	}
	b, err := hexutil.Decode(raw.Str)
	if err != nil {
		return nil, fmt.Errorf("invalid hex %q: %w", raw.Str, err)
	}
	return b, nil
}
