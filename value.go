// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

package fhevm

import (
	"encoding/json"
	"fmt"
	"math"
	"math/big"
	"strings"

	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common"
)

// Value is a typed plaintext. The payload of every type is held as a
// 256-bit unsigned integer: bools are 0 or 1, addresses are their 160-bit
// big-endian value.
type Value struct {
	Type EncryptionType
	v    uint256.Int
}

func Bool(b bool) Value {
	val := Value{Type: TypeBool}
	if b {
		val.v.SetOne()
	}
	return val
}

func Address(a common.Address) Value {
	val := Value{Type: TypeAddress}
	val.v.SetBytes20(a.Bytes())
	return val
}

func Uint8(v uint8) Value   { return uintValue(TypeUint8, uint64(v)) }
func Uint16(v uint16) Value { return uintValue(TypeUint16, uint64(v)) }
func Uint32(v uint32) Value { return uintValue(TypeUint32, uint64(v)) }
func Uint64(v uint64) Value { return uintValue(TypeUint64, v) }

func uintValue(t EncryptionType, v uint64) Value {
	val := Value{Type: t}
	val.v.SetUint64(v)
	return val
}

// UintAs builds an unsigned value of width t, failing when v does not fit.
func UintAs(t EncryptionType, v *big.Int) (Value, error) {
	if !t.IsUnsigned() {
		return Value{}, encryptionError(nil, "%s is not an unsigned integer type", t)
	}
	if v == nil || v.Sign() < 0 {
		return Value{}, encryptionError(nil, "value %v out of range for %s", v, t)
	}
	u, overflow := uint256.FromBig(v)
	if overflow || u.Gt(t.Max()) {
		return Value{}, encryptionError(nil, "value %s out of range for %s", v, t)
	}
	return Value{Type: t, v: *u}, nil
}

// FromUint256 builds a value of type t from a raw payload without range
// checks beyond the width mask. Engines use it when reassembling plaintexts.
func FromUint256(t EncryptionType, u *uint256.Int) (Value, error) {
	if !t.Valid() {
		return Value{}, fmt.Errorf("invalid encryption type %d", uint8(t))
	}
	if u.Gt(t.Max()) {
		return Value{}, fmt.Errorf("payload %s exceeds %s", u.Dec(), t)
	}
	return Value{Type: t, v: *u}, nil
}

func (v Value) Bool() bool {
	return !v.v.IsZero()
}

func (v Value) Address() common.Address {
	return common.Address(v.v.Bytes20())
}

// Uint64 returns the low 64 bits of the payload.
func (v Value) Uint64() uint64 {
	return v.v.Uint64()
}

func (v Value) Big() *big.Int {
	return v.v.ToBig()
}

func (v Value) Uint256() *uint256.Int {
	return new(uint256.Int).Set(&v.v)
}

// Interface returns the plaintext as bool, common.Address or *big.Int.
func (v Value) Interface() any {
	switch v.Type {
	case TypeBool:
		return v.Bool()
	case TypeAddress:
		return v.Address()
	default:
		return v.Big()
	}
}

func (v Value) String() string {
	switch v.Type {
	case TypeBool:
		if v.Bool() {
			return "true"
		}
		return "false"
	case TypeAddress:
		return v.Address().Hex()
	default:
		return v.v.Dec()
	}
}

func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type  EncryptionType `json:"type"`
		Value string         `json:"value"`
	}{v.Type, v.String()})
}

func (v *Value) UnmarshalJSON(b []byte) error {
	var raw struct {
		Type  EncryptionType `json:"type"`
		Value string         `json:"value"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	parsed, err := ParseValue(raw.Type, raw.Value)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

// ParseValue reads the textual form of a value of type t: true or false,
// a 0x address, or a decimal or 0x-prefixed integer.
func ParseValue(t EncryptionType, s string) (Value, error) {
	s = strings.TrimSpace(s)
	switch t {
	case TypeBool:
		switch strings.ToLower(s) {
		case "true", "1":
			return Bool(true), nil
		case "false", "0":
			return Bool(false), nil
		}
		return Value{}, encryptionError(nil, "invalid bool %q", s)
	case TypeAddress:
		return Validate(s, t)
	}
	base := 10
	if has0xPrefix(s) {
		s, base = s[2:], 16
	}
	n, ok := new(big.Int).SetString(s, base)
	if !ok {
		return Value{}, encryptionError(nil, "invalid integer %q", s)
	}
	return Validate(n, t)
}

// InferType classifies a raw Go value: bools are bool, 0x-prefixed strings
// and common.Address are address, non-negative integers take the narrowest
// width that holds them.
func InferType(raw any) (EncryptionType, error) {
	switch x := raw.(type) {
	case Value:
		return x.Type, nil
	case bool:
		return TypeBool, nil
	case common.Address, *common.Address:
		return TypeAddress, nil
	case string:
		if has0xPrefix(x) {
			return TypeAddress, nil
		}
		return TypeInvalid, encryptionError(nil, "unsupported string value %q", x)
	}
	n, ok := toBig(raw)
	if !ok {
		return TypeInvalid, encryptionError(nil, "unsupported value type %T", raw)
	}
	return SelectWidth(n)
}

// Validate checks raw against the declared type t and returns the typed value.
func Validate(raw any, t EncryptionType) (Value, error) {
	if !t.Valid() {
		return Value{}, encryptionError(nil, "unsupported encryption type %s", t)
	}
	if v, ok := raw.(Value); ok {
		if v.Type != t {
			return Value{}, encryptionError(nil, "value of type %s declared as %s", v.Type, t)
		}
		return v, nil
	}
	switch t {
	case TypeBool:
		b, ok := raw.(bool)
		if !ok {
			return Value{}, encryptionError(nil, "expected bool, got %T", raw)
		}
		return Bool(b), nil
	case TypeAddress:
		switch x := raw.(type) {
		case common.Address:
			return Address(x), nil
		case *common.Address:
			if x == nil {
				return Value{}, encryptionError(nil, "nil address")
			}
			return Address(*x), nil
		case string:
			if !IsValidAddress(x) {
				return Value{}, encryptionError(nil, "invalid address %q", x)
			}
			return Address(common.HexToAddress(x)), nil
		default:
			return Value{}, encryptionError(nil, "expected address, got %T", raw)
		}
	}
	n, ok := toBig(raw)
	if !ok {
		return Value{}, encryptionError(nil, "expected integer for %s, got %T", t, raw)
	}
	return UintAs(t, n)
}

// Infer runs InferType then Validate.
func Infer(raw any) (Value, error) {
	t, err := InferType(raw)
	if err != nil {
		return Value{}, err
	}
	return Validate(raw, t)
}

func toBig(raw any) (*big.Int, bool) {
	switch x := raw.(type) {
	case int:
		return big.NewInt(int64(x)), true
	case int8:
		return big.NewInt(int64(x)), true
	case int16:
		return big.NewInt(int64(x)), true
	case int32:
		return big.NewInt(int64(x)), true
	case int64:
		return big.NewInt(x), true
	case uint:
		return new(big.Int).SetUint64(uint64(x)), true
	case uint8:
		return new(big.Int).SetUint64(uint64(x)), true
	case uint16:
		return new(big.Int).SetUint64(uint64(x)), true
	case uint32:
		return new(big.Int).SetUint64(uint64(x)), true
	case uint64:
		return new(big.Int).SetUint64(x), true
	case float64:
		if x != math.Trunc(x) || math.IsInf(x, 0) {
			return nil, false
		}
		n, _ := big.NewFloat(x).Int(nil)
		return n, true
	case json.Number:
		n, ok := new(big.Int).SetString(x.String(), 10)
		return n, ok
	case *big.Int:
		if x == nil {
			return nil, false
		}
		return new(big.Int).Set(x), true
	case big.Int:
		return new(big.Int).Set(&x), true
	case *uint256.Int:
		if x == nil {
			return nil, false
		}
		return x.ToBig(), true
	}
	return nil, false
}

func has0xPrefix(s string) bool {
	return len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X')
}

// IsValidAddress reports whether s is 0x followed by exactly 40 hex digits.
func IsValidAddress(s string) bool {
	if len(s) != 42 || !strings.HasPrefix(s, "0x") {
		return false
	}
	return strings.IndexFunc(s[2:], func(r rune) bool {
		return !isHexRune(r)
	}) < 0
}

func isHexRune(r rune) bool {
	return ('0' <= r && r <= '9') || ('a' <= r && r <= 'f') || ('A' <= r && r <= 'F')
}
