// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

package fhevm

import (
	"encoding/json"
	"math/big"
	"testing"

	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common"
	"github.com/stretchr/testify/require"
)

const testAddress = "0x1234567890AbcdEF1234567890aBcdef12345678"

func TestInferType(t *testing.T) {
	tests := []struct {
		name      string
		raw       any
		expected  EncryptionType
		expectErr error
	}{
		{name: "bool", raw: true, expected: TypeBool},
		{name: "address string", raw: testAddress, expected: TypeAddress},
		{name: "address", raw: common.HexToAddress(testAddress), expected: TypeAddress},
		{name: "small int", raw: 42, expected: TypeUint8},
		{name: "uint16 boundary", raw: uint64(256), expected: TypeUint16},
		{name: "big", raw: pow2(200), expected: TypeUint256},
		{name: "uint256", raw: uint256.NewInt(70000), expected: TypeUint32},
		{name: "json number", raw: json.Number("1000"), expected: TypeUint16},
		{name: "integral float", raw: float64(7), expected: TypeUint8},
		{name: "typed value", raw: Uint64(1), expected: TypeUint64},
		{name: "negative", raw: -5, expectErr: ErrRange},
		{name: "plain string", raw: "hello", expectErr: ErrEncryption},
		{name: "fraction", raw: 1.5, expectErr: ErrEncryption},
		{name: "struct", raw: struct{}{}, expectErr: ErrEncryption},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require := require.New(t)

			got, err := InferType(tt.raw)
			if tt.expectErr != nil {
				require.ErrorIs(err, tt.expectErr)
				return
			}
			require.NoError(err)
			require.Equal(tt.expected, got)
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name      string
		raw       any
		typ       EncryptionType
		expected  Value
		expectErr bool
	}{
		{name: "uint8 max", raw: 255, typ: TypeUint8, expected: Uint8(255)},
		{name: "uint8 overflow", raw: 256, typ: TypeUint8, expectErr: true},
		{name: "uint16 widened", raw: 5, typ: TypeUint16, expected: Uint16(5)},
		{name: "negative", raw: -1, typ: TypeUint64, expectErr: true},
		{name: "bool", raw: false, typ: TypeBool, expected: Bool(false)},
		{name: "bool from int", raw: 1, typ: TypeBool, expectErr: true},
		{name: "address", raw: testAddress, typ: TypeAddress, expected: Address(common.HexToAddress(testAddress))},
		{name: "short address", raw: "0x1234", typ: TypeAddress, expectErr: true},
		{name: "non hex address", raw: "0xZZ34567890abcdef1234567890abcdef12345678", typ: TypeAddress, expectErr: true},
		{name: "type mismatch", raw: Uint8(1), typ: TypeUint16, expectErr: true},
		{name: "invalid type", raw: 1, typ: TypeInvalid, expectErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require := require.New(t)

			got, err := Validate(tt.raw, tt.typ)
			if tt.expectErr {
				require.ErrorIs(err, ErrEncryption)
				return
			}
			require.NoError(err)
			require.Equal(tt.expected, got)
		})
	}
}

func TestUintAsBounds(t *testing.T) {
	require := require.New(t)

	max128 := new(big.Int).Sub(pow2(128), big.NewInt(1))
	v, err := UintAs(TypeUint128, max128)
	require.NoError(err)
	require.Equal(max128, v.Big())

	_, err = UintAs(TypeUint128, pow2(128))
	require.ErrorIs(err, ErrEncryption)

	_, err = UintAs(TypeBool, big.NewInt(1))
	require.ErrorIs(err, ErrEncryption)
}

func TestValueAccessors(t *testing.T) {
	require := require.New(t)

	addr := common.HexToAddress(testAddress)
	require.Equal(addr, Address(addr).Address())
	require.Equal(addr.Hex(), Address(addr).String())
	require.True(Bool(true).Bool())
	require.Equal("false", Bool(false).String())
	require.Equal("1234", Uint32(1234).String())
	require.Equal(uint64(1234), Uint32(1234).Uint64())
	require.Equal(true, Bool(true).Interface())
}

func TestIsValidAddress(t *testing.T) {
	require := require.New(t)

	require.True(IsValidAddress(testAddress))
	require.False(IsValidAddress(testAddress[2:]))
	require.False(IsValidAddress("0X" + testAddress[2:]))
	require.False(IsValidAddress(testAddress + "00"))
}

func TestParseValue(t *testing.T) {
	tests := []struct {
		typ     EncryptionType
		in      string
		want    Value
		wantErr bool
	}{
		{typ: TypeBool, in: "true", want: Bool(true)},
		{typ: TypeBool, in: "0", want: Bool(false)},
		{typ: TypeBool, in: "maybe", wantErr: true},
		{typ: TypeUint8, in: "255", want: Uint8(255)},
		{typ: TypeUint8, in: "256", wantErr: true},
		{typ: TypeUint16, in: "0xff", want: Uint16(255)},
		{typ: TypeUint64, in: "-1", wantErr: true},
		{typ: TypeUint32, in: "twelve", wantErr: true},
		{typ: TypeAddress, in: "0x00000000000000000000000000000000000000c0", want: Address(common.HexToAddress("0xc0"))},
		{typ: TypeAddress, in: "0xc0", wantErr: true},
		{typ: TypeInvalid, in: "1", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.typ.String()+"/"+tt.in, func(t *testing.T) {
			got, err := ParseValue(tt.typ, tt.in)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrEncryption)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestValueJSON(t *testing.T) {
	require := require.New(t)

	for _, v := range []Value{Bool(true), Uint32(77), Address(common.HexToAddress("0xc0"))} {
		b, err := json.Marshal(v)
		require.NoError(err)
		var got Value
		require.NoError(json.Unmarshal(b, &got))
		require.Equal(v, got)
	}
}
