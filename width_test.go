// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

package fhevm

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"
)

func pow2(n uint) *big.Int {
	return new(big.Int).Lsh(big.NewInt(1), n)
}

func TestSelectWidth(t *testing.T) {
	tests := []struct {
		name     string
		value    *big.Int
		expected EncryptionType
	}{
		{name: "zero", value: big.NewInt(0), expected: TypeUint8},
		{name: "uint8 max", value: big.NewInt(255), expected: TypeUint8},
		{name: "uint16 min", value: big.NewInt(256), expected: TypeUint16},
		{name: "uint16 max", value: big.NewInt(65535), expected: TypeUint16},
		{name: "uint32 min", value: big.NewInt(65536), expected: TypeUint32},
		{name: "uint32 max", value: new(big.Int).Sub(pow2(32), big.NewInt(1)), expected: TypeUint32},
		{name: "uint64 min", value: pow2(32), expected: TypeUint64},
		{name: "uint64 max", value: new(big.Int).Sub(pow2(64), big.NewInt(1)), expected: TypeUint64},
		{name: "uint128 min", value: pow2(64), expected: TypeUint128},
		{name: "uint128 max", value: new(big.Int).Sub(pow2(128), big.NewInt(1)), expected: TypeUint128},
		{name: "uint256 min", value: pow2(128), expected: TypeUint256},
		{name: "uint256 max", value: new(big.Int).Sub(pow2(256), big.NewInt(1)), expected: TypeUint256},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require := require.New(t)

			got, err := SelectWidth(tt.value)
			require.NoError(err)
			require.Equal(tt.expected, got)
		})
	}
}

func TestSelectWidthOutOfRange(t *testing.T) {
	tests := []struct {
		name  string
		value *big.Int
	}{
		{name: "negative", value: big.NewInt(-1)},
		{name: "2^256", value: pow2(256)},
		{name: "nil", value: nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require := require.New(t)

			_, err := SelectWidth(tt.value)
			require.ErrorIs(err, ErrRange)
			require.NotErrorIs(err, ErrEncryption)
		})
	}
}

func TestSelectWidthUint64(t *testing.T) {
	require := require.New(t)

	require.Equal(TypeUint8, SelectWidthUint64(42))
	require.Equal(TypeUint16, SelectWidthUint64(1000))
	require.Equal(TypeUint32, SelectWidthUint64(100000))
	require.Equal(TypeUint64, SelectWidthUint64(1<<40))
}
