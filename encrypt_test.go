// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

package fhevm

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/luxfi/geth/common"
	"github.com/luxfi/log"
	"github.com/stretchr/testify/require"
)

func newTestEncryptor(engine Engine) *Encryptor {
	return NewEncryptor(engine, log.NewTestLogger(log.InfoLevel))
}

func TestEncryptDispatch(t *testing.T) {
	tests := []struct {
		name  string
		value Value
	}{
		{name: "uint8", value: Uint8(7)},
		{name: "uint16", value: Uint16(7)},
		{name: "uint32", value: Uint32(7)},
		{name: "uint64", value: Uint64(7)},
		{name: "bool", value: Bool(true)},
		{name: "address", value: Address(common.HexToAddress(testAddress))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require := require.New(t)

			engine := &FakeEngine{Public: true}
			enc := newTestEncryptor(engine)

			ct, err := enc.Encrypt(context.Background(), tt.value)
			require.NoError(err)
			require.Equal(tt.value.Type, ct.Type)
			require.Equal([]EncryptionType{tt.value.Type}, engine.Calls())

			got, err := engine.Decrypt(context.Background(), ct.Data, nil)
			require.NoError(err)
			require.Equal(tt.value, got)
		})
	}
}

func TestEncryptAsWideTypes(t *testing.T) {
	require := require.New(t)

	engine := &FakeEngine{Public: true}
	enc := newTestEncryptor(engine)

	big128 := new(big.Int).Sub(pow2(128), big.NewInt(1))
	ct, err := enc.Encrypt128(context.Background(), big128)
	require.NoError(err)
	require.Equal(TypeUint128, ct.Type)

	ct, err = enc.Encrypt256(context.Background(), pow2(255))
	require.NoError(err)
	require.Equal(TypeUint256, ct.Type)

	got, err := engine.Decrypt(context.Background(), ct.Data, nil)
	require.NoError(err)
	require.Equal(pow2(255), got.Big())
}

func TestEncryptAsRejectsBeforeEngine(t *testing.T) {
	tests := []struct {
		name string
		raw  any
		typ  EncryptionType
	}{
		{name: "uint8 overflow", raw: 256, typ: TypeUint8},
		{name: "negative", raw: -1, typ: TypeUint32},
		{name: "bad address", raw: "0x1234", typ: TypeAddress},
		{name: "wrong bool", raw: "true", typ: TypeBool},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require := require.New(t)

			engine := &FakeEngine{}
			enc := newTestEncryptor(engine)

			_, err := enc.EncryptAs(context.Background(), tt.raw, tt.typ)
			require.ErrorIs(err, ErrEncryption)
			require.Empty(engine.Calls())
		})
	}
}

func TestEncryptEngineFailure(t *testing.T) {
	require := require.New(t)

	cause := errors.New("engine down")
	enc := newTestEncryptor(&FakeEngine{EncryptErr: cause})

	_, err := enc.Encrypt64(context.Background(), 1)
	require.ErrorIs(err, ErrEncryption)
	require.ErrorIs(err, cause)
}

func TestEncryptAuto(t *testing.T) {
	require := require.New(t)

	engine := &FakeEngine{}
	enc := newTestEncryptor(engine)

	ct, err := enc.EncryptAuto(context.Background(), big.NewInt(256))
	require.NoError(err)
	require.Equal(TypeUint16, ct.Type)

	_, err = enc.EncryptAuto(context.Background(), big.NewInt(-3))
	require.ErrorIs(err, ErrRange)
	require.Len(engine.Calls(), 1)
}

func TestEncryptBatch(t *testing.T) {
	require := require.New(t)

	engine := &FakeEngine{Public: true}
	enc := newTestEncryptor(engine)

	result, err := enc.EncryptBatch(context.Background(), map[string]any{
		"amount":    uint64(1000),
		"active":    true,
		"recipient": testAddress,
		"count":     5,
	})
	require.NoError(err)
	require.Len(result, 4)
	require.Equal(TypeUint16, result["amount"].Type)
	require.Equal(TypeBool, result["active"].Type)
	require.Equal(TypeAddress, result["recipient"].Type)
	require.Equal(TypeUint8, result["count"].Type)

	// fields are encrypted in key order
	require.Equal(
		[]EncryptionType{TypeBool, TypeUint16, TypeUint8, TypeAddress},
		engine.Calls(),
	)
}

func TestEncryptBatchEmpty(t *testing.T) {
	require := require.New(t)

	result, err := newTestEncryptor(&FakeEngine{}).EncryptBatch(context.Background(), map[string]any{})
	require.NoError(err)
	require.Empty(result)
}

func TestEncryptBatchAllOrNothing(t *testing.T) {
	tests := []struct {
		name          string
		fields        map[string]any
		engineErr     error
		expectedField string
		expectedCalls int
	}{
		{
			name: "invalid field before any encryption",
			fields: map[string]any{
				"a":   1,
				"bad": "not-an-address",
				"z":   true,
			},
			expectedField: "bad",
			expectedCalls: 0,
		},
		{
			name: "negative value",
			fields: map[string]any{
				"neg": -10,
			},
			expectedField: "neg",
			expectedCalls: 0,
		},
		{
			name: "engine failure",
			fields: map[string]any{
				"a": 1,
				"b": 2,
			},
			engineErr:     errors.New("boom"),
			expectedField: "a",
			expectedCalls: 1,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require := require.New(t)

			engine := &FakeEngine{EncryptErr: tt.engineErr}
			enc := newTestEncryptor(engine)

			result, err := enc.EncryptBatch(context.Background(), tt.fields)
			require.Nil(result)
			require.ErrorIs(err, ErrEncryption)

			var sdkErr *Error
			require.ErrorAs(err, &sdkErr)
			require.Equal(tt.expectedField, sdkErr.Field)
			require.Contains(err.Error(), tt.expectedField)
			require.Len(engine.Calls(), tt.expectedCalls)
		})
	}
}
