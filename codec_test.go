// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

package fhevm

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEncryptedValueEnvelope(t *testing.T) {
	require := require.New(t)

	ev := EncryptedValue{Type: TypeUint32, Data: []byte{0xde, 0xad, 0xbe, 0xef}}
	b, err := ev.Bytes()
	require.NoError(err)

	parsed, err := ParseEncryptedValue(b)
	require.NoError(err)
	require.Equal(ev, parsed)

	_, err = ParseEncryptedValue([]byte{0x01})
	require.Error(err)

	b, err = EncryptedValue{Type: TypeUint8}.Bytes()
	require.NoError(err)
	_, err = ParseEncryptedValue(b)
	require.ErrorIs(err, errEmptyCiphertext)
}

func TestEncryptedValueJSON(t *testing.T) {
	require := require.New(t)

	ev := EncryptedValue{Type: TypeAddress, Data: []byte{0x01, 0x02}}
	b, err := json.Marshal(ev)
	require.NoError(err)
	require.JSONEq(`{"type":"address","data":"0x0102"}`, string(b))

	var decoded EncryptedValue
	require.NoError(json.Unmarshal(b, &decoded))
	require.Equal(ev, decoded)

	require.Error(json.Unmarshal([]byte(`{"type":"uint7","data":"0x00"}`), &decoded))
}

func TestHex(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		expected  []byte
		expectErr bool
	}{
		{name: "prefixed", input: "0x0a0b", expected: []byte{0x0a, 0x0b}},
		{name: "bare", input: "0a0b", expected: []byte{0x0a, 0x0b}},
		{name: "upper prefix", input: "0X0A0B", expected: []byte{0x0a, 0x0b}},
		{name: "empty", input: "0x", expected: []byte{}},
		{name: "odd length", input: "0xabc", expectErr: true},
		{name: "not hex", input: "0xzz", expectErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require := require.New(t)

			got, err := FromHex(tt.input)
			if tt.expectErr {
				require.Error(err)
				return
			}
			require.NoError(err)
			require.Equal(tt.expected, got)
		})
	}
	require.Equal(t, "0x0a0b", ToHex([]byte{0x0a, 0x0b}))
}

func TestErrorTaxonomy(t *testing.T) {
	require := require.New(t)

	cause := errors.New("dial tcp: refused")
	err := NetworkError(cause, "failed to fetch key")
	require.ErrorIs(err, ErrNetwork)
	require.NotErrorIs(err, ErrTransaction)
	require.ErrorIs(err, cause)
	require.Equal("network error: failed to fetch key: dial tcp: refused", err.Error())

	require.ErrorIs(TransactionError(nil, "reverted"), ErrTransaction)
	require.ErrorIs(InitializationError(nil, "closed"), ErrInitialization)
	require.Equal("range error: too big", rangeError("too big").Error())
}
