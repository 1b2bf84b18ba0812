// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

package api

import (
	"context"
	"errors"
	"math/big"
	"net/http"
	"testing"

	"github.com/luxfi/fhevm"
	"github.com/luxfi/fhevm/signer"
	"github.com/luxfi/geth/common"
	"github.com/stretchr/testify/require"
)

func TestRemoteEngineRoundTrip(t *testing.T) {
	srv := newTestServer(t, &fhevm.FakeEngine{Public: true, Key: []byte("remote-key")})
	remote := NewRemoteEngine(srv.URL+"/", testContract, nil)
	enc := fhevm.NewEncryptor(remote, nil)
	dec := fhevm.NewDecryptor(remote, nil, testChainID, nil)

	maxUint128, ok := new(big.Int).SetString("340282366920938463463374607431768211455", 10)
	require.True(t, ok)

	tests := []struct {
		name  string
		value fhevm.Value
	}{
		{name: "bool", value: fhevm.Bool(true)},
		{name: "uint8", value: fhevm.Uint8(7)},
		{name: "uint64", value: fhevm.Uint64(1 << 40)},
		{name: "uint128 max", value: mustUintAs(t, fhevm.TypeUint128, maxUint128)},
		{name: "address", value: fhevm.Address(common.HexToAddress("0xbeef"))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require := require.New(t)
			ctx := context.Background()

			ct, err := enc.Encrypt(ctx, tt.value)
			require.NoError(err)
			require.Equal(tt.value.Type, ct.Type)

			got, err := dec.PublicDecrypt(ctx, ct.Data)
			require.NoError(err)
			require.Equal(tt.value, got.Value)
		})
	}

	key, err := remote.PublicKey(context.Background())
	require.NoError(t, err)
	require.Equal(t, []byte("remote-key"), key)
}

func TestRemoteEngineUserDecrypt(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()

	engine := &fhevm.FakeEngine{}
	srv := newTestServer(t, engine)
	remote := NewRemoteEngine(srv.URL, testContract, nil)

	user, err := signer.GenerateLocalSigner()
	require.NoError(err)
	dec := fhevm.NewDecryptor(remote, user, testChainID, nil)

	ct, err := remote.Encrypt16(ctx, 999)
	require.NoError(err)

	got, err := dec.UserDecrypt(ctx, ct, testContract, user.Address())
	require.NoError(err)
	require.Equal(fhevm.Uint16(999), got.Value)
	require.True(got.Authorized)

	_, err = dec.PublicDecrypt(ctx, ct)
	require.ErrorIs(err, fhevm.ErrDecryption)
	var statusErr *StatusError
	require.ErrorAs(err, &statusErr)
	require.Equal(http.StatusForbidden, statusErr.StatusCode)
}

func TestRemoteEngineUnreachable(t *testing.T) {
	remote := NewRemoteEngine("http://127.0.0.1:1", testContract, nil)

	_, err := remote.Encrypt8(context.Background(), 1)
	require.ErrorIs(t, err, fhevm.ErrNetwork)

	_, err = remote.PublicKey(context.Background())
	require.ErrorIs(t, err, fhevm.ErrNetwork)
}

func TestRemoteEngineServerError(t *testing.T) {
	srv := newTestServer(t, &fhevm.FakeEngine{EncryptErr: errors.New("boom")})
	remote := NewRemoteEngine(srv.URL, testContract, nil)

	_, err := fhevm.NewEncryptor(remote, nil).Encrypt8(context.Background(), 1)
	require.ErrorIs(t, err, fhevm.ErrEncryption)
	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	require.Equal(t, http.StatusInternalServerError, statusErr.StatusCode)
}

func mustUintAs(t *testing.T, typ fhevm.EncryptionType, v *big.Int) fhevm.Value {
	t.Helper()
	val, err := fhevm.UintAs(typ, v)
	require.NoError(t, err)
	return val
}
