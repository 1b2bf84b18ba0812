// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

package fhevm

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/luxfi/fhevm/signer"
	"github.com/luxfi/geth/common"
	"github.com/luxfi/log"
	"github.com/stretchr/testify/require"
)

var (
	testContract = common.HexToAddress("0x00000000000000000000000000000000000000c0")
	testChainID  = big.NewInt(31337)
)

func newTestDecryptor(t *testing.T, engine Engine) (*Decryptor, common.Address) {
	t.Helper()
	s, err := signer.GenerateLocalSigner()
	require.NoError(t, err)
	return NewDecryptor(engine, s, testChainID, log.NewTestLogger(log.InfoLevel)), s.Address()
}

func encryptFor(t *testing.T, engine Engine, v Value) []byte {
	t.Helper()
	ct, err := NewEncryptor(engine, nil).Encrypt(context.Background(), v)
	require.NoError(t, err)
	return ct.Data
}

func TestPublicDecrypt(t *testing.T) {
	require := require.New(t)

	engine := &FakeEngine{Public: true}
	dec, _ := newTestDecryptor(t, engine)

	got, err := dec.PublicDecrypt(context.Background(), encryptFor(t, engine, Uint32(99)))
	require.NoError(err)
	require.Equal(Uint32(99), got.Value)
	require.False(got.Authorized)
	require.False(got.Timestamp.IsZero())
}

func TestPublicDecryptFailure(t *testing.T) {
	require := require.New(t)

	engine := &FakeEngine{}
	dec, _ := newTestDecryptor(t, engine)

	_, err := dec.PublicDecrypt(context.Background(), encryptFor(t, engine, Uint8(1)))
	require.ErrorIs(err, ErrDecryption)
	require.ErrorIs(err, ErrNotPublic)

	_, err = dec.PublicDecrypt(context.Background(), nil)
	require.ErrorIs(err, ErrDecryption)
}

func TestUserDecrypt(t *testing.T) {
	require := require.New(t)

	engine := &FakeEngine{}
	dec, user := newTestDecryptor(t, engine)

	got, err := dec.UserDecrypt(context.Background(), encryptFor(t, engine, Bool(true)), testContract, user)
	require.NoError(err)
	require.Equal(Bool(true), got.Value)
	require.True(got.Authorized)
}

func TestUserDecryptWrongRequester(t *testing.T) {
	require := require.New(t)

	engine := &FakeEngine{}
	dec, _ := newTestDecryptor(t, engine)

	other := common.HexToAddress("0x00000000000000000000000000000000000000ee")
	_, err := dec.UserDecrypt(context.Background(), encryptFor(t, engine, Uint8(3)), testContract, other)
	require.ErrorIs(err, ErrDecryption)
	require.ErrorIs(err, ErrSignerMismatch)
}

func TestUserDecryptSigningRejected(t *testing.T) {
	require := require.New(t)

	engine := &FakeEngine{}
	account := common.HexToAddress("0x00000000000000000000000000000000000000aa")
	dec := NewDecryptor(engine, signer.RejectingSigner{Account: account}, testChainID, nil)

	_, err := dec.UserDecrypt(context.Background(), encryptFor(t, engine, Uint8(3)), testContract, account)
	require.ErrorIs(err, ErrDecryption)
	require.ErrorIs(err, signer.ErrRejected)
	require.Zero(engine.DecryptCalls())
}

func TestUserDecryptWithoutSigner(t *testing.T) {
	require := require.New(t)

	engine := &FakeEngine{}
	dec := NewDecryptor(engine, nil, testChainID, nil)

	_, err := dec.UserDecrypt(context.Background(), []byte{1}, testContract, testContract)
	require.ErrorIs(err, ErrDecryption)
	require.Zero(engine.DecryptCalls())
}

func TestDecryptWithRequiresAuthorization(t *testing.T) {
	require := require.New(t)

	engine := &FakeEngine{Public: true}
	dec, _ := newTestDecryptor(t, engine)
	ct := encryptFor(t, engine, Uint8(5))

	_, err := dec.DecryptWith(context.Background(), ct, nil)
	require.ErrorIs(err, ErrDecryption)
	require.ErrorIs(err, errMissingAuthorization)
	require.Zero(engine.DecryptCalls())
}

func TestDecryptBatch(t *testing.T) {
	require := require.New(t)

	engine := &FakeEngine{}
	dec, user := newTestDecryptor(t, engine)

	cts := [][]byte{
		encryptFor(t, engine, Uint8(1)),
		encryptFor(t, engine, Uint64(2)),
		encryptFor(t, engine, Bool(false)),
	}
	got, err := dec.DecryptBatch(context.Background(), cts, &testContract, &user)
	require.NoError(err)
	require.Len(got, 3)
	require.Equal(Uint8(1), got[0].Value)
	require.Equal(Uint64(2), got[1].Value)
	require.Equal(Bool(false), got[2].Value)

	empty, err := dec.DecryptBatch(context.Background(), nil, &testContract, &user)
	require.NoError(err)
	require.Empty(empty)
}

func TestDecryptBatchPublic(t *testing.T) {
	require := require.New(t)

	engine := &FakeEngine{Public: true}
	dec, _ := newTestDecryptor(t, engine)

	got, err := dec.DecryptBatch(context.Background(), [][]byte{encryptFor(t, engine, Uint16(9))}, nil, nil)
	require.NoError(err)
	require.Equal(Uint16(9), got[0].Value)
	require.False(got[0].Authorized)
}

func TestDecryptBatchPartialAddresses(t *testing.T) {
	require := require.New(t)

	engine := &FakeEngine{Public: true}
	dec, _ := newTestDecryptor(t, engine)

	_, err := dec.DecryptBatch(context.Background(), [][]byte{encryptFor(t, engine, Uint16(9))}, &testContract, nil)
	require.ErrorIs(err, ErrDecryption)
	require.Zero(engine.DecryptCalls())
}

func TestDecryptBatchAbortsAtIndex(t *testing.T) {
	require := require.New(t)

	engine := &FakeEngine{}
	dec, user := newTestDecryptor(t, engine)

	cts := [][]byte{
		encryptFor(t, engine, Uint8(1)),
		[]byte("garbage"),
		encryptFor(t, engine, Uint8(3)),
	}
	got, err := dec.DecryptBatch(context.Background(), cts, &testContract, &user)
	require.Nil(got)
	require.ErrorIs(err, ErrDecryption)

	var sdkErr *Error
	require.True(errors.As(err, &sdkErr))
	require.Equal(1, sdkErr.Index)
	require.Equal(2, engine.DecryptCalls())
}

func TestCanDecrypt(t *testing.T) {
	require := require.New(t)

	engine := &FakeEngine{}
	dec, user := newTestDecryptor(t, engine)
	ct := encryptFor(t, engine, Uint8(1))

	require.True(dec.CanDecrypt(context.Background(), ct, testContract, user))
	require.False(dec.CanDecrypt(context.Background(), ct, testContract, testContract))
}
