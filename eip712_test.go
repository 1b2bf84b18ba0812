// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

package fhevm

import (
	"math/big"
	"testing"

	"github.com/luxfi/fhevm/signer"
	"github.com/luxfi/geth/common"
	"github.com/stretchr/testify/require"
)

func TestAuthorizationDigestBindsFields(t *testing.T) {
	require := require.New(t)

	base := Authorization{ChainID: big.NewInt(1), Contract: testContract, Requester: common.HexToAddress("0x01")}
	digest := base.Digest()
	require.Equal(digest, base.Digest())

	otherChain := base
	otherChain.ChainID = big.NewInt(2)
	require.NotEqual(digest, otherChain.Digest())

	otherContract := base
	otherContract.Contract = common.HexToAddress("0x02")
	require.NotEqual(digest, otherContract.Digest())

	otherRequester := base
	otherRequester.Requester = common.HexToAddress("0x03")
	require.NotEqual(digest, otherRequester.Digest())
}

func TestAuthorizationSignVerify(t *testing.T) {
	require := require.New(t)

	s, err := signer.GenerateLocalSigner()
	require.NoError(err)

	auth := &Authorization{ChainID: testChainID, Contract: testContract, Requester: s.Address()}
	require.NoError(auth.Sign(s))
	require.Len(auth.Signature, SignatureLen)

	recovered, err := auth.Recover()
	require.NoError(err)
	require.Equal(s.Address(), recovered)
	require.NoError(auth.Verify())

	// 0/1 recovery ids are accepted as well
	auth.Signature[64] -= 27
	require.NoError(auth.Verify())

	auth.Requester = testContract
	require.ErrorIs(auth.Verify(), ErrSignerMismatch)
}

func TestAuthorizationRecoverBadSignature(t *testing.T) {
	require := require.New(t)

	auth := &Authorization{ChainID: testChainID, Signature: []byte{1, 2, 3}}
	_, err := auth.Recover()
	require.Error(err)
}
