// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

package signer

import (
	"math/big"
	"testing"

	"github.com/luxfi/crypto"
	"github.com/luxfi/geth/common"
	"github.com/luxfi/geth/core/types"
	"github.com/stretchr/testify/require"
)

const testKey = "b71c71a67e1177ad4e901695e1b4b9ee17ae16c6668d313eac2f96dbcda3f291"

func TestLocalSignerAddress(t *testing.T) {
	require := require.New(t)

	s, err := NewLocalSignerFromHex("0x" + testKey)
	require.NoError(err)
	require.Equal(common.HexToAddress("0x71562b71999873DB5b286dF957af199Ec94617F7"), s.Address())

	_, err = NewLocalSignerFromHex("zz")
	require.Error(err)
}

func TestLocalSignerSignHash(t *testing.T) {
	require := require.New(t)

	s, err := GenerateLocalSigner()
	require.NoError(err)

	hash := common.BytesToHash(crypto.Keccak256([]byte("payload")))
	sig, err := s.SignHash(hash)
	require.NoError(err)
	require.Len(sig, 65)
	require.Contains([]byte{27, 28}, sig[64])

	sig[64] -= 27
	pub, err := crypto.Ecrecover(hash.Bytes(), sig)
	require.NoError(err)
	require.Equal(s.Address(), common.BytesToAddress(crypto.Keccak256(pub[1:])[12:]))
}

func TestLocalSignerSignTx(t *testing.T) {
	require := require.New(t)

	s, err := GenerateLocalSigner()
	require.NoError(err)

	chainID := big.NewInt(31337)
	to := common.HexToAddress("0x00000000000000000000000000000000000000aa")
	tx := types.NewTx(&types.DynamicFeeTx{
		ChainID:   chainID,
		Nonce:     1,
		GasTipCap: big.NewInt(1),
		GasFeeCap: big.NewInt(2),
		Gas:       21000,
		To:        &to,
		Value:     new(big.Int),
	})
	signed, err := s.SignTx(tx, chainID)
	require.NoError(err)

	from, err := types.Sender(types.LatestSignerForChainID(chainID), signed)
	require.NoError(err)
	require.Equal(s.Address(), from)
}

func TestRejectingSigner(t *testing.T) {
	require := require.New(t)

	s := RejectingSigner{Account: common.HexToAddress("0x01")}
	_, err := s.SignHash(common.Hash{})
	require.ErrorIs(err, ErrRejected)
	_, err = s.SignTx(nil, big.NewInt(1))
	require.ErrorIs(err, ErrRejected)
}
