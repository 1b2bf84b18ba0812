// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

package signer

import (
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/luxfi/crypto"
	"github.com/luxfi/geth/common"
	"github.com/luxfi/geth/core/types"
)

var ErrRejected = errors.New("signing request rejected")

// Signer holds the account key used for transactions and decryption
// authorizations.
type Signer interface {
	// Address returns the account address
	Address() common.Address

	// SignTx signs an EVM transaction for evmChainID
	SignTx(tx *types.Transaction, evmChainID *big.Int) (*types.Transaction, error)

	// SignHash signs a 32-byte digest, returning r || s || v with v in {27, 28}
	SignHash(hash common.Hash) ([]byte, error)
}

// LocalSigner signs with an in-memory secp256k1 key
type LocalSigner struct {
	key     *ecdsa.PrivateKey
	address common.Address
}

// NewLocalSigner creates a new local signer
func NewLocalSigner(key *ecdsa.PrivateKey) *LocalSigner {
	pub := crypto.FromECDSAPub(&key.PublicKey)
	return &LocalSigner{
		key:     key,
		address: common.BytesToAddress(crypto.Keccak256(pub[1:])[12:]),
	}
}

// NewLocalSignerFromHex parses a hex private key, with or without 0x.
func NewLocalSignerFromHex(hexKey string) (*LocalSigner, error) {
	hexKey = strings.TrimPrefix(strings.TrimSpace(hexKey), "0x")
	key, err := crypto.HexToECDSA(hexKey)
	if err != nil {
		return nil, fmt.Errorf("invalid private key: %w", err)
	}
	return NewLocalSigner(key), nil
}

// GenerateLocalSigner creates a signer with a fresh random key
func GenerateLocalSigner() (*LocalSigner, error) {
	key, err := crypto.GenerateKey()
	if err != nil {
		return nil, err
	}
	return NewLocalSigner(key), nil
}

func (s *LocalSigner) Address() common.Address {
	return s.address
}

func (s *LocalSigner) SignTx(tx *types.Transaction, evmChainID *big.Int) (*types.Transaction, error) {
	return types.SignTx(tx, types.LatestSignerForChainID(evmChainID), s.key)
}

func (s *LocalSigner) SignHash(hash common.Hash) ([]byte, error) {
	sig, err := crypto.Sign(hash.Bytes(), s.key)
	if err != nil {
		return nil, err
	}
	sig[64] += 27
	return sig, nil
}

// RejectingSigner refuses every signing request, like a wallet whose user
// declined the prompt.
type RejectingSigner struct {
	Account common.Address
}

func (r RejectingSigner) Address() common.Address {
	return r.Account
}

func (RejectingSigner) SignTx(*types.Transaction, *big.Int) (*types.Transaction, error) {
	return nil, ErrRejected
}

func (RejectingSigner) SignHash(common.Hash) ([]byte, error) {
	return nil, ErrRejected
}
