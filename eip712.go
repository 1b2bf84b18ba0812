// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

package fhevm

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/luxfi/crypto"
	"github.com/luxfi/geth/common"
)

const (
	DomainName    = "FHEVM Decryption"
	DomainVersion = "1"

	// SignatureLen is the length of an r || s || v signature.
	SignatureLen = 65
)

var (
	domainTypeHash = crypto.Keccak256(
		[]byte("EIP712Domain(string name,string version,uint256 chainId,address verifyingContract)"),
	)
	userDecryptTypeHash = crypto.Keccak256(
		[]byte("UserDecryptRequest(address contractAddress,address requester)"),
	)

	ErrSignerMismatch = errors.New("signature does not recover to requester")
)

// Authorization binds a user decryption to a chain, a contract and the
// requesting account. Signature is the requester's EIP-712 signature over
// Digest.
type Authorization struct {
	ChainID   *big.Int
	Contract  common.Address
	Requester common.Address
	Signature []byte
}

// Digest is the EIP-712 hash the requester signs.
func (a *Authorization) Digest() common.Hash {
	chainID := a.ChainID
	if chainID == nil {
		chainID = new(big.Int)
	}
	domainSeparator := crypto.Keccak256(
		domainTypeHash,
		crypto.Keccak256([]byte(DomainName)),
		crypto.Keccak256([]byte(DomainVersion)),
		common.LeftPadBytes(chainID.Bytes(), 32),
		common.LeftPadBytes(a.Contract.Bytes(), 32),
	)
	structHash := crypto.Keccak256(
		userDecryptTypeHash,
		common.LeftPadBytes(a.Contract.Bytes(), 32),
		common.LeftPadBytes(a.Requester.Bytes(), 32),
	)
	return common.BytesToHash(crypto.Keccak256(
		[]byte{0x19, 0x01},
		domainSeparator,
		structHash,
	))
}

// Sign fills in Signature using s.
func (a *Authorization) Sign(s AuthorizationSigner) error {
	sig, err := s.SignHash(a.Digest())
	if err != nil {
		return err
	}
	if len(sig) != SignatureLen {
		return fmt.Errorf("signature has length %d, expected %d", len(sig), SignatureLen)
	}
	a.Signature = sig
	return nil
}

// Recover returns the address that produced Signature. Both the 0/1 and the
// 27/28 recovery id conventions are accepted.
func (a *Authorization) Recover() (common.Address, error) {
	if len(a.Signature) != SignatureLen {
		return common.Address{}, fmt.Errorf("signature has length %d, expected %d", len(a.Signature), SignatureLen)
	}
	sig := make([]byte, SignatureLen)
	copy(sig, a.Signature)
	if sig[64] >= 27 {
		sig[64] -= 27
	}
	digest := a.Digest()
	pub, err := crypto.Ecrecover(digest.Bytes(), sig)
	if err != nil {
		return common.Address{}, fmt.Errorf("failed to recover signer: %w", err)
	}
	return PubkeyBytesToAddress(pub), nil
}

// Verify checks that Signature was produced by Requester.
func (a *Authorization) Verify() error {
	signer, err := a.Recover()
	if err != nil {
		return err
	}
	if signer != a.Requester {
		return fmt.Errorf("%w: recovered %s, requester %s", ErrSignerMismatch, signer, a.Requester)
	}
	return nil
}

// PubkeyBytesToAddress derives the account address of an uncompressed
// secp256k1 public key.
func PubkeyBytesToAddress(pub []byte) common.Address {
	if len(pub) == 0 {
		return common.Address{}
	}
	return common.BytesToAddress(crypto.Keccak256(pub[1:])[12:])
}
