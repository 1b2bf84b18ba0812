// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

package fhevm

import (
	"context"
	"errors"

	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common"
)

// ErrInvalidCiphertext is wrapped by engines when a ciphertext cannot be
// parsed.
var ErrInvalidCiphertext = errors.New("invalid ciphertext")

// Engine is the FHE library behind the SDK. It owns key material and the
// ciphertext format; the SDK only routes plaintexts to the entry point of
// the right width and hands ciphertexts back for decryption.
type Engine interface {
	Encrypt8(ctx context.Context, v uint8) ([]byte, error)
	Encrypt16(ctx context.Context, v uint16) ([]byte, error)
	Encrypt32(ctx context.Context, v uint32) ([]byte, error)
	Encrypt64(ctx context.Context, v uint64) ([]byte, error)
	Encrypt128(ctx context.Context, v *uint256.Int) ([]byte, error)
	Encrypt256(ctx context.Context, v *uint256.Int) ([]byte, error)
	EncryptBool(ctx context.Context, v bool) ([]byte, error)
	EncryptAddress(ctx context.Context, v common.Address) ([]byte, error)

	// Decrypt recovers the plaintext of ciphertext. A nil auth requests
	// public decryption.
	Decrypt(ctx context.Context, ciphertext []byte, auth *Authorization) (Value, error)

	// PublicKey returns the serialized public key.
	PublicKey(ctx context.Context) ([]byte, error)
}

// AuthorizationSigner signs EIP-712 digests on behalf of an account.
type AuthorizationSigner interface {
	Address() common.Address
	SignHash(hash common.Hash) ([]byte, error)
}
