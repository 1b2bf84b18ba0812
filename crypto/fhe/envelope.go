// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

package fhe

import (
	"fmt"

	"github.com/luxfi/crypto"
	"github.com/luxfi/fhevm"
	"github.com/luxfi/ids"
)

const envelopeVersion = 1

type envelope struct {
	Version uint8
	Type    uint8
	Bits    [][]byte
}

func marshalEnvelope(t fhevm.EncryptionType, bits [][]byte) ([]byte, error) {
	return fhevm.Codec.Marshal(&envelope{
		Version: envelopeVersion,
		Type:    uint8(t),
		Bits:    bits,
	})
}

func unmarshalEnvelope(b []byte) (*envelope, error) {
	var env envelope
	if _, err := fhevm.Codec.Unmarshal(b, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCiphertext, err)
	}
	if env.Version != envelopeVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrInvalidCiphertext, env.Version)
	}
	t := fhevm.EncryptionType(env.Type)
	if !t.Valid() {
		return nil, fmt.Errorf("%w: unknown type %d", ErrInvalidCiphertext, env.Type)
	}
	if len(env.Bits) != t.Bits() {
		return nil, fmt.Errorf("%w: %s needs %d bits, got %d", ErrInvalidCiphertext, t, t.Bits(), len(env.Bits))
	}
	return &env, nil
}

// HandleOf identifies a ciphertext in the ACL by the keccak256 of its bytes.
func HandleOf(ciphertext []byte) ids.ID {
	return ids.ID(crypto.Keccak256Hash(ciphertext))
}
