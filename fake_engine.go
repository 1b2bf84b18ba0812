// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

package fhevm

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common"
)

var (
	fakeMagic = []byte("fake")

	ErrNotPublic = errors.New("ciphertext is not publicly decryptable")
)

// FakeEngine is a test Engine that stores plaintexts in the clear. It
// records which entry points were called and can be told to fail.
type FakeEngine struct {
	mu sync.Mutex

	// Public allows decryption without authorization.
	Public     bool
	EncryptErr error
	DecryptErr error
	Key        []byte

	calls        []EncryptionType
	decryptCalls int
}

func (f *FakeEngine) Encrypt8(_ context.Context, v uint8) ([]byte, error) {
	return f.encrypt(TypeUint8, uint256.NewInt(uint64(v)))
}

func (f *FakeEngine) Encrypt16(_ context.Context, v uint16) ([]byte, error) {
	return f.encrypt(TypeUint16, uint256.NewInt(uint64(v)))
}

func (f *FakeEngine) Encrypt32(_ context.Context, v uint32) ([]byte, error) {
	return f.encrypt(TypeUint32, uint256.NewInt(uint64(v)))
}

func (f *FakeEngine) Encrypt64(_ context.Context, v uint64) ([]byte, error) {
	return f.encrypt(TypeUint64, uint256.NewInt(v))
}

func (f *FakeEngine) Encrypt128(_ context.Context, v *uint256.Int) ([]byte, error) {
	return f.encrypt(TypeUint128, v)
}

func (f *FakeEngine) Encrypt256(_ context.Context, v *uint256.Int) ([]byte, error) {
	return f.encrypt(TypeUint256, v)
}

func (f *FakeEngine) EncryptBool(_ context.Context, v bool) ([]byte, error) {
	u := new(uint256.Int)
	if v {
		u.SetOne()
	}
	return f.encrypt(TypeBool, u)
}

func (f *FakeEngine) EncryptAddress(_ context.Context, a common.Address) ([]byte, error) {
	return f.encrypt(TypeAddress, new(uint256.Int).SetBytes20(a.Bytes()))
}

func (f *FakeEngine) encrypt(t EncryptionType, v *uint256.Int) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls = append(f.calls, t)
	if f.EncryptErr != nil {
		return nil, f.EncryptErr
	}
	payload := v.Bytes32()
	out := make([]byte, 0, len(fakeMagic)+1+len(payload))
	out = append(out, fakeMagic...)
	out = append(out, byte(t))
	return append(out, payload[:]...), nil
}

func (f *FakeEngine) Decrypt(_ context.Context, ciphertext []byte, auth *Authorization) (Value, error) {
	f.mu.Lock()
	f.decryptCalls++
	decryptErr := f.DecryptErr
	public := f.Public
	f.mu.Unlock()

	if decryptErr != nil {
		return Value{}, decryptErr
	}
	if auth == nil {
		if !public {
			return Value{}, ErrNotPublic
		}
	} else if err := auth.Verify(); err != nil {
		return Value{}, err
	}
	if len(ciphertext) != len(fakeMagic)+1+32 || !bytes.HasPrefix(ciphertext, fakeMagic) {
		return Value{}, fmt.Errorf("%w: not a fake ciphertext", ErrInvalidCiphertext)
	}
	t := EncryptionType(ciphertext[len(fakeMagic)])
	return FromUint256(t, new(uint256.Int).SetBytes(ciphertext[len(fakeMagic)+1:]))
}

func (f *FakeEngine) PublicKey(context.Context) ([]byte, error) {
	if f.Key == nil {
		return []byte("fake-public-key"), nil
	}
	return f.Key, nil
}

// Calls returns the encryption entry points invoked so far, in order.
func (f *FakeEngine) Calls() []EncryptionType {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]EncryptionType(nil), f.calls...)
}

// DecryptCalls returns how many times Decrypt was invoked.
func (f *FakeEngine) DecryptCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.decryptCalls
}
