// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

// Package fhe is a local fhevm.Engine backed by boolean TFHE. Integers are
// encrypted bit by bit, least significant first, and framed in an RLP
// envelope tagged with the declared type. Decryption is gated by an ACL
// keyed on ciphertext handles.
package fhe

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"

	"github.com/holiman/uint256"
	"github.com/luxfi/fhevm"
	"github.com/luxfi/geth/common"
	"github.com/luxfi/ids"
	"github.com/luxfi/log"

	tfhe "github.com/luxfi/fhe"
)

var (
	ErrInvalidCiphertext = fhevm.ErrInvalidCiphertext
	ErrNotPublic         = errors.New("ciphertext is not publicly decryptable")
	ErrUnauthorized      = errors.New("requester is not allowed to decrypt ciphertext")
	ErrWrongChain        = errors.New("authorization is for a different chain")
)

type Option func(*Engine)

// WithChainID sets the chain id authorizations must be bound to.
func WithChainID(chainID *big.Int) Option {
	return func(e *Engine) { e.chainID = new(big.Int).Set(chainID) }
}

// WithPublicDecryption lets every ciphertext be decrypted publicly and by
// any authorized requester, as on development networks.
func WithPublicDecryption(enabled bool) Option {
	return func(e *Engine) { e.publicDecryption = enabled }
}

func WithLogger(logger log.Logger) Option {
	return func(e *Engine) { e.log = logger }
}

func WithACL(acl *ACL) Option {
	return func(e *Engine) { e.acl = acl }
}

// Engine encrypts and decrypts with a locally generated TFHE key pair.
type Engine struct {
	params tfhe.Parameters
	pk     *tfhe.PublicKey

	// the encryptor and decryptor carry sampling state
	lock sync.Mutex
	enc  *tfhe.Encryptor
	dec  *tfhe.Decryptor

	chainID          *big.Int
	publicDecryption bool
	acl              *ACL
	log              log.Logger
}

// New generates a fresh key pair.
func New(opts ...Option) (*Engine, error) {
	params, err := tfhe.NewParametersFromLiteral(tfhe.PN10QP27)
	if err != nil {
		return nil, fmt.Errorf("failed to create FHE parameters: %w", err)
	}
	kg := tfhe.NewKeyGenerator(params)
	sk, pk := kg.GenKeyPair()

	e := &Engine{
		params:  params,
		pk:      pk,
		enc:     tfhe.NewEncryptor(params, sk),
		dec:     tfhe.NewDecryptor(params, sk),
		chainID: new(big.Int),
		acl:     NewACL(),
		log:     log.NewNoOpLogger(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.log.Info("generated FHE key pair",
		log.Stringer("chainID", e.chainID),
		log.Bool("publicDecryption", e.publicDecryption),
	)
	return e, nil
}

func (e *Engine) Encrypt8(_ context.Context, v uint8) ([]byte, error) {
	return e.encrypt(fhevm.TypeUint8, uint256.NewInt(uint64(v)))
}

func (e *Engine) Encrypt16(_ context.Context, v uint16) ([]byte, error) {
	return e.encrypt(fhevm.TypeUint16, uint256.NewInt(uint64(v)))
}

func (e *Engine) Encrypt32(_ context.Context, v uint32) ([]byte, error) {
	return e.encrypt(fhevm.TypeUint32, uint256.NewInt(uint64(v)))
}

func (e *Engine) Encrypt64(_ context.Context, v uint64) ([]byte, error) {
	return e.encrypt(fhevm.TypeUint64, uint256.NewInt(v))
}

func (e *Engine) Encrypt128(_ context.Context, v *uint256.Int) ([]byte, error) {
	return e.encrypt(fhevm.TypeUint128, v)
}

func (e *Engine) Encrypt256(_ context.Context, v *uint256.Int) ([]byte, error) {
	return e.encrypt(fhevm.TypeUint256, v)
}

func (e *Engine) EncryptBool(_ context.Context, v bool) ([]byte, error) {
	u := new(uint256.Int)
	if v {
		u.SetOne()
	}
	return e.encrypt(fhevm.TypeBool, u)
}

func (e *Engine) EncryptAddress(_ context.Context, a common.Address) ([]byte, error) {
	return e.encrypt(fhevm.TypeAddress, new(uint256.Int).SetBytes20(a.Bytes()))
}

func (e *Engine) encrypt(t fhevm.EncryptionType, v *uint256.Int) ([]byte, error) {
	if v == nil {
		return nil, fmt.Errorf("nil %s plaintext", t)
	}
	if v.Gt(t.Max()) {
		return nil, fmt.Errorf("plaintext does not fit %s", t)
	}
	n := t.Bits()
	bits := make([][]byte, n)

	e.lock.Lock()
	defer e.lock.Unlock()
	for i := 0; i < n; i++ {
		bit := int((v[i/64] >> (i % 64)) & 1)
		data, err := e.enc.EncryptBit(bit).MarshalBinary()
		if err != nil {
			return nil, fmt.Errorf("failed to serialize bit %d: %w", i, err)
		}
		bits[i] = data
	}
	return marshalEnvelope(t, bits)
}

// Decrypt recovers the plaintext of ciphertext. Public decryption requires
// the ciphertext to be public; user decryption requires a valid signature
// by the requester and an ACL grant for the contract and requester.
func (e *Engine) Decrypt(_ context.Context, ciphertext []byte, auth *fhevm.Authorization) (fhevm.Value, error) {
	env, err := unmarshalEnvelope(ciphertext)
	if err != nil {
		return fhevm.Value{}, err
	}
	handle := HandleOf(ciphertext)
	if err := e.authorize(handle, auth); err != nil {
		return fhevm.Value{}, err
	}

	var out uint256.Int
	e.lock.Lock()
	for i, data := range env.Bits {
		ct := new(tfhe.Ciphertext)
		if err := ct.UnmarshalBinary(data); err != nil {
			e.lock.Unlock()
			return fhevm.Value{}, fmt.Errorf("%w: bit %d: %v", ErrInvalidCiphertext, i, err)
		}
		if e.dec.DecryptBit(ct) == 1 {
			out[i/64] |= 1 << (i % 64)
		}
	}
	e.lock.Unlock()

	return fhevm.FromUint256(fhevm.EncryptionType(env.Type), &out)
}

func (e *Engine) authorize(handle ids.ID, auth *fhevm.Authorization) error {
	if auth == nil {
		if e.publicDecryption || e.acl.IsPublic(handle) {
			return nil
		}
		return ErrNotPublic
	}
	if auth.ChainID == nil || auth.ChainID.Cmp(e.chainID) != 0 {
		return fmt.Errorf("%w: got %v, expected %s", ErrWrongChain, auth.ChainID, e.chainID)
	}
	if err := auth.Verify(); err != nil {
		return err
	}
	if e.publicDecryption || e.acl.IsPublic(handle) || e.acl.IsAllowed(handle, auth.Contract, auth.Requester) {
		return nil
	}
	e.log.Debug("decryption denied",
		log.Stringer("handle", handle),
		log.Stringer("contract", auth.Contract),
		log.Stringer("requester", auth.Requester),
	)
	return ErrUnauthorized
}

// PublicKey returns the serialized TFHE public key.
func (e *Engine) PublicKey(context.Context) ([]byte, error) {
	return e.pk.MarshalBinary()
}

// ACL returns the access list consulted on decryption.
func (e *Engine) ACL() *ACL {
	return e.acl
}

// ChainID returns the chain authorizations must target.
func (e *Engine) ChainID() *big.Int {
	return new(big.Int).Set(e.chainID)
}
