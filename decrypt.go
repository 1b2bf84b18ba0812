// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

package fhevm

import (
	"context"
	"errors"
	"math/big"
	"time"

	"github.com/luxfi/geth/common"
	"github.com/luxfi/log"
)

var (
	errPartialAuthorization = errors.New("contract and requester must be given together")
	errMissingAuthorization = errors.New("missing authorization")
)

// DecryptedValue is a plaintext recovered by the gateway.
type DecryptedValue struct {
	Value      Value     `json:"value"`
	Timestamp  time.Time `json:"timestamp"`
	Authorized bool      `json:"authorized"`
}

// Decryptor asks the engine to decrypt ciphertexts, signing an EIP-712
// authorization for user decryption.
type Decryptor struct {
	engine  Engine
	signer  AuthorizationSigner
	chainID *big.Int
	log     log.Logger
	now     func() time.Time
}

// NewDecryptor returns a gateway for chainID. signer may be nil, in which
// case only public decryption is available.
func NewDecryptor(engine Engine, signer AuthorizationSigner, chainID *big.Int, logger log.Logger) *Decryptor {
	if logger == nil {
		logger = log.NewNoOpLogger()
	}
	if chainID == nil {
		chainID = new(big.Int)
	}
	return &Decryptor{
		engine:  engine,
		signer:  signer,
		chainID: new(big.Int).Set(chainID),
		log:     logger,
		now:     time.Now,
	}
}

// PublicDecrypt decrypts a ciphertext that was marked publicly decryptable.
func (d *Decryptor) PublicDecrypt(ctx context.Context, ciphertext []byte) (DecryptedValue, error) {
	if len(ciphertext) == 0 {
		return DecryptedValue{}, decryptionError(errEmptyCiphertext, "public decryption failed")
	}
	v, err := d.engine.Decrypt(ctx, ciphertext, nil)
	if err != nil {
		return DecryptedValue{}, decryptionError(err, "public decryption failed")
	}
	return DecryptedValue{Value: v, Timestamp: d.now()}, nil
}

// Authorize produces the signed authorization for requester to decrypt
// ciphertexts of contract.
func (d *Decryptor) Authorize(contract, requester common.Address) (*Authorization, error) {
	if d.signer == nil {
		return nil, decryptionError(nil, "no signer configured for user decryption")
	}
	auth := &Authorization{
		ChainID:   d.chainID,
		Contract:  contract,
		Requester: requester,
	}
	if err := auth.Sign(d.signer); err != nil {
		return nil, decryptionError(err, "failed to sign decryption authorization")
	}
	return auth, nil
}

// UserDecrypt signs an authorization binding contract and requester, then
// asks the engine to decrypt under it. When signing fails the engine is
// never called.
func (d *Decryptor) UserDecrypt(
	ctx context.Context,
	ciphertext []byte,
	contract common.Address,
	requester common.Address,
) (DecryptedValue, error) {
	auth, err := d.Authorize(contract, requester)
	if err != nil {
		return DecryptedValue{}, err
	}
	return d.DecryptWith(ctx, ciphertext, auth)
}

// DecryptWith decrypts under an authorization produced elsewhere, such as
// one received over the API. Use PublicDecrypt for unauthorized access.
func (d *Decryptor) DecryptWith(ctx context.Context, ciphertext []byte, auth *Authorization) (DecryptedValue, error) {
	if auth == nil {
		return DecryptedValue{}, decryptionError(errMissingAuthorization, "user decryption failed")
	}
	if len(ciphertext) == 0 {
		return DecryptedValue{}, decryptionError(errEmptyCiphertext, "user decryption failed")
	}
	v, err := d.engine.Decrypt(ctx, ciphertext, auth)
	if err != nil {
		d.log.Debug("user decryption failed",
			log.Stringer("contract", auth.Contract),
			log.Stringer("requester", auth.Requester),
			log.Err(err),
		)
		return DecryptedValue{}, decryptionError(err, "user decryption failed")
	}
	return DecryptedValue{Value: v, Timestamp: d.now(), Authorized: true}, nil
}

// DecryptBatch decrypts ciphertexts in order, aborting on the first failure
// with an error carrying its index. With contract and requester both nil
// every element is decrypted publicly; giving only one of them is an error.
func (d *Decryptor) DecryptBatch(
	ctx context.Context,
	ciphertexts [][]byte,
	contract *common.Address,
	requester *common.Address,
) ([]DecryptedValue, error) {
	if (contract == nil) != (requester == nil) {
		return nil, decryptionError(errPartialAuthorization, "invalid batch decryption request")
	}
	results := make([]DecryptedValue, 0, len(ciphertexts))
	for i, ct := range ciphertexts {
		var (
			v   DecryptedValue
			err error
		)
		if contract == nil {
			v, err = d.PublicDecrypt(ctx, ct)
		} else {
			v, err = d.UserDecrypt(ctx, ct, *contract, *requester)
		}
		if err != nil {
			return nil, indexed(err, i)
		}
		results = append(results, v)
	}
	return results, nil
}

// CanDecrypt reports whether requester may decrypt ciphertext for contract.
func (d *Decryptor) CanDecrypt(
	ctx context.Context,
	ciphertext []byte,
	contract common.Address,
	requester common.Address,
) bool {
	_, err := d.UserDecrypt(ctx, ciphertext, contract, requester)
	return err == nil
}

func indexed(err error, i int) error {
	var e *Error
	if errors.As(err, &e) {
		c := *e
		c.Index = i
		return &c
	}
	out := decryptionError(err, "batch decryption failed")
	out.Index = i
	return out
}
