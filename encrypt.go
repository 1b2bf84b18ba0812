// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

package fhevm

import (
	"context"
	"errors"
	"math/big"
	"sort"

	"github.com/luxfi/geth/common"
	"github.com/luxfi/log"
)

// BatchResult maps each batch field to its ciphertext.
type BatchResult map[string]EncryptedValue

// Encryptor routes plaintexts to the engine entry point of their width.
type Encryptor struct {
	engine Engine
	log    log.Logger
}

func NewEncryptor(engine Engine, logger log.Logger) *Encryptor {
	if logger == nil {
		logger = log.NewNoOpLogger()
	}
	return &Encryptor{
		engine: engine,
		log:    logger,
	}
}

// Encrypt encrypts v with the entry point matching v.Type.
func (e *Encryptor) Encrypt(ctx context.Context, v Value) (EncryptedValue, error) {
	var (
		data []byte
		err  error
	)
	switch v.Type {
	case TypeUint8:
		data, err = e.engine.Encrypt8(ctx, uint8(v.Uint64()))
	case TypeUint16:
		data, err = e.engine.Encrypt16(ctx, uint16(v.Uint64()))
	case TypeUint32:
		data, err = e.engine.Encrypt32(ctx, uint32(v.Uint64()))
	case TypeUint64:
		data, err = e.engine.Encrypt64(ctx, v.Uint64())
	case TypeUint128:
		data, err = e.engine.Encrypt128(ctx, v.Uint256())
	case TypeUint256:
		data, err = e.engine.Encrypt256(ctx, v.Uint256())
	case TypeBool:
		data, err = e.engine.EncryptBool(ctx, v.Bool())
	case TypeAddress:
		data, err = e.engine.EncryptAddress(ctx, v.Address())
	default:
		return EncryptedValue{}, encryptionError(nil, "unsupported encryption type %s", v.Type)
	}
	if err != nil {
		return EncryptedValue{}, encryptionError(err, "failed to encrypt %s", v.Type)
	}
	if len(data) == 0 {
		return EncryptedValue{}, encryptionError(errEmptyCiphertext, "engine returned no ciphertext for %s", v.Type)
	}
	e.log.Debug("encrypted value",
		log.Stringer("type", v.Type),
		log.Int("size", len(data)),
	)
	return EncryptedValue{Type: v.Type, Data: data}, nil
}

// EncryptAs validates raw against the declared type t, then encrypts it.
func (e *Encryptor) EncryptAs(ctx context.Context, raw any, t EncryptionType) (EncryptedValue, error) {
	v, err := Validate(raw, t)
	if err != nil {
		return EncryptedValue{}, err
	}
	return e.Encrypt(ctx, v)
}

// EncryptAuto encrypts n at the narrowest width that holds it.
func (e *Encryptor) EncryptAuto(ctx context.Context, n *big.Int) (EncryptedValue, error) {
	t, err := SelectWidth(n)
	if err != nil {
		return EncryptedValue{}, err
	}
	v, err := UintAs(t, n)
	if err != nil {
		return EncryptedValue{}, err
	}
	return e.Encrypt(ctx, v)
}

func (e *Encryptor) Encrypt8(ctx context.Context, v uint8) (EncryptedValue, error) {
	return e.Encrypt(ctx, Uint8(v))
}

func (e *Encryptor) Encrypt16(ctx context.Context, v uint16) (EncryptedValue, error) {
	return e.Encrypt(ctx, Uint16(v))
}

func (e *Encryptor) Encrypt32(ctx context.Context, v uint32) (EncryptedValue, error) {
	return e.Encrypt(ctx, Uint32(v))
}

func (e *Encryptor) Encrypt64(ctx context.Context, v uint64) (EncryptedValue, error) {
	return e.Encrypt(ctx, Uint64(v))
}

func (e *Encryptor) Encrypt128(ctx context.Context, v *big.Int) (EncryptedValue, error) {
	return e.EncryptAs(ctx, v, TypeUint128)
}

func (e *Encryptor) Encrypt256(ctx context.Context, v *big.Int) (EncryptedValue, error) {
	return e.EncryptAs(ctx, v, TypeUint256)
}

func (e *Encryptor) EncryptBool(ctx context.Context, v bool) (EncryptedValue, error) {
	return e.Encrypt(ctx, Bool(v))
}

func (e *Encryptor) EncryptAddress(ctx context.Context, a common.Address) (EncryptedValue, error) {
	return e.Encrypt(ctx, Address(a))
}

// EncryptBatch infers the type of every field, validates all of them, and
// only then encrypts in key order. It returns either every ciphertext or an
// encryption error naming the first failing field.
func (e *Encryptor) EncryptBatch(ctx context.Context, fields map[string]any) (BatchResult, error) {
	values := make(map[string]Value, len(fields))
	for _, name := range sortedKeys(fields) {
		v, err := Infer(fields[name])
		if err != nil {
			return nil, batchError(name, err)
		}
		values[name] = v
	}
	return e.EncryptValues(ctx, values)
}

// EncryptValues is EncryptBatch for already typed values.
func (e *Encryptor) EncryptValues(ctx context.Context, values map[string]Value) (BatchResult, error) {
	result := make(BatchResult, len(values))
	for _, name := range sortedKeys(values) {
		if err := ctx.Err(); err != nil {
			return nil, batchError(name, err)
		}
		ct, err := e.Encrypt(ctx, values[name])
		if err != nil {
			return nil, batchError(name, err)
		}
		result[name] = ct
	}
	e.log.Debug("encrypted batch", log.Int("fields", len(result)))
	return result, nil
}

func batchError(field string, cause error) *Error {
	var inner *Error
	if errors.As(cause, &inner) && inner.Code == CodeEncryption {
		return &Error{
			Code:    CodeEncryption,
			Message: inner.Message,
			Field:   field,
			Index:   -1,
			Err:     inner.Err,
		}
	}
	err := encryptionError(cause, "batch field failed")
	err.Field = field
	return err
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
