// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

package fhevm

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/luxfi/geth/common/hexutil"
	"github.com/luxfi/geth/rlp"
)

const CodecVersion = 0

var errEmptyCiphertext = errors.New("empty ciphertext")

// CodecImpl serializes SDK envelopes with RLP.
type CodecImpl struct{}

// Codec is the default codec instance
var Codec = &CodecImpl{}

// Marshal serializes the value
func (c *CodecImpl) Marshal(v interface{}) ([]byte, error) {
	return rlp.EncodeToBytes(v)
}

// Unmarshal deserializes the bytes
func (c *CodecImpl) Unmarshal(b []byte, v interface{}) (uint16, error) {
	err := rlp.DecodeBytes(b, v)
	return CodecVersion, err
}

// EncryptedValue is an engine ciphertext tagged with its declared type.
type EncryptedValue struct {
	Type EncryptionType
	Data []byte
}

// Bytes returns the RLP envelope of e.
func (e EncryptedValue) Bytes() ([]byte, error) {
	return Codec.Marshal(&e)
}

// ParseEncryptedValue decodes an envelope produced by Bytes.
func ParseEncryptedValue(b []byte) (EncryptedValue, error) {
	var e EncryptedValue
	if _, err := Codec.Unmarshal(b, &e); err != nil {
		return EncryptedValue{}, fmt.Errorf("failed to decode encrypted value: %w", err)
	}
	if !e.Type.Valid() {
		return EncryptedValue{}, fmt.Errorf("invalid encryption type %d", uint8(e.Type))
	}
	if len(e.Data) == 0 {
		return EncryptedValue{}, errEmptyCiphertext
	}
	return e, nil
}

type encryptedValueJSON struct {
	Type EncryptionType `json:"type"`
	Data string         `json:"data"`
}

func (e EncryptedValue) MarshalJSON() ([]byte, error) {
	return json.Marshal(encryptedValueJSON{Type: e.Type, Data: ToHex(e.Data)})
}

func (e *EncryptedValue) UnmarshalJSON(b []byte) error {
	var raw encryptedValueJSON
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	data, err := FromHex(raw.Data)
	if err != nil {
		return err
	}
	e.Type = raw.Type
	e.Data = data
	return nil
}

// ToHex renders b as 0x-prefixed lowercase hex.
func ToHex(b []byte) string {
	return hexutil.Encode(b)
}

// FromHex decodes hex with or without the 0x prefix.
func FromHex(s string) ([]byte, error) {
	b, err := hexutil.Decode("0x" + SanitizeHexString(s))
	if err != nil {
		return nil, fmt.Errorf("invalid hex %q: %w", s, err)
	}
	return b, nil
}
