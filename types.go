// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

package fhevm

import (
	"fmt"
	"strings"

	"github.com/holiman/uint256"
	"github.com/luxfi/math/set"
)

// EncryptionType is the declared plaintext type of a ciphertext.
type EncryptionType uint8

const (
	TypeInvalid EncryptionType = iota
	TypeUint8
	TypeUint16
	TypeUint32
	TypeUint64
	TypeUint128
	TypeUint256
	TypeBool
	TypeAddress
)

var typeNames = map[EncryptionType]string{
	TypeUint8:   "uint8",
	TypeUint16:  "uint16",
	TypeUint32:  "uint32",
	TypeUint64:  "uint64",
	TypeUint128: "uint128",
	TypeUint256: "uint256",
	TypeBool:    "bool",
	TypeAddress: "address",
}

// Widths lists the unsigned integer types from narrowest to widest.
var Widths = []EncryptionType{
	TypeUint8,
	TypeUint16,
	TypeUint32,
	TypeUint64,
	TypeUint128,
	TypeUint256,
}

// SupportedTypes returns every type the dispatcher accepts.
func SupportedTypes() set.Set[EncryptionType] {
	s := set.NewSet[EncryptionType](len(typeNames))
	s.Add(Widths...)
	s.Add(TypeBool, TypeAddress)
	return s
}

// ParseEncryptionType parses the lowercase type name used on the wire.
func ParseEncryptionType(s string) (EncryptionType, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for t, n := range typeNames {
		if n == name {
			return t, nil
		}
	}
	return TypeInvalid, fmt.Errorf("unsupported encryption type %q", s)
}

func (t EncryptionType) String() string {
	if n, ok := typeNames[t]; ok {
		return n
	}
	return fmt.Sprintf("EncryptionType(%d)", uint8(t))
}

// Valid reports whether t is one of the supported types.
func (t EncryptionType) Valid() bool {
	_, ok := typeNames[t]
	return ok
}

// IsUnsigned reports whether t is an unsigned integer width.
func (t EncryptionType) IsUnsigned() bool {
	return t >= TypeUint8 && t <= TypeUint256
}

// Bits is the plaintext size in bits.
func (t EncryptionType) Bits() int {
	switch t {
	case TypeUint8:
		return 8
	case TypeUint16:
		return 16
	case TypeUint32:
		return 32
	case TypeUint64:
		return 64
	case TypeUint128:
		return 128
	case TypeUint256:
		return 256
	case TypeBool:
		return 1
	case TypeAddress:
		return 160
	default:
		return 0
	}
}

// Max is the largest plaintext representable by t.
func (t EncryptionType) Max() *uint256.Int {
	bits := t.Bits()
	if bits == 0 {
		return new(uint256.Int)
	}
	if bits == 256 {
		return new(uint256.Int).SetAllOne()
	}
	one := uint256.NewInt(1)
	return new(uint256.Int).Sub(new(uint256.Int).Lsh(one, uint(bits)), one)
}

func (t EncryptionType) MarshalText() ([]byte, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("invalid encryption type %d", uint8(t))
	}
	return []byte(t.String()), nil
}

func (t *EncryptionType) UnmarshalText(text []byte) error {
	parsed, err := ParseEncryptionType(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}
