// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

package fhevm

import (
	"math/big"

	"github.com/holiman/uint256"
)

// SelectWidth returns the narrowest unsigned width that holds v.
// Negative values and values above 2^256-1 fail with a range error.
func SelectWidth(v *big.Int) (EncryptionType, error) {
	if v == nil {
		return TypeInvalid, rangeError("value is nil")
	}
	if v.Sign() < 0 {
		return TypeInvalid, rangeError("value %s is negative", v)
	}
	u, overflow := uint256.FromBig(v)
	if overflow {
		return TypeInvalid, rangeError("value %s exceeds 2^256-1", v)
	}
	return widthFor(u), nil
}

// SelectWidthUint64 is SelectWidth for native integers.
func SelectWidthUint64(v uint64) EncryptionType {
	return widthFor(uint256.NewInt(v))
}

func widthFor(u *uint256.Int) EncryptionType {
	n := u.BitLen()
	for _, t := range Widths {
		if n <= t.Bits() {
			return t
		}
	}
	return TypeUint256
}
