// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

package fhevm

import (
	"bytes"
	"strings"

	"github.com/luxfi/geth/common"
)

// SanitizeHexString strips a leading 0x or 0X.
func SanitizeHexString(hex string) string {
	hex = strings.TrimSpace(hex)
	if has0xPrefix(hex) {
		return hex[2:]
	}
	return hex
}

// IsEmptyOrZeroes reports whether b is empty or all zero bytes.
func IsEmptyOrZeroes(b []byte) bool {
	return len(b) == 0 || bytes.Equal(b, make([]byte, len(b)))
}

// ParseAddress validates s and converts it to an address.
func ParseAddress(s string) (common.Address, bool) {
	if !IsValidAddress(s) {
		return common.Address{}, false
	}
	return common.HexToAddress(s), true
}
