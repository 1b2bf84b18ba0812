// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

package fhevm

import (
	"fmt"
	"strings"
)

// Code classifies an Error by the stage that produced it.
type Code int32

const (
	CodeUnknown Code = iota
	CodeEncryption
	CodeDecryption
	CodeTransaction
	CodeInitialization
	CodeNetwork
	CodeRange
)

func (c Code) String() string {
	switch c {
	case CodeEncryption:
		return "encryption"
	case CodeDecryption:
		return "decryption"
	case CodeTransaction:
		return "transaction"
	case CodeInitialization:
		return "initialization"
	case CodeNetwork:
		return "network"
	case CodeRange:
		return "range"
	default:
		return "unknown"
	}
}

// Sentinels for errors.Is. Any *Error with the same Code matches.
var (
	ErrEncryption     = &Error{Code: CodeEncryption}
	ErrDecryption     = &Error{Code: CodeDecryption}
	ErrTransaction    = &Error{Code: CodeTransaction}
	ErrInitialization = &Error{Code: CodeInitialization}
	ErrNetwork        = &Error{Code: CodeNetwork}
	ErrRange          = &Error{Code: CodeRange}
)

// Error is the error type returned by every SDK operation.
type Error struct {
	Code    Code
	Message string
	// Field names the offending entry of a batch encryption.
	Field string
	// Index is the position of the offending ciphertext in a batch
	// decryption, or -1.
	Index int
	Err   error
}

// NewError builds an *Error of the given code wrapping cause, which may be nil.
func NewError(code Code, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Index:   -1,
		Err:     cause,
	}
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Code.String())
	b.WriteString(" error")
	if e.Field != "" {
		fmt.Fprintf(&b, " (field %q)", e.Field)
	}
	if e.Index >= 0 && e.Code == CodeDecryption {
		fmt.Fprintf(&b, " (index %d)", e.Index)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is an *Error of the same Code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

func encryptionError(cause error, format string, args ...any) *Error {
	return NewError(CodeEncryption, cause, format, args...)
}

func decryptionError(cause error, format string, args ...any) *Error {
	return NewError(CodeDecryption, cause, format, args...)
}

func rangeError(format string, args ...any) *Error {
	return NewError(CodeRange, nil, format, args...)
}

// InitializationError is returned by components used before setup completed
// or after they were closed.
func InitializationError(cause error, format string, args ...any) *Error {
	return NewError(CodeInitialization, cause, format, args...)
}

// NetworkError wraps failures reaching a remote service.
func NetworkError(cause error, format string, args ...any) *Error {
	return NewError(CodeNetwork, cause, format, args...)
}

// TransactionError wraps failures submitting or confirming a transaction.
func TransactionError(cause error, format string, args ...any) *Error {
	return NewError(CodeTransaction, cause, format, args...)
}
