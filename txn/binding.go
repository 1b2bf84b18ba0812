// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

package txn

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/luxfi/geth/accounts/abi"
	"github.com/luxfi/geth/common"
	"github.com/luxfi/geth/core/types"

	ethereum "github.com/luxfi/geth"
)

var ErrEventMismatch = errors.New("log does not match event")

// Binding is a deployed contract together with its ABI.
type Binding struct {
	Address common.Address
	ABI     abi.ABI
}

// NewBinding parses a JSON ABI for the contract at address.
func NewBinding(address common.Address, abiJSON string) (*Binding, error) {
	parsed, err := abi.JSON(strings.NewReader(abiJSON))
	if err != nil {
		return nil, fmt.Errorf("failed to parse contract ABI: %w", err)
	}
	return &Binding{Address: address, ABI: parsed}, nil
}

// Pack encodes a call to method.
func (b *Binding) Pack(method string, args ...any) ([]byte, error) {
	if _, ok := b.ABI.Methods[method]; !ok {
		return nil, fmt.Errorf("method %q not found in ABI", method)
	}
	return b.ABI.Pack(method, args...)
}

// Call runs a read-only call of method at the latest block and unpacks the
// outputs.
func (b *Binding) Call(
	ctx context.Context,
	caller ethereum.ContractCaller,
	from common.Address,
	method string,
	args ...any,
) ([]any, error) {
	data, err := b.Pack(method, args...)
	if err != nil {
		return nil, err
	}
	out, err := caller.CallContract(ctx, ethereum.CallMsg{
		From: from,
		To:   &b.Address,
		Data: data,
	}, nil)
	if err != nil {
		return nil, err
	}
	return b.ABI.Unpack(method, out)
}

// ParseEvent decodes l as event name, indexed and non-indexed fields alike.
func (b *Binding) ParseEvent(name string, l *types.Log) (map[string]any, error) {
	event, ok := b.ABI.Events[name]
	if !ok {
		return nil, fmt.Errorf("event %q not found in ABI", name)
	}
	if len(l.Topics) == 0 || l.Topics[0] != event.ID {
		return nil, fmt.Errorf("%w %s", ErrEventMismatch, name)
	}
	out := make(map[string]any)
	if len(l.Data) > 0 {
		if err := b.ABI.UnpackIntoMap(out, name, l.Data); err != nil {
			return nil, fmt.Errorf("failed to unpack %s data: %w", name, err)
		}
	}
	var indexed abi.Arguments
	for _, input := range event.Inputs {
		if input.Indexed {
			indexed = append(indexed, input)
		}
	}
	if err := abi.ParseTopicsIntoMap(out, indexed, l.Topics[1:]); err != nil {
		return nil, fmt.Errorf("failed to parse %s topics: %w", name, err)
	}
	return out, nil
}

// FindEvents decodes the logs emitted by this contract that match event name.
func (b *Binding) FindEvents(name string, logs []*types.Log) ([]map[string]any, error) {
	var found []map[string]any
	for _, l := range logs {
		if l.Address != b.Address {
			continue
		}
		ev, err := b.ParseEvent(name, l)
		if errors.Is(err, ErrEventMismatch) {
			continue
		}
		if err != nil {
			return nil, err
		}
		found = append(found, ev)
	}
	return found, nil
}

// Unpack decodes the return data of method.
func (b *Binding) Unpack(method string, data []byte) ([]any, error) {
	return b.ABI.Unpack(method, data)
}
