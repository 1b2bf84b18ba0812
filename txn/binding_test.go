// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

package txn

import (
	"math/big"
	"testing"

	"github.com/luxfi/geth/common"
	"github.com/luxfi/geth/core/types"
	"github.com/stretchr/testify/require"
)

func storedLog(t *testing.T, b *Binding, who common.Address, value int64) *types.Log {
	t.Helper()
	event := b.ABI.Events["Stored"]
	data, err := event.Inputs.NonIndexed().Pack(big.NewInt(value))
	require.NoError(t, err)
	return &types.Log{
		Address: b.Address,
		Topics:  []common.Hash{event.ID, common.BytesToHash(who.Bytes())},
		Data:    data,
	}
}

func TestNewBindingRejectsBadABI(t *testing.T) {
	_, err := NewBinding(storageAddress, `{"not":"an abi"`)
	require.Error(t, err)
}

func TestPackUnpack(t *testing.T) {
	require := require.New(t)
	b, err := NewBinding(storageAddress, storageABI)
	require.NoError(err)

	data, err := b.Pack("store", big.NewInt(5))
	require.NoError(err)
	require.Len(data, 4+32)
	require.Equal(b.ABI.Methods["store"].ID, data[:4])

	_, err = b.Pack("nope")
	require.ErrorContains(err, "not found")

	out, err := b.ABI.Methods["get"].Outputs.Pack(big.NewInt(11))
	require.NoError(err)
	values, err := b.Unpack("get", out)
	require.NoError(err)
	require.Equal([]any{big.NewInt(11)}, values)
}

func TestParseEvent(t *testing.T) {
	require := require.New(t)
	b, err := NewBinding(storageAddress, storageABI)
	require.NoError(err)
	who := common.HexToAddress("0x1234567890123456789012345678901234567890")

	ev, err := b.ParseEvent("Stored", storedLog(t, b, who, 42))
	require.NoError(err)
	require.Equal(who, ev["who"])
	require.Equal(big.NewInt(42), ev["value"])

	_, err = b.ParseEvent("Stored", &types.Log{Topics: []common.Hash{{0x01}}})
	require.ErrorIs(err, ErrEventMismatch)

	_, err = b.ParseEvent("Missing", storedLog(t, b, who, 1))
	require.ErrorContains(err, "not found")
}

func TestFindEvents(t *testing.T) {
	require := require.New(t)
	b, err := NewBinding(storageAddress, storageABI)
	require.NoError(err)
	who := common.HexToAddress("0x01")

	foreign := storedLog(t, b, who, 1)
	foreign.Address = common.HexToAddress("0xbb")
	unrelated := &types.Log{Address: storageAddress, Topics: []common.Hash{{0x02}}}

	found, err := b.FindEvents("Stored", []*types.Log{
		storedLog(t, b, who, 3),
		foreign,
		unrelated,
		storedLog(t, b, who, 4),
	})
	require.NoError(err)
	require.Len(found, 2)
	require.Equal(big.NewInt(3), found[0]["value"])
	require.Equal(big.NewInt(4), found[1]["value"])
}
