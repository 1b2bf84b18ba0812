// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

package txn

import (
	"context"
	"math/big"
	"slices"
	"sort"
	"sync"

	"github.com/luxfi/geth/common"
	"github.com/luxfi/geth/core/types"

	ethereum "github.com/luxfi/geth"
)

var _ ChainClient = (*FakeChain)(nil)

// FakeChain is an in-memory ChainClient. Sent transactions are mined
// immediately with MineStatus unless Manual is set.
type FakeChain struct {
	Chain      *big.Int
	BaseFee    *big.Int
	Tip        *big.Int
	Gas        uint64
	MineStatus uint64
	Manual     bool

	// CallHandler answers CallContract. Nil returns empty output.
	CallHandler func(msg ethereum.CallMsg) ([]byte, error)

	SendErr     error
	EstimateErr error
	ReceiptErr  error

	lock            sync.Mutex
	block           uint64
	sent            []*types.Transaction
	receipts        map[common.Hash]*types.Receipt
	logs            map[common.Address][]*types.Log
	receiptRequests int
	filterRequests  int
}

func NewFakeChain(chainID int64) *FakeChain {
	return &FakeChain{
		Chain:      big.NewInt(chainID),
		BaseFee:    big.NewInt(1_000_000_000),
		Tip:        big.NewInt(2_000_000_000),
		Gas:        100_000,
		MineStatus: types.ReceiptStatusSuccessful,
		receipts:   make(map[common.Hash]*types.Receipt),
		logs:       make(map[common.Address][]*types.Log),
	}
}

func (f *FakeChain) ChainID(context.Context) (*big.Int, error) {
	return new(big.Int).Set(f.Chain), nil
}

// PendingNonceAt always reports zero so callers must track nonces locally.
func (f *FakeChain) PendingNonceAt(context.Context, common.Address) (uint64, error) {
	return 0, nil
}

func (f *FakeChain) SuggestGasTipCap(context.Context) (*big.Int, error) {
	return new(big.Int).Set(f.Tip), nil
}

func (f *FakeChain) HeaderByNumber(context.Context, *big.Int) (*types.Header, error) {
	f.lock.Lock()
	defer f.lock.Unlock()
	return &types.Header{
		Number:  new(big.Int).SetUint64(f.block),
		BaseFee: f.BaseFee,
	}, nil
}

func (f *FakeChain) EstimateGas(context.Context, ethereum.CallMsg) (uint64, error) {
	if f.EstimateErr != nil {
		return 0, f.EstimateErr
	}
	return f.Gas, nil
}

func (f *FakeChain) SendTransaction(_ context.Context, tx *types.Transaction) error {
	if f.SendErr != nil {
		return f.SendErr
	}
	f.lock.Lock()
	defer f.lock.Unlock()

	f.sent = append(f.sent, tx)
	if !f.Manual {
		f.mine(tx.Hash(), f.MineStatus)
	}
	return nil
}

func (f *FakeChain) TransactionReceipt(_ context.Context, hash common.Hash) (*types.Receipt, error) {
	f.lock.Lock()
	defer f.lock.Unlock()

	f.receiptRequests++
	if f.ReceiptErr != nil {
		return nil, f.ReceiptErr
	}
	r, ok := f.receipts[hash]
	if !ok {
		return nil, ethereum.NotFound
	}
	return r, nil
}

func (f *FakeChain) CallContract(_ context.Context, msg ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	if f.CallHandler == nil {
		return nil, nil
	}
	return f.CallHandler(msg)
}

func (f *FakeChain) BlockNumber(context.Context) (uint64, error) {
	f.lock.Lock()
	defer f.lock.Unlock()
	return f.block, nil
}

// FilterLogs matches the logs of mined receipts by address, block range and
// first topic.
func (f *FakeChain) FilterLogs(_ context.Context, q ethereum.FilterQuery) ([]types.Log, error) {
	f.lock.Lock()
	defer f.lock.Unlock()

	f.filterRequests++
	var out []types.Log
	for _, tx := range f.sent {
		r, ok := f.receipts[tx.Hash()]
		if !ok {
			continue
		}
		for _, l := range r.Logs {
			if matchesFilter(q, l) {
				out = append(out, *l)
			}
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].BlockNumber < out[j].BlockNumber
	})
	return out, nil
}

func matchesFilter(q ethereum.FilterQuery, l *types.Log) bool {
	if q.FromBlock != nil && l.BlockNumber < q.FromBlock.Uint64() {
		return false
	}
	if q.ToBlock != nil && l.BlockNumber > q.ToBlock.Uint64() {
		return false
	}
	if len(q.Addresses) > 0 && !slices.Contains(q.Addresses, l.Address) {
		return false
	}
	if len(q.Topics) > 0 && len(q.Topics[0]) > 0 {
		if len(l.Topics) == 0 || !slices.Contains(q.Topics[0], l.Topics[0]) {
			return false
		}
	}
	return true
}

// Mine includes hash in a new block with the given status.
func (f *FakeChain) Mine(hash common.Hash, status uint64) {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.mine(hash, status)
}

// EmitOnNext attaches l to the receipt of the next mined transaction sent
// to address.
func (f *FakeChain) EmitOnNext(address common.Address, l *types.Log) {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.logs[address] = append(f.logs[address], l)
}

func (f *FakeChain) mine(hash common.Hash, status uint64) {
	f.block++
	r := &types.Receipt{
		Status:      status,
		TxHash:      hash,
		BlockNumber: new(big.Int).SetUint64(f.block),
		GasUsed:     f.Gas,
	}
	for _, tx := range f.sent {
		if tx.Hash() != hash || tx.To() == nil {
			continue
		}
		for _, l := range f.logs[*tx.To()] {
			l.Address = *tx.To()
			l.TxHash = hash
			l.BlockNumber = f.block
			r.Logs = append(r.Logs, l)
		}
		delete(f.logs, *tx.To())
	}
	f.receipts[hash] = r
}

func (f *FakeChain) Sent() []*types.Transaction {
	f.lock.Lock()
	defer f.lock.Unlock()
	return append([]*types.Transaction(nil), f.sent...)
}

func (f *FakeChain) FilterRequests() int {
	f.lock.Lock()
	defer f.lock.Unlock()
	return f.filterRequests
}

func (f *FakeChain) ReceiptRequests() int {
	f.lock.Lock()
	defer f.lock.Unlock()
	return f.receiptRequests
}
