// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

package txn

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/luxfi/database/memdb"
	"github.com/luxfi/fhevm"
	"github.com/luxfi/fhevm/cache"
	"github.com/luxfi/fhevm/signer"
	"github.com/luxfi/fhevm/utils"
	"github.com/luxfi/geth/common"
	"github.com/luxfi/geth/core/types"
	"github.com/luxfi/log"

	ethereum "github.com/luxfi/geth"
)

const (
	DefaultPollInterval     = time.Second
	DefaultReceiptCacheSize = 256

	// Gas estimates are padded by this percentage.
	gasMarginPercent = 20
	baseFeeFactor    = 2
)

// ChainClient is the subset of ethclient.Client the orchestrator needs.
type ChainClient interface {
	ethereum.ContractCaller
	LogReader

	ChainID(ctx context.Context) (*big.Int, error)
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	SuggestGasTipCap(ctx context.Context) (*big.Int, error)
	HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error)
	EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error)
	SendTransaction(ctx context.Context, tx *types.Transaction) error
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
}

// Receipt is the outcome of a mined transaction.
type Receipt struct {
	Hash        common.Hash
	State       State
	BlockNumber uint64
	GasUsed     uint64
	Logs        []*types.Log
	Raw         *types.Receipt
}

func newReceipt(r *types.Receipt) *Receipt {
	state := StateConfirmed
	if r.Status != types.ReceiptStatusSuccessful {
		state = StateFailed
	}
	var block uint64
	if r.BlockNumber != nil {
		block = r.BlockNumber.Uint64()
	}
	return &Receipt{
		Hash:        r.TxHash,
		State:       state,
		BlockNumber: block,
		GasUsed:     r.GasUsed,
		Logs:        r.Logs,
		Raw:         r,
	}
}

type Option func(*Orchestrator)

func WithPollInterval(d time.Duration) Option {
	return func(o *Orchestrator) {
		o.pollInterval = d
	}
}

func WithJournal(j *Journal) Option {
	return func(o *Orchestrator) {
		o.journal = j
	}
}

func WithMetrics(m *Metrics) Option {
	return func(o *Orchestrator) {
		o.metrics = m
	}
}

func WithLogger(l log.Logger) Option {
	return func(o *Orchestrator) {
		o.log = l
	}
}

func WithReceiptCacheSize(n int) Option {
	return func(o *Orchestrator) {
		o.receipts = cache.NewFIFOCache[common.Hash, *types.Receipt](n)
	}
}

// Orchestrator signs and submits contract calls and tracks them until a
// terminal state.
type Orchestrator struct {
	client  ChainClient
	signer  signer.Signer
	chainID *big.Int

	pollInterval time.Duration
	journal      *Journal
	metrics      *Metrics
	receipts     *cache.FIFOCache[common.Hash, *types.Receipt]
	log          log.Logger

	// Held from nonce assignment until the transaction is broadcast so that
	// transactions leave in nonce order.
	nonceLock sync.Mutex
	nonce     uint64
}

func New(client ChainClient, s signer.Signer, chainID *big.Int, opts ...Option) (*Orchestrator, error) {
	if client == nil {
		return nil, fhevm.InitializationError(nil, "missing chain client")
	}
	if s == nil {
		return nil, fhevm.InitializationError(nil, "missing signer")
	}
	if chainID == nil || chainID.Sign() <= 0 {
		return nil, fhevm.InitializationError(nil, "invalid chain id %v", chainID)
	}
	o := &Orchestrator{
		client:       client,
		signer:       s,
		chainID:      new(big.Int).Set(chainID),
		pollInterval: DefaultPollInterval,
		log:          log.NewNoOpLogger(),
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.journal == nil {
		o.journal = NewJournal(memdb.New())
	}
	if o.receipts == nil {
		o.receipts = cache.NewFIFOCache[common.Hash, *types.Receipt](DefaultReceiptCacheSize)
	}
	return o, nil
}

func (o *Orchestrator) ChainID() *big.Int {
	return new(big.Int).Set(o.chainID)
}

func (o *Orchestrator) From() common.Address {
	return o.signer.Address()
}

func (o *Orchestrator) Journal() *Journal {
	return o.journal
}

// Pending is a broadcast transaction whose outcome is not yet known.
type Pending struct {
	o        *Orchestrator
	hash     common.Hash
	nonce    uint64
	contract common.Address
	method   string
}

func (p *Pending) Hash() common.Hash {
	return p.hash
}

func (p *Pending) Nonce() uint64 {
	return p.nonce
}

// Send packs method with args, signs and broadcasts it to b.Address. It
// returns once the node accepted the transaction.
func (o *Orchestrator) Send(ctx context.Context, b *Binding, method string, args ...any) (*Pending, error) {
	data, err := b.Pack(method, args...)
	if err != nil {
		o.metrics.incFailed(method, "pack")
		return nil, fhevm.TransactionError(err, "failed to pack %s", method)
	}

	from := o.signer.Address()
	gas, err := o.client.EstimateGas(ctx, ethereum.CallMsg{
		From: from,
		To:   &b.Address,
		Data: data,
	})
	if err != nil {
		o.log.Error("Failed to estimate gas",
			log.String("method", method),
			log.Err(err),
		)
		o.metrics.incFailed(method, "estimate_gas")
		return nil, fhevm.TransactionError(err, "failed to estimate gas for %s", method)
	}
	gas += gas * gasMarginPercent / 100

	gasTipCap, err := o.client.SuggestGasTipCap(ctx)
	if err != nil {
		o.metrics.incFailed(method, "gas_tip")
		return nil, fhevm.TransactionError(err, "failed to get gas tip cap")
	}
	head, err := o.client.HeaderByNumber(ctx, nil)
	if err != nil {
		o.metrics.incFailed(method, "header")
		return nil, fhevm.TransactionError(err, "failed to get latest header")
	}
	gasFeeCap := new(big.Int).Set(gasTipCap)
	if head.BaseFee != nil {
		maxBaseFee := new(big.Int).Mul(head.BaseFee, big.NewInt(baseFeeFactor))
		gasFeeCap.Add(gasFeeCap, maxBaseFee)
	}

	o.nonceLock.Lock()
	defer o.nonceLock.Unlock()

	pendingNonce, err := o.client.PendingNonceAt(ctx, from)
	if err != nil {
		o.metrics.incFailed(method, "nonce")
		return nil, fhevm.TransactionError(err, "failed to get pending nonce")
	}
	nonce := max(pendingNonce, o.nonce)

	tx := types.NewTx(&types.DynamicFeeTx{
		ChainID:   o.chainID,
		Nonce:     nonce,
		To:        &b.Address,
		Value:     big.NewInt(0),
		Gas:       gas,
		GasFeeCap: gasFeeCap,
		GasTipCap: gasTipCap,
		Data:      data,
	})
	signedTx, err := o.signer.SignTx(tx, o.chainID)
	if err != nil {
		o.metrics.incFailed(method, "sign")
		return nil, fhevm.TransactionError(err, "failed to sign %s", method)
	}

	record := &Record{
		Hash:        signedTx.Hash(),
		Contract:    b.Address,
		Method:      method,
		State:       StateSubmitted,
		SubmittedAt: uint64(time.Now().Unix()),
	}
	if err := o.journal.Put(record); err != nil {
		return nil, fhevm.TransactionError(err, "failed to journal %s", record.Hash)
	}

	o.log.Info("Sending transaction",
		log.Stringer("txID", signedTx.Hash()),
		log.String("method", method),
		log.Uint64("nonce", nonce),
	)
	if err := o.client.SendTransaction(ctx, signedTx); err != nil {
		o.log.Error("Failed to send transaction",
			log.Stringer("txID", signedTx.Hash()),
			log.Err(err),
		)
		o.metrics.incFailed(method, "send")
		// The node never saw it, so a resubmission reuses the same hash.
		if err := o.journal.Delete(record.Hash); err != nil {
			o.log.Warn("Failed to drop unsent transaction",
				log.Stringer("txID", record.Hash),
				log.Err(err),
			)
		}
		return nil, fhevm.TransactionError(err, "failed to send %s", method)
	}
	o.nonce = nonce + 1
	o.metrics.incSubmitted(method)

	record.State = StatePending
	if err := o.journal.Put(record); err != nil {
		o.log.Warn("Failed to journal pending transaction",
			log.Stringer("txID", record.Hash),
			log.Err(err),
		)
	}

	return &Pending{
		o:        o,
		hash:     signedTx.Hash(),
		nonce:    nonce,
		contract: b.Address,
		method:   method,
	}, nil
}

// Wait polls for the receipt of p until it is mined or ctx is done. A
// reverted transaction or an RPC failure is returned as a TransactionError.
// Only a revert marks the journal record failed; after an RPC failure or
// an expired ctx the record stays pending and Wait may be called again.
func (p *Pending) Wait(ctx context.Context) (*Receipt, error) {
	o := p.o
	record := &Record{
		Hash:     p.hash,
		Contract: p.contract,
		Method:   p.method,
	}
	if existing, err := o.journal.Get(p.hash); err == nil {
		record = existing
	}

	var raw *types.Receipt
	err := utils.Poll(ctx, o.pollInterval, func() error {
		r, err := o.client.TransactionReceipt(ctx, p.hash)
		switch {
		case errors.Is(err, ethereum.NotFound):
			return err
		case err != nil:
			return backoff.Permanent(err)
		case r == nil:
			return ethereum.NotFound
		}
		raw = r
		return nil
	})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fhevm.TransactionError(ctxErr, "stopped waiting for %s", p.hash)
		}
		// The transaction may still be mined; only a revert is terminal.
		o.log.Warn("Failed to get transaction receipt",
			log.Stringer("txID", p.hash),
			log.Err(err),
		)
		o.metrics.incFailed(p.method, "receipt")
		return nil, fhevm.TransactionError(err, "failed to get receipt for %s", p.hash)
	}

	o.receipts.Put(p.hash, raw)
	receipt := newReceipt(raw)
	if receipt.State == StateFailed {
		o.log.Warn("Transaction reverted",
			log.Stringer("txID", p.hash),
			log.Uint64("blockNumber", receipt.BlockNumber),
		)
		o.metrics.incFailed(p.method, "reverted")
		o.finish(record, StateFailed, receipt.BlockNumber, "execution reverted")
		return receipt, fhevm.TransactionError(nil, "transaction %s reverted in block %d", p.hash, receipt.BlockNumber)
	}

	o.log.Info("Transaction confirmed",
		log.Stringer("txID", p.hash),
		log.Uint64("blockNumber", receipt.BlockNumber),
		log.Uint64("gasUsed", receipt.GasUsed),
	)
	o.metrics.incConfirmed(p.method)
	o.finish(record, StateConfirmed, receipt.BlockNumber, "")
	return receipt, nil
}

// SendAndWait is Send followed by Wait.
func (o *Orchestrator) SendAndWait(ctx context.Context, b *Binding, method string, args ...any) (*Receipt, error) {
	p, err := o.Send(ctx, b, method, args...)
	if err != nil {
		return nil, err
	}
	return p.Wait(ctx)
}

// Receipt looks up the receipt of an already mined transaction.
func (o *Orchestrator) Receipt(ctx context.Context, hash common.Hash) (*Receipt, error) {
	raw, err := o.receipts.Get(hash, func(h common.Hash) (*types.Receipt, error) {
		r, err := o.client.TransactionReceipt(ctx, h)
		if err == nil && r == nil {
			err = ethereum.NotFound
		}
		return r, err
	})
	if err != nil {
		return nil, fhevm.TransactionError(err, "no receipt for %s", hash)
	}
	return newReceipt(raw), nil
}

// Status returns the journal record of hash.
func (o *Orchestrator) Status(hash common.Hash) (*Record, error) {
	return o.journal.Get(hash)
}

// Call runs a read-only call from the signer's address.
func (o *Orchestrator) Call(ctx context.Context, b *Binding, method string, args ...any) ([]any, error) {
	out, err := b.Call(ctx, o.client, o.signer.Address(), method, args...)
	if err != nil {
		return nil, fhevm.NetworkError(err, "call to %s failed", method)
	}
	return out, nil
}

func (o *Orchestrator) finish(r *Record, state State, block uint64, reason string) {
	r.State = state
	r.BlockNumber = block
	r.Reason = reason
	if err := o.journal.Put(r); err != nil {
		o.log.Warn("Failed to journal transaction outcome",
			log.Stringer("txID", r.Hash),
			log.Stringer("state", state),
			log.Err(err),
		)
	}
}
