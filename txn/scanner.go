// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

package txn

import (
	"context"
	"math/big"
	"time"

	"github.com/luxfi/fhevm"
	"github.com/luxfi/fhevm/utils"
	"github.com/luxfi/geth/common"
	"github.com/luxfi/geth/core/types"
	"github.com/luxfi/log"

	ethereum "github.com/luxfi/geth"
)

const (
	// MaxBlocksPerRequest bounds the range of a single eth_getLogs request.
	MaxBlocksPerRequest = 200

	defaultScanRetries    = 3
	defaultScanRetryDelay = time.Second
)

// LogReader is the part of a chain client needed to read historical logs.
type LogReader interface {
	BlockNumber(ctx context.Context) (uint64, error)
	FilterLogs(ctx context.Context, q ethereum.FilterQuery) ([]types.Log, error)
}

type ScannerOption func(*Scanner)

// WithBlocksPerRequest overrides MaxBlocksPerRequest.
func WithBlocksPerRequest(n uint64) ScannerOption {
	return func(s *Scanner) {
		if n > 0 {
			s.blocksPerRequest = n
		}
	}
}

// WithScanRetries sets the attempts and base delay of each request.
func WithScanRetries(attempts uint64, delay time.Duration) ScannerOption {
	return func(s *Scanner) {
		s.retries = attempts
		s.retryDelay = delay
	}
}

func WithScanLogger(l log.Logger) ScannerOption {
	return func(s *Scanner) {
		s.log = l
	}
}

// Scanner reads the logs of a contract from a starting height up to the
// latest block.
type Scanner struct {
	client           LogReader
	blocksPerRequest uint64
	retries          uint64
	retryDelay       time.Duration
	log              log.Logger
}

func NewScanner(client LogReader, opts ...ScannerOption) *Scanner {
	s := &Scanner{
		client:           client,
		blocksPerRequest: MaxBlocksPerRequest,
		retries:          defaultScanRetries,
		retryDelay:       defaultScanRetryDelay,
		log:              log.NewNoOpLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Scan returns the logs of address matching topics in [from, latest] and
// the latest block scanned. Passing latest+1 to the next call resumes
// without gaps or duplicates. from beyond the chain head returns no logs.
func (s *Scanner) Scan(ctx context.Context, address common.Address, topics [][]common.Hash, from uint64) ([]*types.Log, uint64, error) {
	// Grab the head first so that ranges never reach past what we report.
	var latest uint64
	err := utils.WithMaxRetries(ctx, func() error {
		var err error
		latest, err = s.client.BlockNumber(ctx)
		return err
	}, s.retries, s.retryDelay, s.log)
	if err != nil {
		return nil, 0, fhevm.NetworkError(err, "failed to get latest block")
	}

	var out []*types.Log
	for start := from; start <= latest; start += s.blocksPerRequest {
		end := start + s.blocksPerRequest - 1
		if end > latest || end < start {
			end = latest
		}
		logs, err := s.filter(ctx, address, topics, start, end)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, logs...)
		if end == latest {
			break
		}
	}
	return out, latest, nil
}

func (s *Scanner) filter(ctx context.Context, address common.Address, topics [][]common.Hash, from, to uint64) ([]*types.Log, error) {
	var logs []types.Log
	operation := func() error {
		var err error
		logs, err = s.client.FilterLogs(ctx, ethereum.FilterQuery{
			Addresses: []common.Address{address},
			Topics:    topics,
			FromBlock: new(big.Int).SetUint64(from),
			ToBlock:   new(big.Int).SetUint64(to),
		})
		return err
	}
	if err := utils.WithMaxRetries(ctx, operation, s.retries, s.retryDelay, s.log); err != nil {
		s.log.Error("Failed to get logs by block range",
			log.Uint64("fromBlock", from),
			log.Uint64("toBlock", to),
			log.Err(err),
		)
		return nil, fhevm.NetworkError(err, "failed to get logs for blocks %d-%d", from, to)
	}
	out := make([]*types.Log, len(logs))
	for i := range logs {
		out[i] = &logs[i]
	}
	return out, nil
}

// Events scans the logs of event on b from height from and decodes them.
func (s *Scanner) Events(ctx context.Context, b *Binding, event string, from uint64) ([]map[string]any, uint64, error) {
	ev, ok := b.ABI.Events[event]
	if !ok {
		return nil, 0, fhevm.NetworkError(nil, "event %q not found in ABI", event)
	}
	logs, latest, err := s.Scan(ctx, b.Address, [][]common.Hash{{ev.ID}}, from)
	if err != nil {
		return nil, 0, err
	}
	decoded, err := b.FindEvents(event, logs)
	if err != nil {
		return nil, 0, err
	}
	return decoded, latest, nil
}
