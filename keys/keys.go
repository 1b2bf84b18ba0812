// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

package keys

import (
	"context"
	"encoding/hex"
	"errors"
	"time"

	"github.com/luxfi/fhevm"
	"github.com/luxfi/fhevm/cache"
	"github.com/luxfi/geth/common"
	"github.com/luxfi/log"
	"github.com/zeebo/blake3"
)

// DefaultTTL is how long a fetched public key is served from cache.
const DefaultTTL = 15 * time.Minute

// Record is a public key as published for one contract.
type Record struct {
	Contract common.Address
	Key      []byte
	// Timestamp is when the key endpoint produced the key.
	Timestamp time.Time
}

// Fingerprint identifies the key in logs.
func (r *Record) Fingerprint() string {
	return Fingerprint(r.Key)
}

// Fetcher retrieves the current public key of a contract.
type Fetcher interface {
	FetchPublicKey(ctx context.Context, contract common.Address) (*Record, error)
}

// FetcherFunc adapts a function to Fetcher.
type FetcherFunc func(ctx context.Context, contract common.Address) (*Record, error)

func (f FetcherFunc) FetchPublicKey(ctx context.Context, contract common.Address) (*Record, error) {
	return f(ctx, contract)
}

type Option func(*options)

type options struct {
	ttl     time.Duration
	now     func() time.Time
	logger  log.Logger
	metrics *Metrics
}

func WithTTL(ttl time.Duration) Option {
	return func(o *options) { o.ttl = ttl }
}

func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

func WithLogger(logger log.Logger) Option {
	return func(o *options) { o.logger = logger }
}

func WithMetrics(m *Metrics) Option {
	return func(o *options) { o.metrics = m }
}

// Manager caches public keys per contract address.
type Manager struct {
	cache   *cache.TTLCache[common.Address, *Record]
	fetcher Fetcher
	log     log.Logger
	metrics *Metrics
}

func NewManager(fetcher Fetcher, opts ...Option) *Manager {
	o := options{
		ttl:    DefaultTTL,
		now:    time.Now,
		logger: log.NewNoOpLogger(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	return &Manager{
		cache:   cache.NewTTLCacheWithClock[common.Address, *Record](o.ttl, o.now),
		fetcher: fetcher,
		log:     o.logger,
		metrics: o.metrics,
	}
}

// GetPublicKey returns the public key of contract, from cache while the
// entry is younger than the TTL.
func (m *Manager) GetPublicKey(ctx context.Context, contract common.Address) ([]byte, error) {
	r, err := m.Get(ctx, contract)
	if err != nil {
		return nil, err
	}
	return r.Key, nil
}

// Get is GetPublicKey returning the full record.
func (m *Manager) Get(ctx context.Context, contract common.Address) (*Record, error) {
	if r, ok := m.cache.Peek(contract); ok {
		m.metrics.hit()
		return r, nil
	}
	m.metrics.miss()
	return m.cache.Get(contract, m.fetchFunc(ctx), false)
}

// RefreshKey discards the cached key of contract and fetches a new one.
func (m *Manager) RefreshKey(ctx context.Context, contract common.Address) ([]byte, error) {
	m.metrics.miss()
	r, err := m.cache.Get(contract, m.fetchFunc(ctx), true)
	if err != nil {
		return nil, err
	}
	m.log.Info("refreshed public key",
		log.Stringer("contract", contract),
		log.String("fingerprint", r.Fingerprint()),
	)
	return r.Key, nil
}

// Clear drops the cached key of contract.
func (m *Manager) Clear(contract common.Address) {
	m.cache.Delete(contract)
}

// ClearAll drops every cached key.
func (m *Manager) ClearAll() {
	m.cache.Clear()
}

func (m *Manager) fetchFunc(ctx context.Context) func(common.Address) (*Record, error) {
	return func(contract common.Address) (*Record, error) {
		r, err := m.fetcher.FetchPublicKey(ctx, contract)
		if err == nil && (r == nil || len(r.Key) == 0) {
			err = errEmptyKey
		}
		if err != nil {
			m.metrics.fetchError()
			m.log.Warn("failed to fetch public key",
				log.Stringer("contract", contract),
				log.Err(err),
			)
			var sdkErr *fhevm.Error
			if errors.As(err, &sdkErr) && sdkErr.Code == fhevm.CodeNetwork {
				return nil, err
			}
			return nil, fhevm.NetworkError(err, "failed to fetch public key for %s", contract)
		}
		m.log.Debug("fetched public key",
			log.Stringer("contract", contract),
			log.String("fingerprint", r.Fingerprint()),
		)
		return r, nil
	}
}

// Fingerprint is the hex of the first 8 bytes of the blake3 digest of key.
func Fingerprint(key []byte) string {
	sum := blake3.Sum256(key)
	return hex.EncodeToString(sum[:8])
}
