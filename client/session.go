// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

package client

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"time"

	"github.com/luxfi/crypto"
	"github.com/luxfi/database"
	"github.com/luxfi/fhevm"
	"github.com/luxfi/fhevm/api"
	"github.com/luxfi/fhevm/cache"
	"github.com/luxfi/fhevm/keys"
	"github.com/luxfi/fhevm/signer"
	"github.com/luxfi/fhevm/txn"
	"github.com/luxfi/geth/common"
	"github.com/luxfi/log"
	"github.com/prometheus/client_golang/prometheus"
)

const defaultBindingCacheSize = 64

var errClosed = errors.New("session closed")

// Options are the collaborators of a Session. Chain, Engine and Signer are
// required.
type Options struct {
	Chain  txn.ChainClient
	Engine fhevm.Engine
	Signer signer.Signer

	// KeyFetcher defaults to publishing Engine's key.
	KeyFetcher keys.Fetcher
	// Contract, when set, has its public key fetched during New.
	Contract common.Address
	// ChainID, when set, must match the chain client's.
	ChainID *big.Int

	KeyTTL           time.Duration
	PollInterval     time.Duration
	BindingCacheSize int
	// Retries and RetryDelay bound each log query.
	Retries          uint64
	RetryDelay       time.Duration
	Journal          database.Database
	Registerer       prometheus.Registerer
	Logger           log.Logger
}

// Session ties the encryption, decryption, key and transaction components
// to one chain and one account.
type Session struct {
	lock   sync.RWMutex
	closed bool

	chain    txn.ChainClient
	chainID  *big.Int
	contract common.Address
	signer   signer.Signer
	log      log.Logger

	encryptor *fhevm.Encryptor
	decryptor *fhevm.Decryptor
	keys      *keys.Manager
	orch      *txn.Orchestrator
	scanner   *txn.Scanner
	bindings  *cache.LRUCache[common.Hash, *txn.Binding]
}

// New initializes a session. Any failure is an InitializationError.
func New(ctx context.Context, opts Options) (*Session, error) {
	if opts.Chain == nil || opts.Engine == nil || opts.Signer == nil {
		return nil, fhevm.InitializationError(nil, "chain client, engine and signer are required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.NewNoOpLogger()
	}

	chainID, err := opts.Chain.ChainID(ctx)
	if err != nil {
		return nil, fhevm.InitializationError(err, "failed to get chain id")
	}
	if opts.ChainID != nil && opts.ChainID.Sign() > 0 && opts.ChainID.Cmp(chainID) != 0 {
		return nil, fhevm.InitializationError(nil, "chain id mismatch: configured %s, node reports %s", opts.ChainID, chainID)
	}

	keyOpts := []keys.Option{keys.WithLogger(logger)}
	if opts.KeyTTL > 0 {
		keyOpts = append(keyOpts, keys.WithTTL(opts.KeyTTL))
	}
	txnOpts := []txn.Option{txn.WithLogger(logger)}
	if opts.PollInterval > 0 {
		txnOpts = append(txnOpts, txn.WithPollInterval(opts.PollInterval))
	}
	if opts.Journal != nil {
		txnOpts = append(txnOpts, txn.WithJournal(txn.NewJournal(opts.Journal)))
	}
	if opts.Registerer != nil {
		keyOpts = append(keyOpts, keys.WithMetrics(keys.NewMetrics(opts.Registerer)))
		txnOpts = append(txnOpts, txn.WithMetrics(txn.NewMetrics(opts.Registerer)))
	}

	fetcher := opts.KeyFetcher
	if fetcher == nil {
		fetcher = api.EngineFetcher(opts.Engine, time.Now)
	}
	keyManager := keys.NewManager(fetcher, keyOpts...)

	orch, err := txn.New(opts.Chain, opts.Signer, chainID, txnOpts...)
	if err != nil {
		return nil, fhevm.InitializationError(err, "failed to create transaction orchestrator")
	}

	if opts.Contract != (common.Address{}) {
		record, err := keyManager.Get(ctx, opts.Contract)
		if err != nil {
			return nil, fhevm.InitializationError(err, "failed to fetch public key for %s", opts.Contract)
		}
		logger.Info("Fetched contract public key",
			log.Stringer("contract", opts.Contract),
			log.String("fingerprint", record.Fingerprint()),
		)
	}

	scanOpts := []txn.ScannerOption{txn.WithScanLogger(logger)}
	if opts.Retries > 0 {
		scanOpts = append(scanOpts, txn.WithScanRetries(opts.Retries, opts.RetryDelay))
	}

	cacheSize := opts.BindingCacheSize
	if cacheSize <= 0 {
		cacheSize = defaultBindingCacheSize
	}

	logger.Info("Initialized session",
		log.Stringer("chainID", chainID),
		log.Stringer("account", opts.Signer.Address()),
	)
	return &Session{
		chain:     opts.Chain,
		chainID:   chainID,
		contract:  opts.Contract,
		signer:    opts.Signer,
		log:       logger,
		encryptor: fhevm.NewEncryptor(opts.Engine, logger),
		decryptor: fhevm.NewDecryptor(opts.Engine, opts.Signer, chainID, logger),
		keys:      keyManager,
		orch:      orch,
		scanner:   txn.NewScanner(opts.Chain, scanOpts...),
		bindings:  cache.NewLRUCache[common.Hash, *txn.Binding](cacheSize),
	}, nil
}

func (s *Session) ready() error {
	s.lock.RLock()
	defer s.lock.RUnlock()
	if s.closed {
		return fhevm.InitializationError(errClosed, "session is not initialized")
	}
	return nil
}

// Close releases the chain client and the transaction journal. Calling it
// again is a no-op.
func (s *Session) Close() error {
	s.lock.Lock()
	defer s.lock.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	s.keys.ClearAll()
	s.bindings.Purge()
	if c, ok := s.chain.(interface{ Close() }); ok {
		c.Close()
	}
	s.log.Info("Closed session")
	return s.orch.Journal().Close()
}

func (s *Session) ChainID() (*big.Int, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	return new(big.Int).Set(s.chainID), nil
}

// Account is the address that signs transactions and decryption requests.
func (s *Session) Account() (common.Address, error) {
	if err := s.ready(); err != nil {
		return common.Address{}, err
	}
	return s.signer.Address(), nil
}

// DefaultContract is the contract whose key was fetched during New.
func (s *Session) DefaultContract() common.Address {
	return s.contract
}

func (s *Session) Encrypt(ctx context.Context, v fhevm.Value) (fhevm.EncryptedValue, error) {
	if err := s.ready(); err != nil {
		return fhevm.EncryptedValue{}, err
	}
	return s.encryptor.Encrypt(ctx, v)
}

func (s *Session) EncryptAs(ctx context.Context, raw any, t fhevm.EncryptionType) (fhevm.EncryptedValue, error) {
	if err := s.ready(); err != nil {
		return fhevm.EncryptedValue{}, err
	}
	return s.encryptor.EncryptAs(ctx, raw, t)
}

func (s *Session) EncryptAuto(ctx context.Context, n *big.Int) (fhevm.EncryptedValue, error) {
	if err := s.ready(); err != nil {
		return fhevm.EncryptedValue{}, err
	}
	return s.encryptor.EncryptAuto(ctx, n)
}

func (s *Session) EncryptBatch(ctx context.Context, fields map[string]any) (fhevm.BatchResult, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	return s.encryptor.EncryptBatch(ctx, fields)
}

func (s *Session) PublicDecrypt(ctx context.Context, ciphertext []byte) (fhevm.DecryptedValue, error) {
	if err := s.ready(); err != nil {
		return fhevm.DecryptedValue{}, err
	}
	return s.decryptor.PublicDecrypt(ctx, ciphertext)
}

// UserDecrypt decrypts on behalf of requester, which defaults to the session
// account when zero.
func (s *Session) UserDecrypt(ctx context.Context, ciphertext []byte, contract, requester common.Address) (fhevm.DecryptedValue, error) {
	if err := s.ready(); err != nil {
		return fhevm.DecryptedValue{}, err
	}
	if requester == (common.Address{}) {
		requester = s.signer.Address()
	}
	return s.decryptor.UserDecrypt(ctx, ciphertext, contract, requester)
}

func (s *Session) DecryptBatch(
	ctx context.Context,
	ciphertexts [][]byte,
	contract, requester *common.Address,
) ([]fhevm.DecryptedValue, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	return s.decryptor.DecryptBatch(ctx, ciphertexts, contract, requester)
}

func (s *Session) CanDecrypt(ctx context.Context, ciphertext []byte, contract, requester common.Address) (bool, error) {
	if err := s.ready(); err != nil {
		return false, err
	}
	return s.decryptor.CanDecrypt(ctx, ciphertext, contract, requester), nil
}

func (s *Session) PublicKey(ctx context.Context, contract common.Address) ([]byte, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	return s.keys.GetPublicKey(ctx, contract)
}

func (s *Session) RefreshKey(ctx context.Context, contract common.Address) ([]byte, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	return s.keys.RefreshKey(ctx, contract)
}

// ClearKeys drops the cached key of contract, or every key when contract is
// nil.
func (s *Session) ClearKeys(contract *common.Address) error {
	if err := s.ready(); err != nil {
		return err
	}
	if contract == nil {
		s.keys.ClearAll()
	} else {
		s.keys.Clear(*contract)
	}
	return nil
}

// Contract returns the binding for address and abiJSON, parsing the ABI at
// most once while it stays cached.
func (s *Session) Contract(address common.Address, abiJSON string) (*txn.Binding, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	key := common.Hash(crypto.Keccak256Hash(address.Bytes(), []byte(abiJSON)))
	return s.bindings.Get(key, func(common.Hash) (*txn.Binding, error) {
		return txn.NewBinding(address, abiJSON)
	}, false)
}

func (s *Session) Send(ctx context.Context, b *txn.Binding, method string, args ...any) (*txn.Pending, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	return s.orch.Send(ctx, b, method, args...)
}

func (s *Session) SendAndWait(ctx context.Context, b *txn.Binding, method string, args ...any) (*txn.Receipt, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	return s.orch.SendAndWait(ctx, b, method, args...)
}

func (s *Session) Call(ctx context.Context, b *txn.Binding, method string, args ...any) ([]any, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	return s.orch.Call(ctx, b, method, args...)
}

func (s *Session) Receipt(ctx context.Context, hash common.Hash) (*txn.Receipt, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	return s.orch.Receipt(ctx, hash)
}

func (s *Session) TxStatus(hash common.Hash) (*txn.Record, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	return s.orch.Status(hash)
}

// Events decodes every event of b emitted from block from onwards. It also
// returns the latest block scanned.
func (s *Session) Events(ctx context.Context, b *txn.Binding, event string, from uint64) ([]map[string]any, uint64, error) {
	if err := s.ready(); err != nil {
		return nil, 0, err
	}
	return s.scanner.Events(ctx, b, event, from)
}
