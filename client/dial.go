// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

package client

import (
	"context"
	"math/big"

	"github.com/luxfi/database/memdb"
	"github.com/luxfi/fhevm"
	"github.com/luxfi/fhevm/api"
	"github.com/luxfi/fhevm/config"
	"github.com/luxfi/fhevm/crypto/fhe"
	"github.com/luxfi/fhevm/signer"
	"github.com/luxfi/geth/common"
	"github.com/luxfi/geth/ethclient"
	"github.com/luxfi/log"
	"github.com/prometheus/client_golang/prometheus"
)

// Dial connects to the configured network and creates a session. Without a
// gateway URL ciphertexts are produced by an in-process engine whose keys
// live only as long as the process.
func Dial(ctx context.Context, cfg config.Config, logger log.Logger, registerer prometheus.Registerer) (*Session, error) {
	if logger == nil {
		logger = log.NewNoOpLogger()
	}

	var (
		s   signer.Signer
		err error
	)
	if cfg.PrivateKey != "" {
		s, err = signer.NewLocalSignerFromHex(cfg.PrivateKey)
	} else {
		logger.Warn("No private key configured, using an ephemeral account")
		s, err = signer.GenerateLocalSigner()
	}
	if err != nil {
		return nil, fhevm.InitializationError(err, "failed to create signer")
	}

	var contract common.Address
	if cfg.ContractAddress != "" {
		contract = common.HexToAddress(cfg.ContractAddress)
	}

	chain, err := ethclient.DialContext(ctx, cfg.RPCURL)
	if err != nil {
		return nil, fhevm.InitializationError(fhevm.NetworkError(err, "failed to dial %s", cfg.RPCURL), "failed to connect")
	}

	opts := Options{
		Chain:        chain,
		Signer:       s,
		Contract:     contract,
		ChainID:      new(big.Int).SetUint64(cfg.ChainID),
		KeyTTL:       cfg.KeyCacheTTL(),
		PollInterval: cfg.PollInterval(),
		Retries:      cfg.Retries,
		RetryDelay:   cfg.RetryDelay(),
		Journal:      memdb.New(),
		Registerer:   registerer,
		Logger:       logger,
	}
	if cfg.UsesLocalEngine() {
		engine, err := fhe.New(
			fhe.WithChainID(opts.ChainID),
			fhe.WithPublicDecryption(cfg.PublicDecryption),
			fhe.WithLogger(logger),
		)
		if err != nil {
			chain.Close()
			return nil, fhevm.InitializationError(err, "failed to create local FHE engine")
		}
		opts.Engine = engine
	} else {
		remote := api.NewRemoteEngine(cfg.GatewayURL, contract, nil)
		opts.Engine = remote
		opts.KeyFetcher = remote.KeyFetcher()
	}

	session, err := New(ctx, opts)
	if err != nil {
		chain.Close()
		return nil, err
	}
	return session, nil
}
