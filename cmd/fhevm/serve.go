// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/luxfi/fhevm/api"
	"github.com/luxfi/fhevm/crypto/fhe"
	"github.com/luxfi/fhevm/keys"
	"github.com/luxfi/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const (
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 10 * time.Second
)

func (c *cli) serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the key, encryption and decryption API",
		Long: `Serve the HTTP API backed by an in-process FHE engine:

  GET  /keys?contract=0x...   public key of a contract
  POST /keys                  generate, refresh or revoke keys
  POST /encrypt               encrypt a plaintext
  POST /decrypt               decrypt with an EIP-712 authorization
  GET  /health, /metrics`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return c.serve(ctx)
		},
	}
}

func (c *cli) serve(ctx context.Context) error {
	chainID := new(big.Int).SetUint64(c.cfg.ChainID)
	engine, err := fhe.New(
		fhe.WithChainID(chainID),
		fhe.WithPublicDecryption(c.cfg.PublicDecryption),
		fhe.WithLogger(c.logger),
	)
	if err != nil {
		return fmt.Errorf("failed to create FHE engine: %w", err)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	keyManager := keys.NewManager(
		api.EngineFetcher(engine, time.Now),
		keys.WithTTL(c.cfg.KeyCacheTTL()),
		keys.WithLogger(c.logger),
		keys.WithMetrics(keys.NewMetrics(registry)),
	)
	server := api.NewServer(engine, chainID,
		api.WithLogger(c.logger),
		api.WithRegistry(registry),
		api.WithKeyManager(keyManager),
	)

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", c.cfg.APIPort),
		Handler:           server.Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errGroup, ctx := errgroup.WithContext(ctx)
	errGroup.Go(func() error {
		c.logger.Info("Starting API server", log.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	errGroup.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		c.logger.Info("Shutting down API server")
		return httpServer.Shutdown(shutdownCtx)
	})

	color.Green("Serving on %s (chain %s)", httpServer.Addr, chainID)
	return errGroup.Wait()
}
