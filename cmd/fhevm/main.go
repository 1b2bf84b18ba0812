// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/luxfi/fhevm/client"
	"github.com/luxfi/fhevm/config"
	"github.com/luxfi/log"
	"github.com/spf13/cobra"
)

var (
	version   = "v0.0.0-dev"
	buildDate = "unknown"
)

// cli carries the configuration and logger resolved before every command.
type cli struct {
	cfg    config.Config
	logger log.Logger
}

func main() {
	c := &cli{}
	if err := c.rootCmd().Execute(); err != nil {
		color.Red("Error: %v", err)
		os.Exit(1)
	}
}

func (c *cli) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "fhevm",
		Short: "Encrypt, decrypt and transact against FHE-enabled EVM contracts",
		Long: `fhevm drives confidential contracts: it encrypts inputs for a contract,
decrypts results with EIP-712 authorization, submits transactions and serves
the encryption API.

Configuration is read from flags, FHEVM_ environment variables and an
optional JSON config file.`,
		Version:       fmt.Sprintf("%s (built %s)", version, buildDate),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return c.load(cmd)
		},
	}
	config.AddFlags(root.PersistentFlags())

	root.AddCommand(
		c.encryptCmd(),
		c.decryptCmd(),
		c.infoCmd(),
		c.keysCmd(),
		c.reportCmd(),
		c.statsCmd(),
		c.historyCmd(),
		c.serveCmd(),
	)
	return root
}

func (c *cli) load(cmd *cobra.Command) error {
	v, err := config.BuildViper(cmd.Flags())
	if err != nil {
		return err
	}
	c.cfg, err = config.NewConfig(v)
	if err != nil {
		return err
	}

	level, err := log.ToLevel(c.cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("error reading log level from config: %w", err)
	}
	c.logger = log.NewLogger(
		"fhevm",
		log.NewWrappedCore(
			level,
			os.Stderr,
			log.JSON.ConsoleEncoder(),
		),
	)
	return nil
}

// dial opens a session bounded by the configured transaction timeout.
func (c *cli) dial(cmd *cobra.Command) (context.Context, *client.Session, func(), error) {
	ctx, cancel := context.WithTimeout(cmd.Context(), c.cfg.TxTimeout())
	session, err := client.Dial(ctx, c.cfg, c.logger, nil)
	if err != nil {
		cancel()
		return nil, nil, nil, err
	}
	return ctx, session, func() {
		if err := session.Close(); err != nil {
			c.logger.Warn("Failed to close session", log.Err(err))
		}
		cancel()
	}, nil
}
