// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/fatih/color"
	"github.com/luxfi/fhevm"
	"github.com/luxfi/fhevm/config"
	"github.com/luxfi/fhevm/keys"
	"github.com/luxfi/fhevm/pollution"
	"github.com/luxfi/fhevm/utils"
	"github.com/luxfi/geth/common"
	"github.com/spf13/cobra"
)

var (
	errNoContract   = errors.New("contract-address must be set")
	errLocalDecrypt = errors.New("decrypt needs --gateway-url: the local engine keys only live for one command")
)

// checkDecryptEngine refuses to decrypt with the in-process engine, whose
// keys are generated per invocation and cannot open an earlier ciphertext.
func checkDecryptEngine(cfg config.Config) error {
	if cfg.UsesLocalEngine() {
		return errLocalDecrypt
	}
	return nil
}

func (c *cli) encryptCmd() *cobra.Command {
	var typeName string
	cmd := &cobra.Command{
		Use:   "encrypt <value>",
		Short: "Encrypt a plaintext for the configured contract",
		Long: `Encrypt a bool, address or unsigned integer. Without --type integers
are encrypted with the narrowest width that holds them.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := parsePlaintext(args[0], typeName)
			if err != nil {
				return err
			}
			ctx, session, done, err := c.dial(cmd)
			if err != nil {
				return err
			}
			defer done()

			ct, err := session.Encrypt(ctx, v)
			if err != nil {
				return err
			}
			if c.cfg.UsesLocalEngine() {
				fmt.Fprintln(cmd.ErrOrStderr(), color.YellowString(
					"Warning: encrypted with ephemeral local keys; set --gateway-url to produce a ciphertext that can be decrypted later"))
			}
			color.Green("Encrypted %s as %s", v, ct.Type)
			fmt.Println(fhevm.ToHex(ct.Data))
			return nil
		},
	}
	cmd.Flags().StringVar(&typeName, "type", "", "Encryption type (uint8 ... uint256, bool, address)")
	return cmd
}

func (c *cli) decryptCmd() *cobra.Command {
	var public bool
	cmd := &cobra.Command{
		Use:   "decrypt <ciphertext>",
		Short: "Decrypt a hex ciphertext",
		Long: `Decrypt a ciphertext on behalf of the configured account, signing an
EIP-712 authorization for the configured contract. --public skips the
authorization. Requires a gateway holding the keys the ciphertext was
encrypted under.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkDecryptEngine(c.cfg); err != nil {
				return err
			}
			ciphertext, err := fhevm.FromHex(args[0])
			if err != nil {
				return fmt.Errorf("invalid ciphertext: %w", err)
			}
			ctx, session, done, err := c.dial(cmd)
			if err != nil {
				return err
			}
			defer done()

			var plain fhevm.DecryptedValue
			if public {
				plain, err = session.PublicDecrypt(ctx, ciphertext)
			} else {
				if session.DefaultContract() == (common.Address{}) {
					return errNoContract
				}
				plain, err = session.UserDecrypt(ctx, ciphertext, session.DefaultContract(), common.Address{})
			}
			if err != nil {
				return err
			}
			color.Green("Decrypted %s", plain.Value.Type)
			fmt.Println(plain.Value)
			return nil
		},
	}
	cmd.Flags().BoolVar(&public, "public", false, "Decrypt without user authorization")
	return cmd
}

func (c *cli) infoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Show the network, account and engine in use",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, session, done, err := c.dial(cmd)
			if err != nil {
				return err
			}
			defer done()

			chainID, err := session.ChainID()
			if err != nil {
				return err
			}
			account, err := session.Account()
			if err != nil {
				return err
			}
			engine := "local"
			if !c.cfg.UsesLocalEngine() {
				engine = c.cfg.GatewayURL
			}

			header := color.New(color.FgCyan, color.Bold)
			header.Println("Network")
			fmt.Printf("  name:     %s\n", c.cfg.Network)
			fmt.Printf("  rpc:      %s\n", c.cfg.RPCURL)
			fmt.Printf("  chain id: %s\n", chainID)
			fmt.Printf("  engine:   %s\n", engine)
			header.Println("Account")
			fmt.Printf("  address:  %s\n", account)
			if contract := session.DefaultContract(); contract != (common.Address{}) {
				key, err := session.PublicKey(ctx, contract)
				if err != nil {
					return err
				}
				header.Println("Contract")
				fmt.Printf("  address:  %s\n", contract)
				fmt.Printf("  key:      %s\n", keys.Fingerprint(key))
			}
			return nil
		},
	}
}

func (c *cli) keysCmd() *cobra.Command {
	var refresh bool
	cmd := &cobra.Command{
		Use:   "keys [contract]",
		Short: "Fetch the public key of a contract",
		Long: `Fetch the FHE public key of a contract, retrying failed fetches
--retries times. --refresh bypasses the key cache.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, session, done, err := c.dial(cmd)
			if err != nil {
				return err
			}
			defer done()

			contract := session.DefaultContract()
			if len(args) == 1 {
				if !fhevm.IsValidAddress(args[0]) {
					return fmt.Errorf("invalid contract address %q", args[0])
				}
				contract = common.HexToAddress(args[0])
			}
			if contract == (common.Address{}) {
				return errNoContract
			}

			var key []byte
			operation := func() error {
				var err error
				if refresh {
					key, err = session.RefreshKey(ctx, contract)
				} else {
					key, err = session.PublicKey(ctx, contract)
				}
				if errors.Is(err, fhevm.ErrInitialization) {
					return backoff.Permanent(err)
				}
				return err
			}
			if err := utils.WithMaxRetries(ctx, operation, c.cfg.Retries, c.cfg.RetryDelay(), c.logger); err != nil {
				return err
			}
			color.Green("Public key of %s", contract)
			fmt.Printf("  fingerprint: %s\n", keys.Fingerprint(key))
			fmt.Printf("  size:        %d bytes\n", len(key))
			return nil
		},
	}
	cmd.Flags().BoolVar(&refresh, "refresh", false, "Bypass the key cache")
	return cmd
}

func (c *cli) reportCmd() *cobra.Command {
	var threshold uint64
	cmd := &cobra.Command{
		Use:   "report <pollutant> <measurement>",
		Short: "Submit an encrypted pollution measurement",
		Long: `Encrypt a measurement in µg/m³ and submit it to the pollution monitor at
the configured contract address. The severity is graded against --threshold,
or the default threshold of the pollutant when unset.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := pollution.ParsePollutant(args[0])
			if err != nil {
				return err
			}
			measurement, err := strconv.ParseUint(args[1], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid measurement %q: %w", args[1], err)
			}
			if !cmd.Flags().Changed("threshold") {
				threshold = pollution.DefaultThresholds[p]
			}

			ctx, session, done, err := c.dial(cmd)
			if err != nil {
				return err
			}
			defer done()
			monitor, err := c.monitor(session.DefaultContract(), session)
			if err != nil {
				return err
			}

			sub, err := monitor.SubmitReport(ctx, p, measurement, threshold)
			if err != nil {
				return err
			}
			color.Green("Submitted %s report %d in block %d", p, sub.ReportID, sub.Receipt.BlockNumber)
			fmt.Printf("  tx:       %s\n", sub.Receipt.Hash)
			fmt.Printf("  severity: %s\n", sub.Severity)
			if sub.Alert {
				color.Red("  alert triggered")
			}
			return nil
		},
	}
	cmd.Flags().Uint64Var(&threshold, "threshold", 0, "Alert threshold in µg/m³")
	return cmd
}

func (c *cli) statsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show pollution monitor statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, session, done, err := c.dial(cmd)
			if err != nil {
				return err
			}
			defer done()
			monitor, err := c.monitor(session.DefaultContract(), session)
			if err != nil {
				return err
			}

			stats, err := monitor.Statistics(ctx)
			if err != nil {
				return err
			}
			color.New(color.FgCyan, color.Bold).Println("Pollution monitor " + monitor.Address().Hex())
			fmt.Printf("  stations:        %d\n", stats.TotalStations)
			fmt.Printf("  active stations: %d\n", stats.ActiveStations)
			fmt.Printf("  reports:         %d\n", stats.TotalReports)
			return nil
		},
	}
}

func (c *cli) historyCmd() *cobra.Command {
	var from uint64
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List pollution reports and alerts since a block",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, session, done, err := c.dial(cmd)
			if err != nil {
				return err
			}
			defer done()
			monitor, err := c.monitor(session.DefaultContract(), session)
			if err != nil {
				return err
			}

			reports, latest, err := monitor.ReportsSince(ctx, from)
			if err != nil {
				return err
			}
			alerts, _, err := monitor.AlertsSince(ctx, from)
			if err != nil {
				return err
			}
			alerted := make(map[uint64]bool, len(alerts))
			for _, a := range alerts {
				alerted[a.ReportID] = true
			}

			color.New(color.FgCyan, color.Bold).Printf("Reports in blocks %d-%d\n", from, latest)
			for _, r := range reports {
				line := fmt.Sprintf("  #%-6d %-12s %s  %s", r.ID, r.Pollutant, r.Station, r.Timestamp.UTC().Format(time.RFC3339))
				if alerted[r.ID] {
					color.Red("%s  alert", line)
					continue
				}
				fmt.Println(line)
			}
			return nil
		},
	}
	cmd.Flags().Uint64Var(&from, "from-block", 0, "First block to scan")
	return cmd
}

func (*cli) monitor(contract common.Address, backend pollution.Backend) (*pollution.Monitor, error) {
	if contract == (common.Address{}) {
		return nil, errNoContract
	}
	return pollution.NewMonitor(backend, contract)
}

// parsePlaintext reads s as typeName, or infers the type when typeName is
// empty.
func parsePlaintext(s, typeName string) (fhevm.Value, error) {
	if typeName != "" {
		t, err := fhevm.ParseEncryptionType(typeName)
		if err != nil {
			return fhevm.Value{}, err
		}
		return fhevm.ParseValue(t, s)
	}
	switch strings.ToLower(s) {
	case "true":
		return fhevm.Bool(true), nil
	case "false":
		return fhevm.Bool(false), nil
	}
	if fhevm.IsValidAddress(s) {
		return fhevm.Address(common.HexToAddress(s)), nil
	}
	base, digits := 10, s
	if len(s) > 2 && (s[:2] == "0x" || s[:2] == "0X") {
		base, digits = 16, s[2:]
	}
	n, ok := new(big.Int).SetString(digits, base)
	if !ok {
		return fhevm.Value{}, fmt.Errorf("cannot parse %q as a bool, address or integer", s)
	}
	return fhevm.Infer(n)
}
