// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

package config

import (
	"errors"
	"fmt"
	"net/url"
	"sort"
	"time"

	"github.com/luxfi/crypto"
	"github.com/luxfi/fhevm"
	"github.com/luxfi/log"
)

const (
	defaultLogLevel           = "info"
	defaultNetwork            = "localhost"
	defaultKeyCacheTTLSeconds = 15 * 60
	defaultPollIntervalMS     = 1000
	defaultTxTimeoutSeconds   = 120
	defaultRetries            = 3
	defaultRetryDelayMS       = 1000
	defaultAPIPort            = 8080
)

var (
	errUnknownNetwork  = errors.New("unknown network")
	errMissingRPCURL   = errors.New("rpc-url must be set")
	errInvalidContract = errors.New("contract-address is not a valid address")
	errInvalidKey      = errors.New("private-key is not a valid secp256k1 key")
)

// Network is a named preset for an FHE-enabled chain.
type Network struct {
	Name       string
	ChainID    uint64
	RPCURL     string
	GatewayURL string
}

// Networks are the presets selectable with --network. An empty GatewayURL
// selects the in-process engine.
var Networks = map[string]Network{
	"sepolia": {
		Name:       "sepolia",
		ChainID:    11155111,
		RPCURL:     "https://rpc.sepolia.org",
		GatewayURL: "https://gateway.zama.ai",
	},
	"localhost": {
		Name:    "localhost",
		ChainID: 31337,
		RPCURL:  "http://127.0.0.1:8545",
	},
	"mainnet": {
		Name:    "mainnet",
		ChainID: 1,
		RPCURL:  "https://eth.llamarpc.com",
	},
}

func NetworkNames() []string {
	names := make([]string, 0, len(Networks))
	for name := range Networks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

type Config struct {
	LogLevel           string `mapstructure:"log-level" json:"log-level"`
	Network            string `mapstructure:"network" json:"network"`
	RPCURL             string `mapstructure:"rpc-url" json:"rpc-url"`
	GatewayURL         string `mapstructure:"gateway-url" json:"gateway-url"`
	ChainID            uint64 `mapstructure:"chain-id" json:"chain-id"`
	ContractAddress    string `mapstructure:"contract-address" json:"contract-address"`
	PrivateKey         string `mapstructure:"private-key" json:"private-key"`
	KeyCacheTTLSeconds uint64 `mapstructure:"key-cache-ttl-seconds" json:"key-cache-ttl-seconds"`
	PollIntervalMS     uint64 `mapstructure:"poll-interval-ms" json:"poll-interval-ms"`
	TxTimeoutSeconds   uint64 `mapstructure:"tx-timeout-seconds" json:"tx-timeout-seconds"`
	Retries            uint64 `mapstructure:"retries" json:"retries"`
	RetryDelayMS       uint64 `mapstructure:"retry-delay-ms" json:"retry-delay-ms"`
	APIPort            uint16 `mapstructure:"api-port" json:"api-port"`
	PublicDecryption   bool   `mapstructure:"public-decryption" json:"public-decryption"`
}

// applyNetwork fills the endpoint settings left unset from the selected
// preset.
func (c *Config) applyNetwork() error {
	n, ok := Networks[c.Network]
	if !ok {
		return fmt.Errorf("%w %q, expected one of %v", errUnknownNetwork, c.Network, NetworkNames())
	}
	if c.RPCURL == "" {
		c.RPCURL = n.RPCURL
	}
	if c.GatewayURL == "" {
		c.GatewayURL = n.GatewayURL
	}
	if c.ChainID == 0 {
		c.ChainID = n.ChainID
	}
	return nil
}

// Validate checks the configuration. Network presets must already be
// applied.
func (c *Config) Validate() error {
	if _, err := log.ToLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid log level %q: %w", c.LogLevel, err)
	}
	if _, ok := Networks[c.Network]; !ok {
		return fmt.Errorf("%w %q", errUnknownNetwork, c.Network)
	}
	if c.RPCURL == "" {
		return errMissingRPCURL
	}
	if _, err := url.ParseRequestURI(c.RPCURL); err != nil {
		return fmt.Errorf("invalid rpc-url: %w", err)
	}
	if c.GatewayURL != "" {
		if _, err := url.ParseRequestURI(c.GatewayURL); err != nil {
			return fmt.Errorf("invalid gateway-url: %w", err)
		}
	}
	if c.ContractAddress != "" && !fhevm.IsValidAddress(c.ContractAddress) {
		return fmt.Errorf("%w: %q", errInvalidContract, c.ContractAddress)
	}
	if c.PrivateKey != "" {
		if _, err := crypto.HexToECDSA(fhevm.SanitizeHexString(c.PrivateKey)); err != nil {
			return fmt.Errorf("%w: %v", errInvalidKey, err)
		}
	}
	if c.KeyCacheTTLSeconds == 0 {
		return errors.New("key-cache-ttl-seconds must be positive")
	}
	if c.PollIntervalMS == 0 {
		return errors.New("poll-interval-ms must be positive")
	}
	if c.Retries == 0 {
		return errors.New("retries must be at least 1")
	}
	return nil
}

// UsesLocalEngine reports whether encryption runs in process rather than
// through a gateway.
func (c *Config) UsesLocalEngine() bool {
	return c.GatewayURL == ""
}

func (c *Config) KeyCacheTTL() time.Duration {
	return time.Duration(c.KeyCacheTTLSeconds) * time.Second
}

func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalMS) * time.Millisecond
}

func (c *Config) TxTimeout() time.Duration {
	return time.Duration(c.TxTimeoutSeconds) * time.Second
}

func (c *Config) RetryDelay() time.Duration {
	return time.Duration(c.RetryDelayMS) * time.Millisecond
}
