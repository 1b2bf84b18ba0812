// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const testKey = "b71c71a67e1177ad4e901695e1b4b9ee17ae16c6668d313eac2f96dbcda3f291"

func buildTestConfig(t *testing.T, args ...string) (Config, error) {
	t.Helper()
	fs := BuildFlagSet()
	require.NoError(t, fs.Parse(args))
	v, err := BuildViper(fs)
	require.NoError(t, err)
	return NewConfig(v)
}

func TestDefaults(t *testing.T) {
	require := require.New(t)

	cfg, err := buildTestConfig(t)
	require.NoError(err)
	require.Equal("info", cfg.LogLevel)
	require.Equal("localhost", cfg.Network)
	require.Equal("http://127.0.0.1:8545", cfg.RPCURL)
	require.Equal(uint64(31337), cfg.ChainID)
	require.True(cfg.UsesLocalEngine())
	require.Equal(15*time.Minute, cfg.KeyCacheTTL())
	require.Equal(time.Second, cfg.PollInterval())
	require.Equal(2*time.Minute, cfg.TxTimeout())
	require.Equal(uint64(3), cfg.Retries)
	require.Equal(uint16(8080), cfg.APIPort)
}

func TestNetworkPresets(t *testing.T) {
	tests := []struct {
		network string
		chainID uint64
		gateway string
	}{
		{network: "sepolia", chainID: 11155111, gateway: "https://gateway.zama.ai"},
		{network: "localhost", chainID: 31337},
		{network: "mainnet", chainID: 1},
	}
	for _, tt := range tests {
		t.Run(tt.network, func(t *testing.T) {
			require := require.New(t)
			cfg, err := buildTestConfig(t, "--network", tt.network)
			require.NoError(err)
			require.Equal(tt.chainID, cfg.ChainID)
			require.Equal(tt.gateway, cfg.GatewayURL)
			require.Equal(tt.gateway == "", cfg.UsesLocalEngine())
		})
	}
}

func TestFlagsOverridePreset(t *testing.T) {
	require := require.New(t)

	cfg, err := buildTestConfig(t,
		"--network", "sepolia",
		"--rpc-url", "http://10.0.0.1:8545",
		"--chain-id", "7",
		"--retries", "5",
	)
	require.NoError(err)
	require.Equal("http://10.0.0.1:8545", cfg.RPCURL)
	require.Equal(uint64(7), cfg.ChainID)
	require.Equal("https://gateway.zama.ai", cfg.GatewayURL)
	require.Equal(uint64(5), cfg.Retries)
}

func TestConfigFileAndEnv(t *testing.T) {
	require := require.New(t)

	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(os.WriteFile(path, []byte(`{
		"network": "sepolia",
		"log-level": "debug",
		"contract-address": "0x00000000000000000000000000000000000000c0",
		"private-key": "`+testKey+`"
	}`), 0o600))
	t.Setenv("FHEVM_API_PORT", "9090")

	cfg, err := buildTestConfig(t, "--config-file", path)
	require.NoError(err)
	require.Equal("debug", cfg.LogLevel)
	require.Equal(uint64(11155111), cfg.ChainID)
	require.Equal(uint16(9090), cfg.APIPort)
	require.Equal(testKey, cfg.PrivateKey)
}

func TestMissingConfigFile(t *testing.T) {
	fs := BuildFlagSet()
	require.NoError(t, fs.Parse([]string{"--config-file", filepath.Join(t.TempDir(), "missing.json")}))
	_, err := BuildViper(fs)
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			LogLevel:           "info",
			Network:            "localhost",
			RPCURL:             "http://127.0.0.1:8545",
			KeyCacheTTLSeconds: 60,
			PollIntervalMS:     100,
			Retries:            1,
		}
	}

	tests := []struct {
		name   string
		modify func(*Config)
		ok     bool
		err    error
	}{
		{name: "valid", modify: func(*Config) {}, ok: true},
		{name: "unknown network", modify: func(c *Config) { c.Network = "moon" }, err: errUnknownNetwork},
		{name: "missing rpc", modify: func(c *Config) { c.RPCURL = "" }, err: errMissingRPCURL},
		{name: "bad contract", modify: func(c *Config) { c.ContractAddress = "0x1234" }, err: errInvalidContract},
		{name: "bad key", modify: func(c *Config) { c.PrivateKey = "zz" }, err: errInvalidKey},
		{name: "good key with prefix", modify: func(c *Config) { c.PrivateKey = "0x" + testKey }, ok: true},
		{name: "bad log level", modify: func(c *Config) { c.LogLevel = "loud" }},
		{name: "zero ttl", modify: func(c *Config) { c.KeyCacheTTLSeconds = 0 }},
		{name: "zero retries", modify: func(c *Config) { c.Retries = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.modify(&cfg)
			err := cfg.Validate()
			switch {
			case tt.ok:
				require.NoError(t, err)
			case tt.err != nil:
				require.ErrorIs(t, err, tt.err)
			default:
				require.Error(t, err)
			}
		})
	}
}
