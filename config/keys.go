// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

package config

const (
	// Command line option keys
	ConfigFileKey = "config-file"
	VersionKey    = "version"
	HelpKey       = "help"

	// Environment variable keys
	ConfigFileEnvKey = "CONFIG_FILE"
	EnvPrefix        = "FHEVM"

	// Top-level configuration keys
	LogLevelKey           = "log-level"
	NetworkKey            = "network"
	RPCURLKey             = "rpc-url"
	GatewayURLKey         = "gateway-url"
	ChainIDKey            = "chain-id"
	ContractAddressKey    = "contract-address"
	PrivateKeyKey         = "private-key"
	KeyCacheTTLSecondsKey = "key-cache-ttl-seconds"
	PollIntervalMSKey     = "poll-interval-ms"
	TxTimeoutSecondsKey   = "tx-timeout-seconds"
	RetriesKey            = "retries"
	RetryDelayMSKey       = "retry-delay-ms"
	APIPortKey            = "api-port"
	PublicDecryptionKey   = "public-decryption"
)
