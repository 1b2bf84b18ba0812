// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

package config

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"
)

// AddFlags registers every configuration flag on fs. Defaults live in
// SetDefaultConfigValues so that unset flags fall through to env and file.
func AddFlags(fs *pflag.FlagSet) {
	fs.String(ConfigFileKey, "", "Path to a JSON config file")
	fs.String(LogLevelKey, "", "Log level (debug, info, warn, error)")
	fs.String(NetworkKey, "", fmt.Sprintf("Network preset (%s)", strings.Join(NetworkNames(), ", ")))
	fs.String(RPCURLKey, "", "JSON-RPC endpoint, overrides the network preset")
	fs.String(GatewayURLKey, "", "FHE gateway URL, empty for the in-process engine")
	fs.Uint64(ChainIDKey, 0, "Chain id, overrides the network preset")
	fs.String(ContractAddressKey, "", "Default contract address")
	fs.String(PrivateKeyKey, "", "Hex encoded signing key")
	fs.Uint64(KeyCacheTTLSecondsKey, 0, "Public key cache lifetime in seconds")
	fs.Uint64(PollIntervalMSKey, 0, "Receipt poll interval in milliseconds")
	fs.Uint64(TxTimeoutSecondsKey, 0, "Time to wait for a transaction to be mined")
	fs.Uint64(RetriesKey, 0, "Attempts for retried network calls")
	fs.Uint64(RetryDelayMSKey, 0, "Base delay between retries in milliseconds")
	fs.Uint16(APIPortKey, 0, "Port of the HTTP API")
	fs.Bool(PublicDecryptionKey, false, "Allow decryption without authorization on the local engine")
}

// BuildFlagSet returns a flag set with the configuration flags plus
// --version and --help.
func BuildFlagSet() *pflag.FlagSet {
	fs := pflag.NewFlagSet("fhevm", pflag.ContinueOnError)
	AddFlags(fs)
	fs.Bool(VersionKey, false, "Display version and exit")
	fs.Bool(HelpKey, false, "Display help and exit")
	return fs
}

func DisplayUsageText() {
	fmt.Printf("Usage: fhevm [command] [flags]\n\n")
	fmt.Printf("Configuration is read from flags, %s_ environment variables and an optional JSON file.\n\n", EnvPrefix)
	BuildFlagSet().PrintDefaults()
}
