// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"testing"

	"github.com/luxfi/fhevm"
	"github.com/luxfi/fhevm/config"
	"github.com/stretchr/testify/require"
)

func TestParsePlaintext(t *testing.T) {
	tests := []struct {
		name     string
		in       string
		typeName string
		want     fhevm.EncryptionType
		wantU64  uint64
		wantErr  bool
	}{
		{name: "bool", in: "true", want: fhevm.TypeBool, wantU64: 1},
		{name: "bool upper", in: "FALSE", want: fhevm.TypeBool},
		{name: "inferred uint8", in: "200", want: fhevm.TypeUint8, wantU64: 200},
		{name: "inferred uint16", in: "300", want: fhevm.TypeUint16, wantU64: 300},
		{name: "leading zero is decimal", in: "010", want: fhevm.TypeUint8, wantU64: 10},
		{name: "hex integer", in: "0xff", want: fhevm.TypeUint8, wantU64: 255},
		{name: "address", in: "0x00000000000000000000000000000000000000a1", want: fhevm.TypeAddress, wantU64: 0xa1},
		{name: "declared width", in: "7", typeName: "uint64", want: fhevm.TypeUint64, wantU64: 7},
		{name: "declared overflow", in: "256", typeName: "uint8", wantErr: true},
		{name: "unknown type", in: "1", typeName: "int8", wantErr: true},
		{name: "negative", in: "-1", wantErr: true},
		{name: "garbage", in: "seven", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require := require.New(t)
			v, err := parsePlaintext(tt.in, tt.typeName)
			if tt.wantErr {
				require.Error(err)
				return
			}
			require.NoError(err)
			require.Equal(tt.want, v.Type)
			require.Equal(tt.wantU64, v.Uint64())
		})
	}
}

func TestRootCommands(t *testing.T) {
	root := (&cli{}).rootCmd()
	names := make([]string, 0, len(root.Commands()))
	for _, cmd := range root.Commands() {
		names = append(names, cmd.Name())
	}
	require.Subset(t, names, []string{"encrypt", "decrypt", "info", "keys", "report", "stats", "history", "serve"})

	for _, key := range []string{"network", "rpc-url", "gateway-url", "private-key", "api-port"} {
		require.NotNil(t, root.PersistentFlags().Lookup(key), key)
	}
}

func TestDecryptNeedsGateway(t *testing.T) {
	require := require.New(t)

	require.ErrorIs(checkDecryptEngine(config.Config{}), errLocalDecrypt)
	require.NoError(checkDecryptEngine(config.Config{GatewayURL: "http://127.0.0.1:8545"}))
}
