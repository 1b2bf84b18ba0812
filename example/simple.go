// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

// Command simple encrypts a batch of fields with the in-process engine,
// grants one account access to them and decrypts them back with an
// EIP-712 authorization.
package main

import (
	"context"
	"fmt"
	"math/big"
	"os"
	"sort"

	"github.com/luxfi/fhevm"
	"github.com/luxfi/fhevm/crypto/fhe"
	"github.com/luxfi/fhevm/signer"
	"github.com/luxfi/geth/common"
	"github.com/luxfi/log"
)

func main() {
	if err := run(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	chainID := big.NewInt(31337)
	contract := common.HexToAddress("0xc61a1997F87156dfC96CA14E66fA9E3A02D36358")
	logger := log.NewNoOpLogger()

	engine, err := fhe.New(fhe.WithChainID(chainID), fhe.WithLogger(logger))
	if err != nil {
		return err
	}
	user, err := signer.GenerateLocalSigner()
	if err != nil {
		return err
	}

	encryptor := fhevm.NewEncryptor(engine, logger)
	batch, err := encryptor.EncryptBatch(ctx, map[string]any{
		"balance":   uint64(1_000_000),
		"age":       42,
		"active":    true,
		"recipient": contract,
	})
	if err != nil {
		return err
	}

	names := make([]string, 0, len(batch))
	for name := range batch {
		names = append(names, name)
	}
	sort.Strings(names)

	decryptor := fhevm.NewDecryptor(engine, user, chainID, logger)
	for _, name := range names {
		ct := batch[name]
		engine.ACL().Allow(fhe.HandleOf(ct.Data), contract, user.Address())

		plain, err := decryptor.UserDecrypt(ctx, ct.Data, contract, user.Address())
		if err != nil {
			return fmt.Errorf("failed to decrypt %s: %w", name, err)
		}
		fmt.Printf("%-10s %-8s %6d bytes -> %s\n", name, ct.Type, len(ct.Data), plain.Value)
	}
	return nil
}
