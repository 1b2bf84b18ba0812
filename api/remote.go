// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/holiman/uint256"
	"github.com/luxfi/fhevm"
	"github.com/luxfi/fhevm/keys"
	"github.com/luxfi/geth/common"
)

const maxResponseSize = 8 << 20

var _ fhevm.Engine = (*RemoteEngine)(nil)

// StatusError is a non-2xx answer from a remote server.
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("server returned status %d: %s", e.StatusCode, e.Message)
}

// RemoteEngine is an Engine served by another process's Server.
type RemoteEngine struct {
	baseURL  string
	contract common.Address
	client   *http.Client
	keys     *keys.HTTPFetcher
}

// NewRemoteEngine talks to the server at baseURL. PublicKey reports the key
// published for contract. A nil client uses http.DefaultClient.
func NewRemoteEngine(baseURL string, contract common.Address, client *http.Client) *RemoteEngine {
	if client == nil {
		client = http.DefaultClient
	}
	baseURL = strings.TrimRight(baseURL, "/")
	return &RemoteEngine{
		baseURL:  baseURL,
		contract: contract,
		client:   client,
		keys:     keys.NewHTTPFetcher(baseURL, client),
	}
}

func (e *RemoteEngine) Encrypt8(ctx context.Context, v uint8) ([]byte, error) {
	return e.encrypt(ctx, fhevm.Uint8(v))
}

func (e *RemoteEngine) Encrypt16(ctx context.Context, v uint16) ([]byte, error) {
	return e.encrypt(ctx, fhevm.Uint16(v))
}

func (e *RemoteEngine) Encrypt32(ctx context.Context, v uint32) ([]byte, error) {
	return e.encrypt(ctx, fhevm.Uint32(v))
}

func (e *RemoteEngine) Encrypt64(ctx context.Context, v uint64) ([]byte, error) {
	return e.encrypt(ctx, fhevm.Uint64(v))
}

func (e *RemoteEngine) Encrypt128(ctx context.Context, v *uint256.Int) ([]byte, error) {
	val, err := fhevm.FromUint256(fhevm.TypeUint128, v)
	if err != nil {
		return nil, err
	}
	return e.encrypt(ctx, val)
}

func (e *RemoteEngine) Encrypt256(ctx context.Context, v *uint256.Int) ([]byte, error) {
	val, err := fhevm.FromUint256(fhevm.TypeUint256, v)
	if err != nil {
		return nil, err
	}
	return e.encrypt(ctx, val)
}

func (e *RemoteEngine) EncryptBool(ctx context.Context, v bool) ([]byte, error) {
	return e.encrypt(ctx, fhevm.Bool(v))
}

func (e *RemoteEngine) EncryptAddress(ctx context.Context, a common.Address) ([]byte, error) {
	return e.encrypt(ctx, fhevm.Address(a))
}

func (e *RemoteEngine) encrypt(ctx context.Context, v fhevm.Value) ([]byte, error) {
	var resp EncryptResponse
	err := e.post(ctx, EncryptPath, EncryptRequest{
		Value: v.String(),
		Type:  v.Type.String(),
	}, &resp)
	if err != nil {
		return nil, err
	}
	if resp.Encrypted == nil {
		return nil, fmt.Errorf("encrypt response has no ciphertext")
	}
	if resp.Encrypted.Type != v.Type {
		return nil, fmt.Errorf("server encrypted as %s, requested %s", resp.Encrypted.Type, v.Type)
	}
	return resp.Encrypted.Data, nil
}

func (e *RemoteEngine) Decrypt(ctx context.Context, ciphertext []byte, auth *fhevm.Authorization) (fhevm.Value, error) {
	req := DecryptRequest{EncryptedData: fhevm.ToHex(ciphertext)}
	if auth != nil {
		req.Signature = fhevm.ToHex(auth.Signature)
		req.ContractAddress = auth.Contract.Hex()
		req.Requester = auth.Requester.Hex()
	}
	var resp DecryptResponse
	if err := e.post(ctx, DecryptPath, req, &resp); err != nil {
		return fhevm.Value{}, err
	}
	if resp.Decrypted == nil {
		return fhevm.Value{}, fmt.Errorf("decrypt response has no value")
	}
	return fhevm.ParseValue(resp.Decrypted.Type, resp.Decrypted.Value)
}

func (e *RemoteEngine) PublicKey(ctx context.Context) ([]byte, error) {
	record, err := e.keys.FetchPublicKey(ctx, e.contract)
	if err != nil {
		return nil, err
	}
	return record.Key, nil
}

// KeyFetcher returns the fetcher used for PublicKey, for use with a
// keys.Manager.
func (e *RemoteEngine) KeyFetcher() keys.Fetcher {
	return e.keys
}

func (e *RemoteEngine) post(ctx context.Context, path string, body, out any) error {
	b, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+path, bytes.NewReader(b))
	if err != nil {
		return fhevm.NetworkError(err, "failed to build %s request", path)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return fhevm.NetworkError(err, "%s unreachable", e.baseURL)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return fhevm.NetworkError(err, "failed to read %s response", path)
	}
	if resp.StatusCode != http.StatusOK {
		var errResp ErrorResponse
		msg := strings.TrimSpace(string(respBody))
		if json.Unmarshal(respBody, &errResp) == nil && errResp.Error != "" {
			msg = errResp.Error
		}
		return &StatusError{StatusCode: resp.StatusCode, Message: msg}
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fhevm.NetworkError(err, "malformed %s response", path)
	}
	return nil
}
