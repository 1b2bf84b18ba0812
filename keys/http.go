// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

package keys

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/luxfi/fhevm"
	"github.com/luxfi/geth/common"
)

const (
	// KeysPath is the key endpoint route, queried with ?contract=<address>.
	KeysPath      = "/keys"
	ContractParam = "contract"

	maxResponseSize = 4 << 20
)

var errEmptyKey = errors.New("key endpoint returned an empty key")

// PublicKeyJSON is the publicKey object of a key endpoint response.
type PublicKeyJSON struct {
	Contract string `json:"contract"`
	// Key is the hex-encoded public key.
	Key string `json:"key"`
	// Timestamp is in unix milliseconds.
	Timestamp int64 `json:"timestamp"`
}

// Response is the body of GET /keys.
type Response struct {
	Success   bool           `json:"success"`
	PublicKey *PublicKeyJSON `json:"publicKey,omitempty"`
	Message   string         `json:"message,omitempty"`
	Error     string         `json:"error,omitempty"`
}

// NewPublicKeyJSON renders r for the wire.
func NewPublicKeyJSON(r *Record) *PublicKeyJSON {
	return &PublicKeyJSON{
		Contract:  r.Contract.Hex(),
		Key:       fhevm.ToHex(r.Key),
		Timestamp: r.Timestamp.UnixMilli(),
	}
}

// Record parses the wire form back into a Record.
func (p *PublicKeyJSON) Record() (*Record, error) {
	contract, ok := fhevm.ParseAddress(p.Contract)
	if !ok {
		return nil, fmt.Errorf("invalid contract address %q", p.Contract)
	}
	key, err := fhevm.FromHex(p.Key)
	if err != nil {
		return nil, err
	}
	if len(key) == 0 {
		return nil, errEmptyKey
	}
	return &Record{
		Contract:  contract,
		Key:       key,
		Timestamp: time.UnixMilli(p.Timestamp),
	}, nil
}

// HTTPFetcher fetches keys from a key endpoint over HTTP.
type HTTPFetcher struct {
	baseURL string
	client  *http.Client
}

// NewHTTPFetcher queries baseURL + KeysPath. A nil client uses
// http.DefaultClient.
func NewHTTPFetcher(baseURL string, client *http.Client) *HTTPFetcher {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPFetcher{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
	}
}

func (f *HTTPFetcher) FetchPublicKey(ctx context.Context, contract common.Address) (*Record, error) {
	endpoint := f.baseURL + KeysPath + "?" + url.Values{ContractParam: {contract.Hex()}}.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fhevm.NetworkError(err, "failed to build key request")
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fhevm.NetworkError(err, "key endpoint unreachable")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fhevm.NetworkError(err, "failed to read key response")
	}

	var parsed Response
	if err := json.Unmarshal(body, &parsed); err != nil {
		if resp.StatusCode != http.StatusOK {
			return nil, fhevm.NetworkError(nil, "key endpoint returned status %d", resp.StatusCode)
		}
		return nil, fhevm.NetworkError(err, "malformed key response")
	}
	if resp.StatusCode != http.StatusOK || (!parsed.Success && parsed.PublicKey == nil) {
		msg := parsed.Error
		if msg == "" {
			msg = parsed.Message
		}
		return nil, fhevm.NetworkError(nil, "key endpoint returned status %d: %s", resp.StatusCode, msg)
	}
	if parsed.PublicKey == nil {
		return nil, fhevm.NetworkError(nil, "key response has no publicKey")
	}
	record, err := parsed.PublicKey.Record()
	if err != nil {
		return nil, fhevm.NetworkError(err, "malformed key response")
	}
	if record.Contract != contract {
		return nil, fhevm.NetworkError(nil, "key response is for %s, requested %s", record.Contract, contract)
	}
	return record, nil
}
