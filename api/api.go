// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/alexliesenfeld/health"
	"github.com/google/uuid"
	"github.com/luxfi/fhevm"
	"github.com/luxfi/fhevm/keys"
	"github.com/luxfi/geth/common"
	"github.com/luxfi/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	EncryptPath = "/encrypt"
	DecryptPath = "/decrypt"
	HealthPath  = "/health"
	MetricsPath = "/metrics"

	RequestIDHeader = "X-Request-ID"

	maxBodySize = 8 << 20
)

// Key management actions accepted by POST /keys.
const (
	ActionGenerate = "generate"
	ActionRefresh  = "refresh"
	ActionRevoke   = "revoke"
)

type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

type KeyActionRequest struct {
	ContractAddress string `json:"contractAddress"`
	Action          string `json:"action"`
}

type KeyActionResponse struct {
	Success         bool                `json:"success"`
	Action          string              `json:"action"`
	ContractAddress string              `json:"contractAddress"`
	Timestamp       int64               `json:"timestamp"`
	PublicKey       *keys.PublicKeyJSON `json:"publicKey,omitempty"`
	Message         string              `json:"message"`
}

// EncryptRequest carries a plaintext and optionally its type. Without a type
// the narrowest fitting one is inferred. Integers may be JSON numbers or
// decimal strings.
type EncryptRequest struct {
	Value any    `json:"value"`
	Type  string `json:"type,omitempty"`
}

type EncryptResponse struct {
	Success   bool                  `json:"success"`
	Encrypted *fhevm.EncryptedValue `json:"encrypted,omitempty"`
	Message   string                `json:"message"`
}

// DecryptRequest decrypts publicly when Signature is empty. Otherwise the
// signature must be an EIP-712 authorization by Requester for
// ContractAddress.
type DecryptRequest struct {
	EncryptedData   string `json:"encryptedData"`
	Signature       string `json:"signature,omitempty"`
	ContractAddress string `json:"contractAddress,omitempty"`
	Requester       string `json:"requester,omitempty"`
}

type DecryptedJSON struct {
	Type            fhevm.EncryptionType `json:"type"`
	Value           string               `json:"value"`
	Timestamp       int64                `json:"timestamp"`
	ContractAddress string               `json:"contractAddress,omitempty"`
	Authorized      bool                 `json:"authorized"`
}

type DecryptResponse struct {
	Success   bool           `json:"success"`
	Decrypted *DecryptedJSON `json:"decrypted,omitempty"`
	Message   string         `json:"message"`
}

type Option func(*Server)

func WithLogger(logger log.Logger) Option {
	return func(s *Server) {
		s.log = logger
	}
}

// WithRegistry registers the API metrics on reg and serves it at /metrics.
func WithRegistry(reg *prometheus.Registry) Option {
	return func(s *Server) {
		s.registry = reg
	}
}

// WithKeyManager replaces the key cache that fronts the engine's key.
func WithKeyManager(m *keys.Manager) Option {
	return func(s *Server) {
		s.keys = m
	}
}

// Server exposes an Engine over HTTP.
type Server struct {
	engine    fhevm.Engine
	encryptor *fhevm.Encryptor
	keys      *keys.Manager
	chainID   *big.Int
	registry  *prometheus.Registry
	metrics   *Metrics
	log       log.Logger
	now       func() time.Time
}

func NewServer(engine fhevm.Engine, chainID *big.Int, opts ...Option) *Server {
	s := &Server{
		engine:  engine,
		chainID: new(big.Int).Set(chainID),
		log:     log.NewNoOpLogger(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.encryptor = fhevm.NewEncryptor(engine, s.log)
	if s.keys == nil {
		s.keys = keys.NewManager(EngineFetcher(engine, s.now), keys.WithLogger(s.log))
	}
	if s.registry != nil {
		s.metrics = NewMetrics(s.registry)
	}
	return s
}

// EngineFetcher publishes the engine's public key for every contract.
func EngineFetcher(engine fhevm.Engine, now func() time.Time) keys.Fetcher {
	return keys.FetcherFunc(func(ctx context.Context, contract common.Address) (*keys.Record, error) {
		key, err := engine.PublicKey(ctx)
		if err != nil {
			return nil, err
		}
		return &keys.Record{Contract: contract, Key: key, Timestamp: now()}, nil
	})
}

// Handler routes every endpoint of the server.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("GET "+keys.KeysPath, s.instrument(keys.KeysPath, s.handleGetKey))
	mux.Handle("POST "+keys.KeysPath, s.instrument(keys.KeysPath, s.handleKeyAction))
	mux.Handle("POST "+EncryptPath, s.instrument(EncryptPath, s.handleEncrypt))
	mux.Handle("POST "+DecryptPath, s.instrument(DecryptPath, s.handleDecrypt))

	checker := health.NewChecker(
		health.WithCheck(health.Check{
			Name: "fhe-engine",
			Check: func(ctx context.Context) error {
				_, err := s.engine.PublicKey(ctx)
				return err
			},
		}),
	)
	mux.Handle(HealthPath, health.NewHandler(checker))
	if s.registry != nil {
		mux.Handle(MetricsPath, promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
	}
	return withRequestID(mux)
}

func withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			id = uuid.New().String()
		}
		w.Header().Set(RequestIDHeader, id)
		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	code int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.code = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) instrument(route string, h http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, code: http.StatusOK}
		r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
		h(rec, r)
		if s.metrics != nil {
			s.metrics.requestCount.WithLabelValues(route, strconv.Itoa(rec.code)).Inc()
			s.metrics.requestLatencyMS.WithLabelValues(route).Set(float64(time.Since(start).Milliseconds()))
		}
	})
}

func (s *Server) handleGetKey(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get(keys.ContractParam)
	if raw == "" {
		s.writeJSONError(w, http.StatusBadRequest, "Contract address parameter is required")
		return
	}
	if !fhevm.IsValidAddress(raw) {
		s.writeJSONError(w, http.StatusBadRequest, "Invalid contract address format")
		return
	}
	record, err := s.keys.Get(r.Context(), common.HexToAddress(raw))
	if err != nil {
		s.log.Warn("Failed to retrieve public key",
			log.String("contract", raw),
			log.Err(err),
		)
		s.writeJSONError(w, http.StatusInternalServerError, "Failed to retrieve public key")
		return
	}
	s.writeJSON(w, keys.Response{
		Success:   true,
		PublicKey: keys.NewPublicKeyJSON(record),
		Message:   "Public key retrieved successfully",
	})
}

func (s *Server) handleKeyAction(w http.ResponseWriter, r *http.Request) {
	var req KeyActionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeJSONError(w, http.StatusBadRequest, "Could not decode request body")
		return
	}
	if req.ContractAddress == "" || req.Action == "" {
		s.writeJSONError(w, http.StatusBadRequest, "Missing required fields: contractAddress and action")
		return
	}
	if !fhevm.IsValidAddress(req.ContractAddress) {
		s.writeJSONError(w, http.StatusBadRequest, "Invalid contract address format")
		return
	}
	contract := common.HexToAddress(req.ContractAddress)

	resp := KeyActionResponse{
		Success:         true,
		Action:          req.Action,
		ContractAddress: contract.Hex(),
		Timestamp:       s.now().UnixMilli(),
		Message:         fmt.Sprintf("Key %s operation completed successfully", req.Action),
	}
	switch req.Action {
	case ActionGenerate:
		record, err := s.keys.Get(r.Context(), contract)
		if err != nil {
			s.writeJSONError(w, http.StatusInternalServerError, "Key management operation failed")
			return
		}
		resp.PublicKey = keys.NewPublicKeyJSON(record)
	case ActionRefresh:
		if _, err := s.keys.RefreshKey(r.Context(), contract); err != nil {
			s.writeJSONError(w, http.StatusInternalServerError, "Key management operation failed")
			return
		}
		record, err := s.keys.Get(r.Context(), contract)
		if err != nil {
			s.writeJSONError(w, http.StatusInternalServerError, "Key management operation failed")
			return
		}
		resp.PublicKey = keys.NewPublicKeyJSON(record)
	case ActionRevoke:
		s.keys.Clear(contract)
	default:
		s.writeJSONError(w, http.StatusBadRequest, fmt.Sprintf(
			"Invalid action. Must be one of: %s",
			strings.Join([]string{ActionGenerate, ActionRefresh, ActionRevoke}, ", "),
		))
		return
	}
	s.writeJSON(w, resp)
}

func (s *Server) handleEncrypt(w http.ResponseWriter, r *http.Request) {
	var req EncryptRequest
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()
	if err := dec.Decode(&req); err != nil {
		s.writeJSONError(w, http.StatusBadRequest, "Could not decode request body")
		return
	}
	if req.Value == nil {
		s.writeJSONError(w, http.StatusBadRequest, "Missing required field: value")
		return
	}

	value, err := requestValue(req)
	if err != nil {
		s.writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	encrypted, err := s.encryptor.Encrypt(r.Context(), value)
	if err != nil {
		s.log.Warn("Encryption failed",
			log.Stringer("type", value.Type),
			log.Err(err),
		)
		s.writeJSONError(w, http.StatusInternalServerError, "Encryption failed")
		return
	}
	s.writeJSON(w, EncryptResponse{
		Success:   true,
		Encrypted: &encrypted,
		Message:   "Value encrypted successfully",
	})
}

func requestValue(req EncryptRequest) (fhevm.Value, error) {
	if req.Type == "" {
		if s, ok := req.Value.(string); ok && !fhevm.IsValidAddress(s) {
			n, ok := new(big.Int).SetString(s, 10)
			if !ok {
				return fhevm.Value{}, fmt.Errorf("cannot infer type of %q", s)
			}
			return fhevm.Infer(n)
		}
		return fhevm.Infer(req.Value)
	}
	t, err := fhevm.ParseEncryptionType(req.Type)
	if err != nil {
		return fhevm.Value{}, fmt.Errorf("invalid encryption type, must be one of: %s", supportedTypeNames())
	}
	if s, ok := req.Value.(string); ok {
		return fhevm.ParseValue(t, s)
	}
	return fhevm.Validate(req.Value, t)
}

func supportedTypeNames() string {
	names := make([]string, 0, len(fhevm.Widths)+2)
	for _, t := range fhevm.Widths {
		names = append(names, t.String())
	}
	names = append(names, fhevm.TypeBool.String(), fhevm.TypeAddress.String())
	return strings.Join(names, ", ")
}

func (s *Server) handleDecrypt(w http.ResponseWriter, r *http.Request) {
	var req DecryptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeJSONError(w, http.StatusBadRequest, "Could not decode request body")
		return
	}
	if req.EncryptedData == "" {
		s.writeJSONError(w, http.StatusBadRequest, "Missing required field: encryptedData")
		return
	}
	ciphertext, err := fhevm.FromHex(req.EncryptedData)
	if err != nil || len(ciphertext) == 0 {
		s.writeJSONError(w, http.StatusBadRequest, "Could not decode encryptedData")
		return
	}

	auth, err := s.authorization(req)
	if err != nil {
		s.writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	value, err := s.engine.Decrypt(r.Context(), ciphertext, auth)
	if errors.Is(err, fhevm.ErrInvalidCiphertext) {
		s.writeJSONError(w, http.StatusBadRequest, fmt.Sprintf("Decryption failed: %v", err))
		return
	}
	if err != nil {
		s.log.Warn("Decryption refused",
			log.Bool("authorized", auth != nil),
			log.Err(err),
		)
		s.writeJSONError(w, http.StatusForbidden, fmt.Sprintf("Decryption failed: %v", err))
		return
	}

	out := &DecryptedJSON{
		Type:       value.Type,
		Value:      value.String(),
		Timestamp:  s.now().UnixMilli(),
		Authorized: auth != nil,
	}
	if auth != nil {
		out.ContractAddress = auth.Contract.Hex()
	}
	s.writeJSON(w, DecryptResponse{
		Success:   true,
		Decrypted: out,
		Message:   "Value decrypted successfully",
	})
}

func (s *Server) authorization(req DecryptRequest) (*fhevm.Authorization, error) {
	if req.Signature == "" {
		if req.ContractAddress != "" || req.Requester != "" {
			return nil, errors.New("signature is required with contractAddress and requester")
		}
		return nil, nil
	}
	if req.ContractAddress == "" || req.Requester == "" {
		return nil, errors.New("missing required fields: signature, contractAddress, requester")
	}
	if !fhevm.IsValidAddress(req.ContractAddress) {
		return nil, errors.New("invalid contract address format")
	}
	if !fhevm.IsValidAddress(req.Requester) {
		return nil, errors.New("invalid requester address format")
	}
	sig, err := fhevm.FromHex(req.Signature)
	if err != nil || len(sig) != fhevm.SignatureLen {
		return nil, errors.New("invalid signature format")
	}
	return &fhevm.Authorization{
		ChainID:   new(big.Int).Set(s.chainID),
		Contract:  common.HexToAddress(req.ContractAddress),
		Requester: common.HexToAddress(req.Requester),
		Signature: sig,
	}, nil
}

func (s *Server) writeJSON(w http.ResponseWriter, v any) {
	resp, err := json.Marshal(v)
	if err != nil {
		msg := "Failed to marshal response"
		s.log.Error(msg, log.Err(err))
		s.writeJSONError(w, http.StatusInternalServerError, msg)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if _, err := w.Write(resp); err != nil {
		s.log.Error("Error writing response", log.Err(err))
	}
}

func (s *Server) writeJSONError(w http.ResponseWriter, httpStatusCode int, errorMsg string) {
	resp, err := json.Marshal(ErrorResponse{Error: errorMsg})
	if err != nil {
		msg := "Error marshalling JSON error response"
		s.log.Error(msg, log.Err(err))
		resp = []byte(msg)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(httpStatusCode)

	if _, err := w.Write(resp); err != nil {
		s.log.Error("Error writing error response", log.Err(err))
	}
}
