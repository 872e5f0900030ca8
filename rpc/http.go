package rpc

import (
	"bytes"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/big"
	"net"
	"net/http"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"flashpool/crypto"
	"flashpool/rpc/modules"
)

const (
	jsonRPCVersion  = "2.0"
	maxRequestBytes = 1 << 20 // 1 MiB
)

const (
	codeParseError     = -32700
	codeInvalidRequest = -32600
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
	codeUnauthorized   = -32001
	codeServerError    = -32000
	codeRateLimited    = -32020
)

// Server terminates the JSON-RPC surface for the pool. Mutating methods
// resolve the caller identity from a bearer token; read-only methods are
// open.
type Server struct {
	pool   *modules.FlashpoolModule
	logger *slog.Logger

	tokens map[string]crypto.Address

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	perMin   int
}

// NewServer wires the RPC server to the pool module. tokens maps bearer
// tokens to the authenticated account address each represents.
func NewServer(pool *modules.FlashpoolModule, tokens map[string]crypto.Address, perMinute int, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if perMinute <= 0 {
		perMinute = 60
	}
	return &Server{
		pool:     pool,
		logger:   logger,
		tokens:   tokens,
		limiters: make(map[string]*rate.Limiter),
		perMin:   perMinute,
	}
}

// Router mounts the RPC endpoint plus liveness and metrics probes.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()
	r.Post("/", s.handle)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())
	return r
}

type RPCRequest struct {
	JSONRPC string            `json:"jsonrpc"`
	Method  string            `json:"method"`
	Params  []json.RawMessage `json:"params"`
	ID      int               `json:"id"`
}

type RPCResponse struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      interface{} `json:"id"`
	Result  interface{} `json:"result,omitempty"`
	Error   *RPCError   `json:"error,omitempty"`
}

type RPCError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func writeError(w http.ResponseWriter, status int, id interface{}, code int, message string, data interface{}) {
	if status <= 0 {
		status = http.StatusBadRequest
	}
	if status != http.StatusOK {
		w.WriteHeader(status)
	}
	errObj := &RPCError{Code: code, Message: message}
	if data != nil {
		errObj.Data = data
	}
	resp := RPCResponse{JSONRPC: jsonRPCVersion, ID: id, Error: errObj}
	_ = json.NewEncoder(w).Encode(resp)
}

func writeResult(w http.ResponseWriter, id interface{}, result interface{}) {
	resp := RPCResponse{JSONRPC: jsonRPCVersion, ID: id, Result: result}
	_ = json.NewEncoder(w).Encode(resp)
}

func writeModuleError(w http.ResponseWriter, id interface{}, err *modules.ModuleError) {
	writeError(w, err.HTTPStatus, id, err.Code, err.Message, err.Data)
}

// handle is the main request handler that routes to specific methods.
func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	reader := http.MaxBytesReader(w, r.Body, maxRequestBytes)
	defer func() {
		_ = reader.Close()
	}()

	w.Header().Set("Content-Type", "application/json")

	if !s.allowSource(remoteSource(r)) {
		writeError(w, http.StatusTooManyRequests, nil, codeRateLimited, "rate limit exceeded", nil)
		return
	}

	body, err := io.ReadAll(reader)
	if err != nil {
		status := http.StatusBadRequest
		message := "failed to read request body"
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			status = http.StatusRequestEntityTooLarge
			message = fmt.Sprintf("request body exceeds %d bytes", maxRequestBytes)
		}
		writeError(w, status, nil, codeInvalidRequest, message, err.Error())
		return
	}
	if len(bytes.TrimSpace(body)) == 0 {
		writeError(w, http.StatusBadRequest, nil, codeInvalidRequest, "request body required", nil)
		return
	}

	req := &RPCRequest{}
	if err := json.Unmarshal(body, req); err != nil {
		writeError(w, http.StatusBadRequest, nil, codeParseError, "invalid JSON payload", err.Error())
		return
	}
	if req.JSONRPC != "" && req.JSONRPC != jsonRPCVersion {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidRequest, "unsupported jsonrpc version", req.JSONRPC)
		return
	}
	if req.Method == "" {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidRequest, "method required", nil)
		return
	}

	switch req.Method {
	case "flashpool_addLiquidity":
		s.withCaller(w, r, req, s.handleAddLiquidity)
	case "flashpool_removeLiquidity":
		s.withCaller(w, r, req, s.handleRemoveLiquidity)
	case "flashpool_flashLoan":
		s.withCaller(w, r, req, s.handleFlashLoan)
	case "flashpool_repayFlashLoan":
		s.withCaller(w, r, req, s.handleRepayFlashLoan)
	case "flashpool_setContractOwner":
		s.withCaller(w, r, req, s.handleSetContractOwner)
	case "flashpool_setFlashMinting":
		s.withCaller(w, r, req, s.handleSetFlashMinting)
	case "flashpool_setMaxFlashLoan":
		s.withCaller(w, r, req, s.handleSetMaxFlashLoan)
	case "flashpool_forceClearLoan":
		s.withCaller(w, r, req, s.handleForceClearLoan)
	case "flashpool_getLiquidity":
		s.handleGetLiquidity(w, req)
	case "flashpool_calculateFee":
		s.handleCalculateFee(w, req)
	case "flashpool_hasActiveLoan":
		s.handleHasActiveLoan(w, req)
	case "flashpool_getMaxFlashLoan":
		s.handleGetMaxFlashLoan(w, req)
	default:
		writeError(w, http.StatusNotFound, req.ID, codeMethodNotFound, fmt.Sprintf("method %q not found", req.Method), nil)
	}
}

type callerHandler func(w http.ResponseWriter, req *RPCRequest, caller crypto.Address)

func (s *Server) withCaller(w http.ResponseWriter, r *http.Request, req *RPCRequest, next callerHandler) {
	caller, authErr := s.resolveCaller(r)
	if authErr != nil {
		writeError(w, http.StatusUnauthorized, req.ID, authErr.Code, authErr.Message, authErr.Data)
		return
	}
	next(w, req, caller)
}

// resolveCaller maps the bearer token to the account identity it was issued
// for. The pool trusts the resolved address without further verification.
func (s *Server) resolveCaller(r *http.Request) (crypto.Address, *RPCError) {
	if len(s.tokens) == 0 {
		return crypto.Address{}, &RPCError{Code: codeUnauthorized, Message: "no caller tokens configured"}
	}
	header := r.Header.Get("Authorization")
	if header == "" {
		return crypto.Address{}, &RPCError{Code: codeUnauthorized, Message: "missing Authorization header"}
	}
	if !strings.HasPrefix(header, "Bearer ") {
		return crypto.Address{}, &RPCError{Code: codeUnauthorized, Message: "Authorization header must use Bearer scheme"}
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	if token == "" {
		return crypto.Address{}, &RPCError{Code: codeUnauthorized, Message: "missing bearer token"}
	}
	for candidate, addr := range s.tokens {
		if subtle.ConstantTimeCompare([]byte(token), []byte(candidate)) == 1 {
			return addr, nil
		}
	}
	return crypto.Address{}, &RPCError{Code: codeUnauthorized, Message: "invalid RPC credentials"}
}

func (s *Server) allowSource(source string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	limiter, ok := s.limiters[source]
	if !ok {
		limiter = rate.NewLimiter(rate.Limit(float64(s.perMin)/60.0), s.perMin)
		s.limiters[source] = limiter
	}
	return limiter.Allow()
}

func remoteSource(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// --- params ---

type amountParam struct {
	Amount string `json:"amount"`
}

type flashLoanParams struct {
	Amount    string `json:"amount"`
	Recipient string `json:"recipient"`
}

type ownerParam struct {
	NewOwner string `json:"newOwner"`
}

type mintingParam struct {
	Enabled bool `json:"enabled"`
}

type maxLoanParam struct {
	MaxAmount string `json:"maxAmount"`
}

type borrowerParam struct {
	Borrower string `json:"borrower"`
}

func decodeParams(req *RPCRequest, out interface{}) error {
	if len(req.Params) == 0 {
		return fmt.Errorf("params object required")
	}
	if len(req.Params) != 1 {
		return fmt.Errorf("expected a single params object")
	}
	return json.Unmarshal(req.Params[0], out)
}

func parseAmount(raw string) (*big.Int, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, fmt.Errorf("amount required")
	}
	amount, ok := new(big.Int).SetString(trimmed, 10)
	if !ok {
		return nil, fmt.Errorf("invalid amount %q", raw)
	}
	return amount, nil
}

// --- handlers ---

func (s *Server) handleAddLiquidity(w http.ResponseWriter, req *RPCRequest, caller crypto.Address) {
	var params amountParam
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	amount, err := parseAmount(params.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	accepted, modErr := s.pool.AddLiquidity(caller, amount)
	if modErr != nil {
		writeModuleError(w, req.ID, modErr)
		return
	}
	s.logger.Info("liquidity added", "caller", caller.String(), "amount", accepted)
	writeResult(w, req.ID, accepted)
}

func (s *Server) handleRemoveLiquidity(w http.ResponseWriter, req *RPCRequest, caller crypto.Address) {
	var params amountParam
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	amount, err := parseAmount(params.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	released, modErr := s.pool.RemoveLiquidity(caller, amount)
	if modErr != nil {
		writeModuleError(w, req.ID, modErr)
		return
	}
	s.logger.Info("liquidity removed", "caller", caller.String(), "amount", released)
	writeResult(w, req.ID, released)
}

func (s *Server) handleFlashLoan(w http.ResponseWriter, req *RPCRequest, caller crypto.Address) {
	var params flashLoanParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	amount, err := parseAmount(params.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	recipient, err := crypto.DecodeAddress(strings.TrimSpace(params.Recipient))
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, fmt.Sprintf("invalid recipient: %v", err), nil)
		return
	}
	result, modErr := s.pool.FlashLoan(caller, recipient, amount)
	if modErr != nil {
		writeModuleError(w, req.ID, modErr)
		return
	}
	s.logger.Info("flash loan issued", "borrower", caller.String(), "amount", result.Amount, "fee", result.Fee)
	writeResult(w, req.ID, result)
}

func (s *Server) handleRepayFlashLoan(w http.ResponseWriter, req *RPCRequest, caller crypto.Address) {
	result, modErr := s.pool.RepayFlashLoan(caller)
	if modErr != nil {
		writeModuleError(w, req.ID, modErr)
		return
	}
	s.logger.Info("flash loan repaid", "borrower", caller.String(), "total", result.TotalRepayment)
	writeResult(w, req.ID, result)
}

func (s *Server) handleSetContractOwner(w http.ResponseWriter, req *RPCRequest, caller crypto.Address) {
	var params ownerParam
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	newOwner, err := crypto.DecodeAddress(strings.TrimSpace(params.NewOwner))
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, fmt.Sprintf("invalid newOwner: %v", err), nil)
		return
	}
	owner, modErr := s.pool.SetContractOwner(caller, newOwner)
	if modErr != nil {
		writeModuleError(w, req.ID, modErr)
		return
	}
	s.logger.Info("pool owner rotated", "previous", caller.String(), "current", owner)
	writeResult(w, req.ID, owner)
}

func (s *Server) handleSetFlashMinting(w http.ResponseWriter, req *RPCRequest, caller crypto.Address) {
	var params mintingParam
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	enabled, modErr := s.pool.SetFlashMinting(caller, params.Enabled)
	if modErr != nil {
		writeModuleError(w, req.ID, modErr)
		return
	}
	s.logger.Info("flash minting updated", "enabled", enabled)
	writeResult(w, req.ID, enabled)
}

func (s *Server) handleSetMaxFlashLoan(w http.ResponseWriter, req *RPCRequest, caller crypto.Address) {
	var params maxLoanParam
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	max, err := parseAmount(params.MaxAmount)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	value, modErr := s.pool.SetMaxFlashLoan(caller, max)
	if modErr != nil {
		writeModuleError(w, req.ID, modErr)
		return
	}
	s.logger.Info("max flash loan updated", "max", value)
	writeResult(w, req.ID, value)
}

func (s *Server) handleForceClearLoan(w http.ResponseWriter, req *RPCRequest, caller crypto.Address) {
	var params borrowerParam
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	borrower, err := crypto.DecodeAddress(strings.TrimSpace(params.Borrower))
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, fmt.Sprintf("invalid borrower: %v", err), nil)
		return
	}
	cleared, modErr := s.pool.ForceClearLoan(caller, borrower)
	if modErr != nil {
		writeModuleError(w, req.ID, modErr)
		return
	}
	s.logger.Info("loan force-cleared", "borrower", cleared, "owner", caller.String())
	writeResult(w, req.ID, cleared)
}

func (s *Server) handleGetLiquidity(w http.ResponseWriter, req *RPCRequest) {
	total, modErr := s.pool.GetLiquidity()
	if modErr != nil {
		writeModuleError(w, req.ID, modErr)
		return
	}
	writeResult(w, req.ID, total)
}

func (s *Server) handleCalculateFee(w http.ResponseWriter, req *RPCRequest) {
	var params amountParam
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	amount, err := parseAmount(params.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	fee, modErr := s.pool.CalculateFee(amount)
	if modErr != nil {
		writeModuleError(w, req.ID, modErr)
		return
	}
	writeResult(w, req.ID, fee)
}

func (s *Server) handleHasActiveLoan(w http.ResponseWriter, req *RPCRequest) {
	var params borrowerParam
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	borrower, err := crypto.DecodeAddress(strings.TrimSpace(params.Borrower))
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, fmt.Sprintf("invalid borrower: %v", err), nil)
		return
	}
	active, modErr := s.pool.HasActiveLoan(borrower)
	if modErr != nil {
		writeModuleError(w, req.ID, modErr)
		return
	}
	writeResult(w, req.ID, active)
}

func (s *Server) handleGetMaxFlashLoan(w http.ResponseWriter, req *RPCRequest) {
	max, modErr := s.pool.GetMaxFlashLoan()
	if modErr != nil {
		writeModuleError(w, req.ID, modErr)
		return
	}
	writeResult(w, req.ID, max)
}
