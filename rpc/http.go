package rpc

import (
	"bytes"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"vidchain/core"
	ledgererr "vidchain/core/errors"
	"vidchain/observability/metrics"
)

const (
	jsonRPCVersion  = "2.0"
	maxRequestBytes = 1 << 20 // 1 MiB

	requestsPerSecond = 25
	requestBurst      = 50
)

const (
	codeParseError     = -32700
	codeInvalidRequest = -32600
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
	codeUnauthorized   = -32001
	codeServerError    = -32000
	codeModulePaused   = -32002
	codeRateLimited    = -32020
)

type Server struct {
	node *core.Node

	mu        sync.Mutex
	limiters  map[string]*rate.Limiter
	authToken string
}

func NewServer(node *core.Node, authToken string) *Server {
	return &Server{
		node:      node,
		limiters:  make(map[string]*rate.Limiter),
		authToken: strings.TrimSpace(authToken),
	}
}

// Router mounts the RPC endpoint, the websocket event stream, the metrics
// scrape endpoint, and a liveness probe.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Post("/", s.handle)
	r.Get("/ws", s.handleWS)
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return r
}

func (s *Server) Start(addr string) error {
	return http.ListenAndServe(addr, s.Router())
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

// writeEngineError maps the error taxonomy onto RPC codes so clients can
// branch without parsing messages.
func writeEngineError(w http.ResponseWriter, id interface{}, err error) {
	switch {
	case errors.Is(err, ledgererr.ErrPaused):
		writeError(w, http.StatusServiceUnavailable, id, codeModulePaused, "module paused", err.Error())
	case errors.Is(err, ledgererr.ErrUnauthorized):
		writeError(w, http.StatusForbidden, id, codeUnauthorized, "caller lacks required role", err.Error())
	case ledgererr.Kind(err) != nil:
		writeError(w, http.StatusBadRequest, id, codeInvalidParams, "operation rejected", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, id, codeServerError, "internal error", err.Error())
	}
}

func (s *Server) limiter(source string) *rate.Limiter {
	s.mu.Lock()
	defer s.mu.Unlock()
	limiter, ok := s.limiters[source]
	if !ok {
		limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), requestBurst)
		s.limiters[source] = limiter
	}
	return limiter
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func (s *Server) requireAuth(r *http.Request) *RPCError {
	if s.authToken == "" {
		return &RPCError{Code: codeUnauthorized, Message: "RPC authentication token not configured"}
	}
	header := r.Header.Get("Authorization")
	if header == "" {
		return &RPCError{Code: codeUnauthorized, Message: "missing Authorization header"}
	}
	if !strings.HasPrefix(header, "Bearer ") {
		return &RPCError{Code: codeUnauthorized, Message: "Authorization header must use Bearer scheme"}
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	if token == "" {
		return &RPCError{Code: codeUnauthorized, Message: "missing bearer token"}
	}
	if subtle.ConstantTimeCompare([]byte(token), []byte(s.authToken)) != 1 {
		return &RPCError{Code: codeUnauthorized, Message: "invalid RPC credentials"}
	}
	return nil
}

// handle is the main request handler that routes to specific handlers.
func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	reader := http.MaxBytesReader(w, r.Body, maxRequestBytes)
	defer func() {
		_ = reader.Close()
	}()

	w.Header().Set("Content-Type", "application/json")

	if !s.limiter(clientIP(r)).Allow() {
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

	metrics.Ledger().ObserveOp(req.Method, false)

	mutating := map[string]func(http.ResponseWriter, *http.Request, *RPCRequest){
		"vid_mint":                s.handleTokenMint,
		"vid_burn":                s.handleTokenBurn,
		"vid_transfer":            s.handleTokenTransfer,
		"stake_stake":             s.handleStake,
		"stake_unstake":           s.handleUnstake,
		"stake_claimReward":       s.handleClaimReward,
		"stake_fundPool":          s.handleFundPool,
		"stake_setRewardRate":     s.handleSetRewardRate,
		"stake_emergencyWithdraw": s.handleEmergencyWithdraw,
		"asset_mint":              s.handleAssetMint,
		"asset_updateMetrics":     s.handleAssetUpdateMetrics,
		"asset_burn":              s.handleAssetBurn,
		"asset_transfer":          s.handleAssetTransfer,
		"market_list":             s.handleMarketList,
		"market_unlist":           s.handleMarketUnlist,
		"market_buy":              s.handleMarketBuy,
		"market_setFeeBps":        s.handleMarketSetFeeBps,
		"market_setFeeRecipient":  s.handleMarketSetFeeRecipient,
		"access_grantRole":        s.handleGrantRole,
		"access_revokeRole":       s.handleRevokeRole,
		"admin_pause":             s.handlePause,
		"admin_unpause":           s.handleUnpause,
	}
	if handler, ok := mutating[req.Method]; ok {
		if authErr := s.requireAuth(r); authErr != nil {
			writeError(w, http.StatusUnauthorized, req.ID, authErr.Code, authErr.Message, authErr.Data)
			return
		}
		handler(w, r, req)
		return
	}

	switch req.Method {
	case "vid_getBalance":
		s.handleGetBalance(w, r, req)
	case "vid_getSupply":
		s.handleGetSupply(w, r, req)
	case "stake_getPosition":
		s.handleGetPosition(w, r, req)
	case "stake_pendingReward":
		s.handlePendingReward(w, r, req)
	case "stake_totalStaked":
		s.handleTotalStaked(w, r, req)
	case "stake_poolBalance":
		s.handlePoolBalance(w, r, req)
	case "stake_apr":
		s.handleAPR(w, r, req)
	case "asset_get":
		s.handleAssetGet(w, r, req)
	case "asset_value":
		s.handleAssetValue(w, r, req)
	case "asset_byCreator":
		s.handleAssetsByCreator(w, r, req)
	case "market_getListing":
		s.handleGetListing(w, r, req)
	case "market_listed":
		s.handleListedAssets(w, r, req)
	case "access_hasRole":
		s.handleHasRole(w, r, req)
	case "admin_isPaused":
		s.handleIsPaused(w, r, req)
	default:
		writeError(w, http.StatusNotFound, req.ID, codeMethodNotFound, "unknown method", req.Method)
	}
}
