// ABOUTME: JSON-RPC 2.0 HTTP front door for the tool-calling endpoint.
// ABOUTME: Parses envelopes, routes methods, and serializes every outcome as a valid response.

package rpc

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/quillboard/agentgate/internal/auth"
	"github.com/quillboard/agentgate/internal/metrics"
	"github.com/quillboard/agentgate/internal/protocol"
	"github.com/quillboard/agentgate/internal/tools"
)

// ServerName and ServerVersion identify this server in the initialize
// handshake and the discovery document.
const (
	ServerName        = "quillboard-agentgate"
	ServerVersion     = "1.0.0"
	ServerDescription = "Tool-calling endpoint for the Quillboard feedback platform. Exposes feedback tools to AI agent callers over JSON-RPC 2.0."
)

// MaxRequestBodySize is the maximum allowed size for request bodies (1MB).
const MaxRequestBodySize = 1 << 20

// Config holds configuration for the RPC server.
type Config struct {
	Registry      *tools.Registry
	Router        *tools.Router
	Authenticator *auth.Authenticator
	Logger        *slog.Logger
	Metrics       *metrics.Metrics // optional
}

// Server implements the JSON-RPC endpoint and the discovery document.
type Server struct {
	registry      *tools.Registry
	router        *tools.Router
	authenticator *auth.Authenticator
	logger        *slog.Logger
	metrics       *metrics.Metrics

	// methods is the dispatch table, built once at construction so routing
	// is a map lookup instead of stringly-typed control flow.
	methods map[string]methodHandler
}

// methodHandler processes one parsed JSON-RPC request and returns either a
// result or a typed error. The front door wraps whichever comes back into
// the response envelope.
type methodHandler func(r *http.Request, req protocol.Request) (any, *protocol.Error)

// NewServer creates a new RPC server with the given configuration.
func NewServer(cfg Config) (*Server, error) {
	if cfg.Registry == nil {
		return nil, errors.New("registry is required")
	}
	if cfg.Router == nil {
		return nil, errors.New("router is required")
	}
	if cfg.Authenticator == nil {
		return nil, errors.New("authenticator is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		registry:      cfg.Registry,
		router:        cfg.Router,
		authenticator: cfg.Authenticator,
		logger:        logger,
		metrics:       cfg.Metrics,
	}

	s.methods = map[string]methodHandler{
		"initialize": s.handleInitialize,
		"tools/list": s.handleToolsList,
		"tools/call": s.handleToolsCall,
		"ping":       s.handlePing,
	}

	return s, nil
}

// RegisterRoutes registers the RPC and health endpoints on the given ServeMux.
func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/mcp", s.handleRPC)
	mux.HandleFunc("/healthz", s.handleHealth)
}

// handleRPC is the single tool-calling endpoint: POST carries JSON-RPC,
// GET returns the discovery document.
func (s *Server) handleRPC(w http.ResponseWriter, r *http.Request) {
	setCORSHeaders(w)

	switch r.Method {
	case http.MethodPost:
		s.handlePost(w, r)
	case http.MethodGet:
		s.handleDiscovery(w, r)
	case http.MethodOptions:
		// CORS preflight
		w.WriteHeader(http.StatusNoContent)
	default:
		w.Header().Set("Allow", "POST, GET, OPTIONS")
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
	}
}

// handleHealth is a trivial liveness endpoint.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	setCORSHeaders(w)
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

// setCORSHeaders allows cross-origin access from any caller; the endpoint
// exists for third-party agents.
func setCORSHeaders(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
}

// handlePost processes one JSON-RPC message sent via HTTP POST. Every
// failure past the transport layer produces a valid JSON-RPC error
// envelope; callers never see a bare HTTP error for business logic.
func (s *Server) handlePost(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, MaxRequestBodySize+1))
	if err != nil {
		s.sendError(w, nil, protocol.NewError(protocol.CodeParseError, "failed to read request body"))
		return
	}
	if int64(len(body)) > MaxRequestBodySize {
		s.sendError(w, nil, protocol.NewError(protocol.CodeInvalidRequest, "request body too large"))
		return
	}

	var req protocol.Request
	if err := json.Unmarshal(body, &req); err != nil {
		s.sendError(w, nil, protocol.NewError(protocol.CodeParseError, "invalid JSON"))
		return
	}

	// Envelope shape: version tag, method, and a string-or-number id. The
	// id is unknown or unusable on these failures, so it echoes as null.
	if req.JSONRPC != protocol.Version {
		s.sendError(w, nil, protocol.NewError(protocol.CodeInvalidRequest, "invalid or missing jsonrpc version"))
		return
	}
	if req.Method == "" {
		s.sendError(w, nil, protocol.NewError(protocol.CodeInvalidRequest, "missing method"))
		return
	}
	if !validRequestID(req.ID) {
		s.sendError(w, nil, protocol.NewError(protocol.CodeInvalidRequest, "id must be a string or number"))
		return
	}

	s.logger.Debug("rpc request", "method", req.Method)

	handler, ok := s.methods[req.Method]
	if !ok {
		s.metrics.RecordRequest(req.Method, "error")
		s.sendError(w, req.ID, protocol.NewError(protocol.CodeMethodNotFound, "method not found"))
		return
	}

	result, rpcErr := handler(r, req)
	if rpcErr != nil {
		s.metrics.RecordRequest(req.Method, "error")
		s.sendError(w, req.ID, rpcErr)
		return
	}

	s.metrics.RecordRequest(req.Method, "ok")
	s.sendResult(w, req.ID, result)
}

// validRequestID reports whether the raw id is present and is a JSON
// string or number. Null, objects, arrays, and booleans are rejected.
func validRequestID(id json.RawMessage) bool {
	if len(id) == 0 {
		return false
	}
	switch id[0] {
	case '"':
		return true
	case '-', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
		return true
	default:
		return false
	}
}

// handleInitialize handles the protocol handshake. No auth required.
func (s *Server) handleInitialize(_ *http.Request, _ protocol.Request) (any, *protocol.Error) {
	return map[string]any{
		"protocolVersion": "2025-03-26",
		"capabilities": map[string]any{
			"tools": map[string]any{},
		},
		"serverInfo": map[string]any{
			"name":    ServerName,
			"version": ServerVersion,
		},
	}, nil
}

// handlePing is a trivial liveness echo. No auth required.
func (s *Server) handlePing(_ *http.Request, _ protocol.Request) (any, *protocol.Error) {
	return map[string]any{"pong": true}, nil
}

// toolInfo is the wire shape of one tool in tools/list.
type toolInfo struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Scope       string         `json:"scope"`
	InputSchema map[string]any `json:"inputSchema"`
}

// handleToolsList returns the public tool catalogue. Definitions contain no
// secrets, so no auth is required.
func (s *Server) handleToolsList(_ *http.Request, _ protocol.Request) (any, *protocol.Error) {
	defs := s.registry.Definitions()
	infos := make([]toolInfo, len(defs))
	for i, def := range defs {
		infos[i] = toolInfo{
			Name:        def.Name,
			Description: def.Description,
			Scope:       string(def.Scope),
			InputSchema: def.InputSchema(),
		}
	}
	return map[string]any{"tools": infos}, nil
}

// handleToolsCall authenticates the caller and dispatches the tool call.
func (s *Server) handleToolsCall(r *http.Request, req protocol.Request) (any, *protocol.Error) {
	var params protocol.CallToolParams
	if len(req.Params) > 0 {
		if err := json.Unmarshal(req.Params, &params); err != nil {
			return nil, protocol.NewError(protocol.CodeInvalidParams, "invalid params")
		}
	}

	if params.Name == "" {
		return nil, protocol.NewError(protocol.CodeInvalidParams, "tool name is required")
	}

	args := map[string]any{}
	if len(params.Arguments) > 0 && string(params.Arguments) != "null" {
		if err := json.Unmarshal(params.Arguments, &args); err != nil {
			return nil, protocol.NewError(protocol.CodeInvalidParams, "arguments must be an object")
		}
	}

	rawKey := auth.ExtractKey(r.Header.Get("Authorization"), args)
	// Strip an embedded credential so it never reaches validators or handlers.
	delete(args, "api_key")

	ictx, authErr := s.authenticator.Authenticate(r.Context(), rawKey)
	if authErr != nil {
		switch authErr.Code {
		case protocol.CodeRateLimited:
			s.metrics.RecordRateLimited()
		case protocol.CodeUnauthorized, protocol.CodeForbidden:
			s.metrics.RecordAuthFailure()
		}
		return nil, authErr
	}

	result, execErr := s.router.Execute(r.Context(), params.Name, args, ictx)
	if execErr != nil {
		s.metrics.RecordToolCall(params.Name, "error")
		return nil, execErr
	}

	s.metrics.RecordToolCall(params.Name, "ok")
	return result, nil
}

// sendResult sends a successful JSON-RPC response.
func (s *Server) sendResult(w http.ResponseWriter, id json.RawMessage, result any) {
	resp := protocol.Response{
		JSONRPC: protocol.Version,
		ID:      id,
		Result:  result,
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		s.logger.Warn("failed to encode JSON-RPC response", "error", err)
	}
}

// sendError sends a JSON-RPC error response. A nil id encodes as null.
func (s *Server) sendError(w http.ResponseWriter, id json.RawMessage, rpcErr *protocol.Error) {
	if id == nil {
		id = json.RawMessage("null")
	}
	resp := protocol.Response{
		JSONRPC: protocol.Version,
		ID:      id,
		Error:   rpcErr,
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		s.logger.Warn("failed to encode JSON-RPC error response", "error", err)
	}
}
