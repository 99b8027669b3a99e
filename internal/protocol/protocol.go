// ABOUTME: JSON-RPC 2.0 envelope types and error codes for the tool-calling endpoint.
// ABOUTME: Defines the typed Error used across the auth/dispatch chain.

package protocol

import "encoding/json"

// Version is the JSON-RPC protocol version tag carried in every envelope.
const Version = "2.0"

// Standard JSON-RPC error codes.
const (
	CodeParseError     = -32700
	CodeInvalidRequest = -32600
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeInternalError  = -32603
)

// Server-defined error codes. Fixed integers; agent callers pattern-match on them.
const (
	CodeUnauthorized    = -32000
	CodeForbidden       = -32001
	CodeNotFound        = -32002
	CodeRateLimited     = -32003
	CodeValidationError = -32004
)

// Request is a JSON-RPC 2.0 request envelope. ID is kept as raw JSON so the
// response echoes it back with the original type (string stays string,
// number stays number).
type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// Response is a JSON-RPC 2.0 response envelope.
type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  any             `json:"result,omitempty"`
	Error   *Error          `json:"error,omitempty"`
}

// Error is the single typed error flowing through the authenticator and
// dispatcher. It doubles as the wire-level JSON-RPC error object.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	return e.Message
}

// NewError creates an Error with no attached data.
func NewError(code int, message string) *Error {
	return &Error{Code: code, Message: message}
}

// NewErrorWithData creates an Error carrying diagnostic data.
func NewErrorWithData(code int, message string, data any) *Error {
	return &Error{Code: code, Message: message, Data: data}
}

// CallToolParams are the params for tools/call.
type CallToolParams struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments,omitempty"`
}
