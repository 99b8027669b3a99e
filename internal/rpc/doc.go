// Package rpc is the JSON-RPC 2.0 front door for external agent callers.
//
// A single endpoint accepts POST with a JSON-RPC envelope; GET on the same
// path returns the static capability document. The four methods are
// initialize, tools/list, tools/call, and ping; only tools/call requires
// authentication. Method routing uses a dispatch table built once at
// construction.
//
// # Envelope Rules
//
// Request ids are kept as raw JSON and echoed back byte-for-byte, so a
// string id stays a string and a numeric id stays a number. Failures
// before the envelope is understood (malformed JSON, missing version,
// method, or id) respond with a null id. Wrong HTTP methods are rejected
// at the transport layer with 405 before any envelope work.
//
// # Error Contract
//
// Every post-transport failure is serialized as a JSON-RPC error envelope
// with one of the fixed codes in the protocol package. Automated callers
// pattern-match on error.code; messages and data are advisory. All
// responses carry wildcard CORS headers because the endpoint exists for
// third-party agents.
package rpc
