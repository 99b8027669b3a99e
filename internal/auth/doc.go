// Package auth authenticates agent callers of the tool-calling endpoint.
//
// # API Keys
//
// Callers authenticate with opaque bearer keys of the form qbk_<hex>. Keys
// are minted out-of-band (see the issue-key command) and stored only as hex
// SHA-256 digests; authentication hashes the presented key and looks the
// digest up in the credential store. The format check (prefix + minimum
// length) runs before any store access, and a malformed key is rejected
// with the same code and message as an unknown one.
//
// # Scopes
//
// Each credential carries a space-separated scope string granting "read"
// and/or "write". Unknown scope tokens are ignored during parsing so keys
// issued by newer servers keep working. Tools declare the scope they
// require; the dispatcher enforces it against the invocation Context.
//
// # Rate Limiting
//
// Authentication includes a fixed-window rate check keyed by credential ID.
// A rejected request carries retry_after plus the configured limit and
// window so automated callers can back off correctly.
//
// # Credential Extraction
//
// The Authorization header is preferred. A key embedded as an "api_key"
// tool argument is accepted for callers that cannot set headers; the
// tradeoff is that such secrets can appear in body-capturing logs.
package auth
