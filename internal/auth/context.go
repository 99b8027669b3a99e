// ABOUTME: Invocation context and scope set produced by successful authentication
// ABOUTME: Passed by value into the dispatcher and tool handlers, never persisted

package auth

import "strings"

// Scope is a coarse permission tag required to invoke a tool.
type Scope string

// Known scopes. Unknown tokens in a stored scope string are ignored during
// parsing so older servers tolerate keys issued with newer scopes.
const (
	ScopeRead  Scope = "read"
	ScopeWrite Scope = "write"
)

// Context is the ephemeral invocation context for one authenticated request.
type Context struct {
	TenantID     string
	CredentialID string
	Scopes       []Scope
	// Remaining is the number of requests left in the current rate window
	// after this one.
	Remaining int
}

// HasScope reports whether the context grants the given scope.
func (c Context) HasScope(s Scope) bool {
	for _, have := range c.Scopes {
		if have == s {
			return true
		}
	}
	return false
}

// ScopeStrings returns the granted scopes as plain strings, for error
// payloads and logging.
func (c Context) ScopeStrings() []string {
	out := make([]string, len(c.Scopes))
	for i, s := range c.Scopes {
		out[i] = string(s)
	}
	return out
}

// ParseScopes converts a stored space-separated scope string into a scope
// set. Unrecognized tokens are dropped, not rejected.
func ParseScopes(raw string) []Scope {
	var scopes []Scope
	for _, tok := range strings.Fields(raw) {
		switch Scope(tok) {
		case ScopeRead, ScopeWrite:
			scopes = append(scopes, Scope(tok))
		}
	}
	return scopes
}
