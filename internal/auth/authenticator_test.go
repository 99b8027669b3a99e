// ABOUTME: Tests for API key authentication including rate limiting and scope parsing.
// ABOUTME: Uses the mock store's call counters to verify fail-fast behavior.

package auth

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quillboard/agentgate/internal/protocol"
	"github.com/quillboard/agentgate/internal/ratelimit"
	"github.com/quillboard/agentgate/internal/store"
)

const testWindow = time.Minute

func newTestAuthenticator(t *testing.T, mock *store.MockStore, limit int) *Authenticator {
	t.Helper()
	a, err := NewAuthenticator(Config{
		Credentials: mock,
		Limiter:     ratelimit.NewMemoryLimiter(limit, testWindow),
		RateLimit:   limit,
		RateWindow:  testWindow,
	})
	require.NoError(t, err)
	return a
}

// seedCredential stores a credential for rawKey and returns it.
func seedCredential(t *testing.T, mock *store.MockStore, rawKey, tenantID, scopes string) *store.Credential {
	t.Helper()
	cred := &store.Credential{
		ID:        "cred-" + tenantID,
		TenantID:  tenantID,
		Name:      "test key",
		KeyHash:   HashKey(rawKey),
		Scopes:    scopes,
		CreatedAt: time.Now(),
	}
	require.NoError(t, mock.CreateCredential(context.Background(), cred))
	return cred
}

func validTestKey(seed string) string {
	return KeyPrefix + seed + strings.Repeat("0", 20)
}

func TestAuthenticateMissingKey(t *testing.T) {
	a := newTestAuthenticator(t, store.NewMockStore(), 10)

	_, authErr := a.Authenticate(context.Background(), "")
	require.NotNil(t, authErr)
	assert.Equal(t, protocol.CodeUnauthorized, authErr.Code)
}

func TestAuthenticateBadFormatSkipsStore(t *testing.T) {
	mock := store.NewMockStore()
	a := newTestAuthenticator(t, mock, 10)

	_, authErr := a.Authenticate(context.Background(), "sk_wrongprefix0000000000000")
	require.NotNil(t, authErr)
	assert.Equal(t, protocol.CodeUnauthorized, authErr.Code)
	assert.Equal(t, 0, mock.GetCredentialByHashCalls,
		"format failures must not reach the credential store")

	// The data hint names the expected prefix
	data, ok := authErr.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, KeyPrefix, data["expected_prefix"])
}

func TestAuthenticateUnknownKeyMatchesFormatFailureShape(t *testing.T) {
	mock := store.NewMockStore()
	a := newTestAuthenticator(t, mock, 10)

	_, formatErr := a.Authenticate(context.Background(), "bad")
	_, unknownErr := a.Authenticate(context.Background(), validTestKey("unknown"))

	require.NotNil(t, formatErr)
	require.NotNil(t, unknownErr)
	assert.Equal(t, 1, mock.GetCredentialByHashCalls, "well-formed keys do reach the store")

	// Same code and message either way; the caller cannot tell which check
	// rejected the key
	assert.Equal(t, formatErr.Code, unknownErr.Code)
	assert.Equal(t, formatErr.Message, unknownErr.Message)
}

func TestAuthenticateTenantlessKeyForbidden(t *testing.T) {
	mock := store.NewMockStore()
	rawKey := validTestKey("orphan")
	seedCredential(t, mock, rawKey, "", "read")
	a := newTestAuthenticator(t, mock, 10)

	_, authErr := a.Authenticate(context.Background(), rawKey)
	require.NotNil(t, authErr)
	assert.Equal(t, protocol.CodeForbidden, authErr.Code)
	assert.Contains(t, authErr.Message, "tenant")
}

func TestAuthenticateSuccess(t *testing.T) {
	mock := store.NewMockStore()
	rawKey := validTestKey("good")
	cred := seedCredential(t, mock, rawKey, "tenant-1", "read write")
	a := newTestAuthenticator(t, mock, 10)

	ictx, authErr := a.Authenticate(context.Background(), rawKey)
	require.Nil(t, authErr)

	assert.Equal(t, "tenant-1", ictx.TenantID)
	assert.Equal(t, cred.ID, ictx.CredentialID)
	assert.Equal(t, []Scope{ScopeRead, ScopeWrite}, ictx.Scopes)
	assert.Equal(t, 9, ictx.Remaining)

	// Last-used update is async and best-effort
	require.Eventually(t, func() bool {
		return mock.TouchCredentialCalls > 0
	}, time.Second, 10*time.Millisecond, "touch should eventually run")
}

func TestAuthenticateTouchFailureDoesNotFailRequest(t *testing.T) {
	mock := store.NewMockStore()
	mock.TouchErr = context.DeadlineExceeded
	rawKey := validTestKey("touchfail")
	seedCredential(t, mock, rawKey, "tenant-1", "read")
	a := newTestAuthenticator(t, mock, 10)

	_, authErr := a.Authenticate(context.Background(), rawKey)
	assert.Nil(t, authErr)
}

func TestAuthenticateUnknownScopesIgnored(t *testing.T) {
	mock := store.NewMockStore()
	rawKey := validTestKey("future")
	seedCredential(t, mock, rawKey, "tenant-1", "read export admin")
	a := newTestAuthenticator(t, mock, 10)

	ictx, authErr := a.Authenticate(context.Background(), rawKey)
	require.Nil(t, authErr)
	assert.Equal(t, []Scope{ScopeRead}, ictx.Scopes)
}

func TestAuthenticateRateLimited(t *testing.T) {
	mock := store.NewMockStore()
	rawKey := validTestKey("limited")
	seedCredential(t, mock, rawKey, "tenant-1", "read")
	a := newTestAuthenticator(t, mock, 2)

	ctx := context.Background()
	_, authErr := a.Authenticate(ctx, rawKey)
	require.Nil(t, authErr)
	_, authErr = a.Authenticate(ctx, rawKey)
	require.Nil(t, authErr)

	_, authErr = a.Authenticate(ctx, rawKey)
	require.NotNil(t, authErr)
	assert.Equal(t, protocol.CodeRateLimited, authErr.Code)

	data, ok := authErr.Data.(map[string]any)
	require.True(t, ok)
	retryAfter, ok := data["retry_after"].(int)
	require.True(t, ok)
	assert.Greater(t, retryAfter, 0)
	assert.Equal(t, 2, data["limit"])
	assert.Equal(t, 60, data["window_seconds"])
}

func TestExtractKey(t *testing.T) {
	tests := []struct {
		name          string
		authorization string
		args          map[string]any
		want          string
	}{
		{"bearer header", "Bearer qbk_abc", nil, "qbk_abc"},
		{"raw header without scheme", "qbk_abc", nil, "qbk_abc"},
		{"header wins over args", "Bearer qbk_header", map[string]any{"api_key": "qbk_args"}, "qbk_header"},
		{"args fallback", "", map[string]any{"api_key": "qbk_args"}, "qbk_args"},
		{"args non-string ignored", "", map[string]any{"api_key": 42}, ""},
		{"neither", "", nil, ""},
		{"empty bearer", "Bearer ", map[string]any{"api_key": "qbk_args"}, "qbk_args"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractKey(tt.authorization, tt.args))
		})
	}
}

func TestContextHasScope(t *testing.T) {
	ictx := Context{Scopes: []Scope{ScopeRead}}
	assert.True(t, ictx.HasScope(ScopeRead))
	assert.False(t, ictx.HasScope(ScopeWrite))

	empty := Context{}
	assert.False(t, empty.HasScope(ScopeRead))
	assert.False(t, empty.HasScope(ScopeWrite))
}
