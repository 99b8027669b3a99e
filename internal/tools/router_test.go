// ABOUTME: Tests for the dispatcher: scope enforcement, validation, and error normalization.

package tools

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quillboard/agentgate/internal/auth"
	"github.com/quillboard/agentgate/internal/protocol"
)

func newTestRouter(t *testing.T, registry *Registry) *Router {
	t.Helper()
	router, err := NewRouter(RouterConfig{Registry: registry})
	require.NoError(t, err)
	return router
}

func readContext() auth.Context {
	return auth.Context{
		TenantID:     "tenant-1",
		CredentialID: "cred-1",
		Scopes:       []auth.Scope{auth.ScopeRead},
	}
}

func writeContext() auth.Context {
	return auth.Context{
		TenantID:     "tenant-1",
		CredentialID: "cred-1",
		Scopes:       []auth.Scope{auth.ScopeRead, auth.ScopeWrite},
	}
}

func TestExecuteUnknownToolListsAvailable(t *testing.T) {
	r := NewRegistry(nil)
	require.NoError(t, r.Register(Definition{Name: "list_feedback", Scope: auth.ScopeRead}, noopHandler))
	require.NoError(t, r.Register(Definition{Name: "submit_feedback", Scope: auth.ScopeWrite}, noopHandler))
	router := newTestRouter(t, r)

	_, err := router.Execute(context.Background(), "nonexistent", nil, readContext())
	require.NotNil(t, err)
	assert.Equal(t, protocol.CodeMethodNotFound, err.Code)

	data, ok := err.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, []string{"list_feedback", "submit_feedback"}, data["available_tools"])
}

func TestExecuteScopeEnforcement(t *testing.T) {
	r := NewRegistry(nil)
	require.NoError(t, r.Register(Definition{Name: "submit_feedback", Scope: auth.ScopeWrite}, noopHandler))
	router := newTestRouter(t, r)

	_, err := router.Execute(context.Background(), "submit_feedback", nil, readContext())
	require.NotNil(t, err)
	assert.Equal(t, protocol.CodeForbidden, err.Code)

	data, ok := err.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "write", data["required"])
	assert.Equal(t, []string{"read"}, data["granted"])

	// With write scope the call goes through
	_, err = router.Execute(context.Background(), "submit_feedback", nil, writeContext())
	assert.Nil(t, err)
}

func TestExecuteZeroScopeContextForbidden(t *testing.T) {
	r := NewRegistry(nil)
	require.NoError(t, r.Register(Definition{Name: "list_feedback", Scope: auth.ScopeRead}, noopHandler))
	router := newTestRouter(t, r)

	noScopes := auth.Context{TenantID: "tenant-1", CredentialID: "cred-1"}
	_, err := router.Execute(context.Background(), "list_feedback", nil, noScopes)
	require.NotNil(t, err)
	assert.Equal(t, protocol.CodeForbidden, err.Code)
}

func TestExecuteValidatesArguments(t *testing.T) {
	r := NewRegistry(nil)
	def := Definition{
		Name:  "get_feedback",
		Scope: auth.ScopeRead,
		Params: []ParamSpec{
			{Name: "feedback_id", Type: ParamString, Required: true},
		},
	}
	require.NoError(t, r.Register(def, noopHandler))
	router := newTestRouter(t, r)

	_, err := router.Execute(context.Background(), "get_feedback", map[string]any{}, readContext())
	require.NotNil(t, err)
	assert.Equal(t, protocol.CodeInvalidParams, err.Code)
	assert.Contains(t, err.Message, "feedback_id")
}

func TestExecuteAppliesDefaults(t *testing.T) {
	var seen map[string]any
	handler := func(_ context.Context, args map[string]any, _ auth.Context) (any, error) {
		seen = args
		return "ok", nil
	}

	r := NewRegistry(nil)
	def := Definition{
		Name:  "list_feedback",
		Scope: auth.ScopeRead,
		Params: []ParamSpec{
			{Name: "limit", Type: ParamNumber, Default: float64(20)},
		},
	}
	require.NoError(t, r.Register(def, handler))
	router := newTestRouter(t, r)

	result, err := router.Execute(context.Background(), "list_feedback", nil, readContext())
	require.Nil(t, err)
	assert.Equal(t, "ok", result)
	assert.Equal(t, float64(20), seen["limit"])
}

func TestExecutePropagatesDomainErrors(t *testing.T) {
	domainErr := protocol.NewErrorWithData(protocol.CodeNotFound, "feedback item not found",
		map[string]any{"feedback_id": "fb-404"})
	handler := func(context.Context, map[string]any, auth.Context) (any, error) {
		return nil, domainErr
	}

	r := NewRegistry(nil)
	require.NoError(t, r.Register(Definition{Name: "get_feedback", Scope: auth.ScopeRead}, handler))
	router := newTestRouter(t, r)

	_, err := router.Execute(context.Background(), "get_feedback", nil, readContext())
	require.NotNil(t, err)
	// Typed domain errors pass through verbatim
	assert.Equal(t, domainErr, err)
}

func TestExecuteWrapsInternalErrors(t *testing.T) {
	handler := func(context.Context, map[string]any, auth.Context) (any, error) {
		return nil, errors.New("pq: connection reset by peer")
	}

	r := NewRegistry(nil)
	require.NoError(t, r.Register(Definition{Name: "list_feedback", Scope: auth.ScopeRead}, handler))
	router := newTestRouter(t, r)

	_, err := router.Execute(context.Background(), "list_feedback", nil, readContext())
	require.NotNil(t, err)
	assert.Equal(t, protocol.CodeInternalError, err.Code)
	// Raw internal detail never reaches the caller
	assert.NotContains(t, err.Message, "connection reset")
}

func TestExecuteRecoversHandlerPanic(t *testing.T) {
	handler := func(context.Context, map[string]any, auth.Context) (any, error) {
		panic("handler bug")
	}

	r := NewRegistry(nil)
	require.NoError(t, r.Register(Definition{Name: "list_feedback", Scope: auth.ScopeRead}, handler))
	router := newTestRouter(t, r)

	result, err := router.Execute(context.Background(), "list_feedback", nil, readContext())
	require.NotNil(t, err)
	assert.Nil(t, result)
	assert.Equal(t, protocol.CodeInternalError, err.Code)
}
