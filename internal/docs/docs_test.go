// ABOUTME: Tests for the rendered tool reference page.

package docs

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quillboard/agentgate/internal/auth"
	"github.com/quillboard/agentgate/internal/tools"
)

func noopHandler(context.Context, map[string]any, auth.Context) (any, error) {
	return nil, nil
}

func newTestHandler(t *testing.T) *Handler {
	t.Helper()

	registry := tools.NewRegistry(nil)
	require.NoError(t, registry.Register(tools.Definition{
		Name:        "list_feedback",
		Description: "List feedback items.",
		Scope:       auth.ScopeRead,
		Params: []tools.ParamSpec{
			{Name: "status", Type: tools.ParamString, Enum: []string{"open", "done"}},
			{Name: "limit", Type: tools.ParamNumber, Minimum: tools.Float(1), Maximum: tools.Float(100), Default: float64(20)},
		},
	}, noopHandler))
	require.NoError(t, registry.Register(tools.Definition{
		Name:        "vote_feedback",
		Description: "Add one vote.",
		Scope:       auth.ScopeWrite,
		Params: []tools.ParamSpec{
			{Name: "feedback_id", Type: tools.ParamString, Required: true},
		},
	}, noopHandler))

	return NewHandler(registry, nil)
}

func TestDocsPageRendersToolCatalogue(t *testing.T) {
	h := newTestHandler(t)

	mux := http.NewServeMux()
	h.RegisterRoutes(mux)

	req := httptest.NewRequest(http.MethodGet, "/docs", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))

	body := rec.Body.String()
	assert.Contains(t, body, "<h1")
	assert.Contains(t, body, "list_feedback")
	assert.Contains(t, body, "vote_feedback")
	assert.Contains(t, body, "one of: open, done")
	assert.Contains(t, body, "default 20")
}

func TestDocsPageRejectsNonGET(t *testing.T) {
	h := newTestHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/docs", nil)
	rec := httptest.NewRecorder()
	h.handleDocs(rec, req)

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Equal(t, "GET", rec.Header().Get("Allow"))
}
