// ABOUTME: Dispatches validated tool calls to their handlers.
// ABOUTME: Normalizes every outcome into a result or a typed protocol error.

package tools

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/quillboard/agentgate/internal/auth"
	"github.com/quillboard/agentgate/internal/protocol"
)

// Router executes tool calls against the registry: lookup, scope
// enforcement, argument validation, handler invocation, and error
// normalization.
type Router struct {
	registry *Registry
	logger   *slog.Logger
}

// RouterConfig contains configuration options for the Router.
type RouterConfig struct {
	Registry *Registry
	Logger   *slog.Logger
}

// NewRouter creates a new Router with the given configuration.
func NewRouter(cfg RouterConfig) (*Router, error) {
	if cfg.Registry == nil {
		return nil, errors.New("registry is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{
		registry: cfg.Registry,
		logger:   logger,
	}, nil
}

// Execute runs the named tool for an authenticated caller. Domain errors
// raised by handlers as *protocol.Error pass through verbatim; any other
// handler failure is logged server-side and reported as a generic internal
// error so raw internals never reach the caller.
func (r *Router) Execute(ctx context.Context, name string, args map[string]any, ictx auth.Context) (result any, rpcErr *protocol.Error) {
	entry, ok := r.registry.Lookup(name)
	if !ok {
		return nil, protocol.NewErrorWithData(protocol.CodeMethodNotFound,
			fmt.Sprintf("unknown tool %q", name),
			map[string]any{"available_tools": r.registry.Names()})
	}

	def := entry.Definition

	if !ictx.HasScope(def.Scope) {
		return nil, protocol.NewErrorWithData(protocol.CodeForbidden,
			fmt.Sprintf("tool %q requires the %q scope", name, def.Scope),
			map[string]any{
				"required": string(def.Scope),
				"granted":  ictx.ScopeStrings(),
			})
	}

	if args == nil {
		args = map[string]any{}
	}
	if verr := Validate(args, def.Params); verr != nil {
		return nil, verr
	}
	args = ApplyDefaults(args, def.Params)

	// A panicking handler must still yield a valid error envelope.
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("tool handler panicked",
				"tool_name", name,
				"tenant_id", ictx.TenantID,
				"panic", rec,
			)
			result = nil
			rpcErr = protocol.NewError(protocol.CodeInternalError, "tool execution failed")
		}
	}()

	r.logger.Debug("→ dispatching tool call",
		"tool_name", name,
		"tenant_id", ictx.TenantID,
		"credential_id", ictx.CredentialID,
	)

	out, err := entry.Handler(ctx, args, ictx)
	if err != nil {
		var typed *protocol.Error
		if errors.As(err, &typed) {
			return nil, typed
		}
		r.logger.Warn("tool execution failed",
			"tool_name", name,
			"tenant_id", ictx.TenantID,
			"error", err,
		)
		return nil, protocol.NewError(protocol.CodeInternalError, "tool execution failed")
	}

	r.logger.Debug("← tool call complete", "tool_name", name, "tenant_id", ictx.TenantID)
	return out, nil
}
