// ABOUTME: API key authentication combining format check, digest lookup, and rate limiting
// ABOUTME: Produces an invocation Context or a typed protocol error, never a panic

package auth

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/quillboard/agentgate/internal/protocol"
	"github.com/quillboard/agentgate/internal/ratelimit"
	"github.com/quillboard/agentgate/internal/store"
)

// invalidKeyMessage is shared by the format-check and lookup failure paths
// so the response does not reveal which of the two rejected the key.
const invalidKeyMessage = "invalid API key"

// touchTimeout bounds the best-effort last-used update.
const touchTimeout = 5 * time.Second

// Authenticator validates raw API keys and produces invocation contexts.
type Authenticator struct {
	creds   store.CredentialStore
	limiter ratelimit.Limiter
	logger  *slog.Logger

	limit  int
	window time.Duration
	now    func() time.Time
}

// Config holds configuration for the Authenticator.
type Config struct {
	Credentials store.CredentialStore
	Limiter     ratelimit.Limiter
	Logger      *slog.Logger
	// RateLimit and RateWindow are echoed in rate-limit rejections so
	// callers can tune their backoff.
	RateLimit  int
	RateWindow time.Duration
}

// NewAuthenticator creates an Authenticator with the given configuration.
func NewAuthenticator(cfg Config) (*Authenticator, error) {
	if cfg.Credentials == nil {
		return nil, errors.New("credential store is required")
	}
	if cfg.Limiter == nil {
		return nil, errors.New("rate limiter is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Authenticator{
		creds:   cfg.Credentials,
		limiter: cfg.Limiter,
		logger:  logger,
		limit:   cfg.RateLimit,
		window:  cfg.RateWindow,
		now:     time.Now,
	}, nil
}

// ExtractKey picks the raw API key out of transport metadata. The
// Authorization header wins; a key embedded in the tool-call arguments is
// accepted for callers that cannot set headers. Returns "" when neither is
// present.
//
// Argument-embedded keys mean the secret may show up in any log that
// captures request bodies. Deliberate convenience tradeoff.
func ExtractKey(authorization string, args map[string]any) string {
	if authorization != "" {
		key := strings.TrimPrefix(authorization, "Bearer ")
		key = strings.TrimSpace(key)
		if key != "" {
			return key
		}
	}
	if embedded, ok := args["api_key"].(string); ok {
		return strings.TrimSpace(embedded)
	}
	return ""
}

// Authenticate validates a raw key and returns the invocation context.
// Every failure is a *protocol.Error ready for the wire.
func (a *Authenticator) Authenticate(ctx context.Context, rawKey string) (Context, *protocol.Error) {
	if rawKey == "" {
		return Context{}, protocol.NewError(protocol.CodeUnauthorized,
			"missing API key: supply an Authorization bearer header or an api_key argument")
	}

	// Fail fast on format before touching the store. Same code and message
	// as an unknown key; only the data hint differs.
	if !ValidFormat(rawKey) {
		return Context{}, protocol.NewErrorWithData(protocol.CodeUnauthorized, invalidKeyMessage,
			map[string]any{"expected_prefix": KeyPrefix})
	}

	cred, err := a.creds.GetCredentialByHash(ctx, HashKey(rawKey))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return Context{}, protocol.NewError(protocol.CodeUnauthorized, invalidKeyMessage)
		}
		a.logger.Error("credential lookup failed", "error", err)
		return Context{}, protocol.NewError(protocol.CodeInternalError, "internal error")
	}

	if cred.TenantID == "" {
		return Context{}, protocol.NewError(protocol.CodeForbidden, "key not scoped to a tenant")
	}

	scopes := ParseScopes(cred.Scopes)

	decision, err := a.limiter.Allow(ctx, cred.ID)
	if err != nil {
		a.logger.Error("rate limit check failed", "error", err, "credential_id", cred.ID)
		return Context{}, protocol.NewError(protocol.CodeInternalError, "internal error")
	}
	if !decision.Allowed {
		return Context{}, protocol.NewErrorWithData(protocol.CodeRateLimited, "rate limit exceeded",
			map[string]any{
				"retry_after":    decision.RetryAfter(a.now()),
				"limit":          a.limit,
				"window_seconds": int(a.window.Seconds()),
			})
	}

	// Best effort: a failed timestamp update must not fail the request.
	go a.touch(cred.ID)

	a.logger.Debug("authenticated",
		"credential_id", cred.ID,
		"tenant_id", cred.TenantID,
		"scopes", cred.Scopes,
		"remaining", decision.Remaining,
	)

	return Context{
		TenantID:     cred.TenantID,
		CredentialID: cred.ID,
		Scopes:       scopes,
		Remaining:    decision.Remaining,
	}, nil
}

func (a *Authenticator) touch(credentialID string) {
	ctx, cancel := context.WithTimeout(context.Background(), touchTimeout)
	defer cancel()

	if err := a.creds.TouchCredential(ctx, credentialID, a.now()); err != nil {
		a.logger.Warn("failed to update credential last_used_at",
			"credential_id", credentialID,
			"error", err,
		)
	}
}
