// ABOUTME: Store interfaces and data types for agentgate persistence
// ABOUTME: Defines Credential, FeedbackItem, Comment structs and the Store interface

package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a requested entity does not exist
var ErrNotFound = errors.New("not found")

// ErrDuplicateID is returned when trying to create an entity whose ID already exists
var ErrDuplicateID = errors.New("duplicate id")

// Credential represents one issued API key. The secret itself is never
// stored; KeyHash is the hex SHA-256 digest used for lookup.
type Credential struct {
	ID         string
	TenantID   string
	Name       string
	KeyHash    string
	Scopes     string // space-separated scope tokens, e.g. "read write"
	LastUsedAt *time.Time
	CreatedAt  time.Time
}

// Feedback status constants
const (
	FeedbackStatusOpen       = "open"
	FeedbackStatusPlanned    = "planned"
	FeedbackStatusInProgress = "in_progress"
	FeedbackStatusDone       = "done"
)

// FeedbackStatuses lists every valid feedback status, in lifecycle order.
var FeedbackStatuses = []string{
	FeedbackStatusOpen,
	FeedbackStatusPlanned,
	FeedbackStatusInProgress,
	FeedbackStatusDone,
}

// ValidFeedbackStatus reports whether s is a known feedback status.
func ValidFeedbackStatus(s string) bool {
	for _, v := range FeedbackStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// FeedbackItem represents a single piece of feedback belonging to a tenant
type FeedbackItem struct {
	ID          string
	TenantID    string
	Title       string
	Description string
	Status      string // open, planned, in_progress, done
	Votes       int
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Comment represents a comment on a feedback item
type Comment struct {
	ID         string
	FeedbackID string
	TenantID   string
	Author     string
	Body       string
	CreatedAt  time.Time
}

// FeedbackFilter narrows ListFeedback results. Zero values mean "no filter".
type FeedbackFilter struct {
	Status string
	Limit  int
	Offset int
}

// CredentialStore defines credential persistence operations
type CredentialStore interface {
	// CreateCredential stores a new credential
	CreateCredential(ctx context.Context, cred *Credential) error
	// GetCredentialByHash looks up a credential by its key digest
	GetCredentialByHash(ctx context.Context, keyHash string) (*Credential, error)
	// TouchCredential updates a credential's last-used timestamp
	TouchCredential(ctx context.Context, id string, usedAt time.Time) error
	// ListCredentials returns all credentials for a tenant
	ListCredentials(ctx context.Context, tenantID string) ([]*Credential, error)
}

// FeedbackStore defines feedback domain persistence operations.
// Every operation is tenant-scoped: records belonging to other tenants are
// invisible and yield ErrNotFound.
type FeedbackStore interface {
	CreateFeedback(ctx context.Context, item *FeedbackItem) error
	GetFeedback(ctx context.Context, tenantID, id string) (*FeedbackItem, error)
	ListFeedback(ctx context.Context, tenantID string, filter FeedbackFilter) ([]*FeedbackItem, error)
	SearchFeedback(ctx context.Context, tenantID, query string, limit int) ([]*FeedbackItem, error)
	UpdateFeedbackStatus(ctx context.Context, tenantID, id, status string) (*FeedbackItem, error)
	AddComment(ctx context.Context, comment *Comment) error
	ListComments(ctx context.Context, tenantID, feedbackID string) ([]*Comment, error)
	VoteFeedback(ctx context.Context, tenantID, id string) (*FeedbackItem, error)
}

// RateWindowStore provides the atomic fixed-window counter used by the
// store-backed rate limiter. The admit decision must be linearizable per
// key: two concurrent calls at the limit boundary may not both be admitted.
type RateWindowStore interface {
	// AdmitRateWindow atomically starts or advances the window for key.
	// Returns the post-decision count and the window start. The caller is
	// admitted when the returned count <= limit.
	AdmitRateWindow(ctx context.Context, key string, now time.Time, window time.Duration, limit int) (count int, windowStart time.Time, err error)
}

// Store is the full persistence interface for agentgate
type Store interface {
	CredentialStore
	FeedbackStore
	RateWindowStore

	Close() error
}
