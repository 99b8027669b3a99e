// ABOUTME: Mock Store implementation for testing
// ABOUTME: Allows tests to run without SQLite and to assert call counts

package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"
)

// MockStore is an in-memory Store implementation for testing.
// Call counters let tests assert how often lookups happen (e.g. that a
// malformed key never reaches the credential store).
type MockStore struct {
	mu          sync.RWMutex
	credentials map[string]*Credential   // keyed by credential ID
	credByHash  map[string]string        // key hash -> credential ID
	feedback    map[string]*FeedbackItem // keyed by feedback ID
	comments    map[string][]*Comment    // keyed by feedback ID
	windows     map[string]*mockWindow   // keyed by rate key

	// Call counters
	GetCredentialByHashCalls int
	TouchCredentialCalls     int

	// Error overrides for failure-path tests
	TouchErr error
}

type mockWindow struct {
	count int
	start time.Time
}

// NewMockStore creates a new MockStore.
func NewMockStore() *MockStore {
	return &MockStore{
		credentials: make(map[string]*Credential),
		credByHash:  make(map[string]string),
		feedback:    make(map[string]*FeedbackItem),
		comments:    make(map[string][]*Comment),
		windows:     make(map[string]*mockWindow),
	}
}

// CreateCredential stores a new credential.
func (m *MockStore) CreateCredential(ctx context.Context, cred *Credential) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.credentials[cred.ID]; exists {
		return ErrDuplicateID
	}
	if _, exists := m.credByHash[cred.KeyHash]; exists {
		return ErrDuplicateID
	}

	// Make a copy to avoid external modification
	c := *cred
	m.credentials[c.ID] = &c
	m.credByHash[c.KeyHash] = c.ID
	return nil
}

// GetCredentialByHash looks up a credential by its key digest.
func (m *MockStore) GetCredentialByHash(ctx context.Context, keyHash string) (*Credential, error) {
	m.mu.Lock()
	m.GetCredentialByHashCalls++
	m.mu.Unlock()

	m.mu.RLock()
	defer m.mu.RUnlock()

	id, ok := m.credByHash[keyHash]
	if !ok {
		return nil, ErrNotFound
	}
	c := *m.credentials[id]
	return &c, nil
}

// TouchCredential updates a credential's last-used timestamp.
func (m *MockStore) TouchCredential(ctx context.Context, id string, usedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.TouchCredentialCalls++
	if m.TouchErr != nil {
		return m.TouchErr
	}

	cred, ok := m.credentials[id]
	if !ok {
		return ErrNotFound
	}
	t := usedAt
	cred.LastUsedAt = &t
	return nil
}

// ListCredentials returns all credentials for a tenant, newest first.
func (m *MockStore) ListCredentials(ctx context.Context, tenantID string) ([]*Credential, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var creds []*Credential
	for _, cred := range m.credentials {
		if cred.TenantID == tenantID {
			c := *cred
			creds = append(creds, &c)
		}
	}
	sort.Slice(creds, func(i, j int) bool {
		return creds[i].CreatedAt.After(creds[j].CreatedAt)
	})
	return creds, nil
}

// CreateFeedback stores a new feedback item.
func (m *MockStore) CreateFeedback(ctx context.Context, item *FeedbackItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.feedback[item.ID]; exists {
		return ErrDuplicateID
	}
	i := *item
	m.feedback[i.ID] = &i
	return nil
}

// GetFeedback retrieves a feedback item scoped to a tenant.
func (m *MockStore) GetFeedback(ctx context.Context, tenantID, id string) (*FeedbackItem, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	item, ok := m.feedback[id]
	if !ok || item.TenantID != tenantID {
		return nil, ErrNotFound
	}
	i := *item
	return &i, nil
}

// ListFeedback returns a tenant's feedback items, newest first.
func (m *MockStore) ListFeedback(ctx context.Context, tenantID string, filter FeedbackFilter) ([]*FeedbackItem, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var items []*FeedbackItem
	for _, item := range m.feedback {
		if item.TenantID != tenantID {
			continue
		}
		if filter.Status != "" && item.Status != filter.Status {
			continue
		}
		i := *item
		items = append(items, &i)
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].CreatedAt.After(items[j].CreatedAt)
	})

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	if filter.Offset >= len(items) {
		return nil, nil
	}
	items = items[filter.Offset:]
	if len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

// SearchFeedback returns items whose title or description contains the query.
func (m *MockStore) SearchFeedback(ctx context.Context, tenantID, query string, limit int) ([]*FeedbackItem, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if limit <= 0 {
		limit = 50
	}
	q := strings.ToLower(query)

	var items []*FeedbackItem
	for _, item := range m.feedback {
		if item.TenantID != tenantID {
			continue
		}
		if strings.Contains(strings.ToLower(item.Title), q) ||
			strings.Contains(strings.ToLower(item.Description), q) {
			i := *item
			items = append(items, &i)
		}
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].CreatedAt.After(items[j].CreatedAt)
	})
	if len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

// UpdateFeedbackStatus sets a feedback item's status.
func (m *MockStore) UpdateFeedbackStatus(ctx context.Context, tenantID, id, status string) (*FeedbackItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	item, ok := m.feedback[id]
	if !ok || item.TenantID != tenantID {
		return nil, ErrNotFound
	}
	item.Status = status
	item.UpdatedAt = time.Now()
	i := *item
	return &i, nil
}

// AddComment stores a new comment on a feedback item.
func (m *MockStore) AddComment(ctx context.Context, comment *Comment) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	item, ok := m.feedback[comment.FeedbackID]
	if !ok || item.TenantID != comment.TenantID {
		return ErrNotFound
	}
	c := *comment
	m.comments[c.FeedbackID] = append(m.comments[c.FeedbackID], &c)
	return nil
}

// ListComments returns a feedback item's comments, oldest first.
func (m *MockStore) ListComments(ctx context.Context, tenantID, feedbackID string) ([]*Comment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var comments []*Comment
	for _, c := range m.comments[feedbackID] {
		if c.TenantID != tenantID {
			continue
		}
		cc := *c
		comments = append(comments, &cc)
	}
	sort.Slice(comments, func(i, j int) bool {
		return comments[i].CreatedAt.Before(comments[j].CreatedAt)
	})
	return comments, nil
}

// VoteFeedback increments a feedback item's vote count.
func (m *MockStore) VoteFeedback(ctx context.Context, tenantID, id string) (*FeedbackItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	item, ok := m.feedback[id]
	if !ok || item.TenantID != tenantID {
		return nil, ErrNotFound
	}
	item.Votes++
	item.UpdatedAt = time.Now()
	i := *item
	return &i, nil
}

// AdmitRateWindow implements the fixed-window counter in memory.
func (m *MockStore) AdmitRateWindow(ctx context.Context, key string, now time.Time, window time.Duration, limit int) (int, time.Time, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	w, ok := m.windows[key]
	if !ok || now.Sub(w.start) >= window {
		w = &mockWindow{count: 1, start: now}
		m.windows[key] = w
		return 1, w.start, nil
	}
	if w.count < limit {
		w.count++
		return w.count, w.start, nil
	}
	return w.count + 1, w.start, nil
}

// Close is a no-op for the mock store.
func (m *MockStore) Close() error {
	return nil
}
