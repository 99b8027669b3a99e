// ABOUTME: SQLite implementation of the Store interface using modernc.org/sqlite
// ABOUTME: Provides credential/feedback persistence and the atomic rate-window counter

package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore implements the Store interface using SQLite
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewSQLiteStore creates a new SQLite store at the given path.
// The schema is automatically created if it doesn't exist.
// Parent directories are created if needed.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	logger := slog.Default().With("component", "store")

	// Ensure parent directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	// WAL for concurrent readers, a busy timeout so concurrent writers wait
	// for the lock instead of failing with SQLITE_BUSY, and immediate
	// transactions so BeginTx takes the write lock up front. Pragmas go in
	// the DSN so every pooled connection gets them.
	dsn := fmt.Sprintf("%s?_txlock=immediate"+
		"&_pragma=journal_mode(WAL)"+
		"&_pragma=foreign_keys(1)"+
		"&_pragma=busy_timeout(5000)", path)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &SQLiteStore{
		db:     db,
		logger: logger,
	}

	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	logger.Info("SQLite store initialized", "path", path)
	return s, nil
}

// createSchema creates the database tables if they don't exist
func (s *SQLiteStore) createSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS credentials (
			id TEXT PRIMARY KEY,
			tenant_id TEXT NOT NULL,
			name TEXT NOT NULL,
			key_hash TEXT NOT NULL UNIQUE,
			scopes TEXT NOT NULL DEFAULT '',
			last_used_at TEXT,
			created_at TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_credentials_tenant ON credentials(tenant_id);

		CREATE TABLE IF NOT EXISTS feedback_items (
			id TEXT PRIMARY KEY,
			tenant_id TEXT NOT NULL,
			title TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL DEFAULT 'open',
			votes INTEGER NOT NULL DEFAULT 0,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_feedback_tenant ON feedback_items(tenant_id);
		CREATE INDEX IF NOT EXISTS idx_feedback_tenant_status ON feedback_items(tenant_id, status);

		CREATE TABLE IF NOT EXISTS comments (
			id TEXT PRIMARY KEY,
			feedback_id TEXT NOT NULL REFERENCES feedback_items(id) ON DELETE CASCADE,
			tenant_id TEXT NOT NULL,
			author TEXT NOT NULL DEFAULT '',
			body TEXT NOT NULL,
			created_at TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_comments_feedback ON comments(feedback_id);

		CREATE TABLE IF NOT EXISTS rate_windows (
			key TEXT PRIMARY KEY,
			count INTEGER NOT NULL,
			window_start TEXT NOT NULL
		);
	`

	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("executing schema: %w", err)
	}
	return nil
}

// Close closes the underlying database connection
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// timeFormat is the canonical timestamp encoding used in all tables
const timeFormat = time.RFC3339Nano

// CreateCredential stores a new credential
func (s *SQLiteStore) CreateCredential(ctx context.Context, cred *Credential) error {
	query := `
		INSERT INTO credentials (id, tenant_id, name, key_hash, scopes, last_used_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	var lastUsed sql.NullString
	if cred.LastUsedAt != nil {
		lastUsed = sql.NullString{String: cred.LastUsedAt.UTC().Format(timeFormat), Valid: true}
	}

	_, err := s.db.ExecContext(ctx, query,
		cred.ID,
		cred.TenantID,
		cred.Name,
		cred.KeyHash,
		cred.Scopes,
		lastUsed,
		cred.CreatedAt.UTC().Format(timeFormat),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return ErrDuplicateID
		}
		return fmt.Errorf("inserting credential: %w", err)
	}
	return nil
}

// GetCredentialByHash looks up a credential by its key digest
func (s *SQLiteStore) GetCredentialByHash(ctx context.Context, keyHash string) (*Credential, error) {
	query := `
		SELECT id, tenant_id, name, key_hash, scopes, last_used_at, created_at
		FROM credentials
		WHERE key_hash = ?
	`

	cred, err := scanCredential(s.db.QueryRowContext(ctx, query, keyHash))
	if err != nil {
		return nil, err
	}
	return cred, nil
}

// TouchCredential updates a credential's last-used timestamp
func (s *SQLiteStore) TouchCredential(ctx context.Context, id string, usedAt time.Time) error {
	query := `UPDATE credentials SET last_used_at = ? WHERE id = ?`

	result, err := s.db.ExecContext(ctx, query, usedAt.UTC().Format(timeFormat), id)
	if err != nil {
		return fmt.Errorf("updating credential last_used_at: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

// ListCredentials returns all credentials for a tenant, newest first
func (s *SQLiteStore) ListCredentials(ctx context.Context, tenantID string) ([]*Credential, error) {
	query := `
		SELECT id, tenant_id, name, key_hash, scopes, last_used_at, created_at
		FROM credentials
		WHERE tenant_id = ?
		ORDER BY created_at DESC
	`

	rows, err := s.db.QueryContext(ctx, query, tenantID)
	if err != nil {
		return nil, fmt.Errorf("querying credentials: %w", err)
	}
	defer rows.Close()

	var creds []*Credential
	for rows.Next() {
		cred, err := scanCredential(rows)
		if err != nil {
			return nil, err
		}
		creds = append(creds, cred)
	}
	return creds, rows.Err()
}

// rowScanner abstracts *sql.Row and *sql.Rows for shared scan helpers
type rowScanner interface {
	Scan(dest ...any) error
}

func scanCredential(row rowScanner) (*Credential, error) {
	var cred Credential
	var lastUsed sql.NullString
	var createdAt string

	err := row.Scan(
		&cred.ID,
		&cred.TenantID,
		&cred.Name,
		&cred.KeyHash,
		&cred.Scopes,
		&lastUsed,
		&createdAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning credential: %w", err)
	}

	cred.CreatedAt, err = time.Parse(timeFormat, createdAt)
	if err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}
	if lastUsed.Valid {
		t, err := time.Parse(timeFormat, lastUsed.String)
		if err != nil {
			return nil, fmt.Errorf("parsing last_used_at: %w", err)
		}
		cred.LastUsedAt = &t
	}

	return &cred, nil
}

// CreateFeedback stores a new feedback item
func (s *SQLiteStore) CreateFeedback(ctx context.Context, item *FeedbackItem) error {
	query := `
		INSERT INTO feedback_items (id, tenant_id, title, description, status, votes, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		item.ID,
		item.TenantID,
		item.Title,
		item.Description,
		item.Status,
		item.Votes,
		item.CreatedAt.UTC().Format(timeFormat),
		item.UpdatedAt.UTC().Format(timeFormat),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return ErrDuplicateID
		}
		return fmt.Errorf("inserting feedback item: %w", err)
	}
	return nil
}

// GetFeedback retrieves a feedback item scoped to a tenant
func (s *SQLiteStore) GetFeedback(ctx context.Context, tenantID, id string) (*FeedbackItem, error) {
	query := `
		SELECT id, tenant_id, title, description, status, votes, created_at, updated_at
		FROM feedback_items
		WHERE id = ? AND tenant_id = ?
	`

	return scanFeedback(s.db.QueryRowContext(ctx, query, id, tenantID))
}

// ListFeedback returns a tenant's feedback items, newest first
func (s *SQLiteStore) ListFeedback(ctx context.Context, tenantID string, filter FeedbackFilter) ([]*FeedbackItem, error) {
	query := `
		SELECT id, tenant_id, title, description, status, votes, created_at, updated_at
		FROM feedback_items
		WHERE tenant_id = ?
	`
	args := []any{tenantID}

	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, filter.Status)
	}

	query += ` ORDER BY created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	query += ` LIMIT ? OFFSET ?`
	args = append(args, limit, filter.Offset)

	return s.queryFeedback(ctx, query, args...)
}

// SearchFeedback returns a tenant's feedback items whose title or description
// matches the query substring, newest first
func (s *SQLiteStore) SearchFeedback(ctx context.Context, tenantID, query string, limit int) ([]*FeedbackItem, error) {
	if limit <= 0 {
		limit = 50
	}
	pattern := "%" + escapeLike(query) + "%"

	sqlQuery := `
		SELECT id, tenant_id, title, description, status, votes, created_at, updated_at
		FROM feedback_items
		WHERE tenant_id = ?
		  AND (title LIKE ? ESCAPE '\' OR description LIKE ? ESCAPE '\')
		ORDER BY created_at DESC
		LIMIT ?
	`

	return s.queryFeedback(ctx, sqlQuery, tenantID, pattern, pattern, limit)
}

// escapeLike escapes LIKE wildcards in user-supplied search text
func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `%`, `\%`)
	s = strings.ReplaceAll(s, `_`, `\_`)
	return s
}

// UpdateFeedbackStatus sets a feedback item's status and returns the updated item
func (s *SQLiteStore) UpdateFeedbackStatus(ctx context.Context, tenantID, id, status string) (*FeedbackItem, error) {
	query := `
		UPDATE feedback_items
		SET status = ?, updated_at = ?
		WHERE id = ? AND tenant_id = ?
	`

	result, err := s.db.ExecContext(ctx, query, status, time.Now().UTC().Format(timeFormat), id, tenantID)
	if err != nil {
		return nil, fmt.Errorf("updating feedback status: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("checking rows affected: %w", err)
	}
	if rows == 0 {
		return nil, ErrNotFound
	}

	return s.GetFeedback(ctx, tenantID, id)
}

// AddComment stores a new comment on a feedback item
func (s *SQLiteStore) AddComment(ctx context.Context, comment *Comment) error {
	// Verify the parent item exists within the tenant before inserting;
	// the FK alone would let a caller comment across tenants.
	if _, err := s.GetFeedback(ctx, comment.TenantID, comment.FeedbackID); err != nil {
		return err
	}

	query := `
		INSERT INTO comments (id, feedback_id, tenant_id, author, body, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		comment.ID,
		comment.FeedbackID,
		comment.TenantID,
		comment.Author,
		comment.Body,
		comment.CreatedAt.UTC().Format(timeFormat),
	)
	if err != nil {
		return fmt.Errorf("inserting comment: %w", err)
	}
	return nil
}

// ListComments returns a feedback item's comments, oldest first
func (s *SQLiteStore) ListComments(ctx context.Context, tenantID, feedbackID string) ([]*Comment, error) {
	query := `
		SELECT id, feedback_id, tenant_id, author, body, created_at
		FROM comments
		WHERE feedback_id = ? AND tenant_id = ?
		ORDER BY created_at ASC
	`

	rows, err := s.db.QueryContext(ctx, query, feedbackID, tenantID)
	if err != nil {
		return nil, fmt.Errorf("querying comments: %w", err)
	}
	defer rows.Close()

	var comments []*Comment
	for rows.Next() {
		var c Comment
		var createdAt string
		if err := rows.Scan(&c.ID, &c.FeedbackID, &c.TenantID, &c.Author, &c.Body, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning comment: %w", err)
		}
		c.CreatedAt, err = time.Parse(timeFormat, createdAt)
		if err != nil {
			return nil, fmt.Errorf("parsing created_at: %w", err)
		}
		comments = append(comments, &c)
	}
	return comments, rows.Err()
}

// VoteFeedback increments a feedback item's vote count and returns the updated item
func (s *SQLiteStore) VoteFeedback(ctx context.Context, tenantID, id string) (*FeedbackItem, error) {
	query := `
		UPDATE feedback_items
		SET votes = votes + 1, updated_at = ?
		WHERE id = ? AND tenant_id = ?
	`

	result, err := s.db.ExecContext(ctx, query, time.Now().UTC().Format(timeFormat), id, tenantID)
	if err != nil {
		return nil, fmt.Errorf("incrementing votes: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("checking rows affected: %w", err)
	}
	if rows == 0 {
		return nil, ErrNotFound
	}

	return s.GetFeedback(ctx, tenantID, id)
}

func (s *SQLiteStore) queryFeedback(ctx context.Context, query string, args ...any) ([]*FeedbackItem, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying feedback items: %w", err)
	}
	defer rows.Close()

	var items []*FeedbackItem
	for rows.Next() {
		item, err := scanFeedback(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func scanFeedback(row rowScanner) (*FeedbackItem, error) {
	var item FeedbackItem
	var createdAt, updatedAt string

	err := row.Scan(
		&item.ID,
		&item.TenantID,
		&item.Title,
		&item.Description,
		&item.Status,
		&item.Votes,
		&createdAt,
		&updatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning feedback item: %w", err)
	}

	item.CreatedAt, err = time.Parse(timeFormat, createdAt)
	if err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}
	item.UpdatedAt, err = time.Parse(timeFormat, updatedAt)
	if err != nil {
		return nil, fmt.Errorf("parsing updated_at: %w", err)
	}

	return &item, nil
}

// AdmitRateWindow atomically starts or advances the fixed window for key.
// Runs inside an immediate transaction so concurrent callers at the limit
// boundary serialize: at most `limit` admissions per window.
func (s *SQLiteStore) AdmitRateWindow(ctx context.Context, key string, now time.Time, window time.Duration, limit int) (int, time.Time, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, time.Time{}, fmt.Errorf("beginning rate window tx: %w", err)
	}
	defer tx.Rollback()

	var count int
	var startStr string
	var windowStart time.Time

	err = tx.QueryRowContext(ctx,
		`SELECT count, window_start FROM rate_windows WHERE key = ?`, key,
	).Scan(&count, &startStr)

	switch {
	case err == sql.ErrNoRows:
		count = 0
	case err != nil:
		return 0, time.Time{}, fmt.Errorf("reading rate window: %w", err)
	default:
		windowStart, err = time.Parse(timeFormat, startStr)
		if err != nil {
			return 0, time.Time{}, fmt.Errorf("parsing window_start: %w", err)
		}
	}

	if count == 0 || now.Sub(windowStart) >= window {
		// Start a fresh window
		windowStart = now
		count = 1
		_, err = tx.ExecContext(ctx, `
			INSERT INTO rate_windows (key, count, window_start) VALUES (?, 1, ?)
			ON CONFLICT(key) DO UPDATE SET count = 1, window_start = excluded.window_start
		`, key, windowStart.UTC().Format(timeFormat))
		if err != nil {
			return 0, time.Time{}, fmt.Errorf("resetting rate window: %w", err)
		}
	} else if count < limit {
		count++
		_, err = tx.ExecContext(ctx, `UPDATE rate_windows SET count = ? WHERE key = ?`, count, key)
		if err != nil {
			return 0, time.Time{}, fmt.Errorf("incrementing rate window: %w", err)
		}
	} else {
		// Over the limit: report count+1 without persisting, so the caller
		// sees a rejection while the stored count stays capped at limit.
		count++
	}

	if err := tx.Commit(); err != nil {
		return 0, time.Time{}, fmt.Errorf("committing rate window tx: %w", err)
	}
	return count, windowStart, nil
}
