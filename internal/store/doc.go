// Package store provides persistent storage for agentgate using SQLite.
//
// # Architecture
//
// The store package uses an interface-driven architecture with specialized
// interfaces:
//
//   - CredentialStore: Issued API keys (digest lookup, last-used tracking)
//   - FeedbackStore: Tenant-scoped feedback items, comments, and votes
//   - RateWindowStore: Atomic fixed-window counters for rate limiting
//
// SQLiteStore implements all interfaces in a single struct, allowing easy
// composition while maintaining clear interface boundaries. MockStore
// provides an in-memory implementation with call counters for tests.
//
// # Data Models
//
//   - Credential: One issued API key. The raw secret is never stored; only
//     its hex SHA-256 digest (KeyHash) is persisted, and lookup happens by
//     digest. Scopes are a space-separated token string parsed by the auth
//     package.
//   - FeedbackItem: A piece of feedback owned by exactly one tenant, with
//     status (open, planned, in_progress, done) and a vote counter.
//   - Comment: A comment attached to a feedback item.
//
// # Tenant Scoping
//
// Every feedback query filters by tenant ID. A record belonging to another
// tenant is indistinguishable from a missing record: both return
// ErrNotFound. Handlers rely on this for record-level isolation.
package store
