package storage

import (
	"context"
	"errors"
	"time"

	"tokenherald/internal/token"
)

var ErrDisabled = errors.New("storage disabled")

// Config configures the store.
//
// Driver values:
//   - "sqlite": SQLite database file (default)
//
// If Driver is empty, sqlite is assumed.
type Config struct {
	Driver      string
	Path        string
	BusyTimeout time.Duration // 0 means default
}

// Store is the record-store contract used by the pipeline.
//
// All reads return canonical token.Token records (normalization happens
// inside the store boundary); callers never see raw rows.
type Store interface {
	// Candidates returns up to limit not-yet-announced, not-poisoned
	// tokens whose status is in the accepted set (case-insensitive),
	// newest discovery first.
	Candidates(ctx context.Context, statuses []string, limit int) ([]token.Token, error)

	// TopByMarketCap is the fallback selection: not-yet-announced
	// tokens ranked by market cap, ignoring status.
	TopByMarketCap(ctx context.Context, limit int) ([]token.Token, error)

	// Get re-reads a single token for pre-publish re-validation.
	Get(ctx context.Context, id string) (token.Token, error)

	// CountAll doubles as the store connectivity probe.
	CountAll(ctx context.Context) (int, error)

	// MarkAnnounced conditionally flips a token to announced and
	// records the publish receipt. Returns rows affected; re-applying
	// for an already-announced token affects 0 rows.
	MarkAnnounced(ctx context.Context, id, publishID, text string, at time.Time) (int64, error)

	// MarkPoisoned excludes a token from all future automatic retry.
	MarkPoisoned(ctx context.Context, id string) (int64, error)

	// Upsert writes a discovery row. Used by the upstream scanner and
	// by tests; never called from the announcement path.
	Upsert(ctx context.Context, tok token.Token) error

	Close() error
}

// ErrNotFound is returned by Get for an unknown id.
var ErrNotFound = errors.New("token not found")
