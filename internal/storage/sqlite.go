package storage

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "modernc.org/sqlite"

	"tokenherald/internal/token"
	"tokenherald/pkg/logx"
)

//go:embed migrations.sql
var migrationsFS embed.FS

var tokenColumns = []string{
	"id", "name", "symbol", "address",
	"market_cap", "liquidity", "volume", "holders", "price", "price_change",
	"status", "discovered_at",
	"announced", "announced_at", "announce_id", "announce_text", "poisoned",
}

type sqliteStore struct {
	db  *sql.DB
	log logx.Logger
}

func openSQLite(cfg Config, log logx.Logger) (Store, error) {
	path := strings.TrimSpace(cfg.Path)
	if path == "" {
		return nil, errors.New("sqlite path is required")
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, err
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// SQLite prefers a small number of concurrent writers.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	st := &sqliteStore{db: db, log: log}

	if cfg.BusyTimeout > 0 {
		ms := cfg.BusyTimeout.Milliseconds()
		_, _ = db.Exec(fmt.Sprintf("PRAGMA busy_timeout = %d", ms))
	}
	_, _ = db.Exec("PRAGMA journal_mode = WAL")
	_, _ = db.Exec("PRAGMA synchronous = NORMAL")

	if err := st.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return st, nil
}

func (s *sqliteStore) migrate(ctx context.Context) error {
	b, err := migrationsFS.ReadFile("migrations.sql")
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, string(b))
	return err
}

func (s *sqliteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *sqliteStore) Candidates(ctx context.Context, statuses []string, limit int) ([]token.Token, error) {
	if s == nil || s.db == nil {
		return nil, ErrDisabled
	}
	if limit <= 0 {
		limit = 8
	}
	lowered := make([]string, 0, len(statuses))
	for _, st := range statuses {
		lowered = append(lowered, token.NormalizeStatus(st))
	}

	q := sq.Select(tokenColumns...).
		From("tokens").
		Where(sq.Eq{"announced": 0}).
		Where(sq.Eq{"poisoned": 0}).
		Where(sq.Eq{"LOWER(status)": lowered}).
		OrderBy("discovered_at DESC", "id DESC").
		Limit(uint64(limit))

	return s.queryTokens(ctx, q)
}

func (s *sqliteStore) TopByMarketCap(ctx context.Context, limit int) ([]token.Token, error) {
	if s == nil || s.db == nil {
		return nil, ErrDisabled
	}
	if limit <= 0 {
		limit = 8
	}
	q := sq.Select(tokenColumns...).
		From("tokens").
		Where(sq.Eq{"announced": 0}).
		Where(sq.Eq{"poisoned": 0}).
		OrderBy("market_cap DESC", "id DESC").
		Limit(uint64(limit))

	return s.queryTokens(ctx, q)
}

func (s *sqliteStore) Get(ctx context.Context, id string) (token.Token, error) {
	if s == nil || s.db == nil {
		return token.Token{}, ErrDisabled
	}
	q := sq.Select(tokenColumns...).From("tokens").Where(sq.Eq{"id": id}).Limit(1)
	toks, err := s.queryTokens(ctx, q)
	if err != nil {
		return token.Token{}, err
	}
	if len(toks) == 0 {
		return token.Token{}, ErrNotFound
	}
	return toks[0], nil
}

func (s *sqliteStore) CountAll(ctx context.Context) (int, error) {
	if s == nil || s.db == nil {
		return 0, ErrDisabled
	}
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM tokens`).Scan(&n)
	return n, err
}

func (s *sqliteStore) MarkAnnounced(ctx context.Context, id, publishID, text string, at time.Time) (int64, error) {
	if s == nil || s.db == nil {
		return 0, ErrDisabled
	}
	if at.IsZero() {
		at = time.Now()
	}
	// Conditional on announced=0 so a concurrent or repeated commit is
	// a 0-row no-op instead of a double announcement.
	res, err := s.db.ExecContext(ctx,
		`UPDATE tokens
		 SET status = ?, announced = 1, announced_at = ?, announce_id = ?, announce_text = ?
		 WHERE id = ? AND announced = 0`,
		token.StatusAnnounced, at.UTC().Format(time.RFC3339Nano), publishID, text, id,
	)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *sqliteStore) MarkPoisoned(ctx context.Context, id string) (int64, error) {
	if s == nil || s.db == nil {
		return 0, ErrDisabled
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE tokens SET poisoned = 1, status = ? WHERE id = ? AND announced = 0`,
		token.StatusPoisoned, id,
	)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *sqliteStore) Upsert(ctx context.Context, tok token.Token) error {
	if s == nil || s.db == nil {
		return ErrDisabled
	}
	tok = tok.Normalize()
	if tok.ID == "" {
		return errors.New("token id is required")
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO tokens(id, name, symbol, address, market_cap, liquidity, volume, holders, price, price_change, status, discovered_at, announced, announced_at, announce_id, announce_text, poisoned)
		 VALUES(?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)
		 ON CONFLICT(id) DO UPDATE SET
		   name = excluded.name,
		   symbol = excluded.symbol,
		   address = excluded.address,
		   market_cap = excluded.market_cap,
		   liquidity = excluded.liquidity,
		   volume = excluded.volume,
		   holders = excluded.holders,
		   price = excluded.price,
		   price_change = excluded.price_change,
		   status = CASE WHEN tokens.announced = 1 THEN tokens.status ELSE excluded.status END`,
		tok.ID, tok.Name, tok.Symbol, tok.Address,
		tok.MarketCap, tok.Liquidity, tok.Volume, tok.Holders, tok.Price, tok.PriceChange,
		tok.Status, tok.DiscoveredAt.UTC().Format(time.RFC3339Nano),
		boolToInt(tok.Announced), nullTime(tok.AnnouncedAt), tok.AnnounceID, tok.AnnounceText, boolToInt(tok.Poisoned),
	)
	return err
}

func (s *sqliteStore) queryTokens(ctx context.Context, q sq.SelectBuilder) ([]token.Token, error) {
	sqlStr, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	rows, err := s.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []token.Token
	for rows.Next() {
		tok, err := scanToken(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, tok)
	}
	return out, rows.Err()
}

func scanToken(rows *sql.Rows) (token.Token, error) {
	var (
		tok          token.Token
		discoveredAt string
		announcedAt  sql.NullString
		announced    int
		poisoned     int
	)
	err := rows.Scan(
		&tok.ID, &tok.Name, &tok.Symbol, &tok.Address,
		&tok.MarketCap, &tok.Liquidity, &tok.Volume, &tok.Holders, &tok.Price, &tok.PriceChange,
		&tok.Status, &discoveredAt,
		&announced, &announcedAt, &tok.AnnounceID, &tok.AnnounceText, &poisoned,
	)
	if err != nil {
		return token.Token{}, err
	}
	tok.Announced = announced != 0
	tok.Poisoned = poisoned != 0
	if t, err := time.Parse(time.RFC3339Nano, discoveredAt); err == nil {
		tok.DiscoveredAt = t
	}
	if announcedAt.Valid {
		if t, err := time.Parse(time.RFC3339Nano, announcedAt.String); err == nil {
			tok.AnnouncedAt = t
		}
	}
	return tok.Normalize(), nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func nullTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t.UTC().Format(time.RFC3339Nano)
}
