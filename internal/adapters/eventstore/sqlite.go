package eventstore

import (
	"context"
	"database/sql"
	"errors"
	"math"
	"strconv"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite driver

	"github.com/okian/suggest/internal/domain/model"
)

const sqliteSchema = `
	CREATE TABLE IF NOT EXISTS suggestion_events (
		suggestion_id TEXT    NOT NULL,
		ts            INTEGER NOT NULL,
		seq           INTEGER NOT NULL,
		event_id      TEXT    NOT NULL UNIQUE,
		type          TEXT    NOT NULL,
		PRIMARY KEY (suggestion_id, ts, seq)
	);
	CREATE INDEX IF NOT EXISTS idx_suggestion_events_ts ON suggestion_events(ts);
`

// seq numbers events sharing (suggestion_id, ts) in arrival order.
const sqliteInsert = `
	INSERT OR IGNORE INTO suggestion_events (suggestion_id, ts, seq, event_id, type)
	SELECT ?, ?, COALESCE(MAX(seq), -1) + 1, ?, ?
	FROM suggestion_events WHERE suggestion_id = ? AND ts = ?
`

// SQLiteOption applies a configuration option to the SQLiteStore.
type SQLiteOption func(*sqliteConfig)

type sqliteConfig struct {
	journalMode   string
	busyTimeoutMs int
}

// WithJournalMode sets the SQLite journal mode. Defaults to WAL.
func WithJournalMode(mode string) SQLiteOption {
	return func(c *sqliteConfig) {
		if mode != "" {
			c.journalMode = mode
		}
	}
}

// WithBusyTimeout sets how long SQLite waits on a locked database.
func WithBusyTimeout(d time.Duration) SQLiteOption {
	return func(c *sqliteConfig) {
		if d > 0 {
			c.busyTimeoutMs = int(d.Milliseconds())
		}
	}
}

// SQLiteStore persists the history in a single SQLite table.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (and migrates) the database at path.
func NewSQLiteStore(ctx context.Context, path string, opts ...SQLiteOption) (*SQLiteStore, error) {
	cfg := sqliteConfig{journalMode: "WAL", busyTimeoutMs: 5000}
	for _, opt := range opts {
		opt(&cfg)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, unavailable("open", err)
	}
	// One writer connection; database/sql queues callers.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=" + cfg.journalMode,
		"PRAGMA busy_timeout=" + strconv.Itoa(cfg.busyTimeoutMs),
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			_ = db.Close()
			return nil, unavailable("pragma", err)
		}
	}
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		_ = db.Close()
		return nil, unavailable("migrate", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Record implements Store.Record.
func (s *SQLiteStore) Record(ctx context.Context, e model.Event) error {
	e = prepare(e)
	ts := e.TS.UnixNano()
	if _, err := s.db.ExecContext(ctx, sqliteInsert,
		e.SuggestionID, ts, e.ID, string(e.Type), e.SuggestionID, ts,
	); err != nil {
		return unavailable("insert", err)
	}
	return nil
}

// Query implements Store.Query. Rows with unknown types are skipped.
func (s *SQLiteStore) Query(ctx context.Context, suggestionID string, w model.Window) ([]model.Event, error) {
	suggestionID = model.NormalizeIdentifier(suggestionID)
	from, to := int64(math.MinInt64), int64(math.MaxInt64)
	if !w.From.IsZero() {
		from = w.From.UnixNano()
	}
	if !w.To.IsZero() {
		to = w.To.UnixNano()
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT event_id, type, ts FROM suggestion_events
		 WHERE suggestion_id = ? AND ts >= ? AND ts <= ?
		 ORDER BY ts, seq`,
		suggestionID, from, to,
	)
	if err != nil {
		return nil, unavailable("query", err)
	}
	defer func() { _ = rows.Close() }()

	out := []model.Event{}
	for rows.Next() {
		var (
			id, typ string
			ts      int64
		)
		if err := rows.Scan(&id, &typ, &ts); err != nil {
			return nil, unavailable("scan", err)
		}
		t, ok := model.ParseEventType(typ)
		if !ok {
			continue
		}
		out = append(out, model.Event{
			ID:           id,
			SuggestionID: suggestionID,
			Type:         t,
			TS:           time.Unix(0, ts).UTC(),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("rows", err)
	}
	return out, nil
}

// Prune implements Store.Prune.
func (s *SQLiteStore) Prune(ctx context.Context, cutoff time.Time) (int, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM suggestion_events WHERE ts < ?", cutoff.UnixNano())
	if err != nil {
		return 0, unavailable("prune", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, unavailable("prune", err)
	}
	return int(n), nil
}

// Count implements Store.Count.
func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM suggestion_events").Scan(&n)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, unavailable("count", err)
	}
	return n, nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
