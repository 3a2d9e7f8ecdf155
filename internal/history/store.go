// Package history keeps a sqlite ledger of saved takes.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	_ "modernc.org/sqlite"
)

// timeLayout sorts lexicographically in time order.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Take is one saved recording.
type Take struct {
	ID        int64
	Performer string
	Path      string
	Voice     string
	Speed     float64
	Bytes     int64
	Duration  time.Duration
	CreatedAt time.Time
}

// Store wraps the sqlite database.
type Store struct {
	db    *sql.DB
	log   *log.Logger
	clock func() time.Time
}

// Open opens or creates the database at path.
func Open(ctx context.Context, path string, logger *log.Logger) (*Store, error) {
	if logger == nil {
		logger = log.Default()
	}

	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create history dir: %w", err)
		}
	}

	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	s := &Store{db: db, log: logger, clock: time.Now}
	if err := s.initSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	logger.Debug("history store opened", "path", path)
	return s, nil
}

func (s *Store) initSchema(ctx context.Context) error {
	ddl := `
CREATE TABLE IF NOT EXISTS takes (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    performer TEXT NOT NULL,
    path TEXT NOT NULL,
    voice TEXT,
    speed REAL,
    bytes INTEGER NOT NULL DEFAULT 0,
    duration_ms INTEGER NOT NULL DEFAULT 0,
    created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_takes_performer_created ON takes(performer, created_at);
`
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("init history schema: %w", err)
	}
	return nil
}

// Close releases underlying resources.
func (s *Store) Close() error {
	return s.db.Close()
}

// Record appends a take. A zero CreatedAt is stamped with the store clock.
func (s *Store) Record(ctx context.Context, t Take) error {
	if t.CreatedAt.IsZero() {
		t.CreatedAt = s.clock()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO takes(performer, path, voice, speed, bytes, duration_ms, created_at)
		 VALUES(?, ?, ?, ?, ?, ?, ?)`,
		t.Performer, t.Path, t.Voice, t.Speed, t.Bytes, t.Duration.Milliseconds(),
		t.CreatedAt.UTC().Format(timeLayout))
	if err != nil {
		return fmt.Errorf("record take: %w", err)
	}
	return nil
}

// List returns up to limit takes, newest first. An empty performer lists
// every performer.
func (s *Store) List(ctx context.Context, performer string, limit int) ([]Take, error) {
	if limit <= 0 {
		limit = 100
	}

	query := `SELECT id, performer, path, voice, speed, bytes, duration_ms, created_at FROM takes`
	args := []interface{}{}
	if performer != "" {
		query += ` WHERE performer = ?`
		args = append(args, performer)
	}
	query += ` ORDER BY created_at DESC, id DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list takes: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	var takes []Take
	for rows.Next() {
		var (
			t          Take
			voice      sql.NullString
			speed      sql.NullFloat64
			durationMS int64
			created    string
		)
		if err := rows.Scan(&t.ID, &t.Performer, &t.Path, &voice, &speed, &t.Bytes, &durationMS, &created); err != nil {
			return nil, err
		}
		t.Voice = voice.String
		t.Speed = speed.Float64
		t.Duration = time.Duration(durationMS) * time.Millisecond
		if ts, err := time.Parse(timeLayout, created); err == nil {
			t.CreatedAt = ts
		}
		takes = append(takes, t)
	}
	return takes, rows.Err()
}
