// Package history keeps a SQLite log of reminder runs and of every reminder
// sent, so a student is reminded at most once per day.
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/barun-bash/coursebot/internal/logging"
	"github.com/barun-bash/coursebot/internal/version"
)

// DayLayout formats the day key of a reminder.
const DayLayout = "2006-01-02"

const schema = `
CREATE TABLE IF NOT EXISTS meta (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS runs (
	id         TEXT PRIMARY KEY,
	started_at TEXT NOT NULL,
	version    TEXT NOT NULL,
	dry_run    INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS reminders (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id     TEXT NOT NULL REFERENCES runs(id),
	email      TEXT NOT NULL,
	day        TEXT NOT NULL,
	overdue    INTEGER NOT NULL,
	message_id INTEGER NOT NULL DEFAULT 0,
	sent_at    TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_reminders_email_day ON reminders(email, day);
CREATE INDEX IF NOT EXISTS idx_reminders_run ON reminders(run_id);
`

// Run is one invocation of the reminder runner.
type Run struct {
	ID        string
	StartedAt time.Time
	Version   string
	DryRun    bool
}

// Entry is one reminder sent for a student.
type Entry struct {
	RunID     string
	Email     string
	Day       string
	Overdue   int
	MessageID int
	SentAt    time.Time
}

// Store is a history database. It is safe for concurrent use.
type Store struct {
	db  *sql.DB
	mu  sync.Mutex
	log *zap.Logger
}

// Open opens or creates the database at path. ":memory:" opens a private
// in-memory database.
func Open(ctx context.Context, path string, log *zap.Logger) (*Store, error) {
	log = logging.OrNop(log)
	dsn := path
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("creating history directory: %w", err)
		}
		dsn = path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening history %s: %w", path, err)
	}
	// One connection keeps ":memory:" a single database and serializes writers.
	db.SetMaxOpenConns(1)

	s := &Store{db: db, log: log}
	if err := s.init(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing history %s: %w", path, err)
	}
	return s, nil
}

func (s *Store) init(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return err
	}

	written, err := s.WrittenBy(ctx)
	if err != nil {
		return err
	}
	if version.IsNewerThan(written, version.Version) {
		s.log.Warn("history database was written by a newer coursebot",
			zap.String("written_by", written),
			zap.String("running", version.Version))
		return nil
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO meta (key, value) VALUES ('version', ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`, version.Version)
	return err
}

// WrittenBy returns the coursebot version that last opened the database, or
// "" for a new one.
func (s *Store) WrittenBy(ctx context.Context) (string, error) {
	var v string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM meta WHERE key = 'version'`).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("reading history version: %w", err)
	}
	return v, nil
}

// BeginRun records the start of a run.
func (s *Store) BeginRun(ctx context.Context, r Run) error {
	if r.ID == "" {
		return errors.New("run id is required")
	}
	if r.StartedAt.IsZero() {
		r.StartedAt = time.Now()
	}
	if r.Version == "" {
		r.Version = version.Version
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, started_at, version, dry_run) VALUES (?, ?, ?, ?)`,
		r.ID, r.StartedAt.UTC().Format(time.RFC3339), r.Version, r.DryRun)
	if err != nil {
		return fmt.Errorf("recording run %s: %w", r.ID, err)
	}
	return nil
}

// Record stores a sent reminder.
func (s *Store) Record(ctx context.Context, e Entry) error {
	if e.SentAt.IsZero() {
		e.SentAt = time.Now()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO reminders (run_id, email, day, overdue, message_id, sent_at) VALUES (?, ?, ?, ?, ?, ?)`,
		e.RunID, e.Email, e.Day, e.Overdue, e.MessageID, e.SentAt.UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("recording reminder for %s: %w", e.Email, err)
	}
	return nil
}

// RemindedOn reports whether email already got a reminder on day.
func (s *Store) RemindedOn(ctx context.Context, email, day string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM reminders WHERE email = ? AND day = ?`, email, day).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("checking history for %s: %w", email, err)
	}
	return n > 0, nil
}

// Recent returns the latest reminders, newest first. limit <= 0 returns all.
func (s *Store) Recent(ctx context.Context, limit int) ([]Entry, error) {
	q := `SELECT run_id, email, day, overdue, message_id, sent_at FROM reminders ORDER BY id DESC`
	args := []any{}
	if limit > 0 {
		q += ` LIMIT ?`
		args = append(args, limit)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("listing history: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		var sent string
		if err := rows.Scan(&e.RunID, &e.Email, &e.Day, &e.Overdue, &e.MessageID, &sent); err != nil {
			return nil, fmt.Errorf("scanning history: %w", err)
		}
		e.SentAt, _ = time.Parse(time.RFC3339, sent)
		out = append(out, e)
	}
	return out, rows.Err()
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}
