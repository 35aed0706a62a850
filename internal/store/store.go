package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/five82/qaboard/internal/gateway"
)

// ErrNotFound is returned when a question id does not exist.
var ErrNotFound = errors.New("question not found")

// timeLayout is fixed width so text ordering matches time ordering.
const timeLayout = "2006-01-02T15:04:05.000000Z"

// Store persists questions in SQLite.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Option customizes a Store.
type Option func(*Store)

// WithClock overrides the creation timestamp source.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// Open creates or opens the database at path.
func Open(path string, opts ...Option) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	s := &Store{db: db, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func initPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return fmt.Errorf("pragma %q: %w", p, err)
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS questions (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			content TEXT NOT NULL,
			created_at TEXT NOT NULL,
			is_resolved INTEGER NOT NULL DEFAULT 0
		);`,
		`CREATE INDEX IF NOT EXISTS idx_questions_created ON questions(created_at);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
	}
	return nil
}

// Close releases the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// List returns every question, newest first.
func (s *Store) List(ctx context.Context) ([]gateway.Question, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, content, created_at, is_resolved FROM questions ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	defer rows.Close()

	out := []gateway.Question{}
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	return out, nil
}

// Create inserts a new unresolved question stamped with the current UTC time.
func (s *Store) Create(ctx context.Context, content string) (gateway.Question, error) {
	created := s.now().UTC().Truncate(time.Microsecond)
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO questions (content, created_at, is_resolved) VALUES (?, ?, 0)`,
		content, created.Format(timeLayout))
	if err != nil {
		return gateway.Question{}, fmt.Errorf("create question: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return gateway.Question{}, fmt.Errorf("create question: %w", err)
	}
	return gateway.Question{
		ID:        gateway.ID(strconv.FormatInt(id, 10)),
		Content:   content,
		CreatedAt: created,
	}, nil
}

// SetResolved updates the resolution flag and returns the updated record.
func (s *Store) SetResolved(ctx context.Context, id int64, resolved bool) (gateway.Question, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE questions SET is_resolved = ? WHERE id = ?`, boolToInt(resolved), id)
	if err != nil {
		return gateway.Question{}, fmt.Errorf("set resolved: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return gateway.Question{}, fmt.Errorf("set resolved: %w", err)
	}
	if n == 0 {
		return gateway.Question{}, fmt.Errorf("question %d: %w", id, ErrNotFound)
	}

	row := s.db.QueryRowContext(ctx,
		`SELECT id, content, created_at, is_resolved FROM questions WHERE id = ?`, id)
	q, err := scanQuestion(row)
	if errors.Is(err, sql.ErrNoRows) {
		return gateway.Question{}, fmt.Errorf("question %d: %w", id, ErrNotFound)
	}
	return q, err
}

// Reset deletes every question.
func (s *Store) Reset(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM questions`); err != nil {
		return fmt.Errorf("reset questions: %w", err)
	}
	return nil
}

// Prune deletes questions created before cutoff and returns them oldest first.
func (s *Store) Prune(ctx context.Context, cutoff time.Time) ([]gateway.Question, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("prune questions: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	bound := cutoff.UTC().Format(timeLayout)
	rows, err := tx.QueryContext(ctx,
		`SELECT id, content, created_at, is_resolved FROM questions WHERE created_at < ? ORDER BY created_at, id`, bound)
	if err != nil {
		return nil, fmt.Errorf("prune questions: %w", err)
	}
	var pruned []gateway.Question
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			_ = rows.Close()
			return nil, err
		}
		pruned = append(pruned, q)
	}
	if err := rows.Close(); err != nil {
		return nil, fmt.Errorf("prune questions: %w", err)
	}
	if len(pruned) == 0 {
		return nil, nil
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM questions WHERE created_at < ?`, bound); err != nil {
		return nil, fmt.Errorf("prune questions: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("prune questions: %w", err)
	}
	return pruned, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanQuestion(row scanner) (gateway.Question, error) {
	var (
		id       int64
		content  string
		created  string
		resolved int
	)
	if err := row.Scan(&id, &content, &created, &resolved); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return gateway.Question{}, err
		}
		return gateway.Question{}, fmt.Errorf("scan question: %w", err)
	}
	at, err := time.Parse(time.RFC3339Nano, created)
	if err != nil {
		return gateway.Question{}, fmt.Errorf("scan question %d: %w", id, err)
	}
	return gateway.Question{
		ID:        gateway.ID(strconv.FormatInt(id, 10)),
		Content:   content,
		CreatedAt: at.UTC(),
		Resolved:  resolved != 0,
	}, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// StartOfDay returns local midnight of t's day in loc.
func StartOfDay(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	local := t.In(loc)
	y, m, d := local.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

// NextMidnight returns the first local midnight strictly after t.
func NextMidnight(t time.Time, loc *time.Location) time.Time {
	start := StartOfDay(t, loc)
	y, m, d := start.Date()
	return time.Date(y, m, d+1, 0, 0, 0, 0, start.Location())
}
