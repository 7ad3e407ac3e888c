package store

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"
	"strings"
	"sync"
	"time"

	"modernc.org/sqlite"

	"github.com/amishk599/gigfinder/internal/model"
)

// createdAtLayout is fixed-width so that lexical order equals time order.
const createdAtLayout = "2006-01-02T15:04:05.000000000Z07:00"

// foldFunc lowercases with Go's Unicode rules. SQLite's built-in lower()
// only folds ASCII, so "ÉCOLE" would never match "école".
const foldFunc = "gigfinder_fold"

func init() {
	sqlite.MustRegisterDeterministicScalarFunction(foldFunc, 1, fold)
}

func fold(_ *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
	switch v := args[0].(type) {
	case string:
		return strings.ToLower(v), nil
	case []byte:
		return strings.ToLower(string(v)), nil
	default:
		return v, nil
	}
}

var _ model.JobStore = (*SQLiteStore)(nil)

// queryer is satisfied by both *sql.DB and *sql.Tx.
type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// SQLiteStore persists jobs in a SQLite database. The UNIQUE constraint on
// (platform, external_id) makes Insert idempotent.
type SQLiteStore struct {
	db *sql.DB

	mu   sync.Mutex // serializes inserts and guards last
	last time.Time  // created_at of the most recent insert
	now  func() time.Time
}

// NewSQLiteStore opens (or creates) a SQLite database at dbPath and migrates
// the jobs schema.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)", dbPath)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}
	// sqlite wants a single writer
	db.SetMaxOpenConns(1)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging sqlite db: %w", err)
	}

	if err := migrate(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	s := &SQLiteStore{db: db, now: time.Now}
	if err := s.loadLast(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func migrate(ctx context.Context, db *sql.DB) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin migration: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var version int
	if err := tx.QueryRowContext(ctx, `PRAGMA user_version`).Scan(&version); err != nil {
		return fmt.Errorf("reading schema version: %w", err)
	}
	if version >= 1 {
		return tx.Commit()
	}

	stmts := []string{
		`CREATE TABLE IF NOT EXISTS jobs (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			platform    TEXT NOT NULL,
			external_id TEXT NOT NULL,
			title       TEXT NOT NULL,
			url         TEXT NOT NULL,
			budget      TEXT NOT NULL DEFAULT 'N/A',
			description TEXT NOT NULL DEFAULT '',
			posted_at   TEXT NOT NULL,
			created_at  TEXT NOT NULL,
			UNIQUE(platform, external_id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_jobs_created_at ON jobs(created_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_jobs_platform ON jobs(platform)`,
		`CREATE INDEX IF NOT EXISTS idx_jobs_title ON jobs(title)`,
		`PRAGMA user_version = 1`,
	}
	for _, stmt := range stmts {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrating jobs schema: %w", err)
		}
	}
	return tx.Commit()
}

// loadLast restores the insert clock so created_at keeps increasing across
// restarts.
func (s *SQLiteStore) loadLast(ctx context.Context) error {
	var last sql.NullString
	if err := s.db.QueryRowContext(ctx, `SELECT MAX(created_at) FROM jobs`).Scan(&last); err != nil {
		return fmt.Errorf("reading last created_at: %w", err)
	}
	if !last.Valid || last.String == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339Nano, last.String)
	if err != nil {
		return fmt.Errorf("parsing last created_at %q: %w", last.String, err)
	}
	s.last = t
	return nil
}

// Exists returns true if a job with the given key has been stored.
func (s *SQLiteStore) Exists(ctx context.Context, platform model.Platform, externalID string) (bool, error) {
	var exists int
	err := s.db.QueryRowContext(ctx,
		`SELECT 1 FROM jobs WHERE platform = ? AND external_id = ?`,
		string(platform), externalID,
	).Scan(&exists)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("checking existence of %s:%s: %w", platform, externalID, err)
	}
	return true, nil
}

// Insert stores job if its (platform, external_id) is new and reports
// whether a row was written. CreatedAt is assigned here.
func (s *SQLiteStore) Insert(ctx context.Context, job model.Job) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	createdAt := nextCreatedAt(s.now(), s.last)
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO jobs (platform, external_id, title, url, budget, description, posted_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(platform, external_id) DO NOTHING`,
		string(job.Platform),
		job.ExternalID,
		job.Title,
		job.URL,
		job.Budget,
		job.Description,
		job.PostedAt,
		createdAt.Format(createdAtLayout),
	)
	if err != nil {
		return false, fmt.Errorf("inserting job %s: %w", job.Key(), err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("inserting job %s: %w", job.Key(), err)
	}
	if n == 0 {
		return false, nil
	}
	s.last = createdAt
	return true, nil
}

// List returns stored jobs newest first, filtered and windowed by opts.
func (s *SQLiteStore) List(ctx context.Context, opts model.ListOptions) ([]model.Job, error) {
	return list(ctx, s.db, opts)
}

// Count returns the number of stored jobs matching opts, ignoring the window.
func (s *SQLiteStore) Count(ctx context.Context, opts model.ListOptions) (int, error) {
	return count(ctx, s.db, opts)
}

// Page runs Count and List inside one transaction so that the total agrees
// with the returned window even while another process inserts.
func (s *SQLiteStore) Page(ctx context.Context, opts model.ListOptions) ([]model.Job, int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("beginning read transaction: %w", err)
	}
	// read only, nothing to commit
	defer tx.Rollback()

	total, err := count(ctx, tx, opts)
	if err != nil {
		return nil, 0, err
	}
	if max(opts.Offset, 0) >= total {
		return nil, total, nil
	}
	jobs, err := list(ctx, tx, opts)
	if err != nil {
		return nil, 0, err
	}
	return jobs, total, nil
}

func list(ctx context.Context, q queryer, opts model.ListOptions) ([]model.Job, error) {
	where, args := whereClause(opts)

	limit := opts.Limit
	if limit <= 0 {
		limit = -1 // sqlite: no limit
	}
	offset := opts.Offset
	if offset < 0 {
		offset = 0
	}
	args = append(args, limit, offset)

	rows, err := q.QueryContext(ctx, `
		SELECT platform, external_id, title, url, budget, description, posted_at, created_at
		FROM jobs`+where+`
		ORDER BY created_at DESC, id DESC
		LIMIT ? OFFSET ?`, args...)
	if err != nil {
		return nil, fmt.Errorf("listing jobs: %w", err)
	}
	defer rows.Close()

	var jobs []model.Job
	for rows.Next() {
		var (
			j         model.Job
			platform  string
			createdAt string
		)
		if err := rows.Scan(&platform, &j.ExternalID, &j.Title, &j.URL, &j.Budget, &j.Description, &j.PostedAt, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning job row: %w", err)
		}
		j.Platform = model.Platform(platform)
		if t, err := time.Parse(time.RFC3339Nano, createdAt); err == nil {
			j.CreatedAt = t
		}
		jobs = append(jobs, j)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing jobs: %w", err)
	}
	return jobs, nil
}

func count(ctx context.Context, q queryer, opts model.ListOptions) (int, error) {
	where, args := whereClause(opts)
	var n int
	if err := q.QueryRowContext(ctx, `SELECT COUNT(*) FROM jobs`+where, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting jobs: %w", err)
	}
	return n, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// whereClause builds the token OR-predicate and platform filter.
// instr is used instead of LIKE so tokens need no wildcard escaping.
func whereClause(opts model.ListOptions) (string, []any) {
	var (
		conds []string
		args  []any
	)
	if len(opts.Tokens) > 0 {
		ors := make([]string, 0, len(opts.Tokens))
		for _, tok := range opts.Tokens {
			tok = strings.ToLower(tok)
			ors = append(ors, "(instr("+foldFunc+"(title), ?) > 0 OR instr("+foldFunc+"(description), ?) > 0)")
			args = append(args, tok, tok)
		}
		conds = append(conds, "("+strings.Join(ors, " OR ")+")")
	}
	if opts.Platform != "" {
		conds = append(conds, "platform = ?")
		args = append(args, string(opts.Platform))
	}
	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// nextCreatedAt returns now, or the smallest representable instant after
// last when the clock has not moved past it.
func nextCreatedAt(now, last time.Time) time.Time {
	now = now.UTC()
	if !now.After(last) {
		return last.Add(time.Nanosecond).UTC()
	}
	return now
}
