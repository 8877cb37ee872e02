package store

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/showtimes-cli/internal/model"
)

// SQLiteStore implements Ledger using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

var _ Ledger = (*SQLiteStore)(nil)

// NewSQLite opens a SQLite database at the given path and configures WAL
// mode. The parent directory is created when missing.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	if dir := filepath.Dir(dsn); dir != "." && dsn != ":memory:" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, eris.Wrapf(err, "sqlite: create dir %s", dir)
		}
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS runs (
	id         TEXT PRIMARY KEY,
	site_key   TEXT NOT NULL,
	show_date  TEXT NOT NULL,
	status     TEXT NOT NULL,
	row_count  INTEGER NOT NULL DEFAULT 0,
	uniq       INTEGER NOT NULL DEFAULT 0,
	films      INTEGER NOT NULL DEFAULT 0,
	unknown    INTEGER NOT NULL DEFAULT 0,
	error      TEXT,
	created_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS best_counts (
	site_key   TEXT NOT NULL,
	show_date  TEXT NOT NULL,
	best       INTEGER NOT NULL,
	updated_at DATETIME NOT NULL DEFAULT (datetime('now')),
	PRIMARY KEY (site_key, show_date)
);

CREATE INDEX IF NOT EXISTS idx_runs_site_key ON runs(site_key);
CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Record inserts run (assigning an id and timestamp when unset), raises the
// best count of its (site, date) when run.Unique exceeds it, and returns the
// resulting totals. Everything happens in one transaction.
func (s *SQLiteStore) Record(ctx context.Context, run *model.Run) (model.Totals, error) {
	if run.ID == "" {
		run.ID = uuid.New().String()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return model.Totals{}, eris.Wrap(err, "sqlite: begin")
	}
	defer tx.Rollback() //nolint:errcheck

	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (id, site_key, show_date, status, row_count, uniq, films, unknown, error, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.SiteKey, run.ShowDate, string(run.Status),
		run.Rows, run.Unique, run.Films, run.Unknown, nullString(run.Error), run.CreatedAt,
	)
	if err != nil {
		return model.Totals{}, eris.Wrap(err, "sqlite: insert run")
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO best_counts (site_key, show_date, best, updated_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT (site_key, show_date) DO UPDATE SET
			best = MAX(best_counts.best, excluded.best),
			updated_at = CASE WHEN excluded.best > best_counts.best THEN excluded.updated_at ELSE best_counts.updated_at END`,
		run.SiteKey, run.ShowDate, run.Unique, run.CreatedAt,
	)
	if err != nil {
		return model.Totals{}, eris.Wrap(err, "sqlite: upsert best count")
	}

	var totals model.Totals
	if err := tx.QueryRowContext(ctx,
		`SELECT best FROM best_counts WHERE site_key = ? AND show_date = ?`,
		run.SiteKey, run.ShowDate,
	).Scan(&totals.Best); err != nil {
		return model.Totals{}, eris.Wrap(err, "sqlite: read best count")
	}
	if err := tx.QueryRowContext(ctx, `SELECT COALESCE(SUM(row_count), 0) FROM runs`).Scan(&totals.Cumulative); err != nil {
		return model.Totals{}, eris.Wrap(err, "sqlite: read cumulative")
	}

	if err := tx.Commit(); err != nil {
		return model.Totals{}, eris.Wrap(err, "sqlite: commit")
	}
	return totals, nil
}

func (s *SQLiteStore) ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error) {
	query := `SELECT id, site_key, show_date, status, row_count, uniq, films, unknown, error, created_at FROM runs`
	var args []any
	if filter.SiteKey != "" {
		query += ` WHERE site_key = ?`
		args = append(args, filter.SiteKey)
	}
	query += ` ORDER BY created_at DESC, rowid DESC`
	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list runs")
	}
	defer rows.Close() //nolint:errcheck

	var runs []model.Run
	for rows.Next() {
		var (
			r      model.Run
			status string
			errMsg sql.NullString
		)
		if err := rows.Scan(&r.ID, &r.SiteKey, &r.ShowDate, &status,
			&r.Rows, &r.Unique, &r.Films, &r.Unknown, &errMsg, &r.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan run")
		}
		r.Status = model.RunStatus(status)
		r.Error = errMsg.String
		runs = append(runs, r)
	}
	return runs, eris.Wrap(rows.Err(), "sqlite: iterate runs")
}

func (s *SQLiteStore) BestCounts(ctx context.Context) ([]model.BestCount, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT site_key, show_date, best, updated_at FROM best_counts ORDER BY site_key, show_date`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list best counts")
	}
	defer rows.Close() //nolint:errcheck

	var out []model.BestCount
	for rows.Next() {
		var b model.BestCount
		if err := rows.Scan(&b.SiteKey, &b.ShowDate, &b.Best, &b.UpdatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan best count")
		}
		out = append(out, b)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: iterate best counts")
}

func (s *SQLiteStore) Cumulative(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COALESCE(SUM(row_count), 0) FROM runs`).Scan(&n)
	return n, eris.Wrap(err, "sqlite: cumulative")
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
