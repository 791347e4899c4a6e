package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nao1215/gowget/internal/model"
)

// DBFileName is the name of the history database inside the data directory.
const DBFileName = "gowget.db"

var (
	// ErrRunNotFound is returned when no recorded run matches an ID.
	ErrRunNotFound = errors.New("mirror run not found")

	// ErrAmbiguousRunID is returned when an ID prefix matches several runs.
	ErrAmbiguousRunID = errors.New("run ID prefix matches more than one run")
)

// HistoryDB stores mirror runs and the files they wrote.
type HistoryDB struct {
	db     *sql.DB
	dbPath string
}

// Options configures HistoryDB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates the history database in dbDir.
// If CreateIfNotExists is false and the database doesn't exist, an error is returned.
func Open(dbDir string, opts Options) (*HistoryDB, error) {
	dbPath := filepath.Join(dbDir, DBFileName)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else if err := os.MkdirAll(dbDir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	// mode=rw refuses to create a missing file, mode=rwc allows it.
	dsn := dbPath + "?mode=rw"
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	hdb := &HistoryDB{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := hdb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return hdb, nil
}

// Path returns the database file path.
func (h *HistoryDB) Path() string {
	return h.dbPath
}

// Close closes the database connection.
func (h *HistoryDB) Close() error {
	return h.db.Close()
}

// createTables creates the database schema if it doesn't exist.
func (h *HistoryDB) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS mirror_runs (
		id TEXT PRIMARY KEY,
		base_url TEXT NOT NULL,
		domain TEXT NOT NULL,
		root TEXT NOT NULL,
		started_at TEXT NOT NULL,
		finished_at TEXT,
		stored INTEGER NOT NULL DEFAULT 0,
		skipped INTEGER NOT NULL DEFAULT 0,
		failed INTEGER NOT NULL DEFAULT 0,
		bytes INTEGER NOT NULL DEFAULT 0,
		converted INTEGER NOT NULL DEFAULT 0,
		canceled INTEGER NOT NULL DEFAULT 0,
		error TEXT,
		report_json TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_runs_domain ON mirror_runs(domain);
	CREATE INDEX IF NOT EXISTS idx_runs_started ON mirror_runs(started_at);

	CREATE TABLE IF NOT EXISTS mirror_pages (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL REFERENCES mirror_runs(id) ON DELETE CASCADE,
		url TEXT NOT NULL,
		path TEXT NOT NULL,
		size INTEGER NOT NULL,
		content_type TEXT,
		status_code INTEGER
	);

	CREATE INDEX IF NOT EXISTS idx_pages_run ON mirror_pages(run_id);
	`

	_, err := h.db.ExecContext(context.Background(), schema)
	return err
}

// RunSummary is one row of mirror_runs without the stored pages.
type RunSummary struct {
	ID         string
	BaseURL    string
	Domain     string
	Root       string
	StartedAt  time.Time
	FinishedAt time.Time
	Stored     int
	Skipped    int
	Failed     int
	Bytes      int64
	Converted  int
	Canceled   bool
	Error      string
}

// SaveRun records a finished run and its stored pages in one transaction.
func (h *HistoryDB) SaveRun(ctx context.Context, report *model.MirrorReport) error {
	reportJSON, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to serialize report: %w", err)
	}

	tx, err := h.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after Commit

	_, err = tx.ExecContext(ctx, `
	INSERT INTO mirror_runs (id, base_url, domain, root, started_at, finished_at,
		stored, skipped, failed, bytes, converted, canceled, error, report_json)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		report.ID,
		report.BaseURL,
		report.Domain,
		report.Root,
		formatTimestamp(report.StartedAt),
		formatTimestamp(report.FinishedAt),
		len(report.Pages),
		report.Skipped,
		len(report.Failures),
		report.TotalBytes(),
		report.ConvertedFiles,
		report.Canceled,
		report.Error,
		string(reportJSON),
	)
	if err != nil {
		return fmt.Errorf("failed to save mirror run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
	INSERT INTO mirror_pages (run_id, url, path, size, content_type, status_code)
	VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare page insert: %w", err)
	}
	defer stmt.Close()

	for _, p := range report.Pages {
		if _, err := stmt.ExecContext(ctx, report.ID, p.URL, p.Path, p.Size, p.ContentType, p.StatusCode); err != nil {
			return fmt.Errorf("failed to save page %s: %w", p.URL, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit mirror run: %w", err)
	}
	return nil
}

// ListRuns returns recorded runs, newest first.
// An empty domain lists every domain; limit <= 0 means no limit.
func (h *HistoryDB) ListRuns(ctx context.Context, domain string, limit int) ([]RunSummary, error) {
	query := `
	SELECT id, base_url, domain, root, started_at, finished_at,
		stored, skipped, failed, bytes, converted, canceled, error
	FROM mirror_runs
	WHERE (? = '' OR domain = ?)
	ORDER BY started_at DESC
	`
	args := []any{domain, domain}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := h.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []RunSummary
	for rows.Next() {
		var (
			r                  RunSummary
			started            string
			finished, errorMsg sql.NullString
		)
		if err := rows.Scan(&r.ID, &r.BaseURL, &r.Domain, &r.Root, &started, &finished,
			&r.Stored, &r.Skipped, &r.Failed, &r.Bytes, &r.Converted, &r.Canceled, &errorMsg); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		r.StartedAt = parseTimestamp(started)
		r.FinishedAt = parseTimestamp(finished.String)
		r.Error = errorMsg.String
		runs = append(runs, r)
	}

	return runs, rows.Err()
}

// ResolveRunID expands an ID prefix, as shown by "gowget history", to a full run ID.
func (h *HistoryDB) ResolveRunID(ctx context.Context, prefix string) (string, error) {
	rows, err := h.db.QueryContext(ctx,
		`SELECT id FROM mirror_runs WHERE substr(id, 1, length(?)) = ? LIMIT 2`, prefix, prefix)
	if err != nil {
		return "", fmt.Errorf("failed to resolve run ID: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return "", fmt.Errorf("failed to scan run ID: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return "", err
	}

	switch len(ids) {
	case 0:
		return "", fmt.Errorf("%w: %s", ErrRunNotFound, prefix)
	case 1:
		return ids[0], nil
	default:
		return "", fmt.Errorf("%w: %s", ErrAmbiguousRunID, prefix)
	}
}

// GetRun returns the full report of a recorded run.
func (h *HistoryDB) GetRun(ctx context.Context, id string) (*model.MirrorReport, error) {
	var reportJSON string
	err := h.db.QueryRowContext(ctx, `SELECT report_json FROM mirror_runs WHERE id = ?`, id).Scan(&reportJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get mirror run: %w", err)
	}

	var report model.MirrorReport
	if err := json.Unmarshal([]byte(reportJSON), &report); err != nil {
		return nil, fmt.Errorf("failed to parse report: %w", err)
	}
	return &report, nil
}

// GetRunPages returns the files stored by a run in the order they were written.
func (h *HistoryDB) GetRunPages(ctx context.Context, runID string) ([]model.StoredPage, error) {
	rows, err := h.db.QueryContext(ctx, `
	SELECT url, path, size, content_type, status_code
	FROM mirror_pages
	WHERE run_id = ?
	ORDER BY id
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to get run pages: %w", err)
	}
	defer rows.Close()

	var pages []model.StoredPage
	for rows.Next() {
		var (
			p           model.StoredPage
			contentType sql.NullString
			status      sql.NullInt64
		)
		if err := rows.Scan(&p.URL, &p.Path, &p.Size, &contentType, &status); err != nil {
			return nil, fmt.Errorf("failed to scan page: %w", err)
		}
		p.ContentType = contentType.String
		p.StatusCode = int(status.Int64)
		pages = append(pages, p)
	}

	return pages, rows.Err()
}

// DeleteRun removes a run and its pages.
func (h *HistoryDB) DeleteRun(ctx context.Context, id string) error {
	tx, err := h.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after Commit

	if _, err := tx.ExecContext(ctx, `DELETE FROM mirror_pages WHERE run_id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete run pages: %w", err)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM mirror_runs WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete mirror run: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit delete: %w", err)
	}
	return nil
}

// formatTimestamp stores times in UTC with a fixed width so that
// lexical order in SQL equals chronological order.
func formatTimestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(timestampLayout)
}

const timestampLayout = "2006-01-02T15:04:05.000000000Z"

func parseTimestamp(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(timestampLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
