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

	"github.com/DmitryBochkarev/string-tools/internal/model"
	"github.com/DmitryBochkarev/string-tools/linkpolicy"
)

// FileName is the name of the database file inside the database directory.
const FileName = "linkfilter.db"

// ErrNotFound is returned when a database is required to exist but does not.
var ErrNotFound = errors.New("database not found")

// HistoryDB provides SQLite-based storage for filter runs and the verdicts
// taken in them.
type HistoryDB struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
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

// Open opens or creates a HistoryDB in dbDir.
// If CreateIfNotExists is false and the database doesn't exist, an error
// wrapping ErrNotFound is returned.
func Open(dbDir string, opts Options) (*HistoryDB, error) {
	dbPath := filepath.Join(dbDir, FileName)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("%w at %s", ErrNotFound, dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0o750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// mode=rw refuses to create a missing file.
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

// Path returns the path of the database file.
func (hdb *HistoryDB) Path() string {
	return hdb.dbPath
}

// Close closes the database connection.
func (hdb *HistoryDB) Close() error {
	return hdb.db.Close()
}

// createTables creates the database schema if it doesn't exist.
func (hdb *HistoryDB) createTables() error {
	schema := `
	-- One row per filtered document
	CREATE TABLE IF NOT EXISTS filter_runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		source TEXT NOT NULL,
		timestamp DATETIME DEFAULT CURRENT_TIMESTAMP,
		input_digest TEXT,
		output_digest TEXT,
		kept INTEGER DEFAULT 0,
		unwrapped INTEGER DEFAULT 0,
		normalized INTEGER DEFAULT 0,
		report_json TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_runs_source ON filter_runs(source);
	CREATE INDEX IF NOT EXISTS idx_runs_timestamp ON filter_runs(timestamp);

	-- One row per anchor verdict, innermost anchors first
	CREATE TABLE IF NOT EXISTS link_verdicts (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id INTEGER NOT NULL REFERENCES filter_runs(id) ON DELETE CASCADE,
		href TEXT NOT NULL,
		host TEXT,
		kind TEXT NOT NULL,
		verdict TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_verdicts_run ON link_verdicts(run_id);
	CREATE INDEX IF NOT EXISTS idx_verdicts_verdict ON link_verdicts(verdict);
	CREATE INDEX IF NOT EXISTS idx_verdicts_host ON link_verdicts(host);
	`

	_, err := hdb.db.ExecContext(context.Background(), schema)
	return err
}

// SaveFilterReport stores a filter report and its link verdicts in one
// transaction and returns the ID of the new run.
func (hdb *HistoryDB) SaveFilterReport(ctx context.Context, report *model.FilterReport) (int64, error) {
	reportJSON, err := json.Marshal(report)
	if err != nil {
		return 0, fmt.Errorf("failed to serialize report: %w", err)
	}

	tx, err := hdb.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	result, err := tx.ExecContext(ctx, `
	INSERT INTO filter_runs (source, timestamp, input_digest, output_digest, kept, unwrapped, normalized, report_json)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		report.Source,
		report.DateProcessed.UTC().Format(time.DateTime),
		report.InputDigest,
		report.OutputDigest,
		report.Kept,
		report.Unwrapped,
		report.Normalized,
		string(reportJSON),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to save filter run: %w", err)
	}

	runID, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read run id: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
	INSERT INTO link_verdicts (run_id, href, host, kind, verdict)
	VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare verdict insert: %w", err)
	}
	defer stmt.Close() //nolint:errcheck // closed with the transaction

	for _, link := range report.Links {
		if _, err := stmt.ExecContext(ctx, runID, link.Href, link.Host, link.Kind.String(), link.Verdict.String()); err != nil {
			return 0, fmt.Errorf("failed to save link verdict: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit filter run: %w", err)
	}

	return runID, nil
}

// RunRecord contains summary information about a stored filter run.
// It is used for listing history without loading the full report.
type RunRecord struct {
	// ID is the unique identifier of the run in the database.
	ID int64

	// Source is the file path or "-" the document was read from.
	Source string

	// Timestamp is when the document was filtered.
	Timestamp time.Time

	// InputDigest and OutputDigest are the content digests of the document.
	InputDigest  string
	OutputDigest string

	// Kept, Unwrapped and Normalized are the counters of the run.
	Kept       int
	Unwrapped  int
	Normalized int
}

// ListRuns returns stored runs, newest first. An empty source lists the
// runs of every source.
func (hdb *HistoryDB) ListRuns(ctx context.Context, source string) ([]RunRecord, error) {
	query := `
	SELECT id, source, timestamp, input_digest, output_digest, kept, unwrapped, normalized
	FROM filter_runs
	WHERE 1=1
	`
	args := make([]any, 0)

	if source != "" {
		query += " AND source = ?"
		args = append(args, source)
	}

	query += " ORDER BY timestamp DESC, id DESC"

	rows, err := hdb.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var results []RunRecord
	for rows.Next() {
		var run RunRecord
		var timestamp string
		var inputDigest, outputDigest sql.NullString

		if err := rows.Scan(
			&run.ID,
			&run.Source,
			&timestamp,
			&inputDigest,
			&outputDigest,
			&run.Kept,
			&run.Unwrapped,
			&run.Normalized,
		); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}

		run.Timestamp = parseTimestamp(timestamp)
		run.InputDigest = inputDigest.String
		run.OutputDigest = outputDigest.String
		results = append(results, run)
	}

	return results, rows.Err()
}

// GetRunByID retrieves the full report of a run.
// It returns nil without error when no run has the ID.
func (hdb *HistoryDB) GetRunByID(ctx context.Context, id int64) (*model.FilterReport, error) {
	query := `
	SELECT report_json FROM filter_runs
	WHERE id = ?
	`

	var reportJSON string
	err := hdb.db.QueryRowContext(ctx, query, id).Scan(&reportJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get filter run: %w", err)
	}

	var report model.FilterReport
	if err := json.Unmarshal([]byte(reportJSON), &report); err != nil {
		return nil, fmt.Errorf("failed to parse report: %w", err)
	}

	return &report, nil
}

// VerdictRecord is one stored anchor verdict.
type VerdictRecord struct {
	RunID   int64
	Href    string
	Host    string
	Kind    linkpolicy.Kind
	Verdict linkpolicy.Verdict
}

// QueryVerdicts queries link verdicts with optional filters, in the order
// they were decided. A zero runID matches every run and an empty verdict
// matches every verdict.
func (hdb *HistoryDB) QueryVerdicts(ctx context.Context, runID int64, verdict string) ([]VerdictRecord, error) {
	query := `
	SELECT run_id, href, host, kind, verdict
	FROM link_verdicts
	WHERE 1=1
	`
	args := make([]any, 0)

	if runID != 0 {
		query += " AND run_id = ?"
		args = append(args, runID)
	}
	if verdict != "" {
		query += " AND verdict = ?"
		args = append(args, verdict)
	}

	query += " ORDER BY run_id, id"

	rows, err := hdb.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query verdicts: %w", err)
	}
	defer rows.Close()

	var results []VerdictRecord
	for rows.Next() {
		var rec VerdictRecord
		var host sql.NullString
		var kind, verdictText string

		if err := rows.Scan(&rec.RunID, &rec.Href, &host, &kind, &verdictText); err != nil {
			return nil, fmt.Errorf("failed to scan verdict: %w", err)
		}
		if err := rec.Kind.UnmarshalText([]byte(kind)); err != nil {
			return nil, fmt.Errorf("failed to parse verdict row: %w", err)
		}
		if err := rec.Verdict.UnmarshalText([]byte(verdictText)); err != nil {
			return nil, fmt.Errorf("failed to parse verdict row: %w", err)
		}

		rec.Host = host.String
		results = append(results, rec)
	}

	return results, rows.Err()
}

// ListSources returns every source that has stored runs, sorted.
func (hdb *HistoryDB) ListSources(ctx context.Context) ([]string, error) {
	query := `
	SELECT DISTINCT source FROM filter_runs
	ORDER BY source
	`

	rows, err := hdb.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list sources: %w", err)
	}
	defer rows.Close()

	var sources []string
	for rows.Next() {
		var source string
		if err := rows.Scan(&source); err != nil {
			return nil, fmt.Errorf("failed to scan source: %w", err)
		}
		sources = append(sources, source)
	}

	return sources, rows.Err()
}

// timestampFormats contains the timestamp formats that SQLite may return.
// More specific formats come first.
var timestampFormats = []string{
	time.DateTime,
	"2006-01-02T15:04:05Z",
	"2006-01-02T15:04:05",
	time.RFC3339,
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999",
}

// parseTimestamp parses a timestamp string using multiple formats.
// It returns the zero time if no format matches.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
