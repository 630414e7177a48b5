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

	"github.com/nao1215/crawlytics/internal/model"
)

// FileName is the name of the SQLite database file inside the database
// directory.
const FileName = "crawlytics.db"

// CrawlDB provides SQLite-based storage for crawl reports.
//
// Design decision: Reports are stored as JSON next to a few indexed
// columns. History queries only need the columns; the JSON is decoded
// when a full report is requested.
type CrawlDB struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures CrawlDB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging for better concurrent performance.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates a CrawlDB in dbDir.
// If CreateIfNotExists is true, the directory and database file are created.
// If CreateIfNotExists is false and the database doesn't exist, an error is returned.
func Open(dbDir string, opts Options) (*CrawlDB, error) {
	dbPath := filepath.Join(dbDir, FileName)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s (use CreateIfNotExists option to create)", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// mode=rw refuses to create a missing file; mode=rwc allows it.
	dsn := dbPath + "?mode=rw"
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite only supports one writer
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	cdb := &CrawlDB{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := cdb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return cdb, nil
}

// Path returns the path of the database file.
func (cdb *CrawlDB) Path() string {
	return cdb.dbPath
}

// Close closes the database connection.
func (cdb *CrawlDB) Close() error {
	return cdb.db.Close()
}

// createTables creates the database schema if it doesn't exist.
func (cdb *CrawlDB) createTables() error {
	schema := `
	-- Crawl reports store complete crawl results as JSON
	CREATE TABLE IF NOT EXISTS crawl_reports (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id TEXT NOT NULL,
		domain TEXT NOT NULL,
		seed TEXT NOT NULL,
		timestamp DATETIME DEFAULT CURRENT_TIMESTAMP,
		reason TEXT,
		visited_count INTEGER NOT NULL DEFAULT 0,
		fingerprint TEXT,
		report_json TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_reports_domain ON crawl_reports(domain);
	CREATE INDEX IF NOT EXISTS idx_reports_timestamp ON crawl_reports(timestamp);
	CREATE INDEX IF NOT EXISTS idx_reports_fingerprint ON crawl_reports(fingerprint);
	`

	_, err := cdb.db.ExecContext(context.Background(), schema)
	return err
}

// SaveCrawlReport saves a complete crawl report and returns its ID.
func (cdb *CrawlDB) SaveCrawlReport(ctx context.Context, report *model.CrawlReport) (int64, error) {
	if report == nil {
		return 0, errors.New("cannot save nil report")
	}

	reportJSON, err := json.Marshal(report)
	if err != nil {
		return 0, fmt.Errorf("failed to serialize report: %w", err)
	}

	query := `
	INSERT INTO crawl_reports (session_id, domain, seed, reason, visited_count, fingerprint, report_json)
	VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	result, err := cdb.db.ExecContext(ctx, query,
		report.SessionID,
		report.Domain,
		report.Seed,
		report.Reason,
		report.TotalVisited(),
		report.Fingerprint,
		string(reportJSON),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to save crawl report: %w", err)
	}

	return result.LastInsertId()
}

// GetLatestCrawlReport retrieves the most recent crawl report for a domain.
// It returns nil without error when the domain was never crawled.
func (cdb *CrawlDB) GetLatestCrawlReport(ctx context.Context, domain string) (*model.CrawlReport, error) {
	query := `
	SELECT report_json FROM crawl_reports
	WHERE domain = ?
	ORDER BY timestamp DESC, id DESC
	LIMIT 1
	`

	return cdb.queryReport(ctx, query, domain)
}

// GetCrawlReportByID retrieves a crawl report by its database ID.
// It returns nil without error when no report has that ID.
func (cdb *CrawlDB) GetCrawlReportByID(ctx context.Context, id int64) (*model.CrawlReport, error) {
	query := `
	SELECT report_json FROM crawl_reports
	WHERE id = ?
	`

	return cdb.queryReport(ctx, query, id)
}

// queryReport runs a query that selects a single report_json column.
func (cdb *CrawlDB) queryReport(ctx context.Context, query string, args ...any) (*model.CrawlReport, error) {
	var reportJSON string
	err := cdb.db.QueryRowContext(ctx, query, args...).Scan(&reportJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get crawl report: %w", err)
	}

	var report model.CrawlReport
	if err := json.Unmarshal([]byte(reportJSON), &report); err != nil {
		return nil, fmt.Errorf("failed to parse report: %w", err)
	}

	return &report, nil
}

// ListCrawledDomains returns every domain with at least one stored report.
func (cdb *CrawlDB) ListCrawledDomains(ctx context.Context) ([]string, error) {
	query := `
	SELECT DISTINCT domain FROM crawl_reports
	ORDER BY domain
	`

	rows, err := cdb.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list domains: %w", err)
	}
	defer rows.Close()

	var domains []string
	for rows.Next() {
		var domain string
		if err := rows.Scan(&domain); err != nil {
			return nil, fmt.Errorf("failed to scan domain: %w", err)
		}
		domains = append(domains, domain)
	}

	return domains, rows.Err()
}

// ReportMetadata contains summary information about a crawl report.
// This is used for displaying crawl history without loading the full report.
type ReportMetadata struct {
	// ID is the unique identifier of the crawl report in the database.
	ID int64

	// SessionID identifies the crawl session.
	SessionID string

	// Domain is the crawled domain.
	Domain string

	// Seed is the start URL of the crawl.
	Seed string

	// Timestamp is when the report was stored.
	Timestamp time.Time

	// Reason explains why the crawl ended.
	Reason string

	// VisitedCount is the number of visited URLs.
	VisitedCount int

	// Fingerprint is the digest of the visited set.
	Fingerprint string
}

// GetCrawlHistory retrieves report metadata for a domain, newest first.
func (cdb *CrawlDB) GetCrawlHistory(ctx context.Context, domain string) ([]ReportMetadata, error) {
	query := `
	SELECT id, session_id, domain, seed, timestamp, reason, visited_count, fingerprint
	FROM crawl_reports
	WHERE domain = ?
	ORDER BY timestamp DESC, id DESC
	`

	rows, err := cdb.db.QueryContext(ctx, query, domain)
	if err != nil {
		return nil, fmt.Errorf("failed to get crawl history: %w", err)
	}
	defer rows.Close()

	var results []ReportMetadata
	for rows.Next() {
		var meta ReportMetadata
		var timestamp string
		var reason, fingerprint sql.NullString

		if err := rows.Scan(
			&meta.ID,
			&meta.SessionID,
			&meta.Domain,
			&meta.Seed,
			&timestamp,
			&reason,
			&meta.VisitedCount,
			&fingerprint,
		); err != nil {
			return nil, fmt.Errorf("failed to scan metadata: %w", err)
		}

		meta.Timestamp = parseTimestamp(timestamp)
		meta.Reason = reason.String
		meta.Fingerprint = fingerprint.String
		results = append(results, meta)
	}

	return results, rows.Err()
}

// timestampFormats contains the timestamp formats that SQLite may return.
// The order matters: more specific formats should come first.
var timestampFormats = []string{
	"2006-01-02 15:04:05",     // SQLite default datetime format
	"2006-01-02T15:04:05Z",    // ISO 8601 with Z suffix
	"2006-01-02T15:04:05",     // ISO 8601 without timezone
	time.RFC3339,              // Full RFC3339 format
	time.RFC3339Nano,          // RFC3339 with nanoseconds
	"2006-01-02 15:04:05.999", // SQLite with milliseconds
}

// parseTimestamp attempts to parse a timestamp string using multiple formats.
// SQLite may return timestamps in different formats depending on configuration.
// If parsing fails with all formats, returns zero time.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
