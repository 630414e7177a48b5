package database

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/nao1215/crawlytics/internal/model"
)

// setupTestDB creates a temporary database for testing.
func setupTestDB(t *testing.T) *CrawlDB {
	t.Helper()

	db, err := Open(t.TempDir(), DefaultOptions())
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	return db
}

// newTestReport builds a finished report for domain with the given URLs.
func newTestReport(domain string, urls ...string) *model.CrawlReport {
	report := model.NewCrawlReport("session-"+domain, "http://"+domain)
	report.Domain = domain
	report.Reason = model.ReasonQuiescent
	report.PagesFetched = len(urls)
	report.SetVisited(urls)
	return report
}

// TestOpen tests database opening and creation.
func TestOpen(t *testing.T) {
	t.Parallel()

	t.Run("creates database in new directory", func(t *testing.T) {
		t.Parallel()

		dbDir := filepath.Join(t.TempDir(), "newdir", "subdir")
		db, err := Open(dbDir, DefaultOptions())
		if err != nil {
			t.Fatalf("failed to open database: %v", err)
		}
		defer db.Close()

		dbPath := filepath.Join(dbDir, FileName)
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			t.Error("database file was not created")
		}
		if db.Path() != dbPath {
			t.Errorf("expected path %q, got %q", dbPath, db.Path())
		}
	})

	t.Run("CreateIfNotExists=false returns error when database does not exist", func(t *testing.T) {
		t.Parallel()

		dbDir := filepath.Join(t.TempDir(), "nonexistent-db")

		_, err := Open(dbDir, Options{CreateIfNotExists: false, EnableWAL: true})
		if err == nil {
			t.Fatal("expected error when CreateIfNotExists=false and database does not exist")
		}
		if !strings.Contains(err.Error(), "database not found") {
			t.Errorf("expected error to mention missing database, got %q", err.Error())
		}
		if _, statErr := os.Stat(dbDir); !os.IsNotExist(statErr) {
			t.Error("database directory should not have been created when CreateIfNotExists=false")
		}
	})

	t.Run("CreateIfNotExists=false opens existing database", func(t *testing.T) {
		t.Parallel()

		dbDir := filepath.Join(t.TempDir(), "existing-db")
		ctx := context.Background()

		db1, err := Open(dbDir, DefaultOptions())
		if err != nil {
			t.Fatalf("failed to create database: %v", err)
		}
		id, err := db1.SaveCrawlReport(ctx, newTestReport("a.test", "http://a.test/"))
		if err != nil {
			t.Fatalf("failed to save report: %v", err)
		}
		db1.Close()

		db2, err := Open(dbDir, Options{CreateIfNotExists: false, EnableWAL: true})
		if err != nil {
			t.Fatalf("failed to open existing database with CreateIfNotExists=false: %v", err)
		}
		defer db2.Close()

		retrieved, err := db2.GetCrawlReportByID(ctx, id)
		if err != nil {
			t.Fatalf("failed to get report: %v", err)
		}
		if retrieved == nil {
			t.Error("expected report to persist across reopen")
		}
	})
}

// TestDefaultOptions tests the default options values.
func TestDefaultOptions(t *testing.T) {
	t.Parallel()

	opts := DefaultOptions()

	if !opts.CreateIfNotExists {
		t.Error("expected CreateIfNotExists to be true by default")
	}
	if !opts.EnableWAL {
		t.Error("expected EnableWAL to be true by default")
	}
}

// TestCrawlReports tests saving and loading complete reports.
func TestCrawlReports(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	ctx := context.Background()

	t.Run("save and retrieve report", func(t *testing.T) {
		report := newTestReport("save.test", "http://save.test/", "http://save.test/about")
		report.LogoutPage = "http://save.test/logout"
		report.Elapsed = 3 * time.Second

		id, err := db.SaveCrawlReport(ctx, report)
		if err != nil {
			t.Fatalf("failed to save report: %v", err)
		}
		if id <= 0 {
			t.Errorf("expected positive ID, got %d", id)
		}

		got, err := db.GetLatestCrawlReport(ctx, "save.test")
		if err != nil {
			t.Fatalf("failed to get report: %v", err)
		}
		if got == nil {
			t.Fatal("expected report, got nil")
		}
		if got.TotalVisited() != 2 || !got.HasVisited("http://save.test/about") {
			t.Errorf("unexpected visited set: %v", got.Visited)
		}
		if got.Fingerprint != report.Fingerprint {
			t.Errorf("expected fingerprint %q, got %q", report.Fingerprint, got.Fingerprint)
		}
		if got.LogoutPage != report.LogoutPage {
			t.Errorf("expected logout page %q, got %q", report.LogoutPage, got.LogoutPage)
		}
		if got.Elapsed != 3*time.Second {
			t.Errorf("expected elapsed 3s, got %v", got.Elapsed)
		}
	})

	t.Run("returns nil for never crawled domain", func(t *testing.T) {
		got, err := db.GetLatestCrawlReport(ctx, "never.test")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != nil {
			t.Errorf("expected nil report, got %+v", got)
		}
	})

	t.Run("returns nil for unknown ID", func(t *testing.T) {
		got, err := db.GetCrawlReportByID(ctx, 99999)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != nil {
			t.Errorf("expected nil report, got %+v", got)
		}
	})

	t.Run("rejects nil report", func(t *testing.T) {
		if _, err := db.SaveCrawlReport(ctx, nil); err == nil {
			t.Error("expected error for nil report")
		}
	})

	t.Run("latest report wins", func(t *testing.T) {
		if _, err := db.SaveCrawlReport(ctx, newTestReport("latest.test", "http://latest.test/")); err != nil {
			t.Fatalf("failed to save first report: %v", err)
		}
		second := newTestReport("latest.test", "http://latest.test/", "http://latest.test/new")
		if _, err := db.SaveCrawlReport(ctx, second); err != nil {
			t.Fatalf("failed to save second report: %v", err)
		}

		got, err := db.GetLatestCrawlReport(ctx, "latest.test")
		if err != nil {
			t.Fatalf("failed to get report: %v", err)
		}
		if got.TotalVisited() != 2 {
			t.Errorf("expected the second report with 2 URLs, got %d", got.TotalVisited())
		}
	})
}

// TestListCrawledDomains tests the distinct domain listing.
func TestListCrawledDomains(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	ctx := context.Background()

	t.Run("returns empty list for empty database", func(t *testing.T) {
		domains, err := db.ListCrawledDomains(ctx)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(domains) != 0 {
			t.Errorf("expected no domains, got %v", domains)
		}
	})

	t.Run("returns each domain once in order", func(t *testing.T) {
		for _, domain := range []string{"b.test", "a.test", "b.test"} {
			if _, err := db.SaveCrawlReport(ctx, newTestReport(domain, "http://"+domain+"/")); err != nil {
				t.Fatalf("failed to save report: %v", err)
			}
		}

		domains, err := db.ListCrawledDomains(ctx)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(domains) != 2 || domains[0] != "a.test" || domains[1] != "b.test" {
			t.Errorf("expected [a.test b.test], got %v", domains)
		}
	})
}

// TestGetCrawlHistory tests report metadata listing.
func TestGetCrawlHistory(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	ctx := context.Background()

	t.Run("returns empty list for never crawled domain", func(t *testing.T) {
		history, err := db.GetCrawlHistory(ctx, "never.test")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(history) != 0 {
			t.Errorf("expected empty history, got %d entries", len(history))
		}
	})

	t.Run("returns metadata newest first", func(t *testing.T) {
		first := newTestReport("hist.test", "http://hist.test/")
		second := newTestReport("hist.test", "http://hist.test/", "http://hist.test/a", "http://hist.test/b")
		second.Reason = model.ReasonURLLimit

		firstID, err := db.SaveCrawlReport(ctx, first)
		if err != nil {
			t.Fatalf("failed to save report: %v", err)
		}
		secondID, err := db.SaveCrawlReport(ctx, second)
		if err != nil {
			t.Fatalf("failed to save report: %v", err)
		}

		history, err := db.GetCrawlHistory(ctx, "hist.test")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(history) != 2 {
			t.Fatalf("expected 2 entries, got %d", len(history))
		}

		latest := history[0]
		if latest.ID != secondID || history[1].ID != firstID {
			t.Errorf("expected IDs [%d %d], got [%d %d]", secondID, firstID, latest.ID, history[1].ID)
		}
		if latest.VisitedCount != 3 {
			t.Errorf("expected visited count 3, got %d", latest.VisitedCount)
		}
		if latest.Reason != model.ReasonURLLimit {
			t.Errorf("expected reason %q, got %q", model.ReasonURLLimit, latest.Reason)
		}
		if latest.Fingerprint != second.Fingerprint {
			t.Errorf("expected fingerprint %q, got %q", second.Fingerprint, latest.Fingerprint)
		}
		if latest.Seed != "http://hist.test" {
			t.Errorf("expected seed http://hist.test, got %q", latest.Seed)
		}
		if latest.Timestamp.IsZero() {
			t.Error("expected timestamp to be parsed")
		}
	})
}

// TestParseTimestamp tests the timestamp fallbacks.
func TestParseTimestamp(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		zero  bool
	}{
		{name: "sqlite default format", input: "2026-01-02 15:04:05"},
		{name: "iso 8601 with Z", input: "2026-01-02T15:04:05Z"},
		{name: "rfc3339 with offset", input: "2026-01-02T15:04:05+09:00"},
		{name: "garbage returns zero time", input: "yesterday", zero: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := parseTimestamp(tt.input)
			if got.IsZero() != tt.zero {
				t.Errorf("parseTimestamp(%q) = %v, zero want %v", tt.input, got, tt.zero)
			}
		})
	}
}
