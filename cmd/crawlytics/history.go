package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/nao1215/crawlytics/internal/config"
	"github.com/nao1215/crawlytics/internal/database"
	"github.com/nao1215/crawlytics/internal/report"
	"github.com/spf13/cobra"
)

// fingerprintPrefixLen is how much of a fingerprint the history listing shows.
const fingerprintPrefixLen = 12

// historyOptions holds the parsed flags of the history command.
type historyOptions struct {
	listDomains bool
	id          int64
	diff        bool
	json        bool
	markdown    bool
}

// NewHistoryCmd creates the history command.
// This command reads crawl reports stored in the history database.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history [domain]",
		Short: "Show stored crawl reports and compare crawls",
		Long: `History reads the crawl reports saved by previous crawls.

Without flags it lists every crawl of the domain, newest first. With --diff
it compares the URLs visited by the latest two crawls, or by the crawl given
with --id and the latest one.

Examples:
  # List all crawled domains in the database
  crawlytics history --list-domains

  # List crawl history for a domain
  crawlytics history example.com

  # Show a stored report
  crawlytics history --id 3

  # Compare the latest two crawls of a domain
  crawlytics history --diff example.com

  # Compare crawl 3 with the latest crawl in Markdown
  crawlytics history --diff --id 3 --markdown example.com`,
		Args: cobra.MaximumNArgs(1),
		RunE: runHistoryCmd,
	}

	cmd.Flags().BoolP("list-domains", "L", false,
		"List all crawled domains in the database")
	cmd.Flags().Int64P("id", "i", 0,
		"Show the report with this ID, or compare it with the latest crawl when used with --diff")
	cmd.Flags().BoolP("diff", "d", false,
		"Compare two crawls of the domain")
	cmd.Flags().BoolP("json", "j", false,
		"Output in JSON format")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output in Markdown format")

	return cmd
}

// runHistoryCmd executes the history command.
func runHistoryCmd(cmd *cobra.Command, args []string) error {
	opts, err := parseHistoryFlags(cmd)
	if err != nil {
		return err
	}

	var domain string
	if len(args) > 0 {
		domain = strings.ToLower(strings.TrimSpace(args[0]))
	}

	// Validate arguments before opening the database.
	if err := validateHistoryArgs(opts, domain); err != nil {
		return &argumentError{err: err}
	}

	db, err := database.Open(config.XDGDataDir(), database.DefaultOptions())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	return runHistory(cmd.Context(), cmd.OutOrStdout(), db, opts, domain)
}

// parseHistoryFlags reads the history command flags.
func parseHistoryFlags(cmd *cobra.Command) (historyOptions, error) {
	var opts historyOptions
	var err error

	flags := cmd.Flags()
	if opts.listDomains, err = flags.GetBool("list-domains"); err != nil {
		return opts, err
	}
	if opts.id, err = flags.GetInt64("id"); err != nil {
		return opts, err
	}
	if opts.diff, err = flags.GetBool("diff"); err != nil {
		return opts, err
	}
	if opts.json, err = flags.GetBool("json"); err != nil {
		return opts, err
	}
	if opts.markdown, err = flags.GetBool("markdown"); err != nil {
		return opts, err
	}
	return opts, nil
}

// validateHistoryArgs checks the flag combination of the history command.
func validateHistoryArgs(opts historyOptions, domain string) error {
	if opts.json && opts.markdown {
		return config.ErrConflictingReportFormats
	}
	if opts.id < 0 {
		return fmt.Errorf("report ID must be positive, got %d", opts.id)
	}
	if opts.listDomains {
		return nil
	}
	if domain == "" && (opts.diff || opts.id == 0) {
		return errors.New("domain is required (use --list-domains to see crawled domains)")
	}
	return nil
}

// runHistory performs the history operation selected by opts.
func runHistory(ctx context.Context, w io.Writer, db *database.CrawlDB, opts historyOptions, domain string) error {
	writer := newHistoryWriter(w, opts)

	switch {
	case opts.listDomains:
		return listCrawledDomains(ctx, w, db)
	case opts.diff:
		return diffCrawls(ctx, writer, db, domain, opts.id)
	case opts.id > 0:
		return showCrawlReport(ctx, writer, db, opts.id)
	default:
		return listCrawlHistory(ctx, w, db, domain)
	}
}

// newHistoryWriter returns the report writer for the output format in opts.
func newHistoryWriter(w io.Writer, opts historyOptions) report.Writer {
	switch {
	case opts.json:
		return report.NewJSONWriter(w, report.WithPrettyPrint())
	case opts.markdown:
		return report.NewMarkdownWriter(w)
	default:
		return report.NewSimpleWriter(w)
	}
}

// listCrawledDomains lists all domains that have crawl reports in the database.
func listCrawledDomains(ctx context.Context, w io.Writer, db *database.CrawlDB) error {
	domains, err := db.ListCrawledDomains(ctx)
	if err != nil {
		return fmt.Errorf("failed to list domains: %w", err)
	}

	if len(domains) == 0 {
		fmt.Fprintln(w, "No crawled domains found in the database.")
		fmt.Fprintln(w, "\nUse 'crawlytics --url <url>' to crawl a site.")
		return nil
	}

	fmt.Fprintf(w, "Crawled domains (%d):\n\n", len(domains))
	for _, domain := range domains {
		fmt.Fprintf(w, "  • %s\n", domain)
	}
	fmt.Fprintln(w, "\nUse 'crawlytics history <domain>' to see the crawl history of a domain.")

	return nil
}

// listCrawlHistory lists all crawl records for a domain.
func listCrawlHistory(ctx context.Context, w io.Writer, db *database.CrawlDB, domain string) error {
	history, err := db.GetCrawlHistory(ctx, domain)
	if err != nil {
		return fmt.Errorf("failed to get crawl history: %w", err)
	}

	if len(history) == 0 {
		fmt.Fprintf(w, "No crawl history found for %s\n", domain)
		fmt.Fprintln(w, "\nUse 'crawlytics --url <url>' to crawl this site.")
		return nil
	}

	fmt.Fprintf(w, "Crawl history for %s (%d crawls):\n\n", domain, len(history))
	fmt.Fprintf(w, "  %-6s  %-20s  %-6s  %-14s  %s\n", "ID", "Date", "URLs", "Reason", "Fingerprint")
	fmt.Fprintln(w, "  "+strings.Repeat("-", 70))

	for _, meta := range history {
		fmt.Fprintf(w, "  %-6d  %-20s  %-6d  %-14s  %s\n",
			meta.ID,
			meta.Timestamp.Format("2006-01-02 15:04:05"),
			meta.VisitedCount,
			reasonOrNA(meta.Reason),
			shortFingerprint(meta.Fingerprint),
		)
	}

	fmt.Fprintln(w, "\nUse 'crawlytics history --diff <domain>' to compare the latest two crawls.")
	fmt.Fprintln(w, "Use 'crawlytics history --id <id>' to show a stored report.")

	return nil
}

func reasonOrNA(reason string) string {
	if reason == "" {
		return "N/A"
	}
	return reason
}

func shortFingerprint(fingerprint string) string {
	if len(fingerprint) > fingerprintPrefixLen {
		return fingerprint[:fingerprintPrefixLen]
	}
	return fingerprint
}

// showCrawlReport writes the stored report with the given ID.
func showCrawlReport(ctx context.Context, writer report.Writer, db *database.CrawlDB, id int64) error {
	crawlReport, err := db.GetCrawlReportByID(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to get report with ID %d: %w", id, err)
	}
	if crawlReport == nil {
		return fmt.Errorf("report with ID %d not found", id)
	}

	_, err = writer.Write(crawlReport)
	return err
}

// diffCrawls compares two crawls of domain. The newer side is always the
// latest crawl; the older side is the crawl with withID, or the crawl
// before the latest when withID is 0.
func diffCrawls(ctx context.Context, writer report.Writer, db *database.CrawlDB, domain string, withID int64) error {
	history, err := db.GetCrawlHistory(ctx, domain)
	if err != nil {
		return fmt.Errorf("failed to get crawl history: %w", err)
	}

	if len(history) == 0 {
		return fmt.Errorf("no crawl history found for %s", domain)
	}
	if len(history) < 2 && withID == 0 {
		return fmt.Errorf("at least 2 crawls are required for comparison (found %d)", len(history))
	}

	newer, err := db.GetCrawlReportByID(ctx, history[0].ID)
	if err != nil {
		return fmt.Errorf("failed to get latest report: %w", err)
	}

	olderID := withID
	if olderID == 0 {
		olderID = history[1].ID
	}

	older, err := db.GetCrawlReportByID(ctx, olderID)
	if err != nil {
		return fmt.Errorf("failed to get report with ID %d: %w", olderID, err)
	}
	if older == nil {
		return fmt.Errorf("report with ID %d not found", olderID)
	}
	// Validate that the report belongs to the same domain
	if older.Domain != domain {
		return fmt.Errorf("report ID %d belongs to %s, not %s", olderID, older.Domain, domain)
	}

	_, err = writer.WriteDiff(older, newer)
	return err
}
