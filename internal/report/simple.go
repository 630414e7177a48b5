package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/nao1215/crawlytics/internal/model"
	"github.com/nao1215/crawlytics/internal/status"
)

// Banner lines framing the URL listing of the text report.
const (
	crawledBanner  = "***********************Crawled URL***********************"
	completeBanner = "***********************Crawling Complete***********************"
)

// SimpleWriter outputs human-readable text reports.
// The URL listing comes first so the output can be piped into other tools;
// the summary follows it.
//
// Design decision: We use plain text with ASCII formatting rather than
// ANSI colors because it works in all terminals and is easy to pipe to
// files or other tools.
type SimpleWriter struct {
	baseWriter

	// verbose adds the per-host breakdown to the summary.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithVerbose enables verbose output with additional details.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter: newBaseWriter(output),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write outputs the report in human-readable format.
func (w *SimpleWriter) Write(report *model.CrawlReport) (int, error) {
	var sb strings.Builder

	w.writeURLs(&sb, report)
	w.writeSummary(&sb, report)
	if w.verbose {
		w.writeHosts(&sb, report)
	}

	return io.WriteString(w.output, sb.String())
}

// writeURLs writes the banner-framed list of visited URLs.
func (w *SimpleWriter) writeURLs(sb *strings.Builder, report *model.CrawlReport) {
	sb.WriteString("\n")
	fmt.Fprintf(sb, "%s  Total URls: %d\n", crawledBanner, report.TotalVisited())
	for _, u := range report.Visited {
		fmt.Fprintf(sb, " %s\n", u)
	}
	sb.WriteString(completeBanner)
	sb.WriteString("\n\n")
}

// writeSummary writes the crawl metadata.
func (w *SimpleWriter) writeSummary(sb *strings.Builder, report *model.CrawlReport) {
	fmt.Fprintf(sb, "Domain:         %s\n", report.Domain)
	fmt.Fprintf(sb, "Seed:           %s\n", report.Seed)
	fmt.Fprintf(sb, "Session:        %s\n", report.SessionID)
	fmt.Fprintf(sb, "Started:        %s\n", report.StartedAt.Format(dateFormat))
	fmt.Fprintf(sb, "Elapsed:        %s\n", status.FormatElapsed(report.Elapsed))
	fmt.Fprintf(sb, "Pages Fetched:  %d (%d with a known page extension)\n", report.PagesFetched, knownPageCount(report))
	fmt.Fprintf(sb, "Links Accepted: %d\n", report.FetchedLinks)
	if report.LogoutPage != "" {
		fmt.Fprintf(sb, "Logout Page:    %s\n", report.LogoutPage)
	}
	fmt.Fprintf(sb, "Status:         %s\n", statusLabel(report))
	if report.ErrorMessage != "" && report.Reason != "" {
		fmt.Fprintf(sb, "Error:          %s\n", report.ErrorMessage)
	}
}

// writeHosts writes the number of visited URLs per host.
func (w *SimpleWriter) writeHosts(sb *strings.Builder, report *model.CrawlReport) {
	hosts := report.HostCounts()
	if len(hosts) == 0 {
		return
	}
	sb.WriteString("\nHosts:\n")
	for _, h := range hosts {
		fmt.Fprintf(sb, "  %-40s %d\n", h.Host, h.Count)
	}
}

// WriteDiff outputs the difference between two crawls in text format.
func (w *SimpleWriter) WriteDiff(older, newer *model.CrawlReport) (int, error) {
	diff := model.Diff(older, newer)

	var sb strings.Builder
	fmt.Fprintf(&sb, "Crawl Comparison: %s\n", newer.Domain)
	sb.WriteString(strings.Repeat("=", 60))
	sb.WriteString("\n\n")

	fmt.Fprintf(&sb, "Previous crawl: %s  (%d URLs)\n", older.StartedAt.Format(dateFormat), older.TotalVisited())
	fmt.Fprintf(&sb, "Current crawl:  %s  (%d URLs)\n", newer.StartedAt.Format(dateFormat), newer.TotalVisited())

	if !diff.HasChanges() {
		sb.WriteString("\nNo changes: both crawls visited the same URLs.\n")
		return io.WriteString(w.output, sb.String())
	}

	if len(diff.Added) > 0 {
		fmt.Fprintf(&sb, "\nNew URLs (%d):\n", len(diff.Added))
		for _, u := range diff.Added {
			fmt.Fprintf(&sb, "  [+] %s\n", u)
		}
	}
	if len(diff.Removed) > 0 {
		fmt.Fprintf(&sb, "\nRemoved URLs (%d):\n", len(diff.Removed))
		for _, u := range diff.Removed {
			fmt.Fprintf(&sb, "  [-] %s\n", u)
		}
	}
	fmt.Fprintf(&sb, "\nUnchanged: %d URLs\n", diff.Unchanged)

	return io.WriteString(w.output, sb.String())
}
