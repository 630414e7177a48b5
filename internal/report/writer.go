package report

import (
	"io"
	"strings"

	"github.com/nao1215/crawlytics/internal/classify"
	"github.com/nao1215/crawlytics/internal/model"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Writer defines the interface for report output.
// Implementations write crawl results in various formats.
//
// Design decision: We use an interface to allow different output formats
// and destinations. This enables writing to files or stdout with the same API.
type Writer interface {
	// Write outputs the report to the configured destination.
	// Returns the number of bytes written and any error encountered.
	Write(report *model.CrawlReport) (int, error)

	// WriteDiff outputs how the visited set changed from older to newer.
	WriteDiff(older, newer *model.CrawlReport) (int, error)
}

// MultiWriter writes to multiple Writers simultaneously.
// This is useful for outputting to both terminal and file.
//
// Design decision: We implement this as a separate type rather than
// using io.MultiWriter because our Writer interface is different
// from io.Writer - we write reports, not raw bytes.
type MultiWriter struct {
	writers []Writer
}

// NewMultiWriter creates a Writer that writes to all provided Writers.
func NewMultiWriter(writers ...Writer) *MultiWriter {
	return &MultiWriter{writers: writers}
}

// Write outputs the report to all configured Writers.
// Returns the total bytes written across all writers.
// Stops on first error encountered.
func (m *MultiWriter) Write(report *model.CrawlReport) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.Write(report)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// WriteDiff outputs the diff to all configured Writers.
func (m *MultiWriter) WriteDiff(older, newer *model.CrawlReport) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.WriteDiff(older, newer)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// baseWriter provides common functionality for report writers.
type baseWriter struct {
	output io.Writer
}

// newBaseWriter creates a baseWriter with the given output destination.
func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}

// dateFormat is used for every timestamp shown in reports.
const dateFormat = "2006-01-02 15:04:05 MST"

// titleCaser renders machine labels such as "url-limit" for humans.
var titleCaser = cases.Title(language.English)

// statusLabel describes how the crawl ended, e.g. "Url Limit" or
// "Grace Expired (forced)".
func statusLabel(report *model.CrawlReport) string {
	if report.ErrorMessage != "" && report.Reason == "" {
		return "Error - " + report.ErrorMessage
	}
	reason := report.Reason
	if reason == "" {
		reason = model.ReasonQuiescent
	}
	label := titleCaser.String(strings.ReplaceAll(reason, "-", " "))
	if report.Forced {
		label += " (forced)"
	}
	return label
}

// knownPageCount returns how many visited URLs end in a well-known page
// extension such as .html or .php.
func knownPageCount(report *model.CrawlReport) int {
	n := 0
	for _, u := range report.Visited {
		if classify.IsKnownPageExtension(u) {
			n++
		}
	}
	return n
}
