package report

import (
	"encoding/json"
	"io"

	"github.com/nao1215/crawlytics/internal/model"
)

// JSONWriter outputs reports in JSON format.
// This format is designed for tool integration and programmatic processing.
type JSONWriter struct {
	baseWriter

	// indent enables pretty-printed JSON output.
	// When false, output is compact (no extra whitespace).
	indent bool

	// indentPrefix is the prefix for each line in indented output.
	indentPrefix string

	// indentString is the indentation string (typically "  " or "\t").
	indentString string

	// version is added to crawl reports when set.
	version string
}

// JSONWriterOption configures a JSONWriter.
type JSONWriterOption func(*JSONWriter)

// WithIndent enables pretty-printed JSON output.
// The prefix is prepended to each line, and indent is used for each level.
func WithIndent(prefix, indent string) JSONWriterOption {
	return func(w *JSONWriter) {
		w.indent = true
		w.indentPrefix = prefix
		w.indentString = indent
	}
}

// WithPrettyPrint enables pretty-printed JSON with default indentation.
// This is a convenience wrapper for WithIndent("", "  ").
func WithPrettyPrint() JSONWriterOption {
	return WithIndent("", "  ")
}

// WithVersion wraps crawl reports in a JSONReport carrying version.
func WithVersion(version string) JSONWriterOption {
	return func(w *JSONWriter) {
		w.version = version
	}
}

// NewJSONWriter creates a JSONWriter that outputs to the given writer.
func NewJSONWriter(output io.Writer, opts ...JSONWriterOption) *JSONWriter {
	w := &JSONWriter{
		baseWriter: newBaseWriter(output),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// JSONReport is a wrapper for the crawl report with additional metadata.
//
// Design decision: We wrap the report rather than modifying CrawlReport
// because this allows us to add output-specific fields without polluting
// the core data structure.
type JSONReport struct {
	// Version is the crawlytics version that generated this report.
	Version string `json:"version"`

	// Report is the full crawl report.
	Report *model.CrawlReport `json:"report"`

	// Hosts is the number of visited URLs per host.
	Hosts []model.HostCount `json:"hosts"`
}

// Write outputs the report in JSON format.
func (w *JSONWriter) Write(report *model.CrawlReport) (int, error) {
	if w.version == "" {
		return w.writeJSON(report)
	}
	return w.writeJSON(&JSONReport{
		Version: w.version,
		Report:  report,
		Hosts:   report.HostCounts(),
	})
}

// JSONDiff is the JSON form of a comparison between two crawls.
type JSONDiff struct {
	Domain              string `json:"domain"`
	PreviousSession     string `json:"previous_session"`
	CurrentSession      string `json:"current_session"`
	PreviousFingerprint string `json:"previous_fingerprint"`
	CurrentFingerprint  string `json:"current_fingerprint"`
	*model.ReportDiff
}

// WriteDiff outputs the difference between two crawls in JSON format.
func (w *JSONWriter) WriteDiff(older, newer *model.CrawlReport) (int, error) {
	return w.writeJSON(&JSONDiff{
		Domain:              newer.Domain,
		PreviousSession:     older.SessionID,
		CurrentSession:      newer.SessionID,
		PreviousFingerprint: older.Fingerprint,
		CurrentFingerprint:  newer.Fingerprint,
		ReportDiff:          model.Diff(older, newer),
	})
}

// writeJSON marshals the given value to JSON and writes it to the output.
func (w *JSONWriter) writeJSON(v any) (int, error) {
	var data []byte
	var err error

	if w.indent {
		data, err = json.MarshalIndent(v, w.indentPrefix, w.indentString)
	} else {
		data, err = json.Marshal(v)
	}

	if err != nil {
		return 0, err
	}

	// Add trailing newline for better terminal output
	data = append(data, '\n')

	return w.output.Write(data)
}
