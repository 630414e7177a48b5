package report

import (
	"io"
	"strconv"

	"github.com/nao1215/crawlytics/internal/model"
	"github.com/nao1215/crawlytics/internal/status"
	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"
)

// maxChartHosts caps the number of pie chart slices; the remaining hosts
// are merged into one "other" slice.
const maxChartHosts = 8

// MarkdownWriter outputs reports in Markdown format.
// This format is designed for documentation and sharing.
//
// Design decision: We use the nao1215/markdown library for fluent markdown
// generation which provides type-safe tables, lists, GitHub-flavored
// alerts and mermaid charts.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs the report in Markdown format.
func (w *MarkdownWriter) Write(report *model.CrawlReport) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, report)
	w.writeAlert(md, report)
	w.writeHosts(md, report)
	w.writeURLs(md, report)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// writeHeader writes the report header with crawl information.
func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, report *model.CrawlReport) {
	md.H1("Crawl Report: " + report.Domain)
	md.PlainText("")

	rows := [][]string{
		{"Seed", "`" + report.Seed + "`"},
		{"Session", "`" + report.SessionID + "`"},
		{"Started", report.StartedAt.Format(dateFormat)},
		{"Elapsed", status.FormatElapsed(report.Elapsed)},
		{"URL Limit", urlLimitText(report.URLLimit)},
		{"Workers", strconv.Itoa(report.Capacity)},
		{"Visited URLs", strconv.Itoa(report.TotalVisited())},
		{"Pages Fetched", strconv.Itoa(report.PagesFetched)},
		{"Known Page Types", strconv.Itoa(knownPageCount(report))},
		{"Links Accepted", strconv.Itoa(report.FetchedLinks)},
	}
	if report.LogoutPage != "" {
		rows = append(rows, []string{"Logout Page", "`" + report.LogoutPage + "`"})
	}
	rows = append(rows, []string{"Status", statusLabel(report)})

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows:   rows,
	})
	md.PlainText("")
}

// urlLimitText renders a URL limit, where non-positive means unlimited.
func urlLimitText(limit int) string {
	if limit <= 0 {
		return "unlimited"
	}
	return strconv.Itoa(limit)
}

// writeAlert writes an alert describing how the crawl ended.
func (w *MarkdownWriter) writeAlert(md *markdown.Markdown, report *model.CrawlReport) {
	switch {
	case report.ErrorMessage != "":
		md.Cautionf("The crawl ended with an error: %s", report.ErrorMessage)
	case report.Forced:
		md.Warningf("Tasks were still running when the grace period expired. The result is partial (%d URLs).",
			report.TotalVisited())
	case report.Reason == model.ReasonURLLimit:
		md.Importantf("The URL limit of %d was reached. The site may have more pages.", report.URLLimit)
	case report.Reason == model.ReasonTimeLimit:
		md.Importantf("The time limit was reached after %s.", status.FormatElapsed(report.Elapsed))
	default:
		md.Tip("Every reachable page within the domain was crawled.")
	}
	md.PlainText("")
}

// writeHosts writes the per-host table and its pie chart.
func (w *MarkdownWriter) writeHosts(md *markdown.Markdown, report *model.CrawlReport) {
	hosts := report.HostCounts()
	if len(hosts) == 0 {
		return
	}

	md.H2("Hosts")
	md.PlainText("")

	rows := make([][]string, len(hosts))
	for i, h := range hosts {
		rows[i] = []string{h.Host, strconv.Itoa(h.Count)}
	}
	md.Table(markdown.TableSet{
		Header: []string{"Host", "URLs"},
		Rows:   rows,
	})
	md.PlainText("")

	w.writePieChart(md, hosts)
}

// writePieChart writes a mermaid pie chart of the URL distribution by host.
func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, hosts []model.HostCount) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Visited URLs by Host"),
		piechart.WithShowData(true),
	)

	var other uint64
	for i, h := range hosts {
		if i >= maxChartHosts {
			other += uint64(h.Count) //nolint:gosec // counts are never negative
			continue
		}
		chart.LabelAndIntValue(h.Host, uint64(h.Count)) //nolint:gosec // counts are never negative
	}
	if other > 0 {
		chart.LabelAndIntValue("other", other)
	}

	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

// writeURLs writes the list of visited URLs.
func (w *MarkdownWriter) writeURLs(md *markdown.Markdown, report *model.CrawlReport) {
	md.H2("Visited URLs")
	md.PlainText("")

	if report.TotalVisited() == 0 {
		md.PlainText("No URLs visited.")
		md.PlainText("")
		return
	}

	md.BulletList(codeSpans(report.Visited)...)
	md.PlainText("")
}

// WriteDiff outputs the difference between two crawls in Markdown format.
func (w *MarkdownWriter) WriteDiff(older, newer *model.CrawlReport) (int, error) {
	diff := model.Diff(older, newer)
	md := markdown.NewMarkdown(w.output)

	md.H1("Crawl Comparison: " + newer.Domain)
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Metric", "Previous", "Current"},
		Rows: [][]string{
			{"Date", older.StartedAt.Format(dateFormat), newer.StartedAt.Format(dateFormat)},
			{"Visited URLs", strconv.Itoa(older.TotalVisited()), strconv.Itoa(newer.TotalVisited())},
			{"Status", statusLabel(older), statusLabel(newer)},
		},
	})
	md.PlainText("")

	if !diff.HasChanges() {
		md.Note("Both crawls visited the same URLs.")
		md.PlainText("")
		w.writeFooter(md)
		return len(md.String()), md.Build()
	}

	if len(diff.Added) > 0 {
		md.H2("New URLs (" + strconv.Itoa(len(diff.Added)) + ")")
		md.PlainText("")
		md.BulletList(codeSpans(diff.Added)...)
		md.PlainText("")
	}
	if len(diff.Removed) > 0 {
		md.H2("Removed URLs (" + strconv.Itoa(len(diff.Removed)) + ")")
		md.PlainText("")
		removed := codeSpans(diff.Removed)
		for i, u := range removed {
			removed[i] = "~~" + u + "~~"
		}
		md.BulletList(removed...)
		md.PlainText("")
	}
	md.PlainTextf("*%d URLs unchanged*", diff.Unchanged)
	md.PlainText("")

	w.writeFooter(md)
	return len(md.String()), md.Build()
}

// codeSpans wraps each URL in backticks so Markdown renderers do not
// rewrite it.
func codeSpans(urls []string) []string {
	out := make([]string, len(urls))
	for i, u := range urls {
		out[i] = "`" + u + "`"
	}
	return out
}

// writeFooter writes the report footer.
func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainText("*Report generated by [crawlytics](https://github.com/nao1215/crawlytics)*")
}
