// Package report provides report generation and output functionality.
//
// This package contains writers for different output formats:
//   - SimpleWriter: Human-readable text output for terminal display
//   - JSONWriter: Structured JSON output for tool integration
//   - MarkdownWriter: Markdown output with a host distribution chart
//
// Every writer renders two documents: the result of one crawl, and the
// difference between two stored crawls of the same domain.
//
// Design decision: We separate report writing from report data structures
// (which are in the model package) so that new output formats can be added
// without modifying the core data structures.
package report
