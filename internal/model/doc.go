// Package model defines the data structures shared by the crawler, the
// report writers and the history database.
//
// This package contains the following main types:
//   - CrawlReport: the result of one crawl session
//   - ReportDiff: the difference between two crawls of the same domain
//   - HostCount: per-host page counts used by the reports
//
// Design decision: We separate models into their own package to avoid circular
// dependencies. The crawler, report and database packages all need these
// types, so centralizing them prevents import cycles.
package model
