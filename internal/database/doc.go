// Package database provides SQLite-based storage for crawl reports.
//
// Every finished crawl can be saved with its full report. The stored
// history lets the CLI list crawled domains, show earlier runs of a domain
// and compare the visited sets of two runs.
//
// Design decision: We use SQLite (via modernc.org/sqlite) instead of other
// databases because:
// 1. No external dependencies - the database is a single file
// 2. CGO-free implementation allows easy cross-compilation
// 3. WAL mode provides good concurrent read performance
package database
