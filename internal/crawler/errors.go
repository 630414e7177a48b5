package crawler

import "errors"

// ErrSeedUnreachable is returned when the seed URL cannot be fetched.
// It is the only failure that aborts a crawl.
var ErrSeedUnreachable = errors.New("seed URL unreachable")
