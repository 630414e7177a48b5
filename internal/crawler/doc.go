// Package crawler drives a bounded, same-site concurrent crawl.
//
// # Architecture
//
// A Crawler wires together the pieces of a crawl session:
//
//   - frontier: the set of discovered URLs and the queue of pending ones
//   - scheduler: a fixed-size worker pool that runs one task per URL
//   - budget: the URL and time limits that stop the crawl
//   - classify and scope: the filters every discovered href passes through
//
// The control loop runs on a short tick. Each tick it checks the budgets,
// moves pending URLs to idle workers and detects quiescence: no task running
// and nothing pending. Task completions wake the loop early.
//
// # Deduplication
//
// Every URL enters the crawl through frontier.TryClaim, which succeeds once
// per URL. A URL is therefore fetched at most once per crawl, even when many
// pages link to it concurrently. URLs are compared as strings: no
// canonicalization of case, trailing slashes or query order is applied.
//
// # Stopping
//
// Reaching the URL limit stops new claims and lets running tasks finish.
// Reaching the time limit also asks tasks to stop following links and
// starts a grace period; when it expires the crawl context is cancelled and
// the crawl ends with whatever was collected.
//
// # Usage
//
//	client, _ := fetcher.NewHTTPClient(fetcher.ClientConfig{Timeout: 30 * time.Second})
//	c := crawler.New(fetcher.New(client), crawler.WithURLLimit(500))
//	report, err := c.Crawl(ctx, "http://example.com/")
package crawler
