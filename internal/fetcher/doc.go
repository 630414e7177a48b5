// Package fetcher implements the page fetcher used by the crawl engine.
//
// A Fetcher performs two kinds of navigation:
//   - Fetch loads a page and returns the raw href values of its anchors
//   - Resolve turns a relative reference into an absolute URL by visiting the
//     origin page and then following the reference, reading back the
//     redirect-resolved location
//
// Failures are split into two classes. Connection-level failures (refused
// connections, DNS errors, timeouts, resets) wrap ErrConnection so callers can
// apply their back-off policy. Everything else is returned as-is.
//
// Content that cannot be parsed as HTML is not an error: the page is returned
// with zero hrefs.
//
// # Usage
//
//	client, err := fetcher.NewHTTPClient(30*time.Second, "")
//	f := fetcher.New(client, fetcher.WithUserAgent("crawlytics"))
//	page, err := f.Fetch(ctx, "http://example.com/")
package fetcher
