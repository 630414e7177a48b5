package fetcher

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// Default request settings.
const (
	// DefaultUserAgent mimics a desktop browser so that sites serve the same
	// markup a visitor would see.
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 " +
		"(KHTML, like Gecko) Chrome/79.0.3945.130 Safari/537.36 Firefox/62.0"

	// DefaultMaxBodySize limits how much of a response body is read.
	DefaultMaxBodySize = 5 * 1024 * 1024 // 5MB
)

// Page is the outcome of a successful Fetch.
type Page struct {
	// URL is the address that was requested.
	URL string

	// FinalURL is the address after following redirects.
	FinalURL string

	// StatusCode is the HTTP status of the final response.
	StatusCode int

	// ContentType is the Content-Type header of the final response.
	ContentType string

	// Title is the page title, empty for non-HTML content.
	Title string

	// Hrefs are the raw anchor href values found on the page.
	// Empty when the content is not HTML or could not be parsed.
	Hrefs []string
}

// Resolution is the outcome of a successful Resolve.
type Resolution struct {
	// FinalURL is the absolute, redirect-resolved address of the reference.
	FinalURL string

	// StatusCode is the HTTP status returned for FinalURL.
	StatusCode int
}

// HTTPFetcher fetches pages over HTTP.
// It is safe for concurrent use when the underlying client is.
type HTTPFetcher struct {
	client      *http.Client
	userAgent   string
	maxBodySize int64
}

// Option configures an HTTPFetcher.
type Option func(*HTTPFetcher)

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(f *HTTPFetcher) {
		if ua != "" {
			f.userAgent = ua
		}
	}
}

// WithMaxBodySize sets the maximum response body size read per page.
func WithMaxBodySize(size int64) Option {
	return func(f *HTTPFetcher) {
		if size > 0 {
			f.maxBodySize = size
		}
	}
}

// New creates an HTTPFetcher using the given client.
// A nil client falls back to http.DefaultClient.
func New(client *http.Client, opts ...Option) *HTTPFetcher {
	if client == nil {
		client = http.DefaultClient
	}

	f := &HTTPFetcher{
		client:      client,
		userAgent:   DefaultUserAgent,
		maxBodySize: DefaultMaxBodySize,
	}

	for _, opt := range opts {
		opt(f)
	}

	return f
}

// Fetch loads pageURL and extracts the hrefs of its anchors.
// Non-2xx responses are not errors: their bodies are parsed like any other
// page.
func (f *HTTPFetcher) Fetch(ctx context.Context, pageURL string) (*Page, error) {
	resp, err := f.get(ctx, pageURL)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBodySize))
	if err != nil {
		return nil, classifyError(ctx, err)
	}

	page := &Page{
		URL:         pageURL,
		FinalURL:    resp.Request.URL.String(),
		StatusCode:  resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		Hrefs:       make([]string, 0),
	}

	if isHTML(page.ContentType) {
		// A document that cannot be parsed yields zero links, not an error.
		if doc, err := parseDocument(bytes.NewReader(body)); err == nil {
			page.Title = doc.title
			page.Hrefs = doc.hrefs
		}
	}

	return page, nil
}

// Resolve turns href into an absolute URL the way a browser would: it
// navigates to origin, follows href from the page it landed on, and reports
// where that second navigation ended up.
func (f *HTTPFetcher) Resolve(ctx context.Context, href, origin string) (*Resolution, error) {
	base, _, err := f.navigate(ctx, origin)
	if err != nil {
		return nil, err
	}

	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return nil, fmt.Errorf("invalid reference %q: %w", href, err)
	}

	final, status, err := f.navigate(ctx, base.ResolveReference(ref).String())
	if err != nil {
		return nil, err
	}

	return &Resolution{
		FinalURL:   final.String(),
		StatusCode: status,
	}, nil
}

// navigate performs a GET, discards the body and returns the final location.
func (f *HTTPFetcher) navigate(ctx context.Context, target string) (*url.URL, int, error) {
	resp, err := f.get(ctx, target)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	if _, err := io.Copy(io.Discard, io.LimitReader(resp.Body, f.maxBodySize)); err != nil {
		return nil, 0, classifyError(ctx, err)
	}

	return resp.Request.URL, resp.StatusCode, nil
}

// get issues a GET request with browser-like headers.
func (f *HTTPFetcher) get(ctx context.Context, target string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("invalid URL %q: %w", target, err)
	}

	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, classifyError(ctx, err)
	}
	return resp, nil
}
