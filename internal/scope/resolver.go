package scope

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/nao1215/crawlytics/internal/fetcher"
)

// DefaultBackoff is the pause after a connection failure during resolution.
const DefaultBackoff = 10 * time.Second

// Navigator resolves a reference by navigating to it from an origin page.
// *fetcher.HTTPFetcher implements this interface.
type Navigator interface {
	Resolve(ctx context.Context, href, origin string) (*fetcher.Resolution, error)
}

// Resolver turns raw hrefs into absolute URLs.
// Absolute hrefs are returned as written; relative hrefs are resolved by
// navigation through the Navigator.
type Resolver struct {
	nav     Navigator
	backoff time.Duration
	logger  *slog.Logger
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithBackoff sets the pause applied after a connection failure.
func WithBackoff(d time.Duration) ResolverOption {
	return func(r *Resolver) {
		if d >= 0 {
			r.backoff = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) ResolverOption {
	return func(r *Resolver) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewResolver creates a Resolver backed by nav.
func NewResolver(nav Navigator, opts ...ResolverOption) *Resolver {
	r := &Resolver{
		nav:     nav,
		backoff: DefaultBackoff,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// IsRelative reports whether href is a relative reference.
// Unparseable hrefs are treated as relative so that navigation decides.
func IsRelative(href string) bool {
	u, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return true
	}
	return !u.IsAbs()
}

// Resolve returns the absolute URL for href found on origin.
// The second result is false when no URL could be produced: the navigation
// failed, or it ended with a status outside 200..400 (inclusive).
//
// After a connection failure Resolve pauses for the configured backoff
// (returning early if ctx is cancelled) before reporting no result.
func (r *Resolver) Resolve(ctx context.Context, href, origin string) (string, bool) {
	href = strings.TrimSpace(href)
	if !IsRelative(href) {
		return href, true
	}

	res, err := r.nav.Resolve(ctx, href, origin)
	if err != nil {
		switch {
		case ctx.Err() != nil:
		case errors.Is(err, fetcher.ErrConnection):
			r.logger.Debug("connection failed while resolving link",
				"href", href, "origin", origin, "error", err)
			sleep(ctx, r.backoff)
		default:
			r.logger.Error("failed to resolve link",
				"href", href, "origin", origin, "error", err)
		}
		return "", false
	}

	if res.StatusCode < 200 || res.StatusCode > 400 {
		r.logger.Debug("link resolved to unsuccessful status",
			"href", href, "url", res.FinalURL, "status", res.StatusCode)
		return "", false
	}
	return res.FinalURL, true
}

// sleep waits for d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
