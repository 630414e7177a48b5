package crawler

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nao1215/crawlytics/internal/budget"
	"github.com/nao1215/crawlytics/internal/classify"
	"github.com/nao1215/crawlytics/internal/fetcher"
	"github.com/nao1215/crawlytics/internal/frontier"
	"github.com/nao1215/crawlytics/internal/scope"
)

// session is the state of one crawl. The frontier and budget are shared by
// all tasks; counters are atomic; everything else is read-only once the
// crawl starts.
type session struct {
	id         string
	seed       string
	domain     string
	fetcher    Fetcher
	frontier   *frontier.Frontier
	budget     *budget.Controller
	classifier *classify.Classifier
	paths      classify.PathFilter
	resolver   *scope.Resolver
	backoff    time.Duration
	logger     *slog.Logger
	status     *publisher

	// seedPage is the page fetched to learn the domain. The seed task takes
	// it instead of fetching the seed a second time.
	seedPage atomic.Pointer[fetcher.Page]

	pagesFetched atomic.Int64
	fetchedLinks atomic.Int64

	logoutOnce sync.Once
	logout     atomic.Pointer[string]
}

// crawlPage is the worker task: fetch pageURL, filter its links and claim
// the new ones.
func (s *session) crawlPage(ctx context.Context, pageURL string) {
	page, err := s.fetch(ctx, pageURL)
	if err != nil {
		switch {
		case ctx.Err() != nil:
		case errors.Is(err, fetcher.ErrConnection):
			s.logger.Debug("connection failed, backing off",
				"url", pageURL, "backoff", s.backoff, "error", err)
			sleep(ctx, s.backoff)
		default:
			s.logger.Error("failed to fetch page", "url", pageURL, "error", err)
		}
		return
	}
	s.pagesFetched.Add(1)

	links := s.collectLinks(ctx, pageURL, page.Hrefs)
	claimed := 0
	for _, link := range links {
		if !s.budget.AllowClaim(s.frontier.Size()) {
			break
		}
		if s.frontier.TryClaim(link) {
			s.frontier.Enqueue(link)
			s.fetchedLinks.Add(1)
			claimed++
		}
	}

	s.logger.Debug("page crawled",
		"url", pageURL,
		"status", page.StatusCode,
		"hrefs", len(page.Hrefs),
		"accepted", len(links),
		"claimed", claimed,
	)
}

// fetch returns the prefetched seed page for the seed URL and fetches
// every other URL.
func (s *session) fetch(ctx context.Context, pageURL string) (*fetcher.Page, error) {
	if pageURL == s.seed {
		if page := s.seedPage.Swap(nil); page != nil {
			return page, nil
		}
	}
	return s.fetcher.Fetch(ctx, pageURL)
}

// collectLinks runs hrefs through classification, resolution and the scope
// filters and returns the accepted absolute URLs in first-seen order.
func (s *session) collectLinks(ctx context.Context, pageURL string, hrefs []string) []string {
	seen := make(map[string]struct{})
	links := make([]string, 0)

	for _, href := range hrefs {
		if ctx.Err() != nil || s.budget.Abandon() {
			break
		}

		switch s.classifier.Classify(href) {
		case classify.SessionEnd:
			s.recordLogout(href)
			continue
		case classify.Ignore:
			continue
		case classify.Follow:
		}

		link, ok := s.resolver.Resolve(ctx, href, pageURL)
		if !ok || !scope.IsInScope(link, s.domain) || !s.paths.Allows(link) {
			continue
		}
		if _, dup := seen[link]; dup {
			continue
		}
		seen[link] = struct{}{}
		links = append(links, link)
	}
	return links
}

// recordLogout remembers the first session-ending link of the crawl.
func (s *session) recordLogout(href string) {
	s.logoutOnce.Do(func() {
		s.logout.Store(&href)
		s.logger.Info("session end link found, not following", "href", href)
	})
}

// logoutPage returns the recorded session-ending link, or "".
func (s *session) logoutPage() string {
	if p := s.logout.Load(); p != nil {
		return *p
	}
	return ""
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
