package crawler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/nao1215/crawlytics/internal/budget"
	"github.com/nao1215/crawlytics/internal/classify"
	"github.com/nao1215/crawlytics/internal/fetcher"
	"github.com/nao1215/crawlytics/internal/frontier"
	"github.com/nao1215/crawlytics/internal/model"
	"github.com/nao1215/crawlytics/internal/scheduler"
	"github.com/nao1215/crawlytics/internal/scope"
	"github.com/nao1215/crawlytics/internal/status"
)

// Default crawl settings.
const (
	// DefaultURLLimit is the maximum number of URLs a crawl discovers.
	DefaultURLLimit = 1000

	// DefaultTickInterval is the period of the control loop.
	DefaultTickInterval = 250 * time.Millisecond

	// DefaultStatusInterval is the longest gap between two status reports.
	DefaultStatusInterval = 20 * time.Second

	// DefaultTimeout bounds every HTTP navigation made by Crawl.
	DefaultTimeout = 30 * time.Second
)

// Fetcher loads pages and resolves relative references.
// *fetcher.HTTPFetcher implements this interface.
//
// Implementations must return promptly once ctx is cancelled and must wrap
// connection-level failures with fetcher.ErrConnection.
type Fetcher interface {
	Fetch(ctx context.Context, pageURL string) (*fetcher.Page, error)
	Resolve(ctx context.Context, href, origin string) (*fetcher.Resolution, error)
}

// Crawler runs crawl sessions. A Crawler holds configuration only, so one
// value may run several crawls, including concurrently.
type Crawler struct {
	fetcher        Fetcher
	urlLimit       int
	capacity       int
	timeLimit      time.Duration
	gracePeriod    time.Duration
	tickInterval   time.Duration
	backoff        time.Duration
	statusInterval time.Duration
	reportTimeout  time.Duration
	logger         *slog.Logger
	reporter       status.Reporter
	classifier     *classify.Classifier
	paths          classify.PathFilter
}

// Option configures a Crawler.
type Option func(*Crawler)

// WithURLLimit sets the maximum number of discovered URLs.
// Zero or a negative value removes the limit.
func WithURLLimit(n int) Option {
	return func(c *Crawler) {
		c.urlLimit = n
	}
}

// WithCapacity sets the number of concurrent tasks.
func WithCapacity(n int) Option {
	return func(c *Crawler) {
		if n > 0 {
			c.capacity = n
		}
	}
}

// WithTimeLimit sets the wall-clock budget of a crawl.
func WithTimeLimit(d time.Duration) Option {
	return func(c *Crawler) {
		if d > 0 {
			c.timeLimit = d
		}
	}
}

// WithGracePeriod sets how long running tasks may continue after the time
// limit is reached.
func WithGracePeriod(d time.Duration) Option {
	return func(c *Crawler) {
		if d >= 0 {
			c.gracePeriod = d
		}
	}
}

// WithTickInterval sets the period of the control loop.
func WithTickInterval(d time.Duration) Option {
	return func(c *Crawler) {
		if d > 0 {
			c.tickInterval = d
		}
	}
}

// WithBackoff sets the pause after a connection failure.
func WithBackoff(d time.Duration) Option {
	return func(c *Crawler) {
		if d >= 0 {
			c.backoff = d
		}
	}
}

// WithStatusInterval sets the longest gap between two status reports.
func WithStatusInterval(d time.Duration) Option {
	return func(c *Crawler) {
		if d > 0 {
			c.statusInterval = d
		}
	}
}

// WithReportTimeout bounds each status report. Reports run apart from the
// control loop, so a slow reporter delays only later snapshots.
func WithReportTimeout(d time.Duration) Option {
	return func(c *Crawler) {
		if d > 0 {
			c.reportTimeout = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Crawler) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithReporter sets where status snapshots are published.
func WithReporter(r status.Reporter) Option {
	return func(c *Crawler) {
		c.reporter = r
	}
}

// WithClassifier replaces the default link classifier.
func WithClassifier(cl *classify.Classifier) Option {
	return func(c *Crawler) {
		if cl != nil {
			c.classifier = cl
		}
	}
}

// WithPathFilter restricts the crawl to paths allowed by f.
func WithPathFilter(f classify.PathFilter) Option {
	return func(c *Crawler) {
		c.paths = f
	}
}

// New creates a Crawler that loads pages through f.
func New(f Fetcher, opts ...Option) *Crawler {
	c := &Crawler{
		fetcher:        f,
		urlLimit:       DefaultURLLimit,
		capacity:       scheduler.DefaultCapacity,
		timeLimit:      budget.DefaultTimeLimit,
		gracePeriod:    budget.DefaultGracePeriod,
		tickInterval:   DefaultTickInterval,
		backoff:        scope.DefaultBackoff,
		statusInterval: DefaultStatusInterval,
		reportTimeout:  DefaultReportTimeout,
		logger:         slog.Default(),
		classifier:     classify.New(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Crawl builds a default HTTP client and crawls seedURL with default settings
// and the given URL limit. It returns the sorted visited URLs.
func Crawl(ctx context.Context, seedURL string, urlLimit int) ([]string, error) {
	client, err := fetcher.NewHTTPClient(fetcher.ClientConfig{Timeout: DefaultTimeout})
	if err != nil {
		return nil, err
	}

	report, err := New(fetcher.New(client), WithURLLimit(urlLimit)).Crawl(ctx, seedURL)
	if report == nil {
		return nil, err
	}
	return report.Visited, err
}

// Crawl crawls the site of seed and returns what it found.
//
// The seed is fetched first to learn the crawl domain from its
// redirect-resolved URL; if that fetch fails, Crawl returns an error
// wrapping ErrSeedUnreachable and no report. Every later failure is local
// to the task it happens in.
//
// If ctx is cancelled, Crawl stops, waits for running tasks to return and
// reports the partial result together with ctx.Err().
func (c *Crawler) Crawl(ctx context.Context, seed string) (*model.CrawlReport, error) {
	sessionID := uuid.NewString()
	logger := c.logger.With("crawl_id", sessionID)

	ctrl := budget.New(
		budget.WithURLLimit(c.urlLimit),
		budget.WithTimeLimit(c.timeLimit),
		budget.WithGracePeriod(c.gracePeriod),
	)

	seedPage, err := c.fetcher.Fetch(ctx, seed)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrSeedUnreachable, seed, err)
	}

	s := &session{
		id:         sessionID,
		seed:       seed,
		domain:     scope.DomainOf(seedPage.FinalURL),
		fetcher:    c.fetcher,
		frontier:   frontier.New(),
		budget:     ctrl,
		classifier: c.classifier,
		paths:      c.paths,
		resolver:   scope.NewResolver(c.fetcher, scope.WithBackoff(c.backoff), scope.WithLogger(logger)),
		backoff:    c.backoff,
		logger:     logger,
		status:     newPublisher(c.reporter, c.reportTimeout, logger),
	}
	s.seedPage.Store(seedPage)

	logger.Info("starting crawl",
		"seed", seed,
		"domain", s.domain,
		"url_limit", c.urlLimit,
		"capacity", c.capacity,
	)

	crawlCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	pool := scheduler.New(s.crawlPage,
		scheduler.WithCapacity(c.capacity),
		scheduler.WithLogger(logger),
	)
	pool.Start(crawlCtx)

	s.frontier.TryClaim(seed)
	pool.Submit(seed)

	reason, forced, loopErr := c.run(crawlCtx, s, pool)
	if reason == model.ReasonGraceExpired {
		logger.Warn("grace period expired, cancelling running tasks",
			"active", pool.Active(),
		)
	}
	cancel()
	pool.Close()
	_ = pool.Wait()
	ctrl.Terminate(forced)

	report := c.buildReport(s, reason, forced)
	c.publish(s, pool, status.EventComplete)
	s.status.close(c.reportTimeout)

	logger.Info("crawl finished",
		"reason", reason,
		"visited", report.TotalVisited(),
		"pages_fetched", report.PagesFetched,
		"elapsed", report.Elapsed,
	)

	if loopErr != nil {
		report.ErrorMessage = loopErr.Error()
		return report, loopErr
	}
	return report, nil
}

// buildReport collects the session results.
func (c *Crawler) buildReport(s *session, reason string, forced bool) *model.CrawlReport {
	report := model.NewCrawlReport(s.id, s.seed)
	report.Domain = s.domain
	report.StartedAt = s.budget.StartedAt()
	report.Elapsed = s.budget.Elapsed()
	report.URLLimit = c.urlLimit
	report.Capacity = c.capacity
	report.SetVisited(s.frontier.Snapshot())
	report.PagesFetched = int(s.pagesFetched.Load())
	report.FetchedLinks = int(s.fetchedLinks.Load())
	report.LogoutPage = s.logoutPage()
	report.State = s.budget.State().String()
	report.Reason = reason
	report.Forced = forced
	return report
}
