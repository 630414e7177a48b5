package budget

import (
	"sync"
	"sync/atomic"
	"time"
)

// Default limits.
const (
	// DefaultTimeLimit is the wall-clock budget of a crawl.
	DefaultTimeLimit = 20 * time.Minute

	// DefaultGracePeriod is how long in-flight tasks may run after the
	// time budget is exhausted.
	DefaultGracePeriod = 5 * time.Minute
)

// State is the lifecycle state of a crawl session.
type State int

const (
	// Running accepts new claims and dispatches work.
	Running State = iota
	// LimitReached means the URL limit was hit; no new claims are accepted.
	LimitReached
	// TimedOut means the time budget was exhausted.
	TimedOut
	// Draining waits for in-flight tasks after a stop.
	Draining
	// Terminated is final.
	Terminated
)

// String returns the state name used in logs and reports.
func (s State) String() string {
	switch s {
	case Running:
		return "running"
	case LimitReached:
		return "limit-reached"
	case TimedOut:
		return "timed-out"
	case Draining:
		return "draining"
	case Terminated:
		return "terminated"
	default:
		return "unknown"
	}
}

// Trigger identifies which budget stopped the crawl.
type Trigger int

const (
	// NoTrigger means no budget has been exhausted.
	NoTrigger Trigger = iota
	// URLLimit is the page-count budget.
	URLLimit
	// TimeLimit is the wall-clock budget.
	TimeLimit
)

// String returns the trigger name.
func (t Trigger) String() string {
	switch t {
	case URLLimit:
		return "url-limit"
	case TimeLimit:
		return "time-limit"
	default:
		return "none"
	}
}

// Controller tracks both budgets of one crawl.
// All methods are safe for concurrent use.
type Controller struct {
	urlLimit    int
	timeLimit   time.Duration
	gracePeriod time.Duration
	now         func() time.Time
	start       time.Time

	// abandon is read by every task for every href, so it lives outside mu.
	abandon atomic.Bool

	mu             sync.Mutex
	limitReached   bool
	limitAnnounced bool
	timedOut       bool
	draining       bool
	terminated     bool
	forced         bool
	first          Trigger
	graceDeadline  time.Time
}

// Option configures a Controller.
type Option func(*Controller)

// WithURLLimit sets the maximum number of discovered URLs.
// Zero or a negative value disables the count budget.
func WithURLLimit(n int) Option {
	return func(c *Controller) {
		c.urlLimit = n
	}
}

// WithTimeLimit sets the wall-clock budget. Zero disables it.
func WithTimeLimit(d time.Duration) Option {
	return func(c *Controller) {
		if d >= 0 {
			c.timeLimit = d
		}
	}
}

// WithGracePeriod sets how long tasks may run after the time budget expires.
func WithGracePeriod(d time.Duration) Option {
	return func(c *Controller) {
		if d >= 0 {
			c.gracePeriod = d
		}
	}
}

// WithClock replaces time.Now. Intended for tests.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) {
		if now != nil {
			c.now = now
		}
	}
}

// New creates a Controller whose clock starts now.
func New(opts ...Option) *Controller {
	c := &Controller{
		timeLimit:   DefaultTimeLimit,
		gracePeriod: DefaultGracePeriod,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.start = c.now()
	return c
}

// URLLimit returns the configured URL limit (<= 0 means unlimited).
func (c *Controller) URLLimit() int {
	return c.urlLimit
}

// Elapsed returns the time since the controller was created.
func (c *Controller) Elapsed() time.Duration {
	return c.now().Sub(c.start)
}

// StartedAt returns the crawl start time.
func (c *Controller) StartedAt() time.Time {
	return c.start
}

// Observe checks both budgets against the current discovered count.
// It returns the trigger that fired on this call, or NoTrigger. Each
// trigger is returned at most once, including a URL limit first noticed
// by AllowClaim.
func (c *Controller) Observe(discovered int) Trigger {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.terminated {
		return NoTrigger
	}
	if !c.limitReached && c.overLimit(discovered) {
		c.stop(URLLimit)
	}
	if c.limitReached && !c.limitAnnounced {
		c.limitAnnounced = true
		return URLLimit
	}
	if !c.timedOut && c.timeLimit > 0 && c.now().Sub(c.start) > c.timeLimit {
		c.stop(TimeLimit)
		return TimeLimit
	}
	return NoTrigger
}

// AllowClaim reports whether a task may claim another URL given the current
// discovered count. Reaching the URL limit here raises the limit flag
// without waiting for the next Observe.
func (c *Controller) AllowClaim(discovered int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.terminated || c.timedOut {
		return false
	}
	if c.overLimit(discovered) {
		if !c.limitReached {
			c.stop(URLLimit)
		}
		return false
	}
	return !c.limitReached
}

func (c *Controller) overLimit(discovered int) bool {
	return c.urlLimit > 0 && discovered >= c.urlLimit
}

// stop records a trigger. c.mu must be held.
func (c *Controller) stop(t Trigger) {
	switch t {
	case URLLimit:
		c.limitReached = true
	case TimeLimit:
		c.timedOut = true
		c.graceDeadline = c.now().Add(c.gracePeriod)
		c.abandon.Store(true)
	}
	if c.first == NoTrigger {
		c.first = t
	}
}

// Stopped reports whether either budget is exhausted.
func (c *Controller) Stopped() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.limitReached || c.timedOut
}

// Abandon reports whether tasks should stop following links.
// Only the time budget sets it.
func (c *Controller) Abandon() bool {
	return c.abandon.Load()
}

// BeginDrain moves a stopped controller into Draining.
// It has no effect while Running or once Terminated.
func (c *Controller) BeginDrain() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if (c.limitReached || c.timedOut) && !c.terminated {
		c.draining = true
	}
}

// GraceDeadline returns the deadline set by the time budget, or the zero
// time when the time budget has not fired.
func (c *Controller) GraceDeadline() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.graceDeadline
}

// GraceExpired reports whether the time budget fired and its grace
// deadline has passed.
func (c *Controller) GraceExpired() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.timedOut && !c.now().Before(c.graceDeadline)
}

// Terminate moves the controller into its final state. forced records that
// tasks were still running when the grace deadline expired.
func (c *Controller) Terminate(forced bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.terminated {
		return
	}
	c.terminated = true
	c.forced = forced
}

// Forced reports whether termination happened with tasks outstanding.
func (c *Controller) Forced() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.forced
}

// Trigger returns the budget that stopped the crawl first.
func (c *Controller) Trigger() Trigger {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.first
}

// State returns the current lifecycle state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch {
	case c.terminated:
		return Terminated
	case c.draining:
		return Draining
	case c.timedOut:
		return TimedOut
	case c.limitReached:
		return LimitReached
	default:
		return Running
	}
}
