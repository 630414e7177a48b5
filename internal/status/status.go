package status

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Event marks a status update that announces a transition.
type Event string

const (
	// EventProgress is a periodic update.
	EventProgress Event = ""
	// EventURLLimit announces that the URL limit was reached.
	EventURLLimit Event = "url-limit"
	// EventTimeLimit announces that the time limit was reached.
	EventTimeLimit Event = "time-limit"
	// EventComplete announces the end of the crawl.
	EventComplete Event = "complete"
)

// Status is a snapshot of a running crawl.
type Status struct {
	SessionID string        `json:"session_id"`
	Seed      string        `json:"seed"`
	Domain    string        `json:"domain"`
	Elapsed   time.Duration `json:"elapsed"`
	// Visited is the number of discovered URLs.
	Visited int `json:"visited"`
	// Active is the number of outstanding tasks.
	Active int `json:"active"`
	// Fetched is the number of links accepted into the frontier.
	Fetched int `json:"fetched"`
	// Pages is the number of pages fetched successfully.
	Pages       int           `json:"pages"`
	State       string        `json:"state"`
	Event       Event         `json:"event,omitempty"`
	GracePeriod time.Duration `json:"grace_period,omitempty"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

// Reporter publishes status snapshots.
type Reporter interface {
	Report(ctx context.Context, s Status) error
}

// FormatElapsed renders d as h:m:s without zero padding.
func FormatElapsed(d time.Duration) string {
	secs := int64(d / time.Second)
	hours := secs / 3600
	secs -= hours * 3600
	mins := secs / 60
	secs -= mins * 60
	return fmt.Sprintf("%d:%d:%d", hours, mins, secs)
}

// FormatLine renders the progress line for s.
func FormatLine(s Status) string {
	return fmt.Sprintf("[%s] Visited URLs %d Threads %d Fetched URLs %d",
		FormatElapsed(s.Elapsed), s.Visited, s.Active, s.Fetched)
}

// MultiReporter fans a status out to several reporters.
type MultiReporter struct {
	reporters []Reporter
}

// NewMultiReporter creates a reporter that forwards to every non-nil reporter.
func NewMultiReporter(reporters ...Reporter) *MultiReporter {
	m := &MultiReporter{}
	for _, r := range reporters {
		if r != nil {
			m.reporters = append(m.reporters, r)
		}
	}
	return m
}

// Report forwards s to every reporter and joins their errors.
func (m *MultiReporter) Report(ctx context.Context, s Status) error {
	var errs []error
	for _, r := range m.reporters {
		if err := r.Report(ctx, s); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
