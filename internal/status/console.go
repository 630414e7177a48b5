package status

import (
	"context"
	"fmt"
	"io"
	"sync"
)

// ConsoleReporter prints human-readable progress lines.
type ConsoleReporter struct {
	mu sync.Mutex
	w  io.Writer
}

// NewConsoleReporter creates a reporter writing to w.
func NewConsoleReporter(w io.Writer) *ConsoleReporter {
	return &ConsoleReporter{w: w}
}

// Report prints the progress line, or a notice for transition events.
func (c *ConsoleReporter) Report(_ context.Context, s Status) error {
	var line string
	switch s.Event {
	case EventURLLimit:
		line = "Url Limit Reached"
	case EventTimeLimit:
		line = fmt.Sprintf("Time Limit Reached. Waiting for running tasks (%s)", s.GracePeriod)
	case EventComplete:
		line = fmt.Sprintf("Complete execution: Total Visited URLs: %d", s.Visited)
	default:
		line = FormatLine(s)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	_, err := fmt.Fprintln(c.w, line)
	return err
}
