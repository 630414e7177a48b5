package crawler

import (
	"context"
	"log/slog"
	"time"

	"github.com/nao1215/crawlytics/internal/status"
)

// DefaultReportTimeout bounds a single status report.
const DefaultReportTimeout = 2 * time.Second

// publisherQueueSize is how many snapshots may wait for a slow reporter
// before new ones are dropped.
const publisherQueueSize = 64

// publisher delivers status snapshots to a Reporter from its own goroutine,
// in order. The control loop never waits for a reporter: when the queue is
// full the snapshot is dropped.
type publisher struct {
	reporter status.Reporter
	timeout  time.Duration
	logger   *slog.Logger
	queue    chan status.Status
	done     chan struct{}
}

// newPublisher starts a publisher for r. A nil reporter yields a nil
// publisher, whose methods do nothing.
func newPublisher(r status.Reporter, timeout time.Duration, logger *slog.Logger) *publisher {
	if r == nil {
		return nil
	}
	p := &publisher{
		reporter: r,
		timeout:  timeout,
		logger:   logger,
		queue:    make(chan status.Status, publisherQueueSize),
		done:     make(chan struct{}),
	}
	go p.loop()
	return p
}

func (p *publisher) loop() {
	defer close(p.done)
	for snap := range p.queue {
		ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
		if err := p.reporter.Report(ctx, snap); err != nil {
			p.logger.Warn("failed to report crawl status", "event", snap.Event, "error", err)
		}
		cancel()
	}
}

// send queues snap without blocking.
func (p *publisher) send(snap status.Status) {
	if p == nil {
		return
	}
	select {
	case p.queue <- snap:
	default:
		p.logger.Debug("status reporter is behind, dropping snapshot", "event", snap.Event)
	}
}

// close stops accepting snapshots and waits for the queued ones to be
// delivered, but no longer than wait.
func (p *publisher) close(wait time.Duration) {
	if p == nil {
		return
	}
	close(p.queue)

	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-p.done:
	case <-timer.C:
		p.logger.Warn("status reporter did not finish in time, abandoning pending snapshots")
	}
}
