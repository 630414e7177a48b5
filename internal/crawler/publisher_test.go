package crawler

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/nao1215/crawlytics/internal/status"
)

// gatedReporter blocks until release is closed and records the events it saw.
type gatedReporter struct {
	release chan struct{}
	mu      sync.Mutex
	events  []status.Event
}

func (r *gatedReporter) Report(ctx context.Context, s status.Status) error {
	select {
	case <-r.release:
	case <-ctx.Done():
		return ctx.Err()
	}
	r.mu.Lock()
	r.events = append(r.events, s.Event)
	r.mu.Unlock()
	return nil
}

func TestPublisher(t *testing.T) {
	t.Parallel()

	t.Run("nil reporter yields a no-op publisher", func(t *testing.T) {
		t.Parallel()

		p := newPublisher(nil, time.Second, discardLogger())
		p.send(status.Status{})
		p.close(time.Second)
	})

	t.Run("send never blocks on a stuck reporter", func(t *testing.T) {
		t.Parallel()

		rep := &gatedReporter{release: make(chan struct{})}
		p := newPublisher(rep, time.Minute, discardLogger())

		done := make(chan struct{})
		go func() {
			defer close(done)
			for range publisherQueueSize * 3 {
				p.send(status.Status{Event: status.EventProgress})
			}
		}()

		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatal("send blocked on a stuck reporter")
		}

		start := time.Now()
		p.close(50 * time.Millisecond)
		if elapsed := time.Since(start); elapsed > time.Second {
			t.Errorf("close waited too long: %v", elapsed)
		}
		close(rep.release)
	})

	t.Run("snapshots are delivered in order before close returns", func(t *testing.T) {
		t.Parallel()

		rep := &gatedReporter{release: make(chan struct{})}
		close(rep.release)
		p := newPublisher(rep, time.Second, discardLogger())

		p.send(status.Status{Event: status.EventProgress})
		p.send(status.Status{Event: status.EventURLLimit})
		p.send(status.Status{Event: status.EventComplete})
		p.close(5 * time.Second)

		rep.mu.Lock()
		defer rep.mu.Unlock()
		want := []status.Event{status.EventProgress, status.EventURLLimit, status.EventComplete}
		if len(rep.events) != len(want) {
			t.Fatalf("expected %v, got %v", want, rep.events)
		}
		for i := range want {
			if rep.events[i] != want[i] {
				t.Errorf("event %d: expected %q, got %q", i, want[i], rep.events[i])
			}
		}
	})
}
