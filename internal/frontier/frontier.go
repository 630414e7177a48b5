package frontier

import (
	"slices"
	"sync"
)

// Frontier holds the discovered and pending URL sets of one crawl.
// All methods are safe for concurrent use.
//
// Invariants: pending is a subset of discovered, and a URL that has been
// drained never becomes pending again.
type Frontier struct {
	mu         sync.Mutex
	discovered map[string]state
	// pending keeps pending URLs in enqueue order so that Drain hands out
	// the oldest work first.
	pending []string
}

// state is where a discovered URL is in its lifecycle.
type state uint8

const (
	claimed state = iota
	queued
	drained
)

// New creates an empty Frontier.
func New() *Frontier {
	return &Frontier{
		discovered: make(map[string]state),
	}
}

// TryClaim marks url as discovered. It returns true only for the first
// caller that claims url; every later call returns false.
func (f *Frontier) TryClaim(url string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.discovered[url]; ok {
		return false
	}
	f.discovered[url] = claimed
	return true
}

// Enqueue makes a claimed url available to Drain.
// Only a URL that was claimed and never enqueued is accepted; it reports
// whether url was added.
func (f *Frontier) Enqueue(url string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	if st, ok := f.discovered[url]; !ok || st != claimed {
		return false
	}
	f.discovered[url] = queued
	f.pending = append(f.pending, url)
	return true
}

// Drain removes and returns up to maxCount pending URLs.
func (f *Frontier) Drain(maxCount int) []string {
	if maxCount <= 0 {
		return nil
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	n := min(maxCount, len(f.pending))
	if n == 0 {
		return nil
	}

	out := make([]string, n)
	copy(out, f.pending[:n])
	f.pending = slices.Delete(f.pending, 0, n)
	for _, u := range out {
		f.discovered[u] = drained
	}
	return out
}

// Size returns the number of discovered URLs.
func (f *Frontier) Size() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.discovered)
}

// PendingSize returns the number of URLs waiting to be drained.
func (f *Frontier) PendingSize() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.pending)
}

// Snapshot returns the discovered URLs in sorted order.
func (f *Frontier) Snapshot() []string {
	f.mu.Lock()
	out := make([]string, 0, len(f.discovered))
	for u := range f.discovered {
		out = append(out, u)
	}
	f.mu.Unlock()

	slices.Sort(out)
	return out
}
