package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
)

// DefaultCapacity is the default number of concurrent tasks.
const DefaultCapacity = 100

// Task processes one URL. Tasks must return promptly once ctx is cancelled.
type Task func(ctx context.Context, url string)

// Source is where the pool pulls pending URLs from.
// *frontier.Frontier implements this interface.
type Source interface {
	Drain(maxCount int) []string
	PendingSize() int
}

// Pool is a bounded worker pool.
//
// The active count covers tasks that were submitted and have not finished,
// whether they are queued or running. It never exceeds the capacity when
// work is submitted through Dispatch.
type Pool struct {
	capacity int
	task     Task
	logger   *slog.Logger

	jobs   chan string
	done   chan struct{}
	active atomic.Int64

	group     errgroup.Group
	startOnce sync.Once
	closeOnce sync.Once
	ctx       context.Context
}

// Option configures a Pool.
type Option func(*Pool)

// WithCapacity sets the number of workers.
func WithCapacity(n int) Option {
	return func(p *Pool) {
		if n > 0 {
			p.capacity = n
		}
	}
}

// WithLogger sets the logger used for task panics.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pool) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// New creates a Pool that runs task for each submitted URL.
// Call Start before submitting work.
func New(task Task, opts ...Option) *Pool {
	p := &Pool{
		capacity: DefaultCapacity,
		task:     task,
		logger:   slog.Default(),
		done:     make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.jobs = make(chan string, p.capacity)
	return p
}

// Start launches the workers. Tasks receive ctx. Calling Start more than
// once has no effect.
func (p *Pool) Start(ctx context.Context) {
	p.startOnce.Do(func() {
		p.ctx = ctx
		for range p.capacity {
			p.group.Go(func() error {
				p.worker(ctx)
				return nil
			})
		}
	})
}

// worker runs tasks until the job channel is closed. After cancellation it
// keeps consuming jobs without running them so that the active count still
// reaches zero.
func (p *Pool) worker(ctx context.Context) {
	for url := range p.jobs {
		if ctx.Err() == nil {
			p.run(ctx, url)
		}
		p.finish()
	}
}

// run executes one task. A panicking task is logged and does not take the
// worker down.
func (p *Pool) run(ctx context.Context, url string) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("crawl task panicked",
				"url", url,
				"panic", fmt.Sprint(r),
				"stack", string(debug.Stack()),
			)
		}
	}()
	p.task(ctx, url)
}

// finish marks one task complete and wakes the control loop.
func (p *Pool) finish() {
	p.active.Add(-1)
	select {
	case p.done <- struct{}{}:
	default:
	}
}

// Capacity returns the number of workers.
func (p *Pool) Capacity() int {
	return p.capacity
}

// Active returns the number of submitted tasks that have not finished.
func (p *Pool) Active() int {
	return int(p.active.Load())
}

// Available returns how many more tasks can be submitted without queueing
// behind running ones.
func (p *Pool) Available() int {
	return p.capacity - p.Active()
}

// Submit hands url to a worker. It blocks only when more than Capacity
// tasks are outstanding, and returns false if the pool context is done.
func (p *Pool) Submit(url string) bool {
	p.active.Add(1)

	var ctxDone <-chan struct{}
	if p.ctx != nil {
		ctxDone = p.ctx.Done()
	}

	select {
	case p.jobs <- url:
		return true
	case <-ctxDone:
		p.finish()
		return false
	}
}

// Dispatch drains up to Available() URLs from src and submits them.
// It returns the number of URLs submitted.
func (p *Pool) Dispatch(src Source) int {
	available := p.Available()
	if available <= 0 {
		return 0
	}

	n := 0
	for _, url := range src.Drain(min(available, src.PendingSize())) {
		if p.Submit(url) {
			n++
		}
	}
	return n
}

// Quiescent reports whether no task is outstanding and src has no pending
// URLs. The active count is read first: tasks enqueue their URLs before
// they finish, so a zero count guarantees their URLs are visible in src.
// It must be called from the goroutine that submits work.
func (p *Pool) Quiescent(src Source) bool {
	if p.Active() != 0 {
		return false
	}
	return src.PendingSize() == 0
}

// Done returns a channel that receives a value after tasks finish.
// Notifications are coalesced.
func (p *Pool) Done() <-chan struct{} {
	return p.done
}

// Close stops accepting work; Submit must not be called afterwards.
// Workers exit after finishing queued jobs.
func (p *Pool) Close() {
	p.closeOnce.Do(func() {
		close(p.jobs)
	})
}

// Wait blocks until all workers have exited. Call Close first.
func (p *Pool) Wait() error {
	return p.group.Wait()
}
