package crawler

import (
	"context"
	"fmt"
	"time"

	"github.com/nao1215/crawlytics/internal/budget"
	"github.com/nao1215/crawlytics/internal/model"
	"github.com/nao1215/crawlytics/internal/scheduler"
	"github.com/nao1215/crawlytics/internal/status"
)

// loopState is the bookkeeping of the control loop.
type loopState struct {
	lastActive int
	lastReport time.Time
}

// run is the control loop. It returns when the crawl is quiescent, when a
// stopped crawl has drained, when the grace deadline expires, or when ctx
// is cancelled.
func (c *Crawler) run(ctx context.Context, s *session, pool *scheduler.Pool) (string, bool, error) {
	ticker := time.NewTicker(c.tickInterval)
	defer ticker.Stop()

	st := &loopState{lastActive: -1}
	for {
		if done, reason, forced := c.step(s, pool, st); done {
			// A cancellation that raced with the final tick still wins.
			if err := ctx.Err(); err != nil {
				return model.ReasonCancelled, forced, err
			}
			return reason, forced, nil
		}

		select {
		case <-ctx.Done():
			return model.ReasonCancelled, pool.Active() > 0, ctx.Err()
		case <-ticker.C:
		case <-pool.Done():
		}
	}
}

// step runs one tick of the control loop. A panic inside a tick is logged
// and the loop continues with the next tick.
func (c *Crawler) step(s *session, pool *scheduler.Pool, st *loopState) (done bool, reason string, forced bool) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("crawl control loop tick failed", "panic", fmt.Sprint(r))
			done, reason, forced = false, "", false
		}
	}()

	switch s.budget.Observe(s.frontier.Size()) {
	case budget.URLLimit:
		s.logger.Info("url limit reached", "url_limit", c.urlLimit)
		c.publish(s, pool, status.EventURLLimit)
	case budget.TimeLimit:
		s.logger.Info("time limit reached",
			"time_limit", c.timeLimit,
			"grace_deadline", s.budget.GraceDeadline(),
		)
		c.publish(s, pool, status.EventTimeLimit)
	case budget.NoTrigger:
	}

	active := pool.Active()
	if active != st.lastActive || time.Since(st.lastReport) > c.statusInterval {
		st.lastActive = active
		st.lastReport = time.Now()
		c.publish(s, pool, status.EventProgress)
	}

	if s.budget.Stopped() {
		s.budget.BeginDrain()
		if pool.Active() == 0 {
			return true, stopReason(s.budget), false
		}
		if s.budget.GraceExpired() {
			return true, model.ReasonGraceExpired, true
		}
		return false, "", false
	}

	pool.Dispatch(s.frontier)
	if pool.Quiescent(s.frontier) {
		return true, model.ReasonQuiescent, false
	}
	return false, "", false
}

// stopReason maps the budget that stopped the crawl to a report reason.
func stopReason(ctrl *budget.Controller) string {
	if ctrl.Trigger() == budget.TimeLimit {
		return model.ReasonTimeLimit
	}
	return model.ReasonURLLimit
}

// publish queues a status snapshot for the reporter, if any.
// It never blocks; reporter failures are logged and never affect the crawl.
func (c *Crawler) publish(s *session, pool *scheduler.Pool, event status.Event) {
	if s.status == nil {
		return
	}
	snap := status.Status{
		SessionID:   s.id,
		Seed:        s.seed,
		Domain:      s.domain,
		Elapsed:     s.budget.Elapsed(),
		Visited:     s.frontier.Size(),
		Active:      pool.Active(),
		Fetched:     int(s.fetchedLinks.Load()),
		Pages:       int(s.pagesFetched.Load()),
		State:       s.budget.State().String(),
		Event:       event,
		GracePeriod: c.gracePeriod,
		UpdatedAt:   time.Now(),
	}
	s.status.send(snap)
}
