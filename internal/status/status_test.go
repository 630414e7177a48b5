package status

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

func TestFormatElapsed(t *testing.T) {
	t.Parallel()

	tests := []struct {
		d    time.Duration
		want string
	}{
		{0, "0:0:0"},
		{59 * time.Second, "0:0:59"},
		{61 * time.Second, "0:1:1"},
		{time.Hour + 2*time.Minute + 3*time.Second + 900*time.Millisecond, "1:2:3"},
		{26 * time.Hour, "26:0:0"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			t.Parallel()
			if got := FormatElapsed(tt.d); got != tt.want {
				t.Errorf("FormatElapsed(%v) = %q, want %q", tt.d, got, tt.want)
			}
		})
	}
}

func TestConsoleReporter(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		status Status
		want   string
	}{
		{
			name:   "progress line",
			status: Status{Elapsed: 75 * time.Second, Visited: 12, Active: 3, Fetched: 11},
			want:   "[0:1:15] Visited URLs 12 Threads 3 Fetched URLs 11\n",
		},
		{
			name:   "url limit notice",
			status: Status{Event: EventURLLimit},
			want:   "Url Limit Reached\n",
		},
		{
			name:   "time limit notice",
			status: Status{Event: EventTimeLimit, GracePeriod: 5 * time.Minute},
			want:   "Time Limit Reached. Waiting for running tasks (5m0s)\n",
		},
		{
			name:   "completion notice",
			status: Status{Event: EventComplete, Visited: 42},
			want:   "Complete execution: Total Visited URLs: 42\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer
			if err := NewConsoleReporter(&buf).Report(context.Background(), tt.status); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if buf.String() != tt.want {
				t.Errorf("got %q, want %q", buf.String(), tt.want)
			}
		})
	}
}

// fakeRedis is an in-memory stand-in for the Redis client.
type fakeRedis struct {
	mu      sync.Mutex
	data    map[string]string
	ttls    map[string]time.Duration
	failSet bool
	closed  bool
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{data: make(map[string]string), ttls: make(map[string]time.Duration)}
}

func (f *fakeRedis) Set(_ context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failSet {
		return redis.NewStatusResult("", errors.New("connection refused"))
	}
	switch v := value.(type) {
	case []byte:
		f.data[key] = string(v)
	case string:
		f.data[key] = v
	}
	f.ttls[key] = expiration
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeRedis) Get(_ context.Context, key string) *redis.StringCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (f *fakeRedis) Close() error {
	f.closed = true
	return nil
}

func TestRedisReporter(t *testing.T) {
	t.Parallel()

	t.Run("stores status under prefixed session key with ttl", func(t *testing.T) {
		t.Parallel()

		fake := newFakeRedis()
		r := newRedisReporter(fake, "", 0)

		s := Status{SessionID: "abc", Seed: "http://a.test/", Visited: 3, State: "running"}
		if err := r.Report(context.Background(), s); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if _, ok := fake.data[DefaultKeyPrefix+"abc"]; !ok {
			t.Fatalf("expected key %q, got %v", DefaultKeyPrefix+"abc", fake.data)
		}
		if fake.ttls[DefaultKeyPrefix+"abc"] != DefaultTTL {
			t.Errorf("expected ttl %v, got %v", DefaultTTL, fake.ttls[DefaultKeyPrefix+"abc"])
		}

		got, ok, err := r.Get(context.Background(), "abc")
		if err != nil || !ok {
			t.Fatalf("expected stored status, got ok=%v err=%v", ok, err)
		}
		if got.Visited != 3 || got.Seed != "http://a.test/" {
			t.Errorf("unexpected status: %+v", got)
		}
	})

	t.Run("latest session of a domain is found", func(t *testing.T) {
		t.Parallel()

		fake := newFakeRedis()
		r := newRedisReporter(fake, "p:", time.Minute)
		ctx := context.Background()

		if err := r.Report(ctx, Status{SessionID: "first", Domain: "a.test", Visited: 1}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if err := r.Report(ctx, Status{SessionID: "second", Domain: "a.test", Visited: 9}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		got, ok, err := r.GetLatest(ctx, "a.test")
		if err != nil || !ok {
			t.Fatalf("expected stored status, got ok=%v err=%v", ok, err)
		}
		if got.SessionID != "second" || got.Visited != 9 {
			t.Errorf("expected the second session, got %+v", got)
		}
		if fake.data["p:domain:a.test"] != "second" {
			t.Errorf("expected domain index to hold the session id, got %q", fake.data["p:domain:a.test"])
		}

		_, ok, err = r.GetLatest(ctx, "b.test")
		if err != nil || ok {
			t.Errorf("expected no record for unknown domain, got ok=%v err=%v", ok, err)
		}
	})

	t.Run("status without domain writes no index", func(t *testing.T) {
		t.Parallel()

		fake := newFakeRedis()
		r := newRedisReporter(fake, "p:", time.Minute)
		if err := r.Report(context.Background(), Status{SessionID: "x"}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(fake.data) != 1 {
			t.Errorf("expected a single key, got %v", fake.data)
		}
	})

	t.Run("missing session is not an error", func(t *testing.T) {
		t.Parallel()

		r := newRedisReporter(newFakeRedis(), "p:", time.Minute)
		_, ok, err := r.Get(context.Background(), "nope")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if ok {
			t.Error("expected no record")
		}
	})

	t.Run("write failure is returned", func(t *testing.T) {
		t.Parallel()

		fake := newFakeRedis()
		fake.failSet = true
		r := newRedisReporter(fake, "p:", time.Minute)
		if err := r.Report(context.Background(), Status{SessionID: "x"}); err == nil {
			t.Error("expected error")
		}
	})

	t.Run("corrupt record is reported", func(t *testing.T) {
		t.Parallel()

		fake := newFakeRedis()
		fake.data["p:bad"] = "{not json"
		r := newRedisReporter(fake, "p:", time.Minute)
		if _, _, err := r.Get(context.Background(), "bad"); err == nil {
			t.Error("expected parse error")
		}
	})

	t.Run("close closes the client", func(t *testing.T) {
		t.Parallel()

		fake := newFakeRedis()
		if err := newRedisReporter(fake, "", 0).Close(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !fake.closed {
			t.Error("expected client to be closed")
		}
	})
}

// errReporter always fails.
type errReporter struct{ err error }

func (e errReporter) Report(context.Context, Status) error { return e.err }

func TestMultiReporter(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	boom := errors.New("boom")
	m := NewMultiReporter(NewConsoleReporter(&buf), nil, errReporter{err: boom})

	err := m.Report(context.Background(), Status{Visited: 1})
	if !errors.Is(err, boom) {
		t.Errorf("expected joined error to contain boom, got %v", err)
	}
	if !strings.Contains(buf.String(), "Visited URLs 1") {
		t.Errorf("expected console output despite failure, got %q", buf.String())
	}
}
