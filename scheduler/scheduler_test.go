package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/kennelworks/go-care-cache/carestatus"
	"github.com/kennelworks/go-care-cache/pkg/testsupport"
)

type refreshRecorder struct {
	mu    sync.Mutex
	calls []refreshCall
	block chan struct{}
	err   error
}

type refreshCall struct {
	date   time.Time
	bypass bool
}

func (r *refreshRecorder) refresh(ctx context.Context, date time.Time, bypass bool) error {
	r.mu.Lock()
	r.calls = append(r.calls, refreshCall{date: date, bypass: bypass})
	block := r.block
	err := r.err
	r.mu.Unlock()
	if block != nil {
		<-block
	}
	return err
}

func (r *refreshRecorder) callCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}

type captureNotifier struct {
	mu       sync.Mutex
	failures []string
}

func (n *captureNotifier) Success(string) {}

func (n *captureNotifier) Failure(msg string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.failures = append(n.failures, msg)
}

func (n *captureNotifier) failureCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.failures)
}

func newTestScheduler(t *testing.T, rec *refreshRecorder, clock *testsupport.FakeClock, n carestatus.Notifier, onMidnight func(string)) *Scheduler {
	t.Helper()
	cfg := DefaultConfig()
	cfg.Now = clock.Now
	cfg.Notifier = n
	cfg.OnMidnight = onMidnight
	s, err := New(rec.refresh, cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return s
}

func TestScheduler_RefreshUpdatesLastRefresh(t *testing.T) {
	start := time.Date(2026, 3, 14, 22, 0, 0, 0, time.UTC)
	clock := testsupport.NewFakeClock(start)
	rec := &refreshRecorder{}
	s := newTestScheduler(t, rec, clock, nil, nil)

	if err := s.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}

	if got := s.LastRefresh(); !got.Equal(start) {
		t.Errorf("LastRefresh = %v, want %v", got, start)
	}
	if rec.callCount() != 1 || !rec.calls[0].bypass {
		t.Errorf("user refresh must bypass the cache, calls=%+v", rec.calls)
	}
}

func TestScheduler_FailureKeepsLastRefresh(t *testing.T) {
	clock := testsupport.NewFakeClock(time.Date(2026, 3, 14, 22, 0, 0, 0, time.UTC))
	rec := &refreshRecorder{err: errors.New("store down")}
	n := &captureNotifier{}
	s := newTestScheduler(t, rec, clock, n, nil)

	if err := s.Refresh(context.Background()); err == nil {
		t.Fatal("expected refresh error")
	}

	if !s.LastRefresh().IsZero() {
		t.Error("failed refresh must not advance LastRefresh")
	}
	if n.failureCount() != 1 {
		t.Errorf("user-initiated failure must notify exactly once, got %d", n.failureCount())
	}
}

func TestScheduler_BackgroundFailureStaysSilent(t *testing.T) {
	clock := testsupport.NewFakeClock(time.Date(2026, 3, 14, 22, 0, 0, 0, time.UTC))
	rec := &refreshRecorder{err: errors.New("store down")}
	n := &captureNotifier{}
	s := newTestScheduler(t, rec, clock, n, nil)

	s.handleRefresh(context.Background(), false, false)

	if n.failureCount() != 0 {
		t.Errorf("background failure must not notify, got %d", n.failureCount())
	}
}

func TestScheduler_InFlightGuardDropsConcurrent(t *testing.T) {
	clock := testsupport.NewFakeClock(time.Date(2026, 3, 14, 22, 0, 0, 0, time.UTC))
	rec := &refreshRecorder{block: make(chan struct{})}
	s := newTestScheduler(t, rec, clock, nil, nil)

	done := make(chan struct{})
	go func() {
		s.handleRefresh(context.Background(), true, false)
		close(done)
	}()

	// Wait for the first refresh to be in flight.
	for rec.callCount() == 0 {
		time.Sleep(time.Millisecond)
	}

	// Arrives while one is in flight: dropped, not queued.
	if err := s.handleRefresh(context.Background(), true, false); err != nil {
		t.Fatalf("dropped refresh must not error, got %v", err)
	}
	if rec.callCount() != 1 {
		t.Errorf("refresh calls = %d, want 1", rec.callCount())
	}

	close(rec.block)
	<-done
}

func TestScheduler_MidnightRollover(t *testing.T) {
	start := time.Date(2026, 3, 14, 23, 59, 0, 0, time.UTC)
	clock := testsupport.NewFakeClock(start)
	rec := &refreshRecorder{}

	var midnightKeys []string
	s := newTestScheduler(t, rec, clock, nil, func(dateKey string) {
		midnightKeys = append(midnightKeys, dateKey)
	})

	if got := carestatus.DateKey(s.CurrentDate()); got != "2026-03-14" {
		t.Fatalf("initial date = %q, want 2026-03-14", got)
	}

	// Cross local midnight.
	clock.Advance(2 * time.Minute)
	s.handleMidnight(context.Background())

	if got := carestatus.DateKey(s.CurrentDate()); got != "2026-03-15" {
		t.Errorf("tracked date after rollover = %q, want 2026-03-15", got)
	}
	if rec.callCount() != 1 {
		t.Fatalf("midnight must trigger exactly one fetch, got %d", rec.callCount())
	}
	if !rec.calls[0].bypass {
		t.Error("midnight fetch must bypass the cache")
	}
	if got := carestatus.DateKey(rec.calls[0].date); got != "2026-03-15" {
		t.Errorf("midnight fetch date = %q, want the new date", got)
	}
	if len(midnightKeys) != 1 || midnightKeys[0] != "2026-03-15" {
		t.Errorf("OnMidnight keys = %v, want [2026-03-15]", midnightKeys)
	}
}

func TestScheduler_StartStop(t *testing.T) {
	clock := testsupport.NewFakeClock(time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC))
	rec := &refreshRecorder{}
	cfg := DefaultConfig()
	cfg.Interval = 50 * time.Millisecond
	cfg.Now = clock.Now
	s, err := New(rec.refresh, cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	s.Start(context.Background())
	s.NotifyVisible()

	deadline := time.After(2 * time.Second)
	for rec.callCount() == 0 {
		select {
		case <-deadline:
			t.Fatal("visibility trigger never fired")
		default:
			time.Sleep(5 * time.Millisecond)
		}
	}

	s.Stop()
	// Stop must be idempotent.
	s.Stop()
}

func TestUntilNextMidnight(t *testing.T) {
	at := time.Date(2026, 3, 14, 23, 0, 0, 0, time.UTC)
	if got := untilNextMidnight(at); got != time.Hour {
		t.Errorf("untilNextMidnight = %v, want 1h", got)
	}
}

func TestConfig_Validate(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config must validate: %v", err)
	}
	cfg.Interval = 0
	if err := cfg.Validate(); err == nil {
		t.Error("zero interval must be rejected")
	}
}
