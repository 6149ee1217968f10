// Package scheduler drives periodic refresh, visibility-triggered
// refresh and the local-midnight cache rollover.
package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/kennelworks/go-care-cache/carestatus"
)

// RefreshFunc fetches everything for one calendar date and repopulates
// the day cache. It is the single "fetch everything" entry point
// against the backing collaborator.
type RefreshFunc func(ctx context.Context, date time.Time, bypassCache bool) error

// Config holds the scheduler settings.
type Config struct {
	// Interval between background refreshes. Must be greater than 0.
	Interval time.Duration

	// Now supplies wall-clock time. Defaults to time.Now.
	Now func() time.Time

	// Notifier receives the single user-facing notification for failed
	// user-initiated refreshes. Background failures never reach it.
	Notifier carestatus.Notifier

	// Logger for silent background failure reporting.
	Logger *slog.Logger

	// OnMidnight runs when the local midnight boundary is crossed,
	// before the forced fetch for the new date. Used to reset the
	// optimistic feeding state.
	OnMidnight func(dateKey string)
}

// DefaultConfig returns a Config with the stock 15-minute interval.
func DefaultConfig() Config {
	return Config{
		Interval: 15 * time.Minute,
		Now:      time.Now,
	}
}

// Validate checks whether the configuration values are valid.
func (c Config) Validate() error {
	if c.Interval <= 0 {
		return &ConfigError{Field: "Interval", Message: "must be greater than 0"}
	}
	return nil
}

// ConfigError represents a configuration validation error.
type ConfigError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	return "scheduler config error in field " + e.Field + ": " + e.Message
}

// Scheduler funnels three independent triggers into one refresh path:
// a fixed interval timer, a visibility signal that fires when the
// dashboard regains foreground, and a midnight timer computed as the
// delta to the next local midnight. A CAS in-flight guard drops (not
// queues) refresh requests that arrive while one is running.
type Scheduler struct {
	refresh    RefreshFunc
	interval   time.Duration
	now        func() time.Time
	notifier   carestatus.Notifier
	logger     *slog.Logger
	onMidnight func(dateKey string)

	inFlight atomic.Bool

	mu          sync.Mutex
	currentDate time.Time
	lastRefresh time.Time

	visible  chan struct{}
	cancel   context.CancelFunc
	done     chan struct{}
	stopOnce sync.Once
}

// New constructs a Scheduler around the refresh function.
func New(refresh RefreshFunc, cfg Config) (*Scheduler, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Notifier == nil {
		cfg.Notifier = carestatus.NopNotifier{}
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	s := &Scheduler{
		refresh:    refresh,
		interval:   cfg.Interval,
		now:        cfg.Now,
		notifier:   cfg.Notifier,
		logger:     cfg.Logger,
		onMidnight: cfg.OnMidnight,
		visible:    make(chan struct{}, 1),
		done:       make(chan struct{}),
	}
	s.currentDate = dayOf(s.now())
	return s, nil
}

// Start launches the trigger loop. It returns immediately.
func (s *Scheduler) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)
	go s.loop(ctx)
}

// Stop tears the trigger loop and its timers down.
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() {
		if s.cancel != nil {
			s.cancel()
			<-s.done
		} else {
			close(s.done)
		}
	})
}

func (s *Scheduler) loop(ctx context.Context) {
	defer close(s.done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	midnight := time.NewTimer(untilNextMidnight(s.now()))
	defer midnight.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.handleRefresh(ctx, false, false)
		case <-s.visible:
			// Foreground regained: elapsed background time may have
			// outlived the TTL, refresh right away.
			s.handleRefresh(ctx, false, false)
		case <-midnight.C:
			s.handleMidnight(ctx)
			midnight.Reset(untilNextMidnight(s.now()))
		}
	}
}

// NotifyVisible signals that the dashboard regained foreground. The
// signal coalesces: repeated notifications while one is pending fold
// into a single refresh.
func (s *Scheduler) NotifyVisible() {
	select {
	case s.visible <- struct{}{}:
	default:
	}
}

// Refresh runs a user-initiated, cache-bypassing refresh. A failure
// surfaces exactly one user-facing notification.
func (s *Scheduler) Refresh(ctx context.Context) error {
	return s.handleRefresh(ctx, true, true)
}

// handleRefresh is the single funnel for all three triggers. The CAS
// guard drops a request arriving while one is in flight; callers
// re-trigger around user actions instead of assuming queuing.
func (s *Scheduler) handleRefresh(ctx context.Context, bypassCache, announce bool) error {
	if !s.inFlight.CompareAndSwap(false, true) {
		s.logger.Debug("refresh dropped, one already in flight")
		return nil
	}
	defer s.inFlight.Store(false)

	date := s.CurrentDate()
	err := s.refresh(ctx, date, bypassCache)
	if err != nil {
		// The prior cache entry stays untouched: stale but available.
		if announce {
			s.notifier.Failure("Could not refresh care status")
		} else {
			s.logger.Warn("background refresh failed", "date", carestatus.DateKey(date), "error", err)
		}
		return err
	}

	s.mu.Lock()
	s.lastRefresh = s.now()
	s.mu.Unlock()
	return nil
}

// handleMidnight advances the tracked current date, resets dependent
// state and performs one forced fetch for the new date. This is the
// only path that rolls a dateKey over without waiting for the TTL.
func (s *Scheduler) handleMidnight(ctx context.Context) {
	newDate := dayOf(s.now())

	s.mu.Lock()
	s.currentDate = newDate
	s.mu.Unlock()

	if s.onMidnight != nil {
		s.onMidnight(carestatus.DateKey(newDate))
	}

	s.handleRefresh(ctx, true, false)
}

// CurrentDate returns the midnight-anchored date the scheduler is
// tracking.
func (s *Scheduler) CurrentDate() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentDate
}

// LastRefresh reports when the last successful refresh finished. It is
// display metadata only ("updated 3 min ago"); cache validity is
// decided solely by TTL and dateKey equality.
func (s *Scheduler) LastRefresh() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastRefresh
}

func dayOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func untilNextMidnight(t time.Time) time.Duration {
	return dayOf(t).AddDate(0, 0, 1).Sub(t)
}
