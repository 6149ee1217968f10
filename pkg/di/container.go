// Package di wires the care-status engine together at the composition
// root. Day cache, feeding-toggle state and scheduler timers are all
// explicitly constructed objects here, with lifecycles tied to session
// start and sign-out rather than to package init.
package di

import (
	"context"
	"log/slog"
	"time"

	"github.com/kennelworks/go-care-cache/carelog"
	"github.com/kennelworks/go-care-cache/careprovider"
	"github.com/kennelworks/go-care-cache/carestatus"
	"github.com/kennelworks/go-care-cache/daycache"
	"github.com/kennelworks/go-care-cache/observation"
	"github.com/kennelworks/go-care-cache/optimistic"
	"github.com/kennelworks/go-care-cache/scheduler"
)

// Config aggregates the per-component configurations.
type Config struct {
	Cache       daycache.Config
	Scheduler   scheduler.Config
	Observation observation.Config

	// Notifier receives user-facing notifications. Defaults to the
	// slog-backed notifier.
	Notifier carestatus.Notifier

	// Logger for the whole engine. Defaults to slog.Default().
	Logger *slog.Logger

	// Now overrides wall-clock time everywhere at once. Tests use this
	// with a fake clock.
	Now func() time.Time
}

// DefaultConfig returns the stock tuning: 5m snapshot TTL, 15m refresh
// interval, 24h observation window with a 5s fetch throttle.
func DefaultConfig() Config {
	return Config{
		Cache:       daycache.DefaultConfig(),
		Scheduler:   scheduler.DefaultConfig(),
		Observation: observation.DefaultConfig(),
	}
}

// Container owns one session's worth of care-status components.
type Container struct {
	store       carelog.Store
	cache       *daycache.Cache
	queue       *optimistic.Queue
	coordinator *optimistic.Coordinator
	ledger      *observation.Ledger
	provider    *careprovider.Provider
	sched       *scheduler.Scheduler
}

// NewContainer builds the full object graph over the given backing
// store.
func NewContainer(store carelog.Store, cfg Config) (*Container, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	notifier := cfg.Notifier
	if notifier == nil {
		notifier = carestatus.SlogNotifier{Logger: logger}
	}
	if cfg.Now != nil {
		cfg.Cache.Now = cfg.Now
		cfg.Scheduler.Now = cfg.Now
		cfg.Observation.Now = cfg.Now
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	cache, err := daycache.New(cfg.Cache)
	if err != nil {
		return nil, err
	}

	ledger, err := observation.NewLedger(store, cfg.Observation)
	if err != nil {
		return nil, err
	}

	queue := optimistic.NewQueue(logger)
	mirror := carelog.NewMirror(carelog.NewMemKV())
	coordinator := optimistic.NewCoordinator(queue, notifier, mirror, logger)
	coordinator.RolloverDate(carestatus.DateKey(now()))

	provider := careprovider.New(careprovider.Options{
		Store:       store,
		Cache:       cache,
		Ledger:      ledger,
		Coordinator: coordinator,
		Mirror:      mirror,
		Notifier:    notifier,
		Logger:      logger,
		Now:         now,
	})

	schedCfg := cfg.Scheduler
	schedCfg.Notifier = notifier
	schedCfg.Logger = logger
	schedCfg.OnMidnight = coordinator.RolloverDate
	sched, err := scheduler.New(provider.RefreshDate, schedCfg)
	if err != nil {
		queue.Close()
		return nil, err
	}
	provider.AttachScheduler(sched)

	return &Container{
		store:       store,
		cache:       cache,
		queue:       queue,
		coordinator: coordinator,
		ledger:      ledger,
		provider:    provider,
		sched:       sched,
	}, nil
}

// Start launches the refresh scheduler.
func (c *Container) Start(ctx context.Context) {
	c.sched.Start(ctx)
}

// Close ends the session: the scheduler stops, queued durable writes
// drain, and every cached dateKey is wiped.
func (c *Container) Close() {
	c.sched.Stop()
	c.queue.Close()
	c.cache.Clear()
}

// Provider returns the dashboard-facing façade.
func (c *Container) Provider() *careprovider.Provider { return c.provider }

// Coordinator returns the optimistic mutation coordinator.
func (c *Container) Coordinator() *optimistic.Coordinator { return c.coordinator }

// Cache returns the day cache.
func (c *Container) Cache() *daycache.Cache { return c.cache }

// Scheduler returns the refresh scheduler.
func (c *Container) Scheduler() *scheduler.Scheduler { return c.sched }

// Queue returns the durable-write queue.
func (c *Container) Queue() *optimistic.Queue { return c.queue }
