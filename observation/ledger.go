// Package observation derives ephemeral, 24-hour-expiring notes from
// raw care-log entries.
package observation

import (
	"context"
	"time"

	"github.com/viccon/sturdyc"

	"github.com/kennelworks/go-care-cache/carelog"
	"github.com/kennelworks/go-care-cache/carestatus"
	"github.com/kennelworks/go-care-cache/internal/cacheinfra"
	"github.com/kennelworks/go-care-cache/timeslot"
)

// Config holds the ledger settings.
type Config struct {
	// Window is how long an observation stays valid after its source
	// timestamp.
	Window time.Duration

	// FetchGap is the minimum gap between backing fetches for the same
	// dog. Overlapping requests inside the gap are served from cache or
	// collapsed into the in-flight fetch.
	FetchGap time.Duration

	// Now supplies wall-clock time. Defaults to time.Now.
	Now func() time.Time
}

// DefaultConfig returns the stock tuning: 24h validity, 5s fetch
// throttle.
func DefaultConfig() Config {
	return Config{
		Window:   24 * time.Hour,
		FetchGap: 5 * time.Second,
		Now:      time.Now,
	}
}

// Ledger serves observation notes per dog. Fetch throttling rides on
// sturdyc: the cache TTL enforces the minimum gap between backing
// fetches and its request deduplication collapses concurrent callers
// onto one in-flight fetch, so no re-entrancy flag is needed.
type Ledger struct {
	store  carelog.Store
	cache  *sturdyc.Client[[]carestatus.Observation]
	window time.Duration
	now    func() time.Time
}

// NewLedger constructs a Ledger over the backing store.
func NewLedger(store carelog.Store, cfg Config) (*Ledger, error) {
	if cfg.Window <= 0 {
		cfg.Window = 24 * time.Hour
	}
	if cfg.FetchGap <= 0 {
		cfg.FetchGap = 5 * time.Second
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	cacheCfg := cacheinfra.DefaultConfig()
	cacheCfg.TTL = cfg.FetchGap
	client, err := cacheinfra.NewClient[[]carestatus.Observation](cacheCfg)
	if err != nil {
		return nil, err
	}

	return &Ledger{
		store:  store,
		cache:  client,
		window: cfg.Window,
		now:    cfg.Now,
	}, nil
}

// IsValid reports whether an observation with the given source
// timestamp is still live. Validity is recomputed from wall clock on
// every call; a cached boolean is never trusted, which keeps
// long-lived sessions correct even when the original fetch is hours
// old.
func (l *Ledger) IsValid(ts time.Time) bool {
	return l.now().Sub(ts) < l.window
}

// Details returns the dog's currently valid observations, newest
// first. Entries fetched inside the throttle window are served from
// cache, then filtered for validity at call time.
func (l *Ledger) Details(ctx context.Context, dogID string) ([]carestatus.Observation, error) {
	all, err := l.cache.GetOrFetch(ctx, "observations::"+dogID, func(ctx context.Context) ([]carestatus.Observation, error) {
		return l.fetch(ctx, dogID)
	})
	if err != nil {
		return nil, &carestatus.FetchError{Op: "observations", Err: err}
	}

	valid := make([]carestatus.Observation, 0, len(all))
	for _, o := range all {
		if l.IsValid(o.Timestamp) {
			valid = append(valid, o)
		}
	}
	return valid, nil
}

func (l *Ledger) fetch(ctx context.Context, dogID string) ([]carestatus.Observation, error) {
	entries, err := l.store.ListEntries(ctx, carelog.Filter{
		DogID:    dogID,
		Category: carestatus.CategoryNote,
		From:     l.now().Add(-l.window),
	})
	if err != nil {
		return nil, err
	}

	obs := make([]carestatus.Observation, 0, len(entries))
	for _, e := range entries {
		obs = append(obs, Derive(e, l.window))
	}
	return obs, nil
}

// Derive converts one care log entry into an Observation. The time
// slot uses the same exact-label formatting as non-feeding slot
// matching.
func Derive(entry carestatus.CareLogEntry, window time.Duration) carestatus.Observation {
	return carestatus.Observation{
		ID:        entry.ID,
		DogID:     entry.DogID,
		Text:      entry.Notes,
		CreatedBy: entry.CreatedBy,
		Category:  entry.Category,
		Timestamp: entry.Timestamp,
		ExpiresAt: entry.Timestamp.Add(window),
		TimeSlot:  timeslot.ClockLabel(entry.Timestamp),
	}
}
