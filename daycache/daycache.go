// Package daycache holds the TTL-bound, per-calendar-date store of
// aggregated dog care-status snapshots.
package daycache

import (
	"time"

	"github.com/puzpuzpuz/xsync/v3"

	"github.com/kennelworks/go-care-cache/carestatus"
)

// Config holds the day cache settings.
type Config struct {
	// TTL is how long a stored snapshot stays valid. Must be greater
	// than 0.
	TTL time.Duration

	// Now supplies wall-clock time. Defaults to time.Now; overridden in
	// tests.
	Now func() time.Time
}

// DefaultConfig returns a Config with the stock 5-minute TTL.
func DefaultConfig() Config {
	return Config{
		TTL: 5 * time.Minute,
		Now: time.Now,
	}
}

// Validate checks whether the configuration values are valid.
func (c Config) Validate() error {
	if c.TTL <= 0 {
		return &ConfigError{Field: "TTL", Message: "must be greater than 0"}
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
	return "day cache config error in field " + e.Field + ": " + e.Message
}

type entry struct {
	writtenAt time.Time
	data      []carestatus.DogCareStatus
}

// Cache is a date-keyed snapshot store. An entry is valid iff it is
// younger than the TTL and non-empty; empty fetch results are refused
// at write time so "no result yet" is never mistaken for cached state.
// Snapshots are replaced wholesale, never merged, last writer wins.
type Cache struct {
	ttl     time.Duration
	now     func() time.Time
	entries *xsync.MapOf[string, entry]
}

// New constructs a Cache from the provided configuration.
func New(cfg Config) (*Cache, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Cache{
		ttl:     cfg.TTL,
		now:     now,
		entries: xsync.NewMapOf[string, entry](),
	}, nil
}

// Get returns the snapshot stored under dateKey, or nil if the key is
// absent, the entry has outlived the TTL, or the stored data is empty.
// The returned slice is a deep copy, never a live reference.
func (c *Cache) Get(dateKey string) []carestatus.DogCareStatus {
	e, ok := c.entries.Load(dateKey)
	if !ok {
		return nil
	}
	if c.now().Sub(e.writtenAt) >= c.ttl || len(e.data) == 0 {
		return nil
	}
	return carestatus.CloneStatuses(e.data)
}

// Set stores a snapshot under dateKey. Empty input is a no-op: an
// empty result means the fetch did not actually resolve usable state.
// The data is deep-copied before storage and the special_attention
// dedup pass is applied here, at write time, so repeated reads stay
// cheap.
func (c *Cache) Set(dateKey string, data []carestatus.DogCareStatus) {
	if len(data) == 0 {
		return
	}
	stored := carestatus.CloneStatuses(data)
	for i := range stored {
		stored[i].Flags = carestatus.DedupFlags(stored[i].Flags)
	}
	c.entries.Store(dateKey, entry{writtenAt: c.now(), data: stored})
}

// Invalidate drops a single dateKey. The midnight rollover uses this
// for the day that just ended.
func (c *Cache) Invalidate(dateKey string) {
	c.entries.Delete(dateKey)
}

// Clear wipes every dateKey. Used on session end and for manual
// "force refresh everything".
func (c *Cache) Clear() {
	c.entries.Clear()
}

// WrittenAt reports when the entry under dateKey was stored. The zero
// time means the key is absent. Exposed for display purposes only;
// validity is decided solely by TTL and key equality.
func (c *Cache) WrittenAt(dateKey string) time.Time {
	e, ok := c.entries.Load(dateKey)
	if !ok {
		return time.Time{}
	}
	return e.writtenAt
}
