// Package carelog defines the backing-store port for care-log
// persistence and the adapters that implement it.
package carelog

import (
	"context"
	"time"

	"github.com/kennelworks/go-care-cache/carestatus"
)

// Filter narrows a ListEntries call. Zero fields are ignored.
type Filter struct {
	DogID    string
	Category carestatus.CareCategory
	// From/To bound the entry timestamp: From inclusive, To exclusive.
	From time.Time
	To   time.Time
}

// Store is the care-log persistence collaborator. Results from
// ListEntries are ordered by timestamp descending.
type Store interface {
	ListEntries(ctx context.Context, f Filter) ([]carestatus.CareLogEntry, error)
	Insert(ctx context.Context, entry carestatus.CareLogEntry) (carestatus.CareLogEntry, error)
	Delete(ctx context.Context, id string) error
	ListDogs(ctx context.Context) ([]carestatus.Dog, error)
}

// DayFilter returns a Filter covering the local calendar day that
// contains t.
func DayFilter(t time.Time) Filter {
	start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	return Filter{From: start, To: start.AddDate(0, 0, 1)}
}
