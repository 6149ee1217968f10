// Package timeslot reconciles raw timestamped care events with the
// discrete display buckets the dashboard renders.
//
// Two matching rules coexist on purpose. Feeding slots are named meal
// windows ("Morning", "Afternoon", "Evening"), so a feeding log first
// falls into a clock bucket and an explicit "<Slot> Feeding" task name
// overrides that bucket. Every other category is clock-driven and
// matches only on the exact 12-hour label of its timestamp. Keep both
// behind the Matcher interface so either rule can change independently.
package timeslot

import (
	"time"

	"github.com/kennelworks/go-care-cache/carestatus"
)

// Named feeding windows.
const (
	SlotMorning   = "Morning"
	SlotAfternoon = "Afternoon"
	SlotEvening   = "Evening"
)

// Matcher decides whether a raw care log entry belongs to a requested
// display slot, and derives the slot label an entry renders under.
type Matcher interface {
	Matches(entry carestatus.CareLogEntry, slot string) bool
	Slot(entry carestatus.CareLogEntry) string
}

// ForCategory returns the matching rule for a care category.
func ForCategory(cat carestatus.CareCategory) Matcher {
	if cat == carestatus.CategoryFeeding {
		return FeedingMatcher{}
	}
	return ClockLabelMatcher{}
}

// ClockLabel formats a timestamp as the 12-hour display label used by
// non-feeding slots, e.g. "8:00 AM".
func ClockLabel(t time.Time) string {
	return t.Format("3:04 PM")
}

// FeedingWindow maps an hour of day to its named meal window.
func FeedingWindow(t time.Time) string {
	switch h := t.Hour(); {
	case h < 11:
		return SlotMorning
	case h < 16:
		return SlotAfternoon
	default:
		return SlotEvening
	}
}

// FeedingMatcher buckets feeding logs into named meal windows. The
// literal task name "<Slot> Feeding" is authoritative: a log created
// late but labeled "Morning Feeding" still counts against the Morning
// slot. The clock bucket is the fallback for absent or non-standard
// labels.
type FeedingMatcher struct{}

// Matches reports whether the entry belongs to the requested window.
func (FeedingMatcher) Matches(entry carestatus.CareLogEntry, slot string) bool {
	if entry.TaskName == slot+" Feeding" {
		return true
	}
	if byLabel, ok := windowFromTaskName(entry.TaskName); ok {
		// A recognized label pointing at another window wins over the clock.
		return byLabel == slot
	}
	return FeedingWindow(entry.Timestamp) == slot
}

// Slot returns the window label the entry renders under.
func (FeedingMatcher) Slot(entry carestatus.CareLogEntry) string {
	if w, ok := windowFromTaskName(entry.TaskName); ok {
		return w
	}
	return FeedingWindow(entry.Timestamp)
}

func windowFromTaskName(task string) (string, bool) {
	for _, w := range []string{SlotMorning, SlotAfternoon, SlotEvening} {
		if task == w+" Feeding" {
			return w, true
		}
	}
	return "", false
}

// ClockLabelMatcher matches on exact 12-hour label equality with no
// bucket tolerance.
type ClockLabelMatcher struct{}

// Matches reports whether the entry's timestamp label equals the slot.
func (ClockLabelMatcher) Matches(entry carestatus.CareLogEntry, slot string) bool {
	return ClockLabel(entry.Timestamp) == slot
}

// Slot returns the entry's 12-hour label.
func (ClockLabelMatcher) Slot(entry carestatus.CareLogEntry) string {
	return ClockLabel(entry.Timestamp)
}
