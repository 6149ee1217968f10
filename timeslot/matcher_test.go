package timeslot

import (
	"testing"
	"time"

	"github.com/kennelworks/go-care-cache/carestatus"
)

func feedingEntry(hour, min int, task string) carestatus.CareLogEntry {
	return carestatus.CareLogEntry{
		DogID:     "rex",
		Category:  carestatus.CategoryFeeding,
		TaskName:  task,
		Timestamp: time.Date(2026, 3, 14, hour, min, 0, 0, time.UTC),
	}
}

func TestFeedingMatcher_ClockBuckets(t *testing.T) {
	tests := []struct {
		name string
		hour int
		min  int
		slot string
		want bool
	}{
		{"early morning", 6, 59, SlotMorning, true},
		{"late morning boundary", 10, 59, SlotMorning, true},
		{"early afternoon", 11, 0, SlotAfternoon, true},
		{"late afternoon boundary", 15, 59, SlotAfternoon, true},
		{"evening", 16, 0, SlotEvening, true},
		{"night is evening", 23, 10, SlotEvening, true},
		{"morning is not evening", 6, 59, SlotEvening, false},
	}

	m := FeedingMatcher{}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entry := feedingEntry(tt.hour, tt.min, "Feeding")
			if got := m.Matches(entry, tt.slot); got != tt.want {
				t.Errorf("Matches(%02d:%02d, %q) = %v, want %v", tt.hour, tt.min, tt.slot, got, tt.want)
			}
		})
	}
}

func TestFeedingMatcher_LabelOverridesClock(t *testing.T) {
	// Logged at 23:10 but labeled as the morning meal: the label wins.
	entry := feedingEntry(23, 10, "Morning Feeding")

	m := FeedingMatcher{}
	if !m.Matches(entry, SlotMorning) {
		t.Error("expected label match to override the clock bucket")
	}
	if m.Matches(entry, SlotEvening) {
		t.Error("expected recognized label to suppress the clock bucket entirely")
	}
	if got := m.Slot(entry); got != SlotMorning {
		t.Errorf("Slot() = %q, want %q", got, SlotMorning)
	}
}

func TestFeedingMatcher_NonStandardLabelFallsBack(t *testing.T) {
	entry := feedingEntry(7, 30, "Puppy Kibble")

	m := FeedingMatcher{}
	if !m.Matches(entry, SlotMorning) {
		t.Error("expected clock-bucket fallback for non-standard task name")
	}
	if got := m.Slot(entry); got != SlotMorning {
		t.Errorf("Slot() = %q, want %q", got, SlotMorning)
	}
}

func TestClockLabelMatcher_ExactEquality(t *testing.T) {
	entry := carestatus.CareLogEntry{
		DogID:     "rex",
		Category:  carestatus.CategoryMedication,
		TaskName:  "Heartworm",
		Timestamp: time.Date(2026, 3, 14, 8, 0, 0, 0, time.UTC),
	}

	m := ClockLabelMatcher{}
	if !m.Matches(entry, "8:00 AM") {
		t.Error("expected exact label to match")
	}
	// No bucket tolerance for non-feeding categories.
	if m.Matches(entry, "8:01 AM") {
		t.Error("expected one-minute difference to mismatch")
	}
	if m.Matches(entry, "8:00 PM") {
		t.Error("expected AM/PM to be significant")
	}
}

func TestForCategory(t *testing.T) {
	if _, ok := ForCategory(carestatus.CategoryFeeding).(FeedingMatcher); !ok {
		t.Error("feeding category should use FeedingMatcher")
	}
	if _, ok := ForCategory(carestatus.CategoryPottyBreak).(ClockLabelMatcher); !ok {
		t.Error("non-feeding categories should use ClockLabelMatcher")
	}
}

func TestClockLabel(t *testing.T) {
	got := ClockLabel(time.Date(2026, 3, 14, 20, 5, 0, 0, time.UTC))
	if got != "8:05 PM" {
		t.Errorf("ClockLabel = %q, want %q", got, "8:05 PM")
	}
}
