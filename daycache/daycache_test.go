package daycache

import (
	"reflect"
	"testing"
	"time"

	"github.com/kennelworks/go-care-cache/carestatus"
	"github.com/kennelworks/go-care-cache/pkg/testsupport"
)

func newTestCache(t *testing.T, clock *testsupport.FakeClock) *Cache {
	t.Helper()
	cfg := DefaultConfig()
	cfg.Now = clock.Now
	c, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c
}

func sampleStatuses() []carestatus.DogCareStatus {
	return []carestatus.DogCareStatus{
		{
			DogID:   "rex",
			DogName: "Rex",
			Flags: []carestatus.DogFlag{
				{Type: carestatus.FlagSpecialAttention, Value: "first"},
				{Type: carestatus.FlagSpecialAttention, Value: "second"},
				{Type: carestatus.FlagInHeat, Value: "a"},
				{Type: carestatus.FlagInHeat, Value: "b"},
			},
		},
		{DogID: "bella", DogName: "Bella"},
	}
}

func TestCache_GetMissingKey(t *testing.T) {
	clock := testsupport.NewFakeClock(time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC))
	c := newTestCache(t, clock)

	if got := c.Get("2026-03-14"); got != nil {
		t.Errorf("Get on empty cache = %+v, want nil", got)
	}
}

func TestCache_SetGetRoundTrip(t *testing.T) {
	clock := testsupport.NewFakeClock(time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC))
	c := newTestCache(t, clock)

	c.Set("2026-03-14", sampleStatuses())

	got := c.Get("2026-03-14")
	if got == nil {
		t.Fatal("expected cached snapshot")
	}
	if len(got) != 2 || got[0].DogID != "rex" {
		t.Fatalf("unexpected snapshot: %+v", got)
	}

	// Dedup applied at write time: one special_attention, both in_heat.
	wantFlags := []carestatus.DogFlag{
		{Type: carestatus.FlagSpecialAttention, Value: "first"},
		{Type: carestatus.FlagInHeat, Value: "a"},
		{Type: carestatus.FlagInHeat, Value: "b"},
	}
	if !reflect.DeepEqual(got[0].Flags, wantFlags) {
		t.Errorf("flags = %+v, want %+v", got[0].Flags, wantFlags)
	}
}

func TestCache_SetIdempotent(t *testing.T) {
	clock := testsupport.NewFakeClock(time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC))
	c := newTestCache(t, clock)

	c.Set("2026-03-14", sampleStatuses())
	first := c.Get("2026-03-14")

	c.Set("2026-03-14", sampleStatuses())
	second := c.Get("2026-03-14")

	if !reflect.DeepEqual(first, second) {
		t.Errorf("repeated Set with identical input must yield identical reads")
	}
}

func TestCache_EmptyNeverCached(t *testing.T) {
	clock := testsupport.NewFakeClock(time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC))
	c := newTestCache(t, clock)

	c.Set("2026-03-14", nil)
	if got := c.Get("2026-03-14"); got != nil {
		t.Errorf("empty Set must be a no-op, got %+v", got)
	}

	c.Set("2026-03-14", []carestatus.DogCareStatus{})
	if got := c.Get("2026-03-14"); got != nil {
		t.Errorf("empty-slice Set must be a no-op, got %+v", got)
	}
}

func TestCache_TTLExpiry(t *testing.T) {
	clock := testsupport.NewFakeClock(time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC))
	c := newTestCache(t, clock)

	c.Set("2026-03-14", sampleStatuses())

	clock.Advance(5*time.Minute - time.Second)
	if c.Get("2026-03-14") == nil {
		t.Error("entry just inside TTL must still be valid")
	}

	clock.Advance(2 * time.Second)
	if got := c.Get("2026-03-14"); got != nil {
		t.Errorf("entry past TTL must read as nil, got %+v", got)
	}
}

func TestCache_GetReturnsCopy(t *testing.T) {
	clock := testsupport.NewFakeClock(time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC))
	c := newTestCache(t, clock)

	input := sampleStatuses()
	c.Set("2026-03-14", input)

	// Mutating the caller-held input must not reach the cache.
	input[1].DogName = "Mutated"
	if got := c.Get("2026-03-14"); got[1].DogName != "Bella" {
		t.Error("Set must deep-copy its input")
	}

	// Mutating a read result must not reach the cache either.
	read := c.Get("2026-03-14")
	read[0].Flags[0].Value = "mutated"
	if got := c.Get("2026-03-14"); got[0].Flags[0].Value != "first" {
		t.Error("Get must return a copy, never a live reference")
	}
}

func TestCache_ClearAndInvalidate(t *testing.T) {
	clock := testsupport.NewFakeClock(time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC))
	c := newTestCache(t, clock)

	c.Set("2026-03-14", sampleStatuses())
	c.Set("2026-03-15", sampleStatuses())

	c.Invalidate("2026-03-14")
	if c.Get("2026-03-14") != nil {
		t.Error("invalidated key must read as nil")
	}
	if c.Get("2026-03-15") == nil {
		t.Error("other keys must survive Invalidate")
	}

	c.Clear()
	if c.Get("2026-03-15") != nil {
		t.Error("Clear must wipe every dateKey")
	}
}

func TestCache_WrittenAt(t *testing.T) {
	start := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	clock := testsupport.NewFakeClock(start)
	c := newTestCache(t, clock)

	if !c.WrittenAt("2026-03-14").IsZero() {
		t.Error("WrittenAt for absent key must be zero")
	}

	c.Set("2026-03-14", sampleStatuses())
	if got := c.WrittenAt("2026-03-14"); !got.Equal(start) {
		t.Errorf("WrittenAt = %v, want %v", got, start)
	}
}

func TestConfig_Validate(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config must validate: %v", err)
	}

	cfg.TTL = 0
	if err := cfg.Validate(); err == nil {
		t.Error("zero TTL must be rejected")
	}
}
