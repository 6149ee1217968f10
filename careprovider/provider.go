// Package careprovider composes the day cache, refresh scheduler,
// optimistic coordinator, observation ledger and time-slot matching
// into the single surface the daily-care dashboard consumes.
package careprovider

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/kennelworks/go-care-cache/carelog"
	"github.com/kennelworks/go-care-cache/carestatus"
	"github.com/kennelworks/go-care-cache/daycache"
	"github.com/kennelworks/go-care-cache/observation"
	"github.com/kennelworks/go-care-cache/optimistic"
	"github.com/kennelworks/go-care-cache/scheduler"
	"github.com/kennelworks/go-care-cache/timeslot"
)

// Provider is the aggregate care-status façade. All reads funnel
// through the day cache; all user-initiated care actions go through
// the optimistic coordinator.
type Provider struct {
	store       carelog.Store
	cache       *daycache.Cache
	ledger      *observation.Ledger
	coordinator *optimistic.Coordinator
	mirror      *carelog.Mirror
	notifier    carestatus.Notifier
	logger      *slog.Logger
	now         func() time.Time

	mu    sync.Mutex
	sched *scheduler.Scheduler

	logCare chan string
}

// Options configures a Provider.
type Options struct {
	Store       carelog.Store
	Cache       *daycache.Cache
	Ledger      *observation.Ledger
	Coordinator *optimistic.Coordinator
	Mirror      *carelog.Mirror
	Notifier    carestatus.Notifier
	Logger      *slog.Logger
	Now         func() time.Time
}

// New constructs the façade. Store, Cache, Ledger and Coordinator are
// required; the rest default.
func New(opts Options) *Provider {
	notifier := opts.Notifier
	if notifier == nil {
		notifier = carestatus.NopNotifier{}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Provider{
		store:       opts.Store,
		cache:       opts.Cache,
		ledger:      opts.Ledger,
		coordinator: opts.Coordinator,
		mirror:      opts.Mirror,
		notifier:    notifier,
		logger:      logger,
		now:         now,
		logCare:     make(chan string, 16),
	}
}

// AttachScheduler wires the refresh scheduler in after construction;
// the scheduler itself is built around this provider's RefreshDate.
func (p *Provider) AttachScheduler(s *scheduler.Scheduler) {
	p.mu.Lock()
	p.sched = s
	p.mu.Unlock()
}

func (p *Provider) scheduler() *scheduler.Scheduler {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.sched
}

// FetchAllDogsWithCareStatus returns the care-status snapshot for a
// calendar date. The day cache is consulted first unless forceRefresh
// is set; a miss or bypass fetches roster and care logs from the
// backing store and repopulates the cache.
func (p *Provider) FetchAllDogsWithCareStatus(ctx context.Context, date time.Time, forceRefresh bool) ([]carestatus.DogCareStatus, error) {
	dateKey := carestatus.DateKey(date)
	if !forceRefresh {
		if cached := p.cache.Get(dateKey); cached != nil {
			return cached, nil
		}
	}
	if err := p.RefreshDate(ctx, date, true); err != nil {
		return nil, err
	}
	return p.cache.Get(dateKey), nil
}

// RefreshDate fetches everything for one date and repopulates the day
// cache. It is the RefreshFunc the scheduler drives; bypassCache skips
// the freshness check so interval/midnight triggers always hit the
// store.
func (p *Provider) RefreshDate(ctx context.Context, date time.Time, bypassCache bool) error {
	dateKey := carestatus.DateKey(date)
	if !bypassCache && p.cache.Get(dateKey) != nil {
		return nil
	}

	statuses, entries, err := p.buildSnapshot(ctx, date)
	if err != nil {
		return err
	}

	// Empty rosters are refused by the cache: "no result yet" must not
	// mask the next fetch.
	p.cache.Set(dateKey, statuses)
	p.rebuildPottyState(dateKey, entries)
	return nil
}

// Refresh is the user-initiated "refresh now" action.
func (p *Provider) Refresh(ctx context.Context) error {
	if s := p.scheduler(); s != nil {
		return s.Refresh(ctx)
	}
	return p.RefreshDate(ctx, p.now(), true)
}

// NotifyVisible forwards a foreground-regained signal to the
// scheduler.
func (p *Provider) NotifyVisible() {
	if s := p.scheduler(); s != nil {
		s.NotifyVisible()
	}
}

// LastRefresh reports when the last successful scheduled refresh
// finished, for "updated N min ago" display.
func (p *Provider) LastRefresh() time.Time {
	if s := p.scheduler(); s != nil {
		return s.LastRefresh()
	}
	return time.Time{}
}

// buildSnapshot seeds a skeleton from the dog roster, then merges the
// day's care logs per dog: newest-first entries fill the per-category
// last-care timestamps.
func (p *Provider) buildSnapshot(ctx context.Context, date time.Time) ([]carestatus.DogCareStatus, []carestatus.CareLogEntry, error) {
	dateKey := carestatus.DateKey(date)

	dogs, err := p.store.ListDogs(ctx)
	if err != nil {
		return nil, nil, &carestatus.FetchError{Op: "roster", Date: dateKey, Err: err}
	}

	entries, err := p.store.ListEntries(ctx, carelog.DayFilter(date))
	if err != nil {
		return nil, nil, &carestatus.FetchError{Op: "care logs", Date: dateKey, Err: err}
	}

	byDog := make(map[string][]carestatus.CareLogEntry, len(dogs))
	for _, e := range entries {
		byDog[e.DogID] = append(byDog[e.DogID], e)
	}

	statuses := make([]carestatus.DogCareStatus, len(dogs))
	for i, dog := range dogs {
		status := carestatus.DogCareStatus{
			DogID:    dog.ID,
			DogName:  dog.Name,
			PhotoURL: dog.PhotoURL,
			Breed:    dog.Breed,
			Flags:    dog.Flags,
			Logs:     byDog[dog.ID],
		}
		for _, e := range byDog[dog.ID] {
			if status.LastCare == nil {
				status.LastCare = map[carestatus.CareCategory]time.Time{}
			}
			// Entries arrive newest first; keep the first seen per category.
			if _, ok := status.LastCare[e.Category]; !ok {
				status.LastCare[e.Category] = e.Timestamp
			}
		}
		statuses[i] = status
	}
	return statuses, entries, nil
}

// rebuildPottyState reseeds the coordinator's visible potty slots. The
// same-session mirror is preferred when present; otherwise the slot
// map is derived from the fetched entries and the mirror rebuilt.
func (p *Provider) rebuildPottyState(dateKey string, entries []carestatus.CareLogEntry) {
	if p.coordinator == nil {
		return
	}
	if p.coordinator.DateKey() != dateKey {
		p.coordinator.RolloverDate(dateKey)
	}

	if p.mirror != nil {
		if slots, ok := p.mirror.Load(dateKey); ok {
			p.coordinator.SeedPottySlots(slots)
			return
		}
	}

	matcher := timeslot.ForCategory(carestatus.CategoryPottyBreak)
	slots := map[string][]string{}
	for _, e := range entries {
		if e.Category != carestatus.CategoryPottyBreak {
			continue
		}
		slot := matcher.Slot(e)
		if !containsSlot(slots[e.DogID], slot) {
			slots[e.DogID] = append(slots[e.DogID], slot)
		}
	}
	p.coordinator.SeedPottySlots(slots)
}

// AddPottyBreak optimistically logs a potty break for a display slot
// and queues the durable insert.
func (p *Provider) AddPottyBreak(dogID, dogName, slot string) error {
	entry := carestatus.CareLogEntry{
		DogID:     dogID,
		Category:  carestatus.CategoryPottyBreak,
		TaskName:  "Potty Break",
		Timestamp: p.now(),
		CreatedBy: "dashboard",
	}
	if err := entry.Validate(); err != nil {
		return err
	}
	p.coordinator.AddPottyBreak(dogID, dogName, slot, func(ctx context.Context) error {
		if _, err := p.store.Insert(ctx, entry); err != nil {
			return &carestatus.WriteError{Op: "insert potty break", DogID: dogID, Err: err}
		}
		return nil
	})
	return nil
}

// RemovePottyBreak optimistically removes a logged slot and queues a
// delete of the matching durable record, located by the same slot rule
// the dashboard renders with.
func (p *Provider) RemovePottyBreak(dogID, dogName, slot string) {
	p.coordinator.RemovePottyBreak(dogID, dogName, slot, func(ctx context.Context) error {
		matcher := timeslot.ForCategory(carestatus.CategoryPottyBreak)
		entries, err := p.store.ListEntries(ctx, withDog(carelog.DayFilter(p.now()), dogID, carestatus.CategoryPottyBreak))
		if err != nil {
			return &carestatus.WriteError{Op: "locate potty break", DogID: dogID, Err: err}
		}
		for _, e := range entries {
			if matcher.Matches(e, slot) {
				if err := p.store.Delete(ctx, e.ID); err != nil {
					return &carestatus.WriteError{Op: "delete potty break", DogID: dogID, Err: err}
				}
				return nil
			}
		}
		// Already gone durably; the local removal stands.
		return nil
	})
}

// ToggleFeeding flips one named feeding window between logged and
// cleared, netting to zero durable records across two identical calls.
func (p *Provider) ToggleFeeding(dogID, dogName, slot string) {
	p.coordinator.ToggleFeeding(dogID, dogName, slot,
		func(ctx context.Context) (string, error) {
			created, err := p.store.Insert(ctx, carestatus.CareLogEntry{
				DogID:     dogID,
				Category:  carestatus.CategoryFeeding,
				TaskName:  slot + " Feeding",
				Timestamp: p.now(),
				CreatedBy: "dashboard",
			})
			if err != nil {
				return "", &carestatus.WriteError{Op: "insert feeding", DogID: dogID, Err: err}
			}
			return created.ID, nil
		},
		func(ctx context.Context, id string) error {
			if err := p.store.Delete(ctx, id); err != nil {
				return &carestatus.WriteError{Op: "delete feeding", DogID: dogID, Err: err}
			}
			return nil
		},
	)
}

// AddObservation validates and persists an ephemeral note. Validation
// failures are rejected before any store call.
func (p *Provider) AddObservation(ctx context.Context, dogID, createdBy, text string) error {
	if err := carestatus.ValidateNote(text); err != nil {
		return err
	}
	entry := carestatus.CareLogEntry{
		DogID:     dogID,
		Category:  carestatus.CategoryNote,
		TaskName:  "Observation",
		Timestamp: p.now(),
		Notes:     text,
		CreatedBy: createdBy,
	}
	if err := entry.Validate(); err != nil {
		return err
	}
	if _, err := p.store.Insert(ctx, entry); err != nil {
		return &carestatus.WriteError{Op: "insert observation", DogID: dogID, Err: err}
	}
	return nil
}

// ObservationDetails returns the dog's currently valid observations.
func (p *Provider) ObservationDetails(ctx context.Context, dogID string) ([]carestatus.Observation, error) {
	return p.ledger.Details(ctx, dogID)
}

// HasCareLogged reports whether care shows as logged for a dog, slot
// and category, overlaying optimistic state on the cached snapshot.
func (p *Provider) HasCareLogged(dogID, slot string, category carestatus.CareCategory) bool {
	switch category {
	case carestatus.CategoryPottyBreak:
		if p.coordinator != nil && p.coordinator.HasPottySlot(dogID, slot) {
			return true
		}
	case carestatus.CategoryFeeding:
		if p.coordinator != nil && p.coordinator.FeedingLogged(dogID, slot) {
			return true
		}
	}

	matcher := timeslot.ForCategory(category)
	for _, status := range p.cachedCurrent() {
		if status.DogID != dogID {
			continue
		}
		for _, e := range status.Logs {
			if e.Category == category && matcher.Matches(e, slot) {
				return true
			}
		}
	}
	return false
}

// RequestLogCare asks the embedding UI to open its external care
// logging dialog for a dog.
func (p *Provider) RequestLogCare(dogID string) {
	select {
	case p.logCare <- dogID:
	default:
		p.logger.Warn("log care request dropped, channel full", "dog_id", dogID)
	}
}

// LogCareRequests exposes the dialog-open requests to the UI layer.
func (p *Provider) LogCareRequests() <-chan string {
	return p.logCare
}

// ClearCache wipes every cached dateKey, for sign-out and manual
// "force refresh everything".
func (p *Provider) ClearCache() {
	p.cache.Clear()
}

func (p *Provider) cachedCurrent() []carestatus.DogCareStatus {
	date := p.now()
	if s := p.scheduler(); s != nil {
		date = s.CurrentDate()
	}
	return p.cache.Get(carestatus.DateKey(date))
}

func withDog(f carelog.Filter, dogID string, cat carestatus.CareCategory) carelog.Filter {
	f.DogID = dogID
	f.Category = cat
	return f
}

func containsSlot(slots []string, slot string) bool {
	for _, s := range slots {
		if s == slot {
			return true
		}
	}
	return false
}
