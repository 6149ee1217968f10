// Package optimistic applies immediate local state changes for
// user-initiated care actions ahead of durable confirmation, and rolls
// them back precisely when the durable write fails.
package optimistic

import (
	"context"
	"log/slog"
	"sync"

	"github.com/puzpuzpuz/xsync/v3"

	"github.com/kennelworks/go-care-cache/carelog"
	"github.com/kennelworks/go-care-cache/carestatus"
)

// DurableWrite persists one already-applied local mutation.
type DurableWrite func(ctx context.Context) error

// DurableInsert persists a new record and returns its created id.
type DurableInsert func(ctx context.Context) (string, error)

// DurableDelete removes a record by id.
type DurableDelete func(ctx context.Context, id string) error

// Coordinator owns the session-local optimistic state for potty breaks
// and feedings. Visible state mutates synchronously before the durable
// write is even issued; the write itself runs on a FIFO queue, and a
// rejection triggers the inverse of exactly the mutation that was
// applied. State is keyed per dog and per dog+slot, so there is no
// ordering guarantee across different keys and none is needed.
type Coordinator struct {
	queue    *Queue
	notifier carestatus.Notifier
	mirror   *carelog.Mirror
	logger   *slog.Logger

	mu      sync.Mutex
	dateKey string

	// potty maps dogID to the slots logged today.
	potty *xsync.MapOf[string, []string]

	// feedingOn marks dogID-slot keys whose feeding shows as logged.
	feedingOn *xsync.MapOf[string, bool]

	// feedingIDs remembers the durable record id behind a logged
	// feeding so the second toggle can delete that exact record. Reset
	// at midnight or by an explicit manual reset, independent of the
	// day cache.
	feedingIDs *xsync.MapOf[string, string]
}

// NewCoordinator constructs a Coordinator. The mirror may be nil when
// no same-session slot mirroring is wanted.
func NewCoordinator(queue *Queue, notifier carestatus.Notifier, mirror *carelog.Mirror, logger *slog.Logger) *Coordinator {
	if notifier == nil {
		notifier = carestatus.NopNotifier{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Coordinator{
		queue:      queue,
		notifier:   notifier,
		mirror:     mirror,
		logger:     logger,
		potty:      xsync.NewMapOf[string, []string](),
		feedingOn:  xsync.NewMapOf[string, bool](),
		feedingIDs: xsync.NewMapOf[string, string](),
	}
}

// FeedingKey builds the per-dog-per-slot state key.
func FeedingKey(dogID, slot string) string {
	return dogID + "-" + slot
}

// AddPottyBreak inserts slot into the dog's visible slot list if not
// already present, surfaces a success notification, then queues the
// durable write. A rejected write removes exactly the slot that was
// added and surfaces a per-dog failure notification. A duplicate add
// is a no-op on visible state and is never compensated.
func (c *Coordinator) AddPottyBreak(dogID, dogName, slot string, write DurableWrite) {
	s := saga{
		apply: func() bool { return c.addSlot(dogID, slot) },
		revert: func() {
			c.removeSlot(dogID, slot)
			c.syncMirror()
		},
	}
	revert := s.run()
	c.syncMirror()
	c.notifier.Success(dogName + ": potty break logged at " + slot)

	c.submit(op{
		name:       "potty-add",
		run:        func(ctx context.Context) error { return write(ctx) },
		compensate: revert,
		onFailure: func(error) {
			c.notifier.Failure("Could not save potty break for " + dogName)
		},
	}, revert)
}

// RemovePottyBreak mirrors the add path: the slot leaves visible state
// first, then the corresponding durable delete is queued. A rejected
// delete re-adds exactly the removed slot.
func (c *Coordinator) RemovePottyBreak(dogID, dogName, slot string, write DurableWrite) {
	s := saga{
		apply: func() bool { return c.removeSlot(dogID, slot) },
		revert: func() {
			c.addSlot(dogID, slot)
			c.syncMirror()
		},
	}
	revert := s.run()
	c.syncMirror()
	c.notifier.Success(dogName + ": potty break removed at " + slot)

	c.submit(op{
		name:       "potty-remove",
		run:        func(ctx context.Context) error { return write(ctx) },
		compensate: revert,
		onFailure: func(error) {
			c.notifier.Failure("Could not remove potty break for " + dogName)
		},
	}, revert)
}

// ToggleFeeding flips the logged state of one feeding slot. The first
// call creates a durable record and remembers its id; an identical
// second call deletes that exact record and clears the mapping instead
// of creating a duplicate. The FIFO queue guarantees the insert has
// settled before a queued delete looks the id up.
func (c *Coordinator) ToggleFeeding(dogID, dogName, slot string, insert DurableInsert, remove DurableDelete) {
	key := FeedingKey(dogID, slot)

	if _, on := c.feedingOn.Load(key); on {
		s := saga{
			apply: func() bool {
				_, loaded := c.feedingOn.LoadAndDelete(key)
				return loaded
			},
			revert: func() { c.feedingOn.Store(key, true) },
		}
		revert := s.run()
		c.notifier.Success(dogName + ": " + slot + " feeding cleared")

		c.submit(op{
			name: "feeding-delete",
			run: func(ctx context.Context) error {
				id, ok := c.feedingIDs.LoadAndDelete(key)
				if !ok || id == "" {
					// The insert never settled durably; nothing to delete.
					return nil
				}
				if err := remove(ctx, id); err != nil {
					c.feedingIDs.Store(key, id)
					return err
				}
				return nil
			},
			compensate: revert,
			onFailure: func(error) {
				c.notifier.Failure("Could not clear " + slot + " feeding for " + dogName)
			},
		}, revert)
		return
	}

	s := saga{
		apply: func() bool {
			_, loaded := c.feedingOn.LoadOrStore(key, true)
			return !loaded
		},
		revert: func() { c.feedingOn.Delete(key) },
	}
	revert := s.run()
	c.notifier.Success(dogName + ": " + slot + " feeding logged")

	c.submit(op{
		name: "feeding-insert",
		run: func(ctx context.Context) error {
			id, err := insert(ctx)
			if err != nil {
				return err
			}
			c.feedingIDs.Store(key, id)
			return nil
		},
		compensate: revert,
		onFailure: func(error) {
			c.notifier.Failure("Could not save " + slot + " feeding for " + dogName)
		},
	}, revert)
}

// submit enqueues the op, or fails it immediately when the queue has
// been closed by session teardown.
func (c *Coordinator) submit(o op, revert func()) {
	if c.queue != nil && c.queue.Enqueue(o) {
		return
	}
	if revert != nil {
		revert()
	}
	c.logger.Warn("durable write rejected, queue closed", "op", o.name)
}

// PottySlots returns a copy of the dog's visible slot list.
func (c *Coordinator) PottySlots(dogID string) []string {
	slots, ok := c.potty.Load(dogID)
	if !ok {
		return nil
	}
	return append([]string(nil), slots...)
}

// HasPottySlot reports whether the slot is visibly logged for the dog.
func (c *Coordinator) HasPottySlot(dogID, slot string) bool {
	slots, _ := c.potty.Load(dogID)
	for _, s := range slots {
		if s == slot {
			return true
		}
	}
	return false
}

// FeedingLogged reports whether the dog's feeding slot shows as logged.
func (c *Coordinator) FeedingLogged(dogID, slot string) bool {
	_, on := c.feedingOn.Load(FeedingKey(dogID, slot))
	return on
}

// FeedingRecordID exposes the remembered durable id for a feeding key.
func (c *Coordinator) FeedingRecordID(dogID, slot string) (string, bool) {
	return c.feedingIDs.Load(FeedingKey(dogID, slot))
}

// SeedPottySlots replaces the visible potty state, typically after a
// rebuild from the mirror or the backing store.
func (c *Coordinator) SeedPottySlots(slots map[string][]string) {
	c.potty.Clear()
	for dogID, s := range slots {
		if len(s) == 0 {
			continue
		}
		c.potty.Store(dogID, append([]string(nil), s...))
	}
	c.syncMirror()
}

// ResetFeedingState clears the feeding toggle map and its id mapping.
// Called at local midnight and by manual reset.
func (c *Coordinator) ResetFeedingState() {
	c.feedingOn.Clear()
	c.feedingIDs.Clear()
}

// RolloverDate starts a fresh day: visible potty state and the feeding
// toggle map are cleared and the mirror key switches to the new date.
func (c *Coordinator) RolloverDate(dateKey string) {
	c.mu.Lock()
	c.dateKey = dateKey
	c.mu.Unlock()
	c.potty.Clear()
	c.ResetFeedingState()
}

// DateKey returns the date the mirror currently writes under.
func (c *Coordinator) DateKey() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dateKey
}

func (c *Coordinator) addSlot(dogID, slot string) bool {
	added := false
	c.potty.Compute(dogID, func(old []string, _ bool) ([]string, bool) {
		for _, s := range old {
			if s == slot {
				return old, false
			}
		}
		added = true
		return append(append([]string(nil), old...), slot), false
	})
	return added
}

func (c *Coordinator) removeSlot(dogID, slot string) bool {
	removed := false
	c.potty.Compute(dogID, func(old []string, loaded bool) ([]string, bool) {
		if !loaded {
			return nil, true
		}
		next := make([]string, 0, len(old))
		for _, s := range old {
			if s == slot {
				removed = true
				continue
			}
			next = append(next, s)
		}
		if len(next) == 0 {
			return nil, true
		}
		return next, false
	})
	return removed
}

// syncMirror writes the current potty map to the same-session mirror.
// Mirror failures are logged and ignored: it is a fast path, never a
// source of truth.
func (c *Coordinator) syncMirror() {
	if c.mirror == nil {
		return
	}
	dateKey := c.DateKey()
	if dateKey == "" {
		return
	}
	snapshot := map[string][]string{}
	c.potty.Range(func(dogID string, slots []string) bool {
		snapshot[dogID] = append([]string(nil), slots...)
		return true
	})
	if err := c.mirror.Save(dateKey, snapshot); err != nil {
		c.logger.Warn("slot mirror save failed", "date", dateKey, "error", err)
	}
}
