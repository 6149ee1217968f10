package carelog

import (
	"github.com/puzpuzpuz/xsync/v3"
	"github.com/vmihailenco/msgpack/v5"
)

// KV is the keyed ephemeral store the slot mirror writes through. It is
// a same-session fast path only and is never treated as a source of
// truth.
type KV interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte)
	Delete(key string)
}

// MemKV is the default in-process KV.
type MemKV struct {
	m *xsync.MapOf[string, []byte]
}

// NewMemKV returns an empty in-process KV.
func NewMemKV() *MemKV {
	return &MemKV{m: xsync.NewMapOf[string, []byte]()}
}

// Get returns the value stored under key.
func (kv *MemKV) Get(key string) ([]byte, bool) { return kv.m.Load(key) }

// Set stores value under key.
func (kv *MemKV) Set(key string, value []byte) { kv.m.Store(key, value) }

// Delete drops key.
func (kv *MemKV) Delete(key string) { kv.m.Delete(key) }

// Mirror persists the per-date potty-break slot map under a
// "potty_breaks_<yyyy-MM-dd>" key. Absent entries are rebuilt from the
// backing store by the caller.
type Mirror struct {
	kv KV
}

// NewMirror wraps a KV.
func NewMirror(kv KV) *Mirror {
	return &Mirror{kv: kv}
}

func mirrorKey(dateKey string) string {
	return "potty_breaks_" + dateKey
}

// Save writes the dogID -> slots map for a date.
func (m *Mirror) Save(dateKey string, slots map[string][]string) error {
	b, err := msgpack.Marshal(slots)
	if err != nil {
		return err
	}
	m.kv.Set(mirrorKey(dateKey), b)
	return nil
}

// Load reads the dogID -> slots map for a date. The second return is
// false when no mirror entry exists or it cannot be decoded.
func (m *Mirror) Load(dateKey string) (map[string][]string, bool) {
	b, ok := m.kv.Get(mirrorKey(dateKey))
	if !ok {
		return nil, false
	}
	var slots map[string][]string
	if err := msgpack.Unmarshal(b, &slots); err != nil {
		// A corrupt mirror entry is discarded; the store rebuilds it.
		m.kv.Delete(mirrorKey(dateKey))
		return nil, false
	}
	return slots, true
}

// Drop removes the mirror entry for a date.
func (m *Mirror) Drop(dateKey string) {
	m.kv.Delete(mirrorKey(dateKey))
}
