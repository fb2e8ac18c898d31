package mind

import (
	"sort"
	"sync"
	"time"
)

// DefaultRecentCap bounds Record.Recent when the caller passes no cap.
const DefaultRecentCap = 10

// MemoryStore is the short-term memory: one Record per opaque key. Operations
// on one key are serialized; different keys only share the map lookup.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]*memoryEntry
	now     func() time.Time
}

type memoryEntry struct {
	mu      sync.Mutex
	rec     Record
	touched time.Time
	dead    bool // removed by Expire
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]*memoryEntry),
		now:     time.Now,
	}
}

func (s *MemoryStore) lookup(key string) *memoryEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.entries[key]
}

func (s *MemoryStore) entry(key string) *memoryEntry {
	if e := s.lookup(key); e != nil {
		return e
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if e := s.entries[key]; e != nil {
		return e
	}
	e := &memoryEntry{}
	s.entries[key] = e
	return e
}

// locked returns the live entry for key with its lock held.
func (s *MemoryStore) locked(key string) *memoryEntry {
	for {
		e := s.entry(key)
		e.mu.Lock()
		if !e.dead {
			return e
		}
		e.mu.Unlock()
	}
}

// Get returns a copy of the record under key. A missing key yields the zero
// Record and creates nothing.
func (s *MemoryStore) Get(key string) Record {
	e := s.lookup(key)
	if e == nil {
		return Record{}
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.rec.clone()
}

// Set replaces the record under key. Last writer wins.
func (s *MemoryStore) Set(key string, r Record) {
	e := s.locked(key)
	defer e.mu.Unlock()
	e.rec = r.clone()
	e.touched = s.now()
}

// Update runs fn on the record under key while holding that key's lock and
// stores the result. fn gets a private copy. Returns the stored record.
func (s *MemoryStore) Update(key string, fn func(Record) Record) Record {
	e := s.locked(key)
	defer e.mu.Unlock()
	e.rec = fn(e.rec.clone()).clone()
	e.touched = s.now()
	return e.rec.clone()
}

// PushRecent appends item to Recent, dropping the oldest entries beyond limit.
func (s *MemoryStore) PushRecent(key, item string, limit int) Record {
	return s.Update(key, func(r Record) Record {
		r.Recent = pushBounded(r.Recent, item, limit)
		return r
	})
}

// Touch sets LastMessageAt.
func (s *MemoryStore) Touch(key string, t time.Time) {
	s.Update(key, func(r Record) Record {
		r.LastMessageAt = t
		return r
	})
}

func pushBounded(list []string, item string, limit int) []string {
	if limit <= 0 {
		limit = DefaultRecentCap
	}
	list = append(list, item)
	if over := len(list) - limit; over > 0 {
		list = append([]string(nil), list[over:]...)
	}
	return list
}

// Keys returns every stored key, sorted.
func (s *MemoryStore) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.entries))
	for k := range s.entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Len is the number of stored keys.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Snapshot copies every record.
func (s *MemoryStore) Snapshot() map[string]Record {
	s.mu.RLock()
	entries := make(map[string]*memoryEntry, len(s.entries))
	for k, e := range s.entries {
		entries[k] = e
	}
	s.mu.RUnlock()

	out := make(map[string]Record, len(entries))
	for k, e := range entries {
		e.mu.Lock()
		out[k] = e.rec.clone()
		e.mu.Unlock()
	}
	return out
}

// Restore merges records into the store, overwriting keys that exist.
func (s *MemoryStore) Restore(records map[string]Record) {
	for k, r := range records {
		s.Set(k, r)
	}
}

// Expire drops records not written for longer than ttl and returns how many
// were removed. ttl <= 0 keeps everything.
func (s *MemoryStore) Expire(ttl time.Duration) int {
	if ttl <= 0 {
		return 0
	}
	cutoff := s.now().Add(-ttl)

	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for k, e := range s.entries {
		// TryLock: an entry being written right now is not idle.
		if !e.mu.TryLock() {
			continue
		}
		if e.touched.Before(cutoff) {
			e.dead = true
			delete(s.entries, k)
			removed++
		}
		e.mu.Unlock()
	}
	return removed
}
