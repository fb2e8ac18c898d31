package mind

import (
	"fmt"
	"slices"
	"sync"
	"testing"
	"time"
)

func TestMemoryGetMissingCreatesNothing(t *testing.T) {
	t.Parallel()

	s := NewMemoryStore()
	r := s.Get("missing")
	if !r.LastMessageAt.IsZero() || len(r.Recent) != 0 {
		t.Fatalf("Get(missing) = %+v, want zero record", r)
	}
	if s.Len() != 0 {
		t.Fatalf("Len() = %d after a read, want 0", s.Len())
	}
}

func TestMemoryPushRecentKeepsNewest(t *testing.T) {
	t.Parallel()

	s := NewMemoryStore()
	for i := 0; i < 15; i++ {
		s.PushRecent("k", fmt.Sprint(i), 10)
	}
	got := s.Get("k").Recent
	want := []string{"5", "6", "7", "8", "9", "10", "11", "12", "13", "14"}
	if !slices.Equal(got, want) {
		t.Fatalf("Recent = %v, want %v", got, want)
	}

	r := s.PushRecent("k", "x", 3)
	if !slices.Equal(r.Recent, []string{"13", "14", "x"}) {
		t.Fatalf("PushRecent with a smaller limit = %v", r.Recent)
	}
}

func TestMemoryGetReturnsCopy(t *testing.T) {
	t.Parallel()

	s := NewMemoryStore()
	s.Set("k", Record{Recent: []string{"a"}})
	r := s.Get("k")
	r.Recent[0] = "mutated"
	if got := s.Get("k").Recent[0]; got != "a" {
		t.Fatalf("store leaked its slice: %q", got)
	}
}

func TestMemoryConcurrentPushSameKey(t *testing.T) {
	t.Parallel()

	s := NewMemoryStore()
	const writers = 64
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.PushRecent("k", fmt.Sprint(i), DefaultRecentCap)
			s.Touch("k", time.Unix(int64(i), 0))
		}()
	}
	wg.Wait()

	r := s.Get("k")
	if len(r.Recent) != DefaultRecentCap {
		t.Fatalf("len(Recent) = %d, want %d", len(r.Recent), DefaultRecentCap)
	}
	seen := map[string]bool{}
	for _, item := range r.Recent {
		if seen[item] {
			t.Fatalf("duplicate %q: concurrent pushes interleaved", item)
		}
		seen[item] = true
	}
}

func TestMemoryUpdateIsAtomic(t *testing.T) {
	t.Parallel()

	s := NewMemoryStore()
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Update("counter", func(r Record) Record {
				r.LastMessageAt = r.LastMessageAt.Add(time.Second)
				return r
			})
		}()
	}
	wg.Wait()
	if got := s.Get("counter").LastMessageAt; got != (time.Time{}).Add(100*time.Second) {
		t.Fatalf("LastMessageAt = %v, want 100 increments", got)
	}
}

func TestMemorySnapshotRestore(t *testing.T) {
	t.Parallel()

	a := NewMemoryStore()
	at := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	a.Touch(GuildKey("g"), at)
	a.PushRecent(QuotesKey("g"), "q1", 10)

	b := NewMemoryStore()
	b.Restore(a.Snapshot())
	if got := b.Get(GuildKey("g")).LastMessageAt; !got.Equal(at) {
		t.Fatalf("restored LastMessageAt = %v", got)
	}
	if got := b.Keys(); len(got) != 2 {
		t.Fatalf("Keys() = %v", got)
	}
}

func TestMemoryExpire(t *testing.T) {
	t.Parallel()

	clk := newClock()
	s := NewMemoryStore()
	s.now = clk.Now

	s.Touch("old", clk.Now())
	clk.Advance(2 * time.Hour)
	s.Touch("fresh", clk.Now())

	if n := s.Expire(0); n != 0 {
		t.Fatalf("Expire(0) removed %d", n)
	}
	if n := s.Expire(time.Hour); n != 1 {
		t.Fatalf("Expire(1h) removed %d, want 1", n)
	}
	if keys := s.Keys(); !slices.Equal(keys, []string{"fresh"}) {
		t.Fatalf("Keys() = %v", keys)
	}

	// Writes after expiry land in a live entry.
	s.PushRecent("old", "again", 10)
	if got := s.Get("old").Recent; !slices.Equal(got, []string{"again"}) {
		t.Fatalf("Recent after expiry = %v", got)
	}
}

func TestKeysDoNotCollide(t *testing.T) {
	t.Parallel()

	keys := []string{
		GuildKey("1"),
		QuotesKey("1"),
		PhrasesKey("1", "bored"),
		PhrasesKey("1", "blah"),
		Key(KindGuild, "1", "2"),
		Key(KindGuild, "12"),
	}
	seen := map[string]bool{}
	for _, k := range keys {
		if seen[k] {
			t.Fatalf("key collision: %s", k)
		}
		seen[k] = true
	}
	if GuildKey("1") != GuildKey("1") {
		t.Fatal("keys are not stable")
	}
}
