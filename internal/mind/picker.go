package mind

import (
	"errors"
	"math/rand/v2"
	"slices"
	"sync"
)

// ErrNoCandidates is returned when a pick is asked of an empty pool.
var ErrNoCandidates = errors.New("mind: no candidates to pick from")

// Picker chooses uniformly among candidates while steering away from the
// recently used ones.
type Picker struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

// NewPicker draws from src, or from a randomly seeded PCG when src is nil.
func NewPicker(src rand.Source) *Picker {
	if src == nil {
		src = rand.NewPCG(rand.Uint64(), rand.Uint64())
	}
	return &Picker{rnd: rand.New(src)}
}

func (p *Picker) intN(n int) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.rnd.IntN(n)
}

// Pick returns a candidate and whether it should be recorded as recent.
//
// A fresh draw is returned and recorded. A repeat is returned unrecorded when
// the pool is smaller than limit; otherwise draws continue until a candidate
// outside recent comes up. If none exists the repeat is returned.
func (p *Picker) Pick(candidates, recent []string, limit int) (string, bool, error) {
	if len(candidates) == 0 {
		return "", false, ErrNoCandidates
	}
	if limit <= 0 {
		limit = DefaultRecentCap
	}

	choice := candidates[p.intN(len(candidates))]
	if !slices.Contains(recent, choice) {
		return choice, true, nil
	}
	if len(candidates) < limit {
		return choice, false, nil
	}

	fresh := make([]string, 0, len(candidates))
	for _, c := range candidates {
		if !slices.Contains(recent, c) {
			fresh = append(fresh, c)
		}
	}
	if len(fresh) == 0 {
		return choice, false, nil
	}
	// Uniform over the non-recent candidates (duplicates keep their weight),
	// same distribution as redrawing until one comes up.
	return fresh[p.intN(len(fresh))], true, nil
}

// PickFresh picks from candidates against the Recent list stored under key
// and records the choice, all under the key's lock.
func (p *Picker) PickFresh(store *MemoryStore, key string, candidates []string, limit int) (string, error) {
	if len(candidates) == 0 {
		return "", ErrNoCandidates
	}
	var (
		choice string
		err    error
	)
	store.Update(key, func(r Record) Record {
		var record bool
		choice, record, err = p.Pick(candidates, r.Recent, limit)
		if err == nil && record {
			r.Recent = pushBounded(r.Recent, choice, limit)
		}
		return r
	})
	return choice, err
}
