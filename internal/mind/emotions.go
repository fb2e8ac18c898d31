package mind

import (
	"math"
	"sort"
	"sync"
)

// Bounds is the closed range every axis is clamped to.
type Bounds struct {
	Min float64
	Max float64
}

// DefaultBounds is [-1, 1] on every axis.
var DefaultBounds = Bounds{Min: -1, Max: 1}

func (b Bounds) valid() bool {
	return !math.IsNaN(b.Min) && !math.IsNaN(b.Max) && b.Min <= b.Max
}

// Clamp maps x into [Min, Max]. NaN is treated as 0.
func (b Bounds) Clamp(x float64) float64 {
	if math.IsNaN(x) {
		x = 0
	}
	if x < b.Min {
		return b.Min
	}
	if x > b.Max {
		return b.Max
	}
	return x
}

// Apply adds d to e and re-clamps every axis. Pure: no I/O, e is not modified.
func Apply(e Emotions, d Delta, b Bounds) Emotions {
	if !b.valid() {
		b = DefaultBounds
	}
	return Emotions{
		Pleasantness: b.Clamp(b.Clamp(e.Pleasantness) + finite(d.Pleasantness)),
		Attention:    b.Clamp(b.Clamp(e.Attention) + finite(d.Attention)),
		Sensitivity:  b.Clamp(b.Clamp(e.Sensitivity) + finite(d.Sensitivity)),
		Aptitude:     b.Clamp(b.Clamp(e.Aptitude) + finite(d.Aptitude)),
	}
}

// finite keeps infinities (they clamp fine) and drops NaN.
func finite(x float64) float64 {
	if math.IsNaN(x) {
		return 0
	}
	return x
}

// EmotionBook holds the in-memory emotional state of every guild. Updates to
// one guild are serialized; different guilds never contend beyond the map lookup.
type EmotionBook struct {
	bounds Bounds
	mu     sync.RWMutex
	guilds map[string]*guildEmotions
}

type guildEmotions struct {
	mu    sync.Mutex
	state Emotions
}

func NewEmotionBook(b Bounds) *EmotionBook {
	if !b.valid() {
		b = DefaultBounds
	}
	return &EmotionBook{
		bounds: b,
		guilds: make(map[string]*guildEmotions),
	}
}

// guild returns the entry for guildID, creating it if needed.
func (eb *EmotionBook) guild(guildID string) *guildEmotions {
	eb.mu.RLock()
	g := eb.guilds[guildID]
	eb.mu.RUnlock()
	if g != nil {
		return g
	}
	eb.mu.Lock()
	defer eb.mu.Unlock()
	if g = eb.guilds[guildID]; g != nil {
		return g
	}
	g = &guildEmotions{}
	eb.guilds[guildID] = g
	return g
}

// Get returns the current state of a guild (zero state if unknown).
func (eb *EmotionBook) Get(guildID string) (Emotions, bool) {
	eb.mu.RLock()
	g := eb.guilds[guildID]
	eb.mu.RUnlock()
	if g == nil {
		return Emotions{}, false
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state, true
}

// Set overwrites the state of a guild, clamped.
func (eb *EmotionBook) Set(guildID string, e Emotions) Emotions {
	g := eb.guild(guildID)
	g.mu.Lock()
	defer g.mu.Unlock()
	g.state = Apply(e, Delta{}, eb.bounds)
	return g.state
}

// Mutate applies d to the guild state and returns the new state.
func (eb *EmotionBook) Mutate(guildID string, d Delta) Emotions {
	g := eb.guild(guildID)
	g.mu.Lock()
	defer g.mu.Unlock()
	g.state = Apply(g.state, d, eb.bounds)
	return g.state
}

// GuildIDs returns every guild with a known state, sorted.
func (eb *EmotionBook) GuildIDs() []string {
	eb.mu.RLock()
	defer eb.mu.RUnlock()
	ids := make([]string, 0, len(eb.guilds))
	for id := range eb.guilds {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
