// Package memstore is an in-process backend for local runs and tests. Nothing
// survives a restart.
package memstore

import (
	"cmp"
	"context"
	"slices"
	"sync"
	"time"

	"github.com/keshon/luci/internal/mind"
)

type message struct {
	Text      string
	Author    string
	CreatedAt time.Time
}

type quote struct {
	Text   string
	Author string
}

// Store keeps every backend table in maps.
type Store struct {
	mu        sync.RWMutex
	configs   map[string]mind.GuildConfig
	emotions  map[string]mind.Emotions
	people    map[string]map[string]mind.Person // guild -> user
	messages  map[string][]message              // normalized text -> sightings
	responses map[string][]string               // normalized stimulus -> replies
	quotes    map[string][]quote                // guild -> quotes
	bounds    mind.Bounds
}

func New() *Store {
	return &Store{
		configs:   make(map[string]mind.GuildConfig),
		emotions:  make(map[string]mind.Emotions),
		people:    make(map[string]map[string]mind.Person),
		messages:  make(map[string][]message),
		responses: make(map[string][]string),
		quotes:    make(map[string][]quote),
		bounds:    mind.DefaultBounds,
	}
}

func (s *Store) GetGuildConfig(_ context.Context, guildID string) (mind.GuildConfig, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.configs[guildID], nil
}

func (s *Store) SetGuildConfig(_ context.Context, guildID string, cfg mind.GuildConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.configs[guildID] = cfg
	return nil
}

func (s *Store) UpdateEmotion(_ context.Context, guildID string, d mind.Delta) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.emotions[guildID] = mind.Apply(s.emotions[guildID], d, s.bounds)
	return nil
}

func (s *Store) GetEmotions(_ context.Context, guildID string) (mind.Emotions, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.emotions[guildID]
	return e, ok, nil
}

func (s *Store) UpdateUser(_ context.Context, u mind.UserUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	guild := s.people[u.GuildID]
	if guild == nil {
		guild = make(map[string]mind.Person)
		s.people[u.GuildID] = guild
	}
	p := guild[u.UserID]
	p.UserID = u.UserID
	if u.Name != "" {
		p.Name = u.Name
	}
	p.Affinity += u.AffinityDelta
	p.Humor = mind.Apply(p.Humor, u.Humor, s.bounds)
	guild[u.UserID] = p

	if u.Message.Text != "" {
		key := mind.NormalizeText(u.Message.Text)
		s.messages[key] = append(s.messages[key], message{
			Text:      u.Message.Text,
			Author:    u.Message.Author,
			CreatedAt: time.Now().UTC(),
		})
	}
	return nil
}

func (s *Store) FindResponses(_ context.Context, text string) ([]mind.StimulusMatch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	key := mind.NormalizeText(text)
	replies := s.responses[key]
	if len(replies) == 0 {
		return nil, nil
	}
	return []mind.StimulusMatch{{Text: key, Responses: slices.Clone(replies)}}, nil
}

func (s *Store) AssignResponse(_ context.Context, stimulus string, r mind.MessageMeta) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := mind.NormalizeText(stimulus)
	s.responses[key] = append(s.responses[key], r.Text)
	return nil
}

func (s *Store) Quotes(_ context.Context, guildID string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.quotes[guildID]))
	for _, q := range s.quotes[guildID] {
		out = append(out, q.Text)
	}
	return out, nil
}

func (s *Store) CreateQuote(_ context.Context, guildID, text, author string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.quotes[guildID] = append(s.quotes[guildID], quote{Text: text, Author: author})
	return text, nil
}

func (s *Store) Person(_ context.Context, guildID, userID string) (mind.Person, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.people[guildID][userID]
	return p, ok, nil
}

func (s *Store) People(_ context.Context, guildID string) ([]mind.Person, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]mind.Person, 0, len(s.people[guildID]))
	for _, p := range s.people[guildID] {
		out = append(out, p)
	}
	slices.SortFunc(out, func(a, b mind.Person) int { return cmp.Compare(a.UserID, b.UserID) })
	return out, nil
}

func (s *Store) MessageAuthors(_ context.Context, text string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []string
	for _, m := range s.messages[mind.NormalizeText(text)] {
		if m.Author != "" && !slices.Contains(out, m.Author) {
			out = append(out, m.Author)
		}
	}
	return out, nil
}

func (s *Store) Close() error { return nil }
