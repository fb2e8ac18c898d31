package mind

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/keshon/luci/internal/observability"
	"github.com/keshon/luci/internal/phrases"
)

var (
	ErrUnavailable  = errors.New("mind: backend not configured")
	ErrNoQuotes     = errors.New("mind: no quotes learned in this guild")
	ErrEmptyQuote   = errors.New("mind: empty quote")
	ErrQuoteMention = errors.New("mind: quotes cannot mention anyone")
)

// Options tune an Engine. Zero fields take the DefaultOptions value.
type Options struct {
	Bounds         Bounds
	Humor          HumorCoefficients
	RecentCap      int
	BackendTimeout time.Duration
	TrackInterval  time.Duration
	BoredomWindow  time.Duration
	MonitorWorkers int
	IdleTTL        time.Duration // 0 keeps memory forever
	Logger         *zerolog.Logger
	Metrics        *observability.Metrics
	Rand           rand.Source
	Now            func() time.Time
}

func DefaultOptions() Options {
	return Options{
		Bounds:         DefaultBounds,
		Humor:          DefaultHumorCoefficients,
		RecentCap:      DefaultRecentCap,
		BackendTimeout: 5 * time.Second,
		TrackInterval:  5 * time.Minute,
		BoredomWindow:  8 * time.Hour,
		MonitorWorkers: 4,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if !o.Bounds.valid() || o.Bounds == (Bounds{}) {
		o.Bounds = d.Bounds
	}
	if o.Humor == (HumorCoefficients{}) {
		o.Humor = d.Humor
	}
	if o.RecentCap <= 0 {
		o.RecentCap = d.RecentCap
	}
	if o.BackendTimeout <= 0 {
		o.BackendTimeout = d.BackendTimeout
	}
	if o.TrackInterval <= 0 {
		o.TrackInterval = d.TrackInterval
	}
	if o.BoredomWindow <= 0 {
		o.BoredomWindow = d.BoredomWindow
	}
	if o.MonitorWorkers <= 0 {
		o.MonitorWorkers = d.MonitorWorkers
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

// Engine is the emotion and memory core shared by every guild. It owns the
// in-memory state and talks to the backend through Collaborators.
type Engine struct {
	opts      Options
	c         Collaborators
	memory    *MemoryStore
	emotions  *EmotionBook
	picker    *Picker
	responses *ResponseIndex
	log       zerolog.Logger
	metrics   *observability.Metrics

	mu      sync.RWMutex
	tracked map[string]struct{}
}

func New(c Collaborators, opts Options) *Engine {
	opts = opts.withDefaults()
	logger := zerolog.Nop()
	if opts.Logger != nil {
		logger = *opts.Logger
	}
	logger = logger.With().Str("component", "mind").Logger()

	memory := NewMemoryStore()
	memory.now = opts.Now

	return &Engine{
		opts:      opts,
		c:         c,
		memory:    memory,
		emotions:  NewEmotionBook(opts.Bounds),
		picker:    NewPicker(opts.Rand),
		responses: NewResponseIndex(c.Associations, logger, opts.Metrics),
		log:       logger,
		metrics:   opts.Metrics,
		tracked:   make(map[string]struct{}),
	}
}

func (e *Engine) Memory() *MemoryStore   { return e.memory }
func (e *Engine) Emotions() *EmotionBook { return e.emotions }
func (e *Engine) Notifier() Notifier     { return e.c.Notifier }
func (e *Engine) now() time.Time         { return e.opts.Now() }

// Track adds a guild to the boredom scan.
func (e *Engine) Track(guildID string) {
	if guildID == "" {
		return
	}
	e.mu.Lock()
	_, known := e.tracked[guildID]
	e.tracked[guildID] = struct{}{}
	n := len(e.tracked)
	e.mu.Unlock()
	if !known {
		e.metrics.SetTrackedGuilds(n)
		e.log.Debug().Str("guild", guildID).Msg("tracking guild")
	}
}

func (e *Engine) Untrack(guildID string) {
	e.mu.Lock()
	delete(e.tracked, guildID)
	n := len(e.tracked)
	e.mu.Unlock()
	e.metrics.SetTrackedGuilds(n)
}

// Tracked returns the tracked guild ids, sorted.
func (e *Engine) Tracked() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	ids := make([]string, 0, len(e.tracked))
	for id := range e.tracked {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

func (e *Engine) callCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, e.opts.BackendTimeout)
}

// GuildConfig fetches the guild settings from the backend.
func (e *Engine) GuildConfig(ctx context.Context, guildID string) (GuildConfig, error) {
	if e.c.Configs == nil {
		return GuildConfig{}, ErrUnavailable
	}
	ctx, cancel := e.callCtx(ctx)
	defer cancel()
	cfg, err := e.c.Configs.GetGuildConfig(ctx, guildID)
	if err != nil {
		e.metrics.CollaboratorError("get_guild_config")
		return GuildConfig{}, fmt.Errorf("get guild config: %w", err)
	}
	return cfg, nil
}

// ApplyDelta mutates the guild state and writes the delta through to the
// backend. A failed write is logged; the local state keeps the change.
func (e *Engine) ApplyDelta(ctx context.Context, guildID string, d Delta, cause string) Emotions {
	state := e.emotions.Mutate(guildID, d)
	e.metrics.EmotionUpdated(cause)
	if e.c.Emotions == nil {
		return state
	}
	ctx, cancel := e.callCtx(ctx)
	defer cancel()
	if err := e.c.Emotions.UpdateEmotion(ctx, guildID, d); err != nil {
		e.metrics.CollaboratorError("update_emotion")
		e.log.Warn().Err(err).Str("guild", guildID).Str("cause", cause).Msg("update emotion failed")
	}
	return state
}

// Status returns the guild state, refreshed from the backend when one is
// configured. On a backend failure the local state is returned with the error.
func (e *Engine) Status(ctx context.Context, guildID string) (Emotions, error) {
	local, _ := e.emotions.Get(guildID)
	if e.c.EmotionState == nil {
		return local, nil
	}
	cctx, cancel := e.callCtx(ctx)
	defer cancel()
	remote, ok, err := e.c.EmotionState.GetEmotions(cctx, guildID)
	if err != nil {
		e.metrics.CollaboratorError("get_emotions")
		return local, fmt.Errorf("get emotions: %w", err)
	}
	if !ok {
		return local, nil
	}
	return e.emotions.Set(guildID, remote), nil
}

// PickFresh picks from candidates avoiding the recent entries under key.
func (e *Engine) PickFresh(key string, candidates []string) (string, error) {
	return e.picker.PickFresh(e.memory, key, candidates, e.opts.RecentCap)
}

// Phrase picks a line of the named pool for a guild without repeating the
// last few.
func (e *Engine) Phrase(guildID, pool string, lines []string) (string, error) {
	return e.PickFresh(PhrasesKey(guildID, pool), lines)
}

// Choose is a plain uniform pick.
func (e *Engine) Choose(lines []string) (string, error) {
	if len(lines) == 0 {
		return "", ErrNoCandidates
	}
	return lines[e.picker.intN(len(lines))], nil
}

// Chance reports true with probability 1/n.
func (e *Engine) Chance(n int) bool {
	if n <= 1 {
		return true
	}
	return e.picker.intN(n) == 0
}

// RandomQuote tells a quote learned in the guild, avoiding the last ones told.
func (e *Engine) RandomQuote(ctx context.Context, guildID string) (string, error) {
	if e.c.Quotes == nil {
		return "", ErrUnavailable
	}
	cctx, cancel := e.callCtx(ctx)
	quotes, err := e.c.Quotes.Quotes(cctx, guildID)
	cancel()
	if err != nil {
		e.metrics.CollaboratorError("quotes")
		return "", fmt.Errorf("list quotes: %w", err)
	}
	if len(quotes) == 0 {
		return "", ErrNoQuotes
	}
	return e.PickFresh(QuotesKey(guildID), quotes)
}

// SaveQuote teaches the guild a new quote and returns it as stored.
func (e *Engine) SaveQuote(ctx context.Context, guildID, text, author string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", ErrEmptyQuote
	}
	if strings.Contains(text, "@") {
		return "", ErrQuoteMention
	}
	if e.c.Quotes == nil {
		return "", ErrUnavailable
	}
	ctx, cancel := e.callCtx(ctx)
	defer cancel()
	saved, err := e.c.Quotes.CreateQuote(ctx, guildID, text, author)
	if err != nil {
		e.metrics.CollaboratorError("create_quote")
		return "", fmt.Errorf("create quote: %w", err)
	}
	return saved, nil
}

// Person looks up what the backend knows about a member.
func (e *Engine) Person(ctx context.Context, guildID, userID string) (Person, bool, error) {
	if e.c.People == nil {
		return Person{}, false, ErrUnavailable
	}
	ctx, cancel := e.callCtx(ctx)
	defer cancel()
	p, ok, err := e.c.People.Person(ctx, guildID, userID)
	if err != nil {
		e.metrics.CollaboratorError("person")
		return Person{}, false, fmt.Errorf("get person: %w", err)
	}
	return p, ok, nil
}

// FriendsLimit caps the friendship ranking.
const FriendsLimit = 10

// Friends ranks the members with non-negative affinity, best first. With
// worst set it ranks the members with negative affinity, worst first.
func (e *Engine) Friends(ctx context.Context, guildID string, worst bool) ([]Person, error) {
	if e.c.People == nil {
		return nil, ErrUnavailable
	}
	cctx, cancel := e.callCtx(ctx)
	people, err := e.c.People.People(cctx, guildID)
	cancel()
	if err != nil {
		e.metrics.CollaboratorError("people")
		return nil, fmt.Errorf("list people: %w", err)
	}
	return rankFriends(people, worst), nil
}

func rankFriends(people []Person, worst bool) []Person {
	out := make([]Person, 0, len(people))
	for _, p := range people {
		if (p.Affinity < 0) == worst {
			out = append(out, p)
		}
	}
	slices.SortStableFunc(out, func(a, b Person) int {
		if worst {
			return cmp.Compare(a.Affinity, b.Affinity)
		}
		return cmp.Compare(b.Affinity, a.Affinity)
	})
	if len(out) > FriendsLimit {
		out = out[:FriendsLimit]
	}
	return out
}

// MessageAuthors returns the distinct names that taught text.
func (e *Engine) MessageAuthors(ctx context.Context, text string) ([]string, error) {
	if e.c.Authors == nil {
		return nil, ErrUnavailable
	}
	ctx, cancel := e.callCtx(ctx)
	defer cancel()
	authors, err := e.c.Authors.MessageAuthors(ctx, text)
	if err != nil {
		e.metrics.CollaboratorError("message_authors")
		return nil, fmt.Errorf("message authors: %w", err)
	}
	seen := make(map[string]struct{}, len(authors))
	out := authors[:0:0]
	for _, a := range authors {
		if a == "" {
			continue
		}
		if _, dup := seen[a]; dup {
			continue
		}
		seen[a] = struct{}{}
		out = append(out, a)
	}
	return out, nil
}

func (e *Engine) signals(text string) (float64, bool) {
	if e.c.Classifier == nil {
		return 0, false
	}
	return e.c.Classifier.Sentiment(text), e.c.Classifier.IsOffensive(text)
}

// Listen answers a told story by its sentiment.
func (e *Engine) Listen(text string) string {
	s, _ := e.signals(text)
	switch {
	case s > 0:
		return phrases.Compose(phrases.PositiveAnswers, e.picker.intN)
	case s < 0:
		return phrases.Compose(phrases.NegativeAnswers, e.picker.intN)
	default:
		line, _ := e.Choose(phrases.Indifference)
		return line
	}
}

// Greeting returns the welcome line for a new member and the channel it
// belongs in. ok is false when the guild has no main channel or its config
// cannot be read.
func (e *Engine) Greeting(ctx context.Context, guildID, memberMention string) (channelID, text string, ok bool) {
	cfg, err := e.GuildConfig(ctx, guildID)
	if err != nil {
		e.log.Warn().Err(err).Str("guild", guildID).Msg("greeting skipped")
		return "", "", false
	}
	if cfg.MainChannel == "" {
		return "", "", false
	}
	hello, err := e.Phrase(guildID, "greetings", phrases.Greetings)
	if err != nil {
		return "", "", false
	}
	text = hello + ", welcome"
	if memberMention != "" {
		text = hello + " " + memberMention + ", welcome"
	}
	return cfg.MainChannel, text + ".", true
}

// IncomingMessage is a chat message as seen by the engine. Content has the
// bot mentions already stripped.
type IncomingMessage struct {
	GuildID     string
	ChannelID   string
	AuthorID    string
	AuthorName  string
	Content     string
	CreatedAt   time.Time
	ReplyTo     string // text of the message this one answers, if any
	MentionsBot bool
}

// Reaction is what the bot should say back, if anything.
type Reaction struct {
	Reply         string
	MentionAuthor bool
}

func (r Reaction) Empty() bool { return r.Reply == "" }

// OffendedOdds is the 1-in-n chance of answering an offensive message.
const OffendedOdds = 4

// HandleMessage runs the per-message pipeline: remember the time, update the
// mood, learn from the message and decide on a reply. It never fails; every
// collaborator problem degrades to less behavior.
func (e *Engine) HandleMessage(ctx context.Context, msg IncomingMessage) Reaction {
	if msg.GuildID == "" {
		return Reaction{}
	}
	e.metrics.MessageHandled()
	e.Track(msg.GuildID)

	at := msg.CreatedAt
	if at.IsZero() {
		at = e.now()
	}
	e.memory.Touch(GuildKey(msg.GuildID), at)

	cfg, err := e.GuildConfig(ctx, msg.GuildID)
	if err != nil && !errors.Is(err, ErrUnavailable) {
		e.log.Warn().Err(err).Str("guild", msg.GuildID).Msg("config unavailable, learning disabled")
	}

	sentiment, offensive := e.signals(msg.Content)
	humor := e.opts.Humor.ComputeDelta(sentiment, offensive)
	if !humor.IsZero() {
		e.ApplyDelta(ctx, msg.GuildID, humor, "message")
	}

	learn := cfg.AllowLearningFromChat && !(offensive && cfg.FilterOffensiveMessages)
	meta := MessageMeta{Text: msg.Content, Author: msg.AuthorName}
	e.updateUser(ctx, msg, sentiment, offensive, humor, learn, meta)

	if learn && msg.ReplyTo != "" {
		ctx, cancel := e.callCtx(ctx)
		e.responses.Record(ctx, msg.ReplyTo, meta)
		cancel()
	}

	if msg.MentionsBot {
		return Reaction{Reply: e.mentionReply(ctx, msg)}
	}

	if offensive && e.Chance(OffendedOdds) {
		line, err := e.Phrase(msg.GuildID, "offended", phrases.Offended)
		if err == nil {
			return Reaction{Reply: line, MentionAuthor: true}
		}
	}
	return Reaction{}
}

func (e *Engine) updateUser(ctx context.Context, msg IncomingMessage, sentiment float64, offensive bool, humor Delta, learn bool, meta MessageMeta) {
	if e.c.Users == nil || msg.AuthorID == "" {
		return
	}
	u := UserUpdate{
		GuildID:       msg.GuildID,
		UserID:        msg.AuthorID,
		Name:          msg.AuthorName,
		AffinityDelta: e.opts.Humor.AffinityDelta(sentiment, offensive),
		Humor:         humor,
	}
	if learn {
		u.Message = meta
	}
	ctx, cancel := e.callCtx(ctx)
	defer cancel()
	if err := e.c.Users.UpdateUser(ctx, u); err != nil {
		e.metrics.CollaboratorError("update_user")
		e.log.Warn().Err(err).Str("guild", msg.GuildID).Str("user", msg.AuthorID).Msg("update user failed")
	}
}

func (e *Engine) mentionReply(ctx context.Context, msg IncomingMessage) string {
	cctx, cancel := e.callCtx(ctx)
	candidates := e.responses.FindCandidates(cctx, msg.Content)
	cancel()
	if reply, err := e.Choose(candidates); err == nil {
		return reply
	}
	reply, err := e.Phrase(msg.GuildID, "naive", phrases.NaivePool(msg.Content))
	if err != nil {
		return ""
	}
	return reply
}
