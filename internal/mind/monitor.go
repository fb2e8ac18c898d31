package mind

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/keshon/luci/internal/phrases"
	"github.com/keshon/luci/pkg/util"
)

// Monitor watches every tracked guild and complains when one has been quiet
// for longer than the boredom window. Each complaint resets the guild clock
// and costs Luci some aptitude.
type Monitor struct {
	engine   *Engine
	interval time.Duration
	window   time.Duration
	workers  int
	bored    []string
	running  atomic.Bool
	log      zerolog.Logger
}

func NewMonitor(e *Engine) *Monitor {
	return &Monitor{
		engine:   e,
		interval: e.opts.TrackInterval,
		window:   e.opts.BoredomWindow,
		workers:  e.opts.MonitorWorkers,
		bored:    phrases.Bored,
		log:      e.log.With().Str("component", "monitor").Logger(),
	}
}

// Run ticks until ctx is done.
func (m *Monitor) Run(ctx context.Context) error {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	m.log.Info().Dur("interval", m.interval).Dur("window", m.window).Msg("boredom monitor started")
	for {
		select {
		case <-ctx.Done():
			m.log.Info().Msg("boredom monitor stopped")
			return nil
		case <-ticker.C:
			m.TryTick(ctx)
		}
	}
}

// TryTick scans all tracked guilds once. It returns false without scanning
// when another tick is still running.
func (m *Monitor) TryTick(ctx context.Context) ([]NotificationDecision, bool) {
	if !m.running.CompareAndSwap(false, true) {
		m.engine.metrics.TickSkipped()
		m.log.Warn().Msg("previous tick still running, skipping")
		return nil, false
	}
	defer m.running.Store(false)

	start := time.Now()
	decisions := m.tick(ctx)
	m.engine.metrics.TickRan(time.Since(start))

	if ttl := m.engine.opts.IdleTTL; ttl > 0 {
		if n := m.engine.memory.Expire(ttl); n > 0 {
			m.log.Debug().Int("keys", n).Msg("expired idle memory")
		}
	}
	return decisions, true
}

func (m *Monitor) tick(ctx context.Context) []NotificationDecision {
	guilds := m.engine.Tracked()
	now := m.engine.now()
	m.log.Debug().Int("guilds", len(guilds)).Msg("tracking...")

	var (
		mu  sync.Mutex
		out []NotificationDecision
	)
	err := util.ForEach(ctx, guilds, m.workers, func(ctx context.Context, guildID string) error {
		if d, ok := m.check(ctx, guildID, now); ok {
			mu.Lock()
			out = append(out, d)
			mu.Unlock()
		}
		return nil
	})
	if err != nil {
		m.log.Warn().Err(err).Int("decided", len(out)).Msg("tick cancelled")
	}
	return out
}

// check decides for one guild. ok is false when nothing happened.
func (m *Monitor) check(ctx context.Context, guildID string, now time.Time) (NotificationDecision, bool) {
	key := GuildKey(guildID)
	rec := m.engine.memory.Get(key)
	if rec.LastMessageAt.IsZero() {
		return NotificationDecision{}, false
	}
	elapsed := now.Sub(rec.LastMessageAt)
	if elapsed <= m.window {
		return NotificationDecision{}, false
	}

	cfg, err := m.engine.GuildConfig(ctx, guildID)
	if err != nil {
		m.log.Warn().Err(err).Str("guild", guildID).Msg("cant get guild config, skipping")
		return NotificationDecision{}, false
	}

	// A message may have landed since the read above.
	reset := false
	m.engine.memory.Update(key, func(r Record) Record {
		if !r.LastMessageAt.IsZero() && now.Sub(r.LastMessageAt) > m.window {
			r.LastMessageAt = now
			reset = true
		}
		return r
	})
	if !reset {
		return NotificationDecision{}, false
	}

	d := NotificationDecision{
		GuildID:   guildID,
		ChannelID: cfg.MainChannel,
		Penalty:   BoredomPenalty.Aptitude,
		Elapsed:   elapsed,
	}
	msg, err := m.engine.Choose(m.bored)
	if err != nil {
		m.log.Error().Err(err).Str("guild", guildID).Msg("bored pool is empty, nothing to send")
	}
	d.Message = msg
	d.ShouldNotify = cfg.AllowAutoSendMessages && cfg.MainChannel != "" && d.Message != ""

	m.notify(ctx, d)
	m.engine.ApplyDelta(ctx, guildID, BoredomPenalty, "boredom")
	m.log.Info().
		Str("guild", guildID).
		Dur("elapsed", elapsed).
		Bool("notify", d.ShouldNotify).
		Msg("bored, renewed last message time")
	return d, true
}

func (m *Monitor) notify(ctx context.Context, d NotificationDecision) {
	notifier := m.engine.Notifier()
	if !d.ShouldNotify || notifier == nil {
		m.engine.metrics.Notification("suppressed")
		return
	}
	ctx, cancel := m.engine.callCtx(ctx)
	defer cancel()
	if err := notifier.SendToChannel(ctx, d.ChannelID, d.Message); err != nil {
		m.engine.metrics.Notification("failed")
		m.engine.metrics.CollaboratorError("send_to_channel")
		m.log.Warn().Err(err).Str("guild", d.GuildID).Str("channel", d.ChannelID).Msg("notify failed")
		return
	}
	m.engine.metrics.Notification("sent")
}
