// Package discord connects the engine and the chat commands to a Discord
// gateway session.
package discord

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog"

	"github.com/keshon/luci/internal/command"
	"github.com/keshon/luci/internal/mind"
)

const eventTimeout = 30 * time.Second

// NewSession prepares a bot session without connecting it.
func NewSession(token string) (*discordgo.Session, error) {
	dg, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	dg.Identify.Intents = discordgo.IntentGuilds |
		discordgo.IntentGuildMessages |
		discordgo.IntentGuildMembers |
		discordgo.IntentMessageContent
	return dg, nil
}

// Bot routes gateway events into the engine and the command registry.
type Bot struct {
	dg       *discordgo.Session
	engine   *mind.Engine
	registry *command.Registry
	prefix   string
	log      zerolog.Logger
	ctx      context.Context
}

func NewBot(dg *discordgo.Session, engine *mind.Engine, registry *command.Registry, prefix string, log zerolog.Logger) *Bot {
	return &Bot{
		dg:       dg,
		engine:   engine,
		registry: registry,
		prefix:   prefix,
		log:      log,
		ctx:      context.Background(),
	}
}

// Run opens the gateway and blocks until ctx ends.
func (b *Bot) Run(ctx context.Context) error {
	b.ctx = ctx
	b.dg.AddHandler(b.onReady)
	b.dg.AddHandler(b.onGuildCreate)
	b.dg.AddHandler(b.onGuildDelete)
	b.dg.AddHandler(b.onMessageCreate)
	b.dg.AddHandler(b.onGuildMemberAdd)

	if err := b.dg.Open(); err != nil {
		return fmt.Errorf("failed to open Discord session: %w", err)
	}
	defer b.dg.Close()

	<-ctx.Done()
	b.log.Info().Msg("shutdown signal received, closing gateway")
	return nil
}

func (b *Bot) eventCtx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(b.ctx, eventTimeout)
}

func (b *Bot) onReady(s *discordgo.Session, r *discordgo.Ready) {
	for _, g := range r.Guilds {
		b.engine.Track(g.ID)
	}
	b.log.Info().Str("user", r.User.Username).Int("guilds", len(r.Guilds)).Msg("discord bot is running")
}

func (b *Bot) onGuildCreate(_ *discordgo.Session, g *discordgo.GuildCreate) {
	b.engine.Track(g.ID)
	b.log.Debug().Str("guild", g.ID).Str("name", g.Name).Msg("guild available")
}

func (b *Bot) onGuildDelete(_ *discordgo.Session, g *discordgo.GuildDelete) {
	// An outage also sends GuildDelete; only a real removal stops tracking.
	if g.Unavailable {
		return
	}
	b.engine.Untrack(g.ID)
	b.log.Info().Str("guild", g.ID).Msg("removed from guild")
}

func (b *Bot) onMessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.Bot || m.GuildID == "" {
		return
	}
	botID := s.State.User.ID
	if m.Author.ID == botID {
		return
	}

	ctx, cancel := b.eventCtx()
	defer cancel()

	r := b.route(ctx, m.Message, botID, &channelReplier{dg: s, channelID: m.ChannelID})
	if r.Empty() {
		return
	}
	text := r.Reply
	if r.MentionAuthor {
		text = m.Author.Mention() + " " + text
	}
	if _, err := s.ChannelMessageSend(m.ChannelID, text, discordgo.WithContext(ctx)); err != nil {
		b.log.Warn().Err(err).Str("channel", m.ChannelID).Msg("failed to send reply")
	}
}

// route runs a command for prefixed messages and hands everything else to
// the engine. Prefixed messages never reach the engine, known command or not.
func (b *Bot) route(ctx context.Context, m *discordgo.Message, botID string, reply command.Replier) mind.Reaction {
	if b.prefix != "" && strings.HasPrefix(strings.TrimSpace(m.Content), b.prefix) {
		name, args, ok := command.Parse(m.Content, b.prefix)
		if !ok {
			return mind.Reaction{}
		}
		c := &command.Context{
			Engine:     b.engine,
			Registry:   b.registry,
			Reply:      reply,
			Log:        b.log,
			Prefix:     b.prefix,
			GuildID:    m.GuildID,
			ChannelID:  m.ChannelID,
			AuthorID:   m.Author.ID,
			AuthorName: m.Author.Username,
			Name:       name,
			Args:       args,
			Mentions:   mentionsOf(m, botID),
		}
		if !b.registry.Dispatch(ctx, c) {
			b.log.Debug().Str("command", name).Str("guild", m.GuildID).Msg("unknown command")
		}
		return mind.Reaction{}
	}
	return b.engine.HandleMessage(ctx, toIncoming(m, botID))
}

func (b *Bot) onGuildMemberAdd(s *discordgo.Session, m *discordgo.GuildMemberAdd) {
	if m.Member == nil || m.User == nil || m.User.Bot {
		return
	}
	ctx, cancel := b.eventCtx()
	defer cancel()

	channelID, text, ok := b.engine.Greeting(ctx, m.GuildID, m.User.Mention())
	if !ok {
		return
	}
	if _, err := s.ChannelMessageSend(channelID, text, discordgo.WithContext(ctx)); err != nil {
		b.log.Warn().Err(err).Str("guild", m.GuildID).Msg("failed to greet member")
	}
}
