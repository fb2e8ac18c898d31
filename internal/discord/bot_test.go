package discord

import (
	"context"
	"math/rand/v2"
	"sync"
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog"

	"github.com/keshon/luci/internal/backend"
	"github.com/keshon/luci/internal/backend/memstore"
	"github.com/keshon/luci/internal/command"
	"github.com/keshon/luci/internal/mind"
	"github.com/keshon/luci/internal/sentiment"
)

type countingReplier struct {
	mu sync.Mutex
	n  int
}

func (r *countingReplier) Send(context.Context, string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.n++
	return nil
}

func (r *countingReplier) SendEmbed(context.Context, string, *discordgo.MessageEmbed) error {
	return r.Send(context.Background(), "")
}

func (r *countingReplier) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.n
}

func newTestBot() *Bot {
	collab := backend.Collaborators(memstore.New())
	collab.Classifier = sentiment.New()
	engine := mind.New(collab, mind.Options{Rand: rand.NewPCG(1, 2)})
	return NewBot(nil, engine, command.Default(), "!", zerolog.Nop())
}

func guildMessage(content string) *discordgo.Message {
	return &discordgo.Message{
		GuildID:   "g",
		ChannelID: "c",
		Content:   content,
		Author:    &discordgo.User{ID: "u1", Username: "ana"},
	}
}

func TestRoutePrefixedMessagesSkipEngine(t *testing.T) {
	t.Parallel()

	tests := []struct {
		content string
		replies int
	}{
		{"!nosuchcommand hi", 0},
		{"!", 0},
		{"  !   ", 0},
		{"!version", 1},
		{"!V", 1},
	}
	for _, tt := range tests {
		b := newTestBot()
		reply := &countingReplier{}
		r := b.route(context.Background(), guildMessage(tt.content), botID, reply)
		if !r.Empty() {
			t.Errorf("%q: reaction = %+v, want none", tt.content, r)
		}
		if got := reply.count(); got != tt.replies {
			t.Errorf("%q: %d replies, want %d", tt.content, got, tt.replies)
		}
		if at := b.engine.Memory().Get(mind.GuildKey("g")).LastMessageAt; !at.IsZero() {
			t.Errorf("%q: guild clock touched at %v", tt.content, at)
		}
		if tracked := b.engine.Tracked(); len(tracked) != 0 {
			t.Errorf("%q: tracked %v", tt.content, tracked)
		}
	}
}

func TestRoutePlainMessageReachesEngine(t *testing.T) {
	t.Parallel()

	b := newTestBot()
	reply := &countingReplier{}
	b.route(context.Background(), guildMessage("what a lovely day"), botID, reply)

	if at := b.engine.Memory().Get(mind.GuildKey("g")).LastMessageAt; at.IsZero() {
		t.Fatal("guild clock not touched")
	}
	if tracked := b.engine.Tracked(); len(tracked) != 1 || tracked[0] != "g" {
		t.Fatalf("tracked = %v, want [g]", tracked)
	}
	if reply.count() != 0 {
		t.Fatal("engine messages must not go through the command replier")
	}
}
