package command

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"slices"
	"strings"
	"sync"
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog"

	"github.com/keshon/luci/internal/backend"
	"github.com/keshon/luci/internal/backend/memstore"
	"github.com/keshon/luci/internal/mind"
	"github.com/keshon/luci/internal/phrases"
	"github.com/keshon/luci/internal/sentiment"
)

type sent struct {
	Text  string
	Embed *discordgo.MessageEmbed
}

type fakeReplier struct {
	mu   sync.Mutex
	sent []sent
}

func (f *fakeReplier) Send(_ context.Context, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sent{Text: text})
	return nil
}

func (f *fakeReplier) SendEmbed(_ context.Context, text string, e *discordgo.MessageEmbed) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sent{Text: text, Embed: e})
	return nil
}

func (f *fakeReplier) last(t *testing.T) sent {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.sent) == 0 {
		t.Fatal("nothing was sent")
	}
	return f.sent[len(f.sent)-1]
}

type fixture struct {
	store    *memstore.Store
	engine   *mind.Engine
	registry *Registry
	reply    *fakeReplier
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memstore.New()
	c := backend.Collaborators(store)
	c.Classifier = sentiment.New()
	e := mind.New(c, mind.Options{Rand: rand.NewPCG(1, 2)})
	return &fixture{store: store, engine: e, registry: Default(), reply: &fakeReplier{}}
}

// run dispatches "!<line>" in guild g1 as user ana.
func (f *fixture) run(t *testing.T, line string, mentions ...Mention) sent {
	t.Helper()
	name, args, ok := Parse("!"+line, "!")
	if !ok {
		t.Fatalf("Parse(%q) failed", line)
	}
	c := &Context{
		Engine:     f.engine,
		Reply:      f.reply,
		Log:        zerolog.Nop(),
		Prefix:     "!",
		GuildID:    "g1",
		ChannelID:  "c1",
		AuthorID:   "u1",
		AuthorName: "ana",
		Name:       name,
		Args:       args,
		Mentions:   mentions,
	}
	if !f.registry.Dispatch(context.Background(), c) {
		t.Fatalf("command %q not found", name)
	}
	return f.reply.last(t)
}

func TestParse(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in       string
		wantName string
		wantArgs []string
		wantOK   bool
	}{
		{"!status", "status", nil, true},
		{"  !Quote  to be   or not ", "quote", []string{"to", "be", "or", "not"}, true},
		{"!", "", nil, false},
		{"status", "", nil, false},
		{"?status", "", nil, false},
	}
	for _, tt := range tests {
		name, args, ok := Parse(tt.in, "!")
		if name != tt.wantName || ok != tt.wantOK || !slices.Equal(args, tt.wantArgs) {
			t.Errorf("Parse(%q) = %q, %v, %v", tt.in, name, args, ok)
		}
	}
}

func TestRegistryAliasesAndOrder(t *testing.T) {
	t.Parallel()

	r := Default()
	for _, alias := range []string{"st", "rq", "q", "lero", "fs", "u", "wt", "cfg", "v"} {
		if _, ok := r.Get(alias); !ok {
			t.Errorf("alias %q not registered", alias)
		}
	}
	all := r.All()
	if len(all) != 11 {
		t.Fatalf("All() has %d commands, want 11", len(all))
	}
	for i := 1; i < len(all); i++ {
		if categoryWeight(all[i-1].Category()) > categoryWeight(all[i].Category()) {
			t.Fatalf("All() not ordered by category: %s before %s", all[i-1].Name(), all[i].Name())
		}
	}
	if r.Dispatch(context.Background(), &Context{Name: "nope"}) {
		t.Fatal("Dispatch reported an unknown command as handled")
	}
}

func TestQuoteRoundTrip(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	if got := f.run(t, "rq"); !strings.Contains(got.Text, "haven't learned") {
		t.Fatalf("random quote with none = %q", got.Text)
	}
	if got := f.run(t, "quote"); !strings.Contains(got.Text, "Example") {
		t.Fatalf("empty quote = %q", got.Text)
	}
	if got := f.run(t, "quote hi @everyone"); !strings.Contains(got.Text, "can't learn") {
		t.Fatalf("mention quote = %q", got.Text)
	}

	got := f.run(t, "q to be or not to be")
	if got.Embed == nil || got.Embed.Fields[0].Value != "to be or not to be" {
		t.Fatalf("save quote reply = %+v", got)
	}
	if got := f.run(t, "random_quote"); got.Text != "to be or not to be" {
		t.Fatalf("random quote = %q", got.Text)
	}
	rec := f.engine.Memory().Get(mind.QuotesKey("g1"))
	if !slices.Equal(rec.Recent, []string{"to be or not to be"}) {
		t.Fatalf("recent quotes = %v", rec.Recent)
	}
}

func TestFriendship(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	if got := f.run(t, "fs"); !strings.Contains(got.Text, "like anyone") {
		t.Fatalf("no friends reply = %q", got.Text)
	}
	for i, aff := range []float64{0.5, -0.3, 2, -1} {
		_ = f.store.UpdateUser(ctx, mind.UserUpdate{GuildID: "g1", UserID: fmt.Sprint(i), Name: fmt.Sprint("m", i), AffinityDelta: aff})
	}

	best := f.run(t, "friendship")
	if best.Embed == nil || len(best.Embed.Fields) != 2 || !strings.HasPrefix(best.Embed.Fields[0].Value, "m2 ") {
		t.Fatalf("best friends = %+v", best.Embed)
	}
	worst := f.run(t, "fs -")
	if worst.Embed == nil || len(worst.Embed.Fields) != 2 || !strings.HasPrefix(worst.Embed.Fields[0].Value, "m3 ") {
		t.Fatalf("worst friends = %+v", worst.Embed)
	}
}

func TestUserStatus(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	if got := f.run(t, "user"); !strings.Contains(got.Text, "Tag them") {
		t.Fatalf("no mention reply = %q", got.Text)
	}
	bob := Mention{ID: "u2", Name: "bob"}
	if got := f.run(t, "user", bob); !strings.Contains(got.Text, "don't think I know") {
		t.Fatalf("unknown member reply = %q", got.Text)
	}
	_ = f.store.UpdateUser(context.Background(), mind.UserUpdate{GuildID: "g1", UserID: "u2", Name: "bob", AffinityDelta: 0.25})
	got := f.run(t, "ust", bob)
	if got.Embed == nil || len(got.Embed.Fields) != 2+len(mind.Axes) || got.Embed.Fields[1].Value != "0.25" {
		t.Fatalf("user status = %+v", got.Embed)
	}
}

func TestSource(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	if got := f.run(t, "source"); !strings.Contains(got.Text, "didn't say") {
		t.Fatalf("empty source = %q", got.Text)
	}
	if got := f.run(t, "wt hello"); !strings.Contains(got.Text, "didn't know") {
		t.Fatalf("unknown source = %q", got.Text)
	}
	for i := range 3 {
		_ = f.store.UpdateUser(ctx, mind.UserUpdate{GuildID: "g1", UserID: fmt.Sprint(i),
			Message: mind.MessageMeta{Text: "hello", Author: fmt.Sprint("a", i)}})
	}
	if got := f.run(t, "src HELLO"); got.Text != "I learned that from a0; a1; a2" {
		t.Fatalf("source = %q", got.Text)
	}
	for i := 3; i < 12; i++ {
		_ = f.store.UpdateUser(ctx, mind.UserUpdate{GuildID: "g1", UserID: fmt.Sprint(i),
			Message: mind.MessageMeta{Text: "hello", Author: fmt.Sprint("a", i)}})
	}
	if got := f.run(t, "src hello"); !strings.Contains(got.Text, "12 people") {
		t.Fatalf("crowded source = %q", got.Text)
	}
}

func TestStatusAndConfig(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	_ = f.store.SetGuildConfig(context.Background(), "g1", mind.GuildConfig{ServerName: "den", MainChannel: "c9"})
	f.engine.ApplyDelta(context.Background(), "g1", mind.Delta{Pleasantness: 0.8}, "test")

	st := f.run(t, "st")
	if st.Embed == nil || len(st.Embed.Fields) != len(mind.Axes) {
		t.Fatalf("status embed = %+v", st.Embed)
	}
	want := mind.Classify(mind.AxisPleasantness, 0.8)
	if !strings.HasSuffix(st.Embed.Fields[0].Value, "status: "+want) {
		t.Fatalf("pleasantness field = %q, want label %q", st.Embed.Fields[0].Value, want)
	}

	cfg := f.run(t, "cfg")
	if cfg.Embed == nil || cfg.Embed.Fields[0].Value != "den" || cfg.Embed.Fields[1].Value != "c9" {
		t.Fatalf("config embed = %+v", cfg.Embed)
	}
}

func TestChatCommands(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	if got := f.run(t, "prosa"); !slices.Contains(phrases.Blah, got.Text) {
		t.Fatalf("prosa = %q", got.Text)
	}
	if got := f.run(t, "listen the day was great and lovely"); got.Text == "" {
		t.Fatal("listen sent nothing")
	}
	if got := f.run(t, "v"); !strings.HasPrefix(got.Text, "Luci ") {
		t.Fatalf("version = %q", got.Text)
	}
	help := f.run(t, "help")
	if help.Embed == nil || !strings.Contains(help.Embed.Description, "!random_quote") {
		t.Fatalf("help = %+v", help.Embed)
	}
	one := f.run(t, "help rq")
	if one.Embed == nil || one.Embed.Title != "!random_quote" {
		t.Fatalf("help rq = %+v", one.Embed)
	}
}

type failingCommand struct{}

func (failingCommand) Name() string        { return "boom" }
func (failingCommand) Description() string { return "" }
func (failingCommand) Usage() string       { return "" }
func (failingCommand) Aliases() []string   { return nil }
func (failingCommand) Category() string    { return "" }
func (failingCommand) Run(context.Context, *Context) error {
	return errors.New("backend down")
}

func TestDispatchApologizesOnFailure(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	r.Register(failingCommand{}, WithGuildOnly())
	reply := &fakeReplier{}

	if !r.Dispatch(context.Background(), &Context{Name: "boom", GuildID: "g", Reply: reply, Log: zerolog.Nop()}) {
		t.Fatal("command not dispatched")
	}
	if got := reply.last(t).Text; got != phrases.Apology {
		t.Fatalf("reply = %q, want apology", got)
	}

	// Outside a guild the command never runs.
	dm := &fakeReplier{}
	r.Dispatch(context.Background(), &Context{Name: "boom", Reply: dm, Log: zerolog.Nop()})
	if len(dm.sent) != 0 {
		t.Fatalf("guild-only command answered in DM: %+v", dm.sent)
	}
}
