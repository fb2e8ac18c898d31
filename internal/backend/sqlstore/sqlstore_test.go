package sqlstore

import (
	"context"
	"math"
	"path/filepath"
	"slices"
	"testing"

	"github.com/keshon/luci/internal/mind"
)

func openTemp(t *testing.T) *Store {
	t.Helper()
	s, err := OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "luci.db"))
	if err != nil {
		t.Fatalf("OpenSQLite() error = %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestRebind(t *testing.T) {
	t.Parallel()

	pg := &Store{dialect: Postgres}
	if got := pg.rebind("SELECT a FROM t WHERE x = ? AND y = ?"); got != "SELECT a FROM t WHERE x = $1 AND y = $2" {
		t.Fatalf("rebind() = %q", got)
	}
	lite := &Store{dialect: SQLite}
	if got := lite.rebind("x = ?"); got != "x = ?" {
		t.Fatalf("sqlite rebind() = %q", got)
	}
}

func TestGuildConfigUpsert(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := openTemp(t)
	if got, err := s.GetGuildConfig(ctx, "g"); err != nil || got != (mind.GuildConfig{}) {
		t.Fatalf("GetGuildConfig(missing) = %+v, %v", got, err)
	}
	first := mind.GuildConfig{ServerName: "den", MainChannel: "c1", AllowAutoSendMessages: true}
	second := mind.GuildConfig{ServerName: "den", MainChannel: "c2", AllowLearningFromChat: true}
	for _, c := range []mind.GuildConfig{first, second} {
		if err := s.SetGuildConfig(ctx, "g", c); err != nil {
			t.Fatal(err)
		}
	}
	if got, _ := s.GetGuildConfig(ctx, "g"); got != second {
		t.Fatalf("GetGuildConfig() = %+v, want %+v", got, second)
	}
}

func TestEmotionsClampInStorage(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := openTemp(t)
	if _, ok, err := s.GetEmotions(ctx, "g"); ok || err != nil {
		t.Fatalf("GetEmotions(missing) ok = %v, err = %v", ok, err)
	}
	for range 15 {
		if err := s.UpdateEmotion(ctx, "g", mind.Delta{Pleasantness: 0.1, Aptitude: -0.2}); err != nil {
			t.Fatal(err)
		}
	}
	e, ok, err := s.GetEmotions(ctx, "g")
	if err != nil || !ok {
		t.Fatalf("GetEmotions() ok = %v, err = %v", ok, err)
	}
	if e.Pleasantness != 1 || e.Aptitude != -1 || e.Attention != 0 {
		t.Fatalf("GetEmotions() = %+v", e)
	}
}

func TestUsersMessagesAuthors(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := openTemp(t)
	updates := []mind.UserUpdate{
		{GuildID: "g", UserID: "u1", Name: "ana", AffinityDelta: 0.5,
			Humor: mind.Delta{Pleasantness: 0.2}, Message: mind.MessageMeta{Text: "Hello  World", Author: "ana"}},
		{GuildID: "g", UserID: "u1", AffinityDelta: 0.25},
		{GuildID: "g", UserID: "u2", Name: "bob", AffinityDelta: -1,
			Message: mind.MessageMeta{Text: "hello world", Author: "bob"}},
	}
	for _, u := range updates {
		if err := s.UpdateUser(ctx, u); err != nil {
			t.Fatal(err)
		}
	}

	p, ok, err := s.Person(ctx, "g", "u1")
	if err != nil || !ok {
		t.Fatalf("Person() ok = %v, err = %v", ok, err)
	}
	if p.Name != "ana" || math.Abs(p.Affinity-0.75) > 1e-9 || math.Abs(p.Humor.Pleasantness-0.2) > 1e-9 {
		t.Fatalf("Person() = %+v", p)
	}
	if _, ok, _ := s.Person(ctx, "other", "u1"); ok {
		t.Fatal("person leaked across guilds")
	}

	people, err := s.People(ctx, "g")
	if err != nil || len(people) != 2 || people[0].UserID != "u1" || people[1].UserID != "u2" {
		t.Fatalf("People() = %+v, %v", people, err)
	}

	authors, err := s.MessageAuthors(ctx, "HELLO world")
	if err != nil || !slices.Equal(authors, []string{"ana", "bob"}) {
		t.Fatalf("MessageAuthors() = %v, %v", authors, err)
	}
}

func TestResponsesAndQuotes(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := openTemp(t)
	for _, r := range []string{"fine", "great"} {
		if err := s.AssignResponse(ctx, "How are you?", mind.MessageMeta{Text: r, Author: "ana"}); err != nil {
			t.Fatal(err)
		}
	}
	m, err := s.FindResponses(ctx, "how are   you?")
	if err != nil || len(m) != 1 {
		t.Fatalf("FindResponses() = %+v, %v", m, err)
	}
	got := slices.Clone(m[0].Responses)
	slices.Sort(got)
	if !slices.Equal(got, []string{"fine", "great"}) {
		t.Fatalf("responses = %v", got)
	}
	if m, _ := s.FindResponses(ctx, "never said"); len(m) != 0 {
		t.Fatalf("FindResponses(unknown) = %+v", m)
	}

	if _, err := s.CreateQuote(ctx, "g", "to be or not", "ana"); err != nil {
		t.Fatal(err)
	}
	if q, _ := s.Quotes(ctx, "g"); !slices.Equal(q, []string{"to be or not"}) {
		t.Fatalf("Quotes() = %v", q)
	}
	if q, _ := s.Quotes(ctx, "other"); len(q) != 0 {
		t.Fatalf("quotes leaked across guilds: %v", q)
	}
}

func TestReopenKeepsData(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "luci.db")
	s, err := OpenSQLite(ctx, path)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.UpdateEmotion(ctx, "g", mind.Delta{Attention: 0.5}); err != nil {
		t.Fatal(err)
	}
	_ = s.Close()

	s, err = OpenSQLite(ctx, path)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	if e, ok, _ := s.GetEmotions(ctx, "g"); !ok || e.Attention != 0.5 {
		t.Fatalf("GetEmotions() after reopen = %+v, %v", e, ok)
	}
}
