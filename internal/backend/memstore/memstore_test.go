package memstore

import (
	"context"
	"slices"
	"testing"

	"github.com/keshon/luci/internal/mind"
)

func TestEmotionsAccumulateAndClamp(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := New()
	if _, ok, _ := s.GetEmotions(ctx, "g"); ok {
		t.Fatal("unknown guild reported as known")
	}
	for i := 0; i < 20; i++ {
		_ = s.UpdateEmotion(ctx, "g", mind.Delta{Aptitude: -0.1})
	}
	e, ok, err := s.GetEmotions(ctx, "g")
	if err != nil || !ok || e.Aptitude != -1 {
		t.Fatalf("GetEmotions() = %+v, %v, %v", e, ok, err)
	}
}

func TestUsersAndAuthors(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := New()
	_ = s.UpdateUser(ctx, mind.UserUpdate{GuildID: "g", UserID: "u1", Name: "ana", AffinityDelta: 0.5,
		Message: mind.MessageMeta{Text: "Hello  World", Author: "ana"}})
	_ = s.UpdateUser(ctx, mind.UserUpdate{GuildID: "g", UserID: "u1", AffinityDelta: 0.25})
	_ = s.UpdateUser(ctx, mind.UserUpdate{GuildID: "g", UserID: "u2", Name: "bob", AffinityDelta: -1,
		Message: mind.MessageMeta{Text: "hello world", Author: "bob"}})

	p, ok, _ := s.Person(ctx, "g", "u1")
	if !ok || p.Name != "ana" || p.Affinity != 0.75 {
		t.Fatalf("Person() = %+v, %v", p, ok)
	}
	people, _ := s.People(ctx, "g")
	if len(people) != 2 {
		t.Fatalf("People() = %+v", people)
	}
	authors, _ := s.MessageAuthors(ctx, "HELLO WORLD")
	if !slices.Equal(authors, []string{"ana", "bob"}) {
		t.Fatalf("MessageAuthors() = %v", authors)
	}
}

func TestResponsesAndQuotes(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := New()
	_ = s.AssignResponse(ctx, "How are you?", mind.MessageMeta{Text: "fine"})
	m, _ := s.FindResponses(ctx, "how are  you?")
	if len(m) != 1 || !slices.Equal(m[0].Responses, []string{"fine"}) {
		t.Fatalf("FindResponses() = %+v", m)
	}
	if m, _ := s.FindResponses(ctx, "unknown"); len(m) != 0 {
		t.Fatalf("FindResponses(unknown) = %+v", m)
	}

	if _, err := s.CreateQuote(ctx, "g", "to be", "ana"); err != nil {
		t.Fatal(err)
	}
	q, _ := s.Quotes(ctx, "g")
	if !slices.Equal(q, []string{"to be"}) {
		t.Fatalf("Quotes() = %v", q)
	}
	if q, _ := s.Quotes(ctx, "other"); len(q) != 0 {
		t.Fatalf("quotes leaked across guilds: %v", q)
	}
}

func TestGuildConfig(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := New()
	want := mind.GuildConfig{MainChannel: "c", AllowAutoSendMessages: true}
	_ = s.SetGuildConfig(ctx, "g", want)
	if got, _ := s.GetGuildConfig(ctx, "g"); got != want {
		t.Fatalf("GetGuildConfig() = %+v", got)
	}
}
