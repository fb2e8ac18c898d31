package mind

import (
	"context"
	"slices"
	"testing"

	"github.com/rs/zerolog"
)

func TestFindCandidatesFlattensDistinct(t *testing.T) {
	t.Parallel()

	backend := &stubAssociations{matches: []StimulusMatch{
		{Text: "hi", Responses: []string{"hello", "hey"}},
		{Text: "hi!", Responses: []string{"hey", "", "yo"}},
		{Text: "hi?"},
	}}
	ri := NewResponseIndex(backend, zerolog.Nop(), nil)

	got := ri.FindCandidates(context.Background(), "hi")
	if want := []string{"hello", "hey", "yo"}; !slices.Equal(got, want) {
		t.Fatalf("FindCandidates() = %v, want %v", got, want)
	}
}

func TestFindCandidatesBackendErrorIsEmpty(t *testing.T) {
	t.Parallel()

	ri := NewResponseIndex(&stubAssociations{err: errBackendDown}, zerolog.Nop(), nil)
	if got := ri.FindCandidates(context.Background(), "hi"); len(got) != 0 {
		t.Fatalf("FindCandidates() = %v, want empty", got)
	}
	var nilIndex *ResponseIndex
	if got := nilIndex.FindCandidates(context.Background(), "hi"); got != nil {
		t.Fatalf("nil index returned %v", got)
	}
}

func TestRecordRoundTrip(t *testing.T) {
	t.Parallel()

	backend := &stubAssociations{}
	ri := NewResponseIndex(backend, zerolog.Nop(), nil)
	ri.Record(context.Background(), "how are you", MessageMeta{Text: "fine", Author: "ana"})
	ri.Record(context.Background(), "", MessageMeta{Text: "ignored"})

	if len(backend.assigned) != 1 {
		t.Fatalf("assigned %d associations, want 1", len(backend.assigned))
	}
	backend.matches = backend.assigned
	if got := ri.FindCandidates(context.Background(), "how are you"); !slices.Equal(got, []string{"fine"}) {
		t.Fatalf("FindCandidates() = %v", got)
	}
}

func TestRecordSwallowsErrors(t *testing.T) {
	t.Parallel()

	ri := NewResponseIndex(&stubAssociations{err: errBackendDown}, zerolog.Nop(), nil)
	ri.Record(context.Background(), "a", MessageMeta{Text: "b"})
}
