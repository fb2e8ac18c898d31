package backend

import (
	"context"
	"net/url"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"

	"github.com/keshon/luci/internal/backend/graphql"
	"github.com/keshon/luci/internal/backend/memstore"
	"github.com/keshon/luci/internal/backend/sqlstore"
)

func TestOpenBySchema(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	opts := Options{Logger: zerolog.Nop()}

	b, err := Open(ctx, "", opts)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := b.(*memstore.Store); !ok {
		t.Fatalf("Open(\"\") = %T", b)
	}

	b, err = Open(ctx, "https://backend.example/graphql", opts)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := b.(*graphql.Client); !ok {
		t.Fatalf("Open(https) = %T", b)
	}
	_ = b.Close()

	path := filepath.Join(t.TempDir(), "luci.db")
	b, err = Open(ctx, "sqlite://"+path, opts)
	if err != nil {
		t.Fatal(err)
	}
	defer b.Close()
	s, ok := b.(*sqlstore.Store)
	if !ok || s.Dialect() != sqlstore.SQLite {
		t.Fatalf("Open(sqlite) = %T", b)
	}
	if _, ok := b.(ConfigWriter); !ok {
		t.Fatal("sqlite backend does not accept guild config")
	}

	if _, err := Open(ctx, "ftp://nope", opts); err == nil {
		t.Fatal("Open(ftp) succeeded")
	}
}

func TestSQLitePath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in, want string
	}{
		{"sqlite:///var/lib/luci.db", "/var/lib/luci.db"},
		{"sqlite://data/luci.db", "data/luci.db"},
		{"sqlite://data/luci.db?mode=rw", "data/luci.db"},
		{"sqlite:luci.db", "luci.db"},
	}
	for _, tt := range tests {
		u, err := url.Parse(tt.in)
		if err != nil {
			t.Fatal(err)
		}
		if got := sqlitePath(tt.in, u); got != tt.want {
			t.Errorf("sqlitePath(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestCollaboratorsWiresEveryContract(t *testing.T) {
	t.Parallel()

	c := Collaborators(memstore.New())
	if c.Configs == nil || c.Emotions == nil || c.EmotionState == nil || c.Users == nil ||
		c.Associations == nil || c.Quotes == nil || c.People == nil || c.Authors == nil {
		t.Fatalf("Collaborators() left a nil field: %+v", c)
	}
	if c.Notifier != nil || c.Classifier != nil {
		t.Fatal("Collaborators() set transport-owned fields")
	}
}
