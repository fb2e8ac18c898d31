// Package backend opens the canonical record store selected by BACKEND_URL.
package backend

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/keshon/luci/internal/backend/graphql"
	"github.com/keshon/luci/internal/backend/memstore"
	"github.com/keshon/luci/internal/backend/sqlstore"
	"github.com/keshon/luci/internal/mind"
)

// Backend is every collaborator contract the engine reads and writes.
type Backend interface {
	mind.ConfigSource
	mind.EmotionSink
	mind.EmotionSource
	mind.UserSink
	mind.AssociationBackend
	mind.QuoteBook
	mind.PeopleBook
	mind.AuthorIndex
	Close() error
}

// ConfigWriter is implemented by backends that own guild settings locally.
type ConfigWriter interface {
	SetGuildConfig(ctx context.Context, guildID string, cfg mind.GuildConfig) error
}

type Options struct {
	Timeout time.Duration
	RPS     float64
	Logger  zerolog.Logger
}

// Open picks the implementation from the URL scheme:
//
//	""                    in-process maps
//	http://, https://     GraphQL endpoint
//	sqlite://path         SQLite file
//	postgres://...        PostgreSQL
func Open(ctx context.Context, rawURL string, opts Options) (Backend, error) {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		opts.Logger.Info().Str("kind", "memory").Msg("backend ready")
		return memstore.New(), nil
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse backend url: %w", err)
	}

	switch u.Scheme {
	case "http", "https":
		opts.Logger.Info().Str("kind", "graphql").Str("host", u.Host).Msg("backend ready")
		return graphql.New(rawURL, graphql.Options{
			Timeout: opts.Timeout,
			RPS:     opts.RPS,
			Logger:  opts.Logger,
		}), nil
	case "sqlite", "file":
		path := sqlitePath(rawURL, u)
		if path == "" {
			return nil, fmt.Errorf("sqlite backend url %q has no path", rawURL)
		}
		s, err := sqlstore.OpenSQLite(ctx, path)
		if err != nil {
			return nil, err
		}
		opts.Logger.Info().Str("kind", "sqlite").Str("path", path).Msg("backend ready")
		return s, nil
	case "postgres", "postgresql":
		s, err := sqlstore.OpenPostgres(ctx, rawURL)
		if err != nil {
			return nil, err
		}
		opts.Logger.Info().Str("kind", "postgres").Str("host", u.Host).Msg("backend ready")
		return s, nil
	}
	return nil, fmt.Errorf("unsupported backend scheme %q", u.Scheme)
}

// sqlitePath accepts sqlite:///abs/path, sqlite://rel/path and sqlite:rel.
func sqlitePath(raw string, u *url.URL) string {
	if u.Opaque != "" {
		return u.Opaque
	}
	rest := strings.TrimPrefix(raw, u.Scheme+"://")
	if i := strings.IndexByte(rest, '?'); i >= 0 {
		rest = rest[:i]
	}
	return rest
}

// Collaborators wires a backend into the engine's dependency set. Notifier
// and Classifier are left for the caller.
func Collaborators(b Backend) mind.Collaborators {
	return mind.Collaborators{
		Configs:      b,
		Emotions:     b,
		EmotionState: b,
		Users:        b,
		Associations: b,
		Quotes:       b,
		People:       b,
		Authors:      b,
	}
}
