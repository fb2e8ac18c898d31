// Package sqlstore keeps the backend tables in SQLite or PostgreSQL through
// database/sql.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib" // registers "pgx"
	_ "modernc.org/sqlite"             // registers "sqlite"

	"github.com/keshon/luci/internal/mind"
)

// Dialect is the SQL flavour of the open database.
type Dialect int

const (
	SQLite Dialect = iota
	Postgres
)

func (d Dialect) String() string {
	if d == Postgres {
		return "postgres"
	}
	return "sqlite"
}

type Store struct {
	db      *sql.DB
	dialect Dialect
	bounds  mind.Bounds
}

// OpenSQLite opens (creating if needed) a SQLite database file.
func OpenSQLite(ctx context.Context, path string) (*Store, error) {
	dsn := path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// One writer keeps SQLite from returning SQLITE_BUSY under load.
	db.SetMaxOpenConns(1)
	return open(ctx, db, SQLite)
}

// OpenPostgres connects through the pgx stdlib driver.
func OpenPostgres(ctx context.Context, databaseURL string) (*Store, error) {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)
	return open(ctx, db, Postgres)
}

func open(ctx context.Context, db *sql.DB, d Dialect) (*Store, error) {
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping %s: %w", d, err)
	}
	s := &Store{db: db, dialect: d, bounds: mind.DefaultBounds}
	if err := s.initSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) Dialect() Dialect { return s.dialect }

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) initSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS guild_configs (
			guild_id TEXT PRIMARY KEY,
			server_name TEXT NOT NULL DEFAULT '',
			main_channel TEXT NOT NULL DEFAULT '',
			allow_auto_send BOOLEAN NOT NULL DEFAULT FALSE,
			allow_learning BOOLEAN NOT NULL DEFAULT FALSE,
			filter_offensive BOOLEAN NOT NULL DEFAULT FALSE
		)`,
		`CREATE TABLE IF NOT EXISTS emotions (
			guild_id TEXT PRIMARY KEY,
			pleasantness DOUBLE PRECISION NOT NULL DEFAULT 0,
			attention DOUBLE PRECISION NOT NULL DEFAULT 0,
			sensitivity DOUBLE PRECISION NOT NULL DEFAULT 0,
			aptitude DOUBLE PRECISION NOT NULL DEFAULT 0,
			updated_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS people (
			guild_id TEXT NOT NULL,
			user_id TEXT NOT NULL,
			name TEXT NOT NULL DEFAULT '',
			affinity DOUBLE PRECISION NOT NULL DEFAULT 0,
			pleasantness DOUBLE PRECISION NOT NULL DEFAULT 0,
			attention DOUBLE PRECISION NOT NULL DEFAULT 0,
			sensitivity DOUBLE PRECISION NOT NULL DEFAULT 0,
			aptitude DOUBLE PRECISION NOT NULL DEFAULT 0,
			PRIMARY KEY (guild_id, user_id)
		)`,
		`CREATE TABLE IF NOT EXISTS messages (
			id TEXT PRIMARY KEY,
			text_norm TEXT NOT NULL,
			text TEXT NOT NULL,
			author TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMP NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_messages_text_norm ON messages (text_norm)`,
		`CREATE TABLE IF NOT EXISTS responses (
			id TEXT PRIMARY KEY,
			stimulus_norm TEXT NOT NULL,
			text TEXT NOT NULL,
			author TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMP NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_responses_stimulus ON responses (stimulus_norm, created_at)`,
		`CREATE TABLE IF NOT EXISTS quotes (
			id TEXT PRIMARY KEY,
			guild_id TEXT NOT NULL,
			text TEXT NOT NULL,
			author TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMP NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_quotes_guild ON quotes (guild_id)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("init schema failed on %q: %w", firstLine(stmt), err)
		}
	}
	return nil
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

// rebind turns ? placeholders into $n for PostgreSQL.
func (s *Store) rebind(query string) string {
	if s.dialect != Postgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (s *Store) exec(ctx context.Context, q sqlExecer, query string, args ...any) error {
	_, err := q.ExecContext(ctx, s.rebind(query), args...)
	return err
}

type sqlExecer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *Store) GetGuildConfig(ctx context.Context, guildID string) (mind.GuildConfig, error) {
	var c mind.GuildConfig
	err := s.db.QueryRowContext(ctx, s.rebind(
		`SELECT server_name, main_channel, allow_auto_send, allow_learning, filter_offensive
		 FROM guild_configs WHERE guild_id = ?`), guildID).
		Scan(&c.ServerName, &c.MainChannel, &c.AllowAutoSendMessages, &c.AllowLearningFromChat, &c.FilterOffensiveMessages)
	if errors.Is(err, sql.ErrNoRows) {
		return mind.GuildConfig{}, nil
	}
	if err != nil {
		return mind.GuildConfig{}, fmt.Errorf("get guild config: %w", err)
	}
	return c, nil
}

func (s *Store) SetGuildConfig(ctx context.Context, guildID string, c mind.GuildConfig) error {
	err := s.exec(ctx, s.db,
		`INSERT INTO guild_configs (guild_id, server_name, main_channel, allow_auto_send, allow_learning, filter_offensive)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT (guild_id) DO UPDATE SET
			server_name = excluded.server_name,
			main_channel = excluded.main_channel,
			allow_auto_send = excluded.allow_auto_send,
			allow_learning = excluded.allow_learning,
			filter_offensive = excluded.filter_offensive`,
		guildID, c.ServerName, c.MainChannel, c.AllowAutoSendMessages, c.AllowLearningFromChat, c.FilterOffensiveMessages)
	if err != nil {
		return fmt.Errorf("set guild config: %w", err)
	}
	return nil
}

// inTx runs fn in a transaction, committing when it returns nil.
func (s *Store) inTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

func (s *Store) UpdateEmotion(ctx context.Context, guildID string, d mind.Delta) error {
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		var e mind.Emotions
		err := tx.QueryRowContext(ctx, s.rebind(s.forUpdate(
			`SELECT pleasantness, attention, sensitivity, aptitude FROM emotions WHERE guild_id = ?`)), guildID).
			Scan(&e.Pleasantness, &e.Attention, &e.Sensitivity, &e.Aptitude)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return err
		}
		e = mind.Apply(e, d, s.bounds)
		return s.exec(ctx, tx,
			`INSERT INTO emotions (guild_id, pleasantness, attention, sensitivity, aptitude, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?)
			 ON CONFLICT (guild_id) DO UPDATE SET
				pleasantness = excluded.pleasantness,
				attention = excluded.attention,
				sensitivity = excluded.sensitivity,
				aptitude = excluded.aptitude,
				updated_at = excluded.updated_at`,
			guildID, e.Pleasantness, e.Attention, e.Sensitivity, e.Aptitude, time.Now().UTC())
	})
	if err != nil {
		return fmt.Errorf("update emotion: %w", err)
	}
	return nil
}

// forUpdate locks the selected row on PostgreSQL. SQLite serializes writers
// already.
func (s *Store) forUpdate(query string) string {
	if s.dialect == Postgres {
		return query + " FOR UPDATE"
	}
	return query
}

func (s *Store) GetEmotions(ctx context.Context, guildID string) (mind.Emotions, bool, error) {
	var e mind.Emotions
	err := s.db.QueryRowContext(ctx, s.rebind(
		`SELECT pleasantness, attention, sensitivity, aptitude FROM emotions WHERE guild_id = ?`), guildID).
		Scan(&e.Pleasantness, &e.Attention, &e.Sensitivity, &e.Aptitude)
	if errors.Is(err, sql.ErrNoRows) {
		return mind.Emotions{}, false, nil
	}
	if err != nil {
		return mind.Emotions{}, false, fmt.Errorf("get emotions: %w", err)
	}
	return e, true, nil
}

func (s *Store) UpdateUser(ctx context.Context, u mind.UserUpdate) error {
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		var p mind.Person
		err := tx.QueryRowContext(ctx, s.rebind(s.forUpdate(
			`SELECT name, affinity, pleasantness, attention, sensitivity, aptitude
			 FROM people WHERE guild_id = ? AND user_id = ?`)), u.GuildID, u.UserID).
			Scan(&p.Name, &p.Affinity, &p.Humor.Pleasantness, &p.Humor.Attention, &p.Humor.Sensitivity, &p.Humor.Aptitude)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return err
		}
		if u.Name != "" {
			p.Name = u.Name
		}
		p.Affinity += u.AffinityDelta
		p.Humor = mind.Apply(p.Humor, u.Humor, s.bounds)

		err = s.exec(ctx, tx,
			`INSERT INTO people (guild_id, user_id, name, affinity, pleasantness, attention, sensitivity, aptitude)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			 ON CONFLICT (guild_id, user_id) DO UPDATE SET
				name = excluded.name,
				affinity = excluded.affinity,
				pleasantness = excluded.pleasantness,
				attention = excluded.attention,
				sensitivity = excluded.sensitivity,
				aptitude = excluded.aptitude`,
			u.GuildID, u.UserID, p.Name, p.Affinity,
			p.Humor.Pleasantness, p.Humor.Attention, p.Humor.Sensitivity, p.Humor.Aptitude)
		if err != nil {
			return err
		}

		if strings.TrimSpace(u.Message.Text) == "" {
			return nil
		}
		return s.exec(ctx, tx,
			`INSERT INTO messages (id, text_norm, text, author, created_at) VALUES (?, ?, ?, ?, ?)`,
			uuid.NewString(), mind.NormalizeText(u.Message.Text), u.Message.Text, u.Message.Author, time.Now().UTC())
	})
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	return nil
}

func (s *Store) FindResponses(ctx context.Context, text string) ([]mind.StimulusMatch, error) {
	norm := mind.NormalizeText(text)
	rows, err := s.db.QueryContext(ctx, s.rebind(
		`SELECT text FROM responses WHERE stimulus_norm = ? ORDER BY created_at, id`), norm)
	if err != nil {
		return nil, fmt.Errorf("find responses: %w", err)
	}
	defer rows.Close()

	m := mind.StimulusMatch{Text: norm}
	for rows.Next() {
		var r string
		if err := rows.Scan(&r); err != nil {
			return nil, fmt.Errorf("scan response row: %w", err)
		}
		m.Responses = append(m.Responses, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate response rows: %w", err)
	}
	if len(m.Responses) == 0 {
		return nil, nil
	}
	return []mind.StimulusMatch{m}, nil
}

func (s *Store) AssignResponse(ctx context.Context, stimulus string, r mind.MessageMeta) error {
	err := s.exec(ctx, s.db,
		`INSERT INTO responses (id, stimulus_norm, text, author, created_at) VALUES (?, ?, ?, ?, ?)`,
		uuid.NewString(), mind.NormalizeText(stimulus), r.Text, r.Author, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("assign response: %w", err)
	}
	return nil
}

func (s *Store) Quotes(ctx context.Context, guildID string) ([]string, error) {
	return s.strings(ctx, "list quotes",
		`SELECT text FROM quotes WHERE guild_id = ? ORDER BY created_at, id`, guildID)
}

func (s *Store) CreateQuote(ctx context.Context, guildID, text, author string) (string, error) {
	err := s.exec(ctx, s.db,
		`INSERT INTO quotes (id, guild_id, text, author, created_at) VALUES (?, ?, ?, ?, ?)`,
		uuid.NewString(), guildID, text, author, time.Now().UTC())
	if err != nil {
		return "", fmt.Errorf("create quote: %w", err)
	}
	return text, nil
}

func (s *Store) Person(ctx context.Context, guildID, userID string) (mind.Person, bool, error) {
	p := mind.Person{UserID: userID}
	err := s.db.QueryRowContext(ctx, s.rebind(
		`SELECT name, affinity, pleasantness, attention, sensitivity, aptitude
		 FROM people WHERE guild_id = ? AND user_id = ?`), guildID, userID).
		Scan(&p.Name, &p.Affinity, &p.Humor.Pleasantness, &p.Humor.Attention, &p.Humor.Sensitivity, &p.Humor.Aptitude)
	if errors.Is(err, sql.ErrNoRows) {
		return mind.Person{}, false, nil
	}
	if err != nil {
		return mind.Person{}, false, fmt.Errorf("get person: %w", err)
	}
	return p, true, nil
}

func (s *Store) People(ctx context.Context, guildID string) ([]mind.Person, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(
		`SELECT user_id, name, affinity, pleasantness, attention, sensitivity, aptitude
		 FROM people WHERE guild_id = ? ORDER BY user_id`), guildID)
	if err != nil {
		return nil, fmt.Errorf("list people: %w", err)
	}
	defer rows.Close()

	var out []mind.Person
	for rows.Next() {
		var p mind.Person
		if err := rows.Scan(&p.UserID, &p.Name, &p.Affinity,
			&p.Humor.Pleasantness, &p.Humor.Attention, &p.Humor.Sensitivity, &p.Humor.Aptitude); err != nil {
			return nil, fmt.Errorf("scan person row: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate person rows: %w", err)
	}
	return out, nil
}

func (s *Store) MessageAuthors(ctx context.Context, text string) ([]string, error) {
	return s.strings(ctx, "message authors",
		`SELECT DISTINCT author FROM messages WHERE text_norm = ? AND author <> '' ORDER BY author`,
		mind.NormalizeText(text))
}

func (s *Store) strings(ctx context.Context, op, query string, args ...any) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("%s: scan: %w", op, err)
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: iterate: %w", op, err)
	}
	return out, nil
}
