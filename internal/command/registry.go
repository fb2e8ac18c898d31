package command

import (
	"cmp"
	"context"
	"slices"
	"sync"

	"github.com/keshon/luci/internal/phrases"
)

type Registry struct {
	mu       sync.RWMutex
	commands map[string]Command // name and aliases
}

func NewRegistry() *Registry {
	return &Registry{commands: make(map[string]Command)}
}

// Register adds cmd under its name and aliases, wrapped by middlewares in
// order. Later registrations win on name clashes.
func (r *Registry) Register(cmd Command, middlewares ...Middleware) {
	for _, mw := range middlewares {
		cmd = mw(cmd)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.commands[cmd.Name()] = cmd
	for _, a := range cmd.Aliases() {
		r.commands[a] = cmd
	}
}

func (r *Registry) Get(name string) (Command, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cmd, ok := r.commands[name]
	return cmd, ok
}

// All lists every command once, sorted by category weight then name.
func (r *Registry) All() []Command {
	r.mu.RLock()
	seen := make(map[string]bool, len(r.commands))
	var list []Command
	for _, cmd := range r.commands {
		if seen[cmd.Name()] {
			continue
		}
		seen[cmd.Name()] = true
		list = append(list, cmd)
	}
	r.mu.RUnlock()

	slices.SortFunc(list, func(a, b Command) int {
		if c := cmp.Compare(categoryWeight(a.Category()), categoryWeight(b.Category())); c != 0 {
			return c
		}
		return cmp.Compare(a.Name(), b.Name())
	})
	return list
}

// Default returns a registry with every chat command, guarded to guilds and
// logged.
func Default() *Registry {
	r := NewRegistry()
	for _, cmd := range []Command{
		&VersionCommand{},
		&HelpCommand{},
		&StatusCommand{},
		&ListenCommand{},
		&ProsaCommand{},
		&UserStatusCommand{},
		&FriendshipCommand{},
		&RandomQuoteCommand{},
		&QuoteCommand{},
		&SourceCommand{},
		&CustomConfigCommand{},
	} {
		r.Register(cmd, WithGuildOnly(), WithCommandLogger())
	}
	return r
}

// Dispatch runs the command named in c. It reports false when no such
// command exists. A failing command is logged and answered with an apology.
func (r *Registry) Dispatch(ctx context.Context, c *Context) bool {
	cmd, ok := r.Get(c.Name)
	if !ok {
		return false
	}
	if c.Registry == nil {
		c.Registry = r
	}
	if err := cmd.Run(ctx, c); err != nil {
		c.Log.Error().Err(err).Str("command", cmd.Name()).Str("guild", c.GuildID).Msg("command failed")
		if serr := c.send(ctx, phrases.Apology); serr != nil {
			c.Log.Warn().Err(serr).Msg("failed to send apology")
		}
	}
	return true
}
