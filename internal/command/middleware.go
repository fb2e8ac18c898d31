package command

import (
	"context"
	"time"
)

type Middleware func(Command) Command

type wrappedCommand struct {
	Command
	wrap func(ctx context.Context, c *Context) error
}

func (w *wrappedCommand) Run(ctx context.Context, c *Context) error {
	return w.wrap(ctx, c)
}

// WithGuildOnly drops calls made outside a guild.
func WithGuildOnly() Middleware {
	return func(cmd Command) Command {
		return &wrappedCommand{
			Command: cmd,
			wrap: func(ctx context.Context, c *Context) error {
				if c.GuildID == "" {
					return nil
				}
				return cmd.Run(ctx, c)
			},
		}
	}
}

// WithCommandLogger logs every call with its duration.
func WithCommandLogger() Middleware {
	return func(cmd Command) Command {
		return &wrappedCommand{
			Command: cmd,
			wrap: func(ctx context.Context, c *Context) error {
				start := time.Now()
				err := cmd.Run(ctx, c)
				c.Log.Info().
					Str("command", cmd.Name()).
					Str("alias", c.Name).
					Str("guild", c.GuildID).
					Str("user", c.AuthorName).
					Dur("took", time.Since(start)).
					Bool("ok", err == nil).
					Msg("command")
				return err
			},
		}
	}
}
