// Package command holds the prefix commands members can call in chat.
package command

import (
	"context"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog"

	"github.com/keshon/luci/internal/mind"
)

const embedColor = 0x1E1E1E

type Command interface {
	Name() string
	Description() string
	Usage() string
	Aliases() []string
	Category() string
	Run(ctx context.Context, c *Context) error
}

// Replier sends answers back to the channel a command came from.
type Replier interface {
	Send(ctx context.Context, text string) error
	SendEmbed(ctx context.Context, text string, embed *discordgo.MessageEmbed) error
}

// Mention is a user mentioned in the command message.
type Mention struct {
	ID   string
	Name string
}

// Context is what a command gets at run time.
type Context struct {
	Engine     *mind.Engine
	Registry   *Registry
	Reply      Replier
	Log        zerolog.Logger
	Prefix     string
	GuildID    string
	ChannelID  string
	AuthorID   string
	AuthorName string
	Name       string // invoked name or alias
	Args       []string
	Mentions   []Mention
}

// Text is the argument list joined back into one string.
func (c *Context) Text() string {
	return strings.Join(c.Args, " ")
}

func (c *Context) send(ctx context.Context, text string) error {
	return c.Reply.Send(ctx, text)
}

func (c *Context) embed(ctx context.Context, text string, e *discordgo.MessageEmbed) error {
	if e.Color == 0 {
		e.Color = embedColor
	}
	return c.Reply.SendEmbed(ctx, text, e)
}

// Parse splits "!name arg arg" into its command name and arguments. ok is
// false when content does not start with prefix or names nothing.
func Parse(content, prefix string) (name string, args []string, ok bool) {
	content = strings.TrimSpace(content)
	if prefix == "" || !strings.HasPrefix(content, prefix) {
		return "", nil, false
	}
	fields := strings.Fields(strings.TrimPrefix(content, prefix))
	if len(fields) == 0 {
		return "", nil, false
	}
	return strings.ToLower(fields[0]), fields[1:], true
}
