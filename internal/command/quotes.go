package command

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/keshon/luci/internal/mind"
)

// sourceListLimit is the author count above which source only reports a
// number.
const sourceListLimit = 9

type RandomQuoteCommand struct{}

func (c *RandomQuoteCommand) Name() string        { return "random_quote" }
func (c *RandomQuoteCommand) Description() string { return "Tell a quote learned in this server" }
func (c *RandomQuoteCommand) Usage() string       { return "" }
func (c *RandomQuoteCommand) Aliases() []string   { return []string{"rquote", "rq"} }
func (c *RandomQuoteCommand) Category() string    { return categoryMemory }

func (c *RandomQuoteCommand) Run(ctx context.Context, cc *Context) error {
	q, err := cc.Engine.RandomQuote(ctx, cc.GuildID)
	switch {
	case errors.Is(err, mind.ErrNoQuotes):
		return cc.send(ctx, "I haven't learned any quotes in this server yet.")
	case err != nil:
		return err
	}
	return cc.send(ctx, q)
}

type QuoteCommand struct{}

func (c *QuoteCommand) Name() string        { return "quote" }
func (c *QuoteCommand) Description() string { return "Teach Luci a new quote" }
func (c *QuoteCommand) Usage() string       { return "<text>" }
func (c *QuoteCommand) Aliases() []string   { return []string{"q", "sq", "save_quote"} }
func (c *QuoteCommand) Category() string    { return categoryMemory }

func (c *QuoteCommand) Run(ctx context.Context, cc *Context) error {
	saved, err := cc.Engine.SaveQuote(ctx, cc.GuildID, cc.Text(), cc.AuthorName)
	switch {
	case errors.Is(err, mind.ErrEmptyQuote):
		return cc.send(ctx, fmt.Sprintf("Please give me a message.\nExample:\n```%squote my name is bond, vagabond```", cc.Prefix))
	case errors.Is(err, mind.ErrQuoteMention):
		return cc.send(ctx, "I can't learn that kind of thing. I'm telling my dad.")
	case err != nil:
		return err
	}
	return cc.embed(ctx, "Ok:", &discordgo.MessageEmbed{
		Fields: []*discordgo.MessageEmbedField{{Name: "Got it:", Value: saved, Inline: true}},
	})
}

type SourceCommand struct{}

func (c *SourceCommand) Name() string        { return "source" }
func (c *SourceCommand) Description() string { return "Who taught Luci a message" }
func (c *SourceCommand) Usage() string       { return "<text>" }
func (c *SourceCommand) Aliases() []string   { return []string{"wt", "src"} }
func (c *SourceCommand) Category() string    { return categoryMemory }

func (c *SourceCommand) Run(ctx context.Context, cc *Context) error {
	text := strings.TrimSpace(cc.Text())
	if text == "" {
		return cc.send(ctx, "Uh, you didn't say anything...")
	}
	authors, err := cc.Engine.MessageAuthors(ctx, text)
	if err != nil {
		return err
	}
	switch n := len(authors); {
	case n == 0:
		return cc.send(ctx, "I didn't know that one, until now...")
	case n > sourceListLimit:
		return cc.send(ctx, fmt.Sprintf("I've seen like %d people say that :rolling_eyes:", n))
	}
	return cc.send(ctx, "I learned that from "+strings.Join(authors, "; "))
}
