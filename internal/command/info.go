package command

import (
	"context"
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/keshon/luci/internal/version"
)

type VersionCommand struct{}

func (c *VersionCommand) Name() string        { return "version" }
func (c *VersionCommand) Description() string { return "Show the running build" }
func (c *VersionCommand) Usage() string       { return "" }
func (c *VersionCommand) Aliases() []string   { return []string{"v"} }
func (c *VersionCommand) Category() string    { return categoryInformation }

func (c *VersionCommand) Run(ctx context.Context, cc *Context) error {
	line := fmt.Sprintf("%s %s", version.AppName, version.String())
	if version.BuildDate != "" {
		line += " (" + version.BuildDate + ")"
	}
	return cc.send(ctx, line)
}

type HelpCommand struct{}

func (c *HelpCommand) Name() string        { return "help" }
func (c *HelpCommand) Description() string { return "List commands, or explain one" }
func (c *HelpCommand) Usage() string       { return "[command]" }
func (c *HelpCommand) Aliases() []string   { return []string{"h"} }
func (c *HelpCommand) Category() string    { return categoryInformation }

func (c *HelpCommand) Run(ctx context.Context, cc *Context) error {
	if cc.Registry == nil {
		return fmt.Errorf("help: no registry in context")
	}
	if len(cc.Args) > 0 {
		name := strings.ToLower(strings.TrimPrefix(cc.Args[0], cc.Prefix))
		cmd, ok := cc.Registry.Get(name)
		if !ok {
			return cc.send(ctx, fmt.Sprintf("I don't know any `%s`.", name))
		}
		return cc.embed(ctx, "", &discordgo.MessageEmbed{
			Title:       cc.Prefix + cmd.Name(),
			Description: describe(cc.Prefix, cmd),
		})
	}

	var (
		b       strings.Builder
		current string
	)
	for _, cmd := range cc.Registry.All() {
		if cmd.Category() != current {
			current = cmd.Category()
			if b.Len() > 0 {
				b.WriteString("\n")
			}
			fmt.Fprintf(&b, "**%s**\n", current)
		}
		fmt.Fprintf(&b, "`%s%s` %s\n", cc.Prefix, cmd.Name(), cmd.Description())
	}
	return cc.embed(ctx, "", &discordgo.MessageEmbed{
		Title:       version.AppName + " Help",
		Description: b.String(),
	})
}

func describe(prefix string, cmd Command) string {
	var b strings.Builder
	b.WriteString(cmd.Description())
	usage := prefix + cmd.Name()
	if u := cmd.Usage(); u != "" {
		usage += " " + u
	}
	fmt.Fprintf(&b, "\n\nUsage: `%s`", usage)
	if aliases := cmd.Aliases(); len(aliases) > 0 {
		fmt.Fprintf(&b, "\nAliases: %s", strings.Join(aliases, ", "))
	}
	return b.String()
}
