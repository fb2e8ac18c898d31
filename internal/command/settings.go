package command

import (
	"context"
	"strconv"

	"github.com/bwmarrin/discordgo"
)

type CustomConfigCommand struct{}

func (c *CustomConfigCommand) Name() string        { return "custom_config" }
func (c *CustomConfigCommand) Description() string { return "Show this server's settings" }
func (c *CustomConfigCommand) Usage() string       { return "" }
func (c *CustomConfigCommand) Aliases() []string   { return []string{"cfg", "config"} }
func (c *CustomConfigCommand) Category() string    { return categorySettings }

func (c *CustomConfigCommand) Run(ctx context.Context, cc *Context) error {
	cfg, err := cc.Engine.GuildConfig(ctx, cc.GuildID)
	if err != nil {
		return err
	}
	orNone := func(s string) string {
		if s == "" {
			return "-"
		}
		return s
	}
	return cc.embed(ctx, "Server settings:", &discordgo.MessageEmbed{
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Server", Value: orNone(cfg.ServerName), Inline: true},
			{Name: "Sys Channel", Value: orNone(cfg.MainChannel), Inline: true},
			{Name: "Allow auto send message", Value: strconv.FormatBool(cfg.AllowAutoSendMessages)},
			{Name: "Allow chat learning", Value: strconv.FormatBool(cfg.AllowLearningFromChat)},
			{Name: "Filter offensive messages", Value: strconv.FormatBool(cfg.FilterOffensiveMessages)},
		},
	})
}
