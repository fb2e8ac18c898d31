package command

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"

	"github.com/keshon/luci/internal/mind"
	"github.com/keshon/luci/internal/phrases"
)

var axisEmoji = map[mind.Axis]string{
	mind.AxisPleasantness: ":heart_decoration:",
	mind.AxisAttention:    ":yin_yang:",
	mind.AxisSensitivity:  ":place_of_worship:",
	mind.AxisAptitude:     ":atom:",
}

// emotionFields renders one embed field per axis with its hourglass label.
func emotionFields(e mind.Emotions) []*discordgo.MessageEmbedField {
	var fields []*discordgo.MessageEmbedField
	for _, r := range mind.Read(e) {
		fields = append(fields, &discordgo.MessageEmbedField{
			Name:  r.Axis.String(),
			Value: fmt.Sprintf("%s %.2f | status: %s", axisEmoji[r.Axis], r.Value, r.Status),
		})
	}
	return fields
}

type StatusCommand struct{}

func (c *StatusCommand) Name() string        { return "status" }
func (c *StatusCommand) Description() string { return "Show how Luci feels in this server" }
func (c *StatusCommand) Usage() string       { return "" }
func (c *StatusCommand) Aliases() []string   { return []string{"st"} }
func (c *StatusCommand) Category() string    { return categoryChat }

func (c *StatusCommand) Run(ctx context.Context, cc *Context) error {
	state, err := cc.Engine.Status(ctx, cc.GuildID)
	if err != nil {
		// Local state is still meaningful.
		cc.Log.Warn().Err(err).Str("guild", cc.GuildID).Msg("status from local state")
	}
	return cc.embed(ctx, "", &discordgo.MessageEmbed{Fields: emotionFields(state)})
}

type ListenCommand struct{}

func (c *ListenCommand) Name() string { return "listen" }
func (c *ListenCommand) Description() string {
	return "Tell Luci something and get an answer matching its tone"
}
func (c *ListenCommand) Usage() string     { return "<text>" }
func (c *ListenCommand) Aliases() []string { return []string{"lst", "ls"} }
func (c *ListenCommand) Category() string  { return categoryChat }

func (c *ListenCommand) Run(ctx context.Context, cc *Context) error {
	return cc.send(ctx, cc.Engine.Listen(cc.Text()))
}

type ProsaCommand struct{}

func (c *ProsaCommand) Name() string        { return "prosa" }
func (c *ProsaCommand) Description() string { return "A random philosophical thought" }
func (c *ProsaCommand) Usage() string       { return "" }
func (c *ProsaCommand) Aliases() []string   { return []string{"lero", "lr", "bl", "blah", "ps"} }
func (c *ProsaCommand) Category() string    { return categoryChat }

func (c *ProsaCommand) Run(ctx context.Context, cc *Context) error {
	line, err := cc.Engine.Phrase(cc.GuildID, "blah", phrases.Blah)
	if err != nil {
		return err
	}
	return cc.send(ctx, line)
}
