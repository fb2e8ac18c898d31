package command

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"
)

type UserStatusCommand struct{}

func (c *UserStatusCommand) Name() string        { return "user_status" }
func (c *UserStatusCommand) Description() string { return "What Luci thinks of a member" }
func (c *UserStatusCommand) Usage() string       { return "@member" }
func (c *UserStatusCommand) Aliases() []string   { return []string{"u", "ust", "user"} }
func (c *UserStatusCommand) Category() string    { return categoryChat }

func (c *UserStatusCommand) Run(ctx context.Context, cc *Context) error {
	if len(cc.Mentions) == 0 {
		return cc.send(ctx, "I don't know who you mean. Tag them, like @Someone.")
	}
	target := cc.Mentions[0]
	p, ok, err := cc.Engine.Person(ctx, cc.GuildID, target.ID)
	if err != nil {
		return err
	}
	if !ok {
		return cc.send(ctx, "I don't think I know them... Sorry.")
	}
	name := p.Name
	if name == "" {
		name = target.Name
	}
	fields := []*discordgo.MessageEmbedField{
		{Name: "Username", Value: name, Inline: true},
		{Name: "Affection", Value: fmt.Sprintf("%.2f", p.Affinity), Inline: true},
	}
	fields = append(fields, emotionFields(p.Humor)...)
	return cc.embed(ctx, "", &discordgo.MessageEmbed{Fields: fields})
}

type FriendshipCommand struct{}

func (c *FriendshipCommand) Name() string { return "friendship" }
func (c *FriendshipCommand) Description() string {
	return "Members Luci likes most, or least with -"
}
func (c *FriendshipCommand) Usage() string     { return "[-]" }
func (c *FriendshipCommand) Aliases() []string { return []string{"fs", "friend", "friends"} }
func (c *FriendshipCommand) Category() string  { return categoryChat }

func (c *FriendshipCommand) Run(ctx context.Context, cc *Context) error {
	worst := len(cc.Args) > 0 && cc.Args[0] == "-"
	people, err := cc.Engine.Friends(ctx, cc.GuildID, worst)
	if err != nil {
		return err
	}
	if len(people) == 0 {
		if worst {
			return cc.send(ctx, "Nobody here bothers me yet.")
		}
		return cc.send(ctx, "I don't think I like anyone much yet.")
	}

	fields := make([]*discordgo.MessageEmbedField, 0, len(people))
	for _, p := range people {
		fields = append(fields, &discordgo.MessageEmbedField{
			Name:  "Member",
			Value: fmt.Sprintf("%s | :heartpulse: : %.2f", p.Name, p.Affinity),
		})
	}
	title := "Members I like the most :blush:"
	if worst {
		title = "Members I like the least :rolling_eyes:"
	}
	return cc.embed(ctx, title, &discordgo.MessageEmbed{Fields: fields})
}
