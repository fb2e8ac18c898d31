package discord

import (
	"context"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/keshon/luci/internal/command"
	"github.com/keshon/luci/internal/mind"
)

// stripMentions removes both mention forms of botID from content.
func stripMentions(content, botID string) string {
	if botID == "" {
		return strings.TrimSpace(content)
	}
	r := strings.NewReplacer("<@"+botID+">", "", "<@!"+botID+">", "")
	return strings.Join(strings.Fields(r.Replace(content)), " ")
}

func mentionsBot(m *discordgo.Message, botID string) bool {
	for _, u := range m.Mentions {
		if u != nil && u.ID == botID {
			return true
		}
	}
	return strings.Contains(m.Content, "<@"+botID+">") || strings.Contains(m.Content, "<@!"+botID+">")
}

func toIncoming(m *discordgo.Message, botID string) mind.IncomingMessage {
	in := mind.IncomingMessage{
		GuildID:     m.GuildID,
		ChannelID:   m.ChannelID,
		Content:     stripMentions(m.Content, botID),
		CreatedAt:   m.Timestamp,
		MentionsBot: mentionsBot(m, botID),
	}
	if m.Author != nil {
		in.AuthorID = m.Author.ID
		in.AuthorName = m.Author.Username
	}
	if m.ReferencedMessage != nil {
		in.ReplyTo = stripMentions(m.ReferencedMessage.Content, botID)
	}
	return in
}

// mentionsOf lists mentioned users other than the bot, in message order.
func mentionsOf(m *discordgo.Message, botID string) []command.Mention {
	var out []command.Mention
	for _, u := range m.Mentions {
		if u == nil || u.ID == botID {
			continue
		}
		name := u.GlobalName
		if name == "" {
			name = u.Username
		}
		out = append(out, command.Mention{ID: u.ID, Name: name})
	}
	return out
}

// channelReplier answers in one channel.
type channelReplier struct {
	dg        *discordgo.Session
	channelID string
}

func (r *channelReplier) Send(ctx context.Context, text string) error {
	_, err := r.dg.ChannelMessageSend(r.channelID, text, discordgo.WithContext(ctx))
	return err
}

func (r *channelReplier) SendEmbed(ctx context.Context, text string, e *discordgo.MessageEmbed) error {
	_, err := r.dg.ChannelMessageSendComplex(r.channelID, &discordgo.MessageSend{
		Content: text,
		Embeds:  []*discordgo.MessageEmbed{e},
	}, discordgo.WithContext(ctx))
	return err
}

// Notifier posts engine notifications through a session.
type Notifier struct {
	dg *discordgo.Session
}

func NewNotifier(dg *discordgo.Session) *Notifier {
	return &Notifier{dg: dg}
}

func (n *Notifier) SendToChannel(ctx context.Context, channelID, text string) error {
	_, err := n.dg.ChannelMessageSend(channelID, text, discordgo.WithContext(ctx))
	return err
}
