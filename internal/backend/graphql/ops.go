package graphql

import (
	"context"

	"github.com/keshon/luci/internal/mind"
)

const (
	queryCustomConfig = `query CustomConfig($server: String!) {
  custom_config(server: $server) {
    server_name main_channel allow_auto_send_messages allow_learning_from_chat filter_offensive_messages
  }
}`
	queryEmotions = `query Emotions($server: String!) {
  emotions(server: $server) { pleasantness attention sensitivity aptitude }
}`
	queryQuotes = `query Quotes($server: String!) {
  quotes(server: $server) { quote }
}`
	queryUser = `query User($reference: String!) {
  users(reference: $reference) {
    reference name friendshipness
    emotion_resume { pleasantness attention sensitivity aptitude }
  }
}`
	queryUsers = `query Users($server: String!) {
  users(server: $server) {
    reference name friendshipness
    emotion_resume { pleasantness attention sensitivity aptitude }
  }
}`
	queryPossibleResponses = `query PossibleResponses($text: String!) {
  messages(text: $text) { text possible_responses { text } }
}`
	queryMessageAuthors = `query MessageAuthors($text: String!) {
  messages(text: $text) { author }
}`

	mutationUpdateEmotion = `mutation UpdateEmotion($server: String!, $pleasantness: Float, $attention: Float, $sensitivity: Float, $aptitude: Float) {
  update_emotion(input: {server: $server, pleasantness: $pleasantness, attention: $attention, sensitivity: $sensitivity, aptitude: $aptitude}) {
    emotion { pleasantness attention sensitivity aptitude }
  }
}`
	mutationUpdateUser = `mutation UpdateUser($reference: String!, $name: String!, $friendshipness: Float!, $humor: EmotionInput!, $message: MessageInput) {
  update_user(input: {reference: $reference, name: $name, friendshipness: $friendshipness, emotion_resume: $humor, message: $message}) {
    user { reference }
  }
}`
	mutationAssignResponse = `mutation AssignResponse($text: String!, $response: MessageInput!) {
  assign_response(input: {text: $text, possible_response: $response}) {
    response { text }
  }
}`
	mutationCreateQuote = `mutation CreateQuote($quote: String!, $server: String!, $author: String!) {
  create_quote(input: {quote: $quote, server: $server, author: $author}) {
    quote { quote }
  }
}`
)

type emotionDoc struct {
	Pleasantness float64 `json:"pleasantness"`
	Attention    float64 `json:"attention"`
	Sensitivity  float64 `json:"sensitivity"`
	Aptitude     float64 `json:"aptitude"`
}

func (d emotionDoc) emotions() mind.Emotions {
	return mind.Emotions{
		Pleasantness: d.Pleasantness,
		Attention:    d.Attention,
		Sensitivity:  d.Sensitivity,
		Aptitude:     d.Aptitude,
	}
}

type userDoc struct {
	Reference      string     `json:"reference"`
	Name           string     `json:"name"`
	Friendshipness float64    `json:"friendshipness"`
	EmotionResume  emotionDoc `json:"emotion_resume"`
}

func (u userDoc) person() mind.Person {
	return mind.Person{
		UserID:   u.Reference,
		Name:     u.Name,
		Affinity: u.Friendshipness,
		Humor:    u.EmotionResume.emotions(),
	}
}

func (c *Client) GetGuildConfig(ctx context.Context, guildID string) (mind.GuildConfig, error) {
	var out struct {
		CustomConfig *mind.GuildConfig `json:"custom_config"`
	}
	err := c.do(ctx, "custom_config", queryCustomConfig, map[string]any{"server": mind.GuildRef(guildID)}, &out)
	if err != nil || out.CustomConfig == nil {
		return mind.GuildConfig{}, err
	}
	return *out.CustomConfig, nil
}

// UpdateEmotion sends the delta; the backend applies and clamps it.
func (c *Client) UpdateEmotion(ctx context.Context, guildID string, d mind.Delta) error {
	return c.do(ctx, "update_emotion", mutationUpdateEmotion, map[string]any{
		"server":       mind.GuildRef(guildID),
		"pleasantness": d.Pleasantness,
		"attention":    d.Attention,
		"sensitivity":  d.Sensitivity,
		"aptitude":     d.Aptitude,
	}, nil)
}

func (c *Client) GetEmotions(ctx context.Context, guildID string) (mind.Emotions, bool, error) {
	var out struct {
		Emotions []emotionDoc `json:"emotions"`
	}
	if err := c.do(ctx, "emotions", queryEmotions, map[string]any{"server": mind.GuildRef(guildID)}, &out); err != nil {
		return mind.Emotions{}, false, err
	}
	if len(out.Emotions) == 0 {
		return mind.Emotions{}, false, nil
	}
	return out.Emotions[0].emotions(), true, nil
}

func (c *Client) UpdateUser(ctx context.Context, u mind.UserUpdate) error {
	vars := map[string]any{
		"reference":      mind.UserRef(u.GuildID, u.UserID),
		"name":           u.Name,
		"friendshipness": u.AffinityDelta,
		"humor": emotionDoc{
			Pleasantness: u.Humor.Pleasantness,
			Attention:    u.Humor.Attention,
			Sensitivity:  u.Humor.Sensitivity,
			Aptitude:     u.Humor.Aptitude,
		},
	}
	if u.Message.Text != "" {
		vars["message"] = u.Message
	}
	return c.do(ctx, "update_user", mutationUpdateUser, vars, nil)
}

func (c *Client) FindResponses(ctx context.Context, text string) ([]mind.StimulusMatch, error) {
	var out struct {
		Messages []struct {
			Text              string `json:"text"`
			PossibleResponses []struct {
				Text string `json:"text"`
			} `json:"possible_responses"`
		} `json:"messages"`
	}
	if err := c.do(ctx, "possible_responses", queryPossibleResponses, map[string]any{"text": text}, &out); err != nil {
		return nil, err
	}
	matches := make([]mind.StimulusMatch, 0, len(out.Messages))
	for _, m := range out.Messages {
		sm := mind.StimulusMatch{Text: m.Text}
		for _, r := range m.PossibleResponses {
			sm.Responses = append(sm.Responses, r.Text)
		}
		matches = append(matches, sm)
	}
	return matches, nil
}

func (c *Client) AssignResponse(ctx context.Context, stimulus string, r mind.MessageMeta) error {
	return c.do(ctx, "assign_response", mutationAssignResponse, map[string]any{
		"text":     stimulus,
		"response": r,
	}, nil)
}

func (c *Client) Quotes(ctx context.Context, guildID string) ([]string, error) {
	var out struct {
		Quotes []struct {
			Quote string `json:"quote"`
		} `json:"quotes"`
	}
	if err := c.do(ctx, "quotes", queryQuotes, map[string]any{"server": mind.GuildRef(guildID)}, &out); err != nil {
		return nil, err
	}
	quotes := make([]string, 0, len(out.Quotes))
	for _, q := range out.Quotes {
		quotes = append(quotes, q.Quote)
	}
	return quotes, nil
}

// CreateQuote returns the quote text as the backend stored it.
func (c *Client) CreateQuote(ctx context.Context, guildID, text, author string) (string, error) {
	var out struct {
		CreateQuote struct {
			Quote struct {
				Quote string `json:"quote"`
			} `json:"quote"`
		} `json:"create_quote"`
	}
	err := c.do(ctx, "create_quote", mutationCreateQuote, map[string]any{
		"quote":  text,
		"server": mind.GuildRef(guildID),
		"author": author,
	}, &out)
	if err != nil {
		return "", err
	}
	if out.CreateQuote.Quote.Quote == "" {
		return text, nil
	}
	return out.CreateQuote.Quote.Quote, nil
}

func (c *Client) Person(ctx context.Context, guildID, userID string) (mind.Person, bool, error) {
	var out struct {
		Users []userDoc `json:"users"`
	}
	if err := c.do(ctx, "user", queryUser, map[string]any{"reference": mind.UserRef(guildID, userID)}, &out); err != nil {
		return mind.Person{}, false, err
	}
	if len(out.Users) == 0 {
		return mind.Person{}, false, nil
	}
	p := out.Users[0].person()
	p.UserID = userID
	return p, true, nil
}

// People lists guild members. UserID carries the backend reference because
// the protocol does not expose raw platform ids.
func (c *Client) People(ctx context.Context, guildID string) ([]mind.Person, error) {
	var out struct {
		Users []userDoc `json:"users"`
	}
	if err := c.do(ctx, "users", queryUsers, map[string]any{"server": mind.GuildRef(guildID)}, &out); err != nil {
		return nil, err
	}
	people := make([]mind.Person, 0, len(out.Users))
	for _, u := range out.Users {
		people = append(people, u.person())
	}
	return people, nil
}

func (c *Client) MessageAuthors(ctx context.Context, text string) ([]string, error) {
	var out struct {
		Messages []struct {
			Author string `json:"author"`
		} `json:"messages"`
	}
	if err := c.do(ctx, "message_authors", queryMessageAuthors, map[string]any{"text": text}, &out); err != nil {
		return nil, err
	}
	seen := make(map[string]struct{}, len(out.Messages))
	var authors []string
	for _, m := range out.Messages {
		if m.Author == "" {
			continue
		}
		if _, dup := seen[m.Author]; dup {
			continue
		}
		seen[m.Author] = struct{}{}
		authors = append(authors, m.Author)
	}
	return authors, nil
}
