package mind

import "context"

// Collaborator contracts. Every call may fail or time out; the engine treats
// a failure as "no data" and moves on.

type ConfigSource interface {
	GetGuildConfig(ctx context.Context, guildID string) (GuildConfig, error)
}

type EmotionSink interface {
	UpdateEmotion(ctx context.Context, guildID string, d Delta) error
}

// EmotionSource reads the persisted state. ok is false when the backend has
// never seen the guild.
type EmotionSource interface {
	GetEmotions(ctx context.Context, guildID string) (e Emotions, ok bool, err error)
}

type UserSink interface {
	UpdateUser(ctx context.Context, u UserUpdate) error
}

type AssociationBackend interface {
	FindResponses(ctx context.Context, text string) ([]StimulusMatch, error)
	AssignResponse(ctx context.Context, stimulus string, response MessageMeta) error
}

type QuoteBook interface {
	Quotes(ctx context.Context, guildID string) ([]string, error)
	CreateQuote(ctx context.Context, guildID, text, author string) (string, error)
}

type PeopleBook interface {
	Person(ctx context.Context, guildID, userID string) (Person, bool, error)
	People(ctx context.Context, guildID string) ([]Person, error)
}

// AuthorIndex answers who has been seen saying a text.
type AuthorIndex interface {
	MessageAuthors(ctx context.Context, text string) ([]string, error)
}

type Notifier interface {
	SendToChannel(ctx context.Context, channelID, text string) error
}

// Classifier extracts the signals the humor policy consumes. Sentiment is in
// [-1, 1].
type Classifier interface {
	Sentiment(text string) float64
	IsOffensive(text string) bool
}

// Collaborators bundles the external dependencies of an Engine. Any field may
// be nil; the matching features then degrade to empty results.
type Collaborators struct {
	Configs      ConfigSource
	Emotions     EmotionSink
	EmotionState EmotionSource
	Users        UserSink
	Associations AssociationBackend
	Quotes       QuoteBook
	People       PeopleBook
	Authors      AuthorIndex
	Notifier     Notifier
	Classifier   Classifier
}
