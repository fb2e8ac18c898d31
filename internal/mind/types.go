package mind

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"
)

// Emotions is the current affective state of a guild. Each axis lives in Bounds.
type Emotions struct {
	Pleasantness float64 `json:"pleasantness"`
	Attention    float64 `json:"attention"`
	Sensitivity  float64 `json:"sensitivity"`
	Aptitude     float64 `json:"aptitude"`
}

// Delta is an additive change to Emotions. A zero field leaves its axis as is.
type Delta struct {
	Pleasantness float64 `json:"pleasantness"`
	Attention    float64 `json:"attention"`
	Sensitivity  float64 `json:"sensitivity"`
	Aptitude     float64 `json:"aptitude"`
}

func (d Delta) IsZero() bool {
	return d == Delta{}
}

// Axis names one emotional dimension.
type Axis int

const (
	AxisPleasantness Axis = iota
	AxisAttention
	AxisSensitivity
	AxisAptitude
)

// Axes in display order.
var Axes = []Axis{AxisPleasantness, AxisAttention, AxisSensitivity, AxisAptitude}

func (a Axis) String() string {
	switch a {
	case AxisPleasantness:
		return "pleasantness"
	case AxisAttention:
		return "attention"
	case AxisSensitivity:
		return "sensitivity"
	case AxisAptitude:
		return "aptitude"
	default:
		return "unknown"
	}
}

// Value returns the axis component of e.
func (e Emotions) Value(a Axis) float64 {
	switch a {
	case AxisPleasantness:
		return e.Pleasantness
	case AxisAttention:
		return e.Attention
	case AxisSensitivity:
		return e.Sensitivity
	case AxisAptitude:
		return e.Aptitude
	}
	return 0
}

// Record is the short-term memory kept for one key.
type Record struct {
	LastMessageAt time.Time `json:"last_message_at,omitempty"`
	Recent        []string  `json:"recent,omitempty"` // oldest first, bounded
}

func (r Record) clone() Record {
	out := r
	if r.Recent != nil {
		out.Recent = make([]string, len(r.Recent))
		copy(out.Recent, r.Recent)
	}
	return out
}

// GuildConfig holds per-guild settings owned by the backend.
type GuildConfig struct {
	ServerName              string `json:"server_name"`
	MainChannel             string `json:"main_channel"`
	AllowAutoSendMessages   bool   `json:"allow_auto_send_messages"`
	AllowLearningFromChat   bool   `json:"allow_learning_from_chat"`
	FilterOffensiveMessages bool   `json:"filter_offensive_messages"`
}

// NotificationDecision is produced once per bored guild per monitor tick.
type NotificationDecision struct {
	GuildID      string
	ShouldNotify bool
	ChannelID    string
	Message      string
	Penalty      float64
	Elapsed      time.Duration
}

// MessageMeta is what the backend remembers about a chat message.
type MessageMeta struct {
	Text   string `json:"text"`
	Author string `json:"author,omitempty"`
}

// UserUpdate is sent to the backend after each inbound message.
type UserUpdate struct {
	GuildID       string
	UserID        string
	Name          string
	AffinityDelta float64
	Humor         Delta
	Message       MessageMeta
}

// Person is what the backend knows about a guild member.
type Person struct {
	UserID   string   `json:"user_id"`
	Name     string   `json:"name"`
	Affinity float64  `json:"affinity"`
	Humor    Emotions `json:"humor"`
}

// StimulusMatch is one stored message and the replies recorded for it.
type StimulusMatch struct {
	Text      string
	Responses []string
}

// Key kinds. Records of different kinds never share a key.
const (
	KindGuild   = "guild"
	KindQuotes  = "quotes"
	KindPhrases = "phrases"
)

// Key derives an opaque, stable memory key from an external reference.
func Key(kind string, parts ...string) string {
	sum := sha256.Sum256([]byte(kind + ":" + strings.Join(parts, ":")))
	return hex.EncodeToString(sum[:16])
}

// GuildKey is the short-term memory key of a guild.
func GuildKey(guildID string) string {
	return Key(KindGuild, guildID)
}

// QuotesKey holds the recently told quotes of a guild.
func QuotesKey(guildID string) string {
	return Key(KindQuotes, guildID)
}

// PhrasesKey holds the recently used lines of one pool in a guild.
func PhrasesKey(guildID, pool string) string {
	return Key(KindPhrases, guildID, pool)
}

// GuildRef is the reference under which the backend stores a guild.
func GuildRef(guildID string) string {
	return Key("id", guildID)
}

// UserRef is the reference under which the backend stores a guild member.
func UserRef(guildID, userID string) string {
	return Key(GuildRef(guildID), userID)
}

// NormalizeText is the form under which backends index message text.
func NormalizeText(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}
