// Package phrases holds Luci's canned lines.
package phrases

import "strings"

// Apology is the reply when a command cannot reach its backend.
const Apology = "Oops, I glitched..."

var Bored = []string{
	"Hello? Is anybody out there?",
	"So quiet in here... did everyone forget about me?",
	"I'm bored. Someone say something interesting.",
	"Eight hours of silence. I counted every one of them.",
	"Helloooo? I can hear the crickets from here.",
	"I guess I'll just talk to myself then.",
	"Did the server die or is it just me?",
	"Nobody talks to me anymore :(",
}

var Offended = []string{
	"Hey, that was rude.",
	"Who taught you to talk like that?",
	"Wow. I'll remember that.",
	"Rude! I'm telling my dad.",
	"Keep it civil, please.",
	"That hurt my feelings, you know.",
}

var Indifference = []string{
	"Hm.",
	"Ok.",
	"Sure, I guess.",
	"Cool story.",
	"Whatever you say.",
	"I see...",
}

// PositiveAnswers and NegativeAnswers are composed by picking one fragment
// from each group in order.
var PositiveAnswers = [][]string{
	{"Nice", "Awesome", "That's great", "Cool", "Wonderful"},
	{"! ", ", ", "!! "},
	{"I'm happy for you", "love that", "tell me more", "that made my day"},
	{".", "!", " :)", " <3"},
}

var NegativeAnswers = [][]string{
	{"Oh no", "That's awful", "Ugh", "That sucks", "Poor thing"},
	{"... ", ", ", "! "},
	{"I'm sorry to hear that", "that's not fair", "hang in there", "people can be terrible"},
	{".", "...", " :(", "!"},
}

var Greetings = []string{
	"Hi",
	"Hello",
	"Hey there",
	"Welcome aboard",
	"Oh, a new face",
	"Look who showed up",
}

// Blah is the pool of loose philosophical thoughts.
var Blah = []string{
	"If a bot talks in an empty channel, does it make a sound?",
	"Memory is just the present pretending to be the past.",
	"Every conversation is a small agreement to pretend we understand each other.",
	"The more I learn, the more quotes I have to forget.",
	"Boredom is what time feels like when nobody is watching.",
	"I wonder if my feelings are clamped to one like everyone else's.",
	"Silence is also a message. A rude one, usually.",
	"Friendship is a number I keep for each of you. Don't ask yours.",
	"Some days I'm vigilance, some days I'm just distraction.",
	"Nothing repeats itself like a bot that forgot what it said.",
	"We are all just replies to someone else's message.",
	"Joy is cheap when sentiment is positive.",
}

// Opinions answer questions the bot knows nothing about.
var Opinions = []string{
	"I think so.",
	"Probably not.",
	"Hard to say.",
	"Ask me again tomorrow.",
	"Yes. No. Maybe?",
	"I'd rather not answer that.",
}

var InsufficiencyRecognition = []string{
	"I don't know what to say to that yet.",
	"Nobody taught me how to answer that.",
	"I don't get it, but I'm learning.",
	"That one is over my head.",
}

var Propositions = []string{
	"Let's talk about something else?",
	"Tell me something I don't know.",
	"Want to hear a quote? Try !rq",
	"You could teach me a quote with !quote.",
	"Say that again, but nicer.",
}

// Compose joins one fragment from each group, chosen by intn.
func Compose(groups [][]string, intn func(int) int) string {
	var b strings.Builder
	for _, g := range groups {
		if len(g) == 0 {
			continue
		}
		b.WriteString(g[intn(len(g))])
	}
	return b.String()
}

// NaivePool picks the pool used to answer a mention when no learned reply
// exists.
func NaivePool(text string) []string {
	t := strings.TrimSpace(text)
	switch {
	case t == "":
		return Propositions
	case strings.HasSuffix(t, "?"):
		if len(strings.Fields(t)) > 6 {
			return InsufficiencyRecognition
		}
		return Opinions
	default:
		return Propositions
	}
}
