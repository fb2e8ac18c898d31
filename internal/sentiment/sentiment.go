// Package sentiment is a small lexicon classifier for chat messages. It is
// good enough to drive the mood of a bot, nothing more.
package sentiment

import (
	"math"
	"strings"
	"unicode"
)

var defaultPositive = []string{
	"thank", "thanks", "please", "love", "loved", "lovely", "like", "great", "good",
	"nice", "awesome", "amazing", "happy", "glad", "cool", "fun", "funny", "beautiful",
	"best", "wonderful", "fantastic", "yay", "congrats", "welcome", "cute", "sweet",
	"haha", "lol", "kind", "friend", "perfect", "excellent", "win", "won", "🙏", "❤",
}

var defaultNegative = []string{
	"hate", "sad", "bad", "worst", "awful", "terrible", "horrible", "angry", "annoying",
	"boring", "bored", "ugly", "sucks", "sick", "tired", "cry", "crying", "lost", "lose",
	"broke", "broken", "pain", "hurt", "alone", "lonely", "fail", "failed", "sorry", "wrong",
	"mean", "rude", "poor",
}

var emoticons = map[string]float64{
	":)": 1, ":D": 1, "<3": 1, ":(": -1, ":'(": -1, "D:": -1,
}

var defaultOffensive = []string{
	"idiot", "stupid", "dumb", "moron", "shut up", "loser", "jerk", "trash", "garbage",
	"bitch", "bastard", "asshole", "fuck", "shit", "damn you", "kill yourself", "stfu",
}

// Lexicon scores text by counting known words.
type Lexicon struct {
	positive  map[string]struct{}
	negative  map[string]struct{}
	offensive []string
}

// New builds a Lexicon from the built-in word lists plus extra offensive
// terms.
func New(extraOffensive ...string) *Lexicon {
	l := &Lexicon{
		positive: toSet(defaultPositive),
		negative: toSet(defaultNegative),
	}
	for _, w := range append(append([]string(nil), defaultOffensive...), extraOffensive...) {
		w = strings.ToLower(strings.TrimSpace(w))
		if w != "" {
			l.offensive = append(l.offensive, w)
		}
	}
	return l
}

func toSet(words []string) map[string]struct{} {
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}

var negators = map[string]struct{}{
	"not": {}, "no": {}, "never": {}, "dont": {}, "don't": {}, "isnt": {}, "isn't": {},
	"wasnt": {}, "wasn't": {}, "aint": {}, "ain't": {}, "cant": {}, "can't": {},
}

// Sentiment returns a polarity in [-1, 1]. A negator flips the next scored
// word. Empty or unknown text scores 0.
func (l *Lexicon) Sentiment(text string) float64 {
	tokens := tokenize(text)
	var pos, neg float64
	flip := false
	for _, tok := range tokens {
		if _, ok := negators[tok]; ok {
			flip = true
			continue
		}
		score := 0.0
		if _, ok := l.positive[tok]; ok {
			score = 1
		} else if _, ok := l.negative[tok]; ok {
			score = -1
		}
		if score == 0 {
			continue
		}
		if flip {
			score = -score
			flip = false
		}
		if score > 0 {
			pos += score
		} else {
			neg -= score
		}
	}
	for face, score := range emoticons {
		n := float64(strings.Count(text, face))
		if score > 0 {
			pos += n
		} else {
			neg += n
		}
	}
	if pos+neg == 0 {
		return 0
	}
	s := (pos - neg) / (pos + neg)
	// Shouting makes any feeling stronger.
	if shouting(text) {
		s *= 1.5
	}
	return math.Max(-1, math.Min(1, s))
}

// IsOffensive reports whether text contains an insult.
func (l *Lexicon) IsOffensive(text string) bool {
	lower := strings.ToLower(text)
	tokens := tokenize(lower)
	for _, w := range l.offensive {
		if strings.Contains(w, " ") {
			if strings.Contains(lower, w) {
				return true
			}
			continue
		}
		for _, tok := range tokens {
			if tok == w {
				return true
			}
		}
	}
	return false
}

func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return unicode.IsSpace(r) || (unicode.IsPunct(r) && r != '\'')
	})
}

// shouting: mostly upper case and short, the way people yell in chat.
func shouting(text string) bool {
	upper, letters := 0, 0
	for _, r := range text {
		if unicode.IsLetter(r) {
			letters++
			if unicode.IsUpper(r) {
				upper++
			}
		}
	}
	return letters >= 4 && letters < 100 && upper*100/letters > 70
}
