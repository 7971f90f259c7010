package social

import (
	"math"
	"strings"
)

// Lexicon-based sentiment. Crypto slang is deliberately over-represented: meme
// coin posts rarely read like product reviews.
var positiveTokens = map[string]struct{}{
	"moon": {}, "mooning": {}, "bullish": {}, "pump": {}, "pumping": {},
	"gem": {}, "lfg": {}, "send": {}, "sending": {}, "ape": {}, "aping": {},
	"buy": {}, "buying": {}, "hold": {}, "holding": {}, "hodl": {},
	"up": {}, "good": {}, "great": {}, "love": {}, "win": {}, "winning": {},
	"100x": {}, "10x": {}, "early": {}, "alpha": {}, "based": {},
}

var negativeTokens = map[string]struct{}{
	"dump": {}, "dumping": {}, "rug": {}, "rugged": {}, "rugpull": {},
	"scam": {}, "bearish": {}, "sell": {}, "selling": {}, "sold": {},
	"down": {}, "dead": {}, "rekt": {}, "crash": {}, "crashing": {},
	"bad": {}, "avoid": {}, "exit": {}, "honeypot": {}, "jeet": {},
}

var negations = map[string]struct{}{
	"not": {}, "no": {}, "never": {}, "dont": {}, "don't": {}, "isnt": {}, "isn't": {},
}

// ScorePost returns a sentiment score in [-1, 1] for one post's text.
func ScorePost(text string) float64 {
	fields := strings.Fields(strings.ToLower(text))
	if len(fields) == 0 {
		return 0
	}
	var score float64
	var hits int
	negated := false
	for _, field := range fields {
		token := strings.Trim(field, ".,!?#$@()[]\"'")
		if _, ok := negations[token]; ok {
			negated = true
			continue
		}
		var v float64
		if _, ok := positiveTokens[token]; ok {
			v = 1
		} else if _, ok := negativeTokens[token]; ok {
			v = -1
		}
		if v != 0 {
			if negated {
				v = -v
			}
			score += v
			hits++
		}
		negated = false
	}
	if hits == 0 {
		return 0
	}
	// tanh keeps a wall of "moon moon moon" from pinning the scale instantly.
	return math.Tanh(score / 2)
}

// followerWeight dampens the influence of tiny accounts without letting whales dominate.
func followerWeight(followers int) float64 {
	if followers <= 0 {
		return 1
	}
	return 1 + math.Log10(float64(followers))
}

// Aggregate folds scored posts into a single keyword reading.
func Aggregate(keyword string, posts []Post) Reading {
	reading := Reading{Keyword: keyword, Mentions: len(posts)}
	if len(posts) == 0 {
		return reading
	}
	var weighted, totalWeight float64
	latest := posts[0].CreatedAt
	for _, post := range posts {
		w := followerWeight(post.Followers)
		weighted += ScorePost(post.Text) * w
		totalWeight += w
		if post.CreatedAt.After(latest) {
			latest = post.CreatedAt
		}
	}
	if totalWeight > 0 {
		reading.Score = clamp(weighted/totalWeight, -1, 1)
	}
	reading.Ts = latest.UTC()
	return reading
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
