package core

import (
	"regexp"
	"strings"
)

type Sentiment string

const (
	SentimentPositive Sentiment = "Positive"
	SentimentNegative Sentiment = "Negative"
	SentimentNeutral  Sentiment = "Neutral"
)

var wordPattern = regexp.MustCompile(`\b\w+\b`)

var positiveWords = map[string]struct{}{
	"good": {}, "great": {}, "excellent": {}, "amazing": {}, "awesome": {}, "fantastic": {},
	"positive": {}, "love": {}, "like": {}, "satisfied": {}, "happy": {}, "efficient": {}, "quick": {},
	"helpful": {}, "supportive": {}, "effective": {}, "successful": {},
}

var negativeWords = map[string]struct{}{
	"bad": {}, "terrible": {}, "horrible": {}, "awful": {}, "hate": {}, "negative": {}, "poor": {},
	"unsatisfied": {}, "sad": {}, "inefficient": {}, "slow": {}, "unhappy": {}, "problem": {},
	"issue": {}, "fail": {}, "failure": {}, "difficult": {},
}

// Classify tags text by counting lexicon hits. Ties, including no hits at all,
// are Neutral.
func Classify(text string) Sentiment {
	var pos, neg int
	for _, w := range wordPattern.FindAllString(strings.ToLower(text), -1) {
		if _, ok := positiveWords[w]; ok {
			pos++
		}
		if _, ok := negativeWords[w]; ok {
			neg++
		}
	}

	switch {
	case pos > neg:
		return SentimentPositive
	case neg > pos:
		return SentimentNegative
	default:
		return SentimentNeutral
	}
}
