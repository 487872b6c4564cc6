package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		text string
		want Sentiment
	}{
		{"only positive words", "great excellent helpful", SentimentPositive},
		{"only negative words", "terrible failure slow", SentimentNegative},
		{"empty", "", SentimentNeutral},
		{"no lexicon words", "the convoy arrived at noon", SentimentNeutral},
		{"tie", "good but slow", SentimentNeutral},
		{"case and punctuation", "GREAT!!! Really, Great.", SentimentPositive},
		{"majority negative", "Great venue, but terrible food and a slow, difficult check-in", SentimentNegative},
		{"word boundaries", "goodness badly", SentimentNeutral},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.text))
		})
	}
}
