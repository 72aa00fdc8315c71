package nlp

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/yoockh/callassist/internal/lexicon"
	"github.com/yoockh/callassist/internal/models"
)

func newTestScorer() *Scorer {
	return NewScorer(lexicon.Default())
}

func TestScore_Empty(t *testing.T) {
	s := newTestScorer()

	for _, text := range []string{"", "   ", "\n\t"} {
		got := s.Score(text)
		assert.Equal(t, models.NeutralSentiment(), got, "text %q", text)
	}
}

func TestScore_IntensifierAppliesToNextToken(t *testing.T) {
	got := newTestScorer().Score("I am extremely happy")

	assert.InDelta(t, 0.3, got.Score, 1e-9)
	assert.Equal(t, models.SentimentPositive, got.Label)
	assert.InDelta(t, 0.2, got.Confidence, 1e-9)
	assert.Equal(t, models.UrgencyLow, got.Urgency)
}

func TestScore_ModifierResetsAfterOneToken(t *testing.T) {
	// "very" boosts "good" only; "happy" is scored at base weight.
	got := newTestScorer().Score("very good happy")

	expected := (0.2*1.5 + 0.2) / 1.4142135623730951
	assert.InDelta(t, expected, got.Score, 1e-9)
	assert.InDelta(t, 0.4, got.Confidence, 1e-9)
}

func TestScore_Diminisher(t *testing.T) {
	got := newTestScorer().Score("slightly annoyed")

	assert.InDelta(t, -0.1, got.Score, 1e-9)
	assert.Equal(t, models.SentimentNeutral, got.Label)
}

func TestScore_UrgentTermForcesHigh(t *testing.T) {
	got := newTestScorer().Score("this is an emergency, I am furious")

	assert.Equal(t, models.UrgencyHigh, got.Urgency)
	assert.Equal(t, models.SentimentNegative, got.Label)
}

func TestScore_UrgencyFromNegativeScore(t *testing.T) {
	s := newTestScorer()

	// four high negatives: -1.2/2 = -0.6, confidence 0.8
	high := s.Score("terrible awful furious outraged")
	assert.InDelta(t, -0.6, high.Score, 1e-9)
	assert.Equal(t, models.UrgencyHigh, high.Urgency)

	// three medium negatives: -0.6/sqrt(3) ~ -0.346, confidence 0.6
	medium := s.Score("unhappy frustrated disappointed")
	assert.Equal(t, models.UrgencyMedium, medium.Urgency)

	// one high negative: -0.3, confidence 0.2
	low := s.Score("terrible")
	assert.Equal(t, models.UrgencyLow, low.Urgency)
	assert.Equal(t, models.SentimentNegative, low.Label)
}

func TestScore_MultiWordTermsDoNotMatchSingleTokens(t *testing.T) {
	got := newTestScorer().Score("thank you")
	assert.Equal(t, 0.0, got.Score)
	assert.Equal(t, 0.0, got.Confidence)
}

func TestScore_Bounds(t *testing.T) {
	s := newTestScorer()
	inputs := []string{
		strings.Repeat("extremely excellent ", 50),
		strings.Repeat("absolutely terrible ", 50),
		"okay fine alright concerned unsure",
		"Perfect! perfect PERFECT",
	}
	for _, in := range inputs {
		got := s.Score(in)
		assert.GreaterOrEqual(t, got.Score, -1.0)
		assert.LessOrEqual(t, got.Score, 1.0)
		assert.GreaterOrEqual(t, got.Confidence, 0.0)
		assert.LessOrEqual(t, got.Confidence, 1.0)
	}
}

func TestScore_Idempotent(t *testing.T) {
	s := newTestScorer()
	text := "I am really frustrated, please fix this ASAP"
	assert.Equal(t, s.Score(text), s.Score(text))
}
