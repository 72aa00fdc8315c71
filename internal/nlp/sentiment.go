package nlp

import (
	"math"
	"strings"

	"github.com/yoockh/callassist/internal/lexicon"
	"github.com/yoockh/callassist/internal/models"
)

const (
	weightHigh   = 0.3
	weightMedium = 0.2
	weightLow    = 0.1

	intensifierFactor = 1.5
	diminisherFactor  = 0.5

	labelThreshold = 0.1
)

// Scorer computes lexical sentiment. It holds only lookup tables built at
// construction and is safe for concurrent use.
type Scorer struct {
	weights     map[string]float64
	modifiers   map[string]float64
	urgentTerms []string
}

func NewScorer(lex *lexicon.Lexicon) *Scorer {
	s := &Scorer{
		weights:   make(map[string]float64),
		modifiers: make(map[string]float64),
	}

	addTerms := func(terms []string, w float64) {
		for _, t := range terms {
			s.weights[strings.ToLower(t)] = w
		}
	}
	addTerms(lex.Positive.High, weightHigh)
	addTerms(lex.Positive.Medium, weightMedium)
	addTerms(lex.Positive.Low, weightLow)
	addTerms(lex.Negative.High, -weightHigh)
	addTerms(lex.Negative.Medium, -weightMedium)
	addTerms(lex.Negative.Low, -weightLow)

	// intensifiers take precedence when a term is listed in both
	for _, t := range lex.Modifiers.Diminishers {
		s.modifiers[strings.ToLower(t)] = diminisherFactor
	}
	for _, t := range lex.Modifiers.Intensifiers {
		s.modifiers[strings.ToLower(t)] = intensifierFactor
	}

	for _, t := range lex.UrgentTerms {
		s.urgentTerms = append(s.urgentTerms, strings.ToLower(t))
	}
	return s
}

func (s *Scorer) Score(text string) models.SentimentAnalysis {
	lower := strings.ToLower(text)
	words := strings.Fields(lower)

	var score float64
	emotionalPoints := 0

	for i, w := range words {
		intensity := 1.0
		if i > 0 {
			if f, ok := s.modifiers[words[i-1]]; ok {
				intensity = f
			}
		}
		if base, ok := s.weights[w]; ok {
			score += base * intensity
			emotionalPoints++
		}
	}

	normalized := 0.0
	if emotionalPoints > 0 {
		normalized = score / math.Sqrt(float64(emotionalPoints))
	}
	final := clamp(normalized, -1, 1)
	confidence := math.Min(1, float64(emotionalPoints)/5)

	return models.SentimentAnalysis{
		Score:      final,
		Label:      labelFor(final),
		Confidence: confidence,
		Urgency:    s.urgency(lower, final, confidence),
	}
}

func (s *Scorer) urgency(lower string, score, confidence float64) models.Urgency {
	switch {
	case containsAny(lower, s.urgentTerms) || (score < -0.5 && confidence > 0.6):
		return models.UrgencyHigh
	case score < -0.3 && confidence > 0.4:
		return models.UrgencyMedium
	default:
		return models.UrgencyLow
	}
}

func labelFor(score float64) models.SentimentLabel {
	switch {
	case score > labelThreshold:
		return models.SentimentPositive
	case score < -labelThreshold:
		return models.SentimentNegative
	default:
		return models.SentimentNeutral
	}
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
