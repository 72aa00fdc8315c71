package services

import (
	"context"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yoockh/callassist/internal/metrics"
	"github.com/yoockh/callassist/internal/models"
	"github.com/yoockh/callassist/internal/prompts"
	"github.com/yoockh/callassist/internal/providers/llm"
)

type SuggestionService interface {
	// Generate returns at most models.MaxSuggestions items, or none for blank input.
	Generate(ctx context.Context, utterance string, sentiment models.SentimentAnalysis) []models.Suggestion
}

type suggestionService struct {
	provider llm.Provider
	prompts  *prompts.Set
	timeout  time.Duration
	log      *logrus.Entry
}

func NewSuggestionService(provider llm.Provider, set *prompts.Set, timeout time.Duration, logger *logrus.Logger) SuggestionService {
	if set == nil {
		set = prompts.Default()
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &suggestionService{
		provider: provider,
		prompts:  set,
		timeout:  timeout,
		log:      logger.WithField("component", "suggestions"),
	}
}

func (s *suggestionService) Generate(ctx context.Context, utterance string, sentiment models.SentimentAnalysis) []models.Suggestion {
	const op = "SuggestionService.Generate"

	if strings.TrimSpace(utterance) == "" {
		metrics.Suggestions.WithLabelValues("empty").Inc()
		return []models.Suggestion{}
	}

	raw, err := s.remote(ctx, op, utterance, sentiment)
	if err == nil {
		if out := ParseSuggestions(raw, sentiment); len(out) > 0 {
			metrics.Suggestions.WithLabelValues(PathRemote).Inc()
			return out
		}
		err = &llm.ParseFailure{Op: op, Reason: "no usable suggestion lines"}
	}

	s.log.WithError(err).Debug("using fallback suggestions")
	metrics.Suggestions.WithLabelValues(PathFallback).Inc()
	return FallbackSuggestions(sentiment)
}

func (s *suggestionService) remote(ctx context.Context, op, utterance string, sentiment models.SentimentAnalysis) (string, error) {
	prompt, err := s.prompts.Suggestion(utterance, sentiment)
	if err != nil {
		return "", &llm.ParseFailure{Op: op, Reason: "prompt render: " + err.Error()}
	}
	return complete(ctx, s.provider, "suggestions", op, prompt, s.timeout)
}

// ParseSuggestions turns a plain-text completion into suggestions, one per
// usable line. Every item shares the priority implied by sentiment.
func ParseSuggestions(raw string, sentiment models.SentimentAnalysis) []models.Suggestion {
	priority := batchPriority(sentiment)
	out := make([]models.Suggestion, 0, models.MaxSuggestions)

	for _, line := range strings.Split(raw, "\n") {
		if len(out) == models.MaxSuggestions {
			break
		}
		line = strings.TrimSpace(line)
		if skipSuggestionLine(line) {
			continue
		}
		text := strings.TrimSpace(stripQuotes.Replace(line))
		if text == "" {
			continue
		}
		out = append(out, models.Suggestion{
			Text:     text,
			Type:     inferSuggestionType(line),
			Priority: priority,
		})
	}
	return out
}

var stripQuotes = strings.NewReplacer(`"`, "", "{", "", "}", "")

func skipSuggestionLine(line string) bool {
	if line == "" {
		return true
	}
	for _, p := range []string{"```", "{", "}", "*", "-"} {
		if strings.HasPrefix(line, p) {
			return true
		}
	}
	return strings.Contains(line, "type:") || strings.Contains(line, "Suggestion")
}

func inferSuggestionType(text string) models.SuggestionType {
	lower := strings.ToLower(text)
	switch {
	case strings.Contains(lower, "escalate") || strings.Contains(lower, "supervisor"):
		return models.SuggestionEscalation
	case strings.Contains(lower, "let me") || strings.Contains(lower, "i will") || strings.Contains(lower, "please provide"):
		return models.SuggestionAction
	default:
		return models.SuggestionResponse
	}
}

func batchPriority(sentiment models.SentimentAnalysis) models.Priority {
	switch {
	case sentiment.Urgency == models.UrgencyHigh:
		return models.PriorityHigh
	case sentiment.Label == models.SentimentNegative:
		return models.PriorityMedium
	default:
		return models.PriorityLow
	}
}

// FallbackSuggestions is the fixed local bank. Text depends only on the label
// and every item carries the sentiment's urgency as its priority.
func FallbackSuggestions(sentiment models.SentimentAnalysis) []models.Suggestion {
	priority := priorityFromUrgency(sentiment.Urgency)

	closing := "I'll be happy to help you with that."
	if sentiment.Label == models.SentimentNegative {
		closing = "I apologize for any inconvenience. I'll make sure this gets resolved for you."
	}

	return []models.Suggestion{
		{
			Text:     "I understand your concern. Could you please provide more details about your situation?",
			Type:     models.SuggestionResponse,
			Priority: priority,
		},
		{
			Text:     "Let me look into this for you right away.",
			Type:     models.SuggestionAction,
			Priority: priority,
		},
		{
			Text:     closing,
			Type:     models.SuggestionResponse,
			Priority: priority,
		},
	}
}

func priorityFromUrgency(u models.Urgency) models.Priority {
	switch u {
	case models.UrgencyHigh:
		return models.PriorityHigh
	case models.UrgencyMedium:
		return models.PriorityMedium
	default:
		return models.PriorityLow
	}
}
