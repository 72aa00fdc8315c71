package prompts

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"text/template"

	"github.com/yoockh/callassist/internal/models"
	"github.com/yoockh/callassist/internal/storage"
)

const (
	AnalysisObject   = "analysis.tmpl"
	SuggestionObject = "suggestion.tmpl"
)

const defaultAnalysis = `Analyze this customer service conversation text and provide:
- Sentiment (include emotional intensity and specific emotional indicators)
- Customer urgency level
- Intent classification
- Key topics
- Action items
Text: "{{.Text}}"`

const defaultSuggestion = `You are a call center AI assistant. Based on this customer conversation, provide 3-4 natural, professional response suggestions.
DO NOT include any formatting, numbers, or JSON. Just provide plain text responses, one per line.

Consider the following:
- Customer sentiment: {{.Label}}
- Urgency level: {{.Urgency}}

Conversation transcript: "{{.Transcript}}"

Provide only the response texts, nothing else.`

type analysisData struct {
	Text string
}

type suggestionData struct {
	Transcript string
	Label      models.SentimentLabel
	Urgency    models.Urgency
}

// Set holds the parsed prompt templates. Templates are parsed once and
// executed concurrently.
type Set struct {
	analysis   *template.Template
	suggestion *template.Template
}

func Default() *Set {
	return &Set{
		analysis:   template.Must(template.New(AnalysisObject).Parse(defaultAnalysis)),
		suggestion: template.Must(template.New(SuggestionObject).Parse(defaultSuggestion)),
	}
}

// Load reads template overrides from f. A missing object keeps the default.
func Load(ctx context.Context, f storage.Fetcher) (*Set, error) {
	set := Default()
	if f == nil {
		return set, nil
	}

	overrides := []struct {
		name   string
		target **template.Template
		sample any
	}{
		{AnalysisObject, &set.analysis, analysisData{Text: "sample"}},
		{SuggestionObject, &set.suggestion, suggestionData{Transcript: "sample", Label: models.SentimentNeutral, Urgency: models.UrgencyLow}},
	}

	for _, o := range overrides {
		body, err := f.Fetch(ctx, o.name)
		if errors.Is(err, storage.ErrObjectNotFound) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("prompts: fetch %s: %w", o.name, err)
		}
		tmpl, err := template.New(o.name).Parse(string(body))
		if err != nil {
			return nil, fmt.Errorf("prompts: parse %s: %w", o.name, err)
		}
		if err := tmpl.Execute(&strings.Builder{}, o.sample); err != nil {
			return nil, fmt.Errorf("prompts: %s does not render: %w", o.name, err)
		}
		*o.target = tmpl
	}
	return set, nil
}

func (s *Set) Analysis(text string) (string, error) {
	var b strings.Builder
	if err := s.analysis.Execute(&b, analysisData{Text: text}); err != nil {
		return "", err
	}
	return b.String(), nil
}

func (s *Set) Suggestion(utterance string, sentiment models.SentimentAnalysis) (string, error) {
	var b strings.Builder
	err := s.suggestion.Execute(&b, suggestionData{
		Transcript: utterance,
		Label:      sentiment.Label,
		Urgency:    sentiment.Urgency,
	})
	if err != nil {
		return "", err
	}
	return b.String(), nil
}
