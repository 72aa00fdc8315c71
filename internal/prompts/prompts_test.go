package prompts

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yoockh/callassist/internal/models"
	"github.com/yoockh/callassist/internal/storage"
)

type mapFetcher map[string]string

func (m mapFetcher) Fetch(_ context.Context, name string) ([]byte, error) {
	if v, ok := m[name]; ok {
		return []byte(v), nil
	}
	return nil, storage.ErrObjectNotFound
}

type brokenFetcher struct{}

func (brokenFetcher) Fetch(context.Context, string) ([]byte, error) {
	return nil, errors.New("bucket unreachable")
}

func TestDefault_EmbedsInputs(t *testing.T) {
	set := Default()

	a, err := set.Analysis("my bill is wrong")
	require.NoError(t, err)
	assert.Contains(t, a, `Text: "my bill is wrong"`)
	assert.Contains(t, a, "Intent classification")

	s, err := set.Suggestion("where is my order", models.SentimentAnalysis{Label: models.SentimentNegative, Urgency: models.UrgencyHigh})
	require.NoError(t, err)
	assert.Contains(t, s, "- Customer sentiment: negative")
	assert.Contains(t, s, "- Urgency level: high")
	assert.Contains(t, s, `Conversation transcript: "where is my order"`)
}

func TestLoad_Overrides(t *testing.T) {
	set, err := Load(context.Background(), mapFetcher{
		SuggestionObject: "Reply to {{.Transcript}} ({{.Label}}/{{.Urgency}})",
	})
	require.NoError(t, err)

	s, err := set.Suggestion("hi", models.NeutralSentiment())
	require.NoError(t, err)
	assert.Equal(t, "Reply to hi (neutral/low)", s)

	// analysis keeps the default
	a, err := set.Analysis("x")
	require.NoError(t, err)
	assert.Contains(t, a, "Analyze this customer service conversation text")
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(context.Background(), mapFetcher{AnalysisObject: "{{.Text"})
	assert.Error(t, err)

	_, err = Load(context.Background(), mapFetcher{AnalysisObject: "{{.Missing}}"})
	assert.Error(t, err)

	_, err = Load(context.Background(), brokenFetcher{})
	assert.Error(t, err)
}

func TestLoad_NilFetcher(t *testing.T) {
	set, err := Load(context.Background(), nil)
	require.NoError(t, err)
	assert.NotNil(t, set)
}
