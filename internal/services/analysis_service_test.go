package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yoockh/callassist/internal/models"
	"github.com/yoockh/callassist/internal/providers/llm"
)

func TestAnalyze_RemoteSuccessKeepsLocalSentiment(t *testing.T) {
	p := &fakeProvider{out: "Sentiment: Positive\nIntent: praise\nUrgency: low"}
	svc := newTestAnalysis(NewRemoteAnalysisClient(p, nil, time.Second))

	rep := svc.AnalyzeDetailed(context.Background(), "This is urgent, my bill is wrong and I am furious")
	assert.Equal(t, PathRemote, rep.Path)
	require.NotNil(t, rep.Remote)
	assert.Equal(t, "Positive", rep.Remote.Sentiment)

	u := rep.Update
	require.NotNil(t, u.Sentiment)
	assert.Equal(t, models.SentimentNegative, u.Sentiment.Label)
	assert.Equal(t, models.UrgencyHigh, u.Sentiment.Urgency)
	require.NotNil(t, u.Intent)
	assert.Equal(t, "complaint", *u.Intent)
	assert.Contains(t, u.Topics, "billing")
	assert.NotNil(t, u.Entities)
	assert.Empty(t, u.Entities)
}

func TestAnalyze_FallbackOnRemoteFailure(t *testing.T) {
	p := &fakeProvider{err: errors.New("quota exceeded")}
	svc := newTestAnalysis(NewRemoteAnalysisClient(p, nil, time.Second))

	text := "I need to buy a new plan. Please call back tomorrow!"
	rep := svc.AnalyzeDetailed(context.Background(), text)
	assert.Equal(t, PathFallback, rep.Path)
	assert.Error(t, rep.RemoteErr)
	assert.Equal(t, llm.KindNetwork, rep.RemoteErrorKind)
	assert.Nil(t, rep.Remote)

	u := rep.Update
	require.NotNil(t, u.Intent)
	assert.Equal(t, "purchase_intent", *u.Intent)
	assert.Equal(t, []string{"I need to buy a new plan", "Please call back tomorrow"}, u.ActionItems)
	require.NotNil(t, u.Sentiment)
}

func TestAnalyze_SameFieldsOnEveryPath(t *testing.T) {
	text := "The product is great, thanks for the help"

	ok := newTestAnalysis(NewRemoteAnalysisClient(&fakeProvider{out: "Intent: other"}, nil, time.Second)).Analyze(context.Background(), text)
	failed := newTestAnalysis(NewRemoteAnalysisClient(&fakeProvider{err: errors.New("down")}, nil, time.Second)).Analyze(context.Background(), text)
	none := newTestAnalysis(nil).Analyze(context.Background(), text)

	assert.Equal(t, ok, failed)
	assert.Equal(t, ok, none)
}

func TestAnalyze_BlankTextSkipsRemote(t *testing.T) {
	p := &fakeProvider{out: "x"}
	svc := newTestAnalysis(NewRemoteAnalysisClient(p, nil, time.Second))

	rep := svc.AnalyzeDetailed(context.Background(), "   ")
	assert.Equal(t, PathLocal, rep.Path)
	assert.Zero(t, p.callCount())

	require.NotNil(t, rep.Update.Sentiment)
	assert.Equal(t, models.NeutralSentiment(), *rep.Update.Sentiment)
	require.NotNil(t, rep.Update.Intent)
	assert.Equal(t, "general_inquiry", *rep.Update.Intent)
	assert.Equal(t, []string{}, rep.Update.Topics)
	assert.Equal(t, []string{}, rep.Update.ActionItems)
}

func TestAnalysisService_SentimentIsLocal(t *testing.T) {
	p := &fakeProvider{}
	svc := newTestAnalysis(NewRemoteAnalysisClient(p, nil, time.Second))

	got := svc.Sentiment("this is excellent")
	assert.Equal(t, models.SentimentPositive, got.Label)
	assert.Zero(t, p.callCount())
}

func TestAnalyze_NoProviderReportsKind(t *testing.T) {
	rep := newTestAnalysis(nil).AnalyzeDetailed(context.Background(), "where is my order")
	assert.Equal(t, PathFallback, rep.Path)
	assert.Equal(t, llm.KindNotConfigured, rep.RemoteErrorKind)
}
