package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yoockh/callassist/internal/cache"
	"github.com/yoockh/callassist/internal/models"
	"github.com/yoockh/callassist/internal/utils"
)

func newTestCallState() CallStateService {
	return NewCallStateService(cache.NewMemory(), time.Hour)
}

func TestCallState_StartAndGet(t *testing.T) {
	ctx := context.Background()
	svc := newTestCallState()

	st, err := svc.Start(ctx, "agent-1")
	require.NoError(t, err)
	assert.NotEmpty(t, st.CallID)
	assert.True(t, st.IsActive)
	assert.Equal(t, models.NeutralSentiment(), st.Sentiment)

	got, err := svc.Get(ctx, st.CallID)
	require.NoError(t, err)
	assert.Equal(t, "agent-1", got.AgentID)

	_, err = svc.Get(ctx, "missing")
	assert.True(t, utils.IsCode(err, utils.CodeNotFound))

	_, err = svc.Start(ctx, " ")
	assert.True(t, utils.IsCode(err, utils.CodeInvalidArgument))
}

func TestCallState_Authorize(t *testing.T) {
	ctx := context.Background()
	svc := newTestCallState()
	st, _ := svc.Start(ctx, "agent-1")

	_, err := svc.Authorize(ctx, st.CallID, "agent-1")
	assert.NoError(t, err)

	_, err = svc.Authorize(ctx, st.CallID, "agent-2")
	assert.True(t, utils.IsCode(err, utils.CodeForbidden))
}

func TestCallState_AppendSegment(t *testing.T) {
	ctx := context.Background()
	svc := newTestCallState()
	st, _ := svc.Start(ctx, "agent-1")

	seq, cur, err := svc.AppendSegment(ctx, st.CallID, models.TranscriptSegment{Text: "hello", Speaker: models.SpeakerAgent})
	require.NoError(t, err)
	assert.Equal(t, int64(1), seq)

	seq, cur, err = svc.AppendSegment(ctx, st.CallID, models.TranscriptSegment{Text: "my bill is wrong"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), seq)
	assert.Equal(t, models.SpeakerCustomer, cur.Transcript[1].Speaker)
	assert.Equal(t, "agent: hello\ncustomer: my bill is wrong", cur.TranscriptText())

	_, _, err = svc.AppendSegment(ctx, st.CallID, models.TranscriptSegment{Text: "x", Speaker: "robot"})
	assert.True(t, utils.IsCode(err, utils.CodeInvalidArgument))

	_, _, err = svc.AppendSegment(ctx, "missing", models.TranscriptSegment{Text: "x"})
	assert.True(t, utils.IsCode(err, utils.CodeNotFound))
}

func TestCallState_ApplyMergesPresentFieldsOnly(t *testing.T) {
	ctx := context.Background()
	svc := newTestCallState()
	st, _ := svc.Start(ctx, "agent-1")

	intent := "complaint"
	neg := models.SentimentAnalysis{Score: -0.3, Label: models.SentimentNegative, Confidence: 0.2, Urgency: models.UrgencyLow}
	_, _, err := svc.Apply(ctx, st.CallID, 1, models.AnalyticsUpdate{
		Intent:      &intent,
		Sentiment:   &neg,
		Topics:      []string{"billing"},
		ActionItems: []string{"I need to follow up"},
	})
	require.NoError(t, err)

	// only topics present: everything else is left alone
	cur, _, err := svc.Apply(ctx, st.CallID, 2, models.AnalyticsUpdate{Topics: []string{}})
	require.NoError(t, err)
	assert.Equal(t, "complaint", cur.Intent)
	assert.Equal(t, neg, cur.Sentiment)
	assert.Equal(t, []string{}, cur.Topics)
	assert.Equal(t, []string{"I need to follow up"}, cur.ActionItems)
}

func TestCallState_End(t *testing.T) {
	ctx := context.Background()
	svc := newTestCallState()
	st, _ := svc.Start(ctx, "agent-1")

	ended, err := svc.End(ctx, st.CallID)
	require.NoError(t, err)
	assert.False(t, ended.IsActive)
	require.NotNil(t, ended.EndedAt)

	_, _, err = svc.AppendSegment(ctx, st.CallID, models.TranscriptSegment{Text: "late"})
	assert.True(t, utils.IsCode(err, utils.CodeConflict))

	// analyses queued before the end still land
	intent := "support_request"
	_, applied, err := svc.Apply(ctx, st.CallID, 1, models.AnalyticsUpdate{Intent: &intent})
	assert.NoError(t, err)
	assert.True(t, applied)
}

func TestCallState_ApplyDropsOlderUtterance(t *testing.T) {
	ctx := context.Background()
	svc := newTestCallState()
	st, _ := svc.Start(ctx, "agent-1")

	newer, older := "support_request", "purchase_intent"
	neg := models.SentimentAnalysis{Score: -0.6, Label: models.SentimentNegative, Confidence: 0.8, Urgency: models.UrgencyHigh}

	cur, applied, err := svc.Apply(ctx, st.CallID, 2, models.AnalyticsUpdate{Intent: &newer, Sentiment: &neg})
	require.NoError(t, err)
	assert.True(t, applied)
	assert.Equal(t, int64(2), cur.LastAppliedSeq)

	// utterance 1 finished late
	pos := models.SentimentAnalysis{Score: 0.5, Label: models.SentimentPositive, Confidence: 0.4, Urgency: models.UrgencyLow}
	cur, applied, err = svc.Apply(ctx, st.CallID, 1, models.AnalyticsUpdate{Intent: &older, Sentiment: &pos, Topics: []string{"product"}})
	require.NoError(t, err)
	assert.False(t, applied)
	assert.Equal(t, newer, cur.Intent)

	stored, err := svc.Get(ctx, st.CallID)
	require.NoError(t, err)
	assert.Equal(t, newer, stored.Intent)
	assert.Equal(t, neg, stored.Sentiment)
	assert.Equal(t, []string{}, stored.Topics)
	assert.Equal(t, int64(2), stored.LastAppliedSeq)

	// redelivery of the newest analysis and unsequenced updates still apply
	_, applied, err = svc.Apply(ctx, st.CallID, 2, models.AnalyticsUpdate{Topics: []string{"billing"}})
	require.NoError(t, err)
	assert.True(t, applied)
	cur, applied, err = svc.Apply(ctx, st.CallID, 0, models.AnalyticsUpdate{Intent: &older})
	require.NoError(t, err)
	assert.True(t, applied)
	assert.Equal(t, int64(2), cur.LastAppliedSeq)
}
