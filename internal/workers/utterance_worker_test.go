package workers

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yoockh/callassist/internal/cache"
	"github.com/yoockh/callassist/internal/events"
	"github.com/yoockh/callassist/internal/lexicon"
	"github.com/yoockh/callassist/internal/models"
	"github.com/yoockh/callassist/internal/nlp"
	"github.com/yoockh/callassist/internal/services"
)

func newTestLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	l.SetLevel(logrus.ErrorLevel)
	return l
}

type recorder struct {
	mu  sync.Mutex
	got []events.Event
}

func (r *recorder) Publish(_ context.Context, ev events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.got = append(r.got, ev)
	return nil
}

func (r *recorder) ofType(typ string) []events.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []events.Event
	for _, ev := range r.got {
		if ev.Type == typ {
			out = append(out, ev)
		}
	}
	return out
}

// slowAnalysis delays the analysis of the listed texts.
type slowAnalysis struct {
	services.AnalysisService
	delay map[string]time.Duration
	all   time.Duration
}

func (s slowAnalysis) AnalyzeDetailed(ctx context.Context, text string) services.AnalysisReport {
	d, ok := s.delay[text]
	if !ok {
		d = s.all
	}
	time.Sleep(d)
	return s.AnalysisService.AnalyzeDetailed(ctx, text)
}

func (r *recorder) statusOf(seq int64) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	last := ""
	for _, ev := range r.got {
		if ev.Type == events.TypeStatus && ev.Sequence == seq {
			last = ev.Status
		}
	}
	return last
}

func newTestProcessor(rec *recorder) (*Processor, services.CallStateService) {
	lex := lexicon.Default()
	calls := services.NewCallStateService(cache.NewMemory(), time.Hour)
	return &Processor{
		Analysis:   services.NewAnalysisService(nlp.NewScorer(lex), nlp.NewClassifier(lex), nil, newTestLogger()),
		Calls:      calls,
		Utterances: services.NopUtteranceService{},
		Events:     rec,
		Logger:     newTestLogger(),
	}, calls
}

func TestProcessor_AppliesAndPublishes(t *testing.T) {
	ctx := context.Background()
	rec := &recorder{}
	p, calls := newTestProcessor(rec)

	st, err := calls.Start(ctx, "agent-1")
	require.NoError(t, err)

	err = p.Process(ctx, services.UtteranceJob{CallID: st.CallID, Sequence: 1, Text: "I am very unhappy and the payment failed"})
	require.NoError(t, err)

	cur, err := calls.Get(ctx, st.CallID)
	require.NoError(t, err)
	assert.Equal(t, "complaint", cur.Intent)
	assert.Equal(t, models.SentimentNegative, cur.Sentiment.Label)
	assert.Equal(t, []string{"billing"}, cur.Topics)

	updates := rec.ofType(events.TypeAnalyticsUpdate)
	require.Len(t, updates, 1)
	assert.Equal(t, services.PathFallback, updates[0].Path)
	assert.Equal(t, int64(1), updates[0].Sequence)

	statuses := rec.ofType(events.TypeStatus)
	require.Len(t, statuses, 2)
	assert.Equal(t, models.StatusProcessing, statuses[0].Status)
	assert.Equal(t, models.StatusFallback, statuses[1].Status)
}

func TestProcessor_MissingCall(t *testing.T) {
	rec := &recorder{}
	p, _ := newTestProcessor(rec)

	err := p.Process(context.Background(), services.UtteranceJob{CallID: "gone", Sequence: 1, Text: "hello"})
	assert.Error(t, err)
	assert.Empty(t, rec.ofType(events.TypeAnalyticsUpdate))

	statuses := rec.ofType(events.TypeStatus)
	require.NotEmpty(t, statuses)
	assert.Equal(t, models.StatusFailed, statuses[len(statuses)-1].Status)
}

func TestJobValuesRoundTrip(t *testing.T) {
	in := services.UtteranceJob{CallID: "c1", Sequence: 7, Speaker: models.SpeakerAgent, Text: "hi", TSUnix: 1700000000}

	// redis hands values back as strings
	values := map[string]any{}
	for k, v := range jobValues(in) {
		values[k] = v
	}
	out, ok := jobFromValues(values)
	require.True(t, ok)
	assert.Equal(t, in, out)

	_, ok = jobFromValues(map[string]any{"call_id": "c1", "sequence": "0"})
	assert.False(t, ok)
	_, ok = jobFromValues(map[string]any{"sequence": "3"})
	assert.False(t, ok)
}

func TestInlineQueue(t *testing.T) {
	ctx := context.Background()
	rec := &recorder{}
	p, calls := newTestProcessor(rec)
	st, _ := calls.Start(ctx, "agent-1")

	q := NewInlineQueue(ctx, p, 1)
	require.NoError(t, q.Enqueue(ctx, services.UtteranceJob{CallID: st.CallID, Sequence: 1, Text: "I want to buy the product"}))

	require.Eventually(t, func() bool {
		cur, err := calls.Get(ctx, st.CallID)
		return err == nil && cur.Intent == "purchase_intent"
	}, time.Second, 5*time.Millisecond)
}

func TestInlineQueue_BurstBeyondWorkers(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rec := &recorder{}
	p, calls := newTestProcessor(rec)
	p.Analysis = slowAnalysis{AnalysisService: p.Analysis, all: 50 * time.Millisecond}
	ingest := services.NewIngestService(calls, nil, NewInlineQueue(ctx, p, 5), rec, newTestLogger())

	st, err := calls.Start(ctx, "agent-1")
	require.NoError(t, err)

	const burst = 8
	for i := 0; i < burst; i++ {
		res, err := ingest.Ingest(ctx, st.CallID, models.TranscriptSegment{Text: "I need help with my order"})
		require.NoError(t, err, "utterance %d", i+1)
		assert.Equal(t, int64(i+1), res.Sequence)
	}

	require.Eventually(t, func() bool {
		done := 0
		for seq := int64(1); seq <= burst; seq++ {
			switch rec.statusOf(seq) {
			case models.StatusFallback, models.StatusSuperseded:
				done++
			}
		}
		return done == burst
	}, 5*time.Second, 10*time.Millisecond)

	cur, err := calls.Get(ctx, st.CallID)
	require.NoError(t, err)
	assert.Len(t, cur.Transcript, burst)
	assert.Equal(t, int64(burst), cur.LastAppliedSeq)
}

func TestInlineQueue_LateAnalysisDoesNotOverwrite(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	const older, newer = "I want to buy the product", "I need help with an issue"

	rec := &recorder{}
	p, calls := newTestProcessor(rec)
	p.Analysis = slowAnalysis{AnalysisService: p.Analysis, delay: map[string]time.Duration{older: 300 * time.Millisecond}}
	ingest := services.NewIngestService(calls, nil, NewInlineQueue(ctx, p, 2), rec, newTestLogger())

	st, err := calls.Start(ctx, "agent-1")
	require.NoError(t, err)
	_, err = ingest.Ingest(ctx, st.CallID, models.TranscriptSegment{Text: older})
	require.NoError(t, err)
	_, err = ingest.Ingest(ctx, st.CallID, models.TranscriptSegment{Text: newer})
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return rec.statusOf(1) == models.StatusSuperseded
	}, 2*time.Second, 10*time.Millisecond)

	cur, err := calls.Get(ctx, st.CallID)
	require.NoError(t, err)
	assert.Equal(t, "support_request", cur.Intent)
	assert.Equal(t, int64(2), cur.LastAppliedSeq)

	// only the newer analysis reaches subscribers
	updates := rec.ofType(events.TypeAnalyticsUpdate)
	require.Len(t, updates, 1)
	assert.Equal(t, int64(2), updates[0].Sequence)
}

func TestInlineQueue_Closed(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	rec := &recorder{}
	p, _ := newTestProcessor(rec)
	q := NewInlineQueue(ctx, p, 1)
	cancel()

	err := q.Enqueue(context.Background(), services.UtteranceJob{CallID: "c1", Sequence: 1, Text: "hi"})
	assert.ErrorIs(t, err, ErrQueueClosed)
}
