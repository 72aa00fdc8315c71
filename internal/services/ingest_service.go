package services

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/yoockh/callassist/internal/events"
	"github.com/yoockh/callassist/internal/models"
	"github.com/yoockh/callassist/internal/utils"
)

// UtteranceJob is one unit of work for the analysis workers.
type UtteranceJob struct {
	CallID   string
	Sequence int64
	Speaker  models.Speaker
	Text     string
	TSUnix   int64
}

type UtteranceQueue interface {
	Enqueue(ctx context.Context, job UtteranceJob) error
}

type IngestResult struct {
	Sequence int64             `json:"sequence"`
	State    *models.CallState `json:"-"`
}

// IngestService accepts transcript text for a live call: the segment is
// appended to call state, logged, and queued for analysis.
type IngestService interface {
	Ingest(ctx context.Context, callID string, seg models.TranscriptSegment) (*IngestResult, error)
}

type ingestService struct {
	calls      CallStateService
	utterances UtteranceService
	queue      UtteranceQueue
	events     events.Publisher
	log        *logrus.Entry
}

func NewIngestService(calls CallStateService, utterances UtteranceService, queue UtteranceQueue, pub events.Publisher, logger *logrus.Logger) IngestService {
	if utterances == nil {
		utterances = NopUtteranceService{}
	}
	if pub == nil {
		pub = events.Nop{}
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &ingestService{
		calls:      calls,
		utterances: utterances,
		queue:      queue,
		events:     pub,
		log:        logger.WithField("component", "ingest"),
	}
}

func (s *ingestService) Ingest(ctx context.Context, callID string, seg models.TranscriptSegment) (*IngestResult, error) {
	const op = "IngestService.Ingest"

	seq, st, err := s.calls.AppendSegment(ctx, callID, seg)
	if err != nil {
		return nil, err
	}
	seg = st.Transcript[len(st.Transcript)-1]

	log := s.log.WithFields(logrus.Fields{"call_id": callID, "sequence": seq})

	if _, err := s.utterances.Record(ctx, callID, seq, seg); err != nil {
		log.WithError(err).Warn("utterance log insert failed")
	}

	job := UtteranceJob{
		CallID:   callID,
		Sequence: seq,
		Speaker:  seg.Speaker,
		Text:     seg.Text,
		TSUnix:   seg.Timestamp.Unix(),
	}
	if err := s.queue.Enqueue(ctx, job); err != nil {
		_ = s.utterances.MarkFailed(ctx, callID, seq, "enqueue failed")
		return nil, utils.E(utils.CodeUnavailable, op, "failed to enqueue utterance", err)
	}

	ev := events.New(events.TypeTranscript, callID)
	ev.Sequence = seq
	ev.Segment = &seg
	if err := s.events.Publish(ctx, ev); err != nil {
		log.WithError(err).Debug("transcript event publish failed")
	}

	return &IngestResult{Sequence: seq, State: st}, nil
}
