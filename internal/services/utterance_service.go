package services

import (
	"context"
	"time"

	"github.com/yoockh/callassist/internal/models"
	mongorepo "github.com/yoockh/callassist/internal/repositories/mongo"
	"github.com/yoockh/callassist/internal/utils"
)

// UtteranceService keeps a short-lived processing log per utterance. It is
// operational data for the pipeline, not call history.
type UtteranceService interface {
	Record(ctx context.Context, callID string, seq int64, seg models.TranscriptSegment) (*models.UtteranceLog, error)
	MarkProcessing(ctx context.Context, callID string, seq int64) error
	MarkResult(ctx context.Context, callID string, seq int64, report AnalysisReport, processingMS int64) error
	MarkFailed(ctx context.Context, callID string, seq int64, reason string) error
	ListByCall(ctx context.Context, callID string, limit int64) ([]models.UtteranceLog, error)
}

type utteranceService struct {
	utterances mongorepo.UtteranceRepository
	ttl        time.Duration
}

func NewUtteranceService(utterances mongorepo.UtteranceRepository, ttl time.Duration) UtteranceService {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &utteranceService{utterances: utterances, ttl: ttl}
}

func (s *utteranceService) Record(ctx context.Context, callID string, seq int64, seg models.TranscriptSegment) (*models.UtteranceLog, error) {
	const op = "UtteranceService.Record"

	if callID == "" || seq <= 0 {
		return nil, utils.E(utils.CodeInvalidArgument, op, "call_id is required and sequence must be > 0", nil)
	}

	ts := seg.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	}
	doc := &models.UtteranceLog{
		CallID:         callID,
		Sequence:       seq,
		Speaker:        seg.Speaker,
		Text:           seg.Text,
		AnalysisStatus: models.StatusPending,
		Timestamp:      ts,
		ExpiresAt:      ts.Add(s.ttl),
	}

	if err := s.utterances.Insert(ctx, doc); err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to insert utterance", err)
	}
	return doc, nil
}

func (s *utteranceService) MarkProcessing(ctx context.Context, callID string, seq int64) error {
	const op = "UtteranceService.MarkProcessing"

	if callID == "" || seq <= 0 {
		return utils.E(utils.CodeInvalidArgument, op, "call_id and sequence (>0) are required", nil)
	}
	if err := s.utterances.MarkProcessing(ctx, callID, seq); err != nil {
		return utils.E(utils.CodeInternal, op, "failed to update status", err)
	}
	return nil
}

func (s *utteranceService) MarkResult(ctx context.Context, callID string, seq int64, report AnalysisReport, processingMS int64) error {
	const op = "UtteranceService.MarkResult"

	if callID == "" || seq <= 0 {
		return utils.E(utils.CodeInvalidArgument, op, "call_id and sequence (>0) are required", nil)
	}

	status := models.StatusDone
	remoteErr := ""
	if report.Path == PathFallback {
		status = models.StatusFallback
		if report.RemoteErr != nil {
			remoteErr = report.RemoteErr.Error()
		}
	}
	update := report.Update
	if err := s.utterances.MarkResult(ctx, callID, seq, status, &update, remoteErr, processingMS); err != nil {
		return utils.E(utils.CodeInternal, op, "failed to store analysis", err)
	}
	return nil
}

func (s *utteranceService) MarkFailed(ctx context.Context, callID string, seq int64, reason string) error {
	const op = "UtteranceService.MarkFailed"

	if callID == "" || seq <= 0 {
		return utils.E(utils.CodeInvalidArgument, op, "call_id and sequence (>0) are required", nil)
	}
	if err := s.utterances.MarkResult(ctx, callID, seq, models.StatusFailed, nil, reason, 0); err != nil {
		return utils.E(utils.CodeInternal, op, "failed to update status", err)
	}
	return nil
}

func (s *utteranceService) ListByCall(ctx context.Context, callID string, limit int64) ([]models.UtteranceLog, error) {
	const op = "UtteranceService.ListByCall"

	if callID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "call_id is required", nil)
	}
	out, err := s.utterances.ListByCall(ctx, callID, limit)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to list utterances", err)
	}
	if out == nil {
		out = []models.UtteranceLog{}
	}
	return out, nil
}

// NopUtteranceService is used when no Mongo database is configured.
type NopUtteranceService struct{}

func (NopUtteranceService) Record(_ context.Context, callID string, seq int64, seg models.TranscriptSegment) (*models.UtteranceLog, error) {
	return &models.UtteranceLog{CallID: callID, Sequence: seq, Speaker: seg.Speaker, Text: seg.Text, AnalysisStatus: models.StatusPending, Timestamp: seg.Timestamp}, nil
}

func (NopUtteranceService) MarkProcessing(context.Context, string, int64) error { return nil }

func (NopUtteranceService) MarkResult(context.Context, string, int64, AnalysisReport, int64) error {
	return nil
}

func (NopUtteranceService) MarkFailed(context.Context, string, int64, string) error { return nil }

func (NopUtteranceService) ListByCall(context.Context, string, int64) ([]models.UtteranceLog, error) {
	return []models.UtteranceLog{}, nil
}
