package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/yoockh/callassist/internal/cache"
	"github.com/yoockh/callassist/internal/models"
	"github.com/yoockh/callassist/internal/utils"
)

// CallStateService owns the live aggregate of each call. State is kept in the
// cache only, so it disappears once the TTL lapses after the last write.
type CallStateService interface {
	Start(ctx context.Context, agentID string) (*models.CallState, error)
	Get(ctx context.Context, callID string) (*models.CallState, error)
	// Authorize returns the call if agentID owns it.
	Authorize(ctx context.Context, callID, agentID string) (*models.CallState, error)
	// AppendSegment returns the 1-based position of the new segment.
	AppendSegment(ctx context.Context, callID string, seg models.TranscriptSegment) (int64, *models.CallState, error)
	// Apply merges u, the analysis of utterance seq. applied is false when a
	// newer utterance's analysis is already in place; the state is unchanged.
	Apply(ctx context.Context, callID string, seq int64, u models.AnalyticsUpdate) (st *models.CallState, applied bool, err error)
	End(ctx context.Context, callID string) (*models.CallState, error)
}

type callStateService struct {
	cache cache.Cache
	ttl   time.Duration
	now   func() time.Time
}

func NewCallStateService(c cache.Cache, ttl time.Duration) CallStateService {
	if ttl <= 0 {
		ttl = 2 * time.Hour
	}
	return &callStateService{cache: c, ttl: ttl, now: func() time.Time { return time.Now().UTC() }}
}

func CallStateKey(callID string) string { return "call:" + callID + ":state" }

var (
	errCallMissing = errors.New("call state missing")
	errSuperseded  = errors.New("analysis superseded")
)

func (s *callStateService) Start(ctx context.Context, agentID string) (*models.CallState, error) {
	const op = "CallStateService.Start"

	if strings.TrimSpace(agentID) == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "agent_id is required", nil)
	}

	st := models.NewCallState(uuid.NewString(), agentID, s.now())
	if err := s.cache.SetJSON(ctx, CallStateKey(st.CallID), st, s.ttl); err != nil {
		return nil, utils.E(utils.CodeUnavailable, op, "failed to store call state", err)
	}
	return st, nil
}

func (s *callStateService) Get(ctx context.Context, callID string) (*models.CallState, error) {
	const op = "CallStateService.Get"

	if callID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "call_id is required", nil)
	}

	var st models.CallState
	hit, err := s.cache.GetJSON(ctx, CallStateKey(callID), &st)
	if err != nil {
		return nil, utils.E(utils.CodeUnavailable, op, "failed to read call state", err)
	}
	if !hit {
		return nil, utils.E(utils.CodeNotFound, op, "call not found", utils.ErrNotFound)
	}
	return &st, nil
}

func (s *callStateService) Authorize(ctx context.Context, callID, agentID string) (*models.CallState, error) {
	st, err := s.Get(ctx, callID)
	if err != nil {
		return nil, err
	}
	if st.AgentID != agentID {
		return nil, utils.E(utils.CodeForbidden, "CallStateService.Authorize", "forbidden", nil)
	}
	return st, nil
}

func (s *callStateService) AppendSegment(ctx context.Context, callID string, seg models.TranscriptSegment) (int64, *models.CallState, error) {
	const op = "CallStateService.AppendSegment"

	if callID == "" || strings.TrimSpace(seg.Text) == "" {
		return 0, nil, utils.E(utils.CodeInvalidArgument, op, "call_id and text are required", nil)
	}
	switch seg.Speaker {
	case models.SpeakerAgent, models.SpeakerCustomer:
	case "":
		seg.Speaker = models.SpeakerCustomer
	default:
		return 0, nil, utils.E(utils.CodeInvalidArgument, op, "speaker must be agent or customer", nil)
	}
	if seg.Timestamp.IsZero() {
		seg.Timestamp = s.now()
	}

	var st models.CallState
	errEnded := errors.New("call ended")
	err := s.cache.UpdateJSON(ctx, CallStateKey(callID), &st, s.ttl, func(found bool) error {
		if !found {
			return errCallMissing
		}
		if !st.IsActive {
			return errEnded
		}
		st.AppendSegment(seg)
		return nil
	})
	switch {
	case errors.Is(err, errCallMissing):
		return 0, nil, utils.E(utils.CodeNotFound, op, "call not found", utils.ErrNotFound)
	case errors.Is(err, errEnded):
		return 0, nil, utils.E(utils.CodeConflict, op, "call has ended", nil)
	case err != nil:
		return 0, nil, utils.E(utils.CodeUnavailable, op, "failed to append transcript", err)
	}
	return int64(len(st.Transcript)), &st, nil
}

// Apply merges u into the stored state. Ended calls still accept updates so
// that analyses queued before the end are not lost.
func (s *callStateService) Apply(ctx context.Context, callID string, seq int64, u models.AnalyticsUpdate) (*models.CallState, bool, error) {
	const op = "CallStateService.Apply"

	if callID == "" || seq < 0 {
		return nil, false, utils.E(utils.CodeInvalidArgument, op, "call_id is required and sequence must be >= 0", nil)
	}

	var st models.CallState
	err := s.cache.UpdateJSON(ctx, CallStateKey(callID), &st, s.ttl, func(found bool) error {
		if !found {
			return errCallMissing
		}
		if !st.Apply(seq, u, s.now()) {
			return errSuperseded
		}
		return nil
	})
	switch {
	case errors.Is(err, errSuperseded):
		return &st, false, nil
	case errors.Is(err, errCallMissing):
		return nil, false, utils.E(utils.CodeNotFound, op, "call not found", utils.ErrNotFound)
	case err != nil:
		return nil, false, utils.E(utils.CodeUnavailable, op, "failed to apply analytics", err)
	}
	return &st, true, nil
}

func (s *callStateService) End(ctx context.Context, callID string) (*models.CallState, error) {
	const op = "CallStateService.End"

	if callID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "call_id is required", nil)
	}

	var st models.CallState
	err := s.cache.UpdateJSON(ctx, CallStateKey(callID), &st, s.ttl, func(found bool) error {
		if !found {
			return errCallMissing
		}
		if st.IsActive {
			st.End(s.now())
		}
		return nil
	})
	if errors.Is(err, errCallMissing) {
		return nil, utils.E(utils.CodeNotFound, op, "call not found", utils.ErrNotFound)
	}
	if err != nil {
		return nil, utils.E(utils.CodeUnavailable, op, "failed to end call", err)
	}
	return &st, nil
}
