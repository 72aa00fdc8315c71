package models

import (
	"strings"
	"time"
)

type Speaker string

const (
	SpeakerAgent    Speaker = "agent"
	SpeakerCustomer Speaker = "customer"
)

type TranscriptSegment struct {
	Text      string    `json:"text"`
	Speaker   Speaker   `json:"speaker"`
	Timestamp time.Time `json:"timestamp"`
}

// CallState is the running aggregate of a live call. It is kept in the cache
// with a TTL and is not a history record.
type CallState struct {
	CallID   string `json:"call_id"`
	AgentID  string `json:"agent_id"`
	IsActive bool   `json:"is_active"`
	Intent   string `json:"intent"`

	Sentiment   SentimentAnalysis   `json:"sentiment"`
	Entities    []Entity            `json:"entities"`
	ActionItems []string            `json:"action_items"`
	Topics      []string            `json:"topics"`
	Transcript  []TranscriptSegment `json:"transcript"`

	// LastAppliedSeq is the sequence of the newest utterance whose analysis
	// has been merged.
	LastAppliedSeq int64 `json:"last_applied_seq"`

	StartedAt time.Time  `json:"started_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	EndedAt   *time.Time `json:"ended_at,omitempty"`
}

func NewCallState(callID, agentID string, now time.Time) *CallState {
	return &CallState{
		CallID:      callID,
		AgentID:     agentID,
		IsActive:    true,
		Sentiment:   NeutralSentiment(),
		Entities:    []Entity{},
		ActionItems: []string{},
		Topics:      []string{},
		Transcript:  []TranscriptSegment{},
		StartedAt:   now,
		UpdatedAt:   now,
	}
}

// Apply merges the present fields of u into s, last write wins per field.
// An update for an utterance older than LastAppliedSeq is dropped and Apply
// reports false. seq 0 marks an update that is not tied to an utterance.
func (s *CallState) Apply(seq int64, u AnalyticsUpdate, now time.Time) bool {
	if seq > 0 {
		if seq < s.LastAppliedSeq {
			return false
		}
		s.LastAppliedSeq = seq
	}
	if u.Intent != nil {
		s.Intent = *u.Intent
	}
	if u.Sentiment != nil {
		s.Sentiment = *u.Sentiment
	}
	if u.Topics != nil {
		s.Topics = append([]string{}, u.Topics...)
	}
	if u.Entities != nil {
		s.Entities = append([]Entity{}, u.Entities...)
	}
	if u.ActionItems != nil {
		s.ActionItems = append([]string{}, u.ActionItems...)
	}
	s.UpdatedAt = now
	return true
}

func (s *CallState) AppendSegment(seg TranscriptSegment) {
	s.Transcript = append(s.Transcript, seg)
	s.UpdatedAt = seg.Timestamp
}

// TranscriptText joins the segments the way the dashboard renders them.
func (s *CallState) TranscriptText() string {
	var b strings.Builder
	for i, seg := range s.Transcript {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(string(seg.Speaker))
		b.WriteString(": ")
		b.WriteString(seg.Text)
	}
	return b.String()
}

func (s *CallState) End(now time.Time) {
	s.IsActive = false
	s.EndedAt = &now
	s.UpdatedAt = now
}
