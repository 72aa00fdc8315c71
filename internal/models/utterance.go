package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusDone       = "done"
	StatusFallback   = "fallback" // local path used after a remote failure
	StatusFailed     = "failed"
	// StatusSuperseded: analyzed, but a newer utterance's result was already applied.
	StatusSuperseded = "superseded"
)

// UtteranceLog tracks processing of one utterance. Documents expire via the
// TTL index on expires_at.
type UtteranceLog struct {
	ID       primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	CallID   string             `bson:"call_id" json:"call_id"`
	Sequence int64              `bson:"sequence" json:"sequence"`
	Speaker  Speaker            `bson:"speaker" json:"speaker"`
	Text     string             `bson:"text" json:"text"`

	AnalysisStatus string           `bson:"analysis_status" json:"analysis_status"` // pending|processing|done|fallback|failed|superseded
	Analysis       *AnalyticsUpdate `bson:"analysis,omitempty" json:"analysis,omitempty"`
	RemoteError    string           `bson:"remote_error,omitempty" json:"remote_error,omitempty"`

	ProcessingTimeMS int64     `bson:"processing_time_ms,omitempty" json:"processing_time_ms,omitempty"`
	Timestamp        time.Time `bson:"timestamp" json:"timestamp"`

	ExpiresAt time.Time `bson:"expires_at" json:"expires_at"`
}
