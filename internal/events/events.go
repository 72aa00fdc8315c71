package events

import (
	"context"
	"errors"
	"time"

	"github.com/yoockh/callassist/internal/models"
)

const (
	TypeStatus          = "status"
	TypeAnalyticsUpdate = "analytics_update"
	TypeSuggestions     = "suggestions"
	TypeTranscript      = "transcript"
	TypeCallEnded       = "call_ended"
	TypeError           = "error"
)

// Event is the envelope pushed to live clients and downstream consumers.
type Event struct {
	Type      string    `json:"type"`
	CallID    string    `json:"call_id"`
	Sequence  int64     `json:"sequence,omitempty"`
	Timestamp time.Time `json:"timestamp"`

	Status      string                    `json:"status,omitempty"`
	Message     string                    `json:"message,omitempty"`
	Path        string                    `json:"path,omitempty"`
	Analytics   *models.AnalyticsUpdate   `json:"analytics,omitempty"`
	Suggestions []models.Suggestion       `json:"suggestions,omitempty"`
	Segment     *models.TranscriptSegment `json:"segment,omitempty"`
}

func New(typ, callID string) Event {
	return Event{Type: typ, CallID: callID, Timestamp: time.Now().UTC()}
}

type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}

// Multi fans an event out to every publisher and joins their errors.
type Multi []Publisher

func (m Multi) Publish(ctx context.Context, ev Event) error {
	var errs []error
	for _, p := range m {
		if p == nil {
			continue
		}
		if err := p.Publish(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Nop drops every event.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }
