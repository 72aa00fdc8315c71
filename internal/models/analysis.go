package models

type SentimentLabel string

const (
	SentimentPositive SentimentLabel = "positive"
	SentimentNegative SentimentLabel = "negative"
	SentimentNeutral  SentimentLabel = "neutral"
)

type Urgency string

const (
	UrgencyLow    Urgency = "low"
	UrgencyMedium Urgency = "medium"
	UrgencyHigh   Urgency = "high"
)

// SentimentAnalysis is derived purely from text and never mutated after scoring.
type SentimentAnalysis struct {
	Score      float64        `json:"score" bson:"score"`           // [-1, 1]
	Label      SentimentLabel `json:"label" bson:"label"`           // positive|negative|neutral
	Confidence float64        `json:"confidence" bson:"confidence"` // [0, 1]
	Urgency    Urgency        `json:"urgency" bson:"urgency"`       // low|medium|high
}

// NeutralSentiment is the starting sentiment of every call.
func NeutralSentiment() SentimentAnalysis {
	return SentimentAnalysis{Score: 0, Label: SentimentNeutral, Confidence: 0, Urgency: UrgencyLow}
}

type Entity struct {
	Type       string  `json:"type" bson:"type"`
	Value      string  `json:"value" bson:"value"`
	Confidence float64 `json:"confidence" bson:"confidence"`
}

// AnalyticsUpdate is one incremental enrichment of a call. A nil pointer or nil
// slice means "absent" and leaves the aggregate untouched; an empty slice
// overwrites. Slices are encoded without omitempty so null and [] stay distinct.
type AnalyticsUpdate struct {
	Intent      *string            `json:"intent,omitempty" bson:"intent,omitempty"`
	Sentiment   *SentimentAnalysis `json:"sentiment,omitempty" bson:"sentiment,omitempty"`
	Topics      []string           `json:"topics" bson:"topics"`
	Entities    []Entity           `json:"entities" bson:"entities"`
	ActionItems []string           `json:"action_items" bson:"action_items"`
}

type SuggestionType string

const (
	SuggestionResponse   SuggestionType = "response"
	SuggestionAction     SuggestionType = "action"
	SuggestionEscalation SuggestionType = "escalation"
)

type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// MaxSuggestions bounds every batch handed to the UI.
const MaxSuggestions = 4

type Suggestion struct {
	Text     string         `json:"text"`
	Type     SuggestionType `json:"type"`
	Priority Priority       `json:"priority"`
}
