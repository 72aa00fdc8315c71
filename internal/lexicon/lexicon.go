package lexicon

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Strengths groups sentiment terms by weight class.
type Strengths struct {
	High   []string `json:"high"`
	Medium []string `json:"medium"`
	Low    []string `json:"low"`
}

type Modifiers struct {
	Intensifiers []string `json:"intensifiers"`
	Diminishers  []string `json:"diminishers"`
}

// Rule maps a label to the keywords that select it.
type Rule struct {
	Label    string   `json:"label"`
	Keywords []string `json:"keywords"`
}

// Lexicon holds every lexical table used by the scorer and the classifier.
// It is loaded once at startup and shared read-only.
type Lexicon struct {
	Version       string    `json:"version"`
	Positive      Strengths `json:"positive"`
	Negative      Strengths `json:"negative"`
	Modifiers     Modifiers `json:"modifiers"`
	UrgentTerms   []string  `json:"urgent_terms"`
	Intents       []Rule    `json:"intents"` // ordered, first match wins
	DefaultIntent string    `json:"default_intent"`
	Topics        []Rule    `json:"topics"`
	ActionPhrases []string  `json:"action_phrases"`
}

// Default returns the built-in tables.
func Default() *Lexicon {
	return &Lexicon{
		Version: "builtin",
		Positive: Strengths{
			High:   []string{"excellent", "amazing", "outstanding", "perfect", "delighted"},
			Medium: []string{"happy", "good", "satisfied", "pleased", "thank you"},
			Low:    []string{"okay", "fine", "alright", "not bad"},
		},
		Negative: Strengths{
			High:   []string{"terrible", "awful", "furious", "outraged", "unacceptable"},
			Medium: []string{"unhappy", "frustrated", "disappointed", "annoyed"},
			Low:    []string{"concerned", "uncertain", "confused", "unsure"},
		},
		Modifiers: Modifiers{
			Intensifiers: []string{"very", "extremely", "really", "absolutely", "completely"},
			Diminishers:  []string{"somewhat", "kind of", "slightly", "a bit", "rather"},
		},
		UrgentTerms: []string{"immediately", "urgent", "asap", "emergency", "critical"},
		Intents: []Rule{
			{Label: "support_request", Keywords: []string{"help", "support", "assist", "issue", "problem"}},
			{Label: "purchase_intent", Keywords: []string{"buy", "purchase", "order", "interested in", "price"}},
			{Label: "complaint", Keywords: []string{"complaint", "unhappy", "dissatisfied", "refund", "wrong"}},
			{Label: "information_request", Keywords: []string{"how to", "what is", "tell me about", "explain"}},
		},
		DefaultIntent: "general_inquiry",
		Topics: []Rule{
			{Label: "billing", Keywords: []string{"payment", "bill", "charge", "cost", "price"}},
			{Label: "technical_support", Keywords: []string{"error", "bug", "issue", "broken", "not working"}},
			{Label: "account_management", Keywords: []string{"account", "login", "password", "access", "profile"}},
			{Label: "product_inquiry", Keywords: []string{"product", "service", "feature", "work", "function"}},
			{Label: "feedback", Keywords: []string{"suggest", "feedback", "improve", "better", "enhancement"}},
		},
		ActionPhrases: []string{
			"need to", "should", "will", "must", "have to",
			"going to", "plan to", "follow up", "schedule", "call back",
		},
	}
}

// Parse decodes a JSON document. Tables missing from the document keep their
// built-in values so a partial override stays usable.
func Parse(data []byte) (*Lexicon, error) {
	lex := Default()
	lex.Version = ""
	if err := json.Unmarshal(data, lex); err != nil {
		return nil, fmt.Errorf("lexicon: invalid json: %w", err)
	}
	if lex.Version == "" {
		lex.Version = "custom"
	}
	if err := lex.Validate(); err != nil {
		return nil, err
	}
	return lex, nil
}

func (l *Lexicon) Validate() error {
	if l == nil {
		return errors.New("lexicon: nil")
	}
	if strings.TrimSpace(l.DefaultIntent) == "" {
		return errors.New("lexicon: default_intent is required")
	}
	if err := validateRules("intents", l.Intents); err != nil {
		return err
	}
	if err := validateRules("topics", l.Topics); err != nil {
		return err
	}
	if len(l.Positive.High)+len(l.Positive.Medium)+len(l.Positive.Low) == 0 {
		return errors.New("lexicon: positive terms are empty")
	}
	if len(l.Negative.High)+len(l.Negative.Medium)+len(l.Negative.Low) == 0 {
		return errors.New("lexicon: negative terms are empty")
	}
	return nil
}

func validateRules(name string, rules []Rule) error {
	seen := make(map[string]struct{}, len(rules))
	for i, r := range rules {
		label := strings.TrimSpace(r.Label)
		if label == "" {
			return fmt.Errorf("lexicon: %s[%d] has no label", name, i)
		}
		if len(r.Keywords) == 0 {
			return fmt.Errorf("lexicon: %s[%s] has no keywords", name, label)
		}
		if _, dup := seen[label]; dup {
			return fmt.Errorf("lexicon: duplicate %s label %q", name, label)
		}
		seen[label] = struct{}{}
	}
	return nil
}
