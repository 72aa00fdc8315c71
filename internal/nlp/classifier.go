package nlp

import (
	"regexp"
	"strings"

	"github.com/yoockh/callassist/internal/lexicon"
)

var sentenceBreak = regexp.MustCompile(`[.!?]+`)

type Classification struct {
	Intent      string   `json:"intent"`
	Topics      []string `json:"topics"`
	ActionItems []string `json:"action_items"`
}

type rule struct {
	label    string
	keywords []string
}

// Classifier assigns intent, topics and action items by substring matching.
type Classifier struct {
	intents       []rule
	defaultIntent string
	topics        []rule
	actionPhrases []string
}

func NewClassifier(lex *lexicon.Lexicon) *Classifier {
	return &Classifier{
		intents:       compileRules(lex.Intents),
		defaultIntent: lex.DefaultIntent,
		topics:        compileRules(lex.Topics),
		actionPhrases: lowerAll(lex.ActionPhrases),
	}
}

func (c *Classifier) Classify(text string) Classification {
	lower := strings.ToLower(text)
	return Classification{
		Intent:      c.Intent(lower),
		Topics:      c.Topics(lower),
		ActionItems: c.ActionItems(text),
	}
}

// Intent returns the first intent in table order with a matching keyword.
func (c *Classifier) Intent(text string) string {
	lower := strings.ToLower(text)
	for _, r := range c.intents {
		if containsAny(lower, r.keywords) {
			return r.label
		}
	}
	return c.defaultIntent
}

// Topics returns every matching category, each once, in table order.
func (c *Classifier) Topics(text string) []string {
	lower := strings.ToLower(text)
	out := []string{}
	seen := make(map[string]struct{}, len(c.topics))
	for _, r := range c.topics {
		if _, ok := seen[r.label]; ok {
			continue
		}
		if containsAny(lower, r.keywords) {
			seen[r.label] = struct{}{}
			out = append(out, r.label)
		}
	}
	return out
}

// ActionItems returns the trimmed sentences that contain an action phrase.
func (c *Classifier) ActionItems(text string) []string {
	out := []string{}
	for _, seg := range sentenceBreak.Split(text, -1) {
		sentence := strings.TrimSpace(seg)
		if sentence == "" {
			continue
		}
		if containsAny(strings.ToLower(sentence), c.actionPhrases) {
			out = append(out, sentence)
		}
	}
	return out
}

func compileRules(in []lexicon.Rule) []rule {
	out := make([]rule, 0, len(in))
	for _, r := range in {
		out = append(out, rule{label: r.Label, keywords: lowerAll(r.Keywords)})
	}
	return out
}

func lowerAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		out = append(out, strings.ToLower(s))
	}
	return out
}

func containsAny(text string, terms []string) bool {
	for _, t := range terms {
		if t != "" && strings.Contains(text, t) {
			return true
		}
	}
	return false
}
