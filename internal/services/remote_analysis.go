package services

import (
	"context"
	"strings"
	"time"

	"github.com/yoockh/callassist/internal/metrics"
	"github.com/yoockh/callassist/internal/prompts"
	"github.com/yoockh/callassist/internal/providers/llm"
)

// RemoteAnalysisClient makes one best-effort language model call per
// utterance. Every failure comes back as a fallback trigger (see
// llm.IsFallbackTrigger); nothing is retried.
type RemoteAnalysisClient interface {
	Analyze(ctx context.Context, text string) (string, error)
}

type remoteAnalysisClient struct {
	provider llm.Provider
	prompts  *prompts.Set
	timeout  time.Duration
}

func NewRemoteAnalysisClient(provider llm.Provider, set *prompts.Set, timeout time.Duration) RemoteAnalysisClient {
	if set == nil {
		set = prompts.Default()
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &remoteAnalysisClient{provider: provider, prompts: set, timeout: timeout}
}

func (c *remoteAnalysisClient) Analyze(ctx context.Context, text string) (string, error) {
	const op = "RemoteAnalysisClient.Analyze"

	prompt, err := c.prompts.Analysis(text)
	if err != nil {
		return "", &llm.ParseFailure{Op: op, Reason: "prompt render: " + err.Error()}
	}
	return complete(ctx, c.provider, "analysis", op, prompt, c.timeout)
}

// complete runs a single provider call under timeout and records its outcome.
func complete(ctx context.Context, p llm.Provider, metricOp, op, prompt string, timeout time.Duration) (string, error) {
	if p == nil {
		metrics.RemoteCalls.WithLabelValues(metricOp, "disabled").Inc()
		return "", llm.ErrNoProvider
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	out, err := p.Complete(ctx, prompt)
	metrics.RemoteLatency.WithLabelValues(metricOp).Observe(time.Since(start).Seconds())

	if err != nil {
		err = llm.Wrap(p.Name(), err, nil)
		metrics.RemoteCalls.WithLabelValues(metricOp, string(llm.KindOf(err))).Inc()
		return "", err
	}
	if strings.TrimSpace(out) == "" {
		metrics.RemoteCalls.WithLabelValues(metricOp, string(llm.KindMalformed)).Inc()
		return "", &llm.ParseFailure{Op: op, Reason: "empty response"}
	}
	metrics.RemoteCalls.WithLabelValues(metricOp, "ok").Inc()
	return out, nil
}

// RemoteInsights is what could be read out of a free-text analysis answer.
// It is reported but never merged into call state.
type RemoteInsights struct {
	Sentiment   string   `json:"sentiment,omitempty"`
	Urgency     string   `json:"urgency,omitempty"`
	Intent      string   `json:"intent,omitempty"`
	Topics      []string `json:"topics,omitempty"`
	ActionItems []string `json:"action_items,omitempty"`
}

func (r RemoteInsights) Empty() bool {
	return r.Sentiment == "" && r.Urgency == "" && r.Intent == "" && len(r.Topics) == 0 && len(r.ActionItems) == 0
}

// ParseInsights reads "Key: value" lines. List keys also collect the bullet
// lines that follow them.
func ParseInsights(raw string) RemoteInsights {
	var out RemoteInsights
	var list *[]string

	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		bullet := strings.HasPrefix(line, "-") || strings.HasPrefix(line, "*") || strings.HasPrefix(line, "•")
		clean := strings.TrimSpace(strings.Trim(line, "-*•# "))
		clean = strings.ReplaceAll(clean, "**", "")

		key, value, hasKey := strings.Cut(clean, ":")
		field := insightField(key)
		if hasKey && field != "" {
			value = strings.TrimSpace(value)
			list = nil
			switch field {
			case "sentiment":
				out.Sentiment = value
			case "urgency":
				out.Urgency = value
			case "intent":
				out.Intent = value
			case "topics":
				list = &out.Topics
				appendCSV(list, value)
			case "action_items":
				list = &out.ActionItems
				appendCSV(list, value)
			}
			continue
		}
		if bullet && list != nil && clean != "" {
			*list = append(*list, clean)
		}
	}
	return out
}

func insightField(key string) string {
	k := strings.ToLower(strings.TrimSpace(key))
	switch {
	case strings.HasSuffix(k, "urgency level") || k == "urgency" || k == "customer urgency":
		return "urgency"
	case strings.HasPrefix(k, "sentiment"):
		return "sentiment"
	case strings.HasPrefix(k, "intent"):
		return "intent"
	case k == "topics" || k == "key topics":
		return "topics"
	case k == "action items":
		return "action_items"
	}
	return ""
}

func appendCSV(dst *[]string, value string) {
	for _, v := range strings.Split(value, ",") {
		if v = strings.TrimSpace(v); v != "" {
			*dst = append(*dst, v)
		}
	}
}
