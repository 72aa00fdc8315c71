package services

import (
	"context"
	"io"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/yoockh/callassist/internal/lexicon"
	"github.com/yoockh/callassist/internal/nlp"
)

func newTestLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	l.SetLevel(logrus.ErrorLevel)
	return l
}

// fakeProvider is a scripted llm.Provider.
type fakeProvider struct {
	mu      sync.Mutex
	out     string
	err     error
	calls   int
	prompts []string
	hadDL   bool
}

func (f *fakeProvider) Complete(ctx context.Context, prompt string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.prompts = append(f.prompts, prompt)
	_, f.hadDL = ctx.Deadline()
	return f.out, f.err
}

func (f *fakeProvider) Name() string { return "fake" }
func (f *fakeProvider) Close() error { return nil }

func (f *fakeProvider) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func newTestAnalysis(remote RemoteAnalysisClient) AnalysisService {
	lex := lexicon.Default()
	return NewAnalysisService(nlp.NewScorer(lex), nlp.NewClassifier(lex), remote, newTestLogger())
}
