package services

import (
	"context"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/yoockh/callassist/internal/metrics"
	"github.com/yoockh/callassist/internal/models"
	"github.com/yoockh/callassist/internal/nlp"
	"github.com/yoockh/callassist/internal/providers/llm"
)

const (
	PathRemote   = "remote"
	PathFallback = "fallback"
	PathLocal    = "local" // blank input, no remote call attempted
)

// AnalysisReport is an AnalyticsUpdate plus how it was produced.
type AnalysisReport struct {
	Update    models.AnalyticsUpdate `json:"update"`
	Path      string                 `json:"path"`
	Remote    *RemoteInsights        `json:"remote,omitempty"`
	RemoteErr error                  `json:"-"`
	// RemoteErrorKind says why the fallback path was taken.
	RemoteErrorKind llm.FailureKind `json:"remote_error_kind,omitempty"`
}

type AnalysisService interface {
	Analyze(ctx context.Context, text string) models.AnalyticsUpdate
	AnalyzeDetailed(ctx context.Context, text string) AnalysisReport
	// Sentiment scores text locally without a remote call.
	Sentiment(text string) models.SentimentAnalysis
}

type analysisService struct {
	scorer     *nlp.Scorer
	classifier *nlp.Classifier
	remote     RemoteAnalysisClient
	log        *logrus.Entry
}

// NewAnalysisService combines local scoring with an optional remote call.
// remote may be nil, in which case every analysis takes the fallback path.
func NewAnalysisService(scorer *nlp.Scorer, classifier *nlp.Classifier, remote RemoteAnalysisClient, logger *logrus.Logger) AnalysisService {
	if logger == nil {
		logger = logrus.New()
	}
	return &analysisService{
		scorer:     scorer,
		classifier: classifier,
		remote:     remote,
		log:        logger.WithField("component", "analysis"),
	}
}

func (s *analysisService) Sentiment(text string) models.SentimentAnalysis {
	return s.scorer.Score(text)
}

func (s *analysisService) Analyze(ctx context.Context, text string) models.AnalyticsUpdate {
	return s.AnalyzeDetailed(ctx, text).Update
}

// AnalyzeDetailed never fails. Local sentiment is authoritative on every path;
// the remote answer is parsed and reported but not merged.
func (s *analysisService) AnalyzeDetailed(ctx context.Context, text string) AnalysisReport {
	sentiment := s.scorer.Score(text)
	cls := s.classifier.Classify(text)

	report := AnalysisReport{
		Update: models.AnalyticsUpdate{
			Intent:      &cls.Intent,
			Sentiment:   &sentiment,
			Topics:      cls.Topics,
			Entities:    []models.Entity{},
			ActionItems: cls.ActionItems,
		},
		Path: PathLocal,
	}

	if strings.TrimSpace(text) == "" {
		metrics.Analyses.WithLabelValues(PathLocal).Inc()
		return report
	}

	raw, err := s.analyzeRemote(ctx, text)
	if err != nil {
		report.Path = PathFallback
		report.RemoteErr = err
		report.RemoteErrorKind = llm.KindOf(err)
		s.log.WithError(err).Debug("remote analysis unavailable, using local classifier")
	} else {
		insights := ParseInsights(raw)
		report.Path = PathRemote
		report.Remote = &insights
		s.log.WithFields(logrus.Fields{
			"remote_intent":    insights.Intent,
			"remote_sentiment": insights.Sentiment,
			"local_label":      sentiment.Label,
		}).Debug("remote analysis received")
	}

	metrics.Analyses.WithLabelValues(report.Path).Inc()
	return report
}

func (s *analysisService) analyzeRemote(ctx context.Context, text string) (string, error) {
	if s.remote == nil {
		return "", llm.ErrNoProvider
	}
	return s.remote.Analyze(ctx, text)
}
