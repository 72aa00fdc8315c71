package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yoockh/callassist/internal/models"
	"github.com/yoockh/callassist/internal/services"
)

// AnalysisHandler exposes the pipeline statelessly, without a call.
type AnalysisHandler struct {
	analysis    services.AnalysisService
	suggestions services.SuggestionService
}

func NewAnalysisHandler(analysis services.AnalysisService, suggestions services.SuggestionService) *AnalysisHandler {
	return &AnalysisHandler{analysis: analysis, suggestions: suggestions}
}

type AnalyzeRequest struct {
	Text string `json:"text"`
}

type AnalyzeResponse struct {
	models.AnalyticsUpdate
	Path   string                   `json:"path"`
	Remote *services.RemoteInsights `json:"remote,omitempty"`
	// RemoteErrorKind is set on the fallback path.
	RemoteErrorKind string `json:"remote_error_kind,omitempty"`
}

func (h *AnalysisHandler) Analyze(c *gin.Context) {
	var req AnalyzeRequest
	if !bindJSON(c, "AnalysisHandler.Analyze", &req) {
		return
	}

	rep := h.analysis.AnalyzeDetailed(c.Request.Context(), req.Text)
	c.JSON(http.StatusOK, AnalyzeResponse{
		AnalyticsUpdate: rep.Update,
		Path:            rep.Path,
		Remote:          rep.Remote,
		RemoteErrorKind: string(rep.RemoteErrorKind),
	})
}

type SuggestRequest struct {
	Text      string                    `json:"text"`
	Sentiment *models.SentimentAnalysis `json:"sentiment"`
}

// Suggest scores the text locally when the caller sends no sentiment.
func (h *AnalysisHandler) Suggest(c *gin.Context) {
	var req SuggestRequest
	if !bindJSON(c, "AnalysisHandler.Suggest", &req) {
		return
	}

	var sentiment models.SentimentAnalysis
	if req.Sentiment != nil {
		sentiment = *req.Sentiment
	} else {
		sentiment = h.analysis.Sentiment(req.Text)
	}

	c.JSON(http.StatusOK, gin.H{
		"suggestions": h.suggestions.Generate(c.Request.Context(), req.Text, sentiment),
	})
}
