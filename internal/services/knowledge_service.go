package services

import (
	"context"
	"strings"

	"github.com/yoockh/callassist/internal/utils"
)

type KnowledgeArticle struct {
	ID      string  `json:"id"`
	Title   string  `json:"title"`
	Snippet string  `json:"snippet"`
	Score   float64 `json:"score"`
}

// KnowledgeService looks up reference material for the agent. There is no
// backing index yet, so every lookup is empty.
type KnowledgeService interface {
	Relevant(ctx context.Context, query string) ([]KnowledgeArticle, error)
}

type knowledgeService struct{}

func NewKnowledgeService() KnowledgeService {
	return knowledgeService{}
}

func (knowledgeService) Relevant(_ context.Context, query string) ([]KnowledgeArticle, error) {
	const op = "KnowledgeService.Relevant"

	if strings.TrimSpace(query) == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "query is required", nil)
	}
	return []KnowledgeArticle{}, nil
}
