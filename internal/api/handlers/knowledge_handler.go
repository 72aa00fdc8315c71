package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yoockh/callassist/internal/services"
)

type KnowledgeHandler struct {
	svc services.KnowledgeService
}

func NewKnowledgeHandler(svc services.KnowledgeService) *KnowledgeHandler {
	return &KnowledgeHandler{svc: svc}
}

func (h *KnowledgeHandler) Search(c *gin.Context) {
	q := c.Query("q")
	out, err := h.svc.Relevant(c.Request.Context(), q)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"query": q, "articles": out})
}
