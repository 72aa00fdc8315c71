package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yoockh/callassist/internal/lexicon"
)

type AdminHandler struct {
	lex    *lexicon.Lexicon
	source string
}

func NewAdminHandler(lex *lexicon.Lexicon, source string) *AdminHandler {
	return &AdminHandler{lex: lex, source: source}
}

// Lexicon returns the tables the scorer and classifier were built from.
func (h *AdminHandler) Lexicon(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"source":  h.source,
		"version": h.lex.Version,
		"lexicon": h.lex,
	})
}
