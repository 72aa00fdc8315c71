package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yoockh/callassist/internal/api/handlers"
	"github.com/yoockh/callassist/internal/api/middleware"
)

type Deps struct {
	Auth gin.HandlerFunc

	Calls     *handlers.CallHandler
	Analysis  *handlers.AnalysisHandler
	Knowledge *handlers.KnowledgeHandler
	Admin     *handlers.AdminHandler
	WS        *handlers.WSHandler

	Metrics http.Handler
}

func RegisterRoutes(r *gin.Engine, d Deps) {
	// Health-ish
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "pong"})
	})
	if d.Metrics != nil {
		r.GET("/metrics", gin.WrapH(d.Metrics))
	}

	// Protected routes (JWT)
	v1 := r.Group("/v1")
	v1.Use(d.Auth)

	v1.POST("/analyze", d.Analysis.Analyze)
	v1.POST("/suggestions", d.Analysis.Suggest)
	v1.GET("/knowledge", d.Knowledge.Search)

	v1.POST("/calls", d.Calls.Start)
	v1.GET("/calls/:call_id", d.Calls.Get)
	v1.POST("/calls/:call_id/end", d.Calls.End)
	v1.POST("/calls/:call_id/utterances", d.Calls.Ingest)
	v1.GET("/calls/:call_id/utterances", d.Calls.ListUtterances)

	// WebSocket
	v1.GET("/ws/calls/:call_id", d.WS.CallWS)

	admin := v1.Group("/admin")
	admin.Use(middleware.RequireAdmin())
	admin.GET("/lexicon", d.Admin.Lexicon)
}
