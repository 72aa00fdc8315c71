package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// quietPaths are polled by health checks and scrapers and only logged at debug.
var quietPaths = map[string]bool{"/ping": true, "/metrics": true}

func RequestLogger(l *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		reqID := c.GetHeader("X-Request-Id")
		if reqID == "" {
			reqID = uuid.NewString()
		}
		c.Header("X-Request-Id", reqID)
		c.Set("request_id", reqID)

		c.Next()

		status := c.Writer.Status()
		fields := logrus.Fields{
			"request_id": reqID,
			"method":     c.Request.Method,
			"path":       c.FullPath(),
			"status":     status,
			"latency_ms": time.Since(start).Milliseconds(),
			"ip":         c.ClientIP(),
		}
		if agent := c.GetString("user_id"); agent != "" {
			fields["agent_id"] = agent
		}
		if callID := c.Param("call_id"); callID != "" {
			fields["call_id"] = callID
		}
		if c.IsWebsocket() {
			// latency is the lifetime of the socket
			fields["websocket"] = true
		}
		entry := l.WithFields(fields)
		if len(c.Errors) > 0 {
			entry = entry.WithField("errors", c.Errors.String())
		}

		switch {
		case status >= 500:
			entry.Error("request")
		case status >= 400:
			entry.Warn("request")
		case quietPaths[c.FullPath()]:
			entry.Debug("request")
		default:
			entry.Info("request")
		}
	}
}
