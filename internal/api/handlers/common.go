package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yoockh/callassist/internal/utils"
)

type APIError struct {
	Code    utils.Code `json:"code"`
	Message string     `json:"message"`
}

// writeError renders err as an APIError. Server-side failures are also
// attached to the context so the request logger records the cause.
func writeError(c *gin.Context, err error) {
	status := utils.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		_ = c.Error(err)
	}

	var ae *utils.AppError
	if errors.As(err, &ae) {
		c.JSON(status, APIError{Code: ae.Code, Message: ae.Message})
		return
	}
	c.JSON(status, APIError{Code: utils.CodeInternal, Message: http.StatusText(status)})
}

// bindJSON decodes the request body into dst or writes a 400.
func bindJSON(c *gin.Context, op string, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, op, "invalid request body", err))
		return false
	}
	return true
}

// requireUserID returns the agent id set by the auth middleware.
func requireUserID(c *gin.Context) (string, bool) {
	if s := c.GetString("user_id"); s != "" {
		return s, true
	}
	writeError(c, utils.E(utils.CodeUnauthorized, "Auth", "unauthorized", nil))
	return "", false
}
