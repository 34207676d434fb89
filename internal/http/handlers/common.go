package handlers

import (
	"net/http"

	intconfig "railbook/internal/config"
	"railbook/internal/http/middleware"

	"github.com/gin-gonic/gin"
)

var env intconfig.Env

// Configure stores runtime settings the handlers need (JWT secret, TTLs).
// Called once from router setup.
func Configure(e intconfig.Env) {
	env = e
}

// RespondError sends standard error payload with request_id included.
func RespondError(c *gin.Context, status int, message string, err error) {
	reqID := middleware.GetRequestID(c)
	payload := gin.H{
		"message":    message,
		"request_id": reqID,
	}
	if err != nil {
		payload["error"] = err.Error()
	}
	c.JSON(status, payload)
}

// BindJSONOrError ensures body is present and parsable.
func BindJSONOrError[T any](c *gin.Context, dst *T) bool {
	if c.Request.Body == nil {
		RespondError(c, http.StatusBadRequest, "empty body", nil)
		return false
	}
	if err := c.ShouldBindJSON(dst); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid payload", err)
		return false
	}
	return true
}
