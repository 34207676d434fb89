package middleware

import (
	"fmt"
	"time"

	"railbook/internal/utils"

	"github.com/gin-gonic/gin"
)

// Logger emits one line per request through the shared event logger, tagged
// with the request id so a booking flow can be traced across handlers.
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		utils.LogEvent(GetRequestID(c), "http", c.Request.Method,
			fmt.Sprintf("path=%s status=%d latency_ms=%.3f ip=%s",
				c.Request.URL.Path,
				c.Writer.Status(),
				float64(time.Since(start).Microseconds())/1000.0,
				c.ClientIP()))
	}
}
