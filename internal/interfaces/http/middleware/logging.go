// Package middleware holds the gin middleware of the HTTP API.
package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Qubut/IP-Claim/internal/infrastructure/monitoring/logging"
	"github.com/Qubut/IP-Claim/internal/infrastructure/monitoring/prometheus"
	"github.com/Qubut/IP-Claim/pkg/errors"
)

// skipPaths are high-frequency endpoints excluded from request logging.
var skipPaths = map[string]struct{}{
	"/healthz": {},
	"/readyz":  {},
	"/metrics": {},
}

// RequestLogging logs one line per request and records HTTP metrics.  5xx
// responses log at error level, 4xx at warn.
func RequestLogging(log logging.Logger, metrics *prometheus.Metrics) gin.HandlerFunc {
	log = log.Named("http")
	return func(c *gin.Context) {
		started := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		if _, skip := skipPaths[path]; skip {
			return
		}

		elapsed := time.Since(started)
		status := c.Writer.Status()

		if metrics != nil {
			metrics.RecordHTTPRequest(c.Request.Method, path, status, elapsed)
		}

		fields := []logging.Field{
			logging.String("method", c.Request.Method),
			logging.String("path", path),
			logging.Int("status", status),
			logging.Duration("elapsed", elapsed),
			logging.String("client_ip", c.ClientIP()),
		}
		switch {
		case status >= 500:
			log.Error("request failed", fields...)
		case status >= 400:
			log.Warn("request rejected", fields...)
		default:
			log.Info("request served", fields...)
		}
	}
}

// Recovery converts panics into 500 responses with a logged stack location.
func Recovery(log logging.Logger) gin.HandlerFunc {
	log = log.Named("http")
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				log.Error("panic recovered",
					logging.String("path", c.Request.URL.Path),
					logging.Any("panic", r))
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"code":    errors.ErrCodeInternal.String(),
					"message": "internal server error",
				})
			}
		}()
		c.Next()
	}
}
