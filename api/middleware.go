package api

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/userdeck/userdeck/pkg/types"
	"github.com/userdeck/userdeck/pkg/users"
)

// loggingMiddleware provides request logging
func (s *Server) loggingMiddleware() gin.HandlerFunc {
	return gin.LoggerWithFormatter(func(param gin.LogFormatterParams) string {
		// Log using our structured logger
		s.logger.Info("HTTP Request", map[string]interface{}{
			"method":      param.Method,
			"path":        param.Path,
			"status_code": param.StatusCode,
			"latency":     param.Latency,
			"client_ip":   param.ClientIP,
			"request_id":  param.Keys["request_id"],
		})
		return ""
	})
}

// requestIDMiddleware adds a unique request ID to each request. An inbound
// X-Request-ID is honored so upstream correlation ids survive the hop.
func (s *Server) requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(types.RequestIDHeader)
		if requestID == "" {
			requestID = uuid.New().String()
		}
		c.Set("request_id", requestID)
		c.Header(types.RequestIDHeader, requestID)
		c.Next()
	}
}

// requireAuth verifies the bearer token and stashes the account it names.
// Every rejection carries the same message, whatever the actual reason.
func (s *Server) requireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c.GetHeader("Authorization"))
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, types.Fail(http.StatusUnauthorized, "invalid credentials"))
			return
		}

		user, err := s.auth.VerifyToken(token)
		if err != nil {
			s.respondError(c, err)
			c.Abort()
			return
		}

		c.Set("current_user", user)
		c.Next()
	}
}

// bearerToken extracts the token from an Authorization header value
func bearerToken(header string) string {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// metricsMiddleware records request counters and latencies
func (s *Server) metricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		duration := time.Since(start)

		// The route template keeps series cardinality bounded
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}

		s.metrics.Counter("http_requests_total", 1, map[string]string{
			"method": c.Request.Method,
			"path":   path,
			"status": strconv.Itoa(c.Writer.Status()),
		})
		s.metrics.Timer("http_request_duration_ms", float64(duration.Milliseconds()), map[string]string{
			"method": c.Request.Method,
			"path":   path,
		})
	}
}

// currentUser returns the account stashed by requireAuth
func currentUser(c *gin.Context) *users.User {
	if v, exists := c.Get("current_user"); exists {
		if u, ok := v.(*users.User); ok {
			return u
		}
	}
	return nil
}
