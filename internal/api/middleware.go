package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"marketplace/internal/models"
	"marketplace/internal/redisclient"
	"marketplace/internal/util"

	"github.com/gin-gonic/gin"
)

const sessionContextKey = "session"

// corsMiddleware puts a permissive allow-origin header on every
// response and answers OPTIONS preflights with 200 and no body.
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")

		if c.Request.Method == http.MethodOptions {
			c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, OPTIONS")
			c.Header("Access-Control-Allow-Headers", "Content-Type, X-User-Token")
			c.Header("Access-Control-Max-Age", "86400")
			c.AbortWithStatus(http.StatusOK)
			return
		}

		c.Next()
	}
}

// requireUser resolves the X-User-Token header to a session and aborts
// with 401 when it is missing or stale.
func (h *Handler) requireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.GetHeader("X-User-Token")
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Missing token"})
			return
		}

		sess, err := h.authService.ValidateToken(c.Request.Context(), token)
		if err != nil {
			if errors.Is(err, redisclient.ErrSessionNotFound) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
				return
			}
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to validate token"})
			return
		}

		c.Set(sessionContextKey, sess)
	}
}

// requireAdmin additionally rejects sessions without the admin flag.
// requireUser does not advance the chain itself, so calling it inline
// here only resolves the session.
func (h *Handler) requireAdmin() gin.HandlerFunc {
	validate := h.requireUser()
	return func(c *gin.Context) {
		validate(c)
		if c.IsAborted() {
			return
		}

		if sess := sessionFrom(c); sess == nil || !sess.IsAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Admin access required"})
			return
		}
	}
}

func sessionFrom(c *gin.Context) *models.Session {
	val, ok := c.Get(sessionContextKey)
	if !ok {
		return nil
	}
	sess, _ := val.(*models.Session)
	return sess
}

// prometheusMiddleware collects HTTP metrics
func prometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())

		util.HTTPRequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Observe(duration)

		util.HTTPRequestsTotal.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Inc()
	}
}
