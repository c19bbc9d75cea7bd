package server

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"
	"time"

	"auction-market/internal/auth"
	"auction-market/services/auction/helpers"
	"auction-market/utils"

	"github.com/gin-gonic/gin"
)

// WebhookSecretHeader carries the shared secret of provider callbacks
const WebhookSecretHeader = "X-Webhook-Secret"

// RequestLoggerMiddleware logs incoming requests with timing
func RequestLoggerMiddleware(c *gin.Context) {
	start := time.Now()

	c.Next() // process request

	utils.Info("HTTP Request", map[string]any{
		"method":  c.Request.Method,
		"path":    c.Request.URL.Path,
		"status":  c.Writer.Status(),
		"latency": time.Since(start).String(),
		"user_id": c.GetString(helpers.ContextUserID),
	})
}

// AuthMiddleware verifies the bearer token and stores the caller identity
func AuthMiddleware(secret, issuer string) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, found := strings.CutPrefix(header, "Bearer ")
		if !found || token == "" {
			utils.JSONAbort(c, http.StatusUnauthorized, errors.New("missing bearer token"), "authentication required")
			return
		}

		claims, err := auth.ParseToken(secret, issuer, token)
		if err != nil {
			utils.JSONAbort(c, http.StatusUnauthorized, err, "authentication required")
			return
		}

		c.Set(helpers.ContextUserID, claims.Subject)
		c.Set(helpers.ContextRole, claims.Role)
		c.Next()
	}
}

// RequireRole rejects callers without the given role
func RequireRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetString(helpers.ContextRole) != role {
			utils.JSONAbort(c, http.StatusForbidden, errors.New("insufficient role"), "not allowed for this resource")
			return
		}
		c.Next()
	}
}

// WebhookSecretMiddleware authenticates provider callbacks. Without a
// configured secret every callback is refused.
func WebhookSecretMiddleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if secret == "" {
			utils.JSONAbort(c, http.StatusServiceUnavailable, errors.New("webhook secret not configured"), "payment notifications are disabled")
			return
		}
		got := c.GetHeader(WebhookSecretHeader)
		if subtle.ConstantTimeCompare([]byte(got), []byte(secret)) != 1 {
			utils.JSONAbort(c, http.StatusUnauthorized, errors.New("invalid webhook secret"), "authentication required")
			return
		}
		c.Next()
	}
}
