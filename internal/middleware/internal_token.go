package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"studiomarket/internal/pkg/logger"
	"studiomarket/internal/pkg/response"
)

// InternalToken protects internal endpoints (maintenance triggers, cron
// callers) with a static bearer token.
func InternalToken(expected string, log *logrus.Logger) gin.HandlerFunc {
	log = logger.OrDiscard(log)
	return func(c *gin.Context) {
		fail := func(status int, code, message, reason string) {
			log.WithFields(logrus.Fields{
				"status":     status,
				"reason":     reason,
				"client_ip":  c.ClientIP(),
				"request_id": requestID(c),
			}).Warn("internal auth rejected")
			response.Abort(c, status, code, message)
		}

		if expected == "" {
			fail(http.StatusInternalServerError, "INTERNAL_ERROR", "Internal token is not configured", "token_not_configured")
			return
		}

		header := c.GetHeader("Authorization")
		if header == "" {
			fail(http.StatusUnauthorized, "AUTH_MISSING", "Authorization header is required", "missing_auth")
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			fail(http.StatusUnauthorized, "AUTH_INVALID", "Authorization header must be 'Bearer <token>'", "invalid_auth_format")
			return
		}

		if subtle.ConstantTimeCompare([]byte(parts[1]), []byte(expected)) != 1 {
			fail(http.StatusForbidden, "AUTH_INVALID", "Invalid internal token", "invalid_token")
			return
		}

		c.Next()
	}
}
