// Package auth provides the shared-secret middleware guarding the portal API.
// The portal is operated by a single business, so requests authenticate with
// one pre-shared key carried in the X-Portal-Key header. Only a bcrypt hash of
// the key lives in configuration.
package auth

import (
	"net/http"
	"strings"

	"coachportal_backend/platform/config"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
)

const headerPortalKey = "X-Portal-Key"

// Required returns middleware that validates the shared portal key.
// An empty configured hash disables the check (local development).
func Required(cfg config.AuthConfig) gin.HandlerFunc {
	hash := strings.TrimSpace(cfg.GetPortalKeyHash())

	return func(c *gin.Context) {
		if hash == "" {
			c.Next()
			return
		}

		key := strings.TrimSpace(c.GetHeader(headerPortalKey))
		if key == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing portal key"})
			return
		}

		if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(key)); err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid portal key"})
			return
		}

		c.Next()
	}
}
