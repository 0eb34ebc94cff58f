package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/makeups-api/internal/models"
	appErrors "github.com/noah-isme/makeups-api/pkg/errors"
	"github.com/noah-isme/makeups-api/pkg/response"
)

const (
	// ContextUserKey is the gin context key storing JWT claims.
	ContextUserKey = "currentUser"
	// ContextSessionKey is the gin context key storing the caller Session.
	ContextSessionKey = "currentSession"
)

type sessionVerifier interface {
	Session(tokenString string) (models.Session, *models.JWTClaims, error)
}

// JWT protects routes by requiring a valid access token.
func JWT(verifier sessionVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "invalid authorization header"))
			c.Abort()
			return
		}

		session, claims, err := verifier.Session(strings.TrimSpace(parts[1]))
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}

		c.Set(ContextUserKey, claims)
		c.Set(ContextSessionKey, session)
		c.Next()
	}
}
