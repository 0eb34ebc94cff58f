package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/makeups-api/internal/middleware"
	"github.com/noah-isme/makeups-api/internal/models"
	appErrors "github.com/noah-isme/makeups-api/pkg/errors"
)

// sessionFromContext returns the caller Session set by the JWT middleware.
func sessionFromContext(c *gin.Context) (models.Session, error) {
	value, exists := c.Get(middleware.ContextSessionKey)
	if !exists {
		return models.Session{}, appErrors.ErrUnauthorized
	}
	session, ok := value.(models.Session)
	if !ok || session.Email == "" {
		return models.Session{}, appErrors.ErrUnauthorized
	}
	return session, nil
}
