package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"neuromatch/internal/domain"
	"neuromatch/internal/service"
)

type ProfileService interface {
	Me(ctx context.Context, userID string) (service.ProfileView, error)
}

// ProfileHandler mantiene dependencias para endpoints del perfil propio.
type ProfileHandler struct {
	logger   *zap.Logger
	profiles ProfileService
}

func NewProfileHandler(logger *zap.Logger, profiles ProfileService) *ProfileHandler {
	return &ProfileHandler{logger: logger, profiles: profiles}
}

// GetMe maneja GET /me.
func (h *ProfileHandler) GetMe(c *gin.Context) {
	userID, ok := authUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	view, err := h.profiles.Me(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "profile not found"})
			return
		}
		h.logger.Error("get profile failed", zap.Error(err), zap.String("user_id", userID))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load profile"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"profile": view})
}
