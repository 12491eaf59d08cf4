package http

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"neuromatch/internal/service"
)

type MatchService interface {
	ListForUser(ctx context.Context, userID string) ([]service.MatchView, error)
}

// MatchHandler mantiene dependencias para endpoints de matches.
type MatchHandler struct {
	logger  *zap.Logger
	matches MatchService
}

func NewMatchHandler(logger *zap.Logger, matches MatchService) *MatchHandler {
	return &MatchHandler{logger: logger, matches: matches}
}

// ListMatches maneja GET /matches.
func (h *MatchHandler) ListMatches(c *gin.Context) {
	userID, ok := authUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	views, err := h.matches.ListForUser(c.Request.Context(), userID)
	if err != nil {
		h.logger.Error("list matches failed", zap.Error(err), zap.String("user_id", userID))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load matches"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"matches": views})
}
