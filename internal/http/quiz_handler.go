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

// QuizService es lo que el handler necesita del pipeline de entrega.
type QuizService interface {
	Questions(ctx context.Context) ([]domain.QuizQuestion, error)
	Submit(ctx context.Context, userID string, answers []domain.QuizAnswer) (service.SubmissionResult, error)
}

// QuizHandler mantiene dependencias para endpoints del quiz.
type QuizHandler struct {
	logger  *zap.Logger
	quiz    QuizService
	limiter service.SubmissionRateLimiter
}

// NewQuizHandler crea una instancia de QuizHandler. limiter puede ser nil.
func NewQuizHandler(logger *zap.Logger, quiz QuizService, limiter service.SubmissionRateLimiter) *QuizHandler {
	return &QuizHandler{
		logger:  logger,
		quiz:    quiz,
		limiter: limiter,
	}
}

// ListQuestions maneja GET /quiz/questions.
func (h *QuizHandler) ListQuestions(c *gin.Context) {
	questions, err := h.quiz.Questions(c.Request.Context())
	if err != nil {
		h.logger.Error("list questions failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load questions"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"questions": questions})
}

// Submit maneja POST /quiz/submit.
func (h *QuizHandler) Submit(c *gin.Context) {
	userID, ok := authUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req struct {
		Answers []domain.QuizAnswer `json:"answers" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid submit request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	if h.limiter != nil && !h.limiter.Allow(c.Request.Context(), userID) {
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "too many requests"})
		return
	}

	result, err := h.quiz.Submit(c.Request.Context(), userID, req.Answers)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidInput) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		h.logger.Error("quiz submit failed", zap.Error(err), zap.String("user_id", userID))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to process quiz, please try again"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"profileId": result.ProfileID,
		"state":     result.Analysis.State,
		"matches":   result.Matches,
	})
}
