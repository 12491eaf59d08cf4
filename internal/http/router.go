package http

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"neuromatch/internal/service"
)

// NewRouter configura el router de Gin con middlewares y rutas.
// metricsHandler puede ser nil.
func NewRouter(
	logger *zap.Logger,
	jwtSvc *service.JWTService,
	quizH *QuizHandler,
	matchH *MatchHandler,
	profileH *ProfileHandler,
	metricsHandler http.Handler,
) *gin.Engine {
	r := gin.New()

	r.Use(zapLoggerMiddleware(logger), gin.Recovery(), corsMiddleware())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if metricsHandler != nil {
		r.GET("/metrics", gin.WrapH(metricsHandler))
	}

	api := r.Group("", jsonContentTypeMiddleware())
	api.GET("/quiz/questions", quizH.ListQuestions)

	authed := api.Group("", JWTAuthMiddleware(jwtSvc))
	authed.POST("/quiz/submit", quizH.Submit)
	authed.GET("/matches", matchH.ListMatches)
	authed.GET("/me", profileH.GetMe)

	return r
}

// zapLoggerMiddleware crea un middleware simple de logging con zap.
func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		)
	}
}

// jsonContentTypeMiddleware fuerza Content-Type: application/json en responses.
func jsonContentTypeMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Content-Type", "application/json")
		c.Next()
	}
}

// corsMiddleware acepta cualquier origen con los headers que manda el cliente web.
func corsMiddleware() gin.HandlerFunc {
	return cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:    []string{"Authorization", "X-Client-Info", "Apikey", "Content-Type"},
		MaxAge:          12 * time.Hour,
	})
}
