package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"neuromatch/internal/config"
	"neuromatch/internal/db"
	apihttp "neuromatch/internal/http"
	"neuromatch/internal/llm"
	"neuromatch/internal/matching"
	"neuromatch/internal/metrics"
	"neuromatch/internal/repository"
	"neuromatch/internal/service"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := godotenv.Load(); err != nil {
		log.Printf("warning: loading .env: %v", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		panic(err)
	}

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		logger.Fatal("db connect", zap.Error(err))
	}
	defer pool.Close()

	if cfg.DBAutoMigrate {
		if err := db.Migrate(ctx, pool); err != nil {
			logger.Fatal("db migrate", zap.Error(err))
		}
	}

	exporter := metrics.NewExporter(metrics.DefaultConfig())

	quizRepo := repository.NewPgQuizRepository(pool)
	profileRepo := repository.NewPgProfileRepository(pool)
	personalityRepo := repository.NewPgPersonalityRepository(pool)
	embeddingRepo := repository.NewPgEmbeddingRepository(pool)
	matchRepo := repository.NewPgMatchRepository(pool)

	var (
		remote   service.TraitExtractor
		embedder llm.Embedder
	)
	if cfg.LLMAPIKey != "" {
		llmClient := llm.NewOpenAIClient(cfg.LLMBaseURL, cfg.LLMAPIKey, cfg.LLMModel, cfg.EmbeddingModel, logger)
		remote = service.NewLLMTraitExtractor(llmClient, logger)
		embedder = llmClient
	} else {
		logger.Warn("LLM_API_KEY not set, personality analysis will use the heuristic fallback")
	}
	extractor := service.NewFallbackTraitExtractor(remote, service.HeuristicTraitExtractor{}, cfg.AnalysisTimeout, logger, exporter)

	engine := matching.NewEngine(matchRepo, cfg.Metric(), cfg.MatchTopK, logger, exporter)
	quizSvc := service.NewQuizService(quizRepo, profileRepo, personalityRepo, embeddingRepo, extractor, embedder, engine, cfg.Payload(), logger, exporter)
	matchSvc := service.NewMatchService(matchRepo, profileRepo, personalityRepo, quizRepo, logger)
	profileSvc := service.NewProfileService(profileRepo, personalityRepo)

	var limiter service.SubmissionRateLimiter
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer redisClient.Close()
		ctxPing, cancel := context.WithTimeout(ctx, 2*time.Second)
		if err := redisClient.Ping(ctxPing).Err(); err != nil {
			logger.Warn("redis ping failed, using in-process rate limiter", zap.Error(err))
		} else {
			limiter = service.NewRedisSubmissionRateLimiter(redisClient, cfg.SubmitRateWindow, cfg.SubmitRateMax)
		}
		cancel()
	}
	if limiter == nil {
		limiter = service.NewMemorySubmissionRateLimiter(cfg.SubmitRateWindow, cfg.SubmitRateMax)
	}

	if cfg.JWTSecret == "" {
		logger.Warn("jwt secret not configured")
	}
	jwtSvc := service.NewJWTService(cfg.JWTSecret, 0)

	router := apihttp.NewRouter(
		logger,
		jwtSvc,
		apihttp.NewQuizHandler(logger, quizSvc, limiter),
		apihttp.NewMatchHandler(logger, matchSvc),
		apihttp.NewProfileHandler(logger, profileSvc),
		exporter.Handler(),
	)

	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("server shutdown", zap.Error(err))
		}
	}()

	logger.Info("starting server",
		zap.String("port", cfg.HTTPPort),
		zap.String("metric", cfg.Metric().Name()),
		zap.Int("top_k", cfg.MatchTopK),
		zap.String("embedding_payload", string(cfg.Payload())),
	)

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("server error", zap.Error(err))
	}
}
