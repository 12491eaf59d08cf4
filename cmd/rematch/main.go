// Command rematch recalcula matches con los vectores ya guardados, sin volver a
// analizar respuestas. Sirve despues de cambiar MATCH_METRIC o MATCH_TOP_K.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"neuromatch/internal/config"
	"neuromatch/internal/db"
	"neuromatch/internal/domain"
	"neuromatch/internal/matching"
	"neuromatch/internal/repository"
	"neuromatch/internal/service"
)

var (
	userID      string
	all         bool
	concurrency int

	rootCmd = &cobra.Command{
		Use:   "rematch",
		Short: "Recompute top-K personality matches from stored vectors",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			_ = godotenv.Load()
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			if (userID == "") == !all {
				return errors.New("exactly one of --user or --all is required")
			}
			return run(cmd.Context())
		},
	}
)

func init() {
	rootCmd.Flags().StringVar(&userID, "user", "", "recompute matches for a single user id")
	rootCmd.Flags().BoolVar(&all, "all", false, "recompute matches for every user with a personality vector")
	rootCmd.Flags().IntVar(&concurrency, "concurrency", 4, "users recomputed in parallel with --all")
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		return fmt.Errorf("db connect: %w", err)
	}
	defer pool.Close()

	personalityRepo := repository.NewPgPersonalityRepository(pool)
	engine := matching.NewEngine(repository.NewPgMatchRepository(pool), cfg.Metric(), cfg.MatchTopK, logger, nil)
	quizSvc := service.NewQuizService(
		repository.NewPgQuizRepository(pool),
		repository.NewPgProfileRepository(pool),
		personalityRepo,
		repository.NewPgEmbeddingRepository(pool),
		service.NewFallbackTraitExtractor(nil, nil, cfg.AnalysisTimeout, logger, nil),
		nil,
		engine,
		cfg.Payload(),
		logger,
		nil,
	)

	ids := []string{userID}
	if all {
		if ids, err = personalityRepo.ListUserIDs(ctx); err != nil {
			return fmt.Errorf("list users: %w", err)
		}
	}

	var (
		mu              sync.Mutex
		written, failed int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, concurrency))
	for _, id := range ids {
		id := id
		g.Go(func() error {
			out, err := quizSvc.Recompute(gctx, id)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if errors.Is(err, domain.ErrNotFound) {
					logger.Warn("user has no personality vector", zap.String("user_id", id))
				} else {
					logger.Error("recompute failed", zap.String("user_id", id), zap.Error(err))
				}
				failed++
				// Solo la cancelacion corta el lote.
				return gctx.Err()
			}
			written += out.Written
			logger.Info("recomputed",
				zap.String("user_id", id),
				zap.Int("written", out.Written),
				zap.Int("skipped", len(out.Ranking.Skipped)),
			)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	logger.Info("rematch done", zap.Int("users", len(ids)), zap.Int("written", written), zap.Int("failed", failed))
	if failed > 0 {
		return fmt.Errorf("%d of %d users failed", failed, len(ids))
	}
	return nil
}
