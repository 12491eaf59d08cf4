package matching

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"neuromatch/internal/domain"
)

// DefaultTopK es la cantidad de matches que se guardan por entrega.
const DefaultTopK = 10

// PeerSource carga los vectores de todos los usuarios salvo el sujeto.
type PeerSource interface {
	ListPeers(ctx context.Context, excludeUserID string) ([]domain.UserVector, error)
}

// MatchWriter hace upsert de un match por par no ordenado.
type MatchWriter interface {
	UpsertMatch(ctx context.Context, record domain.MatchRecord) error
}

// Recorder recibe metricas del motor. Puede ser nil.
type Recorder interface {
	ObserveRecompute(metric string, duration time.Duration, written, skipped int, err error)
}

// Engine recalcula y persiste los mejores K matches de un usuario.
type Engine struct {
	writer   MatchWriter
	metric   Metric
	topK     int
	logger   *zap.Logger
	recorder Recorder
	now      func() time.Time
}

// Outcome resume un recalculo.
type Outcome struct {
	Ranking Ranking
	Written int
}

func NewEngine(writer MatchWriter, metric Metric, topK int, logger *zap.Logger, recorder Recorder) *Engine {
	if metric == nil {
		metric = Euclidean{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		writer:   writer,
		metric:   metric,
		topK:     topK,
		logger:   logger,
		recorder: recorder,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (e *Engine) Metric() Metric { return e.metric }

func (e *Engine) TopK() int { return e.topK }

// Recompute carga los pares, rankea y hace upsert de los K mejores.
// Los upserts ya aplicados no se revierten si uno posterior falla.
func (e *Engine) Recompute(ctx context.Context, subject domain.UserVector, peers PeerSource) (out Outcome, err error) {
	start := time.Now()
	defer func() {
		if e.recorder != nil {
			e.recorder.ObserveRecompute(e.metric.Name(), time.Since(start), out.Written, len(out.Ranking.Skipped), err)
		}
	}()

	subject.UserID = strings.TrimSpace(subject.UserID)
	if subject.UserID == "" || len(subject.Values) == 0 {
		return Outcome{}, fmt.Errorf("%w: subject needs id and vector", domain.ErrInvalidInput)
	}
	if e.topK < 0 {
		return Outcome{}, fmt.Errorf("%w: top-k must be >= 0, got %d", domain.ErrInvalidInput, e.topK)
	}
	if e.topK == 0 {
		return Outcome{}, nil
	}

	peerVectors, err := peers.ListPeers(ctx, subject.UserID)
	if err != nil {
		return Outcome{}, fmt.Errorf("%w: load peers: %w", domain.ErrPersistence, err)
	}

	ranking, err := Rank(subject, peerVectors, e.metric, e.topK)
	if err != nil {
		return Outcome{}, err
	}
	out.Ranking = ranking
	for _, skipped := range ranking.Skipped {
		e.logger.Warn("peer skipped: dimension mismatch",
			zap.String("user_id", subject.UserID),
			zap.String("peer_id", skipped),
		)
	}

	computedAt := e.now()
	for _, s := range ranking.Top {
		pair, err := domain.NewPairKey(subject.UserID, s.UserID)
		if err != nil {
			return out, err
		}
		record := domain.MatchRecord{
			ID:         uuid.NewString(),
			Pair:       pair,
			Score:      s.Score,
			ComputedAt: computedAt,
		}
		if err := e.writer.UpsertMatch(ctx, record); err != nil {
			e.logger.Warn("match upsert failed", zap.Error(err), zap.String("pair", pair.String()))
			return out, fmt.Errorf("%w: upsert match %s: %w", domain.ErrPersistence, pair, err)
		}
		out.Written++
	}
	return out, nil
}
