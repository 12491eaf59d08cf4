package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"neuromatch/internal/domain"
)

// TraitExtractor convierte bio + respuestas libres en un vector de personalidad.
type TraitExtractor interface {
	Extract(ctx context.Context, input AnalysisInput) (domain.TraitAnalysis, error)
}

// AnalysisInput agrupa el texto que alimenta la extraccion.
type AnalysisInput struct {
	Bio     string
	Answers []string
}

// CombinedText une bio y respuestas como un unico texto.
func (in AnalysisInput) CombinedText() string {
	return strings.TrimSpace(in.Bio + " " + strings.Join(in.Answers, " "))
}

// AnalysisRecorder recibe el estado final de cada extraccion. Puede ser nil.
type AnalysisRecorder interface {
	ObserveAnalysis(state domain.AnalysisState, reason string)
}

// FallbackTraitExtractor intenta la estrategia remota una sola vez y, ante
// cualquier falla, usa la heuristica local. Nunca devuelve error.
type FallbackTraitExtractor struct {
	remote   TraitExtractor
	fallback TraitExtractor
	timeout  time.Duration
	logger   *zap.Logger
	recorder AnalysisRecorder
}

func NewFallbackTraitExtractor(remote, fallback TraitExtractor, timeout time.Duration, logger *zap.Logger, recorder AnalysisRecorder) *FallbackTraitExtractor {
	if fallback == nil {
		fallback = HeuristicTraitExtractor{}
	}
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FallbackTraitExtractor{
		remote:   remote,
		fallback: fallback,
		timeout:  timeout,
		logger:   logger,
		recorder: recorder,
	}
}

func (f *FallbackTraitExtractor) Extract(ctx context.Context, input AnalysisInput) (domain.TraitAnalysis, error) {
	if f.remote == nil {
		f.logger.Warn("remote analysis not configured, using fallback analysis")
		return f.runFallback(ctx, input, "not_configured")
	}

	remoteCtx, cancel := context.WithTimeout(ctx, f.timeout)
	analysis, err := f.remote.Extract(remoteCtx, input)
	cancel()
	if err == nil {
		analysis.Vector = analysis.Vector.Clamp()
		analysis.State = domain.AnalysisStateScored
		f.observe(domain.AnalysisStateScored, "")
		return analysis, nil
	}

	reason := "error"
	if errors.Is(err, context.DeadlineExceeded) {
		reason = "timeout"
	}
	f.logger.Warn("remote analysis failed, using fallback", zap.Error(err), zap.String("reason", reason))
	return f.runFallback(ctx, input, reason)
}

func (f *FallbackTraitExtractor) runFallback(ctx context.Context, input AnalysisInput, reason string) (domain.TraitAnalysis, error) {
	analysis, err := f.fallback.Extract(ctx, input)
	if err != nil {
		// La heuristica por defecto no falla; una estrategia inyectada si podria.
		f.logger.Error("fallback analysis failed, using heuristic", zap.Error(err))
		analysis, _ = HeuristicTraitExtractor{}.Extract(ctx, input)
	}
	analysis.Vector = analysis.Vector.Clamp()
	analysis.State = domain.AnalysisStateFallback
	f.observe(domain.AnalysisStateFallback, reason)
	return analysis, nil
}

func (f *FallbackTraitExtractor) observe(state domain.AnalysisState, reason string) {
	if f.recorder != nil {
		f.recorder.ObserveAnalysis(state, reason)
	}
}
