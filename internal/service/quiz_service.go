package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"neuromatch/internal/domain"
	"neuromatch/internal/llm"
	"neuromatch/internal/matching"
	"neuromatch/internal/repository"
)

// SubmissionRecorder recibe el resultado de cada entrega. Puede ser nil.
type SubmissionRecorder interface {
	ObserveSubmission(state domain.AnalysisState, err error)
}

// QuizService orquesta la entrega del quiz: respuestas, rasgos, embedding y matches.
type QuizService struct {
	quizRepo        repository.QuizRepository
	profileRepo     repository.ProfileRepository
	personalityRepo repository.PersonalityRepository
	embeddingRepo   repository.EmbeddingRepository
	extractor       TraitExtractor
	embedder        llm.Embedder
	engine          *matching.Engine
	payload         domain.EmbeddingPayload
	logger          *zap.Logger
	recorder        SubmissionRecorder
	now             func() time.Time
}

// SubmissionResult resume una entrega procesada.
type SubmissionResult struct {
	ProfileID string               `json:"profileId"`
	Analysis  domain.TraitAnalysis `json:"analysis"`
	Matches   int                  `json:"matches"`
	Skipped   int                  `json:"skipped"`
}

var ErrQuizServiceNotConfigured = errors.New("quiz service not configured")

func NewQuizService(
	quizRepo repository.QuizRepository,
	profileRepo repository.ProfileRepository,
	personalityRepo repository.PersonalityRepository,
	embeddingRepo repository.EmbeddingRepository,
	extractor TraitExtractor,
	embedder llm.Embedder,
	engine *matching.Engine,
	payload domain.EmbeddingPayload,
	logger *zap.Logger,
	recorder SubmissionRecorder,
) *QuizService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if payload == "" {
		payload = domain.EmbeddingPayloadTextual
	}
	return &QuizService{
		quizRepo:        quizRepo,
		profileRepo:     profileRepo,
		personalityRepo: personalityRepo,
		embeddingRepo:   embeddingRepo,
		extractor:       extractor,
		embedder:        embedder,
		engine:          engine,
		payload:         payload,
		logger:          logger,
		recorder:        recorder,
		now:             func() time.Time { return time.Now().UTC() },
	}
}

// Questions devuelve el cuestionario ordenado.
func (s *QuizService) Questions(ctx context.Context) ([]domain.QuizQuestion, error) {
	if s == nil || s.quizRepo == nil {
		return nil, ErrQuizServiceNotConfigured
	}
	questions, err := s.quizRepo.ListQuestions(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: list questions: %w", domain.ErrPersistence, err)
	}
	if questions == nil {
		questions = []domain.QuizQuestion{}
	}
	return questions, nil
}

// Submit procesa una entrega completa. Solo falla por input invalido o por
// persistencia; una falla del analisis remoto se absorbe en el fallback.
func (s *QuizService) Submit(ctx context.Context, userID string, answers []domain.QuizAnswer) (result SubmissionResult, err error) {
	if s == nil || s.quizRepo == nil || s.engine == nil || s.extractor == nil {
		return SubmissionResult{}, ErrQuizServiceNotConfigured
	}
	defer func() {
		if s.recorder != nil {
			s.recorder.ObserveSubmission(result.Analysis.State, err)
		}
	}()

	userID = strings.TrimSpace(userID)
	answers, err = normalizeAnswers(userID, answers)
	if err != nil {
		return SubmissionResult{}, err
	}

	if err := s.quizRepo.ReplaceAnswers(ctx, userID, answers); err != nil {
		s.logger.Error("replace quiz answers failed", zap.Error(err), zap.String("user_id", userID))
		return SubmissionResult{}, fmt.Errorf("%w: replace answers: %w", domain.ErrPersistence, err)
	}

	bio := ""
	if s.profileRepo != nil {
		profile, err := s.profileRepo.GetByID(ctx, userID)
		switch {
		case err == nil:
			bio = profile.Bio
		case errors.Is(err, domain.ErrNotFound):
		default:
			return SubmissionResult{}, fmt.Errorf("%w: get profile: %w", domain.ErrPersistence, err)
		}
	}

	input := AnalysisInput{Bio: bio, Answers: answerTexts(answers)}
	s.logger.Info("generating personality scores", zap.String("user_id", userID))
	analysis, err := s.extractor.Extract(ctx, input)
	if err != nil {
		s.logger.Warn("trait extraction failed, using heuristic", zap.Error(err), zap.String("user_id", userID))
		analysis, _ = HeuristicTraitExtractor{}.Extract(ctx, input)
		analysis.State = domain.AnalysisStateFallback
	}
	analysis.Vector = analysis.Vector.Clamp()
	if analysis.State == "" {
		analysis.State = domain.AnalysisStateScored
	}
	result = SubmissionResult{ProfileID: userID, Analysis: analysis}

	embedding, err := s.storeEmbedding(ctx, userID, input, analysis)
	if err != nil {
		return result, err
	}

	if err := s.personalityRepo.Upsert(ctx, domain.Personality{
		UserID:    userID,
		Vector:    analysis.Vector,
		UpdatedAt: s.now(),
	}); err != nil {
		s.logger.Error("personality upsert failed", zap.Error(err), zap.String("user_id", userID))
		return result, fmt.Errorf("%w: upsert personality: %w", domain.ErrPersistence, err)
	}

	s.logger.Info("computing matches", zap.String("user_id", userID), zap.String("metric", s.engine.Metric().Name()))
	subject, peers := s.featureSpace(userID, analysis.Vector, embedding)
	outcome, err := s.engine.Recompute(ctx, subject, peers)
	result.Matches = outcome.Written
	result.Skipped = len(outcome.Ranking.Skipped)
	if err != nil {
		s.logger.Error("match recompute failed", zap.Error(err), zap.String("user_id", userID))
		return result, err
	}

	s.logger.Info("quiz processing complete",
		zap.String("user_id", userID),
		zap.String("state", string(analysis.State)),
		zap.Int("matches", outcome.Written),
	)
	return result, nil
}

// Recompute vuelve a calcular los matches de un usuario con sus vectores guardados.
func (s *QuizService) Recompute(ctx context.Context, userID string) (matching.Outcome, error) {
	if s == nil || s.engine == nil || s.personalityRepo == nil {
		return matching.Outcome{}, ErrQuizServiceNotConfigured
	}
	personality, err := s.personalityRepo.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return matching.Outcome{}, err
		}
		return matching.Outcome{}, fmt.Errorf("%w: get personality: %w", domain.ErrPersistence, err)
	}

	var embedding []float32
	if s.usesEmbeddings() && s.embeddingRepo != nil {
		stored, err := s.embeddingRepo.GetByUserID(ctx, userID)
		switch {
		case err == nil:
			embedding = stored.Vector
		case errors.Is(err, domain.ErrNotFound):
		default:
			return matching.Outcome{}, fmt.Errorf("%w: get embedding: %w", domain.ErrPersistence, err)
		}
	}

	subject, peers := s.featureSpace(userID, personality.Vector, embedding)
	return s.engine.Recompute(ctx, subject, peers)
}

// usesEmbeddings indica si el motor compara embeddings en lugar de rasgos.
func (s *QuizService) usesEmbeddings() bool {
	return s.payload == domain.EmbeddingPayloadNumeric && s.engine.Metric().Name() == matching.MetricCosine
}

// featureSpace elige vector del sujeto y fuente de pares. Sin embedding
// disponible se compara sobre los rasgos OCEAN con la misma metrica.
func (s *QuizService) featureSpace(userID string, traits domain.PersonalityVector, embedding []float32) (domain.UserVector, matching.PeerSource) {
	if s.usesEmbeddings() && len(embedding) > 0 && s.embeddingRepo != nil {
		e := domain.UserEmbedding{UserID: userID, Vector: embedding}
		return domain.UserVector{UserID: userID, Values: e.Float64s()}, s.embeddingRepo
	}
	return domain.UserVector{UserID: userID, Values: traits.Slice()}, s.personalityRepo
}

// storeEmbedding sobreescribe el slot semantico. En modo numerico una falla del
// embedder se registra y deja el slot como estaba.
func (s *QuizService) storeEmbedding(ctx context.Context, userID string, input AnalysisInput, analysis domain.TraitAnalysis) ([]float32, error) {
	if s.embeddingRepo == nil {
		return nil, nil
	}
	record := domain.UserEmbedding{UserID: userID, Summary: analysis.Summary, UpdatedAt: s.now()}

	if s.payload == domain.EmbeddingPayloadNumeric {
		if s.embedder == nil {
			s.logger.Warn("embedder not configured, skipping embedding", zap.String("user_id", userID))
			return nil, nil
		}
		vec, err := s.embedder.Embed(ctx, input.CombinedText())
		if err != nil || len(vec) == 0 {
			s.logger.Warn("embedding generation failed, matching on traits", zap.Error(err), zap.String("user_id", userID))
			return nil, nil
		}
		record.Vector = vec
	}

	if err := s.embeddingRepo.Upsert(ctx, record); err != nil {
		s.logger.Error("embedding upsert failed", zap.Error(err), zap.String("user_id", userID))
		return nil, fmt.Errorf("%w: upsert embedding: %w", domain.ErrPersistence, err)
	}
	return record.Vector, nil
}

// normalizeAnswers valida la entrega y colapsa preguntas repetidas quedandose
// con el ultimo valor, conservando el orden de primera aparicion.
func normalizeAnswers(userID string, answers []domain.QuizAnswer) ([]domain.QuizAnswer, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: user id is required", domain.ErrInvalidInput)
	}
	if len(answers) == 0 {
		return nil, fmt.Errorf("%w: at least one answer is required", domain.ErrInvalidInput)
	}

	index := make(map[string]int, len(answers))
	out := make([]domain.QuizAnswer, 0, len(answers))
	for _, a := range answers {
		a.QuestionID = strings.TrimSpace(a.QuestionID)
		if a.QuestionID == "" {
			return nil, fmt.Errorf("%w: answer without question id", domain.ErrInvalidInput)
		}
		if len(a.Value) == 0 {
			a.Value = []byte("null")
		}
		if i, ok := index[a.QuestionID]; ok {
			out[i] = a
			continue
		}
		index[a.QuestionID] = len(out)
		out = append(out, a)
	}
	return out, nil
}

func answerTexts(answers []domain.QuizAnswer) []string {
	texts := make([]string, 0, len(answers))
	for _, a := range answers {
		if text, ok := a.Text(); ok && strings.TrimSpace(text) != "" {
			texts = append(texts, strings.TrimSpace(text))
		}
	}
	return texts
}
