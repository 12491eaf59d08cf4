package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"neuromatch/internal/domain"
	"neuromatch/internal/llm"
)

const maxSummaryRunes = 500

const analysisSystemPrompt = "You are a personality analysis expert. Always respond with valid JSON only."

// LLMTraitExtractor pide al LLM los puntajes OCEAN y un resumen semantico.
type LLMTraitExtractor struct {
	llmClient llm.LLMClient
	logger    *zap.Logger
}

func NewLLMTraitExtractor(llmClient llm.LLMClient, logger *zap.Logger) *LLMTraitExtractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LLMTraitExtractor{llmClient: llmClient, logger: logger}
}

// Extract devuelve ErrExternalAnalysis si la llamada falla o la respuesta no se puede usar.
func (s *LLMTraitExtractor) Extract(ctx context.Context, input AnalysisInput) (domain.TraitAnalysis, error) {
	if s == nil || s.llmClient == nil {
		return domain.TraitAnalysis{}, fmt.Errorf("%w: llm client not configured", domain.ErrExternalAnalysis)
	}

	rawResp, err := s.llmClient.Generate(ctx, analysisSystemPrompt, buildAnalysisPrompt(input))
	if err != nil {
		return domain.TraitAnalysis{}, fmt.Errorf("%w: llm generate: %w", domain.ErrExternalAnalysis, err)
	}

	parsed, err := parseAnalysisResponse(rawResp)
	if err != nil {
		s.logger.Debug("unparseable analysis response", zap.String("raw", rawResp))
		return domain.TraitAnalysis{}, fmt.Errorf("%w: %w", domain.ErrExternalAnalysis, err)
	}
	return parsed, nil
}

func buildAnalysisPrompt(input AnalysisInput) string {
	return fmt.Sprintf(`Analyze the following user responses and bio to generate:
1. OCEAN (Big Five) personality scores (0-1 scale)
2. A semantic summary capturing their personality essence (max %d chars)

Bio: %s
Responses: %s

Return ONLY valid JSON in this exact format:
{
  "openness": 0.0-1.0,
  "conscientiousness": 0.0-1.0,
  "extraversion": 0.0-1.0,
  "agreeableness": 0.0-1.0,
  "neuroticism": 0.0-1.0,
  "summary": "semantic summary text"
}`, maxSummaryRunes, strings.TrimSpace(input.Bio), strings.TrimSpace(strings.Join(input.Answers, " ")))
}

// analysisResponse usa punteros para distinguir un rasgo ausente de un cero.
type analysisResponse struct {
	Openness          *float64 `json:"openness"`
	Conscientiousness *float64 `json:"conscientiousness"`
	Extraversion      *float64 `json:"extraversion"`
	Agreeableness     *float64 `json:"agreeableness"`
	Neuroticism       *float64 `json:"neuroticism"`
	Summary           string   `json:"summary"`
}

func parseAnalysisResponse(raw string) (domain.TraitAnalysis, error) {
	cleaned := cleanLLMJSONResponse(raw)
	if cleaned == "" {
		return domain.TraitAnalysis{}, fmt.Errorf("empty analysis response")
	}

	var parsed analysisResponse
	if err := json.Unmarshal([]byte(cleaned), &parsed); err != nil {
		obj := extractFirstJSONObject(raw)
		if obj == "" {
			return domain.TraitAnalysis{}, fmt.Errorf("parse llm response: %w", err)
		}
		parsed = analysisResponse{}
		if err := json.Unmarshal([]byte(obj), &parsed); err != nil {
			return domain.TraitAnalysis{}, fmt.Errorf("parse llm response: %w", err)
		}
	}

	dims := []*float64{parsed.Openness, parsed.Conscientiousness, parsed.Extraversion, parsed.Agreeableness, parsed.Neuroticism}
	values := make([]float64, 0, len(dims))
	for i, d := range dims {
		if d == nil {
			return domain.TraitAnalysis{}, fmt.Errorf("missing trait dimension %d", i)
		}
		values = append(values, *d)
	}
	vector, err := domain.PersonalityVectorFromSlice(values)
	if err != nil {
		return domain.TraitAnalysis{}, err
	}

	return domain.TraitAnalysis{
		Vector:  vector.Clamp(),
		Summary: truncateRunes(strings.TrimSpace(parsed.Summary), maxSummaryRunes),
		State:   domain.AnalysisStateScored,
	}, nil
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
