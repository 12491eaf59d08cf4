package service

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"strings"
	"testing"

	"go.uber.org/zap"

	"neuromatch/internal/domain"
	"neuromatch/internal/llm"
	"neuromatch/internal/matching"
)

type quizFixture struct {
	quiz         *memQuizRepo
	profiles     *memProfileRepo
	personality  *memPersonalityRepo
	embeddings   *memEmbeddingRepo
	matches      *memMatchRepo
	llmClient    *llm.MockClient
	submissions  []domain.AnalysisState
	submitErrors []error
}

func (f *quizFixture) ObserveSubmission(state domain.AnalysisState, err error) {
	f.submissions = append(f.submissions, state)
	f.submitErrors = append(f.submitErrors, err)
}

func newQuizFixture() *quizFixture {
	f := &quizFixture{
		quiz:        newMemQuizRepo(),
		profiles:    &memProfileRepo{profiles: map[string]domain.Profile{"alice": {ID: "alice", Username: "alice", Bio: "Amo la montana"}}},
		personality: newMemPersonalityRepo(),
		embeddings:  newMemEmbeddingRepo(),
		matches:     newMemMatchRepo(),
		llmClient:   &llm.MockClient{Response: validAnalysisJSON},
	}
	f.personality.vectors["bob"] = domain.PersonalityVector{Openness: 0.9, Conscientiousness: 0.8, Extraversion: 0.7, Agreeableness: 0.6, Neuroticism: 0.1}
	f.personality.vectors["carol"] = domain.PersonalityVector{Openness: 0.1, Conscientiousness: 0.1, Extraversion: 0.1, Agreeableness: 0.1, Neuroticism: 0.9}
	return f
}

func (f *quizFixture) service(metric matching.Metric, payload domain.EmbeddingPayload, topK int) *QuizService {
	extractor := NewFallbackTraitExtractor(NewLLMTraitExtractor(f.llmClient, nil), nil, 0, zap.NewNop(), nil)
	engine := matching.NewEngine(f.matches, metric, topK, zap.NewNop(), nil)
	return NewQuizService(f.quiz, f.profiles, f.personality, f.embeddings, extractor, f.llmClient, engine, payload, zap.NewNop(), f)
}

func textAnswer(questionID, text string) domain.QuizAnswer {
	raw, _ := json.Marshal(text)
	return domain.QuizAnswer{QuestionID: questionID, Value: raw}
}

func TestQuizServiceSubmitScored(t *testing.T) {
	f := newQuizFixture()
	svc := f.service(matching.Euclidean{}, domain.EmbeddingPayloadTextual, matching.DefaultTopK)

	res, err := svc.Submit(context.Background(), "alice", []domain.QuizAnswer{
		textAnswer("q1", "Me encanta leer novelas"),
		{QuestionID: "q2", Value: json.RawMessage(`4`)},
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if res.ProfileID != "alice" || res.Analysis.State != domain.AnalysisStateScored || res.Matches != 2 {
		t.Fatalf("unexpected result %+v", res)
	}
	if got := len(f.quiz.answers["alice"]); got != 2 {
		t.Fatalf("expected 2 stored answers, got %d", got)
	}
	if f.personality.vectors["alice"] != f.personality.vectors["bob"] {
		t.Fatalf("expected stored vector from analysis, got %+v", f.personality.vectors["alice"])
	}
	if e := f.embeddings.embeddings["alice"]; e.Summary != "ok" || len(e.Vector) != 0 {
		t.Fatalf("expected textual embedding slot, got %+v", e)
	}

	key, _ := domain.NewPairKey("alice", "bob")
	if rec, ok := f.matches.records[key]; !ok || rec.Score != 100 {
		t.Fatalf("expected identical vectors to score 100, got %+v", rec)
	}
	if !strings.Contains(f.llmClient.LastPrompt, "Amo la montana") || !strings.Contains(f.llmClient.LastPrompt, "Me encanta leer novelas") {
		t.Fatalf("expected bio and text answers in prompt, got %q", f.llmClient.LastPrompt)
	}
	if len(f.submissions) != 1 || f.submissions[0] != domain.AnalysisStateScored || f.submitErrors[0] != nil {
		t.Fatalf("unexpected submission observations %+v %+v", f.submissions, f.submitErrors)
	}
}

func TestQuizServiceSubmitFallsBackOnAnalysisFailure(t *testing.T) {
	f := newQuizFixture()
	f.llmClient.Err = errors.New("rate limited")
	svc := f.service(matching.Euclidean{}, domain.EmbeddingPayloadTextual, matching.DefaultTopK)

	res, err := svc.Submit(context.Background(), "alice", []domain.QuizAnswer{textAnswer("q1", "hola")})
	if err != nil {
		t.Fatalf("analysis failure must not surface, got %v", err)
	}
	if res.Analysis.State != domain.AnalysisStateFallback || res.Matches != 2 {
		t.Fatalf("expected fallback analysis with matches, got %+v", res)
	}
	if !f.personality.vectors["alice"].Valid() {
		t.Fatalf("expected valid fallback vector stored")
	}
}

func TestQuizServiceSubmitExtractorErrorUsesHeuristic(t *testing.T) {
	f := newQuizFixture()
	engine := matching.NewEngine(f.matches, matching.Euclidean{}, matching.DefaultTopK, zap.NewNop(), nil)
	extractor := &stubExtractor{err: errors.New("extractor down")}
	svc := NewQuizService(f.quiz, f.profiles, f.personality, f.embeddings, extractor, nil, engine, domain.EmbeddingPayloadTextual, zap.NewNop(), f)

	answers := []domain.QuizAnswer{textAnswer("q1", "Me gusta viajar y conocer gente")}
	res, err := svc.Submit(context.Background(), "alice", answers)
	if err != nil {
		t.Fatalf("extractor failure must not surface, got %v", err)
	}
	if extractor.calls != 1 {
		t.Fatalf("expected one extraction attempt, got %d", extractor.calls)
	}
	if res.Analysis.State != domain.AnalysisStateFallback {
		t.Fatalf("expected FALLBACK state, got %q", res.Analysis.State)
	}

	want, _ := HeuristicTraitExtractor{}.Extract(context.Background(), AnalysisInput{
		Bio:     "Amo la montana",
		Answers: []string{"Me gusta viajar y conocer gente"},
	})
	stored := f.personality.vectors["alice"]
	if stored != want.Vector || stored == (domain.PersonalityVector{}) {
		t.Fatalf("expected heuristic vector %+v stored, got %+v", want.Vector, stored)
	}
	if len(f.submissions) != 1 || f.submissions[0] != domain.AnalysisStateFallback {
		t.Fatalf("unexpected submission observations %+v", f.submissions)
	}
}

func TestQuizServiceSubmitRejectsInvalidInput(t *testing.T) {
	cases := map[string]struct {
		userID  string
		answers []domain.QuizAnswer
	}{
		"empty user":          {userID: " ", answers: []domain.QuizAnswer{textAnswer("q1", "x")}},
		"no answers":          {userID: "alice"},
		"missing question id": {userID: "alice", answers: []domain.QuizAnswer{textAnswer("", "x")}},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			f := newQuizFixture()
			svc := f.service(matching.Euclidean{}, domain.EmbeddingPayloadTextual, matching.DefaultTopK)
			if _, err := svc.Submit(context.Background(), tc.userID, tc.answers); !errors.Is(err, domain.ErrInvalidInput) {
				t.Fatalf("expected ErrInvalidInput, got %v", err)
			}
			if len(f.quiz.answers) != 0 || len(f.matches.records) != 0 || f.llmClient.Calls != 0 {
				t.Fatalf("expected no side effects on invalid input")
			}
		})
	}
}

func TestQuizServiceSubmitDeduplicatesAnswers(t *testing.T) {
	f := newQuizFixture()
	svc := f.service(matching.Euclidean{}, domain.EmbeddingPayloadTextual, matching.DefaultTopK)

	_, err := svc.Submit(context.Background(), "alice", []domain.QuizAnswer{
		textAnswer("q1", "primera"),
		textAnswer("q2", "otra"),
		textAnswer("q1", "ultima"),
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	stored := f.quiz.answers["alice"]
	if len(stored) != 2 || stored[0].QuestionID != "q1" || stored[1].QuestionID != "q2" {
		t.Fatalf("unexpected stored answers %+v", stored)
	}
	if text, _ := stored[0].Text(); text != "ultima" {
		t.Fatalf("expected last value to win, got %q", text)
	}
}

func TestQuizServiceSubmitPersistenceFailures(t *testing.T) {
	t.Run("answers", func(t *testing.T) {
		f := newQuizFixture()
		f.quiz.replaceErr = errors.New("db down")
		_, err := f.service(matching.Euclidean{}, "", matching.DefaultTopK).Submit(context.Background(), "alice", []domain.QuizAnswer{textAnswer("q1", "x")})
		if !errors.Is(err, domain.ErrPersistence) {
			t.Fatalf("expected ErrPersistence, got %v", err)
		}
		if f.llmClient.Calls != 0 {
			t.Fatalf("expected no analysis after failed answer write")
		}
	})

	t.Run("profile lookup", func(t *testing.T) {
		f := newQuizFixture()
		f.profiles.err = errors.New("timeout")
		_, err := f.service(matching.Euclidean{}, "", matching.DefaultTopK).Submit(context.Background(), "alice", []domain.QuizAnswer{textAnswer("q1", "x")})
		if !errors.Is(err, domain.ErrPersistence) {
			t.Fatalf("expected ErrPersistence, got %v", err)
		}
	})

	t.Run("personality", func(t *testing.T) {
		f := newQuizFixture()
		f.personality.upsertErr = errors.New("constraint")
		res, err := f.service(matching.Euclidean{}, "", matching.DefaultTopK).Submit(context.Background(), "alice", []domain.QuizAnswer{textAnswer("q1", "x")})
		if !errors.Is(err, domain.ErrPersistence) || res.Matches != 0 {
			t.Fatalf("expected ErrPersistence without matches, got %+v %v", res, err)
		}
		if len(f.matches.records) != 0 {
			t.Fatalf("expected no match writes")
		}
	})

	t.Run("matches", func(t *testing.T) {
		f := newQuizFixture()
		f.matches.upsertErr = errors.New("deadlock")
		_, err := f.service(matching.Euclidean{}, "", matching.DefaultTopK).Submit(context.Background(), "alice", []domain.QuizAnswer{textAnswer("q1", "x")})
		if !errors.Is(err, domain.ErrPersistence) {
			t.Fatalf("expected ErrPersistence, got %v", err)
		}
		if len(f.submitErrors) != 1 || f.submitErrors[0] == nil {
			t.Fatalf("expected failed submission to be observed")
		}
	})
}

func TestQuizServiceSubmitNumericEmbeddings(t *testing.T) {
	f := newQuizFixture()
	f.llmClient.Embedding = []float32{1, 0, 0}
	f.embeddings.embeddings["bob"] = domain.UserEmbedding{UserID: "bob", Vector: []float32{1, 0, 0}}
	f.embeddings.embeddings["carol"] = domain.UserEmbedding{UserID: "carol", Vector: []float32{-1, 0, 0}}
	svc := f.service(matching.Cosine{}, domain.EmbeddingPayloadNumeric, matching.DefaultTopK)

	res, err := svc.Submit(context.Background(), "alice", []domain.QuizAnswer{textAnswer("q1", "x")})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if res.Matches != 2 {
		t.Fatalf("expected 2 matches, got %d", res.Matches)
	}
	if got := f.embeddings.embeddings["alice"].Vector; len(got) != 3 {
		t.Fatalf("expected stored dense vector, got %v", got)
	}
	bob, _ := domain.NewPairKey("alice", "bob")
	carol, _ := domain.NewPairKey("alice", "carol")
	if f.matches.records[bob].Score != 100 || f.matches.records[carol].Score != 0 {
		t.Fatalf("expected embedding-space scores, got bob=%v carol=%v", f.matches.records[bob].Score, f.matches.records[carol].Score)
	}
}

func TestQuizServiceSubmitEmbedderFailureKeepsSlot(t *testing.T) {
	f := newQuizFixture()
	f.llmClient.EmbedErr = errors.New("embedding quota")
	previous := domain.UserEmbedding{UserID: "alice", Vector: []float32{0, 1}}
	f.embeddings.embeddings["alice"] = previous
	svc := f.service(matching.Cosine{}, domain.EmbeddingPayloadNumeric, matching.DefaultTopK)

	res, err := svc.Submit(context.Background(), "alice", []domain.QuizAnswer{textAnswer("q1", "x")})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if f.embeddings.upserts != 0 {
		t.Fatalf("expected embedding slot untouched")
	}
	if res.Matches != 2 {
		t.Fatalf("expected trait-space matches, got %d", res.Matches)
	}
	bob, _ := domain.NewPairKey("alice", "bob")
	if got := f.matches.records[bob].Score; math.Abs(got-100) > 1e-9 {
		t.Fatalf("expected trait cosine score 100, got %v", got)
	}
}

func TestQuizServiceSubmitTopKZero(t *testing.T) {
	f := newQuizFixture()
	res, err := f.service(matching.Euclidean{}, "", 0).Submit(context.Background(), "alice", []domain.QuizAnswer{textAnswer("q1", "x")})
	if err != nil || res.Matches != 0 || len(f.matches.records) != 0 {
		t.Fatalf("expected no matches for K=0, got %+v %v", res, err)
	}
}

func TestQuizServiceRecompute(t *testing.T) {
	f := newQuizFixture()
	f.personality.vectors["alice"] = f.personality.vectors["carol"]
	svc := f.service(matching.Euclidean{}, domain.EmbeddingPayloadTextual, 1)

	out, err := svc.Recompute(context.Background(), "alice")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if out.Written != 1 || out.Ranking.Top[0].UserID != "carol" {
		t.Fatalf("expected carol as top match, got %+v", out)
	}
	if f.llmClient.Calls != 0 {
		t.Fatalf("recompute must not call the analyzer")
	}

	if _, err := svc.Recompute(context.Background(), "nobody"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestQuizServiceQuestions(t *testing.T) {
	f := newQuizFixture()
	svc := f.service(nil, "", matching.DefaultTopK)

	got, err := svc.Questions(context.Background())
	if err != nil || got == nil || len(got) != 0 {
		t.Fatalf("expected empty non-nil list, got %v %v", got, err)
	}

	f.quiz.listErr = errors.New("boom")
	if _, err := svc.Questions(context.Background()); !errors.Is(err, domain.ErrPersistence) {
		t.Fatalf("expected ErrPersistence, got %v", err)
	}
}

func TestQuizServiceNotConfigured(t *testing.T) {
	var svc *QuizService
	if _, err := svc.Submit(context.Background(), "alice", nil); !errors.Is(err, ErrQuizServiceNotConfigured) {
		t.Fatalf("expected ErrQuizServiceNotConfigured, got %v", err)
	}
}
