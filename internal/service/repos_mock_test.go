package service

import (
	"context"
	"sort"
	"sync"

	"neuromatch/internal/domain"
)

type memQuizRepo struct {
	mu         sync.Mutex
	questions  []domain.QuizQuestion
	answers    map[string][]domain.QuizAnswer
	replaceErr error
	listErr    error
	firstErr   error
}

func newMemQuizRepo() *memQuizRepo {
	return &memQuizRepo{answers: map[string][]domain.QuizAnswer{}}
}

func (m *memQuizRepo) ListQuestions(ctx context.Context) ([]domain.QuizQuestion, error) {
	return m.questions, m.listErr
}

func (m *memQuizRepo) ReplaceAnswers(ctx context.Context, userID string, answers []domain.QuizAnswer) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.replaceErr != nil {
		return m.replaceErr
	}
	m.answers[userID] = append([]domain.QuizAnswer(nil), answers...)
	return nil
}

func (m *memQuizRepo) FirstTextAnswers(ctx context.Context, userIDs []string) (map[string]string, error) {
	if m.firstErr != nil {
		return nil, m.firstErr
	}
	out := map[string]string{}
	for _, id := range userIDs {
		for _, a := range m.answers[id] {
			if text, ok := a.Text(); ok {
				out[id] = text
				break
			}
		}
	}
	return out, nil
}

type memProfileRepo struct {
	profiles map[string]domain.Profile
	err      error
}

func (m *memProfileRepo) GetByID(ctx context.Context, id string) (domain.Profile, error) {
	if m.err != nil {
		return domain.Profile{}, m.err
	}
	p, ok := m.profiles[id]
	if !ok {
		return domain.Profile{}, domain.ErrNotFound
	}
	return p, nil
}

func (m *memProfileRepo) ListByIDs(ctx context.Context, ids []string) ([]domain.Profile, error) {
	if m.err != nil {
		return nil, m.err
	}
	var out []domain.Profile
	for _, id := range ids {
		if p, ok := m.profiles[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

type memPersonalityRepo struct {
	mu        sync.Mutex
	vectors   map[string]domain.PersonalityVector
	upsertErr error
	listErr   error
}

func newMemPersonalityRepo() *memPersonalityRepo {
	return &memPersonalityRepo{vectors: map[string]domain.PersonalityVector{}}
}

func (m *memPersonalityRepo) Upsert(ctx context.Context, p domain.Personality) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.upsertErr != nil {
		return m.upsertErr
	}
	m.vectors[p.UserID] = p.Vector
	return nil
}

func (m *memPersonalityRepo) GetByUserID(ctx context.Context, userID string) (domain.Personality, error) {
	v, ok := m.vectors[userID]
	if !ok {
		return domain.Personality{}, domain.ErrNotFound
	}
	return domain.Personality{UserID: userID, Vector: v}, nil
}

func (m *memPersonalityRepo) ListPeers(ctx context.Context, excludeUserID string) ([]domain.UserVector, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	ids, _ := m.ListUserIDs(ctx)
	var out []domain.UserVector
	for _, id := range ids {
		if id != excludeUserID {
			out = append(out, domain.UserVector{UserID: id, Values: m.vectors[id].Slice()})
		}
	}
	return out, nil
}

func (m *memPersonalityRepo) ListByUserIDs(ctx context.Context, userIDs []string) (map[string]domain.PersonalityVector, error) {
	out := map[string]domain.PersonalityVector{}
	for _, id := range userIDs {
		if v, ok := m.vectors[id]; ok {
			out[id] = v
		}
	}
	return out, nil
}

func (m *memPersonalityRepo) ListUserIDs(ctx context.Context) ([]string, error) {
	ids := make([]string, 0, len(m.vectors))
	for id := range m.vectors {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

type memEmbeddingRepo struct {
	embeddings map[string]domain.UserEmbedding
	upserts    int
	upsertErr  error
}

func newMemEmbeddingRepo() *memEmbeddingRepo {
	return &memEmbeddingRepo{embeddings: map[string]domain.UserEmbedding{}}
}

func (m *memEmbeddingRepo) Upsert(ctx context.Context, e domain.UserEmbedding) error {
	if m.upsertErr != nil {
		return m.upsertErr
	}
	m.upserts++
	m.embeddings[e.UserID] = e
	return nil
}

func (m *memEmbeddingRepo) GetByUserID(ctx context.Context, userID string) (domain.UserEmbedding, error) {
	e, ok := m.embeddings[userID]
	if !ok {
		return domain.UserEmbedding{}, domain.ErrNotFound
	}
	return e, nil
}

func (m *memEmbeddingRepo) ListPeers(ctx context.Context, excludeUserID string) ([]domain.UserVector, error) {
	ids := make([]string, 0, len(m.embeddings))
	for id, e := range m.embeddings {
		if id != excludeUserID && len(e.Vector) > 0 {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	out := make([]domain.UserVector, 0, len(ids))
	for _, id := range ids {
		out = append(out, domain.UserVector{UserID: id, Values: m.embeddings[id].Float64s()})
	}
	return out, nil
}

type memMatchRepo struct {
	mu        sync.Mutex
	records   map[domain.PairKey]domain.MatchRecord
	upsertErr error
	listErr   error
}

func newMemMatchRepo() *memMatchRepo {
	return &memMatchRepo{records: map[domain.PairKey]domain.MatchRecord{}}
}

func (m *memMatchRepo) UpsertMatch(ctx context.Context, r domain.MatchRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.upsertErr != nil {
		return m.upsertErr
	}
	if existing, ok := m.records[r.Pair]; ok {
		r.ID = existing.ID
	}
	m.records[r.Pair] = r
	return nil
}

func (m *memMatchRepo) ListByUser(ctx context.Context, userID string) ([]domain.MatchRecord, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	var out []domain.MatchRecord
	for pair, r := range m.records {
		if pair.UserA == userID || pair.UserB == userID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Pair.String() < out[j].Pair.String() })
	return out, nil
}
