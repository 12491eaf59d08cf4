package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"go.uber.org/zap"

	"neuromatch/internal/domain"
	"neuromatch/internal/repository"
)

const (
	defaultUsername = "Anonymous"
	defaultAvatarID = "avatar_1"
	noBioSnippet    = "No bio available"
	snippetMaxRunes = 100
)

// MatchView es un match visto desde uno de los dos usuarios.
type MatchView struct {
	ID       string   `json:"id"`
	UserID   string   `json:"userId"`
	Username string   `json:"username"`
	AvatarID string   `json:"avatarId"`
	Score    int      `json:"score"`
	Tags     []string `json:"tags"`
	Snippet  string   `json:"snippet"`
}

type MatchService struct {
	matchRepo       repository.MatchRepository
	profileRepo     repository.ProfileRepository
	personalityRepo repository.PersonalityRepository
	quizRepo        repository.QuizRepository
	logger          *zap.Logger
}

var ErrMatchServiceNotConfigured = errors.New("match service not configured")

func NewMatchService(
	matchRepo repository.MatchRepository,
	profileRepo repository.ProfileRepository,
	personalityRepo repository.PersonalityRepository,
	quizRepo repository.QuizRepository,
	logger *zap.Logger,
) *MatchService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MatchService{
		matchRepo:       matchRepo,
		profileRepo:     profileRepo,
		personalityRepo: personalityRepo,
		quizRepo:        quizRepo,
		logger:          logger,
	}
}

// ListForUser devuelve los matches del usuario ordenados por score descendente.
func (s *MatchService) ListForUser(ctx context.Context, userID string) ([]MatchView, error) {
	if s == nil || s.matchRepo == nil || s.profileRepo == nil {
		return nil, ErrMatchServiceNotConfigured
	}
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, fmt.Errorf("%w: user id is required", domain.ErrInvalidInput)
	}

	records, err := s.matchRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: list matches: %w", domain.ErrPersistence, err)
	}
	views := []MatchView{}
	if len(records) == 0 {
		return views, nil
	}
	sort.SliceStable(records, func(i, j int) bool { return records[i].Score > records[j].Score })

	others := make([]string, 0, len(records))
	for _, r := range records {
		others = append(others, r.Pair.Other(userID))
	}

	profiles, err := s.profileRepo.ListByIDs(ctx, others)
	if err != nil {
		return nil, fmt.Errorf("%w: list profiles: %w", domain.ErrPersistence, err)
	}
	byID := make(map[string]domain.Profile, len(profiles))
	for _, p := range profiles {
		byID[p.ID] = p
	}

	var vectors map[string]domain.PersonalityVector
	if s.personalityRepo != nil {
		if vectors, err = s.personalityRepo.ListByUserIDs(ctx, others); err != nil {
			return nil, fmt.Errorf("%w: list personalities: %w", domain.ErrPersistence, err)
		}
	}

	var snippets map[string]string
	if s.quizRepo != nil {
		if snippets, err = s.quizRepo.FirstTextAnswers(ctx, others); err != nil {
			// El snippet es decorativo; se degrada a la bio.
			s.logger.Warn("first text answers lookup failed", zap.Error(err), zap.String("user_id", userID))
			snippets = nil
		}
	}

	for i, r := range records {
		other := others[i]
		profile := byID[other]
		view := MatchView{
			ID:       r.ID,
			UserID:   other,
			Username: firstNonEmpty(profile.Username, defaultUsername),
			AvatarID: firstNonEmpty(profile.AvatarID, defaultAvatarID),
			Score:    int(math.Round(r.Score)),
			Tags:     []string{},
			Snippet:  matchSnippet(snippets[other], profile.Bio),
		}
		if vec, ok := vectors[other]; ok {
			view.Tags = vec.Tags()
		}
		views = append(views, view)
	}
	return views, nil
}

func matchSnippet(answer, bio string) string {
	if answer = strings.TrimSpace(answer); answer != "" {
		return truncateRunes(answer, snippetMaxRunes) + "..."
	}
	if bio = strings.TrimSpace(bio); bio != "" {
		return bio
	}
	return noBioSnippet
}

func firstNonEmpty(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}
