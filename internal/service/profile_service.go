package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"neuromatch/internal/domain"
	"neuromatch/internal/repository"
)

// ProfileView es el perfil propio con su radar de personalidad.
type ProfileView struct {
	domain.Profile
	Radar *domain.RadarData `json:"radar,omitempty"`
	Tags  []string          `json:"tags"`
}

type ProfileService struct {
	profileRepo     repository.ProfileRepository
	personalityRepo repository.PersonalityRepository
}

var ErrProfileServiceNotConfigured = errors.New("profile service not configured")

func NewProfileService(profileRepo repository.ProfileRepository, personalityRepo repository.PersonalityRepository) *ProfileService {
	return &ProfileService{profileRepo: profileRepo, personalityRepo: personalityRepo}
}

// Me devuelve el perfil del usuario. Sin quiz respondido no hay radar.
func (s *ProfileService) Me(ctx context.Context, userID string) (ProfileView, error) {
	if s == nil || s.profileRepo == nil {
		return ProfileView{}, ErrProfileServiceNotConfigured
	}
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return ProfileView{}, fmt.Errorf("%w: user id is required", domain.ErrInvalidInput)
	}

	profile, err := s.profileRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return ProfileView{}, err
		}
		return ProfileView{}, fmt.Errorf("%w: get profile: %w", domain.ErrPersistence, err)
	}
	view := ProfileView{Profile: profile, Tags: []string{}}
	view.Username = firstNonEmpty(view.Username, defaultUsername)
	view.AvatarID = firstNonEmpty(view.AvatarID, defaultAvatarID)

	if s.personalityRepo == nil {
		return view, nil
	}
	personality, err := s.personalityRepo.GetByUserID(ctx, userID)
	switch {
	case err == nil:
		radar := personality.Vector.Radar()
		view.Radar = &radar
		view.Tags = personality.Vector.Tags()
	case errors.Is(err, domain.ErrNotFound):
	default:
		return ProfileView{}, fmt.Errorf("%w: get personality: %w", domain.ErrPersistence, err)
	}
	return view, nil
}
