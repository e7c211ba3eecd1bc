package profile

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Service orchestrates identity and questionnaire persistence. The profile
// table is the source of truth for onboarding completion; the copy in the
// auth session's metadata is a cached projection reconciled on read.
type Service struct {
	repo Repository
}

// NewService wires a Service with the provided repository.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// CreateIdentity ensures an identity row exists for a freshly signed-up
// user. A username collision surfaces as ErrUsernameTaken.
func (s *Service) CreateIdentity(ctx context.Context, userID uuid.UUID, email, username, fullName, provider string, emailVerified bool) (Profile, error) {
	now := time.Now().UTC()

	existing, err := s.repo.FindByUserID(ctx, userID)
	if err != nil {
		return Profile{}, fmt.Errorf("find profile: %w", err)
	}

	p := Profile{
		ID:              uuid.New(),
		UserID:          userID,
		Provider:        provider,
		Role:            "user",
		IsActive:        true,
		PrimaryExpenses: []string{},
		FinancialGoals:  []string{},
		CreatedAt:       now,
	}
	if existing != nil {
		p = *existing
	}

	p.Username = username
	p.FullName = fullName
	p.Email = email
	p.EmailVerified = emailVerified
	p.UpdatedAt = now

	return s.repo.Upsert(ctx, p)
}

// UpsertGoogleIdentity creates or refreshes the identity row for a Google
// sign-in, matched by email the way the relay always has.
func (s *Service) UpsertGoogleIdentity(ctx context.Context, googleID, email, fullName, pictureURL string, emailVerified bool) (Profile, error) {
	now := time.Now().UTC()

	existing, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return Profile{}, fmt.Errorf("find profile by email: %w", err)
	}

	p := Profile{
		ID:              uuid.New(),
		UserID:          uuid.New(),
		Email:           email,
		Role:            "user",
		IsActive:        true,
		PrimaryExpenses: []string{},
		FinancialGoals:  []string{},
		CreatedAt:       now,
	}
	if existing != nil {
		p = *existing
	}

	p.FullName = fullName
	p.PictureURL = pictureURL
	p.Provider = "google"
	p.GoogleID = googleID
	p.EmailVerified = emailVerified
	p.UpdatedAt = now

	return s.repo.Upsert(ctx, p)
}

// TouchLogin records a successful sign-in on the identity row.
func (s *Service) TouchLogin(ctx context.Context, userID uuid.UUID, email string, emailVerified bool) error {
	return s.repo.TouchLogin(ctx, userID, email, emailVerified)
}

// GetByUsername returns the profile owning the username, or nil.
func (s *Service) GetByUsername(ctx context.Context, username string) (*Profile, error) {
	return s.repo.FindByUsername(ctx, username)
}

// GetProfile returns the raw profile row, or nil when none exists.
func (s *Service) GetProfile(ctx context.Context, userID uuid.UUID) (*Profile, error) {
	return s.repo.FindByUserID(ctx, userID)
}

// GetFormattedProfile returns the questionnaire-shaped view of the row,
// or nil when no row exists.
func (s *Service) GetFormattedProfile(ctx context.Context, userID uuid.UUID) (*FormData, error) {
	p, err := s.repo.FindByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, nil
	}
	form := formFromProfile(p)
	return &form, nil
}

// OnboardingStatus reports whether the user finished the questionnaire.
// A missing row means not onboarded.
func (s *Service) OnboardingStatus(ctx context.Context, userID uuid.UUID) (bool, error) {
	p, err := s.repo.FindByUserID(ctx, userID)
	if err != nil {
		return false, err
	}
	return p != nil && p.OnboardingCompleted, nil
}

// SaveProfile persists the completed questionnaire and always marks
// onboarding complete. The row is created if it does not exist yet.
func (s *Service) SaveProfile(ctx context.Context, userID uuid.UUID, email string, form FormData) (Profile, error) {
	now := time.Now().UTC()

	existing, err := s.repo.FindByUserID(ctx, userID)
	if err != nil {
		return Profile{}, fmt.Errorf("find profile: %w", err)
	}

	p := Profile{
		ID:        uuid.New(),
		UserID:    userID,
		Provider:  "email",
		Role:      "user",
		IsActive:  true,
		CreatedAt: now,
	}
	if existing != nil {
		p = *existing
	}

	applyForm(&p, form)
	if email != "" {
		p.Email = email
	}
	p.OnboardingCompleted = true
	p.UpdatedAt = now

	return s.repo.Upsert(ctx, p)
}

// UpdateProfile applies questionnaire changes to an existing row without
// touching the onboarding flag.
func (s *Service) UpdateProfile(ctx context.Context, userID uuid.UUID, form FormData) (Profile, error) {
	existing, err := s.repo.FindByUserID(ctx, userID)
	if err != nil {
		return Profile{}, fmt.Errorf("find profile: %w", err)
	}
	if existing == nil {
		return Profile{}, ErrNotFound
	}

	p := *existing
	applyForm(&p, form)
	p.UpdatedAt = time.Now().UTC()

	return s.repo.Upsert(ctx, p)
}
