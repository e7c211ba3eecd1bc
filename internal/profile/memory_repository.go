package profile

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// InMemoryRepository is a map-backed Repository used for local development
// and tests.
type InMemoryRepository struct {
	mu       sync.RWMutex
	profiles map[uuid.UUID]Profile
}

// NewInMemoryRepository creates an empty in-memory repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{profiles: make(map[uuid.UUID]Profile)}
}

// FindByUserID looks up the profile row for a user.
func (r *InMemoryRepository) FindByUserID(ctx context.Context, userID uuid.UUID) (*Profile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if p, ok := r.profiles[userID]; ok {
		clone := cloneProfile(p)
		return &clone, nil
	}
	return nil, nil
}

// FindByUsername looks up a profile by username.
func (r *InMemoryRepository) FindByUsername(ctx context.Context, username string) (*Profile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, p := range r.profiles {
		if p.Username != "" && strings.EqualFold(p.Username, username) {
			clone := cloneProfile(p)
			return &clone, nil
		}
	}
	return nil, nil
}

// FindByEmail looks up a profile by email address.
func (r *InMemoryRepository) FindByEmail(ctx context.Context, email string) (*Profile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, p := range r.profiles {
		if strings.EqualFold(p.Email, email) {
			clone := cloneProfile(p)
			return &clone, nil
		}
	}
	return nil, nil
}

// Upsert inserts the profile or replaces the row with the same UserID,
// enforcing username uniqueness across users.
func (r *InMemoryRepository) Upsert(ctx context.Context, p Profile) (Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if p.Username != "" {
		for _, existing := range r.profiles {
			if existing.UserID != p.UserID && strings.EqualFold(existing.Username, p.Username) {
				return Profile{}, ErrUsernameTaken
			}
		}
	}

	r.profiles[p.UserID] = cloneProfile(p)
	return p, nil
}

// TouchLogin records a successful sign-in, creating the row if missing.
func (r *InMemoryRepository) TouchLogin(ctx context.Context, userID uuid.UUID, email string, emailVerified bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()
	p, ok := r.profiles[userID]
	if !ok {
		p = Profile{
			ID:              uuid.New(),
			UserID:          userID,
			Provider:        "email",
			Role:            "user",
			IsActive:        true,
			PrimaryExpenses: []string{},
			FinancialGoals:  []string{},
			CreatedAt:       now,
		}
	}

	p.Email = email
	p.EmailVerified = emailVerified
	p.LastLoginAt = &now
	p.UpdatedAt = now
	r.profiles[userID] = p
	return nil
}

func cloneProfile(p Profile) Profile {
	clone := p
	clone.PrimaryExpenses = append([]string(nil), p.PrimaryExpenses...)
	clone.FinancialGoals = append([]string(nil), p.FinancialGoals...)
	if p.HouseholdMembers != nil {
		v := *p.HouseholdMembers
		clone.HouseholdMembers = &v
	}
	if p.MonthlyIncome != nil {
		v := *p.MonthlyIncome
		clone.MonthlyIncome = &v
	}
	if p.HasDebt != nil {
		v := *p.HasDebt
		clone.HasDebt = &v
	}
	if p.DebtAmount != nil {
		v := *p.DebtAmount
		clone.DebtAmount = &v
	}
	if p.LastLoginAt != nil {
		v := *p.LastLoginAt
		clone.LastLoginAt = &v
	}
	return clone
}
