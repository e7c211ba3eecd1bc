package profile

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrNotFound is returned when no profile row exists for the user.
	ErrNotFound = errors.New("profile not found")
	// ErrUsernameTaken is returned when the requested username collides
	// with another account. Callers surface it as a distinct error, not
	// a generic failure.
	ErrUsernameTaken = errors.New("username is already taken")
)

// Profile is the persisted identity and questionnaire record. One row per
// user; writes use upsert semantics keyed on UserID.
type Profile struct {
	ID       uuid.UUID
	UserID   uuid.UUID
	Username string
	FullName string
	Email    string
	Provider string
	Role     string

	IsActive      bool
	EmailVerified bool
	GoogleID      string
	PictureURL    string

	HouseholdMembers    *int
	MonthlyIncome       *float64
	HasDebt             *bool
	DebtAmount          *float64
	SavingsGoal         string
	PrimaryExpenses     []string
	BudgetingExperience string
	FinancialGoals      []string

	OnboardingCompleted bool

	LastLoginAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// FormData is the questionnaire's wire shape: free-text and choice fields
// as entered, before normalization into record columns.
type FormData struct {
	HouseholdMembers    string   `json:"householdMembers"`
	MonthlyIncome       string   `json:"monthlyIncome"`
	HasDebt             string   `json:"hasDebt"`
	DebtAmount          string   `json:"debtAmount"`
	SavingsGoal         string   `json:"savingsGoal"`
	PrimaryExpenses     []string `json:"primaryExpenses"`
	BudgetingExperience string   `json:"budgetingExperience"`
	FinancialGoals      []string `json:"financialGoals"`
}
