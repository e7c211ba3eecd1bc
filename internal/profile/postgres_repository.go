package profile

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// PostgresRepository implements Repository using PostgreSQL.
type PostgresRepository struct {
	db *sqlx.DB
}

// NewPostgresRepository creates a new PostgresRepository.
func NewPostgresRepository(db *sqlx.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const profileColumns = `
	id, user_id, username, full_name, email, provider, role,
	is_active, email_verified, google_id, picture_url,
	household_members, monthly_income, has_debt, debt_amount,
	savings_goal, primary_expenses, budgeting_experience, financial_goals,
	onboarding_completed, last_login_at, created_at, updated_at
`

// FindByUserID looks up the profile row for a user.
func (r *PostgresRepository) FindByUserID(ctx context.Context, userID uuid.UUID) (*Profile, error) {
	const query = `SELECT ` + profileColumns + ` FROM user_profiles WHERE user_id = $1`

	var row profileRow
	if err := r.db.GetContext(ctx, &row, query, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return row.toProfile(), nil
}

// FindByUsername looks up a profile by username.
func (r *PostgresRepository) FindByUsername(ctx context.Context, username string) (*Profile, error) {
	const query = `SELECT ` + profileColumns + ` FROM user_profiles WHERE LOWER(username) = LOWER($1)`

	var row profileRow
	if err := r.db.GetContext(ctx, &row, query, username); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return row.toProfile(), nil
}

// FindByEmail looks up a profile by email address.
func (r *PostgresRepository) FindByEmail(ctx context.Context, email string) (*Profile, error) {
	const query = `SELECT ` + profileColumns + ` FROM user_profiles WHERE LOWER(email) = LOWER($1)`

	var row profileRow
	if err := r.db.GetContext(ctx, &row, query, email); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return row.toProfile(), nil
}

// Upsert inserts the profile or updates the row with the same user_id.
func (r *PostgresRepository) Upsert(ctx context.Context, p Profile) (Profile, error) {
	const query = `
		INSERT INTO user_profiles (` + profileColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23)
		ON CONFLICT (user_id) DO UPDATE SET
			username = EXCLUDED.username,
			full_name = EXCLUDED.full_name,
			email = EXCLUDED.email,
			provider = EXCLUDED.provider,
			role = EXCLUDED.role,
			is_active = EXCLUDED.is_active,
			email_verified = EXCLUDED.email_verified,
			google_id = EXCLUDED.google_id,
			picture_url = EXCLUDED.picture_url,
			household_members = EXCLUDED.household_members,
			monthly_income = EXCLUDED.monthly_income,
			has_debt = EXCLUDED.has_debt,
			debt_amount = EXCLUDED.debt_amount,
			savings_goal = EXCLUDED.savings_goal,
			primary_expenses = EXCLUDED.primary_expenses,
			budgeting_experience = EXCLUDED.budgeting_experience,
			financial_goals = EXCLUDED.financial_goals,
			onboarding_completed = EXCLUDED.onboarding_completed,
			last_login_at = EXCLUDED.last_login_at,
			updated_at = EXCLUDED.updated_at
	`

	_, err := r.db.ExecContext(ctx, query,
		p.ID,
		p.UserID,
		nullableString(p.Username),
		p.FullName,
		p.Email,
		p.Provider,
		p.Role,
		p.IsActive,
		p.EmailVerified,
		p.GoogleID,
		p.PictureURL,
		p.HouseholdMembers,
		p.MonthlyIncome,
		p.HasDebt,
		p.DebtAmount,
		p.SavingsGoal,
		pq.Array(p.PrimaryExpenses),
		p.BudgetingExperience,
		pq.Array(p.FinancialGoals),
		p.OnboardingCompleted,
		p.LastLoginAt,
		p.CreatedAt,
		p.UpdatedAt,
	)
	if err != nil {
		return Profile{}, classifyConstraintError(err)
	}

	return p, nil
}

// TouchLogin records a successful sign-in, creating the row if missing.
func (r *PostgresRepository) TouchLogin(ctx context.Context, userID uuid.UUID, email string, emailVerified bool) error {
	const query = `
		INSERT INTO user_profiles (id, user_id, email, provider, role, is_active, email_verified, last_login_at, created_at, updated_at)
		VALUES ($1, $2, $3, 'email', 'user', TRUE, $4, $5, $5, $5)
		ON CONFLICT (user_id) DO UPDATE SET
			email = EXCLUDED.email,
			email_verified = EXCLUDED.email_verified,
			last_login_at = EXCLUDED.last_login_at,
			updated_at = EXCLUDED.updated_at
	`

	now := time.Now().UTC()
	_, err := r.db.ExecContext(ctx, query, uuid.New(), userID, email, emailVerified, now)
	return err
}

// classifyConstraintError maps the username unique violation to
// ErrUsernameTaken; everything else passes through.
func classifyConstraintError(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" && strings.Contains(pqErr.Constraint, "username") {
		return ErrUsernameTaken
	}
	return err
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

// profileRow is a database row representation of Profile.
type profileRow struct {
	ID                  uuid.UUID      `db:"id"`
	UserID              uuid.UUID      `db:"user_id"`
	Username            sql.NullString `db:"username"`
	FullName            string         `db:"full_name"`
	Email               string         `db:"email"`
	Provider            string         `db:"provider"`
	Role                string         `db:"role"`
	IsActive            bool           `db:"is_active"`
	EmailVerified       bool           `db:"email_verified"`
	GoogleID            string         `db:"google_id"`
	PictureURL          string         `db:"picture_url"`
	HouseholdMembers    *int           `db:"household_members"`
	MonthlyIncome       *float64       `db:"monthly_income"`
	HasDebt             *bool          `db:"has_debt"`
	DebtAmount          *float64       `db:"debt_amount"`
	SavingsGoal         string         `db:"savings_goal"`
	PrimaryExpenses     pq.StringArray `db:"primary_expenses"`
	BudgetingExperience string         `db:"budgeting_experience"`
	FinancialGoals      pq.StringArray `db:"financial_goals"`
	OnboardingCompleted bool           `db:"onboarding_completed"`
	LastLoginAt         *time.Time     `db:"last_login_at"`
	CreatedAt           time.Time      `db:"created_at"`
	UpdatedAt           time.Time      `db:"updated_at"`
}

func (r *profileRow) toProfile() *Profile {
	return &Profile{
		ID:                  r.ID,
		UserID:              r.UserID,
		Username:            r.Username.String,
		FullName:            r.FullName,
		Email:               r.Email,
		Provider:            r.Provider,
		Role:                r.Role,
		IsActive:            r.IsActive,
		EmailVerified:       r.EmailVerified,
		GoogleID:            r.GoogleID,
		PictureURL:          r.PictureURL,
		HouseholdMembers:    r.HouseholdMembers,
		MonthlyIncome:       r.MonthlyIncome,
		HasDebt:             r.HasDebt,
		DebtAmount:          r.DebtAmount,
		SavingsGoal:         r.SavingsGoal,
		PrimaryExpenses:     []string(r.PrimaryExpenses),
		BudgetingExperience: r.BudgetingExperience,
		FinancialGoals:      []string(r.FinancialGoals),
		OnboardingCompleted: r.OnboardingCompleted,
		LastLoginAt:         r.LastLoginAt,
		CreatedAt:           r.CreatedAt,
		UpdatedAt:           r.UpdatedAt,
	}
}
