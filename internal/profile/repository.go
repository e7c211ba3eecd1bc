package profile

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines the interface for profile persistence.
type Repository interface {
	FindByUserID(ctx context.Context, userID uuid.UUID) (*Profile, error)

	// FindByUsername and FindByEmail match case-insensitively; usernames
	// and emails are unique regardless of case.
	FindByUsername(ctx context.Context, username string) (*Profile, error)
	FindByEmail(ctx context.Context, email string) (*Profile, error)

	// Upsert inserts the profile, or updates the existing row for the
	// same UserID. A username collision with a different user returns
	// ErrUsernameTaken.
	Upsert(ctx context.Context, p Profile) (Profile, error)

	// TouchLogin records a successful sign-in on the identity row.
	TouchLogin(ctx context.Context, userID uuid.UUID, email string, emailVerified bool) error
}
