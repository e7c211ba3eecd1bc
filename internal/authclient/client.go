package authclient

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Event identifies the kind of session change delivered to subscribers.
type Event string

const (
	EventSignedIn         Event = "SIGNED_IN"
	EventSignedOut        Event = "SIGNED_OUT"
	EventTokenRefreshed   Event = "TOKEN_REFRESHED"
	EventPasswordRecovery Event = "PASSWORD_RECOVERY"
)

// User is the identity record held by the auth service.
type User struct {
	ID               uuid.UUID
	Email            string
	EmailConfirmedAt *time.Time
	// Metadata carries provider-owned key/value pairs, including
	// full_name, username and onboarding_completed.
	Metadata map[string]any
}

// OnboardingCompleted reads the onboarding flag from provider metadata.
func (u User) OnboardingCompleted() bool {
	v, ok := u.Metadata["onboarding_completed"]
	if !ok {
		return false
	}
	b, _ := v.(bool)
	return b
}

// Session is an authenticated session as issued by the auth service.
type Session struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
	User         User
}

// SignUpResult is the outcome of a sign-up call. Session is nil when the
// service requires email confirmation before issuing one.
type SignUpResult struct {
	User    User
	Session *Session
}

// UserUpdate carries mutable attributes for UpdateUser.
type UserUpdate struct {
	Password *string
}

// OTP verification types accepted by VerifyOtp.
const (
	OtpTypeEmail    = "email"
	OtpTypeRecovery = "recovery"
)

// Client is the auth/database capability the rest of the application is
// built against. Hosted deployments use the GoTrue HTTP client; development
// and tests use the in-process provider.
type Client interface {
	// GetSession returns the currently held session, or nil when signed out.
	GetSession(ctx context.Context) (*Session, error)

	// OnSessionChange registers a callback fired on every session change
	// (sign-in, sign-out, refresh, recovery). The returned function
	// unregisters the callback.
	OnSessionChange(fn func(Event, *Session)) (unsubscribe func())

	SignUp(ctx context.Context, email, password string, metadata map[string]any) (SignUpResult, error)
	SignInWithPassword(ctx context.Context, email, password string) (*Session, error)

	// SignInWithOAuth returns the provider consent URL the browser should
	// be redirected to. Completion is observed via OnSessionChange.
	SignInWithOAuth(ctx context.Context, provider, redirectTo string) (string, error)

	SignOut(ctx context.Context) error
	ResetPasswordForEmail(ctx context.Context, email, redirectTo string) error
	UpdateUser(ctx context.Context, update UserUpdate) error
	SignInWithOtp(ctx context.Context, email, redirectTo string) error
	VerifyOtp(ctx context.Context, email, token, otpType string) (*Session, error)

	// SetSession hydrates a session from tokens delivered out-of-band,
	// e.g. embedded in an emailed recovery link.
	SetSession(ctx context.Context, accessToken, refreshToken string) (*Session, error)
}
