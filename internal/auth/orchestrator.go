package auth

import (
	"context"
	"errors"
	"log/slog"

	"walnut/internal/authclient"
	"walnut/internal/profile"
	"walnut/internal/session"
)

const confirmationMessage = "Please check your email and click the confirmation link to complete your registration."

// Orchestrator drives every authentication flow: it calls the auth
// capability, keeps the session store current, maintains the identity row,
// and rewrites service rejections into user-facing errors. Operations never
// panic; every failure comes back as an error value.
type Orchestrator struct {
	client   authclient.Client
	profiles *profile.Service
	store    *session.Store
	logger   *slog.Logger

	resetRedirectURL string
}

// NewOrchestrator wires an Orchestrator. resetRedirectURL is where emailed
// recovery links land, typically the frontend's /reset-password page.
func NewOrchestrator(client authclient.Client, profiles *profile.Service, store *session.Store, resetRedirectURL string, logger *slog.Logger) *Orchestrator {
	return &Orchestrator{
		client:           client,
		profiles:         profiles,
		store:            store,
		logger:           logger,
		resetRedirectURL: resetRedirectURL,
	}
}

// SignUpOutcome is the result of a successful SignUp call.
type SignUpOutcome struct {
	User authclient.User
	// Session is the session created for the new account. Callers must
	// use it rather than re-reading the store, which is shared and may
	// have moved on under concurrent requests.
	Session *authclient.Session
	// Pending is true when the service withheld the session until the
	// email is confirmed. Message then tells the user what to do.
	Pending bool
	Message string
}

// SignUp registers a new account and creates its identity row. A username
// collision is reported as its own error, distinct from generic failures.
func (o *Orchestrator) SignUp(ctx context.Context, email, password, fullName, username string) (SignUpOutcome, error) {
	metadata := map[string]any{
		"full_name":            fullName,
		"username":             username,
		"onboarding_completed": false,
	}

	result, err := o.client.SignUp(ctx, email, password, metadata)
	if err != nil {
		return SignUpOutcome{}, classifySignUp(err)
	}

	emailVerified := result.User.EmailConfirmedAt != nil
	if _, err := o.profiles.CreateIdentity(ctx, result.User.ID, result.User.Email, username, fullName, "email", emailVerified); err != nil {
		if errors.Is(err, profile.ErrUsernameTaken) {
			return SignUpOutcome{}, userErr(KindUsernameTaken, "Username is already taken")
		}
		// The account exists either way; a missing identity row is
		// repaired on next sign-in.
		o.logger.Warn("identity upsert failed after sign-up", "user_id", result.User.ID, "error", err)
	}

	if result.Session == nil {
		return SignUpOutcome{User: result.User, Pending: true, Message: confirmationMessage}, nil
	}

	o.store.Set(result.Session)
	return SignUpOutcome{User: result.User, Session: result.Session}, nil
}

// SignIn exchanges credentials for a session. The store is updated
// synchronously, ahead of the change notification carrying the same data.
func (o *Orchestrator) SignIn(ctx context.Context, email, password string) (*authclient.Session, error) {
	sess, err := o.client.SignInWithPassword(ctx, email, password)
	if err != nil {
		return nil, classifySignIn(err)
	}

	sess = o.reconcileOnboarding(ctx, sess)
	o.store.Set(sess)

	emailVerified := sess.User.EmailConfirmedAt != nil
	if err := o.profiles.TouchLogin(ctx, sess.User.ID, sess.User.Email, emailVerified); err != nil {
		o.logger.Warn("last-login update failed", "user_id", sess.User.ID, "error", err)
	}

	return sess, nil
}

// SignInWithGoogle returns the provider consent URL. The call completes
// immediately; the session arrives later via the change notification.
func (o *Orchestrator) SignInWithGoogle(ctx context.Context, redirectTo string) (string, error) {
	consentURL, err := o.client.SignInWithOAuth(ctx, "google", redirectTo)
	if err != nil {
		return "", userErr(KindUnknown, err.Error())
	}
	return consentURL, nil
}

// SignOut revokes the session remotely and clears the store. The local
// clear happens regardless of the remote outcome so no stale session
// survives.
func (o *Orchestrator) SignOut(ctx context.Context) error {
	err := o.client.SignOut(ctx)
	o.store.Clear()
	if err != nil {
		o.logger.Warn("remote sign-out failed, local session cleared anyway", "error", err)
		return userErr(KindUnknown, err.Error())
	}
	return nil
}

// ResetPasswordForEmail asks the service to email a recovery link. The
// session state is untouched.
func (o *Orchestrator) ResetPasswordForEmail(ctx context.Context, email string) error {
	if err := o.client.ResetPasswordForEmail(ctx, email, o.resetRedirectURL); err != nil {
		return userErr(KindUnknown, err.Error())
	}
	return nil
}

// ForgotPassword is the legacy name for ResetPasswordForEmail.
func (o *Orchestrator) ForgotPassword(ctx context.Context, email string) error {
	return o.ResetPasswordForEmail(ctx, email)
}

// UpdatePassword sets a new password on the current subject. It is only
// valid while a recovery session, hydrated from an emailed link, is active.
func (o *Orchestrator) UpdatePassword(ctx context.Context, newPassword string) error {
	current, err := o.client.GetSession(ctx)
	if err != nil || current == nil {
		return userErr(KindValidation, "No active recovery session. Please follow the link from your email again.")
	}

	if err := o.client.UpdateUser(ctx, authclient.UserUpdate{Password: &newPassword}); err != nil {
		return userErr(KindUnknown, err.Error())
	}
	return nil
}

// SendOtp emails a one-time code for passwordless sign-in.
func (o *Orchestrator) SendOtp(ctx context.Context, email string) error {
	if err := o.client.SignInWithOtp(ctx, email, o.resetRedirectURL); err != nil {
		return userErr(KindUnknown, err.Error())
	}
	return nil
}

// VerifyOtp exchanges an emailed code for a session.
func (o *Orchestrator) VerifyOtp(ctx context.Context, email, code string) (*authclient.Session, error) {
	sess, err := o.client.VerifyOtp(ctx, email, code, authclient.OtpTypeEmail)
	if err != nil {
		return nil, userErr(KindUnknown, err.Error())
	}

	sess = o.reconcileOnboarding(ctx, sess)
	o.store.Set(sess)
	return sess, nil
}

// RecoverFromLink hydrates a recovery session from a reset-link URL so the
// user can proceed straight to the new-password form.
func (o *Orchestrator) RecoverFromLink(ctx context.Context, rawURL string) (*authclient.Session, error) {
	tokens, ok := ParseRecoveryLink(rawURL)
	if !ok {
		return nil, userErr(KindValidation, "The reset link is invalid or incomplete. Please request a new one.")
	}

	sess, err := o.client.SetSession(ctx, tokens.AccessToken, tokens.RefreshToken)
	if err != nil {
		return nil, userErr(KindUnknown, err.Error())
	}

	o.store.Set(sess)
	return sess, nil
}

// ReconciledSession returns the current session with its cached onboarding
// flag refreshed from the profile table.
func (o *Orchestrator) ReconciledSession(ctx context.Context) *authclient.Session {
	return o.reconcileOnboarding(ctx, o.store.Session())
}

// reconcileOnboarding overlays the authoritative onboarding flag from the
// profile table onto the session's metadata projection. Lookup failures
// leave the cached value in place.
func (o *Orchestrator) reconcileOnboarding(ctx context.Context, sess *authclient.Session) *authclient.Session {
	if sess == nil {
		return nil
	}

	completed, err := o.profiles.OnboardingStatus(ctx, sess.User.ID)
	if err != nil {
		o.logger.Warn("onboarding status lookup failed", "user_id", sess.User.ID, "error", err)
		return sess
	}
	if sess.User.OnboardingCompleted() == completed {
		return sess
	}

	patched := *sess
	metadata := make(map[string]any, len(sess.User.Metadata)+1)
	for k, v := range sess.User.Metadata {
		metadata[k] = v
	}
	metadata["onboarding_completed"] = completed
	patched.User.Metadata = metadata
	return &patched
}
