package authclient

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"log/slog"
	"math/big"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	otpTTL      = 10 * time.Minute
	recoveryTTL = time.Hour
	sessionTTL  = time.Hour
)

// LocalClient is an in-process auth provider used when no hosted auth
// service is configured. It mirrors the hosted service's observable
// behavior, including its error wording, so the orchestrator's
// classification works identically in development and tests.
type LocalClient struct {
	logger              *slog.Logger
	requireConfirmation bool
	events              *notifier

	mu       sync.Mutex
	accounts map[string]*localAccount
	otps     map[string]otpIssue
	recovery map[string]recoveryIssue
	current  *Session
}

type localAccount struct {
	id           uuid.UUID
	email        string
	passwordHash string
	metadata     map[string]any
	confirmedAt  *time.Time
	disabled     bool
}

type otpIssue struct {
	code      string
	expiresAt time.Time
}

type recoveryIssue struct {
	email        string
	refreshToken string
	expiresAt    time.Time
}

// LocalOption configures the local provider.
type LocalOption func(*LocalClient)

// WithRequireConfirmation makes sign-up withhold the session until the
// email is confirmed via an OTP, matching hosted deployments.
func WithRequireConfirmation(require bool) LocalOption {
	return func(c *LocalClient) {
		c.requireConfirmation = require
	}
}

// NewLocal constructs an empty in-process auth provider.
func NewLocal(logger *slog.Logger, opts ...LocalOption) *LocalClient {
	c := &LocalClient{
		logger:   logger,
		events:   newNotifier(),
		accounts: make(map[string]*localAccount),
		otps:     make(map[string]otpIssue),
		recovery: make(map[string]recoveryIssue),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// GetSession returns the currently held session, or nil when signed out.
func (c *LocalClient) GetSession(ctx context.Context) (*Session, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current, nil
}

// OnSessionChange registers a session-change callback.
func (c *LocalClient) OnSessionChange(fn func(Event, *Session)) func() {
	return c.events.subscribe(fn)
}

// SignUp registers a new account. With confirmation required the result
// carries a nil session until the email OTP is verified.
func (c *LocalClient) SignUp(ctx context.Context, email, password string, metadata map[string]any) (SignUpResult, error) {
	email = normalizeEmail(email)

	hash, err := hashPassword(password)
	if err != nil {
		return SignUpResult{}, fmt.Errorf("hash password: %w", err)
	}

	c.mu.Lock()
	if _, exists := c.accounts[email]; exists {
		c.mu.Unlock()
		return SignUpResult{}, serviceError(http.StatusUnprocessableEntity, "User already registered")
	}

	account := &localAccount{
		id:           uuid.New(),
		email:        email,
		passwordHash: hash,
		metadata:     cloneMetadata(metadata),
	}
	if !c.requireConfirmation {
		now := time.Now()
		account.confirmedAt = &now
	}
	c.accounts[email] = account

	if c.requireConfirmation {
		code := c.issueOtpLocked(email)
		c.mu.Unlock()
		c.logger.Info("local auth: confirmation code issued", "email", email, "code", code)
		return SignUpResult{User: account.user()}, nil
	}

	session := account.session()
	c.current = session
	c.mu.Unlock()

	c.events.emit(EventSignedIn, session)
	return SignUpResult{User: session.User, Session: session}, nil
}

// SignInWithPassword exchanges credentials for a session.
func (c *LocalClient) SignInWithPassword(ctx context.Context, email, password string) (*Session, error) {
	email = normalizeEmail(email)

	c.mu.Lock()
	account, ok := c.accounts[email]
	if !ok {
		c.mu.Unlock()
		return nil, serviceError(http.StatusBadRequest, "Invalid login credentials")
	}
	if account.disabled {
		c.mu.Unlock()
		return nil, serviceError(http.StatusForbidden, "Account disabled")
	}
	if account.confirmedAt == nil {
		c.mu.Unlock()
		return nil, serviceError(http.StatusBadRequest, "Email not confirmed")
	}
	hash := account.passwordHash
	c.mu.Unlock()

	// Verification happens outside the lock: argon2 is deliberately slow.
	if !verifyPassword(password, hash) {
		return nil, serviceError(http.StatusBadRequest, "Invalid login credentials")
	}

	c.mu.Lock()
	session := account.session()
	c.current = session
	c.mu.Unlock()

	c.events.emit(EventSignedIn, session)
	return session, nil
}

// SignInWithOAuth is unavailable locally; hosted deployments handle the
// provider redirect flow.
func (c *LocalClient) SignInWithOAuth(ctx context.Context, provider, redirectTo string) (string, error) {
	return "", serviceError(http.StatusBadRequest, fmt.Sprintf("OAuth provider %q is not available with the local auth provider", provider))
}

// SignOut drops the current session.
func (c *LocalClient) SignOut(ctx context.Context) error {
	c.mu.Lock()
	c.current = nil
	c.mu.Unlock()

	c.events.emit(EventSignedOut, nil)
	return nil
}

// ResetPasswordForEmail issues recovery tokens and logs the reset link a
// hosted service would email. Unknown addresses are ignored silently.
func (c *LocalClient) ResetPasswordForEmail(ctx context.Context, email, redirectTo string) error {
	email = normalizeEmail(email)

	c.mu.Lock()
	_, ok := c.accounts[email]
	if !ok {
		c.mu.Unlock()
		return nil
	}

	accessToken := generateToken()
	refreshToken := generateToken()
	c.recovery[accessToken] = recoveryIssue{
		email:        email,
		refreshToken: refreshToken,
		expiresAt:    time.Now().Add(recoveryTTL),
	}
	c.mu.Unlock()

	link := fmt.Sprintf("%s#access_token=%s&refresh_token=%s&type=recovery", redirectTo, accessToken, refreshToken)
	c.logger.Info("local auth: recovery link issued", "email", email, "link", link)
	return nil
}

// UpdateUser mutates the signed-in account. Requires an active session.
func (c *LocalClient) UpdateUser(ctx context.Context, update UserUpdate) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.current == nil {
		return serviceError(http.StatusUnauthorized, "Auth session missing!")
	}

	account, ok := c.accounts[normalizeEmail(c.current.User.Email)]
	if !ok {
		return serviceError(http.StatusNotFound, "User not found")
	}

	if update.Password != nil {
		hash, err := hashPassword(*update.Password)
		if err != nil {
			return fmt.Errorf("hash password: %w", err)
		}
		account.passwordHash = hash
	}

	return nil
}

// SignInWithOtp issues a 6-digit code and logs it in place of an email.
func (c *LocalClient) SignInWithOtp(ctx context.Context, email, redirectTo string) error {
	email = normalizeEmail(email)

	c.mu.Lock()
	if _, ok := c.accounts[email]; !ok {
		// create_user semantics: an OTP sign-in may create the account.
		c.accounts[email] = &localAccount{
			id:       uuid.New(),
			email:    email,
			metadata: map[string]any{},
		}
	}
	code := c.issueOtpLocked(email)
	c.mu.Unlock()

	c.logger.Info("local auth: otp issued", "email", email, "code", code)
	return nil
}

// VerifyOtp exchanges an issued code for a session and confirms the email.
func (c *LocalClient) VerifyOtp(ctx context.Context, email, token, otpType string) (*Session, error) {
	email = normalizeEmail(email)

	c.mu.Lock()
	issue, ok := c.otps[email]
	if !ok || issue.code != token {
		c.mu.Unlock()
		return nil, serviceError(http.StatusUnauthorized, "Token has expired or is invalid")
	}
	if time.Now().After(issue.expiresAt) {
		delete(c.otps, email)
		c.mu.Unlock()
		return nil, serviceError(http.StatusUnauthorized, "Token has expired or is invalid")
	}
	delete(c.otps, email)

	account, ok := c.accounts[email]
	if !ok {
		c.mu.Unlock()
		return nil, serviceError(http.StatusNotFound, "User not found")
	}
	if account.confirmedAt == nil {
		now := time.Now()
		account.confirmedAt = &now
	}

	session := account.session()
	c.current = session
	c.mu.Unlock()

	c.events.emit(EventSignedIn, session)
	return session, nil
}

// SetSession hydrates a session from recovery-link tokens.
func (c *LocalClient) SetSession(ctx context.Context, accessToken, refreshToken string) (*Session, error) {
	c.mu.Lock()
	issue, ok := c.recovery[accessToken]
	if !ok || issue.refreshToken != refreshToken || time.Now().After(issue.expiresAt) {
		c.mu.Unlock()
		return nil, serviceError(http.StatusUnauthorized, "Token has expired or is invalid")
	}
	delete(c.recovery, accessToken)

	account, ok := c.accounts[issue.email]
	if !ok {
		c.mu.Unlock()
		return nil, serviceError(http.StatusNotFound, "User not found")
	}

	session := account.session()
	c.current = session
	c.mu.Unlock()

	c.events.emit(EventPasswordRecovery, session)
	return session, nil
}

func (c *LocalClient) issueOtpLocked(email string) string {
	code := generateOtpCode()
	c.otps[email] = otpIssue{code: code, expiresAt: time.Now().Add(otpTTL)}
	return code
}

func (a *localAccount) user() User {
	return User{
		ID:               a.id,
		Email:            a.email,
		EmailConfirmedAt: a.confirmedAt,
		Metadata:         cloneMetadata(a.metadata),
	}
}

func (a *localAccount) session() *Session {
	return &Session{
		AccessToken:  generateToken(),
		RefreshToken: generateToken(),
		ExpiresAt:    time.Now().Add(sessionTTL),
		User:         a.user(),
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func cloneMetadata(metadata map[string]any) map[string]any {
	clone := make(map[string]any, len(metadata))
	for k, v := range metadata {
		clone[k] = v
	}
	return clone
}

func generateToken() string {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		panic(fmt.Sprintf("read random bytes: %v", err))
	}
	return base64.RawURLEncoding.EncodeToString(b)
}

func generateOtpCode() string {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		panic(fmt.Sprintf("read random bytes: %v", err))
	}
	return fmt.Sprintf("%06d", n.Int64())
}
