package authclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// GoTrueClient talks to a hosted GoTrue-compatible auth service over HTTP.
// It owns the current session and notifies subscribers whenever it changes.
type GoTrueClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	events     *notifier

	mu      sync.RWMutex
	current *Session
}

// GoTrueOption configures the client during construction.
type GoTrueOption func(*GoTrueClient)

// WithHTTPClient overrides the HTTP client used for auth service calls.
func WithHTTPClient(client *http.Client) GoTrueOption {
	return func(c *GoTrueClient) {
		c.httpClient = client
	}
}

// NewGoTrue constructs a client for the auth service at baseURL.
func NewGoTrue(baseURL, apiKey string, opts ...GoTrueOption) *GoTrueClient {
	c := &GoTrueClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		events:     newNotifier(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// GetSession returns the currently held session without a network call.
func (c *GoTrueClient) GetSession(ctx context.Context) (*Session, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.current, nil
}

// OnSessionChange registers a session-change callback.
func (c *GoTrueClient) OnSessionChange(fn func(Event, *Session)) func() {
	return c.events.subscribe(fn)
}

// SignUp registers a new account. When the service requires email
// confirmation the result carries a nil session.
func (c *GoTrueClient) SignUp(ctx context.Context, email, password string, metadata map[string]any) (SignUpResult, error) {
	payload := map[string]any{
		"email":    email,
		"password": password,
		"data":     metadata,
	}

	body, err := c.do(ctx, http.MethodPost, "/signup", "", payload)
	if err != nil {
		return SignUpResult{}, err
	}

	var sess wireSession
	if err := json.Unmarshal(body, &sess); err != nil {
		return SignUpResult{}, fmt.Errorf("decode signup response: %w", err)
	}

	if sess.AccessToken != "" {
		session, err := sess.toSession()
		if err != nil {
			return SignUpResult{}, err
		}
		c.replace(EventSignedIn, session)
		return SignUpResult{User: session.User, Session: session}, nil
	}

	// Confirmation pending: the body is a bare user object.
	var user wireUser
	if err := json.Unmarshal(body, &user); err != nil {
		return SignUpResult{}, fmt.Errorf("decode signup user: %w", err)
	}
	u, err := user.toUser()
	if err != nil {
		return SignUpResult{}, err
	}
	return SignUpResult{User: u}, nil
}

// SignInWithPassword exchanges credentials for a session.
func (c *GoTrueClient) SignInWithPassword(ctx context.Context, email, password string) (*Session, error) {
	payload := map[string]any{"email": email, "password": password}

	body, err := c.do(ctx, http.MethodPost, "/token?grant_type=password", "", payload)
	if err != nil {
		return nil, err
	}

	session, err := decodeSession(body)
	if err != nil {
		return nil, err
	}

	c.replace(EventSignedIn, session)
	return session, nil
}

// SignInWithOAuth returns the consent URL for the given provider. The
// resulting session arrives later through the service redirect flow.
func (c *GoTrueClient) SignInWithOAuth(ctx context.Context, provider, redirectTo string) (string, error) {
	endpoint, err := url.Parse(c.baseURL + "/authorize")
	if err != nil {
		return "", fmt.Errorf("build authorize url: %w", err)
	}

	values := url.Values{}
	values.Set("provider", provider)
	if redirectTo != "" {
		values.Set("redirect_to", redirectTo)
	}
	endpoint.RawQuery = values.Encode()

	return endpoint.String(), nil
}

// SignOut revokes the current session. The local session is dropped even
// when revocation fails so callers never observe stale state.
func (c *GoTrueClient) SignOut(ctx context.Context) error {
	token := c.accessToken()

	var err error
	if token != "" {
		_, err = c.do(ctx, http.MethodPost, "/logout", token, nil)
	}

	c.replace(EventSignedOut, nil)
	return err
}

// ResetPasswordForEmail asks the service to send a recovery email linking
// back to redirectTo.
func (c *GoTrueClient) ResetPasswordForEmail(ctx context.Context, email, redirectTo string) error {
	payload := map[string]any{"email": email}
	path := "/recover"
	if redirectTo != "" {
		path += "?redirect_to=" + url.QueryEscape(redirectTo)
	}

	_, err := c.do(ctx, http.MethodPost, path, "", payload)
	return err
}

// UpdateUser mutates the authenticated user. Requires an active session.
func (c *GoTrueClient) UpdateUser(ctx context.Context, update UserUpdate) error {
	token := c.accessToken()
	if token == "" {
		return serviceError(http.StatusUnauthorized, "Auth session missing!")
	}

	payload := map[string]any{}
	if update.Password != nil {
		payload["password"] = *update.Password
	}

	_, err := c.do(ctx, http.MethodPut, "/user", token, payload)
	return err
}

// SignInWithOtp sends a one-time code to the given email.
func (c *GoTrueClient) SignInWithOtp(ctx context.Context, email, redirectTo string) error {
	payload := map[string]any{"email": email, "create_user": true}
	path := "/otp"
	if redirectTo != "" {
		path += "?redirect_to=" + url.QueryEscape(redirectTo)
	}

	_, err := c.do(ctx, http.MethodPost, path, "", payload)
	return err
}

// VerifyOtp exchanges an emailed code for a session.
func (c *GoTrueClient) VerifyOtp(ctx context.Context, email, token, otpType string) (*Session, error) {
	payload := map[string]any{"email": email, "token": token, "type": otpType}

	body, err := c.do(ctx, http.MethodPost, "/verify", "", payload)
	if err != nil {
		return nil, err
	}

	session, err := decodeSession(body)
	if err != nil {
		return nil, err
	}

	c.replace(EventSignedIn, session)
	return session, nil
}

// SetSession hydrates a session from externally delivered tokens and
// fetches the user they belong to. Tokens arrive this way only via
// emailed recovery links, so subscribers get the recovery event, same
// as with the local provider.
func (c *GoTrueClient) SetSession(ctx context.Context, accessToken, refreshToken string) (*Session, error) {
	body, err := c.do(ctx, http.MethodGet, "/user", accessToken, nil)
	if err != nil {
		return nil, err
	}

	var user wireUser
	if err := json.Unmarshal(body, &user); err != nil {
		return nil, fmt.Errorf("decode user: %w", err)
	}
	u, err := user.toUser()
	if err != nil {
		return nil, err
	}

	session := &Session{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User:         u,
	}

	c.replace(EventPasswordRecovery, session)
	return session, nil
}

func (c *GoTrueClient) accessToken() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.current == nil {
		return ""
	}
	return c.current.AccessToken
}

func (c *GoTrueClient) replace(event Event, session *Session) {
	c.mu.Lock()
	c.current = session
	c.mu.Unlock()
	c.events.emit(event, session)
}

func (c *GoTrueClient) do(ctx context.Context, method, path, token string, payload any) ([]byte, error) {
	var body *bytes.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(data)
	} else {
		body = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("create auth request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("apikey", c.apiKey)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call auth service: %w", err)
	}
	defer resp.Body.Close()

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(resp.Body); err != nil {
		return nil, fmt.Errorf("read auth response: %w", err)
	}

	if resp.StatusCode >= 400 {
		return nil, serviceError(resp.StatusCode, errorMessage(buf.Bytes(), resp.StatusCode))
	}

	return buf.Bytes(), nil
}

// errorMessage extracts the service's wording from an error body. The exact
// text matters: orchestrator classification matches on it.
func errorMessage(body []byte, status int) string {
	var payload struct {
		Msg              string `json:"msg"`
		Message          string `json:"message"`
		ErrorDescription string `json:"error_description"`
		ErrorField       string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		for _, candidate := range []string{payload.Msg, payload.Message, payload.ErrorDescription, payload.ErrorField} {
			if candidate != "" {
				return candidate
			}
		}
	}
	return fmt.Sprintf("auth service returned status %d", status)
}

type wireUser struct {
	ID               string         `json:"id"`
	Email            string         `json:"email"`
	EmailConfirmedAt *time.Time     `json:"email_confirmed_at"`
	UserMetadata     map[string]any `json:"user_metadata"`
}

func (w wireUser) toUser() (User, error) {
	id, err := uuid.Parse(w.ID)
	if err != nil {
		return User{}, fmt.Errorf("parse user id %q: %w", w.ID, err)
	}
	metadata := w.UserMetadata
	if metadata == nil {
		metadata = map[string]any{}
	}
	return User{
		ID:               id,
		Email:            w.Email,
		EmailConfirmedAt: w.EmailConfirmedAt,
		Metadata:         metadata,
	}, nil
}

type wireSession struct {
	AccessToken  string   `json:"access_token"`
	RefreshToken string   `json:"refresh_token"`
	ExpiresIn    int      `json:"expires_in"`
	User         wireUser `json:"user"`
}

func (w wireSession) toSession() (*Session, error) {
	user, err := w.User.toUser()
	if err != nil {
		return nil, err
	}
	return &Session{
		AccessToken:  w.AccessToken,
		RefreshToken: w.RefreshToken,
		ExpiresAt:    time.Now().Add(time.Duration(w.ExpiresIn) * time.Second),
		User:         user,
	}, nil
}

func decodeSession(body []byte) (*Session, error) {
	var sess wireSession
	if err := json.Unmarshal(body, &sess); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	if sess.AccessToken == "" {
		return nil, fmt.Errorf("auth service returned no access token")
	}
	return sess.toSession()
}
