package http

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"walnut/internal/auth"
	"walnut/internal/authclient"
	"walnut/internal/gate"
	"walnut/internal/session"
)

// AuthHandler exposes the credential, recovery and one-time-code flows.
type AuthHandler struct {
	orchestrator *auth.Orchestrator
	store        *session.Store
	tokens       *auth.TokenIssuer
	logger       *slog.Logger
}

// NewAuthHandler creates a handler.
func NewAuthHandler(orchestrator *auth.Orchestrator, store *session.Store, tokens *auth.TokenIssuer, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{orchestrator: orchestrator, store: store, tokens: tokens, logger: logger}
}

// kindStatus maps a classified failure to its HTTP status.
func kindStatus(kind auth.Kind) int {
	switch kind {
	case auth.KindAlreadyRegistered, auth.KindUsernameTaken:
		return http.StatusConflict
	case auth.KindRateLimited:
		return http.StatusTooManyRequests
	case auth.KindInvalidCredential:
		return http.StatusUnauthorized
	case auth.KindEmailUnconfirmed, auth.KindAccountDisabled:
		return http.StatusForbidden
	case auth.KindAccountNotFound:
		return http.StatusNotFound
	case auth.KindValidation, auth.KindInvalidEmail, auth.KindWeakPassword:
		return http.StatusBadRequest
	default:
		return http.StatusBadGateway
	}
}

// writeAuthError renders a classified failure, or a generic message for
// anything that escaped classification.
func (h *AuthHandler) writeAuthError(w http.ResponseWriter, err error) {
	var userErr *auth.UserError
	if errors.As(err, &userErr) {
		writeFailure(w, kindStatus(userErr.Kind), userErr.Message)
		return
	}
	h.logger.Error("unclassified auth failure", "error", err)
	writeFailure(w, http.StatusInternalServerError, "Something went wrong. Please try again.")
}

// sessionUserPayload shapes a session's user for relay responses.
func sessionUserPayload(u authclient.User) map[string]any {
	fullName, _ := u.Metadata["full_name"].(string)
	return map[string]any{
		"id":                  u.ID.String(),
		"email":               u.Email,
		"fullName":            fullName,
		"onboardingCompleted": u.OnboardingCompleted(),
	}
}

func (h *AuthHandler) issueToken(w http.ResponseWriter, sess *authclient.Session, provider string) (string, bool) {
	token, err := h.tokens.Issue(sess.User.ID, sess.User.Email, provider)
	if err != nil {
		h.logger.Error("session token issue failed", "user_id", sess.User.ID, "error", err)
		writeFailure(w, http.StatusInternalServerError, "Could not establish a session. Please try again.")
		return "", false
	}
	return token, true
}

type signUpRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"fullName"`
	Username string `json:"username"`
}

// SignUp registers a new account.
func (h *AuthHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	var req signUpRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		writeJSONError(w, err)
		return
	}

	req.Email = strings.TrimSpace(req.Email)
	req.Username = strings.TrimSpace(req.Username)
	if req.Email == "" || req.Password == "" {
		writeFailure(w, http.StatusBadRequest, "Email and password are required")
		return
	}

	outcome, err := h.orchestrator.SignUp(r.Context(), req.Email, req.Password, strings.TrimSpace(req.FullName), req.Username)
	if err != nil {
		h.writeAuthError(w, err)
		return
	}

	if outcome.Pending {
		writeSuccess(w, http.StatusOK, map[string]any{
			"user":                sessionUserPayload(outcome.User),
			"pendingConfirmation": true,
			"message":             outcome.Message,
		})
		return
	}

	// The token comes from the outcome's own session. The store holds the
	// same data but is shared; a concurrent sign-in could replace it
	// between the orchestrator call and a read here.
	sess := outcome.Session
	if sess == nil {
		// Session was expected but never landed; treat like a pending
		// confirmation so the user is not stuck.
		writeSuccess(w, http.StatusOK, map[string]any{
			"user":                sessionUserPayload(outcome.User),
			"pendingConfirmation": true,
		})
		return
	}

	token, ok := h.issueToken(w, sess, "email")
	if !ok {
		return
	}
	writeSuccess(w, http.StatusCreated, map[string]any{
		"user":  sessionUserPayload(sess.User),
		"token": token,
	})
}

type signInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SignIn exchanges credentials for a session token.
func (h *AuthHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	var req signInRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		writeJSONError(w, err)
		return
	}

	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" || req.Password == "" {
		writeFailure(w, http.StatusBadRequest, "Email and password are required")
		return
	}

	sess, err := h.orchestrator.SignIn(r.Context(), req.Email, req.Password)
	if err != nil {
		h.writeAuthError(w, err)
		return
	}

	token, ok := h.issueToken(w, sess, "email")
	if !ok {
		return
	}
	writeSuccess(w, http.StatusOK, map[string]any{
		"user":  sessionUserPayload(sess.User),
		"token": token,
	})
}

// SignOut revokes the current session.
func (h *AuthHandler) SignOut(w http.ResponseWriter, r *http.Request) {
	if err := h.orchestrator.SignOut(r.Context()); err != nil {
		// The local session is gone either way; report success so the
		// client completes its sign-out.
		h.logger.Warn("sign-out completed with remote error", "error", err)
	}
	writeSuccess(w, http.StatusOK, map[string]any{"signedOut": true})
}

// Session reports the current session, reconciled against the profile
// table's onboarding flag.
func (h *AuthHandler) Session(w http.ResponseWriter, r *http.Request) {
	snapshot := h.store.Current()

	data := map[string]any{
		"loading": snapshot.Loading,
		"session": nil,
	}
	if sess := h.orchestrator.ReconciledSession(r.Context()); sess != nil {
		data["session"] = map[string]any{
			"user":      sessionUserPayload(sess.User),
			"expiresAt": sess.ExpiresAt,
		}
	}
	writeSuccess(w, http.StatusOK, data)
}

// Navigate answers where a request for an application page should land.
func (h *AuthHandler) Navigate(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	if path == "" {
		writeFailure(w, http.StatusBadRequest, "path is required")
		return
	}

	snapshot := h.store.Current()
	sess := snapshot.Session
	if !snapshot.Loading {
		sess = h.orchestrator.ReconciledSession(r.Context())
	}

	state := gate.Derive(snapshot.Loading, sess)
	decision := gate.Decide(state, path, gate.Options{
		StayOnAuth: r.URL.Query().Get("stayOnAuth") == "true",
	})

	action := "render"
	if decision.Action == gate.ActionRedirect {
		action = "redirect"
	}
	writeSuccess(w, http.StatusOK, map[string]any{
		"state":  state.String(),
		"action": action,
		"target": decision.Target,
	})
}

type emailRequest struct {
	Email string `json:"email"`
}

// ForgotPassword emails a recovery link.
func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req emailRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		writeJSONError(w, err)
		return
	}
	if strings.TrimSpace(req.Email) == "" {
		writeFailure(w, http.StatusBadRequest, "Email is required")
		return
	}

	if err := h.orchestrator.ForgotPassword(r.Context(), strings.TrimSpace(req.Email)); err != nil {
		h.writeAuthError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]any{
		"message": "If an account exists for that email, a reset link has been sent.",
	})
}

type updatePasswordRequest struct {
	Password string `json:"password"`
}

// UpdatePassword sets a new password during an active recovery session.
func (h *AuthHandler) UpdatePassword(w http.ResponseWriter, r *http.Request) {
	var req updatePasswordRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		writeJSONError(w, err)
		return
	}

	if strength := auth.CheckPassword(req.Password); !strength.Valid {
		writeFailure(w, http.StatusBadRequest, "Password is too weak. Please choose a stronger password with at least 8 characters.")
		return
	}

	if err := h.orchestrator.UpdatePassword(r.Context(), req.Password); err != nil {
		h.writeAuthError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]any{"updated": true})
}

type recoverRequest struct {
	URL string `json:"url"`
}

// Recover hydrates a recovery session from an emailed reset link.
func (h *AuthHandler) Recover(w http.ResponseWriter, r *http.Request) {
	var req recoverRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		writeJSONError(w, err)
		return
	}

	sess, err := h.orchestrator.RecoverFromLink(r.Context(), req.URL)
	if err != nil {
		h.writeAuthError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]any{
		"user":     sessionUserPayload(sess.User),
		"recovery": true,
	})
}

// SendOtp emails a one-time sign-in code.
func (h *AuthHandler) SendOtp(w http.ResponseWriter, r *http.Request) {
	var req emailRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		writeJSONError(w, err)
		return
	}
	if strings.TrimSpace(req.Email) == "" {
		writeFailure(w, http.StatusBadRequest, "Email is required")
		return
	}

	if err := h.orchestrator.SendOtp(r.Context(), strings.TrimSpace(req.Email)); err != nil {
		h.writeAuthError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]any{"sent": true})
}

type verifyOtpRequest struct {
	Email string `json:"email"`
	Token string `json:"token"`
}

// VerifyOtp exchanges an emailed code for a session token.
func (h *AuthHandler) VerifyOtp(w http.ResponseWriter, r *http.Request) {
	var req verifyOtpRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		writeJSONError(w, err)
		return
	}
	if req.Email == "" || req.Token == "" {
		writeFailure(w, http.StatusBadRequest, "Email and code are required")
		return
	}

	sess, err := h.orchestrator.VerifyOtp(r.Context(), strings.TrimSpace(req.Email), strings.TrimSpace(req.Token))
	if err != nil {
		h.writeAuthError(w, err)
		return
	}

	token, ok := h.issueToken(w, sess, "email")
	if !ok {
		return
	}
	writeSuccess(w, http.StatusOK, map[string]any{
		"user":  sessionUserPayload(sess.User),
		"token": token,
	})
}

// ValidateUsername reports format and availability for live form feedback.
func (h *AuthHandler) ValidateUsername(w http.ResponseWriter, r *http.Request) {
	username := strings.TrimSpace(r.URL.Query().Get("username"))
	writeJSON(w, http.StatusOK, h.orchestrator.ValidateUsername(r.Context(), username))
}

// ValidateEmail reports email format validity.
func (h *AuthHandler) ValidateEmail(w http.ResponseWriter, r *http.Request) {
	email := strings.TrimSpace(r.URL.Query().Get("email"))
	writeJSON(w, http.StatusOK, h.orchestrator.ValidateEmail(email))
}

type passwordRequest struct {
	Password string `json:"password"`
}

// ValidatePassword scores a candidate password.
func (h *AuthHandler) ValidatePassword(w http.ResponseWriter, r *http.Request) {
	var req passwordRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		writeJSONError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.orchestrator.ValidatePassword(req.Password))
}
