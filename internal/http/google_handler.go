package http

import (
	"context"
	"log/slog"
	"net/http"

	"walnut/internal/auth"
	"walnut/internal/profile"
)

// googleVerifier is the slice of auth.GoogleVerifier the relay endpoints
// need; tests substitute a fake.
type googleVerifier interface {
	VerifyCredential(ctx context.Context, rawIDToken string) (*auth.GoogleClaims, error)
	ExchangeCode(ctx context.Context, code string) (*auth.GoogleClaims, error)
}

// GoogleHandler relays Google sign-in: it verifies the material the
// browser obtained from Google, maintains the identity row and issues the
// application's own session token.
type GoogleHandler struct {
	verifier googleVerifier
	profiles *profile.Service
	tokens   *auth.TokenIssuer
	logger   *slog.Logger
}

// NewGoogleHandler creates a handler. verifier may be nil when Google
// sign-in is not configured; the endpoints then report unavailability.
func NewGoogleHandler(verifier googleVerifier, profiles *profile.Service, tokens *auth.TokenIssuer, logger *slog.Logger) *GoogleHandler {
	return &GoogleHandler{verifier: verifier, profiles: profiles, tokens: tokens, logger: logger}
}

type googleCredentialRequest struct {
	Credential string `json:"credential"`
}

// Credential handles the ID-token flow used by the sign-in widget.
func (h *GoogleHandler) Credential(w http.ResponseWriter, r *http.Request) {
	if h.verifier == nil {
		writeFailure(w, http.StatusServiceUnavailable, "Google sign-in is not configured")
		return
	}

	var req googleCredentialRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		writeJSONError(w, err)
		return
	}
	if req.Credential == "" {
		writeFailure(w, http.StatusBadRequest, "Credential is required")
		return
	}

	claims, err := h.verifier.VerifyCredential(r.Context(), req.Credential)
	if err != nil {
		h.logger.Warn("google credential rejected", "error", err)
		writeFailure(w, http.StatusUnauthorized, "Invalid Google credential")
		return
	}

	h.finish(w, r, claims)
}

type googleCodeRequest struct {
	Code string `json:"code"`
}

// Code handles the authorization-code flow used by the popup.
func (h *GoogleHandler) Code(w http.ResponseWriter, r *http.Request) {
	if h.verifier == nil {
		writeFailure(w, http.StatusServiceUnavailable, "Google sign-in is not configured")
		return
	}

	var req googleCodeRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		writeJSONError(w, err)
		return
	}
	if req.Code == "" {
		writeFailure(w, http.StatusBadRequest, "Authorization code is required")
		return
	}

	claims, err := h.verifier.ExchangeCode(r.Context(), req.Code)
	if err != nil {
		h.logger.Warn("google code exchange failed", "error", err)
		writeFailure(w, http.StatusUnauthorized, "Invalid authorization code")
		return
	}

	h.finish(w, r, claims)
}

// finish is shared by both flows once the Google claims are verified.
func (h *GoogleHandler) finish(w http.ResponseWriter, r *http.Request, claims *auth.GoogleClaims) {
	if claims.Email == "" {
		writeFailure(w, http.StatusBadGateway, "Google did not provide an email address")
		return
	}

	p, err := h.profiles.UpsertGoogleIdentity(r.Context(), claims.Sub, claims.Email, claims.Name, claims.Picture, claims.EmailVerified)
	if err != nil {
		h.logger.Error("google identity upsert failed", "email", claims.Email, "error", err)
		writeFailure(w, http.StatusInternalServerError, "Could not complete Google sign-in. Please try again.")
		return
	}

	if err := h.profiles.TouchLogin(r.Context(), p.UserID, p.Email, p.EmailVerified); err != nil {
		h.logger.Warn("last-login update failed", "user_id", p.UserID, "error", err)
	}

	token, err := h.tokens.Issue(p.UserID, p.Email, "google")
	if err != nil {
		h.logger.Error("session token issue failed", "user_id", p.UserID, "error", err)
		writeFailure(w, http.StatusInternalServerError, "Could not establish a session. Please try again.")
		return
	}

	writeSuccess(w, http.StatusOK, map[string]any{
		"user": map[string]any{
			"id":                  p.UserID.String(),
			"email":               p.Email,
			"fullName":            p.FullName,
			"picture":             p.PictureURL,
			"onboardingCompleted": p.OnboardingCompleted,
			"provider":            "google",
		},
		"token": token,
	})
}
