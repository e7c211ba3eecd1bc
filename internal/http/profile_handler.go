package http

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"walnut/internal/profile"
)

// ProfileHandler exposes the questionnaire endpoints. Every route requires
// a valid session token; the subject comes from its claims.
type ProfileHandler struct {
	profiles *profile.Service
	logger   *slog.Logger
}

// NewProfileHandler creates a handler.
func NewProfileHandler(profiles *profile.Service, logger *slog.Logger) *ProfileHandler {
	return &ProfileHandler{profiles: profiles, logger: logger}
}

func (h *ProfileHandler) subject(w http.ResponseWriter, r *http.Request) (uuid.UUID, string, bool) {
	claims := ClaimsFromContext(r.Context())
	if claims == nil {
		unauthorized(w)
		return uuid.Nil, "", false
	}
	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		unauthorized(w)
		return uuid.Nil, "", false
	}
	return userID, claims.Email, true
}

// Get returns the questionnaire-shaped profile, or null when none exists.
func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, _, ok := h.subject(w, r)
	if !ok {
		return
	}

	form, err := h.profiles.GetFormattedProfile(r.Context(), userID)
	if err != nil {
		h.logger.Error("get profile", "user_id", userID, "error", err)
		writeFailure(w, http.StatusInternalServerError, "Failed to load profile")
		return
	}

	completed, err := h.profiles.OnboardingStatus(r.Context(), userID)
	if err != nil {
		h.logger.Error("onboarding status", "user_id", userID, "error", err)
		writeFailure(w, http.StatusInternalServerError, "Failed to load profile")
		return
	}

	writeSuccess(w, http.StatusOK, map[string]any{
		"profile":             form,
		"onboardingCompleted": completed,
	})
}

// Save persists the completed questionnaire and marks onboarding done.
func (h *ProfileHandler) Save(w http.ResponseWriter, r *http.Request) {
	userID, email, ok := h.subject(w, r)
	if !ok {
		return
	}

	var form profile.FormData
	if err := decodeJSONBody(w, r, &form); err != nil {
		writeJSONError(w, err)
		return
	}

	p, err := h.profiles.SaveProfile(r.Context(), userID, email, form)
	if err != nil {
		if errors.Is(err, profile.ErrUsernameTaken) {
			writeFailure(w, http.StatusConflict, "Username is already taken")
			return
		}
		h.logger.Error("save profile", "user_id", userID, "error", err)
		writeFailure(w, http.StatusInternalServerError, "Failed to save profile")
		return
	}

	writeSuccess(w, http.StatusOK, map[string]any{
		"onboardingCompleted": p.OnboardingCompleted,
	})
}

// Update applies questionnaire changes without touching the onboarding
// flag. The row must already exist.
func (h *ProfileHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, _, ok := h.subject(w, r)
	if !ok {
		return
	}

	var form profile.FormData
	if err := decodeJSONBody(w, r, &form); err != nil {
		writeJSONError(w, err)
		return
	}

	p, err := h.profiles.UpdateProfile(r.Context(), userID, form)
	if err != nil {
		if errors.Is(err, profile.ErrNotFound) {
			writeFailure(w, http.StatusNotFound, "Profile not found")
			return
		}
		if errors.Is(err, profile.ErrUsernameTaken) {
			writeFailure(w, http.StatusConflict, "Username is already taken")
			return
		}
		h.logger.Error("update profile", "user_id", userID, "error", err)
		writeFailure(w, http.StatusInternalServerError, "Failed to update profile")
		return
	}

	writeSuccess(w, http.StatusOK, map[string]any{"profile": p.Form()})
}

// Status reports whether the user has finished the questionnaire.
func (h *ProfileHandler) Status(w http.ResponseWriter, r *http.Request) {
	userID, _, ok := h.subject(w, r)
	if !ok {
		return
	}

	completed, err := h.profiles.OnboardingStatus(r.Context(), userID)
	if err != nil {
		h.logger.Error("onboarding status", "user_id", userID, "error", err)
		writeFailure(w, http.StatusInternalServerError, "Failed to load onboarding status")
		return
	}

	writeSuccess(w, http.StatusOK, map[string]any{"onboardingCompleted": completed})
}
