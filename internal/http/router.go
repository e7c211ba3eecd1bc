package http

import (
	"net/http"
	"time"

	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"walnut/internal/auth"
	"walnut/internal/config"
	"walnut/internal/profile"
	"walnut/internal/session"
)

// NewRouter wires application routes and middleware using chi. verifier is
// nil when Google sign-in is not configured.
func NewRouter(cfg config.Config, orchestrator *auth.Orchestrator, store *session.Store, profiles *profile.Service, verifier *auth.GoogleVerifier, tokens *auth.TokenIssuer, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(newSecurityHeadersMiddleware(cfg.Environment))
	r.Use(newSlogMiddleware(logger))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"status":    "OK",
			"message":   "Auth service is running",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
	})

	authHandler := NewAuthHandler(orchestrator, store, tokens, logger)
	profileHandler := NewProfileHandler(profiles, logger)

	var google googleVerifier
	if verifier != nil {
		google = verifier
	} else {
		logger.Warn("google client credentials missing; google sign-in endpoints disabled")
	}
	googleHandler := NewGoogleHandler(google, profiles, tokens, logger)

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/signup", authHandler.SignUp)
			r.Post("/signin", authHandler.SignIn)
			r.Post("/signout", authHandler.SignOut)
			r.Get("/session", authHandler.Session)
			r.Get("/navigate", authHandler.Navigate)

			r.Post("/google", googleHandler.Credential)
			r.Post("/google-code", googleHandler.Code)

			r.Route("/password", func(r chi.Router) {
				r.Post("/forgot", authHandler.ForgotPassword)
				r.Post("/recover", authHandler.Recover)
				r.Post("/update", authHandler.UpdatePassword)
			})

			r.Route("/otp", func(r chi.Router) {
				r.Post("/send", authHandler.SendOtp)
				r.Post("/verify", authHandler.VerifyOtp)
			})
		})

		r.Route("/validate", func(r chi.Router) {
			r.Get("/username", authHandler.ValidateUsername)
			r.Get("/email", authHandler.ValidateEmail)
			r.Post("/password", authHandler.ValidatePassword)
		})

		r.Route("/profile", func(r chi.Router) {
			r.Use(newTokenAuthMiddleware(tokens, logger))
			r.Get("/", profileHandler.Get)
			r.Post("/", profileHandler.Save)
			r.Put("/", profileHandler.Update)
			r.Get("/status", profileHandler.Status)
		})
	})

	r.NotFound(http.NotFoundHandler().ServeHTTP)

	return r
}
