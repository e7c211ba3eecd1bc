package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"log/slog"

	"github.com/joho/godotenv"

	"walnut/internal/auth"
	"walnut/internal/authclient"
	"walnut/internal/config"
	transporthttp "walnut/internal/http"
	"walnut/internal/platform/database"
	"walnut/internal/platform/logging"
	"walnut/internal/platform/migrate"
	"walnut/internal/profile"
	"walnut/internal/session"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Local development reads a .env file; absence is not an error.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := logging.New(cfg.LogLevel)

	profileRepo, cleanup, err := buildRepository(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialize repository", "error", err)
		os.Exit(1)
	}
	if cleanup != nil {
		defer cleanup()
	}

	client := buildAuthClient(cfg, logger)

	store := session.New(client, logger)
	store.Init(ctx)
	defer store.Close()

	profiles := profile.NewService(profileRepo)
	orchestrator := auth.NewOrchestrator(client, profiles, store, cfg.ResetRedirectURL(), logger)
	tokens := auth.NewTokenIssuer(cfg.JWTSecret, cfg.JWTTTL)

	var verifier *auth.GoogleVerifier
	if cfg.GoogleClientID != "" && cfg.GoogleClientSecret != "" {
		verifier, err = auth.NewGoogleVerifier(ctx, cfg.GoogleClientID, cfg.GoogleClientSecret)
		if err != nil {
			logger.Error("failed to initialize google verifier", "error", err)
			os.Exit(1)
		}
	}

	router := transporthttp.NewRouter(cfg, orchestrator, store, profiles, verifier, tokens, logger)

	srv := &http.Server{
		Addr:              cfg.HTTPAddress(),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    http.DefaultMaxHeaderBytes,
	}

	go func() {
		logger.Info("Walnut auth service listening", "addr", srv.Addr, "store", cfg.DataStore)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
	}
}

func buildRepository(ctx context.Context, cfg config.Config, logger *slog.Logger) (profile.Repository, func(), error) {
	if cfg.UseInMemoryStore() {
		logger.Info("using in-memory repository")
		return profile.NewInMemoryRepository(), nil, nil
	}

	db, err := database.NewPostgres(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}

	cleanup := func() {
		_ = db.Close()
	}

	if err := migrate.Apply(ctx, db, logger); err != nil {
		cleanup()
		return nil, nil, err
	}

	logger.Info("connected to postgres")
	return profile.NewPostgresRepository(db), cleanup, nil
}

func buildAuthClient(cfg config.Config, logger *slog.Logger) authclient.Client {
	if cfg.UseLocalAuth() {
		logger.Info("using built-in auth provider")
		return authclient.NewLocal(logger,
			authclient.WithRequireConfirmation(cfg.RequireEmailConfirmation))
	}

	logger.Info("using external auth service", "url", cfg.AuthServiceURL)
	return authclient.NewGoTrue(cfg.AuthServiceURL, cfg.AuthServiceKey)
}
