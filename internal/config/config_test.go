package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("DATA_STORE", "memory")
	t.Setenv("PORT", "8080")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("JWT_SECRET", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}

	if !cfg.UseInMemoryStore() {
		t.Fatal("expected in-memory store by default")
	}
	if !cfg.UseLocalAuth() {
		t.Fatal("expected local auth provider when AUTH_SERVICE_URL is unset")
	}
	if cfg.JWTTTL != 7*24*time.Hour {
		t.Fatalf("expected 7-day token TTL by default, got %v", cfg.JWTTTL)
	}
	if cfg.JWTSecret == "" {
		t.Fatal("expected a development fallback JWT secret")
	}
	if len(cfg.AllowedOrigins) != 4 {
		t.Fatalf("expected 4 default origins, got %v", cfg.AllowedOrigins)
	}
	if got, want := cfg.ResetRedirectURL(), "http://localhost:5173/reset-password"; got != want {
		t.Fatalf("ResetRedirectURL() = %q, want %q", got, want)
	}
}

func TestLoadRequiresJWTSecretOutsideDevelopment(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("DATA_STORE", "memory")
	t.Setenv("PORT", "8080")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("JWT_SECRET", "")

	if _, err := Load(); err == nil {
		t.Fatal("expected error when JWT_SECRET missing outside development")
	}
}

func TestLoadRequiresDatabaseURLForPostgres(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("DATA_STORE", "postgres")
	t.Setenv("PORT", "8080")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("JWT_SECRET", "secret")

	if _, err := Load(); err == nil {
		t.Fatal("expected error when DATA_STORE is postgres without DATABASE_URL")
	}
}

func TestParseTokenTTL(t *testing.T) {
	cases := []struct {
		in   string
		want time.Duration
	}{
		{"7d", 7 * 24 * time.Hour},
		{"1d", 24 * time.Hour},
		{"12h", 12 * time.Hour},
		{"30m", 30 * time.Minute},
	}
	for _, tc := range cases {
		got, err := parseTokenTTL(tc.in)
		if err != nil {
			t.Fatalf("parseTokenTTL(%q) returned error: %v", tc.in, err)
		}
		if got != tc.want {
			t.Fatalf("parseTokenTTL(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}

	if _, err := parseTokenTTL("sevendays"); err == nil {
		t.Fatal("expected error for malformed TTL")
	}
}

func TestLoadExternalAuthService(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("DATA_STORE", "memory")
	t.Setenv("PORT", "8080")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("AUTH_SERVICE_URL", "https://auth.example.com/")
	t.Setenv("AUTH_SERVICE_KEY", "anon-key")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}
	if cfg.UseLocalAuth() {
		t.Fatal("expected external auth provider when AUTH_SERVICE_URL is set")
	}
	if cfg.AuthServiceURL != "https://auth.example.com" {
		t.Fatalf("expected trailing slash trimmed, got %q", cfg.AuthServiceURL)
	}
}
