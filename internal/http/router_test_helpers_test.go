package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"walnut/internal/auth"
	"walnut/internal/authclient"
	"walnut/internal/config"
	"walnut/internal/profile"
	"walnut/internal/session"
)

type testApp struct {
	router   http.Handler
	store    *session.Store
	profiles *profile.Service
	tokens   *auth.TokenIssuer
}

func newTestApp(t *testing.T, opts ...authclient.LocalOption) *testApp {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	client := authclient.NewLocal(logger, opts...)

	store := session.New(client, logger)
	store.Init(context.Background())
	t.Cleanup(store.Close)

	profiles := profile.NewService(profile.NewInMemoryRepository())
	orchestrator := auth.NewOrchestrator(client, profiles, store, "https://app.example.com/reset-password", logger)
	tokens := auth.NewTokenIssuer("test-secret", time.Hour)

	cfg := config.Config{
		Environment:    "test",
		AllowedOrigins: []string{"http://localhost:5173"},
	}
	router := NewRouter(cfg, orchestrator, store, profiles, nil, tokens, logger)

	return &testApp{router: router, store: store, profiles: profiles, tokens: tokens}
}

// do issues a JSON request against the router and decodes the JSON body.
func (a *testApp) do(t *testing.T, method, path, token string, payload any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal payload: %v", err)
		}
		body = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, body)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)

	var decoded map[string]any
	if rec.Body.Len() > 0 {
		if err := json.Unmarshal(rec.Body.Bytes(), &decoded); err != nil {
			t.Fatalf("decode response %q: %v", rec.Body.String(), err)
		}
	}
	return rec, decoded
}

// signUp registers an account through the API and returns the session token.
func (a *testApp) signUp(t *testing.T, email, username string) string {
	t.Helper()

	rec, body := a.do(t, http.MethodPost, "/api/auth/signup", "", map[string]string{
		"email":    email,
		"password": "Sup3r!secret",
		"fullName": "Test User",
		"username": username,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("signup status = %d, body %v", rec.Code, body)
	}

	data := body["data"].(map[string]any)
	token, _ := data["token"].(string)
	if token == "" {
		t.Fatal("signup returned no token")
	}
	return token
}

func dataOf(t *testing.T, body map[string]any) map[string]any {
	t.Helper()
	data, ok := body["data"].(map[string]any)
	if !ok {
		t.Fatalf("response has no data object: %v", body)
	}
	return data
}
