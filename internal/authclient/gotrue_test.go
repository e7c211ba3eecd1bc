package authclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
)

const testUserID = "8a9bdd42-5bd1-4a69-9a3c-6dfae1f3d2aa"

func userBody(confirmed bool) map[string]any {
	body := map[string]any{
		"id":            testUserID,
		"email":         "alice@example.com",
		"user_metadata": map[string]any{"username": "alice"},
	}
	if confirmed {
		body["email_confirmed_at"] = "2026-01-02T03:04:05Z"
	}
	return body
}

func sessionBody() map[string]any {
	return map[string]any{
		"access_token":  "access-token",
		"refresh_token": "refresh-token",
		"expires_in":    3600,
		"user":          userBody(true),
	}
}

func TestGoTrueSignInWithPassword(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/token" || r.URL.Query().Get("grant_type") != "password" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL)
		}
		if got := r.Header.Get("apikey"); got != "anon-key" {
			t.Errorf("apikey header = %q", got)
		}

		var payload map[string]string
		_ = json.NewDecoder(r.Body).Decode(&payload)
		if payload["email"] != "alice@example.com" {
			t.Errorf("email = %q", payload["email"])
		}

		_ = json.NewEncoder(w).Encode(sessionBody())
	}))
	defer srv.Close()

	client := NewGoTrue(srv.URL, "anon-key")

	var gotEvent Event
	unsubscribe := client.OnSessionChange(func(e Event, s *Session) { gotEvent = e })
	defer unsubscribe()

	sess, err := client.SignInWithPassword(context.Background(), "alice@example.com", "secret")
	if err != nil {
		t.Fatalf("SignInWithPassword() returned error: %v", err)
	}
	if sess.AccessToken != "access-token" {
		t.Fatalf("AccessToken = %q", sess.AccessToken)
	}
	if sess.User.ID != uuid.MustParse(testUserID) {
		t.Fatalf("user id = %v", sess.User.ID)
	}
	if gotEvent != EventSignedIn {
		t.Fatalf("event = %q, want %q", gotEvent, EventSignedIn)
	}

	held, _ := client.GetSession(context.Background())
	if held == nil || held.AccessToken != "access-token" {
		t.Fatal("expected client to hold the session")
	}
}

func TestGoTrueErrorPreservesServiceWording(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error_description":"Invalid login credentials"}`))
	}))
	defer srv.Close()

	client := NewGoTrue(srv.URL, "")
	_, err := client.SignInWithPassword(context.Background(), "alice@example.com", "wrong")
	if err == nil || err.Error() != "Invalid login credentials" {
		t.Fatalf("err = %v, want exact service wording", err)
	}
}

func TestGoTrueSignUpPendingConfirmation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/signup" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		// No access_token: the service is holding the session until the
		// email is confirmed.
		_ = json.NewEncoder(w).Encode(userBody(false))
	}))
	defer srv.Close()

	client := NewGoTrue(srv.URL, "")
	result, err := client.SignUp(context.Background(), "alice@example.com", "secret", map[string]any{"username": "alice"})
	if err != nil {
		t.Fatalf("SignUp() returned error: %v", err)
	}
	if result.Session != nil {
		t.Fatal("expected nil session while confirmation is pending")
	}
	if result.User.EmailConfirmedAt != nil {
		t.Fatal("expected unconfirmed user")
	}
}

func TestGoTrueSignOutDropsSessionOnRemoteFailure(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/token":
			_ = json.NewEncoder(w).Encode(sessionBody())
		case "/logout":
			calls++
			if got := r.Header.Get("Authorization"); got != "Bearer access-token" {
				t.Errorf("Authorization = %q", got)
			}
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{"msg":"boom"}`))
		}
	}))
	defer srv.Close()

	client := NewGoTrue(srv.URL, "")
	if _, err := client.SignInWithPassword(context.Background(), "alice@example.com", "secret"); err != nil {
		t.Fatalf("SignInWithPassword() returned error: %v", err)
	}

	err := client.SignOut(context.Background())
	if err == nil {
		t.Fatal("expected the remote failure to surface")
	}
	if calls != 1 {
		t.Fatalf("logout calls = %d, want 1", calls)
	}
	if sess, _ := client.GetSession(context.Background()); sess != nil {
		t.Fatal("local session must be dropped even when revocation fails")
	}
}

func TestGoTrueSetSessionFetchesUser(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/user" || r.Method != http.MethodGet {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); !strings.HasPrefix(got, "Bearer recovered-at") {
			t.Errorf("Authorization = %q", got)
		}
		_ = json.NewEncoder(w).Encode(userBody(true))
	}))
	defer srv.Close()

	client := NewGoTrue(srv.URL, "")

	var gotEvent Event
	unsubscribe := client.OnSessionChange(func(e Event, s *Session) { gotEvent = e })
	defer unsubscribe()

	sess, err := client.SetSession(context.Background(), "recovered-at", "recovered-rt")
	if err != nil {
		t.Fatalf("SetSession() returned error: %v", err)
	}
	if sess.AccessToken != "recovered-at" || sess.RefreshToken != "recovered-rt" {
		t.Fatalf("unexpected tokens: %+v", sess)
	}
	if sess.User.Email != "alice@example.com" {
		t.Fatalf("user email = %q", sess.User.Email)
	}
	if gotEvent != EventPasswordRecovery {
		t.Fatalf("event = %q, want %q; both providers must emit the same event for link hydration", gotEvent, EventPasswordRecovery)
	}
}

func TestGoTrueSignInWithOAuthBuildsConsentURL(t *testing.T) {
	client := NewGoTrue("https://auth.example.com", "")
	got, err := client.SignInWithOAuth(context.Background(), "google", "https://app.example.com/dashboard")
	if err != nil {
		t.Fatalf("SignInWithOAuth() returned error: %v", err)
	}
	if !strings.HasPrefix(got, "https://auth.example.com/authorize?") {
		t.Fatalf("consent URL = %q", got)
	}
	if !strings.Contains(got, "provider=google") || !strings.Contains(got, "redirect_to=https%3A%2F%2Fapp.example.com%2Fdashboard") {
		t.Fatalf("consent URL missing parameters: %q", got)
	}
}
