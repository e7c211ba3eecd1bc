package gate

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"walnut/internal/authclient"
)

func sessionWith(onboarded bool) *authclient.Session {
	return &authclient.Session{
		AccessToken:  "token",
		RefreshToken: "refresh",
		ExpiresAt:    time.Now().Add(time.Hour),
		User: authclient.User{
			ID:       uuid.New(),
			Email:    "user@example.com",
			Metadata: map[string]any{"onboarding_completed": onboarded},
		},
	}
}

func TestDerive(t *testing.T) {
	if got := Derive(true, nil); got != StateLoading {
		t.Fatalf("Derive(loading) = %v, want loading", got)
	}
	if got := Derive(true, sessionWith(true)); got != StateLoading {
		t.Fatalf("Derive(loading with session) = %v, want loading", got)
	}
	if got := Derive(false, nil); got != StateAnonymous {
		t.Fatalf("Derive(no session) = %v, want anonymous", got)
	}
	if got := Derive(false, sessionWith(false)); got != StateIncomplete {
		t.Fatalf("Derive(incomplete) = %v, want incomplete", got)
	}
	if got := Derive(false, sessionWith(true)); got != StateComplete {
		t.Fatalf("Derive(complete) = %v, want complete", got)
	}
}

func TestDecide(t *testing.T) {
	cases := []struct {
		name  string
		state State
		path  string
		opts  Options
		want  Decision
	}{
		{"loading renders everything", StateLoading, PathDashboard, Options{}, Decision{Action: ActionRender}},
		{"loading renders auth", StateLoading, PathAuth, Options{}, Decision{Action: ActionRender}},

		{"anonymous on auth", StateAnonymous, PathAuth, Options{}, Decision{Action: ActionRender}},
		{"incomplete on auth", StateIncomplete, PathAuth, Options{}, Decision{Action: ActionRedirect, Target: PathQuestionnaire}},
		{"complete on auth", StateComplete, PathAuth, Options{}, Decision{Action: ActionRedirect, Target: PathDashboard}},
		{"incomplete stays on auth when asked", StateIncomplete, PathAuth, Options{StayOnAuth: true}, Decision{Action: ActionRender}},
		{"complete stays on auth when asked", StateComplete, PathAuth, Options{StayOnAuth: true}, Decision{Action: ActionRender}},

		{"anonymous on questionnaire", StateAnonymous, PathQuestionnaire, Options{}, Decision{Action: ActionRedirect, Target: PathAuth}},
		{"incomplete on questionnaire", StateIncomplete, PathQuestionnaire, Options{}, Decision{Action: ActionRender}},
		{"complete on questionnaire", StateComplete, PathQuestionnaire, Options{}, Decision{Action: ActionRedirect, Target: PathDashboard}},

		{"anonymous on dashboard", StateAnonymous, PathDashboard, Options{}, Decision{Action: ActionRedirect, Target: PathAuth}},
		{"incomplete on dashboard", StateIncomplete, PathDashboard, Options{}, Decision{Action: ActionRedirect, Target: PathQuestionnaire}},
		{"complete on dashboard", StateComplete, PathDashboard, Options{}, Decision{Action: ActionRender}},

		{"landing is public", StateAnonymous, PathLanding, Options{}, Decision{Action: ActionRender}},
		{"reset password is public", StateComplete, PathResetPassword, Options{}, Decision{Action: ActionRender}},
		{"unknown path is public", StateAnonymous, "/pricing", Options{}, Decision{Action: ActionRender}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Decide(tc.state, tc.path, tc.opts)
			if got != tc.want {
				t.Fatalf("Decide(%v, %q) = %+v, want %+v", tc.state, tc.path, got, tc.want)
			}
		})
	}
}

func TestStateString(t *testing.T) {
	if got := StateIncomplete.String(); got != "authenticated-incomplete" {
		t.Fatalf("String() = %q", got)
	}
	if got := State(99).String(); got != "unknown" {
		t.Fatalf("String() for out-of-range = %q", got)
	}
}
