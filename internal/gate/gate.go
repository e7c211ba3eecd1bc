// Package gate decides where a request for an application page should land
// based on authentication and onboarding state. Decisions are pure: the
// same inputs always produce the same routing action.
package gate

import "walnut/internal/authclient"

// State is the derived authentication/onboarding state.
type State int

const (
	// StateLoading means the initial session fetch has not resolved yet.
	StateLoading State = iota
	// StateAnonymous means no session is present.
	StateAnonymous
	// StateIncomplete means a session exists but onboarding is unfinished.
	StateIncomplete
	// StateComplete means a session exists and onboarding is done.
	StateComplete
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateAnonymous:
		return "anonymous"
	case StateIncomplete:
		return "authenticated-incomplete"
	case StateComplete:
		return "authenticated-complete"
	default:
		return "unknown"
	}
}

// Application page paths the guard knows about.
const (
	PathLanding       = "/"
	PathAuth          = "/auth"
	PathResetPassword = "/reset-password"
	PathQuestionnaire = "/questionnaire"
	PathDashboard     = "/dashboard"
)

// Action is what the caller should do with the requested path.
type Action int

const (
	// ActionRender serves the requested page.
	ActionRender Action = iota
	// ActionRedirect sends the user to Decision.Target instead.
	ActionRedirect
)

// Decision is the guard's verdict for one (state, path) pair.
type Decision struct {
	Action Action
	Target string
}

func render() Decision {
	return Decision{Action: ActionRender}
}

func redirect(target string) Decision {
	return Decision{Action: ActionRedirect, Target: target}
}

// Options tweaks guard behavior for special pages.
type Options struct {
	// StayOnAuth suppresses the automatic redirect away from the auth
	// page, so a sign-in form can be shown even while a stale session
	// exists.
	StayOnAuth bool
}

// Derive computes the state from the loading flag and session.
func Derive(loading bool, session *authclient.Session) State {
	if loading {
		return StateLoading
	}
	if session == nil {
		return StateAnonymous
	}
	if session.User.OnboardingCompleted() {
		return StateComplete
	}
	return StateIncomplete
}

// Decide maps (state, path) to a routing action. While loading, everything
// renders (the caller shows a spinner); redirecting before the session
// resolves would bounce signed-in users through the auth page.
func Decide(state State, path string, opts Options) Decision {
	if state == StateLoading {
		return render()
	}

	switch path {
	case PathAuth:
		switch state {
		case StateAnonymous:
			return render()
		case StateIncomplete:
			if opts.StayOnAuth {
				return render()
			}
			return redirect(PathQuestionnaire)
		case StateComplete:
			if opts.StayOnAuth {
				return render()
			}
			return redirect(PathDashboard)
		}
	case PathQuestionnaire:
		switch state {
		case StateAnonymous:
			return redirect(PathAuth)
		case StateIncomplete:
			return render()
		case StateComplete:
			return redirect(PathDashboard)
		}
	case PathDashboard:
		switch state {
		case StateAnonymous:
			return redirect(PathAuth)
		case StateIncomplete:
			return redirect(PathQuestionnaire)
		case StateComplete:
			return render()
		}
	}

	// Landing, reset-password and unknown paths are public.
	return render()
}
