package auth

import (
	"context"
	"regexp"
	"strings"
	"unicode"
)

var (
	usernamePattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9]{2,29}$`)
	emailPattern    = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
)

const passwordSymbols = `!@#$%^&*(),.?":{}|<>`

// Validation is per-field feedback for live form checks.
type Validation struct {
	Available bool   `json:"available"`
	Message   string `json:"message,omitempty"`
}

// PasswordChecks reports which strength rules a password satisfies.
type PasswordChecks struct {
	Length    bool `json:"length"`
	Uppercase bool `json:"uppercase"`
	Lowercase bool `json:"lowercase"`
	Number    bool `json:"number"`
	Special   bool `json:"special"`
}

// PasswordStrength scores a password in 20-point increments per satisfied
// rule. Valid means at least 4 of the 5 rules hold.
type PasswordStrength struct {
	Valid  bool           `json:"isValid"`
	Score  int            `json:"score"`
	Checks PasswordChecks `json:"checks"`
}

// CheckPassword scores a password locally. It never does I/O.
func CheckPassword(password string) PasswordStrength {
	checks := PasswordChecks{
		Length:  len(password) >= 8,
		Special: strings.ContainsAny(password, passwordSymbols),
	}
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			checks.Uppercase = true
		case unicode.IsLower(r):
			checks.Lowercase = true
		case unicode.IsDigit(r):
			checks.Number = true
		}
	}

	score := 0
	for _, ok := range []bool{checks.Length, checks.Uppercase, checks.Lowercase, checks.Number, checks.Special} {
		if ok {
			score += 20
		}
	}

	return PasswordStrength{
		Valid:  score >= 80,
		Score:  score,
		Checks: checks,
	}
}

// ValidatePassword scores the candidate password for live form feedback.
func (o *Orchestrator) ValidatePassword(password string) PasswordStrength {
	return CheckPassword(password)
}

// ValidateEmail checks email format. Local only, no availability lookup.
func (o *Orchestrator) ValidateEmail(email string) Validation {
	if !emailPattern.MatchString(email) {
		return Validation{Available: false, Message: "Invalid email format"}
	}
	return Validation{Available: true}
}

// ValidateUsername checks format locally, then availability against the
// profile store. Lookup failures must never block typing: they are
// swallowed and reported as available.
func (o *Orchestrator) ValidateUsername(ctx context.Context, username string) Validation {
	if !usernamePattern.MatchString(username) {
		return Validation{Available: false, Message: "Username must start with a letter and be 3-30 alphanumeric characters"}
	}

	existing, err := o.profiles.GetByUsername(ctx, username)
	if err != nil {
		o.logger.Warn("username availability lookup failed", "error", err)
		return Validation{Available: true}
	}
	if existing != nil {
		return Validation{Available: false, Message: "Username is already taken"}
	}
	return Validation{Available: true}
}
