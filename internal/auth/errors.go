package auth

import "strings"

// Kind is a user-facing failure category.
type Kind string

const (
	KindValidation        Kind = "validation"
	KindAlreadyRegistered Kind = "already_registered"
	KindInvalidEmail      Kind = "invalid_email"
	KindWeakPassword      Kind = "weak_password"
	KindRateLimited       Kind = "rate_limited"
	KindInvalidCredential Kind = "invalid_credentials"
	KindEmailUnconfirmed  Kind = "email_unconfirmed"
	KindAccountNotFound   Kind = "account_not_found"
	KindAccountDisabled   Kind = "account_disabled"
	KindUsernameTaken     Kind = "username_taken"
	KindUnknown           Kind = "unknown"
)

// UserError is a classified failure whose message is safe to show as-is.
type UserError struct {
	Kind    Kind
	Message string
}

func (e *UserError) Error() string {
	return e.Message
}

func userErr(kind Kind, message string) *UserError {
	return &UserError{Kind: kind, Message: message}
}

// rule rewrites a service rejection when the raw message contains every
// listed substring. The tables below are the single place coupled to the
// auth service's wording; update them here, never at call sites.
type rule struct {
	contains []string
	kind     Kind
	message  string
}

var signUpRules = []rule{
	{[]string{"User already registered"}, KindAlreadyRegistered, "This email is already registered. Please sign in instead or use a different email address."},
	{[]string{"already registered"}, KindAlreadyRegistered, "This email is already registered. Please sign in instead or use a different email address."},
	{[]string{"already exists"}, KindAlreadyRegistered, "This email is already registered. Please sign in instead or use a different email address."},
	{[]string{"Invalid email"}, KindInvalidEmail, "Please enter a valid email address."},
	{[]string{"Password", "weak"}, KindWeakPassword, "Password is too weak. Please choose a stronger password with at least 8 characters."},
	{[]string{"Too many requests"}, KindRateLimited, "Too many signup attempts. Please wait a few minutes before trying again."},
}

var signInRules = []rule{
	{[]string{"Invalid login credentials"}, KindInvalidCredential, "Invalid email or password. Please check your credentials and try again."},
	{[]string{"Invalid email or password"}, KindInvalidCredential, "Invalid email or password. Please check your credentials and try again."},
	{[]string{"Email not confirmed"}, KindEmailUnconfirmed, "Please check your email and click the confirmation link before signing in."},
	{[]string{"User not found"}, KindAccountNotFound, "Account not found. Please check your email or create a new account."},
	{[]string{"does not exist"}, KindAccountNotFound, "Account not found. Please check your email or create a new account."},
	{[]string{"Too many requests"}, KindRateLimited, "Too many login attempts. Please wait a few minutes before trying again."},
	{[]string{"Account disabled"}, KindAccountDisabled, "Your account has been disabled. Please contact support for assistance."},
}

// classify rewrites err's message per the rule table. Unmatched messages
// pass through verbatim as KindUnknown.
func classify(err error, rules []rule) *UserError {
	message := err.Error()
	for _, r := range rules {
		if containsAll(message, r.contains) {
			return userErr(r.kind, r.message)
		}
	}
	return userErr(KindUnknown, message)
}

func classifySignUp(err error) *UserError {
	return classify(err, signUpRules)
}

func classifySignIn(err error) *UserError {
	return classify(err, signInRules)
}

func containsAll(message string, substrings []string) bool {
	for _, s := range substrings {
		if !strings.Contains(message, s) {
			return false
		}
	}
	return true
}
