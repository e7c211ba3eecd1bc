package auth

import "net/url"

// RecoveryTokens are the credentials embedded in an emailed reset link.
type RecoveryTokens struct {
	AccessToken  string
	RefreshToken string
}

// ParseRecoveryLink extracts recovery tokens from a reset-link URL. The
// auth service puts them either in the query string or in the URL
// fragment, so both locations are checked. The second return value is
// false unless type=recovery and both tokens are present.
func ParseRecoveryLink(rawURL string) (RecoveryTokens, bool) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return RecoveryTokens{}, false
	}

	if tokens, ok := recoveryFromValues(u.Query()); ok {
		return tokens, true
	}

	fragment, err := url.ParseQuery(u.Fragment)
	if err != nil {
		return RecoveryTokens{}, false
	}
	return recoveryFromValues(fragment)
}

func recoveryFromValues(values url.Values) (RecoveryTokens, bool) {
	if values.Get("type") != "recovery" {
		return RecoveryTokens{}, false
	}

	tokens := RecoveryTokens{
		AccessToken:  values.Get("access_token"),
		RefreshToken: values.Get("refresh_token"),
	}
	if tokens.AccessToken == "" || tokens.RefreshToken == "" {
		return RecoveryTokens{}, false
	}
	return tokens, true
}
