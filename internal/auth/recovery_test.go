package auth

import "testing"

func TestParseRecoveryLinkFragment(t *testing.T) {
	tokens, ok := ParseRecoveryLink("https://app.example.com/reset-password#access_token=at&refresh_token=rt&type=recovery")
	if !ok {
		t.Fatal("expected link to parse")
	}
	if tokens.AccessToken != "at" || tokens.RefreshToken != "rt" {
		t.Fatalf("unexpected tokens: %+v", tokens)
	}
}

func TestParseRecoveryLinkQuery(t *testing.T) {
	tokens, ok := ParseRecoveryLink("https://app.example.com/reset-password?access_token=at&refresh_token=rt&type=recovery")
	if !ok {
		t.Fatal("expected link to parse")
	}
	if tokens.AccessToken != "at" || tokens.RefreshToken != "rt" {
		t.Fatalf("unexpected tokens: %+v", tokens)
	}
}

func TestParseRecoveryLinkRejects(t *testing.T) {
	cases := []string{
		"https://app.example.com/reset-password",
		"https://app.example.com/reset-password#access_token=at&refresh_token=rt&type=magiclink",
		"https://app.example.com/reset-password#access_token=at&type=recovery",
		"https://app.example.com/reset-password#refresh_token=rt&type=recovery",
		"://not a url",
	}
	for _, link := range cases {
		if _, ok := ParseRecoveryLink(link); ok {
			t.Fatalf("expected %q to be rejected", link)
		}
	}
}
