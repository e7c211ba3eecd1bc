package auth

import "testing"

func TestCheckPassword(t *testing.T) {
	cases := []struct {
		name  string
		pw    string
		score int
		valid bool
	}{
		{"all rules", `Aa1!aaaa`, 100, true},
		{"missing special", "Aa1aaaaa", 80, true},
		{"missing length", `Aa1!`, 80, true},
		{"lower and digits only", "abc12345", 60, false},
		{"empty", "", 0, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := CheckPassword(tc.pw)
			if got.Score != tc.score {
				t.Fatalf("score = %d, want %d", got.Score, tc.score)
			}
			if got.Valid != tc.valid {
				t.Fatalf("valid = %v, want %v", got.Valid, tc.valid)
			}
		})
	}
}

func TestCheckPasswordChecks(t *testing.T) {
	got := CheckPassword(`aB3,cdefg`)
	if !got.Checks.Length || !got.Checks.Uppercase || !got.Checks.Lowercase || !got.Checks.Number || !got.Checks.Special {
		t.Fatalf("expected every check satisfied, got %+v", got.Checks)
	}
}

func TestUsernamePattern(t *testing.T) {
	valid := []string{"abc", "Alice42", "z1234567890123456789012345678"}
	for _, u := range valid {
		if !usernamePattern.MatchString(u) {
			t.Fatalf("expected %q to be valid", u)
		}
	}

	invalid := []string{"ab", "1abc", "has space", "with_underscore", "waytoolongusernamewaytoolongusername"}
	for _, u := range invalid {
		if usernamePattern.MatchString(u) {
			t.Fatalf("expected %q to be invalid", u)
		}
	}
}

func TestEmailPattern(t *testing.T) {
	if !emailPattern.MatchString("user@example.com") {
		t.Fatal("expected address to be valid")
	}
	for _, e := range []string{"", "plain", "a@b", "a b@c.com", "a@b c.com"} {
		if emailPattern.MatchString(e) {
			t.Fatalf("expected %q to be invalid", e)
		}
	}
}
