package session

import "testing"

func TestGenerateRandomAccount(t *testing.T) {
	creds := GenerateRandomAccount()

	if len(creds.Username) != 12 {
		t.Errorf("expected 12-char username, got %q", creds.Username)
	}
	if len(creds.Password) != 16 {
		t.Errorf("expected 16-char password, got %q", creds.Password)
	}

	for _, r := range creds.Username + creds.Password {
		if !((r >= '0' && r <= '9') || (r >= 'a' && r <= 'f')) {
			t.Fatalf("expected lowercase hex characters only, got %q", r)
		}
	}
}

func TestGenerateRandomAccountIsUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		creds := GenerateRandomAccount()
		key := creds.Username + ":" + creds.Password
		if seen[key] {
			t.Fatalf("duplicate credentials generated: %s", key)
		}
		seen[key] = true
	}
}
