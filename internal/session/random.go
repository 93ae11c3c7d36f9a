package session

import (
	"strings"

	"github.com/google/uuid"

	"github.com/nhle/tempmail/internal/model"
)

// GenerateRandomAccount produces a pseudo-random username/password
// pair for a throwaway mailbox. It has no side effects; the remote
// service stays authoritative on address uniqueness.
func GenerateRandomAccount() model.Credentials {
	return model.Credentials{
		Username: randomToken(12),
		Password: randomToken(16),
	}
}

// randomToken returns n hex characters derived from a fresh UUID.
func randomToken(n int) string {
	s := strings.ReplaceAll(uuid.NewString(), "-", "")
	if n > len(s) {
		n = len(s)
	}
	return s[:n]
}
