package auth

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// PasswordHasher derives and checks credential digests with bcrypt. The salt
// is part of the digest, so Hash returns a different string every call.
type PasswordHasher struct {
	Cost int
}

func NewPasswordHasher(cost int) PasswordHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return PasswordHasher{Cost: cost}
}

func (h PasswordHasher) Hash(secret string) (string, error) {
	digest, err := bcrypt.GenerateFromPassword([]byte(secret), h.Cost)
	if err != nil {
		return "", fmt.Errorf("hashing password: %w", err)
	}
	return string(digest), nil
}

// Verify reports whether secret matches digest. A malformed digest never
// matches.
func (h PasswordHasher) Verify(digest, secret string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(digest), []byte(secret))
	return err == nil
}
