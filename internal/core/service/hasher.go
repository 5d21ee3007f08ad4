package service

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

const minBcryptCost = 10

// BcryptHasher hashes passwords with bcrypt. Each Hash call salts
// independently, so a logical password must be hashed exactly once and the
// resulting string propagated to both stores; hashing per store would leave
// the stores holding different bytes for the same password.
type BcryptHasher struct {
	cost int
}

// NewBcryptHasher builds a hasher with the given cost. Costs below 10 are
// raised to 10.
func NewBcryptHasher(cost int) *BcryptHasher {
	if cost < minBcryptCost {
		cost = minBcryptCost
	}
	return &BcryptHasher{cost: cost}
}

func (h *BcryptHasher) Hash(plaintext string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// Verify reports whether plaintext matches hash. Comparison is constant-time
// and a malformed hash yields false, never an error.
func (h *BcryptHasher) Verify(plaintext, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext)) == nil
}
