// Package password hashes and verifies user passwords with bcrypt.
package password

import (
	"crypto/rand"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// MaxLength is the longest password bcrypt accepts, in bytes.
const MaxLength = 72

var ErrTooLong = errors.New("password exceeds 72 bytes")

// Hasher produces self-describing bcrypt digests (salt and cost embedded).
type Hasher struct {
	cost  int
	dummy []byte
}

// NewHasher builds a Hasher for the given bcrypt cost. Out-of-range costs
// fall back to bcrypt.DefaultCost.
func NewHasher(cost int) *Hasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	h := &Hasher{cost: cost}

	// A digest of random bytes nobody knows, used to equalize the work done
	// for unknown usernames.
	secret := make([]byte, 32)
	_, _ = rand.Read(secret)
	h.dummy, _ = bcrypt.GenerateFromPassword(secret, cost)
	return h
}

// Hash returns a fresh salted digest for password.
func (h *Hasher) Hash(password string) (string, error) {
	if len(password) > MaxLength {
		return "", ErrTooLong
	}
	digest, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(digest), nil
}

// Verify reports whether password matches digest. Malformed digests yield false.
func (h *Hasher) Verify(password, digest string) bool {
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(password)) == nil
}

// VerifyDummy spends the same effort as Verify against a digest that never
// matches. Call it when there is no stored digest to compare with.
func (h *Hasher) VerifyDummy(password string) {
	_ = bcrypt.CompareHashAndPassword(h.dummy, []byte(password))
}
