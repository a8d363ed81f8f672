package crypto

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

const (
	// DefaultCost is the bcrypt cost used for account credentials
	DefaultCost = 10
	// MaxPasswordBytes is the longest input bcrypt reads; bytes past it are ignored by the algorithm
	MaxPasswordBytes = 72
)

var (
	// ErrHashFailed is returned when the hashing primitive itself fails.
	// It is an infrastructure failure, never a credential mismatch.
	ErrHashFailed = errors.New("credential hashing failed")
	// ErrPasswordTooLong is returned by Hash for inputs over MaxPasswordBytes
	ErrPasswordTooLong = errors.New("password exceeds 72 bytes")
)

var (
	bcryptGenerateFromPassword = bcrypt.GenerateFromPassword
	bcryptCompare              = bcrypt.CompareHashAndPassword
)

// BcryptHasher hashes and verifies account passwords
type BcryptHasher struct {
	cost int
}

// NewBcryptHasher creates a hasher. A cost outside bcrypt's range falls back to DefaultCost.
func NewBcryptHasher(cost int) *BcryptHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultCost
	}
	return &BcryptHasher{cost: cost}
}

// Hash returns an encoded bcrypt hash that embeds its own cost and salt
func (h *BcryptHasher) Hash(plaintext string) (string, error) {
	if len(plaintext) > MaxPasswordBytes {
		return "", ErrPasswordTooLong
	}
	bytes, err := bcryptGenerateFromPassword([]byte(plaintext), h.cost)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrHashFailed, err)
	}
	return string(bytes), nil
}

// Verify reports whether plaintext matches hash. A malformed hash yields false.
// Inputs over MaxPasswordBytes never match, since no stored hash can come from one.
func (h *BcryptHasher) Verify(plaintext, hash string) bool {
	if hash == "" || len(plaintext) > MaxPasswordBytes {
		return false
	}
	return bcryptCompare([]byte(hash), []byte(plaintext)) == nil
}
