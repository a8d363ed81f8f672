package usecases

import (
	"time"

	"github.com/google/uuid"

	"accounts.backend/pkg/jwt"
)

// PasswordHasher hashes and verifies credentials
type PasswordHasher interface {
	Hash(plaintext string) (string, error)
	Verify(plaintext, hash string) bool
}

// TokenCodec mints and checks session tokens
type TokenCodec interface {
	Issue(subjectID uuid.UUID, email string) (string, time.Time, error)
	Verify(token string) (*jwt.Claims, error)
}
