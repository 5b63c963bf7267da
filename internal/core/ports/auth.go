package ports

import (
	"time"

	"github.com/Akiyuki89/my-best-ddd-architecture/internal/core/domain/auth"
	"github.com/google/uuid"
)

// TokenIssuer signs and checks bearer and refresh tokens.
type TokenIssuer interface {
	Issue(accountID uuid.UUID, role string) (*auth.AuthTokens, error)
	Verify(token string) (*auth.Claims, error)
	Refresh(refreshToken string) (string, error)
	// RemainingTTL decodes the expiry without checking the signature.
	RemainingTTL(token string) (time.Duration, error)
	RefreshTokenTTL() time.Duration
}

// PasswordHasher is a one-way salted password transform.
type PasswordHasher interface {
	Hash(plaintext string) (string, error)
	Verify(plaintext, hash string) bool
}
