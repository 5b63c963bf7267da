package account

import (
	"strings"
	"time"

	"github.com/Akiyuki89/my-best-ddd-architecture/internal/core/domain/apperr"
	"github.com/google/uuid"
)

// DefaultRole is assigned when registration does not name one.
const DefaultRole = "user"

type Account struct {
	ID           uuid.UUID `json:"id" db:"id"`
	Name         string    `json:"name" db:"name"`
	Email        string    `json:"email" db:"email"`
	PasswordHash string    `json:"-" db:"password_hash"`
	Role         string    `json:"role" db:"role"`
	Verified     bool      `json:"verified" db:"verified"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// New builds an unverified account with a fresh id. Name, email and password
// hash are required; the role falls back to DefaultRole.
func New(name, email, passwordHash, role string) (*Account, error) {
	a := &Account{
		ID:           uuid.New(),
		Name:         strings.TrimSpace(name),
		Email:        NormalizeEmail(email),
		PasswordHash: passwordHash,
		Role:         strings.TrimSpace(role),
		Verified:     false,
	}
	if a.Role == "" {
		a.Role = DefaultRole
	}
	if err := a.Validate(); err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	a.CreatedAt = now
	a.UpdatedAt = now
	return a, nil
}

// Validate checks the fields every persisted account must carry.
func (a *Account) Validate() error {
	if a.ID == uuid.Nil {
		return apperr.InvalidInput("account id is required")
	}
	if a.Name == "" || a.Email == "" || a.PasswordHash == "" {
		return apperr.InvalidInput("user name, email, and password are required")
	}
	return nil
}

// NormalizeEmail lowercases and trims an address so lookups are case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// UpdateFields is a partial update; nil fields are left untouched.
type UpdateFields struct {
	Name         *string `json:"name,omitempty"`
	Email        *string `json:"email,omitempty"`
	PasswordHash *string `json:"-"`
	Role         *string `json:"role,omitempty"`
	Verified     *bool   `json:"verified,omitempty"`
}

// IsEmpty reports whether no field is set.
func (f UpdateFields) IsEmpty() bool {
	return f.Name == nil && f.Email == nil && f.PasswordHash == nil && f.Role == nil && f.Verified == nil
}

// Apply copies the set fields onto a.
func (f UpdateFields) Apply(a *Account) {
	if f.Name != nil {
		a.Name = strings.TrimSpace(*f.Name)
	}
	if f.Email != nil {
		a.Email = NormalizeEmail(*f.Email)
	}
	if f.PasswordHash != nil {
		a.PasswordHash = *f.PasswordHash
	}
	if f.Role != nil {
		a.Role = strings.TrimSpace(*f.Role)
	}
	if f.Verified != nil {
		a.Verified = *f.Verified
	}
}

// ProfileUpdate is what a caller may change through the service. Password is
// plaintext and is hashed before it reaches the repository.
type ProfileUpdate struct {
	Name     *string `json:"name,omitempty"`
	Email    *string `json:"email,omitempty"`
	Password *string `json:"password,omitempty"`
	Role     *string `json:"role,omitempty"`
}

// Status combines the block flag with the verification state.
type Status struct {
	IsBlocked bool `json:"is_blocked"`
	Verified  bool `json:"verified"`
}
