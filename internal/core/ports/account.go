package ports

import (
	"context"

	"github.com/Akiyuki89/my-best-ddd-architecture/internal/core/domain/account"
	"github.com/Akiyuki89/my-best-ddd-architecture/internal/core/domain/auth"
	"github.com/google/uuid"
)

// AccountRepository defines durable account storage. Lookups return (nil, nil)
// when nothing matches.
type AccountRepository interface {
	Create(ctx context.Context, a *account.Account) error
	FindByID(ctx context.Context, id uuid.UUID) (*account.Account, error)
	FindByEmail(ctx context.Context, email string) (*account.Account, error)
	FindAll(ctx context.Context) ([]*account.Account, error)
	Update(ctx context.Context, id uuid.UUID, fields account.UpdateFields) (*account.Account, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// AccountService defines registration, verification, login and profile operations
type AccountService interface {
	Register(ctx context.Context, name, email, password, role string) (*account.Account, error)
	VerifyEmail(ctx context.Context, accountID uuid.UUID, code string) (bool, error)
	ResendVerificationEmail(ctx context.Context, email string) error
	ConfirmEmail(ctx context.Context, accountID uuid.UUID) (bool, error)

	RequestPasswordReset(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, accountID uuid.UUID, token, newPassword string) (bool, error)

	Login(ctx context.Context, email, password string) (*auth.AuthTokens, error)
	Logout(ctx context.Context, accountID uuid.UUID, accessToken, refreshToken string) error
	RefreshToken(ctx context.Context, refreshToken string) (string, error)
	RevokeAllSessions(ctx context.Context, accountID uuid.UUID) error
	ValidateAccessToken(ctx context.Context, accessToken string) (*auth.Claims, error)

	CheckStatus(ctx context.Context, accountID uuid.UUID) (*account.Status, error)
	UpdateProfile(ctx context.Context, accountID uuid.UUID, update account.ProfileUpdate) (*account.Account, error)
	FindByID(ctx context.Context, accountID uuid.UUID) (*account.Account, error)
	FindByEmail(ctx context.Context, email string) (*account.Account, error)
	FindAll(ctx context.Context) ([]*account.Account, error)
	Delete(ctx context.Context, accountID uuid.UUID) error
}
