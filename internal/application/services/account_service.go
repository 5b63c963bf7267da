package services

import (
	"context"
	"crypto/subtle"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/Akiyuki89/my-best-ddd-architecture/internal/core/domain/account"
	"github.com/Akiyuki89/my-best-ddd-architecture/internal/core/domain/apperr"
	"github.com/Akiyuki89/my-best-ddd-architecture/internal/core/ports"
	"github.com/Akiyuki89/my-best-ddd-architecture/internal/utils"
)

// AccountServiceConfig carries the policy values the service needs.
type AccountServiceConfig struct {
	MaxLoginAttempts int
	// ResetBaseURL is the front-end origin that serves /reset-password.
	ResetBaseURL string
}

// AccountService orchestrates registration, verification, password reset,
// login lockout and session revocation. It holds no state of its own.
type AccountService struct {
	repo   ports.AccountRepository
	state  ports.AccountStateRepository
	hasher ports.PasswordHasher
	tokens ports.TokenIssuer
	emails ports.NotificationSender
	events ports.AccountEventRecorder
	cfg    AccountServiceConfig
	logger *logrus.Logger
	now    func() time.Time
}

var _ ports.AccountService = (*AccountService)(nil)

func NewAccountService(
	repo ports.AccountRepository,
	state ports.AccountStateRepository,
	hasher ports.PasswordHasher,
	tokens ports.TokenIssuer,
	emails ports.NotificationSender,
	events ports.AccountEventRecorder,
	cfg AccountServiceConfig,
	logger *logrus.Logger,
) *AccountService {
	return &AccountService{
		repo:   repo,
		state:  state,
		hasher: hasher,
		tokens: tokens,
		emails: emails,
		events: events,
		cfg:    cfg,
		logger: logger,
		now:    time.Now,
	}
}

// WithClock replaces the time source; used by tests.
func (s *AccountService) WithClock(now func() time.Time) *AccountService {
	s.now = now
	return s
}

func (s *AccountService) record(event ports.AccountEvent) {
	if s.events != nil {
		s.events.Record(event)
	}
}

func (s *AccountService) log(operation string, accountID uuid.UUID) *logrus.Entry {
	fields := logrus.Fields{"operation": operation}
	if accountID != uuid.Nil {
		fields["account_id"] = accountID
	}
	return s.logger.WithFields(fields)
}

func (s *AccountService) warn(operation string, accountID uuid.UUID, err error, msg string) {
	if s.logger != nil {
		s.log(operation, accountID).WithError(err).Warn(msg)
	}
}

func (s *AccountService) fail(operation string, accountID uuid.UUID, err error, msg string) {
	if s.logger == nil {
		return
	}
	entry := s.log(operation, accountID).WithError(err)
	switch apperr.KindOf(err) {
	case apperr.KindInternal, apperr.KindDeliveryFailure:
		entry.Error(msg)
	default:
		entry.Info(msg)
	}
}

func (s *AccountService) hashPassword(password string) (string, error) {
	if err := utils.ValidatePasswordStrength(password); err != nil {
		return "", apperr.Wrap(apperr.KindInvalidInput, "invalid password", err)
	}
	return s.hasher.Hash(password)
}

// Register creates an unverified account and mails its verification code.
// Delivery failure is logged and does not undo the registration.
func (s *AccountService) Register(ctx context.Context, name, email, password, role string) (*account.Account, error) {
	const op = "register"

	hash, err := s.hashPassword(password)
	if err != nil {
		s.fail(op, uuid.Nil, err, "registration rejected")
		return nil, err
	}

	a, err := account.New(name, email, hash, role)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, a); err != nil {
		s.fail(op, a.ID, err, "failed to create account")
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	s.record(ports.EventRegistered)

	if err := s.issueVerificationCode(ctx, a); err != nil {
		s.warn(op, a.ID, err, "failed to send verification email")
	}

	if s.logger != nil {
		s.log(op, a.ID).WithField("email", a.Email).Info("account registered")
	}
	return a, nil
}

func (s *AccountService) issueVerificationCode(ctx context.Context, a *account.Account) error {
	code := account.NewVerificationCode()
	if err := s.state.SetEmailVerificationCode(ctx, a.ID, code.String(), account.VerificationCodeTTL); err != nil {
		return fmt.Errorf("failed to store verification code: %w", err)
	}
	if err := s.emails.SendVerificationEmail(ctx, a.Email, code.String()); err != nil {
		s.record(ports.EventDeliveryFailed)
		return err
	}
	return nil
}

// VerifyEmail marks the account verified when code matches the stored one.
// A mismatch is not an error and leaves the stored code in place.
func (s *AccountService) VerifyEmail(ctx context.Context, accountID uuid.UUID, code string) (bool, error) {
	const op = "verify_email"

	stored, ok, err := s.state.GetEmailVerificationCode(ctx, accountID)
	if err != nil {
		s.fail(op, accountID, err, "failed to read verification code")
		return false, fmt.Errorf("failed to read verification code: %w", err)
	}
	if !ok || !secretsEqual(stored, code) {
		return false, nil
	}

	verified := true
	if _, err := s.repo.Update(ctx, accountID, account.UpdateFields{Verified: &verified}); err != nil {
		s.fail(op, accountID, err, "failed to mark account verified")
		return false, fmt.Errorf("failed to verify user: %w", err)
	}
	if err := s.state.DeleteEmailVerificationCode(ctx, accountID); err != nil {
		s.fail(op, accountID, err, "failed to consume verification code")
		return false, fmt.Errorf("failed to consume verification code: %w", err)
	}

	s.record(ports.EventEmailVerified)
	if s.logger != nil {
		s.log(op, accountID).Info("email verified")
	}
	return true, nil
}

// ResendVerificationEmail replaces any outstanding code with a new one.
func (s *AccountService) ResendVerificationEmail(ctx context.Context, email string) error {
	const op = "resend_verification_email"

	a, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		s.fail(op, uuid.Nil, err, "failed to look up account")
		return fmt.Errorf("failed to find user: %w", err)
	}
	if a == nil {
		return apperr.New(apperr.KindNotFound, "user not found")
	}
	if a.Verified {
		return apperr.InvalidInput("email already verified")
	}

	if err := s.issueVerificationCode(ctx, a); err != nil {
		s.fail(op, a.ID, err, "failed to resend verification email")
		return err
	}
	return nil
}

// ConfirmEmail sets the verified flag without checking a code.
func (s *AccountService) ConfirmEmail(ctx context.Context, accountID uuid.UUID) (bool, error) {
	verified := true
	if _, err := s.repo.Update(ctx, accountID, account.UpdateFields{Verified: &verified}); err != nil {
		s.fail("confirm_email", accountID, err, "failed to confirm email")
		return false, fmt.Errorf("failed to confirm email: %w", err)
	}
	s.record(ports.EventEmailVerified)
	return true, nil
}

// RequestPasswordReset stores a fresh reset token and mails a link carrying it.
func (s *AccountService) RequestPasswordReset(ctx context.Context, email string) error {
	const op = "request_password_reset"

	a, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		s.fail(op, uuid.Nil, err, "failed to look up account")
		return fmt.Errorf("failed to find user: %w", err)
	}
	if a == nil {
		return apperr.New(apperr.KindNotFound, "user not found")
	}

	now := s.now()
	token := account.NewResetToken(now)
	if err := s.state.SetResetPasswordToken(ctx, a.ID, token.Value, token.TTL(now)); err != nil {
		s.fail(op, a.ID, err, "failed to store reset token")
		return fmt.Errorf("failed to store reset token: %w", err)
	}

	if err := s.emails.SendPasswordResetEmail(ctx, a.Email, s.resetURL(token.Value)); err != nil {
		s.record(ports.EventDeliveryFailed)
		s.fail(op, a.ID, err, "failed to send password reset email")
		return err
	}

	if s.logger != nil {
		s.log(op, a.ID).Info("password reset requested")
	}
	return nil
}

func (s *AccountService) resetURL(token string) string {
	base := strings.TrimRight(s.cfg.ResetBaseURL, "/")
	return fmt.Sprintf("%s/reset-password?token=%s", base, url.QueryEscape(token))
}

// ResetPassword replaces the password when token matches the stored one and
// consumes the token. A mismatch returns false.
func (s *AccountService) ResetPassword(ctx context.Context, accountID uuid.UUID, token, newPassword string) (bool, error) {
	const op = "reset_password"

	stored, ok, err := s.state.GetResetPasswordToken(ctx, accountID)
	if err != nil {
		s.fail(op, accountID, err, "failed to read reset token")
		return false, fmt.Errorf("failed to read reset token: %w", err)
	}
	if !ok || !secretsEqual(stored, token) {
		return false, nil
	}

	hash, err := s.hashPassword(newPassword)
	if err != nil {
		return false, err
	}
	if _, err := s.repo.Update(ctx, accountID, account.UpdateFields{PasswordHash: &hash}); err != nil {
		s.fail(op, accountID, err, "failed to update password")
		return false, fmt.Errorf("failed to update password: %w", err)
	}
	if err := s.state.DeleteResetPasswordToken(ctx, accountID); err != nil {
		s.fail(op, accountID, err, "failed to consume reset token")
		return false, fmt.Errorf("failed to consume reset token: %w", err)
	}

	s.record(ports.EventPasswordReset)
	if s.logger != nil {
		s.log(op, accountID).Info("password reset")
	}
	return true, nil
}

// CheckStatus reports the block flag and verification state.
func (s *AccountService) CheckStatus(ctx context.Context, accountID uuid.UUID) (*account.Status, error) {
	a, err := s.repo.FindByID(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if a == nil {
		return nil, apperr.NotFound("user", accountID.String())
	}
	blocked, err := s.state.IsAccountBlocked(ctx, accountID)
	if err != nil {
		s.fail("check_status", accountID, err, "failed to read block flag")
		return nil, fmt.Errorf("failed to read block flag: %w", err)
	}
	return &account.Status{IsBlocked: blocked, Verified: a.Verified}, nil
}

// UpdateProfile applies the supplied fields. A new password goes through the
// same policy as registration.
func (s *AccountService) UpdateProfile(ctx context.Context, accountID uuid.UUID, update account.ProfileUpdate) (*account.Account, error) {
	fields := account.UpdateFields{Name: update.Name, Email: update.Email, Role: update.Role}
	if update.Password != nil {
		hash, err := s.hashPassword(*update.Password)
		if err != nil {
			return nil, err
		}
		fields.PasswordHash = &hash
	}
	if fields.Name != nil && strings.TrimSpace(*fields.Name) == "" {
		return nil, apperr.InvalidInput("name must not be empty")
	}
	if fields.Email != nil && account.NormalizeEmail(*fields.Email) == "" {
		return nil, apperr.InvalidInput("email must not be empty")
	}

	updated, err := s.repo.Update(ctx, accountID, fields)
	if err != nil {
		s.fail("update_profile", accountID, err, "failed to update profile")
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	return updated, nil
}

func (s *AccountService) FindByID(ctx context.Context, accountID uuid.UUID) (*account.Account, error) {
	return s.repo.FindByID(ctx, accountID)
}

func (s *AccountService) FindByEmail(ctx context.Context, email string) (*account.Account, error) {
	return s.repo.FindByEmail(ctx, email)
}

func (s *AccountService) FindAll(ctx context.Context) ([]*account.Account, error) {
	return s.repo.FindAll(ctx)
}

func (s *AccountService) Delete(ctx context.Context, accountID uuid.UUID) error {
	if err := s.repo.Delete(ctx, accountID); err != nil {
		s.fail("delete", accountID, err, "failed to delete account")
		return err
	}
	return nil
}

func secretsEqual(stored, supplied string) bool {
	return subtle.ConstantTimeCompare([]byte(stored), []byte(supplied)) == 1
}
