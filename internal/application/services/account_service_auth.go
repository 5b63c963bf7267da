package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/Akiyuki89/my-best-ddd-architecture/internal/core/domain/apperr"
	"github.com/Akiyuki89/my-best-ddd-architecture/internal/core/domain/auth"
	"github.com/Akiyuki89/my-best-ddd-architecture/internal/core/ports"
)

// Login checks the block flag before the password so a blocked account stays
// blocked even with the right credentials. Each failure counts toward the
// configured threshold.
func (s *AccountService) Login(ctx context.Context, email, password string) (*auth.AuthTokens, error) {
	const op = "login"

	a, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		s.fail(op, uuid.Nil, err, "failed to look up account")
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if a == nil {
		s.record(ports.EventLoginFailed)
		return nil, apperr.Unauthorized("user not found")
	}

	blocked, err := s.state.IsAccountBlocked(ctx, a.ID)
	if err != nil {
		s.fail(op, a.ID, err, "failed to read block flag")
		return nil, fmt.Errorf("failed to read block flag: %w", err)
	}
	if blocked {
		s.record(ports.EventLoginFailed)
		if s.logger != nil {
			s.log(op, a.ID).Info("login refused for blocked account")
		}
		return nil, apperr.ErrAccountBlocked
	}

	if !s.hasher.Verify(password, a.PasswordHash) {
		return nil, s.registerFailedLogin(ctx, a.ID)
	}

	if err := s.state.ResetLoginAttempts(ctx, a.ID); err != nil {
		s.fail(op, a.ID, err, "failed to clear login attempts")
		return nil, fmt.Errorf("failed to clear login attempts: %w", err)
	}

	tokens, err := s.tokens.Issue(a.ID, a.Role)
	if err != nil {
		s.fail(op, a.ID, err, "failed to issue tokens")
		return nil, err
	}

	s.record(ports.EventLoginSucceeded)
	if s.logger != nil {
		s.log(op, a.ID).Info("login succeeded")
	}
	return tokens, nil
}

func (s *AccountService) registerFailedLogin(ctx context.Context, accountID uuid.UUID) error {
	const op = "login"
	s.record(ports.EventLoginFailed)

	attempts, err := s.state.IncrementLoginAttempts(ctx, accountID)
	if err != nil {
		s.fail(op, accountID, err, "failed to count login attempt")
		return fmt.Errorf("failed to count login attempt: %w", err)
	}

	if attempts >= int64(s.cfg.MaxLoginAttempts) {
		if err := s.state.BlockAccount(ctx, accountID); err != nil {
			s.fail(op, accountID, err, "failed to block account")
			return fmt.Errorf("failed to block account: %w", err)
		}
		s.record(ports.EventAccountBlocked)
	}

	if s.logger != nil {
		s.log(op, accountID).WithField("attempts", attempts).Info("invalid credentials")
	}
	return apperr.ErrInvalidCredentials
}

// Logout blacklists both tokens until they would have expired anyway.
func (s *AccountService) Logout(ctx context.Context, accountID uuid.UUID, accessToken, refreshToken string) error {
	const op = "logout"

	accessTTL, err := s.tokens.RemainingTTL(accessToken)
	if err != nil {
		return err
	}
	refreshTTL, err := s.tokens.RemainingTTL(refreshToken)
	if err != nil {
		return err
	}

	if err := s.state.BlacklistAccessToken(ctx, accessToken, accessTTL); err != nil {
		s.fail(op, accountID, err, "failed to blacklist access token")
		return fmt.Errorf("failed to blacklist access token: %w", err)
	}
	if err := s.state.BlacklistRefreshToken(ctx, refreshToken, refreshTTL); err != nil {
		s.fail(op, accountID, err, "failed to blacklist refresh token")
		return fmt.Errorf("failed to blacklist refresh token: %w", err)
	}

	s.record(ports.EventLoggedOut)
	if s.logger != nil {
		s.log(op, accountID).Info("logged out")
	}
	return nil
}

// RefreshToken issues a new access token unless the refresh token was
// blacklisted or predates an all-sessions revocation.
func (s *AccountService) RefreshToken(ctx context.Context, refreshToken string) (string, error) {
	const op = "refresh_token"

	blacklisted, err := s.state.IsRefreshTokenBlacklisted(ctx, refreshToken)
	if err != nil {
		s.fail(op, uuid.Nil, err, "failed to read refresh blacklist")
		return "", fmt.Errorf("failed to read refresh blacklist: %w", err)
	}
	if blacklisted {
		return "", apperr.ErrTokenInvalid
	}

	claims, err := s.tokens.Verify(refreshToken)
	if err != nil {
		if errors.Is(err, apperr.ErrTokenExpired) {
			return "", apperr.ErrRefreshTokenExpired
		}
		return "", err
	}
	if err := s.checkSessionsRevoked(ctx, claims); err != nil {
		return "", err
	}

	accessToken, err := s.tokens.Refresh(refreshToken)
	if err != nil {
		return "", err
	}

	s.record(ports.EventTokenRefreshed)
	return accessToken, nil
}

// RevokeAllSessions invalidates every token issued to the account up to now.
func (s *AccountService) RevokeAllSessions(ctx context.Context, accountID uuid.UUID) error {
	const op = "revoke_all_sessions"

	if err := s.state.RevokeAllSessions(ctx, accountID, s.now(), s.tokens.RefreshTokenTTL()); err != nil {
		s.fail(op, accountID, err, "failed to revoke sessions")
		return fmt.Errorf("failed to revoke sessions: %w", err)
	}

	s.record(ports.EventSessionsRevoked)
	if s.logger != nil {
		s.log(op, accountID).Warn("all sessions revoked")
	}
	return nil
}

// ValidateAccessToken verifies an access token and checks both revocation paths.
func (s *AccountService) ValidateAccessToken(ctx context.Context, accessToken string) (*auth.Claims, error) {
	claims, err := s.tokens.Verify(accessToken)
	if err != nil {
		return nil, err
	}
	if claims.Type != auth.TokenTypeAccess {
		return nil, apperr.ErrTokenInvalid
	}

	blacklisted, err := s.state.IsAccessTokenBlacklisted(ctx, accessToken)
	if err != nil {
		s.fail("validate_access_token", claims.AccountID, err, "failed to read access blacklist")
		return nil, fmt.Errorf("failed to read access blacklist: %w", err)
	}
	if blacklisted {
		return nil, apperr.ErrTokenInvalid
	}

	if err := s.checkSessionsRevoked(ctx, claims); err != nil {
		return nil, err
	}
	return claims, nil
}

// checkSessionsRevoked rejects tokens issued at or before the last revocation.
// Both sides have second precision.
func (s *AccountService) checkSessionsRevoked(ctx context.Context, claims *auth.Claims) error {
	revokedAt, ok, err := s.state.SessionsRevokedAt(ctx, claims.AccountID)
	if err != nil {
		s.fail("check_sessions_revoked", claims.AccountID, err, "failed to read session revocation")
		return fmt.Errorf("failed to read session revocation: %w", err)
	}
	if !ok {
		return nil
	}
	if claims.IssuedAt == nil || !claims.IssuedAt.Time.After(revokedAt.Truncate(time.Second)) {
		if s.logger != nil {
			s.log("check_sessions_revoked", claims.AccountID).WithFields(logrus.Fields{
				"revoked_at": revokedAt,
			}).Debug("token predates session revocation")
		}
		return apperr.ErrTokenInvalid
	}
	return nil
}
