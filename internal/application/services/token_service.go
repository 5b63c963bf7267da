package services

import (
	"errors"
	"fmt"
	"time"

	config "github.com/Akiyuki89/my-best-ddd-architecture/configs"
	"github.com/Akiyuki89/my-best-ddd-architecture/internal/core/domain/apperr"
	"github.com/Akiyuki89/my-best-ddd-architecture/internal/core/domain/auth"
	"github.com/Akiyuki89/my-best-ddd-architecture/internal/core/ports"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// JWTTokenIssuer signs HS256 access and refresh tokens.
type JWTTokenIssuer struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

var _ ports.TokenIssuer = (*JWTTokenIssuer)(nil)

func NewJWTTokenIssuer(jwtConfig *config.JWTConfig) *JWTTokenIssuer {
	return &JWTTokenIssuer{
		secret:     []byte(jwtConfig.Secret),
		accessTTL:  jwtConfig.AccessTokenTTL,
		refreshTTL: jwtConfig.RefreshTokenTTL,
		now:        time.Now,
	}
}

// WithClock replaces the time source; used by tests.
func (i *JWTTokenIssuer) WithClock(now func() time.Time) *JWTTokenIssuer {
	i.now = now
	return i
}

func (i *JWTTokenIssuer) RefreshTokenTTL() time.Duration { return i.refreshTTL }

func (i *JWTTokenIssuer) Issue(accountID uuid.UUID, role string) (*auth.AuthTokens, error) {
	now := i.now()

	accessToken, err := i.sign(accountID, role, auth.TokenTypeAccess, now, i.accessTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	refreshToken, err := i.sign(accountID, role, auth.TokenTypeRefresh, now, i.refreshTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}

	return &auth.AuthTokens{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int64(i.accessTTL.Seconds()),
	}, nil
}

func (i *JWTTokenIssuer) sign(accountID uuid.UUID, role string, typ auth.TokenType, now time.Time, ttl time.Duration) (string, error) {
	claims := &auth.Claims{
		AccountID: accountID,
		Role:      role,
		Type:      typ,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   accountID.String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", apperr.Internal("failed to sign token", err)
	}
	return signed, nil
}

func (i *JWTTokenIssuer) Verify(tokenString string) (*auth.Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &auth.Claims{}, func(token *jwt.Token) (interface{}, error) {
		// Ensure the token's signing method is HMAC (prevent alg confusion)
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return i.secret, nil
	}, jwt.WithTimeFunc(i.now), jwt.WithExpirationRequired())

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, apperr.ErrTokenExpired
		}
		return nil, apperr.ErrTokenInvalid
	}

	claims, ok := token.Claims.(*auth.Claims)
	if !ok || !token.Valid || claims.AccountID == uuid.Nil {
		return nil, apperr.ErrTokenInvalid
	}

	return claims, nil
}

func (i *JWTTokenIssuer) Refresh(refreshToken string) (string, error) {
	claims, err := i.Verify(refreshToken)
	if err != nil {
		if errors.Is(err, apperr.ErrTokenExpired) {
			return "", apperr.ErrRefreshTokenExpired
		}
		return "", err
	}
	if claims.Type != auth.TokenTypeRefresh {
		return "", apperr.ErrTokenInvalid
	}

	accessToken, err := i.sign(claims.AccountID, claims.Role, auth.TokenTypeAccess, i.now(), i.accessTTL)
	if err != nil {
		return "", fmt.Errorf("failed to generate access token: %w", err)
	}
	return accessToken, nil
}

func (i *JWTTokenIssuer) RemainingTTL(tokenString string) (time.Duration, error) {
	claims := &auth.Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tokenString, claims); err != nil {
		return 0, apperr.ErrMalformedToken
	}
	if claims.ExpiresAt == nil {
		return 0, apperr.ErrMalformedToken
	}
	return claims.ExpiresAt.Time.Sub(i.now()), nil
}
