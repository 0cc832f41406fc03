package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/agrimanage/farmreg/internal/domain/model"
	apperrors "github.com/agrimanage/farmreg/internal/errors"
)

// TokenType distinguishes the two credential lifetimes issued at login.
type TokenType string

const (
	// TokenTypeAccess is the short-lived credential carrying a role snapshot.
	TokenTypeAccess TokenType = "access"
	// TokenTypeRefresh is the long-lived credential exchanged for fresh
	// access tokens. It carries no roles.
	TokenTypeRefresh TokenType = "refresh"
)

// Claims is the JWT payload for both token types. Roles is present only on
// access tokens and is a snapshot of the principal's roles at issuance; it is
// not re-validated against the datastore until the token is refreshed.
type Claims struct {
	Type  TokenType `json:"type"`
	Roles []string  `json:"roles,omitempty"`
	jwt.RegisteredClaims
}

// TokenServiceOptions groups dependencies for TokenService.
type TokenServiceOptions struct {
	SigningKey string        // Required: HMAC signing key
	Audience   string        // Required: fixed audience claim
	AccessTTL  time.Duration // Required: access token lifetime
	RefreshTTL time.Duration // Required: refresh token lifetime
	Clock      func() time.Time
}

// TokenService issues and verifies the signed, time-bounded credentials that
// assert a principal's identity. It is stateless: issued tokens are never
// persisted and there is no server-side revocation.
type TokenService struct {
	signingKey []byte
	audience   string
	accessTTL  time.Duration
	refreshTTL time.Duration
	clock      func() time.Time
}

// NewTokenService constructs a TokenService.
func NewTokenService(opts TokenServiceOptions) (*TokenService, error) {
	if opts.SigningKey == "" {
		return nil, errors.New("signing key is required")
	}
	if opts.Audience == "" {
		return nil, errors.New("audience is required")
	}
	if opts.AccessTTL <= 0 || opts.RefreshTTL <= 0 {
		return nil, errors.New("token TTLs must be positive")
	}
	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}
	return &TokenService{
		signingKey: []byte(opts.SigningKey),
		audience:   opts.Audience,
		accessTTL:  opts.AccessTTL,
		refreshTTL: opts.RefreshTTL,
		clock:      clock,
	}, nil
}

// IssueAccess builds a signed access token embedding the subject and its role
// snapshot.
func (s *TokenService) IssueAccess(subject string, roles []model.Role) (string, error) {
	return s.issue(subject, TokenTypeAccess, model.RoleStrings(roles), s.accessTTL)
}

// IssueRefresh builds a signed refresh token for the subject. No roles are
// embedded; they are re-read from the datastore at exchange time.
func (s *TokenService) IssueRefresh(subject string) (string, error) {
	return s.issue(subject, TokenTypeRefresh, nil, s.refreshTTL)
}

func (s *TokenService) issue(subject string, typ TokenType, roles []string, ttl time.Duration) (string, error) {
	now := s.clock()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Type:  typ,
		Roles: roles,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Audience:  jwt.ClaimStrings{s.audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	})
	signed, err := token.SignedString(s.signingKey)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Decode verifies signature, expiry, and audience and returns the claims.
// Every failure mode collapses into an unauthorized error; callers asserting
// a specific token type do so on the returned claims.
func (s *TokenService) Decode(tokenString string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{},
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrTokenUnverifiable
			}
			return s.signingKey, nil
		},
		jwt.WithAudience(s.audience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.clock),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, apperrors.Unauthorized("token has expired")
		}
		return nil, apperrors.Unauthorized("invalid token")
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, apperrors.Unauthorized("invalid token claims")
	}
	return claims, nil
}

// AccessExpirySeconds returns the access token lifetime in whole seconds, the
// expires_in value reported to clients at login.
func (s *TokenService) AccessExpirySeconds() int {
	return int(s.accessTTL.Seconds())
}
