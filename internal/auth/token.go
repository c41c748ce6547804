// Package auth issues and checks the bearer tokens that guard the API.
//
// Tokens are HS256 JWTs whose subject is the user's id. Each token carries a random
// UUID (the "jti" claim) so a single token can be revoked on logout without touching
// the user's other sessions; revoked ids are kept in a Denylist until the token would
// have expired anyway.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrInvalidToken       = errors.New("invalid token")
	ErrTokenRevoked       = errors.New("token revoked")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// TokenType is the value of "token_type" in token responses.
const TokenType = "bearer"

// Claims is the payload of an access token.
type Claims struct {
	jwt.RegisteredClaims // Subject = user id, ID = jti, plus iss/iat/exp
}

// UserID parses the subject back into the numeric user id.
func (c *Claims) UserID() (uint64, error) {
	id, err := strconv.ParseUint(c.Subject, 10, 64)
	if err != nil || id == 0 {
		return 0, ErrInvalidToken
	}
	return id, nil
}

// Token is the JSON body returned by register and login.
type Token struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"` // Seconds until the token expires
}

// Config holds the signing settings.
type Config struct {
	Secret string
	Issuer string
	TTL    time.Duration
}

// Service issues, verifies and revokes access tokens.
type Service struct {
	cfg      Config
	denylist Denylist
	now      func() time.Time
}

// NewService returns a Service signing with cfg.Secret and consulting denylist on every check.
func NewService(cfg Config, denylist Denylist) *Service {
	return &Service{cfg: cfg, denylist: denylist, now: time.Now}
}

// Issue signs a new token for userID.
func (s *Service) Issue(userID uint64) (Token, error) {
	now := s.now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   strconv.FormatUint(userID, 10),
			Issuer:    s.cfg.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.TTL)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.cfg.Secret))
	if err != nil {
		return Token{}, fmt.Errorf("sign token: %w", err)
	}

	return Token{
		AccessToken: signed,
		TokenType:   TokenType,
		ExpiresIn:   int64(s.cfg.TTL.Seconds()),
	}, nil
}

// Parse verifies the signature, issuer and expiry of raw and checks it has not been revoked.
// Any token problem is reported as ErrInvalidToken or ErrTokenRevoked; other errors come
// from the denylist backend.
func (s *Service) Parse(ctx context.Context, raw string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(raw, &Claims{}, func(*jwt.Token) (any, error) {
		return []byte(s.cfg.Secret), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.cfg.Issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || claims.ID == "" {
		return nil, ErrInvalidToken
	}

	revoked, err := s.denylist.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, fmt.Errorf("check denylist: %w", err)
	}
	if revoked {
		return nil, ErrTokenRevoked
	}
	return claims, nil
}

// Revoke denies the token described by claims until its expiry.
func (s *Service) Revoke(ctx context.Context, claims *Claims) error {
	until := s.now().Add(s.cfg.TTL)
	if claims.ExpiresAt != nil {
		until = claims.ExpiresAt.Time
	}
	return s.denylist.Revoke(ctx, claims.ID, until)
}
