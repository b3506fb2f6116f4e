// Package auth - token.go handles JWT token creation, signing, and verification
// using a shared secret held by an explicitly constructed TokenIssuer.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/usergroup-manager/usergroup-manager/internal/db/models"
)

const (
	// DefaultTokenTTL is used when no token lifetime is configured
	DefaultTokenTTL = 1 * time.Hour

	tokenIssuerName = "usergroup-manager"
)

// Claims represents the JWT claims structure. Permissions carries the user's
// effective permission names as resolved at login time.
type Claims struct {
	UserID      string   `json:"user_id"`
	Email       string   `json:"email"`
	Name        string   `json:"name"`
	Permissions []string `json:"permission"`
	jwt.RegisteredClaims
}

// TokenIssuer mints and verifies signed tokens. The secret and lifetime are
// provided at construction, never read from the environment.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenIssuer creates a TokenIssuer with the given signing secret and token
// lifetime. A zero ttl falls back to DefaultTokenTTL.
func NewTokenIssuer(secret string, ttl time.Duration) (*TokenIssuer, error) {
	if secret == "" {
		return nil, errors.New("JWT secret is required. Generate a secure secret with: openssl rand -hex 32")
	}
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}

	return &TokenIssuer{
		secret: []byte(secret),
		ttl:    ttl,
	}, nil
}

// Issue creates a signed JWT for an authenticated user embedding the user's
// effective permissions. Callers pass the permissions resolved from approved
// group memberships at the time of login.
func (ti *TokenIssuer) Issue(user *models.User, permissions []string) (string, error) {
	if permissions == nil {
		permissions = []string{}
	}

	now := time.Now()
	claims := &Claims{
		UserID:      user.ID,
		Email:       user.Email,
		Name:        user.DisplayName(),
		Permissions: permissions,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ti.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    tokenIssuerName,
			Subject:   user.ID,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	tokenString, err := token.SignedString(ti.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return tokenString, nil
}

// Verify parses and validates a JWT token
func (ti *TokenIssuer) Verify(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		// Validate signing method
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return ti.secret, nil
	})

	if err != nil {
		return nil, err
	}

	if !token.Valid {
		return nil, errors.New("invalid token")
	}

	claims, ok := token.Claims.(*Claims)
	if !ok {
		return nil, errors.New("invalid claims type")
	}

	return claims, nil
}
