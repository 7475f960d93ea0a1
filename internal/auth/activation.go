package auth

import (
	"errors"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
)

// ActivationTokenManager issues and verifies the short-lived signed tokens
// embedded in account activation emails. Session tokens stay opaque; only the
// one-shot activation claim is a JWT.
type ActivationTokenManager struct {
	secret []byte
	ttl    time.Duration
}

// NewActivationTokenManager builds a new manager.
func NewActivationTokenManager(secret string, ttlHours int) *ActivationTokenManager {
	if ttlHours <= 0 {
		ttlHours = 24
	}
	return &ActivationTokenManager{secret: []byte(secret), ttl: time.Duration(ttlHours) * time.Hour}
}

// Generate signs an activation token for the given user id.
func (tm *ActivationTokenManager) Generate(userID string) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		ExpiresAt: jwt.NewNumericDate(now.Add(tm.ttl)),
		IssuedAt:  jwt.NewNumericDate(now),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(tm.secret)
}

// Parse validates an activation token and returns the user id it was issued
// for.
func (tm *ActivationTokenManager) Parse(tokenStr string) (string, error) {
	parsed, err := jwt.ParseWithClaims(tokenStr, &jwt.RegisteredClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return tm.secret, nil
	})
	if err != nil {
		return "", err
	}

	claims, ok := parsed.Claims.(*jwt.RegisteredClaims)
	if !ok || !parsed.Valid || claims.Subject == "" {
		return "", errors.New("invalid token claims")
	}
	return claims.Subject, nil
}
