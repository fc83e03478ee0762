package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const tokenIssuer = "wp-autopost-proxy"

type sessionClaims struct {
	jwt.RegisteredClaims
}

// Session is the identity carried by a valid cookie.
type Session struct {
	ID        string
	Username  string
	ExpiresAt time.Time
}

func issueToken(secret []byte, username string, now time.Time, ttl time.Duration) (string, time.Time, error) {
	expires := now.Add(ttl)
	claims := sessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   username,
			Issuer:    tokenIssuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign session token: %w", err)
	}
	return signed, expires, nil
}

func parseToken(secret []byte, raw string, now time.Time) (Session, error) {
	if raw == "" {
		return Session{}, ErrUnauthenticated
	}
	var claims sessionClaims
	_, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return secret, nil
	},
		jwt.WithIssuer(tokenIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(func() time.Time { return now }),
	)
	if err != nil {
		return Session{}, fmt.Errorf("%w: %v", ErrUnauthenticated, err)
	}
	if claims.Subject == "" {
		return Session{}, fmt.Errorf("%w: empty subject", ErrUnauthenticated)
	}
	return Session{
		ID:        claims.ID,
		Username:  claims.Subject,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}
