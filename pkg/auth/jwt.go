// Package auth issues and verifies the signed identity tokens handed to
// marketplace clients.
//
// A token proves who the caller is. It says nothing about what the caller
// may do: role and verification status are always re-read from the user
// store at request time.
package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const issuer = "mbuysell"

var (
	// ErrInvalidToken covers bad signatures, malformed tokens, wrong
	// algorithms and missing subjects.
	ErrInvalidToken = errors.New("auth: invalid token")
	// ErrExpired is returned for a well-signed token past its expiry.
	ErrExpired = errors.New("auth: token expired")
)

// Claims is the typed JWT payload.
type Claims struct {
	UID string `json:"uid"`
	jwt.RegisteredClaims
}

// TokenService signs and verifies HS256 identity tokens with a server-held
// secret.
type TokenService struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenService(secret string, ttl time.Duration) *TokenService {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &TokenService{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// WithClock replaces the time source. Used by tests to mint expired tokens.
func (s *TokenService) WithClock(now func() time.Time) *TokenService {
	clone := *s
	clone.now = now
	return &clone
}

// Issue signs a token for uid and returns it together with its expiry.
func (s *TokenService) Issue(uid string) (string, time.Time, error) {
	uid = strings.TrimSpace(uid)
	if uid == "" {
		return "", time.Time{}, fmt.Errorf("auth: issue: %w", ErrInvalidToken)
	}

	now := s.now()
	expiresAt := now.Add(s.ttl)
	claims := Claims{
		UID: uid,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   uid,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("auth: sign token: %w", err)
	}
	return signed, expiresAt, nil
}

// Verify checks signature, algorithm and expiry. On failure it returns
// ErrExpired or ErrInvalidToken and never any claims.
func (s *TokenService) Verify(token string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpired
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid || claims.UID == "" || claims.UID != claims.Subject {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
