package token

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrMalformedToken   = errors.New("malformed token")
	ErrInvalidSignature = errors.New("invalid token signature")
	ErrExpired          = errors.New("token expired")
)

// Claims is the verified claim set of a bearer token.
type Claims struct {
	UserID    string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Codec issues and verifies HS256-signed bearer tokens. Verification is a
// pure function of the token, the clock and the secret; it never touches a
// store, so it is safe to run on every request.
type Codec struct {
	secret []byte
	ttl    time.Duration
}

func NewCodec(secret string, ttl time.Duration) (*Codec, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, errors.New("token: signing secret is required")
	}
	if ttl <= 0 {
		return nil, errors.New("token: ttl must be positive")
	}

	return &Codec{secret: []byte(secret), ttl: ttl}, nil
}

func (c *Codec) TTL() time.Duration {
	return c.ttl
}

func (c *Codec) Issue(subjectID string) (string, error) {
	if subjectID == "" {
		return "", errors.New("token: subject is required")
	}

	now := time.Now().UTC()
	claims := jwt.RegisteredClaims{
		Subject:   subjectID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(c.ttl)),
		// jti keeps tokens distinct even for the same subject within the
		// same second, so revoking one never affects a later one.
		ID: uuid.NewString(),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}

	return signed, nil
}

func (c *Codec) Verify(raw string) (Claims, error) {
	parsed, err := jwt.ParseWithClaims(raw, &jwt.RegisteredClaims{},
		func(t *jwt.Token) (any, error) {
			return c.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return Claims{}, ErrExpired
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return Claims{}, ErrInvalidSignature
		case errors.Is(err, jwt.ErrTokenUnverifiable):
			return Claims{}, ErrInvalidSignature
		default:
			return Claims{}, ErrMalformedToken
		}
	}

	registered, ok := parsed.Claims.(*jwt.RegisteredClaims)
	if !ok || registered.Subject == "" {
		return Claims{}, ErrMalformedToken
	}

	claims := Claims{UserID: registered.Subject}
	if registered.IssuedAt != nil {
		claims.IssuedAt = registered.IssuedAt.Time
	}
	if registered.ExpiresAt != nil {
		claims.ExpiresAt = registered.ExpiresAt.Time
	}

	return claims, nil
}
