package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"

	apperrors "bus-booking/errors"
)

var (
	ErrMissingToken           = apperrors.New(apperrors.ErrUnauthenticated, "Token is missing!")
	ErrExpiredSession         = apperrors.New(apperrors.ErrUnauthenticated, "Token has expired!")
	ErrMalformedToken         = apperrors.New(apperrors.ErrUnauthenticated, "Token is invalid!")
	ErrInsufficientPermission = apperrors.New(apperrors.ErrForbidden, "Permission denied!")
)

// Claims is the identity carried by a session token.
type Claims struct {
	SubjectID   string   `json:"subject_id"`
	DisplayName string   `json:"display_name"`
	Email       string   `json:"email"`
	Roles       []string `json:"roles"`
	jwt.RegisteredClaims
}

// HasRole applies the role rules of HasRole to the claims.
func (c *Claims) HasRole(required string) bool {
	return HasRole(c.Roles, required)
}

// TokenCodec issues and validates HS256 session tokens. The key is fixed for
// the lifetime of the process and is shared read-only by all requests.
type TokenCodec struct {
	key []byte
	ttl time.Duration

	// Now is the clock used for issued-at, expiry and validation.
	Now func() time.Time
}

func NewTokenCodec(signingKey []byte, ttl time.Duration) *TokenCodec {
	return &TokenCodec{
		key: signingKey,
		ttl: ttl,
		Now: time.Now,
	}
}

// Issue stamps claims with issued-at and expiry and returns the signed token.
func (c *TokenCodec) Issue(claims Claims) (string, error) {
	now := c.Now()
	claims.Subject = claims.SubjectID
	claims.IssuedAt = jwt.NewNumericDate(now)
	claims.ExpiresAt = jwt.NewNumericDate(now.Add(c.ttl))

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(c.key)
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}
	return signed, nil
}

// Validate checks the signature first and expiry second, so a tampered token
// is always reported as malformed even when it is also stale.
func (c *TokenCodec) Validate(tokenString string) (*Claims, error) {
	claims := &Claims{}
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithoutClaimsValidation(),
	)

	_, err := parser.ParseWithClaims(tokenString, claims, func(*jwt.Token) (interface{}, error) {
		return c.key, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedToken, err)
	}
	if claims.ExpiresAt == nil || claims.SubjectID == "" {
		return nil, ErrMalformedToken
	}
	if c.Now().After(claims.ExpiresAt.Time) {
		return nil, ErrExpiredSession
	}
	return claims, nil
}
