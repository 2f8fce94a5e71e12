package middleware

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"bus-booking/auth"
	apperrors "bus-booking/errors"
)

const identityKey = "identity"

type TokenValidator interface {
	Validate(token string) (*auth.Claims, error)
}

// Authenticate admits requests that carry a valid bearer token and stores the
// token claims in the request locals.
func Authenticate(tokens TokenValidator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token, ok := bearerToken(c.Get(fiber.HeaderAuthorization))
		if !ok {
			return authError(c, auth.ErrMissingToken)
		}

		claims, err := tokens.Validate(token)
		if err != nil {
			return authError(c, err)
		}

		c.Locals(identityKey, claims)
		return c.Next()
	}
}

// RequireRole admits callers holding role, or superAdmin. It must run after
// Authenticate.
func RequireRole(role string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims := Identity(c)
		if claims == nil {
			return authError(c, auth.ErrMissingToken)
		}
		if !claims.HasRole(role) {
			return authError(c, auth.ErrInsufficientPermission)
		}
		return c.Next()
	}
}

// Identity returns the claims stored by Authenticate, or nil.
func Identity(c *fiber.Ctx) *auth.Claims {
	claims, _ := c.Locals(identityKey).(*auth.Claims)
	return claims
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func authError(c *fiber.Ctx, err error) error {
	message := auth.ErrMalformedToken.Message()
	var known *apperrors.Error
	if errors.As(err, &known) {
		message = known.Message()
	}
	return apperrors.RaiseAuthError(c, apperrors.Status(err), message)
}
