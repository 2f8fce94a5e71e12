package handlers

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"

	apperrors "bus-booking/errors"
	"bus-booking/users"
)

func (h *Handler) Login(c *fiber.Ctx) error {
	type Credentials struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}

	creds := new(Credentials)
	if err := c.BodyParser(creds); err != nil {
		return apperrors.RaiseBadRequestError(c, fmt.Sprintf("unacceptable credentials: %v", err))
	}
	if creds.Username == "" || creds.Password == "" {
		return apperrors.RaiseBadRequestError(c, "username and password are required")
	}

	token, err := h.users.Login(c.UserContext(), creds.Username, creds.Password)
	if errors.Is(err, users.ErrInvalidCredentials) {
		return apperrors.RaiseError(c, fiber.StatusUnauthorized, users.ErrInvalidCredentials.Message())
	}
	if err != nil {
		return h.fail(c, err)
	}

	return c.JSON(fiber.Map{"token": token})
}
