package handlers

import (
	"fmt"

	"github.com/gofiber/fiber/v2"

	apperrors "bus-booking/errors"
	"bus-booking/users"
)

func (h *Handler) CreateUser(c *fiber.Ctx) error {
	req := new(users.SignupRequest)
	if err := c.BodyParser(req); err != nil {
		return apperrors.RaiseBadRequestError(c, fmt.Sprintf("unacceptable user parameters: %v", err))
	}

	user, err := h.users.Signup(c.UserContext(), *req)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(user)
}

func (h *Handler) GetUser(c *fiber.Ctx) error {
	user, err := h.users.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(user)
}

func (h *Handler) UpdateUser(c *fiber.Ctx) error {
	req := new(users.UpdateRequest)
	if err := c.BodyParser(req); err != nil {
		return apperrors.RaiseBadRequestError(c, fmt.Sprintf("unacceptable user parameters: %v", err))
	}

	if err := h.users.Update(c.UserContext(), c.Params("id"), *req, caller(c).Roles); err != nil {
		return h.fail(c, err)
	}
	return c.JSON(fiber.Map{"message": "User updated"})
}

func (h *Handler) DeleteUser(c *fiber.Ctx) error {
	if err := h.users.Delete(c.UserContext(), c.Params("id"), caller(c).Roles); err != nil {
		return h.fail(c, err)
	}
	return c.JSON(fiber.Map{"message": "User deleted"})
}

func (h *Handler) ListUsers(c *fiber.Ctx) error {
	page, size, err := pageParams(c)
	if err != nil {
		return h.fail(c, err)
	}

	result, err := h.users.List(c.UserContext(), page, size)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(result)
}
