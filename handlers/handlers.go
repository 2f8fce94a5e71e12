package handlers

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"bus-booking/booking"
	"bus-booking/database"
	apperrors "bus-booking/errors"
	"bus-booking/middleware"
	"bus-booking/users"
)

// Records are the catalog collections served by the generic record handlers.
type Records struct {
	Buses  database.Collection
	Routes database.Collection
	Trips  database.Collection
	Cities database.Collection
}

type Handler struct {
	version  string
	users    *users.Service
	bookings *booking.Engine
	records  Records
	logger   *zap.Logger

	Now func() time.Time
}

func New(version string, userService *users.Service, engine *booking.Engine, records Records, logger *zap.Logger) *Handler {
	return &Handler{
		version:  version,
		users:    userService,
		bookings: engine,
		records:  records,
		logger:   logger,
		Now:      func() time.Time { return time.Now().UTC() },
	}
}

func (h *Handler) GetVersion(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"version": h.version})
}

func (h *Handler) fail(c *fiber.Ctx, err error) error {
	return apperrors.Respond(c, h.logger, err)
}

// caller is the identity placed in the request by the authorization gate.
func caller(c *fiber.Ctx) booking.Caller {
	claims := middleware.Identity(c)
	if claims == nil {
		return booking.Caller{}
	}
	return booking.Caller{ID: claims.SubjectID, Roles: claims.Roles}
}

// pageParams reads page and size, defaulting to 1 and 10.
func pageParams(c *fiber.Ctx) (int, int, error) {
	page, err := strconv.Atoi(c.Query("page", "1"))
	if err != nil {
		return 0, 0, apperrors.Validation("page must be a number")
	}
	size, err := strconv.Atoi(c.Query("size", "10"))
	if err != nil {
		return 0, 0, apperrors.Validation("size must be a number")
	}
	if page < 1 || size < 1 {
		return 0, 0, apperrors.Validation("page and size must be positive")
	}
	return page, size, nil
}
