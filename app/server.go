package app

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"

	apperrors "bus-booking/errors"
	"bus-booking/handlers"
	"bus-booking/middleware"
	"bus-booking/router"
)

// Server builds the HTTP application with the shared middleware chain.
func (a *App) Server() *fiber.App {
	server := fiber.New(fiber.Config{
		AppName:      "bus-booking " + a.Config.Version,
		ErrorHandler: a.handleError,
	})

	server.Use(requestid.New(requestid.Config{Generator: uuid.NewString}))
	server.Use(recover.New())
	server.Use(cors.New(cors.Config{AllowOrigins: a.Config.CORSAllowOrigins}))
	server.Use(middleware.RequestLogger(a.Logger))

	h := handlers.New(a.Config.Version, a.Users, a.Bookings, a.Records, a.Logger)
	router.SetupRoutes(server, h, a.Tokens, a.Config.Version)

	return server
}

func (a *App) handleError(c *fiber.Ctx, err error) error {
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return apperrors.RaiseError(c, fiberErr.Code, fiberErr.Message)
	}
	return apperrors.Respond(c, a.Logger, err)
}
