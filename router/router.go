package router

import (
	"github.com/gofiber/fiber/v2"

	"bus-booking/auth"
	"bus-booking/handlers"
	"bus-booking/middleware"
)

// SetupRoutes mounts every endpoint under /{version}/api.
func SetupRoutes(app *fiber.App, h *handlers.Handler, tokens middleware.TokenValidator, version string) {
	api := app.Group("/" + version + "/api")
	api.Get("/", h.GetVersion)

	authenticated := middleware.Authenticate(tokens)
	asUser := []fiber.Handler{authenticated, middleware.RequireRole(auth.RoleUser)}
	asAdmin := []fiber.Handler{authenticated, middleware.RequireRole(auth.RoleAdmin)}
	asSuperAdmin := []fiber.Handler{authenticated, middleware.RequireRole(auth.RoleSuperAdmin)}

	//User
	user := api.Group("/user")
	user.Post("/login", h.Login)
	user.Post("/create", h.CreateUser)
	user.Get("/list", with(asSuperAdmin, h.ListUsers)...)
	user.Get("/:id", authenticated, h.GetUser)
	user.Put("/:id", with(asAdmin, h.UpdateUser)...)
	user.Delete("/:id", with(asAdmin, h.DeleteUser)...)

	//Booking
	booking := api.Group("/booking")
	booking.Post("/create", with(asUser, h.CreateBooking)...)
	booking.Get("/available_seats/:tripId", with(asUser, h.AvailableSeats)...)
	booking.Get("/list", with(asAdmin, h.ListBookings)...)
	booking.Get("/:id", with(asUser, h.GetBooking)...)
	booking.Put("/:id", with(asUser, h.UpdateBooking)...)
	booking.Delete("/:id", with(asUser, h.CancelBooking)...)

	//Catalog
	buses := h.Buses()
	bus := api.Group("/bus")
	bus.Post("/create", with(asAdmin, buses.Create)...)
	bus.Get("/list", with(asUser, buses.List)...)
	bus.Get("/:id", with(asUser, buses.Get)...)
	bus.Put("/:id", with(asAdmin, buses.Update)...)
	bus.Delete("/:id", with(asAdmin, buses.Delete)...)

	routes := h.Routes()
	route := api.Group("/bus_route")
	route.Post("/create", with(asAdmin, routes.Create)...)
	route.Get("/list", with(asUser, routes.List)...)
	route.Get("/:id", with(asUser, routes.Get)...)
	route.Put("/:id", with(asAdmin, routes.Update)...)
	route.Delete("/:id", with(asAdmin, routes.Delete)...)

	trips := h.Trips()
	trip := api.Group("/bus_trip")
	trip.Post("/create", with(asAdmin, trips.Create)...)
	trip.Get("/list", with(asUser, trips.List)...)
	trip.Get("/:id", with(asUser, trips.Get)...)
	trip.Put("/:id", with(asAdmin, trips.Update)...)
	trip.Delete("/:id", with(asAdmin, trips.Delete)...)

	api.Post("/city/add", with(asAdmin, h.Cities().Create)...)
	api.Get("/cities", authenticated, h.SearchCities)
}

func with(chain []fiber.Handler, handler fiber.Handler) []fiber.Handler {
	chained := make([]fiber.Handler, 0, len(chain)+1)
	chained = append(chained, chain...)
	return append(chained, handler)
}
