package handlers

import (
	"fmt"

	"github.com/gofiber/fiber/v2"

	"bus-booking/booking"
	apperrors "bus-booking/errors"
	"bus-booking/model"
	"bus-booking/validation"
)

func (h *Handler) CreateBooking(c *fiber.Ctx) error {
	type Request struct {
		TripId     string `json:"tripId" validate:"required,notblank"`
		SeatNumber *int   `json:"seatNumber" validate:"required"`
	}

	req := new(Request)
	if err := c.BodyParser(req); err != nil {
		return apperrors.RaiseBadRequestError(c, fmt.Sprintf("incorrect input for booking parameters: %v", err))
	}
	if err := validation.Check(req); err != nil {
		return apperrors.RaiseBadRequestError(c, err.Error())
	}

	created, err := h.bookings.Reserve(c.UserContext(), req.TripId, caller(c).ID, *req.SeatNumber)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(created)
}

func (h *Handler) GetBooking(c *fiber.Ctx) error {
	found, err := h.bookings.Get(c.UserContext(), c.Params("id"), caller(c))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(found)
}

// UpdateBooking accepts only the transition to cancelled; seats and trips of
// an existing booking never change.
func (h *Handler) UpdateBooking(c *fiber.Ctx) error {
	type Request struct {
		Status     string  `json:"status"`
		TripId     *string `json:"tripId"`
		SeatNumber *int    `json:"seatNumber"`
		UserId     *string `json:"userId"`
	}

	req := new(Request)
	if err := c.BodyParser(req); err != nil {
		return apperrors.RaiseBadRequestError(c, fmt.Sprintf("incorrect input for booking parameters: %v", err))
	}
	if req.TripId != nil || req.SeatNumber != nil || req.UserId != nil ||
		req.Status != model.BookingStatusCancelled {
		return apperrors.RaiseBadRequestError(c, "only cancellation is supported: send {\"status\":\"cancelled\"}")
	}

	return h.cancel(c, "Booking updated")
}

func (h *Handler) CancelBooking(c *fiber.Ctx) error {
	return h.cancel(c, "Booking cancelled")
}

func (h *Handler) cancel(c *fiber.Ctx, message string) error {
	ctx := c.UserContext()
	id := c.Params("id")

	existing, err := h.bookings.Get(ctx, id, caller(c))
	if err != nil {
		return h.fail(c, err)
	}

	cancelled, err := h.bookings.Cancel(ctx, id, caller(c))
	if err != nil {
		return h.fail(c, err)
	}
	if !cancelled {
		return c.JSON(fiber.Map{"message": "Booking already cancelled", "status": model.BookingStatusCancelled, "_id": existing.Id})
	}
	return c.JSON(fiber.Map{"message": message, "status": model.BookingStatusCancelled, "_id": existing.Id})
}

func (h *Handler) ListBookings(c *fiber.Ctx) error {
	page, size, err := pageParams(c)
	if err != nil {
		return h.fail(c, err)
	}

	filter := booking.Filter{
		TripId: c.Query("tripId"),
		UserId: c.Query("userId"),
		Status: c.Query("status"),
	}
	result, err := h.bookings.List(c.UserContext(), filter, page, size)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(result)
}

func (h *Handler) AvailableSeats(c *fiber.Ctx) error {
	seats, err := h.bookings.SeatMap(c.UserContext(), c.Params("tripId"))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(seats)
}
