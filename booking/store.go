package booking

import (
	"context"
	"time"

	apperrors "bus-booking/errors"
	"bus-booking/model"
)

var (
	ErrSeatAlreadyBooked = apperrors.New(apperrors.ErrConflict, "Seat already booked")
	ErrInvalidSeat       = apperrors.New(apperrors.ErrValidation, "Invalid seat number")
	ErrTripNotFound      = apperrors.New(apperrors.ErrNotFound, "Trip not found")
	ErrBookingNotFound   = apperrors.New(apperrors.ErrNotFound, "Booking not found")
)

// Store persists bookings. Insert must be a single constrained write that
// fails with ErrSeatAlreadyBooked when a booked row for the same trip and
// seat exists; it is the only guard against double booking.
type Store interface {
	Insert(ctx context.Context, booking *model.Booking) error
	Find(ctx context.Context, id string) (model.Booking, error)
	// Cancel moves a booked booking to cancelled and reports whether this
	// call performed the transition.
	Cancel(ctx context.Context, id string, at time.Time) (bool, error)
	BookedSeats(ctx context.Context, tripID string) ([]int, error)
	List(ctx context.Context, filter Filter, page, size int) ([]model.Booking, int64, error)
}

// TripLookup resolves the seat capacity of a trip, or ErrTripNotFound.
type TripLookup interface {
	TripCapacity(ctx context.Context, tripID string) (int, error)
}

// SeatCache holds short-lived snapshots of the booked seats of a trip. It is
// never consulted by Reserve.
type SeatCache interface {
	BookedSeats(ctx context.Context, tripID string) ([]int, bool, error)
	SetBookedSeats(ctx context.Context, tripID string, seats []int) error
	Invalidate(ctx context.Context, tripID string) error
}

// Filter narrows a booking listing. Empty fields match everything.
type Filter struct {
	TripId string
	UserId string
	Status string
}
