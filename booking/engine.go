package booking

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"bus-booking/auth"
	apperrors "bus-booking/errors"
	"bus-booking/model"
)

// Caller is the authenticated identity acting on a booking.
type Caller struct {
	ID    string
	Roles []string
}

func (c Caller) canManage(b model.Booking) bool {
	return b.UserId == c.ID || auth.HasRole(c.Roles, auth.RoleAdmin)
}

// SeatMap is the seat occupancy of one trip.
type SeatMap struct {
	Capacity  int   `json:"capacity"`
	Booked    []int `json:"booked_seats"`
	Available []int `json:"available_seats"`
}

type Engine struct {
	store  Store
	trips  TripLookup
	cache  SeatCache
	logger *zap.Logger

	Now func() time.Time
}

// NewEngine builds the reservation engine. cache may be nil.
func NewEngine(store Store, trips TripLookup, cache SeatCache, logger *zap.Logger) *Engine {
	return &Engine{
		store:  store,
		trips:  trips,
		cache:  cache,
		logger: logger,
		Now:    func() time.Time { return time.Now().UTC() },
	}
}

// Reserve claims seat on trip for traveler. Exactly one of any number of
// concurrent calls for the same trip and seat succeeds; the others get
// ErrSeatAlreadyBooked. Nothing is retried.
func (e *Engine) Reserve(ctx context.Context, tripID, travelerID string, seat int) (model.Booking, error) {
	tripID = strings.TrimSpace(tripID)
	if tripID == "" {
		return model.Booking{}, apperrors.Validation("tripId is required")
	}
	if travelerID == "" {
		return model.Booking{}, apperrors.Validation("traveler is required")
	}

	capacity, err := e.trips.TripCapacity(ctx, tripID)
	if err != nil {
		return model.Booking{}, err
	}
	if seat < 1 || seat > capacity {
		return model.Booking{}, fmt.Errorf("%w: seat %d is outside 1..%d", ErrInvalidSeat, seat, capacity)
	}

	now := e.Now()
	newBooking := model.Booking{
		TripId:     tripID,
		UserId:     travelerID,
		SeatNumber: seat,
		Status:     model.BookingStatusBooked,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := e.store.Insert(ctx, &newBooking); err != nil {
		if errors.Is(err, ErrSeatAlreadyBooked) {
			e.logger.Info("seat already booked",
				zap.String("tripId", tripID),
				zap.Int("seatNumber", seat),
				zap.String("userId", travelerID))
		}
		return model.Booking{}, err
	}

	e.invalidate(ctx, tripID)
	e.logger.Info("seat reserved",
		zap.String("bookingId", newBooking.Id.Hex()),
		zap.String("tripId", tripID),
		zap.Int("seatNumber", seat),
		zap.String("userId", travelerID))

	return newBooking, nil
}

// Cancel frees the seat of a booked booking. It returns false without error
// when the booking is absent or already cancelled.
func (e *Engine) Cancel(ctx context.Context, bookingID string, caller Caller) (bool, error) {
	existing, err := e.store.Find(ctx, bookingID)
	if errors.Is(err, ErrBookingNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if !caller.canManage(existing) {
		return false, auth.ErrInsufficientPermission
	}
	if existing.Status != model.BookingStatusBooked {
		return false, nil
	}

	cancelled, err := e.store.Cancel(ctx, bookingID, e.Now())
	if err != nil {
		return false, err
	}
	if cancelled {
		e.invalidate(ctx, existing.TripId)
		e.logger.Info("booking cancelled",
			zap.String("bookingId", bookingID),
			zap.String("tripId", existing.TripId),
			zap.Int("seatNumber", existing.SeatNumber))
	}
	return cancelled, nil
}

func (e *Engine) Get(ctx context.Context, bookingID string, caller Caller) (model.Booking, error) {
	existing, err := e.store.Find(ctx, bookingID)
	if err != nil {
		return model.Booking{}, err
	}
	if !caller.canManage(existing) {
		return model.Booking{}, auth.ErrInsufficientPermission
	}
	return existing, nil
}

// SeatMap reports booked and free seats of a trip. Booked seats may come from
// the cache snapshot.
func (e *Engine) SeatMap(ctx context.Context, tripID string) (SeatMap, error) {
	capacity, err := e.trips.TripCapacity(ctx, tripID)
	if err != nil {
		return SeatMap{}, err
	}

	booked, err := e.bookedSeats(ctx, tripID)
	if err != nil {
		return SeatMap{}, err
	}

	taken := make(map[int]struct{}, len(booked))
	for _, seat := range booked {
		taken[seat] = struct{}{}
	}
	available := make([]int, 0, max(capacity-len(taken), 0))
	for seat := 1; seat <= capacity; seat++ {
		if _, ok := taken[seat]; !ok {
			available = append(available, seat)
		}
	}

	return SeatMap{Capacity: capacity, Booked: booked, Available: available}, nil
}

// BookedSeats lists the booked seat numbers of a trip in ascending order.
func (e *Engine) BookedSeats(ctx context.Context, tripID string) ([]int, error) {
	seats, err := e.SeatMap(ctx, tripID)
	if err != nil {
		return nil, err
	}
	return seats.Booked, nil
}

func (e *Engine) AvailableSeats(ctx context.Context, tripID string) ([]int, error) {
	seats, err := e.SeatMap(ctx, tripID)
	if err != nil {
		return nil, err
	}
	return seats.Available, nil
}

func (e *Engine) List(ctx context.Context, filter Filter, page, size int) (model.Page[model.Booking], error) {
	if page < 1 || size < 1 {
		return model.Page[model.Booking]{}, apperrors.Validation("page and size must be positive")
	}
	switch filter.Status {
	case "", model.BookingStatusBooked, model.BookingStatusCancelled:
	default:
		return model.Page[model.Booking]{}, apperrors.Validation("status must be booked or cancelled")
	}

	bookings, total, err := e.store.List(ctx, filter, page, size)
	if err != nil {
		return model.Page[model.Booking]{}, err
	}
	if bookings == nil {
		bookings = []model.Booking{}
	}

	return model.Page[model.Booking]{
		Data:        bookings,
		PageSize:    size,
		CurrentPage: page,
		TotalData:   total,
	}, nil
}

func (e *Engine) bookedSeats(ctx context.Context, tripID string) ([]int, error) {
	if e.cache != nil {
		seats, ok, err := e.cache.BookedSeats(ctx, tripID)
		if err != nil {
			e.logger.Warn("seat cache read failed", zap.String("tripId", tripID), zap.Error(err))
		} else if ok {
			return seats, nil
		}
	}

	seats, err := e.store.BookedSeats(ctx, tripID)
	if err != nil {
		return nil, err
	}
	sort.Ints(seats)
	if seats == nil {
		seats = []int{}
	}

	if e.cache != nil {
		if err := e.cache.SetBookedSeats(ctx, tripID, seats); err != nil {
			e.logger.Warn("seat cache write failed", zap.String("tripId", tripID), zap.Error(err))
		}
	}
	return seats, nil
}

func (e *Engine) invalidate(ctx context.Context, tripID string) {
	if e.cache == nil {
		return
	}
	if err := e.cache.Invalidate(ctx, tripID); err != nil {
		e.logger.Warn("seat cache invalidation failed", zap.String("tripId", tripID), zap.Error(err))
	}
}
