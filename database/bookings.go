package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"

	"bus-booking/booking"
	"bus-booking/model"
)

// BookingStore keeps bookings in a record collection. A partial unique index
// on (tripId, seatNumber) over booked documents arbitrates seat claims.
type BookingStore struct {
	collection Collection
}

func NewBookingStore(collection Collection) *BookingStore {
	return &BookingStore{collection: collection}
}

func (s *BookingStore) EnsureIndexes(ctx context.Context) error {
	indexes := []Index{
		{
			Name:    "uniq_booked_trip_seat",
			Keys:    []string{"tripId", "seatNumber"},
			Unique:  true,
			Partial: bson.M{"status": model.BookingStatusBooked},
		},
		{Name: "by_user", Keys: []string{"userId"}},
	}
	for _, index := range indexes {
		if err := s.collection.EnsureIndex(ctx, index); err != nil {
			return err
		}
	}
	return nil
}

func (s *BookingStore) Insert(ctx context.Context, newBooking *model.Booking) error {
	id, err := s.collection.InsertOne(ctx, newBooking)
	if errors.Is(err, ErrDuplicateKey) {
		return booking.ErrSeatAlreadyBooked
	}
	if err != nil {
		return fmt.Errorf("inserting booking: %w", err)
	}
	newBooking.Id = id
	return nil
}

func (s *BookingStore) Find(ctx context.Context, id string) (model.Booking, error) {
	objID, ok := ObjectID(id)
	if !ok {
		return model.Booking{}, booking.ErrBookingNotFound
	}

	var found model.Booking
	err := s.collection.FindOne(ctx, bson.M{"_id": objID}, &found)
	if errors.Is(err, ErrNoDocuments) {
		return model.Booking{}, booking.ErrBookingNotFound
	}
	if err != nil {
		return model.Booking{}, fmt.Errorf("reading booking: %w", err)
	}
	return found, nil
}

func (s *BookingStore) Cancel(ctx context.Context, id string, at time.Time) (bool, error) {
	objID, ok := ObjectID(id)
	if !ok {
		return false, nil
	}

	filter := bson.M{"_id": objID, "status": model.BookingStatusBooked}
	set := bson.M{"status": model.BookingStatusCancelled, "updatedAt": at}
	cancelled, err := s.collection.UpdateOne(ctx, filter, set)
	if err != nil {
		return false, fmt.Errorf("cancelling booking: %w", err)
	}
	return cancelled, nil
}

func (s *BookingStore) BookedSeats(ctx context.Context, tripID string) ([]int, error) {
	var bookings []model.Booking
	filter := bson.M{"tripId": tripID, "status": model.BookingStatusBooked}
	if err := s.collection.Find(ctx, filter, 0, 0, &bookings); err != nil {
		return nil, fmt.Errorf("reading booked seats: %w", err)
	}

	seats := make([]int, 0, len(bookings))
	for _, b := range bookings {
		seats = append(seats, b.SeatNumber)
	}
	return seats, nil
}

func (s *BookingStore) List(ctx context.Context, filter booking.Filter, page, size int) ([]model.Booking, int64, error) {
	query := bson.M{}
	if filter.TripId != "" {
		query["tripId"] = filter.TripId
	}
	if filter.UserId != "" {
		query["userId"] = filter.UserId
	}
	if filter.Status != "" {
		query["status"] = filter.Status
	}

	var bookings []model.Booking
	total, err := Paginate(ctx, s.collection, query, page, size, &bookings)
	if err != nil {
		return nil, 0, fmt.Errorf("listing bookings: %w", err)
	}
	return bookings, total, nil
}
