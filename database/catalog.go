package database

import (
	"context"
	"errors"
	"fmt"

	"bus-booking/booking"
	"bus-booking/model"
)

// TripCatalog resolves trip capacity from the trip's bus.
type TripCatalog struct {
	trips Collection
	buses Collection
}

func NewTripCatalog(trips, buses Collection) *TripCatalog {
	return &TripCatalog{trips: trips, buses: buses}
}

func (c *TripCatalog) TripCapacity(ctx context.Context, tripID string) (int, error) {
	var trip model.BusTrip
	err := FindByID(ctx, c.trips, tripID, &trip)
	if errors.Is(err, ErrNoDocuments) {
		return 0, booking.ErrTripNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("reading trip: %w", err)
	}

	var bus model.Bus
	err = FindByID(ctx, c.buses, trip.BusId, &bus)
	if errors.Is(err, ErrNoDocuments) {
		return 0, fmt.Errorf("%w: bus %s of trip %s is gone", booking.ErrTripNotFound, trip.BusId, tripID)
	}
	if err != nil {
		return 0, fmt.Errorf("reading bus: %w", err)
	}
	return bus.TotalSeat, nil
}
