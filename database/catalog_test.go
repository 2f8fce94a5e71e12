package database_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bus-booking/booking"
	"bus-booking/database"
	"bus-booking/database/memory"
	"bus-booking/model"
)

func TestTripCapacity(t *testing.T) {
	ctx := context.Background()
	db := memory.NewDatabase()
	buses := db.Collection(database.BusesCollection)
	trips := db.Collection(database.BusTripsCollection)

	busID, err := buses.InsertOne(ctx, &model.Bus{Travel: "Shree", Registration: "MH12", TotalSeat: 40})
	require.NoError(t, err)
	tripID, err := trips.InsertOne(ctx, &model.BusTrip{RouteId: "r1", BusId: busID.Hex(), Date: "2024-05-01"})
	require.NoError(t, err)
	orphanID, err := trips.InsertOne(ctx, &model.BusTrip{RouteId: "r1", BusId: "65f000000000000000000000", Date: "2024-05-01"})
	require.NoError(t, err)

	catalog := database.NewTripCatalog(trips, buses)

	capacity, err := catalog.TripCapacity(ctx, tripID.Hex())
	require.NoError(t, err)
	assert.Equal(t, 40, capacity)

	_, err = catalog.TripCapacity(ctx, "65f000000000000000000001")
	assert.ErrorIs(t, err, booking.ErrTripNotFound)

	_, err = catalog.TripCapacity(ctx, orphanID.Hex())
	assert.ErrorIs(t, err, booking.ErrTripNotFound)
}

func TestPaginateRejectsBadPages(t *testing.T) {
	var out []model.City
	_, err := database.Paginate(context.Background(), memory.NewCollection(), nil, 0, 10, &out)
	assert.Error(t, err)
	_, err = database.Paginate(context.Background(), memory.NewCollection(), nil, 1, 0, &out)
	assert.Error(t, err)
}
