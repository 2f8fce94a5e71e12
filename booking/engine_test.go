package booking_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"bus-booking/auth"
	"bus-booking/booking"
	"bus-booking/database"
	"bus-booking/database/memory"
	apperrors "bus-booking/errors"
	"bus-booking/model"
)

type fixedTrips map[string]int

func (f fixedTrips) TripCapacity(_ context.Context, tripID string) (int, error) {
	capacity, ok := f[tripID]
	if !ok {
		return 0, booking.ErrTripNotFound
	}
	return capacity, nil
}

type fakeCache struct {
	mu          sync.Mutex
	snapshots   map[string][]int
	invalidated []string
}

func newFakeCache() *fakeCache {
	return &fakeCache{snapshots: map[string][]int{}}
}

func (f *fakeCache) BookedSeats(_ context.Context, tripID string) ([]int, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	seats, ok := f.snapshots[tripID]
	return seats, ok, nil
}

func (f *fakeCache) SetBookedSeats(_ context.Context, tripID string, seats []int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.snapshots[tripID] = seats
	return nil
}

func (f *fakeCache) Invalidate(_ context.Context, tripID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.snapshots, tripID)
	f.invalidated = append(f.invalidated, tripID)
	return nil
}

func newEngine(t *testing.T, cache booking.SeatCache) *booking.Engine {
	t.Helper()
	store := database.NewBookingStore(memory.NewCollection())
	require.NoError(t, store.EnsureIndexes(context.Background()))
	return booking.NewEngine(store, fixedTrips{"trip-1": 40, "trip-2": 3}, cache, zap.NewNop())
}

var admin = booking.Caller{ID: "admin-1", Roles: []string{auth.RoleAdmin}}

func TestReserveAndAvailability(t *testing.T) {
	ctx := context.Background()
	engine := newEngine(t, nil)

	b, err := engine.Reserve(ctx, "trip-1", "u1", 12)
	require.NoError(t, err)
	assert.Equal(t, model.BookingStatusBooked, b.Status)
	assert.Equal(t, 12, b.SeatNumber)
	assert.False(t, b.Id.IsZero())

	available, err := engine.AvailableSeats(ctx, "trip-1")
	require.NoError(t, err)
	assert.Len(t, available, 39)

	booked, err := engine.BookedSeats(ctx, "trip-1")
	require.NoError(t, err)
	assert.Equal(t, []int{12}, booked)
	assert.NotContains(t, available, 12)

	_, err = engine.Reserve(ctx, "trip-1", "u2", 12)
	assert.ErrorIs(t, err, booking.ErrSeatAlreadyBooked)
	assert.ErrorIs(t, err, apperrors.ErrConflict)

	cancelled, err := engine.Cancel(ctx, b.Id.Hex(), booking.Caller{ID: "u1"})
	require.NoError(t, err)
	assert.True(t, cancelled)

	available, err = engine.AvailableSeats(ctx, "trip-1")
	require.NoError(t, err)
	assert.Len(t, available, 40)
	assert.Contains(t, available, 12)

	again, err := engine.Reserve(ctx, "trip-1", "u2", 12)
	require.NoError(t, err)
	assert.NotEqual(t, b.Id, again.Id)
}

func TestReserveValidation(t *testing.T) {
	ctx := context.Background()
	engine := newEngine(t, nil)

	tests := []struct {
		description string
		trip        string
		traveler    string
		seat        int
		want        error
	}{
		{description: "seat above capacity", trip: "trip-1", traveler: "u1", seat: 41, want: booking.ErrInvalidSeat},
		{description: "seat zero", trip: "trip-1", traveler: "u1", seat: 0, want: booking.ErrInvalidSeat},
		{description: "negative seat", trip: "trip-1", traveler: "u1", seat: -3, want: booking.ErrInvalidSeat},
		{description: "unknown trip", trip: "trip-x", traveler: "u1", seat: 1, want: booking.ErrTripNotFound},
		{description: "missing trip", trip: " ", traveler: "u1", seat: 1, want: apperrors.ErrValidation},
		{description: "missing traveler", trip: "trip-1", traveler: "", seat: 1, want: apperrors.ErrValidation},
	}

	for _, test := range tests {
		_, err := engine.Reserve(ctx, test.trip, test.traveler, test.seat)
		assert.ErrorIs(t, err, test.want, test.description)
	}

	page, err := engine.List(ctx, booking.Filter{}, 1, 10)
	require.NoError(t, err)
	assert.Zero(t, page.TotalData, "rejected reservations leave no record")
}

func TestConcurrentReserveHasOneWinner(t *testing.T) {
	ctx := context.Background()
	engine := newEngine(t, nil)

	const travelers = 64
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		conflicts int
	)
	for i := 0; i < travelers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := engine.Reserve(ctx, "trip-1", "traveler", 7)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case errors.Is(err, booking.ErrSeatAlreadyBooked):
				conflicts++
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, successes)
	assert.Equal(t, travelers-1, conflicts)

	page, err := engine.List(ctx, booking.Filter{TripId: "trip-1", Status: model.BookingStatusBooked}, 1, 100)
	require.NoError(t, err)
	assert.Equal(t, int64(1), page.TotalData)
}

func TestConcurrentReserveFillsTrip(t *testing.T) {
	ctx := context.Background()
	engine := newEngine(t, nil)

	var wg sync.WaitGroup
	for seat := 1; seat <= 3; seat++ {
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func(seat int) {
				defer wg.Done()
				_, _ = engine.Reserve(ctx, "trip-2", "traveler", seat)
			}(seat)
		}
	}
	wg.Wait()

	seats, err := engine.SeatMap(ctx, "trip-2")
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3}, seats.Booked)
	assert.Empty(t, seats.Available)
	assert.Equal(t, 3, seats.Capacity)
}

func TestCancelIsIdempotent(t *testing.T) {
	ctx := context.Background()
	engine := newEngine(t, nil)

	b, err := engine.Reserve(ctx, "trip-1", "u1", 1)
	require.NoError(t, err)

	first, err := engine.Cancel(ctx, b.Id.Hex(), admin)
	require.NoError(t, err)
	second, err := engine.Cancel(ctx, b.Id.Hex(), admin)
	require.NoError(t, err)
	assert.True(t, first)
	assert.False(t, second)

	missing, err := engine.Cancel(ctx, "65f000000000000000000000", admin)
	require.NoError(t, err)
	assert.False(t, missing)

	got, err := engine.Get(ctx, b.Id.Hex(), admin)
	require.NoError(t, err)
	assert.Equal(t, model.BookingStatusCancelled, got.Status)
}

func TestConcurrentCancelHasOneWinner(t *testing.T) {
	ctx := context.Background()
	engine := newEngine(t, nil)

	b, err := engine.Reserve(ctx, "trip-1", "u1", 5)
	require.NoError(t, err)

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			cancelled, err := engine.Cancel(ctx, b.Id.Hex(), admin)
			if err == nil && cancelled {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, wins)
}

func TestOwnershipChecks(t *testing.T) {
	ctx := context.Background()
	engine := newEngine(t, nil)

	b, err := engine.Reserve(ctx, "trip-1", "owner", 2)
	require.NoError(t, err)

	stranger := booking.Caller{ID: "stranger", Roles: []string{auth.RoleUser}}
	_, err = engine.Get(ctx, b.Id.Hex(), stranger)
	assert.ErrorIs(t, err, auth.ErrInsufficientPermission)

	_, err = engine.Cancel(ctx, b.Id.Hex(), stranger)
	assert.ErrorIs(t, err, auth.ErrInsufficientPermission)

	_, err = engine.Get(ctx, b.Id.Hex(), booking.Caller{ID: "owner", Roles: []string{auth.RoleUser}})
	assert.NoError(t, err)

	root := booking.Caller{ID: "root", Roles: []string{auth.RoleSuperAdmin}}
	cancelled, err := engine.Cancel(ctx, b.Id.Hex(), root)
	require.NoError(t, err)
	assert.True(t, cancelled)
}

func TestListPagination(t *testing.T) {
	ctx := context.Background()
	engine := newEngine(t, nil)

	empty, err := engine.List(ctx, booking.Filter{}, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(0), empty.TotalData)
	assert.NotNil(t, empty.Data)
	assert.Empty(t, empty.Data)

	for seat := 1; seat <= 25; seat++ {
		_, err := engine.Reserve(ctx, "trip-1", "u1", seat)
		require.NoError(t, err)
	}

	page, err := engine.List(ctx, booking.Filter{}, 3, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(25), page.TotalData)
	assert.Equal(t, 3, page.CurrentPage)
	assert.Equal(t, 10, page.PageSize)
	assert.Len(t, page.Data, 5)

	_, err = engine.List(ctx, booking.Filter{}, 0, 10)
	assert.ErrorIs(t, err, apperrors.ErrValidation)
	_, err = engine.List(ctx, booking.Filter{Status: "pending"}, 1, 10)
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestSeatMapUsesCache(t *testing.T) {
	ctx := context.Background()
	cache := newFakeCache()
	engine := newEngine(t, cache)

	_, err := engine.Reserve(ctx, "trip-1", "u1", 4)
	require.NoError(t, err)
	assert.Equal(t, []string{"trip-1"}, cache.invalidated)

	seats, err := engine.SeatMap(ctx, "trip-1")
	require.NoError(t, err)
	assert.Equal(t, []int{4}, seats.Booked)

	snapshot, ok, _ := cache.BookedSeats(ctx, "trip-1")
	require.True(t, ok)
	assert.Equal(t, []int{4}, snapshot)

	// Reads are served from the snapshot until it is invalidated.
	require.NoError(t, cache.SetBookedSeats(ctx, "trip-1", []int{1, 2}))
	seats, err = engine.SeatMap(ctx, "trip-1")
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, seats.Booked)

	// Reserve never trusts the snapshot.
	_, err = engine.Reserve(ctx, "trip-1", "u2", 4)
	assert.ErrorIs(t, err, booking.ErrSeatAlreadyBooked)
	_, err = engine.Reserve(ctx, "trip-1", "u2", 1)
	assert.NoError(t, err)

	seats, err = engine.SeatMap(ctx, "trip-1")
	require.NoError(t, err)
	assert.Equal(t, []int{1, 4}, seats.Booked)
}

// downStore fails every call the way a store does when its server is gone.
type downStore struct{}

var errStoreDown = fmt.Errorf("%w: dial tcp 127.0.0.1:27017: connect: connection refused", apperrors.ErrStoreUnavailable)

func (downStore) Insert(context.Context, *model.Booking) error { return errStoreDown }
func (downStore) Find(context.Context, string) (model.Booking, error) {
	return model.Booking{}, errStoreDown
}
func (downStore) Cancel(context.Context, string, time.Time) (bool, error) { return false, errStoreDown }
func (downStore) BookedSeats(context.Context, string) ([]int, error)      { return nil, errStoreDown }
func (downStore) List(context.Context, booking.Filter, int, int) ([]model.Booking, int64, error) {
	return nil, 0, errStoreDown
}

func TestStoreUnavailable(t *testing.T) {
	ctx := context.Background()
	cache := newFakeCache()
	engine := booking.NewEngine(downStore{}, fixedTrips{"trip-1": 40}, cache, zap.NewNop())

	_, err := engine.Reserve(ctx, "trip-1", "u1", 3)
	assert.ErrorIs(t, err, apperrors.ErrStoreUnavailable)
	assert.Equal(t, 503, apperrors.Status(err))

	_, err = engine.Cancel(ctx, "65f1a2b3c4d5e6f7a8b9c0d1", admin)
	assert.ErrorIs(t, err, apperrors.ErrStoreUnavailable)

	_, err = engine.Get(ctx, "65f1a2b3c4d5e6f7a8b9c0d1", admin)
	assert.ErrorIs(t, err, apperrors.ErrStoreUnavailable)

	_, err = engine.AvailableSeats(ctx, "trip-1")
	assert.ErrorIs(t, err, apperrors.ErrStoreUnavailable)
	assert.Empty(t, cache.snapshots, "failed reads are not cached")

	_, err = engine.List(ctx, booking.Filter{}, 1, 10)
	assert.ErrorIs(t, err, apperrors.ErrStoreUnavailable)
}
