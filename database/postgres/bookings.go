// Package postgres keeps the bookings ledger in PostgreSQL. A partial unique
// index over booked rows arbitrates seat claims, as the document store does.
package postgres

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"time"

	"github.com/lib/pq"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"bus-booking/booking"
	apperrors "bus-booking/errors"
	"bus-booking/model"
)

const uniqueViolation = "23505"

const schema = `
CREATE TABLE IF NOT EXISTS bookings (
	id          CHAR(24) PRIMARY KEY,
	trip_id     TEXT NOT NULL,
	user_id     TEXT NOT NULL,
	seat_number INTEGER NOT NULL,
	status      TEXT NOT NULL,
	created_at  TIMESTAMPTZ NOT NULL,
	updated_at  TIMESTAMPTZ NOT NULL
);
CREATE UNIQUE INDEX IF NOT EXISTS uniq_booked_trip_seat
	ON bookings (trip_id, seat_number) WHERE status = 'booked';
CREATE INDEX IF NOT EXISTS bookings_by_user ON bookings (user_id);
`

const bookingColumns = "id, trip_id, user_id, seat_number, status, created_at, updated_at"

// Open connects to the ledger database and checks it is reachable.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: %v", apperrors.ErrStoreUnavailable, err)
	}
	return db, nil
}

type BookingStore struct {
	db *sql.DB
}

func NewBookingStore(db *sql.DB) *BookingStore {
	return &BookingStore{db: db}
}

// Migrate creates the bookings table and its indexes when missing.
func (s *BookingStore) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("migrating bookings: %w", translate(err))
	}
	return nil
}

func (s *BookingStore) Insert(ctx context.Context, newBooking *model.Booking) error {
	id := primitive.NewObjectID()
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO bookings ("+bookingColumns+") VALUES ($1, $2, $3, $4, $5, $6, $7)",
		id.Hex(), newBooking.TripId, newBooking.UserId, newBooking.SeatNumber,
		newBooking.Status, newBooking.CreatedAt, newBooking.UpdatedAt)
	if err != nil {
		return translate(err)
	}
	newBooking.Id = id
	return nil
}

func (s *BookingStore) Find(ctx context.Context, id string) (model.Booking, error) {
	if _, err := primitive.ObjectIDFromHex(id); err != nil {
		return model.Booking{}, booking.ErrBookingNotFound
	}

	row := s.db.QueryRowContext(ctx, "SELECT "+bookingColumns+" FROM bookings WHERE id = $1", id)
	found, err := scanBooking(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Booking{}, booking.ErrBookingNotFound
	}
	if err != nil {
		return model.Booking{}, translate(err)
	}
	return found, nil
}

func (s *BookingStore) Cancel(ctx context.Context, id string, at time.Time) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		"UPDATE bookings SET status = $1, updated_at = $2 WHERE id = $3 AND status = $4",
		model.BookingStatusCancelled, at, id, model.BookingStatusBooked)
	if err != nil {
		return false, translate(err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, translate(err)
	}
	return affected == 1, nil
}

func (s *BookingStore) BookedSeats(ctx context.Context, tripID string) ([]int, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT seat_number FROM bookings WHERE trip_id = $1 AND status = $2 ORDER BY seat_number",
		tripID, model.BookingStatusBooked)
	if err != nil {
		return nil, translate(err)
	}
	defer rows.Close()

	seats := []int{}
	for rows.Next() {
		var seat int
		if err := rows.Scan(&seat); err != nil {
			return nil, translate(err)
		}
		seats = append(seats, seat)
	}
	return seats, translate(rows.Err())
}

func (s *BookingStore) List(ctx context.Context, filter booking.Filter, page, size int) ([]model.Booking, int64, error) {
	if page < 1 || size < 1 {
		return nil, 0, apperrors.Validation("page and size must be positive")
	}

	var (
		conditions []string
		args       []interface{}
	)
	where := func(column, value string) {
		if value != "" {
			args = append(args, value)
			conditions = append(conditions, fmt.Sprintf("%s = $%d", column, len(args)))
		}
	}
	where("trip_id", filter.TripId)
	where("user_id", filter.UserId)
	where("status", filter.Status)

	clause := ""
	if len(conditions) > 0 {
		clause = " WHERE " + strings.Join(conditions, " AND ")
	}

	var total int64
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM bookings"+clause, args...).Scan(&total); err != nil {
		return nil, 0, translate(err)
	}
	skip := model.Skip(page, size)
	if skip >= total {
		return []model.Booking{}, total, nil
	}

	query := fmt.Sprintf("SELECT %s FROM bookings%s ORDER BY created_at, id LIMIT $%d OFFSET $%d",
		bookingColumns, clause, len(args)+1, len(args)+2)
	rows, err := s.db.QueryContext(ctx, query, append(args, size, skip)...)
	if err != nil {
		return nil, 0, translate(err)
	}
	defer rows.Close()

	bookings := []model.Booking{}
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, 0, translate(err)
		}
		bookings = append(bookings, b)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, translate(err)
	}
	return bookings, total, nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanBooking(row scanner) (model.Booking, error) {
	var (
		b  model.Booking
		id string
	)
	if err := row.Scan(&id, &b.TripId, &b.UserId, &b.SeatNumber, &b.Status, &b.CreatedAt, &b.UpdatedAt); err != nil {
		return model.Booking{}, err
	}
	objID, err := primitive.ObjectIDFromHex(strings.TrimSpace(id))
	if err != nil {
		return model.Booking{}, fmt.Errorf("corrupt booking id %q: %w", id, err)
	}
	b.Id = objID
	return b, nil
}

// translate maps driver errors onto booking and store error kinds.
func translate(err error) error {
	if err == nil {
		return nil
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch {
		case pqErr.Code == uniqueViolation:
			return booking.ErrSeatAlreadyBooked
		case unavailableClass(pqErr.Code):
			return fmt.Errorf("%w: %v", apperrors.ErrStoreUnavailable, err)
		}
		return err
	}

	var netErr net.Error
	if errors.As(err, &netErr) ||
		errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, driver.ErrBadConn) || errors.Is(err, sql.ErrConnDone) ||
		errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", apperrors.ErrStoreUnavailable, err)
	}
	return err
}

// unavailableClass reports SQLSTATE classes raised when the server cannot
// serve the statement: connection exceptions (08), operator intervention
// such as admin shutdown (57P) and insufficient resources (53).
func unavailableClass(code pq.ErrorCode) bool {
	class := string(code.Class())
	return class == "08" || class == "53" || strings.HasPrefix(string(code), "57P")
}
