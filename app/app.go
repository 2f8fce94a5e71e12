// Package app wires configuration, stores and services into a runnable
// server.
package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"bus-booking/auth"
	"bus-booking/booking"
	"bus-booking/cache"
	"bus-booking/config"
	"bus-booking/database"
	"bus-booking/database/memory"
	"bus-booking/database/postgres"
	"bus-booking/handlers"
	"bus-booking/users"
)

type recordDatabase interface {
	Collection(name string) database.Collection
}

type App struct {
	Config   *config.Config
	Logger   *zap.Logger
	Tokens   *auth.TokenCodec
	Users    *users.Service
	Bookings *booking.Engine
	Records  handlers.Records

	closers []func(context.Context) error
}

// Open connects the configured stores, ensures their indexes and builds the
// services on top of them.
func Open(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	a := &App{Config: cfg, Logger: logger}

	db, err := a.openRecords(ctx)
	if err != nil {
		return nil, err
	}

	userStore := database.NewUserStore(db.Collection(database.UsersCollection))
	if err := userStore.EnsureIndexes(ctx); err != nil {
		a.Close(ctx)
		return nil, err
	}

	bookingStore, err := a.openBookings(ctx, db)
	if err != nil {
		a.Close(ctx)
		return nil, err
	}

	a.Records = handlers.Records{
		Buses:  db.Collection(database.BusesCollection),
		Routes: db.Collection(database.BusRoutesCollection),
		Trips:  db.Collection(database.BusTripsCollection),
		Cities: db.Collection(database.CitiesCollection),
	}
	trips := database.NewTripCatalog(a.Records.Trips, a.Records.Buses)

	a.Tokens = auth.NewTokenCodec([]byte(cfg.SecretKey), cfg.TokenTTL)
	a.Users = users.NewService(userStore, auth.NewPasswordHasher(cfg.BcryptCost), a.Tokens, logger)
	a.Bookings = booking.NewEngine(bookingStore, trips, a.openSeatCache(ctx), logger)

	// The memory store lives and dies with this process, so nothing else can
	// seed it.
	if cfg.StoreDriver == config.DriverMemory {
		if _, err := a.Users.EnsureSuperAdmin(ctx, cfg.SuperAdmin); err != nil {
			a.Close(ctx)
			return nil, fmt.Errorf("seeding superadmin: %w", err)
		}
		logger.Info("superadmin seeded", zap.String("username", cfg.SuperAdmin.Username))
	}

	return a, nil
}

func (a *App) openRecords(ctx context.Context) (recordDatabase, error) {
	if a.Config.StoreDriver == config.DriverMemory {
		a.Logger.Warn("using the in-memory record store, data is lost on exit")
		return memory.NewDatabase(), nil
	}

	db, err := database.Connect(ctx, a.Config.MongoURI, a.Config.MongoDatabase)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, db.Disconnect)
	a.Logger.Info("connected to mongo", zap.String("database", a.Config.MongoDatabase))
	return db, nil
}

func (a *App) openBookings(ctx context.Context, db recordDatabase) (booking.Store, error) {
	if a.Config.BookingsPostgresDSN == "" {
		store := database.NewBookingStore(db.Collection(database.BookingsCollection))
		if err := store.EnsureIndexes(ctx); err != nil {
			return nil, err
		}
		return store, nil
	}

	sqlDB, err := postgres.Open(ctx, a.Config.BookingsPostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("bookings ledger: %w", err)
	}
	a.closers = append(a.closers, func(context.Context) error { return sqlDB.Close() })

	ledger := postgres.NewBookingStore(sqlDB)
	if err := ledger.Migrate(ctx); err != nil {
		return nil, err
	}
	a.Logger.Info("bookings kept in the postgres ledger")
	return ledger, nil
}

// openSeatCache returns nil when no cache is configured or Redis is not
// reachable; availability is then always read from the store.
func (a *App) openSeatCache(ctx context.Context) booking.SeatCache {
	if a.Config.RedisAddr == "" {
		return nil
	}

	client := cache.NewRedisClient(a.Config.RedisAddr, a.Config.RedisPassword)
	if err := client.Ping(ctx).Err(); err != nil {
		a.Logger.Warn("redis unavailable, seat cache disabled", zap.String("addr", a.Config.RedisAddr), zap.Error(err))
		client.Close()
		return nil
	}
	a.closers = append(a.closers, func(context.Context) error { return client.Close() })
	return cache.NewSeatCache(client, a.Config.SeatCacheTTL)
}

// Close releases store connections in reverse order of opening.
func (a *App) Close(ctx context.Context) error {
	var first error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil && first == nil {
			first = err
		}
	}
	a.closers = nil
	return first
}
