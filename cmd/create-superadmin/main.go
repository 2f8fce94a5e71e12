// Command create-superadmin seeds the bootstrap superAdmin account from the
// SUPERADMIN_* environment variables.
package main

import (
	"context"
	"time"

	"go.uber.org/zap"

	"bus-booking/app"
	"bus-booking/config"
	"bus-booking/logger"
)

func main() {
	log, err := logger.New("create-superadmin")
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("invalid configuration", zap.Error(err))
	}
	if cfg.StoreDriver == config.DriverMemory {
		log.Info("the memory store is seeded by the server when it starts, nothing to do")
		return
	}
	if err := cfg.CheckSuperAdmin(); err != nil {
		log.Fatal("refusing to create superadmin", zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	application, err := app.Open(ctx, cfg, log)
	if err != nil {
		log.Fatal("cannot open stores", zap.Error(err))
	}
	defer application.Close(ctx)

	created, err := application.Users.EnsureSuperAdmin(ctx, cfg.SuperAdmin)
	if err != nil {
		log.Fatal("cannot create superadmin", zap.Error(err))
	}
	if !created {
		log.Info("superadmin already exists", zap.String("username", cfg.SuperAdmin.Username))
		return
	}
	log.Info("superadmin created", zap.String("username", cfg.SuperAdmin.Username))
}
