package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"bus-booking/app"
	"bus-booking/config"
	"bus-booking/logger"
)

func main() {
	log, err := logger.New("bus-booking")
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("invalid configuration", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	startCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	application, err := app.Open(startCtx, cfg, log)
	cancel()
	if err != nil {
		log.Fatal("cannot open stores", zap.Error(err))
	}

	server := application.Server()
	go func() {
		<-ctx.Done()
		log.Info("shutting down")
		if err := server.ShutdownWithTimeout(10 * time.Second); err != nil {
			log.Error("shutdown failed", zap.Error(err))
		}
	}()

	log.Info("listening", zap.String("port", cfg.Port), zap.String("version", cfg.Version))
	if err := server.Listen(":" + cfg.Port); err != nil {
		log.Error("server stopped", zap.Error(err))
	}

	closeCtx, cancelClose := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelClose()
	if err := application.Close(closeCtx); err != nil {
		log.Error("closing stores failed", zap.Error(err))
	}
}
