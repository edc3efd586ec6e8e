package main

import (
	"context"
	"net"
	"os/signal"
	"syscall"
	"time"

	"github.com/moonlightdb/moonlight/internal/config"
	"github.com/moonlightdb/moonlight/internal/logger"
	"github.com/moonlightdb/moonlight/internal/pubsub"
	"github.com/moonlightdb/moonlight/internal/server"
	"github.com/moonlightdb/moonlight/internal/storage"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load(".")
	if err != nil {
		panic(err)
	}

	log := logger.New(cfg.Log.Level, cfg.Log.Format)
	defer log.Sync() //nolint:errcheck

	log.Info("Moonlight starting",
		zap.String("port", cfg.Server.Port),
		zap.Uint("shards", cfg.Storage.Shards),
	)

	ks, err := storage.NewShardedKeyspace(cfg.Storage.Shards)
	if err != nil {
		log.Error("cant initialize storage", zap.Error(err))
		return
	}

	bus := pubsub.NewBus()

	engine, err := server.NewEngine(ks, bus, cfg, log)
	if err != nil {
		log.Error("cant initialize engine", zap.Error(err))
		return
	}

	address := net.JoinHostPort(cfg.Server.Host, cfg.Server.Port)
	listener, err := net.Listen("tcp", address)
	if err != nil {
		log.Error("listener error", zap.Error(err))
		return
	}
	log.Info("listening on", zap.String("address", address))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	engine.OnShutdown(stop)

	srv := server.NewServer(engine, bus, log)

	done := make(chan struct{})
	go func() {
		srv.Serve(listener)
		close(done)
	}()

	select {
	case <-ctx.Done():
	case <-engine.Done():
	}

	log.Info("Shutting down...")

	listener.Close() //nolint:errcheck
	engine.Shutdown()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	select {
	case <-done:
		log.Info("All connections closed gracefully")
	case <-shutdownCtx.Done():
		log.Warn("Shutdown timed out, forcing exit", zap.Duration("timeout", 5*time.Second))
	}

	log.Info("Moonlight stopped")
}
