package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rdine/go-storefront/internal/cart"
	"github.com/rdine/go-storefront/internal/config"
	"github.com/rdine/go-storefront/internal/database"
	"github.com/rdine/go-storefront/internal/handlers"
	"github.com/rdine/go-storefront/internal/server"
	"github.com/rdine/go-storefront/internal/session"
)

func main() {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Load config: %v", err)
	}

	db, err := database.NewConnection(&cfg.Database)
	if err != nil {
		log.Fatalf("Connect to database: %v", err)
	}
	defer db.Close()

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer rdb.Close()

	pingCtx, cancelPing := context.WithTimeout(context.Background(), 5*time.Second)
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		cancelPing()
		log.Fatalf("Connect to redis: %v", err)
	}
	cancelPing()

	slog.Info("storage connected", "redis", cfg.Redis.Addr)

	carts := cart.NewStore(rdb, cfg.Session.CartTTL)
	sessions := session.NewStore(rdb, cfg.Session.TTL)

	h := handlers.New(db, carts, sessions, cfg.Session)
	srv := server.New(cfg, h)

	go func() {
		slog.Info("server starting", "port", cfg.Server.Port)
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("forced shutdown", "error", err)
	}

	slog.Info("server exited")
}
