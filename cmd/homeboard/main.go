package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/homeboardhq/homeboard/internal/database"
	"github.com/homeboardhq/homeboard/internal/logging"
	"github.com/homeboardhq/homeboard/internal/server"
)

func main() {
	logger := logging.Setup(os.Getenv("HOMEBOARD_LOG_LEVEL"))

	port := os.Getenv("HOMEBOARD_PORT")
	if port == "" {
		port = "8080"
	}

	dbPath := os.Getenv("HOMEBOARD_DB_PATH")
	if dbPath == "" {
		dbPath = "homeboard.db"
	}

	db, err := database.Open(dbPath)
	if err != nil {
		logger.Error("open database", "path", dbPath, "error", err)
		os.Exit(1)
	}
	defer db.Close()

	cfg := server.Config{
		SecureCookie:    os.Getenv("HOMEBOARD_SECURE_COOKIE") == "true",
		VAPIDPublicKey:  os.Getenv("HOMEBOARD_VAPID_PUBLIC_KEY"),
		VAPIDPrivateKey: os.Getenv("HOMEBOARD_VAPID_PRIVATE_KEY"),
	}
	if cfg.VAPIDPublicKey == "" || cfg.VAPIDPrivateKey == "" {
		logger.Warn("VAPID keys not set, push notifications disabled")
	}

	srv := server.New(db, cfg, logger)
	defer srv.Close()

	// Background maintenance: expired sessions nightly, cache sweep and
	// rate limiter cleanup every few minutes.
	c := cron.New()
	c.AddFunc("@daily", func() {
		if n, err := srv.SessionStore().DeleteExpired(); err != nil {
			logger.Error("delete expired sessions", "error", err)
		} else if n > 0 {
			logger.Info("deleted expired sessions", "count", n)
		}
	})
	c.AddFunc("@every 5m", func() {
		if n := srv.Cache().Sweep(); n > 0 {
			logger.Debug("swept dashboard cache", "evicted", n)
		}
		srv.RateLimiter().Cleanup()
	})
	c.Start()
	defer c.Stop()

	httpServer := &http.Server{
		Addr:         ":" + port,
		Handler:      srv.Router(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		fmt.Printf("Homeboard running at http://localhost:%s\n", port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	fmt.Println("\nShutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error("shutdown error", "error", err)
		os.Exit(1)
	}
}
