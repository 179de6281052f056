package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/mootify/routinestars/internal/backup"
	"github.com/mootify/routinestars/internal/database"
	"github.com/mootify/routinestars/internal/logging"
	"github.com/mootify/routinestars/internal/push"
	"github.com/mootify/routinestars/internal/server"
)

func main() {
	// Missing .env is fine; the environment may be set directly.
	_ = godotenv.Load()

	logger := logging.Setup(os.Getenv("ROUTINESTARS_LOG_LEVEL"))

	cfg := server.Config{
		Port: envOr("ROUTINESTARS_PORT", "8080"),
		Push: push.Config{
			VAPIDPublicKey:  os.Getenv("ROUTINESTARS_VAPID_PUBLIC_KEY"),
			VAPIDPrivateKey: os.Getenv("ROUTINESTARS_VAPID_PRIVATE_KEY"),
		},
		Backup: backup.Config{
			S3: backup.S3Config{
				Endpoint:  os.Getenv("ROUTINESTARS_S3_ENDPOINT"),
				Bucket:    os.Getenv("ROUTINESTARS_S3_BUCKET"),
				Region:    envOr("ROUTINESTARS_S3_REGION", "auto"),
				AccessKey: os.Getenv("ROUTINESTARS_S3_ACCESS_KEY"),
				SecretKey: os.Getenv("ROUTINESTARS_S3_SECRET_KEY"),
			},
		},
	}

	dbPath := envOr("ROUTINESTARS_DB_PATH", "routinestars.db")
	db, err := database.Open(dbPath)
	if err != nil {
		logger.Error("open database", "path", dbPath, "error", err)
		os.Exit(1)
	}
	defer db.Close()

	srv := server.New(db, cfg, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := srv.Start(ctx); err != nil {
		logger.Error("start background jobs", "error", err)
		os.Exit(1)
	}
	defer srv.Stop()

	// Stale rate-limit buckets accumulate slowly; sweep hourly.
	go func() {
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				srv.RateLimiter().Cleanup()
			}
		}
	}()

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv.Router(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Info("listening", "addr", fmt.Sprintf("http://localhost:%s", cfg.Port))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
