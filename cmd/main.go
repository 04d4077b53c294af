/*
Package main is the entry point for the socialchat server.

It loads configuration, initializes the global logger, connects to Postgres and
object storage, starts the realtime Hub and the HTTP server, and shuts everything
down in order when SIGINT or SIGTERM arrives.
*/
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"socialchat/internal/app/chat"
	"socialchat/internal/app/db"
	"socialchat/internal/app/storage"
	"socialchat/internal/configs"
	"socialchat/internal/handler"
	"socialchat/internal/pkg/logx"
	"socialchat/internal/pkg/metrics"
	"socialchat/internal/pkg/otp"
)

func main() {
	// Load configuration from environment variables
	cfg, err := configs.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize global logger
	logx.InitGlobalLogger(cfg.IsDevelopment())
	logx.Logger().Info().
		Str("environment", cfg.Environment).
		Int("port", cfg.Port).
		Strs("allowed_origins", cfg.AllowedOrigins).
		Dur("otp_ttl", cfg.OTPTTL).
		Msg("Configuration loaded successfully")

	// Create a context that listens for the interrupt signal from the OS.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := db.NewPool(ctx, cfg.DatabaseDSN)
	if err != nil {
		logx.Fatal(err, "Failed to connect to database")
	}
	store := db.NewStore(pool)

	objectStorage, err := storage.NewStorageService(ctx, storage.ServiceConfig{
		S3BucketName:      cfg.S3BucketName,
		S3Endpoint:        cfg.S3Endpoint,
		S3AccessKeyID:     cfg.S3AccessKeyID,
		S3SecretAccessKey: cfg.S3SecretAccessKey,
		S3Region:          cfg.S3Region,
	})
	if err != nil {
		logx.Fatal(err, "Failed to initialize object storage")
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	hub := chat.NewHub(store, chat.WithRecorder(metrics.NewCollector(registry)))

	otpManager := otp.NewManager(cfg.OTPTTL)
	limiters := handler.NewLimiters()

	router := handler.Router(&handler.AppDeps{
		Hub:     hub,
		Config:  cfg,
		Users:   store,
		Storage: objectStorage,
		OTP:     otpManager,
		Mailer:  otp.LogMailer{Logger: logx.Component("Mailer")},
		Metrics: registry,
	}, limiters)

	serverAddr := fmt.Sprintf(":%d", cfg.Port)
	server := &http.Server{
		Addr:              serverAddr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		logx.Info(fmt.Sprintf("socialchat server starting on http://localhost%s", serverAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logx.Fatal(err, "Server failed to start")
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server with a timeout of 10 seconds.
	<-ctx.Done()
	logx.Info("Received shutdown signal. Starting graceful shutdown...")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logx.Error(err, "Server forced to shutdown")
	}

	// Hijacked WebSocket connections are not covered by server.Shutdown.
	hub.Shutdown()
	limiters.Stop()
	otpManager.Stop()
	pool.Close()

	logx.Info("Server gracefully stopped.")
}
