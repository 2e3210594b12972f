package main

import (
	"JagannathOPD/cache"
	"JagannathOPD/config"
	"JagannathOPD/database"
	"JagannathOPD/logger"
	"JagannathOPD/routes"
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"
)

func main() {
	// Load configuration from config package
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	zapLogger, err := logger.NewZapLogger(cfg)
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer func() { _ = zapLogger.Sync() }()

	startCtx, cancelStart := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelStart()

	// Initialize the database
	db, err := database.InitDB(startCtx, cfg.DBURL, cfg.IsDevelopment(), zapLogger)
	if err != nil {
		zapLogger.Fatal("failed to initialize database", zap.Error(err))
	}

	// Initialize Redis
	redisConfig, err := database.LoadRedisConfig(cfg.RedisAddress)
	if err != nil {
		zapLogger.Fatal("failed to load Redis configuration", zap.Error(err))
	}
	redisClient, err := database.NewRedisClient(redisConfig, zapLogger)
	if err != nil {
		zapLogger.Fatal("failed to initialize Redis client", zap.Error(err))
	}

	// Initialize the cache utility
	appCache, err := cache.NewCache(redisClient)
	if err != nil {
		zapLogger.Fatal("failed to initialize cache", zap.Error(err))
	}

	handler, err := routes.SetupRoutes(cfg, db, redisClient, appCache, zapLogger)
	if err != nil {
		zapLogger.Fatal("failed to set up routes", zap.Error(err))
	}

	// Configure and start the server
	srv := &http.Server{
		Addr:           cfg.HTTPAddr,
		Handler:        handler,
		ReadTimeout:    30 * time.Second,
		WriteTimeout:   30 * time.Second,
		MaxHeaderBytes: 1 << 20,
		IdleTimeout:    30 * time.Second,
	}

	var wg sync.WaitGroup
	wg.Add(1)

	go func() {
		defer wg.Done()
		zapLogger.Info("Starting server", zap.String("addr", cfg.HTTPAddr), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLogger.Fatal("listenAndServe()", zap.Error(err))
		}
	}()

	// Graceful shutdown handling
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	<-c

	// Create a context with a timeout for shutdown
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()

	zapLogger.Info("Shutting down server...")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLogger.Error("server shutdown failed", zap.Error(err))
	}

	wg.Wait() // Wait for all goroutines to finish before exiting

	stats := database.PoolStats(redisClient)
	zapLogger.Info("Redis pool at shutdown",
		zap.Uint32("total", stats["total"]),
		zap.Uint32("idle", stats["idle"]),
		zap.Uint32("stale", stats["stale"]))
	if err := redisClient.Close(); err != nil {
		zapLogger.Warn("failed to close Redis client", zap.Error(err))
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	zapLogger.Info("Server exited gracefully")
}
