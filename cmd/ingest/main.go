// Package main pulls the top tokens and pools from the info API into storage.
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"dex-info-search/internal/app"
	"dex-info-search/internal/config"
	"dex-info-search/internal/ingest"
	"dex-info-search/internal/observability"
)

func main() {
	// Setup logger
	logger := log.New(os.Stdout, "[ingest] ", log.LstdFlags|log.Lshortfile)

	if err := config.LoadEnvFile(".env"); err != nil {
		logger.Fatalf("Failed to load .env: %v", err)
	}

	cfg, err := config.Load("ingest", os.Args[1:], os.Getenv)
	if err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}

	client := app.InfoClient(cfg)
	if client == nil {
		logger.Fatal("--info-endpoint is required")
	}

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stores, cleanup, err := app.OpenStores(ctx, cfg, logger)
	if err != nil {
		logger.Fatalf("Failed to create stores: %v", err)
	}
	defer cleanup()

	runner := ingest.NewRunner(ingest.RunnerOptions{
		Source:     client,
		Tokens:     stores.Tokens,
		Pools:      stores.Pools,
		TokenStats: stores.TokenStats,
		PoolStats:  stores.PoolStats,
		Interval:   cfg.Ingest.Interval,
		Top:        cfg.Ingest.Top,
		Logger:     logger,
	})

	if cfg.Ingest.Once {
		res, err := runner.RunOnce(ctx)
		if err != nil {
			logger.Fatalf("Ingest failed: %v", err)
		}
		logger.Printf("Ingested %d tokens, %d pools", res.Tokens, res.Pools)
		return
	}

	// Start metrics server
	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", observability.Handler())
		mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte("ok"))
		})
		logger.Printf("Starting metrics server on %s", cfg.HTTP.Addr)
		if err := http.ListenAndServe(cfg.HTTP.Addr, mux); err != nil && err != http.ErrServerClosed {
			logger.Printf("Metrics server error: %v", err)
		}
	}()

	// Handle shutdown signals with graceful timeout
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Printf("Received signal %v, shutting down...", sig)
		cancel()

		select {
		case <-sigCh:
			os.Exit(1)
		case <-time.After(30 * time.Second):
			logger.Println("Graceful shutdown timed out after 30s, forcing exit")
			os.Exit(1)
		}
	}()

	if err := runner.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatalf("Ingest error: %v", err)
	}
	logger.Println("Shutdown complete")
}
