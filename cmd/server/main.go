// Package main runs the search service: websocket search sessions, the
// watchlist and anniversary APIs, and optionally periodic ingest.
package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"dex-info-search/internal/app"
	"dex-info-search/internal/config"
	"dex-info-search/internal/ingest"
	"dex-info-search/internal/server"
	"dex-info-search/internal/watchlist"
)

func main() {
	// Setup logger
	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lshortfile)

	// Load .env file if exists
	if err := config.LoadEnvFile(".env"); err != nil {
		logger.Fatalf("Failed to load .env: %v", err)
	}

	cfg, err := config.Load("server", os.Args[1:], os.Getenv)
	if err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stores, cleanup, err := app.OpenStores(ctx, cfg, logger)
	if err != nil {
		logger.Fatalf("Failed to create stores: %v", err)
	}
	defer cleanup()

	// Watchlists always resolve against the catalog.
	watchlists := watchlist.NewService(stores.Watchlist, app.StoreResolver(cfg, stores))

	opts := server.Options{
		Resolver:          app.Resolver(cfg, stores),
		Watchlist:         watchlists,
		Prompts:           stores.Prompts,
		ExcludedLocations: cfg.Anniversary.ExcludedLocations,
		Routes:            app.Routes(cfg),
		Overrides:         app.Overrides(cfg),
		Debounce:          cfg.Search.Debounce,
		MinChars:          cfg.Search.MinChars,
		PageStart:         cfg.Search.PageStart,
		PageStep:          cfg.Search.PageStep,
		Logger:            logger,
	}

	contract, err := app.Contract(ctx, cfg)
	if err != nil {
		logger.Fatalf("Failed to dial anniversary contract: %v", err)
	}
	if contract != nil {
		defer contract.Close()
		opts.Contract = contract
	} else {
		logger.Println("Anniversary contract not configured, prompt disabled")
	}

	srv := server.New(opts)

	// Channel to signal completion
	done := make(chan error, 1)

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		logger.Printf("Received signal %v, initiating graceful shutdown...", sig)
		cancel()

		// Wait for second signal for immediate shutdown
		select {
		case sig := <-sigCh:
			logger.Printf("Received second signal %v, forcing immediate shutdown", sig)
			os.Exit(1)
		case <-time.After(30 * time.Second):
			logger.Println("Graceful shutdown timed out after 30s, forcing exit")
			os.Exit(1)
		case <-done:
			// Normal shutdown completed
		}
	}()

	// Ingest in background when the info API is configured.
	if client := app.InfoClient(cfg); client != nil {
		runner := ingest.NewRunner(ingest.RunnerOptions{
			Source:     client,
			Tokens:     stores.Tokens,
			Pools:      stores.Pools,
			TokenStats: stores.TokenStats,
			PoolStats:  stores.PoolStats,
			Interval:   cfg.Ingest.Interval,
			Top:        cfg.Ingest.Top,
			Logger:     log.New(os.Stdout, "[ingest] ", log.LstdFlags|log.Lshortfile),
		})
		go func() {
			if err := runner.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Printf("Ingest stopped: %v", err)
			}
		}()
	}

	err = srv.ListenAndServe(ctx, cfg.HTTP.Addr)
	done <- err
	cancel()

	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatalf("Server error: %v", err)
	}

	logger.Println("Shutdown complete")
}
