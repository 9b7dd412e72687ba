package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/courtboard/courtboard/internal/clocksync"
	"github.com/courtboard/courtboard/internal/gateway"
	"github.com/courtboard/courtboard/internal/store"
	"github.com/courtboard/courtboard/internal/syncer"
	"github.com/courtboard/courtboard/internal/timer"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Debug().Err(err).Msg("could not load .env file")
	}

	// Setup logging
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg, err := loadConfig(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}
	if level, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(level)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	clock := clockwork.NewRealClock()

	// Connect the coordination store
	var st store.Store
	if cfg.Store.Memory {
		log.Info().Msg("using in-memory store (single-process mode)")
		st = store.NewMemory()
	} else {
		natsStore, err := store.NewNATS(ctx, cfg.natsConfig(), clock)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect store")
		}
		st = natsStore
	}
	defer st.Close()

	log.Info().
		Str("url", cfg.Store.URL).
		Str("bucket", cfg.Store.Bucket).
		Str("key", cfg.Store.Key).
		Str("port", cfg.Server.Port).
		Msg("starting courtboard")

	// Clock offset tracker on the store's server-time feed
	tracker := clocksync.NewTracker(clock)
	offsets, err := st.ServerOffsets(ctx)
	if err != nil {
		// Best-effort feed: degrade to the local clock.
		log.Warn().Err(err).Msg("clock offset feed unavailable, using local clock")
	} else {
		go tracker.Run(ctx, offsets)
	}

	// Core components
	sync := syncer.New(st, cfg.Store.Key)
	engine := timer.NewEngine(tracker)
	ticker := timer.NewTicker(clock)

	// Gateway and HTTP surface
	service := gateway.NewService(sync, engine, ticker, gateway.DefaultConnectionConfig())
	server := setupServer(cfg, gateway.NewHandler(service))

	go func() {
		if err := service.Run(ctx); err != nil {
			log.Error().Err(err).Msg("gateway service failed")
		}
	}()

	go func() {
		log.Info().Str("addr", server.Addr).Msg("HTTP server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	sig := <-sigChan

	log.Info().Str("signal", sig.String()).Msg("received shutdown signal")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown failed")
	}

	// Cancel the service context to release the store subscriptions; no
	// callbacks fire after this.
	cancel()

	log.Info().Msg("courtboard shutdown complete")
}
