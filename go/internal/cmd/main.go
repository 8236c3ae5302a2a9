package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/mcdev12/regatta/go/clients"
	"github.com/mcdev12/regatta/go/clients/registration_client"
	"github.com/mcdev12/regatta/go/internal/outbox"
	"github.com/mcdev12/regatta/go/internal/roster"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Warn().Err(err).Msg("could not load .env file")
	}

	// Setup logging
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	// Optional YAML config; env vars still win for DB and port
	var config *Config
	configPath := getEnv("CONFIG_PATH", "config.yaml")
	if loaded, err := loadConfig(configPath); err != nil {
		log.Warn().Err(err).Str("path", configPath).Msg("no config file, using defaults")
	} else {
		config = loaded
	}

	database, err := setupDatabase()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to setup database")
	}
	defer database.Close()

	services, err := setupServices(database, config)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to setup services")
	}

	// Context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Refresh the roster from the registration portal before any start
	if config != nil {
		syncRoster(ctx, services, config)
	}

	// Reload live runs for countdowns and races interrupted by a restart
	rehydrate(ctx, services, config)

	// Start the outbox relay worker (polling fallback path)
	if err := services.OutboxWorker.Start(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to start outbox worker")
	}
	defer services.OutboxWorker.Stop()

	// Start the LISTEN/NOTIFY fast path
	startOutboxListener(ctx, services)

	// Start the gateway fan-out in background
	go func() {
		if err := services.Gateway.Start(ctx); err != nil {
			log.Error().Err(err).Msg("race gateway failed")
		}
	}()

	// HTTP server with console and gateway routes
	server := setupServer(services)
	go func() {
		log.Info().Str("addr", server.Addr).Msg("server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("server failed")
		}
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	sig := <-sigChan

	log.Info().Str("signal", sig.String()).Msg("received shutdown signal")

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown failed")
	}

	cancel()
	services.Engine.Shutdown()

	// Give the tick loops and relays time to clean up
	time.Sleep(2 * time.Second)

	log.Info().Msg("shutdown complete")
}

func syncRoster(ctx context.Context, services *Services, config *Config) {
	source := clients.RegistrationSource(config.Regatta.RegistrationSource)
	if source == "" {
		return
	}
	if !clients.ValidateRegistrationSource(source) {
		log.Warn().Str("source", string(source)).Msg("unknown registration source, skipping sync")
		return
	}
	if source != clients.RegistrationSourcePortal {
		// CSV snapshots and manual entries are loaded out of band.
		return
	}

	regattaID, err := uuid.Parse(config.Regatta.ID)
	if err != nil {
		log.Warn().Str("regatta_id", config.Regatta.ID).Msg("invalid regatta ID in config, skipping portal sync")
		return
	}

	apiKey := os.Getenv("REGISTRATION_API_KEY")
	if apiKey == "" {
		log.Warn().Msg("REGISTRATION_API_KEY not set, skipping portal sync")
		return
	}

	client := registration_client.NewRegistrationClient(getEnv("REGISTRATION_API_URL", ""), apiKey)
	if _, err := roster.SyncFromPortal(ctx, services.Roster, client, regattaID); err != nil {
		log.Error().Err(err).Msg("portal sync failed; continuing with stored roster")
	}
}

func rehydrate(ctx context.Context, services *Services, config *Config) {
	if config == nil || config.Regatta.ID == "" {
		return
	}
	regattaID, err := uuid.Parse(config.Regatta.ID)
	if err != nil {
		log.Warn().Str("regatta_id", config.Regatta.ID).Msg("invalid regatta ID in config, skipping rehydration")
		return
	}
	if _, err := services.Console.Rehydrate(ctx, regattaID); err != nil {
		log.Error().Err(err).Msg("rehydration failed")
	}
}

func startOutboxListener(ctx context.Context, services *Services) {
	listenerCfg := outbox.DefaultListenerConfig()
	listenerCfg.DatabaseURL = databaseDSN()

	listener, err := outbox.NewListener(services.Outbox, services.Publisher, listenerCfg)
	if err != nil {
		log.Error().Err(err).Msg("failed to create outbox listener; polling worker covers relay")
		return
	}

	go func() {
		if err := listener.Start(ctx); err != nil {
			log.Error().Err(err).Msg("outbox listener stopped")
		}
	}()
}
