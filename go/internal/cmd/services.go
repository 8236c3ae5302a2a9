package main

import (
	"database/sql"

	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/regatta/go/internal/console"
	"github.com/mcdev12/regatta/go/internal/finish"
	"github.com/mcdev12/regatta/go/internal/flaglog"
	"github.com/mcdev12/regatta/go/internal/gateway"
	"github.com/mcdev12/regatta/go/internal/outbox"
	"github.com/mcdev12/regatta/go/internal/race"
	"github.com/mcdev12/regatta/go/internal/roster"
	"github.com/mcdev12/regatta/go/internal/sequence"
	"github.com/mcdev12/regatta/go/internal/signal"
	"github.com/rs/zerolog/log"
)

type Services struct {
	Races    *race.App
	Finishes *finish.App
	Roster   *roster.App
	Flags    *flaglog.App
	Outbox   *outbox.App
	Engine   *sequence.Engine
	Console  *console.App

	ConsoleHandler *console.Handler
	Gateway        *gateway.Service
	OutboxWorker   *outbox.Worker
	Publisher      outbox.Publisher
}

// signalDevice selects the horn output. Only the log device ships in this
// build; hardware horn drivers register here.
func signalDevice(config *Config) signal.OutputDevice {
	if config != nil && config.Signals.Device != "" && config.Signals.Device != "log" {
		log.Warn().Str("device", config.Signals.Device).Msg("unknown signal device, using log output")
	}
	return signal.LogDevice{}
}

func setupServices(database *sql.DB, config *Config) (*Services, error) {
	// Wire up dependency injection chain
	// Database layer → Repository layer → App layer → Engine/Console layer

	clock := clockwork.NewRealClock()

	// Races
	raceRepo := race.NewRepository(database)
	raceApp := race.NewApp(raceRepo)

	// Outbox
	outboxRepo := outbox.NewRepository(database)
	outboxApp := outbox.NewApp(outboxRepo)

	// Finishes
	finishRepo := finish.NewRepository(database)
	finishApp := finish.NewApp(finishRepo, raceApp, outboxApp, clock)

	// Roster
	rosterRepo := roster.NewRepository(database)
	rosterApp := roster.NewApp(rosterRepo)

	// Flag log
	flagRepo := flaglog.NewRepository(database)
	flagApp := flaglog.NewApp(flagRepo)

	dispatcher := signal.NewDispatcher(signalDevice(config))

	// Sequence engine
	engine := sequence.NewEngine(raceApp, finishApp, rosterApp, flagApp, outboxApp, dispatcher)

	// Console facade
	consoleApp := console.NewApp(raceApp, engine, finishApp, rosterApp, flagApp)
	consoleHandler := console.NewHandler(consoleApp)

	// Outbox relay worker
	jsConfig := outbox.DefaultJetStreamConfig()
	if config != nil && config.NATS.URL != "" {
		jsConfig.URL = config.NATS.URL
	}
	publisher, err := outbox.NewJetStreamPublisher(jsConfig)
	if err != nil {
		return nil, err
	}
	outboxWorker := outbox.NewWorker(outboxApp, publisher, outbox.DefaultConfig())

	// Gateway for console fan-out
	gatewayConfig := gateway.DefaultConfig()
	if config != nil && config.NATS.URL != "" {
		gatewayConfig.JetStreamConfig.URL = config.NATS.URL
	}
	stateProvider := gateway.NewRaceStateProvider(raceApp, finishApp, rosterApp, engine)
	raceGateway, err := gateway.NewService(gatewayConfig, stateProvider)
	if err != nil {
		return nil, err
	}

	return &Services{
		Races:          raceApp,
		Finishes:       finishApp,
		Roster:         rosterApp,
		Flags:          flagApp,
		Outbox:         outboxApp,
		Engine:         engine,
		Console:        consoleApp,
		ConsoleHandler: consoleHandler,
		Gateway:        raceGateway,
		OutboxWorker:   outboxWorker,
		Publisher:      publisher,
	}, nil
}
