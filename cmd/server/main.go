// Package main is the entry point of the application
package main

import (
	"context"
	"errors"
	"flag"
	"io/fs"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/HackenWijaya/ChessHero/pkg/config"
	"github.com/HackenWijaya/ChessHero/pkg/events"
	"github.com/HackenWijaya/ChessHero/pkg/game"
	"github.com/HackenWijaya/ChessHero/pkg/manager"
	"github.com/HackenWijaya/ChessHero/pkg/repository"
	"github.com/HackenWijaya/ChessHero/pkg/rules"
	"github.com/HackenWijaya/ChessHero/pkg/server"
)

// App encapsulates global dependencies
type application struct {
	Logger    *zap.Logger
	Config    *config.Config
	Publisher *events.Publisher
	Hub       *server.Hub
	Manager   *manager.Manager
	Server    *http.Server
	Upgrader  websocket.Upgrader
	NATS      *nats.Conn

	StartTime time.Time
	stop      context.CancelFunc
}

func main() {
	debug := flag.Bool("debug", false, "enable debug logging")
	port := flag.String("port", "", "server port (overrides PORT)")
	configPath := flag.String("config", "", "path to a YAML config file")
	flag.Parse()

	// A missing .env is normal outside development.
	envErr := godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		panic("Failed to load config: " + err.Error())
	}
	if *port != "" {
		cfg.Port = *port
	}
	cfg.Debug = cfg.Debug || *debug

	// Initialize logger
	logger := initLogger(cfg.Debug)
	defer logger.Sync()

	if envErr != nil && !errors.Is(envErr, fs.ErrNotExist) {
		logger.Warn("loading .env failed", zap.Error(envErr))
	}

	if err := cfg.Validate(); err != nil {
		logger.Fatal("invalid configuration", zap.Error(err))
	}

	// Initialize event publisher
	publisher := events.NewPublisher()

	var nc *nats.Conn
	if cfg.NATSURL != "" {
		nc, err = events.ConnectNATS(cfg.NATSURL, logger)
		if err != nil {
			logger.Fatal("connect NATS error", zap.Error(err))
		}
		events.NewNATSForwarder(nc, cfg.NATSSubject, logger).Attach(publisher)
		logger.Info("forwarding game events to NATS",
			zap.String("url", cfg.NATSURL),
			zap.String("subject", cfg.NATSSubject),
		)
	}

	clock := clockwork.NewRealClock()
	engine := rules.NewStandard()

	// Initialize repository
	repo := repository.NewInMemoryRepository(func(id string, seq uint64) *game.Room {
		return game.NewRoom(id, seq, engine, cfg.InitialTime, clock.Now())
	}, logger)

	hub := server.NewHub(logger)

	// Initialize game manager
	gm := manager.NewManager(repo, hub, publisher, clock, logger)
	hub.SetManager(gm)

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	app := &application{
		Logger:    logger,
		Config:    cfg,
		Publisher: publisher,
		Hub:       hub,
		Manager:   gm,
		Upgrader:  newUpgrader(cfg.AllowedOrigins),
		NATS:      nc,
		StartTime: time.Now(),
		stop:      stop,
	}

	go app.Hub.Run(ctx)
	go app.Manager.Run(ctx, cfg.TickInterval, cfg.TickWorkers)

	err = app.serve()
	if err != nil {
		logger.Fatal("error serving", zap.Error(err))
	}
}

func initLogger(debug bool) *zap.Logger {
	var cfg zap.Config
	if debug {
		cfg = zap.NewDevelopmentConfig()
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	} else {
		cfg = zap.NewProductionConfig()
		cfg.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	}

	logger, err := cfg.Build()
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}

	return logger
}

// Shutdown cleans up resources
func (app *application) Shutdown() {
	// Stops the hub and the clock ticker
	app.stop()

	// Flush queued domain events before the NATS connection drains
	app.Publisher.Close()
	if dropped := app.Publisher.Dropped(); dropped > 0 {
		app.Logger.Warn("domain events dropped", zap.Int64("count", dropped))
	}

	if app.NATS != nil {
		if err := app.NATS.Drain(); err != nil {
			app.Logger.Warn("NATS drain failed", zap.Error(err))
		}
	}

	app.Logger.Info("All components shut down successfully")
}
