package cmd

import (
	"context"
	"fmt"
	"time"

	"bingohub/config"
	"bingohub/database"
	"bingohub/game"
	"bingohub/httpapi"
	"bingohub/infrastructure/observability"
	"bingohub/models"
	"bingohub/repository"
	"bingohub/service"

	log "github.com/sirupsen/logrus"
)

// Run initializes and starts the application
func Run(ctx context.Context) error {
	// Load configuration
	cfg := config.Get()
	configureLogging(cfg.LogLevel)

	log.WithField("environment", cfg.Environment).Info("Starting bingohub...")

	// Initialize database connection
	log.Info("Connecting to database...")
	db, err := database.NewConnection(ctx, cfg.GetDatabaseURL())
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	log.Info("Database connection established successfully")

	// Initialize event transport
	transport, err := newEventTransport(ctx, cfg)
	if err != nil {
		db.Close()
		return err
	}

	// Initialize caller lock
	locker, closeLocker, err := newLobbyLocker(ctx, cfg)
	if err != nil {
		transport.Close()
		db.Close()
		return err
	}

	// Initialize metrics
	metrics := observability.NewMetricsProvider(cfg)
	if err := metrics.Initialize(ctx); err != nil {
		closeLocker()
		transport.Close()
		db.Close()
		return fmt.Errorf("failed to initialize metrics: %w", err)
	}

	// Initialize services
	log.Info("Initializing services...")
	uowFactory := repository.NewUnitOfWorkFactory(db, transport.publisher)
	userService := service.NewUserService(uowFactory, metrics, cfg)
	lobbyService := service.NewLobbyService(uowFactory, game.NewCryptoGenerator(), locker, metrics, cfg)
	watchService := service.NewWatchService(transport.feed, lobbyService, userService)
	log.Info("Services initialized successfully")

	go logWaitingLobbies(ctx, watchService)

	// Start debug API
	var debugServer *httpapi.Server
	if cfg.DebugAPIPort > 0 {
		debugServer = httpapi.NewServer(cfg.DebugAPIPort, lobbyService, userService)
		debugServer.Start()
	}

	// Wait for context cancellation
	log.Infof("Ledger is running in %s mode...", cfg.Environment)
	<-ctx.Done()

	// Cleanup resources
	log.Info("Shutting down...")

	// Give cleanup operations time to complete
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if debugServer != nil {
		if err := debugServer.Shutdown(shutdownCtx); err != nil {
			log.WithError(err).Error("Error shutting down debug API")
		}
	}

	if err := metrics.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("Error shutting down metrics provider")
	}

	closeLocker()
	transport.Close()

	log.Info("Closing database connection...")
	db.Close()

	log.Info("Shutdown completed")
	return nil
}

// configureLogging applies LOG_LEVEL, falling back to info when it does not parse
func configureLogging(level string) {
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	parsed, err := log.ParseLevel(level)
	if err != nil {
		log.WithField("level", level).Warn("Unknown log level, using info")
		parsed = log.InfoLevel
	}
	log.SetLevel(parsed)
}

// logWaitingLobbies logs the open lobby list every time it changes
func logWaitingLobbies(ctx context.Context, watch service.WatchService) {
	sub, err := watch.WatchWaitingLobbies(ctx)
	if err != nil {
		log.WithError(err).Warn("Failed to watch waiting lobbies")
		return
	}
	defer sub.Cancel()

	for {
		lobbies, err := sub.Next(ctx)
		if err != nil {
			if ctx.Err() == nil {
				log.WithError(err).Warn("Waiting lobby watch stopped")
			}
			return
		}
		log.WithFields(log.Fields{
			"waiting": len(lobbies),
			"players": countPlayers(lobbies),
		}).Debug("Waiting lobbies changed")
	}
}

func countPlayers(lobbies []*models.Lobby) int {
	total := 0
	for _, lobby := range lobbies {
		total += lobby.PlayerCount()
	}
	return total
}
