package cmd

import (
	"context"
	"fmt"

	"bingohub/config"
	"bingohub/database"
	"bingohub/events"
	"bingohub/infrastructure"
	"bingohub/repository"
	"bingohub/service"

	log "github.com/sirupsen/logrus"
)

// Deposit credits an account from the command line, creating it first if
// needed. With NATS configured the balance events reach running instances.
func Deposit(ctx context.Context, uid string, amount int64) error {
	cfg := config.Get()
	configureLogging(cfg.LogLevel)

	db, err := database.NewConnection(ctx, cfg.GetDatabaseURL())
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	var publisher events.Publisher = infrastructure.NewNoopEventPublisher()
	if cfg.NATSServers != "" {
		transport, err := newEventTransport(ctx, cfg)
		if err != nil {
			return err
		}
		defer transport.Close()
		publisher = transport.publisher
	}

	users := service.NewUserService(repository.NewUnitOfWorkFactory(db, publisher), nil, cfg)
	account, err := users.Deposit(ctx, service.Identity{UID: uid}, amount)
	if err != nil {
		return fmt.Errorf("failed to deposit: %w", err)
	}

	log.WithFields(log.Fields{
		"uid":     account.UID,
		"amount":  amount,
		"balance": account.Balance,
	}).Info("Deposit completed")
	return nil
}
