package cmd

import (
	"context"
	"fmt"

	"bingohub/config"
	"bingohub/events"
	"bingohub/infrastructure"
	"bingohub/service"

	log "github.com/sirupsen/logrus"
)

const clientName = "bingohub"

// eventTransport pairs the publisher that units of work flush into with the
// change feed that watchers read from
type eventTransport struct {
	publisher events.Publisher
	feed      service.ChangeFeed
	nats      *infrastructure.NATSClient
}

// newEventTransport uses NATS when servers are configured and the in-process bus otherwise
func newEventTransport(ctx context.Context, cfg *config.Config) (*eventTransport, error) {
	if cfg.NATSServers == "" {
		log.Info("NATS_SERVERS not set, using in-process event bus")
		bus := events.NewBus()
		return &eventTransport{
			publisher: bus,
			feed:      infrastructure.NewLocalChangeFeed(bus),
		}, nil
	}

	log.WithField("servers", cfg.NATSServers).Info("Connecting to NATS...")
	client := infrastructure.NewNATSClient(cfg.NATSServers, clientName)
	if err := client.Connect(ctx); err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	mapper := infrastructure.NewEventSubjectMapper(cfg.NATSSubjectPrefix)
	if err := client.EnsureStream(infrastructure.EventStreamName, mapper.GetAllSubjects()); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ensure event stream: %w", err)
	}
	log.Info("NATS connection established successfully")

	return &eventTransport{
		publisher: infrastructure.NewNATSEventPublisher(client, mapper, clientName),
		feed:      infrastructure.NewNATSChangeFeed(client, mapper),
		nats:      client,
	}, nil
}

// Close releases the NATS connection if there is one
func (t *eventTransport) Close() {
	if t.nats == nil {
		return
	}
	if err := t.nats.Close(); err != nil {
		log.WithError(err).Error("Error closing NATS connection")
	}
}

// newLobbyLocker uses Redis when configured so callers on several instances
// share one lock, and an in-process lock otherwise
func newLobbyLocker(ctx context.Context, cfg *config.Config) (service.LobbyLocker, func(), error) {
	if cfg.RedisURL == "" {
		return infrastructure.NewLocalLock(cfg.CallerLockTTL), func() {}, nil
	}

	client, err := infrastructure.NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	log.Info("Redis connection established successfully")

	closeFn := func() {
		if err := client.Close(); err != nil {
			log.WithError(err).Error("Error closing redis connection")
		}
	}
	return infrastructure.NewRedisLock(client, cfg.CallerLockTTL), closeFn, nil
}
