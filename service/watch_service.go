package service

import (
	"context"
	"fmt"

	"bingohub/events"
	"bingohub/models"

	log "github.com/sirupsen/logrus"
)

type watchService struct {
	feed    ChangeFeed
	lobbies LobbyService
	users   UserService
}

// NewWatchService creates a service that turns change notifications into
// snapshot subscriptions
func NewWatchService(feed ChangeFeed, lobbies LobbyService, users UserService) WatchService {
	return &watchService{
		feed:    feed,
		lobbies: lobbies,
		users:   users,
	}
}

func (s *watchService) WatchLobby(ctx context.Context, lobbyID string) (*Subscription[*models.Lobby], error) {
	if _, err := s.lobbies.GetLobby(ctx, lobbyID); err != nil {
		return nil, err
	}

	sub := newSubscription(ctx, "lobby:"+lobbyID, func(ctx context.Context) (*models.Lobby, error) {
		return s.lobbies.GetLobby(ctx, lobbyID)
	})
	if err := s.attach(sub.trigger, events.LobbySubject(lobbyID), sub.start); err != nil {
		sub.stop()
		return nil, err
	}
	return sub, nil
}

func (s *watchService) WatchWaitingLobbies(ctx context.Context) (*Subscription[[]*models.Lobby], error) {
	sub := newSubscription(ctx, "waiting_lobbies", s.lobbies.ListWaitingLobbies)
	if err := s.attach(sub.trigger, events.AllLobbiesSubject, sub.start); err != nil {
		sub.stop()
		return nil, err
	}
	return sub, nil
}

func (s *watchService) WatchAccount(ctx context.Context, identity Identity) (*Subscription[*models.UserAccount], error) {
	// Watching the coin display is the first thing a signed-in user does
	if _, err := s.users.EnsureAccount(ctx, identity); err != nil {
		return nil, err
	}

	sub := newSubscription(ctx, "account:"+identity.UID, func(ctx context.Context) (*models.UserAccount, error) {
		return s.users.GetAccount(ctx, identity)
	})
	if err := s.attach(sub.trigger, events.UserSubject(identity.UID), sub.start); err != nil {
		sub.stop()
		return nil, err
	}
	return sub, nil
}

// attach subscribes trigger to pattern and starts the subscription
func (s *watchService) attach(trigger func(), pattern string, start func(unsubscribe func())) error {
	unsubscribe, err := s.feed.Subscribe(pattern, func(events.Event) { trigger() })
	if err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", pattern, err)
	}
	start(unsubscribe)

	log.WithField("pattern", pattern).Debug("Opened snapshot subscription")
	return nil
}
