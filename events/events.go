package events

import (
	"encoding/json"
	"fmt"

	"bingohub/models"
)

// EventType represents different types of events in the system
type EventType string

const (
	EventTypeLobbyCreated  EventType = "lobby_created"
	EventTypePlayerJoined  EventType = "player_joined"
	EventTypeNumberCalled  EventType = "number_called"
	EventTypeLobbyFinished EventType = "lobby_finished"
	EventTypeBalanceChange EventType = "balance_change"
	EventTypeUserCreated   EventType = "user_created"
)

// Event is the base interface for all events
type Event interface {
	Type() EventType
	// Subject is the dot-separated routing key, e.g. "lobbies.<id>.number_called"
	Subject() string
}

// LobbyCreatedEvent is emitted when a host opens a lobby
type LobbyCreatedEvent struct {
	LobbyID string `json:"lobbyId"`
	HostUID string `json:"hostUid"`
	Stake   int64  `json:"stake"`
}

func (e LobbyCreatedEvent) Type() EventType { return EventTypeLobbyCreated }
func (e LobbyCreatedEvent) Subject() string { return lobbySubject(e.LobbyID, "created") }

// PlayerJoinedEvent is emitted when a new participant is added to a lobby
type PlayerJoinedEvent struct {
	LobbyID     string `json:"lobbyId"`
	UserUID     string `json:"userUid"`
	PlayerCount int    `json:"playerCount"`
}

func (e PlayerJoinedEvent) Type() EventType { return EventTypePlayerJoined }
func (e PlayerJoinedEvent) Subject() string { return lobbySubject(e.LobbyID, "player_joined") }

// NumberCalledEvent is emitted when the host draws a number
type NumberCalledEvent struct {
	LobbyID     string `json:"lobbyId"`
	Number      int    `json:"number"`
	CalledCount int    `json:"calledCount"`
}

func (e NumberCalledEvent) Type() EventType { return EventTypeNumberCalled }
func (e NumberCalledEvent) Subject() string { return lobbySubject(e.LobbyID, "number_called") }

// LobbyFinishedEvent is emitted once, when a claim is paid
type LobbyFinishedEvent struct {
	LobbyID    string `json:"lobbyId"`
	WinnerUID  string `json:"winnerUid"`
	WinningPot int64  `json:"winningPot"`
}

func (e LobbyFinishedEvent) Type() EventType { return EventTypeLobbyFinished }
func (e LobbyFinishedEvent) Subject() string { return lobbySubject(e.LobbyID, "finished") }

// BalanceChangeEvent represents a balance change that occurred
type BalanceChangeEvent struct {
	UserUID         string                 `json:"userUid"`
	OldBalance      int64                  `json:"oldBalance"`
	NewBalance      int64                  `json:"newBalance"`
	TransactionType models.TransactionType `json:"transactionType"`
	ChangeAmount    int64                  `json:"changeAmount"`
	LobbyID         string                 `json:"lobbyId,omitempty"`
}

func (e BalanceChangeEvent) Type() EventType { return EventTypeBalanceChange }
func (e BalanceChangeEvent) Subject() string { return userSubject(e.UserUID, "balance_changed") }

// UserCreatedEvent represents a new account
type UserCreatedEvent struct {
	UserUID        string `json:"userUid"`
	DisplayName    string `json:"displayName"`
	InitialBalance int64  `json:"initialBalance"`
}

func (e UserCreatedEvent) Type() EventType { return EventTypeUserCreated }
func (e UserCreatedEvent) Subject() string { return userSubject(e.UserUID, "created") }

// Decode rebuilds a typed event from its JSON payload
func Decode(eventType EventType, payload []byte) (Event, error) {
	var (
		event Event
		err   error
	)
	switch eventType {
	case EventTypeLobbyCreated:
		var e LobbyCreatedEvent
		err = json.Unmarshal(payload, &e)
		event = e
	case EventTypePlayerJoined:
		var e PlayerJoinedEvent
		err = json.Unmarshal(payload, &e)
		event = e
	case EventTypeNumberCalled:
		var e NumberCalledEvent
		err = json.Unmarshal(payload, &e)
		event = e
	case EventTypeLobbyFinished:
		var e LobbyFinishedEvent
		err = json.Unmarshal(payload, &e)
		event = e
	case EventTypeBalanceChange:
		var e BalanceChangeEvent
		err = json.Unmarshal(payload, &e)
		event = e
	case EventTypeUserCreated:
		var e UserCreatedEvent
		err = json.Unmarshal(payload, &e)
		event = e
	default:
		return nil, fmt.Errorf("unknown event type %q", eventType)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s event: %w", eventType, err)
	}
	return event, nil
}
