package infrastructure

import (
	"testing"

	"bingohub/events"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalChangeFeed(t *testing.T) {
	bus := events.NewBus()
	feed := NewLocalChangeFeed(bus)

	lobbyCh, unsubscribe := collect(t, feed, events.LobbySubject("l1"))
	userCh, unsubscribeUser := collect(t, feed, events.UserSubject("alice"))
	defer unsubscribeUser()

	called := events.NumberCalledEvent{LobbyID: "l1", Number: 4, CalledCount: 1}
	require.NoError(t, bus.Publish(called))
	assert.Equal(t, called, receive(t, lobbyCh))
	assertQuiet(t, userCh)

	unsubscribe()
	require.NoError(t, bus.Publish(events.NumberCalledEvent{LobbyID: "l1", Number: 5, CalledCount: 2}))
	assertQuiet(t, lobbyCh)
}
