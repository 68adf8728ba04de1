package infrastructure

import (
	"context"

	"bingohub/events"
)

// LocalChangeFeed serves watchers from the in-process bus. It only sees
// commits made by this process.
type LocalChangeFeed struct {
	bus *events.Bus
}

// NewLocalChangeFeed creates a change feed over bus
func NewLocalChangeFeed(bus *events.Bus) *LocalChangeFeed {
	return &LocalChangeFeed{bus: bus}
}

// Subscribe calls handler for every event whose subject matches pattern
func (f *LocalChangeFeed) Subscribe(pattern string, handler func(events.Event)) (func(), error) {
	return f.bus.Subscribe(pattern, func(_ context.Context, event events.Event) {
		handler(event)
	}), nil
}
