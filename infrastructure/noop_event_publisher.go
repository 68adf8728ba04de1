package infrastructure

import (
	"bingohub/events"

	log "github.com/sirupsen/logrus"
)

// NoopEventPublisher drops events. One-shot admin commands use it when there
// is no broker, since an in-process bus would have no watchers.
type NoopEventPublisher struct{}

func NewNoopEventPublisher() *NoopEventPublisher {
	return &NoopEventPublisher{}
}

func (n *NoopEventPublisher) Publish(event events.Event) error {
	log.WithFields(log.Fields{
		"eventType": event.Type(),
		"subject":   event.Subject(),
	}).Debug("Dropping event, no broker configured")
	return nil
}
