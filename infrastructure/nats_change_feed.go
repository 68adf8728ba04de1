package infrastructure

import (
	"bingohub/events"

	log "github.com/sirupsen/logrus"
)

// MessageSubscriber receives raw messages; NATSClient implements it
type MessageSubscriber interface {
	Subscribe(subject string, handler func([]byte)) (func(), error)
}

// NATSChangeFeed turns NATS messages back into events for watchers, so
// watchers on any instance see commits made by every instance
type NATSChangeFeed struct {
	client        MessageSubscriber
	subjectMapper *EventSubjectMapper
}

// NewNATSChangeFeed creates a change feed over client
func NewNATSChangeFeed(client MessageSubscriber, subjectMapper *EventSubjectMapper) *NATSChangeFeed {
	return &NATSChangeFeed{
		client:        client,
		subjectMapper: subjectMapper,
	}
}

// Subscribe calls handler for every event whose subject matches pattern
func (f *NATSChangeFeed) Subscribe(pattern string, handler func(events.Event)) (func(), error) {
	subject := f.subjectMapper.MapSubject(pattern)

	return f.client.Subscribe(subject, func(data []byte) {
		envelope, event, err := DecodeEnvelope(data)
		if err != nil {
			fields := log.Fields{
				"subject": subject,
				"error":   err,
			}
			if envelope != nil {
				fields["eventId"] = envelope.EventID
				fields["eventType"] = envelope.EventType
			}
			log.WithFields(fields).Warn("Dropping undecodable event")
			return
		}

		log.WithFields(log.Fields{
			"subject":   subject,
			"eventType": event.Type(),
			"eventId":   envelope.EventID,
		}).Debug("Received event from NATS")
		handler(event)
	})
}
