package infrastructure

import (
	"strings"
)

// EventSubjectMapper places event subjects under a deployment prefix so
// several environments can share one NATS server
type EventSubjectMapper struct {
	prefix string
}

// NewEventSubjectMapper creates a new event subject mapper
func NewEventSubjectMapper(prefix string) *EventSubjectMapper {
	return &EventSubjectMapper{prefix: strings.Trim(prefix, ".")}
}

// MapSubject converts an event subject or subscription pattern to its NATS subject
func (m *EventSubjectMapper) MapSubject(subject string) string {
	if m.prefix == "" {
		return subject
	}
	return m.prefix + "." + subject
}

// UnmapSubject strips the prefix from a NATS subject
func (m *EventSubjectMapper) UnmapSubject(subject string) string {
	if m.prefix == "" {
		return subject
	}
	return strings.TrimPrefix(subject, m.prefix+".")
}

// GetAllSubjects returns the wildcard subjects that cover everything this service publishes
func (m *EventSubjectMapper) GetAllSubjects() []string {
	return []string{
		m.MapSubject("lobbies.>"),
		m.MapSubject("users.>"),
	}
}
