package services

import (
	"fmt"

	"stock-count/internal/models"
	"stock-count/internal/timeutil"
)

// EventPublisher receives notable session actions, e.g. the monitoring feed
type EventPublisher interface {
	Publish(event models.Event)
}

type noopPublisher struct{}

func (noopPublisher) Publish(models.Event) {}

func publisherOrNoop(p EventPublisher) EventPublisher {
	if p == nil {
		return noopPublisher{}
	}
	return p
}

func newEvent(kind, sessionID, format string, args ...interface{}) models.Event {
	return models.Event{
		Type:      kind,
		SessionID: sessionID,
		Message:   fmt.Sprintf(format, args...),
		Timestamp: timeutil.Now(),
	}
}
