package session

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/apt/events"

	"github.com/tabletap/tabletap/internal/event"
)

// EventSubscriber feeds session events from NATS into the local hub, so
// dashboard streams converge across service instances: a transition written
// through any instance reaches every connected observer.
type EventSubscriber struct {
	subscriber events.Subscriber
	hub        *EventHub
	logger     apt.Logger
}

func NewEventSubscriber(sub events.Subscriber, hub *EventHub, logger apt.Logger) *EventSubscriber {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	return &EventSubscriber{
		subscriber: sub,
		hub:        hub,
		logger:     logger,
	}
}

func (s *EventSubscriber) Start(ctx context.Context) error {
	s.log().Info("starting session event subscriber", "topic", event.SessionUpdatesTopic)
	if s.subscriber == nil {
		return fmt.Errorf("session event subscriber not configured")
	}
	return s.subscriber.Subscribe(ctx, event.SessionUpdatesTopic, s.handleEvent)
}

func (s *EventSubscriber) handleEvent(ctx context.Context, msg []byte) error {
	var evt event.SessionEvent
	if err := json.Unmarshal(msg, &evt); err != nil {
		s.log().Info("invalid session event", "error", err)
		return nil
	}

	switch evt.EventType {
	case event.EventSessionCreated, event.EventSessionUpdated, event.EventSessionDeleted:
		if s.hub != nil {
			s.hub.Broadcast(evt)
		}
	default:
		s.log().Debug("unknown session event type", "event_type", evt.EventType)
	}
	return nil
}

func (s *EventSubscriber) log() apt.Logger {
	return s.logger.With("component", "SessionEventSubscriber")
}
