// Package event publishes domain events about predictions and users to a message broker.
package event

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"engage-predict/pkg/config"
	"engage-predict/pkg/logger"

	"github.com/google/uuid"
)

const (
	TypePredictionCreated = "prediction.created"
	TypePredictionDeleted = "prediction.deleted"
	TypeUserRegistered    = "user.registered"

	envelopeVersion = "1.0.0"
)

// Publisher delivers events to subscribers. Implementations must be safe for
// concurrent use.
type Publisher interface {
	Publish(ctx context.Context, eventType string, payload interface{}) error
	Close() error
}

// Envelope wraps every published payload.
type Envelope struct {
	Type          string      `json:"type"`
	Version       string      `json:"version"`
	OccurredAt    time.Time   `json:"occurredAt"`
	CorrelationID string      `json:"correlationId"`
	Payload       interface{} `json:"payload"`
}

func NewEnvelope(eventType string, payload interface{}) Envelope {
	return Envelope{
		Type:          eventType,
		Version:       envelopeVersion,
		OccurredAt:    time.Now().UTC(),
		CorrelationID: uuid.NewString(),
		Payload:       payload,
	}
}

func encode(eventType string, payload interface{}) ([]byte, error) {
	body, err := json.Marshal(NewEnvelope(eventType, payload))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s event: %w", eventType, err)
	}
	return body, nil
}

// Noop drops every event. Used when no broker is configured or reachable.
type Noop struct{}

func (Noop) Publish(context.Context, string, interface{}) error { return nil }
func (Noop) Close() error                                     { return nil }

// NewPublisher picks the broker named by cfg.EventBroker. Connection failures
// degrade to Noop so the API keeps serving without events.
func NewPublisher(cfg *config.Config, log *logger.Logger) Publisher {
	switch cfg.EventBroker {
	case "rabbitmq":
		pub, err := NewRabbitMQPublisher(cfg, log)
		if err != nil {
			log.Warn("RabbitMQ unavailable, events disabled: %v", err)
			return Noop{}
		}
		return pub
	case "nats":
		pub, err := NewNATSPublisher(cfg.NATSURL, log)
		if err != nil {
			log.Warn("NATS unavailable, events disabled: %v", err)
			return Noop{}
		}
		return pub
	case "", "none":
		return Noop{}
	default:
		log.Warn("Unknown EVENT_BROKER %q, events disabled", cfg.EventBroker)
		return Noop{}
	}
}
