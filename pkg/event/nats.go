package event

import (
	"context"
	"fmt"
	"time"

	"engage-predict/pkg/logger"

	"github.com/nats-io/nats.go"
)

const (
	natsStreamName    = "ENGAGE_PREDICTIONS"
	natsSubjectPrefix = "engage."
)

type NATSPublisher struct {
	nc     *nats.Conn
	js     nats.JetStreamContext
	logger *logger.Logger
}

func NewNATSPublisher(url string, log *logger.Logger) (*NATSPublisher, error) {
	if url == "" {
		return nil, fmt.Errorf("NATS_URL is empty")
	}

	nc, err := nats.Connect(url, nats.Name("engage-predict"), nats.Timeout(5*time.Second))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := nc.JetStream()
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	if _, err := js.StreamInfo(natsStreamName); err != nil {
		_, err = js.AddStream(&nats.StreamConfig{
			Name:      natsStreamName,
			Subjects:  []string{natsSubjectPrefix + "prediction.*", natsSubjectPrefix + "user.*"},
			Retention: nats.LimitsPolicy,
			MaxAge:    24 * time.Hour,
			Discard:   nats.DiscardOld,
			Storage:   nats.FileStorage,
		})
		if err != nil {
			nc.Close()
			return nil, fmt.Errorf("failed to create %s stream: %w", natsStreamName, err)
		}
	}

	log.Info("Connected to NATS JetStream at %s", url)
	return &NATSPublisher{nc: nc, js: js, logger: log}, nil
}

func (p *NATSPublisher) Publish(ctx context.Context, eventType string, payload interface{}) error {
	body, err := encode(eventType, payload)
	if err != nil {
		return err
	}
	if _, err := p.js.Publish(natsSubjectPrefix+eventType, body, nats.Context(ctx)); err != nil {
		return fmt.Errorf("failed to publish %s: %w", eventType, err)
	}
	return nil
}

func (p *NATSPublisher) Close() error {
	if p.nc != nil {
		p.nc.Close()
	}
	return nil
}
