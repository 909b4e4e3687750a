package event

import (
	"context"
	"fmt"
	"time"

	"engage-predict/pkg/config"
	"engage-predict/pkg/logger"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	PredictionExchange   = "engage.predictions"
	PredictionQueueName  = "engage_prediction_events"
	predictionRoutingKey = "prediction.*"
	userRoutingKey       = "user.*"
)

type RabbitMQPublisher struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	logger  *logger.Logger
}

func NewRabbitMQPublisher(cfg *config.Config, log *logger.Logger) (*RabbitMQPublisher, error) {
	url := fmt.Sprintf("amqp://%s:%s@%s:%s/",
		cfg.RabbitMQUser,
		cfg.RabbitMQPassword,
		cfg.RabbitMQHost,
		cfg.RabbitMQPort,
	)

	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	err = channel.ExchangeDeclare(
		PredictionExchange, // name
		"topic",            // type
		true,               // durable
		false,              // auto-deleted
		false,              // internal
		false,              // no-wait
		nil,                // arguments
	)
	if err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare exchange: %w", err)
	}

	_, err = channel.QueueDeclare(
		PredictionQueueName, // name
		true,                // durable
		false,               // delete when unused
		false,               // exclusive
		false,               // no-wait
		nil,                 // arguments
	)
	if err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare queue: %w", err)
	}

	for _, key := range []string{predictionRoutingKey, userRoutingKey} {
		err = channel.QueueBind(
			PredictionQueueName, // queue name
			key,                 // routing key
			PredictionExchange,  // exchange
			false,
			nil,
		)
		if err != nil {
			channel.Close()
			conn.Close()
			return nil, fmt.Errorf("failed to bind queue to %s: %w", key, err)
		}
	}

	log.Info("Connected to RabbitMQ at %s:%s", cfg.RabbitMQHost, cfg.RabbitMQPort)

	return &RabbitMQPublisher{
		conn:    conn,
		channel: channel,
		logger:  log,
	}, nil
}

// Publish routes the event by its type, e.g. "prediction.created".
func (p *RabbitMQPublisher) Publish(ctx context.Context, eventType string, payload interface{}) error {
	body, err := encode(eventType, payload)
	if err != nil {
		return err
	}

	err = p.channel.PublishWithContext(ctx,
		PredictionExchange, // exchange
		eventType,          // routing key
		false,              // mandatory
		false,              // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
		},
	)
	if err != nil {
		p.logger.Error("[RABBITMQ] Failed to publish to exchange=%s, routing_key=%s: %v", PredictionExchange, eventType, err)
		return fmt.Errorf("failed to publish message: %w", err)
	}

	p.logger.Debug("[RABBITMQ] Published %s to exchange=%s", eventType, PredictionExchange)
	return nil
}

func (p *RabbitMQPublisher) Close() error {
	if p.channel != nil {
		p.channel.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}
