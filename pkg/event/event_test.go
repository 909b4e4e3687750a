package event

import (
	"context"
	"encoding/json"
	"io"
	"testing"

	"engage-predict/pkg/config"
	"engage-predict/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncode_Envelope(t *testing.T) {
	body, err := encode(TypePredictionCreated, map[string]interface{}{"id": "01HX", "score": 85})
	require.NoError(t, err)

	var env struct {
		Type          string                 `json:"type"`
		Version       string                 `json:"version"`
		CorrelationID string                 `json:"correlationId"`
		Payload       map[string]interface{} `json:"payload"`
	}
	require.NoError(t, json.Unmarshal(body, &env))
	assert.Equal(t, "prediction.created", env.Type)
	assert.Equal(t, "1.0.0", env.Version)
	assert.NotEmpty(t, env.CorrelationID)
	assert.Equal(t, "01HX", env.Payload["id"])
}

func TestEncode_Unmarshalable(t *testing.T) {
	_, err := encode(TypePredictionDeleted, make(chan int))
	assert.Error(t, err)
}

func TestNewPublisher_DegradesToNoop(t *testing.T) {
	log := logger.NewWithWriter(io.Discard, logger.LevelInfo)

	for _, broker := range []string{"", "none", "kafka"} {
		pub := NewPublisher(&config.Config{EventBroker: broker}, log)
		assert.IsType(t, Noop{}, pub, broker)
		assert.NoError(t, pub.Publish(context.Background(), TypePredictionCreated, nil))
		assert.NoError(t, pub.Close())
	}

	pub := NewPublisher(&config.Config{EventBroker: "nats"}, log)
	assert.IsType(t, Noop{}, pub)
}
