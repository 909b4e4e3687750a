package telemetry

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitTracer_ExportsSpans(t *testing.T) {
	var buf bytes.Buffer
	tp, err := initTracer("engage-test", &buf)
	require.NoError(t, err)

	_, span := Tracer().Start(context.Background(), "scoring.local")
	span.End()

	require.NoError(t, Shutdown(context.Background(), tp))
	assert.Contains(t, buf.String(), "scoring.local")
	assert.Contains(t, buf.String(), "engage-test")
}

func TestShutdown_NilProvider(t *testing.T) {
	assert.NoError(t, Shutdown(context.Background(), nil))
}
