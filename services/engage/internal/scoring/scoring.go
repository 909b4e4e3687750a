// Package scoring exposes the engine behind a Scorer interface and adds an
// optional remote scorer that falls back to the local engine.
package scoring

import (
	"context"
	"time"

	"engage-predict/pkg/logger"
	"engage-predict/pkg/metrics"
	"engage-predict/pkg/telemetry"
	"engage-predict/services/engage/internal/engine"
	"engage-predict/services/engage/internal/entity"

	"go.opentelemetry.io/otel/attribute"
)

// RemoteTimeout bounds one remote scoring attempt.
const RemoteTimeout = 30 * time.Second

type Scorer interface {
	Score(ctx context.Context, post entity.PostDescription) (entity.PredictionResult, entity.Source, error)
}

// Local scores with the in-process engine and never fails.
type Local struct {
	engine *engine.Engine
}

func NewLocal(e *engine.Engine) *Local {
	if e == nil {
		e = engine.New(nil)
	}
	return &Local{engine: e}
}

func (l *Local) Score(ctx context.Context, post entity.PostDescription) (entity.PredictionResult, entity.Source, error) {
	_, span := telemetry.Tracer().Start(ctx, "scoring.local")
	defer span.End()

	result := l.engine.Score(post)
	span.SetAttributes(attribute.Int("engage.score", result.Score))
	return result, entity.SourceLocal, nil
}

// Fallback tries primary within timeout and answers with local on any error.
type Fallback struct {
	primary Scorer
	local   *Local
	timeout time.Duration
	logger  *logger.Logger
	metrics *metrics.Metrics
}

func NewFallback(primary Scorer, local *Local, log *logger.Logger, m *metrics.Metrics) *Fallback {
	return &Fallback{
		primary: primary,
		local:   local,
		timeout: RemoteTimeout,
		logger:  log,
		metrics: m,
	}
}

func (f *Fallback) Score(ctx context.Context, post entity.PostDescription) (entity.PredictionResult, entity.Source, error) {
	remoteCtx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	result, source, err := f.primary.Score(remoteCtx, post)
	if err == nil {
		return result, source, nil
	}

	f.logger.Warn("ML service unavailable, using fallback prediction: %v", err)
	f.metrics.ObserveFallback()
	return f.local.Score(ctx, post)
}
