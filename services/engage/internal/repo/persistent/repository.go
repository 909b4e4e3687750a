package persistent

import (
	"context"
	"time"

	"engage-predict/pkg/apperror"
	"engage-predict/pkg/metrics"
	"engage-predict/pkg/telemetry"
	"engage-predict/services/engage/internal/entity"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// HistoryLimit caps how many records a history listing returns.
const HistoryLimit = 50

// ErrNotFound is returned by GetByID for unknown ids.
var ErrNotFound = apperror.NotFound("Prediction not found")

type PredictionRepository interface {
	// Create assigns ID and CreatedAt on p.
	Create(ctx context.Context, p *entity.Prediction) error
	GetByID(ctx context.Context, id string) (*entity.Prediction, error)
	// ListByUser returns newest first.
	ListByUser(ctx context.Context, userID string, limit int) ([]*entity.Prediction, error)
	// DeleteOwned removes id only if it belongs to userID and reports whether
	// a row was removed.
	DeleteOwned(ctx context.Context, id, userID string) (bool, error)
}

func persistenceError(message string, err error) error {
	if err == nil {
		return nil
	}
	if apperror.KindOf(err) != apperror.KindInternal {
		return err
	}
	return apperror.Wrap(apperror.KindPersistence, message, err)
}

func clampLimit(limit int) int {
	if limit <= 0 || limit > HistoryLimit {
		return HistoryLimit
	}
	return limit
}

type instrumentedRepository struct {
	next    PredictionRepository
	metrics *metrics.Metrics
}

// Instrument records metrics and spans around every call to repo.
func Instrument(repo PredictionRepository, m *metrics.Metrics) PredictionRepository {
	return &instrumentedRepository{next: repo, metrics: m}
}

func (r *instrumentedRepository) observe(ctx context.Context, op string) (context.Context, func(error)) {
	ctx, span := telemetry.Tracer().Start(ctx, "predictions."+op)
	start := time.Now()
	return ctx, func(err error) {
		r.metrics.ObserveStorage(op, start, err)
		if err != nil && apperror.KindOf(err) != apperror.KindNotFound {
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}
}

func (r *instrumentedRepository) Create(ctx context.Context, p *entity.Prediction) (err error) {
	ctx, done := r.observe(ctx, "create")
	defer func() { done(err) }()
	return r.next.Create(ctx, p)
}

func (r *instrumentedRepository) GetByID(ctx context.Context, id string) (_ *entity.Prediction, err error) {
	ctx, done := r.observe(ctx, "get")
	defer func() { done(err) }()
	return r.next.GetByID(ctx, id)
}

func (r *instrumentedRepository) ListByUser(ctx context.Context, userID string, limit int) (_ []*entity.Prediction, err error) {
	ctx, done := r.observe(ctx, "list")
	defer func() { done(err) }()
	return r.next.ListByUser(ctx, userID, limit)
}

func (r *instrumentedRepository) DeleteOwned(ctx context.Context, id, userID string) (_ bool, err error) {
	ctx, done := r.observe(ctx, "delete")
	defer func() { done(err) }()
	deleted, err := r.next.DeleteOwned(ctx, id, userID)
	trace.SpanFromContext(ctx).SetAttributes(attribute.Bool("engage.deleted", deleted))
	return deleted, err
}
