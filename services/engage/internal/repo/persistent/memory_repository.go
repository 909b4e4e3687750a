package persistent

import (
	"context"
	"sort"
	"sync"
	"time"

	"engage-predict/services/engage/internal/entity"
	"engage-predict/services/engage/internal/model"
)

type memoryPredictionRepository struct {
	mu          sync.RWMutex
	predictions map[string]*model.PredictionModel
	now         func() time.Time
}

// NewMemoryPredictionRepository keeps predictions in process memory. Records
// go through the same model mapping as the SQL stores.
func NewMemoryPredictionRepository() PredictionRepository {
	return &memoryPredictionRepository{
		predictions: make(map[string]*model.PredictionModel),
		now:         time.Now,
	}
}

func (r *memoryPredictionRepository) Create(ctx context.Context, p *entity.Prediction) error {
	m, err := ToPredictionModel(p)
	if err != nil {
		return persistenceError("Failed to save prediction", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	m.Prepare(r.now())
	r.predictions[m.ID] = m

	p.ID = m.ID
	p.CreatedAt = m.CreatedAt
	return nil
}

func (r *memoryPredictionRepository) GetByID(ctx context.Context, id string) (*entity.Prediction, error) {
	r.mu.RLock()
	m, ok := r.predictions[id]
	r.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}

	p, err := ToPredictionEntity(m)
	if err != nil {
		return nil, persistenceError("Failed to fetch prediction", err)
	}
	return p, nil
}

func (r *memoryPredictionRepository) ListByUser(ctx context.Context, userID string, limit int) ([]*entity.Prediction, error) {
	r.mu.RLock()
	owned := make([]*model.PredictionModel, 0)
	for _, m := range r.predictions {
		if m.UserID == userID {
			owned = append(owned, m)
		}
	}
	r.mu.RUnlock()

	sort.Slice(owned, func(i, j int) bool {
		if !owned[i].CreatedAt.Equal(owned[j].CreatedAt) {
			return owned[i].CreatedAt.After(owned[j].CreatedAt)
		}
		return owned[i].ID > owned[j].ID
	})
	if n := clampLimit(limit); len(owned) > n {
		owned = owned[:n]
	}

	predictions := make([]*entity.Prediction, 0, len(owned))
	for _, m := range owned {
		p, err := ToPredictionEntity(m)
		if err != nil {
			return nil, persistenceError("Failed to fetch history", err)
		}
		predictions = append(predictions, p)
	}
	return predictions, nil
}

func (r *memoryPredictionRepository) DeleteOwned(ctx context.Context, id, userID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	m, ok := r.predictions[id]
	if !ok || m.UserID != userID {
		return false, nil
	}
	delete(r.predictions, id)
	return true, nil
}
