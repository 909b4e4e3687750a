package persistent

import (
	"context"
	"errors"

	"engage-predict/services/engage/internal/entity"
	"engage-predict/services/engage/internal/model"

	"gorm.io/gorm"
)

type predictionRepository struct {
	db *gorm.DB
}

func NewPredictionRepository(db *gorm.DB) PredictionRepository {
	return &predictionRepository{db: db}
}

func (r *predictionRepository) Create(ctx context.Context, p *entity.Prediction) error {
	m, err := ToPredictionModel(p)
	if err != nil {
		return persistenceError("Failed to save prediction", err)
	}

	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return persistenceError("Failed to save prediction", err)
	}

	p.ID = m.ID
	p.CreatedAt = m.CreatedAt
	return nil
}

func (r *predictionRepository) GetByID(ctx context.Context, id string) (*entity.Prediction, error) {
	var m model.PredictionModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, persistenceError("Failed to fetch prediction", err)
	}

	p, err := ToPredictionEntity(&m)
	if err != nil {
		return nil, persistenceError("Failed to fetch prediction", err)
	}
	return p, nil
}

func (r *predictionRepository) ListByUser(ctx context.Context, userID string, limit int) ([]*entity.Prediction, error) {
	var models []model.PredictionModel
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Order("id DESC").
		Limit(clampLimit(limit)).
		Find(&models).Error
	if err != nil {
		return nil, persistenceError("Failed to fetch history", err)
	}

	predictions := make([]*entity.Prediction, 0, len(models))
	for i := range models {
		p, err := ToPredictionEntity(&models[i])
		if err != nil {
			return nil, persistenceError("Failed to fetch history", err)
		}
		predictions = append(predictions, p)
	}
	return predictions, nil
}

func (r *predictionRepository) DeleteOwned(ctx context.Context, id, userID string) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		Delete(&model.PredictionModel{})
	if res.Error != nil {
		return false, persistenceError("Failed to delete prediction", res.Error)
	}
	return res.RowsAffected > 0, nil
}
