package persistent

import (
	"encoding/json"
	"fmt"

	"engage-predict/services/engage/internal/entity"
	"engage-predict/services/engage/internal/model"

	"gorm.io/datatypes"
)

func ToPredictionModel(e *entity.Prediction) (*model.PredictionModel, error) {
	if e == nil {
		return nil, nil
	}

	feedback, err := json.Marshal(nonNilFeedback(e.Feedback))
	if err != nil {
		return nil, fmt.Errorf("marshal feedback: %w", err)
	}
	tips, err := json.Marshal(nonNilTips(e.Tips))
	if err != nil {
		return nil, fmt.Errorf("marshal tips: %w", err)
	}

	var mediaInfo datatypes.JSON
	if e.MediaInfo != nil {
		raw, err := json.Marshal(e.MediaInfo)
		if err != nil {
			return nil, fmt.Errorf("marshal media info: %w", err)
		}
		mediaInfo = datatypes.JSON(raw)
	}

	return &model.PredictionModel{
		ID:                e.ID,
		UserID:            e.UserID,
		Caption:           e.Caption,
		Hashtags:          e.Hashtags,
		HashtagCount:      e.HashtagCount,
		Platform:          string(e.Platform),
		PostingTime:       e.PostingTime,
		DayOfWeek:         e.DayOfWeek,
		Location:          e.Location,
		TargetAudience:    e.TargetAudience,
		MediaInfo:         mediaInfo,
		MediaURL:          e.MediaURL,
		Score:             e.Score,
		EngagementLevel:   string(e.EngagementLevel),
		Feedback:          datatypes.JSON(feedback),
		Tips:              datatypes.JSON(tips),
		PredictedReach:    e.PredictedReach,
		PredictedLikes:    e.PredictedLikes,
		PredictedComments: e.PredictedComments,
		Source:            string(e.Source),
		CreatedAt:         e.CreatedAt,
	}, nil
}

func ToPredictionEntity(m *model.PredictionModel) (*entity.Prediction, error) {
	if m == nil {
		return nil, nil
	}

	p := &entity.Prediction{
		ID:     m.ID,
		UserID: m.UserID,
		PostDescription: entity.PostDescription{
			Caption:        m.Caption,
			Hashtags:       m.Hashtags,
			Platform:       entity.Platform(m.Platform),
			PostingTime:    m.PostingTime,
			DayOfWeek:      m.DayOfWeek,
			Location:       m.Location,
			TargetAudience: m.TargetAudience,
		},
		HashtagCount: m.HashtagCount,
		PredictionResult: entity.PredictionResult{
			Score:             m.Score,
			EngagementLevel:   entity.EngagementLevel(m.EngagementLevel),
			PredictedReach:    m.PredictedReach,
			PredictedLikes:    m.PredictedLikes,
			PredictedComments: m.PredictedComments,
		},
		MediaURL:  m.MediaURL,
		Source:    entity.Source(m.Source),
		CreatedAt: m.CreatedAt,
	}

	if len(m.MediaInfo) > 0 && string(m.MediaInfo) != "null" {
		p.MediaInfo = &entity.MediaInfo{}
		if err := json.Unmarshal(m.MediaInfo, p.MediaInfo); err != nil {
			return nil, fmt.Errorf("decode media info of %s: %w", m.ID, err)
		}
	}
	if len(m.Feedback) > 0 {
		if err := json.Unmarshal(m.Feedback, &p.Feedback); err != nil {
			return nil, fmt.Errorf("decode feedback of %s: %w", m.ID, err)
		}
	}
	if len(m.Tips) > 0 {
		if err := json.Unmarshal(m.Tips, &p.Tips); err != nil {
			return nil, fmt.Errorf("decode tips of %s: %w", m.ID, err)
		}
	}
	p.Feedback = nonNilFeedback(p.Feedback)
	p.Tips = nonNilTips(p.Tips)

	return p, nil
}

func nonNilFeedback(f []entity.Feedback) []entity.Feedback {
	if f == nil {
		return []entity.Feedback{}
	}
	return f
}

func nonNilTips(t []string) []string {
	if t == nil {
		return []string{}
	}
	return t
}
