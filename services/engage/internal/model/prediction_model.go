package model

import (
	"time"

	"github.com/oklog/ulid/v2"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type PredictionModel struct {
	ID                string         `gorm:"type:varchar(26);primary_key" json:"id"`
	UserID            string         `gorm:"type:varchar(128);not null;index:idx_predictions_user_created,priority:1" json:"user_id"`
	Caption           string         `gorm:"type:text" json:"caption"`
	Hashtags          string         `gorm:"type:text" json:"hashtags"`
	HashtagCount      int            `gorm:"default:0" json:"hashtag_count"`
	Platform          string         `gorm:"type:varchar(20);not null" json:"platform"`
	PostingTime       string         `gorm:"type:text" json:"posting_time"`
	DayOfWeek         string         `gorm:"type:text" json:"day_of_week"`
	Location          string         `gorm:"type:text" json:"location"`
	TargetAudience    string         `gorm:"type:text" json:"target_audience"`
	MediaInfo         datatypes.JSON `gorm:"type:jsonb" json:"media_info,omitempty"`
	MediaURL          string         `gorm:"type:varchar(500)" json:"media_url"`
	Score             int            `gorm:"not null" json:"score"`
	EngagementLevel   string         `gorm:"type:varchar(10);not null" json:"engagement_level"`
	Feedback          datatypes.JSON `gorm:"type:jsonb;not null" json:"feedback"`
	Tips              datatypes.JSON `gorm:"type:jsonb;not null" json:"tips"`
	PredictedReach    int            `json:"predicted_reach"`
	PredictedLikes    int            `json:"predicted_likes"`
	PredictedComments int            `json:"predicted_comments"`
	Source            string         `gorm:"type:varchar(10);not null;default:'local'" json:"source"`
	CreatedAt         time.Time      `gorm:"index:idx_predictions_user_created,priority:2,sort:desc" json:"created_at"`
}

func (PredictionModel) TableName() string {
	return "predictions"
}

func (p *PredictionModel) BeforeCreate(tx *gorm.DB) error {
	p.Prepare(time.Now())
	return nil
}

// Prepare assigns the ULID and creation time for stores that bypass gorm hooks.
func (p *PredictionModel) Prepare(now time.Time) {
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now.UTC()
	}
	if p.ID == "" {
		p.ID = ulid.MustNew(ulid.Timestamp(p.CreatedAt), ulid.DefaultEntropy()).String()
	}
}
