package entity

import "time"

type Platform string

const (
	PlatformInstagram Platform = "instagram"
	PlatformTikTok    Platform = "tiktok"
	PlatformYouTube   Platform = "youtube"
	PlatformTwitter   Platform = "twitter"
	PlatformFacebook  Platform = "facebook"
)

func (p Platform) Valid() bool {
	switch p {
	case PlatformInstagram, PlatformTikTok, PlatformYouTube, PlatformTwitter, PlatformFacebook:
		return true
	}
	return false
}

type FeedbackKind string

const (
	FeedbackSuccess FeedbackKind = "success"
	FeedbackWarning FeedbackKind = "warning"
	FeedbackError   FeedbackKind = "error"
)

type EngagementLevel string

const (
	LevelHigh   EngagementLevel = "High"
	LevelMedium EngagementLevel = "Medium"
	LevelLow    EngagementLevel = "Low"
)

// LevelFor derives the engagement tier from a clamped score.
func LevelFor(score int) EngagementLevel {
	switch {
	case score >= 80:
		return LevelHigh
	case score >= 60:
		return LevelMedium
	default:
		return LevelLow
	}
}

type Source string

const (
	SourceRemote Source = "remote"
	SourceLocal  Source = "local"
)

type MediaInfo struct {
	Type         string `json:"type,omitempty"`
	Orientation  string `json:"orientation,omitempty"`
	Resolution   string `json:"resolution,omitempty"`
	AspectRatio  string `json:"aspectRatio,omitempty"`
	Width        int    `json:"width,omitempty"`
	Height       int    `json:"height,omitempty"`
	QualityScore string `json:"qualityScore,omitempty"`
	Duration     int    `json:"duration,omitempty"`
}

// PostDescription is what a creator submits for scoring.
type PostDescription struct {
	Caption        string     `json:"caption"`
	Hashtags       string     `json:"hashtags"`
	Platform       Platform   `json:"platform"`
	PostingTime    string     `json:"postingTime"`
	DayOfWeek      string     `json:"dayOfWeek"`
	Location       string     `json:"location,omitempty"`
	TargetAudience string     `json:"targetAudience,omitempty"`
	MediaInfo      *MediaInfo `json:"mediaInfo"`
}

type Feedback struct {
	Kind    FeedbackKind `json:"type"`
	Message string       `json:"text"`
	Impact  string       `json:"impact"`
}

type PredictionResult struct {
	Score             int             `json:"score"`
	EngagementLevel   EngagementLevel `json:"engagementLevel"`
	Feedback          []Feedback      `json:"feedback"`
	Tips              []string        `json:"tips"`
	PredictedReach    int             `json:"predictedReach"`
	PredictedLikes    int             `json:"predictedLikes"`
	PredictedComments int             `json:"predictedComments"`
}

// Prediction is a persisted scoring, owned by UserID. It is never updated.
type Prediction struct {
	ID     string `json:"id"`
	UserID string `json:"userId"`
	PostDescription
	HashtagCount int `json:"hashtagCount"`
	PredictionResult
	MediaURL  string    `json:"mediaUrl,omitempty"`
	Source    Source    `json:"source"`
	CreatedAt time.Time `json:"createdAt"`
}
