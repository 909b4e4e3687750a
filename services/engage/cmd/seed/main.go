package main

import (
	"context"
	"flag"
	"fmt"
	"strings"
	"time"

	"engage-predict/pkg/cache"
	"engage-predict/pkg/config"
	"engage-predict/pkg/database"
	"engage-predict/pkg/logger"
	"engage-predict/services/engage/internal/engine"
	"engage-predict/services/engage/internal/entity"
	"engage-predict/services/engage/internal/repo/persistent"
	"engage-predict/services/engage/internal/scoring"
	"engage-predict/services/engage/internal/usecase"

	"github.com/redis/go-redis/v9"
)

var samplePosts = []entity.PostDescription{
	{
		Caption:        "Sunrise over the Dolomites after a 4am hike. Worth every step, would you do it?",
		Hashtags:       "#travel #hiking #dolomites #sunrise #mountains #italy",
		Platform:       entity.PlatformInstagram,
		PostingTime:    "19:00",
		DayOfWeek:      "Saturday",
		Location:       "Dolomites, Italy",
		TargetAudience: "Travelers",
		MediaInfo: &entity.MediaInfo{
			Type:         "image",
			Orientation:  "Portrait",
			Resolution:   "4K",
			AspectRatio:  "9:16",
			Width:        2160,
			Height:       3840,
			QualityScore: "High",
		},
	},
	{
		Caption:     "3 knife skills every home cook should know",
		Hashtags:    "#cooking #kitchenhacks #foodtok",
		Platform:    entity.PlatformTikTok,
		PostingTime: "12:00",
		DayOfWeek:   "Wednesday",
		MediaInfo: &entity.MediaInfo{
			Type:         "video",
			Orientation:  "Portrait",
			Resolution:   "1080p",
			AspectRatio:  "9:16",
			Width:        1080,
			Height:       1920,
			QualityScore: "High",
			Duration:     42,
		},
	},
	{
		Caption:     "Quarterly update",
		Platform:    entity.PlatformTwitter,
		PostingTime: "03:00",
		DayOfWeek:   "Monday",
	},
	{
		Caption:        "Full walkthrough of our new studio setup, gear list in the description",
		Hashtags:       "#studio #setup #creator",
		Platform:       entity.PlatformYouTube,
		PostingTime:    "18:00",
		DayOfWeek:      "Friday",
		TargetAudience: "Creators",
		MediaInfo: &entity.MediaInfo{
			Type:         "video",
			Orientation:  "Landscape",
			Resolution:   "4K",
			AspectRatio:  "16:9",
			Width:        3840,
			Height:       2160,
			QualityScore: "High",
			Duration:     780,
		},
	},
	{
		Caption:     "Family BBQ this weekend, who is bringing dessert?",
		Hashtags:    "#family",
		Platform:    entity.PlatformFacebook,
		PostingTime: "10:00",
		DayOfWeek:   "Sunday",
		MediaInfo: &entity.MediaInfo{
			Type:         "image",
			Orientation:  "Square",
			Resolution:   "720p",
			AspectRatio:  "1:1",
			Width:        720,
			Height:       720,
			QualityScore: "Medium",
		},
	},
}

func main() {
	var users string
	flag.StringVar(&users, "users", "demo-user", "Comma separated user ids to seed history for")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	log := logger.NewLevel(cfg.LogLevel)
	db, err := database.NewPostgresDB(cfg)
	if err != nil {
		log.Error("Failed to connect to database: %v", err)
		panic(err)
	}

	redisClient, err := cache.NewRedisClient(cfg)
	if err != nil {
		log.Warn("Failed to connect to redis: %v (cached history will expire on its own)", err)
		redisClient = nil
	}

	repo := persistent.NewPredictionRepository(db)
	local := scoring.NewLocal(engine.New(nil))

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	created, err := seedPredictions(ctx, repo, local, splitUsers(users), log)
	if err != nil {
		log.Error("Failed to seed database: %v", err)
		panic(err)
	}

	if redisClient != nil {
		for _, userID := range splitUsers(users) {
			redisClient.Incr(ctx, usecase.HistoryVersionKey(userID))
		}
		closeRedis(redisClient, log)
	}

	log.Info("Database seeded successfully! %d predictions created", created)
}

func seedPredictions(ctx context.Context, repo persistent.PredictionRepository, scorer scoring.Scorer, userIDs []string, log *logger.Logger) (int, error) {
	created := 0
	for _, userID := range userIDs {
		for _, post := range samplePosts {
			result, source, err := scorer.Score(ctx, post)
			if err != nil {
				return created, fmt.Errorf("failed to score sample post: %w", err)
			}

			prediction := &entity.Prediction{
				UserID:           userID,
				PostDescription:  post,
				HashtagCount:     engine.CountHashtags(post.Hashtags),
				PredictionResult: result,
				Source:           source,
			}
			if err := repo.Create(ctx, prediction); err != nil {
				log.Error("Failed to create prediction for user %s: %v", userID, err)
				continue
			}

			log.Info("Created %s prediction %s for %s (score %d)", post.Platform, prediction.ID, userID, prediction.Score)
			created++
		}
	}
	return created, nil
}

func splitUsers(raw string) []string {
	var ids []string
	for _, id := range strings.Split(raw, ",") {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}

func closeRedis(client *redis.Client, log *logger.Logger) {
	if err := client.Close(); err != nil {
		log.Error("Error closing Redis: %v", err)
	}
}
