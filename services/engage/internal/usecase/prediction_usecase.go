package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"engage-predict/pkg/apperror"
	"engage-predict/pkg/event"
	"engage-predict/pkg/logger"
	"engage-predict/pkg/metrics"
	"engage-predict/pkg/telemetry"
	"engage-predict/services/engage/internal/engine"
	"engage-predict/services/engage/internal/entity"
	"engage-predict/services/engage/internal/media"
	"engage-predict/services/engage/internal/repo/persistent"
	"engage-predict/services/engage/internal/scoring"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/attribute"
)

const (
	DefaultPlatform       = entity.PlatformInstagram
	DefaultPostingTime    = "12:00"
	DefaultDayOfWeek      = "Wednesday"
	DefaultTargetAudience = "General"

	historyCacheTTL   = 5 * time.Minute
	historyVersionTTL = 24 * time.Hour
	backgroundLimit   = 10 * time.Second
)

// Upload is a media file received with a prediction request.
type Upload struct {
	Filename    string
	ContentType string
	Body        io.ReadSeeker
}

// MediaStore is the object storage used for uploaded media.
type MediaStore interface {
	UploadFile(ctx context.Context, key string, body io.ReadSeeker, contentType string) (string, error)
	KeyFromURL(url string) (string, bool)
	DeleteFile(ctx context.Context, key string) error
}

type PredictionUseCase interface {
	// Predict scores post with the primary scorer and persists the result
	// before returning. A failed write is logged and the result comes back
	// without an id.
	Predict(ctx context.Context, userID string, post entity.PostDescription, upload *Upload) (*entity.Prediction, error)
	// Analyze scores post with the local engine only and saves in the background.
	Analyze(ctx context.Context, userID string, post entity.PostDescription) (*entity.Prediction, error)
	AnalyzeMedia(ctx context.Context, upload *Upload) (entity.MediaInfo, error)
	History(ctx context.Context, userID string) ([]*entity.Prediction, error)
	Delete(ctx context.Context, id, userID string) error
}

type predictionUseCase struct {
	predictionRepo persistent.PredictionRepository
	scorer         scoring.Scorer
	local          *scoring.Local
	mediaStore     MediaStore
	redisClient    *redis.Client
	publisher      event.Publisher
	metrics        *metrics.Metrics
	logger         *logger.Logger
}

func NewPredictionUseCase(
	predictionRepo persistent.PredictionRepository,
	scorer scoring.Scorer,
	local *scoring.Local,
	mediaStore MediaStore,
	redisClient *redis.Client,
	publisher event.Publisher,
	m *metrics.Metrics,
	logger *logger.Logger,
) PredictionUseCase {
	if publisher == nil {
		publisher = event.Noop{}
	}
	return &predictionUseCase{
		predictionRepo: predictionRepo,
		scorer:         scorer,
		local:          local,
		mediaStore:     mediaStore,
		redisClient:    redisClient,
		publisher:      publisher,
		metrics:        m,
		logger:         logger,
	}
}

func (uc *predictionUseCase) Predict(ctx context.Context, userID string, post entity.PostDescription, upload *Upload) (*entity.Prediction, error) {
	ctx, span := telemetry.Tracer().Start(ctx, "usecase.predict")
	defer span.End()

	applyDefaults(&post)
	if err := validatePlatform(post.Platform); err != nil {
		return nil, err
	}

	var mediaURL string
	if upload != nil {
		if !media.Allowed(upload.ContentType) {
			return nil, apperror.Validation("Invalid file type. Only images and videos are allowed.")
		}
		if post.MediaInfo == nil {
			info, err := uc.inspect(upload)
			if err != nil {
				return nil, err
			}
			post.MediaInfo = &info
		}
		mediaURL = uc.storeMedia(ctx, userID, upload)
	}

	result, source, err := uc.scorer.Score(ctx, post)
	if err != nil {
		return nil, fmt.Errorf("failed to score post: %w", err)
	}
	uc.metrics.ObserveScore(string(source), result.Score)
	span.SetAttributes(
		attribute.String("engage.source", string(source)),
		attribute.Int("engage.score", result.Score),
	)

	prediction := newPrediction(userID, post, result, source)
	prediction.MediaURL = mediaURL

	if err := uc.save(ctx, prediction); err != nil {
		uc.logger.Error("Failed to save prediction for user %s: %v", userID, err)
	}

	return prediction, nil
}

func (uc *predictionUseCase) Analyze(ctx context.Context, userID string, post entity.PostDescription) (*entity.Prediction, error) {
	if post.Platform != "" {
		if err := validatePlatform(post.Platform); err != nil {
			return nil, err
		}
	}

	result, source, err := uc.local.Score(ctx, post)
	if err != nil {
		return nil, fmt.Errorf("failed to score post: %w", err)
	}
	uc.metrics.ObserveScore(string(source), result.Score)

	prediction := newPrediction(userID, post, result, source)

	record := *prediction
	go func() {
		bgCtx, cancel := context.WithTimeout(context.Background(), backgroundLimit)
		defer cancel()
		if err := uc.save(bgCtx, &record); err != nil {
			uc.logger.Error("Failed to save analysis for user %s: %v", userID, err)
		}
	}()

	return prediction, nil
}

func (uc *predictionUseCase) AnalyzeMedia(ctx context.Context, upload *Upload) (entity.MediaInfo, error) {
	if upload == nil {
		return entity.MediaInfo{}, apperror.Validation("No file uploaded")
	}
	return uc.inspect(upload)
}

func (uc *predictionUseCase) History(ctx context.Context, userID string) ([]*entity.Prediction, error) {
	// The version is read before the store so a list read across an
	// invalidation is cached under a key nobody reads any more.
	version, cacheable := uc.historyVersion(ctx, userID)
	if cacheable {
		if cached, ok := uc.cachedHistory(ctx, userID, version); ok {
			return cached, nil
		}
	}

	predictions, err := uc.predictionRepo.ListByUser(ctx, userID, persistent.HistoryLimit)
	if err != nil {
		return nil, err
	}

	if cacheable {
		uc.cacheHistory(ctx, userID, version, predictions)
	}
	return predictions, nil
}

func (uc *predictionUseCase) Delete(ctx context.Context, id, userID string) error {
	prediction, err := uc.predictionRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if prediction.UserID != userID {
		return apperror.Forbidden("Not authorized to delete this prediction")
	}

	deleted, err := uc.predictionRepo.DeleteOwned(ctx, id, userID)
	if err != nil {
		return err
	}
	if !deleted {
		return persistent.ErrNotFound
	}

	uc.invalidateHistory(ctx, userID)
	uc.deleteMedia(prediction.MediaURL)
	uc.publish(event.TypePredictionDeleted, deletedPayload{ID: id, UserID: userID})
	return nil
}

func (uc *predictionUseCase) save(ctx context.Context, prediction *entity.Prediction) error {
	if err := uc.predictionRepo.Create(ctx, prediction); err != nil {
		return err
	}
	uc.invalidateHistory(ctx, prediction.UserID)
	uc.publish(event.TypePredictionCreated, createdPayload{
		ID:              prediction.ID,
		UserID:          prediction.UserID,
		Platform:        prediction.Platform,
		Score:           prediction.Score,
		EngagementLevel: prediction.EngagementLevel,
		Source:          prediction.Source,
	})
	return nil
}

func (uc *predictionUseCase) inspect(upload *Upload) (entity.MediaInfo, error) {
	info, err := media.Inspect(upload.ContentType, upload.Body)
	if err != nil {
		return entity.MediaInfo{}, err
	}
	if _, err := upload.Body.Seek(0, io.SeekStart); err != nil {
		return entity.MediaInfo{}, fmt.Errorf("failed to rewind upload: %w", err)
	}
	return info, nil
}

// storeMedia returns the object URL, or "" when storage is disabled or fails.
func (uc *predictionUseCase) storeMedia(ctx context.Context, userID string, upload *Upload) string {
	if uc.mediaStore == nil {
		return ""
	}

	fileKey := fmt.Sprintf("predictions/%s/%s%s", userID, uuid.New().String(), getFileExtension(upload.Filename))
	url, err := uc.mediaStore.UploadFile(ctx, fileKey, upload.Body, upload.ContentType)
	if err != nil {
		uc.logger.Error("%v", apperror.Wrap(apperror.KindPersistence, "Failed to store media", err))
		return ""
	}
	return url
}

func (uc *predictionUseCase) deleteMedia(mediaURL string) {
	if uc.mediaStore == nil || mediaURL == "" {
		return
	}
	key, ok := uc.mediaStore.KeyFromURL(mediaURL)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), backgroundLimit)
	defer cancel()
	if err := uc.mediaStore.DeleteFile(ctx, key); err != nil {
		uc.logger.Warn("Failed to delete media %s: %v", key, err)
	}
}

// HistoryVersionKey holds the per-user counter that names the current
// history cache entry. Bumping it invalidates every cached list for the user.
func HistoryVersionKey(userID string) string {
	return fmt.Sprintf("history:%s:version", userID)
}

func historyKey(userID string, version int64) string {
	return fmt.Sprintf("history:%s:%d", userID, version)
}

func (uc *predictionUseCase) historyVersion(ctx context.Context, userID string) (int64, bool) {
	if uc.redisClient == nil {
		return 0, false
	}

	version, err := uc.redisClient.Get(ctx, HistoryVersionKey(userID)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, true
	}
	if err != nil {
		uc.logger.Warn("History cache version read failed for user %s: %v", userID, err)
		return 0, false
	}
	return version, true
}

func (uc *predictionUseCase) cachedHistory(ctx context.Context, userID string, version int64) ([]*entity.Prediction, bool) {
	data, err := uc.redisClient.Get(ctx, historyKey(userID, version)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			uc.logger.Warn("History cache read failed for user %s: %v", userID, err)
		}
		return nil, false
	}

	var predictions []*entity.Prediction
	if err := json.Unmarshal(data, &predictions); err != nil {
		uc.logger.Warn("Discarding corrupt history cache for user %s: %v", userID, err)
		return nil, false
	}
	return predictions, true
}

func (uc *predictionUseCase) cacheHistory(ctx context.Context, userID string, version int64, predictions []*entity.Prediction) {
	data, err := json.Marshal(predictions)
	if err != nil {
		return
	}

	// The version key outlives every entry written under it, so a counter that
	// expires and restarts never meets an old entry.
	pipe := uc.redisClient.TxPipeline()
	pipe.Set(ctx, historyKey(userID, version), data, historyCacheTTL)
	pipe.Expire(ctx, HistoryVersionKey(userID), historyVersionTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		uc.logger.Warn("History cache write failed for user %s: %v", userID, err)
	}
}

func (uc *predictionUseCase) invalidateHistory(ctx context.Context, userID string) {
	if uc.redisClient == nil {
		return
	}

	pipe := uc.redisClient.TxPipeline()
	pipe.Incr(ctx, HistoryVersionKey(userID))
	pipe.Expire(ctx, HistoryVersionKey(userID), historyVersionTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		uc.logger.Warn("History cache invalidation failed for user %s: %v", userID, err)
	}
}

type createdPayload struct {
	ID              string                 `json:"id"`
	UserID          string                 `json:"userId"`
	Platform        entity.Platform        `json:"platform"`
	Score           int                    `json:"score"`
	EngagementLevel entity.EngagementLevel `json:"engagementLevel"`
	Source          entity.Source          `json:"source"`
}

type deletedPayload struct {
	ID     string `json:"id"`
	UserID string `json:"userId"`
}

func (uc *predictionUseCase) publish(eventType string, payload interface{}) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), backgroundLimit)
		defer cancel()

		err := uc.publisher.Publish(ctx, eventType, payload)
		uc.metrics.ObserveEvent(eventType, err)
		if err != nil {
			uc.logger.Error("Failed to publish %s event: %v", eventType, err)
		}
	}()
}

func newPrediction(userID string, post entity.PostDescription, result entity.PredictionResult, source entity.Source) *entity.Prediction {
	return &entity.Prediction{
		UserID:           userID,
		PostDescription:  post,
		HashtagCount:     engine.CountHashtags(post.Hashtags),
		PredictionResult: result,
		Source:           source,
	}
}

func applyDefaults(post *entity.PostDescription) {
	if post.Platform == "" {
		post.Platform = DefaultPlatform
	}
	if post.PostingTime == "" {
		post.PostingTime = DefaultPostingTime
	}
	if post.DayOfWeek == "" {
		post.DayOfWeek = DefaultDayOfWeek
	}
	if post.TargetAudience == "" {
		post.TargetAudience = DefaultTargetAudience
	}
}

func validatePlatform(platform entity.Platform) error {
	if !platform.Valid() {
		return apperror.Validation(fmt.Sprintf("Invalid platform %q", platform))
	}
	return nil
}

func getFileExtension(filename string) string {
	return strings.ToLower(filepath.Ext(filename))
}
