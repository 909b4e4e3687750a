package persistent

import (
	"context"
	"errors"
	"time"

	"engage-predict/services/engage/internal/entity"
	"engage-predict/services/engage/internal/model"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/datatypes"
)

var predictionColumns = []string{
	"id", "user_id", "caption", "hashtags", "hashtag_count", "platform",
	"posting_time", "day_of_week", "location", "target_audience", "media_info",
	"media_url", "score", "engagement_level", "feedback", "tips",
	"predicted_reach", "predicted_likes", "predicted_comments", "source", "created_at",
}

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// pgxQuerier is the subset of *pgxpool.Pool the repository needs.
type pgxQuerier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type pgxPredictionRepository struct {
	db  pgxQuerier
	now func() time.Time
}

func NewPgxPredictionRepository(db pgxQuerier) PredictionRepository {
	return &pgxPredictionRepository{db: db, now: time.Now}
}

func insertPredictionQuery(m *model.PredictionModel) (string, []any, error) {
	var mediaInfo any
	if len(m.MediaInfo) > 0 {
		mediaInfo = []byte(m.MediaInfo)
	}
	return psql.Insert("predictions").
		Columns(predictionColumns...).
		Values(
			m.ID, m.UserID, m.Caption, m.Hashtags, m.HashtagCount, m.Platform,
			m.PostingTime, m.DayOfWeek, m.Location, m.TargetAudience, mediaInfo,
			m.MediaURL, m.Score, m.EngagementLevel, []byte(m.Feedback), []byte(m.Tips),
			m.PredictedReach, m.PredictedLikes, m.PredictedComments, m.Source, m.CreatedAt,
		).
		ToSql()
}

func selectPredictionByIDQuery(id string) (string, []any, error) {
	return psql.Select(predictionColumns...).
		From("predictions").
		Where(sq.Eq{"id": id}).
		ToSql()
}

func listPredictionsQuery(userID string, limit int) (string, []any, error) {
	return psql.Select(predictionColumns...).
		From("predictions").
		Where(sq.Eq{"user_id": userID}).
		OrderBy("created_at DESC", "id DESC").
		Limit(uint64(clampLimit(limit))).
		ToSql()
}

func deleteOwnedQuery(id, userID string) (string, []any, error) {
	return psql.Delete("predictions").
		Where(sq.Eq{"id": id, "user_id": userID}).
		ToSql()
}

func scanPrediction(row pgx.Row) (*model.PredictionModel, error) {
	var (
		m                         model.PredictionModel
		mediaInfo, feedback, tips []byte
	)
	err := row.Scan(
		&m.ID, &m.UserID, &m.Caption, &m.Hashtags, &m.HashtagCount, &m.Platform,
		&m.PostingTime, &m.DayOfWeek, &m.Location, &m.TargetAudience, &mediaInfo,
		&m.MediaURL, &m.Score, &m.EngagementLevel, &feedback, &tips,
		&m.PredictedReach, &m.PredictedLikes, &m.PredictedComments, &m.Source, &m.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	m.MediaInfo = datatypes.JSON(mediaInfo)
	m.Feedback = datatypes.JSON(feedback)
	m.Tips = datatypes.JSON(tips)
	return &m, nil
}

func (r *pgxPredictionRepository) Create(ctx context.Context, p *entity.Prediction) error {
	m, err := ToPredictionModel(p)
	if err != nil {
		return persistenceError("Failed to save prediction", err)
	}
	m.Prepare(r.now())

	query, args, err := insertPredictionQuery(m)
	if err != nil {
		return persistenceError("Failed to save prediction", err)
	}
	if _, err := r.db.Exec(ctx, query, args...); err != nil {
		return persistenceError("Failed to save prediction", err)
	}

	p.ID = m.ID
	p.CreatedAt = m.CreatedAt
	return nil
}

func (r *pgxPredictionRepository) GetByID(ctx context.Context, id string) (*entity.Prediction, error) {
	query, args, err := selectPredictionByIDQuery(id)
	if err != nil {
		return nil, persistenceError("Failed to fetch prediction", err)
	}

	m, err := scanPrediction(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, persistenceError("Failed to fetch prediction", err)
	}

	p, err := ToPredictionEntity(m)
	if err != nil {
		return nil, persistenceError("Failed to fetch prediction", err)
	}
	return p, nil
}

func (r *pgxPredictionRepository) ListByUser(ctx context.Context, userID string, limit int) ([]*entity.Prediction, error) {
	query, args, err := listPredictionsQuery(userID, limit)
	if err != nil {
		return nil, persistenceError("Failed to fetch history", err)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, persistenceError("Failed to fetch history", err)
	}
	defer rows.Close()

	predictions := make([]*entity.Prediction, 0)
	for rows.Next() {
		m, err := scanPrediction(rows)
		if err != nil {
			return nil, persistenceError("Failed to fetch history", err)
		}
		p, err := ToPredictionEntity(m)
		if err != nil {
			return nil, persistenceError("Failed to fetch history", err)
		}
		predictions = append(predictions, p)
	}
	if err := rows.Err(); err != nil {
		return nil, persistenceError("Failed to fetch history", err)
	}
	return predictions, nil
}

func (r *pgxPredictionRepository) DeleteOwned(ctx context.Context, id, userID string) (bool, error) {
	query, args, err := deleteOwnedQuery(id, userID)
	if err != nil {
		return false, persistenceError("Failed to delete prediction", err)
	}

	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return false, persistenceError("Failed to delete prediction", err)
	}
	return tag.RowsAffected() > 0, nil
}
