package usecase

import (
	"context"
	"encoding/json"
	"io"
	"sync"
	"testing"

	"engage-predict/pkg/logger"
	"engage-predict/services/engage/internal/engine"
	"engage-predict/services/engage/internal/entity"
	"engage-predict/services/engage/internal/repo/persistent"
	"engage-predict/services/engage/internal/scoring"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// hookedRepository runs afterList once, right after the first ListByUser
// call has read from the store.
type hookedRepository struct {
	persistent.PredictionRepository
	once      sync.Once
	afterList func()
}

func (r *hookedRepository) ListByUser(ctx context.Context, userID string, limit int) ([]*entity.Prediction, error) {
	predictions, err := r.PredictionRepository.ListByUser(ctx, userID, limit)
	if r.afterList != nil {
		r.once.Do(r.afterList)
	}
	return predictions, err
}

func newCachedUseCase(t *testing.T, repo persistent.PredictionRepository) (PredictionUseCase, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	local := scoring.NewLocal(engine.New(zeroSource{}))
	uc := NewPredictionUseCase(repo, local, local, new(MockMediaStore), client, &recordingPublisher{}, nil, logger.NewWithWriter(io.Discard, logger.LevelDebug))
	return uc, mr
}

func TestHistory_ServedFromCache(t *testing.T) {
	repo := persistent.NewMemoryPredictionRepository()
	uc, mr := newCachedUseCase(t, repo)
	ctx := context.Background()

	prediction, err := uc.Predict(ctx, "uid-1", perfectPost, nil)
	require.NoError(t, err)

	history, err := uc.History(ctx, "uid-1")
	require.NoError(t, err)
	require.Len(t, history, 1)

	version, err := mr.Get(HistoryVersionKey("uid-1"))
	require.NoError(t, err)
	assert.Equal(t, "1", version)
	assert.True(t, mr.Exists(historyKey("uid-1", 1)))
	assert.Equal(t, historyCacheTTL, mr.TTL(historyKey("uid-1", 1)))

	// Removed behind the use case's back, so only the cache still has it.
	_, err = repo.DeleteOwned(ctx, prediction.ID, "uid-1")
	require.NoError(t, err)

	history, err = uc.History(ctx, "uid-1")
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, prediction.ID, history[0].ID)
}

func TestHistory_CreateInvalidates(t *testing.T) {
	uc, mr := newCachedUseCase(t, persistent.NewMemoryPredictionRepository())
	ctx := context.Background()

	history, err := uc.History(ctx, "uid-1")
	require.NoError(t, err)
	assert.Empty(t, history)
	assert.True(t, mr.Exists(historyKey("uid-1", 0)))

	prediction, err := uc.Predict(ctx, "uid-1", perfectPost, nil)
	require.NoError(t, err)
	assert.Equal(t, historyVersionTTL, mr.TTL(HistoryVersionKey("uid-1")))

	history, err = uc.History(ctx, "uid-1")
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, prediction.ID, history[0].ID)
}

func TestHistory_DeleteInvalidates(t *testing.T) {
	uc, _ := newCachedUseCase(t, persistent.NewMemoryPredictionRepository())
	ctx := context.Background()

	prediction, err := uc.Predict(ctx, "uid-1", perfectPost, nil)
	require.NoError(t, err)
	history, err := uc.History(ctx, "uid-1")
	require.NoError(t, err)
	require.Len(t, history, 1)

	require.NoError(t, uc.Delete(ctx, prediction.ID, "uid-1"))

	history, err = uc.History(ctx, "uid-1")
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestHistory_WriteDuringListIsNotLost(t *testing.T) {
	repo := &hookedRepository{PredictionRepository: persistent.NewMemoryPredictionRepository()}
	uc, _ := newCachedUseCase(t, repo)
	ctx := context.Background()

	var created *entity.Prediction
	repo.afterList = func() {
		var err error
		created, err = uc.Predict(ctx, "uid-1", perfectPost, nil)
		require.NoError(t, err)
	}

	history, err := uc.History(ctx, "uid-1")
	require.NoError(t, err)
	assert.Empty(t, history, "list was read before the write")

	history, err = uc.History(ctx, "uid-1")
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, created.ID, history[0].ID)
}

func TestHistory_CorruptEntryDiscarded(t *testing.T) {
	uc, mr := newCachedUseCase(t, persistent.NewMemoryPredictionRepository())
	ctx := context.Background()

	prediction, err := uc.Predict(ctx, "uid-1", perfectPost, nil)
	require.NoError(t, err)
	require.NoError(t, mr.Set(historyKey("uid-1", 1), "{not json"))

	history, err := uc.History(ctx, "uid-1")
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, prediction.ID, history[0].ID)

	raw, err := mr.Get(historyKey("uid-1", 1))
	require.NoError(t, err)
	var cached []*entity.Prediction
	assert.NoError(t, json.Unmarshal([]byte(raw), &cached), "entry rewritten from the store")
}

func TestHistory_RedisErrorFallsBackToStore(t *testing.T) {
	uc, mr := newCachedUseCase(t, persistent.NewMemoryPredictionRepository())
	ctx := context.Background()
	mr.SetError("LOADING dataset in memory")

	prediction, err := uc.Predict(ctx, "uid-1", perfectPost, nil)
	require.NoError(t, err)

	history, err := uc.History(ctx, "uid-1")
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, prediction.ID, history[0].ID)

	mr.SetError("")
	assert.False(t, mr.Exists(historyKey("uid-1", 0)))
}
