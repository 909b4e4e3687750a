package main

import (
	"context"
	"io"
	"testing"

	"engage-predict/pkg/logger"
	"engage-predict/services/engage/internal/engine"
	"engage-predict/services/engage/internal/entity"
	"engage-predict/services/engage/internal/repo/persistent"
	"engage-predict/services/engage/internal/scoring"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedSource float64

func (f fixedSource) Float64() float64 { return float64(f) }

func TestSeedPredictions(t *testing.T) {
	repo := persistent.NewMemoryPredictionRepository()
	local := scoring.NewLocal(engine.New(fixedSource(0.5)))

	created, err := seedPredictions(context.Background(), repo, local, []string{"alice", "bob"}, logger.NewWithWriter(io.Discard, logger.LevelError))
	require.NoError(t, err)
	assert.Equal(t, 2*len(samplePosts), created)

	history, err := repo.ListByUser(context.Background(), "alice", persistent.HistoryLimit)
	require.NoError(t, err)
	require.Len(t, history, len(samplePosts))
	for _, p := range history {
		assert.Equal(t, "alice", p.UserID)
		assert.Equal(t, entity.SourceLocal, p.Source)
		assert.GreaterOrEqual(t, p.Score, 0)
		assert.LessOrEqual(t, p.Score, 100)
		assert.Equal(t, entity.LevelFor(p.Score), p.EngagementLevel)
	}
}

func TestSplitUsers(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, splitUsers(" a, ,b,"))
	assert.Nil(t, splitUsers(""))
}
