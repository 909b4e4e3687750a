package scoring

import (
	"context"
	"encoding/json"
	"io"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"engage-predict/pkg/apperror"
	"engage-predict/pkg/logger"
	"engage-predict/pkg/metrics"
	"engage-predict/pkg/schema"
	"engage-predict/services/engage/internal/engine"
	"engage-predict/services/engage/internal/entity"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type zeroSource struct{}

func (zeroSource) Float64() float64 { return 0 }

var mondayPost = entity.PostDescription{
	Platform:  entity.PlatformInstagram,
	DayOfWeek: "Monday",
}

func testLogger() *logger.Logger {
	return logger.NewWithWriter(io.Discard, logger.LevelDebug)
}

func newFallback(t *testing.T, handler http.HandlerFunc) (*Fallback, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	remote := NewRemote(srv.URL, "ml-key", schema.MustNewValidator())
	return NewFallback(remote, NewLocal(engine.New(zeroSource{})), testLogger(), metrics.NewMetrics()), srv
}

func TestLocal_Score(t *testing.T) {
	result, source, err := NewLocal(engine.New(zeroSource{})).Score(context.Background(), mondayPost)

	require.NoError(t, err)
	assert.Equal(t, entity.SourceLocal, source)
	assert.Equal(t, 40, result.Score)
	assert.Equal(t, entity.LevelLow, result.EngagementLevel)
}

func TestRemote_Success(t *testing.T) {
	var received entity.PostDescription
	f, _ := newFallback(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/predict", r.URL.Path)
		assert.Equal(t, "Bearer ml-key", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&received))

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{
			"score": 72, "engagementLevel": "Medium",
			"feedback": [{"type": "success", "text": "Great posting time", "impact": "+10%"}],
			"tips": ["Post consistently to build momentum"],
			"predictedReach": 7300, "predictedLikes": 740, "predictedComments": 150
		}`)
	})

	result, source, err := f.Score(context.Background(), mondayPost)

	require.NoError(t, err)
	assert.Equal(t, entity.SourceRemote, source)
	assert.Equal(t, entity.PlatformInstagram, received.Platform)
	assert.Equal(t, 72, result.Score)
	assert.Equal(t, entity.LevelMedium, result.EngagementLevel)
	assert.Equal(t, "Great posting time", result.Feedback[0].Message)
	assert.Equal(t, 7300, result.PredictedReach)
}

func TestRemote_NormalizesOutOfRangeScore(t *testing.T) {
	f, _ := newFallback(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{
			"score": 130.4, "engagementLevel": "Low", "feedback": [], "tips": [],
			"predictedReach": 1, "predictedLikes": 1, "predictedComments": 1
		}`)
	})

	result, source, err := f.Score(context.Background(), mondayPost)

	require.NoError(t, err)
	assert.Equal(t, entity.SourceRemote, source)
	assert.Equal(t, 100, result.Score)
	assert.Equal(t, entity.LevelHigh, result.EngagementLevel)
	assert.Equal(t, engine.Tips(entity.LevelHigh), result.Tips)
}

func TestRemote_ClampsHugeValues(t *testing.T) {
	f, _ := newFallback(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{
			"score": 1e20, "engagementLevel": "High", "feedback": [], "tips": [],
			"predictedReach": 1e20, "predictedLikes": 3e9, "predictedComments": 12.6
		}`)
	})

	result, source, err := f.Score(context.Background(), mondayPost)

	require.NoError(t, err)
	assert.Equal(t, entity.SourceRemote, source)
	assert.Equal(t, 100, result.Score)
	assert.Equal(t, entity.LevelHigh, result.EngagementLevel)
	assert.Equal(t, math.MaxInt32, result.PredictedReach)
	assert.Equal(t, math.MaxInt32, result.PredictedLikes)
	assert.Equal(t, 13, result.PredictedComments)
}

func TestRoundClamped(t *testing.T) {
	assert.Equal(t, 0, roundClamped(-1e20, 0, 100))
	assert.Equal(t, 0, roundClamped(math.NaN(), 0, 100))
	assert.Equal(t, 100, roundClamped(math.Inf(1), 0, 100))
	assert.Equal(t, 73, roundClamped(72.5, 0, 100))
}

func TestFallback_OnRemoteFailures(t *testing.T) {
	cases := map[string]http.HandlerFunc{
		"server error": func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		},
		"not json": func(w http.ResponseWriter, r *http.Request) {
			_, _ = io.WriteString(w, "<html>bad gateway</html>")
		},
		"schema violation": func(w http.ResponseWriter, r *http.Request) {
			_, _ = io.WriteString(w, `{"score": "high"}`)
		},
	}

	for name, handler := range cases {
		t.Run(name, func(t *testing.T) {
			f, _ := newFallback(t, handler)
			before := testutil.ToFloat64(metrics.NewMetrics().ScoringFallbackTotal)

			result, source, err := f.Score(context.Background(), mondayPost)

			require.NoError(t, err)
			assert.Equal(t, entity.SourceLocal, source)
			assert.Equal(t, 40, result.Score)
			assert.Equal(t, before+1, testutil.ToFloat64(metrics.NewMetrics().ScoringFallbackTotal))
		})
	}
}

func TestFallback_OnTimeout(t *testing.T) {
	f, _ := newFallback(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	})
	f.timeout = 50 * time.Millisecond

	start := time.Now()
	result, source, err := f.Score(context.Background(), mondayPost)

	require.NoError(t, err)
	assert.Equal(t, entity.SourceLocal, source)
	assert.Equal(t, 40, result.Score)
	assert.Less(t, time.Since(start), time.Second)
}

func TestFallback_OnUnreachableService(t *testing.T) {
	remote := NewRemote("http://127.0.0.1:1", "", schema.MustNewValidator())
	f := NewFallback(remote, NewLocal(nil), testLogger(), nil)

	_, source, err := f.Score(context.Background(), mondayPost)

	require.NoError(t, err)
	assert.Equal(t, entity.SourceLocal, source)
}

func TestRemote_ErrorKind(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, _, err := NewRemote(srv.URL, "", schema.MustNewValidator()).Score(context.Background(), mondayPost)

	assert.ErrorIs(t, err, apperror.ErrUpstreamUnavailable)
	assert.True(t, strings.Contains(err.Error(), "502"))
}
