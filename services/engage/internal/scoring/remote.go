package scoring

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"

	"engage-predict/pkg/apperror"
	"engage-predict/pkg/schema"
	"engage-predict/pkg/telemetry"
	"engage-predict/services/engage/internal/engine"
	"engage-predict/services/engage/internal/entity"

	"go.opentelemetry.io/otel/codes"
)

const maxResponseSize = 1 << 20

// Remote calls an external scoring service at POST {endpoint}/predict.
type Remote struct {
	endpoint  string
	apiKey    string
	http      *http.Client
	validator *schema.Validator
}

func NewRemote(endpoint, apiKey string, validator *schema.Validator) *Remote {
	return &Remote{
		endpoint:  endpoint,
		apiKey:    apiKey,
		http:      &http.Client{Timeout: RemoteTimeout},
		validator: validator,
	}
}

type remoteResponse struct {
	Score             float64                `json:"score"`
	EngagementLevel   entity.EngagementLevel `json:"engagementLevel"`
	Feedback          []entity.Feedback      `json:"feedback"`
	Tips              []string               `json:"tips"`
	PredictedReach    float64                `json:"predictedReach"`
	PredictedLikes    float64                `json:"predictedLikes"`
	PredictedComments float64                `json:"predictedComments"`
}

func (r *Remote) Score(ctx context.Context, post entity.PostDescription) (entity.PredictionResult, entity.Source, error) {
	ctx, span := telemetry.Tracer().Start(ctx, "scoring.remote")
	defer span.End()

	body, err := r.post(ctx, "/predict", post)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return entity.PredictionResult{}, entity.SourceRemote, apperror.Wrap(apperror.KindUpstreamUnavailable, "scoring service unavailable", err)
	}

	if err := r.validator.Validate(schema.PredictionResponse, body); err != nil {
		span.SetStatus(codes.Error, "invalid response")
		return entity.PredictionResult{}, entity.SourceRemote, apperror.Wrap(apperror.KindUpstreamUnavailable, "scoring service returned an invalid response", err)
	}

	var resp remoteResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return entity.PredictionResult{}, entity.SourceRemote, apperror.Wrap(apperror.KindUpstreamUnavailable, "scoring service returned an invalid response", err)
	}

	return normalize(resp), entity.SourceRemote, nil
}

// normalize enforces the same invariants the local engine guarantees.
func normalize(resp remoteResponse) entity.PredictionResult {
	score := roundClamped(resp.Score, 0, 100)
	level := entity.LevelFor(score)

	tips := resp.Tips
	if len(tips) == 0 {
		tips = engine.Tips(level)
	}
	feedback := resp.Feedback
	if feedback == nil {
		feedback = []entity.Feedback{}
	}

	return entity.PredictionResult{
		Score:             score,
		EngagementLevel:   level,
		Feedback:          feedback,
		Tips:              tips,
		PredictedReach:    roundClamped(resp.PredictedReach, 0, math.MaxInt32),
		PredictedLikes:    roundClamped(resp.PredictedLikes, 0, math.MaxInt32),
		PredictedComments: roundClamped(resp.PredictedComments, 0, math.MaxInt32),
	}
}

// roundClamped bounds v before the int conversion, which is undefined for
// floats outside the int range. The predicted columns are 32-bit.
func roundClamped(v float64, lo, hi int) int {
	r := math.Round(v)
	switch {
	case math.IsNaN(r) || r < float64(lo):
		return lo
	case r > float64(hi):
		return hi
	}
	return int(r)
}

func (r *Remote) post(ctx context.Context, path string, payload any) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.endpoint+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if r.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+r.apiKey)
	}

	resp, err := r.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	return data, nil
}
