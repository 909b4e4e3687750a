package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusOf(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{Auth("Invalid token"), http.StatusUnauthorized},
		{NotFound("Prediction not found"), http.StatusNotFound},
		{Forbidden("Not authorized"), http.StatusForbidden},
		{Conflict("Email already registered"), http.StatusConflict},
		{Validation("platform is required"), http.StatusBadRequest},
		{New(KindRateLimit, "Rate limit exceeded"), http.StatusTooManyRequests},
		{New(KindTooLarge, "File too large"), http.StatusRequestEntityTooLarge},
		{Wrap(KindPersistence, "Failed to save", errors.New("conn refused")), http.StatusInternalServerError},
		{errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.status, StatusOf(tc.err), tc.err.Error())
	}
}

func TestErrorsIs_MatchesKindThroughWrapping(t *testing.T) {
	err := fmt.Errorf("delete prediction: %w", Forbidden("Not authorized"))

	assert.True(t, errors.Is(err, ErrForbidden))
	assert.False(t, errors.Is(err, ErrNotFound))
	assert.Equal(t, KindForbidden, KindOf(err))
}

func TestWrap_Unwrap(t *testing.T) {
	cause := errors.New("dial tcp: timeout")
	err := Wrap(KindUpstreamUnavailable, "scoring service unavailable", cause)

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "UPSTREAM_UNAVAILABLE")
	assert.Contains(t, err.Error(), "dial tcp: timeout")
}

func TestMessageOf(t *testing.T) {
	assert.Equal(t, "Prediction not found", MessageOf(NotFound("Prediction not found")))
	assert.Equal(t, "Internal server error", MessageOf(errors.New("pq: password authentication failed")))
}
