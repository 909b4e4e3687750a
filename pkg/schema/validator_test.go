package schema

import (
	"testing"

	"engage-predict/pkg/apperror"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate_MediaInfo(t *testing.T) {
	v, err := NewValidator()
	require.NoError(t, err)

	assert.NoError(t, v.Validate(MediaInfo, []byte(`{"orientation":"Portrait","resolution":"1080p"}`)))
	assert.NoError(t, v.Validate(MediaInfo, []byte(`{"type":"image","width":1080,"height":1920,"aspectRatio":"9:16","qualityScore":"High"}`)))
	assert.NoError(t, v.Validate(MediaInfo, []byte(`{}`)))

	err = v.Validate(MediaInfo, []byte(`{"orientation":"Diagonal"}`))
	assert.ErrorIs(t, err, apperror.ErrValidation)
	assert.Contains(t, apperror.MessageOf(err), "orientation")

	err = v.Validate(MediaInfo, []byte(`{"aspectRatio":"wide"}`))
	assert.ErrorIs(t, err, apperror.ErrValidation)

	err = v.Validate(MediaInfo, []byte(`{not json`))
	assert.ErrorIs(t, err, apperror.ErrValidation)

	err = v.Validate(MediaInfo, []byte(`"Portrait"`))
	assert.ErrorIs(t, err, apperror.ErrValidation)
}

func TestValidate_PredictionResponse(t *testing.T) {
	v := MustNewValidator()

	valid := `{
		"score": 72, "engagementLevel": "Medium",
		"feedback": [{"type": "success", "text": "Optimal caption length", "impact": "+10%"}],
		"tips": ["Post consistently to build momentum"],
		"predictedReach": 7300, "predictedLikes": 740, "predictedComments": 150
	}`
	assert.NoError(t, v.Validate(PredictionResponse, []byte(valid)))

	missing := `{"score": 72, "engagementLevel": "Medium"}`
	assert.ErrorIs(t, v.Validate(PredictionResponse, []byte(missing)), apperror.ErrValidation)

	badFeedback := `{
		"score": 72, "engagementLevel": "Medium",
		"feedback": [{"type": "info", "text": "x", "impact": "+1%"}],
		"tips": [], "predictedReach": 1, "predictedLikes": 1, "predictedComments": 1
	}`
	assert.ErrorIs(t, v.Validate(PredictionResponse, []byte(badFeedback)), apperror.ErrValidation)
}

func TestValidate_UnknownSchema(t *testing.T) {
	v := MustNewValidator()
	err := v.Validate("post", []byte(`{}`))
	assert.Error(t, err)
	assert.NotErrorIs(t, err, apperror.ErrValidation)
}
