package media

import (
	"bytes"
	"image"
	"image/png"
	"strings"
	"testing"

	"engage-predict/pkg/apperror"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewGray(image.Rect(0, 0, w, h))))
	return buf.Bytes()
}

func TestInspect_Image(t *testing.T) {
	info, err := Inspect("image/png", bytes.NewReader(pngBytes(t, 1080, 1920)))
	require.NoError(t, err)

	assert.Equal(t, "image", info.Type)
	assert.Equal(t, 1080, info.Width)
	assert.Equal(t, 1920, info.Height)
	assert.Equal(t, "Portrait", info.Orientation)
	assert.Equal(t, "9:16", info.AspectRatio)
	assert.Equal(t, "1080p", info.Resolution)
	assert.Equal(t, "High", info.QualityScore)
}

func TestInspect_Video(t *testing.T) {
	info, err := Inspect("video/mp4", strings.NewReader("not really an mp4"))
	require.NoError(t, err)
	assert.Equal(t, DefaultVideo(), info)
	assert.Equal(t, "16:9", info.AspectRatio)
}

func TestInspect_Rejections(t *testing.T) {
	_, err := Inspect("application/pdf", strings.NewReader("%PDF"))
	assert.ErrorIs(t, err, apperror.ErrValidation)

	_, err = Inspect("image/png", strings.NewReader("garbage"))
	assert.ErrorIs(t, err, apperror.ErrValidation)
}

func TestDescribe_Tiers(t *testing.T) {
	cases := []struct {
		w, h        int
		resolution  string
		quality     string
		orientation string
		ratio       string
	}{
		{3840, 2160, "4K", "High", "Landscape", "16:9"},
		{1920, 1080, "1080p", "High", "Landscape", "16:9"},
		{1080, 1080, "1080p", "High", "Square", "1:1"},
		{1280, 720, "1080p", "High", "Landscape", "16:9"},
		{960, 720, "720p", "Medium", "Landscape", "4:3"},
		{720, 1280, "1080p", "High", "Portrait", "9:16"},
		{480, 640, "480p", "Low", "Portrait", "3:4"},
		{320, 240, "SD", "Low", "Landscape", "4:3"},
	}
	for _, tc := range cases {
		info := Describe("image", tc.w, tc.h)
		assert.Equal(t, tc.resolution, info.Resolution, "%dx%d", tc.w, tc.h)
		assert.Equal(t, tc.quality, info.QualityScore, "%dx%d", tc.w, tc.h)
		assert.Equal(t, tc.orientation, info.Orientation, "%dx%d", tc.w, tc.h)
		assert.Equal(t, tc.ratio, info.AspectRatio, "%dx%d", tc.w, tc.h)
	}
}

func TestAllowed(t *testing.T) {
	for _, ct := range []string{"image/jpeg", "image/png", "image/gif", "image/webp", "video/mp4", "video/quicktime", "video/webm"} {
		assert.True(t, Allowed(ct), ct)
	}
	assert.False(t, Allowed("image/svg+xml"))
	assert.False(t, Allowed(""))
}

func TestAspectRatio_Degenerate(t *testing.T) {
	assert.Equal(t, "0:0", AspectRatio(0, 0))
	assert.Equal(t, "1:0", AspectRatio(7, 0))
}
