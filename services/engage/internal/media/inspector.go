// Package media derives orientation, resolution and quality tiers from
// uploaded files.
package media

import (
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"

	"engage-predict/pkg/apperror"
	"engage-predict/services/engage/internal/entity"

	_ "golang.org/x/image/webp"
)

const MaxUploadSize = 50 << 20

var imageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

var videoTypes = map[string]bool{
	"video/mp4":       true,
	"video/quicktime": true,
	"video/webm":      true,
}

// Allowed reports whether contentType is on the upload allow-list.
func Allowed(contentType string) bool {
	return imageTypes[contentType] || videoTypes[contentType]
}

// Inspect reads only what it needs from r. Videos are not probed and get the
// 1080p landscape defaults.
func Inspect(contentType string, r io.Reader) (entity.MediaInfo, error) {
	switch {
	case imageTypes[contentType]:
		cfg, _, err := image.DecodeConfig(r)
		if err != nil {
			return entity.MediaInfo{}, apperror.Wrap(apperror.KindValidation, "Failed to analyze image", err)
		}
		return Describe("image", cfg.Width, cfg.Height), nil
	case videoTypes[contentType]:
		return DefaultVideo(), nil
	default:
		return entity.MediaInfo{}, apperror.Validation("Invalid file type. Only images and videos are allowed.")
	}
}

func DefaultVideo() entity.MediaInfo {
	return entity.MediaInfo{
		Type:         "video",
		Width:        1920,
		Height:       1080,
		Orientation:  "Landscape",
		AspectRatio:  "16:9",
		Resolution:   "1080p",
		QualityScore: "High",
	}
}

// Describe computes the derived attributes for a width x height frame.
func Describe(mediaType string, width, height int) entity.MediaInfo {
	resolution := Resolution(width, height)
	return entity.MediaInfo{
		Type:         mediaType,
		Width:        width,
		Height:       height,
		Orientation:  Orientation(width, height),
		AspectRatio:  AspectRatio(width, height),
		Resolution:   resolution,
		QualityScore: Quality(resolution),
	}
}

func Orientation(width, height int) string {
	switch {
	case width > height:
		return "Landscape"
	case width < height:
		return "Portrait"
	default:
		return "Square"
	}
}

func AspectRatio(width, height int) string {
	g := gcd(width, height)
	if g == 0 {
		return "0:0"
	}
	return fmt.Sprintf("%d:%d", width/g, height/g)
}

// Resolution tiers by the larger dimension, so portrait 1080x1920 is 1080p.
func Resolution(width, height int) string {
	switch d := max(width, height); {
	case d >= 2160:
		return "4K"
	case d >= 1080:
		return "1080p"
	case d >= 720:
		return "720p"
	case d >= 480:
		return "480p"
	default:
		return "SD"
	}
}

func Quality(resolution string) string {
	switch resolution {
	case "4K", "1080p":
		return "High"
	case "720p":
		return "Medium"
	default:
		return "Low"
	}
}

func gcd(a, b int) int {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}
