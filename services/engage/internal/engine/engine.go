// Package engine holds the rule-based engagement scorer. It performs no I/O.
package engine

import (
	"fmt"
	"math"
	"math/rand/v2"
	"regexp"
	"strings"
	"unicode/utf16"

	"engage-predict/services/engage/internal/entity"
)

const baseScore = 50

var hashtagPattern = regexp.MustCompile(`#\w+`)

var tipsByLevel = map[entity.EngagementLevel][]string{
	entity.LevelHigh: {
		"Your content is optimized for viral potential!",
		"Consider A/B testing different captions",
		"Engage with comments in the first hour for algorithm boost",
	},
	entity.LevelMedium: {
		"Post consistently to build momentum",
		"Use trending audio for additional reach",
		"Cross-promote on other platforms",
	},
	entity.LevelLow: {
		"Focus on improving content quality first",
		"Study top performers in your niche",
		"Consider collaborating with other creators",
	},
}

// RandomSource yields uniform values in [0,1). *rand.Rand satisfies it.
type RandomSource interface {
	Float64() float64
}

type globalSource struct{}

func (globalSource) Float64() float64 { return rand.Float64() }

type Engine struct {
	rnd RandomSource
}

// New returns an Engine drawing jitter from src; nil uses the global generator.
func New(src RandomSource) *Engine {
	if src == nil {
		src = globalSource{}
	}
	return &Engine{rnd: src}
}

var defaultEngine = New(nil)

// Score rates post with the default engine.
func Score(post entity.PostDescription) entity.PredictionResult {
	return defaultEngine.Score(post)
}

// CountHashtags counts "#word" tokens in text.
func CountHashtags(text string) int {
	return len(hashtagPattern.FindAllStringIndex(text, -1))
}

type scorer struct {
	score    int
	feedback []entity.Feedback
}

func (s *scorer) apply(delta int, kind entity.FeedbackKind, message string) {
	s.score += delta
	s.feedback = append(s.feedback, entity.Feedback{
		Kind:    kind,
		Message: message,
		Impact:  fmt.Sprintf("%+d%%", delta),
	})
}

func (e *Engine) Score(post entity.PostDescription) entity.PredictionResult {
	s := &scorer{score: baseScore, feedback: []entity.Feedback{}}

	if post.MediaInfo != nil {
		scoreResolution(s, post.MediaInfo.Resolution)
		scoreOrientation(s, post.Platform, post.MediaInfo.Orientation)
	}
	scoreCaption(s, post.Caption)
	scoreHashtags(s, CountHashtags(post.Hashtags))
	scorePostingTime(s, post.PostingTime)
	scoreDay(s, post.DayOfWeek)

	score := Clamp(s.score)
	level := entity.LevelFor(score)

	return entity.PredictionResult{
		Score:             score,
		EngagementLevel:   level,
		Feedback:          s.feedback,
		Tips:              Tips(level),
		PredictedReach:    e.jitter(score, 100, 500),
		PredictedLikes:    e.jitter(score, 10, 50),
		PredictedComments: e.jitter(score, 2, 10),
	}
}

func (e *Engine) jitter(score, factor int, spread float64) int {
	return int(math.Round(float64(score*factor) + e.rnd.Float64()*spread))
}

// Clamp bounds score to [0,100].
func Clamp(score int) int {
	return max(0, min(100, score))
}

// Tips returns a copy of the fixed tips for level.
func Tips(level entity.EngagementLevel) []string {
	return append([]string(nil), tipsByLevel[level]...)
}

func scoreResolution(s *scorer, resolution string) {
	switch resolution {
	case "4K", "1080p":
		s.apply(15, entity.FeedbackSuccess, "High-quality resolution detected")
	case "720p":
		s.apply(5, entity.FeedbackWarning, "Consider upgrading to 1080p for better engagement")
	default:
		s.apply(-10, entity.FeedbackError, "Low resolution may reduce engagement")
	}
}

func scoreOrientation(s *scorer, platform entity.Platform, orientation string) {
	switch platform {
	case entity.PlatformTikTok, entity.PlatformInstagram:
		if orientation == "Portrait" {
			s.apply(20, entity.FeedbackSuccess, fmt.Sprintf("Portrait orientation is optimal for %s", platform))
		} else {
			s.apply(-15, entity.FeedbackError, fmt.Sprintf("Change to Portrait orientation for 40%% higher reach on %s", platform))
		}
	case entity.PlatformYouTube:
		if orientation == "Landscape" {
			s.apply(15, entity.FeedbackSuccess, "Landscape orientation is ideal for YouTube")
		} else {
			s.apply(-10, entity.FeedbackWarning, "Consider Landscape orientation for YouTube")
		}
	}
}

// captionLength counts UTF-16 code units, the unit client caption limits use.
func captionLength(caption string) int {
	n := 0
	for _, r := range caption {
		n += utf16.RuneLen(r)
	}
	return n
}

func scoreCaption(s *scorer, caption string) {
	n := captionLength(caption)
	switch {
	case n > 100 && n < 300:
		s.apply(10, entity.FeedbackSuccess, "Optimal caption length")
	case n < 50:
		s.apply(-5, entity.FeedbackWarning, "Add more context to your caption")
	case n > 500:
		s.apply(-5, entity.FeedbackWarning, "Consider shortening your caption")
	}
}

func scoreHashtags(s *scorer, count int) {
	switch {
	case count >= 3 && count <= 10:
		s.apply(10, entity.FeedbackSuccess, fmt.Sprintf("%d hashtags is within optimal range", count))
	case count < 3:
		s.apply(-5, entity.FeedbackWarning, fmt.Sprintf("Add %d more hashtags for better discoverability", 3-count))
	case count > 15:
		s.apply(-10, entity.FeedbackError, "Too many hashtags may look spammy")
	}
}

func scorePostingTime(s *scorer, postingTime string) {
	if postingTime == "" {
		return
	}
	hour, ok := ParseHour(postingTime)
	if !ok {
		return
	}
	switch {
	case (hour >= 9 && hour <= 11) || (hour >= 18 && hour <= 21):
		s.apply(10, entity.FeedbackSuccess, "Great posting time for maximum engagement")
	case hour >= 0 && hour <= 6:
		s.apply(-10, entity.FeedbackError, "Consider posting during peak hours (9-11 AM or 6-9 PM)")
	}
}

func scoreDay(s *scorer, day string) {
	switch day {
	case "Tuesday", "Wednesday", "Thursday":
		s.apply(5, entity.FeedbackSuccess, fmt.Sprintf("%s is a high-engagement day", day))
	}
}

// ParseHour reads the leading integer of an "HH:MM" string. Leading spaces
// and trailing garbage are tolerated; no digits at all reports false.
func ParseHour(postingTime string) (int, bool) {
	field, _, _ := strings.Cut(postingTime, ":")
	field = strings.TrimLeft(field, " \t")

	neg := false
	if strings.HasPrefix(field, "-") || strings.HasPrefix(field, "+") {
		neg = field[0] == '-'
		field = field[1:]
	}

	hour, digits := 0, 0
	for _, r := range field {
		if r < '0' || r > '9' || digits >= 6 {
			break
		}
		hour = hour*10 + int(r-'0')
		digits++
	}
	if digits == 0 {
		return 0, false
	}
	if neg {
		hour = -hour
	}
	return hour, true
}
