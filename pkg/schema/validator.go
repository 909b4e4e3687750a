// Package schema validates JSON documents that cross a trust boundary: the
// mediaInfo form field sent by clients and responses from the remote scorer.
package schema

import (
	"fmt"
	"strings"

	"engage-predict/pkg/apperror"

	"github.com/xeipuuv/gojsonschema"
)

const (
	MediaInfo          = "mediaInfo"
	PredictionResponse = "predictionResponse"
)

const mediaInfoSchema = `{
  "type": "object",
  "properties": {
    "type":         {"type": "string", "enum": ["image", "video"]},
    "orientation":  {"type": "string", "enum": ["Portrait", "Landscape", "Square"]},
    "resolution":   {"type": "string", "enum": ["4K", "1080p", "720p", "480p", "SD"]},
    "aspectRatio":  {"type": "string", "pattern": "^[0-9]+:[0-9]+$"},
    "width":        {"type": "integer", "minimum": 0},
    "height":       {"type": "integer", "minimum": 0},
    "qualityScore": {"type": "string", "enum": ["High", "Medium", "Low"]},
    "duration":     {"type": "integer", "minimum": 0}
  }
}`

const predictionResponseSchema = `{
  "type": "object",
  "required": ["score", "engagementLevel", "feedback", "tips", "predictedReach", "predictedLikes", "predictedComments"],
  "properties": {
    "score":           {"type": "number"},
    "engagementLevel": {"type": "string", "enum": ["High", "Medium", "Low"]},
    "feedback": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["type", "text", "impact"],
        "properties": {
          "type":   {"type": "string", "enum": ["success", "warning", "error"]},
          "text":   {"type": "string"},
          "impact": {"type": "string"}
        }
      }
    },
    "tips":              {"type": "array", "items": {"type": "string"}},
    "predictedReach":    {"type": "number", "minimum": 0},
    "predictedLikes":    {"type": "number", "minimum": 0},
    "predictedComments": {"type": "number", "minimum": 0}
  }
}`

type Validator struct {
	schemas map[string]*gojsonschema.Schema
}

func NewValidator() (*Validator, error) {
	v := &Validator{schemas: make(map[string]*gojsonschema.Schema)}
	for name, doc := range map[string]string{
		MediaInfo:          mediaInfoSchema,
		PredictionResponse: predictionResponseSchema,
	} {
		if err := v.loadSchema(name, doc); err != nil {
			return nil, err
		}
	}
	return v, nil
}

// MustNewValidator panics if a built-in schema fails to compile.
func MustNewValidator() *Validator {
	v, err := NewValidator()
	if err != nil {
		panic(err)
	}
	return v
}

func (v *Validator) loadSchema(name, schemaJSON string) error {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(schemaJSON))
	if err != nil {
		return fmt.Errorf("invalid schema for %s: %w", name, err)
	}
	v.schemas[name] = schema
	return nil
}

// Validate checks doc against the named schema. Violations come back as an
// apperror of kind VALIDATION listing every failed constraint.
func (v *Validator) Validate(name string, doc []byte) error {
	schema, ok := v.schemas[name]
	if !ok {
		return fmt.Errorf("schema not found: %s", name)
	}

	result, err := schema.Validate(gojsonschema.NewBytesLoader(doc))
	if err != nil {
		return apperror.Wrap(apperror.KindValidation, fmt.Sprintf("%s is not valid JSON", name), err)
	}
	if !result.Valid() {
		var errs []string
		for _, desc := range result.Errors() {
			errs = append(errs, desc.String())
		}
		return apperror.Validation(fmt.Sprintf("invalid %s: %s", name, strings.Join(errs, "; ")))
	}
	return nil
}
