package concept

import (
	"fmt"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"
)

const payloadSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "additionalProperties": {
    "type": "object",
    "properties": {
      "title":           {"type": "string"},
      "concept":         {"type": "string"},
      "definition":      {"type": "string"},
      "explanationText": {"type": "string"},
      "example":         {"type": "string"},
      "exampleText":     {"type": "string"},
      "formula":         {"type": "string"},
      "formulaText":     {"type": "string"},
      "goal":            {"type": "string"},
      "formula_breakdown": {
        "type": ["array", "null"],
        "items": {
          "type": "object",
          "required": ["part"],
          "properties": {
            "part":        {"type": "string"},
            "icon":        {"type": "string"},
            "description": {"type": "string"}
          }
        }
      },
      "matching": {
        "type": ["object", "null"],
        "required": ["pairs"],
        "properties": {
          "pairs": {
            "type": "array",
            "items": {
              "type": "object",
              "required": ["left", "right"],
              "properties": {
                "left":  {"type": "string"},
                "right": {"type": "string"}
              }
            }
          }
        }
      },
      "animation":       {"type": ["string", "null"]},
      "animationId":     {"type": ["string", "null"]},
      "quiz": {
        "type": ["object", "null"],
        "required": ["question", "options"],
        "properties": {
          "question":      {"type": "string"},
          "options":       {"type": "array", "items": {"type": "string"}},
          "answer":        {"type": "string"},
          "correctAnswer": {"type": "string"}
        }
      }
    }
  }
}`

var compiledSchema = sync.OnceValues(func() (*gojsonschema.Schema, error) {
	return gojsonschema.NewSchema(gojsonschema.NewStringLoader(payloadSchema))
})

// Decode validates a concept payload against the payload schema and decodes
// it into an ordered Set.
func Decode(data []byte) (*Set, error) {
	schema, err := compiledSchema()
	if err != nil {
		return nil, fmt.Errorf("compiling concept schema: %w", err)
	}

	result, err := schema.Validate(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			msgs = append(msgs, e.String())
		}
		return nil, fmt.Errorf("%w: %s", ErrInvalidPayload, strings.Join(msgs, "; "))
	}

	var set Set
	if err := set.UnmarshalJSON(data); err != nil {
		return nil, err
	}
	return &set, nil
}
