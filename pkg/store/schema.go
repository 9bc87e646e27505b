package store

import (
	"strings"
	"sync"

	"github.com/pkg/errors"
	"github.com/xeipuuv/gojsonschema"
)

// lessonSchema describes the shape of a lesson document. Every field is
// optional and unknown fields are allowed; only the types of the fields the
// tooling reads are enforced.
const lessonSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "properties": {
    "title": {"type": "string"},
    "description": {"type": "string"},
    "sections": {
      "type": "array",
      "items": {
        "type": "object",
        "properties": {
          "title": {"type": "string"},
          "narrative": {"type": "string"},
          "nerd_notes": {"type": "string"},
          "examples": {
            "type": "array",
            "items": {
              "type": "object",
              "properties": {
                "name": {"type": "string"},
                "description": {"type": "string"},
                "sql": {"type": "string"},
                "nerd_notes": {"type": "string"}
              }
            }
          }
        }
      }
    },
    "exercises": {
      "type": "array",
      "items": {
        "type": "object",
        "properties": {
          "id": {"type": "string"},
          "prompt": {"type": "string"},
          "answer_sql": {"type": "string"}
        }
      }
    }
  }
}`

var (
	schemaOnce     sync.Once
	compiledSchema *gojsonschema.Schema
	schemaErr      error
)

func loadSchema() (*gojsonschema.Schema, error) {
	schemaOnce.Do(func() {
		compiledSchema, schemaErr = gojsonschema.NewSchema(gojsonschema.NewStringLoader(lessonSchema))
	})
	return compiledSchema, schemaErr
}

// ValidateLesson checks data against the lesson document schema.
func ValidateLesson(data []byte) error {
	schema, err := loadSchema()
	if err != nil {
		return errors.Wrap(err, "failed to compile lesson schema")
	}

	result, err := schema.Validate(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return errors.Wrap(err, "failed to run lesson schema validation")
	}
	if result.Valid() {
		return nil
	}

	var problems []string
	for _, desc := range result.Errors() {
		problems = append(problems, desc.String())
	}
	return errors.Wrap(ErrInvalidDocument, strings.Join(problems, "; "))
}
