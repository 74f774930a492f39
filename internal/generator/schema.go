package generator

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// quizSchema is the contract the text-generation capability must satisfy.
// Constructor-level invariants (choice letters, type/difficulty mix) are
// checked after decoding; this guards shape and required fields.
const quizSchema = `{
	"type": "object",
	"required": ["questions"],
	"properties": {
		"title": {"type": "string"},
		"questions": {
			"type": "array",
			"minItems": 1,
			"items": {
				"type": "object",
				"required": ["id", "type", "prompt", "answer"],
				"properties": {
					"id": {"type": "string", "minLength": 1},
					"type": {"enum": ["multiple_choice", "true_false", "open_ended"]},
					"prompt": {"type": "string", "minLength": 1},
					"choices": {"type": "array", "items": {"type": "string"}, "minItems": 2},
					"answer": {"type": ["string", "boolean"]}
				}
			}
		}
	}
}`

var quizSchemaLoader = gojsonschema.NewStringLoader(quizSchema)

// validateQuizPayload checks the normalized JSON document against quizSchema.
func validateQuizPayload(document string) error {
	result, err := gojsonschema.Validate(quizSchemaLoader, gojsonschema.NewStringLoader(document))
	if err != nil {
		return fmt.Errorf("schema validation: %w", err)
	}
	if result.Valid() {
		return nil
	}
	issues := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		issues = append(issues, desc.String())
	}
	return fmt.Errorf("schema violations: %s", strings.Join(issues, "; "))
}
