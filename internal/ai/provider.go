// Package ai abstracts the external text-generation capability used for
// quiz authoring and open-answer grading.
package ai

import "context"

// Provider is a blocking request/response text-generation capability.
// Output is raw text; callers own all parsing and validation.
type Provider interface {
	Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}
