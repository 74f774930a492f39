// Package evaluator judges submitted answers against canonical answers.
// Closed-form questions are graded by exact comparison; open-ended answers
// are delegated to the natural-language judgment capability.
package evaluator

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"adaptive-quiz-service/internal/ai"
	"adaptive-quiz-service/internal/domain"
	"adaptive-quiz-service/internal/llmjson"

	"github.com/xeipuuv/gojsonschema"
)

// Feedback strings for closed-form grading.
const (
	FeedbackCorrect   = "Correct!"
	FeedbackIncorrect = "Incorrect."
)

// Verdict is the structured outcome of grading one answer.
type Verdict struct {
	Correct  bool   `json:"correct"`
	Score    int    `json:"score"` // 0-100, open-ended only
	Feedback string `json:"feedback"`
}

// EvaluateClosed grades a multiple-choice or true/false response by exact,
// case-insensitive comparison with the canonical answer. Pure function.
func EvaluateClosed(question domain.Question, response string) Verdict {
	correct := strings.EqualFold(strings.TrimSpace(response), question.Answer)
	feedback := FeedbackIncorrect
	if correct {
		feedback = FeedbackCorrect
	}
	return Verdict{Correct: correct, Feedback: feedback}
}

// Evaluator grades open-ended answers through an ai.Provider.
type Evaluator struct {
	provider ai.Provider
}

// New creates an Evaluator backed by the given provider.
func New(provider ai.Provider) *Evaluator {
	return &Evaluator{provider: provider}
}

const judgeSystemPrompt = "You are a strict but fair grader. Compare the student's answer with the reference answer and respond with a single JSON object: {\"correct\": bool, \"score\": integer 0-100, \"feedback\": \"one or two sentences\"}. Nothing else."

// EvaluateOpen grades a free-text response against the canonical answer.
// An unreachable capability or an unparseable verdict surfaces as
// ErrEvaluationFailed; the caller may re-invoke, nothing retries here.
func (e *Evaluator) EvaluateOpen(ctx context.Context, questionPrompt, canonicalAnswer, response string) (Verdict, error) {
	var sb strings.Builder
	sb.WriteString("Question:\n")
	sb.WriteString(questionPrompt)
	sb.WriteString("\n\nReference answer:\n")
	sb.WriteString(canonicalAnswer)
	sb.WriteString("\n\nStudent answer:\n")
	sb.WriteString(response)
	sb.WriteString("\n")

	raw, err := e.provider.Generate(ctx, judgeSystemPrompt, sb.String())
	if err != nil {
		return Verdict{}, fmt.Errorf("%w: %v", domain.ErrEvaluationFailed, err)
	}

	verdict, err := parseVerdict(raw)
	if err != nil {
		return Verdict{}, fmt.Errorf("%w: %v", domain.ErrEvaluationFailed, err)
	}
	return verdict, nil
}

const verdictSchema = `{
	"type": "object",
	"required": ["correct", "score", "feedback"],
	"properties": {
		"correct": {"type": "boolean"},
		"score": {"type": "integer"},
		"feedback": {"type": "string"}
	}
}`

var verdictSchemaLoader = gojsonschema.NewStringLoader(verdictSchema)

func parseVerdict(raw string) (Verdict, error) {
	document, err := llmjson.Normalize(raw)
	if err != nil {
		return Verdict{}, err
	}

	result, err := gojsonschema.Validate(verdictSchemaLoader, gojsonschema.NewStringLoader(document))
	if err != nil {
		return Verdict{}, fmt.Errorf("verdict schema validation: %w", err)
	}
	if !result.Valid() {
		issues := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			issues = append(issues, desc.String())
		}
		return Verdict{}, fmt.Errorf("verdict schema violations: %s", strings.Join(issues, "; "))
	}

	var v Verdict
	if err := json.Unmarshal([]byte(document), &v); err != nil {
		return Verdict{}, fmt.Errorf("decode verdict: %w", err)
	}
	// Out-of-range scores are clamped rather than rejected.
	if v.Score < 0 {
		v.Score = 0
	}
	if v.Score > 100 {
		v.Score = 100
	}
	return v, nil
}
