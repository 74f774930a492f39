// Package generator turns a subject, difficulty and grounding resources into
// a validated quiz via the text-generation capability.
package generator

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"adaptive-quiz-service/internal/ai"
	"adaptive-quiz-service/internal/domain"
	"adaptive-quiz-service/internal/llmjson"
)

// Request describes one quiz to generate.
type Request struct {
	Subject       string
	Difficulty    int
	Resources     []domain.Resource
	QuestionCount int
	Language      string
}

// Generator delegates question authoring to an ai.Provider and owns the
// contract, validation and repair of its output.
type Generator struct {
	provider ai.Provider
	clock    func() time.Time
}

// Option configures a Generator.
type Option func(*Generator)

// WithClock injects a clock for deterministic start timestamps in tests.
func WithClock(now func() time.Time) Option {
	return func(g *Generator) {
		g.clock = now
	}
}

// New creates a Generator backed by the given provider.
func New(provider ai.Provider, opts ...Option) *Generator {
	g := &Generator{provider: provider, clock: time.Now}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// quizPayload mirrors the JSON contract in quizSchema.
type quizPayload struct {
	Title     string `json:"title"`
	Questions []struct {
		ID      string          `json:"id"`
		Type    string          `json:"type"`
		Prompt  string          `json:"prompt"`
		Choices []string        `json:"choices"`
		Answer  json.RawMessage `json:"answer"`
	} `json:"questions"`
}

// Generate produces a quiz with exactly req.QuestionCount questions.
// A capability error or unparseable output (after the single repair pass)
// surfaces as ErrGenerationFailed; a parseable payload that breaks the
// question contract surfaces as ErrInvalidQuestionSchema. Nothing is retried
// here; the caller decides whether to re-invoke.
func (g *Generator) Generate(ctx context.Context, req Request) (*domain.Quiz, error) {
	if req.Difficulty < domain.MinDifficulty || req.Difficulty > domain.MaxDifficulty {
		return nil, fmt.Errorf("%w: difficulty %d out of range", domain.ErrGenerationFailed, req.Difficulty)
	}
	if req.QuestionCount <= 0 {
		return nil, fmt.Errorf("%w: question count must be positive", domain.ErrGenerationFailed)
	}
	if len(req.Resources) == 0 {
		return nil, fmt.Errorf("%w: no resources to ground generation", domain.ErrNoContentAvailable)
	}

	raw, err := g.provider.Generate(ctx, systemPrompt, buildUserPrompt(req))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrGenerationFailed, err)
	}

	document, err := llmjson.Normalize(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrGenerationFailed, err)
	}

	if err := validateQuizPayload(document); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidQuestionSchema, err)
	}

	var payload quizPayload
	if err := json.Unmarshal([]byte(document), &payload); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrGenerationFailed, err)
	}

	questions, err := buildQuestions(payload, req.Difficulty)
	if err != nil {
		return nil, err
	}
	if len(questions) < req.QuestionCount {
		return nil, fmt.Errorf("%w: got %d questions, need %d", domain.ErrGenerationFailed, len(questions), req.QuestionCount)
	}
	questions = questions[:req.QuestionCount]

	title := payload.Title
	if title == "" {
		title = fmt.Sprintf("%s quiz (level %d)", req.Subject, req.Difficulty)
	}

	return &domain.Quiz{
		ID:             newQuizID(),
		Title:          title,
		Subject:        req.Subject,
		Difficulty:     req.Difficulty,
		Questions:      questions,
		TotalQuestions: req.QuestionCount,
		CurrentIndex:   0,
		StartedAt:      g.clock(),
	}, nil
}

func buildQuestions(payload quizPayload, difficulty int) ([]domain.Question, error) {
	questions := make([]domain.Question, 0, len(payload.Questions))
	seen := make(map[string]struct{}, len(payload.Questions))

	for _, q := range payload.Questions {
		if _, dup := seen[q.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate question id %q", domain.ErrInvalidQuestionSchema, q.ID)
		}
		seen[q.ID] = struct{}{}

		qType := domain.QuestionType(q.Type)
		if !domain.TypeAllowed(difficulty, qType) {
			return nil, fmt.Errorf("%w: type %s not allowed at difficulty %d", domain.ErrInvalidQuestionSchema, q.Type, difficulty)
		}

		answer, err := decodeAnswer(q.Answer)
		if err != nil {
			return nil, fmt.Errorf("%w: question %q: %v", domain.ErrInvalidQuestionSchema, q.ID, err)
		}

		var question domain.Question
		switch qType {
		case domain.MultipleChoice:
			question, err = domain.NewMultipleChoice(q.ID, q.Prompt, q.Choices, answer)
		case domain.TrueFalse:
			question, err = domain.NewTrueFalse(q.ID, q.Prompt, strings.EqualFold(answer, "true"))
		case domain.OpenEnded:
			question, err = domain.NewOpenEnded(q.ID, q.Prompt, answer)
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrInvalidQuestionSchema, err)
		}
		questions = append(questions, question)
	}
	return questions, nil
}

// decodeAnswer accepts both string answers and bare booleans, which models
// emit for true/false questions despite the prompt asking for strings.
func decodeAnswer(raw json.RawMessage) (string, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, nil
	}
	var b bool
	if err := json.Unmarshal(raw, &b); err == nil {
		if b {
			return "true", nil
		}
		return "false", nil
	}
	return "", fmt.Errorf("answer is neither string nor boolean")
}

const idCharset = "abcdefghijklmnopqrstuvwxyz0123456789"

func newQuizID() string {
	b := make([]byte, 12)
	for i := range b {
		b[i] = idCharset[rand.Intn(len(idCharset))]
	}
	return string(b)
}
