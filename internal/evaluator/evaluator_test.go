package evaluator

import (
	"context"
	"errors"
	"testing"

	"adaptive-quiz-service/internal/ai"
	"adaptive-quiz-service/internal/domain"
)

func TestEvaluateClosedMultipleChoice(t *testing.T) {
	q, err := domain.NewMultipleChoice("q1", "2+2?", []string{"3", "4"}, "B")
	if err != nil {
		t.Fatalf("build question: %v", err)
	}

	if v := EvaluateClosed(q, "B"); !v.Correct || v.Feedback != FeedbackCorrect {
		t.Fatalf("expected correct verdict, got %+v", v)
	}
	if v := EvaluateClosed(q, "b"); !v.Correct {
		t.Fatalf("expected case-insensitive match, got %+v", v)
	}
	if v := EvaluateClosed(q, "A"); v.Correct || v.Feedback != FeedbackIncorrect {
		t.Fatalf("expected incorrect verdict, got %+v", v)
	}
}

func TestEvaluateClosedTrueFalse(t *testing.T) {
	q, err := domain.NewTrueFalse("q1", "Is 7 prime?", true)
	if err != nil {
		t.Fatalf("build question: %v", err)
	}

	if v := EvaluateClosed(q, "TRUE"); !v.Correct {
		t.Fatalf("expected case-insensitive true, got %+v", v)
	}
	if v := EvaluateClosed(q, " true "); !v.Correct {
		t.Fatalf("expected trimmed match, got %+v", v)
	}
	if v := EvaluateClosed(q, "false"); v.Correct {
		t.Fatalf("expected incorrect verdict, got %+v", v)
	}
}

func TestEvaluateOpenParsesVerdict(t *testing.T) {
	provider := ai.NewMockProvider("Grading done.\n{\"correct\": true, \"score\": 85, \"feedback\": \"Good reasoning.\"}")
	eval := New(provider)

	v, err := eval.EvaluateOpen(context.Background(), "Explain limits.", "A limit is...", "My answer")
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if !v.Correct || v.Score != 85 || v.Feedback != "Good reasoning." {
		t.Fatalf("unexpected verdict: %+v", v)
	}
}

func TestEvaluateOpenClampsScore(t *testing.T) {
	provider := ai.NewMockProvider(`{"correct": true, "score": 140, "feedback": "ok"}`)
	eval := New(provider)

	v, err := eval.EvaluateOpen(context.Background(), "p", "a", "r")
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if v.Score != 100 {
		t.Fatalf("expected clamped score 100, got %d", v.Score)
	}
}

func TestEvaluateOpenRejectsMalformedVerdicts(t *testing.T) {
	cases := map[string]string{
		"missing fields":    `{"correct": true}`,
		"non-integer score": `{"correct": true, "score": "high", "feedback": "ok"}`,
		"no json":           "I think it is correct.",
	}
	for name, raw := range cases {
		eval := New(ai.NewMockProvider(raw))
		if _, err := eval.EvaluateOpen(context.Background(), "p", "a", "r"); !errors.Is(err, domain.ErrEvaluationFailed) {
			t.Fatalf("%s: expected evaluation failure, got %v", name, err)
		}
	}
}

func TestEvaluateOpenWrapsProviderError(t *testing.T) {
	provider := ai.NewMockProvider()
	provider.Err = errors.New("capability down")
	eval := New(provider)

	if _, err := eval.EvaluateOpen(context.Background(), "p", "a", "r"); !errors.Is(err, domain.ErrEvaluationFailed) {
		t.Fatalf("expected evaluation failure, got %v", err)
	}
}
