package app_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"adaptive-quiz-service/internal/ai"
	"adaptive-quiz-service/internal/app"
	"adaptive-quiz-service/internal/domain"
	"adaptive-quiz-service/internal/evaluator"
	"adaptive-quiz-service/internal/generator"
	"adaptive-quiz-service/internal/infra/memory"
	"adaptive-quiz-service/internal/progression"
)

const quizJSON = `{"title": "Arithmetic", "questions": [` +
	`{"id": "q1", "type": "multiple_choice", "prompt": "What is 2+2?", "choices": ["3", "4", "5", "6"], "answer": "B"}, ` +
	`{"id": "q2", "type": "multiple_choice", "prompt": "What is 3+3?", "choices": ["5", "6", "7", "8"], "answer": "B"}]}`

func testResources() []domain.Resource {
	return []domain.Resource{
		{ID: "r1", Subject: "math", Difficulty: 1, Locator: "gs://content/r1.pdf", Language: "en"},
		{ID: "r2", Subject: "math", Difficulty: 2, Locator: "gs://content/r2.pdf", Language: "en"},
	}
}

func testService(t *testing.T, provider ai.Provider, perf *memory.PerformanceStore) *app.QuizService {
	t.Helper()
	engine := progression.NewEngine(perf, progression.Config{
		PassThreshold:      70,
		MaxDifficulty:      5,
		EnableGamification: true,
	})
	return app.NewQuizService(
		memory.NewSessionStore(),
		generator.NewSelector(memory.NewResourceStore(testResources()), 3),
		generator.New(provider),
		evaluator.New(provider),
		engine,
		app.Settings{QuestionsPerQuiz: 2, TimeLimit: 30 * time.Minute, Language: "en"},
	)
}

func TestStartQuizOpensSession(t *testing.T) {
	svc := testService(t, ai.NewMockProvider(quizJSON), memory.NewPerformanceStore())

	session, err := svc.StartQuiz(context.Background(), "learner-1", "secondary", "math", 1)
	if err != nil {
		t.Fatalf("start quiz: %v", err)
	}
	quiz := session.Quiz()
	if len(quiz.Questions) != 2 || quiz.Subject != "math" || quiz.Difficulty != 1 {
		t.Fatalf("unexpected quiz: %+v", quiz)
	}

	got, err := svc.Session("learner-1")
	if err != nil {
		t.Fatalf("session lookup: %v", err)
	}
	if got != session {
		t.Fatalf("expected stored session to be returned")
	}
}

func TestStartQuizClampsDifficultyToUnlocked(t *testing.T) {
	provider := ai.NewMockProvider(quizJSON)
	svc := testService(t, provider, memory.NewPerformanceStore())

	// New learner has only level 1 unlocked; a level 4 request is clamped.
	session, err := svc.StartQuiz(context.Background(), "learner-1", "", "math", 4)
	if err != nil {
		t.Fatalf("start quiz: %v", err)
	}
	if got := session.Quiz().Difficulty; got != 1 {
		t.Fatalf("expected clamped difficulty 1, got %d", got)
	}
}

func TestStartQuizSuggestsDifficultyWhenUnset(t *testing.T) {
	perf := memory.NewPerformanceStore()
	if _, err := perf.UpdateProgression(context.Background(), "learner-1", "math", func(p *domain.SubjectProgress, _ []domain.PerformanceRecord) error {
		p.UnlockedLevel = 2
		return nil
	}); err != nil {
		t.Fatalf("seed progression: %v", err)
	}
	svc := testService(t, ai.NewMockProvider(quizJSON), perf)

	session, err := svc.StartQuiz(context.Background(), "learner-1", "", "math", 0)
	if err != nil {
		t.Fatalf("start quiz: %v", err)
	}
	if got := session.Quiz().Difficulty; got != 2 {
		t.Fatalf("expected suggested difficulty 2, got %d", got)
	}
}

func TestStartQuizNoContent(t *testing.T) {
	svc := testService(t, ai.NewMockProvider(quizJSON), memory.NewPerformanceStore())

	_, err := svc.StartQuiz(context.Background(), "learner-1", "", "history", 1)
	if !errors.Is(err, domain.ErrNoContentAvailable) {
		t.Fatalf("expected ErrNoContentAvailable, got %v", err)
	}
}

func TestStartQuizReplacesPriorSession(t *testing.T) {
	svc := testService(t, ai.NewMockProvider(quizJSON), memory.NewPerformanceStore())
	ctx := context.Background()

	first, err := svc.StartQuiz(ctx, "learner-1", "", "math", 1)
	if err != nil {
		t.Fatalf("first start: %v", err)
	}
	second, err := svc.StartQuiz(ctx, "learner-1", "", "math", 1)
	if err != nil {
		t.Fatalf("second start: %v", err)
	}
	if first == second {
		t.Fatalf("expected a fresh session")
	}
	got, err := svc.Session("learner-1")
	if err != nil {
		t.Fatalf("session lookup: %v", err)
	}
	if got != second {
		t.Fatalf("expected the newer session to be active")
	}
}

func TestSessionNotFound(t *testing.T) {
	svc := testService(t, ai.NewMockProvider(quizJSON), memory.NewPerformanceStore())

	if _, err := svc.Session("nobody"); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestCompleteQuizRecordsAndDropsSession(t *testing.T) {
	perf := memory.NewPerformanceStore()
	svc := testService(t, ai.NewMockProvider(quizJSON), perf)
	ctx := context.Background()

	session, err := svc.StartQuiz(ctx, "learner-1", "secondary", "math", 1)
	if err != nil {
		t.Fatalf("start quiz: %v", err)
	}
	for _, resp := range []string{"B", "A"} {
		if _, err := session.SubmitAnswer(ctx, resp); err != nil {
			t.Fatalf("submit %q: %v", resp, err)
		}
		if _, err := session.Advance(); err != nil {
			t.Fatalf("advance: %v", err)
		}
	}

	rec, progress, err := svc.CompleteQuiz(ctx, session)
	if err != nil {
		t.Fatalf("complete quiz: %v", err)
	}
	if rec.Score != 50 || rec.Passed {
		t.Fatalf("expected failing record at 50, got %+v", rec)
	}
	if rec.CorrectCount != 1 || rec.TotalQuestions != 2 {
		t.Fatalf("unexpected counts: %+v", rec)
	}
	if progress.UnlockedLevel != 1 {
		t.Fatalf("expected unlock unchanged, got %d", progress.UnlockedLevel)
	}
	if records := perf.Records(); len(records) != 1 {
		t.Fatalf("expected one persisted record, got %d", len(records))
	}
	if _, err := svc.Session("learner-1"); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected session dropped, got %v", err)
	}
}

func TestCompleteQuizOnlyOnce(t *testing.T) {
	svc := testService(t, ai.NewMockProvider(quizJSON), memory.NewPerformanceStore())
	ctx := context.Background()

	session, err := svc.StartQuiz(ctx, "learner-1", "", "math", 1)
	if err != nil {
		t.Fatalf("start quiz: %v", err)
	}
	session.ExpireByTimeout()

	if _, _, err := svc.CompleteQuiz(ctx, session); err != nil {
		t.Fatalf("first complete: %v", err)
	}
	if _, _, err := svc.CompleteQuiz(ctx, session); err == nil {
		t.Fatalf("expected second completion to fail")
	}
}

func TestCompleteQuizRejectsInProgress(t *testing.T) {
	svc := testService(t, ai.NewMockProvider(quizJSON), memory.NewPerformanceStore())
	ctx := context.Background()

	session, err := svc.StartQuiz(ctx, "learner-1", "", "math", 1)
	if err != nil {
		t.Fatalf("start quiz: %v", err)
	}
	if _, _, err := svc.CompleteQuiz(ctx, session); err == nil {
		t.Fatalf("expected completion of in-progress quiz to fail")
	}
}
