package domain

import (
	"fmt"
	"math"
	"time"
)

// Difficulty bounds for quizzes and resources (1 = easiest).
const (
	MinDifficulty = 1
	MaxDifficulty = 5
)

// QuestionType is the closed set of supported question kinds.
type QuestionType string

const (
	MultipleChoice QuestionType = "multiple_choice"
	TrueFalse      QuestionType = "true_false"
	OpenEnded      QuestionType = "open_ended"
)

// AllowedTypes returns the question types a quiz at the given difficulty may contain.
func AllowedTypes(difficulty int) []QuestionType {
	switch difficulty {
	case 1:
		return []QuestionType{MultipleChoice}
	case 2:
		return []QuestionType{MultipleChoice, TrueFalse}
	case 3:
		return []QuestionType{MultipleChoice, TrueFalse, OpenEnded}
	case 4:
		return []QuestionType{MultipleChoice, OpenEnded}
	case 5:
		return []QuestionType{OpenEnded}
	default:
		return nil
	}
}

// TypeAllowed reports whether t may appear in a quiz at the given difficulty.
func TypeAllowed(difficulty int, t QuestionType) bool {
	for _, allowed := range AllowedTypes(difficulty) {
		if allowed == t {
			return true
		}
	}
	return false
}

// Resource is an administrator-curated content item used to ground question generation.
type Resource struct {
	ID         string `json:"id"`
	Subject    string `json:"subject"`
	Difficulty int    `json:"difficulty"`
	Locator    string `json:"locator"` // opaque reference to external storage
	Language   string `json:"language"`
}

// Question is one quiz item. Response, Correct, Score and Feedback are set
// together when the question is answered and never touched again.
type Question struct {
	ID       string       `json:"id"`
	Type     QuestionType `json:"type"`
	Prompt   string       `json:"prompt"`
	Choices  []string     `json:"choices,omitempty"` // multiple_choice only
	Answer   string       `json:"answer"`            // canonical answer
	Response *string      `json:"response,omitempty"`
	Correct  *bool        `json:"correct,omitempty"`
	Score    *int         `json:"score,omitempty"` // open_ended only, 0-100
	Feedback string       `json:"feedback,omitempty"`
}

// NewMultipleChoice builds a multiple-choice question. At least two choices
// are required; the canonical answer is a choice letter ("A", "B", ...).
func NewMultipleChoice(id, prompt string, choices []string, answer string) (Question, error) {
	if id == "" || prompt == "" || answer == "" {
		return Question{}, fmt.Errorf("multiple choice question %q: id, prompt and answer are required", id)
	}
	if len(choices) < 2 {
		return Question{}, fmt.Errorf("multiple choice question %q: need at least 2 choices, got %d", id, len(choices))
	}
	return Question{ID: id, Type: MultipleChoice, Prompt: prompt, Choices: choices, Answer: answer}, nil
}

// NewTrueFalse builds a true/false question.
func NewTrueFalse(id, prompt string, answer bool) (Question, error) {
	if id == "" || prompt == "" {
		return Question{}, fmt.Errorf("true/false question %q: id and prompt are required", id)
	}
	canonical := "false"
	if answer {
		canonical = "true"
	}
	return Question{ID: id, Type: TrueFalse, Prompt: prompt, Answer: canonical}, nil
}

// NewOpenEnded builds an open-ended question with a free-text canonical answer.
func NewOpenEnded(id, prompt, answer string) (Question, error) {
	if id == "" || prompt == "" || answer == "" {
		return Question{}, fmt.Errorf("open-ended question %q: id, prompt and answer are required", id)
	}
	return Question{ID: id, Type: OpenEnded, Prompt: prompt, Answer: answer}, nil
}

// Answered reports whether the question has already received a response.
func (q *Question) Answered() bool {
	return q.Response != nil
}

// Contribution is the question's share of the aggregate score: the explicit
// 0-100 score for evaluated open-ended questions, otherwise 100 or 0.
func (q *Question) Contribution() int {
	if q.Type == OpenEnded && q.Score != nil {
		return *q.Score
	}
	if q.Correct != nil && *q.Correct {
		return 100
	}
	return 0
}

// Quiz is a single generated assessment instance, owned by one session.
type Quiz struct {
	ID             string     `json:"id"`
	Title          string     `json:"title"`
	Subject        string     `json:"subject"`
	Difficulty     int        `json:"difficulty"`
	Questions      []Question `json:"questions"`
	TotalQuestions int        `json:"totalQuestions"`
	CurrentIndex   int        `json:"currentIndex"`
	Score          *int       `json:"score,omitempty"`
	Completed      bool       `json:"completed"`
	StartedAt      time.Time  `json:"startedAt"`
	FinishedAt     *time.Time `json:"finishedAt,omitempty"`
}

// AggregateScore is the arithmetic mean of per-question contributions,
// rounded to the nearest integer.
func (q *Quiz) AggregateScore() int {
	if len(q.Questions) == 0 {
		return 0
	}
	total := 0
	for i := range q.Questions {
		total += q.Questions[i].Contribution()
	}
	return int(math.Round(float64(total) / float64(len(q.Questions))))
}

// CorrectCount counts questions judged correct.
func (q *Quiz) CorrectCount() int {
	n := 0
	for i := range q.Questions {
		if q.Questions[i].Correct != nil && *q.Questions[i].Correct {
			n++
		}
	}
	return n
}

// PerformanceRecord is the durable, immutable result of one completed quiz.
type PerformanceRecord struct {
	LearnerID      string    `json:"learnerId"`
	Subject        string    `json:"subject"`
	Difficulty     int       `json:"difficulty"`
	EducationLevel string    `json:"educationLevel,omitempty"`
	Score          int       `json:"score"`
	Passed         bool      `json:"passed"`
	TotalQuestions int       `json:"totalQuestions"`
	CorrectCount   int       `json:"correctCount"`
	StartedAt      time.Time `json:"startedAt"`
	FinishedAt     time.Time `json:"finishedAt"`
}

// SubjectProgress is a learner's mutable per-subject progression state.
type SubjectProgress struct {
	UnlockedLevel int       `json:"unlockedLevel"`
	AverageScore  int       `json:"averageScore"`
	LastScore     int       `json:"lastScore"`
	LastAttemptAt time.Time `json:"lastAttemptAt"`
}

// NewSubjectProgress establishes the defaults for a subject a learner has
// never attempted: difficulty 1 unlocked, no history.
func NewSubjectProgress() SubjectProgress {
	return SubjectProgress{UnlockedLevel: MinDifficulty}
}
