package generator

import (
	"fmt"
	"strings"

	"adaptive-quiz-service/internal/domain"
)

const systemPrompt = "You are an expert assessment author. You write rigorous, unambiguous quiz questions grounded strictly in the study material you are given, and you respond with a single JSON object and nothing else."

func buildUserPrompt(req Request) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Write a quiz of exactly %d questions about %q at difficulty %d (1=easiest, 5=hardest).\n\n", req.QuestionCount, req.Subject, req.Difficulty))

	if req.Language != "" {
		sb.WriteString(fmt.Sprintf("Write all prompts, choices and answers in %s.\n\n", req.Language))
	}

	sb.WriteString("Base every question on this study material:\n")
	for _, r := range req.Resources {
		lang := r.Language
		if lang == "" {
			lang = "unspecified language"
		}
		sb.WriteString(fmt.Sprintf("- %s (difficulty %d, %s): %s\n", r.ID, r.Difficulty, lang, r.Locator))
	}
	sb.WriteString("\n")

	sb.WriteString("Allowed question types for this difficulty: ")
	types := domain.AllowedTypes(req.Difficulty)
	names := make([]string, len(types))
	for i, t := range types {
		names[i] = string(t)
	}
	sb.WriteString(strings.Join(names, ", "))
	sb.WriteString(". Do not use any other type.\n\n")

	sb.WriteString("Requirements:\n")
	sb.WriteString("- multiple_choice questions carry 4 choices and the answer is the choice letter (A, B, C or D)\n")
	sb.WriteString("- true_false questions carry no choices and the answer is the literal string \"true\" or \"false\"\n")
	sb.WriteString("- open_ended questions carry no choices and the answer is a short model answer\n")
	sb.WriteString("- every question has a unique id (q1, q2, ...)\n")
	sb.WriteString("- wrong choices must be plausible; never give the answer away in the prompt\n\n")

	sb.WriteString("Respond with exactly this JSON shape:\n")
	sb.WriteString(`{"title": "...", "questions": [{"id": "q1", "type": "multiple_choice", "prompt": "...", "choices": ["...", "...", "...", "..."], "answer": "A"}]}`)
	sb.WriteString("\n")

	return sb.String()
}
