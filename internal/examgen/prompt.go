package examgen

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/alexandernovadev/languagesai/internal/exam"
)

const generateSystemPrompt = `You write language exams for learners preparing for CEFR certification.

Rules:
- Write exactly the requested number of questions, in the requested language.
- Match the requested CEFR level in vocabulary and sentence complexity.
- Only use the requested question types and spread the questions across the requested grammar topics.
- "unique": 3-4 options, exactly one correct. Set correctIndex, leave correctIndices empty and correctAnswer "".
- "multiple": 4-5 options, two or more correct. List them all in correctIndices and set correctIndex to the first one. correctAnswer is "".
- "fillInBlank": mark the gap with ___. Either give options with correctIndex, or give no options, correctIndex -1 and the missing word(s) in correctAnswer.
- "translateText": no options, correctIndex -1, the reference translation in correctAnswer.
- Distractors must be plausible mistakes a learner at this level would make, never two acceptable answers.
- Keep explanations short and specific to the question.`

const reviewSystemPrompt = `You review language exams written for CEFR certification practice.

Check every question for: a single unambiguous correct answer, a correct answer key, the requested level, the requested grammar topics, and clean formatting.
Report each problem as an issue with the zero-based question index. Mark the exam valid only when no question needs to change.
Set thumbsUp when you would hand the exam to a learner as is. Suggestions are optional improvements that do not block validity.`

const correctSystemPrompt = `You fix language exams after a review.

Rewrite the exam so that every reported issue is resolved. Keep questions that have no issues unchanged.
Keep the same number of questions, the same question types, level and grammar topics.
Follow the same answer key rules as the original exam: options with correctIndex (and correctIndices for "multiple"), or no options, correctIndex -1 and correctAnswer.`

// buildParamsBlock renders the generation parameters for a prompt.
func buildParamsBlock(p exam.Parameters) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Language: %s\n", p.Language)
	fmt.Fprintf(&b, "Level: %s\n", p.Difficulty)
	fmt.Fprintf(&b, "Grammar topics: %s\n", strings.Join(p.GrammarTopics, ", "))

	types := make([]string, len(p.QuestionTypes))
	for i, t := range p.QuestionTypes {
		types[i] = string(t)
	}
	fmt.Fprintf(&b, "Question types: %s\n", strings.Join(types, ", "))
	fmt.Fprintf(&b, "Number of questions: %d\n", p.QuestionCount)

	topic := p.Topic
	if topic == "" {
		topic = "Any"
	}
	fmt.Fprintf(&b, "Theme: %s", topic)

	return b.String()
}

// buildGenerateMessage constructs the user message for exam generation.
func buildGenerateMessage(p exam.Parameters) string {
	return "Write an exam with these parameters:\n" + buildParamsBlock(p)
}

// buildReviewMessage constructs the user message for reviewing an exam.
func buildReviewMessage(e *exam.GeneratedExam, p exam.Parameters) (string, error) {
	payload, err := json.MarshalIndent(e, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode exam: %w", err)
	}

	var b strings.Builder
	b.WriteString("The exam was requested with these parameters:\n")
	b.WriteString(buildParamsBlock(p))
	b.WriteString("\n\nExam:\n")
	b.Write(payload)
	return b.String(), nil
}

// buildCorrectMessage constructs the user message for correcting an exam.
func buildCorrectMessage(e *exam.GeneratedExam, v *exam.ValidationResult, p exam.Parameters) (string, error) {
	msg, err := buildReviewMessage(e, p)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString(msg)
	b.WriteString("\n\nReview feedback:\n")
	if v.Feedback != "" {
		b.WriteString(v.Feedback)
		b.WriteString("\n")
	}

	b.WriteString("\nIssues:\n")
	b.WriteString(buildIssues(v.Issues))

	if len(v.Suggestions) > 0 {
		b.WriteString("\n\nSuggestions:\n")
		for _, s := range v.Suggestions {
			fmt.Fprintf(&b, "- %s\n", s)
		}
	}
	return strings.TrimRight(b.String(), "\n"), nil
}

func buildIssues(issues []exam.Issue) string {
	if len(issues) == 0 {
		return "None"
	}
	var b strings.Builder
	for _, is := range issues {
		fmt.Fprintf(&b, "- question %d [%s]: %s\n", is.QuestionIndex, is.Type, is.Message)
	}
	return strings.TrimRight(b.String(), "\n")
}
