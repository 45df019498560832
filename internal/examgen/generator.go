// Package examgen generates, reviews and corrects language exams with an LLM.
package examgen

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/alexandernovadev/languagesai/internal/exam"
	"github.com/alexandernovadev/languagesai/internal/llm"
)

// LLM request purposes, recorded with every logged request.
const (
	PurposeGenerate = "exam-gen"
	PurposeReview   = "exam-review"
	PurposeCorrect  = "exam-correct"
)

// LLMGenerator produces exams using an LLM provider.
type LLMGenerator struct {
	provider llm.Provider
	config   Config
}

// New creates a new LLMGenerator with the given provider and config.
func New(provider llm.Provider, cfg Config) *LLMGenerator {
	return &LLMGenerator{provider: provider, config: cfg}
}

// questionOutput is one raw question before it is mapped to the exam model.
type questionOutput struct {
	Type           string   `json:"type"`
	Text           string   `json:"text"`
	Options        []string `json:"options"`
	CorrectIndex   int      `json:"correctIndex"`
	CorrectIndices []int    `json:"correctIndices"`
	CorrectAnswer  string   `json:"correctAnswer"`
	GrammarTopic   string   `json:"grammarTopic"`
	Explanation    string   `json:"explanation"`
}

type examOutput struct {
	Title     string           `json:"title"`
	Questions []questionOutput `json:"questions"`
}

// Generate writes a new exam for params.
func (g *LLMGenerator) Generate(ctx context.Context, params exam.Parameters) (*exam.GeneratedExam, error) {
	ctx = withCall(ctx, PurposeGenerate, params)
	return g.writeExam(ctx, generateSystemPrompt, buildGenerateMessage(params), params)
}

// Validate asks the LLM to review e.
func (g *LLMGenerator) Validate(ctx context.Context, e *exam.GeneratedExam, params exam.Parameters) (*exam.ValidationResult, error) {
	ctx = withCall(ctx, PurposeReview, params)

	msg, err := buildReviewMessage(e, params)
	if err != nil {
		return nil, err
	}

	resp, err := g.provider.Generate(ctx, llm.Request{
		System:      reviewSystemPrompt,
		Messages:    []llm.Message{{Role: llm.RoleUser, Content: msg}},
		Schema:      ReviewSchema,
		MaxTokens:   g.config.ReviewMaxTokens,
		Temperature: g.config.ReviewTemperature,
	})
	if err != nil {
		return nil, fmt.Errorf("LLM review failed: %w", err)
	}

	var result exam.ValidationResult
	if err := json.Unmarshal(resp.Content, &result); err != nil {
		return nil, fmt.Errorf("failed to parse LLM review: %w", err)
	}
	if result.Issues == nil {
		result.Issues = []exam.Issue{}
	}
	return &result, nil
}

// Correct rewrites e so that the issues in v are resolved.
func (g *LLMGenerator) Correct(ctx context.Context, e *exam.GeneratedExam, v *exam.ValidationResult, params exam.Parameters) (*exam.GeneratedExam, error) {
	ctx = withCall(ctx, PurposeCorrect, params)

	msg, err := buildCorrectMessage(e, v, params)
	if err != nil {
		return nil, err
	}
	return g.writeExam(ctx, correctSystemPrompt, msg, params)
}

func (g *LLMGenerator) writeExam(ctx context.Context, system, msg string, params exam.Parameters) (*exam.GeneratedExam, error) {
	resp, err := g.provider.Generate(ctx, llm.Request{
		System:      system,
		Messages:    []llm.Message{{Role: llm.RoleUser, Content: msg}},
		Schema:      ExamSchema,
		MaxTokens:   g.config.MaxTokens,
		Temperature: g.config.Temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("LLM generation failed: %w", err)
	}

	var raw examOutput
	if err := json.Unmarshal(resp.Content, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse LLM response: %w", err)
	}

	e := &exam.GeneratedExam{
		Title:     strings.TrimSpace(raw.Title),
		Questions: make([]exam.Question, len(raw.Questions)),
	}
	for i, q := range raw.Questions {
		e.Questions[i] = toQuestion(q)
	}

	for _, v := range g.config.Validators {
		if verr := v.Validate(e, params); verr != nil {
			return nil, verr
		}
	}
	return e, nil
}

// toQuestion maps the flat LLM output to the exam model. The answer key that
// applies is chosen by whether options are present.
func toQuestion(o questionOutput) exam.Question {
	q := exam.Question{
		Type:         exam.QuestionType(o.Type),
		Text:         strings.TrimSpace(o.Text),
		GrammarTopic: o.GrammarTopic,
		Explanation:  strings.TrimSpace(o.Explanation),
	}

	for _, opt := range o.Options {
		q.Options = append(q.Options, strings.TrimSpace(opt))
	}

	if !q.HasOptions() {
		q.CorrectAnswer = strings.TrimSpace(o.CorrectAnswer)
		return q
	}

	idx := o.CorrectIndex
	if idx < 0 && len(o.CorrectIndices) > 0 {
		idx = o.CorrectIndices[0]
	}
	q.CorrectIndex = &idx
	if q.Type == exam.TypeMultiple && len(o.CorrectIndices) > 0 {
		q.CorrectIndices = append([]int(nil), o.CorrectIndices...)
	}
	return q
}

func withCall(ctx context.Context, purpose string, p exam.Parameters) context.Context {
	return llm.WithCall(ctx, llm.Call{
		Purpose:  purpose,
		Language: p.Language,
		Level:    string(p.Difficulty),
	})
}
