package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/google/uuid"

	"quizzer-backend/internal/llm"
	"quizzer-backend/internal/models"
)

type QuestionGenerator struct {
	llm llm.Provider
}

func NewQuestionGenerator(provider llm.Provider) *QuestionGenerator {
	return &QuestionGenerator{llm: provider}
}

// generatedQuestion mirrors the object shape the prompt asks the model for.
type generatedQuestion struct {
	Text       string   `json:"text"`
	Options    []string `json:"options"`
	AnswerKey  string   `json:"answerKey"`
	Difficulty string   `json:"difficulty"`
}

// Generate asks the model for count questions and returns the ones that pass
// validation, in reply order.
func (g *QuestionGenerator) Generate(ctx context.Context, subject string, grade int, difficulty models.Difficulty, count int) ([]models.Question, error) {
	prompt := buildQuestionPrompt(subject, grade, difficulty, count)

	resp, err := g.llm.Complete(ctx, llm.Request{Prompt: prompt, Temperature: 0.3})
	if err != nil {
		return nil, &GenerationError{Reason: transportReason(err), Err: err}
	}

	return parseQuestionSet(resp.Text, difficulty, count)
}

func parseQuestionSet(raw string, difficulty models.Difficulty, count int) ([]models.Question, error) {
	text := llm.StripCodeFence(raw)

	items, ok := decodeArray(text)
	if !ok {
		return nil, &GenerationError{Reason: "malformed output", Raw: raw}
	}
	if len(items) == 0 {
		return nil, &GenerationError{Reason: "empty result", Raw: raw}
	}

	questions := make([]models.Question, 0, len(items))
	for i, item := range items {
		if err := validateGeneratedQuestion(item); err != nil {
			log.Printf("question generator: dropping item %d: %v", i, err)
			continue
		}

		// Re-decode the validated item into its typed form.
		b, _ := json.Marshal(item)
		var gq generatedQuestion
		if err := json.Unmarshal(b, &gq); err != nil {
			log.Printf("question generator: dropping item %d: %v", i, err)
			continue
		}

		d := models.Difficulty(gq.Difficulty)
		if !d.Valid() {
			d = difficulty
		}

		questions = append(questions, models.Question{
			ID:         uuid.New(),
			Text:       strings.TrimSpace(gq.Text),
			Options:    gq.Options,
			AnswerKey:  gq.AnswerKey,
			Difficulty: d,
		})
		if len(questions) == count {
			break
		}
	}

	if len(questions) == 0 {
		return nil, &GenerationError{Reason: "invalid questions", Raw: raw}
	}
	return questions, nil
}

// decodeArray parses text as a JSON array, falling back to the span between
// the first '[' and the last ']' when the model wrapped it in prose.
func decodeArray(text string) ([]any, bool) {
	var items []any
	if err := json.Unmarshal([]byte(text), &items); err == nil {
		return items, true
	}

	start := strings.Index(text, "[")
	end := strings.LastIndex(text, "]")
	if start >= 0 && end > start {
		if err := json.Unmarshal([]byte(text[start:end+1]), &items); err == nil {
			return items, true
		}
	}
	return nil, false
}

func transportReason(err error) string {
	var status *llm.ErrStatus
	var rl *llm.ErrRateLimit
	var invalid *llm.ErrInvalidResponse
	switch {
	case errors.As(err, &status), errors.As(err, &rl):
		return "service error"
	case errors.As(err, &invalid):
		return "malformed output"
	default:
		return "service unavailable"
	}
}

func buildQuestionPrompt(subject string, grade int, difficulty models.Difficulty, count int) string {
	var b strings.Builder

	b.WriteString("You are an expert school teacher writing multiple choice quiz questions.\n\n")
	b.WriteString("CRITICAL: Return ONLY a valid JSON array. No preamble, no markdown, no backticks.\n\n")
	b.WriteString(fmt.Sprintf("Generate exactly %d %s level %s questions for grade %d.\n", count, difficulty, subject, grade))

	switch difficulty {
	case models.DifficultyEasy:
		b.WriteString("Easy = direct recall of core facts.\n")
	case models.DifficultyMedium:
		b.WriteString("Medium = application of concepts.\n")
	case models.DifficultyHard:
		b.WriteString("Hard = multi-step reasoning or analysis.\n")
	}

	b.WriteString(fmt.Sprintf(`
JSON schema per question:
{"text": "string", "options": ["string","string","string","string"], "answerKey": "string (must be one of the options)", "difficulty": "%s"}

Rules:
- Provide exactly 4 distinct options per question.
- answerKey must be copied exactly from one of the options.
- Do not include explanations or extra text.
`, difficulty))

	return b.String()
}
