package services

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/google/uuid"

	"quizzer-backend/internal/llm"
)

const fallbackHint = "Think carefully about the problem."

// HintService produces a short hint for one question of a quiz.
type HintService struct {
	quizzes *QuizService
	llm     llm.Provider
}

func NewHintService(quizzes *QuizService, provider llm.Provider) *HintService {
	return &HintService{quizzes: quizzes, llm: provider}
}

// Hint returns a hint for questionID that does not reveal the answer. Model
// failures produce a generic hint instead of an error.
func (s *HintService) Hint(ctx context.Context, userID, quizID uuid.UUID, questionID string) (string, error) {
	qid, err := uuid.Parse(questionID)
	if err != nil {
		return "", &ValidationError{Fields: map[string]string{"question_id": "Invalid question ID"}}
	}

	quiz, err := s.quizzes.Get(ctx, userID, quizID)
	if err != nil {
		return "", err
	}

	question := quiz.FindQuestion(qid)
	if question == nil {
		return "", &NotFoundError{Message: "Question not found"}
	}

	prompt := fmt.Sprintf(`Give a short hint for the following quiz question without revealing the answer.
Question: %s
Options: %s
Reply with the hint only.`, question.Text, strings.Join(question.Options, " | "))

	resp, err := s.llm.Complete(ctx, llm.Request{Prompt: prompt, MaxTokens: 200, Temperature: 0.5})
	if err != nil {
		log.Printf("hint: using fallback for question %s: %v", qid, err)
		return fallbackHint, nil
	}

	hint := strings.TrimSpace(llm.StripCodeFence(resp.Text))
	if hint == "" {
		return fallbackHint, nil
	}
	return hint, nil
}
