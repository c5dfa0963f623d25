package services

import (
	"github.com/google/uuid"

	"quizzer-backend/internal/models"
)

type GradeResult struct {
	Score    int
	Total    int
	Answers  []models.AnswerRecord
	Mistakes []models.Mistake
}

// Grade scores answers against the quiz in question order. A question with no
// submitted answer is skipped; the first answer for a question wins. Option
// text is compared exactly.
func Grade(quiz *models.Quiz, answers []models.SubmittedAnswer) GradeResult {
	result := GradeResult{
		Total:    len(quiz.Questions),
		Answers:  []models.AnswerRecord{},
		Mistakes: []models.Mistake{},
	}

	for _, q := range quiz.Questions {
		ans, ok := findAnswer(answers, q.ID)
		if !ok {
			continue
		}

		correct := ans.SelectedOption == q.AnswerKey
		if correct {
			result.Score++
		} else {
			result.Mistakes = append(result.Mistakes, models.Mistake{
				QuestionID: q.ID,
				Expected:   q.AnswerKey,
				Got:        ans.SelectedOption,
			})
		}

		result.Answers = append(result.Answers, models.AnswerRecord{
			QuestionID:     q.ID,
			SelectedOption: ans.SelectedOption,
			IsCorrect:      correct,
		})
	}

	return result
}

func findAnswer(answers []models.SubmittedAnswer, questionID uuid.UUID) (models.SubmittedAnswer, bool) {
	for _, a := range answers {
		// IDs may arrive in any form uuid.Parse accepts.
		id, err := uuid.Parse(a.QuestionID)
		if err == nil && id == questionID {
			return a, true
		}
	}
	return models.SubmittedAnswer{}, false
}
