package models

import (
	"time"

	"github.com/google/uuid"
)

type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

func (d Difficulty) Valid() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	}
	return false
}

type Question struct {
	ID         uuid.UUID  `json:"id"`
	Text       string     `json:"text"`
	Options    []string   `json:"options"`
	AnswerKey  string     `json:"answer_key,omitempty"`
	Difficulty Difficulty `json:"difficulty"`
}

type Quiz struct {
	ID                     uuid.UUID  `json:"id"`
	OwnerID                uuid.UUID  `json:"owner_id"`
	Subject                string     `json:"subject"`
	Grade                  int        `json:"grade"`
	Difficulty             Difficulty `json:"difficulty"`
	AdaptiveDifficultyUsed bool       `json:"adaptive_difficulty_used"`
	Questions              []Question `json:"questions"`
	CreatedAt              time.Time  `json:"created_at"`
}

// FindQuestion returns the question with the given id, or nil.
func (q *Quiz) FindQuestion(id uuid.UUID) *Question {
	for i := range q.Questions {
		if q.Questions[i].ID == id {
			return &q.Questions[i]
		}
	}
	return nil
}

// WithoutAnswers returns a copy of the quiz with every answer key cleared,
// for responses sent before the quiz is graded.
func (q Quiz) WithoutAnswers() Quiz {
	questions := make([]Question, len(q.Questions))
	for i, qu := range q.Questions {
		qu.AnswerKey = ""
		questions[i] = qu
	}
	q.Questions = questions
	return q
}

type CreateQuizRequest struct {
	Subject      string `json:"subject"`
	Grade        int    `json:"grade"`
	NumQuestions int    `json:"num_questions"`
}

type HintRequest struct {
	QuestionID string `json:"question_id"`
}
