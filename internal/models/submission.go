package models

import (
	"time"

	"github.com/google/uuid"
)

type AnswerRecord struct {
	QuestionID     uuid.UUID `json:"question_id"`
	SelectedOption string    `json:"selected_option"`
	IsCorrect      bool      `json:"is_correct"`
}

type Mistake struct {
	QuestionID uuid.UUID `json:"question_id"`
	Expected   string    `json:"expected"`
	Got        string    `json:"got"`
}

type Submission struct {
	ID          uuid.UUID      `json:"id"`
	UserID      uuid.UUID      `json:"user_id"`
	QuizID      uuid.UUID      `json:"quiz_id"`
	Answers     []AnswerRecord `json:"answers"`
	Score       int            `json:"score"`
	Total       int            `json:"total"`
	Mistakes    []Mistake      `json:"mistakes"`
	Suggestions []string       `json:"suggestions"`
	AttemptNo   int            `json:"attempt_no"`
	Grade       int            `json:"grade"`
	Subject     string         `json:"subject"`
	CompletedAt time.Time      `json:"completed_at"`
}

// SubmittedAnswer is one answer as sent by the client; correctness is never taken from it.
type SubmittedAnswer struct {
	QuestionID     string `json:"question_id"`
	SelectedOption string `json:"selected_option"`
}

type SubmitRequest struct {
	Answers []SubmittedAnswer `json:"answers"`
}

// HistoryFilter narrows a user's submission history. Zero values mean "no constraint".
type HistoryFilter struct {
	Grade    int
	Subject  string
	MarksMin *int
	MarksMax *int
	From     *time.Time
	To       *time.Time
}

// ResultNotification is queued after a submission is stored and delivered by email.
type ResultNotification struct {
	UserID       uuid.UUID `json:"user_id"`
	SubmissionID uuid.UUID `json:"submission_id"`
	Subject      string    `json:"subject"`
	Grade        int       `json:"grade"`
	Score        int       `json:"score"`
	Total        int       `json:"total"`
	AttemptNo    int       `json:"attempt_no"`
	Suggestions  []string  `json:"suggestions"`
	RetryCount   int       `json:"retry_count"`
}
