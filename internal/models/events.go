package models

import "github.com/google/uuid"

// WebSocket message types
type WSMessage struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

type QuizCreatedEvent struct {
	QuizID     uuid.UUID  `json:"quiz_id"`
	Subject    string     `json:"subject"`
	Grade      int        `json:"grade"`
	Difficulty Difficulty `json:"difficulty"`
	Questions  int        `json:"questions"`
}

type SubmissionGradedEvent struct {
	SubmissionID uuid.UUID `json:"submission_id"`
	QuizID       uuid.UUID `json:"quiz_id"`
	Score        int       `json:"score"`
	Total        int       `json:"total"`
	AttemptNo    int       `json:"attempt_no"`
}

// API Error response
type APIError struct {
	Code      string            `json:"code"`
	Message   string            `json:"message"`
	Fields    map[string]string `json:"fields,omitempty"`
	RequestID string            `json:"request_id"`
}

type ErrorResponse struct {
	Error APIError `json:"error"`
}
