package models

import "github.com/google/uuid"

type LeaderboardEntry struct {
	UserID   uuid.UUID `json:"user_id"`
	Username string    `json:"username"`
	AvgScore float64   `json:"avg_score"`
	MaxScore int       `json:"max_score"`
	Attempts int       `json:"attempts"`
}

type LeaderboardQuery struct {
	Subject string
	Grade   int
	Limit   int
}
