package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	"quizzer-backend/internal/models"
)

// Stores report a missing row with pgx.ErrNoRows.

type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
}

type QuizStore interface {
	Create(ctx context.Context, quiz *models.Quiz) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Quiz, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]models.Quiz, error)
	Delete(ctx context.Context, id, ownerID uuid.UUID) error
}

type SubmissionStore interface {
	// Create fills in ID, AttemptNo and CompletedAt. AttemptNo is assigned
	// atomically per (UserID, QuizID).
	Create(ctx context.Context, sub *models.Submission) error
	ScoresByUser(ctx context.Context, userID uuid.UUID) ([]int, error)
	History(ctx context.Context, userID uuid.UUID, filter models.HistoryFilter) ([]models.Submission, error)
	Leaderboard(ctx context.Context, q models.LeaderboardQuery) ([]models.LeaderboardEntry, error)
}

// Cache is a JSON key/value cache with per-key expiry.
type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

type UpdatePublisher interface {
	PublishUpdate(ctx context.Context, userID uuid.UUID, msg models.WSMessage) error
}

type Notifier interface {
	Enqueue(ctx context.Context, n models.ResultNotification) error
}

type TokenRevoker interface {
	Revoke(ctx context.Context, jti string, ttl time.Duration) error
}
