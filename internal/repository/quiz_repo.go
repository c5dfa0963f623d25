package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"quizzer-backend/internal/models"
)

type QuizRepo struct {
	pool *pgxpool.Pool
}

func NewQuizRepo(pool *pgxpool.Pool) *QuizRepo {
	return &QuizRepo{pool: pool}
}

func (r *QuizRepo) Create(ctx context.Context, q *models.Quiz) error {
	questionsBytes, err := json.Marshal(q.Questions)
	if err != nil {
		return fmt.Errorf("failed to encode questions: %w", err)
	}

	q.ID = uuid.New()
	query := `INSERT INTO quizzes (id, owner_id, subject, grade, difficulty, adaptive_difficulty_used, questions)
		VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING created_at`

	return r.pool.QueryRow(ctx, query,
		q.ID, q.OwnerID, q.Subject, q.Grade, q.Difficulty, q.AdaptiveDifficultyUsed, questionsBytes,
	).Scan(&q.CreatedAt)
}

const quizColumns = `id, owner_id, subject, grade, difficulty, adaptive_difficulty_used, questions, created_at`

func scanQuiz(row pgx.Row) (*models.Quiz, error) {
	q := &models.Quiz{}
	var questionsBytes []byte
	err := row.Scan(&q.ID, &q.OwnerID, &q.Subject, &q.Grade, &q.Difficulty, &q.AdaptiveDifficultyUsed, &questionsBytes, &q.CreatedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(questionsBytes, &q.Questions); err != nil {
		return nil, fmt.Errorf("failed to decode questions of quiz %s: %w", q.ID, err)
	}
	return q, nil
}

func (r *QuizRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Quiz, error) {
	return scanQuiz(r.pool.QueryRow(ctx, `SELECT `+quizColumns+` FROM quizzes WHERE id = $1`, id))
}

func (r *QuizRepo) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]models.Quiz, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+quizColumns+` FROM quizzes WHERE owner_id = $1 ORDER BY created_at DESC`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	quizzes := []models.Quiz{}
	for rows.Next() {
		q, err := scanQuiz(rows)
		if err != nil {
			return nil, err
		}
		quizzes = append(quizzes, *q)
	}
	return quizzes, rows.Err()
}

// Delete removes the quiz if ownerID owns it; otherwise it reports pgx.ErrNoRows.
func (r *QuizRepo) Delete(ctx context.Context, id, ownerID uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, "DELETE FROM quizzes WHERE id = $1 AND owner_id = $2", id, ownerID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
