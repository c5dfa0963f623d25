package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"quizzer-backend/internal/models"
)

type SubmissionRepo struct {
	pool *pgxpool.Pool
}

func NewSubmissionRepo(pool *pgxpool.Pool) *SubmissionRepo {
	return &SubmissionRepo{pool: pool}
}

// nextAttemptSQL takes the counter row lock, so concurrent submissions for the
// same (user, quiz) serialise on it until their transaction ends.
const nextAttemptSQL = `
	INSERT INTO quiz_attempt_counters (user_id, quiz_id, last_value)
	VALUES ($1, $2, 1)
	ON CONFLICT (user_id, quiz_id)
	DO UPDATE SET last_value = quiz_attempt_counters.last_value + 1
	RETURNING last_value`

const insertSubmissionSQL = `
	INSERT INTO submissions (id, user_id, quiz_id, answers, score, total, mistakes, suggestions, attempt_no, grade, subject)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	RETURNING completed_at`

// Create bumps the (user, quiz) attempt counter and inserts the submission in
// one transaction, so concurrent submissions never share an attempt number.
func (r *SubmissionRepo) Create(ctx context.Context, s *models.Submission) error {
	answers, err := json.Marshal(s.Answers)
	if err != nil {
		return fmt.Errorf("failed to encode answers: %w", err)
	}
	mistakes, err := json.Marshal(s.Mistakes)
	if err != nil {
		return fmt.Errorf("failed to encode mistakes: %w", err)
	}
	suggestions, err := json.Marshal(s.Suggestions)
	if err != nil {
		return fmt.Errorf("failed to encode suggestions: %w", err)
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var attemptNo int
	err = tx.QueryRow(ctx, nextAttemptSQL, s.UserID, s.QuizID).Scan(&attemptNo)
	if err != nil {
		return fmt.Errorf("failed to assign attempt number: %w", err)
	}

	id := uuid.New()
	err = tx.QueryRow(ctx, insertSubmissionSQL,
		id, s.UserID, s.QuizID, answers, s.Score, s.Total, mistakes, suggestions, attemptNo, s.Grade, s.Subject,
	).Scan(&s.CompletedAt)
	if err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}

	s.ID = id
	s.AttemptNo = attemptNo
	return nil
}

// ScoresByUser returns every score the user has recorded, across all quizzes.
func (r *SubmissionRepo) ScoresByUser(ctx context.Context, userID uuid.UUID) ([]int, error) {
	rows, err := r.pool.Query(ctx, "SELECT score FROM submissions WHERE user_id = $1", userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var scores []int
	for rows.Next() {
		var s int
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		scores = append(scores, s)
	}
	return scores, rows.Err()
}

// historyQuery renders the AND-combined WHERE clause for a history filter.
func historyQuery(userID uuid.UUID, f models.HistoryFilter) (string, []any) {
	conds := []string{"user_id = $1"}
	args := []any{userID}

	add := func(cond string, v any) {
		args = append(args, v)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if f.Grade != 0 {
		add("grade = $%d", f.Grade)
	}
	if f.Subject != "" {
		add("subject = $%d", f.Subject)
	}
	if f.MarksMin != nil {
		add("score >= $%d", *f.MarksMin)
	}
	if f.MarksMax != nil {
		add("score <= $%d", *f.MarksMax)
	}
	if f.From != nil {
		add("completed_at >= $%d", *f.From)
	}
	if f.To != nil {
		add("completed_at <= $%d", *f.To)
	}

	query := `SELECT id, user_id, quiz_id, answers, score, total, mistakes, suggestions, attempt_no, grade, subject, completed_at
		FROM submissions WHERE ` + strings.Join(conds, " AND ") + ` ORDER BY completed_at DESC`
	return query, args
}

func (r *SubmissionRepo) History(ctx context.Context, userID uuid.UUID, f models.HistoryFilter) ([]models.Submission, error) {
	query, args := historyQuery(userID, f)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	subs := []models.Submission{}
	for rows.Next() {
		s, err := scanSubmission(rows)
		if err != nil {
			return nil, err
		}
		subs = append(subs, *s)
	}
	return subs, rows.Err()
}

func scanSubmission(row pgx.Row) (*models.Submission, error) {
	s := &models.Submission{}
	var answers, mistakes, suggestions []byte
	err := row.Scan(&s.ID, &s.UserID, &s.QuizID, &answers, &s.Score, &s.Total, &mistakes, &suggestions,
		&s.AttemptNo, &s.Grade, &s.Subject, &s.CompletedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(answers, &s.Answers); err != nil {
		return nil, fmt.Errorf("failed to decode answers of submission %s: %w", s.ID, err)
	}
	if err := json.Unmarshal(mistakes, &s.Mistakes); err != nil {
		return nil, fmt.Errorf("failed to decode mistakes of submission %s: %w", s.ID, err)
	}
	if err := json.Unmarshal(suggestions, &s.Suggestions); err != nil {
		return nil, fmt.Errorf("failed to decode suggestions of submission %s: %w", s.ID, err)
	}
	return s, nil
}

// leaderboardQuery groups submissions by user and ranks them by best score.
func leaderboardQuery(q models.LeaderboardQuery) (string, []any) {
	var conds []string
	var args []any

	if q.Subject != "" {
		args = append(args, q.Subject)
		conds = append(conds, fmt.Sprintf("s.subject = $%d", len(args)))
	}
	if q.Grade != 0 {
		args = append(args, q.Grade)
		conds = append(conds, fmt.Sprintf("s.grade = $%d", len(args)))
	}

	where := ""
	if len(conds) > 0 {
		where = "WHERE " + strings.Join(conds, " AND ")
	}

	args = append(args, q.Limit)
	query := fmt.Sprintf(`
		SELECT s.user_id, u.username, AVG(s.score)::float8, MAX(s.score), COUNT(*)
		FROM submissions s
		JOIN users u ON u.id = s.user_id
		%s
		GROUP BY s.user_id, u.username
		ORDER BY MAX(s.score) DESC, AVG(s.score) DESC, u.username
		LIMIT $%d`, where, len(args))
	return query, args
}

func (r *SubmissionRepo) Leaderboard(ctx context.Context, q models.LeaderboardQuery) ([]models.LeaderboardEntry, error) {
	query, args := leaderboardQuery(q)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := []models.LeaderboardEntry{}
	for rows.Next() {
		var e models.LeaderboardEntry
		if err := rows.Scan(&e.UserID, &e.Username, &e.AvgScore, &e.MaxScore, &e.Attempts); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
