package handlers

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"quizzer-backend/internal/middleware"
	"quizzer-backend/internal/models"
	"quizzer-backend/internal/services"
)

type submissionService interface {
	Submit(ctx context.Context, userID, quizID uuid.UUID, answers []models.SubmittedAnswer) (*models.Submission, error)
	Retry(ctx context.Context, userID, quizID uuid.UUID, answers []models.SubmittedAnswer) (*models.Submission, error)
	History(ctx context.Context, userID uuid.UUID, p services.HistoryParams) ([]models.Submission, error)
}

type leaderboardService interface {
	Get(ctx context.Context, p services.LeaderboardParams) ([]models.LeaderboardEntry, bool, error)
}

type SubmissionHandler struct {
	submissions submissionService
	leaderboard leaderboardService
}

func NewSubmissionHandler(submissions submissionService, leaderboard leaderboardService) *SubmissionHandler {
	return &SubmissionHandler{submissions: submissions, leaderboard: leaderboard}
}

func (h *SubmissionHandler) Submit(w http.ResponseWriter, r *http.Request) {
	h.grade(w, r, h.submissions.Submit)
}

func (h *SubmissionHandler) Retry(w http.ResponseWriter, r *http.Request) {
	h.grade(w, r, h.submissions.Retry)
}

type gradeFunc func(ctx context.Context, userID, quizID uuid.UUID, answers []models.SubmittedAnswer) (*models.Submission, error)

func (h *SubmissionHandler) grade(w http.ResponseWriter, r *http.Request, fn gradeFunc) {
	quizID, ok := pathID(w, r, "quiz")
	if !ok {
		return
	}

	var req models.SubmitRequest
	if !decodeBody(w, r, &req) {
		return
	}

	sub, err := fn(r.Context(), middleware.GetUserID(r.Context()), quizID, req.Answers)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, sub)
}

func (h *SubmissionHandler) History(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	params := services.HistoryParams{
		Grade:    q.Get("grade"),
		Subject:  q.Get("subject"),
		MarksMin: q.Get("marksMin"),
		MarksMax: q.Get("marksMax"),
		From:     q.Get("from"),
		To:       q.Get("to"),
	}

	subs, err := h.submissions.History(r.Context(), middleware.GetUserID(r.Context()), params)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"submissions": subs, "count": len(subs)})
}

func (h *SubmissionHandler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	params := services.LeaderboardParams{
		Subject: q.Get("subject"),
		Grade:   q.Get("grade"),
		Limit:   q.Get("limit"),
	}

	entries, cached, err := h.leaderboard.Get(r.Context(), params)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"leaderboard": entries, "cached": cached})
}
