package handlers

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"quizzer-backend/internal/middleware"
	"quizzer-backend/internal/models"
)

type quizService interface {
	Create(ctx context.Context, userID uuid.UUID, req models.CreateQuizRequest) (*models.Quiz, error)
	Get(ctx context.Context, userID, quizID uuid.UUID) (*models.Quiz, error)
	List(ctx context.Context, userID uuid.UUID) ([]models.Quiz, error)
	Delete(ctx context.Context, userID, quizID uuid.UUID) error
}

type hintService interface {
	Hint(ctx context.Context, userID, quizID uuid.UUID, questionID string) (string, error)
}

type QuizHandler struct {
	quizzes quizService
	hints   hintService
}

func NewQuizHandler(quizzes quizService, hints hintService) *QuizHandler {
	return &QuizHandler{quizzes: quizzes, hints: hints}
}

func (h *QuizHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.CreateQuizRequest
	if !decodeBody(w, r, &req) {
		return
	}

	quiz, err := h.quizzes.Create(r.Context(), middleware.GetUserID(r.Context()), req)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, quiz.WithoutAnswers())
}

func (h *QuizHandler) List(w http.ResponseWriter, r *http.Request) {
	quizzes, err := h.quizzes.List(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	out := make([]models.Quiz, len(quizzes))
	for i, q := range quizzes {
		out[i] = q.WithoutAnswers()
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"quizzes": out})
}

func (h *QuizHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "quiz")
	if !ok {
		return
	}

	quiz, err := h.quizzes.Get(r.Context(), middleware.GetUserID(r.Context()), id)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, quiz.WithoutAnswers())
}

func (h *QuizHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "quiz")
	if !ok {
		return
	}

	if err := h.quizzes.Delete(r.Context(), middleware.GetUserID(r.Context()), id); err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Quiz deleted"})
}

func (h *QuizHandler) Hint(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "quiz")
	if !ok {
		return
	}

	var req models.HintRequest
	if !decodeBody(w, r, &req) {
		return
	}

	hint, err := h.hints.Hint(r.Context(), middleware.GetUserID(r.Context()), id, req.QuestionID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"question_id": req.QuestionID, "hint": hint})
}
