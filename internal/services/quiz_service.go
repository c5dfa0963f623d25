package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"quizzer-backend/internal/models"
)

const (
	defaultNumQuestions = 5
	maxNumQuestions     = 20
)

func quizCacheKey(id uuid.UUID) string { return "quiz:" + id.String() }

type QuizService struct {
	quizzes     QuizStore
	submissions SubmissionStore
	generator   *QuestionGenerator
	cache       Cache
	publisher   UpdatePublisher
	cacheTTL    time.Duration
}

func NewQuizService(quizzes QuizStore, submissions SubmissionStore, generator *QuestionGenerator, cache Cache, publisher UpdatePublisher, cacheTTL time.Duration) *QuizService {
	return &QuizService{
		quizzes:     quizzes,
		submissions: submissions,
		generator:   generator,
		cache:       cache,
		publisher:   publisher,
		cacheTTL:    cacheTTL,
	}
}

func validateCreateQuiz(req *models.CreateQuizRequest) error {
	req.Subject = strings.TrimSpace(req.Subject)
	if req.NumQuestions == 0 {
		req.NumQuestions = defaultNumQuestions
	}

	fieldErrors := make(map[string]string)
	if req.Subject == "" {
		fieldErrors["subject"] = "Subject is required"
	}
	if req.Grade < 1 || req.Grade > 12 {
		fieldErrors["grade"] = "Grade must be between 1 and 12"
	}
	if req.NumQuestions < 1 || req.NumQuestions > maxNumQuestions {
		fieldErrors["num_questions"] = fmt.Sprintf("Number of questions must be between 1 and %d", maxNumQuestions)
	}
	if len(fieldErrors) > 0 {
		return &ValidationError{Fields: fieldErrors}
	}
	return nil
}

// Create picks a difficulty from the user's history, generates the questions
// and persists the quiz. Nothing is stored when generation fails.
func (s *QuizService) Create(ctx context.Context, userID uuid.UUID, req models.CreateQuizRequest) (*models.Quiz, error) {
	if err := validateCreateQuiz(&req); err != nil {
		return nil, err
	}

	scores, err := s.submissions.ScoresByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load submission history: %w", err)
	}
	difficulty := SelectDifficulty(scores)

	questions, err := s.generator.Generate(ctx, req.Subject, req.Grade, difficulty, req.NumQuestions)
	if err != nil {
		return nil, err
	}

	quiz := &models.Quiz{
		OwnerID:                userID,
		Subject:                req.Subject,
		Grade:                  req.Grade,
		Difficulty:             difficulty,
		AdaptiveDifficultyUsed: len(scores) > 0,
		Questions:              questions,
	}
	if err := s.quizzes.Create(ctx, quiz); err != nil {
		return nil, err
	}

	if err := s.cache.Set(ctx, quizCacheKey(quiz.ID), quiz, s.cacheTTL); err != nil {
		log.Printf("quiz cache: failed to store %s: %v", quiz.ID, err)
	}

	s.publish(ctx, userID, models.WSMessage{
		Type: "quiz_created",
		Payload: models.QuizCreatedEvent{
			QuizID:     quiz.ID,
			Subject:    quiz.Subject,
			Grade:      quiz.Grade,
			Difficulty: quiz.Difficulty,
			Questions:  len(quiz.Questions),
		},
	})

	return quiz, nil
}

// Get returns the caller's quiz, serving it from the cache when possible.
func (s *QuizService) Get(ctx context.Context, userID, quizID uuid.UUID) (*models.Quiz, error) {
	quiz, err := s.load(ctx, quizID)
	if err != nil {
		return nil, err
	}
	if quiz.OwnerID != userID {
		return nil, &ForbiddenError{Message: "Access denied"}
	}
	return quiz, nil
}

func (s *QuizService) load(ctx context.Context, quizID uuid.UUID) (*models.Quiz, error) {
	var cached models.Quiz
	hit, err := s.cache.Get(ctx, quizCacheKey(quizID), &cached)
	if err != nil {
		log.Printf("quiz cache: failed to read %s: %v", quizID, err)
	}
	if hit {
		return &cached, nil
	}

	quiz, err := s.quizzes.GetByID(ctx, quizID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &NotFoundError{Message: "Quiz not found"}
		}
		return nil, err
	}

	if err := s.cache.Set(ctx, quizCacheKey(quiz.ID), quiz, s.cacheTTL); err != nil {
		log.Printf("quiz cache: failed to store %s: %v", quiz.ID, err)
	}
	return quiz, nil
}

func (s *QuizService) List(ctx context.Context, userID uuid.UUID) ([]models.Quiz, error) {
	quizzes, err := s.quizzes.ListByOwner(ctx, userID)
	if err != nil {
		return nil, err
	}
	if quizzes == nil {
		quizzes = []models.Quiz{}
	}
	return quizzes, nil
}

// Delete removes the caller's quiz and its cache entry. Submissions that
// reference it are kept.
func (s *QuizService) Delete(ctx context.Context, userID, quizID uuid.UUID) error {
	if _, err := s.Get(ctx, userID, quizID); err != nil {
		return err
	}

	if err := s.quizzes.Delete(ctx, quizID, userID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &NotFoundError{Message: "Quiz not found"}
		}
		return err
	}

	if err := s.cache.Delete(ctx, quizCacheKey(quizID)); err != nil {
		log.Printf("quiz cache: failed to invalidate %s: %v", quizID, err)
	}
	return nil
}

func (s *QuizService) publish(ctx context.Context, userID uuid.UUID, msg models.WSMessage) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishUpdate(ctx, userID, msg); err != nil {
		log.Printf("failed to publish %s for user %s: %v", msg.Type, userID, err)
	}
}
