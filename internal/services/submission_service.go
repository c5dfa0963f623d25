package services

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"quizzer-backend/internal/models"
)

type SubmissionService struct {
	quizzes     *QuizService
	submissions SubmissionStore
	advisor     *RemediationAdvisor
	publisher   UpdatePublisher
	notifier    Notifier
}

func NewSubmissionService(quizzes *QuizService, submissions SubmissionStore, advisor *RemediationAdvisor, publisher UpdatePublisher, notifier Notifier) *SubmissionService {
	return &SubmissionService{
		quizzes:     quizzes,
		submissions: submissions,
		advisor:     advisor,
		publisher:   publisher,
		notifier:    notifier,
	}
}

func validateAnswers(answers []models.SubmittedAnswer) error {
	if len(answers) == 0 {
		return &ValidationError{Fields: map[string]string{"answers": "At least one answer is required"}}
	}

	fieldErrors := make(map[string]string)
	for i, a := range answers {
		if _, err := uuid.Parse(a.QuestionID); err != nil {
			fieldErrors[fmt.Sprintf("answers[%d].question_id", i)] = "Invalid question ID"
		}
		if a.SelectedOption == "" {
			fieldErrors[fmt.Sprintf("answers[%d].selected_option", i)] = "Selected option is required"
		}
	}
	if len(fieldErrors) > 0 {
		return &ValidationError{Fields: fieldErrors}
	}
	return nil
}

// Submit grades answers against the quiz and stores a new submission with the
// next attempt number. Advice, publishing and notification never fail it.
func (s *SubmissionService) Submit(ctx context.Context, userID, quizID uuid.UUID, answers []models.SubmittedAnswer) (*models.Submission, error) {
	if err := validateAnswers(answers); err != nil {
		return nil, err
	}

	quiz, err := s.quizzes.Get(ctx, userID, quizID)
	if err != nil {
		return nil, err
	}

	result := Grade(quiz, answers)
	suggestions := s.advisor.Advise(ctx, result.Mistakes)

	sub := &models.Submission{
		UserID:      userID,
		QuizID:      quiz.ID,
		Answers:     result.Answers,
		Score:       result.Score,
		Total:       result.Total,
		Mistakes:    result.Mistakes,
		Suggestions: suggestions,
		Grade:       quiz.Grade,
		Subject:     quiz.Subject,
	}
	if err := s.submissions.Create(ctx, sub); err != nil {
		return nil, fmt.Errorf("failed to store submission: %w", err)
	}

	s.afterCommit(ctx, sub)
	return sub, nil
}

// Retry is a fresh submission against the same quiz.
func (s *SubmissionService) Retry(ctx context.Context, userID, quizID uuid.UUID, answers []models.SubmittedAnswer) (*models.Submission, error) {
	return s.Submit(ctx, userID, quizID, answers)
}

func (s *SubmissionService) afterCommit(ctx context.Context, sub *models.Submission) {
	if s.publisher != nil {
		msg := models.WSMessage{
			Type: "submission_graded",
			Payload: models.SubmissionGradedEvent{
				SubmissionID: sub.ID,
				QuizID:       sub.QuizID,
				Score:        sub.Score,
				Total:        sub.Total,
				AttemptNo:    sub.AttemptNo,
			},
		}
		if err := s.publisher.PublishUpdate(ctx, sub.UserID, msg); err != nil {
			log.Printf("failed to publish submission_graded for user %s: %v", sub.UserID, err)
		}
	}

	if s.notifier != nil {
		n := models.ResultNotification{
			UserID:       sub.UserID,
			SubmissionID: sub.ID,
			Subject:      sub.Subject,
			Grade:        sub.Grade,
			Score:        sub.Score,
			Total:        sub.Total,
			AttemptNo:    sub.AttemptNo,
			Suggestions:  sub.Suggestions,
		}
		if err := s.notifier.Enqueue(ctx, n); err != nil {
			log.Printf("failed to enqueue result notification for submission %s: %v", sub.ID, err)
		}
	}
}

// HistoryParams are the raw history query parameters; empty means unset.
type HistoryParams struct {
	Grade    string
	Subject  string
	MarksMin string
	MarksMax string
	From     string
	To       string
}

const dateOnly = "2006-01-02"

func parseHistoryParams(p HistoryParams) (models.HistoryFilter, error) {
	var f models.HistoryFilter
	fieldErrors := make(map[string]string)

	if p.Grade != "" {
		g, err := strconv.Atoi(p.Grade)
		if err != nil || g < 1 || g > 12 {
			fieldErrors["grade"] = "Grade must be between 1 and 12"
		}
		f.Grade = g
	}
	f.Subject = strings.TrimSpace(p.Subject)

	if p.MarksMin != "" {
		n, err := strconv.Atoi(p.MarksMin)
		if err != nil || n < 0 {
			fieldErrors["marksMin"] = "marksMin must be a number of at least 0"
		} else {
			f.MarksMin = &n
		}
	}
	if p.MarksMax != "" {
		n, err := strconv.Atoi(p.MarksMax)
		if err != nil || n < 0 || n > 100 {
			fieldErrors["marksMax"] = "marksMax must be a number between 0 and 100"
		} else {
			f.MarksMax = &n
		}
	}
	if f.MarksMin != nil && f.MarksMax != nil && *f.MarksMin > *f.MarksMax {
		fieldErrors["marksMin"] = "marksMin must not exceed marksMax"
	}

	if p.From != "" {
		t, err := parseHistoryTime(p.From, false)
		if err != nil {
			fieldErrors["from"] = "from must be an ISO 8601 date"
		} else {
			f.From = &t
		}
	}
	if p.To != "" {
		t, err := parseHistoryTime(p.To, true)
		if err != nil {
			fieldErrors["to"] = "to must be an ISO 8601 date"
		} else {
			f.To = &t
		}
	}
	if f.From != nil && f.To != nil && f.From.After(*f.To) {
		fieldErrors["from"] = "from must not be after to"
	}

	if len(fieldErrors) > 0 {
		return models.HistoryFilter{}, &ValidationError{Fields: fieldErrors}
	}
	return f, nil
}

// parseHistoryTime accepts RFC 3339 timestamps or plain dates. A plain date
// used as an upper bound covers the whole day.
func parseHistoryTime(s string, endOfDay bool) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(dateOnly, s)
	if err != nil {
		return time.Time{}, err
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return t, nil
}

// History lists the caller's submissions matching every given filter, newest first.
func (s *SubmissionService) History(ctx context.Context, userID uuid.UUID, p HistoryParams) ([]models.Submission, error) {
	filter, err := parseHistoryParams(p)
	if err != nil {
		return nil, err
	}

	subs, err := s.submissions.History(ctx, userID, filter)
	if err != nil {
		return nil, err
	}
	if subs == nil {
		subs = []models.Submission{}
	}
	return subs, nil
}
