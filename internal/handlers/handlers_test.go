package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"quizzer-backend/internal/middleware"
	"quizzer-backend/internal/models"
	"quizzer-backend/internal/services"
)

// ─── Stubs ───

type stubQuizService struct {
	quiz      *models.Quiz
	err       error
	lastReq   models.CreateQuizRequest
	lastUser  uuid.UUID
	deletedID uuid.UUID
}

func (s *stubQuizService) Create(_ context.Context, userID uuid.UUID, req models.CreateQuizRequest) (*models.Quiz, error) {
	s.lastUser = userID
	s.lastReq = req
	return s.quiz, s.err
}

func (s *stubQuizService) Get(_ context.Context, userID, _ uuid.UUID) (*models.Quiz, error) {
	s.lastUser = userID
	return s.quiz, s.err
}

func (s *stubQuizService) List(_ context.Context, userID uuid.UUID) ([]models.Quiz, error) {
	s.lastUser = userID
	if s.quiz == nil {
		return []models.Quiz{}, s.err
	}
	return []models.Quiz{*s.quiz}, s.err
}

func (s *stubQuizService) Delete(_ context.Context, _ uuid.UUID, quizID uuid.UUID) error {
	s.deletedID = quizID
	return s.err
}

type stubHintService struct {
	hint string
	err  error
}

func (s *stubHintService) Hint(context.Context, uuid.UUID, uuid.UUID, string) (string, error) {
	return s.hint, s.err
}

type stubSubmissionService struct {
	sub         *models.Submission
	err         error
	retried     bool
	lastAnswers []models.SubmittedAnswer
	lastParams  services.HistoryParams
}

func (s *stubSubmissionService) Submit(_ context.Context, _, _ uuid.UUID, answers []models.SubmittedAnswer) (*models.Submission, error) {
	s.lastAnswers = answers
	return s.sub, s.err
}

func (s *stubSubmissionService) Retry(ctx context.Context, userID, quizID uuid.UUID, answers []models.SubmittedAnswer) (*models.Submission, error) {
	s.retried = true
	return s.Submit(ctx, userID, quizID, answers)
}

func (s *stubSubmissionService) History(_ context.Context, _ uuid.UUID, p services.HistoryParams) ([]models.Submission, error) {
	s.lastParams = p
	if s.err != nil {
		return nil, s.err
	}
	return []models.Submission{}, nil
}

type stubLeaderboard struct {
	entries    []models.LeaderboardEntry
	cached     bool
	err        error
	lastParams services.LeaderboardParams
}

func (s *stubLeaderboard) Get(_ context.Context, p services.LeaderboardParams) ([]models.LeaderboardEntry, bool, error) {
	s.lastParams = p
	return s.entries, s.cached, s.err
}

type stubAuthService struct {
	user       *models.User
	err        error
	revokedJTI string
}

func (s *stubAuthService) Register(context.Context, models.RegisterRequest) (*models.User, *models.AuthToken, error) {
	if s.err != nil {
		return nil, nil, s.err
	}
	return s.user, &models.AuthToken{Token: "tok", ExpiresIn: 3600}, nil
}

func (s *stubAuthService) Login(context.Context, models.LoginRequest) (*models.AuthToken, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &models.AuthToken{Token: "tok", ExpiresIn: 3600}, nil
}

func (s *stubAuthService) Logout(_ context.Context, jti string, _ time.Time) error {
	s.revokedJTI = jti
	return s.err
}

func (s *stubAuthService) Me(context.Context, uuid.UUID) (*models.User, error) {
	return s.user, s.err
}

// ─── Helpers ───

func authedRequest(method, target string, body interface{}, userID uuid.UUID, urlID string) *http.Request {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")

	ctx := context.WithValue(req.Context(), middleware.UserIDKey, userID)
	if urlID != "" {
		rctx := chi.NewRouteContext()
		rctx.URLParams.Add("id", urlID)
		ctx = context.WithValue(ctx, chi.RouteCtxKey, rctx)
	}
	return req.WithContext(ctx)
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) models.APIError {
	t.Helper()
	var resp models.ErrorResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode error response: %v", err)
	}
	return resp.Error
}

func sampleQuiz(owner uuid.UUID) *models.Quiz {
	return &models.Quiz{
		ID:      uuid.New(),
		OwnerID: owner,
		Subject: "Math",
		Grade:   5,
		Questions: []models.Question{{
			ID:        uuid.New(),
			Text:      "2 + 2 = ?",
			Options:   []string{"3", "4", "5", "6"},
			AnswerKey: "4",
		}},
	}
}

// ─── Error mapping ───

func TestHandleServiceError_StatusCodes(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"validation", &services.ValidationError{Fields: map[string]string{"grade": "bad"}}, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"conflict", &services.ConflictError{Message: "taken"}, http.StatusConflict, "CONFLICT"},
		{"not found", &services.NotFoundError{Message: "Quiz not found"}, http.StatusNotFound, "NOT_FOUND"},
		{"unauthorized", &services.UnauthorizedError{Message: "no"}, http.StatusUnauthorized, "UNAUTHORIZED"},
		{"forbidden", &services.ForbiddenError{Message: "Access denied"}, http.StatusForbidden, "FORBIDDEN"},
		{"generation", &services.GenerationError{Reason: "malformed output", Raw: "oops"}, http.StatusBadGateway, "GENERATION_FAILED"},
		{"wrapped not found", errors.Join(errors.New("ctx"), &services.NotFoundError{Message: "x"}), http.StatusNotFound, "NOT_FOUND"},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/", nil)

			handleServiceError(rr, req, tc.err)

			if rr.Code != tc.status {
				t.Fatalf("expected %d, got %d", tc.status, rr.Code)
			}
			if got := decodeError(t, rr); got.Code != tc.code {
				t.Fatalf("expected code %s, got %s", tc.code, got.Code)
			}
		})
	}
}

// ─── Quiz Handler Tests ───

func TestQuizHandler_Create_HidesAnswerKeys(t *testing.T) {
	userID := uuid.New()
	svc := &stubQuizService{quiz: sampleQuiz(userID)}
	h := NewQuizHandler(svc, &stubHintService{})

	body := map[string]interface{}{"subject": "Math", "grade": 5, "num_questions": 1}
	rr := httptest.NewRecorder()
	h.Create(rr, authedRequest(http.MethodPost, "/api/v1/quizzes", body, userID, ""))

	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rr.Code)
	}
	if svc.lastUser != userID || svc.lastReq.Subject != "Math" || svc.lastReq.NumQuestions != 1 {
		t.Fatalf("unexpected call: user=%s req=%+v", svc.lastUser, svc.lastReq)
	}
	if bytes.Contains(rr.Body.Bytes(), []byte("answer_key")) {
		t.Fatalf("response leaked answer keys: %s", rr.Body.String())
	}
	if svc.quiz.Questions[0].AnswerKey != "4" {
		t.Fatal("hiding answers must not modify the stored quiz")
	}
}

func TestQuizHandler_Create_GenerationFailure(t *testing.T) {
	svc := &stubQuizService{err: &services.GenerationError{Reason: "malformed output"}}
	h := NewQuizHandler(svc, &stubHintService{})

	rr := httptest.NewRecorder()
	h.Create(rr, authedRequest(http.MethodPost, "/api/v1/quizzes", map[string]interface{}{"subject": "Math", "grade": 5}, uuid.New(), ""))

	if rr.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", rr.Code)
	}
}

func TestQuizHandler_Create_InvalidBody(t *testing.T) {
	h := NewQuizHandler(&stubQuizService{}, &stubHintService{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/quizzes", bytes.NewBufferString("{not json"))
	rr := httptest.NewRecorder()
	h.Create(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}

func TestQuizHandler_Get_InvalidID(t *testing.T) {
	h := NewQuizHandler(&stubQuizService{}, &stubHintService{})

	rr := httptest.NewRecorder()
	h.Get(rr, authedRequest(http.MethodGet, "/api/v1/quizzes/nope", nil, uuid.New(), "nope"))

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}

func TestQuizHandler_Get_Forbidden(t *testing.T) {
	svc := &stubQuizService{err: &services.ForbiddenError{Message: "Access denied"}}
	h := NewQuizHandler(svc, &stubHintService{})

	rr := httptest.NewRecorder()
	h.Get(rr, authedRequest(http.MethodGet, "/", nil, uuid.New(), uuid.NewString()))

	if rr.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rr.Code)
	}
}

func TestQuizHandler_Delete(t *testing.T) {
	svc := &stubQuizService{}
	h := NewQuizHandler(svc, &stubHintService{})
	quizID := uuid.New()

	rr := httptest.NewRecorder()
	h.Delete(rr, authedRequest(http.MethodDelete, "/", nil, uuid.New(), quizID.String()))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if svc.deletedID != quizID {
		t.Fatalf("expected delete of %s, got %s", quizID, svc.deletedID)
	}
}

func TestQuizHandler_Hint(t *testing.T) {
	h := NewQuizHandler(&stubQuizService{}, &stubHintService{hint: "Count carefully."})
	questionID := uuid.NewString()

	rr := httptest.NewRecorder()
	h.Hint(rr, authedRequest(http.MethodPost, "/", map[string]string{"question_id": questionID}, uuid.New(), uuid.NewString()))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var resp map[string]string
	json.NewDecoder(rr.Body).Decode(&resp)
	if resp["hint"] != "Count carefully." || resp["question_id"] != questionID {
		t.Fatalf("unexpected response %v", resp)
	}
}

// ─── Submission Handler Tests ───

func TestSubmissionHandler_SubmitAndRetry(t *testing.T) {
	svc := &stubSubmissionService{sub: &models.Submission{ID: uuid.New(), Score: 2, AttemptNo: 1}}
	h := NewSubmissionHandler(svc, &stubLeaderboard{})
	body := map[string]interface{}{
		"answers": []map[string]string{{"question_id": uuid.NewString(), "selected_option": "4"}},
	}

	rr := httptest.NewRecorder()
	h.Submit(rr, authedRequest(http.MethodPost, "/", body, uuid.New(), uuid.NewString()))
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rr.Code)
	}
	if len(svc.lastAnswers) != 1 || svc.lastAnswers[0].SelectedOption != "4" {
		t.Fatalf("unexpected answers %+v", svc.lastAnswers)
	}
	if svc.retried {
		t.Fatal("submit must not call retry")
	}

	rr = httptest.NewRecorder()
	h.Retry(rr, authedRequest(http.MethodPost, "/", body, uuid.New(), uuid.NewString()))
	if rr.Code != http.StatusCreated || !svc.retried {
		t.Fatalf("expected retry to be called, code %d", rr.Code)
	}
}

func TestSubmissionHandler_History_PassesQuery(t *testing.T) {
	svc := &stubSubmissionService{}
	h := NewSubmissionHandler(svc, &stubLeaderboard{})

	rr := httptest.NewRecorder()
	h.History(rr, authedRequest(http.MethodGet, "/api/v1/submissions/history?grade=5&subject=Math&marksMin=1&marksMax=4&from=2024-01-01&to=2024-02-01", nil, uuid.New(), ""))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	want := services.HistoryParams{Grade: "5", Subject: "Math", MarksMin: "1", MarksMax: "4", From: "2024-01-01", To: "2024-02-01"}
	if svc.lastParams != want {
		t.Fatalf("expected %+v, got %+v", want, svc.lastParams)
	}
}

func TestSubmissionHandler_History_ValidationError(t *testing.T) {
	svc := &stubSubmissionService{err: &services.ValidationError{Fields: map[string]string{"marksMax": "bad"}}}
	h := NewSubmissionHandler(svc, &stubLeaderboard{})

	rr := httptest.NewRecorder()
	h.History(rr, authedRequest(http.MethodGet, "/?marksMax=500", nil, uuid.New(), ""))

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
	if got := decodeError(t, rr); got.Fields["marksMax"] == "" {
		t.Fatalf("expected marksMax field error, got %+v", got)
	}
}

func TestSubmissionHandler_Leaderboard(t *testing.T) {
	lb := &stubLeaderboard{
		entries: []models.LeaderboardEntry{{Username: "ada", MaxScore: 5, AvgScore: 4.5, Attempts: 2}},
		cached:  true,
	}
	h := NewSubmissionHandler(&stubSubmissionService{}, lb)

	rr := httptest.NewRecorder()
	h.Leaderboard(rr, authedRequest(http.MethodGet, "/api/v1/leaderboard?subject=Math&grade=5&limit=3", nil, uuid.New(), ""))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if lb.lastParams != (services.LeaderboardParams{Subject: "Math", Grade: "5", Limit: "3"}) {
		t.Fatalf("unexpected params %+v", lb.lastParams)
	}

	var resp struct {
		Leaderboard []models.LeaderboardEntry `json:"leaderboard"`
		Cached      bool                      `json:"cached"`
	}
	json.NewDecoder(rr.Body).Decode(&resp)
	if !resp.Cached || len(resp.Leaderboard) != 1 || resp.Leaderboard[0].Username != "ada" {
		t.Fatalf("unexpected response %+v", resp)
	}
}

// ─── Auth Handler Tests ───

func TestAuthHandler_Register(t *testing.T) {
	svc := &stubAuthService{user: &models.User{ID: uuid.New(), Username: "ada", Email: "ada@example.com", PasswordHash: "secret-hash"}}
	h := NewAuthHandler(svc)

	rr := httptest.NewRecorder()
	body := map[string]string{"username": "ada", "email": "ada@example.com", "password": "password1"}
	h.Register(rr, authedRequest(http.MethodPost, "/api/v1/auth/register", body, uuid.Nil, ""))

	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rr.Code)
	}
	if bytes.Contains(rr.Body.Bytes(), []byte("secret-hash")) {
		t.Fatal("password hash leaked into response")
	}
}

func TestAuthHandler_Login_Unauthorized(t *testing.T) {
	h := NewAuthHandler(&stubAuthService{err: &services.UnauthorizedError{Message: "Invalid email or password"}})

	rr := httptest.NewRecorder()
	h.Login(rr, authedRequest(http.MethodPost, "/", map[string]string{"email": "a@b.co", "password": "x"}, uuid.Nil, ""))

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}
}

func TestAuthHandler_Logout_RevokesCurrentToken(t *testing.T) {
	svc := &stubAuthService{}
	h := NewAuthHandler(svc)

	req := authedRequest(http.MethodPost, "/", nil, uuid.New(), "")
	ctx := context.WithValue(req.Context(), middleware.TokenIDKey, "jti-123")
	ctx = context.WithValue(ctx, middleware.TokenExpiryKey, time.Now().Add(time.Hour))

	rr := httptest.NewRecorder()
	h.Logout(rr, req.WithContext(ctx))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if svc.revokedJTI != "jti-123" {
		t.Fatalf("expected jti-123 to be revoked, got %q", svc.revokedJTI)
	}
}
