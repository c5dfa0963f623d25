package services

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"quizzer-backend/internal/models"
)

type fakeQuizStore struct {
	mu      sync.Mutex
	quizzes map[uuid.UUID]models.Quiz
	gets    int
	order   []uuid.UUID
}

func newFakeQuizStore() *fakeQuizStore {
	return &fakeQuizStore{quizzes: make(map[uuid.UUID]models.Quiz)}
}

func (f *fakeQuizStore) Create(_ context.Context, q *models.Quiz) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	q.ID = uuid.New()
	q.CreatedAt = time.Now()
	f.quizzes[q.ID] = *q
	f.order = append(f.order, q.ID)
	return nil
}

func (f *fakeQuizStore) GetByID(_ context.Context, id uuid.UUID) (*models.Quiz, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gets++
	q, ok := f.quizzes[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &q, nil
}

func (f *fakeQuizStore) ListByOwner(_ context.Context, ownerID uuid.UUID) ([]models.Quiz, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Quiz
	for i := len(f.order) - 1; i >= 0; i-- {
		if q, ok := f.quizzes[f.order[i]]; ok && q.OwnerID == ownerID {
			out = append(out, q)
		}
	}
	return out, nil
}

func (f *fakeQuizStore) Delete(_ context.Context, id, ownerID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	q, ok := f.quizzes[id]
	if !ok || q.OwnerID != ownerID {
		return pgx.ErrNoRows
	}
	delete(f.quizzes, id)
	return nil
}

func (f *fakeQuizStore) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.quizzes)
}

type fakeSubmissionStore struct {
	mu               sync.Mutex
	subs             []models.Submission
	counters         map[[2]uuid.UUID]int
	scores           map[uuid.UUID][]int
	leaderboard      []models.LeaderboardEntry
	leaderboardCalls int
	lastFilter       models.HistoryFilter
}

func newFakeSubmissionStore() *fakeSubmissionStore {
	return &fakeSubmissionStore{
		counters: make(map[[2]uuid.UUID]int),
		scores:   make(map[uuid.UUID][]int),
	}
}

func (f *fakeSubmissionStore) Create(_ context.Context, s *models.Submission) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := [2]uuid.UUID{s.UserID, s.QuizID}
	f.counters[key]++
	s.ID = uuid.New()
	s.AttemptNo = f.counters[key]
	s.CompletedAt = time.Now()
	f.subs = append(f.subs, *s)
	return nil
}

func (f *fakeSubmissionStore) ScoresByUser(_ context.Context, userID uuid.UUID) ([]int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.scores[userID], nil
}

func (f *fakeSubmissionStore) History(_ context.Context, userID uuid.UUID, filter models.HistoryFilter) ([]models.Submission, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastFilter = filter
	var out []models.Submission
	for _, s := range f.subs {
		if s.UserID == userID {
			out = append(out, s)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CompletedAt.After(out[j].CompletedAt) })
	return out, nil
}

func (f *fakeSubmissionStore) Leaderboard(_ context.Context, q models.LeaderboardQuery) ([]models.LeaderboardEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.leaderboardCalls++
	out := f.leaderboard
	if len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

func (f *fakeSubmissionStore) all() []models.Submission {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.Submission(nil), f.subs...)
}

type cacheEntry struct {
	raw     []byte
	expires time.Time
}

// fakeCache is an in-memory Cache with an adjustable clock.
type fakeCache struct {
	mu      sync.Mutex
	entries map[string]cacheEntry
	now     time.Time
	failSet bool
}

func newFakeCache() *fakeCache {
	return &fakeCache{
		entries: make(map[string]cacheEntry),
		now:     time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
	}
}

func (c *fakeCache) Get(_ context.Context, key string, dst any) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok || !c.now.Before(e.expires) {
		delete(c.entries, key)
		return false, nil
	}
	return true, json.Unmarshal(e.raw, dst)
}

func (c *fakeCache) Set(_ context.Context, key string, v any, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failSet {
		return errors.New("cache unavailable")
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	c.entries[key] = cacheEntry{raw: raw, expires: c.now.Add(ttl)}
	return nil
}

func (c *fakeCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
	return nil
}

func (c *fakeCache) has(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	return ok && c.now.Before(e.expires)
}

func (c *fakeCache) advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type fakePublisher struct {
	mu       sync.Mutex
	messages []models.WSMessage
	err      error
}

func (p *fakePublisher) PublishUpdate(_ context.Context, _ uuid.UUID, msg models.WSMessage) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.messages = append(p.messages, msg)
	return p.err
}

type fakeNotifier struct {
	mu     sync.Mutex
	queued []models.ResultNotification
	err    error
}

func (n *fakeNotifier) Enqueue(_ context.Context, rn models.ResultNotification) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.queued = append(n.queued, rn)
	return nil
}

type fakeUserStore struct {
	mu    sync.Mutex
	users map[uuid.UUID]models.User
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: make(map[uuid.UUID]models.User)}
}

func (f *fakeUserStore) Create(_ context.Context, u *models.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u.ID = uuid.New()
	u.CreatedAt = time.Now()
	f.users[u.ID] = *u
	return nil
}

func (f *fakeUserStore) GetByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &u, nil
}

func (f *fakeUserStore) GetByEmail(_ context.Context, email string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeUserStore) ExistsByUsername(_ context.Context, username string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Username == username {
			return true, nil
		}
	}
	return false, nil
}

type fakeRevoker struct {
	revoked map[string]time.Duration
}

func (r *fakeRevoker) Revoke(_ context.Context, jti string, ttl time.Duration) error {
	if r.revoked == nil {
		r.revoked = make(map[string]time.Duration)
	}
	r.revoked[jti] = ttl
	return nil
}

// threeQuestionQuiz builds a quiz whose answer keys are A, B and C.
func threeQuestionQuiz(owner uuid.UUID) *models.Quiz {
	q := &models.Quiz{
		ID:         uuid.New(),
		OwnerID:    owner,
		Subject:    "Math",
		Grade:      5,
		Difficulty: models.DifficultyEasy,
	}
	for _, key := range []string{"A", "B", "C"} {
		q.Questions = append(q.Questions, models.Question{
			ID:         uuid.New(),
			Text:       "Pick " + key,
			Options:    []string{"A", "B", "C", "D"},
			AnswerKey:  key,
			Difficulty: models.DifficultyEasy,
		})
	}
	return q
}
