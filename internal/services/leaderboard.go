package services

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"quizzer-backend/internal/models"
)

const (
	defaultLeaderboardLimit = 10
	maxLeaderboardLimit     = 50
)

type LeaderboardService struct {
	submissions SubmissionStore
	cache       Cache
	ttl         time.Duration
}

func NewLeaderboardService(submissions SubmissionStore, cache Cache, ttl time.Duration) *LeaderboardService {
	return &LeaderboardService{submissions: submissions, cache: cache, ttl: ttl}
}

// LeaderboardParams are the raw query parameters; empty means unset.
type LeaderboardParams struct {
	Subject string
	Grade   string
	Limit   string
}

func parseLeaderboardParams(p LeaderboardParams) (models.LeaderboardQuery, error) {
	q := models.LeaderboardQuery{
		Subject: strings.TrimSpace(p.Subject),
		Limit:   defaultLeaderboardLimit,
	}
	fieldErrors := make(map[string]string)

	if p.Grade != "" {
		g, err := strconv.Atoi(p.Grade)
		if err != nil || g < 1 || g > 12 {
			fieldErrors["grade"] = "Grade must be between 1 and 12"
		}
		q.Grade = g
	}
	if p.Limit != "" {
		n, err := strconv.Atoi(p.Limit)
		if err != nil || n < 1 || n > maxLeaderboardLimit {
			fieldErrors["limit"] = fmt.Sprintf("Limit must be between 1 and %d", maxLeaderboardLimit)
		}
		q.Limit = n
	}

	if len(fieldErrors) > 0 {
		return models.LeaderboardQuery{}, &ValidationError{Fields: fieldErrors}
	}
	return q, nil
}

// leaderboardCacheKey renders leaderboard:{subject|all}:{grade|all}:{limit}.
func leaderboardCacheKey(q models.LeaderboardQuery) string {
	subject := "all"
	if q.Subject != "" {
		subject = q.Subject
	}
	grade := "all"
	if q.Grade != 0 {
		grade = strconv.Itoa(q.Grade)
	}
	return fmt.Sprintf("leaderboard:%s:%s:%d", subject, grade, q.Limit)
}

// Get returns the ranking for the filters, and whether it came from the cache.
func (s *LeaderboardService) Get(ctx context.Context, p LeaderboardParams) ([]models.LeaderboardEntry, bool, error) {
	q, err := parseLeaderboardParams(p)
	if err != nil {
		return nil, false, err
	}
	key := leaderboardCacheKey(q)

	var cached []models.LeaderboardEntry
	hit, err := s.cache.Get(ctx, key, &cached)
	if err != nil {
		log.Printf("leaderboard cache: failed to read %s: %v", key, err)
	}
	if hit {
		return cached, true, nil
	}

	entries, err := s.submissions.Leaderboard(ctx, q)
	if err != nil {
		return nil, false, err
	}
	if entries == nil {
		entries = []models.LeaderboardEntry{}
	}

	if err := s.cache.Set(ctx, key, entries, s.ttl); err != nil {
		log.Printf("leaderboard cache: failed to store %s: %v", key, err)
	}
	return entries, false, nil
}
