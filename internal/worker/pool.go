package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"quizzer-backend/internal/models"
)

const (
	NotificationQueue = "queue:result-notification"
	maxRetries        = 3
	popTimeout        = 5 * time.Second
	lockRetryDelay    = 2 * time.Second
)

// Queue pushes result notifications for the worker pool.
type Queue struct {
	redis *redis.Client
}

func NewQueue(redisClient *redis.Client) *Queue {
	return &Queue{redis: redisClient}
}

func (q *Queue) Enqueue(ctx context.Context, n models.ResultNotification) error {
	data, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("failed to encode notification: %w", err)
	}
	return q.redis.RPush(ctx, NotificationQueue, data).Err()
}

type RecipientLookup interface {
	GetEmail(ctx context.Context, userID uuid.UUID) (string, error)
}

type Mailer interface {
	SendResultEmail(to string, n models.ResultNotification) error
}

// Pool delivers queued result notifications by email. Failed deliveries are
// re-queued with exponential backoff and dropped after maxRetries attempts.
type Pool struct {
	redis       *redis.Client
	recipients  RecipientLookup
	mailer      Mailer
	workerCount int

	cancel context.CancelFunc
	wg     sync.WaitGroup

	requeue func(n models.ResultNotification, delay time.Duration)
	lock    func(ctx context.Context, key string) (bool, error)
}

func NewPool(redisClient *redis.Client, recipients RecipientLookup, mailer Mailer, workerCount int) *Pool {
	p := &Pool{
		redis:       redisClient,
		recipients:  recipients,
		mailer:      mailer,
		workerCount: workerCount,
	}
	p.requeue = p.requeueAfter
	p.lock = p.acquireLock
	return p
}

func (p *Pool) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel

	for i := 0; i < p.workerCount; i++ {
		p.wg.Add(1)
		go p.worker(ctx, i)
	}

	log.Printf("Started %d notification workers", p.workerCount)
}

// Stop cancels the workers and waits for in-flight deliveries to finish.
func (p *Pool) Stop() {
	if p.cancel != nil {
		p.cancel()
	}
	p.wg.Wait()
}

func (p *Pool) worker(ctx context.Context, id int) {
	defer p.wg.Done()

	for {
		result, err := p.redis.BLPop(ctx, popTimeout, NotificationQueue).Result()
		if ctx.Err() != nil {
			log.Printf("Worker %d shutting down", id)
			return
		}
		if err != nil {
			if !errors.Is(err, redis.Nil) {
				log.Printf("Worker %d: queue error: %v", id, err)
				time.Sleep(time.Second)
			}
			continue
		}
		if len(result) < 2 {
			continue
		}

		var n models.ResultNotification
		if err := json.Unmarshal([]byte(result[1]), &n); err != nil {
			log.Printf("Worker %d: failed to parse notification: %v", id, err)
			continue
		}

		p.claim(ctx, id, n)
	}
}

// claim delivers n if this worker wins its delivery lock. The job has already
// left the queue, so a lock error puts it back with the same retry count.
func (p *Pool) claim(ctx context.Context, workerID int, n models.ResultNotification) {
	lockKey := fmt.Sprintf("notify_lock:%s:%d", n.SubmissionID, n.RetryCount)
	locked, err := p.lock(ctx, lockKey)
	if err != nil {
		log.Printf("Worker %d: delivery lock for submission %s failed: %v; re-queueing", workerID, n.SubmissionID, err)
		p.requeue(n, lockRetryDelay)
		return
	}
	if !locked {
		return
	}

	p.process(context.WithoutCancel(ctx), n)
}

// A given attempt of a notification is delivered by one worker only.
func (p *Pool) acquireLock(ctx context.Context, key string) (bool, error) {
	return p.redis.SetNX(ctx, key, "1", 10*time.Minute).Result()
}

func (p *Pool) process(ctx context.Context, n models.ResultNotification) {
	if err := p.deliver(ctx, n); err != nil {
		p.handleFailure(n, err)
		return
	}
	log.Printf("Result notification sent for submission %s (attempt %d)", n.SubmissionID, n.AttemptNo)
}

func (p *Pool) deliver(ctx context.Context, n models.ResultNotification) error {
	to, err := p.recipients.GetEmail(ctx, n.UserID)
	if err != nil {
		return fmt.Errorf("failed to look up recipient %s: %w", n.UserID, err)
	}
	return p.mailer.SendResultEmail(to, n)
}

func (p *Pool) handleFailure(n models.ResultNotification, err error) {
	n.RetryCount++

	if n.RetryCount < maxRetries {
		backoff := time.Duration(1<<uint(n.RetryCount)) * time.Second
		log.Printf("Notification for submission %s failed (attempt %d): %v; retrying in %s", n.SubmissionID, n.RetryCount, err, backoff)
		p.requeue(n, backoff)
		return
	}

	log.Printf("Notification for submission %s failed permanently: %v", n.SubmissionID, err)
}

func (p *Pool) requeueAfter(n models.ResultNotification, delay time.Duration) {
	data, _ := json.Marshal(n)
	time.AfterFunc(delay, func() {
		if err := p.redis.RPush(context.Background(), NotificationQueue, data).Err(); err != nil {
			log.Printf("Failed to re-queue notification for submission %s: %v", n.SubmissionID, err)
		}
	})
}
