package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"quizzer-backend/internal/models"
)

type stubRecipients struct {
	emails map[uuid.UUID]string
}

func (s *stubRecipients) GetEmail(_ context.Context, id uuid.UUID) (string, error) {
	email, ok := s.emails[id]
	if !ok {
		return "", pgx.ErrNoRows
	}
	return email, nil
}

type stubMailer struct {
	err  error
	sent []string
}

func (m *stubMailer) SendResultEmail(to string, _ models.ResultNotification) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, to)
	return nil
}

type requeued struct {
	n     models.ResultNotification
	delay time.Duration
}

func newTestPool(recipients RecipientLookup, mailer Mailer) (*Pool, *[]requeued) {
	var calls []requeued
	p := NewPool(nil, recipients, mailer, 1)
	p.requeue = func(n models.ResultNotification, delay time.Duration) {
		calls = append(calls, requeued{n: n, delay: delay})
	}
	return p, &calls
}

func TestProcess_DeliversToRegisteredAddress(t *testing.T) {
	userID := uuid.New()
	mailer := &stubMailer{}
	p, calls := newTestPool(&stubRecipients{emails: map[uuid.UUID]string{userID: "ada@example.com"}}, mailer)

	p.process(context.Background(), models.ResultNotification{UserID: userID, SubmissionID: uuid.New(), AttemptNo: 1})

	if len(mailer.sent) != 1 || mailer.sent[0] != "ada@example.com" {
		t.Fatalf("expected one email to ada@example.com, got %v", mailer.sent)
	}
	if len(*calls) != 0 {
		t.Fatalf("expected no requeue, got %d", len(*calls))
	}
}

func TestProcess_RetriesWithBackoffThenDrops(t *testing.T) {
	userID := uuid.New()
	mailer := &stubMailer{err: errors.New("smtp down")}
	p, calls := newTestPool(&stubRecipients{emails: map[uuid.UUID]string{userID: "ada@example.com"}}, mailer)

	n := models.ResultNotification{UserID: userID, SubmissionID: uuid.New()}
	p.process(context.Background(), n)
	if len(*calls) != 1 {
		t.Fatalf("expected a requeue after the first failure, got %d", len(*calls))
	}
	first := (*calls)[0]
	if first.n.RetryCount != 1 || first.delay != 2*time.Second {
		t.Fatalf("unexpected first retry: count=%d delay=%s", first.n.RetryCount, first.delay)
	}

	p.process(context.Background(), first.n)
	second := (*calls)[1]
	if second.n.RetryCount != 2 || second.delay != 4*time.Second {
		t.Fatalf("unexpected second retry: count=%d delay=%s", second.n.RetryCount, second.delay)
	}

	p.process(context.Background(), second.n)
	if len(*calls) != 2 {
		t.Fatalf("expected the notification to be dropped after %d attempts, got %d requeues", maxRetries, len(*calls))
	}
}

func TestProcess_UnknownRecipientIsRetried(t *testing.T) {
	mailer := &stubMailer{}
	p, calls := newTestPool(&stubRecipients{emails: map[uuid.UUID]string{}}, mailer)

	p.process(context.Background(), models.ResultNotification{UserID: uuid.New(), SubmissionID: uuid.New()})

	if len(mailer.sent) != 0 {
		t.Fatalf("expected no email, got %v", mailer.sent)
	}
	if len(*calls) != 1 {
		t.Fatalf("expected one requeue, got %d", len(*calls))
	}
}

func TestClaim_LockErrorRequeuesWithoutDelivering(t *testing.T) {
	userID := uuid.New()
	mailer := &stubMailer{}
	p, calls := newTestPool(&stubRecipients{emails: map[uuid.UUID]string{userID: "ada@example.com"}}, mailer)
	p.lock = func(context.Context, string) (bool, error) {
		return false, errors.New("connection reset")
	}

	n := models.ResultNotification{UserID: userID, SubmissionID: uuid.New(), RetryCount: 1}
	p.claim(context.Background(), 0, n)

	if len(mailer.sent) != 0 {
		t.Fatalf("expected no email, got %v", mailer.sent)
	}
	if len(*calls) != 1 {
		t.Fatalf("expected one requeue, got %d", len(*calls))
	}
	if (*calls)[0].n.RetryCount != 1 || (*calls)[0].delay != lockRetryDelay {
		t.Fatalf("unexpected requeue: count=%d delay=%s", (*calls)[0].n.RetryCount, (*calls)[0].delay)
	}
}

func TestClaim_SkipsWhenAnotherWorkerHoldsTheLock(t *testing.T) {
	userID := uuid.New()
	mailer := &stubMailer{}
	p, calls := newTestPool(&stubRecipients{emails: map[uuid.UUID]string{userID: "ada@example.com"}}, mailer)
	var gotKey string
	p.lock = func(_ context.Context, key string) (bool, error) {
		gotKey = key
		return false, nil
	}

	n := models.ResultNotification{UserID: userID, SubmissionID: uuid.New(), RetryCount: 2}
	p.claim(context.Background(), 0, n)

	if want := "notify_lock:" + n.SubmissionID.String() + ":2"; gotKey != want {
		t.Fatalf("expected lock key %q, got %q", want, gotKey)
	}
	if len(mailer.sent) != 0 || len(*calls) != 0 {
		t.Fatalf("expected nothing sent or requeued, got %v / %d", mailer.sent, len(*calls))
	}
}

func TestClaim_DeliversWhenLocked(t *testing.T) {
	userID := uuid.New()
	mailer := &stubMailer{}
	p, _ := newTestPool(&stubRecipients{emails: map[uuid.UUID]string{userID: "ada@example.com"}}, mailer)
	p.lock = func(context.Context, string) (bool, error) { return true, nil }

	p.claim(context.Background(), 0, models.ResultNotification{UserID: userID, SubmissionID: uuid.New()})

	if len(mailer.sent) != 1 {
		t.Fatalf("expected one email, got %v", mailer.sent)
	}
}
