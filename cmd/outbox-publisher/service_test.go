package main

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"

	"github.com/splitbite/splitbite-backend/pkg/config"
	"github.com/splitbite/splitbite-backend/pkg/db/models"
	"github.com/splitbite/splitbite-backend/pkg/logger"
	"github.com/splitbite/splitbite-backend/pkg/outbox"
)

type fakeOutboxRepo struct {
	pending   []models.OutboxEvent
	published []uuid.UUID
	failed    []uuid.UUID
	fetchErr  error
}

func (f *fakeOutboxRepo) FetchPending(limit int) ([]models.OutboxEvent, error) {
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	if len(f.pending) > limit {
		return f.pending[:limit], nil
	}
	out := f.pending
	f.pending = nil
	return out, nil
}

func (f *fakeOutboxRepo) MarkPublished(id uuid.UUID) error {
	f.published = append(f.published, id)
	return nil
}

func (f *fakeOutboxRepo) MarkFailed(id uuid.UUID, publishErr error, maxAttempts int) error {
	f.failed = append(f.failed, id)
	return nil
}

type fakePublisher struct {
	messages []*gcppubsub.Message
	err      error
}

type fakeResult struct {
	err error
}

func (r fakeResult) Get(ctx context.Context) (string, error) {
	if r.err != nil {
		return "", r.err
	}
	return "msg-1", nil
}

func (f *fakePublisher) Publish(ctx context.Context, msg *gcppubsub.Message) publishResult {
	f.messages = append(f.messages, msg)
	return fakeResult{err: f.err}
}

func pendingEvent(eventType string) models.OutboxEvent {
	return models.OutboxEvent{
		ID:            uuid.New(),
		EventType:     eventType,
		AggregateType: outbox.AggregateOrder,
		AggregateID:   uuid.New(),
		Payload:       []byte(`{"version":1}`),
		Status:        models.OutboxStatusPending,
		CreatedAt:     time.Now().UTC(),
	}
}

func newTestPublisher(t *testing.T, repo outboxRepository, pub publisher) *Service {
	t.Helper()
	svc, err := NewService(ServiceParams{
		Config:     &config.Config{},
		Logger:     logger.New(logger.Options{ServiceName: "outbox-test", Output: io.Discard}),
		Repository: repo,
		Publisher:  pub,
	})
	if err != nil {
		t.Fatalf("building service: %v", err)
	}
	return svc
}

func TestProcessBatch_PublishesAndMarks(t *testing.T) {
	first := pendingEvent(outbox.EventOrderPlaced)
	second := pendingEvent(outbox.EventReimbursementSettled)
	repo := &fakeOutboxRepo{pending: []models.OutboxEvent{first, second}}
	pub := &fakePublisher{}
	svc := newTestPublisher(t, repo, pub)

	processed, err := svc.processBatch(context.Background())
	if err != nil {
		t.Fatalf("processBatch: %v", err)
	}
	if !processed {
		t.Fatalf("expected batch to be processed")
	}
	if len(pub.messages) != 2 {
		t.Fatalf("published %d messages, want 2", len(pub.messages))
	}
	if len(repo.published) != 2 || repo.published[0] != first.ID {
		t.Fatalf("published ids = %v", repo.published)
	}
	if got := pub.messages[0].Attributes["event_type"]; got != outbox.EventOrderPlaced {
		t.Fatalf("event_type attribute = %q", got)
	}
}

func TestProcessBatch_EmptyQueueIsIdle(t *testing.T) {
	repo := &fakeOutboxRepo{}
	svc := newTestPublisher(t, repo, &fakePublisher{})

	processed, err := svc.processBatch(context.Background())
	if err != nil {
		t.Fatalf("processBatch: %v", err)
	}
	if processed {
		t.Fatalf("expected idle batch")
	}
}

func TestProcessBatch_PublishFailureMarksFailed(t *testing.T) {
	event := pendingEvent(outbox.EventOrderPlaced)
	repo := &fakeOutboxRepo{pending: []models.OutboxEvent{event}}
	pub := &fakePublisher{err: errors.New("broker down")}
	svc := newTestPublisher(t, repo, pub)

	processed, err := svc.processBatch(context.Background())
	if err != nil {
		t.Fatalf("processBatch should tolerate publish failures, got %v", err)
	}
	if !processed {
		t.Fatalf("expected batch to be processed")
	}
	if len(repo.failed) != 1 || repo.failed[0] != event.ID {
		t.Fatalf("failed ids = %v", repo.failed)
	}
	if len(repo.published) != 0 {
		t.Fatalf("nothing should be marked published")
	}
}

func TestRun_StopsOnContextCancel(t *testing.T) {
	repo := &fakeOutboxRepo{}
	svc := newTestPublisher(t, repo, &fakePublisher{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := svc.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
