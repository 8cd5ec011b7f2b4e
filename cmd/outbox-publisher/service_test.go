package main

import (
	"context"
	"errors"
	"testing"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/harborline/storefront-backend/pkg/config"
	"github.com/harborline/storefront-backend/pkg/db/models"
	"github.com/harborline/storefront-backend/pkg/enums"
	"github.com/harborline/storefront-backend/pkg/logger"
)

type fakeDB struct{}

func (fakeDB) Ping(context.Context) error { return nil }

func (fakeDB) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(&gorm.DB{})
}

type fakeRepo struct {
	events    []models.OutboxEvent
	published []uuid.UUID
	failed    []uuid.UUID
	deleted   []uuid.UUID
}

func (f *fakeRepo) FetchUnpublished(limit int) ([]models.OutboxEvent, error) {
	if limit < len(f.events) {
		return f.events[:limit], nil
	}
	return f.events, nil
}

func (f *fakeRepo) CountUnpublished() (int64, error) {
	return int64(len(f.events)), nil
}

func (f *fakeRepo) MarkPublished(id uuid.UUID) error {
	f.published = append(f.published, id)
	return nil
}

func (f *fakeRepo) MarkFailed(id uuid.UUID, err error) error {
	f.failed = append(f.failed, id)
	return nil
}

func (f *fakeRepo) DeleteTx(tx *gorm.DB, id uuid.UUID) error {
	f.deleted = append(f.deleted, id)
	return nil
}

type fakeDLQ struct {
	entries []models.OutboxDeadLetter
}

func (f *fakeDLQ) InsertTx(tx *gorm.DB, entry models.OutboxDeadLetter) error {
	f.entries = append(f.entries, entry)
	return nil
}

type fakePublishResult struct {
	err error
}

func (f fakePublishResult) Get(context.Context) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return "server-id", nil
}

type fakePublisher struct {
	results  []publishResult
	messages []*gcppubsub.Message
}

func (f *fakePublisher) Publish(ctx context.Context, msg *gcppubsub.Message) publishResult {
	f.messages = append(f.messages, msg)
	if len(f.results) == 0 {
		return fakePublishResult{}
	}
	result := f.results[0]
	f.results = f.results[1:]
	return result
}

func orderEvent(attempts int) models.OutboxEvent {
	customerID := uuid.New()
	return models.OutboxEvent{
		ID:            uuid.New(),
		EventType:     enums.EventOrderStatusChanged,
		AggregateType: enums.AggregateOrder,
		AggregateID:   uuid.New(),
		Topic:         "user:" + customerID.String() + ":orders",
		Payload:       []byte(`{"version":1}`),
		AttemptCount:  attempts,
	}
}

func newTestService(t *testing.T, repo *fakeRepo, dlq *fakeDLQ, pub *fakePublisher) *Service {
	t.Helper()
	cfg := &config.Config{}
	cfg.Outbox = config.OutboxConfig{BatchSize: 10, PollIntervalMS: 10, MaxAttempts: 3}
	service, err := NewService(ServiceParams{
		Config:     cfg,
		Logger:     logger.New(logger.Options{ServiceName: "outbox-test"}),
		DB:         fakeDB{},
		Repository: repo,
		DLQ:        dlq,
		Publisher:  pub,
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return service
}

func TestProcessBatchPublishesWithAttributes(t *testing.T) {
	event := orderEvent(0)
	repo := &fakeRepo{events: []models.OutboxEvent{event}}
	pub := &fakePublisher{}
	service := newTestService(t, repo, &fakeDLQ{}, pub)

	processed, err := service.ProcessBatch(context.Background())
	if err != nil {
		t.Fatalf("process batch: %v", err)
	}
	if !processed {
		t.Fatal("expected batch to report processed")
	}
	if len(repo.published) != 1 || repo.published[0] != event.ID {
		t.Fatalf("expected event marked published, got %v", repo.published)
	}
	if len(pub.messages) != 1 {
		t.Fatalf("expected one message, got %d", len(pub.messages))
	}
	msg := pub.messages[0]
	if msg.Attributes["channel"] != event.Topic {
		t.Fatalf("unexpected channel attribute %q", msg.Attributes["channel"])
	}
	if msg.Attributes["event_type"] != string(enums.EventOrderStatusChanged) {
		t.Fatalf("unexpected event_type attribute %q", msg.Attributes["event_type"])
	}
	if string(msg.Data) != `{"version":1}` {
		t.Fatalf("payload not forwarded verbatim: %s", msg.Data)
	}
}

func TestProcessBatchContinuesAfterFailure(t *testing.T) {
	first := orderEvent(0)
	second := orderEvent(0)
	repo := &fakeRepo{events: []models.OutboxEvent{first, second}}
	pub := &fakePublisher{
		results: []publishResult{
			fakePublishResult{err: errors.New("transient")},
			fakePublishResult{},
		},
	}
	service := newTestService(t, repo, &fakeDLQ{}, pub)

	processed, err := service.ProcessBatch(context.Background())
	if err != nil {
		t.Fatalf("process batch: %v", err)
	}
	if !processed {
		t.Fatal("expected batch to report processed")
	}
	if len(repo.failed) != 1 || repo.failed[0] != first.ID {
		t.Fatalf("expected first event marked failed, got %v", repo.failed)
	}
	if len(repo.published) != 1 || repo.published[0] != second.ID {
		t.Fatalf("expected second event published, got %v", repo.published)
	}
}

func TestExhaustedEventMovesToDeadLetter(t *testing.T) {
	// Two prior attempts recorded; this failure is the third and last.
	event := orderEvent(2)
	repo := &fakeRepo{events: []models.OutboxEvent{event}}
	dlq := &fakeDLQ{}
	pub := &fakePublisher{results: []publishResult{fakePublishResult{err: errors.New("broker down")}}}
	service := newTestService(t, repo, dlq, pub)

	if _, err := service.ProcessBatch(context.Background()); err != nil {
		t.Fatalf("process batch: %v", err)
	}
	if len(dlq.entries) != 1 {
		t.Fatalf("expected one dead letter, got %d", len(dlq.entries))
	}
	entry := dlq.entries[0]
	if entry.EventID != event.ID {
		t.Fatal("dead letter references wrong event")
	}
	if entry.Attempts != 3 {
		t.Fatalf("expected 3 attempts recorded, got %d", entry.Attempts)
	}
	if entry.Reason == "" {
		t.Fatal("dead letter reason missing")
	}
	if len(repo.deleted) != 1 || repo.deleted[0] != event.ID {
		t.Fatalf("expected original row deleted, got %v", repo.deleted)
	}
	if len(repo.published) != 0 {
		t.Fatal("parked event must not be marked published")
	}
}

func TestRunStopsOnContextCancel(t *testing.T) {
	repo := &fakeRepo{}
	service := newTestService(t, repo, &fakeDLQ{}, &fakePublisher{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := service.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
