package main

import (
	"context"
	"errors"
	"math/rand"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/harborline/storefront-backend/pkg/config"
	"github.com/harborline/storefront-backend/pkg/db/models"
	"github.com/harborline/storefront-backend/pkg/logger"
	"github.com/harborline/storefront-backend/pkg/metrics"
)

const (
	defaultBatchSize      = 50
	defaultPollMs         = 500
	defaultMaxAttempts    = 10
	defaultPublishTimeout = 15 * time.Second
	maxBackoff            = 10 * time.Second
	jitterWindow          = 250 * time.Millisecond
)

var jitterSource = rand.New(rand.NewSource(time.Now().UnixNano()))

type dbClient interface {
	Ping(context.Context) error
	WithTx(context.Context, func(tx *gorm.DB) error) error
}

type pubSubClient interface {
	Ping(context.Context) error
	NotificationPublisher() *gcppubsub.Publisher
}

type outboxRepository interface {
	FetchUnpublished(limit int) ([]models.OutboxEvent, error)
	CountUnpublished() (int64, error)
	MarkPublished(id uuid.UUID) error
	MarkFailed(id uuid.UUID, err error) error
	DeleteTx(tx *gorm.DB, id uuid.UUID) error
}

type dlqRepository interface {
	InsertTx(tx *gorm.DB, entry models.OutboxDeadLetter) error
}

type publishResult interface {
	Get(context.Context) (string, error)
}

type publisher interface {
	Publish(context.Context, *gcppubsub.Message) publishResult
}

type gcpPublisher struct {
	inner *gcppubsub.Publisher
}

func (p gcpPublisher) Publish(ctx context.Context, msg *gcppubsub.Message) publishResult {
	return p.inner.Publish(ctx, msg)
}

type ServiceParams struct {
	Config     *config.Config
	Logger     *logger.Logger
	DB         dbClient
	PubSub     pubSubClient
	Repository outboxRepository
	DLQ        dlqRepository
	Metrics    *metrics.OutboxMetrics

	// Publisher overrides the Pub/Sub notification publisher in tests.
	Publisher publisher
}

// Service drains the outbox table: every unpublished row is pushed to
// the notification topic with its logical channel and event type as
// message attributes, then marked published. Rows that exhaust their
// attempts move to the dead letter table.
type Service struct {
	cfg          *config.Config
	logg         *logger.Logger
	db           dbClient
	pubsub       pubSubClient
	repo         outboxRepository
	dlq          dlqRepository
	metrics      *metrics.OutboxMetrics
	pub          publisher
	batchSize    int
	maxAttempts  int
	pollInterval time.Duration
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Config == nil {
		return nil, errors.New("config is required")
	}
	if params.Logger == nil {
		return nil, errors.New("logger is required")
	}
	if params.DB == nil {
		return nil, errors.New("database client is required")
	}
	if params.Repository == nil {
		return nil, errors.New("outbox repository is required")
	}
	if params.DLQ == nil {
		return nil, errors.New("dlq repository is required")
	}

	pub := params.Publisher
	if pub == nil {
		if params.PubSub == nil {
			return nil, errors.New("pubsub client is required")
		}
		inner := params.PubSub.NotificationPublisher()
		if inner == nil {
			return nil, errors.New("notification publisher is not configured")
		}
		pub = gcpPublisher{inner: inner}
	}

	batch := params.Config.Outbox.BatchSize
	if batch <= 0 {
		batch = defaultBatchSize
	}
	pollMs := params.Config.Outbox.PollIntervalMS
	if pollMs <= 0 {
		pollMs = defaultPollMs
	}
	maxAttempts := params.Config.Outbox.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxAttempts
	}

	return &Service{
		cfg:          params.Config,
		logg:         params.Logger,
		db:           params.DB,
		pubsub:       params.PubSub,
		repo:         params.Repository,
		dlq:          params.DLQ,
		metrics:      params.Metrics,
		pub:          pub,
		batchSize:    batch,
		maxAttempts:  maxAttempts,
		pollInterval: time.Duration(pollMs) * time.Millisecond,
	}, nil
}

func (s *Service) ensureReadiness(ctx context.Context) error {
	if err := s.db.Ping(ctx); err != nil {
		return errors.Join(errors.New("database ping failed"), err)
	}
	if s.pubsub != nil {
		if err := s.pubsub.Ping(ctx); err != nil {
			return errors.Join(errors.New("pubsub ping failed"), err)
		}
	}
	return nil
}

// Run polls until the context is canceled. Batch failures back off with
// jitter so a flapping broker is not hammered.
func (s *Service) Run(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	if err := s.ensureReadiness(ctx); err != nil {
		return err
	}

	interval := s.pollInterval
	backoff := interval

	for {
		select {
		case <-ctx.Done():
			s.logg.Info(ctx, "outbox publisher context canceled")
			return ctx.Err()
		default:
		}

		processed, err := s.ProcessBatch(ctx)
		if err != nil {
			s.logg.Error(ctx, "outbox publisher batch error", err)
			backoff = nextBackoff(backoff, interval, maxBackoff)
			if err := s.sleep(ctx, withJitter(backoff)); err != nil {
				return err
			}
			continue
		}

		backoff = interval

		if processed {
			continue
		}

		if err := s.sleep(ctx, withJitter(interval)); err != nil {
			return err
		}
	}
}

// ProcessBatch drains one batch and reports whether any rows were seen.
func (s *Service) ProcessBatch(ctx context.Context) (bool, error) {
	start := time.Now()
	defer func() {
		s.metrics.ObserveBatch(time.Since(start))
	}()

	if backlog, err := s.repo.CountUnpublished(); err == nil {
		s.metrics.SetBacklog(int(backlog))
	}

	events, err := s.repo.FetchUnpublished(s.batchSize)
	if err != nil {
		return false, err
	}
	if len(events) == 0 {
		return false, nil
	}

	var errs error
	for _, event := range events {
		if err := s.processEvent(ctx, event); err != nil {
			errs = multierr.Append(errs, err)
		}
	}
	return true, errs
}

func (s *Service) processEvent(ctx context.Context, event models.OutboxEvent) error {
	fields := map[string]any{
		"event_id":   event.ID.String(),
		"event_type": string(event.EventType),
		"channel":    event.Topic,
		"attempts":   event.AttemptCount,
	}
	logCtx := s.logg.WithFields(ctx, fields)

	if err := s.publish(ctx, event); err != nil {
		s.metrics.IncFailed()
		s.logg.Error(logCtx, "outbox publish failed", err)

		if markErr := s.repo.MarkFailed(event.ID, err); markErr != nil {
			return multierr.Append(err, markErr)
		}
		if event.AttemptCount+1 >= s.maxAttempts {
			if parkErr := s.park(ctx, event, err); parkErr != nil {
				return multierr.Append(err, parkErr)
			}
			s.metrics.IncDeadLetter()
			s.logg.Warn(logCtx, "outbox event parked in dead letter table")
		}
		// The row stays unpublished and is retried on a later poll.
		return nil
	}

	if err := s.repo.MarkPublished(event.ID); err != nil {
		// The message went out; failing to mark means a duplicate
		// delivery on the next poll, which consumers must tolerate.
		return err
	}
	s.metrics.IncPublished()
	s.logg.Info(logCtx, "outbox event published")
	return nil
}

func (s *Service) publish(ctx context.Context, event models.OutboxEvent) error {
	publishCtx, cancel := context.WithTimeout(ctx, defaultPublishTimeout)
	defer cancel()

	result := s.pub.Publish(publishCtx, &gcppubsub.Message{
		Data: event.Payload,
		Attributes: map[string]string{
			"channel":    event.Topic,
			"event_type": string(event.EventType),
		},
	})
	_, err := result.Get(publishCtx)
	return err
}

func (s *Service) park(ctx context.Context, event models.OutboxEvent, cause error) error {
	return s.db.WithTx(ctx, func(tx *gorm.DB) error {
		entry := models.OutboxDeadLetter{
			EventID:     event.ID,
			EventType:   string(event.EventType),
			Topic:       event.Topic,
			Payload:     event.Payload,
			Reason:      cause.Error(),
			Attempts:    event.AttemptCount + 1,
			FirstSeenAt: event.CreatedAt,
		}
		if err := s.dlq.InsertTx(tx, entry); err != nil {
			return err
		}
		return s.repo.DeleteTx(tx, event.ID)
	})
}

func (s *Service) sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func nextBackoff(current, floor, ceiling time.Duration) time.Duration {
	next := current * 2
	if next < floor {
		next = floor
	}
	if next > ceiling {
		next = ceiling
	}
	return next
}

func withJitter(d time.Duration) time.Duration {
	if d <= 0 {
		return d
	}
	return d + time.Duration(jitterSource.Int63n(int64(jitterWindow)))
}
