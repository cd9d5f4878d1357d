package main

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"time"

	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"
	"gorm.io/gorm"

	"github.com/angelmondragon/ordering-backend/pkg/config"
	"github.com/angelmondragon/ordering-backend/pkg/db/models"
	"github.com/angelmondragon/ordering-backend/pkg/enums"
	"github.com/angelmondragon/ordering-backend/pkg/logger"
	"github.com/angelmondragon/ordering-backend/pkg/outbox"
	"github.com/angelmondragon/ordering-backend/pkg/outbox/registry"
)

const (
	defaultBatchSize    = 50
	defaultPollInterval = 500 * time.Millisecond
	defaultWriteTimeout = 10 * time.Second
	defaultMaxAttempts  = 10
	maxBackoff          = 10 * time.Second
	jitterWindow        = 250 * time.Millisecond
)

// errBrokerUnavailable is returned after a batch in which kafka could not be
// reached. Rows from that batch keep their attempt counts.
var errBrokerUnavailable = errors.New("kafka unavailable")

type dbClient interface {
	Ping(context.Context) error
	WithTx(context.Context, func(tx *gorm.DB) error) error
}

type brokerClient interface {
	Ping(context.Context) error
	Publisher(topic string) *kafkago.Writer
}

type outboxRepository interface {
	FetchUnpublishedForPublish(tx *gorm.DB, limit, maxAttempts int) ([]models.OutboxEvent, error)
	MarkPublishedTx(tx *gorm.DB, id uuid.UUID) error
	MarkFailedTx(tx *gorm.DB, id uuid.UUID, err error) error
	MarkTerminalTx(tx *gorm.DB, id uuid.UUID, err error, terminalAttempts int) error
}

type dlqRepository interface {
	InsertTx(tx *gorm.DB, entry models.OutboxDLQ) error
}

type registryResolver interface {
	Resolve(models.OutboxEvent) (*registry.ResolvedEvent, error)
}

type publisher interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
}

type publisherFactory func(topic string) publisher

type ServiceParams struct {
	Config           *config.Config
	Logger           *logger.Logger
	DB               dbClient
	Broker           brokerClient
	Repository       outboxRepository
	Registry         registryResolver
	PublisherFactory publisherFactory
	DLQRepository    dlqRepository
}

// Service drains outbox_events into kafka. Each batch locks up to batchSize
// rows, writes them with one WriteMessages call per topic and settles every
// row in the same transaction.
type Service struct {
	logg             *logger.Logger
	db               dbClient
	broker           brokerClient
	repo             outboxRepository
	registry         registryResolver
	dlq              dlqRepository
	publisherFactory publisherFactory

	batchSize    int
	maxAttempts  int
	pollInterval time.Duration
	writeTimeout time.Duration
	now          func() time.Time
}

// batchReport counts how the rows of one batch were settled.
type batchReport struct {
	fetched int
	counts  map[disposition]int
}

func (r batchReport) fields() map[string]any {
	fields := map[string]any{"fetched": r.fetched}
	for d, n := range r.counts {
		fields[d.String()] = n
	}
	return fields
}

func NewService(params ServiceParams) (*Service, error) {
	switch {
	case params.Config == nil:
		return nil, errors.New("config is required")
	case params.Logger == nil:
		return nil, errors.New("logger is required")
	case params.DB == nil:
		return nil, errors.New("database client is required")
	case params.Broker == nil:
		return nil, errors.New("kafka client is required")
	case params.Repository == nil:
		return nil, errors.New("outbox repository is required")
	case params.Registry == nil:
		return nil, errors.New("event registry is required")
	case params.DLQRepository == nil:
		return nil, errors.New("dlq repository is required")
	}

	factory := params.PublisherFactory
	if factory == nil {
		factory = func(topic string) publisher {
			if w := params.Broker.Publisher(topic); w != nil {
				return w
			}
			return nil
		}
	}

	s := &Service{
		logg:             params.Logger,
		db:               params.DB,
		broker:           params.Broker,
		repo:             params.Repository,
		registry:         params.Registry,
		dlq:              params.DLQRepository,
		publisherFactory: factory,
		batchSize:        params.Config.Outbox.BatchSize,
		maxAttempts:      params.Config.Outbox.MaxAttempts,
		pollInterval:     time.Duration(params.Config.Outbox.PollIntervalMS) * time.Millisecond,
		writeTimeout:     params.Config.Kafka.WriteTimeout,
		now:              time.Now,
	}
	if s.batchSize <= 0 {
		s.batchSize = defaultBatchSize
	}
	if s.maxAttempts <= 0 {
		s.maxAttempts = defaultMaxAttempts
	}
	if s.pollInterval <= 0 {
		s.pollInterval = defaultPollInterval
	}
	if s.writeTimeout <= 0 {
		s.writeTimeout = defaultWriteTimeout
	}
	return s, nil
}

// Run polls until ctx is canceled. A full batch is followed immediately by
// the next one; failures back off exponentially up to maxBackoff.
func (s *Service) Run(ctx context.Context) error {
	if err := s.db.Ping(ctx); err != nil {
		return fmt.Errorf("database ping: %w", err)
	}
	if err := s.broker.Ping(ctx); err != nil {
		return fmt.Errorf("kafka ping: %w", err)
	}

	backoff := s.pollInterval
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		report, err := s.processBatch(ctx)
		var wait time.Duration
		switch {
		case err != nil:
			backoff = min(backoff*2, maxBackoff)
			wait = backoff
			s.logg.Error(s.logg.WithFields(ctx, report.fields()), "outbox batch failed", err)
		case report.fetched == 0:
			backoff = s.pollInterval
			wait = s.pollInterval
		default:
			backoff = s.pollInterval
			s.logg.Info(s.logg.WithFields(ctx, report.fields()), "outbox batch settled")
			continue
		}

		timer := time.NewTimer(wait + jitter(wait))
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// jitter spreads idle polls of several publishers by up to a quarter of wait.
func jitter(wait time.Duration) time.Duration {
	window := min(wait/4, jitterWindow)
	if window <= 0 {
		return 0
	}
	return time.Duration(rand.Int63n(int64(window)))
}

func (s *Service) processBatch(ctx context.Context) (batchReport, error) {
	report := batchReport{counts: map[disposition]int{}}
	var unreachable error

	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		events, err := s.repo.FetchUnpublishedForPublish(tx, s.batchSize, s.maxAttempts)
		if err != nil {
			return fmt.Errorf("fetch outbox batch: %w", err)
		}
		report.fetched = len(events)

		results := make([]error, len(events))
		resolved := make([]*registry.ResolvedEvent, len(events))
		byTopic := map[string][]int{}
		for i, event := range events {
			r, err := s.registry.Resolve(event)
			if err != nil {
				results[i] = registry.NewNonRetryableError(fmt.Errorf("resolve: %w", err))
				continue
			}
			resolved[i] = r
			byTopic[r.Descriptor.Topic] = append(byTopic[r.Descriptor.Topic], i)
		}

		topics := make([]string, 0, len(byTopic))
		for topic := range byTopic {
			topics = append(topics, topic)
		}
		sort.Strings(topics)
		for _, topic := range topics {
			idx := byTopic[topic]
			msgs := make([]kafkago.Message, len(idx))
			for j, i := range idx {
				msgs[j] = recordFor(events[i], resolved[i].Envelope)
			}
			for j, err := range s.write(ctx, topic, msgs) {
				results[idx[j]] = err
			}
		}

		for i, event := range events {
			d, err := s.settle(ctx, tx, event, resolved[i], results[i])
			if err != nil {
				return err
			}
			report.counts[d]++
			if d == deferred && unreachable == nil {
				unreachable = results[i]
			}
		}
		return nil
	})
	if err != nil {
		return report, err
	}
	if unreachable != nil {
		return report, fmt.Errorf("%w: %w", errBrokerUnavailable, unreachable)
	}
	return report, nil
}

func (s *Service) write(ctx context.Context, topic string, msgs []kafkago.Message) []error {
	pub := s.publisherFactory(topic)
	if pub == nil {
		return splitWriteErrors(registry.NewNonRetryableError(fmt.Errorf("no writer for topic %s", topic)), len(msgs))
	}
	writeCtx, cancel := context.WithTimeout(ctx, s.writeTimeout)
	defer cancel()
	return splitWriteErrors(pub.WriteMessages(writeCtx, msgs...), len(msgs))
}

// recordFor keys the record by aggregate id so every event of one order lands
// on the same partition in the order it was written.
func recordFor(event models.OutboxEvent, envelope outbox.PayloadEnvelope) kafkago.Message {
	return kafkago.Message{
		Key:   []byte(event.AggregateID.String()),
		Value: event.Payload,
		Headers: []kafkago.Header{
			{Key: "event_id", Value: []byte(envelope.EventID)},
			{Key: "event_type", Value: []byte(event.EventType)},
			{Key: "aggregate_type", Value: []byte(event.AggregateType)},
			{Key: "created_at", Value: []byte(event.CreatedAt.UTC().Format(time.RFC3339Nano))},
		},
	}
}

// settle records the outcome of one row and returns how it was settled. A
// retry that reaches maxAttempts is dead-lettered instead.
func (s *Service) settle(ctx context.Context, tx *gorm.DB, event models.OutboxEvent, resolved *registry.ResolvedEvent, cause error) (disposition, error) {
	d := classifyWriteError(cause)
	ctx = s.logg.WithFields(ctx, eventFields(event, resolved))
	if cause != nil {
		ctx = s.logg.WithFields(ctx, map[string]any{"error": cause.Error(), "disposition": d.String()})
	}

	switch d {
	case published:
		if err := s.repo.MarkPublishedTx(tx, event.ID); err != nil {
			return d, fmt.Errorf("mark published %s: %w", event.ID, err)
		}
		s.logg.Info(ctx, "outbox event published")
		return d, nil

	case deferred:
		s.logg.Warn(ctx, "kafka unreachable, event left for the next batch")
		return d, nil

	case retry:
		attempts := event.AttemptCount + 1
		if attempts < s.maxAttempts {
			if err := s.repo.MarkFailedTx(tx, event.ID, cause); err != nil {
				return d, fmt.Errorf("mark failed %s: %w", event.ID, err)
			}
			s.logg.Warn(ctx, "outbox publish failed, will retry")
			return d, nil
		}
		cause = fmt.Errorf("gave up after %d attempts: %w", attempts, cause)
		return deadLetter, s.sendToDLQ(ctx, tx, event, enums.OutboxDLQReasonMaxAttempts, cause, attempts)

	default:
		return deadLetter, s.sendToDLQ(ctx, tx, event, enums.OutboxDLQReasonNonRetryable, cause, event.AttemptCount+1)
	}
}

func (s *Service) sendToDLQ(ctx context.Context, tx *gorm.DB, event models.OutboxEvent, reason enums.OutboxDLQErrorReason, cause error, attempts int) error {
	msg := cause.Error()
	entry := models.OutboxDLQ{
		EventID:       event.ID,
		EventType:     event.EventType,
		AggregateType: event.AggregateType,
		AggregateID:   event.AggregateID,
		Payload:       event.Payload,
		ErrorReason:   reason,
		ErrorMessage:  &msg,
		AttemptCount:  attempts,
		FailedAt:      s.now().UTC(),
	}
	if err := s.dlq.InsertTx(tx, entry); err != nil {
		return fmt.Errorf("insert dlq %s: %w", event.ID, err)
	}
	if err := s.repo.MarkTerminalTx(tx, event.ID, cause, s.maxAttempts); err != nil {
		return fmt.Errorf("mark terminal %s: %w", event.ID, err)
	}
	s.logg.Warn(s.logg.WithField(ctx, "error_reason", reason), "outbox event dead-lettered")
	return nil
}

func eventFields(event models.OutboxEvent, resolved *registry.ResolvedEvent) map[string]any {
	fields := map[string]any{
		"outbox_id":     event.ID.String(),
		"event_type":    event.EventType,
		"aggregate_id":  event.AggregateID.String(),
		"attempt_count": event.AttemptCount,
	}
	if event.AggregateType == enums.AggregateOrder {
		fields["order_id"] = event.AggregateID.String()
	}
	if resolved != nil {
		fields["topic"] = resolved.Descriptor.Topic
		fields["event_id"] = resolved.Envelope.EventID
	}
	return fields
}
