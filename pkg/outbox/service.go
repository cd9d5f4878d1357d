package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/ordering-backend/pkg/db/models"
	"github.com/angelmondragon/ordering-backend/pkg/enums"
	"github.com/angelmondragon/ordering-backend/pkg/logger"
)

// ErrInvalidEvent is returned for events that could never be published.
var ErrInvalidEvent = errors.New("invalid outbox event")

// eventAggregates pins each event type to the aggregate allowed to raise it.
var eventAggregates = map[enums.OutboxEventType]enums.OutboxAggregateType{
	enums.EventOrderCreated:       enums.AggregateOrder,
	enums.EventOrderStatusChanged: enums.AggregateOrder,
	enums.EventMenuSeeded:         enums.AggregateMenu,
}

// DomainEvent is what checkout, order status changes and menu seeding hand to
// Emit. Data is marshalled into the envelope's data field.
type DomainEvent struct {
	EventType     enums.OutboxEventType
	AggregateType enums.OutboxAggregateType
	AggregateID   uuid.UUID
	Actor         *ActorRef
	Data          any
	Version       int
	OccurredAt    time.Time
}

func (e DomainEvent) validate() error {
	want, ok := eventAggregates[e.EventType]
	switch {
	case !ok:
		return fmt.Errorf("%w: unknown event type %q", ErrInvalidEvent, e.EventType)
	case e.AggregateType != want:
		return fmt.Errorf("%w: %s belongs to %s aggregates, got %q", ErrInvalidEvent, e.EventType, want, e.AggregateType)
	case e.AggregateID == uuid.Nil:
		return fmt.Errorf("%w: %s without aggregate id", ErrInvalidEvent, e.EventType)
	}
	return nil
}

type Service struct {
	repo *Repository
	logg *logger.Logger
	now  func() time.Time
}

func NewService(repo *Repository, logg *logger.Logger) *Service {
	return &Service{repo: repo, logg: logg, now: time.Now}
}

// Emit stores the event in tx so it commits or rolls back with the order or
// menu change that raised it. The row id doubles as the envelope's event id,
// which consumers use to drop redeliveries.
func (s *Service) Emit(ctx context.Context, tx *gorm.DB, event DomainEvent) error {
	if tx == nil {
		return errors.New("transaction required")
	}
	if err := event.validate(); err != nil {
		return err
	}

	data, err := json.Marshal(event.Data)
	if err != nil {
		return fmt.Errorf("marshal %s data: %w", event.EventType, err)
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = s.now()
	}
	if event.Version == 0 {
		event.Version = 1
	}

	id := uuid.New()
	envelope, err := json.Marshal(PayloadEnvelope{
		Version:    event.Version,
		EventID:    id.String(),
		OccurredAt: event.OccurredAt.UTC(),
		Actor:      event.Actor,
		Data:       data,
	})
	if err != nil {
		return fmt.Errorf("marshal %s envelope: %w", event.EventType, err)
	}

	row := models.OutboxEvent{
		ID:            id,
		EventType:     event.EventType,
		AggregateType: event.AggregateType,
		AggregateID:   event.AggregateID,
		Payload:       envelope,
		CreatedAt:     event.OccurredAt.UTC(),
	}
	if err := s.repo.Insert(tx, row); err != nil {
		return fmt.Errorf("insert %s: %w", event.EventType, err)
	}

	if s.logg != nil {
		ctx = s.logg.WithFields(ctx, map[string]any{
			"event_id":     id.String(),
			"event_type":   event.EventType,
			"aggregate_id": event.AggregateID.String(),
		})
		if event.Actor != nil && event.Actor.SessionID != "" {
			ctx = s.logg.WithSessionID(ctx, event.Actor.SessionID)
		}
		s.logg.Info(ctx, "outbox event queued")
	}
	return nil
}
