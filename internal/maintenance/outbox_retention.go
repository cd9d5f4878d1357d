package maintenance

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
)

const defaultOutboxRetention = 30 * 24 * time.Hour

type outboxRetentionRepo interface {
	DeletePublishedBefore(ctx context.Context, tx *gorm.DB, cutoff time.Time) (int64, error)
}

// OutboxRetentionTask prunes published outbox rows older than the retention
// window. It runs on every pass.
type OutboxRetentionTask struct {
	repo      outboxRetentionRepo
	retention time.Duration
	now       func() time.Time
}

// NewOutboxRetentionTask builds the retention task. Zero retention means 30 days.
func NewOutboxRetentionTask(repo outboxRetentionRepo, retention time.Duration) (*OutboxRetentionTask, error) {
	if repo == nil {
		return nil, fmt.Errorf("outbox repository required")
	}
	if retention <= 0 {
		retention = defaultOutboxRetention
	}
	return &OutboxRetentionTask{repo: repo, retention: retention, now: time.Now}, nil
}

func (t *OutboxRetentionTask) Name() string     { return "outbox_retention" }
func (t *OutboxRetentionTask) Repeatable() bool { return true }

func (t *OutboxRetentionTask) Run(ctx context.Context, tx *gorm.DB) (int64, error) {
	cutoff := t.now().UTC().Add(-t.retention)
	rows, err := t.repo.DeletePublishedBefore(ctx, tx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("outbox retention: %w", err)
	}
	return rows, nil
}
