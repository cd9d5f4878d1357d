package maintenance

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/angelmondragon/ordering-backend/pkg/db/models"
	"github.com/angelmondragon/ordering-backend/pkg/logger"
	"github.com/angelmondragon/ordering-backend/pkg/metrics"
)

// ErrLockLost stops a run whose lock expired or was taken over between tasks.
var ErrLockLost = errors.New("maintenance lock lost")

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// RunnerParams configure the maintenance runner.
type RunnerParams struct {
	Logger   *logger.Logger
	Registry *Registry
	Lock     Lock
	Ledger   Ledger
	DB       txRunner
	Metrics  *metrics.MaintenanceTaskMetrics
}

// Report summarises one runner pass.
type Report struct {
	Applied []string
	Skipped []string
	Failed  []string
	Locked  bool
}

// Runner applies registered tasks once each, in registration order.
type Runner struct {
	logg     *logger.Logger
	registry *Registry
	lock     Lock
	ledger   Ledger
	db       txRunner
	metrics  *metrics.MaintenanceTaskMetrics
	now      func() time.Time
}

// NewRunner builds a maintenance runner.
func NewRunner(params RunnerParams) (*Runner, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Lock == nil {
		return nil, fmt.Errorf("lock required")
	}
	if params.Ledger == nil {
		return nil, fmt.Errorf("ledger required")
	}
	if params.DB == nil {
		return nil, fmt.Errorf("db runner required")
	}
	registry := params.Registry
	if registry == nil {
		registry, _ = NewRegistry()
	}
	return &Runner{
		logg:     params.Logger,
		registry: registry,
		lock:     params.Lock,
		ledger:   params.Ledger,
		db:       params.DB,
		metrics:  params.Metrics,
		now:      time.Now,
	}, nil
}

// Run executes every pending task. A failing task does not stop the others;
// all failures are returned together.
func (r *Runner) Run(ctx context.Context) (*Report, error) {
	report := &Report{}
	locked, err := r.lock.Acquire(ctx)
	if err != nil {
		return report, fmt.Errorf("lock acquire: %w", err)
	}
	if !locked {
		report.Locked = true
		r.logg.Info(ctx, "another maintenance run holds the lock; skipping")
		return report, nil
	}
	defer func() {
		if relErr := r.lock.Release(ctx); relErr != nil {
			r.logg.Error(ctx, "failed to release maintenance lock", relErr)
		}
	}()

	r.logg.Info(ctx, "maintenance run starting")
	var errs error
	tasks := r.registry.Tasks()
	for i, task := range tasks {
		if i > 0 {
			held, err := r.lock.Extend(ctx)
			if err == nil && !held {
				err = ErrLockLost
			}
			if err != nil {
				for _, rest := range tasks[i:] {
					report.Skipped = append(report.Skipped, rest.Name())
				}
				errs = multierr.Append(errs, fmt.Errorf("before %s: %w", task.Name(), err))
				r.logg.Error(ctx, "maintenance lock not extended; stopping run", err)
				break
			}
		}
		applied, err := r.runTask(ctx, task)
		switch {
		case err != nil:
			report.Failed = append(report.Failed, task.Name())
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", task.Name(), err))
		case applied:
			report.Applied = append(report.Applied, task.Name())
		default:
			report.Skipped = append(report.Skipped, task.Name())
		}
	}
	r.logg.Info(r.logg.WithFields(ctx, map[string]any{
		"applied": len(report.Applied),
		"skipped": len(report.Skipped),
		"failed":  len(report.Failed),
	}), "maintenance run complete")
	return report, errs
}

func (r *Runner) runTask(ctx context.Context, task Task) (bool, error) {
	name := task.Name()
	taskCtx := r.logg.WithFields(ctx, map[string]any{"task": name, "event": "maintenance.task"})
	repeatable := isRepeatable(task)

	if !repeatable {
		applied, err := r.ledger.Applied(ctx, nil, name)
		if err != nil {
			r.metrics.IncFailure(name)
			return false, fmt.Errorf("read ledger: %w", err)
		}
		if applied {
			r.metrics.IncSkipped(name)
			r.logg.Info(taskCtx, "task already applied")
			return false, nil
		}
	}

	r.logg.Info(taskCtx, "task start")
	start := r.now()
	var affected int64
	err := r.db.WithTx(ctx, func(tx *gorm.DB) error {
		rows, err := task.Run(taskCtx, tx)
		if err != nil {
			return err
		}
		affected = rows
		if repeatable {
			return nil
		}
		return r.ledger.Record(ctx, tx, models.MaintenanceRun{
			Name:       name,
			AppliedAt:  r.now().UTC(),
			DurationMS: r.now().Sub(start).Milliseconds(),
			Affected:   rows,
		})
	})
	duration := r.now().Sub(start)
	r.metrics.ObserveDuration(name, duration)
	taskCtx = r.logg.WithFields(taskCtx, map[string]any{"duration_ms": duration.Milliseconds(), "affected": affected})
	if errors.Is(err, ErrAlreadyRecorded) {
		r.metrics.IncSkipped(name)
		r.logg.Warn(taskCtx, "task recorded by another run; changes rolled back")
		return false, nil
	}
	if err != nil {
		r.metrics.IncFailure(name)
		r.logg.Error(taskCtx, "task failed", err)
		return false, err
	}
	r.metrics.IncSuccess(name)
	r.logg.Info(taskCtx, "task completed")
	return true, nil
}
