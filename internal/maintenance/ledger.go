package maintenance

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	pkgdb "github.com/angelmondragon/ordering-backend/pkg/db"
	"github.com/angelmondragon/ordering-backend/pkg/db/models"
)

// ErrAlreadyRecorded means another run recorded the task first. The caller's
// transaction must roll back so the task's changes are not applied twice.
var ErrAlreadyRecorded = errors.New("maintenance task already recorded")

// Ledger records which tasks have been applied.
type Ledger interface {
	Applied(ctx context.Context, tx *gorm.DB, name string) (bool, error)
	Record(ctx context.Context, tx *gorm.DB, run models.MaintenanceRun) error
	List(ctx context.Context) ([]models.MaintenanceRun, error)
}

type gormLedger struct {
	db *gorm.DB
}

// NewLedger builds the maintenance_runs ledger.
func NewLedger(db *gorm.DB) Ledger {
	return &gormLedger{db: db}
}

func (l *gormLedger) Applied(ctx context.Context, tx *gorm.DB, name string) (bool, error) {
	var count int64
	err := l.conn(tx).WithContext(ctx).
		Model(&models.MaintenanceRun{}).
		Where("name = ?", name).
		Count(&count).Error
	return count > 0, err
}

func (l *gormLedger) Record(ctx context.Context, tx *gorm.DB, run models.MaintenanceRun) error {
	err := l.conn(tx).WithContext(ctx).Create(&run).Error
	if pkgdb.IsUniqueViolation(err, "maintenance_runs_pkey") {
		return fmt.Errorf("%s: %w", run.Name, ErrAlreadyRecorded)
	}
	return err
}

func (l *gormLedger) List(ctx context.Context) ([]models.MaintenanceRun, error) {
	var runs []models.MaintenanceRun
	err := l.db.WithContext(ctx).Order("applied_at ASC, name ASC").Find(&runs).Error
	return runs, err
}

func (l *gormLedger) conn(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return l.db
}
