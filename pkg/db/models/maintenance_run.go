package models

import "time"

// MaintenanceRun records a maintenance task that has been applied.
type MaintenanceRun struct {
	Name       string    `gorm:"column:name;primaryKey"`
	AppliedAt  time.Time `gorm:"column:applied_at;not null"`
	DurationMS int64     `gorm:"column:duration_ms;not null"`
	Affected   int64     `gorm:"column:affected;not null;default:0"`
}
