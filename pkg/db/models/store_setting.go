package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// DefaultStoreSettingID keys the single settings row used by the storefront.
const DefaultStoreSettingID = "default"

// StoreSetting carries the fee schedule resolved at order time.
type StoreSetting struct {
	ID          string          `gorm:"column:id;primaryKey"`
	TaxRate     decimal.Decimal `gorm:"column:tax_rate;type:numeric(6,4);not null"`
	DeliveryFee decimal.Decimal `gorm:"column:delivery_fee;type:numeric(10,2);not null"`
	PickupFee   decimal.Decimal `gorm:"column:pickup_fee;type:numeric(10,2);not null;default:0"`
	Currency    string          `gorm:"column:currency;not null;default:'USD'"`
	UpdatedAt   time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
