package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/ordering-backend/pkg/enums"
)

// Order is the persisted, server-priced result of a checkout. Money fields are
// frozen at creation; only Status changes afterwards.
type Order struct {
	ID              uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	SessionID       *string             `gorm:"column:session_id"`
	OrderType       enums.OrderType     `gorm:"column:order_type;not null"`
	Status          enums.OrderStatus   `gorm:"column:status;not null;default:'received'"`
	CustomerName    string              `gorm:"column:customer_name;not null"`
	CustomerPhone   string              `gorm:"column:customer_phone;not null"`
	DeliveryAddress *string             `gorm:"column:delivery_address"`
	Notes           *string             `gorm:"column:notes"`
	Currency        string              `gorm:"column:currency;not null;default:'USD'"`
	Subtotal        decimal.Decimal     `gorm:"column:subtotal;type:numeric(10,2);not null"`
	TaxRate         decimal.Decimal     `gorm:"column:tax_rate;type:numeric(6,4);not null"`
	Tax             decimal.Decimal     `gorm:"column:tax;type:numeric(10,2);not null"`
	DeliveryFee     decimal.Decimal     `gorm:"column:delivery_fee;type:numeric(10,2);not null"`
	Tip             decimal.Decimal     `gorm:"column:tip;type:numeric(10,2);not null;default:0"`
	Total           decimal.Decimal     `gorm:"column:total;type:numeric(10,2);not null"`
	ClientTotal     decimal.NullDecimal `gorm:"column:client_total;type:numeric(10,2)"`
	PriceAdjusted   bool                `gorm:"column:price_adjusted;not null;default:false"`
	LineItems       []OrderLineItem     `gorm:"foreignKey:OrderID"`
	CreatedAt       time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

func (o *Order) BeforeCreate(tx *gorm.DB) error {
	ensureID(&o.ID)
	return nil
}
