package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/ordering-backend/pkg/enums"
	"github.com/angelmondragon/ordering-backend/pkg/types"
)

// OrderLineItem captures the snapshot of each item within an order.
type OrderLineItem struct {
	ID                  uuid.UUID             `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID             uuid.UUID             `gorm:"column:order_id;type:uuid;not null"`
	Position            int                   `gorm:"column:position;not null"`
	Kind                enums.LineItemKind    `gorm:"column:kind;not null"`
	MenuItemID          *uuid.UUID            `gorm:"column:menu_item_id;type:uuid"`
	PizzaSizeID         *uuid.UUID            `gorm:"column:pizza_size_id;type:uuid"`
	Name                string                `gorm:"column:name;not null"`
	UnitPrice           decimal.Decimal       `gorm:"column:unit_price;type:numeric(10,2);not null"`
	Quantity            int                   `gorm:"column:quantity;not null"`
	TotalPrice          decimal.Decimal       `gorm:"column:total_price;type:numeric(10,2);not null"`
	ClientUnitPrice     decimal.NullDecimal   `gorm:"column:client_unit_price;type:numeric(10,2)"`
	Selections          types.Selections      `gorm:"column:selections;type:jsonb;not null"`
	SpecialInstructions *string               `gorm:"column:special_instructions"`
	Options             []OrderLineItemOption `gorm:"foreignKey:LineItemID"`
	CreatedAt           time.Time             `gorm:"column:created_at;autoCreateTime"`
}

func (l *OrderLineItem) BeforeCreate(tx *gorm.DB) error {
	ensureID(&l.ID)
	return nil
}

// OrderLineItemOption snapshots one chosen option with the modifier charged at order time.
type OrderLineItemOption struct {
	ID            uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	LineItemID    uuid.UUID       `gorm:"column:line_item_id;type:uuid;not null"`
	GroupName     string          `gorm:"column:group_name;not null"`
	OptionID      uuid.UUID       `gorm:"column:option_id;type:uuid;not null"`
	OptionName    string          `gorm:"column:option_name;not null"`
	Quantity      int             `gorm:"column:quantity;not null"`
	PriceModifier decimal.Decimal `gorm:"column:price_modifier;type:numeric(10,2);not null"`
	Placement     *string         `gorm:"column:placement"`
}

func (o *OrderLineItemOption) BeforeCreate(tx *gorm.DB) error {
	ensureID(&o.ID)
	return nil
}
