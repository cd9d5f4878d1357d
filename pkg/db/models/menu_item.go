package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// MenuItem is an orderable product with a base price in currency units.
type MenuItem struct {
	ID          uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CategoryID  uuid.UUID       `gorm:"column:category_id;type:uuid;not null"`
	Name        string          `gorm:"column:name;not null"`
	Description *string         `gorm:"column:description"`
	BasePrice   decimal.Decimal `gorm:"column:base_price;type:numeric(10,2);not null"`
	IsAvailable bool            `gorm:"column:is_available;not null;default:true"`
	Position    int             `gorm:"column:position;not null;default:0"`
	CreatedAt   time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

func (m *MenuItem) BeforeCreate(tx *gorm.DB) error {
	ensureID(&m.ID)
	return nil
}

// MenuItemGroup attaches a customization group to a menu item in display order.
type MenuItemGroup struct {
	MenuItemID uuid.UUID `gorm:"column:menu_item_id;type:uuid;primaryKey"`
	GroupID    uuid.UUID `gorm:"column:group_id;type:uuid;primaryKey"`
	Position   int       `gorm:"column:position;not null;default:0"`
}

func (MenuItemGroup) TableName() string {
	return "menu_item_groups"
}
