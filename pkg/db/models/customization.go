package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	dbtypes "github.com/angelmondragon/ordering-backend/pkg/db/types"
	"github.com/angelmondragon/ordering-backend/pkg/enums"
)

// CustomizationGroup is a named set of options with cardinality rules.
// MaxSelections nil means unbounded.
type CustomizationGroup struct {
	ID            uuid.UUID             `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name          string                `gorm:"column:name;not null;uniqueIndex"`
	Kind          enums.SelectionKind   `gorm:"column:kind;not null"`
	IsRequired    bool                  `gorm:"column:is_required;not null;default:false"`
	MinSelections int                   `gorm:"column:min_selections;not null;default:0"`
	MaxSelections *int                  `gorm:"column:max_selections"`
	IsActive      bool                  `gorm:"column:is_active;not null;default:true"`
	Options       []CustomizationOption `gorm:"foreignKey:GroupID"`
	CreatedAt     time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}

func (g *CustomizationGroup) BeforeCreate(tx *gorm.DB) error {
	ensureID(&g.ID)
	return nil
}

// CustomizationOption is one choice inside a group. PriceModifier may be negative.
type CustomizationOption struct {
	ID            uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	GroupID       uuid.UUID       `gorm:"column:group_id;type:uuid;not null"`
	Name          string          `gorm:"column:name;not null"`
	PriceModifier decimal.Decimal `gorm:"column:price_modifier;type:numeric(10,2);not null;default:0"`
	MaxQuantity   int             `gorm:"column:max_quantity;not null;default:1"`
	IsDefault     bool            `gorm:"column:is_default;not null;default:false"`
	IsActive      bool            `gorm:"column:is_active;not null;default:true"`
	Position      int             `gorm:"column:position;not null;default:0"`
	CreatedAt     time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

func (o *CustomizationOption) BeforeCreate(tx *gorm.DB) error {
	ensureID(&o.ID)
	return nil
}

// CombinedSelectionRule requires exactly TargetCount distinct options across GroupIDs.
type CombinedSelectionRule struct {
	ID          uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	MenuItemID  uuid.UUID         `gorm:"column:menu_item_id;type:uuid;not null"`
	Name        string            `gorm:"column:name;not null"`
	GroupIDs    dbtypes.UUIDArray `gorm:"column:group_ids;type:uuid[];not null"`
	TargetCount int               `gorm:"column:target_count;not null"`
	IsActive    bool              `gorm:"column:is_active;not null;default:true"`
	CreatedAt   time.Time         `gorm:"column:created_at;autoCreateTime"`
}

func (r *CombinedSelectionRule) BeforeCreate(tx *gorm.DB) error {
	ensureID(&r.ID)
	return nil
}
