package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// PizzaSize is a build-your-own crust size. MaxToppings of 0 means unbounded.
type PizzaSize struct {
	ID          uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name        string          `gorm:"column:name;not null;uniqueIndex"`
	DiameterIn  int             `gorm:"column:diameter_in;not null"`
	BasePrice   decimal.Decimal `gorm:"column:base_price;type:numeric(10,2);not null"`
	MaxToppings int             `gorm:"column:max_toppings;not null;default:0"`
	Position    int             `gorm:"column:position;not null;default:0"`
	IsActive    bool            `gorm:"column:is_active;not null;default:true"`
	CreatedAt   time.Time       `gorm:"column:created_at;autoCreateTime"`
}

func (s *PizzaSize) BeforeCreate(tx *gorm.DB) error {
	ensureID(&s.ID)
	return nil
}

type PizzaTopping struct {
	ID        uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name      string              `gorm:"column:name;not null;uniqueIndex"`
	Position  int                 `gorm:"column:position;not null;default:0"`
	IsActive  bool                `gorm:"column:is_active;not null;default:true"`
	Prices    []PizzaToppingPrice `gorm:"foreignKey:ToppingID"`
	CreatedAt time.Time           `gorm:"column:created_at;autoCreateTime"`
}

func (t *PizzaTopping) BeforeCreate(tx *gorm.DB) error {
	ensureID(&t.ID)
	return nil
}

// PizzaToppingPrice is the whole-pizza price of a topping on a given size.
type PizzaToppingPrice struct {
	ToppingID uuid.UUID       `gorm:"column:topping_id;type:uuid;primaryKey"`
	SizeID    uuid.UUID       `gorm:"column:size_id;type:uuid;primaryKey"`
	Price     decimal.Decimal `gorm:"column:price;type:numeric(10,2);not null"`
}
