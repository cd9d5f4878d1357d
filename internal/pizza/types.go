package pizza

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/ordering-backend/internal/customization"
	"github.com/angelmondragon/ordering-backend/pkg/db/models"
	"github.com/angelmondragon/ordering-backend/pkg/enums"
)

// ToppingSelection is one topping on a build-your-own pizza.
type ToppingSelection struct {
	ToppingID uuid.UUID              `json:"topping_id" validate:"required"`
	Placement enums.ToppingPlacement `json:"placement" validate:"omitempty,oneof=whole left right"`
	Extra     bool                   `json:"extra"`
}

// Request describes a build-your-own pizza.
type Request struct {
	SizeID   uuid.UUID          `json:"size_id" validate:"required"`
	Toppings []ToppingSelection `json:"toppings" validate:"omitempty,dive"`
}

// PricedTopping is an accepted topping with the amount it adds to the pizza.
type PricedTopping struct {
	ToppingID uuid.UUID              `json:"topping_id"`
	Name      string                 `json:"name"`
	Placement enums.ToppingPlacement `json:"placement"`
	Extra     bool                   `json:"extra"`
	Price     decimal.Decimal        `json:"price"`
}

// Quote is a validated and priced pizza. UnitPrice is only meaningful when
// Report.IsValid.
type Quote struct {
	Size      models.PizzaSize
	Name      string
	Report    customization.ValidationReport
	Toppings  []PricedTopping
	UnitPrice decimal.Decimal
}

// SizeView is a size as listed on the pizza menu.
type SizeView struct {
	ID          uuid.UUID       `json:"id"`
	Name        string          `json:"name"`
	DiameterIn  int             `json:"diameter_in"`
	BasePrice   decimal.Decimal `json:"base_price"`
	MaxToppings int             `json:"max_toppings"`
}

// ToppingView lists a topping with its whole-pizza price per size id.
type ToppingView struct {
	ID     uuid.UUID                  `json:"id"`
	Name   string                     `json:"name"`
	Prices map[string]decimal.Decimal `json:"prices"`
}

// Menu is the build-your-own pizza menu.
type Menu struct {
	Sizes    []SizeView    `json:"sizes"`
	Toppings []ToppingView `json:"toppings"`
}
