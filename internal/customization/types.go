package customization

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/ordering-backend/internal/rules"
	"github.com/angelmondragon/ordering-backend/pkg/db/models"
)

// Selection is one client-submitted option choice.
type Selection struct {
	OptionID uuid.UUID `json:"option_id" validate:"required"`
	Quantity int       `json:"quantity" validate:"gte=0,lte=99"`
}

// GroupError is one field-level problem tied to a group when it has one.
type GroupError = rules.Violation

// ValidationReport lists every problem with a selection, never just the first.
type ValidationReport struct {
	IsValid bool         `json:"is_valid"`
	Errors  []GroupError `json:"errors"`
}

// PricedChoice is an accepted option with the modifier read from the catalog.
type PricedChoice struct {
	GroupID       uuid.UUID       `json:"group_id"`
	GroupName     string          `json:"group_name"`
	OptionID      uuid.UUID       `json:"option_id"`
	OptionName    string          `json:"option_name"`
	Quantity      int             `json:"quantity"`
	PriceModifier decimal.Decimal `json:"price_modifier"`
}

// Quote is the result of validating and pricing one selection against a
// single catalog snapshot. UnitPrice is only meaningful when Report.IsValid.
type Quote struct {
	Item      models.MenuItem
	Report    ValidationReport
	Choices   []PricedChoice
	UnitPrice decimal.Decimal
}

// Label is the display form of one chosen option.
type Label struct {
	GroupName     string          `json:"group_name"`
	OptionName    string          `json:"option_name"`
	Quantity      int             `json:"quantity"`
	PriceModifier decimal.Decimal `json:"price_modifier"`
	Display       string          `json:"display"`
}

// CartItem is the cart-ready rendering of a priced selection.
type CartItem struct {
	MenuItemID uuid.UUID       `json:"menu_item_id"`
	Name       string          `json:"name"`
	UnitPrice  decimal.Decimal `json:"unit_price"`
	Quantity   int             `json:"quantity"`
	Labels     []Label         `json:"labels"`
	TotalPrice decimal.Decimal `json:"total_price"`
	Selections []Selection     `json:"selections"`
}
