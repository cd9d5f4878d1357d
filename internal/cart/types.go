package cart

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/ordering-backend/internal/checkout"
	"github.com/angelmondragon/ordering-backend/internal/customization"
	"github.com/angelmondragon/ordering-backend/internal/pizza"
	"github.com/angelmondragon/ordering-backend/internal/pricing"
	"github.com/angelmondragon/ordering-backend/pkg/enums"
)

// Item is one priced line in a session cart. Prices are the values shown to
// the customer when the item was added; checkout re-prices from the catalog.
type Item struct {
	LineID              uuid.UUID                 `json:"line_id"`
	Kind                enums.LineItemKind        `json:"kind"`
	MenuItemID          *uuid.UUID                `json:"menu_item_id,omitempty"`
	Selections          []customization.Selection `json:"selections,omitempty"`
	Pizza               *pizza.Request            `json:"pizza,omitempty"`
	Name                string                    `json:"name"`
	UnitPrice           decimal.Decimal           `json:"unit_price"`
	Quantity            int                       `json:"quantity"`
	Labels              []customization.Label     `json:"labels"`
	TotalPrice          decimal.Decimal           `json:"total_price"`
	SpecialInstructions *string                   `json:"special_instructions,omitempty"`
	AddedAt             time.Time                 `json:"added_at"`
}

// Cart is the display state stored per session.
type Cart struct {
	SessionID string    `json:"session_id"`
	Items     []Item    `json:"items"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Subtotal sums the displayed line totals.
func (c *Cart) Subtotal() decimal.Decimal {
	totals := make([]decimal.Decimal, 0, len(c.Items))
	for _, item := range c.Items {
		totals = append(totals, item.TotalPrice)
	}
	return pricing.Sum(totals...)
}

// CheckoutLines converts the cart into checkout lines. The displayed unit
// price travels along as the client price so drift can be detected.
func (c *Cart) CheckoutLines() []checkout.LineInput {
	lines := make([]checkout.LineInput, 0, len(c.Items))
	for _, item := range c.Items {
		unit := item.UnitPrice
		lines = append(lines, checkout.LineInput{
			Kind:                item.Kind,
			MenuItemID:          item.MenuItemID,
			Selections:          item.Selections,
			Pizza:               item.Pizza,
			Quantity:            item.Quantity,
			ClientUnitPrice:     &unit,
			SpecialInstructions: item.SpecialInstructions,
		})
	}
	return lines
}

// AddItemInput adds either a menu item with selections or a custom pizza.
type AddItemInput struct {
	MenuItemID          *uuid.UUID                `json:"menu_item_id" validate:"required_without=Pizza"`
	Selections          []customization.Selection `json:"selections" validate:"omitempty,dive"`
	Pizza               *pizza.Request            `json:"pizza" validate:"required_without=MenuItemID"`
	Quantity            int                       `json:"quantity" validate:"gte=1,lte=99"`
	SpecialInstructions *string                   `json:"special_instructions" validate:"omitempty,max=500"`
}

// CartDTO is the API shape of a cart.
type CartDTO struct {
	SessionID string          `json:"session_id"`
	Items     []Item          `json:"items"`
	Subtotal  decimal.Decimal `json:"subtotal"`
	UpdatedAt *time.Time      `json:"updated_at,omitempty"`
}

// NewCartDTO renders a cart for the API.
func NewCartDTO(c *Cart) CartDTO {
	dto := CartDTO{SessionID: c.SessionID, Items: c.Items, Subtotal: c.Subtotal()}
	if dto.Items == nil {
		dto.Items = []Item{}
	}
	if !c.UpdatedAt.IsZero() {
		updated := c.UpdatedAt
		dto.UpdatedAt = &updated
	}
	return dto
}
