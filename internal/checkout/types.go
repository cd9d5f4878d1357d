package checkout

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/ordering-backend/internal/customization"
	"github.com/angelmondragon/ordering-backend/internal/pizza"
	"github.com/angelmondragon/ordering-backend/pkg/enums"
	"github.com/angelmondragon/ordering-backend/pkg/types"
)

// LineInput is one cart line as submitted by the client. Prices on it are
// advisory and only used to detect discrepancies.
type LineInput struct {
	Kind                enums.LineItemKind        `json:"kind" validate:"omitempty,oneof=menu_item custom_pizza"`
	MenuItemID          *uuid.UUID                `json:"menu_item_id" validate:"required_without=Pizza"`
	Selections          []customization.Selection `json:"selections" validate:"omitempty,dive"`
	Pizza               *pizza.Request            `json:"pizza" validate:"required_without=MenuItemID"`
	Quantity            int                       `json:"quantity" validate:"gte=1,lte=99"`
	ClientUnitPrice     *decimal.Decimal          `json:"client_unit_price"`
	SpecialInstructions *string                   `json:"special_instructions" validate:"omitempty,max=500"`
}

// kind resolves the line kind, inferring it from the payload when omitted.
func (l LineInput) kind() enums.LineItemKind {
	if l.Kind != "" {
		return l.Kind
	}
	if l.Pizza != nil {
		return enums.LineItemKindCustomPizza
	}
	return enums.LineItemKindMenuItem
}

// CartInput is the full cart submitted at checkout.
type CartInput struct {
	Lines       []LineInput      `json:"lines" validate:"required,min=1,max=50,dive"`
	Tip         decimal.Decimal  `json:"tip"`
	ClientTotal *decimal.Decimal `json:"client_total"`
}

// FeeSchedule is resolved once per checkout and passed in explicitly so a
// reconciliation is reproducible from its inputs.
type FeeSchedule struct {
	TaxRate     decimal.Decimal
	DeliveryFee decimal.Decimal
}

// ReconciledOption is an option priced at order time.
type ReconciledOption struct {
	GroupName     string
	OptionID      uuid.UUID
	OptionName    string
	Quantity      int
	PriceModifier decimal.Decimal
	Placement     *string
}

// ReconciledLine is a cart line re-priced from the catalog.
type ReconciledLine struct {
	Index               int
	Kind                enums.LineItemKind
	MenuItemID          *uuid.UUID
	PizzaSizeID         *uuid.UUID
	Name                string
	UnitPrice           decimal.Decimal
	Quantity            int
	TotalPrice          decimal.Decimal
	ClientUnitPrice     decimal.NullDecimal
	Options             []ReconciledOption
	Selections          types.Selections
	SpecialInstructions *string
}

// Discrepancy records a client amount that differed from the server amount
// beyond tolerance. LineIndex is nil for the order total.
type Discrepancy struct {
	Scope     string
	LineIndex *int
	Client    decimal.Decimal
	Server    decimal.Decimal
}

// LineError identifies a cart line that no longer validates.
type LineError struct {
	LineIndex int                        `json:"line_index"`
	Name      string                     `json:"name,omitempty"`
	Errors    []customization.GroupError `json:"errors"`
}

// LineItemInvalidDetails is attached to LINE_ITEM_INVALID errors.
type LineItemInvalidDetails struct {
	Lines []LineError `json:"lines"`
}

// Reconciliation is the authoritative pricing of a cart.
// Total == Subtotal + Tax + DeliveryFee + Tip.
type Reconciliation struct {
	Lines         []ReconciledLine
	Subtotal      decimal.Decimal
	TaxRate       decimal.Decimal
	Tax           decimal.Decimal
	DeliveryFee   decimal.Decimal
	Tip           decimal.Decimal
	Total         decimal.Decimal
	ClientTotal   decimal.NullDecimal
	Discrepancies []Discrepancy
}

// PriceAdjusted reports whether any client amount was overridden.
func (r *Reconciliation) PriceAdjusted() bool {
	return len(r.Discrepancies) > 0
}
