package orders

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/ordering-backend/pkg/db/models"
	"github.com/angelmondragon/ordering-backend/pkg/enums"
)

// OrderDTO is the API shape of a placed order.
type OrderDTO struct {
	ID              uuid.UUID         `json:"id"`
	OrderType       enums.OrderType   `json:"order_type"`
	Status          enums.OrderStatus `json:"status"`
	CustomerName    string            `json:"customer_name"`
	CustomerPhone   string            `json:"customer_phone"`
	DeliveryAddress *string           `json:"delivery_address,omitempty"`
	Notes           *string           `json:"notes,omitempty"`
	Currency        string            `json:"currency"`
	Subtotal        decimal.Decimal   `json:"subtotal"`
	TaxRate         decimal.Decimal   `json:"tax_rate"`
	Tax             decimal.Decimal   `json:"tax"`
	DeliveryFee     decimal.Decimal   `json:"delivery_fee"`
	Tip             decimal.Decimal   `json:"tip"`
	Total           decimal.Decimal   `json:"total"`
	PriceAdjusted   bool              `json:"price_adjusted"`
	LineItems       []LineItemDTO     `json:"line_items"`
	CreatedAt       time.Time         `json:"created_at"`
}

// LineItemDTO is one priced line with its option snapshots.
type LineItemDTO struct {
	ID                  uuid.UUID          `json:"id"`
	Position            int                `json:"position"`
	Kind                enums.LineItemKind `json:"kind"`
	MenuItemID          *uuid.UUID         `json:"menu_item_id,omitempty"`
	PizzaSizeID         *uuid.UUID         `json:"pizza_size_id,omitempty"`
	Name                string             `json:"name"`
	UnitPrice           decimal.Decimal    `json:"unit_price"`
	Quantity            int                `json:"quantity"`
	TotalPrice          decimal.Decimal    `json:"total_price"`
	SpecialInstructions *string            `json:"special_instructions,omitempty"`
	Options             []OptionDTO        `json:"options"`
}

// OptionDTO is an option as it was priced when the order was placed.
type OptionDTO struct {
	GroupName     string          `json:"group_name"`
	OptionID      uuid.UUID       `json:"option_id"`
	OptionName    string          `json:"option_name"`
	Quantity      int             `json:"quantity"`
	PriceModifier decimal.Decimal `json:"price_modifier"`
	Placement     *string         `json:"placement,omitempty"`
}

// NewOrderDTO maps a persisted order to its API shape.
func NewOrderDTO(order *models.Order) OrderDTO {
	dto := OrderDTO{
		ID:              order.ID,
		OrderType:       order.OrderType,
		Status:          order.Status,
		CustomerName:    order.CustomerName,
		CustomerPhone:   order.CustomerPhone,
		DeliveryAddress: order.DeliveryAddress,
		Notes:           order.Notes,
		Currency:        order.Currency,
		Subtotal:        order.Subtotal,
		TaxRate:         order.TaxRate,
		Tax:             order.Tax,
		DeliveryFee:     order.DeliveryFee,
		Tip:             order.Tip,
		Total:           order.Total,
		PriceAdjusted:   order.PriceAdjusted,
		LineItems:       make([]LineItemDTO, 0, len(order.LineItems)),
		CreatedAt:       order.CreatedAt,
	}
	for _, line := range order.LineItems {
		item := LineItemDTO{
			ID:                  line.ID,
			Position:            line.Position,
			Kind:                line.Kind,
			MenuItemID:          line.MenuItemID,
			PizzaSizeID:         line.PizzaSizeID,
			Name:                line.Name,
			UnitPrice:           line.UnitPrice,
			Quantity:            line.Quantity,
			TotalPrice:          line.TotalPrice,
			SpecialInstructions: line.SpecialInstructions,
			Options:             make([]OptionDTO, 0, len(line.Options)),
		}
		for _, opt := range line.Options {
			item.Options = append(item.Options, OptionDTO{
				GroupName:     opt.GroupName,
				OptionID:      opt.OptionID,
				OptionName:    opt.OptionName,
				Quantity:      opt.Quantity,
				PriceModifier: opt.PriceModifier,
				Placement:     opt.Placement,
			})
		}
		dto.LineItems = append(dto.LineItems, item)
	}
	return dto
}
