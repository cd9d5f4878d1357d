package payloads

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/ordering-backend/pkg/enums"
)

// OrderCreatedEvent is the kitchen ticket emitted after a successful checkout.
type OrderCreatedEvent struct {
	OrderID         uuid.UUID         `json:"order_id"`
	OrderType       enums.OrderType   `json:"order_type"`
	Status          enums.OrderStatus `json:"status"`
	CustomerName    string            `json:"customer_name"`
	DeliveryAddress *string           `json:"delivery_address,omitempty"`
	Total           decimal.Decimal   `json:"total"`
	Currency        string            `json:"currency"`
	Lines           []TicketLine      `json:"lines"`
	PlacedAt        time.Time         `json:"placed_at"`
}

// TicketLine is one line of the kitchen ticket with human readable option labels.
type TicketLine struct {
	Name                string   `json:"name"`
	Quantity            int      `json:"quantity"`
	Options             []string `json:"options,omitempty"`
	SpecialInstructions *string  `json:"special_instructions,omitempty"`
}

// OrderStatusChangedEvent reports a kitchen status transition.
type OrderStatusChangedEvent struct {
	OrderID   uuid.UUID         `json:"order_id"`
	From      enums.OrderStatus `json:"from"`
	To        enums.OrderStatus `json:"to"`
	ChangedAt time.Time         `json:"changed_at"`
}

// MenuSeededEvent lets downstream menu caches refresh after a seed run.
type MenuSeededEvent struct {
	Source     string `json:"source"`
	Categories int    `json:"categories"`
	Items      int    `json:"items"`
	Groups     int    `json:"groups"`
}
