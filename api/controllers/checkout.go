package controllers

import (
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/ordering-backend/api/middleware"
	"github.com/angelmondragon/ordering-backend/api/responses"
	"github.com/angelmondragon/ordering-backend/api/validators"
	"github.com/angelmondragon/ordering-backend/internal/cart"
	"github.com/angelmondragon/ordering-backend/internal/checkout"
	"github.com/angelmondragon/ordering-backend/internal/orders"
	"github.com/angelmondragon/ordering-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/ordering-backend/pkg/errors"
	"github.com/angelmondragon/ordering-backend/pkg/logger"
)

const (
	maxCustomerNameLen = 120
	maxNotesLen        = 1000
)

type checkoutRequest struct {
	OrderType       enums.OrderType      `json:"order_type" validate:"required,oneof=pickup delivery"`
	CustomerName    string               `json:"customer_name" validate:"required,max=120"`
	CustomerPhone   string               `json:"customer_phone" validate:"required,max=32"`
	DeliveryAddress *string              `json:"delivery_address" validate:"omitempty,max=500"`
	Notes           *string              `json:"notes" validate:"omitempty,max=1000"`
	Lines           []checkout.LineInput `json:"lines" validate:"omitempty,max=50,dive"`
	Tip             decimal.Decimal      `json:"tip"`
	ClientTotal     *decimal.Decimal     `json:"client_total"`
}

type checkoutMeta struct {
	PriceAdjusted bool `json:"price_adjusted"`
}

// Checkout re-prices the submitted lines, or the session cart when no lines
// are sent, and places the order. Client prices are advisory.
func Checkout(svc checkout.Service, carts cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		var payload checkoutRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		sessionID := middleware.SessionIDFromContext(r.Context())
		lines := payload.Lines
		fromCart := len(lines) == 0
		if fromCart {
			if carts == nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "lines are required"))
				return
			}
			c, err := carts.Get(r.Context(), sessionID)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			if len(c.Items) == 0 {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty"))
				return
			}
			lines = c.CheckoutLines()
		}

		input := checkout.CheckoutInput{
			OrderType:       payload.OrderType,
			CustomerName:    validators.SanitizeString(payload.CustomerName, maxCustomerNameLen),
			CustomerPhone:   strings.TrimSpace(payload.CustomerPhone),
			DeliveryAddress: payload.DeliveryAddress,
			Notes:           sanitizeOptional(payload.Notes, maxNotesLen),
			Cart: checkout.CartInput{
				Lines:       lines,
				Tip:         payload.Tip,
				ClientTotal: payload.ClientTotal,
			},
		}
		if sessionID != "" {
			input.SessionID = &sessionID
		}

		order, err := svc.Checkout(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if fromCart {
			if err := carts.Clear(r.Context(), sessionID); err != nil && logg != nil {
				logg.Error(logg.WithOrderID(r.Context(), order.ID.String()), "checkout.cart_clear_failed", err)
			}
		}

		responses.WriteSuccessMeta(w, http.StatusCreated, orders.NewOrderDTO(order), checkoutMeta{PriceAdjusted: order.PriceAdjusted})
	}
}

func sanitizeOptional(value *string, maxLen int) *string {
	if value == nil {
		return nil
	}
	clean := validators.SanitizeString(*value, maxLen)
	if clean == "" {
		return nil
	}
	return &clean
}
