package controllers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/ordering-backend/api/responses"
	"github.com/angelmondragon/ordering-backend/api/validators"
	"github.com/angelmondragon/ordering-backend/internal/customization"
	pkgerrors "github.com/angelmondragon/ordering-backend/pkg/errors"
	"github.com/angelmondragon/ordering-backend/pkg/logger"
)

type selectionRequest struct {
	MenuItemID uuid.UUID                 `json:"menu_item_id" validate:"required"`
	Selections []customization.Selection `json:"selections" validate:"max=100,dive"`
}

type formatRequest struct {
	selectionRequest
	Quantity int `json:"quantity" validate:"gte=1,lte=99"`
}

type priceResponse struct {
	MenuItemID uuid.UUID       `json:"menu_item_id"`
	Price      decimal.Decimal `json:"price"`
}

// ValidateCustomization returns the full validation report. An invalid
// selection is a successful call with is_valid=false.
func ValidateCustomization(engine customization.Engine, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if engine == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "customization engine unavailable"))
			return
		}
		var payload selectionRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		report, err := engine.ValidateSelections(r.Context(), payload.MenuItemID, payload.Selections)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, report)
	}
}

// PriceCustomization validates and prices against a single catalog read so the
// report and the price can never disagree.
func PriceCustomization(engine customization.Engine, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if engine == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "customization engine unavailable"))
			return
		}
		var payload selectionRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		quote, err := engine.Quote(r.Context(), payload.MenuItemID, payload.Selections)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if !quote.Report.IsValid {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeSelectionRejected, "selection does not validate").WithDetails(quote.Report))
			return
		}
		responses.WriteSuccess(w, priceResponse{MenuItemID: quote.Item.ID, Price: quote.UnitPrice})
	}
}

// FormatForCart renders a validated selection as a cart item.
func FormatForCart(engine customization.Engine, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if engine == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "customization engine unavailable"))
			return
		}
		var payload formatRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		item, err := engine.FormatForCart(r.Context(), payload.MenuItemID, payload.Selections, payload.Quantity)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, item)
	}
}
