package controllers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/ordering-backend/api/responses"
	"github.com/angelmondragon/ordering-backend/api/validators"
	"github.com/angelmondragon/ordering-backend/internal/pizza"
	pkgerrors "github.com/angelmondragon/ordering-backend/pkg/errors"
	"github.com/angelmondragon/ordering-backend/pkg/logger"
)

type pizzaPriceResponse struct {
	SizeID    uuid.UUID             `json:"size_id"`
	Name      string                `json:"name"`
	UnitPrice decimal.Decimal       `json:"unit_price"`
	Toppings  []pizza.PricedTopping `json:"toppings"`
}

// PizzaMenu lists sizes and toppings with per-size prices.
func PizzaMenu(svc pizza.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "pizza service unavailable"))
			return
		}
		menu, err := svc.Menu(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, menu)
	}
}

// PizzaPrice prices a build-your-own pizza or rejects it with the report.
func PizzaPrice(svc pizza.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "pizza service unavailable"))
			return
		}
		var payload pizza.Request
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		quote, err := svc.Price(r.Context(), payload)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		toppings := quote.Toppings
		if toppings == nil {
			toppings = []pizza.PricedTopping{}
		}
		responses.WriteSuccess(w, pizzaPriceResponse{
			SizeID:    quote.Size.ID,
			Name:      quote.Name,
			UnitPrice: quote.UnitPrice,
			Toppings:  toppings,
		})
	}
}
