// Package pizza prices build-your-own pizzas. Size and toppings are checked
// with the same rule evaluator as menu items through two synthetic groups.
package pizza

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/ordering-backend/internal/customization"
	"github.com/angelmondragon/ordering-backend/internal/pricing"
	"github.com/angelmondragon/ordering-backend/internal/rules"
	"github.com/angelmondragon/ordering-backend/pkg/db/models"
	"github.com/angelmondragon/ordering-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/ordering-backend/pkg/errors"
)

var (
	sizeGroupID    = uuid.NewSHA1(uuid.NameSpaceOID, []byte("pizza.size"))
	toppingGroupID = uuid.NewSHA1(uuid.NameSpaceOID, []byte("pizza.toppings"))
	two            = decimal.NewFromInt(2)
)

const (
	sizeGroupName    = "Size"
	toppingGroupName = "Toppings"
)

// CatalogReader is the subset of the catalog the pizza path reads.
type CatalogReader interface {
	ListPizzaSizes(ctx context.Context) ([]models.PizzaSize, error)
	ListPizzaToppings(ctx context.Context) ([]models.PizzaTopping, error)
}

type Service interface {
	Menu(ctx context.Context) (*Menu, error)
	Quote(ctx context.Context, req Request) (*Quote, error)
	Price(ctx context.Context, req Request) (*Quote, error)
}

type service struct {
	catalog CatalogReader
}

func NewService(catalog CatalogReader) (Service, error) {
	if catalog == nil {
		return nil, fmt.Errorf("catalog reader required")
	}
	return &service{catalog: catalog}, nil
}

func (s *service) Menu(ctx context.Context) (*Menu, error) {
	sizes, toppings, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	menu := &Menu{
		Sizes:    make([]SizeView, 0, len(sizes)),
		Toppings: make([]ToppingView, 0, len(toppings)),
	}
	for _, size := range sizes {
		menu.Sizes = append(menu.Sizes, SizeView{
			ID:          size.ID,
			Name:        size.Name,
			DiameterIn:  size.DiameterIn,
			BasePrice:   size.BasePrice,
			MaxToppings: size.MaxToppings,
		})
	}
	for _, topping := range toppings {
		prices := make(map[string]decimal.Decimal, len(topping.Prices))
		for _, p := range topping.Prices {
			prices[p.SizeID.String()] = p.Price
		}
		menu.Toppings = append(menu.Toppings, ToppingView{ID: topping.ID, Name: topping.Name, Prices: prices})
	}
	return menu, nil
}

func (s *service) Quote(ctx context.Context, req Request) (*Quote, error) {
	sizes, toppings, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	quote := Evaluate(sizes, toppings, req)
	return &quote, nil
}

// Price is Quote for callers that need a price; an invalid pizza is rejected
// with the report as details.
func (s *service) Price(ctx context.Context, req Request) (*Quote, error) {
	quote, err := s.Quote(ctx, req)
	if err != nil {
		return nil, err
	}
	if !quote.Report.IsValid {
		return nil, pkgerrors.New(pkgerrors.CodeSelectionRejected, "pizza does not validate").
			WithDetails(quote.Report)
	}
	return quote, nil
}

func (s *service) snapshot(ctx context.Context) ([]models.PizzaSize, []models.PizzaTopping, error) {
	sizes, err := s.catalog.ListPizzaSizes(ctx)
	if err != nil {
		return nil, nil, err
	}
	toppings, err := s.catalog.ListPizzaToppings(ctx)
	if err != nil {
		return nil, nil, err
	}
	return sizes, toppings, nil
}

// Evaluate validates and prices req against one catalog snapshot.
// Price = size base + sum(topping price for the size * placement portion * (2 if extra)).
func Evaluate(sizes []models.PizzaSize, toppings []models.PizzaTopping, req Request) Quote {
	var violations []rules.Violation

	sizeResult := rules.Evaluate(sizeGroup(sizes), []rules.Choice{{OptionID: req.SizeID, Quantity: 1}})
	violations = append(violations, sizeResult.Violations...)

	var size *models.PizzaSize
	for i := range sizes {
		if sizes[i].ID == req.SizeID {
			size = &sizes[i]
			break
		}
	}

	prices := make(map[uuid.UUID]decimal.Decimal)
	names := make(map[uuid.UUID]string)
	if size != nil {
		for _, topping := range toppings {
			for _, p := range topping.Prices {
				if p.SizeID == size.ID {
					prices[topping.ID] = p.Price
					names[topping.ID] = topping.Name
				}
			}
		}
	}

	chosen := make([]rules.Choice, 0, len(req.Toppings))
	for _, sel := range req.Toppings {
		chosen = append(chosen, rules.Choice{OptionID: sel.ToppingID, Quantity: 1})
		if sel.Placement != "" && !sel.Placement.IsValid() {
			toppingID := sel.ToppingID
			groupID := toppingGroupID
			violations = append(violations, rules.Violation{
				Code:      rules.CodeUnknownOption,
				GroupID:   &groupID,
				GroupName: toppingGroupName,
				OptionID:  &toppingID,
				Message:   fmt.Sprintf("unknown placement %q", sel.Placement),
			})
		}
	}
	if size != nil {
		toppingResult := rules.Evaluate(toppingGroup(*size, toppings, prices), chosen)
		violations = append(violations, toppingResult.Violations...)
	}

	quote := Quote{Report: reportOf(violations)}
	if size == nil {
		return quote
	}
	quote.Size = *size
	quote.Name = fmt.Sprintf("%s Build Your Own Pizza", size.Name)
	if !quote.Report.IsValid {
		return quote
	}

	modifiers := make([]pricing.Modifier, 0, len(req.Toppings))
	for _, sel := range req.Toppings {
		placement := sel.Placement
		if placement == "" {
			placement = enums.ToppingPlacementWhole
		}
		amount := prices[sel.ToppingID].Mul(placement.Portion())
		if sel.Extra {
			amount = amount.Mul(two)
		}
		modifiers = append(modifiers, pricing.Modifier{Amount: amount, Quantity: 1})
		quote.Toppings = append(quote.Toppings, PricedTopping{
			ToppingID: sel.ToppingID,
			Name:      names[sel.ToppingID],
			Placement: placement,
			Extra:     sel.Extra,
			Price:     pricing.Round(amount),
		})
	}
	quote.UnitPrice = pricing.Price(size.BasePrice, modifiers)
	return quote
}

func sizeGroup(sizes []models.PizzaSize) models.CustomizationGroup {
	group := models.CustomizationGroup{
		ID:            sizeGroupID,
		Name:          sizeGroupName,
		Kind:          enums.SelectionKindSingle,
		IsRequired:    true,
		MinSelections: 1,
		IsActive:      true,
	}
	for _, size := range sizes {
		group.Options = append(group.Options, models.CustomizationOption{
			ID:          size.ID,
			GroupID:     sizeGroupID,
			Name:        size.Name,
			MaxQuantity: 1,
			IsActive:    size.IsActive,
			Position:    size.Position,
		})
	}
	return group
}

// toppingGroup only offers toppings priced for the chosen size.
func toppingGroup(size models.PizzaSize, toppings []models.PizzaTopping, prices map[uuid.UUID]decimal.Decimal) models.CustomizationGroup {
	group := models.CustomizationGroup{
		ID:       toppingGroupID,
		Name:     toppingGroupName,
		Kind:     enums.SelectionKindMulti,
		IsActive: true,
	}
	if size.MaxToppings > 0 {
		max := size.MaxToppings
		group.MaxSelections = &max
	}
	for _, topping := range toppings {
		price, ok := prices[topping.ID]
		if !ok {
			continue
		}
		group.Options = append(group.Options, models.CustomizationOption{
			ID:            topping.ID,
			GroupID:       toppingGroupID,
			Name:          topping.Name,
			PriceModifier: price,
			MaxQuantity:   1,
			IsActive:      topping.IsActive,
			Position:      topping.Position,
		})
	}
	return group
}

func reportOf(violations []rules.Violation) customization.ValidationReport {
	if violations == nil {
		violations = []rules.Violation{}
	}
	return customization.ValidationReport{IsValid: len(violations) == 0, Errors: violations}
}
