package customization

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/ordering-backend/internal/pricing"
	"github.com/angelmondragon/ordering-backend/internal/rules"
	"github.com/angelmondragon/ordering-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/ordering-backend/pkg/errors"
	"github.com/angelmondragon/ordering-backend/pkg/metrics"
)

// CatalogReader is the subset of the catalog the engine reads.
type CatalogReader interface {
	GetMenuItem(ctx context.Context, id uuid.UUID) (*models.MenuItem, error)
	GetCustomizationGroups(ctx context.Context, menuItemID uuid.UUID) ([]models.CustomizationGroup, error)
	GetCombinedRules(ctx context.Context, menuItemID uuid.UUID) ([]models.CombinedSelectionRule, error)
}

// Engine validates, prices and formats one menu item selection against live
// catalog data. Validation problems come back as a report, never as an error;
// errors are reserved for catalog failures and misuse.
type Engine interface {
	ValidateSelections(ctx context.Context, menuItemID uuid.UUID, selections []Selection) (*ValidationReport, error)
	CalculatePrice(ctx context.Context, menuItemID uuid.UUID, selections []Selection) (decimal.Decimal, error)
	FormatForCart(ctx context.Context, menuItemID uuid.UUID, selections []Selection, quantity int) (*CartItem, error)
	ValidateCombined(groups []models.CustomizationGroup, selections []Selection, target int) ValidationReport
	Quote(ctx context.Context, menuItemID uuid.UUID, selections []Selection) (*Quote, error)
}

type engine struct {
	catalog CatalogReader
	metrics *metrics.PricingMetrics
}

// NewEngine wires the engine to a catalog reader. m may be nil.
func NewEngine(catalog CatalogReader, m *metrics.PricingMetrics) (Engine, error) {
	if catalog == nil {
		return nil, fmt.Errorf("catalog reader required")
	}
	return &engine{catalog: catalog, metrics: m}, nil
}

func (e *engine) ValidateSelections(ctx context.Context, menuItemID uuid.UUID, selections []Selection) (*ValidationReport, error) {
	quote, err := e.Quote(ctx, menuItemID, selections)
	if err != nil {
		return nil, err
	}
	e.countRejections(quote.Report)
	return &quote.Report, nil
}

// CalculatePrice fails with INVALID_SELECTION when the selection does not
// validate; callers are expected to validate first.
func (e *engine) CalculatePrice(ctx context.Context, menuItemID uuid.UUID, selections []Selection) (decimal.Decimal, error) {
	quote, err := e.Quote(ctx, menuItemID, selections)
	if err != nil {
		return decimal.Zero, err
	}
	if !quote.Report.IsValid {
		return decimal.Zero, pkgerrors.New(pkgerrors.CodeInvalidSelection, "price requested for a selection that does not validate").
			WithDetails(quote.Report)
	}
	return quote.UnitPrice, nil
}

func (e *engine) FormatForCart(ctx context.Context, menuItemID uuid.UUID, selections []Selection, quantity int) (*CartItem, error) {
	quote, err := e.Quote(ctx, menuItemID, selections)
	if err != nil {
		return nil, err
	}
	if !quote.Report.IsValid {
		e.countRejections(quote.Report)
		return nil, pkgerrors.New(pkgerrors.CodeSelectionRejected, "selection does not validate").
			WithDetails(quote.Report)
	}
	if quantity < 1 {
		quantity = 1
	}

	labels := make([]Label, 0, len(quote.Choices))
	normalized := make([]Selection, 0, len(quote.Choices))
	for _, choice := range quote.Choices {
		labels = append(labels, Label{
			GroupName:     choice.GroupName,
			OptionName:    choice.OptionName,
			Quantity:      choice.Quantity,
			PriceModifier: choice.PriceModifier,
			Display:       DisplayLabel(choice.OptionName, choice.Quantity, choice.PriceModifier),
		})
		normalized = append(normalized, Selection{OptionID: choice.OptionID, Quantity: choice.Quantity})
	}

	return &CartItem{
		MenuItemID: quote.Item.ID,
		Name:       quote.Item.Name,
		UnitPrice:  quote.UnitPrice,
		Quantity:   quantity,
		Labels:     labels,
		TotalPrice: pricing.LineTotal(quote.UnitPrice, quantity),
		Selections: normalized,
	}, nil
}

// ValidateCombined checks each group's own rules and then that exactly target
// distinct options were chosen across all of them.
func (e *engine) ValidateCombined(groups []models.CustomizationGroup, selections []Selection, target int) ValidationReport {
	ids := make([]uuid.UUID, 0, len(groups))
	for _, group := range groups {
		ids = append(ids, group.ID)
	}
	var violations []rules.Violation
	results, stray := evaluateGroups(groups, selections)
	violations = append(violations, stray...)
	for _, result := range results {
		violations = append(violations, result.Violations...)
	}
	if v := rules.EvaluateCombined(rules.CombinedRule{GroupIDs: ids, Target: target}, results); v != nil {
		violations = append(violations, *v)
	}
	return newReport(violations)
}

// Quote reads the item, its groups and combined rules once and evaluates the
// selection against that snapshot.
func (e *engine) Quote(ctx context.Context, menuItemID uuid.UUID, selections []Selection) (*Quote, error) {
	item, err := e.catalog.GetMenuItem(ctx, menuItemID)
	if err != nil {
		return nil, err
	}
	groups, err := e.catalog.GetCustomizationGroups(ctx, menuItemID)
	if err != nil {
		return nil, err
	}
	combined, err := e.catalog.GetCombinedRules(ctx, menuItemID)
	if err != nil {
		return nil, err
	}
	quote := Evaluate(*item, groups, combined, selections)
	return &quote, nil
}

func (e *engine) countRejections(report ValidationReport) {
	for _, v := range report.Errors {
		e.metrics.IncRejection(string(v.Code))
	}
}

// Evaluate is the pure core of Quote: it partitions selections by group, runs
// every group rule and every combined rule, and prices the result when valid.
func Evaluate(item models.MenuItem, groups []models.CustomizationGroup, combined []models.CombinedSelectionRule, selections []Selection) Quote {
	var violations []rules.Violation
	if !item.IsAvailable {
		violations = append(violations, rules.Violation{
			Code:    rules.CodeItemUnavailable,
			Message: fmt.Sprintf("%s is not available right now", item.Name),
		})
	}

	results, stray := evaluateGroups(groups, selections)
	violations = append(violations, stray...)
	for _, result := range results {
		violations = append(violations, result.Violations...)
	}
	for _, rule := range combined {
		if !rule.IsActive {
			continue
		}
		v := rules.EvaluateCombined(rules.CombinedRule{
			Name:     rule.Name,
			GroupIDs: []uuid.UUID(rule.GroupIDs),
			Target:   rule.TargetCount,
		}, results)
		if v != nil {
			violations = append(violations, *v)
		}
	}

	quote := Quote{Item: item, Report: newReport(violations)}
	if !quote.Report.IsValid {
		return quote
	}

	modifiers := make([]pricing.Modifier, 0)
	for i, result := range results {
		options := optionsByID(groups[i])
		for _, choice := range result.Accepted {
			opt := options[choice.OptionID]
			quote.Choices = append(quote.Choices, PricedChoice{
				GroupID:       groups[i].ID,
				GroupName:     groups[i].Name,
				OptionID:      opt.ID,
				OptionName:    opt.Name,
				Quantity:      choice.Quantity,
				PriceModifier: opt.PriceModifier,
			})
			modifiers = append(modifiers, pricing.Modifier{Amount: opt.PriceModifier, Quantity: choice.Quantity})
		}
	}
	quote.UnitPrice = pricing.Price(item.BasePrice, modifiers)
	return quote
}

// evaluateGroups runs the rule evaluator on every group, in group order, and
// reports options that belong to none of them as item-level violations.
// Inactive options still route to their group, which rejects them.
func evaluateGroups(groups []models.CustomizationGroup, selections []Selection) ([]rules.Result, []rules.Violation) {
	owner := make(map[uuid.UUID]int)
	for i, group := range groups {
		for _, opt := range group.Options {
			owner[opt.ID] = i
		}
	}

	perGroup := make([][]rules.Choice, len(groups))
	var stray []rules.Violation
	seenStray := make(map[uuid.UUID]struct{})
	for _, sel := range selections {
		idx, ok := owner[sel.OptionID]
		if !ok {
			if _, dup := seenStray[sel.OptionID]; dup {
				continue
			}
			seenStray[sel.OptionID] = struct{}{}
			optionID := sel.OptionID
			stray = append(stray, rules.Violation{
				Code:     rules.CodeUnknownOption,
				OptionID: &optionID,
				Message:  "option is not available for this item",
			})
			continue
		}
		perGroup[idx] = append(perGroup[idx], rules.Choice{OptionID: sel.OptionID, Quantity: sel.Quantity})
	}

	results := make([]rules.Result, 0, len(groups))
	for i, group := range groups {
		results = append(results, rules.Evaluate(group, perGroup[i]))
	}
	return results, stray
}

func optionsByID(group models.CustomizationGroup) map[uuid.UUID]models.CustomizationOption {
	out := make(map[uuid.UUID]models.CustomizationOption, len(group.Options))
	for _, opt := range group.Options {
		out[opt.ID] = opt
	}
	return out
}

func newReport(violations []rules.Violation) ValidationReport {
	if violations == nil {
		violations = []rules.Violation{}
	}
	return ValidationReport{IsValid: len(violations) == 0, Errors: violations}
}

// DisplayLabel renders an option the way the cart shows it, e.g. `12" (+$4.00)`.
func DisplayLabel(name string, quantity int, modifier decimal.Decimal) string {
	label := name
	if quantity > 1 {
		label = fmt.Sprintf("%dx %s", quantity, name)
	}
	switch {
	case modifier.IsPositive():
		return fmt.Sprintf("%s (+$%s)", label, modifier.StringFixed(2))
	case modifier.IsNegative():
		return fmt.Sprintf("%s (-$%s)", label, modifier.Abs().StringFixed(2))
	default:
		return label
	}
}
