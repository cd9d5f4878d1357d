package checkout

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/angelmondragon/ordering-backend/internal/customization"
	"github.com/angelmondragon/ordering-backend/internal/pizza"
	"github.com/angelmondragon/ordering-backend/internal/pricing"
	"github.com/angelmondragon/ordering-backend/internal/rules"
	"github.com/angelmondragon/ordering-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/ordering-backend/pkg/errors"
	"github.com/angelmondragon/ordering-backend/pkg/logger"
	"github.com/angelmondragon/ordering-backend/pkg/metrics"
	"github.com/angelmondragon/ordering-backend/pkg/types"
)

const defaultLineConcurrency = 8

type itemQuoter interface {
	Quote(ctx context.Context, menuItemID uuid.UUID, selections []customization.Selection) (*customization.Quote, error)
}

type pizzaQuoter interface {
	Quote(ctx context.Context, req pizza.Request) (*pizza.Quote, error)
}

// ReconcilerParams wires a Reconciler.
type ReconcilerParams struct {
	Items       itemQuoter
	Pizzas      pizzaQuoter
	Logger      *logger.Logger
	Metrics     *metrics.PricingMetrics
	Tolerance   decimal.Decimal
	Concurrency int
}

// Reconciler re-prices every cart line from the catalog and computes order
// totals. Client prices never flow into the result.
type Reconciler struct {
	items       itemQuoter
	pizzas      pizzaQuoter
	logg        *logger.Logger
	metrics     *metrics.PricingMetrics
	tolerance   decimal.Decimal
	concurrency int
}

func NewReconciler(params ReconcilerParams) (*Reconciler, error) {
	if params.Items == nil {
		return nil, fmt.Errorf("item quoter required")
	}
	if params.Pizzas == nil {
		return nil, fmt.Errorf("pizza quoter required")
	}
	if params.Tolerance.IsNegative() {
		return nil, fmt.Errorf("tolerance must not be negative")
	}
	concurrency := params.Concurrency
	if concurrency <= 0 {
		concurrency = defaultLineConcurrency
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	return &Reconciler{
		items:       params.Items,
		pizzas:      params.Pizzas,
		logg:        logg,
		metrics:     params.Metrics,
		tolerance:   params.Tolerance,
		concurrency: concurrency,
	}, nil
}

// Reconcile prices lines concurrently, then computes totals once every line
// is final. Any invalid line fails the whole cart with LINE_ITEM_INVALID; a
// catalog failure on any line cancels the rest and is returned as is.
func (r *Reconciler) Reconcile(ctx context.Context, input CartInput, fees FeeSchedule) (*Reconciliation, error) {
	started := time.Now()
	defer func() { r.metrics.ObserveReconcile(time.Since(started)) }()

	if len(input.Lines) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart contains no items")
	}
	if input.Tip.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "tip must not be negative")
	}

	lines := make([]ReconciledLine, len(input.Lines))
	lineErrs := make([]*LineError, len(input.Lines))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)
	for i := range input.Lines {
		i := i
		g.Go(func() error {
			line, lineErr, err := r.reconcileLine(gctx, i, input.Lines[i])
			if err != nil {
				return err
			}
			if lineErr != nil {
				lineErrs[i] = lineErr
				return nil
			}
			lines[i] = *line
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	invalid := make([]LineError, 0)
	for _, lineErr := range lineErrs {
		if lineErr != nil {
			invalid = append(invalid, *lineErr)
		}
	}
	if len(invalid) > 0 {
		return nil, pkgerrors.New(pkgerrors.CodeLineItemInvalid, fmt.Sprintf("%d cart line(s) no longer validate", len(invalid))).
			WithDetails(LineItemInvalidDetails{Lines: invalid})
	}

	result := &Reconciliation{
		Lines:       lines,
		TaxRate:     fees.TaxRate,
		DeliveryFee: pricing.Round(fees.DeliveryFee),
		Tip:         pricing.Round(input.Tip),
	}
	totals := make([]decimal.Decimal, 0, len(lines))
	for _, line := range lines {
		totals = append(totals, line.TotalPrice)
	}
	result.Subtotal = pricing.Sum(totals...)
	result.Tax = pricing.Tax(result.Subtotal, fees.TaxRate)
	result.Total = pricing.Sum(result.Subtotal, result.Tax, result.DeliveryFee, result.Tip)

	for _, line := range lines {
		if !line.ClientUnitPrice.Valid {
			continue
		}
		if !pricing.WithinTolerance(line.ClientUnitPrice.Decimal, line.UnitPrice, r.tolerance) {
			index := line.Index
			r.flag(ctx, result, Discrepancy{Scope: metrics.ScopeLine, LineIndex: &index, Client: line.ClientUnitPrice.Decimal, Server: line.UnitPrice})
		}
	}
	if input.ClientTotal != nil {
		result.ClientTotal = decimal.NewNullDecimal(*input.ClientTotal)
		if !pricing.WithinTolerance(*input.ClientTotal, result.Total, r.tolerance) {
			r.flag(ctx, result, Discrepancy{Scope: metrics.ScopeOrder, Client: *input.ClientTotal, Server: result.Total})
		}
	}
	return result, nil
}

// flag records a non-blocking price discrepancy signal.
func (r *Reconciler) flag(ctx context.Context, result *Reconciliation, d Discrepancy) {
	result.Discrepancies = append(result.Discrepancies, d)
	r.metrics.IncDiscrepancy(d.Scope)

	fields := map[string]any{
		"event":         "checkout.price_discrepancy",
		"scope":         d.Scope,
		"client_amount": d.Client.StringFixed(2),
		"server_amount": d.Server.StringFixed(2),
	}
	if d.LineIndex != nil {
		fields["line_index"] = *d.LineIndex
	}
	r.logg.Warn(r.logg.WithFields(ctx, fields), "checkout.price_discrepancy")
}

func (r *Reconciler) reconcileLine(ctx context.Context, index int, input LineInput) (*ReconciledLine, *LineError, error) {
	if input.Quantity < 1 {
		return nil, nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("line %d quantity must be at least 1", index))
	}
	switch input.kind() {
	case enums.LineItemKindCustomPizza:
		return r.reconcilePizza(ctx, index, input)
	case enums.LineItemKindMenuItem:
		return r.reconcileMenuItem(ctx, index, input)
	default:
		return nil, nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("line %d has unknown kind %q", index, input.Kind))
	}
}

func (r *Reconciler) reconcileMenuItem(ctx context.Context, index int, input LineInput) (*ReconciledLine, *LineError, error) {
	if input.MenuItemID == nil {
		return nil, nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("line %d is missing menu_item_id", index))
	}
	quote, err := r.items.Quote(ctx, *input.MenuItemID, input.Selections)
	if err != nil {
		if pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
			return nil, unavailableLine(index), nil
		}
		return nil, nil, err
	}
	if !quote.Report.IsValid {
		return nil, &LineError{LineIndex: index, Name: quote.Item.Name, Errors: quote.Report.Errors}, nil
	}

	menuItemID := quote.Item.ID
	line := &ReconciledLine{
		Index:               index,
		Kind:                enums.LineItemKindMenuItem,
		MenuItemID:          &menuItemID,
		Name:                quote.Item.Name,
		UnitPrice:           quote.UnitPrice,
		Quantity:            input.Quantity,
		TotalPrice:          pricing.LineTotal(quote.UnitPrice, input.Quantity),
		ClientUnitPrice:     nullable(input.ClientUnitPrice),
		Options:             make([]ReconciledOption, 0, len(quote.Choices)),
		Selections:          make(types.Selections, 0, len(quote.Choices)),
		SpecialInstructions: input.SpecialInstructions,
	}
	for _, choice := range quote.Choices {
		line.Options = append(line.Options, ReconciledOption{
			GroupName:     choice.GroupName,
			OptionID:      choice.OptionID,
			OptionName:    choice.OptionName,
			Quantity:      choice.Quantity,
			PriceModifier: choice.PriceModifier,
		})
		line.Selections = append(line.Selections, types.SelectionEntry{
			OptionID: choice.OptionID.String(),
			Quantity: choice.Quantity,
		})
	}
	return line, nil, nil
}

func (r *Reconciler) reconcilePizza(ctx context.Context, index int, input LineInput) (*ReconciledLine, *LineError, error) {
	if input.Pizza == nil {
		return nil, nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("line %d is missing pizza", index))
	}
	quote, err := r.pizzas.Quote(ctx, *input.Pizza)
	if err != nil {
		return nil, nil, err
	}
	if !quote.Report.IsValid {
		return nil, &LineError{LineIndex: index, Name: quote.Name, Errors: quote.Report.Errors}, nil
	}

	sizeID := quote.Size.ID
	line := &ReconciledLine{
		Index:               index,
		Kind:                enums.LineItemKindCustomPizza,
		PizzaSizeID:         &sizeID,
		Name:                quote.Name,
		UnitPrice:           quote.UnitPrice,
		Quantity:            input.Quantity,
		TotalPrice:          pricing.LineTotal(quote.UnitPrice, input.Quantity),
		ClientUnitPrice:     nullable(input.ClientUnitPrice),
		Options:             make([]ReconciledOption, 0, len(quote.Toppings)),
		Selections:          make(types.Selections, 0, len(quote.Toppings)),
		SpecialInstructions: input.SpecialInstructions,
	}
	for _, topping := range quote.Toppings {
		placement := string(topping.Placement)
		name := topping.Name
		if topping.Extra {
			name = "Extra " + name
		}
		line.Options = append(line.Options, ReconciledOption{
			GroupName:     "Toppings",
			OptionID:      topping.ToppingID,
			OptionName:    name,
			Quantity:      1,
			PriceModifier: topping.Price,
			Placement:     &placement,
		})
		line.Selections = append(line.Selections, types.SelectionEntry{
			OptionID:  topping.ToppingID.String(),
			Quantity:  1,
			Placement: placement,
			Extra:     topping.Extra,
		})
	}
	return line, nil, nil
}

func unavailableLine(index int) *LineError {
	return &LineError{LineIndex: index, Errors: []customization.GroupError{{
		Code:    rules.CodeItemUnavailable,
		Message: "item is no longer on the menu",
	}}}
}

func nullable(v *decimal.Decimal) decimal.NullDecimal {
	if v == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(*v)
}
