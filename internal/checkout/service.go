package checkout

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/ordering-backend/internal/orders"
	"github.com/angelmondragon/ordering-backend/pkg/config"
	"github.com/angelmondragon/ordering-backend/pkg/db/models"
	"github.com/angelmondragon/ordering-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/ordering-backend/pkg/errors"
	"github.com/angelmondragon/ordering-backend/pkg/logger"
	"github.com/angelmondragon/ordering-backend/pkg/metrics"
	"github.com/angelmondragon/ordering-backend/pkg/outbox"
	"github.com/angelmondragon/ordering-backend/pkg/outbox/payloads"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type feeReader interface {
	GetTaxRate(ctx context.Context) (decimal.Decimal, error)
	GetDeliveryFee(ctx context.Context, orderType enums.OrderType) (decimal.Decimal, error)
}

type reconciler interface {
	Reconcile(ctx context.Context, input CartInput, fees FeeSchedule) (*Reconciliation, error)
}

// Service executes checkout orchestration.
type Service interface {
	Checkout(ctx context.Context, input CheckoutInput) (*models.Order, error)
}

// CheckoutInput carries the cart plus customer and fulfilment metadata.
type CheckoutInput struct {
	SessionID       *string
	OrderType       enums.OrderType
	CustomerName    string
	CustomerPhone   string
	DeliveryAddress *string
	Notes           *string
	Cart            CartInput
}

// ServiceParams wires the checkout service.
type ServiceParams struct {
	Tx         txRunner
	Fees       feeReader
	Reconciler reconciler
	Orders     orders.Repository
	Outbox     outboxPublisher
	Logger     *logger.Logger
	Metrics    *metrics.PricingMetrics
	Checkout   config.CheckoutConfig
	Currency   string
}

type service struct {
	tx         txRunner
	fees       feeReader
	reconciler reconciler
	orders     orders.Repository
	outbox     outboxPublisher
	logg       *logger.Logger
	metrics    *metrics.PricingMetrics
	timeout    time.Duration
	currency   string
}

// NewService builds the checkout service.
func NewService(params ServiceParams) (Service, error) {
	if params.Tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if params.Fees == nil {
		return nil, fmt.Errorf("fee reader required")
	}
	if params.Reconciler == nil {
		return nil, fmt.Errorf("reconciler required")
	}
	if params.Orders == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	currency := params.Currency
	if currency == "" {
		currency = string(enums.CurrencyUSD)
	}
	return &service{
		tx:         params.Tx,
		fees:       params.Fees,
		reconciler: params.Reconciler,
		orders:     params.Orders,
		outbox:     params.Outbox,
		logg:       logg,
		metrics:    params.Metrics,
		timeout:    params.Checkout.Timeout,
		currency:   currency,
	}, nil
}

// Checkout re-prices the cart from the catalog and persists the order, its
// line snapshots and the kitchen event in one transaction. Nothing is written
// unless every line validates and every read succeeds.
func (s *service) Checkout(ctx context.Context, input CheckoutInput) (*models.Order, error) {
	if err := validateInput(input); err != nil {
		s.metrics.IncOutcome("invalid_request")
		return nil, err
	}
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	fees, err := s.resolveFees(ctx, input.OrderType)
	if err != nil {
		s.metrics.IncOutcome("catalog_unavailable")
		return nil, err
	}

	rec, err := s.reconciler.Reconcile(ctx, input.Cart, fees)
	if err != nil {
		s.metrics.IncOutcome(outcomeFor(err))
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		s.metrics.IncOutcome("catalog_unavailable")
		return nil, pkgerrors.Wrap(pkgerrors.CodeCatalogUnavailable, err, "checkout timed out before the order was written")
	}

	order := buildOrder(input, rec, s.currency)
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.orders.WithTx(tx).CreateOrder(ctx, order); err != nil {
			return err
		}
		return s.outbox.Emit(ctx, tx, orderCreatedEvent(order))
	})
	if err != nil {
		s.metrics.IncOutcome("persistence_error")
		return nil, pkgerrors.Wrap(pkgerrors.CodePersistence, err, "persist order")
	}

	s.metrics.IncOutcome("created")
	logCtx := s.logg.WithOrderID(ctx, order.ID.String())
	logCtx = s.logg.WithFields(logCtx, map[string]any{
		"total":          order.Total.StringFixed(2),
		"lines":          len(order.LineItems),
		"price_adjusted": order.PriceAdjusted,
	})
	s.logg.Info(logCtx, "checkout.order_created")
	return order, nil
}

func (s *service) resolveFees(ctx context.Context, orderType enums.OrderType) (FeeSchedule, error) {
	rate, err := s.fees.GetTaxRate(ctx)
	if err != nil {
		return FeeSchedule{}, err
	}
	fee, err := s.fees.GetDeliveryFee(ctx, orderType)
	if err != nil {
		return FeeSchedule{}, err
	}
	return FeeSchedule{TaxRate: rate, DeliveryFee: fee}, nil
}

func validateInput(input CheckoutInput) error {
	if !input.OrderType.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "order_type must be pickup or delivery")
	}
	if strings.TrimSpace(input.CustomerName) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "customer_name is required")
	}
	if strings.TrimSpace(input.CustomerPhone) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "customer_phone is required")
	}
	if input.OrderType == enums.OrderTypeDelivery &&
		(input.DeliveryAddress == nil || strings.TrimSpace(*input.DeliveryAddress) == "") {
		return pkgerrors.New(pkgerrors.CodeValidation, "delivery_address is required for delivery orders")
	}
	return nil
}

func outcomeFor(err error) string {
	if typed := pkgerrors.As(err); typed != nil {
		return strings.ToLower(string(typed.Code()))
	}
	return "error"
}

func buildOrder(input CheckoutInput, rec *Reconciliation, currency string) *models.Order {
	order := &models.Order{
		SessionID:       input.SessionID,
		OrderType:       input.OrderType,
		Status:          enums.OrderStatusReceived,
		CustomerName:    strings.TrimSpace(input.CustomerName),
		CustomerPhone:   strings.TrimSpace(input.CustomerPhone),
		DeliveryAddress: input.DeliveryAddress,
		Notes:           input.Notes,
		Currency:        currency,
		Subtotal:        rec.Subtotal,
		TaxRate:         rec.TaxRate,
		Tax:             rec.Tax,
		DeliveryFee:     rec.DeliveryFee,
		Tip:             rec.Tip,
		Total:           rec.Total,
		ClientTotal:     rec.ClientTotal,
		PriceAdjusted:   rec.PriceAdjusted(),
		LineItems:       make([]models.OrderLineItem, 0, len(rec.Lines)),
	}
	if input.OrderType == enums.OrderTypePickup {
		order.DeliveryAddress = nil
	}
	for _, line := range rec.Lines {
		item := models.OrderLineItem{
			Position:            line.Index,
			Kind:                line.Kind,
			MenuItemID:          line.MenuItemID,
			PizzaSizeID:         line.PizzaSizeID,
			Name:                line.Name,
			UnitPrice:           line.UnitPrice,
			Quantity:            line.Quantity,
			TotalPrice:          line.TotalPrice,
			ClientUnitPrice:     line.ClientUnitPrice,
			Selections:          line.Selections,
			SpecialInstructions: line.SpecialInstructions,
			Options:             make([]models.OrderLineItemOption, 0, len(line.Options)),
		}
		for _, opt := range line.Options {
			item.Options = append(item.Options, models.OrderLineItemOption{
				GroupName:     opt.GroupName,
				OptionID:      opt.OptionID,
				OptionName:    opt.OptionName,
				Quantity:      opt.Quantity,
				PriceModifier: opt.PriceModifier,
				Placement:     opt.Placement,
			})
		}
		order.LineItems = append(order.LineItems, item)
	}
	return order
}

func orderCreatedEvent(order *models.Order) outbox.DomainEvent {
	lines := make([]payloads.TicketLine, 0, len(order.LineItems))
	for _, item := range order.LineItems {
		labels := make([]string, 0, len(item.Options))
		for _, opt := range item.Options {
			label := opt.OptionName
			if opt.Placement != nil && *opt.Placement != string(enums.ToppingPlacementWhole) {
				label = fmt.Sprintf("%s (%s half)", label, *opt.Placement)
			}
			if opt.Quantity > 1 {
				label = fmt.Sprintf("%dx %s", opt.Quantity, label)
			}
			labels = append(labels, label)
		}
		lines = append(lines, payloads.TicketLine{
			Name:                item.Name,
			Quantity:            item.Quantity,
			Options:             labels,
			SpecialInstructions: item.SpecialInstructions,
		})
	}

	var actor *outbox.ActorRef
	if order.SessionID != nil {
		actor = &outbox.ActorRef{SessionID: *order.SessionID, Source: "checkout"}
	}
	return outbox.DomainEvent{
		EventType:     enums.EventOrderCreated,
		AggregateType: enums.AggregateOrder,
		AggregateID:   order.ID,
		Actor:         actor,
		Data: payloads.OrderCreatedEvent{
			OrderID:         order.ID,
			OrderType:       order.OrderType,
			Status:          order.Status,
			CustomerName:    order.CustomerName,
			DeliveryAddress: order.DeliveryAddress,
			Total:           order.Total,
			Currency:        order.Currency,
			Lines:           lines,
			PlacedAt:        time.Now().UTC(),
		},
	}
}
