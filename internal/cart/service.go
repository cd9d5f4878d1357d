package cart

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/ordering-backend/internal/customization"
	"github.com/angelmondragon/ordering-backend/internal/pizza"
	"github.com/angelmondragon/ordering-backend/internal/pricing"
	"github.com/angelmondragon/ordering-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/ordering-backend/pkg/errors"
)

const maxCartItems = 50

type itemFormatter interface {
	FormatForCart(ctx context.Context, menuItemID uuid.UUID, selections []customization.Selection, quantity int) (*customization.CartItem, error)
}

type pizzaPricer interface {
	Price(ctx context.Context, req pizza.Request) (*pizza.Quote, error)
}

// Service exposes session cart operations.
type Service interface {
	Get(ctx context.Context, sessionID string) (*Cart, error)
	AddItem(ctx context.Context, sessionID string, input AddItemInput) (*Cart, error)
	RemoveItem(ctx context.Context, sessionID string, lineID uuid.UUID) (*Cart, error)
	Clear(ctx context.Context, sessionID string) error
}

type service struct {
	repo   Repository
	items  itemFormatter
	pizzas pizzaPricer
	now    func() time.Time
}

// NewService builds a cart service backed by the provided stack.
func NewService(repo Repository, items itemFormatter, pizzas pizzaPricer) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if items == nil {
		return nil, fmt.Errorf("item formatter required")
	}
	if pizzas == nil {
		return nil, fmt.Errorf("pizza pricer required")
	}
	return &service{repo: repo, items: items, pizzas: pizzas, now: time.Now}, nil
}

func (s *service) Get(ctx context.Context, sessionID string) (*Cart, error) {
	if err := requireSession(sessionID); err != nil {
		return nil, err
	}
	return s.repo.Load(ctx, sessionID)
}

// AddItem prices the item the same way the menu page does and appends it.
// Rejected selections are returned as SELECTION_REJECTED and leave the cart
// untouched.
func (s *service) AddItem(ctx context.Context, sessionID string, input AddItemInput) (*Cart, error) {
	if err := requireSession(sessionID); err != nil {
		return nil, err
	}
	if input.Quantity < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}

	var (
		item *Item
		err  error
	)
	switch {
	case input.Pizza != nil:
		item, err = s.pizzaItem(ctx, input)
	case input.MenuItemID != nil:
		item, err = s.menuItem(ctx, input)
	default:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "menu_item_id or pizza is required")
	}
	if err != nil {
		return nil, err
	}

	c, err := s.repo.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if len(c.Items) >= maxCartItems {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, fmt.Sprintf("cart is limited to %d items", maxCartItems))
	}
	now := s.now().UTC()
	item.LineID = uuid.New()
	item.AddedAt = now
	c.Items = append(c.Items, *item)
	c.UpdatedAt = now
	if err := s.repo.Save(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *service) menuItem(ctx context.Context, input AddItemInput) (*Item, error) {
	formatted, err := s.items.FormatForCart(ctx, *input.MenuItemID, input.Selections, input.Quantity)
	if err != nil {
		return nil, err
	}
	menuItemID := formatted.MenuItemID
	return &Item{
		Kind:                enums.LineItemKindMenuItem,
		MenuItemID:          &menuItemID,
		Selections:          formatted.Selections,
		Name:                formatted.Name,
		UnitPrice:           formatted.UnitPrice,
		Quantity:            formatted.Quantity,
		Labels:              formatted.Labels,
		TotalPrice:          formatted.TotalPrice,
		SpecialInstructions: input.SpecialInstructions,
	}, nil
}

func (s *service) pizzaItem(ctx context.Context, input AddItemInput) (*Item, error) {
	quote, err := s.pizzas.Price(ctx, *input.Pizza)
	if err != nil {
		return nil, err
	}
	labels := make([]customization.Label, 0, len(quote.Toppings))
	for _, topping := range quote.Toppings {
		name := topping.Name
		if topping.Extra {
			name = "Extra " + name
		}
		if topping.Placement != enums.ToppingPlacementWhole {
			name = fmt.Sprintf("%s (%s half)", name, topping.Placement)
		}
		labels = append(labels, customization.Label{
			GroupName:     "Toppings",
			OptionName:    name,
			Quantity:      1,
			PriceModifier: topping.Price,
			Display:       customization.DisplayLabel(name, 1, topping.Price),
		})
	}
	req := *input.Pizza
	return &Item{
		Kind:                enums.LineItemKindCustomPizza,
		Pizza:               &req,
		Name:                quote.Name,
		UnitPrice:           quote.UnitPrice,
		Quantity:            input.Quantity,
		Labels:              labels,
		TotalPrice:          pricing.LineTotal(quote.UnitPrice, input.Quantity),
		SpecialInstructions: input.SpecialInstructions,
	}, nil
}

func (s *service) RemoveItem(ctx context.Context, sessionID string, lineID uuid.UUID) (*Cart, error) {
	if err := requireSession(sessionID); err != nil {
		return nil, err
	}
	c, err := s.repo.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	kept := make([]Item, 0, len(c.Items))
	for _, item := range c.Items {
		if item.LineID != lineID {
			kept = append(kept, item)
		}
	}
	if len(kept) == len(c.Items) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart line not found")
	}
	c.Items = kept
	c.UpdatedAt = s.now().UTC()
	if err := s.repo.Save(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *service) Clear(ctx context.Context, sessionID string) error {
	if err := requireSession(sessionID); err != nil {
		return err
	}
	return s.repo.Delete(ctx, sessionID)
}

func requireSession(sessionID string) error {
	if strings.TrimSpace(sessionID) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "X-Session-Id header is required")
	}
	return nil
}
