package pizza

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/ordering-backend/internal/rules"
	"github.com/angelmondragon/ordering-backend/pkg/db/models"
	"github.com/angelmondragon/ordering-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/ordering-backend/pkg/errors"
)

type stubCatalog struct {
	sizes    []models.PizzaSize
	toppings []models.PizzaTopping
	err      error
}

func (s *stubCatalog) ListPizzaSizes(ctx context.Context) ([]models.PizzaSize, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.sizes, nil
}

func (s *stubCatalog) ListPizzaToppings(ctx context.Context) ([]models.PizzaTopping, error) {
	return s.toppings, nil
}

func money(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

type pizzaFixture struct {
	catalog   *stubCatalog
	medium    uuid.UUID
	large     uuid.UUID
	pepperoni uuid.UUID
	mushroom  uuid.UUID
	anchovy   uuid.UUID
}

func newFixture() pizzaFixture {
	medium := models.PizzaSize{ID: uuid.New(), Name: "Medium", DiameterIn: 12, BasePrice: money("11.00"), MaxToppings: 2, IsActive: true}
	large := models.PizzaSize{ID: uuid.New(), Name: "Large", DiameterIn: 14, BasePrice: money("14.00"), Position: 1, IsActive: true}
	pepperoni := models.PizzaTopping{ID: uuid.New(), Name: "Pepperoni", IsActive: true}
	pepperoni.Prices = []models.PizzaToppingPrice{
		{ToppingID: pepperoni.ID, SizeID: medium.ID, Price: money("1.75")},
		{ToppingID: pepperoni.ID, SizeID: large.ID, Price: money("2.25")},
	}
	mushroom := models.PizzaTopping{ID: uuid.New(), Name: "Mushroom", Position: 1, IsActive: true}
	mushroom.Prices = []models.PizzaToppingPrice{
		{ToppingID: mushroom.ID, SizeID: medium.ID, Price: money("1.25")},
		{ToppingID: mushroom.ID, SizeID: large.ID, Price: money("1.50")},
	}
	anchovy := models.PizzaTopping{ID: uuid.New(), Name: "Anchovy", Position: 2, IsActive: true}
	anchovy.Prices = []models.PizzaToppingPrice{
		{ToppingID: anchovy.ID, SizeID: large.ID, Price: money("2.00")},
	}
	return pizzaFixture{
		catalog: &stubCatalog{
			sizes:    []models.PizzaSize{medium, large},
			toppings: []models.PizzaTopping{pepperoni, mushroom, anchovy},
		},
		medium:    medium.ID,
		large:     large.ID,
		pepperoni: pepperoni.ID,
		mushroom:  mushroom.ID,
		anchovy:   anchovy.ID,
	}
}

func newTestService(t *testing.T, catalog CatalogReader) Service {
	t.Helper()
	svc, err := NewService(catalog)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func TestPriceWholeToppings(t *testing.T) {
	fx := newFixture()
	svc := newTestService(t, fx.catalog)

	quote, err := svc.Price(context.Background(), Request{
		SizeID: fx.large,
		Toppings: []ToppingSelection{
			{ToppingID: fx.pepperoni},
			{ToppingID: fx.mushroom, Placement: enums.ToppingPlacementWhole},
		},
	})
	if err != nil {
		t.Fatalf("price: %v", err)
	}
	if !quote.UnitPrice.Equal(money("17.75")) {
		t.Fatalf("expected 17.75, got %s", quote.UnitPrice)
	}
	if quote.Name != "Large Build Your Own Pizza" {
		t.Fatalf("unexpected name %q", quote.Name)
	}
	if quote.Toppings[0].Placement != enums.ToppingPlacementWhole {
		t.Fatalf("expected empty placement to default to whole")
	}
}

func TestHalfAndExtraPlacement(t *testing.T) {
	fx := newFixture()
	svc := newTestService(t, fx.catalog)
	ctx := context.Background()

	half, err := svc.Price(ctx, Request{SizeID: fx.large, Toppings: []ToppingSelection{{ToppingID: fx.pepperoni, Placement: enums.ToppingPlacementLeft}}})
	if err != nil {
		t.Fatalf("price: %v", err)
	}
	// 2.25 / 2 = 1.125 rounds once at the end
	if !half.UnitPrice.Equal(money("15.13")) {
		t.Fatalf("expected 15.13, got %s", half.UnitPrice)
	}

	extra, err := svc.Price(ctx, Request{SizeID: fx.large, Toppings: []ToppingSelection{{ToppingID: fx.pepperoni, Extra: true}}})
	if err != nil {
		t.Fatalf("price: %v", err)
	}
	if !extra.UnitPrice.Equal(money("18.50")) {
		t.Fatalf("expected 18.50, got %s", extra.UnitPrice)
	}

	halfExtra, err := svc.Price(ctx, Request{SizeID: fx.large, Toppings: []ToppingSelection{{ToppingID: fx.mushroom, Placement: enums.ToppingPlacementRight, Extra: true}}})
	if err != nil {
		t.Fatalf("price: %v", err)
	}
	if !halfExtra.UnitPrice.Equal(money("15.50")) {
		t.Fatalf("expected 15.50, got %s", halfExtra.UnitPrice)
	}
}

func TestToppingLimitFollowsSize(t *testing.T) {
	fx := newFixture()
	svc := newTestService(t, fx.catalog)

	quote, err := svc.Quote(context.Background(), Request{
		SizeID: fx.medium,
		Toppings: []ToppingSelection{
			{ToppingID: fx.pepperoni},
			{ToppingID: fx.mushroom},
			{ToppingID: fx.anchovy},
		},
	})
	if err != nil {
		t.Fatalf("quote: %v", err)
	}
	if quote.Report.IsValid {
		t.Fatalf("expected invalid pizza")
	}
	seen := map[rules.Code]bool{}
	for _, v := range quote.Report.Errors {
		seen[v.Code] = true
	}
	// anchovy is not priced for medium, and only two toppings are allowed
	if !seen[rules.CodeUnknownOption] {
		t.Fatalf("expected UNKNOWN_OPTION for anchovy, got %+v", quote.Report.Errors)
	}
	if seen[rules.CodeAboveMaximum] {
		t.Fatalf("unknown toppings must not count toward the limit")
	}

	quote, err = svc.Quote(context.Background(), Request{
		SizeID:   fx.medium,
		Toppings: []ToppingSelection{{ToppingID: fx.pepperoni}, {ToppingID: fx.mushroom}, {ToppingID: fx.pepperoni}},
	})
	if err != nil {
		t.Fatalf("quote: %v", err)
	}
	if quote.Report.IsValid || quote.Report.Errors[0].Code != rules.CodeQuantityExceeded {
		t.Fatalf("expected QUANTITY_EXCEEDED for a repeated topping, got %+v", quote.Report.Errors)
	}
}

func TestUnknownSize(t *testing.T) {
	fx := newFixture()
	svc := newTestService(t, fx.catalog)

	_, err := svc.Price(context.Background(), Request{SizeID: uuid.New()})
	if !pkgerrors.IsCode(err, pkgerrors.CodeSelectionRejected) {
		t.Fatalf("expected SELECTION_REJECTED, got %v", err)
	}
}

func TestInvalidPlacement(t *testing.T) {
	fx := newFixture()
	quote := Evaluate(fx.catalog.sizes, fx.catalog.toppings, Request{
		SizeID:   fx.large,
		Toppings: []ToppingSelection{{ToppingID: fx.pepperoni, Placement: "center"}},
	})
	if quote.Report.IsValid {
		t.Fatalf("expected invalid placement to be rejected")
	}
}

func TestCatalogErrorPropagates(t *testing.T) {
	catalog := &stubCatalog{err: pkgerrors.Wrap(pkgerrors.CodeCatalogUnavailable, errors.New("timeout"), "read pizza sizes")}
	svc := newTestService(t, catalog)

	if _, err := svc.Quote(context.Background(), Request{SizeID: uuid.New()}); !pkgerrors.IsCode(err, pkgerrors.CodeCatalogUnavailable) {
		t.Fatalf("expected CATALOG_UNAVAILABLE, got %v", err)
	}
}

func TestMenuListsPricesPerSize(t *testing.T) {
	fx := newFixture()
	svc := newTestService(t, fx.catalog)

	menu, err := svc.Menu(context.Background())
	if err != nil {
		t.Fatalf("menu: %v", err)
	}
	if len(menu.Sizes) != 2 || len(menu.Toppings) != 3 {
		t.Fatalf("unexpected menu %+v", menu)
	}
	if !menu.Toppings[0].Prices[fx.large.String()].Equal(money("2.25")) {
		t.Fatalf("expected large pepperoni at 2.25")
	}
	if _, ok := menu.Toppings[2].Prices[fx.medium.String()]; ok {
		t.Fatalf("anchovy has no medium price")
	}
}
