package customization

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/ordering-backend/internal/rules"
	"github.com/angelmondragon/ordering-backend/pkg/db/models"
	dbtypes "github.com/angelmondragon/ordering-backend/pkg/db/types"
	"github.com/angelmondragon/ordering-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/ordering-backend/pkg/errors"
	"github.com/angelmondragon/ordering-backend/pkg/metrics"
)

type stubCatalog struct {
	item     *models.MenuItem
	groups   []models.CustomizationGroup
	combined []models.CombinedSelectionRule
	itemErr  error
	groupErr error
}

func (s *stubCatalog) GetMenuItem(ctx context.Context, id uuid.UUID) (*models.MenuItem, error) {
	if s.itemErr != nil {
		return nil, s.itemErr
	}
	if s.item == nil || s.item.ID != id {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "menu item not found")
	}
	item := *s.item
	return &item, nil
}

func (s *stubCatalog) GetCustomizationGroups(ctx context.Context, menuItemID uuid.UUID) ([]models.CustomizationGroup, error) {
	if s.groupErr != nil {
		return nil, s.groupErr
	}
	return s.groups, nil
}

func (s *stubCatalog) GetCombinedRules(ctx context.Context, menuItemID uuid.UUID) ([]models.CombinedSelectionRule, error) {
	return s.combined, nil
}

func money(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func intPtr(v int) *int { return &v }

func newOption(groupID uuid.UUID, name, modifier string, position int) models.CustomizationOption {
	return models.CustomizationOption{
		ID:            uuid.New(),
		GroupID:       groupID,
		Name:          name,
		PriceModifier: money(modifier),
		MaxQuantity:   1,
		IsActive:      true,
		Position:      position,
	}
}

type italianSub struct {
	catalog   *stubCatalog
	six       uuid.UUID
	twelve    uuid.UUID
	provolone uuid.UUID
}

func newItalianSub() italianSub {
	item := &models.MenuItem{ID: uuid.New(), Name: "Italian Sub", BasePrice: money("8.99"), IsAvailable: true}
	size := models.CustomizationGroup{ID: uuid.New(), Name: "Size", Kind: enums.SelectionKindSingle, IsRequired: true, MinSelections: 1, IsActive: true}
	size.Options = []models.CustomizationOption{
		newOption(size.ID, `6"`, "0.00", 0),
		newOption(size.ID, `12"`, "4.00", 1),
	}
	cheese := models.CustomizationGroup{ID: uuid.New(), Name: "Cheese", Kind: enums.SelectionKindMulti, MaxSelections: intPtr(2), IsActive: true}
	cheese.Options = []models.CustomizationOption{newOption(cheese.ID, "Provolone", "1.25", 0)}

	return italianSub{
		catalog:   &stubCatalog{item: item, groups: []models.CustomizationGroup{size, cheese}},
		six:       size.Options[0].ID,
		twelve:    size.Options[1].ID,
		provolone: cheese.Options[0].ID,
	}
}

func newTestEngine(t *testing.T, catalog CatalogReader) Engine {
	t.Helper()
	engine, err := NewEngine(catalog, nil)
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	return engine
}

func violationCodes(report *ValidationReport) []rules.Code {
	out := make([]rules.Code, 0, len(report.Errors))
	for _, v := range report.Errors {
		out = append(out, v.Code)
	}
	return out
}

func TestItalianSubValidSelectionPrice(t *testing.T) {
	fx := newItalianSub()
	engine := newTestEngine(t, fx.catalog)
	selections := []Selection{{OptionID: fx.twelve, Quantity: 1}, {OptionID: fx.provolone, Quantity: 1}}

	report, err := engine.ValidateSelections(context.Background(), fx.catalog.item.ID, selections)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if !report.IsValid {
		t.Fatalf("expected valid, got %v", violationCodes(report))
	}

	price, err := engine.CalculatePrice(context.Background(), fx.catalog.item.ID, selections)
	if err != nil {
		t.Fatalf("price: %v", err)
	}
	if !price.Equal(money("14.24")) {
		t.Fatalf("expected 14.24, got %s", price)
	}

	again, err := engine.CalculatePrice(context.Background(), fx.catalog.item.ID, selections)
	if err != nil || !again.Equal(price) {
		t.Fatalf("expected deterministic price, got %s err=%v", again, err)
	}
}

func TestItalianSubMissingSize(t *testing.T) {
	fx := newItalianSub()
	engine := newTestEngine(t, fx.catalog)

	report, err := engine.ValidateSelections(context.Background(), fx.catalog.item.ID, nil)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if report.IsValid || len(report.Errors) != 1 {
		t.Fatalf("expected one error, got %v", violationCodes(report))
	}
	if report.Errors[0].Code != rules.CodeBelowMinimum || report.Errors[0].GroupName != "Size" {
		t.Fatalf("expected BELOW_MINIMUM on Size, got %+v", report.Errors[0])
	}
}

func TestItalianSubTwoSizes(t *testing.T) {
	fx := newItalianSub()
	engine := newTestEngine(t, fx.catalog)

	report, err := engine.ValidateSelections(context.Background(), fx.catalog.item.ID, []Selection{
		{OptionID: fx.six, Quantity: 1},
		{OptionID: fx.twelve, Quantity: 1},
	})
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if report.IsValid || report.Errors[0].Code != rules.CodeAboveMaximum || report.Errors[0].GroupName != "Size" {
		t.Fatalf("expected ABOVE_MAXIMUM on Size, got %v", violationCodes(report))
	}
}

func TestValidateReportsEveryGroup(t *testing.T) {
	fx := newItalianSub()
	engine := newTestEngine(t, fx.catalog)
	stray := uuid.New()

	report, err := engine.ValidateSelections(context.Background(), fx.catalog.item.ID, []Selection{
		{OptionID: fx.provolone, Quantity: 3},
		{OptionID: stray, Quantity: 1},
	})
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	want := map[rules.Code]bool{rules.CodeUnknownOption: false, rules.CodeBelowMinimum: false, rules.CodeQuantityExceeded: false}
	for _, v := range report.Errors {
		want[v.Code] = true
	}
	for code, seen := range want {
		if !seen {
			t.Fatalf("expected %s in %v", code, violationCodes(report))
		}
	}
	for _, v := range report.Errors {
		if v.Code == rules.CodeUnknownOption && (v.GroupID != nil || v.OptionID == nil || *v.OptionID != stray) {
			t.Fatalf("expected item-level unknown option for stray id, got %+v", v)
		}
	}
}

func TestUnavailableItemIsRejected(t *testing.T) {
	fx := newItalianSub()
	fx.catalog.item.IsAvailable = false
	engine := newTestEngine(t, fx.catalog)

	report, err := engine.ValidateSelections(context.Background(), fx.catalog.item.ID, []Selection{{OptionID: fx.six}})
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if report.IsValid || report.Errors[0].Code != rules.CodeItemUnavailable {
		t.Fatalf("expected ITEM_UNAVAILABLE, got %v", violationCodes(report))
	}
}

func TestDeactivatedOptionIsReportedOnItsGroup(t *testing.T) {
	fx := newItalianSub()
	fx.catalog.groups[1].Options[0].IsActive = false
	engine := newTestEngine(t, fx.catalog)

	report, err := engine.ValidateSelections(context.Background(), fx.catalog.item.ID, []Selection{
		{OptionID: fx.twelve, Quantity: 1},
		{OptionID: fx.provolone, Quantity: 1},
	})
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if report.IsValid || len(report.Errors) != 1 {
		t.Fatalf("expected one violation, got %v", violationCodes(report))
	}
	v := report.Errors[0]
	if v.Code != rules.CodeUnknownOption || v.GroupID == nil || *v.GroupID != fx.catalog.groups[1].ID || v.GroupName != "Cheese" {
		t.Fatalf("expected UNKNOWN_OPTION on Cheese, got %+v", v)
	}
	if v.Message != "Provolone is no longer available for Cheese" {
		t.Fatalf("unexpected message %q", v.Message)
	}
}

func TestCalculatePriceRejectsInvalidSelection(t *testing.T) {
	fx := newItalianSub()
	engine := newTestEngine(t, fx.catalog)

	_, err := engine.CalculatePrice(context.Background(), fx.catalog.item.ID, nil)
	if err == nil {
		t.Fatalf("expected error")
	}
	if pkgerrors.As(err).Code() != pkgerrors.CodeInvalidSelection {
		t.Fatalf("expected INVALID_SELECTION, got %v", err)
	}
}

func TestCatalogFailuresPropagate(t *testing.T) {
	fx := newItalianSub()
	fx.catalog.groupErr = pkgerrors.Wrap(pkgerrors.CodeCatalogUnavailable, errors.New("connection reset"), "read customization groups")
	engine := newTestEngine(t, fx.catalog)

	_, err := engine.ValidateSelections(context.Background(), fx.catalog.item.ID, nil)
	if !pkgerrors.IsCode(err, pkgerrors.CodeCatalogUnavailable) {
		t.Fatalf("expected CATALOG_UNAVAILABLE, got %v", err)
	}

	_, err = engine.ValidateSelections(context.Background(), uuid.New(), nil)
	if err == nil {
		t.Fatalf("expected error for unknown item")
	}
}

func TestFormatForCart(t *testing.T) {
	fx := newItalianSub()
	engine := newTestEngine(t, fx.catalog)

	item, err := engine.FormatForCart(context.Background(), fx.catalog.item.ID, []Selection{
		{OptionID: fx.provolone, Quantity: 1},
		{OptionID: fx.twelve, Quantity: 1},
	}, 2)
	if err != nil {
		t.Fatalf("format: %v", err)
	}
	if item.Name != "Italian Sub" || item.Quantity != 2 {
		t.Fatalf("unexpected cart item %+v", item)
	}
	if !item.UnitPrice.Equal(money("14.24")) || !item.TotalPrice.Equal(money("28.48")) {
		t.Fatalf("unexpected prices unit=%s total=%s", item.UnitPrice, item.TotalPrice)
	}
	if len(item.Labels) != 2 {
		t.Fatalf("expected 2 labels, got %d", len(item.Labels))
	}
	if item.Labels[0].GroupName != "Size" || item.Labels[0].Display != `12" (+$4.00)` {
		t.Fatalf("unexpected first label %+v", item.Labels[0])
	}
	if item.Labels[1].Display != "Provolone (+$1.25)" {
		t.Fatalf("unexpected second label %+v", item.Labels[1])
	}
}

func TestFormatForCartRejectsInvalidSelection(t *testing.T) {
	fx := newItalianSub()
	engine := newTestEngine(t, fx.catalog)

	_, err := engine.FormatForCart(context.Background(), fx.catalog.item.ID, nil, 1)
	if !pkgerrors.IsCode(err, pkgerrors.CodeSelectionRejected) {
		t.Fatalf("expected SELECTION_REJECTED, got %v", err)
	}
	report, ok := pkgerrors.As(err).Details().(ValidationReport)
	if !ok || report.IsValid {
		t.Fatalf("expected report details, got %#v", pkgerrors.As(err).Details())
	}
}

func TestDisplayLabel(t *testing.T) {
	cases := []struct {
		name     string
		qty      int
		modifier string
		want     string
	}{
		{"Ranch", 1, "0", "Ranch"},
		{"Ranch", 2, "0.50", "2x Ranch (+$0.50)"},
		{"No Cheese", 1, "-1.5", "No Cheese (-$1.50)"},
	}
	for _, tc := range cases {
		if got := DisplayLabel(tc.name, tc.qty, money(tc.modifier)); got != tc.want {
			t.Fatalf("expected %q got %q", tc.want, got)
		}
	}
}

func TestPriceIsMonotonicInModifiers(t *testing.T) {
	fx := newItalianSub()
	engine := newTestEngine(t, fx.catalog)
	selections := []Selection{{OptionID: fx.twelve}, {OptionID: fx.provolone}}

	before, err := engine.CalculatePrice(context.Background(), fx.catalog.item.ID, selections)
	if err != nil {
		t.Fatalf("price: %v", err)
	}
	fx.catalog.groups[1].Options[0].PriceModifier = money("1.50")
	after, err := engine.CalculatePrice(context.Background(), fx.catalog.item.ID, selections)
	if err != nil {
		t.Fatalf("price: %v", err)
	}
	if after.LessThan(before) {
		t.Fatalf("raising a modifier lowered the price: %s -> %s", before, after)
	}
}

func TestPriceNeverNegative(t *testing.T) {
	fx := newItalianSub()
	fx.catalog.groups[0].Options[0].PriceModifier = money("-20.00")
	engine := newTestEngine(t, fx.catalog)

	price, err := engine.CalculatePrice(context.Background(), fx.catalog.item.ID, []Selection{{OptionID: fx.six}})
	if err != nil {
		t.Fatalf("price: %v", err)
	}
	if !price.IsZero() {
		t.Fatalf("expected clamp to zero, got %s", price)
	}
}

func TestRejectionsAreCounted(t *testing.T) {
	fx := newItalianSub()
	reg := prometheus.NewRegistry()
	engine, err := NewEngine(fx.catalog, metrics.NewPricingMetrics(reg))
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	if _, err := engine.ValidateSelections(context.Background(), fx.catalog.item.ID, nil); err != nil {
		t.Fatalf("validate: %v", err)
	}

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	for _, family := range families {
		if family.GetName() != "selection_rejection_total" {
			continue
		}
		for _, metric := range family.GetMetric() {
			if metric.GetLabel()[0].GetValue() == "BELOW_MINIMUM" && metric.GetCounter().GetValue() == 1 {
				return
			}
		}
	}
	t.Fatalf("expected BELOW_MINIMUM rejection to be counted")
}

type dinnerPlate struct {
	catalog *stubCatalog
	sides   []uuid.UUID
	salads  []uuid.UUID
}

func newDinnerPlate() dinnerPlate {
	item := &models.MenuItem{ID: uuid.New(), Name: "Dinner Plate", BasePrice: money("12.99"), IsAvailable: true}
	side := models.CustomizationGroup{ID: uuid.New(), Name: "Side Choice", Kind: enums.SelectionKindMulti, IsActive: true}
	side.Options = []models.CustomizationOption{
		newOption(side.ID, "Fries", "0", 0),
		newOption(side.ID, "Rice", "0", 1),
		newOption(side.ID, "Beans", "0", 2),
	}
	salad := models.CustomizationGroup{ID: uuid.New(), Name: "Salad Choice", Kind: enums.SelectionKindMulti, IsActive: true}
	salad.Options = []models.CustomizationOption{
		newOption(salad.ID, "Garden", "0", 0),
		newOption(salad.ID, "Caesar", "0.50", 1),
	}
	rule := models.CombinedSelectionRule{
		ID:          uuid.New(),
		MenuItemID:  item.ID,
		Name:        "Pick two sides",
		GroupIDs:    dbtypes.UUIDArray{side.ID, salad.ID},
		TargetCount: 2,
		IsActive:    true,
	}
	return dinnerPlate{
		catalog: &stubCatalog{item: item, groups: []models.CustomizationGroup{side, salad}, combined: []models.CombinedSelectionRule{rule}},
		sides:   []uuid.UUID{side.Options[0].ID, side.Options[1].ID, side.Options[2].ID},
		salads:  []uuid.UUID{salad.Options[0].ID, salad.Options[1].ID},
	}
}

func TestDinnerPlateCombinedRule(t *testing.T) {
	fx := newDinnerPlate()
	engine := newTestEngine(t, fx.catalog)
	ctx := context.Background()

	cases := []struct {
		name       string
		selections []Selection
		valid      bool
	}{
		{"one side one salad", []Selection{{OptionID: fx.sides[0]}, {OptionID: fx.salads[1]}}, true},
		{"two sides", []Selection{{OptionID: fx.sides[0]}, {OptionID: fx.sides[2]}}, true},
		{"one side only", []Selection{{OptionID: fx.sides[1]}}, false},
	}
	for _, tc := range cases {
		report, err := engine.ValidateSelections(ctx, fx.catalog.item.ID, tc.selections)
		if err != nil {
			t.Fatalf("%s: validate: %v", tc.name, err)
		}
		if report.IsValid != tc.valid {
			t.Fatalf("%s: expected valid=%v got %v", tc.name, tc.valid, violationCodes(report))
		}
		if !tc.valid && report.Errors[0].Code != rules.CodeCombinedCardinalityMismatch {
			t.Fatalf("%s: expected COMBINED_CARDINALITY_MISMATCH, got %v", tc.name, violationCodes(report))
		}
	}

	price, err := engine.CalculatePrice(ctx, fx.catalog.item.ID, []Selection{{OptionID: fx.sides[0]}, {OptionID: fx.salads[1]}})
	if err != nil {
		t.Fatalf("price: %v", err)
	}
	if !price.Equal(money("13.49")) {
		t.Fatalf("expected 13.49, got %s", price)
	}
}

func TestValidateCombinedKeepsGroupRules(t *testing.T) {
	fx := newDinnerPlate()
	engine := newTestEngine(t, fx.catalog)
	groups := fx.catalog.groups
	groups[1].MaxSelections = intPtr(1)

	report := engine.ValidateCombined(groups, []Selection{{OptionID: fx.salads[0]}, {OptionID: fx.salads[1]}}, 2)
	if report.IsValid {
		t.Fatalf("expected salad maximum to still apply")
	}
	if report.Errors[0].Code != rules.CodeAboveMaximum {
		t.Fatalf("expected ABOVE_MAXIMUM, got %v", violationCodes(&report))
	}

	report = engine.ValidateCombined(groups, []Selection{{OptionID: fx.sides[0]}, {OptionID: fx.salads[0]}}, 2)
	if !report.IsValid {
		t.Fatalf("expected valid combined selection, got %v", violationCodes(&report))
	}
}
