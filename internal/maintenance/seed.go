package maintenance

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
	"gorm.io/gorm"

	"github.com/angelmondragon/ordering-backend/internal/catalog"
	"github.com/angelmondragon/ordering-backend/pkg/db/models"
	dbtypes "github.com/angelmondragon/ordering-backend/pkg/db/types"
	"github.com/angelmondragon/ordering-backend/pkg/enums"
	"github.com/angelmondragon/ordering-backend/pkg/outbox"
	"github.com/angelmondragon/ordering-backend/pkg/outbox/payloads"
)

// MenuFile is the YAML seed format. Groups are shared and referenced by name
// from items.
type MenuFile struct {
	Settings   *SeedSettings  `yaml:"settings"`
	Groups     []SeedGroup    `yaml:"groups"`
	Categories []SeedCategory `yaml:"categories"`
	Pizza      *SeedPizza     `yaml:"pizza"`
}

type SeedSettings struct {
	TaxRate     string `yaml:"tax_rate"`
	DeliveryFee string `yaml:"delivery_fee"`
	PickupFee   string `yaml:"pickup_fee"`
	Currency    string `yaml:"currency"`
}

type SeedGroup struct {
	Name     string       `yaml:"name"`
	// Kind is single or multi. The long forms single_select and
	// multi_select are accepted in any case.
	Kind     string       `yaml:"kind"`
	Required bool         `yaml:"required"`
	Min      int          `yaml:"min"`
	Max      *int         `yaml:"max"`
	Inactive bool         `yaml:"inactive"`
	Options  []SeedOption `yaml:"options"`
}

type SeedOption struct {
	Name        string `yaml:"name"`
	Price       string `yaml:"price"`
	MaxQuantity int    `yaml:"max_quantity"`
	Default     bool   `yaml:"default"`
	Inactive    bool   `yaml:"inactive"`
}

type SeedCategory struct {
	Name  string     `yaml:"name"`
	Items []SeedItem `yaml:"items"`
}

type SeedItem struct {
	Name          string             `yaml:"name"`
	Description   string             `yaml:"description"`
	BasePrice     string             `yaml:"base_price"`
	Unavailable   bool               `yaml:"unavailable"`
	Groups        []string           `yaml:"groups"`
	CombinedRules []SeedCombinedRule `yaml:"combined_rules"`
}

type SeedCombinedRule struct {
	Name   string   `yaml:"name"`
	Groups []string `yaml:"groups"`
	Target int      `yaml:"target"`
}

type SeedPizza struct {
	Sizes    []SeedPizzaSize    `yaml:"sizes"`
	Toppings []SeedPizzaTopping `yaml:"toppings"`
}

type SeedPizzaSize struct {
	Name        string `yaml:"name"`
	DiameterIn  int    `yaml:"diameter_in"`
	BasePrice   string `yaml:"base_price"`
	MaxToppings int    `yaml:"max_toppings"`
}

type SeedPizzaTopping struct {
	Name   string            `yaml:"name"`
	Prices map[string]string `yaml:"prices"`
}

// ParseMenu decodes a YAML seed document.
func ParseMenu(r io.Reader) (*MenuFile, error) {
	var menu MenuFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&menu); err != nil {
		return nil, fmt.Errorf("decode menu seed: %w", err)
	}
	return &menu, nil
}

type eventEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// SeedTask upserts a YAML menu through the catalog write path and emits a
// menu_seeded event in the same transaction. Upserts converge, so the task is
// safe to run on every deploy.
type SeedTask struct {
	source string
	menu   *MenuFile
	writer catalog.Writer
	events eventEmitter
}

// NewSeedTask builds a seed task from an already parsed menu.
func NewSeedTask(source string, menu *MenuFile, w catalog.Writer, events eventEmitter) (*SeedTask, error) {
	if menu == nil {
		return nil, fmt.Errorf("menu required")
	}
	if w == nil {
		return nil, fmt.Errorf("catalog writer required")
	}
	return &SeedTask{source: source, menu: menu, writer: w, events: events}, nil
}

// NewSeedTaskFromFile reads and parses path.
func NewSeedTaskFromFile(path string, w catalog.Writer, events eventEmitter) (*SeedTask, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open seed file: %w", err)
	}
	defer f.Close()
	menu, err := ParseMenu(f)
	if err != nil {
		return nil, err
	}
	return NewSeedTask(path, menu, w, events)
}

func (t *SeedTask) Name() string     { return "seed_menu" }
func (t *SeedTask) Repeatable() bool { return true }

func (t *SeedTask) Run(ctx context.Context, tx *gorm.DB) (int64, error) {
	w := t.writer.WithTx(tx)
	var rows int64

	if s := t.menu.Settings; s != nil {
		setting := models.StoreSetting{Currency: s.Currency}
		var err error
		if setting.TaxRate, err = parseMoney("settings.tax_rate", s.TaxRate); err != nil {
			return 0, err
		}
		if setting.DeliveryFee, err = parseMoney("settings.delivery_fee", s.DeliveryFee); err != nil {
			return 0, err
		}
		if setting.PickupFee, err = parseMoney("settings.pickup_fee", s.PickupFee); err != nil {
			return 0, err
		}
		if err := w.UpsertStoreSetting(ctx, &setting); err != nil {
			return 0, fmt.Errorf("upsert settings: %w", err)
		}
		rows++
	}

	groups := make(map[string]*models.CustomizationGroup, len(t.menu.Groups))
	for _, sg := range t.menu.Groups {
		group, n, err := t.upsertGroup(ctx, w, sg)
		if err != nil {
			return 0, err
		}
		groups[sg.Name] = group
		rows += n
	}

	items := 0
	for ci, sc := range t.menu.Categories {
		category := models.Category{Name: sc.Name, Position: ci, IsActive: true}
		if err := w.UpsertCategory(ctx, &category); err != nil {
			return 0, fmt.Errorf("upsert category %q: %w", sc.Name, err)
		}
		rows++
		for ii, si := range sc.Items {
			n, err := t.upsertItem(ctx, w, category, ii, si, groups)
			if err != nil {
				return 0, err
			}
			rows += n
			items++
		}
	}

	if t.menu.Pizza != nil {
		n, err := t.upsertPizza(ctx, w, t.menu.Pizza)
		if err != nil {
			return 0, err
		}
		rows += n
	}

	if t.events != nil {
		event := outbox.DomainEvent{
			EventType:     enums.EventMenuSeeded,
			AggregateType: enums.AggregateMenu,
			AggregateID:   uuid.NewSHA1(uuid.NameSpaceURL, []byte(t.source)),
			Actor:         &outbox.ActorRef{Source: "maintenance"},
			Data: payloads.MenuSeededEvent{
				Source:     t.source,
				Categories: len(t.menu.Categories),
				Items:      items,
				Groups:     len(t.menu.Groups),
			},
		}
		if err := t.events.Emit(ctx, tx, event); err != nil {
			return 0, fmt.Errorf("emit menu_seeded: %w", err)
		}
	}
	return rows, nil
}

func (t *SeedTask) upsertGroup(ctx context.Context, w catalog.Writer, sg SeedGroup) (*models.CustomizationGroup, int64, error) {
	kind, err := enums.ParseSelectionKind(sg.Kind)
	if err != nil {
		return nil, 0, fmt.Errorf("group %q: %w", sg.Name, err)
	}
	group := &models.CustomizationGroup{
		Name:          sg.Name,
		Kind:          kind,
		IsRequired:    sg.Required,
		MinSelections: sg.Min,
		MaxSelections: sg.Max,
		IsActive:      !sg.Inactive,
	}
	if group.IsRequired && group.MinSelections < 1 {
		group.MinSelections = 1
	}
	if kind == enums.SelectionKindSingle {
		one := 1
		group.MaxSelections = &one
	}
	if err := w.UpsertGroup(ctx, group); err != nil {
		return nil, 0, fmt.Errorf("upsert group %q: %w", sg.Name, err)
	}
	rows := int64(1)
	for pos, so := range sg.Options {
		price, err := parseModifier(fmt.Sprintf("group %q option %q price", sg.Name, so.Name), so.Price)
		if err != nil {
			return nil, 0, err
		}
		maxQty := so.MaxQuantity
		if maxQty < 1 {
			maxQty = 1
		}
		option := &models.CustomizationOption{
			GroupID:       group.ID,
			Name:          so.Name,
			PriceModifier: price,
			MaxQuantity:   maxQty,
			IsDefault:     so.Default,
			IsActive:      !so.Inactive,
			Position:      pos,
		}
		if err := w.UpsertOption(ctx, option); err != nil {
			return nil, 0, fmt.Errorf("upsert option %q: %w", so.Name, err)
		}
		rows++
	}
	return group, rows, nil
}

func (t *SeedTask) upsertItem(ctx context.Context, w catalog.Writer, category models.Category, pos int, si SeedItem, groups map[string]*models.CustomizationGroup) (int64, error) {
	base, err := parseMoney(fmt.Sprintf("item %q base_price", si.Name), si.BasePrice)
	if err != nil {
		return 0, err
	}
	item := &models.MenuItem{
		CategoryID:  category.ID,
		Name:        si.Name,
		BasePrice:   base,
		IsAvailable: !si.Unavailable,
		Position:    pos,
	}
	if si.Description != "" {
		desc := si.Description
		item.Description = &desc
	}
	if err := w.UpsertMenuItem(ctx, item); err != nil {
		return 0, fmt.Errorf("upsert item %q: %w", si.Name, err)
	}
	rows := int64(1)
	for gpos, name := range si.Groups {
		group, ok := groups[name]
		if !ok {
			return 0, fmt.Errorf("item %q references unknown group %q", si.Name, name)
		}
		if err := w.AttachGroup(ctx, models.MenuItemGroup{MenuItemID: item.ID, GroupID: group.ID, Position: gpos}); err != nil {
			return 0, fmt.Errorf("attach group %q to %q: %w", name, si.Name, err)
		}
		rows++
	}
	for _, sr := range si.CombinedRules {
		ids := make(dbtypes.UUIDArray, 0, len(sr.Groups))
		for _, name := range sr.Groups {
			group, ok := groups[name]
			if !ok {
				return 0, fmt.Errorf("rule %q references unknown group %q", sr.Name, name)
			}
			ids = append(ids, group.ID)
		}
		rule := &models.CombinedSelectionRule{MenuItemID: item.ID, Name: sr.Name, GroupIDs: ids, TargetCount: sr.Target, IsActive: true}
		if err := w.UpsertCombinedRule(ctx, rule); err != nil {
			return 0, fmt.Errorf("upsert rule %q: %w", sr.Name, err)
		}
		rows++
	}
	return rows, nil
}

func (t *SeedTask) upsertPizza(ctx context.Context, w catalog.Writer, sp *SeedPizza) (int64, error) {
	var rows int64
	sizes := make(map[string]*models.PizzaSize, len(sp.Sizes))
	for pos, ss := range sp.Sizes {
		base, err := parseMoney(fmt.Sprintf("pizza size %q base_price", ss.Name), ss.BasePrice)
		if err != nil {
			return 0, err
		}
		size := &models.PizzaSize{Name: ss.Name, DiameterIn: ss.DiameterIn, BasePrice: base, MaxToppings: ss.MaxToppings, Position: pos, IsActive: true}
		if err := w.UpsertPizzaSize(ctx, size); err != nil {
			return 0, fmt.Errorf("upsert pizza size %q: %w", ss.Name, err)
		}
		sizes[ss.Name] = size
		rows++
	}
	for pos, st := range sp.Toppings {
		topping := &models.PizzaTopping{Name: st.Name, Position: pos, IsActive: true}
		if err := w.UpsertPizzaTopping(ctx, topping); err != nil {
			return 0, fmt.Errorf("upsert topping %q: %w", st.Name, err)
		}
		rows++
		for sizeName, raw := range st.Prices {
			size, ok := sizes[sizeName]
			if !ok {
				return 0, fmt.Errorf("topping %q references unknown size %q", st.Name, sizeName)
			}
			price, err := parseMoney(fmt.Sprintf("topping %q price for %q", st.Name, sizeName), raw)
			if err != nil {
				return 0, err
			}
			if err := w.UpsertToppingPrice(ctx, models.PizzaToppingPrice{ToppingID: topping.ID, SizeID: size.ID, Price: price}); err != nil {
				return 0, fmt.Errorf("upsert topping price: %w", err)
			}
			rows++
		}
	}
	return rows, nil
}

func parseMoney(field, raw string) (decimal.Decimal, error) {
	v, err := parseModifier(field, raw)
	if err != nil {
		return decimal.Zero, err
	}
	if v.IsNegative() {
		return decimal.Zero, fmt.Errorf("%s must not be negative", field)
	}
	return v, nil
}

// parseModifier allows negative amounts; only option modifiers use it.
func parseModifier(field, raw string) (decimal.Decimal, error) {
	if raw == "" {
		return decimal.Zero, nil
	}
	v, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%s: %w", field, err)
	}
	return v, nil
}
