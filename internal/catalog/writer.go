package catalog

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/ordering-backend/pkg/db/models"
	"github.com/angelmondragon/ordering-backend/pkg/enums"
)

type writer struct {
	db *gorm.DB
}

// NewWriter builds the catalog write path. Every upsert is keyed on a natural
// key so re-running a seed converges instead of duplicating rows.
func NewWriter(db *gorm.DB) Writer {
	return &writer{db: db}
}

func (w *writer) WithTx(tx *gorm.DB) Writer {
	if tx == nil {
		return w
	}
	return &writer{db: tx}
}

func (w *writer) UpsertCategory(ctx context.Context, category *models.Category) error {
	return w.db.WithContext(ctx).
		Where(models.Category{Name: category.Name}).
		Assign(map[string]any{
			"position":  category.Position,
			"is_active": category.IsActive,
		}).
		FirstOrCreate(category).Error
}

func (w *writer) UpsertMenuItem(ctx context.Context, item *models.MenuItem) error {
	return w.db.WithContext(ctx).
		Where("category_id = ? AND name = ?", item.CategoryID, item.Name).
		Assign(map[string]any{
			"description":  item.Description,
			"base_price":   item.BasePrice,
			"is_available": item.IsAvailable,
			"position":     item.Position,
		}).
		FirstOrCreate(item).Error
}

func (w *writer) UpsertGroup(ctx context.Context, group *models.CustomizationGroup) error {
	return w.db.WithContext(ctx).
		Where(models.CustomizationGroup{Name: group.Name}).
		Assign(map[string]any{
			"kind":           group.Kind,
			"is_required":    group.IsRequired,
			"min_selections": group.MinSelections,
			"max_selections": group.MaxSelections,
			"is_active":      group.IsActive,
		}).
		Omit(clause.Associations).
		FirstOrCreate(group).Error
}

func (w *writer) UpsertOption(ctx context.Context, option *models.CustomizationOption) error {
	return w.db.WithContext(ctx).
		Where("group_id = ? AND name = ?", option.GroupID, option.Name).
		Assign(map[string]any{
			"price_modifier": option.PriceModifier,
			"max_quantity":   option.MaxQuantity,
			"is_default":     option.IsDefault,
			"is_active":      option.IsActive,
			"position":       option.Position,
		}).
		FirstOrCreate(option).Error
}

func (w *writer) AttachGroup(ctx context.Context, link models.MenuItemGroup) error {
	return w.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "menu_item_id"}, {Name: "group_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"position"}),
		}).
		Create(&link).Error
}

func (w *writer) UpsertCombinedRule(ctx context.Context, rule *models.CombinedSelectionRule) error {
	return w.db.WithContext(ctx).
		Where("menu_item_id = ? AND name = ?", rule.MenuItemID, rule.Name).
		Assign(map[string]any{
			"group_ids":    rule.GroupIDs,
			"target_count": rule.TargetCount,
			"is_active":    rule.IsActive,
		}).
		FirstOrCreate(rule).Error
}

func (w *writer) UpsertPizzaSize(ctx context.Context, size *models.PizzaSize) error {
	return w.db.WithContext(ctx).
		Where(models.PizzaSize{Name: size.Name}).
		Assign(map[string]any{
			"diameter_in":  size.DiameterIn,
			"base_price":   size.BasePrice,
			"max_toppings": size.MaxToppings,
			"position":     size.Position,
			"is_active":    size.IsActive,
		}).
		FirstOrCreate(size).Error
}

func (w *writer) UpsertPizzaTopping(ctx context.Context, topping *models.PizzaTopping) error {
	return w.db.WithContext(ctx).
		Where(models.PizzaTopping{Name: topping.Name}).
		Assign(map[string]any{
			"position":  topping.Position,
			"is_active": topping.IsActive,
		}).
		Omit(clause.Associations).
		FirstOrCreate(topping).Error
}

func (w *writer) UpsertToppingPrice(ctx context.Context, price models.PizzaToppingPrice) error {
	return w.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "topping_id"}, {Name: "size_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"price"}),
		}).
		Create(&price).Error
}

func (w *writer) UpsertStoreSetting(ctx context.Context, setting *models.StoreSetting) error {
	if setting.ID == "" {
		setting.ID = models.DefaultStoreSettingID
	}
	if setting.Currency == "" {
		setting.Currency = string(enums.CurrencyUSD)
	}
	return w.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"tax_rate", "delivery_fee", "pickup_fee", "currency", "updated_at"}),
		}).
		Create(setting).Error
}

// RepairRequiredGroupMinimums raises min_selections to 1 on required groups.
func (w *writer) RepairRequiredGroupMinimums(ctx context.Context) (int64, error) {
	res := w.db.WithContext(ctx).
		Model(&models.CustomizationGroup{}).
		Where("is_required = ? AND min_selections < ?", true, 1).
		Update("min_selections", 1)
	return res.RowsAffected, res.Error
}

// RepairSingleSelectMaximums pins max_selections to 1 on single-select groups.
func (w *writer) RepairSingleSelectMaximums(ctx context.Context) (int64, error) {
	res := w.db.WithContext(ctx).
		Model(&models.CustomizationGroup{}).
		Where("kind = ? AND (max_selections IS NULL OR max_selections <> ?)", enums.SelectionKindSingle, 1).
		Update("max_selections", 1)
	return res.RowsAffected, res.Error
}

// RepairOptionMaxQuantities resets non-positive option quantity caps to 1.
func (w *writer) RepairOptionMaxQuantities(ctx context.Context) (int64, error) {
	res := w.db.WithContext(ctx).
		Model(&models.CustomizationOption{}).
		Where("max_quantity < ?", 1).
		Update("max_quantity", 1)
	return res.RowsAffected, res.Error
}
