package catalog

import (
	"context"
	"errors"
	"sort"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/ordering-backend/pkg/config"
	"github.com/angelmondragon/ordering-backend/pkg/db/models"
	"github.com/angelmondragon/ordering-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/ordering-backend/pkg/errors"
)

type repository struct {
	db       *gorm.DB
	defaults config.PricingConfig
}

// NewRepository builds a catalog reader bound to db. defaults supply the fee
// schedule when no store_settings row exists.
func NewRepository(db *gorm.DB, defaults config.PricingConfig) Reader {
	return &repository{db: db, defaults: defaults}
}

func (r *repository) GetMenuItem(ctx context.Context, id uuid.UUID) (*models.MenuItem, error) {
	var item models.MenuItem
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&item).Error; err != nil {
		return nil, readError(err, "menu item")
	}
	return &item, nil
}

// GetCustomizationGroups returns the item's active groups in attachment order,
// each with its options in position order. Inactive options are included and
// keep IsActive=false so a stale choice is reported against its own group.
func (r *repository) GetCustomizationGroups(ctx context.Context, menuItemID uuid.UUID) ([]models.CustomizationGroup, error) {
	var links []models.MenuItemGroup
	err := r.db.WithContext(ctx).
		Where("menu_item_id = ?", menuItemID).
		Order("position ASC").
		Find(&links).Error
	if err != nil {
		return nil, readError(err, "customization groups")
	}
	if len(links) == 0 {
		return []models.CustomizationGroup{}, nil
	}

	ids := make([]uuid.UUID, 0, len(links))
	rank := make(map[uuid.UUID]int, len(links))
	for i, link := range links {
		ids = append(ids, link.GroupID)
		rank[link.GroupID] = i
	}

	var groups []models.CustomizationGroup
	err = r.db.WithContext(ctx).
		Preload("Options", func(tx *gorm.DB) *gorm.DB {
			return tx.Order("position ASC")
		}).
		Where("id IN ? AND is_active = ?", ids, true).
		Find(&groups).Error
	if err != nil {
		return nil, readError(err, "customization groups")
	}

	sort.SliceStable(groups, func(i, j int) bool {
		return rank[groups[i].ID] < rank[groups[j].ID]
	})
	return groups, nil
}

func (r *repository) GetCombinedRules(ctx context.Context, menuItemID uuid.UUID) ([]models.CombinedSelectionRule, error) {
	var rules []models.CombinedSelectionRule
	err := r.db.WithContext(ctx).
		Where("menu_item_id = ? AND is_active = ?", menuItemID, true).
		Order("name ASC").
		Find(&rules).Error
	if err != nil {
		return nil, readError(err, "combined rules")
	}
	return rules, nil
}

func (r *repository) GetTaxRate(ctx context.Context) (decimal.Decimal, error) {
	setting, err := r.storeSetting(ctx)
	if err != nil {
		return decimal.Zero, err
	}
	if setting == nil {
		return r.defaults.TaxRate, nil
	}
	return setting.TaxRate, nil
}

func (r *repository) GetDeliveryFee(ctx context.Context, orderType enums.OrderType) (decimal.Decimal, error) {
	setting, err := r.storeSetting(ctx)
	if err != nil {
		return decimal.Zero, err
	}
	if orderType == enums.OrderTypeDelivery {
		if setting == nil {
			return r.defaults.DeliveryFee, nil
		}
		return setting.DeliveryFee, nil
	}
	if setting == nil {
		return r.defaults.PickupFee, nil
	}
	return setting.PickupFee, nil
}

func (r *repository) storeSetting(ctx context.Context) (*models.StoreSetting, error) {
	var setting models.StoreSetting
	err := r.db.WithContext(ctx).Where("id = ?", models.DefaultStoreSettingID).First(&setting).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, readError(err, "store settings")
	}
	return &setting, nil
}

// ListMenu returns active categories with their available items.
func (r *repository) ListMenu(ctx context.Context) ([]models.Category, error) {
	var categories []models.Category
	err := r.db.WithContext(ctx).
		Preload("Items", func(tx *gorm.DB) *gorm.DB {
			return tx.Where("is_available = ?", true).Order("position ASC").Order("name ASC")
		}).
		Where("is_active = ?", true).
		Order("position ASC").
		Find(&categories).Error
	if err != nil {
		return nil, readError(err, "menu")
	}
	return categories, nil
}

func (r *repository) GetPizzaSize(ctx context.Context, id uuid.UUID) (*models.PizzaSize, error) {
	var size models.PizzaSize
	err := r.db.WithContext(ctx).
		Where("id = ? AND is_active = ?", id, true).
		First(&size).Error
	if err != nil {
		return nil, readError(err, "pizza size")
	}
	return &size, nil
}

func (r *repository) ListPizzaSizes(ctx context.Context) ([]models.PizzaSize, error) {
	var sizes []models.PizzaSize
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("position ASC").
		Find(&sizes).Error
	if err != nil {
		return nil, readError(err, "pizza sizes")
	}
	return sizes, nil
}

func (r *repository) ListPizzaToppings(ctx context.Context) ([]models.PizzaTopping, error) {
	var toppings []models.PizzaTopping
	err := r.db.WithContext(ctx).
		Preload("Prices").
		Where("is_active = ?", true).
		Order("position ASC").
		Find(&toppings).Error
	if err != nil {
		return nil, readError(err, "pizza toppings")
	}
	return toppings, nil
}

// readError keeps not-found distinct from I/O failures so callers only retry the latter.
func readError(err error, what string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, what+" not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeCatalogUnavailable, err, "read "+what)
}
