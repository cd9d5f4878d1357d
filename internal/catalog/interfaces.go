package catalog

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/ordering-backend/pkg/db/models"
	"github.com/angelmondragon/ordering-backend/pkg/enums"
)

// Reader is the read-only catalog surface used by pricing and checkout. Every
// call is an independent snapshot; no transaction spans calls.
type Reader interface {
	GetMenuItem(ctx context.Context, id uuid.UUID) (*models.MenuItem, error)
	GetCustomizationGroups(ctx context.Context, menuItemID uuid.UUID) ([]models.CustomizationGroup, error)
	GetCombinedRules(ctx context.Context, menuItemID uuid.UUID) ([]models.CombinedSelectionRule, error)
	GetTaxRate(ctx context.Context) (decimal.Decimal, error)
	GetDeliveryFee(ctx context.Context, orderType enums.OrderType) (decimal.Decimal, error)
	ListMenu(ctx context.Context) ([]models.Category, error)
	GetPizzaSize(ctx context.Context, id uuid.UUID) (*models.PizzaSize, error)
	ListPizzaSizes(ctx context.Context) ([]models.PizzaSize, error)
	ListPizzaToppings(ctx context.Context) ([]models.PizzaTopping, error)
}

// Writer is the catalog write path. Only maintenance tasks use it.
type Writer interface {
	WithTx(tx *gorm.DB) Writer
	UpsertCategory(ctx context.Context, category *models.Category) error
	UpsertMenuItem(ctx context.Context, item *models.MenuItem) error
	UpsertGroup(ctx context.Context, group *models.CustomizationGroup) error
	UpsertOption(ctx context.Context, option *models.CustomizationOption) error
	AttachGroup(ctx context.Context, link models.MenuItemGroup) error
	UpsertCombinedRule(ctx context.Context, rule *models.CombinedSelectionRule) error
	UpsertPizzaSize(ctx context.Context, size *models.PizzaSize) error
	UpsertPizzaTopping(ctx context.Context, topping *models.PizzaTopping) error
	UpsertToppingPrice(ctx context.Context, price models.PizzaToppingPrice) error
	UpsertStoreSetting(ctx context.Context, setting *models.StoreSetting) error
	RepairRequiredGroupMinimums(ctx context.Context) (int64, error)
	RepairSingleSelectMaximums(ctx context.Context) (int64, error)
	RepairOptionMaxQuantities(ctx context.Context) (int64, error)
}
