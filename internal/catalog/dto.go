package catalog

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/ordering-backend/internal/rules"
	"github.com/angelmondragon/ordering-backend/pkg/db/models"
	"github.com/angelmondragon/ordering-backend/pkg/enums"
)

// CategoryDTO is a menu category with its available items.
type CategoryDTO struct {
	ID    uuid.UUID         `json:"id"`
	Name  string            `json:"name"`
	Items []MenuItemSummary `json:"items"`
}

// MenuItemSummary is the list form of a menu item.
type MenuItemSummary struct {
	ID          uuid.UUID       `json:"id"`
	Name        string          `json:"name"`
	Description *string         `json:"description,omitempty"`
	BasePrice   decimal.Decimal `json:"base_price"`
}

// MenuItemDTO is a menu item with the groups a client must render to
// customize it.
type MenuItemDTO struct {
	MenuItemSummary
	CategoryID  uuid.UUID  `json:"category_id"`
	IsAvailable bool       `json:"is_available"`
	Groups      []GroupDTO `json:"groups"`
}

// GroupDTO exposes effective bounds so clients do not re-derive them.
type GroupDTO struct {
	ID            uuid.UUID           `json:"id"`
	Name          string              `json:"name"`
	Kind          enums.SelectionKind `json:"kind"`
	IsRequired    bool                `json:"is_required"`
	MinSelections int                 `json:"min_selections"`
	MaxSelections *int                `json:"max_selections"`
	Options       []OptionDTO         `json:"options"`
}

// OptionDTO is one selectable option.
type OptionDTO struct {
	ID            uuid.UUID       `json:"id"`
	Name          string          `json:"name"`
	PriceModifier decimal.Decimal `json:"price_modifier"`
	MaxQuantity   int             `json:"max_quantity"`
	IsDefault     bool            `json:"is_default"`
}

// NewMenuDTO maps categories returned by ListMenu.
func NewMenuDTO(categories []models.Category) []CategoryDTO {
	out := make([]CategoryDTO, 0, len(categories))
	for _, category := range categories {
		dto := CategoryDTO{ID: category.ID, Name: category.Name, Items: make([]MenuItemSummary, 0, len(category.Items))}
		for _, item := range category.Items {
			dto.Items = append(dto.Items, newSummary(item))
		}
		out = append(out, dto)
	}
	return out
}

// NewMenuItemDTO maps an item and its active groups.
func NewMenuItemDTO(item *models.MenuItem, groups []models.CustomizationGroup) MenuItemDTO {
	dto := MenuItemDTO{
		MenuItemSummary: newSummary(*item),
		CategoryID:      item.CategoryID,
		IsAvailable:     item.IsAvailable,
		Groups:          make([]GroupDTO, 0, len(groups)),
	}
	for _, group := range groups {
		var maxSelections *int
		if max, bounded := rules.EffectiveMax(group); bounded {
			maxSelections = &max
		}
		g := GroupDTO{
			ID:            group.ID,
			Name:          group.Name,
			Kind:          group.Kind,
			IsRequired:    group.IsRequired,
			MinSelections: rules.EffectiveMin(group),
			MaxSelections: maxSelections,
			Options:       make([]OptionDTO, 0, len(group.Options)),
		}
		for _, option := range group.Options {
			if !option.IsActive {
				continue
			}
			g.Options = append(g.Options, OptionDTO{
				ID:            option.ID,
				Name:          option.Name,
				PriceModifier: option.PriceModifier,
				MaxQuantity:   rules.OptionMaxQuantity(option),
				IsDefault:     option.IsDefault,
			})
		}
		dto.Groups = append(dto.Groups, g)
	}
	return dto
}

func newSummary(item models.MenuItem) MenuItemSummary {
	return MenuItemSummary{
		ID:          item.ID,
		Name:        item.Name,
		Description: item.Description,
		BasePrice:   item.BasePrice,
	}
}
