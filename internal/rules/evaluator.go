package rules

import (
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/angelmondragon/ordering-backend/pkg/db/models"
	"github.com/angelmondragon/ordering-backend/pkg/enums"
)

// Result is the outcome of evaluating one group. Chosen is the normalized
// input (duplicates merged, quantities at least 1) and Accepted holds the
// subset that belongs to the group.
type Result struct {
	GroupID    uuid.UUID   `json:"group_id"`
	GroupName  string      `json:"group_name"`
	Valid      bool        `json:"valid"`
	Violations []Violation `json:"violations,omitempty"`
	Chosen     []Choice    `json:"chosen"`
	Accepted   []Choice    `json:"-"`
}

// EffectiveMin is the minimum number of distinct options the group needs.
func EffectiveMin(group models.CustomizationGroup) int {
	min := group.MinSelections
	if min < 0 {
		min = 0
	}
	if group.IsRequired && min < 1 {
		min = 1
	}
	return min
}

// EffectiveMax returns the maximum number of distinct options and whether the
// group is bounded at all. Single-select groups are always capped at 1.
func EffectiveMax(group models.CustomizationGroup) (int, bool) {
	if group.Kind == enums.SelectionKindSingle {
		return 1, true
	}
	if group.MaxSelections == nil {
		return 0, false
	}
	return *group.MaxSelections, true
}

// OptionMaxQuantity is the per-selection quantity cap, defaulting to 1.
func OptionMaxQuantity(option models.CustomizationOption) int {
	if option.MaxQuantity < 1 {
		return 1
	}
	return option.MaxQuantity
}

// Evaluate checks chosen against the group's cardinality and quantity rules.
// Every violation is reported; evaluation never stops at the first one.
func Evaluate(group models.CustomizationGroup, chosen []Choice) Result {
	groupID := group.ID
	result := Result{
		GroupID:   group.ID,
		GroupName: group.Name,
		Chosen:    Normalize(chosen),
	}

	options := make(map[uuid.UUID]models.CustomizationOption, len(group.Options))
	inactive := make(map[uuid.UUID]string)
	order := make(map[uuid.UUID]int, len(group.Options))
	for i, opt := range group.Options {
		if !opt.IsActive {
			inactive[opt.ID] = opt.Name
			continue
		}
		options[opt.ID] = opt
		order[opt.ID] = i
	}
	sortChosen(result.Chosen, order)

	for _, choice := range result.Chosen {
		optionID := choice.OptionID
		opt, ok := options[optionID]
		if !ok {
			msg := fmt.Sprintf("option is not available for %s", group.Name)
			if name, was := inactive[optionID]; was {
				msg = fmt.Sprintf("%s is no longer available for %s", name, group.Name)
			}
			result.Violations = append(result.Violations, Violation{
				Code:      CodeUnknownOption,
				GroupID:   &groupID,
				GroupName: group.Name,
				OptionID:  &optionID,
				Message:   msg,
			})
			continue
		}
		result.Accepted = append(result.Accepted, choice)
		if max := OptionMaxQuantity(opt); choice.Quantity > max {
			result.Violations = append(result.Violations, Violation{
				Code:      CodeQuantityExceeded,
				GroupID:   &groupID,
				GroupName: group.Name,
				OptionID:  &optionID,
				Message:   fmt.Sprintf("%s allows at most %d of %s", group.Name, max, opt.Name),
			})
		}
	}

	distinct := len(result.Accepted)
	if min := EffectiveMin(group); distinct < min {
		result.Violations = append(result.Violations, Violation{
			Code:      CodeBelowMinimum,
			GroupID:   &groupID,
			GroupName: group.Name,
			Message:   fmt.Sprintf("choose at least %d for %s", min, group.Name),
		})
	}
	if max, bounded := EffectiveMax(group); bounded && distinct > max {
		result.Violations = append(result.Violations, Violation{
			Code:      CodeAboveMaximum,
			GroupID:   &groupID,
			GroupName: group.Name,
			Message:   fmt.Sprintf("choose at most %d for %s", max, group.Name),
		})
	}

	result.Valid = len(result.Violations) == 0
	return result
}

// Normalize merges duplicate option ids, summing their quantities, and lifts
// quantities below 1 to 1. First-seen order is preserved.
func Normalize(chosen []Choice) []Choice {
	if len(chosen) == 0 {
		return []Choice{}
	}
	index := make(map[uuid.UUID]int, len(chosen))
	out := make([]Choice, 0, len(chosen))
	for _, choice := range chosen {
		qty := choice.Quantity
		if qty < 1 {
			qty = 1
		}
		if pos, ok := index[choice.OptionID]; ok {
			out[pos].Quantity += qty
			continue
		}
		index[choice.OptionID] = len(out)
		out = append(out, Choice{OptionID: choice.OptionID, Quantity: qty})
	}
	return out
}

// sortChosen orders choices by the group's option order; unknown options keep
// their relative order at the end.
func sortChosen(chosen []Choice, order map[uuid.UUID]int) {
	sort.SliceStable(chosen, func(i, j int) bool {
		oi, iok := order[chosen[i].OptionID]
		oj, jok := order[chosen[j].OptionID]
		if iok != jok {
			return iok
		}
		return iok && oi < oj
	})
}
