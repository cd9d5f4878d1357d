package rules

import (
	"fmt"

	"github.com/google/uuid"
)

// CombinedRule requires exactly Target distinct options across GroupIDs,
// on top of each group's own rules.
type CombinedRule struct {
	Name     string
	GroupIDs []uuid.UUID
	Target   int
}

// EvaluateCombined counts the union of accepted options across the rule's
// groups in already evaluated results. It returns nil when the count matches.
func EvaluateCombined(rule CombinedRule, results []Result) *Violation {
	inRule := make(map[uuid.UUID]struct{}, len(rule.GroupIDs))
	for _, id := range rule.GroupIDs {
		inRule[id] = struct{}{}
	}

	union := make(map[uuid.UUID]struct{})
	for _, result := range results {
		if _, ok := inRule[result.GroupID]; !ok {
			continue
		}
		for _, choice := range result.Accepted {
			union[choice.OptionID] = struct{}{}
		}
	}

	if len(union) == rule.Target {
		return nil
	}
	name := rule.Name
	if name == "" {
		name = "combined selection"
	}
	return &Violation{
		Code:      CodeCombinedCardinalityMismatch,
		GroupName: name,
		Message:   fmt.Sprintf("choose exactly %d in total for %s, got %d", rule.Target, name, len(union)),
	}
}
