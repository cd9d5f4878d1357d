package rules

import (
	"testing"

	"github.com/google/uuid"

	"github.com/angelmondragon/ordering-backend/pkg/db/models"
	"github.com/angelmondragon/ordering-backend/pkg/enums"
)

func sideGroups() (models.CustomizationGroup, models.CustomizationGroup) {
	hot := models.CustomizationGroup{
		ID:      uuid.New(),
		Name:    "Hot Sides",
		Kind:    enums.SelectionKindMulti,
		Options: []models.CustomizationOption{option("Mac", 0), option("Greens", 1), option("Beans", 2)},
	}
	cold := models.CustomizationGroup{
		ID:      uuid.New(),
		Name:    "Cold Sides",
		Kind:    enums.SelectionKindMulti,
		Options: []models.CustomizationOption{option("Slaw", 0), option("Potato Salad", 1)},
	}
	return hot, cold
}

func TestEvaluateCombinedExactTarget(t *testing.T) {
	hot, cold := sideGroups()
	rule := CombinedRule{Name: "Sides", GroupIDs: []uuid.UUID{hot.ID, cold.ID}, Target: 2}

	results := []Result{
		Evaluate(hot, []Choice{{OptionID: hot.Options[0].ID}}),
		Evaluate(cold, []Choice{{OptionID: cold.Options[0].ID}}),
	}
	if v := EvaluateCombined(rule, results); v != nil {
		t.Fatalf("expected no violation, got %+v", v)
	}
}

func TestEvaluateCombinedMismatch(t *testing.T) {
	hot, cold := sideGroups()
	rule := CombinedRule{Name: "Sides", GroupIDs: []uuid.UUID{hot.ID, cold.ID}, Target: 2}

	results := []Result{
		Evaluate(hot, []Choice{{OptionID: hot.Options[0].ID}, {OptionID: hot.Options[1].ID}}),
		Evaluate(cold, []Choice{{OptionID: cold.Options[0].ID}}),
	}
	v := EvaluateCombined(rule, results)
	if v == nil {
		t.Fatalf("expected mismatch for three sides")
	}
	if v.Code != CodeCombinedCardinalityMismatch || v.GroupID != nil {
		t.Fatalf("unexpected violation %+v", v)
	}

	if v := EvaluateCombined(rule, []Result{Evaluate(hot, nil), Evaluate(cold, nil)}); v == nil {
		t.Fatalf("expected mismatch for zero sides")
	}
}

func TestEvaluateCombinedIgnoresOtherGroupsAndUnknownOptions(t *testing.T) {
	hot, cold := sideGroups()
	bread := breadGroup()
	rule := CombinedRule{GroupIDs: []uuid.UUID{hot.ID, cold.ID}, Target: 1}

	results := []Result{
		Evaluate(hot, []Choice{{OptionID: hot.Options[2].ID}, {OptionID: uuid.New()}}),
		Evaluate(cold, nil),
		Evaluate(bread, []Choice{{OptionID: bread.Options[0].ID}}),
	}
	if v := EvaluateCombined(rule, results); v != nil {
		t.Fatalf("expected only accepted options in rule groups to count, got %+v", v)
	}
}
