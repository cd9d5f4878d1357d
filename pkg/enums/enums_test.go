package enums

import "testing"

func TestOrderStatusTransitions(t *testing.T) {
	cases := []struct {
		from, to OrderStatus
		allowed  bool
	}{
		{OrderStatusReceived, OrderStatusPreparing, true},
		{OrderStatusReceived, OrderStatusCanceled, true},
		{OrderStatusPreparing, OrderStatusReady, true},
		{OrderStatusReady, OrderStatusOutForDelivery, true},
		{OrderStatusReady, OrderStatusCompleted, true},
		{OrderStatusReady, OrderStatusCanceled, false},
		{OrderStatusCompleted, OrderStatusReceived, false},
		{OrderStatusCanceled, OrderStatusPreparing, false},
	}
	for _, tc := range cases {
		if got := tc.from.CanTransitionTo(tc.to); got != tc.allowed {
			t.Fatalf("%s -> %s expected %v got %v", tc.from, tc.to, tc.allowed, got)
		}
	}
	if !OrderStatusCanceled.IsTerminal() || OrderStatusReady.IsTerminal() {
		t.Fatalf("unexpected terminal flags")
	}
}

func TestParseSelectionKind(t *testing.T) {
	cases := map[string]SelectionKind{
		"single_select": SelectionKindSingle,
		"SINGLE_SELECT": SelectionKindSingle,
		"single":        SelectionKindSingle,
		" Multi ":       SelectionKindMulti,
		"MULTI_SELECT":  SelectionKindMulti,
		"multi":         SelectionKindMulti,
	}
	for raw, want := range cases {
		kind, err := ParseSelectionKind(raw)
		if err != nil || kind != want {
			t.Fatalf("ParseSelectionKind(%q) = %q err=%v, want %q", raw, kind, err, want)
		}
	}
	if _, err := ParseSelectionKind("pick_two"); err == nil {
		t.Fatalf("expected error for unknown kind")
	}
}

func TestToppingPlacementPortion(t *testing.T) {
	placement, err := ParseToppingPlacement("")
	if err != nil || placement != ToppingPlacementWhole {
		t.Fatalf("empty placement should default to whole, got %q err=%v", placement, err)
	}
	if got := ToppingPlacementLeft.Portion().String(); got != "0.5" {
		t.Fatalf("expected half portion, got %s", got)
	}
	if got := ToppingPlacementWhole.Portion().String(); got != "1" {
		t.Fatalf("expected full portion, got %s", got)
	}
	if _, err := ParseToppingPlacement("center"); err == nil {
		t.Fatalf("expected error for unknown placement")
	}
}

func TestParseOrderType(t *testing.T) {
	if _, err := ParseOrderType("dine_in"); err == nil {
		t.Fatalf("expected error for unsupported order type")
	}
	if typ, err := ParseOrderType("delivery"); err != nil || typ != OrderTypeDelivery {
		t.Fatalf("expected delivery, got %q err=%v", typ, err)
	}
}
