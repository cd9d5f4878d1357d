package types

import "testing"

func TestSelectionsScanFromString(t *testing.T) {
	var got Selections
	if err := got.Scan(`[{"option_id":"abc","quantity":2}]`); err != nil {
		t.Fatalf("scan: %v", err)
	}
	if len(got) != 1 || got[0].OptionID != "abc" || got[0].Quantity != 2 {
		t.Fatalf("unexpected selections %+v", got)
	}
}

func TestSelectionsNilValueIsEmptyArray(t *testing.T) {
	var s Selections
	val, err := s.Value()
	if err != nil {
		t.Fatalf("value: %v", err)
	}
	if val.(string) != "[]" {
		t.Fatalf("expected empty array, got %s", val)
	}
}

func TestJSONMapRejectsUnsupportedType(t *testing.T) {
	var m JSONMap
	if err := m.Scan(42); err == nil {
		t.Fatalf("expected error for int scan")
	}
}
