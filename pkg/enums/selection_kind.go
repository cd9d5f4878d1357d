package enums

import (
	"fmt"
	"strings"
)

// SelectionKind controls how many options a customization group accepts.
type SelectionKind string

const (
	SelectionKindSingle SelectionKind = "single_select"
	SelectionKindMulti  SelectionKind = "multi_select"
)

var validSelectionKinds = []SelectionKind{
	SelectionKindSingle,
	SelectionKindMulti,
}

// String implements fmt.Stringer.
func (s SelectionKind) String() string {
	return string(s)
}

// IsValid reports whether the value is a known SelectionKind.
func (s SelectionKind) IsValid() bool {
	for _, candidate := range validSelectionKinds {
		if candidate == s {
			return true
		}
	}
	return false
}

// selectionKindAliases are the short names used in seed menus.
var selectionKindAliases = map[string]SelectionKind{
	"single": SelectionKindSingle,
	"multi":  SelectionKindMulti,
}

// ParseSelectionKind converts raw input into a SelectionKind. Matching is case
// insensitive and accepts the short seed names, so "single", "single_select"
// and "SINGLE_SELECT" are the same kind.
func ParseSelectionKind(value string) (SelectionKind, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	if kind, ok := selectionKindAliases[normalized]; ok {
		return kind, nil
	}
	for _, candidate := range validSelectionKinds {
		if string(candidate) == normalized {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid selection kind %q", value)
}
