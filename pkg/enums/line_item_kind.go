package enums

import "fmt"

// LineItemKind distinguishes catalog menu items from build-your-own pizzas.
type LineItemKind string

const (
	LineItemKindMenuItem    LineItemKind = "menu_item"
	LineItemKindCustomPizza LineItemKind = "custom_pizza"
)

var validLineItemKinds = []LineItemKind{
	LineItemKindMenuItem,
	LineItemKindCustomPizza,
}

// String implements fmt.Stringer.
func (l LineItemKind) String() string {
	return string(l)
}

// IsValid reports whether the value is a known LineItemKind.
func (l LineItemKind) IsValid() bool {
	for _, candidate := range validLineItemKinds {
		if candidate == l {
			return true
		}
	}
	return false
}

// ParseLineItemKind converts raw input into a LineItemKind.
func ParseLineItemKind(value string) (LineItemKind, error) {
	for _, candidate := range validLineItemKinds {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid line item kind %q", value)
}
