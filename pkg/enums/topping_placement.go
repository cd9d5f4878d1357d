package enums

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// ToppingPlacement describes where a topping goes on a pizza.
type ToppingPlacement string

const (
	ToppingPlacementWhole ToppingPlacement = "whole"
	ToppingPlacementLeft  ToppingPlacement = "left"
	ToppingPlacementRight ToppingPlacement = "right"
)

var validToppingPlacements = []ToppingPlacement{
	ToppingPlacementWhole,
	ToppingPlacementLeft,
	ToppingPlacementRight,
}

var halfPortion = decimal.NewFromFloat(0.5)

// String implements fmt.Stringer.
func (t ToppingPlacement) String() string {
	return string(t)
}

// IsValid reports whether the value is a known ToppingPlacement.
func (t ToppingPlacement) IsValid() bool {
	for _, candidate := range validToppingPlacements {
		if candidate == t {
			return true
		}
	}
	return false
}

// Portion is the share of the whole-pizza topping price charged for this placement.
func (t ToppingPlacement) Portion() decimal.Decimal {
	if t == ToppingPlacementLeft || t == ToppingPlacementRight {
		return halfPortion
	}
	return decimal.NewFromInt(1)
}

// ParseToppingPlacement converts raw input into a ToppingPlacement. Empty input means whole.
func ParseToppingPlacement(value string) (ToppingPlacement, error) {
	if value == "" {
		return ToppingPlacementWhole, nil
	}
	for _, candidate := range validToppingPlacements {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid topping placement %q", value)
}
