package rules

import "github.com/google/uuid"

// Code classifies a user-correctable selection problem.
type Code string

const (
	CodeUnknownOption               Code = "UNKNOWN_OPTION"
	CodeBelowMinimum                Code = "BELOW_MINIMUM"
	CodeAboveMaximum                Code = "ABOVE_MAXIMUM"
	CodeQuantityExceeded            Code = "QUANTITY_EXCEEDED"
	CodeCombinedCardinalityMismatch Code = "COMBINED_CARDINALITY_MISMATCH"
	CodeItemUnavailable             Code = "ITEM_UNAVAILABLE"
)

// Violation is one field-level problem. GroupID is nil for item-level and
// combined-rule violations.
type Violation struct {
	Code      Code       `json:"code"`
	GroupID   *uuid.UUID `json:"group_id,omitempty"`
	GroupName string     `json:"group_name,omitempty"`
	OptionID  *uuid.UUID `json:"option_id,omitempty"`
	Message   string     `json:"message"`
}

// Choice is one chosen option with its requested quantity.
type Choice struct {
	OptionID uuid.UUID `json:"option_id"`
	Quantity int       `json:"quantity"`
}
