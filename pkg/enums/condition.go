package enums

import "fmt"

// Condition identifies a tracked non-available stock state. Each condition has
// its own aggregate counter on the item row and its own incident log table.
type Condition string

const (
	ConditionMaintenance Condition = "maintenance"
	ConditionDamaged     Condition = "damaged"
	ConditionLost        Condition = "lost"
)

var validConditions = []Condition{
	ConditionMaintenance,
	ConditionDamaged,
	ConditionLost,
}

// AllConditions returns the tracked conditions in canonical order.
func AllConditions() []Condition {
	out := make([]Condition, len(validConditions))
	copy(out, validConditions)
	return out
}

// IsValid reports whether the value matches the canonical condition enum.
func (c Condition) IsValid() bool {
	for _, candidate := range validConditions {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseCondition converts the raw string to Condition.
func ParseCondition(value string) (Condition, error) {
	for _, candidate := range validConditions {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid condition %q", value)
}
