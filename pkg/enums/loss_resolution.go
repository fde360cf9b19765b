package enums

import "fmt"

// LossResolution records how a lost-stock incident was settled.
type LossResolution string

const (
	LossResolutionFound    LossResolution = "FOUND"
	LossResolutionRepaired LossResolution = "REPAIRED"
)

var validLossResolutions = []LossResolution{
	LossResolutionFound,
	LossResolutionRepaired,
}

// IsValid reports whether the value matches the canonical loss resolution enum.
func (r LossResolution) IsValid() bool {
	for _, candidate := range validLossResolutions {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseLossResolution converts the raw string to LossResolution.
func ParseLossResolution(value string) (LossResolution, error) {
	for _, candidate := range validLossResolutions {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid loss resolution %q", value)
}
