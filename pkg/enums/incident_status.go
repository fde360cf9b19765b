package enums

import "fmt"

// IncidentStatus describes the lifecycle of an incident log record.
type IncidentStatus string

const (
	IncidentStatusOpen   IncidentStatus = "OPEN"
	IncidentStatusClosed IncidentStatus = "CLOSED"
)

var validIncidentStatuses = []IncidentStatus{
	IncidentStatusOpen,
	IncidentStatusClosed,
}

// IsValid reports whether the value matches the canonical incident status enum.
func (s IncidentStatus) IsValid() bool {
	for _, candidate := range validIncidentStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseIncidentStatus converts the raw string to IncidentStatus.
func ParseIncidentStatus(value string) (IncidentStatus, error) {
	for _, candidate := range validIncidentStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid incident status %q", value)
}
