package enums

import "fmt"

// MaintenanceReason tags how a maintenance log entry originated. Entries opened
// by a damage-to-maintenance transfer carry BROKEN so consumers can tell them
// apart from direct maintenance adjustments.
type MaintenanceReason string

const (
	MaintenanceReasonDirect MaintenanceReason = "DIRECT"
	MaintenanceReasonBroken MaintenanceReason = "BROKEN"
	MaintenanceReasonSync   MaintenanceReason = "SYNC"
)

var validMaintenanceReasons = []MaintenanceReason{
	MaintenanceReasonDirect,
	MaintenanceReasonBroken,
	MaintenanceReasonSync,
}

// IsValid reports whether the value matches the canonical maintenance reason enum.
func (r MaintenanceReason) IsValid() bool {
	for _, candidate := range validMaintenanceReasons {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseMaintenanceReason converts the raw string to MaintenanceReason.
func ParseMaintenanceReason(value string) (MaintenanceReason, error) {
	for _, candidate := range validMaintenanceReasons {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid maintenance reason %q", value)
}
