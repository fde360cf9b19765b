package enums

import "fmt"

// ReservationStatus mirrors the status column of the external reservation
// subsystem. Only the reserving statuses count against availability.
type ReservationStatus string

const (
	ReservationStatusActive     ReservationStatus = "active"
	ReservationStatusInProgress ReservationStatus = "in_progress"
	ReservationStatusConfirmed  ReservationStatus = "confirmed"
	ReservationStatusPending    ReservationStatus = "pending"
	ReservationStatusCompleted  ReservationStatus = "completed"
	ReservationStatusCanceled   ReservationStatus = "canceled"
)

var validReservationStatuses = []ReservationStatus{
	ReservationStatusActive,
	ReservationStatusInProgress,
	ReservationStatusConfirmed,
	ReservationStatusPending,
	ReservationStatusCompleted,
	ReservationStatusCanceled,
}

var reservingStatuses = []ReservationStatus{
	ReservationStatusActive,
	ReservationStatusInProgress,
	ReservationStatusConfirmed,
	ReservationStatusPending,
}

// ReservingStatuses returns the statuses that hold capacity against a date.
func ReservingStatuses() []ReservationStatus {
	out := make([]ReservationStatus, len(reservingStatuses))
	copy(out, reservingStatuses)
	return out
}

// Reserves reports whether a reservation in this status holds capacity.
func (s ReservationStatus) Reserves() bool {
	for _, candidate := range reservingStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// IsValid reports whether the value matches the canonical reservation status enum.
func (s ReservationStatus) IsValid() bool {
	for _, candidate := range validReservationStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseReservationStatus converts the raw string to ReservationStatus.
func ParseReservationStatus(value string) (ReservationStatus, error) {
	for _, candidate := range validReservationStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid reservation status %q", value)
}
