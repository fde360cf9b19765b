package incidents

import (
	"time"

	"github.com/google/uuid"

	"github.com/locaops/rental-backend/pkg/db/models"
	"github.com/locaops/rental-backend/pkg/enums"
)

// Incident is the condition-neutral view over the three log tables. While
// OPEN, Quantity is the remaining untreated amount; partial resolutions
// reduce it and insert a CLOSED record carrying the resolved share.
type Incident struct {
	ID         uuid.UUID                `json:"id"`
	ItemID     uuid.UUID                `json:"item_id"`
	Condition  enums.Condition          `json:"condition"`
	Quantity   int                      `json:"quantity"`
	Status     enums.IncidentStatus     `json:"status"`
	Reason     *enums.MaintenanceReason `json:"reason,omitempty"`
	Resolution *enums.LossResolution    `json:"resolution,omitempty"`
	EntryDate  time.Time                `json:"entry_date"`
	ClosedAt   *time.Time               `json:"closed_at,omitempty"`
	CreatedAt  time.Time                `json:"created_at"`
}

func fromMaintenance(row models.MaintenanceLog) Incident {
	reason := row.Reason
	return Incident{
		ID:        row.ID,
		ItemID:    row.ItemID,
		Condition: enums.ConditionMaintenance,
		Quantity:  row.Quantity,
		Status:    row.Status,
		Reason:    &reason,
		EntryDate: row.EntryDate,
		ClosedAt:  row.ClosedAt,
		CreatedAt: row.CreatedAt,
	}
}

func fromBroken(row models.BrokenLog) Incident {
	return Incident{
		ID:        row.ID,
		ItemID:    row.ItemID,
		Condition: enums.ConditionDamaged,
		Quantity:  row.Quantity,
		Status:    row.Status,
		EntryDate: row.EntryDate,
		ClosedAt:  row.ClosedAt,
		CreatedAt: row.CreatedAt,
	}
}

func fromLost(row models.LostLog) Incident {
	return Incident{
		ID:         row.ID,
		ItemID:     row.ItemID,
		Condition:  enums.ConditionLost,
		Quantity:   row.Quantity,
		Status:     row.Status,
		Resolution: row.Resolution,
		EntryDate:  row.EntryDate,
		ClosedAt:   row.ClosedAt,
		CreatedAt:  row.CreatedAt,
	}
}
