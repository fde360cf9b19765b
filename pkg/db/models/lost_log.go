package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/locaops/rental-backend/pkg/enums"
)

// LostLog records units reported lost. Closed records carry the outcome
// (FOUND or REPAIRED) on the resolution column.
type LostLog struct {
	ID         uuid.UUID             `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ItemID     uuid.UUID             `gorm:"column:item_id;type:uuid;not null;index"`
	Quantity   int                   `gorm:"column:quantity;not null"`
	Status     enums.IncidentStatus  `gorm:"column:status;not null;default:'OPEN'"`
	Resolution *enums.LossResolution `gorm:"column:resolution"`
	EntryDate  time.Time             `gorm:"column:entry_date;not null"`
	ClosedAt   *time.Time            `gorm:"column:closed_at"`
	CreatedAt  time.Time             `gorm:"column:created_at;autoCreateTime"`
}
