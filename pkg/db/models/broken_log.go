package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/locaops/rental-backend/pkg/enums"
)

// BrokenLog records units reported damaged. Damage incidents are never
// resolved in place; they close via transfer to maintenance.
type BrokenLog struct {
	ID        uuid.UUID            `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ItemID    uuid.UUID            `gorm:"column:item_id;type:uuid;not null;index"`
	Quantity  int                  `gorm:"column:quantity;not null"`
	Status    enums.IncidentStatus `gorm:"column:status;not null;default:'OPEN'"`
	EntryDate time.Time            `gorm:"column:entry_date;not null"`
	ClosedAt  *time.Time           `gorm:"column:closed_at"`
	CreatedAt time.Time            `gorm:"column:created_at;autoCreateTime"`
}
