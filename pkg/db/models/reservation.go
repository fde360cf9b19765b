package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/locaops/rental-backend/pkg/enums"
)

// Reservation mirrors rows owned by the external booking subsystem. This
// service only reads them to compute per-date availability.
type Reservation struct {
	ID         uuid.UUID               `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ItemID     uuid.UUID               `gorm:"column:item_id;type:uuid;not null;index"`
	Quantity   int                     `gorm:"column:quantity;not null"`
	Status     enums.ReservationStatus `gorm:"column:status;not null"`
	StartDate  time.Time               `gorm:"column:start_date;not null"`
	ReturnDate time.Time               `gorm:"column:return_date;not null"`
	CreatedAt  time.Time               `gorm:"column:created_at;autoCreateTime"`
}
