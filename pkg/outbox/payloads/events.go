package payloads

import (
	"time"

	"github.com/google/uuid"

	"github.com/locaops/rental-backend/pkg/enums"
)

// OverbookingConflictEvent is emitted when confirmed reservations exceed usable stock on a date.
type OverbookingConflictEvent struct {
	ItemID    uuid.UUID `json:"item_id"`
	Date      time.Time `json:"date"`
	Reserved  int       `json:"reserved"`
	Usable    int       `json:"usable"`
	Shortfall int       `json:"shortfall"`
}

// StockDriftDetectedEvent surfaces a ghost discrepancy between a counter and its open logs.
type StockDriftDetectedEvent struct {
	ItemID     uuid.UUID       `json:"item_id"`
	Condition  enums.Condition `json:"condition"`
	CounterQty int             `json:"counter_qty"`
	OpenLogQty int             `json:"open_log_qty"`
	Ghost      int             `json:"ghost"`
}

// CounterClampedEvent records a counter adjustment that could not be applied in full.
type CounterClampedEvent struct {
	ItemID    uuid.UUID       `json:"item_id"`
	Condition enums.Condition `json:"condition"`
	Requested int             `json:"requested"`
	Applied   int             `json:"applied"`
	Shortfall int             `json:"shortfall"`
}
