package availability

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/locaops/rental-backend/internal/items"
	"github.com/locaops/rental-backend/pkg/enums"
	pkgerrors "github.com/locaops/rental-backend/pkg/errors"
	"github.com/locaops/rental-backend/pkg/logger"
	"github.com/locaops/rental-backend/pkg/outbox/payloads"
)

func reservingStatusValues() []string {
	statuses := enums.ReservingStatuses()
	values := make([]string, len(statuses))
	for i, status := range statuses {
		values[i] = string(status)
	}
	return values
}

type overbookingAlerter interface {
	EmitOverbooking(ctx context.Context, tx *gorm.DB, event payloads.OverbookingConflictEvent) error
}

// Availability is the computed stock picture for one item on one date.
type Availability struct {
	ItemID      uuid.UUID `json:"item_id"`
	Date        time.Time `json:"date"`
	NetCapacity int       `json:"net_capacity"`
	Reserved    int       `json:"reserved"`
	// Raw can go negative when reservations exceed usable stock.
	Raw int `json:"raw"`
	// Display is Raw floored at zero, for customer-facing surfaces.
	Display  int  `json:"display"`
	Conflict bool `json:"conflict"`
}

// Service computes per-date availability from counters and reservations.
type Service interface {
	AvailableOn(ctx context.Context, itemID uuid.UUID, date time.Time) (*Availability, error)
}

type service struct {
	db           *gorm.DB
	items        *items.Repository
	reservations *Repository
	alerts       overbookingAlerter
	logg         *logger.Logger
}

// NewService wires the availability calculator. alerter and logg may be nil.
func NewService(db *gorm.DB, itemRepo *items.Repository, reservationRepo *Repository, alerter overbookingAlerter, logg *logger.Logger) (Service, error) {
	if db == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "availability service requires a database handle")
	}
	if itemRepo == nil || reservationRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "availability service requires item and reservation repositories")
	}
	return &service{
		db:           db,
		items:        itemRepo,
		reservations: reservationRepo,
		alerts:       alerter,
		logg:         logg,
	}, nil
}

// AvailableOn reports how many units of the item can still be rented on the
// given date. Overbooking is surfaced through Conflict and an alert event,
// never as an error: the read must not block on a bad booking state.
func (s *service) AvailableOn(ctx context.Context, itemID uuid.UUID, date time.Time) (*Availability, error) {
	item, err := s.items.Get(ctx, itemID)
	if err != nil {
		return nil, err
	}
	reserved, err := s.reservations.ReservedOn(ctx, itemID, date)
	if err != nil {
		return nil, err
	}

	net := item.NetCapacity()
	raw := net - reserved
	result := &Availability{
		ItemID:      item.ID,
		Date:        truncateToDay(date),
		NetCapacity: net,
		Reserved:    reserved,
		Raw:         raw,
		Display:     raw,
	}
	if raw < 0 {
		result.Display = 0
		result.Conflict = true
		s.reportOverbooking(ctx, result)
	}
	return result, nil
}

func (s *service) reportOverbooking(ctx context.Context, av *Availability) {
	if s.logg != nil {
		logCtx := s.logg.WithFields(ctx, map[string]any{
			"item_id":  av.ItemID.String(),
			"date":     av.Date.Format("2006-01-02"),
			"reserved": av.Reserved,
			"usable":   av.NetCapacity,
		})
		s.logg.Warn(logCtx, "overbooking conflict detected")
	}
	if s.alerts == nil {
		return
	}
	err := s.db.Transaction(func(tx *gorm.DB) error {
		return s.alerts.EmitOverbooking(ctx, tx, payloads.OverbookingConflictEvent{
			ItemID:    av.ItemID,
			Date:      av.Date,
			Reserved:  av.Reserved,
			Usable:    av.NetCapacity,
			Shortfall: -av.Raw,
		})
	})
	if err != nil && s.logg != nil {
		s.logg.Error(ctx, "queueing overbooking alert failed", err)
	}
}
