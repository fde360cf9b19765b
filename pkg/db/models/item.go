package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/locaops/rental-backend/pkg/enums"
)

// Item is the canonical rental item record. The three condition counters are
// cached aggregates; the incident log tables are the audit trail for them.
// The two are reconciled, not transactionally coupled to external writers.
type Item struct {
	ID                  uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name                string          `gorm:"column:name;not null"`
	Description         *string         `gorm:"column:description"`
	TotalQuantity       int             `gorm:"column:total_quantity;not null;default:0"`
	MaintenanceQuantity int             `gorm:"column:maintenance_quantity;not null;default:0"`
	DamagedQuantity     int             `gorm:"column:damaged_quantity;not null;default:0"`
	LostQuantity        int             `gorm:"column:lost_quantity;not null;default:0"`
	DailyPrice          decimal.Decimal `gorm:"column:daily_price;type:numeric(12,2);not null;default:0"`
	DamageFine          decimal.Decimal `gorm:"column:damage_fine;type:numeric(12,2);not null;default:0"`
	LostFine            decimal.Decimal `gorm:"column:lost_fine;type:numeric(12,2);not null;default:0"`
	Version             int             `gorm:"column:version;not null;default:0"`
	CreatedAt           time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt           time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

// CounterFor returns the cached aggregate for the given condition.
func (i Item) CounterFor(condition enums.Condition) int {
	switch condition {
	case enums.ConditionMaintenance:
		return i.MaintenanceQuantity
	case enums.ConditionDamaged:
		return i.DamagedQuantity
	case enums.ConditionLost:
		return i.LostQuantity
	}
	return 0
}

// NetCapacity is the structurally rentable quantity, ignoring reservations.
func (i Item) NetCapacity() int {
	return i.TotalQuantity - i.MaintenanceQuantity - i.DamagedQuantity - i.LostQuantity
}
