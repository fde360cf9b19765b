package items

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/locaops/rental-backend/pkg/db/models"
)

// ItemDTO represents the item payload returned to clients, counters included.
type ItemDTO struct {
	ID                  uuid.UUID       `json:"id"`
	Name                string          `json:"name"`
	Description         *string         `json:"description,omitempty"`
	TotalQuantity       int             `json:"total_quantity"`
	MaintenanceQuantity int             `json:"maintenance_quantity"`
	DamagedQuantity     int             `json:"damaged_quantity"`
	LostQuantity        int             `json:"lost_quantity"`
	NetCapacity         int             `json:"net_capacity"`
	DailyPrice          decimal.Decimal `json:"daily_price"`
	DamageFine          decimal.Decimal `json:"damage_fine"`
	LostFine            decimal.Decimal `json:"lost_fine"`
	CreatedAt           time.Time       `json:"created_at"`
	UpdatedAt           time.Time       `json:"updated_at"`
}

// NewItemDTO builds a DTO from the persisted model.
func NewItemDTO(item *models.Item) *ItemDTO {
	return &ItemDTO{
		ID:                  item.ID,
		Name:                item.Name,
		Description:         item.Description,
		TotalQuantity:       item.TotalQuantity,
		MaintenanceQuantity: item.MaintenanceQuantity,
		DamagedQuantity:     item.DamagedQuantity,
		LostQuantity:        item.LostQuantity,
		NetCapacity:         item.NetCapacity(),
		DailyPrice:          item.DailyPrice,
		DamageFine:          item.DamageFine,
		LostFine:            item.LostFine,
		CreatedAt:           item.CreatedAt,
		UpdatedAt:           item.UpdatedAt,
	}
}
