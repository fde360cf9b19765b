package reconciliation

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/locaops/rental-backend/internal/incidents"
	"github.com/locaops/rental-backend/internal/items"
	"github.com/locaops/rental-backend/pkg/db/models"
	"github.com/locaops/rental-backend/pkg/enums"
)

// Ghost represents counter drift with no matching audit trail: the share of
// an aggregate counter not covered by open incident records. It carries no
// identity and is never persisted; it cannot be closed or split, only
// materialized into a real incident or resolved against the counter directly.
type Ghost struct {
	ItemID     uuid.UUID       `json:"item_id"`
	ItemName   string          `json:"item_name"`
	Condition  enums.Condition `json:"condition"`
	Quantity   int             `json:"quantity"`
	CounterQty int             `json:"counter_qty"`
	OpenLogQty int             `json:"open_log_qty"`
}

// Detector recomputes ghost quantities from live state on every call.
type Detector struct {
	items     *items.Repository
	incidents *incidents.Repository
}

// NewDetector builds a detector over the item and incident repositories.
func NewDetector(itemRepo *items.Repository, incidentRepo *incidents.Repository) (*Detector, error) {
	if itemRepo == nil {
		return nil, fmt.Errorf("item repository required")
	}
	if incidentRepo == nil {
		return nil, fmt.Errorf("incident repository required")
	}
	return &Detector{items: itemRepo, incidents: incidentRepo}, nil
}

// GhostsForItem returns the item's positive ghosts, one per drifting condition.
func (d *Detector) GhostsForItem(ctx context.Context, itemID uuid.UUID) ([]Ghost, error) {
	item, err := d.items.Get(ctx, itemID)
	if err != nil {
		return nil, err
	}
	return d.ghostsFor(ctx, item)
}

// ListGhosts scans the whole catalog for drift.
func (d *Detector) ListGhosts(ctx context.Context) ([]Ghost, error) {
	catalog, err := d.items.List(ctx)
	if err != nil {
		return nil, err
	}
	var ghosts []Ghost
	for i := range catalog {
		found, err := d.ghostsFor(ctx, &catalog[i])
		if err != nil {
			return nil, err
		}
		ghosts = append(ghosts, found...)
	}
	return ghosts, nil
}

func (d *Detector) ghostsFor(ctx context.Context, item *models.Item) ([]Ghost, error) {
	var ghosts []Ghost
	for _, condition := range enums.AllConditions() {
		counter := item.CounterFor(condition)
		if counter == 0 {
			continue
		}
		openSum, err := d.incidents.SumOpen(ctx, condition, item.ID)
		if err != nil {
			return nil, err
		}
		if ghost := counter - openSum; ghost > 0 {
			ghosts = append(ghosts, Ghost{
				ItemID:     item.ID,
				ItemName:   item.Name,
				Condition:  condition,
				Quantity:   ghost,
				CounterQty: counter,
				OpenLogQty: openSum,
			})
		}
	}
	return ghosts, nil
}
