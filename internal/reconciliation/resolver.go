package reconciliation

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/locaops/rental-backend/internal/incidents"
	"github.com/locaops/rental-backend/internal/items"
	"github.com/locaops/rental-backend/pkg/db/models"
	"github.com/locaops/rental-backend/pkg/enums"
	pkgerrors "github.com/locaops/rental-backend/pkg/errors"
	"github.com/locaops/rental-backend/pkg/logger"
	"github.com/locaops/rental-backend/pkg/outbox/payloads"
)

type clampAlerter interface {
	EmitCounterClamped(ctx context.Context, tx *gorm.DB, event payloads.CounterClampedEvent) error
}

// Resolver mutates counters and incident logs together. Every operation runs
// its counter write and its log write inside one transaction, so a partial
// failure rolls back instead of leaving drift behind.
type Resolver struct {
	db        *gorm.DB
	items     *items.Repository
	incidents *incidents.Repository
	alerts    clampAlerter
	logg      *logger.Logger
}

// NewResolver constructs the resolver. The alerter may be nil; clamp events
// are then only logged.
func NewResolver(db *gorm.DB, itemRepo *items.Repository, incidentRepo *incidents.Repository, alerter clampAlerter, logg *logger.Logger) (*Resolver, error) {
	if db == nil {
		return nil, fmt.Errorf("db required")
	}
	if itemRepo == nil {
		return nil, fmt.Errorf("item repository required")
	}
	if incidentRepo == nil {
		return nil, fmt.Errorf("incident repository required")
	}
	return &Resolver{
		db:        db,
		items:     itemRepo,
		incidents: incidentRepo,
		alerts:    alerter,
		logg:      logg,
	}, nil
}

// AdjustStockResult reports a newly tracked incident and the updated item.
type AdjustStockResult struct {
	Item     *models.Item
	Incident *incidents.Incident
}

// ResolveResult reports a full or partial incident resolution.
type ResolveResult struct {
	Item *models.Item
	// Remaining is the still-OPEN record after a partial resolution; nil on
	// full closure.
	Remaining *incidents.Incident
	Closed    *incidents.Incident
	Shortfall int
}

// TransferResult reports a damage-to-maintenance transfer.
type TransferResult struct {
	Item        *models.Item
	Remaining   *incidents.Incident
	Closed      *incidents.Incident
	Maintenance *incidents.Incident
	Shortfall   int
}

// AdjustStock reports quantity units entering the condition: the counter is
// incremented and a matching OPEN incident is appended, atomically.
func (r *Resolver) AdjustStock(ctx context.Context, itemID uuid.UUID, condition enums.Condition, quantity int) (*AdjustStockResult, error) {
	if !condition.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown condition %q", condition))
	}
	if quantity < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}

	var result AdjustStockResult
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		incident, err := r.incidents.WithTx(tx).Open(ctx, condition, incidents.OpenParams{
			ItemID:    itemID,
			Quantity:  quantity,
			EntryDate: time.Now(),
		})
		if err != nil {
			return err
		}
		adjusted, err := r.items.WithTx(tx).AdjustCounter(ctx, itemID, condition, quantity)
		if err != nil {
			return err
		}
		result.Item = adjusted.Item
		result.Incident = incident
		return nil
	})
	if err != nil {
		return nil, err
	}

	if r.logg != nil {
		logCtx := r.logg.WithFields(ctx, map[string]any{
			"item_id":   itemID.String(),
			"condition": condition,
			"quantity":  quantity,
		})
		r.logg.Info(logCtx, "stock adjustment recorded")
	}
	return &result, nil
}

// Resolve closes quantity units of an OPEN incident and decrements the
// counter. quantity == incident quantity closes in place; a smaller quantity
// splits the record. Loss incidents record the outcome on the closed record.
func (r *Resolver) Resolve(ctx context.Context, condition enums.Condition, incidentID uuid.UUID, quantity int, resolution *enums.LossResolution) (*ResolveResult, error) {
	if condition == enums.ConditionDamaged {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "damage incidents are resolved by transfer to maintenance")
	}
	if !condition.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown condition %q", condition))
	}
	if condition == enums.ConditionLost {
		if resolution == nil || !resolution.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "loss resolution must be FOUND or REPAIRED")
		}
	}

	var result ResolveResult
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		incidentRepo := r.incidents.WithTx(tx)

		incident, err := incidentRepo.Get(ctx, condition, incidentID)
		if err != nil {
			return err
		}
		if incident.Status != enums.IncidentStatusOpen {
			return pkgerrors.New(pkgerrors.CodeNotFound, "incident not found or already closed")
		}
		if quantity < 1 || quantity > incident.Quantity {
			return pkgerrors.New(pkgerrors.CodeValidation,
				fmt.Sprintf("quantity must be between 1 and %d", incident.Quantity))
		}

		if quantity == incident.Quantity {
			closed, err := incidentRepo.Close(ctx, condition, incidentID, resolution)
			if err != nil {
				return err
			}
			result.Closed = closed
		} else {
			remaining, closed, err := incidentRepo.Split(ctx, condition, incidentID, quantity, resolution)
			if err != nil {
				return err
			}
			result.Remaining = remaining
			result.Closed = closed
		}

		adjusted, err := r.items.WithTx(tx).AdjustCounter(ctx, incident.ItemID, condition, -quantity)
		if err != nil {
			return err
		}
		result.Item = adjusted.Item
		result.Shortfall = adjusted.Shortfall

		if adjusted.Shortfall > 0 {
			r.reportClamp(ctx, tx, incident.ItemID, condition, -quantity, adjusted)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// TransferToMaintenance moves quantity units of a damage incident to
// maintenance: damaged counter down, maintenance counter up, damage record
// closed or split, and a new OPEN maintenance record tagged BROKEN.
func (r *Resolver) TransferToMaintenance(ctx context.Context, incidentID uuid.UUID, quantity int) (*TransferResult, error) {
	var result TransferResult
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		incidentRepo := r.incidents.WithTx(tx)
		itemRepo := r.items.WithTx(tx)

		incident, err := incidentRepo.Get(ctx, enums.ConditionDamaged, incidentID)
		if err != nil {
			return err
		}
		if incident.Status != enums.IncidentStatusOpen {
			return pkgerrors.New(pkgerrors.CodeNotFound, "incident not found or already closed")
		}
		if quantity < 1 || quantity > incident.Quantity {
			return pkgerrors.New(pkgerrors.CodeValidation,
				fmt.Sprintf("quantity must be between 1 and %d", incident.Quantity))
		}

		if quantity == incident.Quantity {
			closed, err := incidentRepo.Close(ctx, enums.ConditionDamaged, incidentID, nil)
			if err != nil {
				return err
			}
			result.Closed = closed
		} else {
			remaining, closed, err := incidentRepo.Split(ctx, enums.ConditionDamaged, incidentID, quantity, nil)
			if err != nil {
				return err
			}
			result.Remaining = remaining
			result.Closed = closed
		}

		down, err := itemRepo.AdjustCounter(ctx, incident.ItemID, enums.ConditionDamaged, -quantity)
		if err != nil {
			return err
		}
		result.Shortfall = down.Shortfall
		if down.Shortfall > 0 {
			r.reportClamp(ctx, tx, incident.ItemID, enums.ConditionDamaged, -quantity, down)
		}

		up, err := itemRepo.AdjustCounter(ctx, incident.ItemID, enums.ConditionMaintenance, quantity)
		if err != nil {
			return err
		}
		result.Item = up.Item

		maintenance, err := incidentRepo.Open(ctx, enums.ConditionMaintenance, incidents.OpenParams{
			ItemID:    incident.ItemID,
			Quantity:  quantity,
			EntryDate: time.Now(),
			Reason:    enums.MaintenanceReasonBroken,
		})
		if err != nil {
			return err
		}
		result.Maintenance = maintenance
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// ResolveGhost decrements the counter without touching any log. The ghost is
// recomputed from live state inside the transaction, so a quantity based on
// a stale read is rejected instead of over-decrementing.
func (r *Resolver) ResolveGhost(ctx context.Context, itemID uuid.UUID, condition enums.Condition, quantity int) (*models.Item, error) {
	if !condition.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown condition %q", condition))
	}
	if quantity < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}

	var item *models.Item
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ghost, err := r.liveGhost(ctx, tx, itemID, condition)
		if err != nil {
			return err
		}
		if quantity > ghost {
			return pkgerrors.New(pkgerrors.CodeStateConflict,
				fmt.Sprintf("quantity %d exceeds current ghost quantity %d", quantity, ghost))
		}
		adjusted, err := r.items.WithTx(tx).AdjustCounter(ctx, itemID, condition, -quantity)
		if err != nil {
			return err
		}
		item = adjusted.Item
		return nil
	})
	if err != nil {
		return nil, err
	}
	return item, nil
}

// Materialize converts the live ghost into a real OPEN incident so the audit
// trail covers the counter again. The counter is untouched; entry_date falls
// back to the item's creation time, the best-known proxy for drift of
// unrecoverable origin.
func (r *Resolver) Materialize(ctx context.Context, itemID uuid.UUID, condition enums.Condition) (*incidents.Incident, error) {
	if !condition.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown condition %q", condition))
	}

	var incident *incidents.Incident
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		item, err := r.items.WithTx(tx).Get(ctx, itemID)
		if err != nil {
			return err
		}
		ghost, err := r.liveGhost(ctx, tx, itemID, condition)
		if err != nil {
			return err
		}
		if ghost < 1 {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "no ghost quantity to materialize")
		}
		created, err := r.incidents.WithTx(tx).Open(ctx, condition, incidents.OpenParams{
			ItemID:    itemID,
			Quantity:  ghost,
			EntryDate: item.CreatedAt,
			Reason:    enums.MaintenanceReasonSync,
		})
		if err != nil {
			return err
		}
		incident = created
		return nil
	})
	if err != nil {
		return nil, err
	}
	return incident, nil
}

func (r *Resolver) liveGhost(ctx context.Context, tx *gorm.DB, itemID uuid.UUID, condition enums.Condition) (int, error) {
	item, err := r.items.WithTx(tx).Get(ctx, itemID)
	if err != nil {
		return 0, err
	}
	openSum, err := r.incidents.WithTx(tx).SumOpen(ctx, condition, itemID)
	if err != nil {
		return 0, err
	}
	ghost := item.CounterFor(condition) - openSum
	if ghost < 0 {
		ghost = 0
	}
	return ghost, nil
}

func (r *Resolver) reportClamp(ctx context.Context, tx *gorm.DB, itemID uuid.UUID, condition enums.Condition, requested int, adjusted *items.AdjustResult) {
	if r.logg != nil {
		logCtx := r.logg.WithFields(ctx, map[string]any{
			"item_id":   itemID.String(),
			"condition": condition,
			"requested": requested,
			"applied":   adjusted.Applied,
			"shortfall": adjusted.Shortfall,
		})
		r.logg.Warn(logCtx, "counter decrement clamped at zero")
	}
	if r.alerts == nil {
		return
	}
	event := payloads.CounterClampedEvent{
		ItemID:    itemID,
		Condition: condition,
		Requested: requested,
		Applied:   adjusted.Applied,
		Shortfall: adjusted.Shortfall,
	}
	if err := r.alerts.EmitCounterClamped(ctx, tx, event); err != nil && r.logg != nil {
		r.logg.Error(ctx, "queueing counter clamp alert failed", err)
	}
}
