package incidents

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/locaops/rental-backend/pkg/db/models"
	"github.com/locaops/rental-backend/pkg/enums"
	pkgerrors "github.com/locaops/rental-backend/pkg/errors"
	"github.com/locaops/rental-backend/pkg/pagination"
)

// OpenParams holds the values for a new OPEN incident record.
type OpenParams struct {
	ItemID    uuid.UUID
	Quantity  int
	EntryDate time.Time
	// Reason applies to maintenance incidents only; zero value means DIRECT.
	Reason enums.MaintenanceReason
}

// ListParams filters incident history reads.
type ListParams struct {
	ItemID uuid.UUID
	Status *enums.IncidentStatus
	Page   pagination.Params
}

// Repository persists incident records across the three per-condition tables.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// Open appends an OPEN record to the condition's log.
func (r *Repository) Open(ctx context.Context, condition enums.Condition, params OpenParams) (*Incident, error) {
	if params.Quantity < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}
	if params.EntryDate.IsZero() {
		params.EntryDate = time.Now()
	}

	db := r.db.WithContext(ctx)
	switch condition {
	case enums.ConditionMaintenance:
		reason := params.Reason
		if reason == "" {
			reason = enums.MaintenanceReasonDirect
		}
		row := models.MaintenanceLog{
			ID:        uuid.New(),
			ItemID:    params.ItemID,
			Quantity:  params.Quantity,
			Status:    enums.IncidentStatusOpen,
			Reason:    reason,
			EntryDate: params.EntryDate,
		}
		if err := db.Create(&row).Error; err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "opening maintenance incident")
		}
		incident := fromMaintenance(row)
		return &incident, nil

	case enums.ConditionDamaged:
		row := models.BrokenLog{
			ID:        uuid.New(),
			ItemID:    params.ItemID,
			Quantity:  params.Quantity,
			Status:    enums.IncidentStatusOpen,
			EntryDate: params.EntryDate,
		}
		if err := db.Create(&row).Error; err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "opening damage incident")
		}
		incident := fromBroken(row)
		return &incident, nil

	case enums.ConditionLost:
		row := models.LostLog{
			ID:        uuid.New(),
			ItemID:    params.ItemID,
			Quantity:  params.Quantity,
			Status:    enums.IncidentStatusOpen,
			EntryDate: params.EntryDate,
		}
		if err := db.Create(&row).Error; err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "opening loss incident")
		}
		incident := fromLost(row)
		return &incident, nil
	}
	return nil, unknownCondition(condition)
}

// Get loads a single incident by id from the condition's log.
func (r *Repository) Get(ctx context.Context, condition enums.Condition, id uuid.UUID) (*Incident, error) {
	db := r.db.WithContext(ctx)
	switch condition {
	case enums.ConditionMaintenance:
		var row models.MaintenanceLog
		if err := db.First(&row, "id = ?", id).Error; err != nil {
			return nil, notFoundOrDependency(err)
		}
		incident := fromMaintenance(row)
		return &incident, nil
	case enums.ConditionDamaged:
		var row models.BrokenLog
		if err := db.First(&row, "id = ?", id).Error; err != nil {
			return nil, notFoundOrDependency(err)
		}
		incident := fromBroken(row)
		return &incident, nil
	case enums.ConditionLost:
		var row models.LostLog
		if err := db.First(&row, "id = ?", id).Error; err != nil {
			return nil, notFoundOrDependency(err)
		}
		incident := fromLost(row)
		return &incident, nil
	}
	return nil, unknownCondition(condition)
}

// ListOpen returns the OPEN incidents for the item in entry order.
func (r *Repository) ListOpen(ctx context.Context, condition enums.Condition, itemID uuid.UUID) ([]Incident, error) {
	db := r.db.WithContext(ctx).
		Where("item_id = ? AND status = ?", itemID, enums.IncidentStatusOpen).
		Order("entry_date ASC").
		Order("created_at ASC")

	switch condition {
	case enums.ConditionMaintenance:
		var rows []models.MaintenanceLog
		if err := db.Find(&rows).Error; err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "listing open maintenance incidents")
		}
		out := make([]Incident, 0, len(rows))
		for _, row := range rows {
			out = append(out, fromMaintenance(row))
		}
		return out, nil
	case enums.ConditionDamaged:
		var rows []models.BrokenLog
		if err := db.Find(&rows).Error; err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "listing open damage incidents")
		}
		out := make([]Incident, 0, len(rows))
		for _, row := range rows {
			out = append(out, fromBroken(row))
		}
		return out, nil
	case enums.ConditionLost:
		var rows []models.LostLog
		if err := db.Find(&rows).Error; err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "listing open loss incidents")
		}
		out := make([]Incident, 0, len(rows))
		for _, row := range rows {
			out = append(out, fromLost(row))
		}
		return out, nil
	}
	return nil, unknownCondition(condition)
}

// SumOpen totals the OPEN quantities for the item in the condition's log.
func (r *Repository) SumOpen(ctx context.Context, condition enums.Condition, itemID uuid.UUID) (int, error) {
	table, err := tableFor(condition)
	if err != nil {
		return 0, err
	}
	var total int64
	err = r.db.WithContext(ctx).
		Table(table).
		Where("item_id = ? AND status = ?", itemID, enums.IncidentStatusOpen).
		Select("COALESCE(SUM(quantity), 0)").
		Scan(&total).Error
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "summing open incidents")
	}
	return int(total), nil
}

// List returns a cursor-paginated page of incident history, newest first.
// ItemID scopes the page to one item when set; Status filters to OPEN or
// CLOSED records when set.
func (r *Repository) List(ctx context.Context, condition enums.Condition, params ListParams) (pagination.Page[Incident], error) {
	var page pagination.Page[Incident]

	limit := pagination.NormalizeLimit(params.Page.Limit)
	cursor, err := pagination.ParseCursor(params.Page.Cursor)
	if err != nil {
		return page, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}

	db := r.db.WithContext(ctx).
		Order("created_at DESC").
		Order("id DESC").
		Limit(pagination.LimitWithBuffer(params.Page.Limit))
	if params.ItemID != uuid.Nil {
		db = db.Where("item_id = ?", params.ItemID)
	}
	if params.Status != nil {
		db = db.Where("status = ?", *params.Status)
	}
	if cursor != nil {
		db = db.Where("(created_at < ?) OR (created_at = ? AND id < ?)", cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}

	var rows []Incident
	switch condition {
	case enums.ConditionMaintenance:
		var records []models.MaintenanceLog
		if err := db.Find(&records).Error; err != nil {
			return page, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "listing maintenance incidents")
		}
		for _, record := range records {
			rows = append(rows, fromMaintenance(record))
		}
	case enums.ConditionDamaged:
		var records []models.BrokenLog
		if err := db.Find(&records).Error; err != nil {
			return page, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "listing damage incidents")
		}
		for _, record := range records {
			rows = append(rows, fromBroken(record))
		}
	case enums.ConditionLost:
		var records []models.LostLog
		if err := db.Find(&records).Error; err != nil {
			return page, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "listing loss incidents")
		}
		for _, record := range records {
			rows = append(rows, fromLost(record))
		}
	default:
		return page, unknownCondition(condition)
	}

	return pagination.BuildPage(rows, limit, func(incident Incident) pagination.Cursor {
		return pagination.Cursor{CreatedAt: incident.CreatedAt, ID: incident.ID}
	}), nil
}

// Close marks an OPEN incident CLOSED and stamps closed_at. A missing or
// already-CLOSED record fails with NotFound, leaving the row untouched.
func (r *Repository) Close(ctx context.Context, condition enums.Condition, id uuid.UUID, resolution *enums.LossResolution) (*Incident, error) {
	table, err := tableFor(condition)
	if err != nil {
		return nil, err
	}

	updates := map[string]any{
		"status":    enums.IncidentStatusClosed,
		"closed_at": time.Now(),
	}
	if condition == enums.ConditionLost && resolution != nil {
		updates["resolution"] = *resolution
	}

	res := r.db.WithContext(ctx).
		Table(table).
		Where("id = ? AND status = ?", id, enums.IncidentStatusOpen).
		Updates(updates)
	if res.Error != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "closing incident")
	}
	if res.RowsAffected == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "incident not found or already closed")
	}

	return r.Get(ctx, condition, id)
}

// Split resolves part of an OPEN incident: the original keeps the remainder
// and stays OPEN, and a new CLOSED record carries the resolved quantity with
// the same entry_date. The two quantities always sum to the original.
func (r *Repository) Split(ctx context.Context, condition enums.Condition, id uuid.UUID, resolvedQuantity int, resolution *enums.LossResolution) (*Incident, *Incident, error) {
	incident, err := r.Get(ctx, condition, id)
	if err != nil {
		return nil, nil, err
	}
	if incident.Status != enums.IncidentStatusOpen {
		return nil, nil, pkgerrors.New(pkgerrors.CodeNotFound, "incident not found or already closed")
	}
	if resolvedQuantity < 1 || resolvedQuantity >= incident.Quantity {
		return nil, nil, pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("resolved quantity must be between 1 and %d", incident.Quantity-1))
	}

	table, err := tableFor(condition)
	if err != nil {
		return nil, nil, err
	}

	res := r.db.WithContext(ctx).
		Table(table).
		Where("id = ? AND status = ? AND quantity = ?", id, enums.IncidentStatusOpen, incident.Quantity).
		Update("quantity", incident.Quantity-resolvedQuantity)
	if res.Error != nil {
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "reducing incident quantity")
	}
	if res.RowsAffected == 0 {
		return nil, nil, pkgerrors.New(pkgerrors.CodeConflict, "incident was modified concurrently, retry")
	}

	closedAt := time.Now()
	var resolved Incident
	switch condition {
	case enums.ConditionMaintenance:
		var reason enums.MaintenanceReason
		if incident.Reason != nil {
			reason = *incident.Reason
		}
		row := models.MaintenanceLog{
			ID:        uuid.New(),
			ItemID:    incident.ItemID,
			Quantity:  resolvedQuantity,
			Status:    enums.IncidentStatusClosed,
			Reason:    reason,
			EntryDate: incident.EntryDate,
			ClosedAt:  &closedAt,
		}
		if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
			return nil, nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "inserting resolved maintenance record")
		}
		resolved = fromMaintenance(row)
	case enums.ConditionDamaged:
		row := models.BrokenLog{
			ID:        uuid.New(),
			ItemID:    incident.ItemID,
			Quantity:  resolvedQuantity,
			Status:    enums.IncidentStatusClosed,
			EntryDate: incident.EntryDate,
			ClosedAt:  &closedAt,
		}
		if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
			return nil, nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "inserting resolved damage record")
		}
		resolved = fromBroken(row)
	case enums.ConditionLost:
		row := models.LostLog{
			ID:         uuid.New(),
			ItemID:     incident.ItemID,
			Quantity:   resolvedQuantity,
			Status:     enums.IncidentStatusClosed,
			Resolution: resolution,
			EntryDate:  incident.EntryDate,
			ClosedAt:   &closedAt,
		}
		if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
			return nil, nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "inserting resolved loss record")
		}
		resolved = fromLost(row)
	}

	remaining, err := r.Get(ctx, condition, id)
	if err != nil {
		return nil, nil, err
	}
	return remaining, &resolved, nil
}

func tableFor(condition enums.Condition) (string, error) {
	switch condition {
	case enums.ConditionMaintenance:
		return "maintenance_logs", nil
	case enums.ConditionDamaged:
		return "broken_logs", nil
	case enums.ConditionLost:
		return "lost_logs", nil
	}
	return "", unknownCondition(condition)
}

func unknownCondition(condition enums.Condition) error {
	return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown condition %q", condition))
}

func notFoundOrDependency(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "incident not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading incident")
}
