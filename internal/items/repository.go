package items

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
)

// Repository handles persistence for rental items and their counters.
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

// Get loads an item by ID.
func (r *Repository) Get(ctx context.Context, id uuid.UUID) (*models.Item, error) {
	var item models.Item
	if err := r.db.WithContext(ctx).First(&item, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "item not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading item")
	}
	return &item, nil
}

// List returns all items ordered by name.
func (r *Repository) List(ctx context.Context) ([]models.Item, error) {
	var items []models.Item
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&items).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "listing items")
	}
	return items, nil
}

// AdjustResult reports the outcome of a counter adjustment. Applied can be
// smaller in magnitude than Requested when the zero floor cut a decrement
// short; the difference is surfaced as Shortfall instead of being dropped.
type AdjustResult struct {
	Item      *models.Item
	Requested int
	Applied   int
	Shortfall int
}

// AdjustCounter moves the condition counter by delta inside the caller's
// transaction. The counter is floored at zero. The write carries an optimistic
// version check; a concurrent writer surfaces as a conflict error rather than
// a lost update.
func (r *Repository) AdjustCounter(ctx context.Context, itemID uuid.UUID, condition enums.Condition, delta int) (*AdjustResult, error) {
	column, err := counterColumn(condition)
	if err != nil {
		return nil, err
	}

	item, err := r.Get(ctx, itemID)
	if err != nil {
		return nil, err
	}

	current := item.CounterFor(condition)
	next := current + delta
	shortfall := 0
	if next < 0 {
		shortfall = -next
		next = 0
	}

	res := r.db.WithContext(ctx).Model(&models.Item{}).
		Where("id = ? AND version = ?", itemID, item.Version).
		Updates(map[string]any{
			column:       next,
			"version":    gorm.Expr("version + 1"),
			"updated_at": time.Now(),
		})
	if res.Error != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "adjusting counter")
	}
	if res.RowsAffected == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "item was modified concurrently, retry")
	}

	setCounter(item, condition, next)
	item.Version++

	return &AdjustResult{
		Item:      item,
		Requested: delta,
		Applied:   next - current,
		Shortfall: shortfall,
	}, nil
}

func counterColumn(condition enums.Condition) (string, error) {
	switch condition {
	case enums.ConditionMaintenance:
		return "maintenance_quantity", nil
	case enums.ConditionDamaged:
		return "damaged_quantity", nil
	case enums.ConditionLost:
		return "lost_quantity", nil
	}
	return "", pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown condition %q", condition))
}

func setCounter(item *models.Item, condition enums.Condition, value int) {
	switch condition {
	case enums.ConditionMaintenance:
		item.MaintenanceQuantity = value
	case enums.ConditionDamaged:
		item.DamagedQuantity = value
	case enums.ConditionLost:
		item.LostQuantity = value
	}
}
