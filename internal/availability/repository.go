package availability

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	pkgerrors "github.com/locaops/rental-backend/pkg/errors"
)

// Repository reads reservation rows owned by the booking subsystem. This
// service never writes them.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a read-only reservations repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// ReservedOn sums the reserved quantity for an item on the given date.
// A reservation holds capacity on every date of its inclusive
// [start_date, return_date] range while in a reserving status.
func (r *Repository) ReservedOn(ctx context.Context, itemID uuid.UUID, date time.Time) (int, error) {
	day := truncateToDay(date)
	var reserved int
	err := r.db.WithContext(ctx).
		Table("reservations").
		Select("COALESCE(SUM(quantity), 0)").
		Where("item_id = ?", itemID).
		Where("status IN ?", reservingStatusValues()).
		Where("start_date <= ? AND return_date >= ?", day, day).
		Scan(&reserved).Error
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "summing reservations")
	}
	return reserved, nil
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
