package items

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/locaops/rental-backend/pkg/db/models"
	"github.com/locaops/rental-backend/pkg/enums"
	pkgerrors "github.com/locaops/rental-backend/pkg/errors"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:items_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	schema := `
CREATE TABLE IF NOT EXISTS items (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  description TEXT,
  total_quantity INTEGER NOT NULL DEFAULT 0,
  maintenance_quantity INTEGER NOT NULL DEFAULT 0,
  damaged_quantity INTEGER NOT NULL DEFAULT 0,
  lost_quantity INTEGER NOT NULL DEFAULT 0,
  daily_price NUMERIC NOT NULL DEFAULT 0,
  damage_fine NUMERIC NOT NULL DEFAULT 0,
  lost_fine NUMERIC NOT NULL DEFAULT 0,
  version INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME,
  updated_at DATETIME
);`
	if err := db.Exec(schema).Error; err != nil {
		t.Fatalf("create schema: %v", err)
	}
	return db
}

func mustCreateTestItem(t *testing.T, db *gorm.DB, total, maintenance, damaged, lost int) *models.Item {
	t.Helper()
	item := &models.Item{
		ID:                  uuid.New(),
		Name:                "Projector",
		TotalQuantity:       total,
		MaintenanceQuantity: maintenance,
		DamagedQuantity:     damaged,
		LostQuantity:        lost,
	}
	if err := db.Create(item).Error; err != nil {
		t.Fatalf("create item: %v", err)
	}
	return item
}

func TestGetNotFound(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	repo := NewRepository(db)

	_, err := repo.Get(context.Background(), uuid.New())
	if err == nil {
		t.Fatal("expected error")
	}
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestAdjustCounterIncrement(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	item := mustCreateTestItem(t, db, 10, 0, 0, 0)

	result, err := repo.AdjustCounter(ctx, item.ID, enums.ConditionMaintenance, 3)
	if err != nil {
		t.Fatalf("adjust counter: %v", err)
	}
	if result.Applied != 3 || result.Shortfall != 0 {
		t.Fatalf("unexpected result %+v", result)
	}
	if result.Item.MaintenanceQuantity != 3 {
		t.Fatalf("expected counter 3, got %d", result.Item.MaintenanceQuantity)
	}
	if result.Item.Version != item.Version+1 {
		t.Fatalf("expected version bump, got %d", result.Item.Version)
	}

	stored, err := repo.Get(ctx, item.ID)
	if err != nil {
		t.Fatalf("reload item: %v", err)
	}
	if stored.MaintenanceQuantity != 3 || stored.Version != item.Version+1 {
		t.Fatalf("stored state mismatch: counter=%d version=%d", stored.MaintenanceQuantity, stored.Version)
	}
}

func TestAdjustCounterClampReportsShortfall(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	item := mustCreateTestItem(t, db, 10, 0, 2, 0)

	result, err := repo.AdjustCounter(ctx, item.ID, enums.ConditionDamaged, -5)
	if err != nil {
		t.Fatalf("adjust counter: %v", err)
	}
	if result.Item.DamagedQuantity != 0 {
		t.Fatalf("expected floor at zero, got %d", result.Item.DamagedQuantity)
	}
	if result.Shortfall != 3 {
		t.Fatalf("expected shortfall 3, got %d", result.Shortfall)
	}
	if result.Applied != -2 {
		t.Fatalf("expected applied -2, got %d", result.Applied)
	}
}

func TestAdjustCounterVersionIncrementsPerWrite(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	item := mustCreateTestItem(t, db, 10, 0, 0, 0)

	for i := 1; i <= 3; i++ {
		result, err := repo.AdjustCounter(ctx, item.ID, enums.ConditionLost, 1)
		if err != nil {
			t.Fatalf("adjust %d: %v", i, err)
		}
		if result.Item.Version != i {
			t.Fatalf("expected version %d, got %d", i, result.Item.Version)
		}
	}
}

func TestAdjustCounterUnknownCondition(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	repo := NewRepository(db)
	item := mustCreateTestItem(t, db, 10, 0, 0, 0)

	_, err := repo.AdjustCounter(context.Background(), item.ID, enums.Condition("rented"), 1)
	if err == nil {
		t.Fatal("expected validation error")
	}
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestListOrdersByName(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	for _, name := range []string{"Tent", "Chair", "Mixer"} {
		item := &models.Item{ID: uuid.New(), Name: name, TotalQuantity: 1}
		if err := db.Create(item).Error; err != nil {
			t.Fatalf("create item: %v", err)
		}
	}

	items, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("list items: %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("expected 3 items, got %d", len(items))
	}
	if items[0].Name != "Chair" || items[2].Name != "Tent" {
		t.Fatalf("unexpected order: %s, %s, %s", items[0].Name, items[1].Name, items[2].Name)
	}
}
