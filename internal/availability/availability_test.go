package availability

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/locaops/rental-backend/internal/items"
	"github.com/locaops/rental-backend/pkg/db/models"
	"github.com/locaops/rental-backend/pkg/enums"
	"github.com/locaops/rental-backend/pkg/outbox/payloads"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:availability_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	for _, schema := range []string{
		`CREATE TABLE IF NOT EXISTS items (
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
);`,
		`CREATE TABLE IF NOT EXISTS reservations (
  id TEXT PRIMARY KEY,
  item_id TEXT NOT NULL,
  quantity INTEGER NOT NULL,
  status TEXT NOT NULL,
  start_date DATETIME NOT NULL,
  return_date DATETIME NOT NULL,
  created_at DATETIME
);`,
	} {
		if err := db.Exec(schema).Error; err != nil {
			t.Fatalf("create schema: %v", err)
		}
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

func mustCreateReservation(t *testing.T, db *gorm.DB, itemID uuid.UUID, quantity int, status enums.ReservationStatus, start, ret time.Time) {
	t.Helper()
	res := &models.Reservation{
		ID:         uuid.New(),
		ItemID:     itemID,
		Quantity:   quantity,
		Status:     status,
		StartDate:  start,
		ReturnDate: ret,
	}
	if err := db.Create(res).Error; err != nil {
		t.Fatalf("create reservation: %v", err)
	}
}

func newTestService(t *testing.T, db *gorm.DB, alerter overbookingAlerter) Service {
	t.Helper()
	svc, err := NewService(db, items.NewRepository(db), NewRepository(db), alerter, nil)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

type fakeOverbookingAlerter struct {
	events []payloads.OverbookingConflictEvent
}

func (f *fakeOverbookingAlerter) EmitOverbooking(_ context.Context, _ *gorm.DB, event payloads.OverbookingConflictEvent) error {
	f.events = append(f.events, event)
	return nil
}

func day(value string) time.Time {
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		panic(err)
	}
	return t
}

func TestReservedOnSumsOnlyReservingStatuses(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	item := mustCreateTestItem(t, db, 10, 0, 0, 0)

	mustCreateReservation(t, db, item.ID, 2, enums.ReservationStatusActive, day("2026-08-10"), day("2026-08-12"))
	mustCreateReservation(t, db, item.ID, 1, enums.ReservationStatusPending, day("2026-08-11"), day("2026-08-11"))
	mustCreateReservation(t, db, item.ID, 4, enums.ReservationStatusCompleted, day("2026-08-10"), day("2026-08-12"))
	mustCreateReservation(t, db, item.ID, 4, enums.ReservationStatusCanceled, day("2026-08-10"), day("2026-08-12"))

	reserved, err := repo.ReservedOn(ctx, item.ID, day("2026-08-11"))
	if err != nil {
		t.Fatalf("reserved on: %v", err)
	}
	if reserved != 3 {
		t.Fatalf("expected 3 reserved, got %d", reserved)
	}
}

func TestReservedOnRangeIsInclusive(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	item := mustCreateTestItem(t, db, 10, 0, 0, 0)

	mustCreateReservation(t, db, item.ID, 2, enums.ReservationStatusConfirmed, day("2026-08-10"), day("2026-08-12"))

	cases := map[string]int{
		"2026-08-09": 0,
		"2026-08-10": 2,
		"2026-08-12": 2,
		"2026-08-13": 0,
	}
	for date, want := range cases {
		got, err := repo.ReservedOn(ctx, item.ID, day(date))
		if err != nil {
			t.Fatalf("reserved on %s: %v", date, err)
		}
		if got != want {
			t.Fatalf("date %s: expected %d, got %d", date, want, got)
		}
	}
}

func TestAvailableOn(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	svc := newTestService(t, db, nil)
	ctx := context.Background()

	// net capacity 10 - 2 - 1 - 1 = 6
	item := mustCreateTestItem(t, db, 10, 2, 1, 1)
	mustCreateReservation(t, db, item.ID, 4, enums.ReservationStatusActive, day("2026-08-10"), day("2026-08-12"))

	av, err := svc.AvailableOn(ctx, item.ID, day("2026-08-11"))
	if err != nil {
		t.Fatalf("available on: %v", err)
	}
	if av.NetCapacity != 6 || av.Reserved != 4 {
		t.Fatalf("unexpected availability %+v", av)
	}
	if av.Raw != 2 || av.Display != 2 || av.Conflict {
		t.Fatalf("unexpected availability %+v", av)
	}
}

func TestAvailableOnOverbookingConflict(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	alerter := &fakeOverbookingAlerter{}
	svc := newTestService(t, db, alerter)
	ctx := context.Background()

	// net capacity 10 - 2 - 1 = 7, reserved 8 -> raw -1
	item := mustCreateTestItem(t, db, 10, 2, 1, 0)
	mustCreateReservation(t, db, item.ID, 8, enums.ReservationStatusConfirmed, day("2026-08-10"), day("2026-08-12"))

	av, err := svc.AvailableOn(ctx, item.ID, day("2026-08-11"))
	if err != nil {
		t.Fatalf("available on: %v", err)
	}
	if av.Raw != -1 {
		t.Fatalf("expected raw -1, got %d", av.Raw)
	}
	if av.Display != 0 {
		t.Fatalf("expected display clamped to 0, got %d", av.Display)
	}
	if !av.Conflict {
		t.Fatal("expected conflict flag")
	}
	if len(alerter.events) != 1 {
		t.Fatalf("expected 1 overbooking alert, got %d", len(alerter.events))
	}
	event := alerter.events[0]
	if event.Shortfall != 1 || event.Reserved != 8 || event.Usable != 7 {
		t.Fatalf("unexpected alert %+v", event)
	}
}

func TestAvailableOnUnknownItem(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	svc := newTestService(t, db, nil)

	if _, err := svc.AvailableOn(context.Background(), uuid.New(), day("2026-08-11")); err == nil {
		t.Fatal("expected not-found error")
	}
}
