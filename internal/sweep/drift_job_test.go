package sweep

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/multierr"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/locaops/rental-backend/internal/incidents"
	"github.com/locaops/rental-backend/internal/items"
	"github.com/locaops/rental-backend/internal/reconciliation"
	"github.com/locaops/rental-backend/pkg/db/models"
	"github.com/locaops/rental-backend/pkg/enums"
	"github.com/locaops/rental-backend/pkg/metrics"
	"github.com/locaops/rental-backend/pkg/outbox/payloads"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:sweep_" + uuid.NewString() + "?mode=memory&cache=shared"
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
		`CREATE TABLE IF NOT EXISTS maintenance_logs (
  id TEXT PRIMARY KEY,
  item_id TEXT NOT NULL,
  quantity INTEGER NOT NULL,
  status TEXT NOT NULL DEFAULT 'OPEN',
  reason TEXT NOT NULL DEFAULT 'DIRECT',
  entry_date DATETIME NOT NULL,
  closed_at DATETIME,
  created_at DATETIME
);`,
		`CREATE TABLE IF NOT EXISTS broken_logs (
  id TEXT PRIMARY KEY,
  item_id TEXT NOT NULL,
  quantity INTEGER NOT NULL,
  status TEXT NOT NULL DEFAULT 'OPEN',
  entry_date DATETIME NOT NULL,
  closed_at DATETIME,
  created_at DATETIME
);`,
		`CREATE TABLE IF NOT EXISTS lost_logs (
  id TEXT PRIMARY KEY,
  item_id TEXT NOT NULL,
  quantity INTEGER NOT NULL,
  status TEXT NOT NULL DEFAULT 'OPEN',
  resolution TEXT,
  entry_date DATETIME NOT NULL,
  closed_at DATETIME,
  created_at DATETIME
);`,
	} {
		if err := db.Exec(schema).Error; err != nil {
			t.Fatalf("create schema: %v", err)
		}
	}
	return db
}

func mustCreateDriftedItem(t *testing.T, db *gorm.DB, maintenance, lost int) *models.Item {
	t.Helper()
	item := &models.Item{
		ID:                  uuid.New(),
		Name:                "Tent",
		TotalQuantity:       20,
		MaintenanceQuantity: maintenance,
		LostQuantity:        lost,
	}
	if err := db.Create(item).Error; err != nil {
		t.Fatalf("create item: %v", err)
	}
	return item
}

type fakeDriftAlerter struct {
	events []payloads.StockDriftDetectedEvent
	err    error
}

func (f *fakeDriftAlerter) EmitStockDrift(_ context.Context, _ *gorm.DB, event payloads.StockDriftDetectedEvent) error {
	if f.err != nil {
		return f.err
	}
	f.events = append(f.events, event)
	return nil
}

func TestDriftJobReportsGhosts(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	detector, err := reconciliation.NewDetector(items.NewRepository(db), incidents.NewRepository(db))
	if err != nil {
		t.Fatalf("new detector: %v", err)
	}

	// one item drifted on two conditions, one clean
	drifted := mustCreateDriftedItem(t, db, 3, 1)
	mustCreateDriftedItem(t, db, 0, 0)
	incidentRepo := incidents.NewRepository(db)
	if _, err := incidentRepo.Open(context.Background(), enums.ConditionMaintenance, incidents.OpenParams{ItemID: drifted.ID, Quantity: 1}); err != nil {
		t.Fatalf("open incident: %v", err)
	}

	registry := prometheus.NewRegistry()
	sweepMetrics := metrics.NewSweepMetrics(registry)
	alerter := &fakeDriftAlerter{}
	job, err := NewDriftJob(DriftJobParams{
		DB:       db,
		Detector: detector,
		Alerts:   alerter,
		Metrics:  sweepMetrics,
	})
	if err != nil {
		t.Fatalf("new drift job: %v", err)
	}

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(alerter.events) != 2 {
		t.Fatalf("expected 2 drift alerts, got %d", len(alerter.events))
	}
	byCondition := map[enums.Condition]payloads.StockDriftDetectedEvent{}
	for _, event := range alerter.events {
		byCondition[event.Condition] = event
	}
	if got := byCondition[enums.ConditionMaintenance]; got.Ghost != 2 || got.CounterQty != 3 || got.OpenLogQty != 1 {
		t.Fatalf("unexpected maintenance alert %+v", got)
	}
	if got := byCondition[enums.ConditionLost]; got.Ghost != 1 || got.CounterQty != 1 {
		t.Fatalf("unexpected lost alert %+v", got)
	}

	families, err := registry.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	found := false
	for _, family := range families {
		if strings.HasSuffix(family.GetName(), "stock_drift_detected_total") {
			found = true
		}
	}
	if !found {
		t.Fatal("expected drift counter to be registered")
	}
}

func TestDriftJobContinuesPastAlertFailure(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	detector, err := reconciliation.NewDetector(items.NewRepository(db), incidents.NewRepository(db))
	if err != nil {
		t.Fatalf("new detector: %v", err)
	}
	mustCreateDriftedItem(t, db, 2, 1)

	alerter := &fakeDriftAlerter{err: context.DeadlineExceeded}
	job, err := NewDriftJob(DriftJobParams{DB: db, Detector: detector, Alerts: alerter})
	if err != nil {
		t.Fatalf("new drift job: %v", err)
	}

	runErr := job.Run(context.Background())
	if runErr == nil {
		t.Fatal("expected alert errors to propagate")
	}
	// both the maintenance and the lost ghost failed to queue
	if combined := multierr.Errors(runErr); len(combined) != 2 {
		t.Fatalf("expected 2 combined errors, got %d: %v", len(combined), runErr)
	}
}
