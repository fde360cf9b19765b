package items

import (
	"context"
	"testing"

	"github.com/google/uuid"
)

func TestGetItemIncludesNetCapacity(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	repo := NewRepository(db)
	svc, err := NewService(repo)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	item := mustCreateTestItem(t, db, 10, 2, 1, 1)

	dto, err := svc.GetItem(context.Background(), item.ID)
	if err != nil {
		t.Fatalf("get item: %v", err)
	}
	if dto.NetCapacity != 6 {
		t.Fatalf("expected net capacity 6, got %d", dto.NetCapacity)
	}
	if dto.TotalQuantity != 10 || dto.MaintenanceQuantity != 2 {
		t.Fatalf("unexpected counters %+v", dto)
	}
}

func TestListItems(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	repo := NewRepository(db)
	svc, err := NewService(repo)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	mustCreateTestItem(t, db, 4, 0, 0, 0)
	mustCreateTestItem(t, db, 2, 1, 0, 0)

	dtos, err := svc.ListItems(context.Background())
	if err != nil {
		t.Fatalf("list items: %v", err)
	}
	if len(dtos) != 2 {
		t.Fatalf("expected 2 items, got %d", len(dtos))
	}
	if _, err := svc.GetItem(context.Background(), uuid.New()); err == nil {
		t.Fatal("expected not found for unknown id")
	}
}
