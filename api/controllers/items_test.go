package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/locaops/rental-backend/internal/availability"
	"github.com/locaops/rental-backend/internal/items"
	pkgerrors "github.com/locaops/rental-backend/pkg/errors"
	"github.com/locaops/rental-backend/pkg/types"
)

type fakeItemService struct {
	item *items.ItemDTO
}

func (f *fakeItemService) GetItem(_ context.Context, id uuid.UUID) (*items.ItemDTO, error) {
	if f.item == nil || f.item.ID != id {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "item not found")
	}
	return f.item, nil
}

func (f *fakeItemService) ListItems(context.Context) ([]items.ItemDTO, error) {
	if f.item == nil {
		return nil, nil
	}
	return []items.ItemDTO{*f.item}, nil
}

type fakeAvailabilityService struct {
	lastDate time.Time
	result   *availability.Availability
}

func (f *fakeAvailabilityService) AvailableOn(_ context.Context, itemID uuid.UUID, date time.Time) (*availability.Availability, error) {
	f.lastDate = date
	if f.result == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "item not found")
	}
	result := *f.result
	result.ItemID = itemID
	return &result, nil
}

func newItemRouter(itemSvc items.Service, availSvc availability.Service) http.Handler {
	r := chi.NewRouter()
	r.Get("/api/v1/items", ListItems(itemSvc, nil))
	r.Get("/api/v1/items/{itemID}", GetItem(itemSvc, nil))
	r.Get("/api/v1/items/{itemID}/availability", ItemAvailability(availSvc, nil))
	return r
}

func TestGetItemHandler(t *testing.T) {
	dto := &items.ItemDTO{ID: uuid.New(), Name: "Canopy", TotalQuantity: 5, NetCapacity: 5}
	router := newItemRouter(&fakeItemService{item: dto}, &fakeAvailabilityService{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/items/"+dto.ID.String(), nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var envelope types.SuccessEnvelope
	if err := json.NewDecoder(w.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	payload := envelope.Data.(map[string]any)
	if payload["name"] != "Canopy" {
		t.Fatalf("unexpected payload %v", payload)
	}
}

func TestGetItemHandlerRejectsBadUUID(t *testing.T) {
	router := newItemRouter(&fakeItemService{}, &fakeAvailabilityService{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/items/not-a-uuid", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestItemAvailabilityHandler(t *testing.T) {
	availSvc := &fakeAvailabilityService{result: &availability.Availability{NetCapacity: 6, Reserved: 4, Raw: 2, Display: 2}}
	router := newItemRouter(&fakeItemService{}, availSvc)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/items/"+uuid.NewString()+"/availability?date=2026-08-11", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if got := availSvc.lastDate.Format("2006-01-02"); got != "2026-08-11" {
		t.Fatalf("date not forwarded, got %s", got)
	}
}

func TestItemAvailabilityHandlerRequiresDate(t *testing.T) {
	router := newItemRouter(&fakeItemService{}, &fakeAvailabilityService{})

	for _, query := range []string{"", "?date=11-08-2026"} {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/items/"+uuid.NewString()+"/availability"+query, nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("query %q: expected 400, got %d", query, w.Code)
		}
	}
}
