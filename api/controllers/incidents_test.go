package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/locaops/rental-backend/internal/incidents"
	"github.com/locaops/rental-backend/internal/reconciliation"
	"github.com/locaops/rental-backend/pkg/db/models"
	"github.com/locaops/rental-backend/pkg/enums"
	pkgerrors "github.com/locaops/rental-backend/pkg/errors"
	"github.com/locaops/rental-backend/pkg/pagination"
	"github.com/locaops/rental-backend/pkg/types"
)

type fakeStockResolver struct {
	adjustCalls   int
	lastCondition enums.Condition
	lastQuantity  int
	resolveErr    error
	transferCalls int
}

func (f *fakeStockResolver) AdjustStock(_ context.Context, itemID uuid.UUID, condition enums.Condition, quantity int) (*reconciliation.AdjustStockResult, error) {
	f.adjustCalls++
	f.lastCondition = condition
	f.lastQuantity = quantity
	return &reconciliation.AdjustStockResult{
		Item:     &models.Item{ID: itemID, MaintenanceQuantity: quantity},
		Incident: &incidents.Incident{ID: uuid.New(), ItemID: itemID, Quantity: quantity, Status: enums.IncidentStatusOpen},
	}, nil
}

func (f *fakeStockResolver) Resolve(_ context.Context, condition enums.Condition, incidentID uuid.UUID, quantity int, resolution *enums.LossResolution) (*reconciliation.ResolveResult, error) {
	if f.resolveErr != nil {
		return nil, f.resolveErr
	}
	f.lastCondition = condition
	f.lastQuantity = quantity
	return &reconciliation.ResolveResult{
		Item:   &models.Item{},
		Closed: &incidents.Incident{ID: incidentID, Quantity: quantity, Status: enums.IncidentStatusClosed, Resolution: resolution},
	}, nil
}

func (f *fakeStockResolver) TransferToMaintenance(_ context.Context, incidentID uuid.UUID, quantity int) (*reconciliation.TransferResult, error) {
	f.transferCalls++
	f.lastQuantity = quantity
	return &reconciliation.TransferResult{
		Item:        &models.Item{},
		Closed:      &incidents.Incident{ID: incidentID, Status: enums.IncidentStatusClosed},
		Maintenance: &incidents.Incident{ID: uuid.New(), Quantity: quantity, Status: enums.IncidentStatusOpen},
	}, nil
}

type fakeIncidentLister struct {
	lastCondition enums.Condition
	lastParams    incidents.ListParams
	page          pagination.Page[incidents.Incident]
}

func (f *fakeIncidentLister) List(_ context.Context, condition enums.Condition, params incidents.ListParams) (pagination.Page[incidents.Incident], error) {
	f.lastCondition = condition
	f.lastParams = params
	return f.page, nil
}

func newIncidentRouter(resolver *fakeStockResolver, lister *fakeIncidentLister) http.Handler {
	r := chi.NewRouter()
	r.Post("/api/v1/items/{itemID}/stock/adjust", AdjustStock(resolver, nil))
	r.Get("/api/v1/incidents/{condition}", ListIncidents(lister, nil))
	r.Post("/api/v1/incidents/{condition}/{incidentID}/resolve", ResolveIncident(resolver, nil))
	r.Post("/api/v1/incidents/damaged/{incidentID}/transfer", TransferIncident(resolver, nil))
	return r
}

func TestAdjustStockHandler(t *testing.T) {
	resolver := &fakeStockResolver{}
	router := newIncidentRouter(resolver, &fakeIncidentLister{})

	body := `{"condition":"maintenance","quantity":3}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/items/"+uuid.NewString()+"/stock/adjust", strings.NewReader(body))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	if resolver.adjustCalls != 1 || resolver.lastCondition != enums.ConditionMaintenance || resolver.lastQuantity != 3 {
		t.Fatalf("unexpected resolver calls %+v", resolver)
	}
}

func TestAdjustStockHandlerRejectsBadPayloads(t *testing.T) {
	resolver := &fakeStockResolver{}
	router := newIncidentRouter(resolver, &fakeIncidentLister{})

	cases := map[string]string{
		"unknown condition": `{"condition":"vanished","quantity":3}`,
		"zero quantity":     `{"condition":"maintenance","quantity":0}`,
		"missing condition": `{"quantity":3}`,
		"unknown field":     `{"condition":"maintenance","quantity":3,"extra":true}`,
	}
	for name, body := range cases {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/items/"+uuid.NewString()+"/stock/adjust", strings.NewReader(body))
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", name, w.Code)
		}
	}
	if resolver.adjustCalls != 0 {
		t.Fatalf("resolver must not run on invalid input")
	}
}

func TestResolveIncidentHandlerPassesResolution(t *testing.T) {
	resolver := &fakeStockResolver{}
	router := newIncidentRouter(resolver, &fakeIncidentLister{})

	body := `{"quantity":1,"resolution":"FOUND"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/incidents/lost/"+uuid.NewString()+"/resolve", strings.NewReader(body))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if resolver.lastCondition != enums.ConditionLost {
		t.Fatalf("unexpected condition %s", resolver.lastCondition)
	}
	var envelope types.SuccessEnvelope
	if err := json.NewDecoder(w.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

func TestResolveIncidentHandlerMapsStateConflict(t *testing.T) {
	resolver := &fakeStockResolver{resolveErr: pkgerrors.New(pkgerrors.CodeStateConflict, "damage incidents are resolved by transfer to maintenance")}
	router := newIncidentRouter(resolver, &fakeIncidentLister{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/incidents/damaged/"+uuid.NewString()+"/resolve", strings.NewReader(`{"quantity":1}`))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", w.Code)
	}
}

func TestTransferIncidentHandler(t *testing.T) {
	resolver := &fakeStockResolver{}
	router := newIncidentRouter(resolver, &fakeIncidentLister{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/incidents/damaged/"+uuid.NewString()+"/transfer", strings.NewReader(`{"quantity":2}`))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if resolver.transferCalls != 1 || resolver.lastQuantity != 2 {
		t.Fatalf("unexpected resolver calls %+v", resolver)
	}
}

func TestListIncidentsHandlerParsesFilters(t *testing.T) {
	lister := &fakeIncidentLister{}
	router := newIncidentRouter(&fakeStockResolver{}, lister)

	itemID := uuid.New()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/incidents/maintenance?item_id="+itemID.String()+"&status=OPEN&limit=10", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if lister.lastCondition != enums.ConditionMaintenance {
		t.Fatalf("unexpected condition %s", lister.lastCondition)
	}
	if lister.lastParams.ItemID != itemID {
		t.Fatalf("item filter not forwarded")
	}
	if lister.lastParams.Status == nil || *lister.lastParams.Status != enums.IncidentStatusOpen {
		t.Fatalf("status filter not forwarded")
	}
	if lister.lastParams.Page.Limit != 10 {
		t.Fatalf("limit not forwarded, got %d", lister.lastParams.Page.Limit)
	}
}

func TestListIncidentsHandlerRejectsUnknownCondition(t *testing.T) {
	router := newIncidentRouter(&fakeStockResolver{}, &fakeIncidentLister{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/incidents/vanished", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}
