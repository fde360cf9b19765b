package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
)

type memoryStore struct {
	data map[string]string
}

func newMemoryStore() *memoryStore {
	return &memoryStore{data: map[string]string{}}
}

func (m *memoryStore) Get(_ context.Context, key string) (string, error) {
	return m.data[key], nil
}

func (m *memoryStore) SetNX(_ context.Context, key string, value any, _ time.Duration) (bool, error) {
	if _, ok := m.data[key]; ok {
		return false, nil
	}
	m.data[key] = value.(string)
	return true, nil
}

func (m *memoryStore) IdempotencyKey(scope, id string) string {
	return "test:idempotency:" + scope + ":" + id
}

func (m *memoryStore) Del(_ context.Context, keys ...string) error {
	for _, key := range keys {
		delete(m.data, key)
	}
	return nil
}

func newIdempotentRouter(store *memoryStore, hits *int) http.Handler {
	r := chi.NewRouter()
	r.Use(Idempotency(store, nil))
	r.Post("/api/v1/items/{id}/stock/adjust", func(w http.ResponseWriter, _ *http.Request) {
		*hits++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"ok":true}`))
	})
	return r
}

// newNestedRouter mirrors the production router layout, where the middleware
// is installed on the /api/v1 group before the nested subrouters resolve.
func newNestedRouter(store *memoryStore, hits *int) http.Handler {
	r := chi.NewRouter()
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(Idempotency(store, nil))
		r.Route("/items", func(r chi.Router) {
			r.Route("/{itemID}", func(r chi.Router) {
				r.Post("/stock/adjust", func(w http.ResponseWriter, _ *http.Request) {
					*hits++
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusCreated)
					_, _ = w.Write([]byte(`{"ok":true}`))
				})
			})
		})
	})
	return r
}

func TestIdempotencyEnforcedThroughNestedRouter(t *testing.T) {
	store := newMemoryStore()
	hits := 0
	router := newNestedRouter(store, &hits)

	missing := httptest.NewRequest(http.MethodPost, "/api/v1/items/abc/stock/adjust", strings.NewReader(`{"quantity":2}`))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, missing)

	if hits != 0 {
		t.Fatalf("handler must not run without the header, ran %d times", hits)
	}
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}

	send := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/items/abc/stock/adjust", strings.NewReader(`{"quantity":2}`))
		req.Header.Set("Idempotency-Key", "key-1")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec
	}

	first := send()
	second := send()

	if hits != 1 {
		t.Fatalf("expected handler to run once, ran %d times", hits)
	}
	if first.Code != http.StatusCreated || second.Code != http.StatusCreated {
		t.Fatalf("unexpected statuses %d, %d", first.Code, second.Code)
	}
	if first.Body.String() != second.Body.String() {
		t.Fatalf("replayed body differs: %q vs %q", first.Body.String(), second.Body.String())
	}
}

func TestIdempotencyReplaysStoredResponse(t *testing.T) {
	store := newMemoryStore()
	hits := 0
	router := newIdempotentRouter(store, &hits)

	send := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/items/abc/stock/adjust", strings.NewReader(`{"quantity":2}`))
		req.Header.Set("Idempotency-Key", "key-1")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	first := send()
	second := send()

	if hits != 1 {
		t.Fatalf("expected handler to run once, ran %d times", hits)
	}
	if first.Code != http.StatusCreated || second.Code != http.StatusCreated {
		t.Fatalf("unexpected statuses %d, %d", first.Code, second.Code)
	}
	if first.Body.String() != second.Body.String() {
		t.Fatalf("replayed body differs: %q vs %q", first.Body.String(), second.Body.String())
	}
}

func TestIdempotencyRejectsKeyReuseWithDifferentBody(t *testing.T) {
	store := newMemoryStore()
	hits := 0
	router := newIdempotentRouter(store, &hits)

	first := httptest.NewRequest(http.MethodPost, "/api/v1/items/abc/stock/adjust", strings.NewReader(`{"quantity":2}`))
	first.Header.Set("Idempotency-Key", "key-1")
	w1 := httptest.NewRecorder()
	router.ServeHTTP(w1, first)

	second := httptest.NewRequest(http.MethodPost, "/api/v1/items/abc/stock/adjust", strings.NewReader(`{"quantity":5}`))
	second.Header.Set("Idempotency-Key", "key-1")
	w2 := httptest.NewRecorder()
	router.ServeHTTP(w2, second)

	if hits != 1 {
		t.Fatalf("expected handler to run once, ran %d times", hits)
	}
	if w2.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", w2.Code)
	}
}

func TestIdempotencyRequiresHeaderOnMutatingRoutes(t *testing.T) {
	store := newMemoryStore()
	hits := 0
	router := newIdempotentRouter(store, &hits)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/items/abc/stock/adjust", strings.NewReader(`{}`))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if hits != 0 {
		t.Fatalf("handler must not run without the header")
	}
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}
