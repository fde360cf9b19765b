package controllers

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/locaops/rental-backend/api/responses"
	"github.com/locaops/rental-backend/api/validators"
	"github.com/locaops/rental-backend/internal/incidents"
	"github.com/locaops/rental-backend/internal/reconciliation"
	"github.com/locaops/rental-backend/pkg/db/models"
	"github.com/locaops/rental-backend/pkg/enums"
	"github.com/locaops/rental-backend/pkg/logger"
)

type ghostDetector interface {
	ListGhosts(ctx context.Context) ([]reconciliation.Ghost, error)
	GhostsForItem(ctx context.Context, itemID uuid.UUID) ([]reconciliation.Ghost, error)
}

type ghostResolver interface {
	Materialize(ctx context.Context, itemID uuid.UUID, condition enums.Condition) (*incidents.Incident, error)
	ResolveGhost(ctx context.Context, itemID uuid.UUID, condition enums.Condition, quantity int) (*models.Item, error)
}

type resolveGhostRequest struct {
	Quantity int `json:"quantity" validate:"required,min=1"`
}

// ListGhosts reports counter/log drift across the whole catalog.
func ListGhosts(detector ghostDetector, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		ghosts, err := detector.ListGhosts(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"ghosts": ghosts})
	}
}

// ItemGhosts reports drift for a single item.
func ItemGhosts(detector ghostDetector, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		itemID, err := parseUUIDParam(r, "itemID")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		ghosts, err := detector.GhostsForItem(ctx, itemID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"ghosts": ghosts})
	}
}

// SyncGhost backfills an incident record covering the full ghost quantity.
func SyncGhost(resolver ghostResolver, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		itemID, err := parseUUIDParam(r, "itemID")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		condition, err := parseConditionParam(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		incident, err := resolver.Materialize(ctx, itemID, condition)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, incident)
	}
}

// ResolveGhost writes the counter down toward its open-log total.
func ResolveGhost(resolver ghostResolver, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		itemID, err := parseUUIDParam(r, "itemID")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		condition, err := parseConditionParam(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		var req resolveGhostRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		item, err := resolver.ResolveGhost(ctx, itemID, condition, req.Quantity)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, item)
	}
}
