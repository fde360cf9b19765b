package controllers

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/locaops/rental-backend/api/responses"
	"github.com/locaops/rental-backend/api/validators"
	"github.com/locaops/rental-backend/internal/incidents"
	"github.com/locaops/rental-backend/internal/reconciliation"
	"github.com/locaops/rental-backend/pkg/enums"
	pkgerrors "github.com/locaops/rental-backend/pkg/errors"
	"github.com/locaops/rental-backend/pkg/logger"
	"github.com/locaops/rental-backend/pkg/pagination"
)

type incidentLister interface {
	List(ctx context.Context, condition enums.Condition, params incidents.ListParams) (pagination.Page[incidents.Incident], error)
}

type stockResolver interface {
	AdjustStock(ctx context.Context, itemID uuid.UUID, condition enums.Condition, quantity int) (*reconciliation.AdjustStockResult, error)
	Resolve(ctx context.Context, condition enums.Condition, incidentID uuid.UUID, quantity int, resolution *enums.LossResolution) (*reconciliation.ResolveResult, error)
	TransferToMaintenance(ctx context.Context, incidentID uuid.UUID, quantity int) (*reconciliation.TransferResult, error)
}

type adjustStockRequest struct {
	Condition string `json:"condition" validate:"required"`
	Quantity  int    `json:"quantity" validate:"required,min=1"`
}

type resolveIncidentRequest struct {
	Quantity   int    `json:"quantity" validate:"required,min=1"`
	Resolution string `json:"resolution,omitempty"`
}

type transferIncidentRequest struct {
	Quantity int `json:"quantity" validate:"required,min=1"`
}

func parseConditionParam(r *http.Request) (enums.Condition, error) {
	raw := chi.URLParam(r, "condition")
	condition, err := enums.ParseCondition(raw)
	if err != nil {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "unknown condition").WithDetails(map[string]any{"field": "condition"})
	}
	return condition, nil
}

// ListIncidents serves the per-condition incident history, newest first.
func ListIncidents(lister incidentLister, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		condition, err := parseConditionParam(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		params := incidents.ListParams{}
		if raw := strings.TrimSpace(r.URL.Query().Get("item_id")); raw != "" {
			itemID, parseErr := uuid.Parse(raw)
			if parseErr != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "item_id must be a UUID"))
				return
			}
			params.ItemID = itemID
		}
		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			status, parseErr := enums.ParseIncidentStatus(raw)
			if parseErr != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "unknown incident status"))
				return
			}
			params.Status = &status
		}
		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		params.Page = pagination.Params{
			Limit:  limit,
			Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
		}

		page, err := lister.List(ctx, condition, params)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{
			"incidents":   page.Rows,
			"next_cursor": page.NextCursor,
		})
	}
}

// AdjustStock reports units entering a tracked condition.
func AdjustStock(resolver stockResolver, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		itemID, err := parseUUIDParam(r, "itemID")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		var req adjustStockRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		condition, err := enums.ParseCondition(req.Condition)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "unknown condition").WithDetails(map[string]any{"field": "condition"}))
			return
		}

		result, err := resolver.AdjustStock(ctx, itemID, condition, req.Quantity)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}

// ResolveIncident closes an incident fully or splits off the resolved part.
func ResolveIncident(resolver stockResolver, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		condition, err := parseConditionParam(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		incidentID, err := parseUUIDParam(r, "incidentID")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		var req resolveIncidentRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var resolution *enums.LossResolution
		if req.Resolution != "" {
			parsed, parseErr := enums.ParseLossResolution(req.Resolution)
			if parseErr != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "unknown loss resolution").WithDetails(map[string]any{"field": "resolution"}))
				return
			}
			resolution = &parsed
		}

		result, err := resolver.Resolve(ctx, condition, incidentID, req.Quantity, resolution)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// TransferIncident moves damaged units into maintenance.
func TransferIncident(resolver stockResolver, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		incidentID, err := parseUUIDParam(r, "incidentID")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		var req transferIncidentRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		result, err := resolver.TransferToMaintenance(ctx, incidentID, req.Quantity)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}
