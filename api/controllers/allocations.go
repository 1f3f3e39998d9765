package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/tapline/sugarhouse-backend/api/responses"
	"github.com/tapline/sugarhouse-backend/api/validators"
	allocsvc "github.com/tapline/sugarhouse-backend/internal/allocations"
	"github.com/tapline/sugarhouse-backend/pkg/enums"
	pkgerrors "github.com/tapline/sugarhouse-backend/pkg/errors"
	"github.com/tapline/sugarhouse-backend/pkg/logger"
	"github.com/tapline/sugarhouse-backend/pkg/pagination"
)

type createAllocationRequest struct {
	QuantityPerPerson int         `json:"quantity_per_person" validate:"required,min=1"`
	TargetType        string      `json:"target_type" validate:"required"`
	ClubCode          string      `json:"club_code"`
	MemberIDs         []uuid.UUID `json:"member_ids"`
	PullFromInventory bool        `json:"pull_from_inventory"`
}

// CreateAllocation handles the staff bulk-grant endpoint.
func CreateAllocation(svc allocsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "allocation service unavailable"))
			return
		}

		productID, err := urlParamUUID(r, "productID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload createAllocationRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		targetType, err := enums.ParseAllocationTargetType(payload.TargetType)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "target_type must be club or members"))
			return
		}

		record, err := svc.Create(r.Context(), allocsvc.CreateInput{
			ProductID:         productID,
			QuantityPerPerson: payload.QuantityPerPerson,
			TargetType:        targetType,
			ClubCode:          payload.ClubCode,
			MemberIDs:         payload.MemberIDs,
			PullFromInventory: payload.PullFromInventory,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, record)
	}
}

// ListAllocations returns a product's allocations newest first.
func ListAllocations(svc allocsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "allocation service unavailable"))
			return
		}

		productID, err := urlParamUUID(r, "productID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", 0, 0, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.List(r.Context(), productID, pagination.Params{
			Limit:  limit,
			Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}

func urlParamUUID(r *http.Request, name string) (uuid.UUID, error) {
	raw := chi.URLParam(r, name)
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid "+name).
			WithDetails(map[string]any{"field": name})
	}
	return id, nil
}
