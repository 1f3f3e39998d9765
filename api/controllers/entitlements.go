package controllers

import (
	"net/http"

	"github.com/tapline/sugarhouse-backend/api/responses"
	entsvc "github.com/tapline/sugarhouse-backend/internal/entitlements"
	pkgerrors "github.com/tapline/sugarhouse-backend/pkg/errors"
	"github.com/tapline/sugarhouse-backend/pkg/logger"
)

// MemberEntitlements returns a member's entitlements split into ready and
// upcoming. The promotion sweep runs first so a release that just passed is
// reflected without waiting for the cron worker.
func MemberEntitlements(svc entsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "entitlement service unavailable"))
			return
		}

		memberID, err := urlParamUUID(r, "memberID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if _, err := svc.PromotePreorders(r.Context()); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.ForMember(r.Context(), memberID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}

// EntitlementPickup marks a ready entitlement as collected.
func EntitlementPickup(svc entsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "entitlement service unavailable"))
			return
		}

		id, err := urlParamUUID(r, "entitlementID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		record, err := svc.MarkPickedUp(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, record)
	}
}

// EntitlementUnpickup reverts an accidental pickup.
func EntitlementUnpickup(svc entsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "entitlement service unavailable"))
			return
		}

		id, err := urlParamUUID(r, "entitlementID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		record, err := svc.MarkNotPickedUp(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, record)
	}
}

// FulfillmentView lists collectible and collected entitlements for the staff
// pickup screen.
func FulfillmentView(svc entsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "entitlement service unavailable"))
			return
		}

		rows, err := svc.FulfillmentView(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, rows)
	}
}

// PromoteEntitlements triggers the promotion sweep on demand.
func PromoteEntitlements(svc entsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "entitlement service unavailable"))
			return
		}

		promoted, err := svc.PromotePreorders(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]int64{"promoted": promoted})
	}
}
