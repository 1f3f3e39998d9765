package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/tapline/sugarhouse-backend/api/middleware"
	"github.com/tapline/sugarhouse-backend/api/responses"
	"github.com/tapline/sugarhouse-backend/api/validators"
	checkoutsvc "github.com/tapline/sugarhouse-backend/internal/checkout"
	pkgerrors "github.com/tapline/sugarhouse-backend/pkg/errors"
	"github.com/tapline/sugarhouse-backend/pkg/logger"
)

type quoteCartRequest struct {
	Items []struct {
		ProductID uuid.UUID `json:"product_id" validate:"required"`
		Quantity  int       `json:"quantity"`
	} `json:"items" validate:"required"`
	MembershipOfferingID *uuid.UUID `json:"membership_offering_id"`
	TipCents             int        `json:"tip_cents" validate:"min=0"`
}

// CheckoutQuote computes the chargeable total for the caller's cart.
func CheckoutQuote(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		userID, err := callerID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload quoteCartRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items := make([]checkoutsvc.QuoteItem, 0, len(payload.Items))
		for _, item := range payload.Items {
			items = append(items, checkoutsvc.QuoteItem{ProductID: item.ProductID, Quantity: item.Quantity})
		}

		quote, err := svc.QuoteCart(r.Context(), checkoutsvc.QuoteInput{
			UserID:               userID,
			Items:                items,
			MembershipOfferingID: payload.MembershipOfferingID,
			TipCents:             payload.TipCents,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, quote)
	}
}

func callerID(r *http.Request) (uuid.UUID, error) {
	raw := middleware.UserIDFromContext(r.Context())
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid user id")
	}
	return id, nil
}
