package controllers

import (
	"net/http"

	"github.com/tapline/sugarhouse-backend/api/responses"
	"github.com/tapline/sugarhouse-backend/internal/catalog"
	pkgerrors "github.com/tapline/sugarhouse-backend/pkg/errors"
	"github.com/tapline/sugarhouse-backend/pkg/logger"
)

// ListClubs exposes the club directory.
func ListClubs(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		clubs, err := svc.ListClubs(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, clubs)
	}
}
