package middleware

import (
	"net/http"

	"github.com/tapline/sugarhouse-backend/api/responses"
	"github.com/tapline/sugarhouse-backend/pkg/enums"
	pkgerrors "github.com/tapline/sugarhouse-backend/pkg/errors"
	"github.com/tapline/sugarhouse-backend/pkg/logger"
)

// RequireStaff gates pickup-station and allocation surfaces.
func RequireStaff(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role, err := enums.ParseMemberRole(RoleFromContext(r.Context()))
			if err != nil || !role.IsStaff() {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "staff role required"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
