package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/tapline/sugarhouse-backend/pkg/enums"
)

func TestRequireStaffAllowsStaffAndAdmin(t *testing.T) {
	for _, role := range []enums.MemberRole{enums.MemberRoleStaff, enums.MemberRoleAdmin} {
		handler := RequireStaff(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req = req.WithContext(WithRole(req.Context(), string(role)))
		resp := httptest.NewRecorder()
		handler.ServeHTTP(resp, req)
		if resp.Code != http.StatusOK {
			t.Fatalf("role %s: expected 200 got %d", role, resp.Code)
		}
	}
}

func TestRequireStaffRejectsMember(t *testing.T) {
	handler := RequireStaff(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(WithRole(req.Context(), string(enums.MemberRoleMember)))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 got %d", resp.Code)
	}
}

func TestRequireStaffRejectsMissingRole(t *testing.T) {
	handler := RequireStaff(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 got %d", resp.Code)
	}
}
