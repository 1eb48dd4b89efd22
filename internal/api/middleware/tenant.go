package middleware

import (
	"context"
	"net/http"

	"github.com/canopy-labs/knowledgebot/internal/api"
)

type contextKey string

const TenantIDKey contextKey = "tenant_id"

// TenantHeader is the request header that scopes a request to a tenant.
const TenantHeader = "X-Tenant-ID"

// RequireTenant extracts the tenant id from the request header and stores it
// in the context. Requests without a tenant are rejected.
func RequireTenant(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tenantID := r.Header.Get(TenantHeader)
		if tenantID == "" {
			api.Error(w, http.StatusBadRequest, "missing "+TenantHeader+" header")
			return
		}

		ctx := context.WithValue(r.Context(), TenantIDKey, tenantID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetTenantID returns the tenant ID from context.
func GetTenantID(ctx context.Context) string {
	tenantID, _ := ctx.Value(TenantIDKey).(string)
	return tenantID
}
