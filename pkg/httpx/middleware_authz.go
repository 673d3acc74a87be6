package httpx

import (
	"net/http"
	"slices"
)

// RequireRole admits callers whose token carries one of roles. It must run
// after AuthnMiddleware.
func RequireRole(roles ...string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			c, ok := ClaimsFromContext(r.Context())
			if !ok {
				writeBearerError(w, "missing bearer token")
				return
			}
			if !slices.Contains(roles, c.Role) {
				WriteError(w, http.StatusForbidden, "forbidden", "Insufficient role for this resource.")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
