package auth

import (
	"net/http"

	"github.com/shopboard/shopboard-backend/pkg/errors"
	"github.com/shopboard/shopboard-backend/pkg/httputil"
	"github.com/shopboard/shopboard-backend/pkg/principal"
)

// RequireRole allows the request through only when the principal holds
// one of the given roles. Runs after Authenticator.
func RequireRole(roles ...principal.Role) func(http.Handler) http.Handler {
	allowed := make(map[principal.Role]bool, len(roles))
	for _, role := range roles {
		allowed[role] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p := principal.FromContext(r.Context())
			if p == nil {
				httputil.Error(w, r, errors.AuthRequired("authentication required"))
				return
			}
			if !allowed[p.Role] {
				httputil.Error(w, r, errors.Forbidden("insufficient role for this operation"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
