package auth

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/shopboard/shopboard-backend/pkg/errors"
	"github.com/shopboard/shopboard-backend/pkg/httputil"
	"github.com/shopboard/shopboard-backend/pkg/principal"
	"github.com/shopboard/shopboard-backend/pkg/tenant"
)

const (
	// AccessTokenCookie is the cookie browsers carry the access token in.
	AccessTokenCookie = "access_token"

	// CSRFCookie and CSRFHeader implement the double-submit check for
	// cookie-borne credentials.
	CSRFCookie = "csrf_token"
	CSRFHeader = "X-CSRF-Token"

	// TenantHeader names the tenant a request addresses.
	TenantHeader = "X-Tenant-Id"
)

// Authenticator validates the request credential and attaches the
// principal to the context. The credential is read from the
// Authorization header first; browsers may send it in the access_token
// cookie instead.
//
// Cookie-borne credentials on state-changing methods must also pass the
// double-submit CSRF check. Header-borne credentials are exempt: a
// cross-site attacker cannot set the Authorization header.
func (m *Manager) Authenticator(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenString, fromCookie := extractToken(r)
		if tokenString == "" {
			httputil.Error(w, r, errors.AuthRequired("authentication required"))
			return
		}

		claims, err := m.ValidateAccessToken(tokenString)
		if err != nil {
			httputil.Error(w, r, err)
			return
		}

		p := claims.Principal()
		if !principal.KnownRole(p.Role) {
			httputil.Error(w, r, errors.Forbidden("role is not recognized"))
			return
		}

		if fromCookie && isStateChanging(r.Method) {
			if err := checkCSRF(r); err != nil {
				httputil.Error(w, r, err)
				return
			}
		}

		ctx := principal.WithPrincipal(r.Context(), p)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// extractToken reads the credential, reporting whether it arrived via
// cookie.
func extractToken(r *http.Request) (token string, fromCookie bool) {
	header := r.Header.Get("Authorization")
	if header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1]), false
		}
		return "", false
	}

	cookie, err := r.Cookie(AccessTokenCookie)
	if err != nil || cookie.Value == "" {
		return "", false
	}
	return cookie.Value, true
}

func isStateChanging(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}

func checkCSRF(r *http.Request) error {
	headerToken := r.Header.Get(CSRFHeader)
	cookie, err := r.Cookie(CSRFCookie)
	if headerToken == "" || err != nil || cookie.Value == "" {
		return errors.Forbidden("missing CSRF token")
	}
	if subtle.ConstantTimeCompare([]byte(headerToken), []byte(cookie.Value)) != 1 {
		return errors.Forbidden("CSRF token mismatch")
	}
	return nil
}

// ResolveTenant binds the request's tenant to the context. The tenant
// comes from the X-Tenant-Id header and must agree with the
// authenticated principal's tenant affinity. Runs after Authenticator.
func ResolveTenant(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p := principal.FromContext(r.Context())
		if p == nil {
			httputil.Error(w, r, errors.AuthRequired("authentication required"))
			return
		}

		tenantID := r.Header.Get(TenantHeader)
		if tenantID == "" {
			tenantID = p.TenantID
		}
		if tenantID == "" {
			httputil.Error(w, r, errors.MissingTenant())
			return
		}
		if !tenant.ValidID(tenantID) {
			httputil.Error(w, r, errors.InvalidTenant())
			return
		}
		if p.TenantID != "" && p.TenantID != tenantID {
			httputil.Error(w, r, errors.TenantMismatch())
			return
		}

		ctx := tenant.WithID(r.Context(), tenantID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
