package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"codefolio/internal/auth"
	"codefolio/internal/httputil"
)

// Authenticate attaches the caller's principal when a bearer token is present.
// Requests without a token pass through anonymously; a bad token is rejected.
func Authenticate(verifier auth.TokenVerifier, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				next.ServeHTTP(w, r)
				return
			}

			claims, err := verifier.VerifyToken(token)
			if err != nil {
				logger.Debug("rejected bearer token", "path", r.URL.Path, "error", err)
				httputil.RespondError(w, http.StatusUnauthorized, "invalid or expired token")
				return
			}

			next.ServeHTTP(w, httputil.WithPrincipal(r, claims.Principal()))
		})
	}
}

// RequireAdmin guards write routes: anonymous callers get 401, non-admins 403.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, ok := httputil.GetPrincipal(r)
		if !ok {
			httputil.RespondError(w, http.StatusUnauthorized, "authentication required")
			return
		}
		if !p.IsAdmin {
			httputil.RespondError(w, http.StatusForbidden, "admin access required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// bearerToken extracts the token from "Authorization: Bearer <token>".
// Browsers cannot set headers on WebSocket upgrades, so ?token= is accepted too.
func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if header != "" {
		scheme, token, found := strings.Cut(header, " ")
		if !found || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
			return "", false
		}
		return strings.TrimSpace(token), true
	}
	if token := r.URL.Query().Get("token"); token != "" {
		return token, true
	}
	return "", false
}
