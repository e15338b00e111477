package http

import (
	"net/http"
	"strconv"

	"github.com/pbalakri/vendure-plugin-talonOne/internal/domain"
)

// AuthMiddleware extracts the acting user's id from the X-User-ID header set
// by the storefront's edge. Anonymous requests pass through without an
// active user; handlers that need one reject them.
func AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if userID, err := strconv.ParseInt(r.Header.Get("X-User-ID"), 10, 64); err == nil && userID > 0 {
			r = r.WithContext(domain.WithActiveUser(r.Context(), userID))
		}
		next.ServeHTTP(w, r)
	})
}
