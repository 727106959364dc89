package middleware

import (
	"net/http"
	"strconv"
	"time"
)

// CacheControl lets clients and proxies keep successful GET and HEAD
// responses for maxAge. Content addressed by a never-reused key may also be
// marked immutable. Other methods get no-store.
func CacheControl(maxAge time.Duration, immutable bool) func(http.Handler) http.Handler {
	value := "public, max-age=" + strconv.Itoa(int(maxAge.Seconds()))
	if immutable {
		value += ", immutable"
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet, http.MethodHead:
				w.Header().Set("Cache-Control", value)
			default:
				w.Header().Set("Cache-Control", "no-store")
			}
			next.ServeHTTP(w, r)
		})
	}
}
