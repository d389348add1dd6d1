package middleware

import "net/http"

// LimitBody caps request bodies at limit bytes. Reads past the cap fail with
// *http.MaxBytesError, which handlers translate into 413 responses.
func LimitBody(limit int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if limit > 0 && r.Body != nil {
				r.Body = http.MaxBytesReader(w, r.Body, limit)
			}
			next.ServeHTTP(w, r)
		})
	}
}
