package middleware

import "net/http"

// MaxBodySize caps the size of JSON request bodies. Oversized bodies
// make reads fail inside the handler rather than being rejected here.
// Multipart routes mount their own streaming limit instead.
func MaxBodySize(limit int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Body != nil {
				r.Body = http.MaxBytesReader(w, r.Body, limit)
			}
			next.ServeHTTP(w, r)
		})
	}
}
