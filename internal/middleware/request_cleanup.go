package middleware

import (
	"io"
	"net/http"
)

// MaxRequestBodyBytes caps every request body, forms here are a few hundred bytes of JSON.
const MaxRequestBodyBytes = 64 << 10

// LimitAndDrainBody caps the request body at maxBytes and, once the handler is done,
// drains what is left (up to the cap) and closes it so the connection can be reused.
func LimitAndDrainBody(maxBytes int64) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Body != nil {
				r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			}
			next.ServeHTTP(w, r)
			if r.Body != nil {
				_, _ = io.Copy(io.Discard, r.Body)
				_ = r.Body.Close()
			}
		})
	}
}
