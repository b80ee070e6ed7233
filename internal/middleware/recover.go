package middleware

import (
	"log"
	"net/http"

	"github.com/oggyb/sms-framework/internal/response"
)

// Recoverer turns a panicking handler into a 500 JSON response.
func Recoverer() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if v := recover(); v != nil {
					if v == http.ErrAbortHandler {
						panic(v)
					}
					log.Printf("[HTTP] panic serving %s %s: %v", r.Method, r.URL.Path, v)
					response.RespondError(w, http.StatusInternalServerError, "internal error")
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
