package middleware

import (
	"net/http"

	"github.com/gorilla/handlers"
)

var (
	corsMethods = []string{"GET", "HEAD", "PUT", "PATCH", "POST", "DELETE"}
	corsHeaders = []string{"Content-Type", "Authorization", "X-Requested-With"}
)

// CORS permits cross-origin access from any origin. Preflight requests are
// answered by gorilla/handlers; every other response carries
// Access-Control-Allow-Origin: * whether or not the request sent an Origin.
func CORS(next http.Handler) http.Handler {
	preflight := handlers.CORS(
		handlers.AllowedOrigins([]string{"*"}),
		handlers.AllowedMethods(corsMethods),
		handlers.AllowedHeaders(corsHeaders),
		handlers.OptionStatusCode(http.StatusNoContent),
	)(next)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		preflight.ServeHTTP(w, r)
	})
}
