package middleware

import (
	"log"
	"net/http"
	"runtime/debug"

	"carsapp-api/pkg/apierror"
	"carsapp-api/pkg/response"
)

// Recovery is a middleware that recovers from panics.
func Recovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				if err == http.ErrAbortHandler {
					panic(err)
				}
				log.Printf("PANIC (request_id=%s): %v\n%s", GetRequestID(r.Context()), err, debug.Stack())
				response.Error(w, apierror.InternalError(""))
			}
		}()

		next.ServeHTTP(w, r)
	})
}
