package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/alxvallejo/promptd/internal/pkg/router"
)

// Recover turns a panicking handler into a 500 and logs the stack.
func Recover() router.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}

				slog.Error("internal server error",
					"error", rec,
					"method", r.Method,
					"url", r.URL.String(),
					"remote_addr", r.RemoteAddr,
					"user_id", UserIDFromContext(r.Context()),
					"stack_trace", string(debug.Stack()),
				)
				http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			}()

			next.ServeHTTP(w, r)
		})
	}
}
