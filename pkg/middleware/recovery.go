package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	apperrors "lakeside/pkg/errors"
	"lakeside/pkg/logger"
)

func Recovery(log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					if rec == http.ErrAbortHandler {
						panic(rec)
					}

					log.Error("Panic recovered",
						"request_id", RequestIDFromContext(r.Context()),
						"error", rec,
						"method", r.Method,
						"path", r.URL.Path,
						"stack", string(debug.Stack()),
					)

					writeError(w, apperrors.Internal("Internal server error", fmt.Errorf("panic: %v", rec)))
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
