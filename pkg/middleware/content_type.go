package middleware

import (
	"mime"
	"net/http"

	apperrors "lakeside/pkg/errors"
	"lakeside/pkg/logger"
)

// ContentTypeValidation requires application/json on writes that carry a
// body. Bodyless POSTs such as cancellations pass through.
func ContentTypeValidation(log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if requiresContentType(r) {
				contentType := extractContentType(r.Header.Get("Content-Type"))
				if contentType != "application/json" {
					log.Warn("Invalid Content-Type header",
						"request_id", RequestIDFromContext(r.Context()),
						"content_type", contentType,
						"path", r.URL.Path,
						"method", r.Method,
					)
					writeError(w, apperrors.New(apperrors.CodeBadRequest, "Content-Type must be application/json", http.StatusUnsupportedMediaType))
					return
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}

func requiresContentType(r *http.Request) bool {
	switch r.Method {
	case http.MethodPost, http.MethodPut, http.MethodPatch:
		return r.ContentLength != 0
	}
	return false
}

func extractContentType(header string) string {
	if header == "" {
		return ""
	}
	mediaType, _, err := mime.ParseMediaType(header)
	if err != nil {
		return ""
	}
	return mediaType
}
