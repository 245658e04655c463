package middleware

import (
	"net/http"

	apperrors "lakeside/pkg/errors"
)

func writeError(w http.ResponseWriter, appErr *apperrors.AppError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(appErr.StatusCode())
	_, _ = w.Write(appErr.ToJSON())
}
