package http

import (
	"encoding/json"
	"net/http"

	apperrors "lakeside/pkg/errors"
)

type SuccessResponse struct {
	Data any `json:"data,omitempty"`
}

type PaginatedResponse struct {
	Data       any   `json:"data"`
	TotalCount int64 `json:"total_count"`
	Limit      int   `json:"limit"`
	Offset     int64 `json:"offset"`
}

// AuthErrorResponse is the body written when authentication or
// authorization fails at the HTTP boundary.
type AuthErrorResponse struct {
	Status  int    `json:"status"`
	Error   string `json:"error"`
	Message string `json:"message"`
	Path    string `json:"path"`
}

func WriteJSON(w http.ResponseWriter, statusCode int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	return json.NewEncoder(w).Encode(data)
}

// WriteError writes err as {"code","message","details"}. Errors that are not
// AppErrors are reported as a generic internal error.
func WriteError(w http.ResponseWriter, err error) error {
	appErr := apperrors.AsAppError(err)
	status := appErr.StatusCode()
	if status == 0 {
		status = http.StatusInternalServerError
	}

	resp := apperrors.ErrorResponse{
		Code:    appErr.Code,
		Message: appErr.Message,
		Details: appErr.Details,
	}
	if status == http.StatusInternalServerError && appErr.Code == apperrors.CodeInternal {
		resp.Message = "Internal server error"
		resp.Details = nil
	}
	return WriteJSON(w, status, resp)
}

// WriteRequestError writes authentication and authorization failures in the
// auth body shape and everything else through WriteError.
func WriteRequestError(w http.ResponseWriter, r *http.Request, err error) error {
	appErr := apperrors.AsAppError(err)
	switch appErr.Code {
	case apperrors.CodeUnauthorized, apperrors.CodeForbidden:
		return WriteAuthError(w, r, appErr.StatusCode(), appErr.Message)
	}
	return WriteError(w, err)
}

func WriteAuthError(w http.ResponseWriter, r *http.Request, status int, message string) error {
	return WriteJSON(w, status, AuthErrorResponse{
		Status:  status,
		Error:   http.StatusText(status),
		Message: message,
		Path:    r.URL.Path,
	})
}

func WriteSuccess(w http.ResponseWriter, data any) error {
	return WriteJSON(w, http.StatusOK, SuccessResponse{Data: data})
}

func WriteCreated(w http.ResponseWriter, data any) error {
	return WriteJSON(w, http.StatusCreated, SuccessResponse{Data: data})
}

func WriteNoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

func WritePaginated(w http.ResponseWriter, data any, totalCount int64, limit int, offset int64) error {
	return WriteJSON(w, http.StatusOK, PaginatedResponse{
		Data:       data,
		TotalCount: totalCount,
		Limit:      limit,
		Offset:     offset,
	})
}
