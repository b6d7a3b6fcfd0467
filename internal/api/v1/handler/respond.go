package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"stepable/internal/middleware"
	"stepable/internal/service"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// requireUser reads the authenticated user ID or writes a 401.
func requireUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		http.Error(w, "Unauthorized: User ID not found in context", http.StatusUnauthorized)
		return "", false
	}
	return userID, true
}

// writeServiceError maps service sentinel errors to HTTP statuses. Anything
// unknown is a 500 prefixed with action.
func writeServiceError(w http.ResponseWriter, action string, err error) {
	switch {
	case errors.Is(err, service.ErrProjectNotFound),
		errors.Is(err, service.ErrMemberNotFound),
		errors.Is(err, service.ErrLessonNotFound),
		errors.Is(err, service.ErrModuleNotFound),
		errors.Is(err, service.ErrDocumentNotFound),
		errors.Is(err, service.ErrIntegrationNotFound),
		errors.Is(err, service.ErrUserNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, service.ErrNotProjectMember),
		errors.Is(err, service.ErrForbidden),
		errors.Is(err, service.ErrOwnerImmutable):
		http.Error(w, err.Error(), http.StatusForbidden)
	case errors.Is(err, service.ErrAlreadyMember):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, service.ErrInvalidRole),
		errors.Is(err, service.ErrInvalidStatus),
		errors.Is(err, service.ErrInvalidFilename),
		errors.Is(err, service.ErrUploadMissing),
		errors.Is(err, service.ErrUnsupportedIntegration),
		errors.Is(err, service.ErrEmptyMessage),
		errors.Is(err, service.ErrStepOutOfRange),
		errors.Is(err, service.ErrStepNotAnswerable),
		errors.Is(err, service.ErrInvalidAnswer):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		http.Error(w, action+": "+err.Error(), http.StatusInternalServerError)
	}
}
