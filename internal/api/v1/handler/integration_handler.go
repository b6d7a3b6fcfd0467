package handler

import (
	"encoding/json"
	"net/http"

	"stepable/internal/api/v1/dto"
	"stepable/internal/service"

	"github.com/go-playground/validator/v10"
)

type IntegrationHandler struct {
	integrationService service.IntegrationService
	validate           *validator.Validate
}

func NewIntegrationHandler(integrationService service.IntegrationService, v *validator.Validate) *IntegrationHandler {
	return &IntegrationHandler{integrationService: integrationService, validate: v}
}

func (h *IntegrationHandler) RegisterRoutes(mux *http.ServeMux, authMw func(http.Handler) http.Handler) {
	mux.Handle("GET /projects/{projectId}/integrations", authMw(http.HandlerFunc(h.listIntegrations)))
	mux.Handle("PUT /projects/{projectId}/integrations", authMw(http.HandlerFunc(h.connectIntegration)))
	mux.Handle("POST /projects/{projectId}/integrations/{type}/deactivate", authMw(http.HandlerFunc(h.deactivateIntegration)))
	mux.Handle("DELETE /projects/{projectId}/integrations/{type}", authMw(http.HandlerFunc(h.deleteIntegration)))
}

// listIntegrations godoc
// @Summary List a project's integrations
// @Tags integrations
// @Security BearerAuth
// @Produce json
// @Param projectId path string true "Project ID"
// @Success 200 {array} model.Integration
// @Router /projects/{projectId}/integrations [get]
func (h *IntegrationHandler) listIntegrations(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	list, err := h.integrationService.List(r.Context(), userID, r.PathValue("projectId"))
	if err != nil {
		writeServiceError(w, "Failed to list integrations", err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// connectIntegration godoc
// @Summary Connect or reconfigure an integration
// @Description Owners and admins only. The credential is stored in Secret Manager and never returned.
// @Tags integrations
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param projectId path string true "Project ID"
// @Param body body dto.IntegrationUpsertDTO true "Integration"
// @Success 200 {object} model.Integration
// @Failure 403 {string} string "insufficient project role"
// @Router /projects/{projectId}/integrations [put]
func (h *IntegrationHandler) connectIntegration(w http.ResponseWriter, r *http.Request) {
	// 1. Extract UserID from context
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	// 2. Decode and validate
	var req dto.IntegrationUpsertDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON payload: "+err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		http.Error(w, "Validation failed: "+err.Error(), http.StatusBadRequest)
		return
	}

	// 3. Connect
	in, err := h.integrationService.Connect(r.Context(), userID, r.PathValue("projectId"), service.IntegrationInput{
		Type:       req.Type,
		Config:     req.Config,
		Credential: req.Credential,
	})
	if err != nil {
		writeServiceError(w, "Failed to connect integration", err)
		return
	}
	writeJSON(w, http.StatusOK, in)
}

// deactivateIntegration godoc
// @Summary Deactivate an integration without deleting it
// @Tags integrations
// @Security BearerAuth
// @Param projectId path string true "Project ID"
// @Param type path string true "Integration type"
// @Success 204
// @Router /projects/{projectId}/integrations/{type}/deactivate [post]
func (h *IntegrationHandler) deactivateIntegration(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	if err := h.integrationService.Deactivate(r.Context(), userID, r.PathValue("projectId"), r.PathValue("type")); err != nil {
		writeServiceError(w, "Failed to deactivate integration", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// deleteIntegration godoc
// @Summary Delete an integration and its stored credential
// @Tags integrations
// @Security BearerAuth
// @Param projectId path string true "Project ID"
// @Param type path string true "Integration type"
// @Success 204
// @Router /projects/{projectId}/integrations/{type} [delete]
func (h *IntegrationHandler) deleteIntegration(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	if err := h.integrationService.Delete(r.Context(), userID, r.PathValue("projectId"), r.PathValue("type")); err != nil {
		writeServiceError(w, "Failed to delete integration", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
