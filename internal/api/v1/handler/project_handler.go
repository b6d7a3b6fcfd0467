package handler

import (
	"encoding/json"
	"net/http"

	"stepable/internal/api/v1/dto"
	"stepable/internal/model"
	"stepable/internal/service"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

type ProjectHandler struct {
	projectService service.ProjectService
	validate       *validator.Validate
	logger         zerolog.Logger
}

func NewProjectHandler(projectService service.ProjectService, validate *validator.Validate, logger zerolog.Logger) *ProjectHandler {
	return &ProjectHandler{projectService: projectService, validate: validate, logger: logger}
}

// RegisterRoutes mounts project and membership routes
func (h *ProjectHandler) RegisterRoutes(mux *http.ServeMux, authMw func(http.Handler) http.Handler) {
	mux.Handle("GET /projects", authMw(http.HandlerFunc(h.listMine)))
	mux.Handle("GET /projects/available", authMw(http.HandlerFunc(h.listAvailable)))
	mux.Handle("POST /projects", authMw(http.HandlerFunc(h.createProject)))
	mux.Handle("GET /projects/{projectId}", authMw(http.HandlerFunc(h.getProject)))
	mux.Handle("PATCH /projects/{projectId}", authMw(http.HandlerFunc(h.updateStatus)))
	mux.Handle("POST /projects/{projectId}/join", authMw(http.HandlerFunc(h.joinProject)))
	mux.Handle("GET /projects/{projectId}/members", authMw(http.HandlerFunc(h.listMembers)))
	mux.Handle("PATCH /projects/{projectId}/members/{userId}", authMw(http.HandlerFunc(h.changeMemberRole)))
	mux.Handle("DELETE /projects/{projectId}/members/{userId}", authMw(http.HandlerFunc(h.removeMember)))
}

// listMine godoc
// @Summary List the projects the user belongs to
// @Tags projects
// @Security BearerAuth
// @Produce json
// @Param q query string false "Case-insensitive name filter"
// @Success 200 {array} model.Project
// @Failure 401 {string} string "Unauthorized: User ID not found in context"
// @Router /projects [get]
func (h *ProjectHandler) listMine(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	projects, err := h.projectService.ListMine(r.Context(), userID, r.URL.Query().Get("q"))
	if err != nil {
		writeServiceError(w, "Failed to list projects", err)
		return
	}
	writeJSON(w, http.StatusOK, projects)
}

// listAvailable godoc
// @Summary List projects the user can join
// @Tags projects
// @Security BearerAuth
// @Produce json
// @Param q query string false "Case-insensitive name filter"
// @Success 200 {array} model.Project
// @Router /projects/available [get]
func (h *ProjectHandler) listAvailable(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	projects, err := h.projectService.ListAvailable(r.Context(), userID, r.URL.Query().Get("q"))
	if err != nil {
		writeServiceError(w, "Failed to list projects", err)
		return
	}
	writeJSON(w, http.StatusOK, projects)
}

// createProject godoc
// @Summary Create a project
// @Description The creator becomes the project owner.
// @Tags projects
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param project body dto.ProjectCreateDTO true "Project"
// @Success 201 {object} model.Project
// @Failure 400 {string} string "Invalid JSON payload or validation failed"
// @Router /projects [post]
func (h *ProjectHandler) createProject(w http.ResponseWriter, r *http.Request) {
	// 1. Extract UserID from context
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	// 2. Decode and validate
	var req dto.ProjectCreateDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON payload: "+err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		http.Error(w, "Validation failed: "+err.Error(), http.StatusBadRequest)
		return
	}

	// 3. Create
	created, err := h.projectService.Create(r.Context(), userID, &model.Project{
		Name:        req.Name,
		Description: req.Description,
		GithubRepo:  req.GithubRepo,
		ProjectType: req.ProjectType,
		Difficulty:  req.Difficulty,
	})
	if err != nil {
		writeServiceError(w, "Failed to create project", err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// getProject godoc
// @Summary Get a project
// @Tags projects
// @Security BearerAuth
// @Produce json
// @Param projectId path string true "Project ID"
// @Success 200 {object} model.Project
// @Failure 403 {string} string "not a member of this project"
// @Failure 404 {string} string "project not found"
// @Router /projects/{projectId} [get]
func (h *ProjectHandler) getProject(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	p, err := h.projectService.Get(r.Context(), userID, r.PathValue("projectId"))
	if err != nil {
		writeServiceError(w, "Failed to retrieve project", err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// joinProject godoc
// @Summary Join a project as a member
// @Tags projects
// @Security BearerAuth
// @Produce json
// @Param projectId path string true "Project ID"
// @Success 201 {object} model.ProjectMember
// @Failure 404 {string} string "project not found"
// @Failure 409 {string} string "already a member of this project"
// @Router /projects/{projectId}/join [post]
func (h *ProjectHandler) joinProject(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	m, err := h.projectService.Join(r.Context(), userID, r.PathValue("projectId"))
	if err != nil {
		writeServiceError(w, "Failed to join project", err)
		return
	}
	writeJSON(w, http.StatusCreated, m)
}

// listMembers godoc
// @Summary List project members
// @Tags projects
// @Security BearerAuth
// @Produce json
// @Param projectId path string true "Project ID"
// @Success 200 {array} model.ProjectMember
// @Router /projects/{projectId}/members [get]
func (h *ProjectHandler) listMembers(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	members, err := h.projectService.ListMembers(r.Context(), userID, r.PathValue("projectId"))
	if err != nil {
		writeServiceError(w, "Failed to list members", err)
		return
	}
	writeJSON(w, http.StatusOK, members)
}

// updateStatus godoc
// @Summary Change a project's status
// @Description Owners and admins only.
// @Tags projects
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param projectId path string true "Project ID"
// @Param body body dto.ProjectStatusUpdateDTO true "New status"
// @Success 200 {object} model.Project
// @Failure 403 {string} string "insufficient project role"
// @Router /projects/{projectId} [patch]
func (h *ProjectHandler) updateStatus(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	var req dto.ProjectStatusUpdateDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON payload: "+err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		http.Error(w, "Validation failed: "+err.Error(), http.StatusBadRequest)
		return
	}
	p, err := h.projectService.SetStatus(r.Context(), userID, r.PathValue("projectId"), req.Status)
	if err != nil {
		writeServiceError(w, "Failed to update project", err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// changeMemberRole godoc
// @Summary Change a member's role
// @Description Owners and admins only. The owner cannot be demoted.
// @Tags projects
// @Security BearerAuth
// @Accept json
// @Param projectId path string true "Project ID"
// @Param userId path string true "Member user ID"
// @Param body body dto.MemberRoleUpdateDTO true "New role"
// @Success 204
// @Failure 403 {string} string "insufficient project role"
// @Router /projects/{projectId}/members/{userId} [patch]
func (h *ProjectHandler) changeMemberRole(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	var req dto.MemberRoleUpdateDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON payload: "+err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		http.Error(w, "Validation failed: "+err.Error(), http.StatusBadRequest)
		return
	}
	err := h.projectService.ChangeMemberRole(r.Context(), userID, r.PathValue("projectId"), r.PathValue("userId"), req.Role)
	if err != nil {
		writeServiceError(w, "Failed to change role", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// removeMember godoc
// @Summary Remove a member from a project
// @Tags projects
// @Security BearerAuth
// @Param projectId path string true "Project ID"
// @Param userId path string true "Member user ID"
// @Success 204
// @Failure 403 {string} string "the project owner cannot be removed or demoted"
// @Router /projects/{projectId}/members/{userId} [delete]
func (h *ProjectHandler) removeMember(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	if err := h.projectService.RemoveMember(r.Context(), userID, r.PathValue("projectId"), r.PathValue("userId")); err != nil {
		writeServiceError(w, "Failed to remove member", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
