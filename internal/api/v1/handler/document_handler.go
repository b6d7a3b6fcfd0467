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

type DocumentHandler struct {
	documentService service.DocumentService
	validate        *validator.Validate
	logger          zerolog.Logger
}

func NewDocumentHandler(documentService service.DocumentService, v *validator.Validate, logger zerolog.Logger) *DocumentHandler {
	return &DocumentHandler{documentService: documentService, validate: v, logger: logger}
}

func (h *DocumentHandler) RegisterRoutes(mux *http.ServeMux, authMw func(http.Handler) http.Handler) {
	mux.Handle("POST /documents", authMw(http.HandlerFunc(h.createDocument)))
	mux.Handle("GET /documents/{documentId}", authMw(http.HandlerFunc(h.getDocument)))
	mux.Handle("DELETE /documents/{documentId}", authMw(http.HandlerFunc(h.deleteDocument)))
	mux.Handle("POST /documents/{documentId}/upload", authMw(http.HandlerFunc(h.initiateUpload)))
	mux.Handle("POST /documents/{documentId}/upload/complete", authMw(http.HandlerFunc(h.completeUpload)))
	mux.Handle("GET /projects/{projectId}/documents", authMw(http.HandlerFunc(h.searchDocuments)))
	mux.Handle("GET /projects/{projectId}/documents/featured", authMw(http.HandlerFunc(h.featuredDocuments)))
}

// createDocument godoc
// @Summary Add a document to a project's library
// @Tags documents
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param document body dto.DocumentCreateDTO true "Document"
// @Success 201 {object} model.Document
// @Failure 400 {string} string "Invalid JSON payload or validation failed"
// @Failure 403 {string} string "not a member of this project"
// @Router /documents [post]
func (h *DocumentHandler) createDocument(w http.ResponseWriter, r *http.Request) {
	// 1. Extract UserID from context
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	// 2. Decode and validate
	var req dto.DocumentCreateDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON payload: "+err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		http.Error(w, "Validation failed: "+err.Error(), http.StatusBadRequest)
		return
	}

	// 3. Create
	doc, err := h.documentService.Create(r.Context(), userID, &model.Document{
		ProjectID:   req.ProjectID,
		Title:       req.Title,
		Description: req.Description,
		FileType:    req.FileType,
		Kind:        req.Kind,
		Category:    req.Category,
		Tags:        req.Tags,
		Content:     req.Content,
		FileURL:     req.FileURL,
		Featured:    req.Featured,
	})
	if err != nil {
		writeServiceError(w, "Failed to create document", err)
		return
	}
	writeJSON(w, http.StatusCreated, doc)
}

// getDocument godoc
// @Summary Get a document
// @Description Counts a view and includes a short-lived download URL when a file was uploaded.
// @Tags documents
// @Security BearerAuth
// @Produce json
// @Param documentId path string true "Document ID"
// @Success 200 {object} service.DocumentView
// @Failure 404 {string} string "document not found"
// @Router /documents/{documentId} [get]
func (h *DocumentHandler) getDocument(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	view, err := h.documentService.Get(r.Context(), userID, r.PathValue("documentId"))
	if err != nil {
		writeServiceError(w, "Failed to retrieve document", err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// searchDocuments godoc
// @Summary Search a project's library
// @Tags documents
// @Security BearerAuth
// @Produce json
// @Param projectId path string true "Project ID"
// @Param q query string false "Matches title, description or tags"
// @Param category query string false "Category or all"
// @Param kind query string false "Kind or all"
// @Success 200 {array} model.Document
// @Router /projects/{projectId}/documents [get]
func (h *DocumentHandler) searchDocuments(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	docs, err := h.documentService.Search(r.Context(), userID, r.PathValue("projectId"), service.DocumentFilter{
		Query:    q.Get("q"),
		Category: q.Get("category"),
		Kind:     q.Get("kind"),
	})
	if err != nil {
		writeServiceError(w, "Failed to search documents", err)
		return
	}
	writeJSON(w, http.StatusOK, docs)
}

// featuredDocuments godoc
// @Summary List featured documents
// @Tags documents
// @Security BearerAuth
// @Produce json
// @Param projectId path string true "Project ID"
// @Success 200 {array} model.Document
// @Router /projects/{projectId}/documents/featured [get]
func (h *DocumentHandler) featuredDocuments(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	docs, err := h.documentService.Featured(r.Context(), userID, r.PathValue("projectId"))
	if err != nil {
		writeServiceError(w, "Failed to list featured documents", err)
		return
	}
	writeJSON(w, http.StatusOK, docs)
}

// initiateUpload godoc
// @Summary Get a presigned URL to upload a document file
// @Tags documents
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param documentId path string true "Document ID"
// @Param body body dto.UploadRequestDTO true "File"
// @Success 200 {object} service.UploadTarget
// @Failure 403 {string} string "insufficient project role"
// @Router /documents/{documentId}/upload [post]
func (h *DocumentHandler) initiateUpload(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	var req dto.UploadRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON payload: "+err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		http.Error(w, "Validation failed: "+err.Error(), http.StatusBadRequest)
		return
	}
	target, err := h.documentService.InitiateUpload(r.Context(), userID, r.PathValue("documentId"), req.Filename, req.ContentType)
	if err != nil {
		writeServiceError(w, "Failed to prepare upload", err)
		return
	}
	writeJSON(w, http.StatusOK, target)
}

// completeUpload godoc
// @Summary Attach an uploaded file to a document
// @Tags documents
// @Security BearerAuth
// @Accept json
// @Param documentId path string true "Document ID"
// @Param body body dto.CompleteUploadDTO true "Storage path returned by the upload call"
// @Success 204
// @Failure 400 {string} string "uploaded file not found"
// @Failure 403 {string} string "insufficient project role"
// @Router /documents/{documentId}/upload/complete [post]
func (h *DocumentHandler) completeUpload(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	var req dto.CompleteUploadDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON payload: "+err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		http.Error(w, "Validation failed: "+err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.documentService.CompleteUpload(r.Context(), userID, r.PathValue("documentId"), req.StoragePath); err != nil {
		writeServiceError(w, "Failed to complete upload", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// deleteDocument godoc
// @Summary Delete a document
// @Description Allowed for the creator and for project owners and admins.
// @Tags documents
// @Security BearerAuth
// @Param documentId path string true "Document ID"
// @Success 204
// @Failure 403 {string} string "insufficient project role"
// @Router /documents/{documentId} [delete]
func (h *DocumentHandler) deleteDocument(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	if err := h.documentService.Delete(r.Context(), userID, r.PathValue("documentId")); err != nil {
		h.logger.Error().Err(err).Str("document_id", r.PathValue("documentId")).Msg("delete document failed")
		writeServiceError(w, "Failed to delete document", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
