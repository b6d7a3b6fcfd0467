package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"stepable/internal/api/v1/dto"
	"stepable/internal/service"

	"github.com/go-playground/validator/v10"
)

type LessonHandler struct {
	lessonService   service.LessonService
	progressService service.ProgressService
	validate        *validator.Validate
}

func NewLessonHandler(lessonService service.LessonService, progressService service.ProgressService, v *validator.Validate) *LessonHandler {
	return &LessonHandler{lessonService: lessonService, progressService: progressService, validate: v}
}

func (h *LessonHandler) RegisterRoutes(mux *http.ServeMux, authMw func(http.Handler) http.Handler) {
	mux.Handle("GET /lessons/{lessonId}", authMw(http.HandlerFunc(h.getLesson)))
	mux.Handle("POST /lessons/{lessonId}/answers", authMw(http.HandlerFunc(h.answerStep)))
	mux.Handle("POST /lessons/{lessonId}/start", authMw(http.HandlerFunc(h.startLesson)))
	mux.Handle("POST /lessons/{lessonId}/complete", authMw(http.HandlerFunc(h.completeLesson)))
	mux.Handle("GET /users/me/progress", authMw(http.HandlerFunc(h.listProgress)))
}

// getLesson godoc
// @Summary Get a lesson with its steps
// @Tags lessons
// @Security BearerAuth
// @Produce json
// @Param lessonId path string true "Lesson ID"
// @Success 200 {object} service.LessonView
// @Failure 403 {string} string "not a member of this project"
// @Failure 404 {string} string "lesson not found"
// @Router /lessons/{lessonId} [get]
func (h *LessonHandler) getLesson(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	view, err := h.lessonService.Get(r.Context(), userID, r.PathValue("lessonId"))
	if err != nil {
		writeServiceError(w, "Failed to retrieve lesson", err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// answerStep godoc
// @Summary Check the answer to a quiz or exercise step
// @Tags lessons
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param lessonId path string true "Lesson ID"
// @Param answer body dto.AnswerRequestDTO true "Answer"
// @Success 200 {object} service.Feedback
// @Failure 400 {string} string "step index out of range"
// @Router /lessons/{lessonId}/answers [post]
func (h *LessonHandler) answerStep(w http.ResponseWriter, r *http.Request) {
	// 1. Extract UserID from context
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	// 2. Decode and validate
	var req dto.AnswerRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON payload: "+err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		http.Error(w, "Validation failed: "+err.Error(), http.StatusBadRequest)
		return
	}

	// 3. Evaluate
	fb, err := h.lessonService.Answer(r.Context(), userID, r.PathValue("lessonId"), *req.StepIndex, req.Answer)
	if err != nil {
		writeServiceError(w, "Failed to check answer", err)
		return
	}
	writeJSON(w, http.StatusOK, fb)
}

// startLesson godoc
// @Summary Mark a lesson as in progress
// @Tags lessons
// @Security BearerAuth
// @Produce json
// @Param lessonId path string true "Lesson ID"
// @Success 200 {object} model.UserProgress
// @Router /lessons/{lessonId}/start [post]
func (h *LessonHandler) startLesson(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	p, err := h.progressService.StartLesson(r.Context(), userID, r.PathValue("lessonId"))
	if err != nil {
		writeServiceError(w, "Failed to start lesson", err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// completeLesson godoc
// @Summary Mark a lesson as completed
// @Description Publishes a progress event and queues an achievement check the first time a lesson is completed.
// @Tags lessons
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param lessonId path string true "Lesson ID"
// @Param body body dto.CompleteLessonDTO false "Optional score"
// @Success 200 {object} model.UserProgress
// @Router /lessons/{lessonId}/complete [post]
func (h *LessonHandler) completeLesson(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	// Body is optional
	var req dto.CompleteLessonDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		http.Error(w, "Invalid JSON payload: "+err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		http.Error(w, "Validation failed: "+err.Error(), http.StatusBadRequest)
		return
	}

	p, err := h.progressService.CompleteLesson(r.Context(), userID, r.PathValue("lessonId"), req.Score)
	if err != nil {
		writeServiceError(w, "Failed to complete lesson", err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// listProgress godoc
// @Summary List the current user's lesson progress
// @Tags lessons
// @Security BearerAuth
// @Produce json
// @Success 200 {array} model.UserProgress
// @Router /users/me/progress [get]
func (h *LessonHandler) listProgress(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	rows, err := h.progressService.List(r.Context(), userID)
	if err != nil {
		writeServiceError(w, "Failed to list progress", err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}
