package handler

import (
	"net/http"

	"stepable/internal/service"
)

type JourneyHandler struct {
	journeyService service.JourneyService
	lessonService  service.LessonService
}

func NewJourneyHandler(journeyService service.JourneyService, lessonService service.LessonService) *JourneyHandler {
	return &JourneyHandler{journeyService: journeyService, lessonService: lessonService}
}

func (h *JourneyHandler) RegisterRoutes(mux *http.ServeMux, authMw func(http.Handler) http.Handler) {
	mux.Handle("GET /projects/{projectId}/journey", authMw(http.HandlerFunc(h.getJourney)))
	mux.Handle("GET /modules/{moduleId}/lessons", authMw(http.HandlerFunc(h.listLessons)))
	mux.Handle("GET /users/me/stats", authMw(http.HandlerFunc(h.getStats)))
	mux.Handle("GET /users/me/achievements", authMw(http.HandlerFunc(h.listAchievements)))
}

// getJourney godoc
// @Summary Get the learning journey of a project
// @Description Modules in order with their state (completed, in-progress, available, locked), plus stats and achievements.
// @Tags journey
// @Security BearerAuth
// @Produce json
// @Param projectId path string true "Project ID"
// @Success 200 {object} service.Journey
// @Failure 403 {string} string "not a member of this project"
// @Failure 404 {string} string "project not found"
// @Router /projects/{projectId}/journey [get]
func (h *JourneyHandler) getJourney(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	journey, err := h.journeyService.GetJourney(r.Context(), userID, r.PathValue("projectId"))
	if err != nil {
		writeServiceError(w, "Failed to build journey", err)
		return
	}
	writeJSON(w, http.StatusOK, journey)
}

// listLessons godoc
// @Summary List the lessons of a module
// @Tags journey
// @Security BearerAuth
// @Produce json
// @Param moduleId path string true "Module ID"
// @Success 200 {array} model.Lesson
// @Failure 404 {string} string "module not found"
// @Router /modules/{moduleId}/lessons [get]
func (h *JourneyHandler) listLessons(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	lessons, err := h.lessonService.ListByModule(r.Context(), userID, r.PathValue("moduleId"))
	if err != nil {
		writeServiceError(w, "Failed to list lessons", err)
		return
	}
	writeJSON(w, http.StatusOK, lessons)
}

// getStats godoc
// @Summary Get XP, level and streak of the current user
// @Tags journey
// @Security BearerAuth
// @Produce json
// @Success 200 {object} service.Stats
// @Router /users/me/stats [get]
func (h *JourneyHandler) getStats(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	stats, err := h.journeyService.GetStats(r.Context(), userID)
	if err != nil {
		writeServiceError(w, "Failed to compute stats", err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// listAchievements godoc
// @Summary List achievements with earned flags
// @Tags journey
// @Security BearerAuth
// @Produce json
// @Success 200 {array} service.AchievementStatus
// @Router /users/me/achievements [get]
func (h *JourneyHandler) listAchievements(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	list, err := h.journeyService.ListAchievements(r.Context(), userID)
	if err != nil {
		writeServiceError(w, "Failed to list achievements", err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}
