package handler

import (
	"encoding/json"
	"net/http"

	"stepable/internal/api/v1/dto"
	"stepable/internal/service"

	"github.com/go-playground/validator/v10"
)

type AssistantHandler struct {
	assistantService service.AssistantService
	validate         *validator.Validate
}

func NewAssistantHandler(assistantService service.AssistantService, v *validator.Validate) *AssistantHandler {
	return &AssistantHandler{assistantService: assistantService, validate: v}
}

func (h *AssistantHandler) RegisterRoutes(mux *http.ServeMux, authMw func(http.Handler) http.Handler) {
	mux.Handle("POST /assistant/messages", authMw(http.HandlerFunc(h.sendMessage)))
	mux.Handle("GET /assistant/messages", authMw(http.HandlerFunc(h.listMessages)))
	mux.Handle("GET /assistant/quick-actions", authMw(http.HandlerFunc(h.quickActions)))
}

// sendMessage godoc
// @Summary Send a message to the assistant
// @Tags assistant
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param body body dto.AssistantMessageDTO true "Message"
// @Success 201 {object} model.AssistantMessage
// @Failure 400 {string} string "message is empty"
// @Router /assistant/messages [post]
func (h *AssistantHandler) sendMessage(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	var req dto.AssistantMessageDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON payload: "+err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		http.Error(w, "Validation failed: "+err.Error(), http.StatusBadRequest)
		return
	}
	reply, err := h.assistantService.Send(r.Context(), userID, req.Content)
	if err != nil {
		writeServiceError(w, "Failed to send message", err)
		return
	}
	writeJSON(w, http.StatusCreated, reply)
}

// listMessages godoc
// @Summary Get the conversation history
// @Tags assistant
// @Security BearerAuth
// @Produce json
// @Success 200 {array} model.AssistantMessage
// @Router /assistant/messages [get]
func (h *AssistantHandler) listMessages(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	msgs, err := h.assistantService.History(r.Context(), userID)
	if err != nil {
		writeServiceError(w, "Failed to load conversation", err)
		return
	}
	writeJSON(w, http.StatusOK, msgs)
}

// quickActions godoc
// @Summary List the assistant's quick actions
// @Tags assistant
// @Security BearerAuth
// @Produce json
// @Success 200 {array} service.QuickAction
// @Router /assistant/quick-actions [get]
func (h *AssistantHandler) quickActions(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireUser(w, r); !ok {
		return
	}
	writeJSON(w, http.StatusOK, h.assistantService.QuickActions())
}
