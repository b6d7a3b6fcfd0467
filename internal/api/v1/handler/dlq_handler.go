package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"stepable/internal/api/v1/dto"
	"stepable/internal/model"
	"stepable/internal/service"

	"github.com/rs/zerolog"
)

const defaultDLQListLimit = 50

type DLQHandler struct {
	service service.DLQService
	logger  zerolog.Logger
}

func NewDLQHandler(s service.DLQService, l zerolog.Logger) *DLQHandler {
	return &DLQHandler{service: s, logger: l}
}

// RegisterRoutes mounts the push endpoint behind the Pub/Sub OIDC check and
// the listing behind user auth.
func (h *DLQHandler) RegisterRoutes(mux *http.ServeMux, pushMw, authMw func(http.Handler) http.Handler) {
	mux.Handle("POST /dlq", pushMw(http.HandlerFunc(h.recordDLQ)))
	mux.Handle("GET /dlq", authMw(http.HandlerFunc(h.listDLQ)))
}

// recordDLQ godoc
// @Summary Record a dead-lettered Pub/Sub message
// @Tags dlq
// @Accept json
// @Param body body dto.PubSubPushRequest true "Pub/Sub push payload"
// @Success 204
// @Failure 400 {string} string "Invalid Pub/Sub message format"
// @Router /dlq [post]
func (h *DLQHandler) recordDLQ(w http.ResponseWriter, r *http.Request) {
	var req dto.PubSubPushRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON payload: "+err.Error(), http.StatusBadRequest)
		return
	}
	if req.Message.MessageID == "" {
		http.Error(w, "Invalid Pub/Sub message format: missing message ID", http.StatusBadRequest)
		return
	}

	h.logger.Info().
		Str("messageId", req.Message.MessageID).
		Str("subscription", req.Subscription).
		Msg("Processing dead-letter queue message")

	if err := h.service.ProcessAndSave(r.Context(), &req); err != nil {
		// Acknowledge anyway; the message is already dead-lettered and a retry
		// would only repeat the failure.
		h.logger.Error().Err(err).Msg("Failed to save DLQ message to database")
		w.WriteHeader(http.StatusNoContent)
		return
	}

	h.logger.Info().
		Str("messageId", req.Message.MessageID).
		Msg("Successfully processed and saved DLQ message")
	w.WriteHeader(http.StatusNoContent)
}

// listDLQ godoc
// @Summary List dead-lettered messages
// @Tags dlq
// @Security BearerAuth
// @Produce json
// @Param status query string false "unprocessed (default) or resolved"
// @Param limit query int false "Max rows, default 50"
// @Success 200 {array} model.DeadLetterMessage
// @Router /dlq [get]
func (h *DLQHandler) listDLQ(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireUser(w, r); !ok {
		return
	}

	status := r.URL.Query().Get("status")
	if status == "" {
		status = model.DeadLetterUnprocessed
	}
	if status != model.DeadLetterUnprocessed && status != model.DeadLetterResolved {
		http.Error(w, "Invalid status: "+status, http.StatusBadRequest)
		return
	}
	limit := defaultDLQListLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			http.Error(w, "Invalid limit: "+raw, http.StatusBadRequest)
			return
		}
		limit = n
	}

	rows, err := h.service.List(r.Context(), status, limit)
	if err != nil {
		writeServiceError(w, "Failed to list DLQ messages", err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}
