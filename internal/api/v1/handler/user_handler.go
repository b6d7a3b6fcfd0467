package handler

import (
	"encoding/json"
	"net/http"

	"stepable/internal/api/v1/dto"
	"stepable/internal/model"
	"stepable/internal/service"

	"github.com/go-playground/validator/v10"
)

type UserHandler struct {
	userService service.UserService
	validate    *validator.Validate
}

func NewUserHandler(userService service.UserService, v *validator.Validate) *UserHandler {
	return &UserHandler{userService: userService, validate: v}
}

// RegisterRoutes mounts v1 user routes
func (h *UserHandler) RegisterRoutes(mux *http.ServeMux, authMw func(http.Handler) http.Handler) {
	mux.Handle("POST /users/me", authMw(http.HandlerFunc(h.upsertUser)))
	mux.Handle("GET /users/me", authMw(http.HandlerFunc(h.getUser)))
}

func toUserResponse(u *model.User) dto.UserResponseDTO {
	return dto.UserResponseDTO{
		UserID:    u.UserID,
		Name:      u.Name,
		Email:     u.Email,
		AvatarURL: u.AvatarURL,
		Language:  u.Language,
		Company:   u.Company,
		Role:      u.Role,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

// upsertUser godoc
// @Summary Create or update the current user's profile
// @Tags users
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param user body dto.UserUpsertDTO true "Profile"
// @Success 200 {object} dto.UserResponseDTO
// @Failure 400 {string} string "Invalid JSON payload or validation failed"
// @Failure 401 {string} string "Unauthorized: User ID not found in context"
// @Failure 500 {string} string "Failed to save user"
// @Router /users/me [post]
func (h *UserHandler) upsertUser(w http.ResponseWriter, r *http.Request) {
	// 1. Extract UserID from context
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	// 2. Decode request body into DTO
	var req dto.UserUpsertDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON payload: "+err.Error(), http.StatusBadRequest)
		return
	}

	// 3. Validate DTO
	if err := h.validate.Struct(&req); err != nil {
		http.Error(w, "Validation failed: "+err.Error(), http.StatusBadRequest)
		return
	}

	// 4. Save
	saved, err := h.userService.Upsert(r.Context(), &model.User{
		UserID:    userID,
		Name:      req.Name,
		Email:     req.Email,
		AvatarURL: req.AvatarURL,
		Language:  req.Language,
		Company:   req.Company,
		Role:      req.Role,
	})
	if err != nil {
		http.Error(w, "Failed to save user: "+err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, toUserResponse(saved))
}

// getUser godoc
// @Summary Get the current user's profile
// @Tags users
// @Security BearerAuth
// @Produce json
// @Success 200 {object} dto.UserResponseDTO
// @Failure 401 {string} string "Unauthorized: User ID not found in context"
// @Failure 404 {string} string "user not found"
// @Router /users/me [get]
func (h *UserHandler) getUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	user, err := h.userService.Get(r.Context(), userID)
	if err != nil {
		writeServiceError(w, "Failed to retrieve user", err)
		return
	}
	writeJSON(w, http.StatusOK, toUserResponse(user))
}
