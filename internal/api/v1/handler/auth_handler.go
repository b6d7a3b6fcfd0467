package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"stepable/internal/api/v1/dto"
	"stepable/internal/middleware"
	"stepable/internal/service"
	"stepable/internal/supabase"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"golang.org/x/text/language"
)

// AuthHandler fronts the hosted auth service. Failures are JSON bodies with a
// localized message so the client can show them directly.
type AuthHandler struct {
	authService service.AuthService
	messages    *service.AuthMessages
	validate    *validator.Validate
	logger      zerolog.Logger
}

func NewAuthHandler(authService service.AuthService, messages *service.AuthMessages, validate *validator.Validate, logger zerolog.Logger) *AuthHandler {
	return &AuthHandler{authService: authService, messages: messages, validate: validate, logger: logger}
}

// RegisterRoutes mounts auth routes. Only sign-out and the user lookup need a
// token, and they read it from the header themselves.
func (h *AuthHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /auth/signup", h.signUp)
	mux.HandleFunc("POST /auth/signin", h.signIn)
	mux.HandleFunc("POST /auth/signout", h.signOut)
	mux.HandleFunc("POST /auth/refresh", h.refresh)
	mux.HandleFunc("POST /auth/reset-password", h.resetPassword)
	mux.HandleFunc("POST /auth/resend-confirmation", h.resendConfirmation)
	mux.HandleFunc("GET /auth/user", h.currentUser)
}

func (h *AuthHandler) lang(r *http.Request) language.Tag {
	return h.messages.Lang(r.Header.Get("Accept-Language"))
}

func (h *AuthHandler) writeError(w http.ResponseWriter, lang language.Tag, err error) {
	var authErr *service.AuthError
	if !errors.As(err, &authErr) {
		h.logger.Error().Err(err).Msg("Unexpected auth failure")
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponseDTO{
			Error: h.messages.Text(lang, service.MsgUnexpected),
			Code:  string(service.MsgUnexpected),
		})
		return
	}
	writeJSON(w, authStatus(authErr), dto.ErrorResponseDTO{Error: authErr.Message, Code: string(authErr.Key)})
}

func authStatus(err *service.AuthError) int {
	switch err.Key {
	case service.MsgInvalidCredentials:
		return http.StatusUnauthorized
	case service.MsgEmailNotConfirmed:
		return http.StatusForbidden
	case service.MsgAlreadyRegistered:
		return http.StatusConflict
	case service.MsgRateLimited:
		return http.StatusTooManyRequests
	case service.MsgWeakPassword:
		return http.StatusUnprocessableEntity
	case service.MsgConnection:
		return http.StatusServiceUnavailable
	}
	var apiErr *supabase.APIError
	if errors.As(err, &apiErr) && apiErr.Status >= 400 && apiErr.Status < 500 {
		return apiErr.Status
	}
	return http.StatusBadRequest
}

// decode reads and validates the body, writing a localized 400 on failure.
func (h *AuthHandler) decode(w http.ResponseWriter, r *http.Request, lang language.Tag, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponseDTO{Error: "Invalid JSON payload: " + err.Error()})
		return false
	}
	if err := h.validate.Struct(v); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 && verrs[0].Field() == "Email" {
			writeJSON(w, http.StatusBadRequest, dto.ErrorResponseDTO{
				Error: h.messages.Text(lang, service.MsgInvalidEmail),
				Code:  string(service.MsgInvalidEmail),
			})
			return false
		}
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponseDTO{Error: "Validation failed: " + err.Error()})
		return false
	}
	return true
}

func toAuthUser(u *supabase.User) *dto.AuthUserDTO {
	if u == nil {
		return nil
	}
	return &dto.AuthUserDTO{ID: u.ID, Email: u.Email, Name: u.Name(), EmailConfirmed: u.EmailConfirmedAt != nil}
}

func toSession(s *supabase.Session) *dto.SessionResponseDTO {
	if s == nil {
		return nil
	}
	return &dto.SessionResponseDTO{
		AccessToken:  s.AccessToken,
		RefreshToken: s.RefreshToken,
		TokenType:    s.TokenType,
		ExpiresIn:    s.ExpiresIn,
		ExpiresAt:    s.ExpiresAt,
		User:         toAuthUser(s.User),
	}
}

// signUp godoc
// @Summary Register a new account
// @Description Creates the account in the hosted auth service. A confirmation email is sent unless the project auto-confirms.
// @Tags auth
// @Accept json
// @Produce json
// @Param body body dto.SignUpRequestDTO true "Registration form"
// @Success 201 {object} dto.SignUpResponseDTO
// @Failure 400 {object} dto.ErrorResponseDTO
// @Failure 409 {object} dto.ErrorResponseDTO "Email already registered"
// @Failure 429 {object} dto.ErrorResponseDTO
// @Router /auth/signup [post]
func (h *AuthHandler) signUp(w http.ResponseWriter, r *http.Request) {
	lang := h.lang(r)

	// 1. Decode and validate
	var req dto.SignUpRequestDTO
	if !h.decode(w, r, lang, &req) {
		return
	}

	// 2. Register
	resp, err := h.authService.SignUp(r.Context(), lang, service.SignUpInput{
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Company:   req.Company,
		Role:      req.Role,
	})
	if err != nil {
		h.writeError(w, lang, err)
		return
	}

	// 3. Respond
	writeJSON(w, http.StatusCreated, dto.SignUpResponseDTO{
		User:                 toAuthUser(resp.User),
		Session:              toSession(resp.Session),
		ConfirmationRequired: resp.Session == nil,
	})
}

// signIn godoc
// @Summary Sign in with email and password
// @Tags auth
// @Accept json
// @Produce json
// @Param body body dto.SignInRequestDTO true "Credentials"
// @Success 200 {object} dto.SessionResponseDTO
// @Failure 400 {object} dto.ErrorResponseDTO
// @Failure 401 {object} dto.ErrorResponseDTO "Invalid credentials"
// @Failure 403 {object} dto.ErrorResponseDTO "Email not confirmed"
// @Router /auth/signin [post]
func (h *AuthHandler) signIn(w http.ResponseWriter, r *http.Request) {
	lang := h.lang(r)
	var req dto.SignInRequestDTO
	if !h.decode(w, r, lang, &req) {
		return
	}
	session, err := h.authService.SignIn(r.Context(), lang, req.Email, req.Password)
	if err != nil {
		h.writeError(w, lang, err)
		return
	}
	writeJSON(w, http.StatusOK, toSession(session))
}

// signOut godoc
// @Summary Sign out the current session
// @Tags auth
// @Security BearerAuth
// @Success 204
// @Failure 401 {object} dto.ErrorResponseDTO
// @Router /auth/signout [post]
func (h *AuthHandler) signOut(w http.ResponseWriter, r *http.Request) {
	lang := h.lang(r)
	token, ok := middleware.BearerToken(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, dto.ErrorResponseDTO{Error: "Authorization header missing"})
		return
	}
	if err := h.authService.SignOut(r.Context(), lang, token); err != nil {
		h.writeError(w, lang, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// refresh godoc
// @Summary Exchange a refresh token for a new session
// @Tags auth
// @Accept json
// @Produce json
// @Param body body dto.RefreshRequestDTO true "Refresh token"
// @Success 200 {object} dto.SessionResponseDTO
// @Failure 400 {object} dto.ErrorResponseDTO
// @Router /auth/refresh [post]
func (h *AuthHandler) refresh(w http.ResponseWriter, r *http.Request) {
	lang := h.lang(r)
	var req dto.RefreshRequestDTO
	if !h.decode(w, r, lang, &req) {
		return
	}
	session, err := h.authService.Refresh(r.Context(), lang, req.RefreshToken)
	if err != nil {
		h.writeError(w, lang, err)
		return
	}
	writeJSON(w, http.StatusOK, toSession(session))
}

// resetPassword godoc
// @Summary Send a password reset email
// @Tags auth
// @Accept json
// @Produce json
// @Param body body dto.EmailRequestDTO true "Account email"
// @Success 202 {object} dto.MessageResponseDTO
// @Failure 400 {object} dto.ErrorResponseDTO
// @Failure 429 {object} dto.ErrorResponseDTO
// @Router /auth/reset-password [post]
func (h *AuthHandler) resetPassword(w http.ResponseWriter, r *http.Request) {
	lang := h.lang(r)
	var req dto.EmailRequestDTO
	if !h.decode(w, r, lang, &req) {
		return
	}
	if err := h.authService.ResetPassword(r.Context(), lang, req.Email); err != nil {
		h.writeError(w, lang, err)
		return
	}
	writeJSON(w, http.StatusAccepted, dto.MessageResponseDTO{Message: "reset email sent"})
}

// resendConfirmation godoc
// @Summary Resend the sign-up confirmation email
// @Tags auth
// @Accept json
// @Produce json
// @Param body body dto.EmailRequestDTO true "Account email"
// @Success 202 {object} dto.MessageResponseDTO
// @Failure 400 {object} dto.ErrorResponseDTO
// @Failure 429 {object} dto.ErrorResponseDTO
// @Router /auth/resend-confirmation [post]
func (h *AuthHandler) resendConfirmation(w http.ResponseWriter, r *http.Request) {
	lang := h.lang(r)
	var req dto.EmailRequestDTO
	if !h.decode(w, r, lang, &req) {
		return
	}
	if err := h.authService.ResendConfirmation(r.Context(), lang, req.Email); err != nil {
		h.writeError(w, lang, err)
		return
	}
	writeJSON(w, http.StatusAccepted, dto.MessageResponseDTO{Message: "confirmation email sent"})
}

// currentUser godoc
// @Summary Get the user behind the access token
// @Tags auth
// @Security BearerAuth
// @Produce json
// @Success 200 {object} dto.AuthUserDTO
// @Failure 401 {object} dto.ErrorResponseDTO
// @Router /auth/user [get]
func (h *AuthHandler) currentUser(w http.ResponseWriter, r *http.Request) {
	lang := h.lang(r)
	token, ok := middleware.BearerToken(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, dto.ErrorResponseDTO{Error: "Authorization header missing"})
		return
	}
	u, err := h.authService.CurrentUser(r.Context(), lang, token)
	if err != nil {
		h.writeError(w, lang, err)
		return
	}
	writeJSON(w, http.StatusOK, toAuthUser(u))
}
