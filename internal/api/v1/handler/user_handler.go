package handler

import (
	"net/http"

	"clientzap/internal/api/v1/dto"
	"clientzap/internal/middleware"
	"clientzap/internal/model"
	"clientzap/internal/service"
	"clientzap/internal/util"

	"github.com/rs/zerolog"
)

// UserHandler handles user provisioning and profile endpoints.
type UserHandler struct {
	userSvc service.UserService
	logger  zerolog.Logger
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(userSvc service.UserService, logger zerolog.Logger) *UserHandler {
	return &UserHandler{userSvc: userSvc, logger: logger}
}

// RegisterRoutes mounts user routes.
func (h *UserHandler) RegisterRoutes(mux *http.ServeMux, authMw func(http.Handler) http.Handler) {
	mux.Handle("/users", authMw(http.HandlerFunc(h.createUser)))
	mux.Handle("/users/me", authMw(http.HandlerFunc(h.getMe)))
}

// createUser godoc
// @Summary Provision the local record for the authenticated user
// @Description Idempotent: the identity comes from the session token, and an existing record is left untouched.
// @Tags users
// @Produce json
// @Success 201 {object} dto.UserResponseDTO
// @Failure 401 {string} string "unauthorized"
// @Failure 500 {string} string "failed to create user"
// @Router /users [post]
func (h *UserHandler) createUser(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	claims, ok := r.Context().Value(middleware.ClaimsContextKey).(*util.Claims)
	if !ok || claims.Subject == "" {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	user, err := h.userSvc.CreateUser(r.Context(), claims.Subject, claims.Name, claims.Email)
	if err != nil {
		h.logger.Error().Err(err).Str("user_id", claims.Subject).Msg("failed to create user")
		http.Error(w, "failed to create user", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, userResponse(user))
}

// getMe godoc
// @Summary Get the authenticated user's record
// @Tags users
// @Produce json
// @Success 200 {object} dto.UserResponseDTO
// @Failure 401 {string} string "unauthorized"
// @Failure 404 {string} string "user not found"
// @Router /users/me [get]
func (h *UserHandler) getMe(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	userID, ok := r.Context().Value(middleware.UserContextKey).(string)
	if !ok || userID == "" {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	user, err := h.userSvc.GetUserByID(r.Context(), userID)
	if err != nil {
		h.logger.Error().Err(err).Str("user_id", userID).Msg("failed to fetch user")
		http.Error(w, "failed to fetch user", http.StatusInternalServerError)
		return
	}
	if user == nil {
		http.Error(w, "user not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, userResponse(user))
}

func userResponse(u *model.User) dto.UserResponseDTO {
	return dto.UserResponseDTO{
		UserID:             u.UserID,
		Name:               u.Name,
		Email:              u.Email,
		SubscriptionType:   u.SubscriptionType,
		SubscriptionStatus: u.SubscriptionStatus,
		SubscriptionEndsAt: u.SubscriptionEndsAt,
		CreatedAt:          u.CreatedAt,
	}
}
