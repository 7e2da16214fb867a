package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"

	"teachers_portal/backend/internal/auth"
	"teachers_portal/backend/internal/gateway/util"
	"teachers_portal/backend/internal/shared"
)

// AuthHandler serves registration and sessions.
type AuthHandler struct {
	Auth       AuthService
	Workspaces Workspaces
	Validate   *validator.Validate
}

// RESTLoginRequest mirrors the expected JSON input for /auth/login
type RESTLoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// Register handles POST /auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	// 1. Decode the form; the service owns the field rules
	var req auth.RegisterRequest
	if !util.DecodeJSON(w, r, nil, &req) {
		return
	}

	// 2. Create the account
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	result, err := h.Auth.Register(ctx, &req)
	if err != nil {
		util.HandleServiceError(w, err)
		return
	}

	util.WriteJSON(w, http.StatusCreated, result)
}

// Login handles POST /auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req RESTLoginRequest
	if !util.DecodeJSON(w, r, h.Validate, &req) {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	result, err := h.Auth.Login(ctx, req.Email, req.Password)
	if err != nil {
		util.HandleServiceError(w, err)
		return
	}

	util.WriteJSON(w, http.StatusOK, result)
}

// Logout handles POST /auth/logout. The caller's gradebook workspace is
// discarded along with the session.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	identity := util.IdentityFrom(r)
	if identity == nil {
		util.WriteJSONError(w, http.StatusUnauthorized, "Authorization token required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := h.Auth.Logout(ctx, identity.Token); err != nil {
		util.HandleServiceError(w, err)
		return
	}
	if h.Workspaces != nil {
		h.Workspaces.Drop(identity.User.ID)
	}

	util.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Logged out successfully",
	})
}

// Me handles GET /auth/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	identity := util.IdentityFrom(r)
	if identity == nil {
		util.WriteJSONError(w, http.StatusUnauthorized, "Authorization token required")
		return
	}

	util.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"user":     identity.User,
		"role":     identity.Role,
		"redirect": shared.DashboardPath(identity.Role),
	})
}
