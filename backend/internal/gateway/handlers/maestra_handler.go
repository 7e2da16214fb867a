package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"teachers_portal/backend/internal/gateway/util"
	"teachers_portal/backend/internal/roster"
)

// MaestraHandler serves the student cards of the maestra dashboard.
type MaestraHandler struct {
	Students StudentDirectory
}

// ListStudents handles GET /maestra/students
// Query Params: grade, section
func (h *MaestraHandler) ListStudents(w http.ResponseWriter, r *http.Request) {
	grade := r.URL.Query().Get("grade")
	section := r.URL.Query().Get("section")

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	students, err := h.Students.ListStudents(ctx, grade, section)
	if err != nil {
		util.HandleServiceError(w, err)
		return
	}

	util.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"success":  true,
		"students": students,
		"count":    len(students),
	})
}

// UpdateProfile handles PUT /maestra/students/{id}
func (h *MaestraHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	// 1. Path + body; the service validates the profile fields
	studentID := chi.URLParam(r, "id")
	var profile roster.Profile
	if !util.DecodeJSON(w, r, nil, &profile) {
		return
	}

	// 2. The actor is recorded in the audit log
	actorID := ""
	if identity := util.IdentityFrom(r); identity != nil {
		actorID = identity.User.ID
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	student, err := h.Students.UpdateProfile(ctx, actorID, studentID, profile)
	if err != nil {
		util.HandleServiceError(w, err)
		return
	}

	util.WriteJSON(w, http.StatusOK, student)
}
