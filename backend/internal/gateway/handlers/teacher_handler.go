package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"

	"teachers_portal/backend/internal/gateway/util"
	"teachers_portal/backend/internal/teacher"
)

// TeacherHandler serves the teacher dashboard and its gradebook.
type TeacherHandler struct {
	Workspaces Workspaces
	Validate   *validator.Validate
}

type RESTSubjectRequest struct {
	Subject string `json:"subject" validate:"required"`
}

type RESTSectionRequest struct {
	Section string `json:"section" validate:"required"`
}

// RESTActivityRequest adds a column. Date comes from a date input (YYYY-MM-DD).
type RESTActivityRequest struct {
	Description string `json:"description" validate:"required,max=200"`
	Date        string `json:"date" validate:"omitempty,datetime=2006-01-02"`
}

// RESTGradeRequest edits one cell. An empty value clears it.
type RESTGradeRequest struct {
	StudentID  string `json:"student_id" validate:"required"`
	ActivityID string `json:"activity_id" validate:"required"`
	Value      string `json:"value" validate:"max=16"`
}

type RESTSaveGradeRequest struct {
	StudentID  string `json:"student_id" validate:"required"`
	ActivityID string `json:"activity_id" validate:"required"`
}

type RESTReorderRequest struct {
	DraggedID string `json:"dragged_id" validate:"required"`
	TargetID  string `json:"target_id" validate:"required"`
}

// workspace resolves the caller's workspace; nil means a response was written.
func (h *TeacherHandler) workspace(w http.ResponseWriter, r *http.Request) *teacher.Workspace {
	identity := util.IdentityFrom(r)
	if identity == nil {
		util.WriteJSONError(w, http.StatusUnauthorized, "Authorization token required")
		return nil
	}
	return h.Workspaces.Workspace(identity.User)
}

// Dashboard handles GET /teacher/dashboard
func (h *TeacherHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	ws := h.workspace(w, r)
	if ws == nil {
		return
	}

	util.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"dashboard": ws.Dashboard(),
		"gradebook": ws.View(),
	})
}

// SelectSubject handles PUT /teacher/selection/subject
func (h *TeacherHandler) SelectSubject(w http.ResponseWriter, r *http.Request) {
	ws := h.workspace(w, r)
	if ws == nil {
		return
	}
	var req RESTSubjectRequest
	if !util.DecodeJSON(w, r, h.Validate, &req) {
		return
	}

	view, err := ws.SelectSubject(req.Subject)
	if err != nil {
		util.HandleServiceError(w, err)
		return
	}
	util.WriteJSON(w, http.StatusOK, view)
}

// SelectSection handles PUT /teacher/selection/section
func (h *TeacherHandler) SelectSection(w http.ResponseWriter, r *http.Request) {
	ws := h.workspace(w, r)
	if ws == nil {
		return
	}
	var req RESTSectionRequest
	if !util.DecodeJSON(w, r, h.Validate, &req) {
		return
	}

	view, err := ws.SelectSection(req.Section)
	if err != nil {
		util.HandleServiceError(w, err)
		return
	}
	util.WriteJSON(w, http.StatusOK, view)
}

// LoadStudents handles POST /teacher/gradebook/load
func (h *TeacherHandler) LoadStudents(w http.ResponseWriter, r *http.Request) {
	ws := h.workspace(w, r)
	if ws == nil {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	view, err := ws.LoadStudents(ctx)
	if err != nil {
		util.HandleServiceError(w, err)
		return
	}
	util.WriteJSON(w, http.StatusOK, view)
}

// Gradebook handles GET /teacher/gradebook
func (h *TeacherHandler) Gradebook(w http.ResponseWriter, r *http.Request) {
	ws := h.workspace(w, r)
	if ws == nil {
		return
	}
	util.WriteJSON(w, http.StatusOK, ws.View())
}

// AddActivity handles POST /teacher/gradebook/activities
func (h *TeacherHandler) AddActivity(w http.ResponseWriter, r *http.Request) {
	ws := h.workspace(w, r)
	if ws == nil {
		return
	}
	var req RESTActivityRequest
	if !util.DecodeJSON(w, r, h.Validate, &req) {
		return
	}

	activity, err := ws.AddActivity(req.Description, req.Date)
	if err != nil {
		util.HandleServiceError(w, err)
		return
	}
	util.WriteJSON(w, http.StatusCreated, activity)
}

// SetGrade handles PUT /teacher/gradebook/grades
// Responds with the student's row so the average can be redrawn.
func (h *TeacherHandler) SetGrade(w http.ResponseWriter, r *http.Request) {
	ws := h.workspace(w, r)
	if ws == nil {
		return
	}
	var req RESTGradeRequest
	if !util.DecodeJSON(w, r, h.Validate, &req) {
		return
	}

	student, err := ws.SetGrade(req.StudentID, req.ActivityID, req.Value)
	if err != nil {
		util.HandleServiceError(w, err)
		return
	}
	util.WriteJSON(w, http.StatusOK, student)
}

// SaveGrade handles POST /teacher/gradebook/grades/save
// Persistence is asynchronous; 202 means the grade was handed to the writer.
func (h *TeacherHandler) SaveGrade(w http.ResponseWriter, r *http.Request) {
	ws := h.workspace(w, r)
	if ws == nil {
		return
	}
	var req RESTSaveGradeRequest
	if !util.DecodeJSON(w, r, h.Validate, &req) {
		return
	}

	if err := ws.SaveGrade(req.StudentID, req.ActivityID); err != nil {
		util.HandleServiceError(w, err)
		return
	}
	util.WriteJSON(w, http.StatusAccepted, map[string]interface{}{
		"success": true,
		"message": "Grade queued for saving",
	})
}

// Reorder handles POST /teacher/gradebook/reorder
func (h *TeacherHandler) Reorder(w http.ResponseWriter, r *http.Request) {
	ws := h.workspace(w, r)
	if ws == nil {
		return
	}
	var req RESTReorderRequest
	if !util.DecodeJSON(w, r, h.Validate, &req) {
		return
	}

	util.WriteJSON(w, http.StatusOK, ws.Reorder(req.DraggedID, req.TargetID))
}
