package handlers

import (
	"context"
	"net/http"
	"time"

	"teachers_portal/backend/internal/gateway/util"
)

// CoordinatorHandler serves the class reports.
type CoordinatorHandler struct {
	Reports ReportService
}

// Options handles GET /coordinator/options
// Query Params: grade (optional) - when set, its sections are included
func (h *CoordinatorHandler) Options(w http.ResponseWriter, r *http.Request) {
	grade := r.URL.Query().Get("grade")
	util.WriteJSON(w, http.StatusOK, h.Reports.Options(grade))
}

// Report handles GET /coordinator/report
// Query Params: grade, section
func (h *CoordinatorHandler) Report(w http.ResponseWriter, r *http.Request) {
	// 1. Extract Query Parameters
	grade := r.URL.Query().Get("grade")
	section := r.URL.Query().Get("section")

	// 2. Build the report
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	report, err := h.Reports.ClassReport(ctx, grade, section)
	if err != nil {
		util.HandleServiceError(w, err)
		return
	}

	util.WriteJSON(w, http.StatusOK, report)
}
