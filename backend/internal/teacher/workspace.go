package teacher

import (
	"context"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"teachers_portal/backend/internal/grade"
	"teachers_portal/backend/internal/gradebook"
	"teachers_portal/backend/internal/roster"
)

// RosterLoader fetches the students of a class.
type RosterLoader interface {
	LoadRoster(ctx context.Context, q roster.Query) []gradebook.RosterEntry
}

// SinkFactory binds grade persistence to a class.
type SinkFactory interface {
	For(scope grade.Scope) gradebook.GradeSink
}

// Selection is the class currently picked on the dashboard.
type Selection struct {
	Subject             string   `json:"subject"`
	Section             string   `json:"section"`
	SectionOptions      []string `json:"section_options"`
	ShowSectionSelector bool     `json:"show_section_selector"`
}

// complete reports whether a roster can be loaded for the selection.
func (s Selection) complete() bool {
	if s.Subject == "" {
		return false
	}
	return !s.ShowSectionSelector || s.Section != ""
}

// View is a snapshot of the workspace.
type View struct {
	State      string               `json:"state"`
	Loading    bool                 `json:"loading"`
	Selection  Selection            `json:"selection"`
	Activities []gradebook.Activity `json:"activities"`
	Students   []gradebook.Student  `json:"students"`
}

// Workspace is the gradebook of one signed-in teacher. Every method is
// safe for concurrent use.
type Workspace struct {
	teacherID string
	dashboard Dashboard
	roster    RosterLoader
	sinks     SinkFactory
	logger    zerolog.Logger

	mu         sync.Mutex
	selection  Selection
	session    *gradebook.Session
	generation uint64
	loading    bool
}

// NewWorkspace creates an empty workspace for the teacher.
func NewWorkspace(teacherID string, dashboard Dashboard, loader RosterLoader, sinks SinkFactory, logger zerolog.Logger) *Workspace {
	return &Workspace{
		teacherID: teacherID,
		dashboard: dashboard,
		roster:    loader,
		sinks:     sinks,
		logger:    logger.With().Str("component", "workspace").Str("teacher_id", teacherID).Logger(),
		selection: Selection{SectionOptions: []string{}},
		session:   gradebook.NewSession(nil),
	}
}

// Dashboard returns the dashboard the workspace was built from.
func (w *Workspace) Dashboard() Dashboard {
	return w.dashboard
}

// SelectSubject picks a subject and recomputes the section choices. With a
// single section it is selected right away.
func (w *Workspace) SelectSubject(subject string) (View, error) {
	subject = strings.TrimSpace(subject)
	if !w.dashboard.hasSubject(subject) {
		return View{}, status.Errorf(codes.InvalidArgument, "subject %q is not assigned to this teacher", subject)
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	options := w.dashboard.SectionsFor(subject)
	sel := Selection{Subject: subject, SectionOptions: options}
	switch len(options) {
	case 0:
		sel.ShowSectionSelector = false
	case 1:
		sel.Section = options[0]
		sel.ShowSectionSelector = true
	default:
		sel.ShowSectionSelector = true
	}

	w.selection = sel
	w.invalidate()
	return w.view(), nil
}

// SelectSection picks one of the offered sections.
func (w *Workspace) SelectSection(section string) (View, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.selection.Subject == "" {
		return View{}, status.Error(codes.FailedPrecondition, "select a subject first")
	}
	if !contains(w.selection.SectionOptions, section) {
		return View{}, status.Errorf(codes.InvalidArgument, "section %q is not offered for %s", section, w.selection.Subject)
	}

	w.selection.Section = section
	w.invalidate()
	return w.view(), nil
}

// LoadStudents fetches the roster of the selected class into a fresh
// session. If the selection changes while the fetch is in flight the
// result is discarded.
func (w *Workspace) LoadStudents(ctx context.Context) (View, error) {
	// 1. Validate the selection and reset under the lock
	w.mu.Lock()
	sel := w.selection
	if !sel.complete() {
		w.mu.Unlock()
		return View{}, status.Error(codes.FailedPrecondition, "select a subject and section first")
	}
	assignment, ok := w.dashboard.resolve(sel.Subject, sel.Section)
	if !ok {
		w.mu.Unlock()
		return View{}, status.Errorf(codes.FailedPrecondition, "no class assigned for %s %s", sel.Subject, sel.Section)
	}
	w.invalidate()
	gen := w.generation
	w.loading = true
	w.mu.Unlock()

	// 2. Fetch without holding the lock
	entries := w.roster.LoadRoster(ctx, roster.Query{GradeLevel: assignment.GradeLevel, Section: sel.Section})

	// 3. Apply only if nothing changed meanwhile
	w.mu.Lock()
	defer w.mu.Unlock()

	if gen != w.generation {
		w.logger.Debug().Str("subject", sel.Subject).Msg("discarding stale roster load")
		return w.view(), nil
	}

	w.loading = false
	w.session.LoadRoster(entries)
	w.session.SetSink(w.sinks.For(grade.Scope{
		TeacherID:  w.teacherID,
		Subject:    sel.Subject,
		GradeLevel: assignment.GradeLevel,
		Section:    sel.Section,
	}))

	w.logger.Info().
		Str("subject", sel.Subject).
		Str("section", sel.Section).
		Int("students", len(entries)).
		Msg("gradebook loaded")
	return w.view(), nil
}

// AddActivity appends a gradable column.
func (w *Workspace) AddActivity(description, date string) (gradebook.Activity, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if description == "" {
		return gradebook.Activity{}, status.Error(codes.InvalidArgument, "description is required")
	}
	activity, ok := w.session.AddActivity(description, date)
	if !ok {
		return gradebook.Activity{}, status.Error(codes.FailedPrecondition, "no students loaded")
	}
	return activity, nil
}

// SetGrade edits a cell and returns the student's updated row.
func (w *Workspace) SetGrade(studentID, activityID, value string) (gradebook.Student, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.checkActivity(activityID); err != nil {
		return gradebook.Student{}, err
	}
	if !w.session.SetGrade(studentID, activityID, value) {
		return gradebook.Student{}, status.Errorf(codes.NotFound, "student %s is not in the gradebook", studentID)
	}
	return w.student(studentID), nil
}

// SaveGrade commits a cell to persistence.
func (w *Workspace) SaveGrade(studentID, activityID string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.checkActivity(activityID); err != nil {
		return err
	}
	if !w.session.SaveGrade(studentID, activityID) {
		return status.Errorf(codes.NotFound, "no grade for student %s and activity %s", studentID, activityID)
	}
	return nil
}

// Reorder moves a student before another one. Unknown ids leave the order as is.
func (w *Workspace) Reorder(draggedID, targetID string) View {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.session.ReorderStudents(draggedID, targetID)
	return w.view()
}

// View returns a snapshot of the workspace.
func (w *Workspace) View() View {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.view()
}

// invalidate drops the session and fences off in-flight loads. Callers hold mu.
func (w *Workspace) invalidate() {
	w.generation++
	w.loading = false
	w.session.Reset()
	w.session.SetSink(nil)
}

// checkActivity rejects cells for columns the gradebook does not have. Callers hold mu.
func (w *Workspace) checkActivity(activityID string) error {
	for _, a := range w.session.Activities() {
		if a.ID == activityID {
			return nil
		}
	}
	return status.Errorf(codes.NotFound, "activity %s is not in the gradebook", activityID)
}

func (w *Workspace) view() View {
	sel := w.selection
	sel.SectionOptions = append([]string{}, sel.SectionOptions...)
	return View{
		State:      w.session.State().String(),
		Loading:    w.loading,
		Selection:  sel,
		Activities: w.session.Activities(),
		Students:   w.session.Students(),
	}
}

func (w *Workspace) student(id string) gradebook.Student {
	for _, st := range w.session.Students() {
		if st.ID == id {
			return st
		}
	}
	return gradebook.Student{}
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
