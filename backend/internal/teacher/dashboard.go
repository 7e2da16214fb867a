// Package teacher serves the teacher dashboard: the class selection and the
// gradebook workspace bound to it.
package teacher

import (
	"sort"

	"teachers_portal/backend/internal/shared"
)

const (
	defaultFirstName = "Docente"
	defaultSubject   = "General"
)

// Assignment is a class the teacher grades.
type Assignment struct {
	Subject    string            `json:"subject"`
	Grade      string            `json:"grade"`
	GradeLevel shared.GradeLevel `json:"grade_level"`
	Section    string            `json:"section"`
	Level      string            `json:"level,omitempty"`
}

// Dashboard is the header data of the teacher dashboard.
type Dashboard struct {
	FirstName   string       `json:"first_name"`
	LastName    string       `json:"last_name"`
	Assignments []Assignment `json:"assignments"`
	Subjects    []string     `json:"subjects"`
}

// NewDashboard builds the dashboard of a signed-in teacher.
func NewDashboard(user *shared.User) Dashboard {
	d := Dashboard{
		FirstName:   user.FirstName,
		LastName:    user.LastName,
		Assignments: []Assignment{},
	}
	if d.FirstName == "" {
		d.FirstName = defaultFirstName
	}

	seen := make(map[string]bool)
	for _, a := range user.Assignments {
		subject := a.Area
		if subject == "" {
			subject = defaultSubject
		}
		d.Assignments = append(d.Assignments, Assignment{
			Subject:    subject,
			Grade:      shared.IntToGrade(a.Grade),
			GradeLevel: a.Grade,
			Section:    a.Section,
			Level:      a.Level,
		})
		if !seen[subject] {
			seen[subject] = true
			d.Subjects = append(d.Subjects, subject)
		}
	}
	sort.Strings(d.Subjects)
	if d.Subjects == nil {
		d.Subjects = []string{}
	}
	return d
}

// SectionsFor returns the sorted distinct sections the teacher has for a subject.
func (d Dashboard) SectionsFor(subject string) []string {
	seen := make(map[string]bool)
	sections := []string{}
	for _, a := range d.Assignments {
		if a.Subject != subject || a.Section == "" || seen[a.Section] {
			continue
		}
		seen[a.Section] = true
		sections = append(sections, a.Section)
	}
	sort.Strings(sections)
	return sections
}

// resolve finds the assignment behind a subject and section.
func (d Dashboard) resolve(subject, section string) (Assignment, bool) {
	for _, a := range d.Assignments {
		if a.Subject == subject && a.Section == section {
			return a, true
		}
	}
	return Assignment{}, false
}

func (d Dashboard) hasSubject(subject string) bool {
	for _, s := range d.Subjects {
		if s == subject {
			return true
		}
	}
	return false
}
