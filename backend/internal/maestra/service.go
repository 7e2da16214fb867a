// Package maestra serves the homeroom dashboard: student cards with their
// overall average and the editable contact and notes profile.
package maestra

import (
	"context"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"teachers_portal/backend/internal/grade"
	"teachers_portal/backend/internal/report"
	"teachers_portal/backend/internal/roster"
	"teachers_portal/backend/internal/shared"
)

// AverageReader reads persisted subject averages by student.
type AverageReader interface {
	AveragesForStudents(ctx context.Context, studentIDs []string) (grade.Averages, error)
}

// Student is a card on the maestra dashboard.
type Student struct {
	ID             string  `json:"id"`
	Name           string  `json:"name"`
	Initials       string  `json:"initials"`
	Grade          string  `json:"grade"`
	Section        string  `json:"section"`
	OverallAverage float64 `json:"overall_average"`
	roster.Profile
}

// Service lists and edits students.
type Service struct {
	students  roster.Store
	averages  AverageReader
	auditor   shared.Auditor
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewService creates the maestra service.
func NewService(students roster.Store, averages AverageReader, auditor shared.Auditor, validate *validator.Validate, logger zerolog.Logger) *Service {
	if auditor == nil {
		auditor = shared.NopAuditor{}
	}
	return &Service{
		students:  students,
		averages:  averages,
		auditor:   auditor,
		validator: validate,
		logger:    logger.With().Str("component", "maestra").Logger(),
	}
}

// ListStudents returns the students of a grade and section.
func (s *Service) ListStudents(ctx context.Context, gradeLabel, section string) ([]Student, error) {
	level := shared.GradeToInt(gradeLabel)
	if !level.Valid() || section == "" {
		return nil, status.Error(codes.InvalidArgument, "grade and section are required")
	}

	records, err := s.students.Find(ctx, roster.Query{GradeLevel: level, Section: section})
	if err != nil {
		s.logger.Error().Err(err).Str("grade", gradeLabel).Str("section", section).Msg("failed to load students")
		return nil, status.Error(codes.Internal, "failed to load students")
	}

	ids := make([]string, len(records))
	for i, r := range records {
		ids[i] = r.ID
	}
	averages, err := s.averages.AveragesForStudents(ctx, ids)
	if err != nil {
		// cards are still useful without averages
		s.logger.Warn().Err(err).Msg("failed to load averages")
		averages = grade.Averages{}
	}

	out := make([]Student, 0, len(records))
	for _, r := range records {
		out = append(out, toStudent(r, averages[r.ID]))
	}
	return out, nil
}

// UpdateProfile saves the editable fields of a student and returns the
// refreshed card.
func (s *Service) UpdateProfile(ctx context.Context, actorID, studentID string, p roster.Profile) (Student, error) {
	if studentID == "" {
		return Student{}, status.Error(codes.InvalidArgument, "student id is required")
	}
	if err := s.validator.Struct(p); err != nil {
		return Student{}, status.Error(codes.InvalidArgument, shared.ValidationMessage(err))
	}

	record, err := s.students.UpdateProfile(ctx, studentID, p)
	if err != nil {
		return Student{}, err
	}

	var subjects map[string]float64
	if averages, err := s.averages.AveragesForStudents(ctx, []string{record.ID}); err == nil {
		subjects = averages[record.ID]
	}

	s.auditor.LogEvent(ctx, actorID, shared.ActionProfileUpdate, studentID, map[string]interface{}{
		"contact_email": p.ContactEmail,
		"parent_name":   p.ParentName,
	})
	return toStudent(record, subjects), nil
}

func toStudent(r roster.Record, subjects map[string]float64) Student {
	return Student{
		ID:             r.ID,
		Name:           r.Name(),
		Initials:       roster.Initials(r.FirstNames, r.LastNames),
		Grade:          shared.IntToGrade(r.GradeLevel),
		Section:        r.Section,
		OverallAverage: report.OverallAverage(subjects),
		Profile:        r.Profile,
	}
}
