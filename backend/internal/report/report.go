// Package report builds the coordinator's academic performance report.
package report

import (
	"context"
	"fmt"
	"sort"

	"github.com/rs/zerolog"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"teachers_portal/backend/internal/grade"
	"teachers_portal/backend/internal/gradebook"
	"teachers_portal/backend/internal/roster"
	"teachers_portal/backend/internal/shared"
)

// StudentFinder lists the students of a class.
type StudentFinder interface {
	Find(ctx context.Context, q roster.Query) ([]roster.Record, error)
}

// AverageReader reads the persisted subject averages of students.
type AverageReader interface {
	AveragesForStudents(ctx context.Context, studentIDs []string) (grade.Averages, error)
}

// StudentAverage is one row of the report.
type StudentAverage struct {
	ID       string             `json:"id"`
	Name     string             `json:"name"`
	Averages map[string]float64 `json:"averages"`
	Overall  float64            `json:"overall_average"`
}

// Summary holds the class-wide figures.
type Summary struct {
	ClassAverage float64 `json:"class_average"`
	Highest      float64 `json:"highest_average"`
	Lowest       float64 `json:"lowest_average"`
	PassingRate  string  `json:"passing_rate"`
}

// ClassReport is the report of one grade and section.
type ClassReport struct {
	Grade    string           `json:"grade"`
	Section  string           `json:"section"`
	Subjects []string         `json:"subjects"`
	Students []StudentAverage `json:"students"`
	Summary
}

// Options are the selector choices of the coordinator dashboard.
type Options struct {
	Grades          []string `json:"grades"`
	Sections        []string `json:"sections"`
	SelectedSection string   `json:"selected_section"`
	Subjects        []string `json:"subjects"`
}

// Service computes class reports.
type Service struct {
	students StudentFinder
	averages AverageReader
	subjects []string
	passing  float64
	logger   zerolog.Logger
}

// NewService creates a report service. subjects are the columns always shown;
// passing is the lowest overall average that counts as passing.
func NewService(students StudentFinder, averages AverageReader, subjects []string, passing float64, logger zerolog.Logger) *Service {
	return &Service{
		students: students,
		averages: averages,
		subjects: append([]string{}, subjects...),
		passing:  passing,
		logger:   logger.With().Str("component", "report").Logger(),
	}
}

// Options returns the grade choices and the sections of gradeLabel. An empty
// or unknown label yields no sections.
func (s *Service) Options(gradeLabel string) Options {
	opts := Options{
		Grades:   shared.GradeOptions(),
		Sections: []string{},
		Subjects: append([]string{}, s.subjects...),
	}
	if level := shared.GradeToInt(gradeLabel); level.Valid() {
		opts.Sections, opts.SelectedSection = shared.SectionsForGrade(level)
	}
	return opts
}

// ClassReport loads the class and joins the persisted averages. Rows are
// ordered by overall average, best first.
func (s *Service) ClassReport(ctx context.Context, gradeLabel, section string) (*ClassReport, error) {
	// 1. Validate the selection
	level := shared.GradeToInt(gradeLabel)
	if !level.Valid() {
		return nil, status.Errorf(codes.InvalidArgument, "unknown grade %q", gradeLabel)
	}
	sections, _ := shared.SectionsForGrade(level)
	if !containsString(sections, section) {
		return nil, status.Errorf(codes.InvalidArgument, "section %q is not valid for %s", section, gradeLabel)
	}

	// 2. Averages are joined by student, whatever section the teacher graded under
	records, err := s.students.Find(ctx, roster.Query{GradeLevel: level, Section: section})
	if err != nil {
		s.logger.Error().Err(err).Str("grade", gradeLabel).Str("section", section).Msg("failed to load class students")
		return nil, status.Error(codes.Internal, "failed to load class data")
	}
	ids := make([]string, 0, len(records))
	for _, r := range records {
		ids = append(ids, r.ID)
	}
	averages, err := s.averages.AveragesForStudents(ctx, ids)
	if err != nil {
		s.logger.Error().Err(err).Str("grade", gradeLabel).Str("section", section).Msg("failed to load class averages")
		return nil, status.Error(codes.Internal, "failed to load class data")
	}

	// 3. Join and aggregate
	rows := make([]StudentAverage, 0, len(records))
	for _, r := range records {
		subj := make(map[string]float64, len(averages[r.ID]))
		for k, v := range averages[r.ID] {
			subj[k] = v
		}
		rows = append(rows, StudentAverage{
			ID:       r.ID,
			Name:     r.Name(),
			Averages: subj,
			Overall:  OverallAverage(subj),
		})
	}
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].Overall != rows[j].Overall {
			return rows[i].Overall > rows[j].Overall
		}
		return rows[i].Name < rows[j].Name
	})

	return &ClassReport{
		Grade:    shared.IntToGrade(level),
		Section:  section,
		Subjects: s.columns(rows),
		Students: rows,
		Summary:  Summarize(rows, s.passing),
	}, nil
}

// columns is the configured subject list followed by any other subject found, sorted.
func (s *Service) columns(rows []StudentAverage) []string {
	cols := append([]string{}, s.subjects...)
	known := make(map[string]bool, len(cols))
	for _, c := range cols {
		known[c] = true
	}

	var extra []string
	for _, r := range rows {
		for subject := range r.Averages {
			if !known[subject] {
				known[subject] = true
				extra = append(extra, subject)
			}
		}
	}
	sort.Strings(extra)
	return append(cols, extra...)
}

// OverallAverage is the mean of the subject averages, rounded to one decimal.
func OverallAverage(subjects map[string]float64) float64 {
	if len(subjects) == 0 {
		return 0
	}
	values := make([]float64, 0, len(subjects))
	for _, v := range subjects {
		values = append(values, v)
	}
	sort.Float64s(values)
	var total float64
	for _, v := range values {
		total += v
	}
	return gradebook.Round1(total / float64(len(values)))
}

// Summarize computes the class figures. An empty class is all zeros.
func Summarize(rows []StudentAverage, passing float64) Summary {
	if len(rows) == 0 {
		return Summary{PassingRate: "0.0%"}
	}

	sum := Summary{Highest: rows[0].Overall, Lowest: rows[0].Overall}
	var total float64
	passed := 0
	for _, r := range rows {
		total += r.Overall
		if r.Overall > sum.Highest {
			sum.Highest = r.Overall
		}
		if r.Overall < sum.Lowest {
			sum.Lowest = r.Overall
		}
		if r.Overall >= passing {
			passed++
		}
	}
	sum.ClassAverage = gradebook.Round1(total / float64(len(rows)))
	sum.PassingRate = fmt.Sprintf("%.1f%%", float64(passed)/float64(len(rows))*100)
	return sum
}

func containsString(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
