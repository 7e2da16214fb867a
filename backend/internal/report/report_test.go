package report

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"teachers_portal/backend/internal/grade"
	"teachers_portal/backend/internal/roster"
	"teachers_portal/backend/internal/shared"
)

type stubStudents struct {
	records []roster.Record
	err     error
	got     roster.Query
}

func (s *stubStudents) Find(_ context.Context, q roster.Query) ([]roster.Record, error) {
	s.got = q
	return s.records, s.err
}

type stubAverages struct {
	averages grade.Averages
	err      error
	ids      []string
}

func (s *stubAverages) AveragesForStudents(_ context.Context, ids []string) (grade.Averages, error) {
	s.ids = ids
	return s.averages, s.err
}

var subjects = []string{"Matemáticas", "Inglés"}

func TestOverallAverage(t *testing.T) {
	assert.Equal(t, 0.0, OverallAverage(nil))
	assert.Equal(t, 15.0, OverallAverage(map[string]float64{"a": 14, "b": 16}))
	assert.Equal(t, 13.7, OverallAverage(map[string]float64{"a": 12, "b": 14, "c": 15}))
}

func TestSummarize(t *testing.T) {
	t.Run("empty class", func(t *testing.T) {
		assert.Equal(t, Summary{PassingRate: "0.0%"}, Summarize(nil, 10))
	})

	t.Run("figures", func(t *testing.T) {
		rows := []StudentAverage{{Overall: 18}, {Overall: 10}, {Overall: 9.9}}
		sum := Summarize(rows, 10)
		assert.Equal(t, 12.6, sum.ClassAverage)
		assert.Equal(t, 18.0, sum.Highest)
		assert.Equal(t, 9.9, sum.Lowest)
		assert.Equal(t, "66.7%", sum.PassingRate)
	})
}

func TestClassReport(t *testing.T) {
	students := &stubStudents{records: []roster.Record{
		{ID: "s1", FirstNames: "ana maria", LastNames: "perez"},
		{ID: "s2", FirstNames: "bruno", LastNames: "diaz"},
		{ID: "s3", FirstNames: "carla", LastNames: "ruiz"},
	}}
	averages := &stubAverages{averages: grade.Averages{
		"s1": {"Matemáticas": 12, "Inglés": 14},
		"s2": {"Matemáticas": 18, "Química": 16},
		"other-class": {"Arte": 20},
	}}
	svc := NewService(students, averages, subjects, 10, zerolog.Nop())

	rep, err := svc.ClassReport(context.Background(), "2nd Year", "A")
	require.NoError(t, err)

	assert.Equal(t, roster.Query{GradeLevel: 10, Section: "A"}, students.got)
	assert.Equal(t, []string{"s1", "s2", "s3"}, averages.ids)
	assert.Equal(t, "2nd Year", rep.Grade)
	assert.Equal(t, []string{"Matemáticas", "Inglés", "Química"}, rep.Subjects)

	require.Len(t, rep.Students, 3)
	assert.Equal(t, "Bruno Diaz", rep.Students[0].Name)
	assert.Equal(t, 17.0, rep.Students[0].Overall)
	assert.Equal(t, "Ana Perez", rep.Students[1].Name)
	assert.Equal(t, 13.0, rep.Students[1].Overall)
	assert.Equal(t, "Carla Ruiz", rep.Students[2].Name)
	assert.Equal(t, 0.0, rep.Students[2].Overall)
	assert.Empty(t, rep.Students[2].Averages)

	assert.Equal(t, 10.0, rep.ClassAverage)
	assert.Equal(t, 17.0, rep.Highest)
	assert.Equal(t, 0.0, rep.Lowest)
	assert.Equal(t, "66.7%", rep.PassingRate)
}

func TestClassReportValidation(t *testing.T) {
	svc := NewService(&stubStudents{}, &stubAverages{}, subjects, 10, zerolog.Nop())

	_, err := svc.ClassReport(context.Background(), "Kinder", "U")
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = svc.ClassReport(context.Background(), "3rd Grade", "A")
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = svc.ClassReport(context.Background(), "1st Year", "U")
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	rep, err := svc.ClassReport(context.Background(), "3rd Grade", "U")
	require.NoError(t, err)
	assert.Empty(t, rep.Students)
	assert.Equal(t, "0.0%", rep.PassingRate)
}

func TestClassReportLookupFailure(t *testing.T) {
	svc := NewService(&stubStudents{}, &stubAverages{err: errors.New("timeout")}, subjects, 10, zerolog.Nop())
	_, err := svc.ClassReport(context.Background(), "1st Year", "B")
	assert.Equal(t, codes.Internal, status.Code(err))

	svc = NewService(&stubStudents{err: errors.New("timeout")}, &stubAverages{}, subjects, 10, zerolog.Nop())
	_, err = svc.ClassReport(context.Background(), "1st Year", "B")
	assert.Equal(t, codes.Internal, status.Code(err))
}

func TestClassReportPrimariaUsesStudentAverages(t *testing.T) {
	// primaria grades are saved without a section; the class is reported as "U"
	students := &stubStudents{records: []roster.Record{
		{ID: "p1", FirstNames: "eva", LastNames: "luna", GradeLevel: 4, Section: "U"},
	}}
	averages := &stubAverages{averages: grade.Averages{"p1": {"Lectura": 18}}}
	svc := NewService(students, averages, subjects, 10, zerolog.Nop())

	rep, err := svc.ClassReport(context.Background(), shared.IntToGrade(4), "U")
	require.NoError(t, err)
	assert.Equal(t, []string{"p1"}, averages.ids)
	require.Len(t, rep.Students, 1)
	assert.Equal(t, 18.0, rep.Students[0].Overall)
	assert.Equal(t, "100.0%", rep.PassingRate)
}

func TestOptions(t *testing.T) {
	svc := NewService(&stubStudents{}, &stubAverages{}, subjects, 10, zerolog.Nop())

	opts := svc.Options("")
	assert.Len(t, opts.Grades, 13)
	assert.Empty(t, opts.Sections)
	assert.Equal(t, subjects, opts.Subjects)

	opts = svc.Options("5th Grade")
	assert.Equal(t, []string{"U"}, opts.Sections)
	assert.Equal(t, "U", opts.SelectedSection)

	opts = svc.Options("4th Year")
	assert.Equal(t, []string{"A", "B"}, opts.Sections)
	assert.Empty(t, opts.SelectedSection)
}
