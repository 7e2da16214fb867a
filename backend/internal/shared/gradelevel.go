package shared

import (
	"fmt"
	"strconv"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
)

// GradeLevel is the numeric school grade: 1..8 are "Grado" (Primaria and
// the first years), 9..13 are the five "Año" of Media. 0 means unknown.
type GradeLevel int

const (
	MinGradeLevel GradeLevel = 1
	MaxGradeLevel GradeLevel = 13

	// Grades up to this level have a single "U" section.
	lastSingleSectionLevel GradeLevel = 8
)

var gradeLabels = [...]string{
	"1st Grade", "2nd Grade", "3rd Grade", "4th Grade", "5th Grade", "6th Grade", "7th Grade", "8th Grade",
	"1st Year", "2nd Year", "3rd Year", "4th Year", "5th Year",
}

var spanishGradeLabels = [...]string{
	"1er Grado", "2do Grado", "3er Grado", "4to Grado", "5to Grado", "6to Grado", "7mo Grado", "8vo Grado",
	"1er Año", "2do Año", "3er Año", "4to Año", "5to Año",
}

var labelToLevel = func() map[string]GradeLevel {
	m := make(map[string]GradeLevel, 2*len(gradeLabels))
	for i := range gradeLabels {
		m[gradeLabels[i]] = GradeLevel(i + 1)
		m[spanishGradeLabels[i]] = GradeLevel(i + 1)
	}
	return m
}()

// GradeToInt converts an English or Spanish grade label to its level, 0 when unknown
func GradeToInt(label string) GradeLevel {
	return labelToLevel[strings.TrimSpace(label)]
}

// IntToGrade returns the canonical label of a grade level
func IntToGrade(level GradeLevel) string {
	if level.Valid() {
		return gradeLabels[level-1]
	}
	return fmt.Sprintf("Grade %d", int(level))
}

// GradeOptions lists the canonical grade labels in school order
func GradeOptions() []string {
	out := make([]string, len(gradeLabels))
	copy(out, gradeLabels[:])
	return out
}

// Valid reports whether the level is inside 1..13
func (g GradeLevel) Valid() bool {
	return g >= MinGradeLevel && g <= MaxGradeLevel
}

// String implements fmt.Stringer
func (g GradeLevel) String() string {
	return IntToGrade(g)
}

// SectionsForGrade returns the selectable sections of a grade and the
// section that is preselected (empty when the user has to choose).
func SectionsForGrade(level GradeLevel) ([]string, string) {
	if level <= lastSingleSectionLevel {
		return []string{"U"}, "U"
	}
	return []string{"A", "B"}, ""
}

// UnmarshalBSONValue accepts grade levels stored as numbers or numeric strings.
func (g *GradeLevel) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	raw := bson.RawValue{Type: t, Value: data}
	switch t {
	case bsontype.Int32:
		*g = GradeLevel(raw.Int32())
	case bsontype.Int64:
		*g = GradeLevel(raw.Int64())
	case bsontype.Double:
		*g = GradeLevel(raw.Double())
	case bsontype.String:
		s := strings.TrimSpace(raw.StringValue())
		if s == "" {
			*g = 0
			return nil
		}
		n, err := strconv.Atoi(s)
		if err != nil {
			return fmt.Errorf("invalid grade level %q: %w", s, err)
		}
		*g = GradeLevel(n)
	case bsontype.Null, bsontype.Undefined:
		*g = 0
	default:
		return fmt.Errorf("cannot decode %s into grade level", t)
	}
	return nil
}
