// Package gradebook holds the in-memory grading session of one teacher:
// the ordered roster, the activity columns, every grade cell and the
// per-student averages derived from them.
package gradebook

import (
	"github.com/google/uuid"
)

// State is the coarse lifecycle state of a Session.
type State int

const (
	StateEmpty State = iota
	StateLoaded
)

func (s State) String() string {
	if s == StateLoaded {
		return "loaded"
	}
	return "empty"
}

// RosterEntry is one student as delivered by the roster source.
type RosterEntry struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Activity is a gradable column.
type Activity struct {
	ID          string `json:"id"`
	Description string `json:"description"`
	Date        string `json:"date"`
}

// Student is a roster row. Index is the 1-based display position.
type Student struct {
	ID      string            `json:"id"`
	Name    string            `json:"name"`
	Index   int               `json:"index"`
	Grades  map[string]string `json:"grades"`
	Average float64           `json:"average"`
}

// GradeRecord is what a grade sink receives when a cell is committed.
type GradeRecord struct {
	StudentID  string
	ActivityID string
	Value      string
	Average    float64
}

// GradeSink persists committed cells. Implementations must not block:
// the session hands the record over and never looks at the outcome.
type GradeSink interface {
	SaveGrade(rec GradeRecord)
}

// GradeSinkFunc adapts a function to GradeSink.
type GradeSinkFunc func(rec GradeRecord)

// SaveGrade implements GradeSink.
func (f GradeSinkFunc) SaveGrade(rec GradeRecord) { f(rec) }

type discardSink struct{}

func (discardSink) SaveGrade(GradeRecord) {}

// Session is not safe for concurrent use; its owner serialises calls.
type Session struct {
	students   []*Student
	activities []Activity
	sink       GradeSink
	newID      func() string
}

// NewSession creates an empty session. A nil sink discards saves.
func NewSession(sink GradeSink) *Session {
	s := &Session{newID: uuid.NewString}
	s.SetSink(sink)
	return s
}

// SetSink replaces the persistence sink used by SaveGrade.
func (s *Session) SetSink(sink GradeSink) {
	if sink == nil {
		sink = discardSink{}
	}
	s.sink = sink
}

// State reports Empty until a non-empty roster is loaded.
func (s *Session) State() State {
	if len(s.students) == 0 {
		return StateEmpty
	}
	return StateLoaded
}

// Reset discards the roster and the activities.
func (s *Session) Reset() {
	s.students = nil
	s.activities = nil
}

// LoadRoster replaces the whole session with a fresh roster in input order.
func (s *Session) LoadRoster(entries []RosterEntry) {
	students := make([]*Student, 0, len(entries))
	for i, e := range entries {
		students = append(students, &Student{
			ID:     e.ID,
			Name:   e.Name,
			Index:  i + 1,
			Grades: make(map[string]string),
		})
	}
	s.students = students
	s.activities = nil
}

// AddActivity appends a column and gives every student an empty cell for it.
// An empty description is rejected and reported with ok == false.
func (s *Session) AddActivity(description, date string) (activity Activity, ok bool) {
	if description == "" || s.State() == StateEmpty {
		return Activity{}, false
	}

	activity = Activity{
		ID:          s.newID(),
		Description: description,
		Date:        date,
	}
	s.activities = append(s.activities, activity)
	for _, st := range s.students {
		st.Grades[activity.ID] = ""
	}
	return activity, true
}

// SetGrade writes a cell and recomputes that student's average.
// Unknown students are ignored.
func (s *Session) SetGrade(studentID, activityID, value string) bool {
	st := s.find(studentID)
	if st == nil {
		return false
	}
	st.Grades[activityID] = value
	s.recomputeAverage(st)
	return true
}

// SaveGrade hands the current value of a cell to the sink.
func (s *Session) SaveGrade(studentID, activityID string) bool {
	st := s.find(studentID)
	if st == nil {
		return false
	}
	value, ok := st.Grades[activityID]
	if !ok {
		return false
	}
	s.sink.SaveGrade(GradeRecord{
		StudentID:  st.ID,
		ActivityID: activityID,
		Value:      value,
		Average:    st.Average,
	})
	return true
}

// ReorderStudents moves the dragged student so it sits right before the
// target, then renumbers every display index.
func (s *Session) ReorderStudents(draggedID, targetID string) bool {
	if draggedID == targetID {
		return false
	}

	from, to := -1, -1
	for i, st := range s.students {
		if st.ID == draggedID {
			from = i
		}
		if st.ID == targetID {
			to = i
		}
	}
	if from == -1 || to == -1 {
		return false
	}

	moved := s.students[from]
	s.students = append(s.students[:from], s.students[from+1:]...)
	if to > from {
		to--
	}
	s.students = append(s.students, nil)
	copy(s.students[to+1:], s.students[to:])
	s.students[to] = moved

	s.renumber()
	return true
}

// Students returns a deep copy of the roster in display order.
func (s *Session) Students() []Student {
	out := make([]Student, len(s.students))
	for i, st := range s.students {
		grades := make(map[string]string, len(st.Grades))
		for k, v := range st.Grades {
			grades[k] = v
		}
		out[i] = Student{
			ID:      st.ID,
			Name:    st.Name,
			Index:   st.Index,
			Grades:  grades,
			Average: st.Average,
		}
	}
	return out
}

// Activities returns the columns in display order.
func (s *Session) Activities() []Activity {
	out := make([]Activity, len(s.activities))
	copy(out, s.activities)
	return out
}

func (s *Session) find(id string) *Student {
	for _, st := range s.students {
		if st.ID == id {
			return st
		}
	}
	return nil
}

func (s *Session) renumber() {
	for i, st := range s.students {
		st.Index = i + 1
	}
}

func (s *Session) recomputeAverage(st *Student) {
	st.Average = Average(st.Grades)
}
