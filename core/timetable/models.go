package timetable

import (
	"time"

	"github.com/chronofactor/timetable/core/course"
)

const defaultName = "Untitled Timetable"

// Timetable is a student's selection of sections for a semester.
// Timings, ExamTimes and Warnings are kept in step with Sections by the engine.
type Timetable struct {
	ID          int              `json:"id"`
	AuthorID    string           `json:"author_id"`
	Name        string           `json:"name"`
	Degrees     []string         `json:"degrees"`
	Private     bool             `json:"private"`
	Draft       bool             `json:"draft"`
	Archived    bool             `json:"archived"`
	Year        int              `json:"year"`
	AcadYear    int              `json:"acad_year"`
	Semester    int              `json:"semester"`
	Sections    []course.Section `json:"sections"`
	Timings     []Timing         `json:"timings"`
	ExamTimes   []ExamTime       `json:"exam_times"`
	Warnings    []Warning        `json:"warnings"`
	CreatedAt   time.Time        `json:"created_at"`
	LastUpdated time.Time        `json:"last_updated"`
}

// State extracts the engine-maintained part of the timetable.
func (tt Timetable) State() State {
	st := NewState()
	st.Sections = append(st.Sections, tt.Sections...)
	st.Timings = append(st.Timings, tt.Timings...)
	st.ExamTimes = append(st.ExamTimes, tt.ExamTimes...)
	st.Warnings = append(st.Warnings, tt.Warnings...)
	return st
}

func (tt *Timetable) setState(st State) {
	tt.Sections = st.Sections
	tt.Timings = st.Timings
	tt.ExamTimes = st.ExamTimes
	tt.Warnings = st.Warnings
}

// NewTimetable contains information needed to create a new Timetable.
type NewTimetable struct {
	AuthorID string   `json:"author_id" validate:"required,max=100"`
	Name     string   `json:"name" validate:"max=200"`
	Degrees  []string `json:"degrees" validate:"max=2,dive,alphanum_"`
	Year     int      `json:"year" validate:"gte=1,lte=5"`
	AcadYear int      `json:"acad_year" validate:"gte=2000"`
	Semester int      `json:"semester" validate:"oneof=1 2 3"`
}

// UpdateMetadata changes the fields a student may edit directly. Nil fields are left as is.
type UpdateMetadata struct {
	Name    *string `json:"name" validate:"omitempty,min=1,max=200"`
	Private *bool   `json:"private"`
	Draft   *bool   `json:"draft"`
}

// QueryFilter applies AND on its non-zero fields.
type QueryFilter struct {
	AuthorID        string `query:"author_id"`
	PublicOnly      bool   `query:"public"`
	AcadYear        int    `query:"acad_year"`
	Semester        int    `query:"semester"`
	IncludeArchived bool   `query:"include_archived"`
}

// ResyncReport tells what a catalogue change did to one timetable.
type ResyncReport struct {
	TimetableID int      `json:"timetable_id"`
	Readded     []string `json:"readded"`
	Dropped     []string `json:"dropped"`
}
