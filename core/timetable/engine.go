package timetable

import (
	"github.com/chronofactor/timetable/core/course"
)

// State is the part of a timetable the composition engine maintains.
// Timings, ExamTimes and Warnings are projections of Sections and are never edited directly.
type State struct {
	Sections  []course.Section `json:"sections"`
	Timings   []Timing         `json:"timings"`
	ExamTimes []ExamTime       `json:"exam_times"`
	Warnings  []Warning        `json:"warnings"`
}

func NewState() State {
	return State{
		Sections:  []course.Section{},
		Timings:   []Timing{},
		ExamTimes: []ExamTime{},
		Warnings:  []Warning{},
	}
}

func (st State) clone() State {
	res := NewState()
	res.Sections = append(res.Sections, st.Sections...)
	res.Timings = append(res.Timings, st.Timings...)
	res.ExamTimes = append(res.ExamTimes, st.ExamTimes...)
	res.Warnings = append(res.Warnings, st.Warnings...)
	return res
}

// Has reports whether the section (by identity) is part of the state.
func (st State) Has(sec course.Section) bool {
	return st.indexOf(sec) >= 0
}

func (st State) indexOf(sec course.Section) int {
	for i, s := range st.Sections {
		if course.SameSection(s, sec) {
			return i
		}
	}
	return -1
}

func (st State) scheduled(courseCode string) bool {
	for _, s := range st.Sections {
		if s.CourseCode == courseCode {
			return true
		}
	}
	return false
}

// AddSection returns st with sec added, or st itself with a Rejection.
// Checks run in order: duplicate type, class hours, exams.
// required lists the section types offered for crs.
func AddSection(st State, sec course.Section, crs course.Course, required []course.SectionType) (State, error) {
	if sec.CourseCode != crs.Code {
		return st, newInvariantViolation("section %s does not belong to %s", sec.Label(), crs.Code)
	}

	for _, s := range st.Sections {
		if s.CourseCode == sec.CourseCode && s.Type == sec.Type {
			return st, &DuplicateSectionTypeError{CourseCode: sec.CourseCode, Type: sec.Type}
		}
	}

	if t, ok := newSlotIndex(st.Timings).collision(sec); ok {
		return st, &ClassHourClashError{CourseCode: t.CourseCode, Slot: t.Slot()}
	}

	scheduled := st.scheduled(crs.Code)
	if !scheduled {
		if check := checkExams(st.ExamTimes, crs); check.clash {
			return st, &ExamWindowClashError{CourseCode: check.with.CourseCode, Kind: check.with.Kind}
		} else if check.sameCourse {
			scheduled = true
		}
	}

	next := st.clone()
	next.Sections = append(next.Sections, sec)
	next.Timings = addTimings(st.Timings, sec)
	if !scheduled {
		next.ExamTimes = addExamTimes(st.ExamTimes, crs)
	}
	warnings, err := updateWarnings(st.Warnings, sec.CourseCode, sec.Type, required, true)
	if err != nil {
		return st, err
	}
	next.Warnings = warnings
	return next, nil
}

// RemoveSection returns st without sec, or st itself with a Rejection.
// The timings dropped are those of sec's own room-times, which may differ from
// the stored copy when the catalogue changed underneath.
func RemoveSection(st State, sec course.Section, required []course.SectionType) (State, error) {
	idx := st.indexOf(sec)
	if idx < 0 {
		return st, &SectionNotInTimetableError{Section: sec.Label()}
	}
	if stored := st.Sections[idx]; sec.CourseCode == "" || sec.Type == "" {
		sec.CourseCode, sec.Type = stored.CourseCode, stored.Type
	}

	next := st.clone()
	next.Sections = append(next.Sections[:idx:idx], st.Sections[idx+1:]...)
	next.Timings = removeTimings(st.Timings, sec)
	if !next.scheduled(sec.CourseCode) {
		next.ExamTimes = removeExamTimes(st.ExamTimes, sec.CourseCode)
	}
	warnings, err := updateWarnings(st.Warnings, sec.CourseCode, sec.Type, required, false)
	if err != nil {
		return st, err
	}
	next.Warnings = warnings
	return next, nil
}
