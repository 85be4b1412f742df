package timetable

import (
	"testing"
	"time"

	"github.com/chronofactor/timetable/core/course"
)

func mustTime(t *testing.T, s string) time.Time {
	t.Helper()
	ts, err := time.Parse(time.RFC3339, s)
	if err != nil {
		t.Fatalf("mustTime() failed: %v", err)
	}
	return ts.UTC()
}

func window(t *testing.T, start, end string) *course.Window {
	w, err := course.MakeWindow(mustTime(t, start), mustTime(t, end))
	if err != nil {
		t.Fatalf("window() failed: %v", err)
	}
	return &w
}

// newSection builds a section meeting at slots such as "M9" or "Th8".
func newSection(t *testing.T, code string, typ course.SectionType, num int, slots ...string) course.Section {
	t.Helper()
	rts := make([]course.RoomTime, 0, len(slots))
	for _, s := range slots {
		tm, err := ParseTiming(code + ":" + s)
		if err != nil {
			t.Fatalf("newSection() failed: %v", err)
		}
		rts = append(rts, course.RoomTime{Room: "F102", Day: tm.Day, Hour: tm.Hour})
	}
	sec := course.Section{CourseCode: code, Type: typ, Number: num, RoomTimes: rts}
	sec.ID = "sec-" + sec.Label()
	sec.CourseID = "crs-" + code
	return sec
}

// catalogue is a small semester:
//   CS F211    L1 M9 W9 F9 | L2 T11 Th11 | P1 T2 T3 | T1 Th8; midsem 2024-03-10 10:00-12:00
//   MATH F112  L1 M9 W9    | L2 M10 W10  | L3 M9 | T1 Th1;     midsem 2024-03-10 09:00-11:00
//   ECON F211  L1 T9 Th9   | T1 S10;                            midsem 2024-03-11 09:00-10:30
//   BITS F110  P1 S3;                                          no exams
type catalogue struct {
	courses  map[string]course.Course
	required map[string][]course.SectionType
	sections map[string]course.Section
}

func newCatalogue(t *testing.T) catalogue {
	cs := course.Course{
		ID:     "crs-CS F211",
		Code:   "CS F211",
		Name:   "Data Structures & Algorithms",
		Midsem: window(t, "2024-03-10T10:00:00Z", "2024-03-10T12:00:00Z"),
		Compre: window(t, "2024-05-10T09:00:00Z", "2024-05-10T12:00:00Z"),
	}
	math := course.Course{
		ID:     "crs-MATH F112",
		Code:   "MATH F112",
		Name:   "Mathematics II",
		Midsem: window(t, "2024-03-10T09:00:00Z", "2024-03-10T11:00:00Z"),
		Compre: window(t, "2024-05-12T09:00:00Z", "2024-05-12T12:00:00Z"),
	}
	econ := course.Course{
		ID:     "crs-ECON F211",
		Code:   "ECON F211",
		Name:   "Principles of Economics",
		Midsem: window(t, "2024-03-11T09:00:00Z", "2024-03-11T10:30:00Z"),
		Compre: window(t, "2024-05-14T14:00:00Z", "2024-05-14T17:00:00Z"),
	}
	bits := course.Course{ID: "crs-BITS F110", Code: "BITS F110", Name: "Engineering Graphics"}

	secs := []course.Section{
		newSection(t, "CS F211", course.Lecture, 1, "M9", "W9", "F9"),
		newSection(t, "CS F211", course.Lecture, 2, "T11", "Th11"),
		newSection(t, "CS F211", course.Practical, 1, "T2", "T3"),
		newSection(t, "CS F211", course.Tutorial, 1, "Th8"),
		newSection(t, "MATH F112", course.Lecture, 1, "M9", "W9"),
		newSection(t, "MATH F112", course.Lecture, 2, "M10", "W10"),
		newSection(t, "MATH F112", course.Lecture, 3, "M9"),
		newSection(t, "MATH F112", course.Tutorial, 1, "Th1"),
		newSection(t, "ECON F211", course.Lecture, 1, "T9", "Th9"),
		newSection(t, "ECON F211", course.Tutorial, 1, "S10"),
		newSection(t, "BITS F110", course.Practical, 1, "S3"),
	}
	cat := catalogue{
		courses:  map[string]course.Course{cs.Code: cs, math.Code: math, econ.Code: econ, bits.Code: bits},
		required: map[string][]course.SectionType{},
		sections: map[string]course.Section{},
	}
	for _, s := range secs {
		cat.sections[s.Label()] = s
		cat.required[s.CourseCode] = course.NormalizeTypes(append(cat.required[s.CourseCode], s.Type)...)
	}
	return cat
}

func (c catalogue) add(t *testing.T, st State, label string) (State, error) {
	t.Helper()
	sec, ok := c.sections[label]
	if !ok {
		t.Fatalf("unknown section %s", label)
	}
	return AddSection(st, sec, c.courses[sec.CourseCode], c.required[sec.CourseCode])
}

func (c catalogue) remove(t *testing.T, st State, label string) (State, error) {
	t.Helper()
	sec, ok := c.sections[label]
	if !ok {
		t.Fatalf("unknown section %s", label)
	}
	return RemoveSection(st, sec, c.required[sec.CourseCode])
}

// build adds every label in order and fails the test on any error.
func (c catalogue) build(t *testing.T, labels ...string) State {
	t.Helper()
	st := NewState()
	for _, l := range labels {
		var err error
		if st, err = c.add(t, st, l); err != nil {
			t.Fatalf("build(%s) failed: %v", l, err)
		}
	}
	return st
}

func (c catalogue) derive(t *testing.T, st State) State {
	t.Helper()
	derived, err := Derive(st.Sections, c.courses, c.required)
	if err != nil {
		t.Fatalf("Derive() failed: %v", err)
	}
	return derived
}

// encoded flattens the projections into their persisted form for readable comparisons.
func encoded(st State) map[string][]string {
	return map[string][]string{
		"timings":    EncodeTimings(st.Timings),
		"exam_times": EncodeExamTimes(st.ExamTimes),
		"warnings":   EncodeWarnings(st.Warnings),
	}
}
