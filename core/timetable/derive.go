package timetable

import (
	"sort"

	"github.com/pkg/errors"

	"github.com/chronofactor/timetable/core/course"
)

// Derive recomputes a State from the section list alone.
// courses and required are keyed by course code and must cover every section.
func Derive(
	sections []course.Section,
	courses map[string]course.Course,
	required map[string][]course.SectionType,
) (State, error) {
	st := NewState()
	st.Sections = append(st.Sections, sections...)

	chosen := make(map[string][]course.SectionType)
	for _, sec := range sections {
		crs, ok := courses[sec.CourseCode]
		if !ok {
			return State{}, errors.Errorf("derive: no course %q for section %s", sec.CourseCode, sec.Label())
		}
		st.Timings = append(st.Timings, sectionTimings(sec)...)
		if _, seen := chosen[sec.CourseCode]; !seen {
			st.ExamTimes = append(st.ExamTimes, courseExamTimes(crs)...)
		}
		chosen[sec.CourseCode] = append(chosen[sec.CourseCode], sec.Type)
	}

	codes := make([]string, 0, len(chosen))
	for code := range chosen {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	for _, code := range codes {
		types := chosen[code]
		offered := course.NormalizeTypes(append(append([]course.SectionType{}, required[code]...), types...)...)
		var missing []course.SectionType
		for _, t := range offered {
			if !containsType(types, t) {
				missing = append(missing, t)
			}
		}
		if len(missing) > 0 {
			st.Warnings = append(st.Warnings, Warning{CourseCode: code, Missing: missing})
		}
	}
	return st, nil
}

// Drift reports which projections of maintained hold other tokens than derived.
// Token order is history-dependent (a course re-added later is appended last), so it is ignored.
func Drift(maintained, derived State) (timings, examTimes, warnings bool) {
	return !sameTokens(EncodeTimings(maintained.Timings), EncodeTimings(derived.Timings)),
		!sameTokens(EncodeExamTimes(maintained.ExamTimes), EncodeExamTimes(derived.ExamTimes)),
		!sameTokens(EncodeWarnings(maintained.Warnings), EncodeWarnings(derived.Warnings))
}

// sameTokens compares a and b as multisets; both are sorted in place.
func sameTokens(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	sort.Strings(a)
	sort.Strings(b)
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
