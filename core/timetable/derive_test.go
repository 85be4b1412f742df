package timetable

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chronofactor/timetable/core/course"
)

func TestDerive(t *testing.T) {
	cat := newCatalogue(t)
	sections := []course.Section{
		cat.sections["MATH F112-T1"],
		cat.sections["BITS F110-P1"],
		cat.sections["ECON F211-L1"],
		cat.sections["ECON F211-T1"],
	}

	got, err := Derive(sections, cat.courses, cat.required)
	require.NoError(t, err)
	assert.Equal(t, sections, got.Sections)
	assert.Equal(t, []string{
		"MATH F112:Th1", "BITS F110:S3", "ECON F211:T9", "ECON F211:Th9", "ECON F211:S10",
	}, EncodeTimings(got.Timings))
	// exams follow the order courses first appear in
	assert.Equal(t, []string{
		"MATH F112|MIDSEM|2024-03-10T09:00:00.000Z|2024-03-10T11:00:00.000Z",
		"MATH F112|COMPRE|2024-05-12T09:00:00.000Z|2024-05-12T12:00:00.000Z",
		"ECON F211|MIDSEM|2024-03-11T09:00:00.000Z|2024-03-11T10:30:00.000Z",
		"ECON F211|COMPRE|2024-05-14T14:00:00.000Z|2024-05-14T17:00:00.000Z",
	}, EncodeExamTimes(got.ExamTimes))
	assert.Equal(t, []string{"MATH F112:L"}, EncodeWarnings(got.Warnings))
}

func TestDerive_unknownCourse(t *testing.T) {
	cat := newCatalogue(t)
	delete(cat.courses, "CS F211")

	_, err := Derive([]course.Section{cat.sections["CS F211-L1"]}, cat.courses, cat.required)
	assert.Error(t, err)
}

func TestDrift(t *testing.T) {
	cat := newCatalogue(t)
	st := cat.build(t, "CS F211-L1", "BITS F110-P1")

	timings, examTimes, warnings := Drift(st, cat.derive(t, st))
	assert.False(t, timings)
	assert.False(t, examTimes)
	assert.False(t, warnings)

	// a stale token left behind by a buggy writer
	st.Timings = append(st.Timings, Timing{CourseCode: "CS F211", Day: "S", Hour: 1})
	st.Warnings = []Warning{}
	timings, examTimes, warnings = Drift(st, cat.derive(t, st))
	assert.True(t, timings)
	assert.False(t, examTimes)
	assert.True(t, warnings)
}

func TestDrift_ignoresTokenOrder(t *testing.T) {
	cat := newCatalogue(t)

	// CS F211's exams were appended before ECON F211's, but its first section now comes last
	st := cat.build(t, "CS F211-L1", "ECON F211-L1", "CS F211-T1")
	st, err := cat.remove(t, st, "CS F211-L1")
	require.NoError(t, err)
	derived := cat.derive(t, st)
	require.NotEqual(t, EncodeExamTimes(st.ExamTimes), EncodeExamTimes(derived.ExamTimes))

	timings, examTimes, warnings := Drift(st, derived)
	assert.False(t, timings)
	assert.False(t, examTimes)
	assert.False(t, warnings)

	// rows written with warnings in insertion order
	st.Warnings = []Warning{
		{CourseCode: "ECON F211", Missing: []course.SectionType{course.Tutorial}},
		{CourseCode: "CS F211", Missing: []course.SectionType{course.Lecture, course.Practical}},
	}
	_, _, warnings = Drift(st, derived)
	assert.False(t, warnings)

	// the same tokens with one missing are still drift
	st.ExamTimes = st.ExamTimes[1:]
	_, examTimes, _ = Drift(st, derived)
	assert.True(t, examTimes)
}

func TestCheckExams_inclusiveBoundary(t *testing.T) {
	held := []ExamTime{{
		CourseCode: "MATH F112",
		Kind:       course.Midsem,
		Window:     *window(t, "2024-03-10T09:00:00Z", "2024-03-10T11:00:00Z"),
	}}

	tests := []struct {
		name      string
		midsem    *course.Window
		compre    *course.Window
		wantClash bool
	}{
		{name: "touching end", midsem: window(t, "2024-03-10T11:00:00Z", "2024-03-10T13:00:00Z"), wantClash: true},
		{name: "touching start", midsem: window(t, "2024-03-10T07:00:00Z", "2024-03-10T09:00:00Z"), wantClash: true},
		{name: "a minute apart", midsem: window(t, "2024-03-10T11:01:00Z", "2024-03-10T13:00:00Z")},
		{name: "kinds are not compared across", compre: window(t, "2024-03-10T09:00:00Z", "2024-03-10T11:00:00Z")},
		{name: "no exams"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			crs := course.Course{Code: "CS F211", Midsem: tt.midsem, Compre: tt.compre}
			got := checkExams(held, crs)
			assert.Equal(t, tt.wantClash, got.clash)
			assert.False(t, got.sameCourse)
		})
	}

	assert.True(t, checkExams(held, course.Course{Code: "MATH F112"}).sameCourse)
}
