package timetable

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chronofactor/timetable/core/course"
)

func TestAddSection(t *testing.T) {
	cat := newCatalogue(t)

	tests := []struct {
		name          string
		held          []string
		add           string
		wantReason    Reason
		wantMsg       string
		wantTimings   []string
		wantExamTimes []string
		wantWarnings  []string
	}{
		{
			name:        "into empty timetable",
			add:         "CS F211-L1",
			wantTimings: []string{"CS F211:M9", "CS F211:W9", "CS F211:F9"},
			wantExamTimes: []string{
				"CS F211|MIDSEM|2024-03-10T10:00:00.000Z|2024-03-10T12:00:00.000Z",
				"CS F211|COMPRE|2024-05-10T09:00:00.000Z|2024-05-10T12:00:00.000Z",
			},
			wantWarnings: []string{"CS F211:PT"},
		},
		{
			name:        "second type of a scheduled course skips the exam check",
			held:        []string{"CS F211-L1"},
			add:         "CS F211-T1",
			wantTimings: []string{"CS F211:M9", "CS F211:W9", "CS F211:F9", "CS F211:Th8"},
			wantExamTimes: []string{
				"CS F211|MIDSEM|2024-03-10T10:00:00.000Z|2024-03-10T12:00:00.000Z",
				"CS F211|COMPRE|2024-05-10T09:00:00.000Z|2024-05-10T12:00:00.000Z",
			},
			wantWarnings: []string{"CS F211:P"},
		},
		{
			name:        "course without exams",
			held:        []string{"MATH F112-L2"},
			add:         "BITS F110-P1",
			wantTimings: []string{"MATH F112:M10", "MATH F112:W10", "BITS F110:S3"},
			wantExamTimes: []string{
				"MATH F112|MIDSEM|2024-03-10T09:00:00.000Z|2024-03-10T11:00:00.000Z",
				"MATH F112|COMPRE|2024-05-12T09:00:00.000Z|2024-05-12T12:00:00.000Z",
			},
			wantWarnings: []string{"MATH F112:T"},
		},
		{
			name:        "exams of a new course are appended",
			held:        []string{"MATH F112-T1"},
			add:         "ECON F211-L1",
			wantTimings: []string{"MATH F112:Th1", "ECON F211:T9", "ECON F211:Th9"},
			wantExamTimes: []string{
				"MATH F112|MIDSEM|2024-03-10T09:00:00.000Z|2024-03-10T11:00:00.000Z",
				"MATH F112|COMPRE|2024-05-12T09:00:00.000Z|2024-05-12T12:00:00.000Z",
				"ECON F211|MIDSEM|2024-03-11T09:00:00.000Z|2024-03-11T10:30:00.000Z",
				"ECON F211|COMPRE|2024-05-14T14:00:00.000Z|2024-05-14T17:00:00.000Z",
			},
			wantWarnings: []string{"ECON F211:T", "MATH F112:L"},
		},
		{
			name:       "duplicate section type",
			held:       []string{"CS F211-L1"},
			add:        "CS F211-L2",
			wantReason: ReasonDuplicateSectionType,
			wantMsg:    "can't have multiple sections of type L",
		},
		{
			name:       "class hour clash is checked before exams",
			held:       []string{"CS F211-L1"},
			add:        "MATH F112-L1",
			wantReason: ReasonClassHourClash,
			wantMsg:    "section clashes with CS F211",
		},
		{
			name:       "midsem windows overlap",
			held:       []string{"MATH F112-L2"},
			add:        "CS F211-L1",
			wantReason: ReasonExamWindowClash,
			wantMsg:    "course's exam clashes with MATH F112's midsem",
		},
		{
			name:       "duplicate type wins over class hour clash",
			held:       []string{"MATH F112-L1"},
			add:        "MATH F112-L3",
			wantReason: ReasonDuplicateSectionType,
			wantMsg:    "can't have multiple sections of type L",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := cat.build(t, tt.held...)
			before := encoded(st)
			beforeSections := append([]course.Section{}, st.Sections...)

			got, err := cat.add(t, st, tt.add)
			if tt.wantReason != 0 {
				require.Error(t, err)
				rej, ok := AsRejection(err)
				require.True(t, ok, "want a rejection, got %v", err)
				assert.Equal(t, tt.wantReason, rej.Reason())
				assert.Equal(t, tt.wantMsg, err.Error())
				assert.Equal(t, before, encoded(got))
				assert.Equal(t, beforeSections, got.Sections)
				assert.Equal(t, beforeSections, st.Sections, "input must not be mutated")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantTimings, EncodeTimings(got.Timings))
			assert.Equal(t, tt.wantExamTimes, EncodeExamTimes(got.ExamTimes))
			assert.Equal(t, tt.wantWarnings, EncodeWarnings(got.Warnings))
			assert.True(t, got.Has(cat.sections[tt.add]))
			assert.Equal(t, before, encoded(st), "input must not be mutated")
		})
	}
}

func TestAddSection_rejectionDetails(t *testing.T) {
	cat := newCatalogue(t)

	_, err := cat.add(t, cat.build(t, "MATH F112-L2"), "CS F211-L1")
	var examErr *ExamWindowClashError
	require.True(t, errors.As(err, &examErr), "got %v", err)
	assert.Equal(t, "MATH F112", examErr.CourseCode)
	assert.Equal(t, course.Midsem, examErr.Kind)

	_, err = cat.add(t, cat.build(t, "CS F211-L1"), "MATH F112-L1")
	var hourErr *ClassHourClashError
	require.True(t, errors.As(err, &hourErr), "got %v", err)
	assert.Equal(t, "CS F211", hourErr.CourseCode)
	assert.Equal(t, "M9", hourErr.Slot)

	_, err = cat.add(t, cat.build(t, "CS F211-L1"), "CS F211-L2")
	var dupErr *DuplicateSectionTypeError
	require.True(t, errors.As(err, &dupErr), "got %v", err)
	assert.Equal(t, course.Lecture, dupErr.Type)
}

func TestAddSection_foreignCourse(t *testing.T) {
	cat := newCatalogue(t)
	sec := cat.sections["CS F211-L1"]

	st := NewState()
	got, err := AddSection(st, sec, cat.courses["MATH F112"], cat.required["MATH F112"])
	require.Error(t, err)
	assert.True(t, IsInvariantViolation(err))
	_, isRejection := AsRejection(err)
	assert.False(t, isRejection)
	assert.Equal(t, st, got)
}

func TestRemoveSection(t *testing.T) {
	cat := newCatalogue(t)

	tests := []struct {
		name          string
		held          []string
		remove        string
		wantReason    Reason
		wantTimings   []string
		wantExamTimes []string
		wantWarnings  []string
	}{
		{
			name:          "last section of the course",
			held:          []string{"CS F211-L1"},
			remove:        "CS F211-L1",
			wantTimings:   []string{},
			wantExamTimes: []string{},
			wantWarnings:  []string{},
		},
		{
			name:        "exams stay while a section of the course remains",
			held:        []string{"CS F211-L1", "CS F211-T1"},
			remove:      "CS F211-T1",
			wantTimings: []string{"CS F211:M9", "CS F211:W9", "CS F211:F9"},
			wantExamTimes: []string{
				"CS F211|MIDSEM|2024-03-10T10:00:00.000Z|2024-03-10T12:00:00.000Z",
				"CS F211|COMPRE|2024-05-10T09:00:00.000Z|2024-05-10T12:00:00.000Z",
			},
			wantWarnings: []string{"CS F211:PT"},
		},
		{
			name:        "complete course gets its warning back",
			held:        []string{"MATH F112-L2", "MATH F112-T1"},
			remove:      "MATH F112-L2",
			wantTimings: []string{"MATH F112:Th1"},
			wantExamTimes: []string{
				"MATH F112|MIDSEM|2024-03-10T09:00:00.000Z|2024-03-10T11:00:00.000Z",
				"MATH F112|COMPRE|2024-05-12T09:00:00.000Z|2024-05-12T12:00:00.000Z",
			},
			wantWarnings: []string{"MATH F112:L"},
		},
		{
			name:          "single-type course leaves no warning behind",
			held:          []string{"BITS F110-P1"},
			remove:        "BITS F110-P1",
			wantTimings:   []string{},
			wantExamTimes: []string{},
			wantWarnings:  []string{},
		},
		{
			name:       "section not in timetable",
			held:       []string{"CS F211-L1"},
			remove:     "CS F211-L2",
			wantReason: ReasonSectionNotInTimetable,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := cat.build(t, tt.held...)
			before := encoded(st)

			got, err := cat.remove(t, st, tt.remove)
			if tt.wantReason != 0 {
				rej, ok := AsRejection(err)
				require.True(t, ok, "want a rejection, got %v", err)
				assert.Equal(t, tt.wantReason, rej.Reason())
				assert.Equal(t, before, encoded(got))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantTimings, EncodeTimings(got.Timings))
			assert.Equal(t, tt.wantExamTimes, EncodeExamTimes(got.ExamTimes))
			assert.Equal(t, tt.wantWarnings, EncodeWarnings(got.Warnings))
			assert.False(t, got.Has(cat.sections[tt.remove]))
			assert.Equal(t, before, encoded(st), "input must not be mutated")
		})
	}
}

func TestRemoveSection_invariantViolation(t *testing.T) {
	cat := newCatalogue(t)
	st := cat.build(t, "CS F211-L1")
	// warnings claim the lecture is still missing
	st.Warnings = []Warning{{CourseCode: "CS F211", Missing: []course.SectionType{course.Lecture, course.Practical}}}

	got, err := cat.remove(t, st, "CS F211-L1")
	require.Error(t, err)
	assert.True(t, IsInvariantViolation(err))
	_, isRejection := AsRejection(err)
	assert.False(t, isRejection)
	assert.Equal(t, encoded(st), encoded(got))
	assert.Len(t, got.Sections, 1)
}

func TestRemoveSection_movedRoomTimes(t *testing.T) {
	cat := newCatalogue(t)
	st := cat.build(t, "CS F211-T1", "BITS F110-P1")

	// the catalogue moved the tutorial, the timetable still holds the old copy's timings
	moved := cat.sections["CS F211-T1"]
	moved.RoomTimes = []course.RoomTime{{Room: "F105", Day: "F", Hour: 5}}
	st.Sections[0] = moved

	got, err := RemoveSection(st, cat.sections["CS F211-T1"], cat.required["CS F211"])
	require.NoError(t, err)
	assert.Equal(t, []string{"BITS F110:S3"}, EncodeTimings(got.Timings))
}

func TestAddRemove_roundTrip(t *testing.T) {
	cat := newCatalogue(t)

	tests := []struct {
		name string
		held []string
		sec  string
	}{
		{name: "empty timetable", sec: "CS F211-L1"},
		{name: "new course", held: []string{"CS F211-L1", "CS F211-P1"}, sec: "BITS F110-P1"},
		{name: "new type of held course", held: []string{"CS F211-L1", "BITS F110-P1"}, sec: "CS F211-T1"},
		{name: "completing a course", held: []string{"MATH F112-L2"}, sec: "MATH F112-T1"},
		{name: "course between held ones", held: []string{"BITS F110-P1", "MATH F112-L2"}, sec: "ECON F211-L1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := cat.build(t, tt.held...)

			added, err := cat.add(t, st, tt.sec)
			require.NoError(t, err)
			removed, err := cat.remove(t, added, tt.sec)
			require.NoError(t, err)

			assert.Equal(t, st, removed)
		})
	}
}

// Scenario: a timetable that got CS F211-L1 added then removed is empty again.
func TestAddRemove_leavesEmptyTimetable(t *testing.T) {
	cat := newCatalogue(t)

	st, err := cat.add(t, NewState(), "CS F211-L1")
	require.NoError(t, err)
	st, err = cat.remove(t, st, "CS F211-L1")
	require.NoError(t, err)

	assert.Empty(t, st.Sections)
	assert.Empty(t, st.Timings)
	assert.Empty(t, st.ExamTimes)
	assert.Empty(t, st.Warnings)
	assert.Equal(t, NewState(), st)
}

func TestEngine_noDrift(t *testing.T) {
	cat := newCatalogue(t)

	type op struct {
		add   bool
		label string
	}
	ops := []op{
		{true, "MATH F112-L2"},
		{true, "CS F211-L1"}, // exam clash
		{true, "BITS F110-P1"},
		{true, "ECON F211-L1"},
		{true, "MATH F112-L1"}, // duplicate
		{true, "MATH F112-T1"},
		{true, "ECON F211-T1"},
		{false, "MATH F112-L2"},
		{false, "MATH F112-L2"}, // not held anymore
		{false, "MATH F112-T1"},
		{true, "CS F211-L1"},
		{true, "MATH F112-L2"}, // exam clash now that CS F211 is held
		{true, "CS F211-P1"},
		{true, "CS F211-T1"},
		{true, "CS F211-L2"}, // duplicate
		{false, "BITS F110-P1"},
		{false, "CS F211-P1"},
		{false, "ECON F211-L1"},
		{false, "CS F211-T1"},
		{false, "ECON F211-T1"},
		{false, "CS F211-L1"},
	}

	st := NewState()
	for i, o := range ops {
		var next State
		var err error
		if o.add {
			next, err = cat.add(t, st, o.label)
		} else {
			next, err = cat.remove(t, st, o.label)
		}
		if err != nil {
			_, ok := AsRejection(err)
			require.True(t, ok, "op #%d (%s): %v", i, o.label, err)
			assert.Equal(t, st, next, "op #%d (%s) rejected but changed state", i, o.label)
			continue
		}
		st = next

		derived := cat.derive(t, st)
		timings, examTimes, warnings := Drift(st, derived)
		assert.False(t, timings, "op #%d (%s): timings drifted: %v", i, o.label, EncodeTimings(st.Timings))
		assert.False(t, examTimes, "op #%d (%s): exam times drifted: %v", i, o.label, EncodeExamTimes(st.ExamTimes))
		assert.False(t, warnings, "op #%d (%s): warnings drifted: %v", i, o.label, EncodeWarnings(st.Warnings))
	}
	assert.Equal(t, NewState(), st)
}

func TestEngine_completenessConverges(t *testing.T) {
	cat := newCatalogue(t)

	tests := []struct {
		name   string
		labels []string
		want   [][]string // warnings after each add
	}{
		{
			name:   "L P T",
			labels: []string{"CS F211-L1", "CS F211-P1", "CS F211-T1"},
			want:   [][]string{{"CS F211:PT"}, {"CS F211:T"}, {}},
		},
		{
			name:   "T L P",
			labels: []string{"CS F211-T1", "CS F211-L1", "CS F211-P1"},
			want:   [][]string{{"CS F211:LP"}, {"CS F211:P"}, {}},
		},
		{
			name:   "P T L",
			labels: []string{"CS F211-P1", "CS F211-T1", "CS F211-L1"},
			want:   [][]string{{"CS F211:LT"}, {"CS F211:L"}, {}},
		},
		{
			name:   "T P L",
			labels: []string{"CS F211-T1", "CS F211-P1", "CS F211-L2"},
			want:   [][]string{{"CS F211:LP"}, {"CS F211:L"}, {}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := NewState()
			var err error
			for i, label := range tt.labels {
				st, err = cat.add(t, st, label)
				require.NoError(t, err)
				assert.Equal(t, tt.want[i], EncodeWarnings(st.Warnings), "after adding %s", label)
			}

			// and back, in reverse
			for i := len(tt.labels) - 1; i > 0; i-- {
				st, err = cat.remove(t, st, tt.labels[i])
				require.NoError(t, err)
				assert.Equal(t, tt.want[i-1], EncodeWarnings(st.Warnings), "after removing %s", tt.labels[i])
			}
			st, err = cat.remove(t, st, tt.labels[0])
			require.NoError(t, err)
			assert.Empty(t, st.Warnings)
		})
	}
}
