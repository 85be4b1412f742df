package timetable

import (
	"encoding/json"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chronofactor/timetable/core/course"
)

func TestParseTiming(t *testing.T) {
	tests := []struct {
		name    string
		s       string
		want    Timing
		wantErr bool
	}{
		{name: "single letter day", s: "CS F211:M9", want: Timing{CourseCode: "CS F211", Day: "M", Hour: 9}},
		{name: "two letter day", s: "MATH F112:Th10", want: Timing{CourseCode: "MATH F112", Day: "Th", Hour: 10}},
		{name: "no slot", s: "CS F211:", wantErr: true},
		{name: "no course", s: ":M9", wantErr: true},
		{name: "no day", s: "CS F211:9", wantErr: true},
		{name: "no hour", s: "CS F211:M", wantErr: true},
		{name: "no separator", s: "CS F211M9", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseTiming(tt.s)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.s, got.String())
		})
	}
}

func TestParseExamTime(t *testing.T) {
	tests := []struct {
		name    string
		s       string
		want    string
		wantErr bool
	}{
		{
			name: "stored form",
			s:    "CS F211|MIDSEM|2024-03-10T10:00:00.000Z|2024-03-10T12:00:00.000Z",
			want: "CS F211|MIDSEM|2024-03-10T10:00:00.000Z|2024-03-10T12:00:00.000Z",
		},
		{
			name: "offset is normalized to UTC",
			s:    "CS F211|COMPRE|2024-05-10T14:30:00+05:30|2024-05-10T17:30:00+05:30",
			want: "CS F211|COMPRE|2024-05-10T09:00:00.000Z|2024-05-10T12:00:00.000Z",
		},
		{name: "bad kind", s: "CS F211|QUIZ|2024-03-10T10:00:00.000Z|2024-03-10T12:00:00.000Z", wantErr: true},
		{name: "bad start", s: "CS F211|MIDSEM|yesterday|2024-03-10T12:00:00.000Z", wantErr: true},
		{name: "missing end", s: "CS F211|MIDSEM|2024-03-10T10:00:00.000Z", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseExamTime(tt.s)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.String())
		})
	}
}

func TestParseWarning(t *testing.T) {
	got, err := ParseWarning("CS F211:TP")
	require.NoError(t, err)
	assert.Equal(t, Warning{CourseCode: "CS F211", Missing: []course.SectionType{course.Practical, course.Tutorial}}, got)
	assert.Equal(t, "CS F211:PT", got.String())

	for _, bad := range []string{"CS F211:", "CS F211:X", "CS F211"} {
		_, err := ParseWarning(bad)
		assert.Error(t, err, bad)
	}
}

func TestTokens_json(t *testing.T) {
	tt := Timetable{
		Timings:  []Timing{{CourseCode: "CS F211", Day: "M", Hour: 9}},
		Warnings: []Warning{{CourseCode: "CS F211", Missing: []course.SectionType{course.Practical}}},
	}
	data, err := json.Marshal(tt)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"timings":["CS F211:M9"]`)
	assert.Contains(t, string(data), `"warnings":["CS F211:P"]`)

	var back Timetable
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, tt.Timings, back.Timings)
	assert.Equal(t, tt.Warnings, back.Warnings)
}

func TestDecodeTimings_rejectsGarbage(t *testing.T) {
	_, err := DecodeTimings([]string{"CS F211:M9", "garbage"})
	assert.True(t, errors.Is(err, errBadToken), "got %v", err)
}
