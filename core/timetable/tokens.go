package timetable

import (
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/pkg/errors"

	"github.com/chronofactor/timetable/core/course"
)

// isoLayout matches JavaScript's Date.toISOString, the format of already stored exam tokens.
const isoLayout = "2006-01-02T15:04:05.000Z"

var errBadToken = errors.New("malformed token")

// Timing is one occupied class hour: "<courseCode>:<day><hour>".
type Timing struct {
	CourseCode string
	Day        string
	Hour       int
}

func timingOf(courseCode string, rt course.RoomTime) Timing {
	return Timing{CourseCode: courseCode, Day: rt.Day, Hour: rt.Hour}
}

// Slot is the course-agnostic occupancy key, e.g. "M9".
func (t Timing) Slot() string { return t.Day + strconv.Itoa(t.Hour) }

func (t Timing) String() string { return t.CourseCode + ":" + t.Slot() }

func ParseTiming(s string) (Timing, error) {
	i := strings.LastIndex(s, ":")
	if i <= 0 || i == len(s)-1 {
		return Timing{}, errors.Wrapf(errBadToken, "timing %q", s)
	}
	slot := s[i+1:]
	j := strings.IndexFunc(slot, unicode.IsDigit)
	if j <= 0 {
		return Timing{}, errors.Wrapf(errBadToken, "timing %q", s)
	}
	hour, err := strconv.Atoi(slot[j:])
	if err != nil || !course.ValidDay(slot[:j]) {
		return Timing{}, errors.Wrapf(errBadToken, "timing %q", s)
	}
	return Timing{CourseCode: s[:i], Day: slot[:j], Hour: hour}, nil
}

// ExamTime is one exam of a scheduled course: "<courseCode>|<KIND>|<startISO>|<endISO>".
type ExamTime struct {
	CourseCode string
	Kind       course.ExamKind
	Window     course.Window
}

func (e ExamTime) String() string {
	return strings.Join([]string{
		e.CourseCode,
		string(e.Kind),
		e.Window.Start.UTC().Format(isoLayout),
		e.Window.End.UTC().Format(isoLayout),
	}, "|")
}

func ParseExamTime(s string) (ExamTime, error) {
	parts := strings.Split(s, "|")
	if len(parts) != 4 {
		return ExamTime{}, errors.Wrapf(errBadToken, "exam time %q", s)
	}
	kind, err := course.ParseExamKind(parts[1])
	if err != nil {
		return ExamTime{}, errors.Wrapf(errBadToken, "exam time %q", s)
	}
	start, err := time.Parse(time.RFC3339Nano, parts[2])
	if err != nil {
		return ExamTime{}, errors.Wrapf(errBadToken, "exam time %q: start", s)
	}
	end, err := time.Parse(time.RFC3339Nano, parts[3])
	if err != nil {
		return ExamTime{}, errors.Wrapf(errBadToken, "exam time %q: end", s)
	}
	return ExamTime{
		CourseCode: parts[0],
		Kind:       kind,
		Window:     course.Window{Start: start.UTC(), End: end.UTC()},
	}, nil
}

// Warning lists the section types still missing for a course: "<courseCode>:<typeLetters>".
type Warning struct {
	CourseCode string
	Missing    []course.SectionType
}

func (w Warning) String() string { return w.CourseCode + ":" + course.Letters(w.Missing) }

func ParseWarning(s string) (Warning, error) {
	i := strings.LastIndex(s, ":")
	if i <= 0 || i == len(s)-1 {
		return Warning{}, errors.Wrapf(errBadToken, "warning %q", s)
	}
	missing, err := course.ParseLetters(s[i+1:])
	if err != nil {
		return Warning{}, errors.Wrapf(errBadToken, "warning %q", s)
	}
	return Warning{CourseCode: s[:i], Missing: course.NormalizeTypes(missing...)}, nil
}

// Encoding to and decoding from the persisted string columns.

func EncodeTimings(ts []Timing) []string {
	res := make([]string, 0, len(ts))
	for _, t := range ts {
		res = append(res, t.String())
	}
	return res
}

func DecodeTimings(raw []string) ([]Timing, error) {
	res := make([]Timing, 0, len(raw))
	for _, s := range raw {
		t, err := ParseTiming(s)
		if err != nil {
			return nil, err
		}
		res = append(res, t)
	}
	return res, nil
}

func EncodeExamTimes(es []ExamTime) []string {
	res := make([]string, 0, len(es))
	for _, e := range es {
		res = append(res, e.String())
	}
	return res
}

func DecodeExamTimes(raw []string) ([]ExamTime, error) {
	res := make([]ExamTime, 0, len(raw))
	for _, s := range raw {
		e, err := ParseExamTime(s)
		if err != nil {
			return nil, err
		}
		res = append(res, e)
	}
	return res, nil
}

func EncodeWarnings(ws []Warning) []string {
	res := make([]string, 0, len(ws))
	for _, w := range ws {
		res = append(res, w.String())
	}
	return res
}

func DecodeWarnings(raw []string) ([]Warning, error) {
	res := make([]Warning, 0, len(raw))
	for _, s := range raw {
		w, err := ParseWarning(s)
		if err != nil {
			return nil, err
		}
		res = append(res, w)
	}
	return res, nil
}

// Tokens travel as their string form in JSON payloads.

func (t Timing) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

func (t *Timing) UnmarshalText(b []byte) (err error) {
	*t, err = ParseTiming(string(b))
	return err
}

func (e ExamTime) MarshalText() ([]byte, error) { return []byte(e.String()), nil }

func (e *ExamTime) UnmarshalText(b []byte) (err error) {
	*e, err = ParseExamTime(string(b))
	return err
}

func (w Warning) MarshalText() ([]byte, error) { return []byte(w.String()), nil }

func (w *Warning) UnmarshalText(b []byte) (err error) {
	*w, err = ParseWarning(string(b))
	return err
}
