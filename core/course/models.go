package course

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/pkg/errors"
)

// Section types
const (
	Lecture   SectionType = "L"
	Practical SectionType = "P"
	Tutorial  SectionType = "T"
)

// Exam kinds
const (
	Midsem ExamKind = "MIDSEM"
	Compre ExamKind = "COMPRE"
)

var (
	SectionTypes = []SectionType{Lecture, Practical, Tutorial}
	ExamKinds    = []ExamKind{Midsem, Compre}

	sectionTypeNames = map[SectionType]string{
		Lecture:   "Lecture",
		Practical: "Practical",
		Tutorial:  "Tutorial",
	}

	errInvalidSectionType = errors.New("invalid section type")
	errInvalidRoomTime    = errors.New("invalid room-time")
	errInvalidWindow      = errors.New("exam window must start before it ends")
)

// SectionType tags a Section as a Lecture, Practical or Tutorial.
type SectionType string

func ParseSectionType(s string) (SectionType, error) {
	t := SectionType(strings.ToUpper(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", errors.Wrapf(errInvalidSectionType, "%q", s)
	}
	return t, nil
}

func (t SectionType) Valid() bool {
	_, ok := sectionTypeNames[t]
	return ok
}

func (t SectionType) Name() string { return sectionTypeNames[t] }

// NormalizeTypes returns the distinct types of `types` in L, P, T order.
func NormalizeTypes(types ...SectionType) []SectionType {
	seen := make(map[SectionType]bool, len(types))
	res := make([]SectionType, 0, len(types))
	for _, t := range types {
		if !seen[t] {
			seen[t] = true
			res = append(res, t)
		}
	}
	sort.Slice(res, func(i, j int) bool { return res[i] < res[j] })
	return res
}

// Letters joins types into their persisted form, e.g. "LT".
func Letters(types []SectionType) string {
	var b strings.Builder
	for _, t := range types {
		b.WriteString(string(t))
	}
	return b.String()
}

// ParseLetters is the inverse of Letters.
func ParseLetters(s string) ([]SectionType, error) {
	types := make([]SectionType, 0, len(s))
	for _, r := range s {
		t, err := ParseSectionType(string(r))
		if err != nil {
			return nil, err
		}
		types = append(types, t)
	}
	return types, nil
}

// ExamKind is one of the two written exams of a semester.
type ExamKind string

func ParseExamKind(s string) (ExamKind, error) {
	k := ExamKind(strings.ToUpper(strings.TrimSpace(s)))
	if k != Midsem && k != Compre {
		return "", errors.Errorf("invalid exam kind %q", s)
	}
	return k, nil
}

// Label is the lower-case form used in messages ("midsem").
func (k ExamKind) Label() string { return strings.ToLower(string(k)) }

// Window is a closed time interval.
type Window struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

func MakeWindow(start, end time.Time) (Window, error) {
	if !start.Before(end) {
		return Window{}, errInvalidWindow
	}
	return Window{Start: start.UTC(), End: end.UTC()}, nil
}

// Overlaps is inclusive: windows sharing a single instant overlap.
func (w Window) Overlaps(o Window) bool {
	return !w.Start.After(o.End) && !o.Start.After(w.End)
}

func (w Window) Equal(o Window) bool {
	return w.Start.Equal(o.Start) && w.End.Equal(o.End)
}

type Course struct {
	ID        string    `json:"id"`
	Code      string    `json:"code"`
	Name      string    `json:"name"`
	Midsem    *Window   `json:"midsem"`
	Compre    *Window   `json:"compre"`
	Archived  bool      `json:"archived"`
	AcadYear  int       `json:"acad_year"`
	Semester  int       `json:"semester"`
	CreatedAt time.Time `json:"created_at"`
}

// Exam returns the course's window for `kind`, nil when the course has no such exam.
func (c Course) Exam(kind ExamKind) *Window {
	switch kind {
	case Midsem:
		return c.Midsem
	case Compre:
		return c.Compre
	}
	return nil
}

// RoomTime is one weekly hour a Section meets, in a given room.
type RoomTime struct {
	Room string `json:"room"`
	Day  string `json:"day"`
	Hour int    `json:"hour"`
}

// ParseRoomTime accepts "<courseCode>:<room>:<day>:<hour>" and the legacy "<room>:<day>:<hour>".
func ParseRoomTime(s string) (RoomTime, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 3 && len(parts) != 4 {
		return RoomTime{}, errors.Wrapf(errInvalidRoomTime, "%q", s)
	}
	parts = parts[len(parts)-3:]
	hour, err := strconv.Atoi(strings.TrimSpace(parts[2]))
	if err != nil || hour < 0 || hour > 23 {
		return RoomTime{}, errors.Wrapf(errInvalidRoomTime, "%q: bad hour", s)
	}
	rt := RoomTime{
		Room: strings.TrimSpace(parts[0]),
		Day:  strings.TrimSpace(parts[1]),
		Hour: hour,
	}
	if !ValidDay(rt.Day) {
		return RoomTime{}, errors.Wrapf(errInvalidRoomTime, "%q: bad day", s)
	}
	return rt, nil
}

// ValidDay reports whether `d` is a weekday label such as "M", "Th" or "S".
func ValidDay(d string) bool {
	if d == "" {
		return false
	}
	for _, r := range d {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}

// Encode renders the persisted form "<courseCode>:<room>:<day>:<hour>".
func (rt RoomTime) Encode(courseCode string) string {
	return fmt.Sprintf("%s:%s:%s:%d", courseCode, rt.Room, rt.Day, rt.Hour)
}

// Slot is the (weekday, hour) pair without the room, e.g. "M9".
func (rt RoomTime) Slot() string {
	return rt.Day + strconv.Itoa(rt.Hour)
}

type Section struct {
	ID          string      `json:"id"`
	CourseID    string      `json:"course_id"`
	CourseCode  string      `json:"course_code"`
	Type        SectionType `json:"type"`
	Number      int         `json:"number"`
	Instructors []string    `json:"instructors"`
	RoomTimes   []RoomTime  `json:"room_times"`
	CreatedAt   time.Time   `json:"created_at"`
}

// Name is the short section name, e.g. "L1".
func (s Section) Name() string {
	return string(s.Type) + strconv.Itoa(s.Number)
}

// Label identifies the section across courses, e.g. "CS F211-L1".
func (s Section) Label() string {
	return s.CourseCode + "-" + s.Name()
}

// EncodedRoomTimes returns the persisted room-time strings of the section.
func (s Section) EncodedRoomTimes() []string {
	res := make([]string, 0, len(s.RoomTimes))
	for _, rt := range s.RoomTimes {
		res = append(res, rt.Encode(s.CourseCode))
	}
	return res
}

// DecodeRoomTimes parses persisted room-time strings.
func DecodeRoomTimes(raw []string) ([]RoomTime, error) {
	res := make([]RoomTime, 0, len(raw))
	for _, s := range raw {
		rt, err := ParseRoomTime(s)
		if err != nil {
			return nil, err
		}
		res = append(res, rt)
	}
	return res, nil
}

// SameSection compares identity: by ID when both have one, else by course/type/number.
func SameSection(a, b Section) bool {
	if a.ID != "" && b.ID != "" {
		return a.ID == b.ID
	}
	return a.CourseCode == b.CourseCode && a.Type == b.Type && a.Number == b.Number
}

// NewCourse contains information needed to ingest a Course with its Sections.
type NewCourse struct {
	Code     string       `json:"code" validate:"required,coursecode"`
	Name     string       `json:"name" validate:"required,max=50"`
	Midsem   *NewWindow   `json:"midsem" validate:"omitempty"`
	Compre   *NewWindow   `json:"compre" validate:"omitempty"`
	AcadYear int          `json:"acad_year" validate:"required,gte=2000,lte=2100"`
	Semester int          `json:"semester" validate:"required,oneof=1 2 3"`
	Sections []NewSection `json:"sections" validate:"required,dive"`
}

type NewWindow struct {
	Start time.Time `json:"start" validate:"required"`
	End   time.Time `json:"end" validate:"required,gtfield=Start"`
}

type NewSection struct {
	Type        string   `json:"type" validate:"required,sectiontype"`
	Number      int      `json:"number" validate:"gte=1"`
	Instructors []string `json:"instructors" validate:"dive,required"`
	RoomTimes   []string `json:"room_times" validate:"dive,roomtime"`
}

// UpdateExams defines the exam windows an existing Course may be moved to.
type UpdateExams struct {
	Midsem *NewWindow `json:"midsem" validate:"omitempty"`
	Compre *NewWindow `json:"compre" validate:"omitempty"`
}

// UpdateRoomTimes replaces the room-times of one Section.
type UpdateRoomTimes struct {
	SectionID string   `json:"section_id" validate:"required,uuid"`
	RoomTimes []string `json:"room_times" validate:"dive,roomtime"`
}

type GetFilter struct {
	ID       string
	Code     string
	AcadYear int
	Semester int
}

type QueryFilter struct {
	Search          string `query:"search"`
	AcadYear        int    `query:"acad_year"`
	Semester        int    `query:"semester"`
	IncludeArchived bool   `query:"include_archived"`
}

func (qf *QueryFilter) Clean() {
	qf.Search = strings.TrimSpace(qf.Search)
}

func (nw *NewWindow) window() *Window {
	if nw == nil {
		return nil
	}
	return &Window{Start: nw.Start.UTC(), End: nw.End.UTC()}
}
