package testutil

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/chronofactor/timetable/core"
	"github.com/chronofactor/timetable/core/course"
	"github.com/chronofactor/timetable/core/timetable"
	"github.com/chronofactor/timetable/storage/database/inmem"
)

const (
	AcadYear = 2023
	Semester = 2
)

func NewValidator() (*validator.Validate, ut.Translator) {
	translator := core.NewTranslator()
	validate := core.NewValidator(translator)
	course.InitValidators(validate, translator)
	return validate, translator
}

func at(s string) time.Time {
	ts, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return ts
}

func newSection(code string, typ course.SectionType, num int, slots ...string) course.NewSection {
	rts := make([]string, 0, len(slots))
	for i := 0; i+1 < len(slots); i += 2 {
		rts = append(rts, fmt.Sprintf("%s:F10%d:%s:%s", code, num, slots[i], slots[i+1]))
	}
	return course.NewSection{Type: string(typ), Number: num, Instructors: []string{"Prof " + code}, RoomTimes: rts}
}

// Catalogue returns a small semester: CS F211 and MATH F112 have overlapping midsems,
// ECON F211 fits with both, BITS F110 has no exams.
func Catalogue() []course.NewCourse {
	return []course.NewCourse{
		{
			Code:     "CS F211",
			Name:     "Data Structures & Algorithms",
			Midsem:   &course.NewWindow{Start: at("2024-03-10T10:00:00Z"), End: at("2024-03-10T12:00:00Z")},
			Compre:   &course.NewWindow{Start: at("2024-05-10T09:00:00Z"), End: at("2024-05-10T12:00:00Z")},
			AcadYear: AcadYear,
			Semester: Semester,
			Sections: []course.NewSection{
				newSection("CS F211", course.Lecture, 1, "M", "9", "W", "9", "F", "9"),
				newSection("CS F211", course.Lecture, 2, "T", "11", "Th", "11"),
				newSection("CS F211", course.Practical, 1, "T", "2", "T", "3"),
				newSection("CS F211", course.Tutorial, 1, "Th", "8"),
			},
		},
		{
			Code:     "MATH F112",
			Name:     "Mathematics II",
			Midsem:   &course.NewWindow{Start: at("2024-03-10T09:00:00Z"), End: at("2024-03-10T11:00:00Z")},
			Compre:   &course.NewWindow{Start: at("2024-05-12T09:00:00Z"), End: at("2024-05-12T12:00:00Z")},
			AcadYear: AcadYear,
			Semester: Semester,
			Sections: []course.NewSection{
				newSection("MATH F112", course.Lecture, 1, "M", "9", "W", "9"),
				newSection("MATH F112", course.Lecture, 2, "M", "10", "W", "10"),
				newSection("MATH F112", course.Tutorial, 1, "Th", "1"),
			},
		},
		{
			Code:     "ECON F211",
			Name:     "Principles of Economics",
			Midsem:   &course.NewWindow{Start: at("2024-03-11T09:00:00Z"), End: at("2024-03-11T10:30:00Z")},
			Compre:   &course.NewWindow{Start: at("2024-05-14T14:00:00Z"), End: at("2024-05-14T17:00:00Z")},
			AcadYear: AcadYear,
			Semester: Semester,
			Sections: []course.NewSection{
				newSection("ECON F211", course.Lecture, 1, "T", "9", "Th", "9"),
				newSection("ECON F211", course.Tutorial, 1, "S", "10"),
			},
		},
		{
			Code:     "BITS F110",
			Name:     "Engineering Graphics",
			AcadYear: AcadYear,
			Semester: Semester,
			Sections: []course.NewSection{
				newSection("BITS F110", course.Practical, 1, "S", "3"),
			},
		},
	}
}

// Store is an in-memory catalogue loaded with Catalogue, plus the services on top of it.
type Store struct {
	DB            *inmemdb.DB
	Courses       *course.Service
	Timetables    *timetable.Service
	TimetableRepo timetable.Repository
	Logger        *Logger

	// Validate and Translator back the services; servers under test must share them.
	Validate   *validator.Validate
	Translator ut.Translator

	// Sections by label, e.g. "CS F211-L1".
	Sections map[string]course.Section
	// Courses by code.
	CourseByCode map[string]course.Course
}

func NewStore(t *testing.T) *Store {
	t.Helper()
	ctx := context.Background()

	db, err := inmemdb.Open()
	if err != nil {
		t.Fatalf("NewStore() failed: %v", err)
	}
	validate, translator := NewValidator()
	s := &Store{
		DB:            db,
		Courses:       course.NewService(inmemdb.NewCourseRepository(db), validate),
		TimetableRepo: inmemdb.NewTimetableRepository(db),
		Logger:        &Logger{},
		Validate:      validate,
		Translator:    translator,
		Sections:      make(map[string]course.Section),
		CourseByCode:  make(map[string]course.Course),
	}
	s.Timetables = timetable.NewService(s.TimetableRepo, s.Courses, validate, s.Logger)

	if _, err = s.Courses.Ingest(ctx, Catalogue()); err != nil {
		t.Fatalf("NewStore() failed: %v", err)
	}
	courses, err := s.Courses.Query(ctx, course.QueryFilter{})
	if err != nil {
		t.Fatalf("NewStore() failed: %v", err)
	}
	for _, crs := range courses {
		s.CourseByCode[crs.Code] = crs
		secs, err := s.Courses.Sections(ctx, crs.ID)
		if err != nil {
			t.Fatalf("NewStore() failed: %v", err)
		}
		for _, sec := range secs {
			s.Sections[sec.Label()] = sec
		}
	}
	return s
}

// Section returns the ID of the section labelled `label`.
func (s *Store) Section(t *testing.T, label string) string {
	t.Helper()
	sec, ok := s.Sections[label]
	if !ok {
		t.Fatalf("unknown section %s", label)
	}
	return sec.ID
}

// CreateTimetable creates a draft timetable holding `labels`, added in order.
func (s *Store) CreateTimetable(t *testing.T, author string, labels ...string) timetable.Timetable {
	t.Helper()
	ctx := context.Background()

	tt, err := s.Timetables.Create(ctx, timetable.NewTimetable{
		AuthorID: author,
		Year:     2,
		AcadYear: AcadYear,
		Semester: Semester,
	})
	if err != nil {
		t.Fatalf("CreateTimetable() failed: %v", err)
	}
	for _, l := range labels {
		if tt, err = s.Timetables.AddSection(ctx, tt.ID, s.Section(t, l)); err != nil {
			t.Fatalf("CreateTimetable(%s) failed: %v", l, err)
		}
	}
	return tt
}

// Logger records what was logged, for assertions.
type Logger struct {
	mu      sync.Mutex
	Entries []string
}

var _ core.Logger = (*Logger)(nil)

func (l *Logger) log(level, msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Entries = append(l.Entries, level+": "+msg)
}

func (l *Logger) Debug(msg string, _ ...interface{}) { l.log("DEBUG", msg) }
func (l *Logger) Info(msg string, _ ...interface{})  { l.log("INFO", msg) }
func (l *Logger) Warn(msg string, _ ...interface{})  { l.log("WARN", msg) }
func (l *Logger) Error(msg string, _ ...interface{}) { l.log("ERROR", msg) }
func (l *Logger) Fatal(msg string, _ ...interface{}) { l.log("FATAL", msg) }
