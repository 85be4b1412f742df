package course

import (
	"context"
	"sort"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/kat-co/vala"
	"github.com/pkg/errors"

	"github.com/chronofactor/timetable/core"
)

var (
	// errors
	ErrNotFound        = errors.New("course not found")
	ErrSectionNotFound = errors.New("section not found")
	ErrCodeExists      = errors.New("a course with this code already exists for the semester")
)

type (
	Repository interface {
		// CreateCourses stores courses and their sections atomically.
		CreateCourses(ctx context.Context, courses []Course, sections []Section) error
		GetCourse(ctx context.Context, filter GetFilter) (Course, error)
		QueryCourses(ctx context.Context, filter QueryFilter, ordering ...core.DBOrdering) ([]Course, error)
		GetSection(ctx context.Context, id string) (Section, error)
		QuerySections(ctx context.Context, courseID string) ([]Section, error)
		// QuerySectionTypes returns the distinct types over every section ever offered for the course.
		QuerySectionTypes(ctx context.Context, courseID string) ([]SectionType, error)
		UpdateCourseExams(ctx context.Context, crs Course) (Course, error)
		UpdateSectionRoomTimes(ctx context.Context, sec Section) (Section, error)
		ArchiveCourse(ctx context.Context, id string) (Course, error)
	}

	Service struct {
		repo     Repository
		validate *validator.Validate
	}

	// IngestSummary reports what a catalogue ingestion stored.
	IngestSummary struct {
		Courses  int           `json:"courses"`
		Sections int           `json:"sections"`
		Took     time.Duration `json:"took"`
	}
)

var nowFunc = time.Now // mockable

func NewService(repo Repository, validate *validator.Validate) *Service {
	vala.BeginValidation().Validate(
		vala.IsNotNil(repo, "repo"),
		vala.IsNotNil(validate, "validate"),
	).CheckAndPanic()

	return &Service{repo: repo, validate: validate}
}

// Ingest validates then stores a semester's catalogue in one go.
func (svc *Service) Ingest(ctx context.Context, ncs []NewCourse) (IngestSummary, error) {
	start := nowFunc()

	seen := make(map[string]bool, len(ncs))
	courses := make([]Course, 0, len(ncs))
	sections := make([]Section, 0, len(ncs)*3)
	for i := range ncs {
		nc := &ncs[i]
		if err := nc.Validate(svc.validate); err != nil {
			return IngestSummary{}, errors.Wrapf(err, "validating course #%d (%s)", i, nc.Code)
		}
		if seen[nc.Code] {
			return IngestSummary{}, core.NewValidationError(ErrCodeExists, core.FieldError{Field: "code", Error: nc.Code})
		}
		seen[nc.Code] = true

		crs, secs, err := nc.build(start)
		if err != nil {
			return IngestSummary{}, errors.Wrapf(err, "building course %s", nc.Code)
		}
		courses = append(courses, crs)
		sections = append(sections, secs...)
	}

	if err := svc.repo.CreateCourses(ctx, courses, sections); err != nil {
		return IngestSummary{}, errors.Wrap(err, "storing catalogue")
	}
	return IngestSummary{
		Courses:  len(courses),
		Sections: len(sections),
		Took:     nowFunc().Sub(start),
	}, nil
}

func (nc NewCourse) build(now time.Time) (Course, []Section, error) {
	crs := Course{
		ID:        uuid.New().String(),
		Code:      nc.Code,
		Name:      nc.Name,
		Midsem:    nc.Midsem.window(),
		Compre:    nc.Compre.window(),
		AcadYear:  nc.AcadYear,
		Semester:  nc.Semester,
		CreatedAt: now.UTC(),
	}
	secs := make([]Section, 0, len(nc.Sections))
	for _, ns := range nc.Sections {
		typ, err := ParseSectionType(ns.Type)
		if err != nil {
			return Course{}, nil, err
		}
		rts, err := DecodeRoomTimes(ns.RoomTimes)
		if err != nil {
			return Course{}, nil, err
		}
		secs = append(secs, Section{
			ID:          uuid.New().String(),
			CourseID:    crs.ID,
			CourseCode:  crs.Code,
			Type:        typ,
			Number:      ns.Number,
			Instructors: ns.Instructors,
			RoomTimes:   rts,
			CreatedAt:   now.UTC(),
		})
	}
	return crs, secs, nil
}

func (svc *Service) GetByID(ctx context.Context, id string) (Course, error) {
	return svc.repo.GetCourse(ctx, GetFilter{ID: id})
}

func (svc *Service) GetByCode(ctx context.Context, code string, acadYear, semester int) (Course, error) {
	return svc.repo.GetCourse(ctx, GetFilter{Code: core.CleanCode(code), AcadYear: acadYear, Semester: semester})
}

func (svc *Service) Query(ctx context.Context, filter QueryFilter, ordering ...core.DBOrdering) ([]Course, error) {
	filter.Clean()
	return svc.repo.QueryCourses(ctx, filter, ordering...)
}

func (svc *Service) GetSection(ctx context.Context, id string) (Section, error) {
	return svc.repo.GetSection(ctx, id)
}

func (svc *Service) Sections(ctx context.Context, courseID string) ([]Section, error) {
	secs, err := svc.repo.QuerySections(ctx, courseID)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(secs, func(i, j int) bool {
		if secs[i].Type != secs[j].Type {
			return secs[i].Type < secs[j].Type
		}
		return secs[i].Number < secs[j].Number
	})
	return secs, nil
}

// RequiredSectionTypes is the set of types a student must pick one section of, for the course.
func (svc *Service) RequiredSectionTypes(ctx context.Context, courseID string) ([]SectionType, error) {
	types, err := svc.repo.QuerySectionTypes(ctx, courseID)
	if err != nil {
		return nil, err
	}
	return NormalizeTypes(types...), nil
}

// UpdateExams moves a course's exam windows. Timetables holding the course must be resynced by the caller.
func (svc *Service) UpdateExams(ctx context.Context, id string, ue UpdateExams) (Course, error) {
	if err := ue.Validate(svc.validate); err != nil {
		return Course{}, err
	}
	crs, err := svc.repo.GetCourse(ctx, GetFilter{ID: id})
	if err != nil {
		return Course{}, err
	}
	crs.Midsem = ue.Midsem.window()
	crs.Compre = ue.Compre.window()
	return svc.repo.UpdateCourseExams(ctx, crs)
}

// UpdateRoomTimes moves a section to new room-times. Timetables holding the section must be resynced by the caller.
func (svc *Service) UpdateRoomTimes(ctx context.Context, ur UpdateRoomTimes) (Section, error) {
	if err := ur.Validate(svc.validate); err != nil {
		return Section{}, err
	}
	sec, err := svc.repo.GetSection(ctx, ur.SectionID)
	if err != nil {
		return Section{}, err
	}
	if sec.RoomTimes, err = DecodeRoomTimes(ur.RoomTimes); err != nil {
		return Section{}, err
	}
	return svc.repo.UpdateSectionRoomTimes(ctx, sec)
}

// Archive retires a course once its semester is over. Its sections can no longer leave a timetable.
func (svc *Service) Archive(ctx context.Context, id string) (Course, error) {
	return svc.repo.ArchiveCourse(ctx, id)
}
