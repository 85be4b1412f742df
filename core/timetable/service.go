package timetable

import (
	"context"
	"sort"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kat-co/vala"
	"github.com/pkg/errors"

	"github.com/chronofactor/timetable/core"
	"github.com/chronofactor/timetable/core/course"
)

var (
	// errors
	ErrNotFound        = errors.New("timetable not found")
	ErrNotDraft        = errors.New("timetable is not a draft")
	ErrArchived        = errors.New("timetable is archived")
	ErrCourseArchived  = errors.New("course is archived")
	ErrCopyArchived    = errors.New("an archived timetable cannot be copied")
	ErrArchivedDraft   = errors.New("an archived timetable cannot be a draft")
	ErrDraftPublic     = errors.New("a draft timetable cannot be public")
	ErrPublishEmpty    = errors.New("an empty timetable cannot be published")
	ErrPublishWarnings = errors.New("a timetable with warnings cannot be published")
)

type (
	Repository interface {
		CreateTimetable(ctx context.Context, tt Timetable) (Timetable, error)
		GetTimetable(ctx context.Context, id int) (Timetable, error)
		// QueryTimetables applies AND operation on available QueryFilter fields.
		QueryTimetables(ctx context.Context, filter QueryFilter) ([]Timetable, error)
		// QueryTimetableIDsByCourse returns the timetables holding at least one section of the course.
		QueryTimetableIDsByCourse(ctx context.Context, courseID string) ([]int, error)
		// MutateTimetable locks the timetable, hands it to fn and stores what fn returns.
		// Nothing is stored when fn fails, and concurrent mutations of one timetable are serialized.
		MutateTimetable(ctx context.Context, id int, fn func(Timetable) (Timetable, error)) (Timetable, error)
		DeleteTimetable(ctx context.Context, id int) error
	}

	// Catalogue is the read side of the course catalogue the engine needs.
	Catalogue interface {
		GetByID(ctx context.Context, id string) (course.Course, error)
		GetSection(ctx context.Context, id string) (course.Section, error)
		Sections(ctx context.Context, courseID string) ([]course.Section, error)
		RequiredSectionTypes(ctx context.Context, courseID string) ([]course.SectionType, error)
	}

	Service struct {
		repo      Repository
		catalogue Catalogue
		validate  *validator.Validate
		log       core.Logger
	}
)

var nowFunc = time.Now // mockable

func NewService(repo Repository, catalogue Catalogue, validate *validator.Validate, logger core.Logger) *Service {
	vala.BeginValidation().Validate(
		vala.IsNotNil(repo, "repo"),
		vala.IsNotNil(catalogue, "catalogue"),
		vala.IsNotNil(validate, "validate"),
		vala.IsNotNil(logger, "logger"),
	).CheckAndPanic()

	return &Service{repo: repo, catalogue: catalogue, validate: validate, log: logger}
}

// engineError logs invariant violations; rejections pass through untouched.
func (svc *Service) engineError(err error, tt Timetable) error {
	if IsInvariantViolation(err) {
		svc.log.Error("timetable invariant violated", err, map[string]interface{}{
			"timetable_id": tt.ID,
			"sections":     len(tt.Sections),
		}, core.Author(tt.AuthorID))
	}
	return err
}

func (svc *Service) Create(ctx context.Context, nt NewTimetable) (Timetable, error) {
	if err := nt.Validate(svc.validate); err != nil {
		return Timetable{}, err
	}
	now := nowFunc().UTC()
	tt := Timetable{
		AuthorID:    nt.AuthorID,
		Name:        nt.Name,
		Degrees:     nt.Degrees,
		Private:     true,
		Draft:       true,
		Year:        nt.Year,
		AcadYear:    nt.AcadYear,
		Semester:    nt.Semester,
		CreatedAt:   now,
		LastUpdated: now,
	}
	if tt.Name == "" {
		tt.Name = defaultName
	}
	if tt.Degrees == nil {
		tt.Degrees = []string{}
	}
	tt.setState(NewState())
	return svc.repo.CreateTimetable(ctx, tt)
}

func (svc *Service) Get(ctx context.Context, id int) (Timetable, error) {
	return svc.repo.GetTimetable(ctx, id)
}

func (svc *Service) Query(ctx context.Context, filter QueryFilter) ([]Timetable, error) {
	filter.AuthorID = core.CleanString(filter.AuthorID)
	return svc.repo.QueryTimetables(ctx, filter)
}

func (svc *Service) Delete(ctx context.Context, id int) error {
	return svc.repo.DeleteTimetable(ctx, id)
}

// Copy duplicates a timetable, sections and derived fields included, as a new private draft.
// Archived timetables belong to past semesters and cannot be copied.
func (svc *Service) Copy(ctx context.Context, id int, authorID string) (Timetable, error) {
	src, err := svc.repo.GetTimetable(ctx, id)
	if err != nil {
		return Timetable{}, err
	}
	if src.Archived {
		return Timetable{}, ErrCopyArchived
	}
	now := nowFunc().UTC()
	cp := src
	cp.ID = 0
	cp.Degrees = append([]string{}, src.Degrees...)
	cp.Private = true
	cp.Draft = true
	cp.CreatedAt = now
	cp.LastUpdated = now
	if authorID = core.CleanString(authorID); authorID != "" {
		cp.AuthorID = authorID
	}
	cp.setState(src.State())
	return svc.repo.CreateTimetable(ctx, cp)
}

// UpdateMetadata edits name, visibility and draft status.
func (svc *Service) UpdateMetadata(ctx context.Context, id int, um UpdateMetadata) (Timetable, error) {
	if err := um.Validate(svc.validate); err != nil {
		return Timetable{}, err
	}
	return svc.repo.MutateTimetable(ctx, id, func(tt Timetable) (Timetable, error) {
		wasDraft := tt.Draft
		if um.Name != nil {
			tt.Name = *um.Name
		}
		if um.Private != nil {
			tt.Private = *um.Private
		}
		if um.Draft != nil {
			tt.Draft = *um.Draft
		}

		switch {
		case tt.Archived && tt.Draft:
			return tt, ErrArchivedDraft
		case tt.Draft && !tt.Private:
			return tt, ErrDraftPublic
		case wasDraft && !tt.Draft && len(tt.Sections) == 0:
			return tt, ErrPublishEmpty
		case wasDraft && !tt.Draft && len(tt.Warnings) > 0:
			return tt, ErrPublishWarnings
		}
		tt.LastUpdated = nowFunc().UTC()
		return tt, nil
	})
}

// AddSection puts a catalogue section into a draft timetable.
func (svc *Service) AddSection(ctx context.Context, id int, sectionID string) (Timetable, error) {
	sec, err := svc.catalogue.GetSection(ctx, sectionID)
	if err != nil {
		return Timetable{}, err
	}
	crs, err := svc.catalogue.GetByID(ctx, sec.CourseID)
	if err != nil {
		return Timetable{}, err
	}
	required, err := svc.catalogue.RequiredSectionTypes(ctx, crs.ID)
	if err != nil {
		return Timetable{}, err
	}

	return svc.repo.MutateTimetable(ctx, id, func(tt Timetable) (Timetable, error) {
		if !tt.Draft {
			return tt, ErrNotDraft
		}
		st, err := AddSection(tt.State(), sec, crs, required)
		if err != nil {
			return tt, svc.engineError(err, tt)
		}
		tt.setState(st)
		tt.LastUpdated = nowFunc().UTC()
		return tt, nil
	})
}

// RemoveSection takes a section out of a draft timetable. Sections of archived courses stay put.
func (svc *Service) RemoveSection(ctx context.Context, id int, sectionID string) (Timetable, error) {
	sec, err := svc.catalogue.GetSection(ctx, sectionID)
	if err != nil {
		return Timetable{}, err
	}
	crs, err := svc.catalogue.GetByID(ctx, sec.CourseID)
	if err != nil {
		return Timetable{}, err
	}
	required, err := svc.catalogue.RequiredSectionTypes(ctx, crs.ID)
	if err != nil {
		return Timetable{}, err
	}

	return svc.repo.MutateTimetable(ctx, id, func(tt Timetable) (Timetable, error) {
		switch {
		case !tt.Draft:
			return tt, ErrNotDraft
		case tt.Archived:
			return tt, ErrArchived
		case crs.Archived && tt.State().Has(sec):
			return tt, ErrCourseArchived
		}
		st, err := RemoveSection(tt.State(), sec, required)
		if err != nil {
			return tt, svc.engineError(err, tt)
		}
		tt.setState(st)
		tt.LastUpdated = nowFunc().UTC()
		return tt, nil
	})
}

// ResyncCourse re-applies a course's sections to every timetable holding them, after its
// exam windows or room-times changed in the catalogue. previous holds the sections as they
// were before a room-time change; it may be nil when only the exams moved.
// Sections that no longer fit are dropped and their timetable goes back to a private draft.
func (svc *Service) ResyncCourse(ctx context.Context, courseID string, previous []course.Section) ([]ResyncReport, error) {
	crs, err := svc.catalogue.GetByID(ctx, courseID)
	if err != nil {
		return nil, err
	}
	current, err := svc.catalogue.Sections(ctx, courseID)
	if err != nil {
		return nil, err
	}
	required, err := svc.catalogue.RequiredSectionTypes(ctx, courseID)
	if err != nil {
		return nil, err
	}
	ids, err := svc.repo.QueryTimetableIDsByCourse(ctx, courseID)
	if err != nil {
		return nil, errors.Wrap(err, "looking up timetables to resync")
	}

	prevByID := make(map[string]course.Section, len(previous))
	for _, s := range previous {
		prevByID[s.ID] = s
	}
	curByID := make(map[string]course.Section, len(current))
	for _, s := range current {
		curByID[s.ID] = s
	}

	reports := make([]ResyncReport, 0, len(ids))
	for _, id := range ids {
		var report ResyncReport
		_, err := svc.repo.MutateTimetable(ctx, id, func(tt Timetable) (Timetable, error) {
			report = ResyncReport{TimetableID: tt.ID, Readded: []string{}, Dropped: []string{}}
			st := tt.State()

			var held []course.Section
			for _, s := range st.Sections {
				if s.CourseID == courseID || s.CourseCode == crs.Code {
					held = append(held, s)
				}
			}

			var err error
			for _, s := range held {
				old := s
				if p, ok := prevByID[s.ID]; ok {
					old = p
				}
				if st, err = RemoveSection(st, old, required); err != nil {
					return tt, svc.engineError(err, tt)
				}
			}

			for _, s := range held {
				fresh, ok := curByID[s.ID]
				if !ok {
					report.Dropped = append(report.Dropped, s.Label())
					continue
				}
				next, err := AddSection(st, fresh, crs, required)
				if err != nil {
					if _, ok := AsRejection(err); !ok {
						return tt, svc.engineError(err, tt)
					}
					report.Dropped = append(report.Dropped, fresh.Label())
					continue
				}
				st = next
				report.Readded = append(report.Readded, fresh.Label())
			}

			if len(report.Dropped) > 0 {
				tt.Draft = true
				tt.Private = true
				svc.log.Warn("sections dropped during resync", map[string]interface{}{
					"timetable_id": tt.ID,
					"course":       crs.Code,
					"dropped":      report.Dropped,
				}, core.Author(tt.AuthorID))
			}
			tt.setState(st)
			tt.LastUpdated = nowFunc().UTC()
			return tt, nil
		})
		if err != nil {
			return reports, errors.Wrapf(err, "resyncing timetable %d", id)
		}
		reports = append(reports, report)
	}
	return reports, nil
}

// Verify recomputes the projections of a stored timetable from its sections alone.
func (svc *Service) Verify(ctx context.Context, id int) (Timetable, State, error) {
	tt, err := svc.repo.GetTimetable(ctx, id)
	if err != nil {
		return Timetable{}, State{}, err
	}
	derived, err := svc.Derive(ctx, tt.Sections)
	if err != nil {
		return Timetable{}, State{}, errors.Wrapf(err, "deriving timetable %d", id)
	}
	return tt, derived, nil
}

// Derive loads what the catalogue knows of the sections' courses and recomputes their projections.
func (svc *Service) Derive(ctx context.Context, sections []course.Section) (State, error) {
	courses := make(map[string]course.Course)
	required := make(map[string][]course.SectionType)
	ids := make([]string, 0)
	seen := make(map[string]bool)
	for _, s := range sections {
		if !seen[s.CourseID] {
			seen[s.CourseID] = true
			ids = append(ids, s.CourseID)
		}
	}
	sort.Strings(ids)

	for _, cid := range ids {
		crs, err := svc.catalogue.GetByID(ctx, cid)
		if err != nil {
			return State{}, err
		}
		types, err := svc.catalogue.RequiredSectionTypes(ctx, cid)
		if err != nil {
			return State{}, err
		}
		courses[crs.Code] = crs
		required[crs.Code] = types
	}
	return Derive(sections, courses, required)
}
