package inmemdb

import (
	"context"
	"sort"
	"strings"

	"github.com/chronofactor/timetable/core"
	"github.com/chronofactor/timetable/core/course"
)

type courseRepository struct {
	db *DB
}

var _ course.Repository = (*courseRepository)(nil) // interface compliance check

func NewCourseRepository(db *DB) course.Repository {
	return &courseRepository{db: db}
}

func (repo *courseRepository) CreateCourses(_ context.Context, courses []course.Course, sections []course.Section) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	for _, crs := range courses {
		for _, c := range repo.db.courses {
			if c.Code == crs.Code && c.AcadYear == crs.AcadYear && c.Semester == crs.Semester {
				return core.NewValidationError(course.ErrCodeExists, core.FieldError{Field: "code", Error: crs.Code})
			}
		}
	}
	for i := range courses {
		crs := courses[i]
		repo.db.courses[crs.ID] = &crs
	}
	for i := range sections {
		sec := sections[i]
		sec.Instructors = append([]string{}, sec.Instructors...)
		sec.RoomTimes = append([]course.RoomTime{}, sec.RoomTimes...)
		repo.db.sections[sec.ID] = &sec
	}
	return nil
}

func (repo *courseRepository) GetCourse(_ context.Context, filter course.GetFilter) (course.Course, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if filter.ID != "" {
		if crs, ok := repo.db.courses[filter.ID]; ok {
			return *crs, nil
		}
		return course.Course{}, course.ErrNotFound
	}
	for _, crs := range repo.db.courses {
		if crs.Code == filter.Code && crs.AcadYear == filter.AcadYear && crs.Semester == filter.Semester {
			return *crs, nil
		}
	}
	return course.Course{}, course.ErrNotFound
}

func (repo *courseRepository) QueryCourses(
	_ context.Context,
	filter course.QueryFilter,
	ordering ...core.DBOrdering,
) ([]course.Course, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	search := strings.ToLower(filter.Search)
	courses := make([]course.Course, 0, len(repo.db.courses))
	for _, crs := range repo.db.courses {
		if search != "" &&
			!strings.Contains(strings.ToLower(crs.Code), search) &&
			!strings.Contains(strings.ToLower(crs.Name), search) {
			continue
		}
		if filter.AcadYear > 0 && crs.AcadYear != filter.AcadYear {
			continue
		}
		if filter.Semester > 0 && crs.Semester != filter.Semester {
			continue
		}
		if crs.Archived && !filter.IncludeArchived {
			continue
		}
		courses = append(courses, *crs)
	}

	ords := core.FilterOrderings(ordering, map[string]string{"code": "code", "name": "name", "created_at": "created_at"})
	if len(ords) == 0 {
		ords = []core.DBOrdering{{Field: "code", Ascending: true}}
	}
	sort.SliceStable(courses, func(i, j int) bool {
		for _, ord := range ords {
			var a, b string
			switch ord.Field {
			case "code":
				a, b = courses[i].Code, courses[j].Code
			case "name":
				a, b = courses[i].Name, courses[j].Name
			case "created_at":
				if !courses[i].CreatedAt.Equal(courses[j].CreatedAt) {
					return courses[i].CreatedAt.Before(courses[j].CreatedAt) == ord.Ascending
				}
				continue
			}
			if a != b {
				return (a < b) == ord.Ascending
			}
		}
		return false
	})
	return courses, nil
}

// section must be called with the lock held.
func (repo *courseRepository) section(sec *course.Section) course.Section {
	res := *sec
	if crs, ok := repo.db.courses[sec.CourseID]; ok {
		res.CourseCode = crs.Code
	}
	res.Instructors = append([]string{}, sec.Instructors...)
	res.RoomTimes = append([]course.RoomTime{}, sec.RoomTimes...)
	return res
}

func (repo *courseRepository) GetSection(_ context.Context, id string) (course.Section, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if sec, ok := repo.db.sections[id]; ok {
		return repo.section(sec), nil
	}
	return course.Section{}, course.ErrSectionNotFound
}

func (repo *courseRepository) QuerySections(_ context.Context, courseID string) ([]course.Section, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if _, ok := repo.db.courses[courseID]; !ok {
		return nil, course.ErrNotFound
	}
	secs := make([]course.Section, 0)
	for _, sec := range repo.db.sections {
		if sec.CourseID == courseID {
			secs = append(secs, repo.section(sec))
		}
	}
	sort.Slice(secs, func(i, j int) bool {
		if secs[i].Type != secs[j].Type {
			return secs[i].Type < secs[j].Type
		}
		return secs[i].Number < secs[j].Number
	})
	return secs, nil
}

func (repo *courseRepository) QuerySectionTypes(ctx context.Context, courseID string) ([]course.SectionType, error) {
	secs, err := repo.QuerySections(ctx, courseID)
	if err != nil {
		return nil, err
	}
	types := make([]course.SectionType, 0, len(secs))
	for _, sec := range secs {
		types = append(types, sec.Type)
	}
	return course.NormalizeTypes(types...), nil
}

func (repo *courseRepository) UpdateCourseExams(_ context.Context, crs course.Course) (course.Course, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	orig, ok := repo.db.courses[crs.ID]
	if !ok {
		return course.Course{}, course.ErrNotFound
	}
	orig.Midsem = crs.Midsem
	orig.Compre = crs.Compre
	return *orig, nil
}

func (repo *courseRepository) UpdateSectionRoomTimes(_ context.Context, sec course.Section) (course.Section, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	orig, ok := repo.db.sections[sec.ID]
	if !ok {
		return course.Section{}, course.ErrSectionNotFound
	}
	orig.RoomTimes = append([]course.RoomTime{}, sec.RoomTimes...)
	return repo.section(orig), nil
}

func (repo *courseRepository) ArchiveCourse(_ context.Context, id string) (course.Course, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	orig, ok := repo.db.courses[id]
	if !ok {
		return course.Course{}, course.ErrNotFound
	}
	orig.Archived = true
	return *orig, nil
}
