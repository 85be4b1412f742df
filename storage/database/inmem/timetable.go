package inmemdb

import (
	"context"
	"sort"

	"github.com/chronofactor/timetable/core/course"
	"github.com/chronofactor/timetable/core/timetable"
)

type timetableRepository struct {
	db      *DB
	courses *courseRepository
}

var _ timetable.Repository = (*timetableRepository)(nil) // interface compliance check

func NewTimetableRepository(db *DB) timetable.Repository {
	return &timetableRepository{db: db, courses: &courseRepository{db: db}}
}

// store must be called with the write lock held.
func (repo *timetableRepository) store(tt timetable.Timetable) {
	ids := make([]string, 0, len(tt.Sections))
	for _, sec := range tt.Sections {
		ids = append(ids, sec.ID)
	}
	tt.Degrees = append([]string{}, tt.Degrees...)
	tt.Timings = append([]timetable.Timing{}, tt.Timings...)
	tt.ExamTimes = append([]timetable.ExamTime{}, tt.ExamTimes...)
	tt.Warnings = append([]timetable.Warning{}, tt.Warnings...)
	tt.Sections = nil
	repo.db.timetables[tt.ID] = &storedTimetable{Timetable: tt, sectionIDs: ids}
}

// load must be called with the lock held.
func (repo *timetableRepository) load(st *storedTimetable) timetable.Timetable {
	tt := st.Timetable
	tt.Degrees = append([]string{}, st.Degrees...)
	tt.Timings = append([]timetable.Timing{}, st.Timings...)
	tt.ExamTimes = append([]timetable.ExamTime{}, st.ExamTimes...)
	tt.Warnings = append([]timetable.Warning{}, st.Warnings...)
	tt.Sections = make([]course.Section, 0, len(st.sectionIDs))
	for _, id := range st.sectionIDs {
		if sec, ok := repo.db.sections[id]; ok {
			tt.Sections = append(tt.Sections, repo.courses.section(sec))
		}
	}
	return tt
}

func (repo *timetableRepository) CreateTimetable(_ context.Context, tt timetable.Timetable) (timetable.Timetable, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	repo.db.pkCount++
	tt.ID = repo.db.pkCount
	repo.store(tt)
	return repo.load(repo.db.timetables[tt.ID]), nil
}

func (repo *timetableRepository) GetTimetable(_ context.Context, id int) (timetable.Timetable, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if st, ok := repo.db.timetables[id]; ok {
		return repo.load(st), nil
	}
	return timetable.Timetable{}, timetable.ErrNotFound
}

func (repo *timetableRepository) QueryTimetables(_ context.Context, filter timetable.QueryFilter) ([]timetable.Timetable, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	tts := make([]timetable.Timetable, 0, len(repo.db.timetables))
	for _, st := range repo.db.timetables {
		if filter.AuthorID != "" && st.AuthorID != filter.AuthorID {
			continue
		}
		if filter.PublicOnly && (st.Private || st.Draft) {
			continue
		}
		if filter.AcadYear > 0 && st.AcadYear != filter.AcadYear {
			continue
		}
		if filter.Semester > 0 && st.Semester != filter.Semester {
			continue
		}
		if st.Archived && !filter.IncludeArchived {
			continue
		}
		tts = append(tts, repo.load(st))
	}
	sort.Slice(tts, func(i, j int) bool {
		if !tts[i].LastUpdated.Equal(tts[j].LastUpdated) {
			return tts[i].LastUpdated.After(tts[j].LastUpdated)
		}
		return tts[i].ID < tts[j].ID
	})
	return tts, nil
}

func (repo *timetableRepository) QueryTimetableIDsByCourse(_ context.Context, courseID string) ([]int, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	ids := make([]int, 0)
	for id, st := range repo.db.timetables {
		for _, sid := range st.sectionIDs {
			if sec, ok := repo.db.sections[sid]; ok && sec.CourseID == courseID {
				ids = append(ids, id)
				break
			}
		}
	}
	sort.Ints(ids)
	return ids, nil
}

// MutateTimetable runs fn under the store's write lock; fn must not call back into the store.
func (repo *timetableRepository) MutateTimetable(
	_ context.Context,
	id int,
	fn func(timetable.Timetable) (timetable.Timetable, error),
) (timetable.Timetable, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	st, ok := repo.db.timetables[id]
	if !ok {
		return timetable.Timetable{}, timetable.ErrNotFound
	}
	tt, err := fn(repo.load(st))
	if err != nil {
		return timetable.Timetable{}, err
	}
	tt.ID = id
	repo.store(tt)
	return repo.load(repo.db.timetables[id]), nil
}

func (repo *timetableRepository) DeleteTimetable(_ context.Context, id int) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.timetables[id]; !ok {
		return timetable.ErrNotFound
	}
	delete(repo.db.timetables, id)
	return nil
}
