package sqlxrepos

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/chronofactor/timetable/core"
	"github.com/chronofactor/timetable/core/course"
)

const (
	courseColumns  = "c.id, c.code, c.name, c.midsem_start, c.midsem_end, c.compre_start, c.compre_end, c.archived, c.acad_year, c.semester, c.created_at"
	sectionColumns = "s.id, s.course_id, c.code AS course_code, s.type, s.number, s.instructors, s.room_time, s.created_at"

	uniqueViolation = "23505"
)

var courseOrderings = map[string]string{
	"code":       "c.code",
	"name":       "c.name",
	"created_at": "c.created_at",
}

type courseRow struct {
	ID          string    `db:"id"`
	Code        string    `db:"code"`
	Name        string    `db:"name"`
	MidsemStart null.Time `db:"midsem_start"`
	MidsemEnd   null.Time `db:"midsem_end"`
	CompreStart null.Time `db:"compre_start"`
	CompreEnd   null.Time `db:"compre_end"`
	Archived    bool      `db:"archived"`
	AcadYear    int       `db:"acad_year"`
	Semester    int       `db:"semester"`
	CreatedAt   time.Time `db:"created_at"`
}

type sectionRow struct {
	ID          string         `db:"id"`
	CourseID    string         `db:"course_id"`
	CourseCode  string         `db:"course_code"`
	Type        string         `db:"type"`
	Number      int            `db:"number"`
	Instructors pq.StringArray `db:"instructors"`
	RoomTimes   pq.StringArray `db:"room_time"`
	CreatedAt   time.Time      `db:"created_at"`
}

func windowColumns(w *course.Window) (null.Time, null.Time) {
	if w == nil {
		return null.Time{}, null.Time{}
	}
	return null.TimeFrom(w.Start.UTC()), null.TimeFrom(w.End.UTC())
}

func windowOf(start, end null.Time) *course.Window {
	if !start.Valid || !end.Valid {
		return nil
	}
	return &course.Window{Start: start.Time.UTC(), End: end.Time.UTC()}
}

func rowOfCourse(crs course.Course) courseRow {
	row := courseRow{
		ID:        crs.ID,
		Code:      crs.Code,
		Name:      crs.Name,
		Archived:  crs.Archived,
		AcadYear:  crs.AcadYear,
		Semester:  crs.Semester,
		CreatedAt: crs.CreatedAt.UTC(),
	}
	row.MidsemStart, row.MidsemEnd = windowColumns(crs.Midsem)
	row.CompreStart, row.CompreEnd = windowColumns(crs.Compre)
	return row
}

func (row courseRow) course() course.Course {
	return course.Course{
		ID:        row.ID,
		Code:      row.Code,
		Name:      row.Name,
		Midsem:    windowOf(row.MidsemStart, row.MidsemEnd),
		Compre:    windowOf(row.CompreStart, row.CompreEnd),
		Archived:  row.Archived,
		AcadYear:  row.AcadYear,
		Semester:  row.Semester,
		CreatedAt: row.CreatedAt.UTC(),
	}
}

func (row sectionRow) section() (course.Section, error) {
	rts, err := course.DecodeRoomTimes(row.RoomTimes)
	if err != nil {
		return course.Section{}, errors.Wrapf(err, "decoding room-times of section %s", row.ID)
	}
	instructors := []string(row.Instructors)
	if instructors == nil {
		instructors = []string{}
	}
	return course.Section{
		ID:          row.ID,
		CourseID:    row.CourseID,
		CourseCode:  row.CourseCode,
		Type:        course.SectionType(strings.TrimSpace(row.Type)),
		Number:      row.Number,
		Instructors: instructors,
		RoomTimes:   rts,
		CreatedAt:   row.CreatedAt.UTC(),
	}, nil
}

func sectionsOf(rows []sectionRow) ([]course.Section, error) {
	secs := make([]course.Section, 0, len(rows))
	for _, row := range rows {
		sec, err := row.section()
		if err != nil {
			return nil, err
		}
		secs = append(secs, sec)
	}
	return secs, nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}

// inTx runs fn in a transaction, rolled back whenever fn fails.
func inTx(ctx context.Context, db *sqlx.DB, fn func(tx *sqlx.Tx) error) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "beginning transaction")
	}
	if err = fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return errors.Wrap(tx.Commit(), "committing transaction")
}

type courseRepository struct {
	db *sqlx.DB
}

var _ course.Repository = (*courseRepository)(nil) // interface compliance check

func NewCourseRepository(db *sqlx.DB) course.Repository {
	return &courseRepository{db: db}
}

// trapNoRowsErr maps "no rows" to `notFound`.
func trapNoRowsErr(err error, notFound error, msg string) error {
	if errors.Cause(err) == sql.ErrNoRows {
		return notFound
	}
	return errors.Wrap(err, msg)
}

func (repo *courseRepository) CreateCourses(ctx context.Context, courses []course.Course, sections []course.Section) error {
	return inTx(ctx, repo.db, func(tx *sqlx.Tx) error {
		for _, crs := range courses {
			_, err := tx.NamedExecContext(ctx, `
				INSERT INTO course (id, code, name, midsem_start, midsem_end, compre_start, compre_end,
				                    archived, acad_year, semester, created_at)
				VALUES (:id, :code, :name, :midsem_start, :midsem_end, :compre_start, :compre_end,
				        :archived, :acad_year, :semester, :created_at)`,
				rowOfCourse(crs),
			)
			if isUniqueViolation(err) {
				return core.NewValidationError(course.ErrCodeExists, core.FieldError{Field: "code", Error: crs.Code})
			}
			if err != nil {
				return errors.Wrapf(err, "inserting course %s", crs.Code)
			}
		}
		for _, sec := range sections {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO section (id, course_id, type, number, instructors, room_time, created_at)
				VALUES ($1, $2, $3, $4, $5, $6, $7)`,
				sec.ID, sec.CourseID, string(sec.Type), sec.Number,
				pq.StringArray(sec.Instructors), pq.StringArray(sec.EncodedRoomTimes()), sec.CreatedAt.UTC(),
			)
			if err != nil {
				return errors.Wrapf(err, "inserting section %s", sec.Label())
			}
		}
		return nil
	})
}

func (repo *courseRepository) GetCourse(ctx context.Context, filter course.GetFilter) (course.Course, error) {
	var row courseRow
	var err error
	q := "SELECT " + courseColumns + " FROM course c "

	if filter.ID != "" {
		if _, err = uuid.Parse(filter.ID); err != nil {
			return course.Course{}, course.ErrNotFound
		}
		err = sqlx.GetContext(ctx, repo.db, &row, q+"WHERE c.id = $1", filter.ID)
	} else {
		err = sqlx.GetContext(ctx, repo.db, &row,
			q+"WHERE c.code = $1 AND c.acad_year = $2 AND c.semester = $3",
			filter.Code, filter.AcadYear, filter.Semester,
		)
	}
	if err != nil {
		return course.Course{}, trapNoRowsErr(err, course.ErrNotFound, "finding course")
	}
	return row.course(), nil
}

func (repo *courseRepository) QueryCourses(
	ctx context.Context,
	filter course.QueryFilter,
	ordering ...core.DBOrdering,
) ([]course.Course, error) {
	var conds []string
	var args []interface{}
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.Search != "" {
		val := arg("%" + filter.Search + "%")
		conds = append(conds, fmt.Sprintf("(c.code ILIKE %s OR c.name ILIKE %s)", val, val))
	}
	if filter.AcadYear > 0 {
		conds = append(conds, "c.acad_year = "+arg(filter.AcadYear))
	}
	if filter.Semester > 0 {
		conds = append(conds, "c.semester = "+arg(filter.Semester))
	}
	if !filter.IncludeArchived {
		conds = append(conds, "NOT c.archived")
	}

	q := "SELECT " + courseColumns + " FROM course c"
	if len(conds) > 0 {
		q += " WHERE " + strings.Join(conds, " AND ")
	}
	q += " ORDER BY " + orderBy(ordering, courseOrderings, "c.code ASC")

	var rows []courseRow
	if err := sqlx.SelectContext(ctx, repo.db, &rows, q, args...); err != nil {
		return nil, errors.Wrap(err, "querying courses")
	}
	courses := make([]course.Course, 0, len(rows))
	for _, row := range rows {
		courses = append(courses, row.course())
	}
	return courses, nil
}

func orderBy(ordering []core.DBOrdering, allowed map[string]string, fallback string) string {
	ords := core.FilterOrderings(ordering, allowed)
	if len(ords) == 0 {
		return fallback
	}
	list := make([]string, 0, len(ords))
	for _, ord := range ords {
		list = append(list, ord.String())
	}
	return strings.Join(list, ", ")
}

func (repo *courseRepository) GetSection(ctx context.Context, id string) (course.Section, error) {
	if _, err := uuid.Parse(id); err != nil {
		return course.Section{}, course.ErrSectionNotFound
	}
	var row sectionRow
	err := sqlx.GetContext(ctx, repo.db, &row,
		"SELECT "+sectionColumns+" FROM section s JOIN course c ON c.id = s.course_id WHERE s.id = $1", id)
	if err != nil {
		return course.Section{}, trapNoRowsErr(err, course.ErrSectionNotFound, "finding section")
	}
	return row.section()
}

func (repo *courseRepository) QuerySections(ctx context.Context, courseID string) ([]course.Section, error) {
	if _, err := uuid.Parse(courseID); err != nil {
		return nil, course.ErrNotFound
	}
	var rows []sectionRow
	err := sqlx.SelectContext(ctx, repo.db, &rows,
		"SELECT "+sectionColumns+" FROM section s JOIN course c ON c.id = s.course_id WHERE s.course_id = $1", courseID)
	if err != nil {
		return nil, errors.Wrap(err, "querying sections")
	}
	return sectionsOf(rows)
}

func (repo *courseRepository) QuerySectionTypes(ctx context.Context, courseID string) ([]course.SectionType, error) {
	if _, err := uuid.Parse(courseID); err != nil {
		return nil, course.ErrNotFound
	}
	var raw []string
	if err := sqlx.SelectContext(ctx, repo.db, &raw,
		"SELECT DISTINCT type FROM section WHERE course_id = $1", courseID); err != nil {
		return nil, errors.Wrap(err, "querying section types")
	}
	types := make([]course.SectionType, 0, len(raw))
	for _, t := range raw {
		types = append(types, course.SectionType(strings.TrimSpace(t)))
	}
	return types, nil
}

func (repo *courseRepository) UpdateCourseExams(ctx context.Context, crs course.Course) (course.Course, error) {
	row := rowOfCourse(crs)
	res, err := repo.db.NamedExecContext(ctx, `
		UPDATE course
		SET midsem_start = :midsem_start, midsem_end = :midsem_end,
		    compre_start = :compre_start, compre_end = :compre_end
		WHERE id = :id`,
		row,
	)
	if err != nil {
		return course.Course{}, errors.Wrap(err, "updating course exams")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return course.Course{}, course.ErrNotFound
	}
	return crs, nil
}

func (repo *courseRepository) UpdateSectionRoomTimes(ctx context.Context, sec course.Section) (course.Section, error) {
	res, err := repo.db.ExecContext(ctx, "UPDATE section SET room_time = $1 WHERE id = $2",
		pq.StringArray(sec.EncodedRoomTimes()), sec.ID)
	if err != nil {
		return course.Section{}, errors.Wrap(err, "updating section room-times")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return course.Section{}, course.ErrSectionNotFound
	}
	return sec, nil
}

func (repo *courseRepository) ArchiveCourse(ctx context.Context, id string) (course.Course, error) {
	if _, err := uuid.Parse(id); err != nil {
		return course.Course{}, course.ErrNotFound
	}
	var row courseRow
	err := sqlx.GetContext(ctx, repo.db, &row,
		"UPDATE course c SET archived = true WHERE c.id = $1 RETURNING "+courseColumns, id)
	if err != nil {
		return course.Course{}, trapNoRowsErr(err, course.ErrNotFound, "archiving course")
	}
	return row.course(), nil
}
