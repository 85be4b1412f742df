package sqlxrepos

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/chronofactor/timetable/core/timetable"
)

const timetableColumns = `t.id, t.author_id, t.name, t.degrees, t.private, t.draft, t.archived, t.year,
	t.acad_year, t.semester, t.timings, t.exam_times, t.warnings, t.created_at, t.last_updated`

type timetableRow struct {
	ID          int            `db:"id"`
	AuthorID    string         `db:"author_id"`
	Name        string         `db:"name"`
	Degrees     pq.StringArray `db:"degrees"`
	Private     bool           `db:"private"`
	Draft       bool           `db:"draft"`
	Archived    bool           `db:"archived"`
	Year        int            `db:"year"`
	AcadYear    int            `db:"acad_year"`
	Semester    int            `db:"semester"`
	Timings     pq.StringArray `db:"timings"`
	ExamTimes   pq.StringArray `db:"exam_times"`
	Warnings    pq.StringArray `db:"warnings"`
	CreatedAt   time.Time      `db:"created_at"`
	LastUpdated time.Time      `db:"last_updated"`
}

type timetableSectionRow struct {
	TimetableID int `db:"timetable_id"`
	sectionRow
}

func rowOfTimetable(tt timetable.Timetable) timetableRow {
	return timetableRow{
		ID:          tt.ID,
		AuthorID:    tt.AuthorID,
		Name:        tt.Name,
		Degrees:     nonNil(tt.Degrees),
		Private:     tt.Private,
		Draft:       tt.Draft,
		Archived:    tt.Archived,
		Year:        tt.Year,
		AcadYear:    tt.AcadYear,
		Semester:    tt.Semester,
		Timings:     timetable.EncodeTimings(tt.Timings),
		ExamTimes:   timetable.EncodeExamTimes(tt.ExamTimes),
		Warnings:    timetable.EncodeWarnings(tt.Warnings),
		CreatedAt:   tt.CreatedAt.UTC(),
		LastUpdated: tt.LastUpdated.UTC(),
	}
}

func nonNil(ss []string) pq.StringArray {
	if ss == nil {
		return pq.StringArray{}
	}
	return ss
}

func (row timetableRow) timetable() (timetable.Timetable, error) {
	tt := timetable.Timetable{
		ID:          row.ID,
		AuthorID:    row.AuthorID,
		Name:        row.Name,
		Degrees:     []string(nonNil(row.Degrees)),
		Private:     row.Private,
		Draft:       row.Draft,
		Archived:    row.Archived,
		Year:        row.Year,
		AcadYear:    row.AcadYear,
		Semester:    row.Semester,
		CreatedAt:   row.CreatedAt.UTC(),
		LastUpdated: row.LastUpdated.UTC(),
	}
	var err error
	if tt.Timings, err = timetable.DecodeTimings(row.Timings); err != nil {
		return timetable.Timetable{}, errors.Wrapf(err, "decoding timetable %d", row.ID)
	}
	if tt.ExamTimes, err = timetable.DecodeExamTimes(row.ExamTimes); err != nil {
		return timetable.Timetable{}, errors.Wrapf(err, "decoding timetable %d", row.ID)
	}
	if tt.Warnings, err = timetable.DecodeWarnings(row.Warnings); err != nil {
		return timetable.Timetable{}, errors.Wrapf(err, "decoding timetable %d", row.ID)
	}
	return tt, nil
}

type timetableRepository struct {
	db *sqlx.DB
}

var _ timetable.Repository = (*timetableRepository)(nil) // interface compliance check

func NewTimetableRepository(db *sqlx.DB) timetable.Repository {
	return &timetableRepository{db: db}
}

// load turns rows into timetables, sections included.
func (repo *timetableRepository) load(ctx context.Context, q sqlx.QueryerContext, rows []timetableRow) ([]timetable.Timetable, error) {
	res := make([]timetable.Timetable, 0, len(rows))
	if len(rows) == 0 {
		return res, nil
	}

	ids := make([]int64, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, int64(row.ID))
	}
	var secRows []timetableSectionRow
	err := sqlx.SelectContext(ctx, q, &secRows, `
		SELECT ts.timetable_id, `+sectionColumns+`
		FROM timetable_sections ts
		JOIN section s ON s.id = ts.section_id
		JOIN course c ON c.id = s.course_id
		WHERE ts.timetable_id = ANY($1)
		ORDER BY ts.timetable_id, ts.position`,
		pq.Int64Array(ids),
	)
	if err != nil {
		return nil, errors.Wrap(err, "querying timetable sections")
	}
	byTimetable := make(map[int][]sectionRow, len(rows))
	for _, sr := range secRows {
		byTimetable[sr.TimetableID] = append(byTimetable[sr.TimetableID], sr.sectionRow)
	}

	for _, row := range rows {
		tt, err := row.timetable()
		if err != nil {
			return nil, err
		}
		if tt.Sections, err = sectionsOf(byTimetable[row.ID]); err != nil {
			return nil, err
		}
		res = append(res, tt)
	}
	return res, nil
}

func (repo *timetableRepository) get(ctx context.Context, q sqlx.QueryerContext, id int, forUpdate bool) (timetable.Timetable, error) {
	query := "SELECT " + timetableColumns + " FROM timetable t WHERE t.id = $1"
	if forUpdate {
		query += " FOR UPDATE"
	}
	var row timetableRow
	if err := sqlx.GetContext(ctx, q, &row, query, id); err != nil {
		return timetable.Timetable{}, trapNoRowsErr(err, timetable.ErrNotFound, "finding timetable")
	}
	tts, err := repo.load(ctx, q, []timetableRow{row})
	if err != nil {
		return timetable.Timetable{}, err
	}
	return tts[0], nil
}

func writeSections(ctx context.Context, tx *sqlx.Tx, tt timetable.Timetable) error {
	if _, err := tx.ExecContext(ctx, "DELETE FROM timetable_sections WHERE timetable_id = $1", tt.ID); err != nil {
		return errors.Wrap(err, "clearing timetable sections")
	}
	for i, sec := range tt.Sections {
		_, err := tx.ExecContext(ctx,
			"INSERT INTO timetable_sections (timetable_id, section_id, position) VALUES ($1, $2, $3)",
			tt.ID, sec.ID, i,
		)
		if err != nil {
			return errors.Wrapf(err, "linking section %s", sec.Label())
		}
	}
	return nil
}

func (repo *timetableRepository) CreateTimetable(ctx context.Context, tt timetable.Timetable) (timetable.Timetable, error) {
	err := inTx(ctx, repo.db, func(tx *sqlx.Tx) error {
		stmt, err := tx.PrepareNamedContext(ctx, `
			INSERT INTO timetable (author_id, name, degrees, private, draft, archived, year, acad_year, semester,
			                       timings, exam_times, warnings, created_at, last_updated)
			VALUES (:author_id, :name, :degrees, :private, :draft, :archived, :year, :acad_year, :semester,
			        :timings, :exam_times, :warnings, :created_at, :last_updated)
			RETURNING id`)
		if err != nil {
			return errors.Wrap(err, "preparing timetable insert")
		}
		defer func() { _ = stmt.Close() }()

		if err = stmt.GetContext(ctx, &tt.ID, rowOfTimetable(tt)); err != nil {
			return errors.Wrap(err, "inserting timetable")
		}
		return writeSections(ctx, tx, tt)
	})
	if err != nil {
		return timetable.Timetable{}, err
	}
	return tt, nil
}

func (repo *timetableRepository) GetTimetable(ctx context.Context, id int) (timetable.Timetable, error) {
	return repo.get(ctx, repo.db, id, false)
}

func (repo *timetableRepository) QueryTimetables(ctx context.Context, filter timetable.QueryFilter) ([]timetable.Timetable, error) {
	var conds []string
	var args []interface{}
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.AuthorID != "" {
		conds = append(conds, "t.author_id = "+arg(filter.AuthorID))
	}
	if filter.PublicOnly {
		conds = append(conds, "NOT t.private", "NOT t.draft")
	}
	if filter.AcadYear > 0 {
		conds = append(conds, "t.acad_year = "+arg(filter.AcadYear))
	}
	if filter.Semester > 0 {
		conds = append(conds, "t.semester = "+arg(filter.Semester))
	}
	if !filter.IncludeArchived {
		conds = append(conds, "NOT t.archived")
	}

	q := "SELECT " + timetableColumns + " FROM timetable t"
	if len(conds) > 0 {
		q += " WHERE " + strings.Join(conds, " AND ")
	}
	q += " ORDER BY t.last_updated DESC, t.id"

	var rows []timetableRow
	if err := sqlx.SelectContext(ctx, repo.db, &rows, q, args...); err != nil {
		return nil, errors.Wrap(err, "querying timetables")
	}
	return repo.load(ctx, repo.db, rows)
}

func (repo *timetableRepository) QueryTimetableIDsByCourse(ctx context.Context, courseID string) ([]int, error) {
	var ids []int
	err := sqlx.SelectContext(ctx, repo.db, &ids, `
		SELECT DISTINCT ts.timetable_id
		FROM timetable_sections ts
		JOIN section s ON s.id = ts.section_id
		WHERE s.course_id = $1
		ORDER BY ts.timetable_id`,
		courseID,
	)
	if err != nil {
		return nil, errors.Wrap(err, "querying timetables by course")
	}
	return ids, nil
}

// MutateTimetable holds the row lock from read to write, so concurrent edits of one timetable queue up.
func (repo *timetableRepository) MutateTimetable(
	ctx context.Context,
	id int,
	fn func(timetable.Timetable) (timetable.Timetable, error),
) (timetable.Timetable, error) {
	var res timetable.Timetable
	err := inTx(ctx, repo.db, func(tx *sqlx.Tx) error {
		tt, err := repo.get(ctx, tx, id, true)
		if err != nil {
			return err
		}
		if tt, err = fn(tt); err != nil {
			return err
		}
		tt.ID = id

		_, err = tx.NamedExecContext(ctx, `
			UPDATE timetable
			SET name = :name, degrees = :degrees, private = :private, draft = :draft, archived = :archived,
			    timings = :timings, exam_times = :exam_times, warnings = :warnings, last_updated = :last_updated
			WHERE id = :id`,
			rowOfTimetable(tt),
		)
		if err != nil {
			return errors.Wrap(err, "updating timetable")
		}
		if err = writeSections(ctx, tx, tt); err != nil {
			return err
		}
		res = tt
		return nil
	})
	if err != nil {
		return timetable.Timetable{}, err
	}
	return res, nil
}

func (repo *timetableRepository) DeleteTimetable(ctx context.Context, id int) error {
	res, err := repo.db.ExecContext(ctx, "DELETE FROM timetable WHERE id = $1", id)
	if err != nil {
		return errors.Wrap(err, "deleting timetable")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return timetable.ErrNotFound
	}
	return nil
}
