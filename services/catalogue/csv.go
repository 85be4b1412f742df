package catalogue

import (
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/gocarina/gocsv"
	"github.com/pkg/errors"

	"github.com/chronofactor/timetable/core/course"
	"github.com/chronofactor/timetable/core/timetable"
)

// CourseRow is one weekly hour of one section. Course columns repeat on every row of the course.
type CourseRow struct {
	Code        string `csv:"code"`
	Name        string `csv:"name"`
	MidsemStart string `csv:"midsem_start"`
	MidsemEnd   string `csv:"midsem_end"`
	CompreStart string `csv:"compre_start"`
	CompreEnd   string `csv:"compre_end"`
	Section     string `csv:"section"`
	Instructors string `csv:"instructors"` // ";" separated
	Room        string `csv:"room"`
	Day         string `csv:"day"`
	Hour        int    `csv:"hour"`
}

// ExportRow is one weekly hour of a timetable.
type ExportRow struct {
	Course      string `csv:"course"`
	Section     string `csv:"section"`
	Day         string `csv:"day"`
	Hour        int    `csv:"hour"`
	Room        string `csv:"room"`
	Instructors string `csv:"instructors"`
}

// DecodeCSV reads course rows into courses of the given semester, keeping first-seen order.
func DecodeCSV(r io.Reader, acadYear, semester int) ([]course.NewCourse, error) {
	var rows []*CourseRow
	if err := gocsv.Unmarshal(r, &rows); err != nil {
		return nil, errors.Wrap(err, "decoding catalogue CSV")
	}

	var ncs []*course.NewCourse
	courses := make(map[string]*course.NewCourse)
	sections := make(map[string]*course.NewSection)
	sectionOrder := make(map[string][]string)

	for i, row := range rows {
		code := strings.TrimSpace(row.Code)
		nc, ok := courses[code]
		if !ok {
			nc = &course.NewCourse{Code: code, Name: row.Name, AcadYear: acadYear, Semester: semester}
			var err error
			if nc.Midsem, err = rowWindow(row.MidsemStart, row.MidsemEnd); err != nil {
				return nil, errors.Wrapf(err, "row %d: midsem", i+1)
			}
			if nc.Compre, err = rowWindow(row.CompreStart, row.CompreEnd); err != nil {
				return nil, errors.Wrapf(err, "row %d: compre", i+1)
			}
			courses[code] = nc
			ncs = append(ncs, nc)
		}

		key := code + "-" + strings.TrimSpace(row.Section)
		ns, ok := sections[key]
		if !ok {
			typ, num, err := splitSectionName(row.Section)
			if err != nil {
				return nil, errors.Wrapf(err, "row %d", i+1)
			}
			ns = &course.NewSection{Type: typ, Number: num, Instructors: splitInstructors(row.Instructors), RoomTimes: []string{}}
			sections[key] = ns
			sectionOrder[code] = append(sectionOrder[code], key)
		}
		if row.Room != "" || row.Day != "" {
			ns.RoomTimes = append(ns.RoomTimes, code+":"+row.Room+":"+row.Day+":"+strconv.Itoa(row.Hour))
		}
	}

	res := make([]course.NewCourse, 0, len(ncs))
	for _, nc := range ncs {
		for _, key := range sectionOrder[nc.Code] {
			nc.Sections = append(nc.Sections, *sections[key])
		}
		res = append(res, *nc)
	}
	return res, nil
}

func rowWindow(start, end string) (*course.NewWindow, error) {
	start, end = strings.TrimSpace(start), strings.TrimSpace(end)
	if start == "" && end == "" {
		return nil, nil
	}
	s := start + "|" + end
	return parseWindow(&s)
}

func splitInstructors(s string) []string {
	res := make([]string, 0)
	for _, name := range strings.Split(s, ";") {
		if name = strings.TrimSpace(name); name != "" {
			res = append(res, name)
		}
	}
	return res
}

// ExportRows lays a timetable's sections out hour by hour, ordered by day then hour.
func ExportRows(tt timetable.Timetable) []*ExportRow {
	rows := make([]*ExportRow, 0)
	for _, sec := range tt.Sections {
		for _, rt := range sec.RoomTimes {
			rows = append(rows, &ExportRow{
				Course:      sec.CourseCode,
				Section:     sec.Name(),
				Day:         rt.Day,
				Hour:        rt.Hour,
				Room:        rt.Room,
				Instructors: strings.Join(sec.Instructors, ";"),
			})
		}
	}
	sort.SliceStable(rows, func(i, j int) bool {
		di, dj := dayRank(rows[i].Day), dayRank(rows[j].Day)
		if di != dj {
			return di < dj
		}
		return rows[i].Hour < rows[j].Hour
	})
	return rows
}

// Export writes a timetable as CSV.
func Export(w io.Writer, tt timetable.Timetable) error {
	rows := ExportRows(tt)
	if err := gocsv.Marshal(&rows, w); err != nil {
		return errors.Wrapf(err, "exporting timetable %d", tt.ID)
	}
	return nil
}

var weekdays = map[string]int{"M": 1, "T": 2, "W": 3, "Th": 4, "F": 5, "S": 6, "Su": 7}

func dayRank(d string) int {
	if r, ok := weekdays[d]; ok {
		return r
	}
	return len(weekdays) + 1
}

// Load decodes a catalogue file, JSON or CSV by its extension.
// CSV rows carry no semester: acadYear and semester fill it in.
func Load(r io.Reader, name string, acadYear, semester int) ([]course.NewCourse, error) {
	switch {
	case strings.HasSuffix(strings.ToLower(name), ".json"):
		return DecodeJSON(r)
	case strings.HasSuffix(strings.ToLower(name), ".csv"):
		return DecodeCSV(r, acadYear, semester)
	}
	return nil, errors.Errorf("unsupported catalogue file %q", name)
}
