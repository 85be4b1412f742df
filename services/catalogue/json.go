package catalogue

import (
	"encoding/json"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/chronofactor/timetable/core/course"
)

// timetable.json as published by the registrar.
type (
	catalogueJSON struct {
		Metadata struct {
			AcadYear int `json:"acadYear"`
			Semester int `json:"semester"`
		} `json:"metadata"`
		Courses map[string]courseJSON `json:"courses"`
	}

	courseJSON struct {
		Units    int                    `json:"units"`
		Name     string                 `json:"course_name"`
		Sections map[string]sectionJSON `json:"sections"`
		Exams    []examJSON             `json:"exams_iso"`
	}

	sectionJSON struct {
		Instructors []string       `json:"instructor"`
		Schedule    []scheduleJSON `json:"schedule"`
	}

	scheduleJSON struct {
		Room  string   `json:"room"`
		Days  []string `json:"days"`
		Hours []int    `json:"hours"`
	}

	examJSON struct {
		Midsem *string `json:"midsem"`
		Compre *string `json:"compre"`
	}
)

// DecodeJSON reads a timetable.json document into courses ready for ingestion.
// Courses come out sorted by code and sections by name.
func DecodeJSON(r io.Reader) ([]course.NewCourse, error) {
	var doc catalogueJSON
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, errors.Wrap(err, "decoding catalogue JSON")
	}

	codes := make([]string, 0, len(doc.Courses))
	for code := range doc.Courses {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	ncs := make([]course.NewCourse, 0, len(codes))
	for _, code := range codes {
		cj := doc.Courses[code]
		nc := course.NewCourse{
			Code:     code,
			Name:     cj.Name,
			AcadYear: doc.Metadata.AcadYear,
			Semester: doc.Metadata.Semester,
			Sections: make([]course.NewSection, 0, len(cj.Sections)),
		}
		if len(cj.Exams) > 0 {
			var err error
			if nc.Midsem, err = parseWindow(cj.Exams[0].Midsem); err != nil {
				return nil, errors.Wrapf(err, "%s midsem", code)
			}
			if nc.Compre, err = parseWindow(cj.Exams[0].Compre); err != nil {
				return nil, errors.Wrapf(err, "%s compre", code)
			}
		}

		names := make([]string, 0, len(cj.Sections))
		for name := range cj.Sections {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			typ, num, err := splitSectionName(name)
			if err != nil {
				return nil, errors.Wrapf(err, "course %s", code)
			}
			sj := cj.Sections[name]
			ns := course.NewSection{
				Type:        typ,
				Number:      num,
				Instructors: sj.Instructors,
				RoomTimes:   make([]string, 0),
			}
			// one room-time per room x day x hour
			for _, sch := range sj.Schedule {
				for _, day := range sch.Days {
					for _, hour := range sch.Hours {
						ns.RoomTimes = append(ns.RoomTimes, code+":"+sch.Room+":"+day+":"+strconv.Itoa(hour))
					}
				}
			}
			nc.Sections = append(nc.Sections, ns)
		}
		ncs = append(ncs, nc)
	}
	return ncs, nil
}

// parseWindow reads "start|end" ISO timestamps; a null or empty value means no exam.
func parseWindow(s *string) (*course.NewWindow, error) {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil, nil
	}
	parts := strings.Split(*s, "|")
	if len(parts) != 2 {
		return nil, errors.Errorf("bad exam window %q", *s)
	}
	start, err := time.Parse(time.RFC3339Nano, strings.TrimSpace(parts[0]))
	if err != nil {
		return nil, errors.Wrapf(err, "bad exam window %q", *s)
	}
	end, err := time.Parse(time.RFC3339Nano, strings.TrimSpace(parts[1]))
	if err != nil {
		return nil, errors.Wrapf(err, "bad exam window %q", *s)
	}
	return &course.NewWindow{Start: start.UTC(), End: end.UTC()}, nil
}

// splitSectionName turns "L12" into ("L", 12).
func splitSectionName(name string) (string, int, error) {
	name = strings.TrimSpace(name)
	if len(name) < 2 {
		return "", 0, errors.Errorf("bad section name %q", name)
	}
	num, err := strconv.Atoi(name[1:])
	if err != nil {
		return "", 0, errors.Errorf("bad section name %q", name)
	}
	return name[:1], num, nil
}
