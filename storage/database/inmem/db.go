package inmemdb

import (
	"sync"

	"github.com/chronofactor/timetable/core/course"
	"github.com/chronofactor/timetable/core/timetable"
)

type (
	// DB keeps the whole store behind one lock: timetables reference catalogue sections by ID.
	DB struct {
		sync.RWMutex
		courses    map[string]*course.Course
		sections   map[string]*course.Section
		timetables map[int]*storedTimetable
		pkCount    int
	}

	// storedTimetable is a timetable with its sections kept as IDs, resolved on read.
	storedTimetable struct {
		timetable.Timetable
		sectionIDs []string
	}
)

func Open() (*DB, error) {
	db := &DB{
		courses:    make(map[string]*course.Course),
		sections:   make(map[string]*course.Section),
		timetables: make(map[int]*storedTimetable),
	}
	return db, nil
}
