package timetable

import "github.com/chronofactor/timetable/core/course"

// slotIndex maps an occupied (weekday, hour) slot to the course holding it.
type slotIndex map[string]string

func newSlotIndex(timings []Timing) slotIndex {
	idx := make(slotIndex, len(timings))
	for _, t := range timings {
		if _, ok := idx[t.Slot()]; !ok {
			idx[t.Slot()] = t.CourseCode
		}
	}
	return idx
}

// collision returns the first already-held slot `sec` meets at, in room-time order.
// Slots are type-agnostic: a lecture and a tutorial at the same hour collide.
func (idx slotIndex) collision(sec course.Section) (Timing, bool) {
	for _, rt := range sec.RoomTimes {
		if code, ok := idx[rt.Slot()]; ok {
			return Timing{CourseCode: code, Day: rt.Day, Hour: rt.Hour}, true
		}
	}
	return Timing{}, false
}

func sectionTimings(sec course.Section) []Timing {
	res := make([]Timing, 0, len(sec.RoomTimes))
	for _, rt := range sec.RoomTimes {
		res = append(res, timingOf(sec.CourseCode, rt))
	}
	return res
}

func addTimings(timings []Timing, sec course.Section) []Timing {
	res := make([]Timing, 0, len(timings)+len(sec.RoomTimes))
	res = append(res, timings...)
	return append(res, sectionTimings(sec)...)
}

// removeTimings drops the tokens matching the slot signatures of `sec`.
func removeTimings(timings []Timing, sec course.Section) []Timing {
	drop := make(map[Timing]bool, len(sec.RoomTimes))
	for _, t := range sectionTimings(sec) {
		drop[t] = true
	}
	res := make([]Timing, 0, len(timings))
	for _, t := range timings {
		if !drop[t] {
			res = append(res, t)
		}
	}
	return res
}
