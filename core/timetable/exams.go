package timetable

import "github.com/chronofactor/timetable/core/course"

type examCheck struct {
	sameCourse bool
	clash      bool
	with       ExamTime
}

// checkExams tests crs's exams against every other course in examTimes, midsem first.
// A course already present is never checked again.
func checkExams(examTimes []ExamTime, crs course.Course) examCheck {
	for _, et := range examTimes {
		if et.CourseCode == crs.Code {
			return examCheck{sameCourse: true}
		}
	}
	for _, kind := range course.ExamKinds {
		w := crs.Exam(kind)
		if w == nil {
			continue
		}
		for _, et := range examTimes {
			if et.Kind == kind && et.Window.Overlaps(*w) {
				return examCheck{clash: true, with: et}
			}
		}
	}
	return examCheck{}
}

func courseExamTimes(crs course.Course) []ExamTime {
	res := make([]ExamTime, 0, len(course.ExamKinds))
	for _, kind := range course.ExamKinds {
		if w := crs.Exam(kind); w != nil {
			res = append(res, ExamTime{CourseCode: crs.Code, Kind: kind, Window: *w})
		}
	}
	return res
}

// addExamTimes appends crs's tokens, midsem first.
func addExamTimes(examTimes []ExamTime, crs course.Course) []ExamTime {
	tokens := courseExamTimes(crs)
	res := make([]ExamTime, 0, len(examTimes)+len(tokens))
	res = append(res, examTimes...)
	return append(res, tokens...)
}

func removeExamTimes(examTimes []ExamTime, courseCode string) []ExamTime {
	res := make([]ExamTime, 0, len(examTimes))
	for _, et := range examTimes {
		if et.CourseCode != courseCode {
			res = append(res, et)
		}
	}
	return res
}
