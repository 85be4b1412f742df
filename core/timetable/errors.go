package timetable

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/chronofactor/timetable/core/course"
)

// Reason discriminates why the engine refused a mutation.
type Reason int

const (
	ReasonDuplicateSectionType Reason = iota + 1
	ReasonClassHourClash
	ReasonExamWindowClash
	ReasonSectionNotInTimetable
)

var reasonNames = map[Reason]string{
	ReasonDuplicateSectionType:  "duplicate_section_type",
	ReasonClassHourClash:        "class_hour_clash",
	ReasonExamWindowClash:       "exam_window_clash",
	ReasonSectionNotInTimetable: "section_not_in_timetable",
}

func (r Reason) String() string { return reasonNames[r] }

// Rejection is an expected refusal the student can act upon.
// The timetable is left untouched whenever one is returned.
type Rejection interface {
	error
	Reason() Reason
}

// DuplicateSectionTypeError: a section of this course and type is already chosen.
type DuplicateSectionTypeError struct {
	CourseCode string
	Type       course.SectionType
}

func (e *DuplicateSectionTypeError) Error() string {
	return fmt.Sprintf("can't have multiple sections of type %s", e.Type)
}

func (e *DuplicateSectionTypeError) Reason() Reason { return ReasonDuplicateSectionType }

// ClassHourClashError: the candidate meets at an hour already held by CourseCode.
type ClassHourClashError struct {
	CourseCode string
	Slot       string
}

func (e *ClassHourClashError) Error() string {
	return fmt.Sprintf("section clashes with %s", e.CourseCode)
}

func (e *ClassHourClashError) Reason() Reason { return ReasonClassHourClash }

// ExamWindowClashError: the candidate course's exam of Kind overlaps CourseCode's.
type ExamWindowClashError struct {
	CourseCode string
	Kind       course.ExamKind
}

func (e *ExamWindowClashError) Error() string {
	return fmt.Sprintf("course's exam clashes with %s's %s", e.CourseCode, e.Kind.Label())
}

func (e *ExamWindowClashError) Reason() Reason { return ReasonExamWindowClash }

// SectionNotInTimetableError: removal of a section the timetable does not hold.
type SectionNotInTimetableError struct {
	Section string
}

func (e *SectionNotInTimetableError) Error() string {
	return fmt.Sprintf("section %s not part of given timetable", e.Section)
}

func (e *SectionNotInTimetableError) Reason() Reason { return ReasonSectionNotInTimetable }

// InvariantViolationError means the derived fields and the section list have diverged.
// It is never a Rejection and must abort the mutation.
type InvariantViolationError struct {
	msg string
}

func newInvariantViolation(format string, args ...interface{}) error {
	return errors.WithStack(&InvariantViolationError{msg: fmt.Sprintf(format, args...)})
}

func (e *InvariantViolationError) Error() string { return "invariant violation: " + e.msg }

// AsRejection unwraps err into a Rejection, if it is one.
func AsRejection(err error) (Rejection, bool) {
	var rej Rejection
	if errors.As(err, &rej) {
		return rej, true
	}
	return nil, false
}

func IsInvariantViolation(err error) bool {
	var iv *InvariantViolationError
	return errors.As(err, &iv)
}
