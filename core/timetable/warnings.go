package timetable

import "github.com/chronofactor/timetable/core/course"

// updateWarnings applies one transition of the completeness tracker for `code`.
// required is every type ever offered for the course; typ always counts as one of them.
func updateWarnings(
	warnings []Warning,
	code string,
	typ course.SectionType,
	required []course.SectionType,
	added bool,
) ([]Warning, error) {
	required = course.NormalizeTypes(append(append([]course.SectionType{}, required...), typ)...)

	idx := -1
	for i, w := range warnings {
		if w.CourseCode == code {
			idx = i
			break
		}
	}

	if added {
		if idx < 0 {
			missing := without(required, typ)
			if len(missing) == 0 {
				return cloneWarnings(warnings), nil
			}
			return insertWarning(warnings, Warning{CourseCode: code, Missing: missing}), nil
		}
		current := warnings[idx]
		if !containsType(current.Missing, typ) {
			return cloneWarnings(warnings), nil
		}
		missing := without(current.Missing, typ)
		if len(missing) == 0 {
			return deleteWarning(warnings, idx), nil
		}
		return replaceWarning(warnings, idx, Warning{CourseCode: code, Missing: missing}), nil
	}

	if idx < 0 {
		if len(required) > 1 {
			return insertWarning(warnings, Warning{CourseCode: code, Missing: []course.SectionType{typ}}), nil
		}
		return cloneWarnings(warnings), nil
	}
	current := warnings[idx]
	if containsType(current.Missing, typ) {
		return nil, newInvariantViolation(
			"removing a %s section of %s that warnings say is not there (%s)", typ, code, current,
		)
	}
	missing := course.NormalizeTypes(append(append([]course.SectionType{}, current.Missing...), typ)...)
	if len(missing) == len(required) {
		// no section of the course is left
		return deleteWarning(warnings, idx), nil
	}
	return replaceWarning(warnings, idx, Warning{CourseCode: code, Missing: missing}), nil
}

func containsType(types []course.SectionType, typ course.SectionType) bool {
	for _, t := range types {
		if t == typ {
			return true
		}
	}
	return false
}

func without(types []course.SectionType, typ course.SectionType) []course.SectionType {
	res := make([]course.SectionType, 0, len(types))
	for _, t := range types {
		if t != typ {
			res = append(res, t)
		}
	}
	return res
}

func cloneWarnings(warnings []Warning) []Warning {
	res := make([]Warning, len(warnings))
	copy(res, warnings)
	return res
}

// insertWarning keeps entries ordered by course code.
func insertWarning(warnings []Warning, w Warning) []Warning {
	pos := len(warnings)
	for i, cur := range warnings {
		if cur.CourseCode > w.CourseCode {
			pos = i
			break
		}
	}
	res := make([]Warning, 0, len(warnings)+1)
	res = append(res, warnings[:pos]...)
	res = append(res, w)
	return append(res, warnings[pos:]...)
}

func replaceWarning(warnings []Warning, idx int, w Warning) []Warning {
	res := cloneWarnings(warnings)
	res[idx] = w
	return res
}

func deleteWarning(warnings []Warning, idx int) []Warning {
	res := make([]Warning, 0, len(warnings))
	res = append(res, warnings[:idx]...)
	return append(res, warnings[idx+1:]...)
}
