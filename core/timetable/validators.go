package timetable

import (
	"github.com/go-playground/validator/v10"

	"github.com/chronofactor/timetable/core"
)

func (nt *NewTimetable) Validate(validate *validator.Validate) error {
	nt.AuthorID = core.CleanString(nt.AuthorID)
	nt.Name = core.CleanString(nt.Name)
	for i := range nt.Degrees {
		nt.Degrees[i] = core.CleanCode(nt.Degrees[i])
	}
	return validate.Struct(nt)
}

func (um *UpdateMetadata) Validate(validate *validator.Validate) error {
	if um.Name != nil {
		name := core.CleanString(*um.Name)
		um.Name = &name
	}
	return validate.Struct(um)
}
