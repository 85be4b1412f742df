package course

import (
	"fmt"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/chronofactor/timetable/core"
)

var (
	sectionTypeTag  = "sectiontype"
	sectionTypeText = "{0} must be one of L, P or T"

	roomTimeTag  = "roomtime"
	roomTimeText = "{0} must look like ROOM:DAY:HOUR"

	duplicateSectionTag  = "uniquesection"
	duplicateSectionText = "a course cannot have two sections with the same type and number"
)

// InitValidators registers the catalogue's custom validators.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(sectionTypeTag, sectionTypeValidation)
	core.RegisterCustomTranslation(validate, translator, sectionTypeTag, sectionTypeText)

	_ = validate.RegisterValidation(roomTimeTag, roomTimeValidation)
	core.RegisterCustomTranslation(validate, translator, roomTimeTag, roomTimeText)

	validate.RegisterStructValidation(courseStructValidation, NewCourse{})
	core.RegisterCustomTranslation(validate, translator, duplicateSectionTag, duplicateSectionText)
}

func (nc *NewCourse) Validate(validate *validator.Validate) error {
	nc.Code = core.CleanCode(nc.Code)
	nc.Name = core.CleanString(nc.Name)
	for i := range nc.Sections {
		nc.Sections[i].Type = core.CleanCode(nc.Sections[i].Type)
	}
	return validate.Struct(nc)
}

func (ue *UpdateExams) Validate(validate *validator.Validate) error { return validate.Struct(ue) }

func (ur *UpdateRoomTimes) Validate(validate *validator.Validate) error { return validate.Struct(ur) }

// Custom Validators

func sectionTypeValidation(fl validator.FieldLevel) bool {
	return SectionType(fl.Field().String()).Valid()
}

func roomTimeValidation(fl validator.FieldLevel) bool {
	_, err := ParseRoomTime(fl.Field().String())
	return err == nil
}

// courseStructValidation rejects two sections sharing type and number (e.g. two "L1").
func courseStructValidation(sl validator.StructLevel) {
	nc, ok := sl.Current().Interface().(NewCourse)
	if !ok {
		return
	}
	seen := make(map[string]bool, len(nc.Sections))
	for _, sec := range nc.Sections {
		key := fmt.Sprintf("%s%d", sec.Type, sec.Number)
		if seen[key] {
			sl.ReportError(nc.Sections, "sections", "Sections", duplicateSectionTag, "")
			return
		}
		seen[key] = true
	}
}
