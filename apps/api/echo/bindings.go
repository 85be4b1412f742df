package echoapi

import (
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/chronofactor/timetable/core"
	"github.com/chronofactor/timetable/core/timetable"
)

var orderingParam = "ordering"

type Ordering struct {
	Orderings []core.DBOrdering
}

func (ord *Ordering) Bind(ctx echo.Context) {
	data := ctx.QueryParams()
	if len(data) == 0 {
		return
	}
	val, ok := data[orderingParam]
	if !ok || len(val) == 0 || val[0] == "" {
		return
	}

	for _, field := range strings.Split(val[0], ",") {
		field = strings.TrimSpace(field)
		descending := strings.HasPrefix(field, "-")
		if descending {
			field = field[1:] // drop "-"
		}
		ord.Orderings = append(ord.Orderings, core.DBOrdering{Field: field, Ascending: !descending})
	}
}

// requestValidator lets echo.Context.Validate run a payload's own Validate, which cleans it first.
type requestValidator struct {
	validate *validator.Validate
}

type selfValidating interface {
	Validate(validate *validator.Validate) error
}

func (rv *requestValidator) Validate(i interface{}) error {
	if sv, ok := i.(selfValidating); ok {
		return sv.Validate(rv.validate)
	}
	return rv.validate.Struct(i)
}

type SectionRequest struct {
	SectionID string `json:"section_id" validate:"required,uuid"`
}

func (sr *SectionRequest) Validate(validate *validator.Validate) error {
	sr.SectionID = core.CleanString(sr.SectionID, true)
	return validate.Struct(sr)
}

type CopyRequest struct {
	AuthorID string `json:"author_id" validate:"required,max=100"`
}

func (cr *CopyRequest) Validate(validate *validator.Validate) error {
	cr.AuthorID = core.CleanString(cr.AuthorID)
	return validate.Struct(cr)
}

// DriftResponse is what verification found for one timetable.
type DriftResponse struct {
	ID        int             `json:"id"`
	Timings   bool            `json:"timings"`
	ExamTimes bool            `json:"exam_times"`
	Warnings  bool            `json:"warnings"`
	Derived   timetable.State `json:"derived"`
}

// timetableID reads the :id path param; anything but a positive int is not found.
func timetableID(ctx echo.Context) (int, error) {
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil || id <= 0 {
		return 0, errHttpNotFound
	}
	return id, nil
}
