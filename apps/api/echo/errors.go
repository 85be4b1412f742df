package echoapi

import (
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/chronofactor/timetable/core"
	"github.com/chronofactor/timetable/core/course"
	"github.com/chronofactor/timetable/core/timetable"
)

var errHttpNotFound = echo.NewHTTPError(http.StatusNotFound, "not found")

// statusOf maps domain sentinels to their HTTP status. Unlisted errors are server errors.
var statusOf = map[error]int{
	timetable.ErrNotFound:        http.StatusNotFound,
	course.ErrNotFound:           http.StatusNotFound,
	course.ErrSectionNotFound:    http.StatusNotFound,
	timetable.ErrNotDraft:        http.StatusTeapot,
	timetable.ErrArchivedDraft:   http.StatusTeapot,
	timetable.ErrArchived:        http.StatusTeapot,
	timetable.ErrCourseArchived:  http.StatusTeapot,
	timetable.ErrCopyArchived:    http.StatusBadRequest,
	timetable.ErrDraftPublic:     http.StatusBadRequest,
	timetable.ErrPublishEmpty:    http.StatusBadRequest,
	timetable.ErrPublishWarnings: http.StatusBadRequest,
	course.ErrCodeExists:         http.StatusBadRequest,
}

// newAppHTTPErrorHandler returns a custom echo.HTTPErrorHandler that knows how to handle our errors.
// signalShutdown is called in order to gracefully shutdown the Server whenever a core.shutdown error is caught.
func newAppHTTPErrorHandler(logger core.Logger, translator ut.Translator, signalShutdown func()) echo.HTTPErrorHandler {
	return func(err error, ctx echo.Context) {
		var code int
		var message interface{}

		cause := errors.Cause(err)
		switch origErr := cause.(type) {
		case *echo.HTTPError:
			if origErr.Internal != nil {
				if herr, ok := origErr.Internal.(*echo.HTTPError); ok {
					origErr = herr
				}
			}
			code = origErr.Code
			message = origErr.Message
		case validator.ValidationErrors:
			fldErrs := make(map[string]string, len(origErr))
			for _, vErr := range origErr {
				fldErrs[vErr.Field()] = vErr.Translate(translator)
			}
			code = http.StatusBadRequest
			message = fldErrs
		case *core.ValidationError:
			if origErr.Fields != nil {
				fldErrs := make(map[string]string, len(origErr.Fields))
				for _, fErr := range origErr.Fields {
					fldErrs[fErr.Field] = fErr.Error
				}
				message = fldErrs
			} else {
				message = origErr.Error()
			}
			code = http.StatusBadRequest
		case timetable.Rejection:
			code = http.StatusBadRequest
			if origErr.Reason() == timetable.ReasonSectionNotInTimetable {
				code = http.StatusNotFound
			}
			message = echo.Map{"error": origErr.Error(), "reason": origErr.Reason().String()}
		default:
			if status, ok := statusOf[cause]; ok {
				code = status
				message = cause.Error()
				break
			}

			// any other error is a server error
			code = http.StatusInternalServerError
			msg := http.StatusText(http.StatusInternalServerError)
			message = msg
			logger.Error(msg, errors.Wrap(err, msg), map[string]interface{}{
				"method": ctx.Request().Method,
				"path":   ctx.Path(),
			})

			// shutting down...
			if core.IsShutdown(err) {
				signalShutdown()
			}
		}

		if ctx.Echo().Debug {
			message = err.Error()
		} else if m, ok := message.(string); ok {
			message = echo.Map{"error": m}
		}

		// Send response
		if !ctx.Response().Committed {
			if ctx.Request().Method == http.MethodHead { // Issue #608
				err = ctx.NoContent(code)
			} else {
				err = ctx.JSON(code, message)
			}
			if err != nil {
				ctx.Echo().Logger.Error(err)
			}
		}
	}
}
