package echoapi

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/chronofactor/timetable/core/course"
	"github.com/chronofactor/timetable/core/timetable"
)

type courseApi struct {
	svc   *course.Service
	ttSvc *timetable.Service
}

// CourseUpdateResponse carries the updated course and what the change did to the timetables holding it.
type CourseUpdateResponse struct {
	Course  course.Course            `json:"course"`
	Section *course.Section          `json:"section,omitempty"`
	Resync  []timetable.ResyncReport `json:"resync"`
}

func registerCourseAPI(g *echo.Group, svc *course.Service, ttSvc *timetable.Service) {
	api := courseApi{svc: svc, ttSvc: ttSvc}

	cg := g.Group("/courses")
	cg.GET("", api.query)
	cg.GET("/:id", api.retrieve, uuidParamMiddleware)
	cg.GET("/:id/sections", api.sections, uuidParamMiddleware)
	cg.PUT("/:id/exams", api.updateExams, uuidParamMiddleware)
	cg.POST("/:id/archive", api.archive, uuidParamMiddleware)

	g.PUT("/sections/:id/room-times", api.updateRoomTimes, uuidParamMiddleware)
}

// uuidParamMiddleware turns malformed :id params into a 404 before they reach storage.
func uuidParamMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		if _, err := uuid.Parse(ctx.Param("id")); err != nil {
			return errHttpNotFound
		}
		return next(ctx)
	}
}

// Handlers

func (api *courseApi) query(ctx echo.Context) error {
	filter := new(course.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []course.Course{})
	}
	ordering := new(Ordering)
	ordering.Bind(ctx)

	courses, err := api.svc.Query(ctx.Request().Context(), *filter, ordering.Orderings...)
	if err != nil {
		return errors.Wrap(err, "querying courses")
	}
	return ctx.JSON(http.StatusOK, courses)
}

func (api *courseApi) retrieve(ctx echo.Context) error {
	crs, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting course")
	}
	return ctx.JSON(http.StatusOK, crs)
}

func (api *courseApi) sections(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()
	if _, err := api.svc.GetByID(reqCtx, ctx.Param("id")); err != nil {
		return errors.Wrap(err, "getting course")
	}
	secs, err := api.svc.Sections(reqCtx, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "querying sections")
	}
	return ctx.JSON(http.StatusOK, secs)
}

func (api *courseApi) archive(ctx echo.Context) error {
	crs, err := api.svc.Archive(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "archiving course")
	}
	return ctx.JSON(http.StatusOK, crs)
}

func (api *courseApi) updateExams(ctx echo.Context) error {
	var data course.UpdateExams
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateExams")
	}

	reqCtx := ctx.Request().Context()
	crs, err := api.svc.UpdateExams(reqCtx, ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating exams")
	}
	reports, err := api.ttSvc.ResyncCourse(reqCtx, crs.ID, nil)
	if err != nil {
		return errors.Wrap(err, "resyncing timetables")
	}
	return ctx.JSON(http.StatusOK, CourseUpdateResponse{Course: crs, Resync: reports})
}

func (api *courseApi) updateRoomTimes(ctx echo.Context) error {
	var data course.UpdateRoomTimes
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateRoomTimes")
	}
	data.SectionID = ctx.Param("id")

	reqCtx := ctx.Request().Context()
	sec, err := api.svc.GetSection(reqCtx, data.SectionID)
	if err != nil {
		return errors.Wrap(err, "getting section")
	}
	// timetables still index the old room-times
	previous, err := api.svc.Sections(reqCtx, sec.CourseID)
	if err != nil {
		return errors.Wrap(err, "querying sections")
	}

	if sec, err = api.svc.UpdateRoomTimes(reqCtx, data); err != nil {
		return errors.Wrap(err, "updating room-times")
	}
	crs, err := api.svc.GetByID(reqCtx, sec.CourseID)
	if err != nil {
		return errors.Wrap(err, "getting course")
	}
	reports, err := api.ttSvc.ResyncCourse(reqCtx, crs.ID, previous)
	if err != nil {
		return errors.Wrap(err, "resyncing timetables")
	}
	return ctx.JSON(http.StatusOK, CourseUpdateResponse{Course: crs, Section: &sec, Resync: reports})
}
