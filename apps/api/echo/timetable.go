package echoapi

import (
	"bytes"
	"context"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/chronofactor/timetable/core"
	"github.com/chronofactor/timetable/core/timetable"
	"github.com/chronofactor/timetable/services/catalogue"
)

type timetableApi struct {
	svc      *timetable.Service
	semester core.SemesterConfig
}

func registerTimetableAPI(g *echo.Group, svc *timetable.Service, semester core.SemesterConfig) {
	api := timetableApi{svc: svc, semester: semester}

	tg := g.Group("/timetables")
	tg.POST("", api.create)
	tg.GET("", api.query)

	// detail endpoints
	dg := tg.Group("/:id")
	dg.GET("", api.retrieve)
	dg.PUT("", api.update)
	dg.DELETE("", api.destroy)
	dg.POST("/copy", api.copy)
	dg.POST("/add", api.addSection)
	dg.POST("/remove", api.removeSection)
	dg.GET("/export", api.export)
	dg.GET("/verify", api.verify)
}

// Handlers

func (api *timetableApi) create(ctx echo.Context) error {
	var data timetable.NewTimetable
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewTimetable")
	}
	if data.AcadYear == 0 && data.Semester == 0 {
		data.AcadYear = api.semester.AcadYear
		data.Semester = api.semester.Semester
	}

	tt, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating timetable")
	}
	return ctx.JSON(http.StatusCreated, tt)
}

func (api *timetableApi) query(ctx echo.Context) error {
	filter := new(timetable.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []timetable.Timetable{})
	}

	tts, err := api.svc.Query(ctx.Request().Context(), *filter)
	if err != nil {
		return errors.Wrap(err, "querying timetables")
	}
	return ctx.JSON(http.StatusOK, tts)
}

func (api *timetableApi) retrieve(ctx echo.Context) error {
	id, err := timetableID(ctx)
	if err != nil {
		return err
	}
	tt, err := api.svc.Get(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "getting timetable")
	}
	return ctx.JSON(http.StatusOK, tt)
}

func (api *timetableApi) update(ctx echo.Context) error {
	id, err := timetableID(ctx)
	if err != nil {
		return err
	}
	var data timetable.UpdateMetadata
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateMetadata")
	}

	tt, err := api.svc.UpdateMetadata(ctx.Request().Context(), id, data)
	if err != nil {
		return errors.Wrap(err, "updating timetable")
	}
	return ctx.JSON(http.StatusOK, tt)
}

func (api *timetableApi) destroy(ctx echo.Context) error {
	id, err := timetableID(ctx)
	if err != nil {
		return err
	}
	if err = api.svc.Delete(ctx.Request().Context(), id); err != nil {
		return errors.Wrap(err, "deleting timetable")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *timetableApi) copy(ctx echo.Context) error {
	id, err := timetableID(ctx)
	if err != nil {
		return err
	}
	var data CopyRequest
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to CopyRequest")
	}
	if err = ctx.Validate(&data); err != nil {
		return err
	}

	tt, err := api.svc.Copy(ctx.Request().Context(), id, data.AuthorID)
	if err != nil {
		return errors.Wrap(err, "copying timetable")
	}
	return ctx.JSON(http.StatusCreated, tt)
}

type sectionEdit func(ctx context.Context, id int, sectionID string) (timetable.Timetable, error)

func (api *timetableApi) addSection(ctx echo.Context) error {
	return api.editSections(ctx, api.svc.AddSection)
}

func (api *timetableApi) removeSection(ctx echo.Context) error {
	return api.editSections(ctx, api.svc.RemoveSection)
}

func (api *timetableApi) editSections(ctx echo.Context, edit sectionEdit) error {
	id, err := timetableID(ctx)
	if err != nil {
		return err
	}
	var data SectionRequest
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to SectionRequest")
	}
	if err = ctx.Validate(&data); err != nil {
		return err
	}

	tt, err := edit(ctx.Request().Context(), id, data.SectionID)
	if err != nil {
		return errors.Wrap(err, "editing timetable sections")
	}
	return ctx.JSON(http.StatusOK, tt)
}

func (api *timetableApi) export(ctx echo.Context) error {
	id, err := timetableID(ctx)
	if err != nil {
		return err
	}
	tt, err := api.svc.Get(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "getting timetable")
	}

	var buf bytes.Buffer
	if err = catalogue.Export(&buf, tt); err != nil {
		return err
	}
	ctx.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=\"timetable-%d.csv\"", tt.ID))
	return ctx.Blob(http.StatusOK, "text/csv; charset=UTF-8", buf.Bytes())
}

func (api *timetableApi) verify(ctx echo.Context) error {
	id, err := timetableID(ctx)
	if err != nil {
		return err
	}
	tt, derived, err := api.svc.Verify(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "verifying timetable")
	}

	timings, examTimes, warnings := timetable.Drift(tt.State(), derived)
	return ctx.JSON(http.StatusOK, DriftResponse{
		ID:        tt.ID,
		Timings:   timings,
		ExamTimes: examTimes,
		Warnings:  warnings,
		Derived:   derived,
	})
}
