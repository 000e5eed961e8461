package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/trezcool/darasa/api/echo/helpers"
	"github.com/trezcool/darasa/core/class"
	"github.com/trezcool/darasa/core/enroll"
)

type enrollApi struct {
	service  *enroll.Service
	classSvc *class.Service
}

func RegisterEnrollAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *enroll.Service, classSvc *class.Service) {
	api := enrollApi{service: svc, classSvc: classSvc}

	student := helpers.StudentMiddleware()

	g.POST("/classes/:id/enroll", api.enrollmentCreate, jwt, student)

	eg := g.Group("/enrollments", jwt, student)
	eg.GET("", api.enrollmentQueryOwn)
	eg.PUT("/:id/rating", api.enrollmentRate)
	eg.PUT("/:id/attendance/:sessionID", api.enrollmentMarkAttendance)
}

// Handlers

func (api *enrollApi) enrollmentCreate(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()

	// the class must exist before anything is recorded
	cls, err := api.classSvc.GetByID(reqCtx, ctx.Param("id"))
	if err != nil {
		return err
	}

	data := new(enroll.NewEnrollment)
	if err = ctx.Bind(data); err != nil {
		return err
	}
	studentID, err := helpers.GetContextUserID(ctx)
	if err != nil {
		return err
	}
	data.ClassID = cls.ID
	data.StudentID = studentID
	if err = data.Validate(); err != nil {
		return err
	}

	e, err := api.service.Enroll(reqCtx, *data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, e)
}

func (api *enrollApi) enrollmentQueryOwn(ctx echo.Context) error {
	studentID, err := helpers.GetContextUserID(ctx)
	if err != nil {
		return err
	}
	enrollments, err := api.service.QueryByStudent(ctx.Request().Context(), studentID)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, enrollments)
}

func (api *enrollApi) enrollmentRate(ctx echo.Context) error {
	e, err := api.getOwnEnrollment(ctx)
	if err != nil {
		return err
	}

	data := new(enroll.Rating)
	if err = ctx.Bind(data); err != nil {
		return err
	}
	if err = data.Validate(); err != nil {
		return err
	}

	updated, err := api.service.Rate(ctx.Request().Context(), e.ID, *data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, updated)
}

func (api *enrollApi) enrollmentMarkAttendance(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()

	e, err := api.getOwnEnrollment(ctx)
	if err != nil {
		return err
	}

	// the session must belong to the enrollment's class
	s, err := api.classSvc.GetSession(reqCtx, ctx.Param("sessionID"))
	if err != nil {
		return err
	}
	if s.ClassID != e.ClassID {
		return class.ErrSessionNotFound
	}

	data := new(enroll.AttendanceUpdate)
	if err = ctx.Bind(data); err != nil {
		return err
	}
	data.SessionNumber = s.Number
	if err = data.Validate(); err != nil {
		return err
	}

	updated, err := api.service.MarkAttendance(reqCtx, e.ID, s.ID, *data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, updated)
}

// getOwnEnrollment loads the enrollment and verifies it belongs to the
// authenticated student. Foreign enrollments read as not found, not forbidden.
func (api *enrollApi) getOwnEnrollment(ctx echo.Context) (enroll.Enrollment, error) {
	e, err := api.service.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return enroll.Enrollment{}, err
	}
	studentID, err := helpers.GetContextUserID(ctx)
	if err != nil {
		return enroll.Enrollment{}, err
	}
	if e.StudentID != studentID {
		return enroll.Enrollment{}, enroll.ErrNotFound
	}
	return e, nil
}
