package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/trezcool/darasa/api/echo/helpers"
	"github.com/trezcool/darasa/core/class"
)

type classApi struct {
	service *class.Service
}

func RegisterClassAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *class.Service) {
	api := classApi{service: svc}

	cg := g.Group("/classes")

	// catalog reads, un-authed
	cg.GET("", api.classQuery)
	cg.GET("/:id", api.classRetrieve)
	cg.GET("/:id/sessions", api.classSessions)

	// creator endpoints
	creator := helpers.CreatorMiddleware()
	cg.POST("", api.classCreate, jwt, creator)
	cg.PUT("/:id/sessions", api.classReplaceSessions, jwt, creator)

	g.PATCH("/sessions/:id/status", api.sessionUpdateStatus, jwt, creator)
}

// Handlers

func (api *classApi) classCreate(ctx echo.Context) error {
	data := new(class.NewClass)
	if err := ctx.Bind(data); err != nil {
		return err
	}
	creatorID, err := helpers.GetContextUserID(ctx)
	if err != nil {
		return err
	}
	data.CreatorID = creatorID
	if err := data.Validate(); err != nil {
		return err
	}

	cls, err := api.service.Create(ctx.Request().Context(), *data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, cls)
}

func (api *classApi) classQuery(ctx echo.Context) error {
	classes, err := api.service.QueryAll(ctx.Request().Context())
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, classes)
}

func (api *classApi) classRetrieve(ctx echo.Context) error {
	cls, err := api.service.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, cls)
}

func (api *classApi) classSessions(ctx echo.Context) error {
	sessions, err := api.service.Sessions(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, sessions)
}

func (api *classApi) classReplaceSessions(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()

	cls, err := api.service.GetByID(reqCtx, ctx.Param("id"))
	if err != nil {
		return err
	}
	if err = api.checkOwnership(ctx, cls.CreatorID); err != nil {
		return err
	}

	var entries []class.SessionEntry
	if err = ctx.Bind(&entries); err != nil {
		return err
	}

	updated, err := api.service.ReplaceSessions(reqCtx, cls.ID, entries)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, updated)
}

func (api *classApi) sessionUpdateStatus(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()

	s, err := api.service.GetSession(reqCtx, ctx.Param("id"))
	if err != nil {
		return err
	}
	cls, err := api.service.GetByID(reqCtx, s.ClassID)
	if err != nil {
		return err
	}
	if err = api.checkOwnership(ctx, cls.CreatorID); err != nil {
		return err
	}

	data := new(class.SessionStatusUpdate)
	if err = ctx.Bind(data); err != nil {
		return err
	}
	if err = data.Validate(); err != nil {
		return err
	}

	updated, err := api.service.UpdateSessionStatus(reqCtx, s.ID, *data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, updated)
}

func (api *classApi) checkOwnership(ctx echo.Context, creatorID string) error {
	uid, err := helpers.GetContextUserID(ctx)
	if err != nil {
		return err
	}
	if uid != creatorID {
		return helpers.ErrHttpForbidden
	}
	return nil
}
