package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/trezcool/darasa/api/echo/helpers"
	"github.com/trezcool/darasa/core/analytics"
	"github.com/trezcool/darasa/core/class"
)

type dashboardApi struct {
	engine   *analytics.Engine
	classSvc *class.Service
}

func RegisterDashboardAPI(g *echo.Group, jwt echo.MiddlewareFunc, engine *analytics.Engine, classSvc *class.Service) {
	api := dashboardApi{engine: engine, classSvc: classSvc}

	cg := g.Group("/creator", jwt, helpers.CreatorMiddleware())
	cg.GET("/dashboard", api.dashboardRetrieve)
	cg.GET("/classes/:id/analytics", api.classSnapshotRetrieve)
}

// Handlers

func (api *dashboardApi) dashboardRetrieve(ctx echo.Context) error {
	creatorID, err := helpers.GetContextUserID(ctx)
	if err != nil {
		return err
	}
	dash, err := api.engine.CreatorDashboard(ctx.Request().Context(), creatorID)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, dash)
}

func (api *dashboardApi) classSnapshotRetrieve(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()

	cls, err := api.classSvc.GetByID(reqCtx, ctx.Param("id"))
	if err != nil {
		return err
	}
	creatorID, err := helpers.GetContextUserID(ctx)
	if err != nil {
		return err
	}
	if cls.CreatorID != creatorID {
		return helpers.ErrHttpForbidden
	}

	snap, err := api.engine.ClassSnapshot(reqCtx, cls.ID)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, snap)
}
