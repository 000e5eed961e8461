package handlers

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/trezcool/darasa/api/echo/helpers"
	"github.com/trezcool/darasa/core/catalog"
)

type catalogApi struct {
	scorer *catalog.Scorer
}

func RegisterCatalogAPI(g *echo.Group, jwt echo.MiddlewareFunc, scorer *catalog.Scorer) {
	api := catalogApi{scorer: scorer}

	cg := g.Group("/catalog", jwt, helpers.StudentMiddleware())
	cg.GET("/recommendations", api.recommendationsRetrieve)
}

// Handlers

func (api *catalogApi) recommendationsRetrieve(ctx echo.Context) error {
	studentID, err := helpers.GetContextUserID(ctx)
	if err != nil {
		return err
	}

	// declared interests, comma-separated
	var interests []string
	if raw := ctx.QueryParam("interests"); raw != "" {
		interests = strings.Split(raw, ",")
	}

	recs, err := api.scorer.ForStudent(ctx.Request().Context(), studentID, interests)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, recs)
}
