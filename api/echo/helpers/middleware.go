package helpers

import "github.com/labstack/echo/v4"

func CreatorMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			claims, err := getContextClaims(ctx)
			if err != nil {
				return err
			}
			if claims.IsCreator {
				return next(ctx)
			}
			return ErrHttpForbidden
		}
	}
}

func StudentMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			claims, err := getContextClaims(ctx)
			if err != nil {
				return err
			}
			if claims.IsStudent {
				return next(ctx)
			}
			return ErrHttpForbidden
		}
	}
}
