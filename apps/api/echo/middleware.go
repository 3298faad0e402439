package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/darasahq/darasa/core/user"
)

// roleGuard restricts a route group to the given roles. A mismatched
// principal is not an error: they are redirected to their own home route,
// the way the portals silently route users back where they belong. The JWT
// middleware must run first so the guard always sees resolved claims.
func roleGuard(roles ...string) echo.MiddlewareFunc {
	allowed := make(map[string]struct{}, len(roles))
	for _, role := range roles {
		allowed[role] = struct{}{}
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			claims, err := getContextClaims(ctx)
			if err != nil {
				return errors.Wrap(err, "getting context claims")
			}
			if _, ok := allowed[claims.Role]; ok {
				return next(ctx)
			}
			return ctx.Redirect(http.StatusSeeOther, user.HomeRoute(claims.Role))
		}
	}
}

// adminMiddleware restricts a route to admins; unlike roleGuard it fails
// hard, for management endpoints that have no portal equivalent.
func adminMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			claims, err := getContextClaims(ctx)
			if err != nil {
				return errors.Wrap(err, "getting context claims")
			}
			if claims.IsAdmin {
				return next(ctx)
			}
			return errHttpForbidden
		}
	}
}
