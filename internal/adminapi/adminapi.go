package adminapi

import (
	"github.com/labstack/echo/v4"
	"github.com/talkincode/sweetshop/internal/app"
	"github.com/talkincode/sweetshop/internal/webserver"
)

// Init binds appCtx to every request and registers the api routes on the
// global web server, webserver.Init must run first.
func Init(appCtx app.AppContext) {
	webserver.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Set(appContextKey, appCtx)
			return next(c)
		}
	})
	g := newGuards(appCtx.Config().Auth)
	registerSystemRoutes(g)
	registerSweetRoutes(g)
}
