package adminapi

import (
	"net/http"

	"github.com/golang-jwt/jwt/v5"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/talkincode/sweetshop/config"
)

// Claims carried by bearer tokens
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// guards holds the middleware chains for authenticated and admin routes.
// Both are empty when no secret is configured.
type guards struct {
	user  []echo.MiddlewareFunc
	admin []echo.MiddlewareFunc
}

func newGuards(cfg config.AuthConfig) guards {
	if cfg.JwtSecret == "" {
		return guards{}
	}
	authn := echojwt.WithConfig(echojwt.Config{
		SigningKey: []byte(cfg.JwtSecret),
		NewClaimsFunc: func(c echo.Context) jwt.Claims {
			return new(Claims)
		},
		ErrorHandler: func(c echo.Context, err error) error {
			return fail(c, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid or missing token", nil)
		},
	})
	return guards{
		user:  []echo.MiddlewareFunc{authn},
		admin: []echo.MiddlewareFunc{authn, requireRole(cfg.AdminRole)},
	}
}

func requireRole(role string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token, ok := c.Get("user").(*jwt.Token)
			if !ok {
				return fail(c, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid or missing token", nil)
			}
			claims, ok := token.Claims.(*Claims)
			if !ok || claims.Role != role {
				return fail(c, http.StatusForbidden, "FORBIDDEN", "Admin privileges required", nil)
			}
			return next(c)
		}
	}
}
