package adminapi

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/talkincode/sweetshop/internal/app"
	"github.com/talkincode/sweetshop/internal/domain"
	"github.com/talkincode/sweetshop/internal/inventory"
	"github.com/talkincode/sweetshop/internal/webserver"
	"go.uber.org/zap"
)

const appContextKey = "appctx"

// GetAppContext returns the application bound to the request
func GetAppContext(c echo.Context) app.AppContext {
	return c.Get(appContextKey).(app.AppContext)
}

// GetInventory returns the inventory facade bound to the request
func GetInventory(c echo.Context) *inventory.Service {
	return GetAppContext(c).Inventory()
}

func ok(c echo.Context, data interface{}) error {
	return c.JSON(http.StatusOK, data)
}

func created(c echo.Context, data interface{}) error {
	return c.JSON(http.StatusCreated, data)
}

// list writes a page of items with the match count in X-Total-Count
func list(c echo.Context, items interface{}, total int) error {
	c.Response().Header().Set("X-Total-Count", strconv.Itoa(total))
	return c.JSON(http.StatusOK, items)
}

func fail(c echo.Context, status int, code, message string, details interface{}) error {
	return c.JSON(status, webserver.ErrorResponse{
		Code:    code,
		Message: message,
		Details: details,
	})
}

// failErr maps an inventory error to its http status
func failErr(c echo.Context, err error) error {
	var verr *domain.ValidationError
	var serr *domain.InsufficientStockError
	switch {
	case errors.As(err, &verr):
		return fail(c, http.StatusUnprocessableEntity, "VALIDATION_ERROR", verr.Message, map[string]string{"field": verr.Field})
	case errors.As(err, &serr):
		return fail(c, http.StatusConflict, "INSUFFICIENT_STOCK", serr.Error(), map[string]int{
			"available": serr.Available,
			"requested": serr.Requested,
		})
	case errors.Is(err, domain.ErrNotFound):
		return fail(c, http.StatusNotFound, "NOT_FOUND", "Sweet not found", nil)
	case errors.Is(err, domain.ErrInvalidArgument):
		return fail(c, http.StatusUnprocessableEntity, "INVALID_ARGUMENT", domain.Message(err), nil)
	}
	zap.L().Error("request failed", zap.String("uri", c.Request().RequestURI), zap.Error(err))
	return fail(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error", nil)
}

func parseIDParam(c echo.Context) (int64, error) {
	return strconv.ParseInt(c.Param("id"), 10, 64)
}
