package adminapi

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/talkincode/sweetshop/config"
	"github.com/talkincode/sweetshop/internal/domain"
	"github.com/talkincode/sweetshop/internal/webserver"
	"github.com/talkincode/sweetshop/pkg/metrics"
)

func registerSystemRoutes(g guards) {
	webserver.GET("/", Welcome)
	webserver.GET("/health", Health)
	webserver.ApiGET("/metrics", Metrics, g.user...)
	webserver.ApiGET("/metrics/:name", MetricSeries, g.user...)
}

// Welcome returns the service banner
func Welcome(c echo.Context) error {
	return ok(c, map[string]string{
		"message": "Welcome to Sweet Shop Management System API",
		"version": config.Version,
	})
}

func Health(c echo.Context) error {
	return ok(c, map[string]string{"status": "healthy"})
}

// Metrics returns the in-process counters and gauges
func Metrics(c echo.Context) error {
	return ok(c, metrics.Take())
}

// MetricSeries returns the stored points of one metric, by default for
// the last 24 hours. ?since= accepts any date format dateparse knows.
func MetricSeries(c echo.Context) error {
	name := c.Param("name")
	if !metrics.Known(name) {
		return fail(c, http.StatusNotFound, "NOT_FOUND", "Metric not found", nil)
	}
	end := time.Now().Add(time.Second)
	start := end.Add(-24 * time.Hour)
	since, err := parseTimeParam(c, "since")
	if err != nil {
		return failErr(c, err)
	}
	if since != nil {
		if !since.Before(end) {
			return failErr(c, domain.NewValidationError("since", "since must be in the past"))
		}
		start = *since
	}
	points, err := metrics.Series(name, start, end)
	if err != nil {
		return failErr(c, err)
	}
	return ok(c, points)
}
