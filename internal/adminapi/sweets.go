package adminapi

import (
	"bytes"
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/labstack/echo/v4"
	"github.com/mitchellh/mapstructure"
	"github.com/shopspring/decimal"
	"github.com/talkincode/sweetshop/internal/app"
	"github.com/talkincode/sweetshop/internal/domain"
	"github.com/talkincode/sweetshop/internal/inventory"
	"github.com/talkincode/sweetshop/internal/query"
	"github.com/talkincode/sweetshop/internal/webserver"
)

// sweetView is a sweet with its derived stock status
type sweetView struct {
	domain.Sweet
	StockStatus query.StockStatus `json:"stock_status"`
}

type stockResultView struct {
	Success  bool      `json:"success"`
	Message  string    `json:"message"`
	Quantity int       `json:"quantity"`
	Sweet    sweetView `json:"sweet"`
}

type stockPayload struct {
	Quantity any `json:"quantity"`
}

func viewOf(svc *inventory.Service, s domain.Sweet) sweetView {
	return sweetView{Sweet: s, StockStatus: svc.Status(s.Quantity)}
}

func viewsOf(svc *inventory.Service, rows []domain.Sweet) []sweetView {
	out := make([]sweetView, 0, len(rows))
	for _, s := range rows {
		out = append(out, viewOf(svc, s))
	}
	return out
}

// registerSweetRoutes registers the sweet catalog and inventory endpoints
func registerSweetRoutes(g guards) {
	webserver.ApiGET("/sweets", ListSweets, g.user...)
	webserver.ApiGET("/sweets/search", SearchSweets, g.user...)
	webserver.ApiGET("/sweets/categories", ListCategories, g.user...)
	webserver.ApiGET("/sweets/stats", SweetStats, g.user...)
	webserver.ApiGET("/sweets/export", ExportSweets, g.admin...)
	webserver.ApiGET("/sweets/:id", GetSweet, g.user...)
	webserver.ApiPOST("/sweets", CreateSweet, g.admin...)
	webserver.ApiPUT("/sweets/:id", UpdateSweet, g.admin...)
	webserver.ApiDELETE("/sweets/:id", DeleteSweet, g.admin...)
	webserver.ApiPOST("/sweets/:id/restock", RestockSweet, g.admin...)
	webserver.ApiPOST("/sweets/:id/purchase", PurchaseSweet, g.user...)
}

// bindBody decodes only the request body, path params never leak into it
func bindBody(c echo.Context, i interface{}) error {
	return (&echo.DefaultBinder{}).BindBody(c, i)
}

func parseBoolParam(c echo.Context, name string) (bool, error) {
	v := strings.TrimSpace(c.QueryParam(name))
	if v == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, domain.NewValidationError(name, name+" must be a boolean")
	}
	return b, nil
}

func parseIntParam(c echo.Context, name string) (int, error) {
	v := strings.TrimSpace(c.QueryParam(name))
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, domain.NewValidationError(name, name+" must be an integer")
	}
	return n, nil
}

func parsePriceParam(c echo.Context, name string) (*decimal.Decimal, error) {
	v := strings.TrimSpace(c.QueryParam(name))
	if v == "" {
		return nil, nil
	}
	d, err := domain.ParseAmount(v)
	if err != nil || d.IsNegative() {
		return nil, domain.NewValidationError(name, name+" must be a non-negative number")
	}
	return &d, nil
}

func parseTimeParam(c echo.Context, name string) (*time.Time, error) {
	v := strings.TrimSpace(c.QueryParam(name))
	if v == "" {
		return nil, nil
	}
	t, err := dateparse.ParseLocal(v)
	if err != nil {
		return nil, domain.NewValidationError(name, name+" must be a date or time")
	}
	return &t, nil
}

// parseFilter reads the search and paging query parameters
func parseFilter(c echo.Context) (query.Filter, error) {
	var (
		f   query.Filter
		err error
	)
	f.Name = strings.TrimSpace(c.QueryParam("name"))
	f.Category = strings.TrimSpace(c.QueryParam("category"))
	if f.MinPrice, err = parsePriceParam(c, "min_price"); err != nil {
		return f, err
	}
	if f.MaxPrice, err = parsePriceParam(c, "max_price"); err != nil {
		return f, err
	}
	if f.InStockOnly, err = parseBoolParam(c, "in_stock_only"); err != nil {
		return f, err
	}
	if f.UpdatedSince, err = parseTimeParam(c, "updated_since"); err != nil {
		return f, err
	}
	if f.Offset, err = parseIntParam(c, "skip"); err != nil {
		return f, err
	}
	if f.Limit, err = parseIntParam(c, "limit"); err != nil {
		return f, err
	}
	return f, nil
}

func ListSweets(c echo.Context) error {
	inStockOnly, err := parseBoolParam(c, "in_stock_only")
	if err != nil {
		return failErr(c, err)
	}
	skip, err := parseIntParam(c, "skip")
	if err != nil {
		return failErr(c, err)
	}
	limit, err := parseIntParam(c, "limit")
	if err != nil {
		return failErr(c, err)
	}
	svc := GetInventory(c)
	page, err := svc.List(c.Request().Context(), inStockOnly, skip, limit)
	if err != nil {
		return failErr(c, err)
	}
	return list(c, viewsOf(svc, page.Items), page.Total)
}

func SearchSweets(c echo.Context) error {
	f, err := parseFilter(c)
	if err != nil {
		return failErr(c, err)
	}
	svc := GetInventory(c)
	page, err := svc.Search(c.Request().Context(), f)
	if err != nil {
		return failErr(c, err)
	}
	return list(c, viewsOf(svc, page.Items), page.Total)
}

func GetSweet(c echo.Context) error {
	id, err := parseIDParam(c)
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid sweet ID", nil)
	}
	svc := GetInventory(c)
	s, err := svc.Get(c.Request().Context(), id)
	if err != nil {
		return failErr(c, err)
	}
	return ok(c, viewOf(svc, *s))
}

func CreateSweet(c echo.Context) error {
	var payload inventory.CreateInput
	if err := bindBody(c, &payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse sweet", err.Error())
	}
	svc := GetInventory(c)
	s, err := svc.Create(c.Request().Context(), payload)
	if err != nil {
		return failErr(c, err)
	}
	return created(c, viewOf(svc, *s))
}

// UpdateSweet decodes into a map first so absent fields stay nil and are
// left unchanged.
func UpdateSweet(c echo.Context) error {
	id, err := parseIDParam(c)
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid sweet ID", nil)
	}
	raw := map[string]interface{}{}
	if err := bindBody(c, &raw); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse sweet", err.Error())
	}
	var payload inventory.UpdateInput
	if err := mapstructure.Decode(raw, &payload); err != nil {
		return fail(c, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "Invalid field type", err.Error())
	}
	svc := GetInventory(c)
	s, err := svc.UpdateFields(c.Request().Context(), id, payload)
	if err != nil {
		return failErr(c, err)
	}
	return ok(c, viewOf(svc, *s))
}

func DeleteSweet(c echo.Context) error {
	id, err := parseIDParam(c)
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid sweet ID", nil)
	}
	if err := GetInventory(c).Delete(c.Request().Context(), id); err != nil {
		return failErr(c, err)
	}
	return ok(c, map[string]interface{}{"success": true, "id": strconv.FormatInt(id, 10)})
}

func RestockSweet(c echo.Context) error {
	return adjustStock(c, (*inventory.Service).Restock)
}

func PurchaseSweet(c echo.Context) error {
	return adjustStock(c, (*inventory.Service).Purchase)
}

type stockOp func(svc *inventory.Service, ctx context.Context, id int64, count any) (inventory.StockResult, error)

func adjustStock(c echo.Context, op stockOp) error {
	id, err := parseIDParam(c)
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid sweet ID", nil)
	}
	var payload stockPayload
	if err := bindBody(c, &payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse request", err.Error())
	}
	svc := GetInventory(c)
	res, err := op(svc, c.Request().Context(), id, payload.Quantity)
	if err != nil {
		return failErr(c, err)
	}
	return ok(c, stockResultView{
		Success:  res.Success,
		Message:  res.Message,
		Quantity: res.Quantity,
		Sweet:    viewOf(svc, res.Sweet),
	})
}

func ListCategories(c echo.Context) error {
	return ok(c, GetInventory(c).Categories())
}

func SweetStats(c echo.Context) error {
	st, err := GetInventory(c).Stats(c.Request().Context())
	if err != nil {
		return failErr(c, err)
	}
	return ok(c, st)
}

func ExportSweets(c echo.Context) error {
	f, err := parseFilter(c)
	if err != nil {
		return failErr(c, err)
	}
	format := strings.ToLower(strings.TrimSpace(c.QueryParam("format")))
	contentType := "text/csv; charset=utf-8"
	switch format {
	case "", app.ExportCSV:
		format = app.ExportCSV
	case app.ExportXLSX:
		contentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	default:
		return fail(c, http.StatusUnprocessableEntity, "INVALID_ARGUMENT", "format must be csv or xlsx", nil)
	}
	var buf bytes.Buffer
	if err := GetAppContext(c).ExportCatalog(c.Request().Context(), &buf, format, f); err != nil {
		return failErr(c, err)
	}
	filename := "sweets-" + time.Now().Format("20060102150405") + "." + format
	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="`+filename+`"`)
	return c.Blob(http.StatusOK, contentType, buf.Bytes())
}
