package adminapi

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	jsoniter "github.com/json-iterator/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/talkincode/sweetshop/config"
	"github.com/talkincode/sweetshop/internal/app"
	"github.com/talkincode/sweetshop/internal/webserver"
)

var testJSON = jsoniter.ConfigCompatibleWithStandardLibrary

type testServer struct {
	t     *testing.T
	app   *app.Application
	srv   *webserver.WebServer
	token string
}

func newTestServer(t *testing.T, secret string) *testServer {
	return newTestServerWithDB(t, secret, "memory")
}

func newTestServerWithDB(t *testing.T, secret, dbType string) *testServer {
	cfg := config.DefaultAppConfig()
	cfg.System.Workdir = t.TempDir()
	cfg.Database.Type = dbType
	cfg.Auth.JwtSecret = secret
	a := app.NewApplication(cfg)
	require.NoError(t, a.Init(cfg))
	t.Cleanup(a.Release)
	srv := webserver.Init(cfg)
	Init(a)
	return &testServer{t: t, app: a, srv: srv}
}

func (s *testServer) do(method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}
	rec := httptest.NewRecorder()
	s.srv.Echo().ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	require.NoError(t, testJSON.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}

type sweetBody struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Category    string  `json:"category"`
	Price       float64 `json:"price"`
	Quantity    int     `json:"quantity"`
	StockStatus string  `json:"stock_status"`
}

type stockBody struct {
	Success  bool      `json:"success"`
	Message  string    `json:"message"`
	Quantity int       `json:"quantity"`
	Sweet    sweetBody `json:"sweet"`
}

type errorBody struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details"`
}

func (s *testServer) createDarkBar() sweetBody {
	rec := s.do(http.MethodPost, "/api/v1/sweets",
		`{"name":"Dark Bar","category":"Chocolate","price":2.50,"quantity":5}`)
	require.Equal(s.t, http.StatusCreated, rec.Code, rec.Body.String())
	var sw sweetBody
	decode(s.t, rec, &sw)
	return sw
}

func TestHealthAndWelcome(t *testing.T) {
	s := newTestServer(t, "")
	rec := s.do(http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"healthy"}`, rec.Body.String())

	rec = s.do(http.MethodGet, "/", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]string
	decode(t, rec, &body)
	assert.Equal(t, config.Version, body["version"])
}

func TestDarkBarFlow(t *testing.T) {
	s := newTestServer(t, "")
	sw := s.createDarkBar()
	assert.Equal(t, "chocolate", sw.Category)
	assert.Equal(t, 2.5, sw.Price)
	assert.Equal(t, "low_stock", sw.StockStatus)

	rec := s.do(http.MethodPost, "/api/v1/sweets/"+sw.ID+"/purchase", `{"quantity":3}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var res stockBody
	decode(t, rec, &res)
	assert.True(t, res.Success)
	assert.Equal(t, 2, res.Quantity)
	assert.Equal(t, "Successfully purchased 3 units of Dark Bar", res.Message)

	var wg sync.WaitGroup
	codes := make([]int, 2)
	for i, n := range []string{"2", "1"} {
		wg.Add(1)
		go func(i int, n string) {
			defer wg.Done()
			codes[i] = s.do(http.MethodPost, "/api/v1/sweets/"+sw.ID+"/purchase", `{"quantity":`+n+`}`).Code
		}(i, n)
	}
	wg.Wait()
	assert.ElementsMatch(t, []int{http.StatusOK, http.StatusConflict}, codes)

	rec = s.do(http.MethodGet, "/api/v1/sweets/"+sw.ID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var got sweetBody
	decode(t, rec, &got)
	assert.Contains(t, []int{0, 1}, got.Quantity)
}

func TestInsufficientStockResponse(t *testing.T) {
	s := newTestServer(t, "")
	sw := s.createDarkBar()

	rec := s.do(http.MethodPost, "/api/v1/sweets/"+sw.ID+"/purchase", `{"quantity":9}`)
	require.Equal(t, http.StatusConflict, rec.Code)
	var e errorBody
	decode(t, rec, &e)
	assert.Equal(t, "INSUFFICIENT_STOCK", e.Code)
	assert.Equal(t, "Insufficient stock. Available: 5, Requested: 9", e.Message)
	assert.EqualValues(t, 5, e.Details["available"])
	assert.EqualValues(t, 9, e.Details["requested"])

	rec = s.do(http.MethodPost, "/api/v1/sweets/"+sw.ID+"/purchase", `{"quantity":0}`)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	decode(t, rec, &e)
	assert.Equal(t, "INVALID_ARGUMENT", e.Code)
}

func TestErrorMapping(t *testing.T) {
	s := newTestServer(t, "")

	rec := s.do(http.MethodGet, "/api/v1/sweets/42", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(http.MethodGet, "/api/v1/sweets/abc", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodPost, "/api/v1/sweets", `{"name":"  ","category":"candy","price":1,"quantity":1}`)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	var e errorBody
	decode(t, rec, &e)
	assert.Equal(t, "VALIDATION_ERROR", e.Code)
	assert.Equal(t, "name", e.Details["field"])

	rec = s.do(http.MethodPost, "/api/v1/sweets", `{"name":"Toffee","category":"candy","price":-1,"quantity":1}`)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	decode(t, rec, &e)
	assert.Equal(t, "price", e.Details["field"])

	rec = s.do(http.MethodPost, "/api/v1/sweets", `{"name":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodPost, "/api/v1/sweets/42/restock", `{"quantity":5}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(http.MethodGet, "/api/v1/sweets/search?min_price=cheap", "")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestUpdateAndDelete(t *testing.T) {
	s := newTestServer(t, "")
	sw := s.createDarkBar()

	rec := s.do(http.MethodPut, "/api/v1/sweets/"+sw.ID, `{"price":"3.10","quantity":50}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var got sweetBody
	decode(t, rec, &got)
	assert.Equal(t, "Dark Bar", got.Name)
	assert.Equal(t, 3.1, got.Price)
	assert.Equal(t, 50, got.Quantity)
	assert.Equal(t, "in_stock", got.StockStatus)

	rec = s.do(http.MethodPut, "/api/v1/sweets/"+sw.ID, `{"name":true}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = s.do(http.MethodDelete, "/api/v1/sweets/"+sw.ID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":true,"id":"`+sw.ID+`"}`, rec.Body.String())

	rec = s.do(http.MethodDelete, "/api/v1/sweets/"+sw.ID, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListAndSearch(t *testing.T) {
	s := newTestServer(t, "")
	for _, body := range []string{
		`{"name":"Dark Bar","category":"chocolate","price":2.5,"quantity":5}`,
		`{"name":"Milk Bar","category":"chocolate","price":2.0,"quantity":0}`,
		`{"name":"Sour Worms","category":"gummy","price":1.25,"quantity":40}`,
	} {
		require.Equal(t, http.StatusCreated, s.do(http.MethodPost, "/api/v1/sweets", body).Code)
	}

	rec := s.do(http.MethodGet, "/api/v1/sweets?in_stock_only=true", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "2", rec.Header().Get("X-Total-Count"))

	rec = s.do(http.MethodGet, "/api/v1/sweets/search?name=BAR&category=Chocolate&max_price=2.25", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var items []sweetBody
	decode(t, rec, &items)
	require.Len(t, items, 1)
	assert.Equal(t, "Milk Bar", items[0].Name)
	assert.Equal(t, "out_of_stock", items[0].StockStatus)

	rec = s.do(http.MethodGet, "/api/v1/sweets/search?skip=1&limit=1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &items)
	require.Len(t, items, 1)
	assert.Equal(t, "Milk Bar", items[0].Name)
	assert.Equal(t, "3", rec.Header().Get("X-Total-Count"))

	rec = s.do(http.MethodGet, "/api/v1/sweets/search?updated_since=2000-01-01", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "3", rec.Header().Get("X-Total-Count"))

	rec = s.do(http.MethodGet, "/api/v1/sweets/search?skip=-1", "")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = s.do(http.MethodGet, "/api/v1/sweets/categories", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var cats []string
	decode(t, rec, &cats)
	assert.Contains(t, cats, "gummy")

	rec = s.do(http.MethodGet, "/api/v1/sweets/stats", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var st map[string]interface{}
	decode(t, rec, &st)
	assert.EqualValues(t, 3, st["count"])
}

func TestExportEndpoint(t *testing.T) {
	s := newTestServer(t, "")
	s.createDarkBar()

	rec := s.do(http.MethodGet, "/api/v1/sweets/export?format=csv", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), ".csv")
	assert.Contains(t, rec.Body.String(), "Dark Bar")

	rec = s.do(http.MethodGet, "/api/v1/sweets/export?format=xlsx", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Body.String(), "PK"))

	rec = s.do(http.MethodGet, "/api/v1/sweets/export?format=pdf", "")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestExportStoreFailure(t *testing.T) {
	s := newTestServerWithDB(t, "", "bolt")
	s.createDarkBar()
	s.app.Release()

	rec := s.do(http.MethodGet, "/api/v1/sweets/export?format=csv", "")
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Empty(t, rec.Header().Get("Content-Disposition"))
	var e errorBody
	decode(t, rec, &e)
	assert.Equal(t, "INTERNAL_ERROR", e.Code)
}

func TestHugeExponentRejected(t *testing.T) {
	s := newTestServer(t, "")
	sw := s.createDarkBar()

	var recs []*httptest.ResponseRecorder
	done := make(chan struct{})
	go func() {
		defer close(done)
		for _, action := range []string{"purchase", "restock"} {
			recs = append(recs, s.do(http.MethodPost, "/api/v1/sweets/"+sw.ID+"/"+action, `{"quantity":1e100000000}`))
		}
		recs = append(recs,
			s.do(http.MethodGet, "/api/v1/sweets/search?min_price=1e100000000", ""),
			s.do(http.MethodPost, "/api/v1/sweets",
				`{"name":"Toffee","category":"candy","price":"1e100000000","quantity":1}`))
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("large exponent input did not return")
	}

	require.Len(t, recs, 4)
	for i, code := range []string{"INVALID_ARGUMENT", "INVALID_ARGUMENT", "VALIDATION_ERROR", "VALIDATION_ERROR"} {
		require.Equal(t, http.StatusUnprocessableEntity, recs[i].Code, recs[i].Body.String())
		var e errorBody
		decode(t, recs[i], &e)
		assert.Equal(t, code, e.Code)
	}

	rec := s.do(http.MethodGet, "/api/v1/sweets/"+sw.ID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var got sweetBody
	decode(t, rec, &got)
	assert.Equal(t, 5, got.Quantity)
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t, "")
	sw := s.createDarkBar()
	require.Equal(t, http.StatusOK, s.do(http.MethodPost, "/api/v1/sweets/"+sw.ID+"/purchase", `{"quantity":2}`).Code)
	require.Equal(t, http.StatusConflict, s.do(http.MethodPost, "/api/v1/sweets/"+sw.ID+"/purchase", `{"quantity":9}`).Code)
	s.app.Bus().WaitAsync()

	rec := s.do(http.MethodGet, "/api/v1/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var snap struct {
		Counters map[string]int64   `json:"counters"`
		Gauges   map[string]float64 `json:"gauges"`
	}
	decode(t, rec, &snap)
	assert.EqualValues(t, 1, snap.Counters["sweetshop_purchase_total"])
	assert.EqualValues(t, 2, snap.Counters["sweetshop_purchase_units"])
	assert.EqualValues(t, 1, snap.Counters["sweetshop_purchase_rejected"])
	assert.EqualValues(t, 1, snap.Counters["sweetshop_sweet_created"])

	rec = s.do(http.MethodGet, "/api/v1/metrics/sweetshop_purchase_units?since=2000-01-01", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var points []struct {
		Timestamp int64   `json:"timestamp"`
		Value     float64 `json:"value"`
	}
	decode(t, rec, &points)
	require.Len(t, points, 1)
	assert.Equal(t, 2.0, points[0].Value)

	assert.Equal(t, http.StatusNotFound, s.do(http.MethodGet, "/api/v1/metrics/unknown", "").Code)
	assert.Equal(t, http.StatusUnprocessableEntity,
		s.do(http.MethodGet, "/api/v1/metrics/sweetshop_purchase_units?since=someday", "").Code)
}

func signToken(t *testing.T, secret, role string) string {
	claims := &Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "tester",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func TestAuthGuard(t *testing.T) {
	const secret = "s3cret"
	s := newTestServer(t, secret)

	assert.Equal(t, http.StatusOK, s.do(http.MethodGet, "/health", "").Code)
	assert.Equal(t, http.StatusUnauthorized, s.do(http.MethodGet, "/api/v1/sweets", "").Code)

	s.token = signToken(t, "wrong", "admin")
	assert.Equal(t, http.StatusUnauthorized, s.do(http.MethodGet, "/api/v1/sweets", "").Code)

	s.token = signToken(t, secret, "customer")
	assert.Equal(t, http.StatusOK, s.do(http.MethodGet, "/api/v1/sweets", "").Code)
	rec := s.do(http.MethodPost, "/api/v1/sweets", `{"name":"Dark Bar","category":"chocolate","price":2.5,"quantity":5}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	s.token = signToken(t, secret, "admin")
	sw := s.createDarkBar()

	s.token = signToken(t, secret, "customer")
	rec = s.do(http.MethodPost, "/api/v1/sweets/"+sw.ID+"/purchase", `{"quantity":1}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = s.do(http.MethodPost, "/api/v1/sweets/"+sw.ID+"/restock", `{"quantity":1}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}
