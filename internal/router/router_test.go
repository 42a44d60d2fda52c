package router

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/reginaldo-miranda/barAppAdmin-sub000/internal/changefeed"
	"github.com/reginaldo-miranda/barAppAdmin-sub000/internal/config"
	"github.com/reginaldo-miranda/barAppAdmin-sub000/internal/dto"
	"github.com/reginaldo-miranda/barAppAdmin-sub000/internal/middleware"
	"github.com/reginaldo-miranda/barAppAdmin-sub000/internal/model"
	"github.com/reginaldo-miranda/barAppAdmin-sub000/internal/repository/memory"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() { gin.SetMode(gin.TestMode) }

const testSecret = "test-secret"

type app struct {
	engine *gin.Engine
	token  string
	waiter *model.Employee
	beer   *model.Product
}

func newApp(t *testing.T) *app {
	t.Helper()
	ctx := context.Background()
	cfg := &config.Config{
		Env:                  "test",
		JWTSecret:            testSecret,
		CORSAllowedOrigins:   "*",
		DefaultAttendantName: "Administrator",
		DefaultEmployeeName:  "Administrator",
	}

	store := memory.NewStore(nil)
	repos := Repositories{
		Orders:    store.Orders(),
		Tables:    store.Tables(),
		Registers: store.CashRegisters(),
		Employees: store.Employees(),
		Products:  store.Products(),
	}

	a := &app{}
	a.waiter = &model.Employee{Name: "Joana", Role: "waiter", Active: true}
	require.NoError(t, store.Employees().Create(ctx, a.waiter))
	a.beer = &model.Product{Name: "Chopp", Price: decimal.RequireFromString("10.00"), Active: true}
	require.NoError(t, store.Products().Create(ctx, a.beer))

	a.engine = New(cfg, Deps{
		Services: NewServices(cfg, repos, nil),
		Products: repos.Products,
		Stream:   changefeed.NewHub(8),
	})

	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, middleware.JWTClaims{
		EmployeeID: a.waiter.ID.String(),
		Name:       a.waiter.Name,
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)
	a.token = tok
	return a
}

func (a *app) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if a.token != "" {
		req.Header.Set("Authorization", "Bearer "+a.token)
	}
	w := httptest.NewRecorder()
	a.engine.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func TestProtectedRoutesNeedToken(t *testing.T) {
	a := newApp(t)
	a.token = ""
	assert.Equal(t, http.StatusUnauthorized, a.do(t, http.MethodGet, "/order", nil).Code)
	assert.Equal(t, http.StatusUnauthorized, a.do(t, http.MethodGet, "/cashregister/open-current", nil).Code)
}

func TestHealthIsPublic(t *testing.T) {
	a := newApp(t)
	a.token = ""
	w := a.do(t, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"db":"disabled"`)
}

func TestCounterOrderFlow(t *testing.T) {
	a := newApp(t)

	w := a.do(t, http.MethodPost, "/order", gin.H{"sale_type": "counter"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	order := decode[dto.OrderResponse](t, w)
	assert.Equal(t, model.OrderOpen, order.Status)
	assert.Equal(t, a.waiter.ID.String(), order.EmployeeID)

	w = a.do(t, http.MethodPost, "/order/"+order.ID+"/item", gin.H{"product_id": a.beer.ID.String(), "quantity": 2})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	order = decode[dto.OrderResponse](t, w)
	assert.True(t, order.Total.Equal(decimal.NewFromInt(20)))

	w = a.do(t, http.MethodPut, "/order/"+order.ID+"/discount", gin.H{"amount": "5"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = a.do(t, http.MethodPut, "/order/"+order.ID+"/finalize", gin.H{"payment_method": "Cartão"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	order = decode[dto.OrderResponse](t, w)
	assert.Equal(t, model.OrderFinalized, order.Status)
	assert.Equal(t, model.PaymentCard, order.PaymentMethod)
	assert.True(t, order.Total.Equal(decimal.NewFromInt(15)))

	// The sale landed on the auto-opened register.
	w = a.do(t, http.MethodGet, "/cashregister/open-current", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	reg := decode[dto.CashRegisterResponse](t, w)
	require.Len(t, reg.SalesLog, 1)
	assert.Equal(t, order.ID, reg.SalesLog[0].OrderID)
	assert.True(t, reg.TotalCard.Equal(decimal.NewFromInt(15)))

	// Finalized orders are frozen.
	w = a.do(t, http.MethodPost, "/order/"+order.ID+"/item", gin.H{"product_id": a.beer.ID.String(), "quantity": 1})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestTableOrderFlow(t *testing.T) {
	a := newApp(t)

	w := a.do(t, http.MethodPost, "/table", gin.H{"number": 7, "capacity": 4})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	table := decode[dto.TableResponse](t, w)

	w = a.do(t, http.MethodPost, "/order", gin.H{"sale_type": "table", "table_id": table.ID})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	order := decode[dto.OrderResponse](t, w)
	require.NotNil(t, order.Table)
	assert.Equal(t, 7, order.Table.Number)

	w = a.do(t, http.MethodGet, "/table/"+table.ID, nil)
	table = decode[dto.TableResponse](t, w)
	assert.Equal(t, model.TableOccupied, table.Status)
	require.NotNil(t, table.CurrentOrderID)
	assert.Equal(t, order.ID, *table.CurrentOrderID)

	// A second order cannot take the occupied table; it is canceled.
	w = a.do(t, http.MethodPost, "/order", gin.H{"sale_type": "table", "table_id": table.ID})
	assert.Equal(t, http.StatusConflict, w.Code, w.Body.String())

	w = a.do(t, http.MethodGet, "/table/summary", nil)
	summary := decode[dto.TableSummaryResponse](t, w)
	assert.EqualValues(t, 1, summary.Occupied)

	a.do(t, http.MethodPost, "/order/"+order.ID+"/item", gin.H{"product_id": a.beer.ID.String(), "quantity": 1})
	w = a.do(t, http.MethodPut, "/order/"+order.ID+"/finalize", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = a.do(t, http.MethodGet, "/table/"+table.ID, nil)
	table = decode[dto.TableResponse](t, w)
	assert.Equal(t, model.TableFree, table.Status)
	assert.Nil(t, table.CurrentOrderID)

	w = a.do(t, http.MethodGet, "/order?status=canceled", nil)
	list := decode[dto.OrderListResponse](t, w)
	assert.EqualValues(t, 1, list.Total)
}

func TestRegisterCloseFlow(t *testing.T) {
	a := newApp(t)

	w := a.do(t, http.MethodPost, "/cashregister/open", gin.H{"opening_amount": "50"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	reg := decode[dto.CashRegisterResponse](t, w)

	w = a.do(t, http.MethodPost, "/cashregister/open", gin.H{"opening_amount": "10"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = a.do(t, http.MethodPost, "/order", gin.H{"sale_type": "counter"})
	order := decode[dto.OrderResponse](t, w)
	a.do(t, http.MethodPost, "/order/"+order.ID+"/item", gin.H{"product_id": a.beer.ID.String(), "quantity": 3})
	w = a.do(t, http.MethodPut, "/order/"+order.ID+"/finalize", gin.H{"payment_method": "dinheiro"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = a.do(t, http.MethodPut, "/cashregister/"+reg.ID+"/close", gin.H{"closing_amount": "75"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = a.do(t, http.MethodGet, "/cashregister/"+reg.ID+"/report", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	report := decode[dto.RegisterReportResponse](t, w)
	assert.Equal(t, 1, report.SalesCount)
	assert.True(t, report.ExpectedCash.Equal(decimal.NewFromInt(80)))
	require.NotNil(t, report.Difference)
	assert.True(t, report.Difference.Equal(decimal.NewFromInt(-5)))

	w = a.do(t, http.MethodGet, "/cashregister/open-current", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestValidationErrors(t *testing.T) {
	a := newApp(t)

	w := a.do(t, http.MethodPost, "/order", gin.H{"sale_type": "boat"})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), "SaleType")

	w = a.do(t, http.MethodPost, "/order", gin.H{"sale_type": "counter"})
	order := decode[dto.OrderResponse](t, w)

	w = a.do(t, http.MethodPost, "/order/"+order.ID+"/item", gin.H{"product_id": a.beer.ID.String(), "quantity": 0})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = a.do(t, http.MethodGet, "/order/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = a.do(t, http.MethodPut, "/order/"+order.ID+"/finalize", nil)
	assert.Equal(t, http.StatusConflict, w.Code, "finalize without items")
}

func TestProductLookup(t *testing.T) {
	a := newApp(t)

	w := a.do(t, http.MethodGet, "/product/"+a.beer.ID.String(), nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	p := decode[dto.ProductResponse](t, w)
	assert.Equal(t, "Chopp", p.Name)
	assert.True(t, p.Price.Equal(decimal.NewFromInt(10)))

	w = a.do(t, http.MethodGet, "/product/"+a.waiter.ID.String(), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
