package service

import (
	"context"
	"sync"
	"testing"

	"github.com/reginaldo-miranda/barAppAdmin-sub000/internal/model"
	"github.com/reginaldo-miranda/barAppAdmin-sub000/internal/repository/memory"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

// ── Fakes ────────────────────────────────────────────────────────────────────

type queuedSale struct {
	OrderID uuid.UUID
	Amount  decimal.Decimal
	Method  string
}

type fakeJobs struct {
	mu       sync.Mutex
	sales    []queuedSale
	closings []uuid.UUID
}

func (f *fakeJobs) EnqueueRegisterSale(_ context.Context, orderID uuid.UUID, amount decimal.Decimal, method string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sales = append(f.sales, queuedSale{OrderID: orderID, Amount: amount, Method: method})
	return nil
}

func (f *fakeJobs) EnqueueClosingReport(_ context.Context, registerID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closings = append(f.closings, registerID)
	return nil
}

// ── Environment ──────────────────────────────────────────────────────────────

type testEnv struct {
	store     *memory.Store
	defaults  DefaultsService
	tables    TableService
	registers CashRegisterService
	orders    OrderService
	jobs      *fakeJobs

	waiter *model.Employee
	beer   *model.Product
	fries  *model.Product
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()
	store := memory.NewStore(nil)
	jobs := &fakeJobs{}

	e := &testEnv{store: store, jobs: jobs}
	e.defaults = NewDefaultsService(store.Employees(), store.CashRegisters(), "Administrator")
	e.tables = NewTableService(store.Tables(), store.Orders(), store.Employees())
	e.registers = NewCashRegisterService(store.CashRegisters(), store.Employees(), e.defaults, jobs)
	e.orders = NewOrderService(
		store.Orders(), store.Products(), store.Employees(), store.Tables(),
		e.tables, e.registers, jobs,
		NewJoiner(store.Employees(), store.Tables()),
		"Administrator",
	)

	e.waiter = &model.Employee{Name: "Joana", Role: "waiter", Active: true}
	require.NoError(t, store.Employees().Create(ctx, e.waiter))
	e.beer = &model.Product{Name: "Chopp", Price: decimal.RequireFromString("10.00"), Active: true}
	require.NoError(t, store.Products().Create(ctx, e.beer))
	e.fries = &model.Product{Name: "Batata frita", Price: decimal.RequireFromString("5.50"), Active: true}
	require.NoError(t, store.Products().Create(ctx, e.fries))
	return e
}

func (e *testEnv) setPrice(t *testing.T, p *model.Product, price string) {
	t.Helper()
	// The catalogue has no update path; replace the record in place.
	stored, err := e.store.Products().FindByID(context.Background(), p.ID)
	require.NoError(t, err)
	stored.Price = decimal.RequireFromString(price)
	*p = *stored
	e.store.ReplaceProduct(stored)
}

func mustID(t *testing.T, s string) uuid.UUID {
	t.Helper()
	id, err := uuid.Parse(s)
	require.NoError(t, err)
	return id
}
