package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/reginaldo-miranda/barAppAdmin-sub000/internal/apierror"
	"github.com/reginaldo-miranda/barAppAdmin-sub000/internal/dto"
	"github.com/reginaldo-miranda/barAppAdmin-sub000/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func (e *testEnv) newCounterOrder(t *testing.T) uuid.UUID {
	t.Helper()
	o, err := e.orders.Create(context.Background(), e.waiter.ID, dto.CreateOrderRequest{SaleType: model.SaleCounter})
	require.NoError(t, err)
	return mustID(t, o.ID)
}

// ── Create ───────────────────────────────────────────────────────────────────

func TestCreateOrder_RequiresEmployee(t *testing.T) {
	e := newTestEnv(t)
	_, err := e.orders.Create(context.Background(), uuid.Nil, dto.CreateOrderRequest{SaleType: model.SaleCounter})
	assert.True(t, apierror.Is(err, apierror.KindValidation))

	_, err = e.orders.Create(context.Background(), uuid.New(), dto.CreateOrderRequest{SaleType: model.SaleCounter})
	assert.True(t, apierror.Is(err, apierror.KindValidation))
}

func TestCreateOrder_TabNeedsName(t *testing.T) {
	e := newTestEnv(t)
	_, err := e.orders.Create(context.Background(), e.waiter.ID, dto.CreateOrderRequest{SaleType: model.SaleTab})
	assert.True(t, apierror.Is(err, apierror.KindValidation))

	o, err := e.orders.Create(context.Background(), e.waiter.ID, dto.CreateOrderRequest{SaleType: model.SaleTab, TabName: strPtr("  Carlos ")})
	require.NoError(t, err)
	assert.Equal(t, "Carlos", *o.TabName)
	assert.Equal(t, model.OrderOpen, o.Status)
	assert.Empty(t, o.Items)
}

func TestCreateOrder_IgnoresTotalHint(t *testing.T) {
	e := newTestEnv(t)
	hint := decimal.NewFromInt(500)
	o, err := e.orders.Create(context.Background(), e.waiter.ID, dto.CreateOrderRequest{SaleType: model.SaleCounter, TotalHint: &hint})
	require.NoError(t, err)
	assert.True(t, o.Total.IsZero())
}

func TestCreateOrder_UnknownTable(t *testing.T) {
	e := newTestEnv(t)
	_, err := e.orders.Create(context.Background(), e.waiter.ID, dto.CreateOrderRequest{
		SaleType: model.SaleTable, TableID: strPtr(uuid.NewString()),
	})
	assert.True(t, apierror.Is(err, apierror.KindNotFound))
}

// ── Items ────────────────────────────────────────────────────────────────────

func TestTotalsScenario(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	id := e.newCounterOrder(t)

	_, err := e.orders.AddItem(ctx, id, e.beer.ID, 2)
	require.NoError(t, err)
	_, err = e.orders.AddItem(ctx, id, e.fries.ID, 1)
	require.NoError(t, err)
	o, err := e.orders.ApplyDiscount(ctx, id, decimal.RequireFromString("3.00"))
	require.NoError(t, err)

	assert.Equal(t, "25.50", o.Subtotal.StringFixed(2))
	assert.Equal(t, "22.50", o.Total.StringFixed(2))
}

func TestAddItem_MergesLines(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	id := e.newCounterOrder(t)

	_, err := e.orders.AddItem(ctx, id, e.beer.ID, 2)
	require.NoError(t, err)
	o, err := e.orders.AddItem(ctx, id, e.beer.ID, 3)
	require.NoError(t, err)

	require.Len(t, o.Items, 1)
	assert.Equal(t, 5, o.Items[0].Quantity)
	assert.Equal(t, "50.00", o.Items[0].Subtotal.StringFixed(2))
}

func TestAddItem_Validation(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	id := e.newCounterOrder(t)

	_, err := e.orders.AddItem(ctx, id, e.beer.ID, 0)
	assert.True(t, apierror.Is(err, apierror.KindValidation))

	_, err = e.orders.AddItem(ctx, id, uuid.New(), 1)
	assert.True(t, apierror.Is(err, apierror.KindNotFound))

	_, err = e.orders.AddItem(ctx, uuid.New(), e.beer.ID, 1)
	assert.True(t, apierror.Is(err, apierror.KindNotFound))

	inactive := &model.Product{Name: "Old", Price: decimal.NewFromInt(1), Active: false}
	require.NoError(t, e.store.Products().Create(ctx, inactive))
	_, err = e.orders.AddItem(ctx, id, inactive.ID, 1)
	assert.True(t, apierror.Is(err, apierror.KindValidation))
}

func TestRemoveThenAddUsesCurrentPrice(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	id := e.newCounterOrder(t)

	_, err := e.orders.AddItem(ctx, id, e.beer.ID, 1)
	require.NoError(t, err)
	e.setPrice(t, e.beer, "12.00")

	o, err := e.orders.AddItem(ctx, id, e.beer.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, "10.00", o.Items[0].UnitPrice.StringFixed(2), "merge keeps the snapshot")

	_, err = e.orders.RemoveItem(ctx, id, e.beer.ID)
	require.NoError(t, err)
	o, err = e.orders.AddItem(ctx, id, e.beer.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, "12.00", o.Items[0].UnitPrice.StringFixed(2))
}

func TestUpdateItemQuantity(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	id := e.newCounterOrder(t)
	_, err := e.orders.AddItem(ctx, id, e.fries.ID, 1)
	require.NoError(t, err)

	_, err = e.orders.UpdateItemQuantity(ctx, id, e.fries.ID, 0)
	assert.True(t, apierror.Is(err, apierror.KindValidation))

	_, err = e.orders.UpdateItemQuantity(ctx, id, e.beer.ID, 2)
	assert.True(t, apierror.Is(err, apierror.KindNotFound))

	o, err := e.orders.UpdateItemQuantity(ctx, id, e.fries.ID, 4)
	require.NoError(t, err)
	assert.Equal(t, "22.00", o.Total.StringFixed(2))
}

func TestDiscountClampsTotal(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	id := e.newCounterOrder(t)
	_, err := e.orders.AddItem(ctx, id, e.fries.ID, 1)
	require.NoError(t, err)

	_, err = e.orders.ApplyDiscount(ctx, id, decimal.NewFromInt(-1))
	assert.True(t, apierror.Is(err, apierror.KindValidation))

	o, err := e.orders.ApplyDiscount(ctx, id, decimal.NewFromInt(100))
	require.NoError(t, err)
	assert.True(t, o.Total.IsZero())
}

// ── Finalize ─────────────────────────────────────────────────────────────────

func TestFinalize_EmptyOrderStaysOpen(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	id := e.newCounterOrder(t)

	_, err := e.orders.Finalize(ctx, id, "")
	assert.True(t, apierror.Is(err, apierror.KindInvalidState))

	o, err := e.orders.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, model.OrderOpen, o.Status)
}

func TestFinalize_IsOneWay(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	id := e.newCounterOrder(t)
	_, err := e.orders.AddItem(ctx, id, e.beer.ID, 1)
	require.NoError(t, err)

	_, err = e.orders.Finalize(ctx, id, "pix")
	require.NoError(t, err)
	_, err = e.orders.Finalize(ctx, id, "pix")
	assert.True(t, apierror.Is(err, apierror.KindInvalidState))

	_, err = e.orders.AddItem(ctx, id, e.beer.ID, 1)
	assert.True(t, apierror.Is(err, apierror.KindInvalidState))
	_, err = e.orders.Cancel(ctx, id)
	assert.True(t, apierror.Is(err, apierror.KindInvalidState))
}

func TestFinalize_CardGoesToCardBucket(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	id := e.newCounterOrder(t)
	_, err := e.orders.AddItem(ctx, id, e.beer.ID, 2)
	require.NoError(t, err)

	o, err := e.orders.Finalize(ctx, id, "Cartão")
	require.NoError(t, err)
	assert.Equal(t, model.PaymentCard, o.PaymentMethod)
	assert.NotNil(t, o.FinalizedAt)

	reg, err := e.registers.CurrentOpen(ctx)
	require.NoError(t, err)
	assert.Equal(t, "20.00", reg.TotalCard.StringFixed(2))
	assert.Equal(t, "20.00", reg.TotalSales.StringFixed(2))
	assert.True(t, reg.OpeningAmount.IsZero(), "register auto-opened with zero float")
	require.Len(t, reg.SalesLog, 1)
	assert.Equal(t, o.ID, reg.SalesLog[0].OrderID)
}

func TestFinalize_DefaultsToCash(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	id := e.newCounterOrder(t)
	_, err := e.orders.AddItem(ctx, id, e.fries.ID, 1)
	require.NoError(t, err)

	o, err := e.orders.Finalize(ctx, id, "")
	require.NoError(t, err)
	assert.Equal(t, model.PaymentCash, o.PaymentMethod)
	assert.Equal(t, "Joana", o.AttendantName)
	assert.Equal(t, e.waiter.ID.String(), *o.AttendantID)
	assert.Equal(t, "Joana", o.OpeningAttendantName)
}

func TestFinalize_ReleasesLinkedTable(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()

	tbl, err := e.tables.Create(ctx, dto.CreateTableRequest{Number: 7, Capacity: 4})
	require.NoError(t, err)
	tableID := mustID(t, tbl.ID)

	o, err := e.orders.Create(ctx, e.waiter.ID, dto.CreateOrderRequest{SaleType: model.SaleTable, TableID: &tbl.ID})
	require.NoError(t, err)
	orderID := mustID(t, o.ID)
	_, err = e.tables.LinkOrder(ctx, tableID, orderID)
	require.NoError(t, err)
	_, err = e.orders.AddItem(ctx, orderID, e.beer.ID, 1)
	require.NoError(t, err)

	fin, err := e.orders.Finalize(ctx, orderID, "dinheiro")
	require.NoError(t, err)
	assert.Equal(t, "Joana", fin.ResponsibleName)
	require.NotNil(t, fin.Table)
	assert.Equal(t, 7, fin.Table.Number)

	after, err := e.tables.Get(ctx, tableID)
	require.NoError(t, err)
	assert.Equal(t, model.TableFree, after.Status)
	assert.Nil(t, after.CurrentOrderID)
	assert.Nil(t, after.ResponsibleName)
	assert.Zero(t, after.ClientsCount)
	assert.Nil(t, after.OpenedAt)
}

func TestFinalize_UnlinkedOrderLeavesTableAlone(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	opener := &model.Employee{Name: "Rafael", Role: "waiter", Active: true}
	require.NoError(t, e.store.Employees().Create(ctx, opener))

	tbl, err := e.tables.Create(ctx, dto.CreateTableRequest{Number: 7, Capacity: 4})
	require.NoError(t, err)
	tableID := mustID(t, tbl.ID)
	_, err = e.tables.Open(ctx, tableID, opener.ID, dto.OpenTableRequest{ResponsibleName: "Mesa do Rafa"})
	require.NoError(t, err)

	seated, err := e.orders.Create(ctx, opener.ID, dto.CreateOrderRequest{SaleType: model.SaleTable, TableID: &tbl.ID})
	require.NoError(t, err)
	seatedID := mustID(t, seated.ID)
	_, err = e.tables.LinkOrder(ctx, tableID, seatedID)
	require.NoError(t, err)

	// A counter sale that merely names the table.
	counter, err := e.orders.Create(ctx, e.waiter.ID, dto.CreateOrderRequest{SaleType: model.SaleCounter, TableID: &tbl.ID})
	require.NoError(t, err)
	counterID := mustID(t, counter.ID)
	_, err = e.orders.AddItem(ctx, counterID, e.beer.ID, 1)
	require.NoError(t, err)

	fin, err := e.orders.Finalize(ctx, counterID, "")
	require.NoError(t, err)
	assert.Empty(t, fin.ResponsibleName, "another order's table identity is not copied")
	assert.Equal(t, "Joana", fin.AttendantName)

	after, err := e.tables.Get(ctx, tableID)
	require.NoError(t, err)
	assert.Equal(t, model.TableOccupied, after.Status)
	require.NotNil(t, after.CurrentOrderID)
	assert.Equal(t, seated.ID, *after.CurrentOrderID)
}

func TestFinalize_SnapshotsTableResponsible(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	opener := &model.Employee{Name: "Rafael", Role: "waiter", Active: true}
	require.NoError(t, e.store.Employees().Create(ctx, opener))

	tbl, err := e.tables.Create(ctx, dto.CreateTableRequest{Number: 3})
	require.NoError(t, err)
	tableID := mustID(t, tbl.ID)
	_, err = e.tables.Open(ctx, tableID, opener.ID, dto.OpenTableRequest{ResponsibleName: "Mesa do Rafa", ClientsCount: 2})
	require.NoError(t, err)

	o, err := e.orders.Create(ctx, e.waiter.ID, dto.CreateOrderRequest{SaleType: model.SaleTable, TableID: &tbl.ID})
	require.NoError(t, err)
	orderID := mustID(t, o.ID)
	linked, err := e.tables.LinkOrder(ctx, tableID, orderID)
	require.NoError(t, err)
	assert.Equal(t, "Mesa do Rafa", *linked.ResponsibleName, "link keeps the opening identity")

	_, err = e.orders.AddItem(ctx, orderID, e.fries.ID, 2)
	require.NoError(t, err)
	fin, err := e.orders.Finalize(ctx, orderID, "pix")
	require.NoError(t, err)

	assert.Equal(t, "Mesa do Rafa", fin.ResponsibleName)
	assert.Equal(t, "Rafael", fin.AttendantName)
	assert.Equal(t, opener.ID.String(), *fin.AttendantID)
	assert.Equal(t, "Rafael", fin.OpeningAttendantName)
}

func TestFinalize_TabNameIsResponsible(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	o, err := e.orders.Create(ctx, e.waiter.ID, dto.CreateOrderRequest{SaleType: model.SaleTab, TabName: strPtr("Comanda 12")})
	require.NoError(t, err)
	id := mustID(t, o.ID)
	_, err = e.orders.AddItem(ctx, id, e.beer.ID, 1)
	require.NoError(t, err)

	fin, err := e.orders.Finalize(ctx, id, "")
	require.NoError(t, err)
	assert.Equal(t, "Comanda 12", fin.ResponsibleName)
}

func TestFinalize_PlaceholderWhenEmployeeGone(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	ghost := uuid.New()
	o := &model.Order{
		Status:     model.OrderOpen,
		SaleType:   model.SaleCounter,
		EmployeeID: ghost,
		Items:      model.OrderItems{{ProductID: e.beer.ID, ProductName: "Chopp", Quantity: 1, UnitPrice: e.beer.Price}},
	}
	require.NoError(t, e.store.Orders().Create(ctx, o))

	fin, err := e.orders.Finalize(ctx, o.ID, "")
	require.NoError(t, err)
	assert.Equal(t, "Administrator", fin.AttendantName)
	assert.Equal(t, ghost.String(), *fin.AttendantID)
}

func TestFinalize_ConcurrentCallsOneWinner(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	id := e.newCounterOrder(t)
	_, err := e.orders.AddItem(ctx, id, e.beer.ID, 1)
	require.NoError(t, err)

	const n = 8
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = e.orders.Finalize(ctx, id, "cash")
		}(i)
	}
	wg.Wait()

	wins := 0
	for _, err := range errs {
		if err == nil {
			wins++
			continue
		}
		assert.True(t, apierror.Is(err, apierror.KindInvalidState))
	}
	assert.Equal(t, 1, wins)

	reg, err := e.registers.CurrentOpen(ctx)
	require.NoError(t, err)
	assert.Len(t, reg.SalesLog, 1)
}

// failingRegister always fails to register a sale.
type failingRegister struct{ CashRegisterService }

func (failingRegister) RegisterSale(context.Context, uuid.UUID, decimal.Decimal, string) (*dto.CashRegisterResponse, error) {
	return nil, errors.New("register unavailable")
}

func TestFinalize_RegisterFailureIsQueued(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	svc := NewOrderService(
		e.store.Orders(), e.store.Products(), e.store.Employees(), e.store.Tables(),
		e.tables, failingRegister{e.registers}, e.jobs,
		NewJoiner(e.store.Employees(), e.store.Tables()), "Administrator",
	)
	o, err := svc.Create(ctx, e.waiter.ID, dto.CreateOrderRequest{SaleType: model.SaleCounter})
	require.NoError(t, err)
	id := mustID(t, o.ID)
	_, err = svc.AddItem(ctx, id, e.beer.ID, 3)
	require.NoError(t, err)

	fin, err := svc.Finalize(ctx, id, "credito")
	require.NoError(t, err, "register failure does not fail finalize")
	assert.Equal(t, model.OrderFinalized, fin.Status)

	require.Len(t, e.jobs.sales, 1)
	assert.Equal(t, id, e.jobs.sales[0].OrderID)
	assert.Equal(t, model.PaymentCard, e.jobs.sales[0].Method)
	assert.Equal(t, "30.00", e.jobs.sales[0].Amount.StringFixed(2))
}

// ── Cancel ───────────────────────────────────────────────────────────────────

func TestCancel_ReleasesTableAndSkipsRegister(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	tbl, err := e.tables.Create(ctx, dto.CreateTableRequest{Number: 9})
	require.NoError(t, err)
	tableID := mustID(t, tbl.ID)
	o, err := e.orders.Create(ctx, e.waiter.ID, dto.CreateOrderRequest{SaleType: model.SaleTable, TableID: &tbl.ID})
	require.NoError(t, err)
	orderID := mustID(t, o.ID)
	_, err = e.tables.LinkOrder(ctx, tableID, orderID)
	require.NoError(t, err)

	canceled, err := e.orders.Cancel(ctx, orderID)
	require.NoError(t, err)
	assert.Equal(t, model.OrderCanceled, canceled.Status)
	assert.NotNil(t, canceled.CanceledAt)

	after, err := e.tables.Get(ctx, tableID)
	require.NoError(t, err)
	assert.Equal(t, model.TableFree, after.Status)

	_, err = e.registers.CurrentOpen(ctx)
	assert.True(t, apierror.Is(err, apierror.KindNotFound), "cancel never touches the register")

	_, err = e.orders.Cancel(ctx, orderID)
	assert.True(t, apierror.Is(err, apierror.KindInvalidState))
}

func TestListOrders(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	e.newCounterOrder(t)
	e.newCounterOrder(t)

	resp, err := e.orders.List(ctx, dto.OrderFilter{Status: model.OrderOpen})
	require.NoError(t, err)
	assert.EqualValues(t, 2, resp.Total)
	assert.Equal(t, 1, resp.Page)
	require.Len(t, resp.Data, 2)
	require.NotNil(t, resp.Data[0].Employee)
	assert.Equal(t, "Joana", resp.Data[0].Employee.Name)
}
