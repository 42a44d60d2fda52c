package service

import (
	"context"
	"testing"

	"github.com/reginaldo-miranda/barAppAdmin-sub000/internal/apierror"
	"github.com/reginaldo-miranda/barAppAdmin-sub000/internal/dto"
	"github.com/reginaldo-miranda/barAppAdmin-sub000/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (e *testEnv) newTable(t *testing.T, number int) uuid.UUID {
	t.Helper()
	tbl, err := e.tables.Create(context.Background(), dto.CreateTableRequest{Number: number, Capacity: 4})
	require.NoError(t, err)
	return mustID(t, tbl.ID)
}

func TestCreateTable(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()

	tbl, err := e.tables.Create(ctx, dto.CreateTableRequest{Number: 1, Capacity: 2})
	require.NoError(t, err)
	assert.Equal(t, model.TableFree, tbl.Status)
	assert.Equal(t, model.TableIndoor, tbl.Kind)

	_, err = e.tables.Create(ctx, dto.CreateTableRequest{Number: 1})
	assert.True(t, apierror.Is(err, apierror.KindConflict))

	_, err = e.tables.Create(ctx, dto.CreateTableRequest{Number: 0})
	assert.True(t, apierror.Is(err, apierror.KindValidation))

	_, err = e.tables.Create(ctx, dto.CreateTableRequest{Number: 2, Kind: "rooftop"})
	assert.True(t, apierror.Is(err, apierror.KindValidation))
}

func TestOpenTable(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	id := e.newTable(t, 5)

	_, err := e.tables.Open(ctx, id, uuid.Nil, dto.OpenTableRequest{})
	assert.True(t, apierror.Is(err, apierror.KindValidation))

	tbl, err := e.tables.Open(ctx, id, e.waiter.ID, dto.OpenTableRequest{ClientsCount: 3})
	require.NoError(t, err)
	assert.Equal(t, model.TableOccupied, tbl.Status)
	assert.Equal(t, "Joana", *tbl.ResponsibleName, "defaults to the employee name")
	assert.Equal(t, 3, tbl.ClientsCount)
	assert.NotNil(t, tbl.OpenedAt)

	_, err = e.tables.Open(ctx, id, e.waiter.ID, dto.OpenTableRequest{})
	assert.True(t, apierror.Is(err, apierror.KindConflict))
}

func TestOpenTable_Maintenance(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	id := e.newTable(t, 6)
	status := model.TableMaintenance
	_, err := e.tables.Update(ctx, id, dto.UpdateTableRequest{Status: &status})
	require.NoError(t, err)

	_, err = e.tables.Open(ctx, id, e.waiter.ID, dto.OpenTableRequest{})
	assert.True(t, apierror.Is(err, apierror.KindInvalidState))
}

func TestLinkOrder_ConflictWithOtherOpenOrder(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	tableID := e.newTable(t, 8)
	first := e.newCounterOrder(t)
	second := e.newCounterOrder(t)

	_, err := e.tables.LinkOrder(ctx, tableID, first)
	require.NoError(t, err)
	_, err = e.tables.LinkOrder(ctx, tableID, first)
	require.NoError(t, err, "relinking the same order is allowed")

	_, err = e.tables.LinkOrder(ctx, tableID, second)
	assert.True(t, apierror.Is(err, apierror.KindConflict))

	_, err = e.orders.Cancel(ctx, first)
	require.NoError(t, err)
	tbl, err := e.tables.LinkOrder(ctx, tableID, second)
	require.NoError(t, err)
	assert.Equal(t, second.String(), *tbl.CurrentOrderID)
}

func TestCloseTable(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	tableID := e.newTable(t, 10)
	orderID := e.newCounterOrder(t)
	_, err := e.tables.LinkOrder(ctx, tableID, orderID)
	require.NoError(t, err)

	_, err = e.tables.Close(ctx, tableID)
	assert.True(t, apierror.Is(err, apierror.KindInvalidState))

	_, err = e.orders.AddItem(ctx, orderID, e.beer.ID, 1)
	require.NoError(t, err)
	_, err = e.orders.Finalize(ctx, orderID, "")
	require.NoError(t, err)

	tbl, err := e.tables.Close(ctx, tableID)
	require.NoError(t, err)
	assert.Equal(t, model.TableFree, tbl.Status)
}

func TestReleaseIfLinked_OnlyFreesItsOwnOrder(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	tableID := e.newTable(t, 12)
	linked := e.newCounterOrder(t)
	other := e.newCounterOrder(t)
	_, err := e.tables.LinkOrder(ctx, tableID, linked)
	require.NoError(t, err)

	released, err := e.tables.ReleaseIfLinked(ctx, tableID, other)
	require.NoError(t, err)
	assert.False(t, released)
	tbl, err := e.tables.Get(ctx, tableID)
	require.NoError(t, err)
	assert.Equal(t, model.TableOccupied, tbl.Status)
	assert.Equal(t, linked.String(), *tbl.CurrentOrderID)

	released, err = e.tables.ReleaseIfLinked(ctx, tableID, linked)
	require.NoError(t, err)
	assert.True(t, released)
	tbl, err = e.tables.Get(ctx, tableID)
	require.NoError(t, err)
	assert.Equal(t, model.TableFree, tbl.Status)
	assert.Nil(t, tbl.CurrentOrderID)
}

func TestReleaseIsIdempotent(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	id := e.newTable(t, 11)
	_, err := e.tables.Open(ctx, id, e.waiter.ID, dto.OpenTableRequest{ClientsCount: 2})
	require.NoError(t, err)

	require.NoError(t, e.tables.Release(ctx, id))
	require.NoError(t, e.tables.Release(ctx, id))

	tbl, err := e.tables.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, model.TableFree, tbl.Status)
	assert.Nil(t, tbl.ResponsibleID)
}

func TestUpdateTable(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	id := e.newTable(t, 12)

	occupied := model.TableOccupied
	_, err := e.tables.Update(ctx, id, dto.UpdateTableRequest{Status: &occupied})
	assert.True(t, apierror.Is(err, apierror.KindValidation))

	orderID := e.newCounterOrder(t)
	_, err = e.tables.LinkOrder(ctx, id, orderID)
	require.NoError(t, err)
	reserved := model.TableReserved
	_, err = e.tables.Update(ctx, id, dto.UpdateTableRequest{Status: &reserved})
	assert.True(t, apierror.Is(err, apierror.KindInvalidState))

	capacity := 8
	tbl, err := e.tables.Update(ctx, id, dto.UpdateTableRequest{Capacity: &capacity, Notes: strPtr("perto da janela")})
	require.NoError(t, err)
	assert.Equal(t, 8, tbl.Capacity)
	assert.Equal(t, model.TableOccupied, tbl.Status)
}

func TestStatusSummary(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	a := e.newTable(t, 1)
	e.newTable(t, 2)
	c := e.newTable(t, 3)
	_, err := e.tables.Open(ctx, a, e.waiter.ID, dto.OpenTableRequest{})
	require.NoError(t, err)
	maintenance := model.TableMaintenance
	_, err = e.tables.Update(ctx, c, dto.UpdateTableRequest{Status: &maintenance})
	require.NoError(t, err)

	sum, err := e.tables.StatusSummary(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, sum.Free)
	assert.EqualValues(t, 1, sum.Occupied)
	assert.EqualValues(t, 1, sum.Maintenance)
	assert.EqualValues(t, 0, sum.Reserved)
	assert.EqualValues(t, 3, sum.Total)
}
