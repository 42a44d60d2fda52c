package service

import (
	"context"
	"sync"
	"testing"

	"github.com/reginaldo-miranda/barAppAdmin-sub000/internal/apierror"
	"github.com/reginaldo-miranda/barAppAdmin-sub000/internal/dto"
	"github.com/reginaldo-miranda/barAppAdmin-sub000/internal/model"
	"github.com/reginaldo-miranda/barAppAdmin-sub000/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterSale_AutoOpensRegister(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()

	reg, err := e.registers.RegisterSale(ctx, uuid.New(), decimal.RequireFromString("12.50"), "pix")
	require.NoError(t, err)
	assert.Equal(t, model.RegisterOpen, reg.Status)
	assert.True(t, reg.OpeningAmount.IsZero())
	assert.Equal(t, e.waiter.ID.String(), reg.OpenedBy)
	assert.Equal(t, "12.50", reg.TotalPix.StringFixed(2))
	assert.Equal(t, "12.50", reg.TotalSales.StringFixed(2))
}

func TestRegisterSale_IdempotentPerOrder(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	orderID := uuid.New()

	_, err := e.registers.RegisterSale(ctx, orderID, decimal.NewFromInt(10), "cash")
	require.NoError(t, err)
	reg, err := e.registers.RegisterSale(ctx, orderID, decimal.NewFromInt(10), "cash")
	require.NoError(t, err)
	assert.Len(t, reg.SalesLog, 1)
	assert.Equal(t, "10", reg.TotalCash.String())
}

func TestRegisterSale_RejectsNegativeAmount(t *testing.T) {
	e := newTestEnv(t)
	_, err := e.registers.RegisterSale(context.Background(), uuid.New(), decimal.NewFromInt(-1), "cash")
	assert.True(t, apierror.Is(err, apierror.KindValidation))
}

func TestRegisterSale_ConcurrentFirstSalesShareOneRegister(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()

	const n = 20
	var wg sync.WaitGroup
	ids := make(map[string]struct{})
	var idsMu sync.Mutex
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			reg, err := e.registers.RegisterSale(ctx, uuid.New(), decimal.NewFromInt(1), "card")
			if assert.NoError(t, err) {
				idsMu.Lock()
				ids[reg.ID] = struct{}{}
				idsMu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Len(t, ids, 1, "every sale landed on the same register")
	reg, err := e.registers.CurrentOpen(ctx)
	require.NoError(t, err)
	assert.Len(t, reg.SalesLog, n)
	assert.Equal(t, "20", reg.TotalCard.String())
}

func TestOpenRegister(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()

	_, err := e.registers.Open(ctx, e.waiter.ID, dto.OpenRegisterRequest{OpeningAmount: decimal.NewFromInt(-5)})
	assert.True(t, apierror.Is(err, apierror.KindValidation))

	_, err = e.registers.Open(ctx, uuid.New(), dto.OpenRegisterRequest{})
	assert.True(t, apierror.Is(err, apierror.KindValidation))

	reg, err := e.registers.Open(ctx, e.waiter.ID, dto.OpenRegisterRequest{OpeningAmount: decimal.NewFromInt(100)})
	require.NoError(t, err)
	assert.Equal(t, "100", reg.OpeningAmount.String())

	_, err = e.registers.Open(ctx, e.waiter.ID, dto.OpenRegisterRequest{})
	assert.True(t, apierror.Is(err, apierror.KindConflict))
}

func TestCloseRegister(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	opened, err := e.registers.Open(ctx, e.waiter.ID, dto.OpenRegisterRequest{OpeningAmount: decimal.NewFromInt(50)})
	require.NoError(t, err)
	id := mustID(t, opened.ID)
	_, err = e.registers.RegisterSale(ctx, uuid.New(), decimal.NewFromInt(30), "dinheiro")
	require.NoError(t, err)
	_, err = e.registers.RegisterSale(ctx, uuid.New(), decimal.NewFromInt(20), "cartão")
	require.NoError(t, err)

	closed, err := e.registers.Close(ctx, id, e.waiter.ID, dto.CloseRegisterRequest{
		ClosingAmount: decimal.NewFromInt(78),
		Note:          strPtr("faltaram 2"),
	})
	require.NoError(t, err)
	assert.Equal(t, model.RegisterClosed, closed.Status)
	assert.Equal(t, "faltaram 2", *closed.ClosingNote)
	require.Len(t, e.jobs.closings, 1)
	assert.Equal(t, id, e.jobs.closings[0])

	_, err = e.registers.Close(ctx, id, e.waiter.ID, dto.CloseRegisterRequest{})
	assert.True(t, apierror.Is(err, apierror.KindInvalidState))

	_, err = e.registers.Close(ctx, uuid.New(), e.waiter.ID, dto.CloseRegisterRequest{})
	assert.True(t, apierror.Is(err, apierror.KindNotFound))

	_, err = e.registers.CurrentOpen(ctx)
	assert.True(t, apierror.Is(err, apierror.KindNotFound))

	report, err := e.registers.Report(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "80", report.ExpectedCash.String())
	require.NotNil(t, report.Difference)
	assert.Equal(t, "-2", report.Difference.String())
	assert.Equal(t, 2, report.SalesCount)
}

// racingRegisters lets another writer update the register right before the
// first Update goes through.
type racingRegisters struct {
	repository.CashRegisterRepository
	once   sync.Once
	before func()
}

func (r *racingRegisters) Update(ctx context.Context, reg *model.CashRegister) error {
	r.once.Do(r.before)
	return r.CashRegisterRepository.Update(ctx, reg)
}

func TestCloseRegister_RetriesAfterConcurrentSale(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	opened, err := e.registers.Open(ctx, e.waiter.ID, dto.OpenRegisterRequest{OpeningAmount: decimal.NewFromInt(10)})
	require.NoError(t, err)
	id := mustID(t, opened.ID)

	store := e.store.CashRegisters()
	lateOrder := uuid.New()
	racing := &racingRegisters{
		CashRegisterRepository: store,
		before: func() {
			// Another replica appends a sale.
			reg, err := store.FindByID(ctx, id)
			require.NoError(t, err)
			reg.AppendSale(model.SaleEntry{OrderID: lateOrder, Amount: decimal.NewFromInt(5), PaymentMethod: model.PaymentCash})
			require.NoError(t, store.Update(ctx, reg))
		},
	}
	registers := NewCashRegisterService(racing, e.store.Employees(), e.defaults, e.jobs)

	closed, err := registers.Close(ctx, id, e.waiter.ID, dto.CloseRegisterRequest{ClosingAmount: decimal.NewFromInt(15)})
	require.NoError(t, err)
	assert.Equal(t, model.RegisterClosed, closed.Status)
	require.Len(t, closed.SalesLog, 1)
	assert.Equal(t, lateOrder.String(), closed.SalesLog[0].OrderID)

	report, err := registers.Report(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, report.Difference)
	assert.True(t, report.Difference.IsZero(), report.Difference.String())
}

func TestClosedRegisterIsNeverReused(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	first, err := e.registers.RegisterSale(ctx, uuid.New(), decimal.NewFromInt(1), "")
	require.NoError(t, err)
	_, err = e.registers.Close(ctx, mustID(t, first.ID), e.waiter.ID, dto.CloseRegisterRequest{})
	require.NoError(t, err)

	second, err := e.registers.RegisterSale(ctx, uuid.New(), decimal.NewFromInt(1), "")
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)
	assert.Len(t, second.SalesLog, 1)
}
