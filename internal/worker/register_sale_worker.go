package worker

// register_sale_worker.go
// Retries the cash-register write of a finalized order when it failed inline.
// RegisterSale is idempotent per register; the worker additionally checks
// every register's log so a sale recorded before a close is not repeated.

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/reginaldo-miranda/barAppAdmin-sub000/internal/repository"
	"github.com/reginaldo-miranda/barAppAdmin-sub000/internal/service"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// SaleChecker reports whether an order already appears in any sales log.
type SaleChecker interface {
	HasSale(ctx context.Context, orderID uuid.UUID) (bool, error)
}

type RegisterSaleWorker struct {
	registers service.CashRegisterService
	sales     SaleChecker
	orders    repository.OrderRepository
}

func NewRegisterSaleWorker(registers service.CashRegisterService, sales SaleChecker, orders repository.OrderRepository) *RegisterSaleWorker {
	return &RegisterSaleWorker{registers: registers, sales: sales, orders: orders}
}

func (w *RegisterSaleWorker) Process(ctx context.Context, raw json.RawMessage) error {
	var payload RegisterSalePayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		log.Error().Err(err).Msg("register_sale_worker: invalid payload")
		return nil
	}
	orderID, err := uuid.Parse(payload.OrderID)
	if err != nil {
		log.Error().Str("order_id", payload.OrderID).Msg("register_sale_worker: invalid order_id")
		return nil
	}

	// The order is the source of truth for amount and method when it is
	// still readable.
	amount, method := payload.Amount, payload.PaymentMethod
	if w.orders != nil {
		if o, err := w.orders.FindByID(ctx, orderID); err == nil {
			amount = o.Total
			if o.PaymentMethod != "" {
				method = o.PaymentMethod
			}
		}
	}

	done, err := w.sales.HasSale(ctx, orderID)
	if err != nil {
		return fmt.Errorf("check sales log: %w", err)
	}
	if done {
		log.Info().Str("order_id", payload.OrderID).Msg("register_sale_worker: sale already registered")
		return nil
	}

	if _, err := w.registers.RegisterSale(ctx, orderID, amount, method); err != nil {
		return fmt.Errorf("register sale %s: %w", orderID, err)
	}
	log.Info().Str("order_id", payload.OrderID).Str("amount", amount.StringFixed(2)).Msg("register_sale_worker: sale registered")
	return nil
}
