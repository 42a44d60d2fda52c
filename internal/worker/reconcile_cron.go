package worker

// reconcile_cron.go
// Background goroutine that repairs what a crash between the independent
// writes of finalize can leave behind:
//   - finalized orders missing from every register's sales log are registered
//   - occupied tables whose linked order is no longer open are released
// Register writes go through a circuit breaker so a failing store is not
// hammered every tick.

import (
	"context"
	"errors"
	"time"

	"github.com/reginaldo-miranda/barAppAdmin-sub000/internal/infra"
	"github.com/reginaldo-miranda/barAppAdmin-sub000/internal/model"
	"github.com/reginaldo-miranda/barAppAdmin-sub000/internal/repository"
	"github.com/reginaldo-miranda/barAppAdmin-sub000/internal/service"

	"github.com/rs/zerolog/log"
)

// reconcileWindow bounds how far back finalized orders are checked.
const reconcileWindow = 24 * time.Hour

// ReconcilerConfig holds all dependencies for the reconcile goroutine.
type ReconcilerConfig struct {
	Orders    repository.OrderRepository
	Tables    repository.TableRepository
	Sales     SaleChecker
	Registers service.CashRegisterService
	TableOps  service.TableService
	CB        *infra.CircuitBreaker
	Interval  time.Duration
}

type Reconciler struct {
	cfg ReconcilerConfig
	now func() time.Time
}

func NewReconciler(cfg ReconcilerConfig) *Reconciler {
	if cfg.CB == nil {
		cfg.CB = infra.NewCircuitBreaker(infra.DefaultCBConfig("reconciler"))
	}
	return &Reconciler{cfg: cfg, now: time.Now}
}

// Start launches the ticker goroutine. A zero interval disables it.
// It respects the context for graceful shutdown.
func (r *Reconciler) Start(ctx context.Context) {
	if r.cfg.Interval <= 0 {
		log.Info().Msg("reconciler: disabled")
		return
	}
	go func() {
		ticker := time.NewTicker(r.cfg.Interval)
		defer ticker.Stop()

		log.Info().Dur("interval", r.cfg.Interval).Msg("reconciler: started")

		for {
			select {
			case <-ctx.Done():
				log.Info().Msg("reconciler: shutting down")
				return
			case <-ticker.C:
				r.ReconcileOnce(ctx)
			}
		}
	}()
}

// ReconcileResult counts the repairs made by one pass.
type ReconcileResult struct {
	SalesRegistered int
	TablesReleased  int
}

// ReconcileOnce runs a single pass.
func (r *Reconciler) ReconcileOnce(ctx context.Context) ReconcileResult {
	var res ReconcileResult
	res.SalesRegistered = r.registerMissingSales(ctx)
	res.TablesReleased = r.releaseStaleTables(ctx)
	if res.SalesRegistered > 0 || res.TablesReleased > 0 {
		log.Info().
			Int("sales_registered", res.SalesRegistered).
			Int("tables_released", res.TablesReleased).
			Msg("reconciler: pass repaired state")
	}
	return res
}

func (r *Reconciler) registerMissingSales(ctx context.Context) int {
	// If CB is open, skip entirely
	if r.cfg.CB.State() == infra.CBOpen {
		log.Debug().Msg("reconciler: circuit breaker is open, skipping sales")
		return 0
	}

	orders, err := r.cfg.Orders.ListFinalizedSince(ctx, r.now().Add(-reconcileWindow))
	if err != nil {
		log.Error().Err(err).Msg("reconciler: failed to list finalized orders")
		return 0
	}

	registered := 0
	for i := range orders {
		o := &orders[i]
		done, err := r.cfg.Sales.HasSale(ctx, o.ID)
		if err != nil {
			log.Error().Err(err).Str("order_id", o.ID.String()).Msg("reconciler: failed to check sales log")
			continue
		}
		if done {
			continue
		}

		// Check CB state before each call, it may have tripped mid-batch
		if r.cfg.CB.State() == infra.CBOpen {
			log.Debug().Msg("reconciler: circuit breaker opened mid-batch, stopping")
			return registered
		}
		err = r.cfg.CB.Execute(func() error {
			_, err := r.cfg.Registers.RegisterSale(ctx, o.ID, o.Total, o.PaymentMethod)
			return err
		})
		if err != nil {
			log.Warn().Err(err).Str("order_id", o.ID.String()).Msg("reconciler: register sale failed")
			continue
		}
		registered++
		log.Info().Str("order_id", o.ID.String()).Str("amount", o.Total.StringFixed(2)).Msg("reconciler: missing sale registered")
	}
	return registered
}

func (r *Reconciler) releaseStaleTables(ctx context.Context) int {
	tables, err := r.cfg.Tables.List(ctx, model.TableOccupied)
	if err != nil {
		log.Error().Err(err).Msg("reconciler: failed to list occupied tables")
		return 0
	}

	released := 0
	for i := range tables {
		t := &tables[i]
		if t.CurrentOrderID == nil {
			// Opened by hand and waiting for its first order.
			continue
		}
		o, err := r.cfg.Orders.FindByID(ctx, *t.CurrentOrderID)
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			log.Error().Err(err).Str("table_id", t.ID.String()).Msg("reconciler: failed to load linked order")
			continue
		}
		if err == nil && o.IsOpen() {
			continue
		}
		// The table may have been relinked since it was listed.
		ok, err := r.cfg.TableOps.ReleaseIfLinked(ctx, t.ID, *t.CurrentOrderID)
		if err != nil {
			log.Warn().Err(err).Str("table_id", t.ID.String()).Msg("reconciler: release failed")
			continue
		}
		if !ok {
			continue
		}
		released++
		log.Info().Str("table_id", t.ID.String()).Int("number", t.Number).Msg("reconciler: stale table released")
	}
	return released
}
