package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/reginaldo-miranda/barAppAdmin-sub000/internal/apierror"
	"github.com/reginaldo-miranda/barAppAdmin-sub000/internal/dto"
	"github.com/reginaldo-miranda/barAppAdmin-sub000/internal/metrics"
	"github.com/reginaldo-miranda/barAppAdmin-sub000/internal/model"
	"github.com/reginaldo-miranda/barAppAdmin-sub000/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

type OrderService interface {
	Create(ctx context.Context, employeeID uuid.UUID, req dto.CreateOrderRequest) (*dto.OrderResponse, error)
	Get(ctx context.Context, id uuid.UUID) (*dto.OrderResponse, error)
	List(ctx context.Context, filter dto.OrderFilter) (*dto.OrderListResponse, error)
	AddItem(ctx context.Context, id, productID uuid.UUID, quantity int) (*dto.OrderResponse, error)
	RemoveItem(ctx context.Context, id, productID uuid.UUID) (*dto.OrderResponse, error)
	UpdateItemQuantity(ctx context.Context, id, productID uuid.UUID, quantity int) (*dto.OrderResponse, error)
	ApplyDiscount(ctx context.Context, id uuid.UUID, amount decimal.Decimal) (*dto.OrderResponse, error)
	Cancel(ctx context.Context, id uuid.UUID) (*dto.OrderResponse, error)
	Finalize(ctx context.Context, id uuid.UUID, paymentHint string) (*dto.OrderResponse, error)
}

type orderService struct {
	orders      repository.OrderRepository
	products    repository.ProductRepository
	employees   repository.EmployeeRepository
	tableRepo   repository.TableRepository
	tables      TableService
	registers   CashRegisterService
	jobs        JobQueue
	joiner      *Joiner
	placeholder string
	locks       *keyedMutex
}

func NewOrderService(
	orders repository.OrderRepository,
	products repository.ProductRepository,
	employees repository.EmployeeRepository,
	tableRepo repository.TableRepository,
	tables TableService,
	registers CashRegisterService,
	jobs JobQueue,
	joiner *Joiner,
	attendantPlaceholder string,
) OrderService {
	if attendantPlaceholder == "" {
		attendantPlaceholder = "Administrator"
	}
	return &orderService{
		orders:      orders,
		products:    products,
		employees:   employees,
		tableRepo:   tableRepo,
		tables:      tables,
		registers:   registers,
		jobs:        jobs,
		joiner:      joiner,
		placeholder: attendantPlaceholder,
		locks:       newKeyedMutex(),
	}
}

// mutate applies fn to an open order under its lock, recomputes totals and
// persists. fn is re-applied on a fresh copy after a stale write.
func (s *orderService) mutate(ctx context.Context, id uuid.UUID, fn func(o *model.Order) error) (*model.Order, error) {
	unlock := s.locks.Lock(id)
	defer unlock()

	var err error
	for attempt := 0; attempt < maxWriteAttempts; attempt++ {
		var o *model.Order
		o, err = s.orders.FindByID(ctx, id)
		if err != nil {
			return nil, storeErr(err, "order")
		}
		if !o.IsOpen() {
			return nil, apierror.InvalidState("order %s is %s", id, o.Status)
		}
		if err := fn(o); err != nil {
			return nil, err
		}
		o.Recalculate()
		if err = s.orders.Update(ctx, o); err == nil {
			return o, nil
		}
		if !errors.Is(err, repository.ErrStaleWrite) {
			break
		}
	}
	return nil, storeErr(err, "order")
}

// ── Create / read ────────────────────────────────────────────────────────────

func (s *orderService) Create(ctx context.Context, employeeID uuid.UUID, req dto.CreateOrderRequest) (*dto.OrderResponse, error) {
	if employeeID == uuid.Nil {
		return nil, apierror.Validation("employee is required")
	}
	switch req.SaleType {
	case model.SaleCounter, model.SaleTable, model.SaleTab:
	default:
		return nil, apierror.Validation("unknown sale type %q", req.SaleType)
	}
	if req.SaleType == model.SaleTab && (req.TabName == nil || strings.TrimSpace(*req.TabName) == "") {
		return nil, apierror.Validation("tab orders require a tab name")
	}
	if _, err := s.employees.FindByID(ctx, employeeID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apierror.Validation("employee %s not found", employeeID)
		}
		return nil, storeErr(err, "employee")
	}

	o := &model.Order{
		Status:     model.OrderOpen,
		SaleType:   req.SaleType,
		Items:      model.OrderItems{},
		EmployeeID: employeeID,
		Notes:      req.Notes,
	}
	if req.TabName != nil {
		name := strings.TrimSpace(*req.TabName)
		o.TabName = &name
	}
	if req.TableID != nil && *req.TableID != "" {
		tid, err := uuid.Parse(*req.TableID)
		if err != nil {
			return nil, apierror.Validation("invalid table_id")
		}
		if _, err := s.tableRepo.FindByID(ctx, tid); err != nil {
			return nil, storeErr(err, "table")
		}
		o.TableID = &tid
	}
	if req.CustomerID != nil && *req.CustomerID != "" {
		cid, err := uuid.Parse(*req.CustomerID)
		if err != nil {
			return nil, apierror.Validation("invalid customer_id")
		}
		o.CustomerID = &cid
	}
	if req.TotalHint != nil {
		log.Debug().Str("hint", req.TotalHint.String()).Msg("order total hint ignored; totals are computed from items")
	}
	o.Recalculate()

	err := s.orders.Create(ctx, o)
	metrics.RecordOperation("order_create", err)
	if err != nil {
		return nil, storeErr(err, "order")
	}
	log.Info().Str("order_id", o.ID.String()).Str("sale_type", o.SaleType).Msg("order created")
	return s.joiner.Order(ctx, o), nil
}

func (s *orderService) Get(ctx context.Context, id uuid.UUID) (*dto.OrderResponse, error) {
	o, err := s.orders.FindByID(ctx, id)
	if err != nil {
		return nil, storeErr(err, "order")
	}
	return s.joiner.Order(ctx, o), nil
}

func (s *orderService) List(ctx context.Context, filter dto.OrderFilter) (*dto.OrderListResponse, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = 50
	}
	orders, total, err := s.orders.List(ctx, filter)
	if err != nil {
		return nil, storeErr(err, "orders")
	}
	return &dto.OrderListResponse{
		Data:  s.joiner.Orders(ctx, orders),
		Total: total,
		Page:  filter.Page,
		Limit: filter.Limit,
	}, nil
}

// ── Items and discount ───────────────────────────────────────────────────────

func (s *orderService) AddItem(ctx context.Context, id, productID uuid.UUID, quantity int) (*dto.OrderResponse, error) {
	if quantity <= 0 {
		return nil, apierror.Validation("quantity must be greater than zero")
	}
	o, err := s.mutate(ctx, id, func(o *model.Order) error {
		p, err := s.products.FindByID(ctx, productID)
		if err != nil {
			return storeErr(err, "product")
		}
		if !p.Active {
			return apierror.Validation("product %s is inactive", p.Name)
		}
		// An existing line keeps its price snapshot.
		if i := o.FindItem(productID); i >= 0 {
			o.Items[i].Quantity += quantity
			return nil
		}
		o.Items = append(o.Items, model.OrderItem{
			ProductID:   p.ID,
			ProductName: p.Name,
			Quantity:    quantity,
			UnitPrice:   p.Price,
		})
		return nil
	})
	metrics.RecordOperation("order_add_item", err)
	if err != nil {
		return nil, err
	}
	return s.joiner.Order(ctx, o), nil
}

func (s *orderService) RemoveItem(ctx context.Context, id, productID uuid.UUID) (*dto.OrderResponse, error) {
	o, err := s.mutate(ctx, id, func(o *model.Order) error {
		i := o.FindItem(productID)
		if i < 0 {
			return apierror.NotFound("order has no item for product %s", productID)
		}
		o.Items = append(o.Items[:i], o.Items[i+1:]...)
		return nil
	})
	metrics.RecordOperation("order_remove_item", err)
	if err != nil {
		return nil, err
	}
	return s.joiner.Order(ctx, o), nil
}

func (s *orderService) UpdateItemQuantity(ctx context.Context, id, productID uuid.UUID, quantity int) (*dto.OrderResponse, error) {
	if quantity <= 0 {
		return nil, apierror.Validation("quantity must be greater than zero; remove the item instead")
	}
	o, err := s.mutate(ctx, id, func(o *model.Order) error {
		i := o.FindItem(productID)
		if i < 0 {
			return apierror.NotFound("order has no item for product %s", productID)
		}
		o.Items[i].Quantity = quantity
		return nil
	})
	metrics.RecordOperation("order_update_item", err)
	if err != nil {
		return nil, err
	}
	return s.joiner.Order(ctx, o), nil
}

func (s *orderService) ApplyDiscount(ctx context.Context, id uuid.UUID, amount decimal.Decimal) (*dto.OrderResponse, error) {
	if amount.IsNegative() {
		return nil, apierror.Validation("discount cannot be negative")
	}
	o, err := s.mutate(ctx, id, func(o *model.Order) error {
		o.Discount = amount
		return nil
	})
	metrics.RecordOperation("order_discount", err)
	if err != nil {
		return nil, err
	}
	return s.joiner.Order(ctx, o), nil
}

// ── Cancel ───────────────────────────────────────────────────────────────────

func (s *orderService) Cancel(ctx context.Context, id uuid.UUID) (*dto.OrderResponse, error) {
	o, err := s.mutate(ctx, id, func(o *model.Order) error {
		now := time.Now().UTC()
		o.Status = model.OrderCanceled
		o.CanceledAt = &now
		return nil
	})
	metrics.RecordOperation("order_cancel", err)
	if err != nil {
		return nil, err
	}
	log.Info().Str("order_id", id.String()).Msg("order canceled")

	if o.TableID != nil {
		s.releaseIfLinked(context.WithoutCancel(ctx), *o.TableID, o.ID)
	}
	return s.joiner.Order(ctx, o), nil
}

// releaseIfLinked frees the table only while it still points at orderID.
func (s *orderService) releaseIfLinked(ctx context.Context, tableID, orderID uuid.UUID) {
	if _, err := s.tables.ReleaseIfLinked(ctx, tableID, orderID); err != nil {
		log.Error().Err(err).Str("table_id", tableID.String()).Str("order_id", orderID.String()).Msg("table release failed")
	}
}

// ── Finalize ─────────────────────────────────────────────────────────────────
// 1. require open with items
// 2. resolve payment method (hint, then stored value, default cash)
// 3. recompute totals
// 4-5. snapshot responsible and attendant names
// 6. persist as finalized
// 7. register the sale (failure is logged and queued for repair)
// 8. release the linked table (failure is logged)
// Steps 6-8 are independent writes.

func (s *orderService) Finalize(ctx context.Context, id uuid.UUID, paymentHint string) (*dto.OrderResponse, error) {
	o, err := s.finalizeOrder(ctx, id, paymentHint)
	metrics.RecordOperation("order_finalize", err)
	if err != nil {
		return nil, err
	}
	log.Info().
		Str("order_id", o.ID.String()).
		Str("total", o.Total.StringFixed(2)).
		Str("method", o.PaymentMethod).
		Msg("order finalized")

	// The order is committed; follow-up writes must not be cut short by the
	// client going away.
	follow := context.WithoutCancel(ctx)

	if _, err := s.registers.RegisterSale(follow, o.ID, o.Total, o.PaymentMethod); err != nil {
		log.Error().Err(err).Str("order_id", o.ID.String()).Msg("finalize: register sale failed")
		if s.jobs != nil {
			if qerr := s.jobs.EnqueueRegisterSale(follow, o.ID, o.Total, o.PaymentMethod); qerr != nil {
				log.Error().Err(qerr).Str("order_id", o.ID.String()).Msg("finalize: could not enqueue register repair")
			}
		}
	}

	if o.TableID != nil {
		s.releaseIfLinked(follow, *o.TableID, o.ID)
	}

	return s.joiner.Order(ctx, o), nil
}

func (s *orderService) finalizeOrder(ctx context.Context, id uuid.UUID, paymentHint string) (*model.Order, error) {
	unlock := s.locks.Lock(id)
	defer unlock()

	var err error
	for attempt := 0; attempt < maxWriteAttempts; attempt++ {
		var o *model.Order
		o, err = s.orders.FindByID(ctx, id)
		if err != nil {
			return nil, storeErr(err, "order")
		}
		if !o.IsOpen() {
			return nil, apierror.InvalidState("order %s is already %s", id, o.Status)
		}
		if len(o.Items) == 0 {
			return nil, apierror.InvalidState("cannot finalize an order without items")
		}

		o.PaymentMethod = resolvePaymentMethod(paymentHint, o.PaymentMethod)
		o.Recalculate()

		var table *model.Table
		if o.TableID != nil {
			// Only the table's own order takes its responsible and attendant.
			if t, terr := s.tableRepo.FindByID(ctx, *o.TableID); terr == nil {
				if t.CurrentOrderID != nil && *t.CurrentOrderID == o.ID {
					table = t
				}
			} else {
				log.Warn().Err(terr).Str("table_id", o.TableID.String()).Msg("finalize: linked table not loaded")
			}
		}
		o.ResponsibleName = responsibleName(o, table)
		s.snapshotAttendant(ctx, o, table)

		now := time.Now().UTC()
		o.Status = model.OrderFinalized
		o.FinalizedAt = &now

		if err = s.orders.Update(ctx, o); err == nil {
			return o, nil
		}
		if !errors.Is(err, repository.ErrStaleWrite) {
			break
		}
	}
	return nil, storeErr(err, "order")
}

// responsibleName picks the table's responsible, then the tab name, then
// whatever the order already carried.
func responsibleName(o *model.Order, table *model.Table) string {
	if table != nil && table.ResponsibleName != nil && strings.TrimSpace(*table.ResponsibleName) != "" {
		return *table.ResponsibleName
	}
	if o.TabName != nil && strings.TrimSpace(*o.TabName) != "" {
		return *o.TabName
	}
	return o.ResponsibleName
}

// snapshotAttendant copies who served the order. The table's responsible
// employee wins over the order's employee; the opening attendant is only set
// once.
func (s *orderService) snapshotAttendant(ctx context.Context, o *model.Order, table *model.Table) {
	if table != nil && table.ResponsibleEmployeeID != nil {
		id := *table.ResponsibleEmployeeID
		name := ""
		if e, err := s.employees.FindByID(ctx, id); err == nil {
			name = e.Name
		} else if table.ResponsibleName != nil {
			name = *table.ResponsibleName
		}
		if name != "" {
			setAttendant(o, id, name)
			return
		}
	}

	id := o.EmployeeID
	name := ""
	if e, err := s.employees.FindByID(ctx, id); err == nil {
		name = e.Name
	}
	if name == "" {
		name = s.placeholder
	}
	setAttendant(o, id, name)
}

func setAttendant(o *model.Order, id uuid.UUID, name string) {
	o.AttendantID = &id
	o.AttendantName = name
	if o.OpeningAttendantID == nil {
		openID := id
		o.OpeningAttendantID = &openID
		o.OpeningAttendantName = name
	}
}
