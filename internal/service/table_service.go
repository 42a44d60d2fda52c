package service

import (
	"context"
	"errors"
	"time"

	"github.com/reginaldo-miranda/barAppAdmin-sub000/internal/apierror"
	"github.com/reginaldo-miranda/barAppAdmin-sub000/internal/dto"
	"github.com/reginaldo-miranda/barAppAdmin-sub000/internal/metrics"
	"github.com/reginaldo-miranda/barAppAdmin-sub000/internal/model"
	"github.com/reginaldo-miranda/barAppAdmin-sub000/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

type TableService interface {
	Create(ctx context.Context, req dto.CreateTableRequest) (*dto.TableResponse, error)
	Get(ctx context.Context, id uuid.UUID) (*dto.TableResponse, error)
	List(ctx context.Context, status string) ([]dto.TableResponse, error)
	Open(ctx context.Context, id, employeeID uuid.UUID, req dto.OpenTableRequest) (*dto.TableResponse, error)
	LinkOrder(ctx context.Context, tableID, orderID uuid.UUID) (*dto.TableResponse, error)
	Release(ctx context.Context, tableID uuid.UUID) error
	ReleaseIfLinked(ctx context.Context, tableID, orderID uuid.UUID) (bool, error)
	Close(ctx context.Context, id uuid.UUID) (*dto.TableResponse, error)
	Update(ctx context.Context, id uuid.UUID, req dto.UpdateTableRequest) (*dto.TableResponse, error)
	StatusSummary(ctx context.Context) (*dto.TableSummaryResponse, error)
}

type tableService struct {
	tables    repository.TableRepository
	orders    repository.OrderRepository
	employees repository.EmployeeRepository
	locks     *keyedMutex
}

func NewTableService(
	tables repository.TableRepository,
	orders repository.OrderRepository,
	employees repository.EmployeeRepository,
) TableService {
	return &tableService{tables: tables, orders: orders, employees: employees, locks: newKeyedMutex()}
}

// maxWriteAttempts bounds reload-and-reapply cycles after a stale write.
const maxWriteAttempts = 3

// mutate loads the table under its lock, applies fn and persists the result.
// fn must only touch the table it is given; it is re-applied on a fresh copy
// when another writer got there first.
func (s *tableService) mutate(ctx context.Context, id uuid.UUID, fn func(t *model.Table) error) (*model.Table, error) {
	unlock := s.locks.Lock(id)
	defer unlock()

	var err error
	for attempt := 0; attempt < maxWriteAttempts; attempt++ {
		var t *model.Table
		t, err = s.tables.FindByID(ctx, id)
		if err != nil {
			return nil, storeErr(err, "table")
		}
		if err := fn(t); err != nil {
			return nil, err
		}
		if err = s.tables.Update(ctx, t); err == nil {
			return t, nil
		}
		if !errors.Is(err, repository.ErrStaleWrite) {
			break
		}
	}
	return nil, storeErr(err, "table")
}

// ── Create / read ────────────────────────────────────────────────────────────

func (s *tableService) Create(ctx context.Context, req dto.CreateTableRequest) (*dto.TableResponse, error) {
	if req.Number <= 0 {
		return nil, apierror.Validation("table number must be positive")
	}
	if req.Capacity < 0 {
		return nil, apierror.Validation("capacity cannot be negative")
	}
	kind := req.Kind
	if kind == "" {
		kind = model.TableIndoor
	}
	switch kind {
	case model.TableIndoor, model.TableOutdoor, model.TableCounter, model.TableVirtual:
	default:
		return nil, apierror.Validation("unknown table kind %q", kind)
	}

	if _, err := s.tables.FindByNumber(ctx, req.Number); err == nil {
		return nil, apierror.Conflict("table number %d already exists", req.Number)
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, storeErr(err, "table")
	}

	t := &model.Table{
		Number:   req.Number,
		Name:     req.Name,
		Kind:     kind,
		Status:   model.TableFree,
		Capacity: req.Capacity,
	}
	if err := s.tables.Create(ctx, t); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apierror.Conflict("table number %d already exists", req.Number)
		}
		return nil, storeErr(err, "table")
	}
	metrics.RecordOperation("table_create", nil)
	return tableToResponse(t), nil
}

func (s *tableService) Get(ctx context.Context, id uuid.UUID) (*dto.TableResponse, error) {
	t, err := s.tables.FindByID(ctx, id)
	if err != nil {
		return nil, storeErr(err, "table")
	}
	return tableToResponse(t), nil
}

func (s *tableService) List(ctx context.Context, status string) ([]dto.TableResponse, error) {
	tables, err := s.tables.List(ctx, status)
	if err != nil {
		return nil, storeErr(err, "tables")
	}
	out := make([]dto.TableResponse, 0, len(tables))
	for i := range tables {
		out = append(out, *tableToResponse(&tables[i]))
	}
	return out, nil
}

func (s *tableService) StatusSummary(ctx context.Context) (*dto.TableSummaryResponse, error) {
	counts, err := s.tables.CountByStatus(ctx)
	if err != nil {
		return nil, storeErr(err, "tables")
	}
	resp := &dto.TableSummaryResponse{
		Free:        counts[model.TableFree],
		Occupied:    counts[model.TableOccupied],
		Reserved:    counts[model.TableReserved],
		Maintenance: counts[model.TableMaintenance],
	}
	for _, n := range counts {
		resp.Total += n
	}
	return resp, nil
}

// ── Occupancy ────────────────────────────────────────────────────────────────

func (s *tableService) Open(ctx context.Context, id, employeeID uuid.UUID, req dto.OpenTableRequest) (*dto.TableResponse, error) {
	if employeeID == uuid.Nil {
		return nil, apierror.Validation("employee is required to open a table")
	}
	if req.ClientsCount < 0 {
		return nil, apierror.Validation("clients_count cannot be negative")
	}
	emp, err := s.employees.FindByID(ctx, employeeID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apierror.Validation("employee %s not found", employeeID)
		}
		return nil, storeErr(err, "employee")
	}

	t, err := s.mutate(ctx, id, func(t *model.Table) error {
		switch t.Status {
		case model.TableOccupied:
			return apierror.Conflict("table %d is already occupied", t.Number)
		case model.TableMaintenance:
			return apierror.InvalidState("table %d is under maintenance", t.Number)
		}
		name := req.ResponsibleName
		if name == "" {
			name = emp.Name
		}
		now := time.Now().UTC()
		t.Status = model.TableOccupied
		t.ResponsibleEmployeeID = &emp.ID
		t.ResponsibleName = &name
		t.ClientsCount = req.ClientsCount
		t.OpenedAt = &now
		return nil
	})
	metrics.RecordOperation("table_open", err)
	if err != nil {
		return nil, err
	}
	return tableToResponse(t), nil
}

func (s *tableService) LinkOrder(ctx context.Context, tableID, orderID uuid.UUID) (*dto.TableResponse, error) {
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, storeErr(err, "order")
	}
	if !order.IsOpen() {
		return nil, apierror.InvalidState("order %s is %s", orderID, order.Status)
	}

	t, err := s.mutate(ctx, tableID, func(t *model.Table) error {
		if t.Status == model.TableMaintenance {
			return apierror.InvalidState("table %d is under maintenance", t.Number)
		}
		if t.CurrentOrderID != nil && *t.CurrentOrderID != orderID {
			linked, err := s.orders.FindByID(ctx, *t.CurrentOrderID)
			if err == nil && linked.IsOpen() {
				return apierror.Conflict("table %d already has open order %s", t.Number, linked.ID)
			}
		}
		t.CurrentOrderID = &orderID
		t.Status = model.TableOccupied
		if t.ResponsibleEmployeeID == nil {
			empID := order.EmployeeID
			t.ResponsibleEmployeeID = &empID
		}
		if t.ResponsibleName == nil || *t.ResponsibleName == "" {
			if emp, err := s.employees.FindByID(ctx, *t.ResponsibleEmployeeID); err == nil {
				name := emp.Name
				t.ResponsibleName = &name
			}
		}
		if t.OpenedAt == nil {
			now := time.Now().UTC()
			t.OpenedAt = &now
		}
		return nil
	})
	metrics.RecordOperation("table_link_order", err)
	if err != nil {
		return nil, err
	}
	return tableToResponse(t), nil
}

func (s *tableService) Release(ctx context.Context, tableID uuid.UUID) error {
	_, err := s.mutate(ctx, tableID, func(t *model.Table) error {
		t.ResetOccupancy()
		return nil
	})
	metrics.RecordOperation("table_release", err)
	return err
}

// errNotLinked aborts a conditional release without writing.
var errNotLinked = errors.New("table no longer linked to order")

// ReleaseIfLinked frees the table only while it still points at orderID. The
// check runs under the table lock, so an order linked in the meantime keeps
// its table. It reports whether the table was released.
func (s *tableService) ReleaseIfLinked(ctx context.Context, tableID, orderID uuid.UUID) (bool, error) {
	_, err := s.mutate(ctx, tableID, func(t *model.Table) error {
		if t.CurrentOrderID == nil || *t.CurrentOrderID != orderID {
			return errNotLinked
		}
		t.ResetOccupancy()
		return nil
	})
	if errors.Is(err, errNotLinked) {
		return false, nil
	}
	metrics.RecordOperation("table_release", err)
	return err == nil, err
}

func (s *tableService) Close(ctx context.Context, id uuid.UUID) (*dto.TableResponse, error) {
	t, err := s.mutate(ctx, id, func(t *model.Table) error {
		if t.CurrentOrderID != nil {
			linked, err := s.orders.FindByID(ctx, *t.CurrentOrderID)
			if err == nil && linked.IsOpen() {
				return apierror.InvalidState("table %d has an open order; finalize or cancel it first", t.Number)
			}
			if err != nil && !errors.Is(err, repository.ErrNotFound) {
				return storeErr(err, "order")
			}
		}
		t.ResetOccupancy()
		return nil
	})
	metrics.RecordOperation("table_close", err)
	if err != nil {
		return nil, err
	}
	log.Info().Str("table_id", id.String()).Msg("table closed")
	return tableToResponse(t), nil
}

func (s *tableService) Update(ctx context.Context, id uuid.UUID, req dto.UpdateTableRequest) (*dto.TableResponse, error) {
	if req.Status != nil && *req.Status == model.TableOccupied {
		return nil, apierror.Validation("use the open operation to occupy a table")
	}
	if req.Capacity != nil && *req.Capacity < 0 {
		return nil, apierror.Validation("capacity cannot be negative")
	}

	t, err := s.mutate(ctx, id, func(t *model.Table) error {
		if req.Status != nil {
			switch *req.Status {
			case model.TableFree, model.TableReserved, model.TableMaintenance:
			default:
				return apierror.Validation("unknown table status %q", *req.Status)
			}
			if t.CurrentOrderID != nil {
				linked, err := s.orders.FindByID(ctx, *t.CurrentOrderID)
				if err == nil && linked.IsOpen() {
					return apierror.InvalidState("table %d has an open order", t.Number)
				}
			}
			t.ResetOccupancy()
			t.Status = *req.Status
		}
		if req.Capacity != nil {
			t.Capacity = *req.Capacity
		}
		if req.Name != nil {
			t.Name = req.Name
		}
		if req.Notes != nil {
			t.Notes = req.Notes
		}
		return nil
	})
	metrics.RecordOperation("table_update", err)
	if err != nil {
		return nil, err
	}
	return tableToResponse(t), nil
}
