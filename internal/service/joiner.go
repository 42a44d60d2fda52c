package service

import (
	"context"
	"time"

	"github.com/reginaldo-miranda/barAppAdmin-sub000/internal/dto"
	"github.com/reginaldo-miranda/barAppAdmin-sub000/internal/model"
	"github.com/reginaldo-miranda/barAppAdmin-sub000/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Joiner loads the employee and table referenced by orders and assembles the
// response DTOs. Missing references leave the joined field nil.
type Joiner struct {
	employees repository.EmployeeRepository
	tables    repository.TableRepository
}

func NewJoiner(employees repository.EmployeeRepository, tables repository.TableRepository) *Joiner {
	return &Joiner{employees: employees, tables: tables}
}

// Order joins a single order.
func (j *Joiner) Order(ctx context.Context, o *model.Order) *dto.OrderResponse {
	return j.join(ctx, o, map[uuid.UUID]*dto.EmployeeRef{}, map[uuid.UUID]*dto.TableRef{})
}

// Orders joins a page of orders, loading each referenced record once.
func (j *Joiner) Orders(ctx context.Context, orders []model.Order) []dto.OrderResponse {
	emps := map[uuid.UUID]*dto.EmployeeRef{}
	tbls := map[uuid.UUID]*dto.TableRef{}
	out := make([]dto.OrderResponse, 0, len(orders))
	for i := range orders {
		out = append(out, *j.join(ctx, &orders[i], emps, tbls))
	}
	return out
}

func (j *Joiner) join(ctx context.Context, o *model.Order, emps map[uuid.UUID]*dto.EmployeeRef, tbls map[uuid.UUID]*dto.TableRef) *dto.OrderResponse {
	resp := orderToResponse(o)

	emp, seen := emps[o.EmployeeID]
	if !seen {
		if e, err := j.employees.FindByID(ctx, o.EmployeeID); err == nil {
			emp = &dto.EmployeeRef{ID: e.ID.String(), Name: e.Name}
		} else {
			log.Debug().Err(err).Str("employee_id", o.EmployeeID.String()).Msg("joiner: employee not loaded")
		}
		emps[o.EmployeeID] = emp
	}
	resp.Employee = emp

	if o.TableID != nil {
		tbl, seen := tbls[*o.TableID]
		if !seen {
			if t, err := j.tables.FindByID(ctx, *o.TableID); err == nil {
				tbl = &dto.TableRef{ID: t.ID.String(), Number: t.Number, Name: t.Name}
			} else {
				log.Debug().Err(err).Str("table_id", o.TableID.String()).Msg("joiner: table not loaded")
			}
			tbls[*o.TableID] = tbl
		}
		resp.Table = tbl
	}
	return resp
}

// ── Mapping ──────────────────────────────────────────────────────────────────

func orderToResponse(o *model.Order) *dto.OrderResponse {
	items := make([]dto.OrderItemResponse, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, dto.OrderItemResponse{
			ProductID:   it.ProductID.String(),
			ProductName: it.ProductName,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
			Subtotal:    it.Subtotal,
		})
	}
	return &dto.OrderResponse{
		ID:                   o.ID.String(),
		Status:               o.Status,
		SaleType:             o.SaleType,
		Items:                items,
		Subtotal:             o.Subtotal,
		Discount:             o.Discount,
		Total:                o.Total,
		PaymentMethod:        o.PaymentMethod,
		TableID:              idString(o.TableID),
		CustomerID:           idString(o.CustomerID),
		EmployeeID:           o.EmployeeID.String(),
		TabName:              o.TabName,
		Notes:                o.Notes,
		ResponsibleName:      o.ResponsibleName,
		AttendantName:        o.AttendantName,
		AttendantID:          idString(o.AttendantID),
		OpeningAttendantName: o.OpeningAttendantName,
		OpeningAttendantID:   idString(o.OpeningAttendantID),
		CreatedAt:            o.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:            o.UpdatedAt.UTC().Format(time.RFC3339),
		FinalizedAt:          timeString(o.FinalizedAt),
		CanceledAt:           timeString(o.CanceledAt),
	}
}

func tableToResponse(t *model.Table) *dto.TableResponse {
	return &dto.TableResponse{
		ID:              t.ID.String(),
		Number:          t.Number,
		Name:            t.Name,
		Kind:            t.Kind,
		Status:          t.Status,
		Capacity:        t.Capacity,
		CurrentOrderID:  idString(t.CurrentOrderID),
		ResponsibleID:   idString(t.ResponsibleEmployeeID),
		ResponsibleName: t.ResponsibleName,
		ClientsCount:    t.ClientsCount,
		OpenedAt:        timeString(t.OpenedAt),
		Notes:           t.Notes,
	}
}

func registerToResponse(r *model.CashRegister) *dto.CashRegisterResponse {
	entries := make([]dto.SaleEntryResponse, 0, len(r.SalesLog))
	for _, e := range r.SalesLog {
		entries = append(entries, dto.SaleEntryResponse{
			OrderID:       e.OrderID.String(),
			Amount:        e.Amount,
			PaymentMethod: e.PaymentMethod,
			Timestamp:     e.Timestamp.UTC().Format(time.RFC3339),
		})
	}
	return &dto.CashRegisterResponse{
		ID:            r.ID.String(),
		Status:        r.Status,
		OpenedBy:      r.OpenedBy.String(),
		OpenedAt:      r.OpenedAt.UTC().Format(time.RFC3339),
		ClosedBy:      idString(r.ClosedBy),
		ClosedAt:      timeString(r.ClosedAt),
		OpeningAmount: r.OpeningAmount,
		ClosingAmount: r.ClosingAmount,
		ClosingNote:   r.ClosingNote,
		TotalSales:    r.TotalSales,
		TotalCash:     r.TotalCash,
		TotalCard:     r.TotalCard,
		TotalPix:      r.TotalPix,
		SalesLog:      entries,
	}
}

func idString(id *uuid.UUID) *string {
	if id == nil {
		return nil
	}
	s := id.String()
	return &s
}

func timeString(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.UTC().Format(time.RFC3339)
	return &s
}
