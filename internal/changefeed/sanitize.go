package changefeed

import (
	"time"

	"github.com/reginaldo-miranda/barAppAdmin-sub000/internal/model"

	"github.com/google/uuid"
)

// Event names emitted to clients.
const (
	EventProductInsert = "product:insert"
	EventSaleInsert    = "sale:insert"
	EventSaleUpdate    = "sale:update"
	EventTableInsert   = "mesa:insert"
	EventTableUpdate   = "mesa:update"
)

// Event is the envelope delivered to clients.
type Event struct {
	Name      string         `json:"event"`
	Data      map[string]any `json:"data"`
	EmittedAt time.Time      `json:"emitted_at"`
}

// Sanitize turns a change into a client event carrying only allowlisted
// fields. ok is false for changes that are not broadcast (product updates,
// unknown documents).
func Sanitize(c Change) (Event, bool) {
	var (
		name string
		data map[string]any
	)
	switch doc := c.Document.(type) {
	case *model.Product:
		if c.Op != OpInsert {
			return Event{}, false
		}
		name, data = EventProductInsert, productFields(doc)
	case *model.Order:
		name, data = EventSaleInsert, orderFields(doc)
		if c.Op == OpUpdate {
			name = EventSaleUpdate
		}
	case *model.Table:
		name, data = EventTableInsert, tableFields(doc)
		if c.Op == OpUpdate {
			name = EventTableUpdate
		}
	default:
		return Event{}, false
	}
	at := c.At
	if at.IsZero() {
		at = time.Now().UTC()
	}
	return Event{Name: name, Data: data, EmittedAt: at}, true
}

func productFields(p *model.Product) map[string]any {
	return map[string]any{
		"id":       p.ID.String(),
		"name":     p.Name,
		"price":    p.Price.StringFixed(2),
		"category": p.Category,
		"active":   p.Active,
	}
}

func orderFields(o *model.Order) map[string]any {
	return map[string]any{
		"id":           o.ID.String(),
		"status":       o.Status,
		"total":        o.Total.StringFixed(2),
		"subtotal":     o.Subtotal.StringFixed(2),
		"discount":     o.Discount.StringFixed(2),
		"sale_type":    o.SaleType,
		"table_id":     optionalID(o.TableID),
		"employee_id":  o.EmployeeID.String(),
		"created_at":   o.CreatedAt.UTC().Format(time.RFC3339),
		"finalized_at": optionalTime(o.FinalizedAt),
	}
}

func tableFields(t *model.Table) map[string]any {
	return map[string]any{
		"id":               t.ID.String(),
		"number":           t.Number,
		"name":             optionalString(t.Name),
		"status":           t.Status,
		"capacity":         t.Capacity,
		"current_order_id": optionalID(t.CurrentOrderID),
		"responsible_name": optionalString(t.ResponsibleName),
		"clients_count":    t.ClientsCount,
		"opened_at":        optionalTime(t.OpenedAt),
	}
}

func optionalID(id *uuid.UUID) any {
	if id == nil {
		return nil
	}
	return id.String()
}

func optionalTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC().Format(time.RFC3339)
}

func optionalString(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}
