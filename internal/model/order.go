package model

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Order status values. finalized and canceled are terminal.
const (
	OrderOpen      = "open"
	OrderFinalized = "finalized"
	OrderCanceled  = "canceled"
)

// Sale types.
const (
	SaleCounter = "counter"
	SaleTable   = "table"
	SaleTab     = "tab"
)

// Payment methods recognised by the register.
const (
	PaymentCash = "cash"
	PaymentCard = "card"
	PaymentPix  = "pix"
)

// Order is a customer transaction ("venda"). Items live in the same row so the
// whole document is replaced in a single write.
type Order struct {
	ID            uuid.UUID       `gorm:"type:uuid;primaryKey"`
	Status        string          `gorm:"type:varchar(20);not null;default:'open';index"`
	SaleType      string          `gorm:"type:varchar(20);not null"`
	Items         OrderItems      `gorm:"type:jsonb;not null"`
	Subtotal      decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	Discount      decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	Total         decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	PaymentMethod string          `gorm:"type:varchar(20)"`

	TableID    *uuid.UUID `gorm:"type:uuid;index"`
	CustomerID *uuid.UUID `gorm:"type:uuid"`
	EmployeeID uuid.UUID  `gorm:"type:uuid;not null"`
	TabName    *string
	Notes      *string

	// Snapshot fields, captured at finalize time only.
	ResponsibleName      string
	AttendantName        string
	AttendantID          *uuid.UUID `gorm:"type:uuid"`
	OpeningAttendantName string
	OpeningAttendantID   *uuid.UUID `gorm:"type:uuid"`

	Version     int `gorm:"not null;default:0"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
	FinalizedAt *time.Time `gorm:"index"`
	CanceledAt  *time.Time
}

func (Order) TableName() string { return "orders" }

// OrderItem is one line of an order. UnitPrice and ProductName are snapshots
// of the product at the time the line was created.
type OrderItem struct {
	ProductID   uuid.UUID       `json:"product_id"`
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Subtotal    decimal.Decimal `json:"subtotal"`
}

// OrderItems is stored as a jsonb array.
type OrderItems []OrderItem

func (i OrderItems) Value() (driver.Value, error) {
	if i == nil {
		return "[]", nil
	}
	b, err := json.Marshal(i)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (i *OrderItems) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*i = OrderItems{}
		return nil
	case []byte:
		return json.Unmarshal(v, i)
	case string:
		return json.Unmarshal([]byte(v), i)
	default:
		return errors.New("order items: unsupported column type")
	}
}

// IsOpen reports whether the order still accepts mutations.
func (o *Order) IsOpen() bool { return o.Status == OrderOpen }

// FindItem returns the index of the line for productID, or -1.
func (o *Order) FindItem(productID uuid.UUID) int {
	for i := range o.Items {
		if o.Items[i].ProductID == productID {
			return i
		}
	}
	return -1
}

// Recalculate recomputes every line subtotal, the order subtotal and
// total = max(0, subtotal - discount). Client-supplied subtotals are never kept.
func (o *Order) Recalculate() {
	subtotal := decimal.Zero
	for i := range o.Items {
		line := &o.Items[i]
		line.Subtotal = line.UnitPrice.Mul(decimal.NewFromInt(int64(line.Quantity)))
		subtotal = subtotal.Add(line.Subtotal)
	}
	o.Subtotal = subtotal
	total := subtotal.Sub(o.Discount)
	if total.IsNegative() {
		total = decimal.Zero
	}
	o.Total = total
}

// Clone returns a copy that shares no mutable state with o.
func (o *Order) Clone() *Order {
	c := *o
	c.Items = append(OrderItems(nil), o.Items...)
	return &c
}
