package model

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Register status values.
const (
	RegisterOpen   = "open"
	RegisterClosed = "closed"
)

// CashRegister is one time-boxed accounting window ("caixa").
// At most one register is open at a time; the totals are derived from SalesLog.
type CashRegister struct {
	ID            uuid.UUID        `gorm:"type:uuid;primaryKey"`
	Status        string           `gorm:"type:varchar(20);not null;default:'open'"`
	OpenedBy      uuid.UUID        `gorm:"type:uuid;not null"`
	OpenedAt      time.Time        `gorm:"not null"`
	ClosedBy      *uuid.UUID       `gorm:"type:uuid"`
	ClosedAt      *time.Time       `gorm:"index"`
	OpeningAmount decimal.Decimal  `gorm:"type:decimal(12,2);not null"`
	ClosingAmount *decimal.Decimal `gorm:"type:decimal(12,2)"`
	ClosingNote   *string

	TotalSales decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	TotalCash  decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	TotalCard  decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	TotalPix   decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	SalesLog   SalesLog        `gorm:"type:jsonb;not null"`

	Version   int `gorm:"not null;default:0"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (CashRegister) TableName() string { return "cash_registers" }

// SaleEntry is an immutable line of the register's sales log.
type SaleEntry struct {
	OrderID       uuid.UUID       `json:"order_id"`
	Amount        decimal.Decimal `json:"amount"`
	PaymentMethod string          `json:"payment_method"`
	Timestamp     time.Time       `json:"timestamp"`
}

// SalesLog is stored as a jsonb array.
type SalesLog []SaleEntry

func (l SalesLog) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	b, err := json.Marshal(l)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (l *SalesLog) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*l = SalesLog{}
		return nil
	case []byte:
		return json.Unmarshal(v, l)
	case string:
		return json.Unmarshal([]byte(v), l)
	default:
		return errors.New("sales log: unsupported column type")
	}
}

// HasOrder reports whether a sale for orderID was already registered.
func (r *CashRegister) HasOrder(orderID uuid.UUID) bool {
	for _, e := range r.SalesLog {
		if e.OrderID == orderID {
			return true
		}
	}
	return false
}

// AppendSale records a sale and bumps total_sales and the method bucket.
func (r *CashRegister) AppendSale(e SaleEntry) {
	r.SalesLog = append(r.SalesLog, e)
	r.TotalSales = r.TotalSales.Add(e.Amount)
	switch e.PaymentMethod {
	case PaymentCard:
		r.TotalCard = r.TotalCard.Add(e.Amount)
	case PaymentPix:
		r.TotalPix = r.TotalPix.Add(e.Amount)
	default:
		r.TotalCash = r.TotalCash.Add(e.Amount)
	}
}

func (r *CashRegister) Clone() *CashRegister {
	c := *r
	c.SalesLog = append(SalesLog(nil), r.SalesLog...)
	return &c
}
