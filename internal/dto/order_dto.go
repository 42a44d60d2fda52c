package dto

import "github.com/shopspring/decimal"

// ─── Filter / List ──────────────────────────────────────────────────────────

// OrderFilter is bound from the query string of GET /order.
type OrderFilter struct {
	Status   string `form:"status"`    // open | finalized | canceled | empty = all
	SaleType string `form:"sale_type"` // counter | table | tab
	TableID  string `form:"table_id"  validate:"omitempty,uuid"`
	Date     string `form:"date"      validate:"omitempty,datetime=2006-01-02"`
	Page     int    `form:"page,default=1"   validate:"min=1"`
	Limit    int    `form:"limit,default=50" validate:"min=1,max=200"`
}

type OrderListResponse struct {
	Data  []OrderResponse `json:"data"`
	Total int64           `json:"total"`
	Page  int             `json:"page"`
	Limit int             `json:"limit"`
}

// ─── Request DTOs ────────────────────────────────────────────────────────────

type CreateOrderRequest struct {
	SaleType   string  `json:"sale_type"   validate:"required,oneof=counter table tab"`
	EmployeeID string  `json:"employee_id" validate:"omitempty,uuid"`
	TableID    *string `json:"table_id"    validate:"omitempty,uuid"`
	CustomerID *string `json:"customer_id" validate:"omitempty,uuid"`
	TabName    *string `json:"tab_name"    validate:"omitempty,max=120"`
	Notes      *string `json:"notes"       validate:"omitempty,max=500"`
	// TotalHint is accepted for compatibility with older clients; totals are
	// always recomputed from items.
	TotalHint *decimal.Decimal `json:"total"`
}

type AddItemRequest struct {
	ProductID string `json:"product_id" validate:"required,uuid"`
	Quantity  int    `json:"quantity"   validate:"required,min=1"`
}

type UpdateItemRequest struct {
	Quantity int `json:"quantity" validate:"required,min=1"`
}

type DiscountRequest struct {
	Amount decimal.Decimal `json:"amount" validate:"min=0"`
}

type FinalizeOrderRequest struct {
	PaymentMethod string `json:"payment_method" validate:"omitempty,max=40"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type OrderItemResponse struct {
	ProductID   string          `json:"product_id"`
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Subtotal    decimal.Decimal `json:"subtotal"`
}

// EmployeeRef is a joined employee summary.
type EmployeeRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// TableRef is a joined table summary.
type TableRef struct {
	ID     string  `json:"id"`
	Number int     `json:"number"`
	Name   *string `json:"name"`
}

type OrderResponse struct {
	ID            string              `json:"id"`
	Status        string              `json:"status"`
	SaleType      string              `json:"sale_type"`
	Items         []OrderItemResponse `json:"items"`
	Subtotal      decimal.Decimal     `json:"subtotal"`
	Discount      decimal.Decimal     `json:"discount"`
	Total         decimal.Decimal     `json:"total"`
	PaymentMethod string              `json:"payment_method,omitempty"`
	TableID       *string             `json:"table_id"`
	Table         *TableRef           `json:"table,omitempty"`
	CustomerID    *string             `json:"customer_id"`
	EmployeeID    string              `json:"employee_id"`
	Employee      *EmployeeRef        `json:"employee,omitempty"`
	TabName       *string             `json:"tab_name"`
	Notes         *string             `json:"notes"`

	ResponsibleName      string  `json:"responsible_name"`
	AttendantName        string  `json:"attendant_name"`
	AttendantID          *string `json:"attendant_id"`
	OpeningAttendantName string  `json:"opening_attendant_name"`
	OpeningAttendantID   *string `json:"opening_attendant_id"`

	CreatedAt   string  `json:"created_at"`
	UpdatedAt   string  `json:"updated_at"`
	FinalizedAt *string `json:"finalized_at"`
	CanceledAt  *string `json:"canceled_at"`
}
